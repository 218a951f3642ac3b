package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/base/log"
	"github.com/palette-xyz/goapi/domain"
	"github.com/palette-xyz/goapi/domain/collection"
	"github.com/palette-xyz/goapi/service/query"
)

func makeFindQuery(opts collection.FindAllOptions) bson.M {
	query := bson.M{}

	if opts.Status != nil {
		query["status"] = *opts.Status
	}

	return query
}

type collectionMongoRepo struct {
	q query.Mongo
}

func NewCollectionRepo(q query.Mongo) collection.Repo {
	return &collectionMongoRepo{
		q: q,
	}
}

func (r *collectionMongoRepo) FindOne(c ctx.Ctx, contract domain.Address) (*collection.Collection, error) {
	res := &collection.Collection{}

	if err := r.q.FindOne(c, domain.TableCollections, bson.M{
		"contractAddress": contract.ToLower(),
	}, res); errors.Is(err, query.ErrNotFound) {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
		}).Error("q.FindOne failed")
		return nil, err
	}

	return res, nil
}

func (r *collectionMongoRepo) FindAll(c ctx.Ctx, optFns ...collection.FindAllOptionsFunc) ([]*collection.Collection, error) {
	opts, err := collection.GetFindAllOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("collection.GetFindAllOptions failed")
		return nil, err
	}

	limit := 0
	if opts.Limit != nil {
		limit = int(*opts.Limit)
	}

	res := []*collection.Collection{}
	if err := r.q.Search(c, domain.TableCollections, 0, limit, "createdAt", makeFindQuery(opts), &res); err != nil {
		c.WithField("err", err).Error("q.Search failed")
		return nil, err
	}

	return res, nil
}

func (r *collectionMongoRepo) Upsert(c ctx.Ctx, col *collection.Collection) error {
	col.ContractAddress = col.ContractAddress.ToLower()

	if err := r.q.Upsert(c, domain.TableCollections, bson.M{
		"contractAddress": col.ContractAddress,
	}, col); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": col.ContractAddress,
		}).Error("q.Upsert failed")
		return err
	}

	return nil
}
