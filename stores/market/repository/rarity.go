package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/base/log"
	"github.com/palette-xyz/goapi/domain"
	"github.com/palette-xyz/goapi/domain/market"
	"github.com/palette-xyz/goapi/service/query"
)

type rarityMongoRepo struct {
	q query.Mongo
}

func NewRarityRepo(q query.Mongo) market.RarityRepo {
	return &rarityMongoRepo{
		q: q,
	}
}

func (r *rarityMongoRepo) FindOne(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (*market.RarityRecord, error) {
	res := &market.RarityRecord{}

	if err := r.q.FindOne(c, domain.TableRarityRecords, bson.M{
		"contractAddress": contract.ToLower(),
		"tokenID":         tokenId,
	}, res); errors.Is(err, query.ErrNotFound) {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
			"tokenId":  tokenId,
		}).Error("q.FindOne failed")
		return nil, err
	}

	return res, nil
}

func (r *rarityMongoRepo) CountRanked(c ctx.Ctx, contract domain.Address) (int, error) {
	cnt, err := r.q.Count(c, domain.TableRarityRecords, bson.M{
		"contractAddress": contract.ToLower(),
		"rank":            bson.M{"$ne": nil},
	})
	if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
		}).Error("q.Count failed")
		return 0, err
	}
	return cnt, nil
}

func (r *rarityMongoRepo) Upsert(c ctx.Ctx, record *market.RarityRecord) error {
	record.ContractAddress = record.ContractAddress.ToLower()

	if err := r.q.Upsert(c, domain.TableRarityRecords, bson.M{
		"contractAddress": record.ContractAddress,
		"tokenID":         record.TokenId,
	}, record); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": record.ContractAddress,
			"tokenId":  record.TokenId,
		}).Error("q.Upsert failed")
		return err
	}

	return nil
}
