package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/base/log"
	"github.com/palette-xyz/goapi/domain"
	"github.com/palette-xyz/goapi/domain/market"
	"github.com/palette-xyz/goapi/service/query"
)

func makeListingFindQuery(opts market.ListingFindAllOptions) (query bson.M) {
	query = bson.M{}

	if opts.ContractAddress != nil {
		query["contractAddress"] = *opts.ContractAddress
	}

	if opts.TokenId != nil {
		query["tokenID"] = *opts.TokenId
	}

	if opts.Currency != nil {
		query["currency"] = *opts.Currency
	} else if opts.HasCurrency != nil && !*opts.HasCurrency {
		query["currency"] = nil
	}

	if opts.ActiveAt != nil {
		query["status"] = market.ListingStatusActive
		query["startTime"] = bson.M{"$lte": *opts.ActiveAt}
		query["$or"] = []bson.M{
			{"endTime": nil},
			{"endTime": bson.M{"$gt": *opts.ActiveAt}},
		}
	}

	return query
}

type listingMongoRepo struct {
	q query.Mongo
}

func NewListingRepo(q query.Mongo) market.ListingRepo {
	return &listingMongoRepo{
		q: q,
	}
}

func (r *listingMongoRepo) FindAll(c ctx.Ctx, optFns ...market.ListingFindAllOptionsFunc) ([]*market.Listing, error) {
	opts, err := market.GetListingFindAllOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("market.GetListingFindAllOptions failed")
		return nil, err
	}

	limit := int(0)
	if opts.Limit != nil {
		limit = int(*opts.Limit)
	}

	sort := "price"
	if opts.SortBy != nil && opts.SortDir != nil {
		sort = *opts.SortBy
		if *opts.SortDir == domain.SortDirDesc {
			sort = "-" + sort
		}
	}

	qry := makeListingFindQuery(opts)
	res := []*market.Listing{}

	if err := r.q.Search(c, domain.TableListings, 0, limit, sort, qry, &res); err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"query": qry,
		}).Error("q.Search failed")
		return nil, err
	}

	return res, nil
}

func (r *listingMongoRepo) Upsert(c ctx.Ctx, listing *market.Listing) error {
	listing.ContractAddress = listing.ContractAddress.ToLower()
	if listing.Currency != nil {
		listing.Currency = listing.Currency.ToLowerPtr()
	}

	if err := r.q.Upsert(c, domain.TableListings, bson.M{
		"contractAddress": listing.ContractAddress,
		"tokenID":         listing.TokenId,
		"owner":           listing.Owner.ToLower(),
		"currency":        listing.Currency,
		"startTime":       listing.StartTime,
	}, listing); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": listing.ContractAddress,
			"tokenId":  listing.TokenId,
		}).Error("q.Upsert failed")
		return err
	}

	return nil
}
