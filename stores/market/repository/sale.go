package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/base/log"
	"github.com/palette-xyz/goapi/domain"
	"github.com/palette-xyz/goapi/domain/market"
	"github.com/palette-xyz/goapi/service/query"
)

// maxSaleRows bounds any single volume scan
const maxSaleRows = int32(5000)

func makeSaleFindQuery(opts market.SaleFindAllOptions) (query bson.M) {
	query = bson.M{}

	if opts.ContractAddress != nil {
		query["contractAddress"] = *opts.ContractAddress
	}

	if opts.Currency != nil {
		query["currency"] = *opts.Currency
	} else if opts.HasCurrency != nil && !*opts.HasCurrency {
		query["currency"] = nil
	}

	if opts.TimeGTE != nil || opts.TimeLT != nil {
		subquery := bson.M{}
		if opts.TimeGTE != nil {
			subquery["$gte"] = *opts.TimeGTE
		}
		if opts.TimeLT != nil {
			subquery["$lt"] = *opts.TimeLT
		}
		query["time"] = subquery
	}

	return query
}

type saleMongoRepo struct {
	q query.Mongo
}

func NewSaleRepo(q query.Mongo) market.SaleRepo {
	return &saleMongoRepo{
		q: q,
	}
}

func (r *saleMongoRepo) FindAll(c ctx.Ctx, optFns ...market.SaleFindAllOptionsFunc) ([]*market.Sale, error) {
	opts, err := market.GetSaleFindAllOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("market.GetSaleFindAllOptions failed")
		return nil, err
	}

	limit := maxSaleRows
	if opts.Limit != nil && *opts.Limit > 0 && *opts.Limit < maxSaleRows {
		limit = *opts.Limit
	}

	qry := makeSaleFindQuery(opts)
	res := []*market.Sale{}

	if err := r.q.Search(c, domain.TableSales, 0, int(limit), "-time", qry, &res); err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"query": qry,
		}).Error("q.Search failed")
		return nil, err
	}

	return res, nil
}

func (r *saleMongoRepo) Insert(c ctx.Ctx, sale *market.Sale) error {
	sale.ContractAddress = sale.ContractAddress.ToLower()
	if sale.Currency != nil {
		sale.Currency = sale.Currency.ToLowerPtr()
	}

	if err := r.q.Insert(c, domain.TableSales, sale); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": sale.ContractAddress,
			"tokenId":  sale.TokenId,
		}).Error("q.Insert failed")
		return err
	}

	return nil
}
