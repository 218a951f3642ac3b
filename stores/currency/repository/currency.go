package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/base/log"
	"github.com/palette-xyz/goapi/domain"
	"github.com/palette-xyz/goapi/service/query"
)

type currencyMongoRepo struct {
	q query.Mongo
}

func NewCurrencyRepo(q query.Mongo) domain.CurrencyRepo {
	return &currencyMongoRepo{
		q: q,
	}
}

func (r *currencyMongoRepo) FindOne(c ctx.Ctx, address domain.Address) (*domain.Currency, error) {
	res := &domain.Currency{}

	if err := r.q.FindOne(c, domain.TableCurrencies, bson.M{
		"address": address.ToLower(),
	}, res); errors.Is(err, query.ErrNotFound) {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"address": address,
		}).Error("q.FindOne failed")
		return nil, err
	}

	return res, nil
}

func (r *currencyMongoRepo) FindAllActive(c ctx.Ctx) ([]*domain.Currency, error) {
	res := []*domain.Currency{}

	if err := r.q.Search(c, domain.TableCurrencies, 0, 0, "symbol", bson.M{"isActive": true}, &res); err != nil {
		c.WithField("err", err).Error("q.Search failed")
		return nil, err
	}

	return res, nil
}

func (r *currencyMongoRepo) Upsert(c ctx.Ctx, currency *domain.Currency) error {
	currency.Address = currency.Address.ToLower()

	if err := r.q.Upsert(c, domain.TableCurrencies, bson.M{
		"address": currency.Address,
	}, currency); err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"address": currency.Address,
		}).Error("q.Upsert failed")
		return err
	}

	return nil
}
