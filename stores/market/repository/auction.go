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

type auctionMongoRepo struct {
	q query.Mongo
}

func NewAuctionRepo(q query.Mongo) market.AuctionRepo {
	return &auctionMongoRepo{
		q: q,
	}
}

func (r *auctionMongoRepo) FindOne(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (*market.Auction, error) {
	res := &market.Auction{}

	if err := r.q.FindOne(c, domain.TableAuctions, bson.M{
		"contractAddress": contract.ToLower(),
		"tokenID":         tokenId,
		"status":          market.AuctionStatusActive,
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

func (r *auctionMongoRepo) Upsert(c ctx.Ctx, auction *market.Auction) error {
	auction.ContractAddress = auction.ContractAddress.ToLower()

	if err := r.q.Upsert(c, domain.TableAuctions, bson.M{
		"contractAddress": auction.ContractAddress,
		"tokenID":         auction.TokenId,
		"startTime":       auction.StartTime,
	}, auction); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": auction.ContractAddress,
			"tokenId":  auction.TokenId,
		}).Error("q.Upsert failed")
		return err
	}

	return nil
}
