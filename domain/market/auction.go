package market

import (
	"time"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/domain"
)

type AuctionStatus string

const (
	AuctionStatusActive   AuctionStatus = "active"
	AuctionStatusResolved AuctionStatus = "resolved"
)

// Auction has at most one active instance per item
type Auction struct {
	ContractAddress domain.Address  `json:"contractAddress" bson:"contractAddress"`
	TokenId         domain.TokenId  `json:"tokenId" bson:"tokenID"`
	Owner           domain.Address  `json:"owner" bson:"owner"`
	Currency        *domain.Address `json:"currency,omitempty" bson:"currency"`
	ReservePriceBase string         `json:"reservePriceBase" bson:"reservePriceBase"`
	Status          AuctionStatus   `json:"status" bson:"status"`
	StartTime       time.Time       `json:"startTime" bson:"startTime"`
	EndTime         time.Time       `json:"endTime" bson:"endTime"`
}

func (a *Auction) IsActiveAt(t time.Time) bool {
	return a.Status == AuctionStatusActive && !a.StartTime.After(t) && a.EndTime.After(t)
}

type AuctionRepo interface {
	FindOne(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (*Auction, error)
	Upsert(c ctx.Ctx, auction *Auction) error
}
