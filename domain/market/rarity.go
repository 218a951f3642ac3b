package market

import (
	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/domain"
)

// RarityRecord is the scored output of the offline rarity job. Rank is
// nil until the whole collection has been scored.
type RarityRecord struct {
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress"`
	TokenId         domain.TokenId `json:"tokenId" bson:"tokenID"`
	Score           float64        `json:"score" bson:"score"`
	Rank            *int32         `json:"rank,omitempty" bson:"rank"`
}

type RarityRepo interface {
	FindOne(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (*RarityRecord, error)
	// CountRanked returns the number of records with an assigned rank
	CountRanked(c ctx.Ctx, contract domain.Address) (int, error)
	Upsert(c ctx.Ctx, record *RarityRecord) error
}
