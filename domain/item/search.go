package item

import (
	"time"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RankOptions describes one annotated, keyset paged read. It is built
// by the usecase layer, never from the wire directly.
type RankOptions struct {
	ContractAddress domain.Address
	Statuses        []Status
	Search          *string
	Attributes      []AttributeFilter
	ListedOnly      bool
	AuctionedOnly   bool
	RankMin         *int32
	RankMax         *int32
	IncludeUnranked bool
	SortBy          SortOption
	Currency        domain.ResolvedCurrency
	// keyset position, both nil for the first page
	AfterKey *float64
	AfterId  *primitive.ObjectID
	Limit    int32
	Now      time.Time
}

// RankedItem is an item annotated with joined market columns and the
// computed ordering key.
type RankedItem struct {
	Item                  `bson:",inline"`
	IsListed              bool            `bson:"isListed"`
	HasAuction            bool            `bson:"hasAuction"`
	CheapestNativePrice   *float64        `bson:"cheapestNativePrice"`
	CheapestTokenPrice    *float64        `bson:"cheapestTokenPrice"`
	CheapestTokenCurrency *domain.Address `bson:"cheapestTokenCurrency"`
	CheapestResolvedPrice *float64        `bson:"cheapestResolvedPrice"`
	// CheapestResolvedPriceBase is the exact base-unit price of the
	// listing behind CheapestResolvedPrice
	CheapestResolvedPriceBase *string  `bson:"cheapestResolvedPriceBase"`
	RarityScore               *float64 `bson:"rarityScore"`
	RarityRank                *int32   `bson:"rarityRank"`
	SortKey                   float64  `bson:"sortKey"`
}

// ItemView is the wire shape of one listed item
type ItemView struct {
	Item
	IsListed        bool     `json:"isListed"`
	ListingPrice    *string  `json:"listingPrice,omitempty"`
	ListingCurrency *string  `json:"listingCurrency,omitempty"`
	IsAuctioned     bool     `json:"isAuctioned"`
	RarityScore     *float64 `json:"rarityScore,omitempty"`
	RarityRank      *int32   `json:"rarityRank,omitempty"`
}

type SearchResult struct {
	Items      []*ItemView `json:"items"`
	NextCursor *string     `json:"nextCursor,omitempty"`
}

type UseCase interface {
	Search(c ctx.Ctx, contract domain.Address, opts SearchOptions) (*SearchResult, error)
}
