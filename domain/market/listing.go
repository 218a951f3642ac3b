package market

import (
	"time"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/domain"
)

type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusCancelled ListingStatus = "cancelled"
	ListingStatusFilled    ListingStatus = "filled"
)

type Listing struct {
	ContractAddress domain.Address `json:"contractAddress" bson:"contractAddress"`
	TokenId         domain.TokenId `json:"tokenId" bson:"tokenID"`
	Owner           domain.Address `json:"owner" bson:"owner"`
	// Currency is nil for the native asset
	Currency *domain.Address `json:"currency,omitempty" bson:"currency"`
	// PriceBase is the exact price in base units
	PriceBase string `json:"priceBase" bson:"priceBase"`
	// Price is the display-unit price derived from PriceBase, lossy,
	// used for ordering only
	Price     float64       `json:"price" bson:"price"`
	Status    ListingStatus `json:"status" bson:"status"`
	StartTime time.Time     `json:"startTime" bson:"startTime"`
	EndTime   *time.Time    `json:"endTime,omitempty" bson:"endTime"`
	CreatedAt time.Time     `json:"createdAt" bson:"createdAt"`
}

// IsActiveAt reports whether the listing is eligible at t
func (l *Listing) IsActiveAt(t time.Time) bool {
	if l.Status != ListingStatusActive {
		return false
	}
	if l.StartTime.After(t) {
		return false
	}
	return l.EndTime == nil || l.EndTime.After(t)
}

// MatchesCurrency reports whether the listing is priced in cur
func (l *Listing) MatchesCurrency(cur *domain.ResolvedCurrency) bool {
	if cur.IsNative() {
		return l.Currency == nil
	}
	return l.Currency != nil && cur.Address != nil && l.Currency.Equals(*cur.Address)
}

type ListingFindAllOptions struct {
	ContractAddress *domain.Address
	TokenId         *domain.TokenId
	// Currency filtering, HasCurrency=false means native only
	Currency    *domain.Address
	HasCurrency *bool
	ActiveAt    *time.Time
	SortBy      *string
	SortDir     *domain.SortDir
	Limit       *int32
}

type ListingFindAllOptionsFunc func(*ListingFindAllOptions) error

func GetListingFindAllOptions(opts ...ListingFindAllOptionsFunc) (ListingFindAllOptions, error) {
	res := ListingFindAllOptions{}

	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}

	return res, nil
}

func ListingWithContractAddress(address domain.Address) ListingFindAllOptionsFunc {
	return func(options *ListingFindAllOptions) error {
		options.ContractAddress = address.ToLowerPtr()
		return nil
	}
}

func ListingWithTokenId(tokenId domain.TokenId) ListingFindAllOptionsFunc {
	return func(options *ListingFindAllOptions) error {
		options.TokenId = &tokenId
		return nil
	}
}

func ListingWithCurrency(cur domain.ResolvedCurrency) ListingFindAllOptionsFunc {
	return func(options *ListingFindAllOptions) error {
		if cur.IsNative() {
			hasCurrency := false
			options.HasCurrency = &hasCurrency
		} else if cur.Address != nil {
			options.Currency = cur.Address.ToLowerPtr()
		}
		return nil
	}
}

func ListingWithActiveAt(t time.Time) ListingFindAllOptionsFunc {
	return func(options *ListingFindAllOptions) error {
		options.ActiveAt = &t
		return nil
	}
}

func ListingWithSort(sortby string, sortdir domain.SortDir) ListingFindAllOptionsFunc {
	return func(options *ListingFindAllOptions) error {
		options.SortBy = &sortby
		options.SortDir = &sortdir
		return nil
	}
}

func ListingWithLimit(limit int32) ListingFindAllOptionsFunc {
	return func(options *ListingFindAllOptions) error {
		options.Limit = &limit
		return nil
	}
}

type ListingRepo interface {
	FindAll(c ctx.Ctx, opts ...ListingFindAllOptionsFunc) ([]*Listing, error)
	Upsert(c ctx.Ctx, listing *Listing) error
}
