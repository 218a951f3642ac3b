package market

import (
	"time"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/domain"
)

// Sale is an immutable trade record
type Sale struct {
	ContractAddress domain.Address  `json:"contractAddress" bson:"contractAddress"`
	TokenId         domain.TokenId  `json:"tokenId" bson:"tokenID"`
	Buyer           domain.Address  `json:"buyer" bson:"buyer"`
	Seller          domain.Address  `json:"seller" bson:"seller"`
	Currency        *domain.Address `json:"currency,omitempty" bson:"currency"`
	PriceBase       string          `json:"priceBase" bson:"priceBase"`
	Price           float64         `json:"price" bson:"price"`
	Time            time.Time       `json:"time" bson:"time"`
}

func (s *Sale) MatchesCurrency(cur *domain.ResolvedCurrency) bool {
	if cur.IsNative() {
		return s.Currency == nil
	}
	return s.Currency != nil && cur.Address != nil && s.Currency.Equals(*cur.Address)
}

type SaleFindAllOptions struct {
	ContractAddress *domain.Address
	Currency        *domain.Address
	HasCurrency     *bool
	TimeGTE         *time.Time
	TimeLT          *time.Time
	Limit           *int32
}

type SaleFindAllOptionsFunc func(*SaleFindAllOptions) error

func GetSaleFindAllOptions(opts ...SaleFindAllOptionsFunc) (SaleFindAllOptions, error) {
	res := SaleFindAllOptions{}

	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}

	return res, nil
}

func SaleWithContractAddress(address domain.Address) SaleFindAllOptionsFunc {
	return func(options *SaleFindAllOptions) error {
		options.ContractAddress = address.ToLowerPtr()
		return nil
	}
}

func SaleWithCurrency(cur domain.ResolvedCurrency) SaleFindAllOptionsFunc {
	return func(options *SaleFindAllOptions) error {
		if cur.IsNative() {
			hasCurrency := false
			options.HasCurrency = &hasCurrency
		} else if cur.Address != nil {
			options.Currency = cur.Address.ToLowerPtr()
		}
		return nil
	}
}

func SaleWithTimeRange(gte time.Time, lt time.Time) SaleFindAllOptionsFunc {
	return func(options *SaleFindAllOptions) error {
		options.TimeGTE = &gte
		options.TimeLT = &lt
		return nil
	}
}

func SaleWithTimeGTE(gte time.Time) SaleFindAllOptionsFunc {
	return func(options *SaleFindAllOptions) error {
		options.TimeGTE = &gte
		return nil
	}
}

func SaleWithLimit(limit int32) SaleFindAllOptionsFunc {
	return func(options *SaleFindAllOptions) error {
		options.Limit = &limit
		return nil
	}
}

type SaleRepo interface {
	FindAll(c ctx.Ctx, opts ...SaleFindAllOptionsFunc) ([]*Sale, error)
	Insert(c ctx.Ctx, sale *Sale) error
}
