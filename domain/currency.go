package domain

import (
	"github.com/palette-xyz/goapi/base/ctx"
)

type CurrencyKind string

const (
	CurrencyKindNative CurrencyKind = "native"
	CurrencyKindToken  CurrencyKind = "token"
)

// Currency is a registered fungible payment token. The native asset is
// not stored here, it comes from deployment config.
type Currency struct {
	Name     string  `json:"name" bson:"name"`
	Symbol   string  `json:"symbol" bson:"symbol"`
	Decimals int32   `json:"decimals" bson:"decimals"`
	Address  Address `json:"address" bson:"address"`
	IsActive bool    `json:"isActive" bson:"isActive"`
}

// ResolvedCurrency is the pricing context of a request. Address is nil
// for the native asset.
type ResolvedCurrency struct {
	Kind     CurrencyKind `json:"kind"`
	Address  *Address     `json:"address,omitempty"`
	Symbol   string       `json:"symbol"`
	Decimals int32        `json:"decimals"`
}

func (c *ResolvedCurrency) IsNative() bool {
	return c.Kind == CurrencyKindNative
}

type CurrencyRepo interface {
	FindOne(ctx.Ctx, Address) (*Currency, error)
	FindAllActive(ctx.Ctx) ([]*Currency, error)
	Upsert(ctx.Ctx, *Currency) error
}

// CurrencyUseCase resolves a request-scoped currency selector into a
// concrete pricing context.
type CurrencyUseCase interface {
	Resolve(c ctx.Ctx, currencyId *string) (*ResolvedCurrency, error)
}
