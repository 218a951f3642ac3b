package collection

import (
	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/domain"
)

// Stats carries the aggregated market header of one collection, all
// prices in display units of Currency.
type Stats struct {
	Currency        string   `json:"currency"`
	FloorPrice      *string  `json:"floorPrice"`
	Volume          string   `json:"volume"`
	VolumeChangePct *float64 `json:"volumeChangePct,omitempty"`
}

type RankedCollection struct {
	Collection
	Stats Stats `json:"stats"`
	// VolumeAllTime is the lifetime volume in Stats.Currency display
	// units, alongside the windowed Stats.Volume
	VolumeAllTime string `json:"volumeAllTime"`
}

type TraitCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type TraitFacet struct {
	TraitType string       `json:"traitType"`
	Values    []TraitCount `json:"values"`
}

// Facets describes the filterable surface of a collection
type Facets struct {
	Population int          `json:"population"`
	Traits     []TraitFacet `json:"traits"`
}

type UseCase interface {
	FindOne(c ctx.Ctx, contract domain.Address) (*Collection, error)
	// GetStats computes floor and volume in the resolved currency.
	// window nil means all-time volume without a change rate.
	GetStats(c ctx.Ctx, contract domain.Address, cur domain.ResolvedCurrency, window *domain.TimeWindow) (*Stats, error)
	GetTop(c ctx.Ctx, window domain.TimeWindow, cur domain.ResolvedCurrency, limit int32) ([]*RankedCollection, error)
	GetFacets(c ctx.Ctx, contract domain.Address) (*Facets, error)
}
