package item

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/palette-xyz/goapi/domain"
)

type SortOption = string

const (
	SortOptionPriceAsc     SortOption = "price_low_to_high"
	SortOptionPriceDesc    SortOption = "price_high_to_low"
	SortOptionRarityAsc    SortOption = "rarity_rare_to_common"
	SortOptionRarityDesc   SortOption = "rarity_common_to_rare"
	SortOptionCreatedAtAsc SortOption = "created_at_low_to_high"
)

func IsValidSortOption(value SortOption) bool {
	switch value {
	case SortOptionPriceAsc, SortOptionPriceDesc,
		SortOptionRarityAsc, SortOptionRarityDesc,
		SortOptionCreatedAtAsc, "":
		return true
	}
	return false
}

// SearchParams binds the raw item listing query string
type SearchParams struct {
	CurrencyId *string    `query:"currencyId"`
	Search     *string    `query:"search"`
	Listed     *bool      `query:"listed"`
	Auctioned  *bool      `query:"auctioned"`
	SortBy     SortOption `query:"sortBy"`
	RankMin    *int32     `query:"rankMin"`
	RankMax    *int32     `query:"rankMax"`
	// IncludeUnranked defaults to true, rank windows drop it to false
	// unless given explicitly
	IncludeUnranked *bool `query:"includeUnranked"`
	// attrFilters={"name":"Fur","values":["Gold","Cream"]}
	AttrFilters []string `query:"attrFilters"`
	// Traits is the delimited form traits=Fur:Gold|Background:Zombie,
	// the repeated trait[Fur]=Gold form binds straight off the query
	Traits *string `query:"traits"`
	Cursor *string `query:"cursor"`
	Limit  int32   `query:"limit"`
}

// ParseAttrFilters decodes the repeated attrFilters query values
func ParseAttrFilters(raw []string) ([]AttributeFilter, error) {
	filters := []AttributeFilter{}
	for _, af := range raw {
		attr := AttributeFilter{}
		if err := json.Unmarshal([]byte(af), &attr); err != nil {
			return nil, domain.ErrBadParamInput
		}
		if len(attr.Name) == 0 || len(attr.Values) == 0 {
			return nil, domain.ErrBadParamInput
		}
		filters = append(filters, attr)
	}
	return filters, nil
}

const traitParamPfx = "trait["

// CollectAttrFilters merges the accepted trait filter forms into one
// filter per trait:
//
//	attrFilters={"name":"Fur","values":["Gold"]}
//	trait[Fur]=Gold&trait[Fur]=Cream
//	traits=Fur:Gold|Background:Zombie
func CollectAttrFilters(attrFilters []string, traits *string, query url.Values) ([]AttributeFilter, error) {
	order := []string{}
	values := map[string][]string{}
	add := func(name, value string) {
		if _, ok := values[name]; !ok {
			order = append(order, name)
		}
		for _, v := range values[name] {
			if v == value {
				return
			}
		}
		values[name] = append(values[name], value)
	}

	jsonFilters, err := ParseAttrFilters(attrFilters)
	if err != nil {
		return nil, err
	}
	for _, f := range jsonFilters {
		for _, v := range f.Values {
			add(f.Name, v)
		}
	}

	// query is a map, sort the keys for a stable filter order
	traitKeys := []string{}
	for k := range query {
		if strings.HasPrefix(k, traitParamPfx) && strings.HasSuffix(k, "]") {
			traitKeys = append(traitKeys, k)
		}
	}
	sort.Strings(traitKeys)
	for _, k := range traitKeys {
		name := k[len(traitParamPfx) : len(k)-1]
		if len(name) == 0 {
			return nil, domain.ErrBadParamInput
		}
		for _, v := range query[k] {
			if len(v) == 0 {
				return nil, domain.ErrBadParamInput
			}
			add(name, v)
		}
	}

	if traits != nil && len(*traits) > 0 {
		for _, pair := range strings.Split(*traits, "|") {
			parts := strings.SplitN(pair, ":", 2)
			if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) == 0 {
				return nil, domain.ErrBadParamInput
			}
			add(parts[0], parts[1])
		}
	}

	filters := make([]AttributeFilter, 0, len(order))
	for _, name := range order {
		filters = append(filters, AttributeFilter{Name: name, Values: values[name]})
	}
	return filters, nil
}

// SearchOptions is the validated form of SearchParams handed to the
// usecase layer
type SearchOptions struct {
	CurrencyId      *string
	Search          *string
	Listed          *bool
	Auctioned       *bool
	SortBy          SortOption
	RankMin         *int32
	RankMax         *int32
	IncludeUnranked bool
	Attributes      []AttributeFilter
	Cursor          *string
	Limit           int32
}

// NeedsRankedRead reports whether the request can only be served by the
// annotated aggregation read. Price and rarity orderings plus any rank
// constraint and trait filter depend on joined market data.
func (o *SearchOptions) NeedsRankedRead() bool {
	switch o.SortBy {
	case SortOptionPriceAsc, SortOptionPriceDesc, SortOptionRarityAsc, SortOptionRarityDesc:
		return true
	}
	if o.RankMin != nil || o.RankMax != nil || !o.IncludeUnranked {
		return true
	}
	return len(o.Attributes) > 0
}
