package usecase

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/viney-shih/goroutines"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/base/log"
	"github.com/palette-xyz/goapi/base/pricenorm"
	"github.com/palette-xyz/goapi/domain"
	"github.com/palette-xyz/goapi/domain/collection"
	"github.com/palette-xyz/goapi/domain/item"
	"github.com/palette-xyz/goapi/domain/market"
	"github.com/palette-xyz/goapi/service/paging"
)

const (
	defaultTopLimit = int32(10)
	maxTopLimit     = int32(100)
	// topScanLimit bounds how many reviewed collections compete for the
	// leaderboard
	topScanLimit = int32(200)
)

type CollectionUseCaseCfg struct {
	CollectionRepo collection.Repo
	ItemRepo       item.Repo
	ListingRepo    market.ListingRepo
	SaleRepo       market.SaleRepo
	RarityRepo     market.RarityRepo
}

type collectionUseCase struct {
	collectionRepo collection.Repo
	itemRepo       item.Repo
	listingRepo    market.ListingRepo
	saleRepo       market.SaleRepo
	rarityRepo     market.RarityRepo
}

func NewCollectionUseCase(cfg *CollectionUseCaseCfg) collection.UseCase {
	return &collectionUseCase{
		collectionRepo: cfg.CollectionRepo,
		itemRepo:       cfg.ItemRepo,
		listingRepo:    cfg.ListingRepo,
		saleRepo:       cfg.SaleRepo,
		rarityRepo:     cfg.RarityRepo,
	}
}

func (u *collectionUseCase) FindOne(c ctx.Ctx, contract domain.Address) (*collection.Collection, error) {
	return u.collectionRepo.FindOne(c, contract.ToLower())
}

func (u *collectionUseCase) GetStats(c ctx.Ctx, contract domain.Address, cur domain.ResolvedCurrency, window *domain.TimeWindow) (*collection.Stats, error) {
	contract = contract.ToLower()
	now := time.Now()

	stats := &collection.Stats{
		Currency: cur.Symbol,
		Volume:   decimal.Zero.String(),
	}

	floor, err := u.getFloor(c, contract, cur, now)
	if err != nil {
		return nil, err
	}
	stats.FloorPrice = floor

	if window == nil || window.IsAll() {
		vol, err := u.sumVolume(c, contract, cur, nil, nil)
		if err != nil {
			return nil, err
		}
		stats.Volume = vol.String()
		return stats, nil
	}

	if !window.IsValid() {
		return nil, domain.ErrInvalidTimeWindow
	}

	dur := window.ToDuration()
	since := now.Add(-dur)
	curr, err := u.sumVolume(c, contract, cur, &since, &now)
	if err != nil {
		return nil, err
	}

	prevSince := now.Add(-2 * dur)
	prev, err := u.sumVolume(c, contract, cur, &prevSince, &since)
	if err != nil {
		return nil, err
	}

	change := pctChange(curr, prev)
	stats.Volume = curr.String()
	stats.VolumeChangePct = &change
	return stats, nil
}

// getFloor reads the cheapest active listing priced in cur, nil when
// nothing is listed
func (u *collectionUseCase) getFloor(c ctx.Ctx, contract domain.Address, cur domain.ResolvedCurrency, now time.Time) (*string, error) {
	listings, err := u.listingRepo.FindAll(c,
		market.ListingWithContractAddress(contract),
		market.ListingWithCurrency(cur),
		market.ListingWithActiveAt(now),
		market.ListingWithSort("price", domain.SortDirAsc),
		market.ListingWithLimit(1),
	)
	if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
		}).Error("listingRepo.FindAll failed")
		return nil, err
	}
	if len(listings) == 0 {
		return nil, nil
	}

	floor, err := pricenorm.Display(listings[0].PriceBase, &cur)
	if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
			"price":    listings[0].PriceBase,
		}).Error("pricenorm.Display failed")
		return nil, err
	}
	return &floor, nil
}

// sumVolume adds up sale prices in cur over [gte, lt), exact decimal
// arithmetic on the stored base units
func (u *collectionUseCase) sumVolume(c ctx.Ctx, contract domain.Address, cur domain.ResolvedCurrency, gte, lt *time.Time) (decimal.Decimal, error) {
	optFns := []market.SaleFindAllOptionsFunc{
		market.SaleWithContractAddress(contract),
		market.SaleWithCurrency(cur),
	}
	if gte != nil && lt != nil {
		optFns = append(optFns, market.SaleWithTimeRange(*gte, *lt))
	}

	sales, err := u.saleRepo.FindAll(c, optFns...)
	if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
		}).Error("saleRepo.FindAll failed")
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, s := range sales {
		if !s.MatchesCurrency(&cur) {
			continue
		}
		v, err := pricenorm.FromBase(s.PriceBase, cur.Decimals)
		if err != nil {
			c.WithFields(log.Fields{
				"err":      err,
				"contract": contract,
				"price":    s.PriceBase,
			}).Warn("skipping unparsable sale price")
			continue
		}
		sum = sum.Add(v)
	}
	return sum, nil
}

// pctChange is the relative change of curr against prev in percent. A
// zero baseline reports 100 when anything was sold and 0 otherwise.
func pctChange(curr, prev decimal.Decimal) float64 {
	if prev.IsZero() {
		if curr.IsPositive() {
			return 100
		}
		return 0
	}
	change, _ := curr.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Float64()
	return change
}

func (u *collectionUseCase) GetTop(c ctx.Ctx, window domain.TimeWindow, cur domain.ResolvedCurrency, limit int32) ([]*collection.RankedCollection, error) {
	if !window.IsValid() {
		return nil, domain.ErrInvalidTimeWindow
	}
	limit = paging.ClampLimit(limit, defaultTopLimit, maxTopLimit)

	cols, err := u.collectionRepo.FindAll(c,
		collection.WithStatus(true),
		collection.WithLimit(topScanLimit),
	)
	if err != nil {
		c.WithField("err", err).Error("collectionRepo.FindAll failed")
		return nil, err
	}

	ranked := make([]*collection.RankedCollection, len(cols))
	volumes := make([]decimal.Decimal, len(cols))

	b := goroutines.NewBatch(10, goroutines.WithBatchSize(len(cols)))
	defer b.Close()
	for i := 0; i < len(cols); i++ {
		idx := i
		b.Queue(func() (interface{}, error) {
			stats, err := u.GetStats(c, cols[idx].ContractAddress, cur, &window)
			if err != nil {
				// a failed header keeps the collection listed at zero
				c.WithFields(log.Fields{
					"err":      err,
					"contract": cols[idx].ContractAddress,
				}).Error("GetStats failed")
				stats = &collection.Stats{Currency: cur.Symbol, Volume: decimal.Zero.String()}
			}
			allTime, err := u.sumVolume(c, cols[idx].ContractAddress, cur, nil, nil)
			if err != nil {
				allTime = decimal.Zero
			}
			ranked[idx] = &collection.RankedCollection{
				Collection:    *cols[idx],
				Stats:         *stats,
				VolumeAllTime: allTime.String(),
			}
			volumes[idx], _ = decimal.NewFromString(stats.Volume)
			return nil, nil
		})
	}
	b.QueueComplete()
	for ret := range b.Results() {
		if ret.Error() != nil {
			c.WithField("err", ret.Error()).Error("rank collection failed")
		}
	}

	idxs := make([]int, len(ranked))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		return volumes[idxs[a]].GreaterThan(volumes[idxs[b]])
	})

	if int32(len(idxs)) > limit {
		idxs = idxs[:limit]
	}
	res := make([]*collection.RankedCollection, len(idxs))
	for i, idx := range idxs {
		res[i] = ranked[idx]
	}
	return res, nil
}

func (u *collectionUseCase) GetFacets(c ctx.Ctx, contract domain.Address) (*collection.Facets, error) {
	contract = contract.ToLower()

	counts, err := u.itemRepo.CountAttributes(c, contract)
	if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
		}).Error("itemRepo.CountAttributes failed")
		return nil, err
	}

	population, err := u.rarityRepo.CountRanked(c, contract)
	if err != nil {
		// traits still render without a ranked population
		c.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
		}).Error("rarityRepo.CountRanked failed")
		population = 0
	}

	return &collection.Facets{
		Population: population,
		Traits:     buildTraitFacets(counts),
	}, nil
}

// buildTraitFacets groups value buckets under their trait, traits
// alphabetical, values by descending count then value
func buildTraitFacets(counts []*item.AttributeCount) []collection.TraitFacet {
	byTrait := map[string][]collection.TraitCount{}
	for _, ac := range counts {
		byTrait[ac.TraitType] = append(byTrait[ac.TraitType], collection.TraitCount{
			Value: ac.Value,
			Count: ac.Count,
		})
	}

	traits := make([]string, 0, len(byTrait))
	for t := range byTrait {
		traits = append(traits, t)
	}
	sort.Strings(traits)

	res := make([]collection.TraitFacet, 0, len(traits))
	for _, t := range traits {
		values := byTrait[t]
		sort.SliceStable(values, func(a, b int) bool {
			if values[a].Count != values[b].Count {
				return values[a].Count > values[b].Count
			}
			return values[a].Value < values[b].Value
		})
		res = append(res, collection.TraitFacet{TraitType: t, Values: values})
	}
	return res
}
