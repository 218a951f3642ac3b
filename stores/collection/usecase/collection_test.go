package usecase

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	bCtx "github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/domain"
	"github.com/palette-xyz/goapi/domain/collection"
	"github.com/palette-xyz/goapi/domain/item"
	"github.com/palette-xyz/goapi/domain/market"
)

type fakeCollectionRepo struct {
	collections []*collection.Collection
}

func (r *fakeCollectionRepo) FindOne(c bCtx.Ctx, contract domain.Address) (*collection.Collection, error) {
	for _, col := range r.collections {
		if col.ContractAddress.Equals(contract) {
			return col, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeCollectionRepo) FindAll(c bCtx.Ctx, opts ...collection.FindAllOptionsFunc) ([]*collection.Collection, error) {
	return r.collections, nil
}

func (r *fakeCollectionRepo) Upsert(c bCtx.Ctx, col *collection.Collection) error {
	return nil
}

type fakeItemRepo struct {
	counts []*item.AttributeCount
}

func (r *fakeItemRepo) FindAll(c bCtx.Ctx, opts ...item.FindAllOptionsFunc) ([]*item.Item, error) {
	return nil, nil
}

func (r *fakeItemRepo) Count(c bCtx.Ctx, opts ...item.FindAllOptionsFunc) (int, error) {
	return 0, nil
}

func (r *fakeItemRepo) FindOne(c bCtx.Ctx, contract domain.Address, tokenId domain.TokenId) (*item.Item, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeItemRepo) Rank(c bCtx.Ctx, opts item.RankOptions) ([]*item.RankedItem, error) {
	return nil, nil
}

func (r *fakeItemRepo) CountAttributes(c bCtx.Ctx, contract domain.Address) ([]*item.AttributeCount, error) {
	return r.counts, nil
}

type fakeListingRepo struct {
	byContract map[domain.Address][]*market.Listing
}

func (r *fakeListingRepo) FindAll(c bCtx.Ctx, optFns ...market.ListingFindAllOptionsFunc) ([]*market.Listing, error) {
	opts, err := market.GetListingFindAllOptions(optFns...)
	if err != nil {
		return nil, err
	}
	if opts.ContractAddress == nil {
		return nil, nil
	}
	res := r.byContract[*opts.ContractAddress]
	if opts.Limit != nil && int(*opts.Limit) < len(res) {
		res = res[:*opts.Limit]
	}
	return res, nil
}

func (r *fakeListingRepo) Upsert(c bCtx.Ctx, listing *market.Listing) error {
	return nil
}

type fakeSaleRepo struct {
	byContract map[domain.Address][]*market.Sale
}

func (r *fakeSaleRepo) FindAll(c bCtx.Ctx, optFns ...market.SaleFindAllOptionsFunc) ([]*market.Sale, error) {
	opts, err := market.GetSaleFindAllOptions(optFns...)
	if err != nil {
		return nil, err
	}
	if opts.ContractAddress == nil {
		return nil, nil
	}
	res := []*market.Sale{}
	for _, s := range r.byContract[*opts.ContractAddress] {
		if opts.TimeGTE != nil && s.Time.Before(*opts.TimeGTE) {
			continue
		}
		if opts.TimeLT != nil && !s.Time.Before(*opts.TimeLT) {
			continue
		}
		res = append(res, s)
	}
	return res, nil
}

func (r *fakeSaleRepo) Insert(c bCtx.Ctx, sale *market.Sale) error {
	return nil
}

type fakeRarityRepo struct {
	ranked int
	err    error
}

func (r *fakeRarityRepo) FindOne(c bCtx.Ctx, contract domain.Address, tokenId domain.TokenId) (*market.RarityRecord, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeRarityRepo) CountRanked(c bCtx.Ctx, contract domain.Address) (int, error) {
	return r.ranked, r.err
}

func (r *fakeRarityRepo) Upsert(c bCtx.Ctx, record *market.RarityRecord) error {
	return nil
}

var nativeCur = domain.ResolvedCurrency{Kind: domain.CurrencyKindNative, Symbol: "ETH", Decimals: 18}

type CollectionUseCaseTestSuite struct {
	suite.Suite

	ctx            bCtx.Ctx
	collectionRepo *fakeCollectionRepo
	itemRepo       *fakeItemRepo
	listingRepo    *fakeListingRepo
	saleRepo       *fakeSaleRepo
	rarityRepo     *fakeRarityRepo
	uc             collection.UseCase
}

func TestCollectionUseCaseTestSuite(t *testing.T) {
	suite.Run(t, new(CollectionUseCaseTestSuite))
}

func (s *CollectionUseCaseTestSuite) SetupTest() {
	s.ctx = bCtx.Background()
	s.collectionRepo = &fakeCollectionRepo{}
	s.itemRepo = &fakeItemRepo{}
	s.listingRepo = &fakeListingRepo{byContract: map[domain.Address][]*market.Listing{}}
	s.saleRepo = &fakeSaleRepo{byContract: map[domain.Address][]*market.Sale{}}
	s.rarityRepo = &fakeRarityRepo{}
	s.uc = NewCollectionUseCase(&CollectionUseCaseCfg{
		CollectionRepo: s.collectionRepo,
		ItemRepo:       s.itemRepo,
		ListingRepo:    s.listingRepo,
		SaleRepo:       s.saleRepo,
		RarityRepo:     s.rarityRepo,
	})
}

func (s *CollectionUseCaseTestSuite) TestPctChange() {
	cases := []struct {
		name string
		curr string
		prev string
		want float64
	}{
		{"growth", "150", "100", 50},
		{"decline", "50", "100", -50},
		{"flat", "100", "100", 0},
		{"from zero", "10", "0", 100},
		{"still zero", "0", "0", 0},
	}
	for _, c := range cases {
		curr, _ := decimal.NewFromString(c.curr)
		prev, _ := decimal.NewFromString(c.prev)
		s.Equal(c.want, pctChange(curr, prev), c.name)
	}
}

func (s *CollectionUseCaseTestSuite) TestStatsFloorAndVolume() {
	contract := domain.Address("0xabc")
	now := time.Now()
	s.listingRepo.byContract[contract] = []*market.Listing{
		{
			ContractAddress: contract,
			PriceBase:       "1500000000000000000",
			Status:          market.ListingStatusActive,
			StartTime:       now.Add(-time.Hour),
		},
	}
	s.saleRepo.byContract[contract] = []*market.Sale{
		{ContractAddress: contract, PriceBase: "1000000000000000000", Time: now.Add(-time.Hour)},
		{ContractAddress: contract, PriceBase: "2500000000000000000", Time: now.Add(-2 * time.Hour)},
		// sold in a token, not counted toward the native volume
		{ContractAddress: contract, PriceBase: "9000000000000000000", Currency: domain.Address("0xaa").ToLowerPtr(), Time: now.Add(-time.Hour)},
	}

	window := domain.TimeWindowDay
	stats, err := s.uc.GetStats(s.ctx, contract, nativeCur, &window)
	s.Require().NoError(err)
	s.Equal("ETH", stats.Currency)
	s.Require().NotNil(stats.FloorPrice)
	s.Equal("1.5", *stats.FloorPrice)
	s.Equal("3.5", stats.Volume)
	s.Require().NotNil(stats.VolumeChangePct)
	s.Equal(float64(100), *stats.VolumeChangePct)
}

func (s *CollectionUseCaseTestSuite) TestStatsVolumeChange() {
	contract := domain.Address("0xabc")
	now := time.Now()
	s.saleRepo.byContract[contract] = []*market.Sale{
		{ContractAddress: contract, PriceBase: "1000000000000000000", Time: now.Add(-time.Hour)},
		{ContractAddress: contract, PriceBase: "2000000000000000000", Time: now.Add(-30 * time.Hour)},
	}

	window := domain.TimeWindowDay
	stats, err := s.uc.GetStats(s.ctx, contract, nativeCur, &window)
	s.Require().NoError(err)
	s.Equal("1", stats.Volume)
	s.Require().NotNil(stats.VolumeChangePct)
	s.Equal(float64(-50), *stats.VolumeChangePct)
}

func (s *CollectionUseCaseTestSuite) TestStatsAllTimeHasNoChangeRate() {
	contract := domain.Address("0xabc")
	s.saleRepo.byContract[contract] = []*market.Sale{
		{ContractAddress: contract, PriceBase: "1000000000000000000", Time: time.Now().Add(-1000 * time.Hour)},
	}

	stats, err := s.uc.GetStats(s.ctx, contract, nativeCur, nil)
	s.Require().NoError(err)
	s.Equal("1", stats.Volume)
	s.Nil(stats.VolumeChangePct)
	s.Nil(stats.FloorPrice)
}

func (s *CollectionUseCaseTestSuite) TestStatsInvalidWindow() {
	window := domain.TimeWindow("fortnight")
	_, err := s.uc.GetStats(s.ctx, "0xabc", nativeCur, &window)
	s.ErrorIs(err, domain.ErrInvalidTimeWindow)
}

func (s *CollectionUseCaseTestSuite) TestTopOrderedByVolume() {
	now := time.Now()
	s.collectionRepo.collections = []*collection.Collection{
		{ContractAddress: "0xaaa", CollectionName: "quiet"},
		{ContractAddress: "0xbbb", CollectionName: "busy"},
		{ContractAddress: "0xccc", CollectionName: "idle"},
	}
	s.saleRepo.byContract[domain.Address("0xaaa")] = []*market.Sale{
		{ContractAddress: "0xaaa", PriceBase: "1000000000000000000", Time: now.Add(-time.Hour)},
	}
	s.saleRepo.byContract[domain.Address("0xbbb")] = []*market.Sale{
		{ContractAddress: "0xbbb", PriceBase: "5000000000000000000", Time: now.Add(-time.Hour)},
		// outside the day window, still counts toward all-time
		{ContractAddress: "0xbbb", PriceBase: "2000000000000000000", Time: now.Add(-48 * time.Hour)},
	}

	top, err := s.uc.GetTop(s.ctx, domain.TimeWindowDay, nativeCur, 2)
	s.Require().NoError(err)
	s.Require().Len(top, 2)
	s.Equal("busy", top[0].CollectionName)
	s.Equal("5", top[0].Stats.Volume)
	s.Equal("7", top[0].VolumeAllTime)
	s.Equal("quiet", top[1].CollectionName)
	s.Equal("1", top[1].VolumeAllTime)
}

func (s *CollectionUseCaseTestSuite) TestTopInvalidWindow() {
	_, err := s.uc.GetTop(s.ctx, domain.TimeWindow("yesteryear"), nativeCur, 10)
	s.ErrorIs(err, domain.ErrInvalidTimeWindow)
}

func (s *CollectionUseCaseTestSuite) TestFacetsGroupedAndOrdered() {
	s.rarityRepo.ranked = 9999
	s.itemRepo.counts = []*item.AttributeCount{
		{TraitType: "Fur", Value: "Gold", Count: 30},
		{TraitType: "Background", Value: "Blue", Count: 120},
		{TraitType: "Fur", Value: "Cream", Count: 30},
		{TraitType: "Fur", Value: "Zombie", Count: 90},
		{TraitType: "Background", Value: "Red", Count: 80},
	}

	facets, err := s.uc.GetFacets(s.ctx, "0xabc")
	s.Require().NoError(err)
	s.Equal(9999, facets.Population)
	s.Require().Len(facets.Traits, 2)

	s.Equal("Background", facets.Traits[0].TraitType)
	s.Equal([]collection.TraitCount{
		{Value: "Blue", Count: 120},
		{Value: "Red", Count: 80},
	}, facets.Traits[0].Values)

	// equal counts fall back to value order
	s.Equal("Fur", facets.Traits[1].TraitType)
	s.Equal([]collection.TraitCount{
		{Value: "Zombie", Count: 90},
		{Value: "Cream", Count: 30},
		{Value: "Gold", Count: 30},
	}, facets.Traits[1].Values)
}

func (s *CollectionUseCaseTestSuite) TestFacetsDegradeWithoutRarity() {
	s.rarityRepo.err = domain.ErrInternalServerError
	s.itemRepo.counts = []*item.AttributeCount{
		{TraitType: "Fur", Value: "Gold", Count: 30},
	}

	facets, err := s.uc.GetFacets(s.ctx, "0xabc")
	s.Require().NoError(err)
	s.Equal(0, facets.Population)
	s.Require().Len(facets.Traits, 1)
}
