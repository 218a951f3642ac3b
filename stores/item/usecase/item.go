package usecase

import (
	"errors"
	"strconv"
	"time"

	"github.com/viney-shih/goroutines"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/base/log"
	"github.com/palette-xyz/goapi/base/pricenorm"
	"github.com/palette-xyz/goapi/domain"
	"github.com/palette-xyz/goapi/domain/item"
	"github.com/palette-xyz/goapi/domain/market"
	"github.com/palette-xyz/goapi/service/paging"
)

const (
	defaultPageSize = int32(24)
	maxPageSize     = int32(48)
)

type ItemUseCaseCfg struct {
	ItemRepo    item.Repo
	ListingRepo market.ListingRepo
	AuctionRepo market.AuctionRepo
	Currency    domain.CurrencyUseCase
}

type itemUseCase struct {
	itemRepo    item.Repo
	listingRepo market.ListingRepo
	auctionRepo market.AuctionRepo
	currency    domain.CurrencyUseCase
}

func NewItemUseCase(cfg *ItemUseCaseCfg) item.UseCase {
	return &itemUseCase{
		itemRepo:    cfg.ItemRepo,
		listingRepo: cfg.ListingRepo,
		auctionRepo: cfg.AuctionRepo,
		currency:    cfg.Currency,
	}
}

func (u *itemUseCase) Search(c ctx.Ctx, contract domain.Address, opts item.SearchOptions) (*item.SearchResult, error) {
	contract = contract.ToLower()

	cur, err := u.currency.Resolve(c, opts.CurrencyId)
	if err != nil {
		return nil, err
	}

	limit := paging.ClampLimit(opts.Limit, defaultPageSize, maxPageSize)

	// a cursor that fails to decode restarts from the first page
	cursor := paging.Cursor{}
	if opts.Cursor != nil {
		cursor, _ = paging.Decode(*opts.Cursor)
	}

	if opts.NeedsRankedRead() {
		return u.searchRanked(c, contract, opts, *cur, cursor, limit)
	}
	return u.searchPlain(c, contract, opts, *cur, cursor, limit)
}

func (u *itemUseCase) searchRanked(c ctx.Ctx, contract domain.Address, opts item.SearchOptions, cur domain.ResolvedCurrency, cursor paging.Cursor, limit int32) (*item.SearchResult, error) {
	rankOpts := item.RankOptions{
		ContractAddress: contract,
		Statuses:        []item.Status{item.StatusSuccess},
		Search:          opts.Search,
		Attributes:      opts.Attributes,
		ListedOnly:      opts.Listed != nil && *opts.Listed,
		AuctionedOnly:   opts.Auctioned != nil && *opts.Auctioned,
		RankMin:         opts.RankMin,
		RankMax:         opts.RankMax,
		IncludeUnranked: opts.IncludeUnranked,
		SortBy:          opts.SortBy,
		Currency:        cur,
		Limit:           limit,
		Now:             time.Now(),
	}

	if key, ok := cursor.KeyFloat(); ok {
		if id, ok := cursor.ObjectId(); ok {
			rankOpts.AfterKey = &key
			rankOpts.AfterId = &id
		}
	}

	ranked, err := u.itemRepo.Rank(c, rankOpts)
	if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
		}).Error("itemRepo.Rank failed")
		return nil, err
	}

	views := make([]*item.ItemView, 0, len(ranked))
	for _, r := range ranked {
		views = append(views, u.rankedToView(r, cur))
	}

	res := &item.SearchResult{Items: views}
	if int32(len(ranked)) == limit && limit > 0 {
		last := ranked[len(ranked)-1]
		next := paging.EncodeKeyed(last.SortKey, last.ObjectId)
		res.NextCursor = &next
	}
	return res, nil
}

func (u *itemUseCase) rankedToView(r *item.RankedItem, cur domain.ResolvedCurrency) *item.ItemView {
	view := &item.ItemView{
		Item:        r.Item,
		IsListed:    r.IsListed,
		IsAuctioned: r.HasAuction,
		RarityScore: r.RarityScore,
		RarityRank:  r.RarityRank,
	}

	if r.CheapestResolvedPriceBase != nil {
		// display from the exact base units, the float column only orders
		if price, err := pricenorm.Display(*r.CheapestResolvedPriceBase, &cur); err == nil {
			symbol := cur.Symbol
			view.ListingPrice = &price
			view.ListingCurrency = &symbol
		}
	}

	return view
}

func (u *itemUseCase) searchPlain(c ctx.Ctx, contract domain.Address, opts item.SearchOptions, cur domain.ResolvedCurrency, cursor paging.Cursor, limit int32) (*item.SearchResult, error) {
	findOpts := []item.FindAllOptionsFunc{
		item.WithContractAddresses([]domain.Address{contract}),
		item.WithStatuses([]item.Status{item.StatusSuccess}),
		item.WithPagination(0, limit),
	}
	if opts.Search != nil {
		findOpts = append(findOpts, item.WithSearch(*opts.Search))
	}
	if opts.Listed != nil && *opts.Listed {
		findOpts = append(findOpts, item.WithListedOnly(true))
	}
	if opts.Auctioned != nil && *opts.Auctioned {
		findOpts = append(findOpts, item.WithAuctionedOnly(true))
	}
	if id, ok := cursor.ObjectId(); ok {
		findOpts = append(findOpts, item.WithObjectIdGT(id))
	}

	items, err := u.itemRepo.FindAll(c, findOpts...)
	if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
		}).Error("itemRepo.FindAll failed")
		return nil, err
	}

	now := time.Now()
	views := make([]*item.ItemView, len(items))

	b := goroutines.NewBatch(10, goroutines.WithBatchSize(len(items)))
	defer b.Close()
	for i := 0; i < len(items); i++ {
		idx := i
		b.Queue(func() (interface{}, error) {
			views[idx] = u.annotatePlain(c, items[idx], now)
			return nil, nil
		})
	}
	b.QueueComplete()
	for ret := range b.Results() {
		if ret.Error() != nil {
			c.WithField("err", ret.Error()).Error("annotate item failed")
		}
	}

	res := &item.SearchResult{Items: views}
	if int32(len(items)) == limit && limit > 0 {
		next := paging.EncodeId(items[len(items)-1].ObjectId)
		res.NextCursor = &next
	}
	return res, nil
}

// annotatePlain attaches the cheapest active listing, native preferred
// over tokens. Annotation failures degrade to a bare item.
func (u *itemUseCase) annotatePlain(c ctx.Ctx, it *item.Item, now time.Time) *item.ItemView {
	view := &item.ItemView{
		Item:        *it,
		IsAuctioned: it.AuctionEndsAt != nil && it.AuctionEndsAt.After(now),
	}

	// the denormalized hint can lag the auction table
	if it.AuctionEndsAt == nil {
		if auction, err := u.auctionRepo.FindOne(c, it.ContractAddress, it.TokenId); err == nil && auction.IsActiveAt(now) {
			view.IsAuctioned = true
		}
	}

	listings, err := u.listingRepo.FindAll(c,
		market.ListingWithContractAddress(it.ContractAddress),
		market.ListingWithTokenId(it.TokenId),
		market.ListingWithActiveAt(now),
		market.ListingWithSort("price", domain.SortDirAsc),
	)
	if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": it.ContractAddress,
			"tokenId":  it.TokenId,
		}).Error("listingRepo.FindAll failed")
		return view
	}
	if len(listings) == 0 {
		return view
	}

	view.IsListed = true

	cheapest := listings[0]
	for _, l := range listings {
		if l.Currency == nil {
			cheapest = l
			break
		}
	}

	price, symbol, err := u.displayListing(c, cheapest)
	if err != nil {
		return view
	}
	view.ListingPrice = &price
	view.ListingCurrency = &symbol
	return view
}

func (u *itemUseCase) displayListing(c ctx.Ctx, l *market.Listing) (string, string, error) {
	var selector *string
	if l.Currency != nil {
		s := string(*l.Currency)
		selector = &s
	}

	cur, err := u.currency.Resolve(c, selector)
	if errors.Is(err, domain.ErrUnknownCurrency) {
		// listing priced in a retired token, show the raw float
		return strconv.FormatFloat(l.Price, 'f', -1, 64), "", nil
	} else if err != nil {
		return "", "", err
	}

	price, err := pricenorm.Display(l.PriceBase, cur)
	if err != nil {
		c.WithFields(log.Fields{
			"err":       err,
			"priceBase": l.PriceBase,
		}).Error("pricenorm.Display failed")
		return "", "", err
	}
	return price, cur.Symbol, nil
}
