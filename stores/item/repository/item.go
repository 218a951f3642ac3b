package repository

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/base/log"
	"github.com/palette-xyz/goapi/domain"
	"github.com/palette-xyz/goapi/domain/item"
	"github.com/palette-xyz/goapi/domain/keys"
	"github.com/palette-xyz/goapi/domain/market"
	"github.com/palette-xyz/goapi/service/cache"
	compoundcache "github.com/palette-xyz/goapi/service/cache/compoundCache"
	"github.com/palette-xyz/goapi/service/cache/provider/primitive"
	redisCache "github.com/palette-xyz/goapi/service/cache/provider/redis"
	"github.com/palette-xyz/goapi/service/query"
	"github.com/palette-xyz/goapi/service/redis"
)

const (
	// priceSortSentinel is far above any display-unit price, unpriced
	// items land after every priced one under both price orderings
	priceSortSentinel = float64(1e18)
	// rankSortSentinel exceeds any assignable rarity rank
	rankSortSentinel = float64(1 << 31)
)

func makeFindQuery(opts item.FindAllOptions) (query bson.M) {
	query = bson.M{}
	andExprs := []bson.M{}

	if len(opts.ContractAddresses) > 1 {
		query["contractAddress"] = bson.M{"$in": opts.ContractAddresses}
	} else if len(opts.ContractAddresses) == 1 {
		query["contractAddress"] = opts.ContractAddresses[0]
	}

	if len(opts.Statuses) > 0 {
		query["status"] = bson.M{"$in": opts.Statuses}
	}

	listedExpr := bson.M{"hasActiveListings": true}
	auctionedExpr := bson.M{"auctionEndsAt": bson.M{"$gt": time.Now()}}
	if opts.ListedOnly != nil && *opts.ListedOnly && opts.AuctionedOnly != nil && *opts.AuctionedOnly {
		andExprs = append(andExprs, bson.M{"$or": []bson.M{listedExpr, auctionedExpr}})
	} else if opts.ListedOnly != nil && *opts.ListedOnly {
		andExprs = append(andExprs, listedExpr)
	} else if opts.AuctionedOnly != nil && *opts.AuctionedOnly {
		andExprs = append(andExprs, auctionedExpr)
	}

	if len(opts.Attributes) > 0 {
		for _, attr := range opts.Attributes {
			orExprs := []bson.M{}
			for _, v := range attr.Values {
				orExprs = append(orExprs, bson.M{
					"attributes": bson.M{
						"$elemMatch": bson.M{
							"trait_type": attr.Name,
							"value":      v,
						},
					},
				})
			}
			andExprs = append(andExprs, bson.M{
				"$or": orExprs,
			})
		}
	}

	if opts.Search != nil {
		orExprs := []bson.M{
			{
				"name": bson.M{"$regex": opts.Search, "$options": "i"},
			},
			{
				"attributes.value": bson.M{"$regex": opts.Search, "$options": "i"},
			},
		}
		andExprs = append(andExprs, bson.M{
			"$or": orExprs,
		})
	}

	if opts.ObjectIdGT != nil {
		query["_id"] = bson.M{"$gt": *opts.ObjectIdGT}
	}

	if len(andExprs) > 0 {
		query["$and"] = andExprs
	}

	return query
}

type itemImpl struct {
	q         query.Mongo
	itemCache cache.Service
}

func NewItemRepo(q query.Mongo, redis redis.Service) item.Repo {
	cacheServices := []cache.Service{
		cache.New(cache.ServiceConfig{
			Ttl:   10 * time.Second,
			Pfx:   "item",
			Cache: primitive.NewPrimitive("item", 512),
		}),
	}

	if redis != nil {
		cacheServices = append(cacheServices, cache.New(cache.ServiceConfig{
			Ttl:   10 * time.Minute,
			Pfx:   "item",
			Cache: redisCache.NewRedis(redis),
		}))
	}

	return &itemImpl{
		q:         q,
		itemCache: compoundcache.NewCompoundCache(cacheServices),
	}
}

func (im *itemImpl) FindAll(c ctx.Ctx, optFns ...item.FindAllOptionsFunc) ([]*item.Item, error) {
	opts, err := item.GetFindAllOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("item.GetFindAllOptions failed")
		return nil, err
	}

	offset := int(0)
	limit := int(0)
	// insertion order keeps keyset paging stable
	sort := "_id"

	if opts.Offset != nil {
		offset = int(*opts.Offset)
	}
	if opts.Limit != nil {
		limit = int(*opts.Limit)
	}

	if opts.SortBy != nil && opts.SortDir != nil {
		sortBy := *opts.SortBy
		if *opts.SortDir == domain.SortDirDesc {
			sortBy = "-" + sortBy
		}
		sort = sortBy
	}

	qry := makeFindQuery(opts)
	res := []*item.Item{}

	if err := im.q.Search(c, domain.TableItems, offset, limit, sort, qry, &res); err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"query": qry,
			"sort":  sort,
		}).Error("q.Search failed")
		return nil, err
	}

	return res, nil
}

func (im *itemImpl) Count(c ctx.Ctx, optFns ...item.FindAllOptionsFunc) (int, error) {
	opts, err := item.GetFindAllOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("item.GetFindAllOptions failed")
		return 0, err
	}

	qry := makeFindQuery(opts)

	cnt, err := im.q.Count(c, domain.TableItems, qry)
	if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"query": qry,
		}).Error("q.Count failed")
		return 0, err
	}
	return cnt, nil
}

func (im *itemImpl) FindOne(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (*item.Item, error) {
	key := keys.RedisKey(keys.PfxItem, string(contract.ToLower()), string(tokenId))

	res := &item.Item{}
	if err := im.itemCache.GetByFunc(c, key, res, func() (interface{}, error) {
		return im.findOne(c, contract, tokenId)
	}); err != nil {
		return nil, err
	}

	return res, nil
}

func (im *itemImpl) findOne(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId) (*item.Item, error) {
	res := &item.Item{}

	if err := im.q.FindOne(c, domain.TableItems, bson.M{
		"contractAddress": contract.ToLower(),
		"tokenID":         tokenId,
	}, res); errors.Is(err, query.ErrNotFound) {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
			"tokenId":  tokenId,
		}).Error("q.FindOne failed")
		return nil, err
	}

	return res, nil
}

func (im *itemImpl) Rank(c ctx.Ctx, opts item.RankOptions) ([]*item.RankedItem, error) {
	pipeline := makeRankPipeline(opts)

	iter, closeIter, err := im.q.Pipe(c, domain.TableItems, pipeline, query.WithAllowDiskUse(true))
	if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": opts.ContractAddress,
			"sortBy":   opts.SortBy,
		}).Error("q.Pipe failed")
		return nil, err
	}
	defer closeIter()

	res := []*item.RankedItem{}
	if err := iter.All(c, &res); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": opts.ContractAddress,
		}).Error("iter.All failed")
		return nil, err
	}

	return res, nil
}

func (im *itemImpl) CountAttributes(c ctx.Ctx, contract domain.Address) ([]*item.AttributeCount, error) {
	pipeline := []bson.M{
		{"$match": bson.M{
			"contractAddress": contract.ToLower(),
			"status":          item.StatusSuccess,
		}},
		{"$unwind": "$attributes"},
		{"$group": bson.M{
			"_id": bson.M{
				"traitType": "$attributes.trait_type",
				"value":     "$attributes.value",
			},
			"count": bson.M{"$sum": 1},
		}},
		{"$project": bson.M{
			"_id":       0,
			"traitType": "$_id.traitType",
			"value":     "$_id.value",
			"count":     1,
		}},
	}

	iter, closeIter, err := im.q.Pipe(c, domain.TableItems, pipeline, query.WithAllowDiskUse(true))
	if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
		}).Error("q.Pipe failed")
		return nil, err
	}
	defer closeIter()

	res := []*item.AttributeCount{}
	if err := iter.All(c, &res); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
		}).Error("iter.All failed")
		return nil, err
	}

	return res, nil
}

// makeRankPipeline builds the single aggregation serving annotated,
// keyset paged reads: join market columns, derive one ordering key,
// seek past the cursor, order by (key, id).
func makeRankPipeline(opts item.RankOptions) []bson.M {
	match := makeFindQuery(item.FindAllOptions{
		ContractAddresses: []domain.Address{opts.ContractAddress},
		Statuses:          opts.Statuses,
		Search:            opts.Search,
		Attributes:        opts.Attributes,
	})

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	pipeline := []bson.M{
		{"$match": match},
		{"$lookup": bson.M{
			"from": string(domain.TableListings),
			"let":  bson.M{"contract": "$contractAddress", "token": "$tokenID"},
			"pipeline": []bson.M{
				{"$match": bson.M{"$expr": bson.M{"$and": []bson.M{
					{"$eq": []interface{}{"$contractAddress", "$$contract"}},
					{"$eq": []interface{}{"$tokenID", "$$token"}},
					{"$eq": []interface{}{"$status", string(market.ListingStatusActive)}},
					{"$lte": []interface{}{"$startTime", now}},
					{"$or": []bson.M{
						{"$eq": []interface{}{"$endTime", nil}},
						{"$gt": []interface{}{"$endTime", now}},
					}},
				}}}},
			},
			"as": "activeListings",
		}},
		{"$lookup": bson.M{
			"from": string(domain.TableAuctions),
			"let":  bson.M{"contract": "$contractAddress", "token": "$tokenID"},
			"pipeline": []bson.M{
				{"$match": bson.M{"$expr": bson.M{"$and": []bson.M{
					{"$eq": []interface{}{"$contractAddress", "$$contract"}},
					{"$eq": []interface{}{"$tokenID", "$$token"}},
					{"$eq": []interface{}{"$status", string(market.AuctionStatusActive)}},
					{"$lte": []interface{}{"$startTime", now}},
					{"$gt": []interface{}{"$endTime", now}},
				}}}},
				{"$limit": 1},
			},
			"as": "activeAuctions",
		}},
		{"$lookup": bson.M{
			"from": string(domain.TableRarityRecords),
			"let":  bson.M{"contract": "$contractAddress", "token": "$tokenID"},
			"pipeline": []bson.M{
				{"$match": bson.M{"$expr": bson.M{"$and": []bson.M{
					{"$eq": []interface{}{"$contractAddress", "$$contract"}},
					{"$eq": []interface{}{"$tokenID", "$$token"}},
				}}}},
				{"$limit": 1},
			},
			"as": "rarity",
		}},
		{"$addFields": bson.M{
			"isListed":   bson.M{"$gt": []interface{}{bson.M{"$size": "$activeListings"}, 0}},
			"hasAuction": bson.M{"$gt": []interface{}{bson.M{"$size": "$activeAuctions"}, 0}},
			"cheapestNativePrice": bson.M{"$min": bson.M{
				"$map": bson.M{
					"input": bson.M{"$filter": bson.M{
						"input": "$activeListings",
						"as":    "l",
						"cond":  bson.M{"$eq": []interface{}{"$$l.currency", nil}},
					}},
					"as": "l",
					"in": "$$l.price",
				},
			}},
			"cheapestTokenPrice":    cheapestTokenPriceExpr(opts.Currency),
			"cheapestTokenCurrency": cheapestTokenCurrencyExpr(opts.Currency),
			"rarityScore":           bson.M{"$arrayElemAt": []interface{}{"$rarity.score", 0}},
			"rarityRank":            bson.M{"$arrayElemAt": []interface{}{"$rarity.rank", 0}},
		}},
		{"$addFields": bson.M{
			"cheapestResolvedPrice": resolvedPriceExpr(opts.Currency),
		}},
		{"$addFields": bson.M{
			"cheapestResolvedPriceBase": resolvedPriceBaseExpr(opts.Currency),
			"sortKey":                   sortKeyExpr(opts.SortBy),
		}},
	}

	if post := makePostMatch(opts); len(post) > 0 {
		pipeline = append(pipeline, bson.M{"$match": post})
	}

	if cursor := makeCursorMatch(opts); cursor != nil {
		pipeline = append(pipeline, bson.M{"$match": cursor})
	}

	pipeline = append(pipeline,
		bson.M{"$sort": bson.D{{Key: "sortKey", Value: 1}, {Key: "_id", Value: 1}}},
	)
	if opts.Limit > 0 {
		pipeline = append(pipeline, bson.M{"$limit": int64(opts.Limit)})
	}
	pipeline = append(pipeline, bson.M{"$project": bson.M{
		"activeListings": 0, "activeAuctions": 0, "rarity": 0,
	}})

	return pipeline
}

// resolvedPriceExpr picks the cheapest active price in the resolved
// currency
func resolvedPriceExpr(cur domain.ResolvedCurrency) interface{} {
	if cur.IsNative() {
		return "$cheapestNativePrice"
	}
	return "$cheapestTokenPrice"
}

func cheapestTokenPriceExpr(cur domain.ResolvedCurrency) interface{} {
	if cur.Address == nil {
		return nil
	}
	return bson.M{"$min": bson.M{
		"$map": bson.M{
			"input": bson.M{"$filter": bson.M{
				"input": "$activeListings",
				"as":    "l",
				"cond":  bson.M{"$eq": []interface{}{"$$l.currency", cur.Address.ToLowerStr()}},
			}},
			"as": "l",
			"in": "$$l.price",
		},
	}}
}

// resolvedPriceBaseExpr projects the exact base-unit price of the
// listing picked as cheapestResolvedPrice. The float column orders,
// priceBase is what callers display.
func resolvedPriceBaseExpr(cur domain.ResolvedCurrency) interface{} {
	currencyCond := bson.M{"$eq": []interface{}{"$$l.currency", nil}}
	if !cur.IsNative() {
		if cur.Address == nil {
			return nil
		}
		currencyCond = bson.M{"$eq": []interface{}{"$$l.currency", cur.Address.ToLowerStr()}}
	}
	return bson.M{"$arrayElemAt": []interface{}{
		bson.M{"$map": bson.M{
			"input": bson.M{"$filter": bson.M{
				"input": "$activeListings",
				"as":    "l",
				"cond": bson.M{"$and": []bson.M{
					currencyCond,
					{"$eq": []interface{}{"$$l.price", "$cheapestResolvedPrice"}},
				}},
			}},
			"as": "l",
			"in": "$$l.priceBase",
		}},
		0,
	}}
}

func cheapestTokenCurrencyExpr(cur domain.ResolvedCurrency) interface{} {
	if cur.Address == nil {
		return nil
	}
	return bson.M{"$cond": []interface{}{
		bson.M{"$ne": []interface{}{"$cheapestTokenPrice", nil}},
		cur.Address.ToLowerStr(),
		nil,
	}}
}

// sortKeyExpr derives the single ordering key. Items without the
// ordered value carry the sentinel and land after every valued item,
// ties fall through to the id order.
func sortKeyExpr(sortBy item.SortOption) bson.M {
	switch sortBy {
	case item.SortOptionPriceAsc:
		return bson.M{"$ifNull": []interface{}{"$cheapestResolvedPrice", priceSortSentinel}}
	case item.SortOptionPriceDesc:
		return bson.M{"$cond": []interface{}{
			bson.M{"$eq": []interface{}{"$cheapestResolvedPrice", nil}},
			priceSortSentinel,
			bson.M{"$subtract": []interface{}{priceSortSentinel, "$cheapestResolvedPrice"}},
		}}
	case item.SortOptionRarityAsc:
		return bson.M{"$ifNull": []interface{}{bson.M{"$toDouble": "$rarityRank"}, rankSortSentinel}}
	case item.SortOptionRarityDesc:
		return bson.M{"$cond": []interface{}{
			bson.M{"$eq": []interface{}{"$rarityRank", nil}},
			rankSortSentinel,
			bson.M{"$subtract": []interface{}{rankSortSentinel, bson.M{"$toDouble": "$rarityRank"}}},
		}}
	default:
		return bson.M{"$toDouble": "$createdAt"}
	}
}

// makePostMatch applies the constraints that depend on the joined
// columns
func makePostMatch(opts item.RankOptions) bson.M {
	match := bson.M{}
	andExprs := []bson.M{}

	switch opts.SortBy {
	case item.SortOptionPriceAsc, item.SortOptionPriceDesc:
		// items listed only in other currencies have no price here and
		// are dropped, never-listed items keep their sentinel slot
		andExprs = append(andExprs, bson.M{"$or": []bson.M{
			{"isListed": false},
			{"cheapestResolvedPrice": bson.M{"$ne": nil}},
		}})
	}

	listedExpr := bson.M{"isListed": true}
	auctionedExpr := bson.M{"hasAuction": true}
	if opts.ListedOnly && opts.AuctionedOnly {
		andExprs = append(andExprs, bson.M{"$or": []bson.M{listedExpr, auctionedExpr}})
	} else if opts.ListedOnly {
		andExprs = append(andExprs, listedExpr)
	} else if opts.AuctionedOnly {
		andExprs = append(andExprs, auctionedExpr)
	}

	if opts.RankMin != nil || opts.RankMax != nil {
		rankExpr := bson.M{}
		if opts.RankMin != nil {
			rankExpr["$gte"] = *opts.RankMin
		}
		if opts.RankMax != nil {
			rankExpr["$lte"] = *opts.RankMax
		}
		// range match never hits unranked items
		match["rarityRank"] = rankExpr
	} else if !opts.IncludeUnranked {
		match["rarityRank"] = bson.M{"$ne": nil}
	}

	if len(andExprs) > 0 {
		match["$and"] = andExprs
	}

	return match
}

// makeCursorMatch seeks strictly past the keyset position
func makeCursorMatch(opts item.RankOptions) bson.M {
	if opts.AfterKey == nil || opts.AfterId == nil {
		return nil
	}
	return bson.M{"$or": []bson.M{
		{"sortKey": bson.M{"$gt": *opts.AfterKey}},
		{"sortKey": *opts.AfterKey, "_id": bson.M{"$gt": *opts.AfterId}},
	}}
}
