package repository

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/palette-xyz/goapi/base/ptr"
	"github.com/palette-xyz/goapi/domain"
	"github.com/palette-xyz/goapi/domain/item"
)

type ItemQueryTestSuite struct {
	suite.Suite
}

func TestItemQueryTestSuite(t *testing.T) {
	suite.Run(t, new(ItemQueryTestSuite))
}

func (s *ItemQueryTestSuite) TestMakeFindQueryContractAndStatus() {
	opts, err := item.GetFindAllOptions(
		item.WithContractAddresses([]domain.Address{"0xABC"}),
		item.WithStatuses([]item.Status{item.StatusSuccess}),
	)
	s.Require().NoError(err)

	qry := makeFindQuery(opts)
	s.Equal(domain.Address("0xabc"), qry["contractAddress"])
	s.Equal(bson.M{"$in": []item.Status{item.StatusSuccess}}, qry["status"])
	s.NotContains(qry, "$and")
}

func (s *ItemQueryTestSuite) TestMakeFindQueryTraits() {
	opts, err := item.GetFindAllOptions(
		item.WithAttributeFilters([]item.AttributeFilter{
			{Name: "Fur", Values: []string{"Gold", "Cream"}},
			{Name: "Eyes", Values: []string{"Laser"}},
		}),
	)
	s.Require().NoError(err)

	qry := makeFindQuery(opts)
	andExprs, ok := qry["$and"].([]bson.M)
	s.Require().True(ok)
	s.Require().Len(andExprs, 2)

	// same trait type is OR-ed
	furOr, ok := andExprs[0]["$or"].([]bson.M)
	s.Require().True(ok)
	s.Len(furOr, 2)
	s.Equal(bson.M{
		"attributes": bson.M{
			"$elemMatch": bson.M{
				"trait_type": "Fur",
				"value":      "Gold",
			},
		},
	}, furOr[0])

	eyesOr, ok := andExprs[1]["$or"].([]bson.M)
	s.Require().True(ok)
	s.Len(eyesOr, 1)
}

func (s *ItemQueryTestSuite) TestMakeFindQuerySearch() {
	opts, err := item.GetFindAllOptions(item.WithSearch("gold"))
	s.Require().NoError(err)

	qry := makeFindQuery(opts)
	andExprs, ok := qry["$and"].([]bson.M)
	s.Require().True(ok)
	s.Require().Len(andExprs, 1)

	orExprs, ok := andExprs[0]["$or"].([]bson.M)
	s.Require().True(ok)
	s.Len(orExprs, 2)
}

func (s *ItemQueryTestSuite) TestMakeFindQueryCursor() {
	id := primitive.NewObjectID()
	opts, err := item.GetFindAllOptions(item.WithObjectIdGT(id))
	s.Require().NoError(err)

	qry := makeFindQuery(opts)
	s.Equal(bson.M{"$gt": id}, qry["_id"])
}

func (s *ItemQueryTestSuite) TestMakeFindQueryListedAndAuctioned() {
	opts, err := item.GetFindAllOptions(
		item.WithListedOnly(true),
		item.WithAuctionedOnly(true),
	)
	s.Require().NoError(err)

	qry := makeFindQuery(opts)
	andExprs, ok := qry["$and"].([]bson.M)
	s.Require().True(ok)
	s.Require().Len(andExprs, 1)
	// both chips together widen instead of narrowing
	s.Contains(andExprs[0], "$or")
}

func (s *ItemQueryTestSuite) TestSortKeyExprPrice() {
	asc := sortKeyExpr(item.SortOptionPriceAsc)
	s.Equal(bson.M{"$ifNull": []interface{}{"$cheapestResolvedPrice", priceSortSentinel}}, asc)

	desc := sortKeyExpr(item.SortOptionPriceDesc)
	cond, ok := desc["$cond"].([]interface{})
	s.Require().True(ok)
	s.Require().Len(cond, 3)
	// unpriced stays on the sentinel so it still sorts last
	s.Equal(priceSortSentinel, cond[1])
}

func (s *ItemQueryTestSuite) TestSortKeyExprRarity() {
	asc := sortKeyExpr(item.SortOptionRarityAsc)
	s.Contains(asc, "$ifNull")

	desc := sortKeyExpr(item.SortOptionRarityDesc)
	s.Contains(desc, "$cond")
}

func (s *ItemQueryTestSuite) TestSortKeyExprDefault() {
	def := sortKeyExpr(item.SortOptionCreatedAtAsc)
	s.Equal(bson.M{"$toDouble": "$createdAt"}, def)

	s.Equal(def, sortKeyExpr(""))
}

func (s *ItemQueryTestSuite) TestResolvedPriceBaseExpr() {
	native := resolvedPriceBaseExpr(domain.ResolvedCurrency{Kind: domain.CurrencyKindNative})
	s.Equal(bson.M{"$arrayElemAt": []interface{}{
		bson.M{"$map": bson.M{
			"input": bson.M{"$filter": bson.M{
				"input": "$activeListings",
				"as":    "l",
				"cond": bson.M{"$and": []bson.M{
					{"$eq": []interface{}{"$$l.currency", nil}},
					{"$eq": []interface{}{"$$l.price", "$cheapestResolvedPrice"}},
				}},
			}},
			"as": "l",
			"in": "$$l.priceBase",
		}},
		0,
	}}, native)

	addr := domain.Address("0xAA")
	token := resolvedPriceBaseExpr(domain.ResolvedCurrency{Kind: domain.CurrencyKindToken, Address: &addr})
	s.Equal(bson.M{"$arrayElemAt": []interface{}{
		bson.M{"$map": bson.M{
			"input": bson.M{"$filter": bson.M{
				"input": "$activeListings",
				"as":    "l",
				"cond": bson.M{"$and": []bson.M{
					{"$eq": []interface{}{"$$l.currency", "0xaa"}},
					{"$eq": []interface{}{"$$l.price", "$cheapestResolvedPrice"}},
				}},
			}},
			"as": "l",
			"in": "$$l.priceBase",
		}},
		0,
	}}, token)
}

func (s *ItemQueryTestSuite) TestPostMatchPriceSortDropsForeignCurrency() {
	match := makePostMatch(item.RankOptions{
		SortBy:          item.SortOptionPriceAsc,
		IncludeUnranked: true,
	})

	andExprs, ok := match["$and"].([]bson.M)
	s.Require().True(ok)
	s.Require().Len(andExprs, 1)
	s.Equal(bson.M{"$or": []bson.M{
		{"isListed": false},
		{"cheapestResolvedPrice": bson.M{"$ne": nil}},
	}}, andExprs[0])
}

func (s *ItemQueryTestSuite) TestPostMatchRankWindow() {
	match := makePostMatch(item.RankOptions{
		RankMin:         ptr.Int32(10),
		RankMax:         ptr.Int32(100),
		IncludeUnranked: true,
	})
	s.Equal(bson.M{"$gte": int32(10), "$lte": int32(100)}, match["rarityRank"])

	match = makePostMatch(item.RankOptions{IncludeUnranked: false})
	s.Equal(bson.M{"$ne": nil}, match["rarityRank"])

	match = makePostMatch(item.RankOptions{IncludeUnranked: true})
	s.NotContains(match, "rarityRank")
}

func (s *ItemQueryTestSuite) TestCursorMatch() {
	s.Nil(makeCursorMatch(item.RankOptions{}))

	id := primitive.NewObjectID()
	key := 1.5
	match := makeCursorMatch(item.RankOptions{AfterKey: &key, AfterId: &id})
	s.Equal(bson.M{"$or": []bson.M{
		{"sortKey": bson.M{"$gt": 1.5}},
		{"sortKey": 1.5, "_id": bson.M{"$gt": id}},
	}}, match)
}

func (s *ItemQueryTestSuite) TestRankPipelineShape() {
	id := primitive.NewObjectID()
	key := 2.0
	pipeline := makeRankPipeline(item.RankOptions{
		ContractAddress: "0xabc",
		Statuses:        []item.Status{item.StatusSuccess},
		SortBy:          item.SortOptionPriceAsc,
		Currency:        domain.ResolvedCurrency{Kind: domain.CurrencyKindNative, Symbol: "ETH", Decimals: 18},
		IncludeUnranked: true,
		AfterKey:        &key,
		AfterId:         &id,
		Limit:           24,
	})

	stages := []string{}
	for _, stage := range pipeline {
		for name := range stage {
			stages = append(stages, name)
		}
	}
	s.Equal([]string{
		"$match", "$lookup", "$lookup", "$lookup",
		"$addFields", "$addFields", "$addFields",
		"$match", "$match", "$sort", "$limit", "$project",
	}, stages)
}
