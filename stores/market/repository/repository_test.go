package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/palette-xyz/goapi/domain"
	"github.com/palette-xyz/goapi/domain/market"
)

type MarketQueryTestSuite struct {
	suite.Suite
}

func TestMarketQueryTestSuite(t *testing.T) {
	suite.Run(t, new(MarketQueryTestSuite))
}

func (s *MarketQueryTestSuite) TestListingQueryNativeCurrency() {
	opts, err := market.GetListingFindAllOptions(
		market.ListingWithContractAddress("0xABC"),
		market.ListingWithCurrency(domain.ResolvedCurrency{Kind: domain.CurrencyKindNative, Symbol: "ETH", Decimals: 18}),
	)
	s.Require().NoError(err)

	qry := makeListingFindQuery(opts)
	s.Equal(domain.Address("0xabc"), qry["contractAddress"])
	// native listings carry no currency
	s.Contains(qry, "currency")
	s.Nil(qry["currency"])
}

func (s *MarketQueryTestSuite) TestListingQueryTokenCurrency() {
	addr := domain.Address("0x00000000000000000000000000000000000000AA")
	lower := addr.ToLower()
	opts, err := market.GetListingFindAllOptions(
		market.ListingWithCurrency(domain.ResolvedCurrency{
			Kind:     domain.CurrencyKindToken,
			Address:  &addr,
			Symbol:   "WETH",
			Decimals: 18,
		}),
	)
	s.Require().NoError(err)

	qry := makeListingFindQuery(opts)
	s.Equal(lower, qry["currency"])
}

func (s *MarketQueryTestSuite) TestListingQueryActiveWindow() {
	now := time.Now()
	opts, err := market.GetListingFindAllOptions(market.ListingWithActiveAt(now))
	s.Require().NoError(err)

	qry := makeListingFindQuery(opts)
	s.Equal(market.ListingStatusActive, qry["status"])
	s.Equal(bson.M{"$lte": now}, qry["startTime"])
	s.Equal([]bson.M{
		{"endTime": nil},
		{"endTime": bson.M{"$gt": now}},
	}, qry["$or"])
}

func (s *MarketQueryTestSuite) TestSaleQueryWindow() {
	from := time.Now().Add(-24 * time.Hour)
	to := time.Now()
	opts, err := market.GetSaleFindAllOptions(
		market.SaleWithContractAddress("0xABC"),
		market.SaleWithTimeRange(from, to),
	)
	s.Require().NoError(err)

	qry := makeSaleFindQuery(opts)
	s.Equal(domain.Address("0xabc"), qry["contractAddress"])
	s.Equal(bson.M{"$gte": from, "$lt": to}, qry["time"])
}
