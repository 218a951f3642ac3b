package usecase

import (
	"testing"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/base/ptr"
	"github.com/palette-xyz/goapi/domain"
)

type fakeCurrencyRepo struct {
	currencies map[domain.Address]*domain.Currency
}

func (r *fakeCurrencyRepo) FindOne(c bCtx.Ctx, address domain.Address) (*domain.Currency, error) {
	cur, ok := r.currencies[address.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cur, nil
}

func (r *fakeCurrencyRepo) FindAllActive(c bCtx.Ctx) ([]*domain.Currency, error) {
	res := []*domain.Currency{}
	for _, cur := range r.currencies {
		if cur.IsActive {
			res = append(res, cur)
		}
	}
	return res, nil
}

func (r *fakeCurrencyRepo) Upsert(c bCtx.Ctx, currency *domain.Currency) error {
	r.currencies[currency.Address.ToLower()] = currency
	return nil
}

type CurrencyUseCaseTestSuite struct {
	suite.Suite

	ctx bCtx.Ctx
	uc  domain.CurrencyUseCase
}

func TestCurrencyUseCaseTestSuite(t *testing.T) {
	suite.Run(t, new(CurrencyUseCaseTestSuite))
}

func (s *CurrencyUseCaseTestSuite) SetupSuite() {
	s.ctx = bCtx.Background()
	repo := &fakeCurrencyRepo{currencies: map[domain.Address]*domain.Currency{
		"0x00000000000000000000000000000000000000aa": {
			Name:     "Wrapped Ether",
			Symbol:   "WETH",
			Decimals: 18,
			Address:  "0x00000000000000000000000000000000000000aa",
			IsActive: true,
		},
		"0x00000000000000000000000000000000000000bb": {
			Name:     "Retired Token",
			Symbol:   "OLD",
			Decimals: 6,
			Address:  "0x00000000000000000000000000000000000000bb",
			IsActive: false,
		},
	}}
	s.uc = NewCurrencyUseCase(&CurrencyUseCaseCfg{
		Repo:   repo,
		Native: NativeCurrencyCfg{Symbol: "ETH", Decimals: 18},
	})
}

func (s *CurrencyUseCaseTestSuite) TestResolveNative() {
	for _, selector := range []*string{nil, ptr.String(""), ptr.String("native")} {
		cur, err := s.uc.Resolve(s.ctx, selector)
		s.NoError(err)
		s.Equal(domain.CurrencyKindNative, cur.Kind)
		s.Equal("ETH", cur.Symbol)
		s.Equal(int32(18), cur.Decimals)
		s.Nil(cur.Address)
	}
}

func (s *CurrencyUseCaseTestSuite) TestResolveToken() {
	cur, err := s.uc.Resolve(s.ctx, ptr.String("0x00000000000000000000000000000000000000AA"))
	s.NoError(err)
	s.Equal(domain.CurrencyKindToken, cur.Kind)
	s.Equal("WETH", cur.Symbol)
	s.Equal(int32(18), cur.Decimals)
	s.Require().NotNil(cur.Address)
	s.Equal(domain.Address("0x00000000000000000000000000000000000000aa"), *cur.Address)
}

func (s *CurrencyUseCaseTestSuite) TestResolveUnknown() {
	_, err := s.uc.Resolve(s.ctx, ptr.String("0x00000000000000000000000000000000000000cc"))
	s.ErrorIs(err, domain.ErrUnknownCurrency)
}

func (s *CurrencyUseCaseTestSuite) TestResolveInactive() {
	_, err := s.uc.Resolve(s.ctx, ptr.String("0x00000000000000000000000000000000000000bb"))
	s.ErrorIs(err, domain.ErrUnknownCurrency)
}
