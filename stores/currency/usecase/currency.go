package usecase

import (
	"errors"
	"time"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/base/log"
	"github.com/palette-xyz/goapi/domain"
	"github.com/palette-xyz/goapi/domain/keys"
	"github.com/palette-xyz/goapi/service/cache"
	compoundcache "github.com/palette-xyz/goapi/service/cache/compoundCache"
	"github.com/palette-xyz/goapi/service/cache/provider/primitive"
	redisCache "github.com/palette-xyz/goapi/service/cache/provider/redis"
	"github.com/palette-xyz/goapi/service/redis"
)

const nativeSelector = "native"

// NativeCurrencyCfg describes the chain's native asset, injected from
// deployment config
type NativeCurrencyCfg struct {
	Symbol   string
	Decimals int32
}

type CurrencyUseCaseCfg struct {
	Repo   domain.CurrencyRepo
	Native NativeCurrencyCfg
	Redis  redis.Service
}

type currencyUseCase struct {
	repo   domain.CurrencyRepo
	native domain.ResolvedCurrency
	cache  cache.Service
}

func NewCurrencyUseCase(cfg *CurrencyUseCaseCfg) domain.CurrencyUseCase {
	cacheServices := []cache.Service{
		cache.New(cache.ServiceConfig{
			Ttl:   10 * time.Second,
			Pfx:   "currency",
			Cache: primitive.NewPrimitive("currency", 64),
		}),
	}

	if cfg.Redis != nil {
		cacheServices = append(cacheServices, cache.New(cache.ServiceConfig{
			Ttl:   10 * time.Minute,
			Pfx:   "currency",
			Cache: redisCache.NewRedis(cfg.Redis),
		}))
	}

	return &currencyUseCase{
		repo: cfg.Repo,
		native: domain.ResolvedCurrency{
			Kind:     domain.CurrencyKindNative,
			Symbol:   cfg.Native.Symbol,
			Decimals: cfg.Native.Decimals,
		},
		cache: compoundcache.NewCompoundCache(cacheServices),
	}
}

func (u *currencyUseCase) Resolve(c ctx.Ctx, currencyId *string) (*domain.ResolvedCurrency, error) {
	if currencyId == nil || len(*currencyId) == 0 || *currencyId == nativeSelector {
		native := u.native
		return &native, nil
	}

	address := domain.Address(*currencyId).ToLower()

	res := &domain.ResolvedCurrency{}
	if err := u.cache.GetByFunc(c, keys.RedisKey(keys.PfxCurrency, string(address)), res, func() (interface{}, error) {
		return u.resolveToken(c, address)
	}); err != nil {
		return nil, err
	}

	return res, nil
}

func (u *currencyUseCase) resolveToken(c ctx.Ctx, address domain.Address) (*domain.ResolvedCurrency, error) {
	cur, err := u.repo.FindOne(c, address)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnknownCurrency
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"address": address,
		}).Error("repo.FindOne failed")
		return nil, err
	}

	if !cur.IsActive {
		return nil, domain.ErrUnknownCurrency
	}

	addr := cur.Address.ToLower()
	return &domain.ResolvedCurrency{
		Kind:     domain.CurrencyKindToken,
		Address:  &addr,
		Symbol:   cur.Symbol,
		Decimals: cur.Decimals,
	}, nil
}
