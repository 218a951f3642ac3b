package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/go-playground/validator/v10"
	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/base/database/mongoclient"
	"github.com/palette-xyz/goapi/base/database/redisclient"
	"github.com/palette-xyz/goapi/base/log"
	"github.com/palette-xyz/goapi/base/metrics"
	bValidator "github.com/palette-xyz/goapi/base/validator"
	mmiddleware "github.com/palette-xyz/goapi/middleware"
	"github.com/palette-xyz/goapi/service/query"
	"github.com/palette-xyz/goapi/service/redis"
	collection_delivery "github.com/palette-xyz/goapi/stores/collection/delivery/http"
	collection_repository "github.com/palette-xyz/goapi/stores/collection/repository"
	collection_usecase "github.com/palette-xyz/goapi/stores/collection/usecase"
	currency_repository "github.com/palette-xyz/goapi/stores/currency/repository"
	currency_usecase "github.com/palette-xyz/goapi/stores/currency/usecase"
	hc_delivery "github.com/palette-xyz/goapi/stores/healthcheck/delivery/http"
	hc_repo "github.com/palette-xyz/goapi/stores/healthcheck/repository"
	hc_usecase "github.com/palette-xyz/goapi/stores/healthcheck/usecase"
	item_repository "github.com/palette-xyz/goapi/stores/item/repository"
	item_usecase "github.com/palette-xyz/goapi/stores/item/usecase"
	market_repository "github.com/palette-xyz/goapi/stores/market/repository"
)

func init() {
	pflag.String("config", "infra/configs/config.yaml", "path to config file")
	pflag.Parse()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		panic(err)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigFile(viper.GetString("config"))
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init mongo client
	context.Info("init mongo")
	uri := viper.GetString("mongo.uri")
	authDBName := viper.GetString("mongo.authDBName")
	dbName := viper.GetString("mongo.dbName")
	enableSSL := viper.GetBool("mongo.enableSSL")
	checkIndex := viper.GetBool("mongo.checkIndex")
	mongoClient := mongoclient.MustConnectMongoClient(uri, authDBName, dbName, enableSSL, true, 2)
	q := query.New(mongoClient, checkIndex)

	// init Redis service
	context.Info("init redis cache")
	redisCacheName := viper.GetString("redis_cache.name")
	redisCacheURI := viper.GetString("redis_cache.uri")
	redisCachePwd := viper.GetString("redis_cache.password")
	redisCachePoolMultiplier := viper.GetFloat64("redis_cache.poolMultiplier")
	redisCachePool := redisclient.MustConnectRedis(redisCacheURI, redisCachePwd, redisclient.RedisParam{
		PoolMultiplier: redisCachePoolMultiplier,
		Retry:          true,
	})
	redisCache := redis.New(redisCacheName, metrics.New(redisCacheName), &redis.Pools{
		Src: redisCachePool,
	})

	mmiddleware.SetupCache(redisCache)

	// construct repository, usecase and delivery
	hcRepo := hc_repo.New(mongoClient, redisCache)
	currencyRepo := currency_repository.NewCurrencyRepo(q)
	itemRepo := item_repository.NewItemRepo(q, redisCache)
	listingRepo := market_repository.NewListingRepo(q)
	auctionRepo := market_repository.NewAuctionRepo(q)
	saleRepo := market_repository.NewSaleRepo(q)
	rarityRepo := market_repository.NewRarityRepo(q)
	collectionRepo := collection_repository.NewCollectionRepo(q)

	hc := hc_usecase.New(hcRepo)
	currency := currency_usecase.NewCurrencyUseCase(&currency_usecase.CurrencyUseCaseCfg{
		Repo: currencyRepo,
		Native: currency_usecase.NativeCurrencyCfg{
			Symbol:   viper.GetString("native.symbol"),
			Decimals: viper.GetInt32("native.decimals"),
		},
		Redis: redisCache,
	})
	item := item_usecase.NewItemUseCase(&item_usecase.ItemUseCaseCfg{
		ItemRepo:    itemRepo,
		ListingRepo: listingRepo,
		AuctionRepo: auctionRepo,
		Currency:    currency,
	})
	collection := collection_usecase.NewCollectionUseCase(&collection_usecase.CollectionUseCaseCfg{
		CollectionRepo: collectionRepo,
		ItemRepo:       itemRepo,
		ListingRepo:    listingRepo,
		SaleRepo:       saleRepo,
		RarityRepo:     rarityRepo,
	})

	hc_delivery.New(e, hc)
	collection_delivery.New(e, collection, item, currency)

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
