package http

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"

	"github.com/palette-xyz/goapi/base/ctx"
	"github.com/palette-xyz/goapi/base/delivery"
	"github.com/palette-xyz/goapi/base/log"
	"github.com/palette-xyz/goapi/base/metrics"
	"github.com/palette-xyz/goapi/domain"
	"github.com/palette-xyz/goapi/domain/collection"
	"github.com/palette-xyz/goapi/domain/item"
	"github.com/palette-xyz/goapi/middleware"
)

var met metrics.Service

type handler struct {
	collection collection.UseCase
	item       item.UseCase
	currency   domain.CurrencyUseCase
}

func New(
	e *echo.Echo,
	collection collection.UseCase,
	item item.UseCase,
	currency domain.CurrencyUseCase) {
	met = metrics.New("collection")

	h := &handler{collection, item, currency}

	e.GET("/collections/top", h.getTop, middleware.CacheHttp(1*time.Minute))

	g := e.Group("/collection/:contract")

	g.GET("", h.get, middleware.CacheHttp(1*time.Minute))

	g.GET("/items", h.getItems, h.itemRequestCount(), middleware.CacheHttp(10*time.Second))

	g.GET("/facets", h.getFacets, middleware.CacheHttp(30*time.Second))
}

func (h *handler) getTop(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Window     domain.TimeWindow `query:"window"`
		CurrencyId *string           `query:"currencyId"`
		Limit      int32             `query:"limit"`
	}

	p := params{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	if p.Window == "" {
		p.Window = domain.TimeWindowDay
	}
	if !p.Window.IsValid() {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidTimeWindow)
	}

	cur, err := h.currency.Resolve(ctx, p.CurrencyId)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res, err := h.collection.GetTop(ctx, p.Window, *cur, p.Limit)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	contract, ok := contractParam(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidAddress)
	}

	res, err := h.collection.FindOne(ctx, contract)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

type itemsResponse struct {
	Stats      *collection.Stats `json:"stats"`
	Items      []*item.ItemView  `json:"items"`
	NextCursor *string           `json:"nextCursor,omitempty"`
}

func (h *handler) getItems(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	contract, ok := contractParam(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidAddress)
	}

	type params struct {
		item.SearchParams
		Window domain.TimeWindow `query:"window"`
	}

	p := params{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	if !item.IsValidSortOption(p.SortBy) {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}
	if p.Window == "" {
		p.Window = domain.TimeWindowDay
	}
	if !p.Window.IsValid() {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidTimeWindow)
	}

	attrs, err := item.CollectAttrFilters(p.AttrFilters, p.Traits, c.QueryParams())
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	opts := item.SearchOptions{
		CurrencyId:      p.CurrencyId,
		Search:          p.Search,
		Listed:          p.Listed,
		Auctioned:       p.Auctioned,
		SortBy:          p.SortBy,
		RankMin:         p.RankMin,
		RankMax:         p.RankMax,
		IncludeUnranked: p.IncludeUnranked == nil || *p.IncludeUnranked,
		Attributes:      attrs,
		Cursor:          p.Cursor,
		Limit:           p.Limit,
	}

	searchRes, err := h.item.Search(ctx, contract, opts)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := itemsResponse{
		Items:      searchRes.Items,
		NextCursor: searchRes.NextCursor,
	}

	// the header is best effort, a stats failure never drops the page
	if cur, err := h.currency.Resolve(ctx, p.CurrencyId); err != nil {
		ctx.WithField("err", err).Warn("currency.Resolve failed")
	} else if stats, err := h.collection.GetStats(ctx, contract, *cur, &p.Window); err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
		}).Warn("collection.GetStats failed")
	} else {
		res.Stats = stats
	}

	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getFacets(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	contract, ok := contractParam(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidAddress)
	}

	res, err := h.collection.GetFacets(ctx, contract)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"contract": contract,
		}).Warn("collection.GetFacets failed")
		// degraded facets keep the filter panel rendering
		res = &collection.Facets{Population: 0, Traits: []collection.TraitFacet{}}
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func contractParam(c echo.Context) (domain.Address, bool) {
	contract := c.Param("contract")
	if !common.IsHexAddress(contract) {
		return "", false
	}
	return domain.Address(contract).ToLower(), true
}

func (h *handler) itemRequestCount() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			met.BumpSum("items.count", 1, "contract", domain.Address(c.Param("contract")).ToLowerStr())
			return next(c)
		}
	}
}
