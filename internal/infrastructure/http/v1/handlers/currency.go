package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/currency"
	"github.com/hasapchy/back-sub001/internal/domain/pricing"
	"github.com/hasapchy/back-sub001/internal/domain/rounding"
	"github.com/hasapchy/back-sub001/internal/infrastructure/http/v1/dto"
)

// CurrencyHandler serves currencies, their rates and conversion.
type CurrencyHandler struct {
	*BaseHandler
	service *currency.Service
	pricing *pricing.Service
}

func NewCurrencyHandler(base *BaseHandler, service *currency.Service, pricingSvc *pricing.Service) *CurrencyHandler {
	return &CurrencyHandler{BaseHandler: base, service: service, pricing: pricingSvc}
}

// List handles GET /currencies
func (h *CurrencyHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items)), Limit: len(items)})
}

// Create handles POST /currencies
func (h *CurrencyHandler) Create(c *gin.Context) {
	var req dto.CreateCurrencyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cur, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, cur)
}

// SetRate handles POST /currencies/:id/rates
func (h *CurrencyHandler) SetRate(c *gin.Context) {
	currencyID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.SetRateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	rate, err := h.service.SetRate(c.Request.Context(), currencyID, req.Rate, req.Effective())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, rate)
}

// History handles GET /currencies/:id/rates
func (h *CurrencyHandler) History(c *gin.Context) {
	currencyID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.service.History(c.Request.Context(), currencyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items)), Limit: len(items)})
}

// Rate handles GET /currencies/:id/rate?at=
// Without at it returns the current rate.
func (h *CurrencyHandler) Rate(c *gin.Context) {
	currencyID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	at, err := OptionalTime("at", c.Query("at"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var rate decimal.Decimal
	if at == nil {
		rate, err = h.service.CurrentRate(c.Request.Context(), currencyID)
	} else {
		rate, err = h.service.RateAt(c.Request.Context(), currencyID, *at)
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.RateResponse{CurrencyID: currencyID.String(), Rate: rate, At: at})
}

// SetDefault handles POST /currencies/:id/default
func (h *CurrencyHandler) SetDefault(c *gin.Context) {
	currencyID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.SetDefault(c.Request.Context(), currencyID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Convert handles GET /currencies/convert
func (h *CurrencyHandler) Convert(c *gin.Context) {
	var q dto.ConvertQuery
	if !h.BindQuery(c, &q) {
		return
	}
	at, err := OptionalTime("at", q.At)
	if err != nil {
		h.Error(c, err)
		return
	}
	amount := decimal.RequireFromString(q.Amount)
	from, to := id.MustParse(q.From), id.MustParse(q.To)

	ctx := c.Request.Context()
	var result decimal.Decimal
	if at == nil {
		result, err = h.pricing.ConvertAndRound(ctx, amount, from, to, q.RoundingKind())
	} else {
		result, err = h.pricing.ConvertAndRoundAt(ctx, amount, from, to, q.RoundingKind(), at.UTC())
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ConvertResponse{From: q.From, To: q.To, Amount: amount, Result: result, Kind: q.RoundingKind()})
}

// RoundingHandler serves the tenant rounding policy.
type RoundingHandler struct {
	*BaseHandler
	service *rounding.Service
}

func NewRoundingHandler(base *BaseHandler, service *rounding.Service) *RoundingHandler {
	return &RoundingHandler{BaseHandler: base, service: service}
}

// Get handles GET /rounding-policy
func (h *RoundingHandler) Get(c *gin.Context) {
	p, err := h.service.Policy(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Update handles PUT /rounding-policy
func (h *RoundingHandler) Update(c *gin.Context) {
	var p rounding.Policy
	if !h.BindJSON(c, &p) {
		return
	}
	if err := h.service.Update(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}
