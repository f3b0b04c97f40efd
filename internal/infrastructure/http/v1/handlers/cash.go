package handlers

import (
	"github.com/gin-gonic/gin"

	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/domain/cashregister"
	"github.com/hasapchy/back-sub001/internal/domain/clientbalance"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/transactions"
	"github.com/hasapchy/back-sub001/internal/infrastructure/http/v1/dto"
)

// CashRegisterHandler serves cash registers.
type CashRegisterHandler struct {
	*BaseHandler
	service *cashregister.Service
}

func NewCashRegisterHandler(base *BaseHandler, service *cashregister.Service) *CashRegisterHandler {
	return &CashRegisterHandler{BaseHandler: base, service: service}
}

// List handles GET /cash-registers. Non-admins see the registers open to
// them.
func (h *CashRegisterHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	userID := appctx.GetUserID(ctx)
	if u := appctx.GetUser(ctx); u != nil && u.IsAdmin {
		userID = ""
	}
	items, err := h.service.List(ctx, userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items)), Limit: len(items)})
}

// Create handles POST /cash-registers
func (h *CashRegisterHandler) Create(c *gin.Context) {
	var req dto.CreateCashRegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}
	reg, err := h.service.Create(c.Request.Context(), req.Name, req.CurrencyID, req.UserIDs)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, reg)
}

// Get handles GET /cash-registers/:id
func (h *CashRegisterHandler) Get(c *gin.Context) {
	registerID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	reg, err := h.service.Get(c.Request.Context(), registerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, reg)
}

// Update handles PATCH /cash-registers/:id
func (h *CashRegisterHandler) Update(c *gin.Context) {
	registerID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCashRegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}
	reg, err := h.service.Update(c.Request.Context(), registerID, req.Name, req.UserIDs, req.Version)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, reg)
}

// Delete handles DELETE /cash-registers/:id
func (h *CashRegisterHandler) Delete(c *gin.Context) {
	registerID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), registerID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Reconcile handles GET /cash-registers/:id/reconcile
func (h *CashRegisterHandler) Reconcile(c *gin.Context) {
	registerID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	rec, err := h.service.Reconcile(c.Request.Context(), registerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"registerId": rec.RegisterID,
		"cached":     rec.Cached,
		"ledger":     rec.Ledger,
		"drift":      rec.Drift,
		"consistent": rec.Consistent(),
	})
}

// TransactionHandler serves manual ledger entries.
type TransactionHandler struct {
	*BaseHandler
	service *transactions.Service
}

func NewTransactionHandler(base *BaseHandler, service *transactions.Service) *TransactionHandler {
	return &TransactionHandler{BaseHandler: base, service: service}
}

// List handles GET /transactions
func (h *TransactionHandler) List(c *gin.Context) {
	var q dto.TransactionQuery
	if !h.BindQuery(c, &q) {
		return
	}
	q.Normalize()

	f := ledger.Filter{
		CashRegisterID: OptionalID(q.CashRegisterID),
		ClientID:       OptionalID(q.ClientID),
		SourceID:       OptionalID(q.SourceID),
		IncludeVoided:  q.IncludeVoided,
		Limit:          q.Limit,
		Offset:         q.Offset,
	}
	if q.SourceType != "" {
		kind := ledger.SourceKind(q.SourceType)
		f.SourceKind = &kind
	}
	var err error
	if f.DateFrom, err = OptionalTime("dateFrom", q.DateFrom); err != nil {
		h.Error(c, err)
		return
	}
	if f.DateTo, err = OptionalTime("dateTo", q.DateTo); err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, Limit: q.Limit, Offset: q.Offset})
}

// Create handles POST /transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	var req dto.TransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	e, err := h.service.Create(c.Request.Context(), req.ToDraft())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, e)
}

// Get handles GET /transactions/:id
func (h *TransactionHandler) Get(c *gin.Context) {
	entryID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	e, err := h.service.Get(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// Update handles PUT /transactions/:id
func (h *TransactionHandler) Update(c *gin.Context) {
	entryID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.TransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	e, err := h.service.Update(c.Request.Context(), entryID, req.ToDraft())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// Reverse handles POST /transactions/:id/reverse
func (h *TransactionHandler) Reverse(c *gin.Context) {
	entryID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	e, err := h.service.Reverse(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// Delete handles DELETE /transactions/:id
func (h *TransactionHandler) Delete(c *gin.Context) {
	entryID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), entryID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ClientBalanceHandler serves client balances.
type ClientBalanceHandler struct {
	*BaseHandler
	service *clientbalance.Service
}

func NewClientBalanceHandler(base *BaseHandler, service *clientbalance.Service) *ClientBalanceHandler {
	return &ClientBalanceHandler{BaseHandler: base, service: service}
}

// Get handles GET /clients/:id/balance
func (h *ClientBalanceHandler) Get(c *gin.Context) {
	clientID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	b, err := h.service.Get(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// Open handles POST /clients/:id/balance
func (h *ClientBalanceHandler) Open(c *gin.Context) {
	clientID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	b, err := h.service.Open(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, b)
}

// Adjust handles POST /clients/:id/balance/adjustments
func (h *ClientBalanceHandler) Adjust(c *gin.Context) {
	clientID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustBalanceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b, err := h.service.Adjust(c.Request.Context(), clientID, req.Delta)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}
