package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
	"github.com/hasapchy/back-sub001/internal/infrastructure/http/v1/dto"
)

// StockHandler serves stock balances, the movement journal, manual
// adjustments and the product and warehouse lists.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// Balances handles GET /stock/balances?warehouseId=&productId=
func (h *StockHandler) Balances(c *gin.Context) {
	var q dto.StockBalanceQuery
	if !h.BindQuery(c, &q) {
		return
	}
	ctx := c.Request.Context()
	warehouseID := id.MustParse(q.WarehouseID)

	if productID := OptionalID(q.ProductID); productID != nil {
		b, err := h.service.Balance(ctx, warehouseID, *productID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, b)
		return
	}

	items, err := h.service.Balances(ctx, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items)), Limit: len(items)})
}

// Movements handles GET /stock/movements
func (h *StockHandler) Movements(c *gin.Context) {
	var q dto.StockMovementQuery
	if !h.BindQuery(c, &q) {
		return
	}
	q.Normalize()

	f := stock.MovementFilter{
		WarehouseID: OptionalID(q.WarehouseID),
		ProductID:   OptionalID(q.ProductID),
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	if recID := OptionalID(q.RecorderID); recID != nil && q.RecorderType != "" {
		f.Recorder = &stock.Recorder{Type: q.RecorderType, ID: *recID}
	}
	items, err := h.service.Movements(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, Limit: q.Limit, Offset: q.Offset})
}

// Adjust handles POST /stock/adjustments
func (h *StockHandler) Adjust(c *gin.Context) {
	var req dto.StockAdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b, err := h.service.AdjustStock(c.Request.Context(), req.WarehouseID, req.ProductID, req.Delta, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, b)
}

// Products handles GET /products
func (h *StockHandler) Products(c *gin.Context) {
	items, err := h.service.Products(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items)), Limit: len(items)})
}

// CreateProduct handles POST /products
func (h *StockHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.service.CreateProduct(c.Request.Context(), req.Name, req.IsTracked())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// Warehouses handles GET /warehouses
func (h *StockHandler) Warehouses(c *gin.Context) {
	items, err := h.service.Warehouses(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items)), Limit: len(items)})
}

// CreateWarehouse handles POST /warehouses
func (h *StockHandler) CreateWarehouse(c *gin.Context) {
	var req dto.CreateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	w, err := h.service.CreateWarehouse(c.Request.Context(), req.Name)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, w)
}
