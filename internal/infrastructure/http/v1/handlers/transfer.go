package handlers

//go:generate mockgen -source transfer.go -destination transfer_mock_test.go -package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/transfer"
	"github.com/hasapchy/back-sub001/internal/infrastructure/http/v1/dto"
)

// TransferService is what TransferHandler needs from transfer.Service.
type TransferService interface {
	Create(ctx context.Context, in transfer.Input) (*transfer.Transfer, error)
	Update(ctx context.Context, transferID id.ID, in transfer.Input, expectedVersion int) (*transfer.Transfer, error)
	Delete(ctx context.Context, transferID id.ID) error
	Get(ctx context.Context, transferID id.ID) (*transfer.Transfer, error)
	List(ctx context.Context, f transfer.Filter) ([]*transfer.Transfer, error)
}

// TransferHandler serves cash transfers.
type TransferHandler struct {
	*BaseHandler
	service TransferService
}

func NewTransferHandler(base *BaseHandler, service TransferService) *TransferHandler {
	return &TransferHandler{BaseHandler: base, service: service}
}

// List handles GET /transfers?registerId=
func (h *TransferHandler) List(c *gin.Context) {
	var q struct {
		dto.PageQuery
		RegisterID string `form:"registerId" binding:"omitempty,uuid"`
	}
	if !h.BindQuery(c, &q) {
		return
	}
	q.Normalize()

	items, err := h.service.List(c.Request.Context(), transfer.Filter{
		RegisterID: OptionalID(q.RegisterID),
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, Limit: q.Limit, Offset: q.Offset})
}

// Create handles POST /transfers
func (h *TransferHandler) Create(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, t)
}

// Get handles GET /transfers/:id
func (h *TransferHandler) Get(c *gin.Context) {
	transferID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	t, err := h.service.Get(c.Request.Context(), transferID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Update handles PUT /transfers/:id
func (h *TransferHandler) Update(c *gin.Context) {
	transferID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Update(c.Request.Context(), transferID, req.ToInput(), req.Version)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Delete handles DELETE /transfers/:id
func (h *TransferHandler) Delete(c *gin.Context) {
	transferID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), transferID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

var _ TransferService = (*transfer.Service)(nil)
