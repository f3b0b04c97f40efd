package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/infrastructure/http/v1/dto"
)

// DocumentService is the surface shared by every document service.
type DocumentService[T any, In any] interface {
	Create(ctx context.Context, in In) (T, error)
	Update(ctx context.Context, docID id.ID, in In, expectedVersion int) (T, error)
	Delete(ctx context.Context, docID id.ID) error
	Get(ctx context.Context, docID id.ID) (T, error)
	List(ctx context.Context, f documents.ListFilter) (documents.ListResult[T], error)
}

// DocumentRequest is a request body that maps onto a service input.
type DocumentRequest[In any] interface {
	Input() In
	// ExpectedVersion is 0 when the client does not check versions.
	ExpectedVersion() int
}

// DocumentHandler serves one document kind.
type DocumentHandler[T any, In any, Req DocumentRequest[In]] struct {
	*BaseHandler
	service DocumentService[T, In]
}

func NewDocumentHandler[T any, In any, Req DocumentRequest[In]](base *BaseHandler, service DocumentService[T, In]) *DocumentHandler[T, In, Req] {
	return &DocumentHandler[T, In, Req]{BaseHandler: base, service: service}
}

// List handles GET /{documents}
func (h *DocumentHandler[T, In, Req]) List(c *gin.Context) {
	var q dto.DocumentQuery
	if !h.BindQuery(c, &q) {
		return
	}
	q.Normalize()

	f := documents.ListFilter{
		WarehouseID:    OptionalID(q.WarehouseID),
		ClientID:       OptionalID(q.ClientID),
		CashRegisterID: OptionalID(q.CashRegisterID),
		Limit:          q.Limit,
		Offset:         q.Offset,
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

	res, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// Create handles POST /{documents}
func (h *DocumentHandler[T, In, Req]) Create(c *gin.Context) {
	var req Req
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.Create(c.Request.Context(), req.Input())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Get handles GET /{documents}/:id
func (h *DocumentHandler[T, In, Req]) Get(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.Get(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Update handles PUT /{documents}/:id
func (h *DocumentHandler[T, In, Req]) Update(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req Req
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.Update(c.Request.Context(), docID, req.Input(), req.ExpectedVersion())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Delete handles DELETE /{documents}/:id
func (h *DocumentHandler[T, In, Req]) Delete(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
