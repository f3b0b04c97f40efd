package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/infrastructure/http/v1/dto"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

// AuditHistory reads the audit trail of one aggregate.
type AuditHistory interface {
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

type AuditHandler struct {
	*BaseHandler
	history AuditHistory
}

func NewAuditHandler(base *BaseHandler, history AuditHistory) *AuditHandler {
	return &AuditHandler{BaseHandler: base, history: history}
}

// History handles GET /audit/:type/:id
func (h *AuditHandler) History(c *gin.Context) {
	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var q dto.PageQuery
	if !h.BindQuery(c, &q) {
		return
	}
	q.Normalize()

	items, err := h.history.History(c.Request.Context(), c.Param("type"), entityID, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, Limit: q.Limit})
}
