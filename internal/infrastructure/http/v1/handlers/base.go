// Package handlers holds the gin handlers of the v1 API.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/infrastructure/http/v1/middleware"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates the request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, bindError("invalid request body", err))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, bindError("invalid query parameters", err))
		return false
	}
	return true
}

// Error registers err on the gin context and aborts. The JSON body is
// written by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParamID parses the path parameter name as an id.
func (h *BaseHandler) ParamID(c *gin.Context, name string) (id.ID, bool) {
	v, err := id.Parse(c.Param(name))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("param", name))
		return id.Nil(), false
	}
	return v, true
}

// OptionalID parses an optional id; the empty string yields nil. Query
// structs validate the uuid format before this is called.
func OptionalID(s string) *id.ID {
	if s == "" {
		return nil
	}
	v, err := id.Parse(s)
	if err != nil {
		return nil
	}
	return &v
}

// OptionalTime parses an RFC 3339 timestamp or a plain date.
func OptionalTime(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, apperror.NewValidation("invalid date").WithDetail("field", field).WithDetail("value", s)
}

func (h *BaseHandler) complete(c *gin.Context, status int, response any) {
	if err := middleware.CompleteIdempotency(c, status, response); err != nil {
		logger.Warn(c.Request.Context(), "idempotency complete key", "error", err)
	}
}

// Created sends 201 with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.complete(c, http.StatusCreated, data)
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.complete(c, http.StatusOK, data)
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204. A replay answers 204 with an empty body too.
func (h *BaseHandler) NoContent(c *gin.Context) {
	h.complete(c, http.StatusNoContent, nil)
	c.Status(http.StatusNoContent)
}

func bindError(message string, err error) error {
	appErr := apperror.NewValidation(message)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return appErr.
			WithDetail("field", ve[0].Field()).
			WithDetail("rule", ve[0].Tag())
	}
	return appErr.WithDetail("error", err.Error())
}
