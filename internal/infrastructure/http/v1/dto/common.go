// Package dto holds the request and response bodies of the v1 API.
package dto

import (
	"github.com/hasapchy/back-sub001/internal/core/id"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// PageQuery is the limit/offset pair of list endpoints.
type PageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// Normalize applies the default limit.
func (p *PageQuery) Normalize() {
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
}

// ListResponse wraps a page of items.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount,omitempty"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// IDResponse is returned by operations that only create a record.
type IDResponse struct {
	ID string `json:"id"`
}

func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
