package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/tenant"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

type failingPools struct{ err error }

func (f failingPools) GetPool(context.Context, string) (*tenant.ManagedPool, error) {
	return nil, f.err
}

func TestTenantDB_Rejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	known := uuid.NewString()

	testCases := []struct {
		name       string
		header     string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"MissingHeader", "", nil, http.StatusBadRequest, apperror.CodeValidation},
		{"NotUUID", "acme", nil, http.StatusBadRequest, apperror.CodeValidation},
		{"Unknown", known, tenant.ErrTenantNotFound, http.StatusNotFound, apperror.CodeNotFound},
		{"Suspended", known, fmt.Errorf("%w: status=suspended", tenant.ErrTenantNotActive), http.StatusForbidden, apperror.CodeForbidden},
		{"PoolLimit", known, fmt.Errorf("%w (2)", tenant.ErrMaxPoolLimit), http.StatusServiceUnavailable, apperror.CodeInternal},
		{"DatabaseDown", known, errors.New("dial tcp: refused"), http.StatusInternalServerError, apperror.CodeInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler())
			r.Use(TenantDB(failingPools{err: tc.err}, postgres.DefaultTxOptions()))
			r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				req.Header.Set(TenantHeader, tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			var body struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantCode, body.Code)
		})
	}
}
