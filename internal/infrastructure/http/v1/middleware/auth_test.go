package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/core/tenant"
)

type stubValidator map[string]*appctx.UserContext

func (s stubValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, errors.New("unknown token")
}

func newAuthRouter(tenantID string, validator JWTValidator, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(func(c *gin.Context) {
		if tenantID != "" {
			ctx := tenant.WithTenant(c.Request.Context(), &tenant.Tenant{ID: tenantID, Status: tenant.StatusActive})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	})
	r.Use(Auth(validator))

	handlers := []gin.HandlerFunc{}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetUserID(c.Request.Context()))
	})
	r.GET("/me", handlers...)
	return r
}

func get(r http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func codeOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestAuth(t *testing.T) {
	validator := stubValidator{
		"cashier": {UserID: "u-cashier", TenantID: "t1", Roles: []string{"cashier"}},
		"admin":   {UserID: "u-admin", TenantID: "t1", IsAdmin: true},
		"foreign": {UserID: "u-foreign", TenantID: "t2"},
	}

	testCases := []struct {
		name          string
		authorization string
		roles         []string
		wantStatus    int
		wantCode      string
		wantUser      string
	}{
		{name: "MissingHeader", wantStatus: http.StatusUnauthorized, wantCode: apperror.CodeUnauthorized},
		{name: "NotBearer", authorization: "Basic cashier", wantStatus: http.StatusUnauthorized, wantCode: apperror.CodeUnauthorized},
		{name: "UnknownToken", authorization: "Bearer nope", wantStatus: http.StatusUnauthorized, wantCode: apperror.CodeUnauthorized},
		{name: "TenantMismatch", authorization: "Bearer foreign", wantStatus: http.StatusForbidden, wantCode: apperror.CodeForbidden},
		{name: "OK", authorization: "Bearer cashier", wantStatus: http.StatusOK, wantUser: "u-cashier"},
		{name: "LowercaseScheme", authorization: "bearer cashier", wantStatus: http.StatusOK, wantUser: "u-cashier"},
		{name: "RoleHeld", authorization: "Bearer cashier", roles: []string{"accountant", "cashier"}, wantStatus: http.StatusOK, wantUser: "u-cashier"},
		{name: "RoleMissing", authorization: "Bearer cashier", roles: []string{"accountant"}, wantStatus: http.StatusForbidden, wantCode: apperror.CodeForbidden},
		{name: "AdminBypassesRoles", authorization: "Bearer admin", roles: []string{"accountant"}, wantStatus: http.StatusOK, wantUser: "u-admin"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(newAuthRouter("t1", validator, tc.roles...), tc.authorization)

			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			if tc.wantCode != "" {
				assert.Equal(t, tc.wantCode, codeOf(t, rec))
			}
			if tc.wantUser != "" {
				assert.Equal(t, tc.wantUser, rec.Body.String())
			}
		})
	}
}
