package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/tenant"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

// TenantHeader carries the tenant UUID.
const TenantHeader = "X-Tenant-ID"

// PoolSource hands out tenant pools. *tenant.Manager implements it.
type PoolSource interface {
	GetPool(ctx context.Context, tenantID string) (*tenant.ManagedPool, error)
}

// TenantDB binds the request to the tenant named in the header: its row, its
// pool and a TxManager over that pool. Storage is unreachable without it.
func TenantDB(pools PoolSource, opts postgres.TxOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		tenantID, appErr := tenantFromHeader(c.GetHeader(TenantHeader))
		if appErr != nil {
			_ = c.Error(appErr)
			c.Abort()
			return
		}

		mp, err := pools.GetPool(ctx, tenantID)
		if err != nil {
			logger.Warn(ctx, "tenant resolution failed", "tenant_id", tenantID, "error", err)
			_ = c.Error(resolutionError(err, tenantID))
			c.Abort()
			return
		}

		// an in-flight request pins the pool against eviction
		mp.AcquireRef()
		defer mp.ReleaseRef()

		ctx = tenant.WithTenant(ctx, mp.Tenant())
		ctx = tenant.WithPool(ctx, mp.Pool())
		ctx = tenant.WithTxManager(ctx, postgres.NewTxManager(mp.Pool(), opts))
		ctx = logger.WithFields(ctx, "tenant_id", tenantID)
		c.Request = c.Request.WithContext(ctx)

		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

func tenantFromHeader(raw string) (string, *apperror.AppError) {
	if raw == "" {
		return "", apperror.NewValidation("tenant is required").WithDetail("header", TenantHeader)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", apperror.NewValidation("invalid tenant id").
			WithDetail("header", TenantHeader).
			WithDetail("value", raw)
	}
	return parsed.String(), nil
}

func resolutionError(err error, tenantID string) *apperror.AppError {
	switch {
	case errors.Is(err, tenant.ErrTenantNotFound):
		return apperror.NewNotFound("tenant", tenantID)
	case errors.Is(err, tenant.ErrTenantNotActive):
		return apperror.NewForbidden("tenant is not active").WithDetail("tenant_id", tenantID)
	case errors.Is(err, tenant.ErrMaxPoolLimit):
		appErr := apperror.NewInternal(err).WithDetail("tenant_id", tenantID)
		appErr.HTTPStatus = http.StatusServiceUnavailable
		appErr.Message = "service temporarily unavailable"
		return appErr
	default:
		return apperror.NewInternal(err).WithDetail("tenant_id", tenantID)
	}
}
