package tenant

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/tx"
)

// A request is bound to exactly one tenant through three context values: the
// tenant row, its pool and the unit-of-work manager over that pool.
type (
	tenantCtxKey struct{}
	poolCtxKey   struct{}
	txmCtxKey    struct{}
)

func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, t)
}

func GetTenant(ctx context.Context) *Tenant {
	t, _ := ctx.Value(tenantCtxKey{}).(*Tenant)
	return t
}

// GetTenantID is empty outside a tenant-scoped call.
func GetTenantID(ctx context.Context) string {
	if t := GetTenant(ctx); t != nil {
		return t.ID
	}
	return ""
}

func WithPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, poolCtxKey{}, pool)
}

func GetPool(ctx context.Context) (*pgxpool.Pool, error) {
	if pool, _ := ctx.Value(poolCtxKey{}).(*pgxpool.Pool); pool != nil {
		return pool, nil
	}
	return nil, ErrNoPoolInContext
}

func WithTxManager(ctx context.Context, txm tx.Manager) context.Context {
	return context.WithValue(ctx, txmCtxKey{}, txm)
}

func GetTxManager(ctx context.Context) (tx.Manager, error) {
	if txm, _ := ctx.Value(txmCtxKey{}).(tx.Manager); txm != nil {
		return txm, nil
	}
	return nil, ErrNoTxManager
}

// RunInTx runs fn as one unit of work. Services built with a fixed manager
// (tests, the seed tool) pass it as static; otherwise the tenant's manager is
// taken from ctx.
func RunInTx(ctx context.Context, static tx.Manager, fn func(ctx context.Context) error) error {
	txm, err := pick(ctx, static)
	if err != nil {
		return err
	}
	return txm.RunInTransaction(ctx, fn)
}

// RunReadOnly is RunInTx for reads that must see one snapshot. Managers
// without read-only support run fn in an ordinary transaction.
func RunReadOnly(ctx context.Context, static tx.Manager, fn func(ctx context.Context) error) error {
	txm, err := pick(ctx, static)
	if err != nil {
		return err
	}
	if ro, ok := txm.(tx.ReadOnlyManager); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return txm.RunInTransaction(ctx, fn)
}

func pick(ctx context.Context, static tx.Manager) (tx.Manager, error) {
	if static != nil {
		return static, nil
	}
	txm, err := GetTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	return txm, nil
}
