// Package register_repo provides PostgreSQL repositories for balance-bearing
// records: cash registers, ledger entries, client balances, warehouse stock
// and transfers. In Database-per-Tenant architecture the querier comes from
// context.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

func get[T any](ctx context.Context, q squirrel.SelectBuilder, entity string, key any) (*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out T
	if err := pgxscan.Get(ctx, postgres.Conn(ctx), &out, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(entity, fmt.Sprint(key))
		}
		return nil, fmt.Errorf("get %s: %w", entity, err)
	}
	return &out, nil
}

func list[T any](ctx context.Context, q squirrel.SelectBuilder, entity string) ([]*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []*T
	if err := pgxscan.Select(ctx, postgres.Conn(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", entity, err)
	}
	return out, nil
}

// exec runs q. With mustMatch a statement touching no row is NotFound.
func exec(ctx context.Context, q squirrel.Sqlizer, entity string, key any, op string, mustMatch bool) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	tag, err := postgres.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, entity, op)
	}
	if mustMatch && tag.RowsAffected() == 0 {
		return apperror.NewNotFound(entity, fmt.Sprint(key))
	}
	return nil
}

func page(q squirrel.SelectBuilder, limit, offset int) squirrel.SelectBuilder {
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}
	return q
}
