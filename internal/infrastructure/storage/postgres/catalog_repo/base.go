// Package catalog_repo provides PostgreSQL repositories for currencies,
// exchange rates, the rounding policy, products and warehouses.
// In Database-per-Tenant architecture the querier comes from context.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

// getOne runs q and scans a single row. A missing row is NotFound(entity, key)
// unless optional is set, in which case it yields nil.
func getOne[T any](ctx context.Context, q squirrel.SelectBuilder, entity string, key any, optional bool) (*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out T
	if err := pgxscan.Get(ctx, postgres.Conn(ctx), &out, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			if optional {
				return nil, nil
			}
			return nil, apperror.NewNotFound(entity, fmt.Sprint(key))
		}
		return nil, fmt.Errorf("get %s: %w", entity, err)
	}
	return &out, nil
}

func selectAll[T any](ctx context.Context, q squirrel.SelectBuilder, entity string) ([]*T, error) {
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

// insert writes every db column of v into table.
func insert(ctx context.Context, table, entity string, v any) error {
	sql, args, err := postgres.Builder().Insert(table).SetMap(postgres.StructToMap(v)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := postgres.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, entity, "insert")
	}
	return nil
}

func exec(ctx context.Context, q squirrel.Sqlizer, entity, op string) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", op, err)
	}
	tag, err := postgres.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, entity, op)
	}
	return tag.RowsAffected(), nil
}
