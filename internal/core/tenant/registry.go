package tenant

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Registry provides access to tenant metadata stored in the meta-database.
type Registry interface {
	GetByID(ctx context.Context, tenantID string) (*Tenant, error)
	ListActive(ctx context.Context) ([]*Tenant, error)
	// Create inserts a new tenant row and populates t.ID.
	Create(ctx context.Context, t *Tenant) error
	UpdateStatus(ctx context.Context, tenantID string, status Status) error
}

// PostgresRegistry implements Registry on the meta-database.
type PostgresRegistry struct {
	pool    *pgxpool.Pool
	builder sq.StatementBuilderType
}

func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{
		pool:    pool,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresRegistry) baseSelect() sq.SelectBuilder {
	return r.builder.
		Select("id", "slug", "display_name", "db_name", "db_host", "db_port",
			"status", "created_at", "updated_at", "settings").
		From("tenants")
}

func (r *PostgresRegistry) GetByID(ctx context.Context, tenantID string) (*Tenant, error) {
	query, args, err := r.baseSelect().Where(sq.Eq{"id": tenantID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t Tenant
	if err := pgxscan.Get(ctx, r.pool, &t, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant by id: %w", err)
	}
	return &t, nil
}

func (r *PostgresRegistry) ListActive(ctx context.Context) ([]*Tenant, error) {
	query, args, err := r.baseSelect().
		Where(sq.Eq{"status": StatusActive}).
		OrderBy("slug").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tenants []*Tenant
	if err := pgxscan.Select(ctx, r.pool, &tenants, query, args...); err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	return tenants, nil
}

func (r *PostgresRegistry) Create(ctx context.Context, t *Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is nil")
	}
	if t.Status == "" {
		t.Status = StatusActive
	}
	if t.Settings == nil {
		t.Settings = map[string]any{}
	}

	query, args, err := r.builder.
		Insert("tenants").
		Columns("slug", "display_name", "db_name", "db_host", "db_port", "status", "settings").
		Values(t.Slug, t.DisplayName, t.DBName, t.DBHost, t.DBPort, t.Status, t.Settings).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&t.ID); err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) UpdateStatus(ctx context.Context, tenantID string, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET status = $2, updated_at = NOW() WHERE id = $1`,
		tenantID, status)
	if err != nil {
		return fmt.Errorf("update tenant status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// UpdateSetting stores one key of the tenant settings document. An empty
// value removes the key.
func (r *PostgresRegistry) UpdateSetting(ctx context.Context, tenantID, key, value string) error {
	builder := r.builder.Update("tenants").Set("updated_at", sq.Expr("NOW()")).Where(sq.Eq{"id": tenantID})
	if value == "" {
		builder = builder.Set("settings", sq.Expr("settings - ?", key))
	} else {
		builder = builder.Set("settings", sq.Expr("jsonb_set(settings, ARRAY[?]::text[], to_jsonb(?::text))", key, value))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update tenant setting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

var _ Registry = (*PostgresRegistry)(nil)
