// Package tenant maps a tenant id to the PostgreSQL database holding that
// business's books: currencies, registers, ledger, stock, rounding policy.
// The meta database lists tenants; nothing else is shared between them.
package tenant

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle state kept in the meta database. Only active
// tenants are served.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
)

// Keys of Tenant.Settings.
const (
	SettingNegativeStockRule = "negative_stock_rule"
	SettingTimezone          = "timezone"
)

// Tenant is a row of the meta tenants table.
type Tenant struct {
	ID          string         `db:"id"`
	Slug        string         `db:"slug"`
	DisplayName string         `db:"display_name"`
	DBName      string         `db:"db_name"`
	DBHost      string         `db:"db_host"`
	DBPort      int            `db:"db_port"`
	Status      Status         `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	Settings    map[string]any `db:"settings"`
}

func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// Setting reads a string setting. Absent and non-string values read as "".
func (t *Tenant) Setting(key string) string {
	if t == nil || t.Settings == nil {
		return ""
	}
	if v, ok := t.Settings[key].(string); ok {
		return v
	}
	return ""
}

// DSN addresses the tenant database with the shared service credentials.
func (t *Tenant) DSN(user, password string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(t.DBHost, strconv.Itoa(t.DBPort)),
		Path:     "/" + t.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// CreateTenantInput is what cmd/tenant create needs to register a tenant.
type CreateTenantInput struct {
	Slug        string
	DisplayName string
	DBHost      string
	DBPort      int
}

// Validate normalizes the slug and checks required fields.
func (i *CreateTenantInput) Validate() error {
	i.Slug = strings.ToLower(strings.TrimSpace(i.Slug))
	switch {
	case i.Slug == "":
		return errors.New("slug is required")
	case len(i.Slug) > 60:
		return errors.New("slug must be 60 characters or less")
	case i.DisplayName == "":
		return errors.New("display name is required")
	}
	if i.DBHost == "" {
		i.DBHost = "localhost"
	}
	if i.DBPort == 0 {
		i.DBPort = 5432
	}
	return nil
}

// DBName derives the tenant database name from the slug.
func (i *CreateTenantInput) DBName() string {
	return "ledger_" + strings.ReplaceAll(i.Slug, "-", "_")
}
