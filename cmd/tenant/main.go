// Package main provides the CLI for tenant management.
//
//	tenant create --slug acme --name "ACME Corp"
//	tenant list
//	tenant migrate --all
//	tenant suspend <tenant-id>
//	tenant set-rule <tenant-id> 'operation == "write_off" && resulting >= -5.0'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hasapchy/back-sub001/internal/config"
	"github.com/hasapchy/back-sub001/internal/core/tenant"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

const migrationsDir = "db/migrations"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(".")
	if err != nil {
		fail("load config: %v", err)
	}
	if cfg.MetaDatabaseURL == "" {
		fail("META_DATABASE_URL is required")
	}

	ctx := context.Background()
	args := os.Args[2:]

	switch os.Args[1] {
	case "create":
		createTenant(ctx, cfg, args)
	case "list":
		listTenants(ctx, cfg)
	case "migrate":
		migrateTenants(ctx, cfg, args)
	case "suspend":
		setStatus(ctx, cfg, args, tenant.StatusSuspended)
	case "activate":
		setStatus(ctx, cfg, args, tenant.StatusActive)
	case "set-rule":
		setNegativeStockRule(ctx, cfg, args)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Tenant Management CLI

Usage:
  tenant <command> [options]

Commands:
  create    Create a tenant database, migrate it and register it
  list      List active tenants
  migrate   Run goose migrations for tenant(s)
  suspend   Suspend a tenant
  activate  Activate a suspended tenant
  set-rule  Set or clear the negative stock rule of a tenant
  help      Show this help

Environment Variables:
  META_DATABASE_URL    Connection string for meta database (required)
  TENANT_DB_USER       Username for tenant databases
  TENANT_DB_PASSWORD   Password for tenant databases
  POSTGRES_ADMIN_URL   Admin connection for creating databases

Examples:
  tenant create --slug acme --name "ACME Corporation"
  tenant migrate --all
  tenant migrate --id <tenant-uuid>
  tenant set-rule <tenant-uuid> 'operation == "write_off"'
  tenant set-rule <tenant-uuid> ''`)
}

func fail(format string, args ...any) {
	fmt.Printf("Error: "+format+"\n", args...)
	os.Exit(1)
}

func openRegistry(ctx context.Context, cfg config.Config) (*tenant.PostgresRegistry, func()) {
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.MetaDatabaseURL))
	if err != nil {
		fail("connect to meta database: %v", err)
	}
	return tenant.NewPostgresRegistry(pool), pool.Close
}

func createTenant(ctx context.Context, cfg config.Config, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	slug := fs.String("slug", "", "tenant slug")
	name := fs.String("name", "", "display name")
	host := fs.String("host", "localhost", "database host")
	port := fs.Int("port", 5432, "database port")
	_ = fs.Parse(args)

	if *slug == "" || *name == "" {
		fail("--slug and --name are required")
	}

	registry, closeFn := openRegistry(ctx, cfg)
	defer closeFn()

	t := &tenant.Tenant{
		Slug:        *slug,
		DisplayName: *name,
		DBName:      "ledger_" + strings.ToLower(*slug),
		DBHost:      *host,
		DBPort:      *port,
		Status:      tenant.StatusActive,
	}

	fmt.Printf("Creating tenant '%s'...\n", t.Slug)

	if adminDSN := os.Getenv("POSTGRES_ADMIN_URL"); adminDSN != "" {
		fmt.Printf("  Creating database %s...\n", t.DBName)
		if err := createDatabase(ctx, adminDSN, t.DBName); err != nil {
			fmt.Printf("  Warning: %v\n", err)
			fmt.Println("  You may need to create the database manually.")
		}
	}

	if cfg.TenantDBUser != "" {
		fmt.Println("  Running migrations...")
		if err := migrate(t.DSN(cfg.TenantDBUser, cfg.TenantDBPassword)); err != nil {
			fmt.Printf("  Warning: migrations failed: %v\n", err)
		}
	}

	if err := registry.Create(ctx, t); err != nil {
		fail("register tenant: %v", err)
	}

	fmt.Printf("\nTenant '%s' created\n", t.Slug)
	fmt.Printf("  Tenant ID: %s\n", t.ID)
	fmt.Printf("  Database: %s\n", t.DBName)
}

func createDatabase(ctx context.Context, adminDSN, dbName string) error {
	pool, err := pgxpool.New(ctx, adminDSN)
	if err != nil {
		return fmt.Errorf("connect as admin: %w", err)
	}
	defer pool.Close()

	// database names cannot be bound as parameters
	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %q", dbName)); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			fmt.Println("  Database already exists")
			return nil
		}
		return fmt.Errorf("create database: %w", err)
	}
	fmt.Println("  Database created")
	return nil
}

func migrate(dsn string) error {
	cmd := exec.Command("goose", "-dir", migrationsDir, "postgres", dsn, "up")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func listTenants(ctx context.Context, cfg config.Config) {
	registry, closeFn := openRegistry(ctx, cfg)
	defer closeFn()

	tenants, err := registry.ListActive(ctx)
	if err != nil {
		fail("list tenants: %v", err)
	}
	if len(tenants) == 0 {
		fmt.Println("No tenants found")
		return
	}

	fmt.Printf("%-36s %-20s %-30s %-20s %-10s\n", "TENANT_ID", "SLUG", "NAME", "DATABASE", "STATUS")
	fmt.Println(strings.Repeat("-", 120))
	for _, t := range tenants {
		fmt.Printf("%-36s %-20s %-30s %-20s %-10s\n",
			t.ID,
			truncate(t.Slug, 20),
			truncate(t.DisplayName, 30),
			truncate(t.DBName, 20),
			t.Status,
		)
		if rule := t.Setting(tenant.SettingNegativeStockRule); rule != "" {
			fmt.Printf("    negative stock rule: %s\n", rule)
		}
	}
}

func migrateTenants(ctx context.Context, cfg config.Config, args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	targetID := fs.String("id", "", "tenant id")
	all := fs.Bool("all", false, "migrate every active tenant")
	_ = fs.Parse(args)

	if !*all && *targetID == "" {
		fail("specify --id <tenant-uuid> or --all")
	}
	if cfg.TenantDBUser == "" {
		fail("TENANT_DB_USER is required")
	}

	registry, closeFn := openRegistry(ctx, cfg)
	defer closeFn()

	var tenants []*tenant.Tenant
	if *all {
		list, err := registry.ListActive(ctx)
		if err != nil {
			fail("list tenants: %v", err)
		}
		tenants = list
	} else {
		t, err := registry.GetByID(ctx, *targetID)
		if err != nil {
			fail("tenant '%s': %v", *targetID, err)
		}
		tenants = []*tenant.Tenant{t}
	}

	failed := 0
	for _, t := range tenants {
		fmt.Printf("Migrating %s (%s)...\n", t.Slug, t.DBName)
		if err := migrate(t.DSN(cfg.TenantDBUser, cfg.TenantDBPassword)); err != nil {
			fmt.Printf("  Failed: %v\n", err)
			failed++
			continue
		}
		fmt.Println("  Done")
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func setStatus(ctx context.Context, cfg config.Config, args []string, status tenant.Status) {
	if len(args) < 1 {
		fail("usage: tenant %s <tenant-uuid>", os.Args[1])
	}

	registry, closeFn := openRegistry(ctx, cfg)
	defer closeFn()

	if err := registry.UpdateStatus(ctx, args[0], status); err != nil {
		fail("%v", err)
	}
	fmt.Printf("Tenant '%s' is now %s\n", args[0], status)
}

// setNegativeStockRule compiles the expression before storing it so a tenant
// never carries a rule the stock service would reject at posting time.
func setNegativeStockRule(ctx context.Context, cfg config.Config, args []string) {
	if len(args) < 2 {
		fail("usage: tenant set-rule <tenant-uuid> <expression>")
	}
	tenantID, expr := args[0], strings.TrimSpace(args[1])

	if expr != "" {
		policy, err := stock.NewCELPolicy()
		if err != nil {
			fail("%v", err)
		}
		if _, err := policy.Compile(expr); err != nil {
			fail("%v", err)
		}
	}

	registry, closeFn := openRegistry(ctx, cfg)
	defer closeFn()

	if err := registry.UpdateSetting(ctx, tenantID, tenant.SettingNegativeStockRule, expr); err != nil {
		fail("%v", err)
	}
	if expr == "" {
		fmt.Printf("Negative stock rule of '%s' cleared\n", tenantID)
		return
	}
	fmt.Printf("Negative stock rule of '%s' set\n", tenantID)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
