// Package main seeds a tenant database with demo reference data through the
// domain services and prints a development access token for it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/app"
	"github.com/hasapchy/back-sub001/internal/config"
	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/core/tenant"
	"github.com/hasapchy/back-sub001/internal/domain/auth"
	"github.com/hasapchy/back-sub001/internal/domain/currency"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres/repos"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

func main() {
	tenantID := flag.String("tenant", "", "tenant id to seed")
	userID := flag.String("user", "seed-admin", "user id of the printed token")
	flag.Parse()

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if *tenantID == "" || cfg.MetaDatabaseURL == "" {
		log.Fatal("--tenant and META_DATABASE_URL are required")
	}

	ctx := context.Background()

	metaPool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.MetaDatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to meta database", "error", err)
	}
	defer metaPool.Close()

	managerCfg := tenant.DefaultManagerConfig()
	managerCfg.DBUser = cfg.TenantDBUser
	managerCfg.DBPassword = cfg.TenantDBPassword
	manager := tenant.NewManager(managerCfg, tenant.NewPostgresRegistry(metaPool), log)
	defer manager.Close()

	mp, err := manager.GetPool(ctx, *tenantID)
	if err != nil {
		log.Fatalw("failed to open tenant database", "tenant_id", *tenantID, "error", err)
	}

	admin := &appctx.UserContext{UserID: *userID, TenantID: *tenantID, IsAdmin: true}
	ctx = tenant.WithTenant(ctx, mp.Tenant())
	ctx = tenant.WithPool(ctx, mp.Pool())
	ctx = tenant.WithTxManager(ctx, postgres.NewTxManager(mp.Pool(), postgres.DefaultTxOptions()))
	ctx = appctx.WithUser(ctx, admin)
	ctx = logger.WithLogger(ctx, log)
	ctx = logger.WithFields(ctx, "tenant_id", *tenantID)

	auditLog, err := postgres.NewAuditLog(cfg.AuditCompressThreshold)
	if err != nil {
		log.Fatalw("failed to build audit log", "error", err)
	}
	services := repos.Wire(auditLog, app.Options{NegativePolicy: stock.NeverNegative{}})

	if err := seed(ctx, services, *userID); err != nil {
		log.Fatalw("seeding failed", "error", err)
	}

	token, expires, err := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret, cfg.JWTIssuer)).GenerateAccessToken(*admin)
	if err != nil {
		log.Fatalw("failed to sign token", "error", err)
	}

	log.Info("seeding completed successfully")
	fmt.Printf("\nAccess token (expires %s):\n%s\n", expires.Format(time.RFC3339), token)
}

func seed(ctx context.Context, s *app.Services, userID string) error {
	existing, err := s.Currencies.List(ctx)
	if err != nil {
		return fmt.Errorf("list currencies: %w", err)
	}
	if len(existing) > 0 {
		logger.Info(ctx, "tenant already has currencies, skipping", "count", len(existing))
		return nil
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	usd, err := s.Currencies.Create(ctx, currency.CreateInput{
		Code: "USD", Name: "US Dollar", Symbol: "$", IsDefault: true, EffectiveDate: today,
	})
	if err != nil {
		return fmt.Errorf("create USD: %w", err)
	}
	eur, err := s.Currencies.Create(ctx, currency.CreateInput{
		Code: "EUR", Name: "Euro", Symbol: "€",
		Rate: decimal.RequireFromString("1.08"), EffectiveDate: today,
	})
	if err != nil {
		return fmt.Errorf("create EUR: %w", err)
	}
	logger.Info(ctx, "currencies created", "default", usd.Code, "other", eur.Code)

	mainCash, err := s.Registers.Create(ctx, "Main cash", usd.ID, []string{userID})
	if err != nil {
		return fmt.Errorf("create register: %w", err)
	}
	euro, err := s.Registers.Create(ctx, "Euro cash", eur.ID, []string{userID})
	if err != nil {
		return fmt.Errorf("create register: %w", err)
	}
	logger.Info(ctx, "cash registers created", "main", mainCash.ID, "euro", euro.ID)

	wh, err := s.Stock.CreateWarehouse(ctx, "Main warehouse")
	if err != nil {
		return fmt.Errorf("create warehouse: %w", err)
	}

	products := []struct {
		name    string
		tracked bool
		opening string
	}{
		{"Coffee beans 1kg", true, "40"},
		{"Paper cups", true, "500"},
		{"Delivery", false, ""},
	}
	for _, p := range products {
		product, err := s.Stock.CreateProduct(ctx, p.name, p.tracked)
		if err != nil {
			return fmt.Errorf("create product %q: %w", p.name, err)
		}
		if p.opening == "" {
			continue
		}
		if _, err := s.Stock.AdjustStock(ctx, wh.ID, product.ID, decimal.RequireFromString(p.opening), "opening balance"); err != nil {
			return fmt.Errorf("opening stock for %q: %w", p.name, err)
		}
	}
	logger.Info(ctx, "warehouse stocked", "warehouse", wh.ID, "products", len(products))
	return nil
}
