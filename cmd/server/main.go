// Package main is the entry point for the ledger API server.
// Multi-tenant architecture: Database-per-Tenant.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hasapchy/back-sub001/internal/app"
	"github.com/hasapchy/back-sub001/internal/config"
	"github.com/hasapchy/back-sub001/internal/core/tenant"
	"github.com/hasapchy/back-sub001/internal/domain/auth"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
	v1 "github.com/hasapchy/back-sub001/internal/infrastructure/http/v1"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres/repos"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

const idempotencyTTL = 24 * time.Hour

func main() {
	configPath := flag.String("config", ".", "directory holding app.env")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	log.Info("starting ledger server (multi-tenant mode)")

	// --- Meta-database connection ---
	metaPool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.MetaDatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to meta database", "error", err)
	}
	defer metaPool.Close()
	log.Info("meta database connection established")

	// --- Tenant Registry and Manager ---
	registry := tenant.NewPostgresRegistry(metaPool)

	managerCfg := tenant.DefaultManagerConfig()
	managerCfg.DBUser = cfg.TenantDBUser
	managerCfg.DBPassword = cfg.TenantDBPassword
	if cfg.TenantMaxPools > 0 {
		managerCfg.MaxTotalPools = cfg.TenantMaxPools
	}
	if cfg.TenantMaxConnsPerPool > 0 {
		managerCfg.MaxConnsPerTenant = cfg.TenantMaxConnsPerPool
	}
	if cfg.TenantPoolIdleTimeout > 0 {
		managerCfg.PoolIdleTimeout = cfg.TenantPoolIdleTimeout
	}

	tenantManager := tenant.NewManager(managerCfg, registry, log)
	defer tenantManager.Close()

	log.Infow("tenant manager initialized",
		"max_pools", managerCfg.MaxTotalPools,
		"max_conns_per_tenant", managerCfg.MaxConnsPerTenant,
		"idle_timeout", managerCfg.PoolIdleTimeout,
	)

	// --- Services ---
	negative, err := stock.NewCELPolicy()
	if err != nil {
		log.Fatalw("failed to build negative stock policy", "error", err)
	}
	auditLog, err := postgres.NewAuditLog(cfg.AuditCompressThreshold)
	if err != nil {
		log.Fatalw("failed to build audit log", "error", err)
	}
	services := repos.Wire(auditLog, app.Options{NegativePolicy: negative})

	txOpts := postgres.DefaultTxOptions()
	txOpts.StatementTimeout = cfg.TxStatementTimeout

	var idempotency *postgres.IdempotencyStore
	if cfg.IdempotencyEnabled {
		idempotency = postgres.NewIdempotencyStore(idempotencyTTL)
	}

	// --- Router ---
	router, err := v1.NewRouter(v1.RouterConfig{
		TenantManager: tenantManager,
		MetaPool:      metaPool,
		Logger:        log,
		JWTValidator:  auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret, cfg.JWTIssuer)),
		Services:      services,
		TxOptions:     txOpts,
		Idempotency:   idempotency,
		AuditLog:      auditLog,
		Release:       !cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port, "idempotency", cfg.IdempotencyEnabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
