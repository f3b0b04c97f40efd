package main

import (
	"context"
	"sync"
	"time"

	"github.com/hasapchy/back-sub001/internal/core/tenant"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

// WorkerConfig tunes the relay loop of every tenant.
type WorkerConfig struct {
	BatchSize       int
	PollInterval    time.Duration
	RefreshInterval time.Duration
	CleanupInterval time.Duration
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Hour
	}
	return c
}

// MultiTenantWorker runs one outbox relay per active tenant.
type MultiTenantWorker struct {
	manager *tenant.Manager
	log     *logger.Logger
	cfg     WorkerConfig
	handler postgres.OutboxHandler
}

func NewMultiTenantWorker(manager *tenant.Manager, log *logger.Logger, cfg WorkerConfig) *MultiTenantWorker {
	return &MultiTenantWorker{
		manager: manager,
		log:     log.WithComponent("worker"),
		cfg:     cfg.withDefaults(),
		handler: postgres.OutboxHandlerFunc(logEvent),
	}
}

// logEvent is the delivery target of the relay. Events are written to the
// structured log with their tenant.
func logEvent(ctx context.Context, msg *postgres.OutboxMessage) error {
	logger.Info(ctx, "ledger event",
		"event_id", msg.ID,
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
		"payload", string(msg.Payload),
	)
	return nil
}

// Run starts relays for all active tenants and keeps the set current until
// ctx is cancelled.
func (w *MultiTenantWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.RefreshInterval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	running := make(map[string]context.CancelFunc) // tenant_id -> cancel

	w.refreshTenants(ctx, &wg, running)

	for {
		select {
		case <-ctx.Done():
			for _, cancel := range running {
				cancel()
			}
			wg.Wait()
			return

		case <-ticker.C:
			w.refreshTenants(ctx, &wg, running)
		}
	}
}

// refreshTenants is only called from Run, so running needs no lock.
func (w *MultiTenantWorker) refreshTenants(ctx context.Context, wg *sync.WaitGroup, running map[string]context.CancelFunc) {
	tenants, err := w.manager.ActiveTenants(ctx)
	if err != nil {
		w.log.Errorw("failed to get active tenants", "error", err)
		return
	}

	active := make(map[string]*tenant.Tenant, len(tenants))
	for _, t := range tenants {
		active[t.ID] = t
	}

	for tenantID, cancel := range running {
		if _, ok := active[tenantID]; !ok {
			cancel()
			delete(running, tenantID)
			w.log.Infow("stopped relay for inactive tenant", "tenant_id", tenantID)
		}
	}

	for _, t := range tenants {
		if _, ok := running[t.ID]; ok {
			continue
		}
		tenantCtx, tenantCancel := context.WithCancel(ctx)
		running[t.ID] = tenantCancel

		wg.Add(1)
		go func(t *tenant.Tenant) {
			defer wg.Done()
			w.runTenant(tenantCtx, t)
		}(t)

		w.log.Infow("started relay for tenant", "tenant_id", t.ID)
	}
}

func (w *MultiTenantWorker) runTenant(ctx context.Context, t *tenant.Tenant) {
	mp, err := w.manager.GetPool(ctx, t.ID)
	if err != nil {
		w.log.Errorw("failed to get pool for tenant", "tenant_id", t.ID, "error", err)
		return
	}
	mp.AcquireRef()
	defer mp.ReleaseRef()

	txm := postgres.NewTxManager(mp.Pool(), postgres.DefaultTxOptions())
	ctx = tenant.WithTenant(ctx, t)
	ctx = tenant.WithPool(ctx, mp.Pool())
	ctx = tenant.WithTxManager(ctx, txm)
	ctx = logger.WithLogger(ctx, w.log)
	ctx = logger.WithFields(ctx, "tenant_id", t.ID)

	relay := postgres.NewOutboxRelay(txm, w.cfg.BatchSize, w.handler)
	idempotency := postgres.NewIdempotencyStore(0)

	poll := time.NewTicker(w.cfg.PollInterval)
	defer poll.Stop()
	cleanup := time.NewTicker(w.cfg.CleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Infow("stopping relay for tenant", "tenant_id", t.ID)
			return
		case <-poll.C:
			w.drain(ctx, relay)
		case <-cleanup.C:
			w.cleanup(ctx, relay, idempotency)
			postgres.LogPoolStats(ctx, "tenant", mp.Pool())
		}
	}
}

// drain processes batches until the outbox has nothing due.
func (w *MultiTenantWorker) drain(ctx context.Context, relay *postgres.OutboxRelay) {
	for ctx.Err() == nil {
		n, err := relay.ProcessBatch(ctx)
		if err != nil {
			logger.Error(ctx, "outbox batch failed", "error", err)
			return
		}
		if n < w.cfg.BatchSize {
			return
		}
	}
}

func (w *MultiTenantWorker) cleanup(ctx context.Context, relay *postgres.OutboxRelay, idempotency *postgres.IdempotencyStore) {
	if moved, err := relay.MoveToDLQ(ctx); err != nil {
		logger.Error(ctx, "move to dlq failed", "error", err)
	} else if moved > 0 {
		logger.Warn(ctx, "outbox messages moved to dlq", "count", moved)
	}

	if removed, err := idempotency.CleanupExpired(ctx); err != nil {
		logger.Error(ctx, "idempotency cleanup failed", "error", err)
	} else if removed > 0 {
		logger.Info(ctx, "cleaned up idempotency keys", "count", removed)
	}
}
