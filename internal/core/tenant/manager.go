package tenant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/hasapchy/back-sub001/pkg/logger"
)

// ManagerConfig sizes the per-tenant ledger pools.
type ManagerConfig struct {
	DBUser     string
	DBPassword string

	MaxConnsPerTenant int32
	MinConnsPerTenant int32
	ConnectTimeout    time.Duration

	// MaxTotalPools caps open tenant pools. 0 means no cap.
	MaxTotalPools int
	// PoolIdleTimeout closes pools nobody used for this long. 0 keeps them.
	PoolIdleTimeout   time.Duration
	HealthCheckPeriod time.Duration
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MaxConnsPerTenant: 10,
		MinConnsPerTenant: 1,
		ConnectTimeout:    10 * time.Second,
		MaxTotalPools:     100,
		PoolIdleTimeout:   30 * time.Minute,
		HealthCheckPeriod: time.Minute,
	}
}

// ManagedPool is an open tenant pool. A pool with in-flight references is
// never evicted.
type ManagedPool struct {
	pool     *pgxpool.Pool
	tenant   *Tenant
	lastUsed atomic.Int64
	inFlight atomic.Int32
}

func (mp *ManagedPool) Pool() *pgxpool.Pool { return mp.pool }
func (mp *ManagedPool) Tenant() *Tenant     { return mp.tenant }

func (mp *ManagedPool) AcquireRef() { mp.inFlight.Add(1); mp.touch() }
func (mp *ManagedPool) ReleaseRef() { mp.inFlight.Add(-1) }

func (mp *ManagedPool) touch() { mp.lastUsed.Store(time.Now().UnixNano()) }

func (mp *ManagedPool) idleSince(t time.Time) bool {
	return mp.inFlight.Load() == 0 && mp.lastUsed.Load() < t.UnixNano()
}

// Manager opens one pool per tenant database on first use and closes idle or
// broken ones in the background.
type Manager struct {
	config   ManagerConfig
	registry Registry
	log      *logger.Logger

	mu    sync.RWMutex
	pools map[string]*ManagedPool
	open  singleflight.Group

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewManager(cfg ManagerConfig, registry Registry, log *logger.Logger) *Manager {
	m := &Manager{
		config:   cfg,
		registry: registry,
		log:      log.WithComponent("tenant-manager"),
		pools:    make(map[string]*ManagedPool),
		stop:     make(chan struct{}),
	}

	if cfg.PoolIdleTimeout > 0 {
		m.every(cfg.PoolIdleTimeout/2, m.evictIdle)
	}
	if cfg.HealthCheckPeriod > 0 {
		m.every(cfg.HealthCheckPeriod, m.pingAll)
	}

	m.log.Infow("tenant manager started",
		"max_pools", cfg.MaxTotalPools,
		"idle_timeout", cfg.PoolIdleTimeout,
	)
	return m
}

// GetPool returns the tenant's pool. Concurrent first calls for one tenant
// share a single connect.
func (m *Manager) GetPool(ctx context.Context, tenantID string) (*ManagedPool, error) {
	if mp := m.lookup(tenantID); mp != nil {
		mp.touch()
		return mp, nil
	}

	v, err, _ := m.open.Do(tenantID, func() (any, error) {
		if mp := m.lookup(tenantID); mp != nil {
			return mp, nil
		}
		return m.connect(ctx, tenantID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ManagedPool), nil
}

func (m *Manager) lookup(tenantID string) *ManagedPool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pools[tenantID]
}

func (m *Manager) connect(ctx context.Context, tenantID string) (*ManagedPool, error) {
	m.mu.RLock()
	full := m.config.MaxTotalPools > 0 && len(m.pools) >= m.config.MaxTotalPools
	m.mu.RUnlock()
	if full {
		return nil, fmt.Errorf("%w (%d)", ErrMaxPoolLimit, m.config.MaxTotalPools)
	}

	t, err := m.registry.GetByID(ctx, tenantID)
	switch {
	case errors.Is(err, ErrTenantNotFound):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("look up tenant %s: %w", tenantID, err)
	case !t.IsActive():
		return nil, fmt.Errorf("%w: status=%s", ErrTenantNotActive, t.Status)
	}

	cfg, err := pgxpool.ParseConfig(t.DSN(m.config.DBUser, m.config.DBPassword))
	if err != nil {
		return nil, fmt.Errorf("parse dsn of tenant %s: %w", tenantID, err)
	}
	cfg.MaxConns = m.config.MaxConnsPerTenant
	cfg.MinConns = m.config.MinConnsPerTenant
	cfg.ConnConfig.ConnectTimeout = m.config.ConnectTimeout

	dialCtx, cancel := context.WithTimeout(ctx, m.config.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(dialCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool of tenant %s: %w", tenantID, err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping ledger database of tenant %s: %w", tenantID, err)
	}

	mp := &ManagedPool{pool: pool, tenant: t}
	mp.touch()

	m.mu.Lock()
	m.pools[tenantID] = mp
	total := len(m.pools)
	m.mu.Unlock()

	m.log.Infow("opened tenant pool", "tenant_id", tenantID, "db_name", t.DBName, "total_pools", total)
	return mp, nil
}

func (m *Manager) every(period time.Duration, fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// snapshot copies the pool map so slow work runs without the lock.
func (m *Manager) snapshot() map[string]*ManagedPool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*ManagedPool, len(m.pools))
	for id, mp := range m.pools {
		out[id] = mp
	}
	return out
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.config.PoolIdleTimeout)
	for id, mp := range m.snapshot() {
		if mp.idleSince(cutoff) {
			m.drop(id, mp, "idle")
		}
	}
}

func (m *Manager) pingAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for id, mp := range m.snapshot() {
		err := mp.pool.Ping(ctx)
		if err == nil {
			continue
		}
		m.log.Warnw("tenant pool ping failed", "tenant_id", id, "error", err)
		// busy pools are retried on the next tick
		if mp.inFlight.Load() == 0 {
			m.drop(id, mp, "ping failed")
		}
	}
}

func (m *Manager) drop(tenantID string, mp *ManagedPool, reason string) {
	m.mu.Lock()
	if m.pools[tenantID] != mp {
		m.mu.Unlock()
		return
	}
	delete(m.pools, tenantID)
	total := len(m.pools)
	m.mu.Unlock()

	mp.pool.Close()
	m.log.Infow("closed tenant pool", "tenant_id", tenantID, "reason", reason, "total_pools", total)
}

// Close stops the background loops and closes every pool.
func (m *Manager) Close() {
	close(m.stop)
	m.wg.Wait()

	m.mu.Lock()
	pools := m.pools
	m.pools = make(map[string]*ManagedPool)
	m.mu.Unlock()

	for _, mp := range pools {
		mp.pool.Close()
	}
	m.log.Infow("tenant manager closed", "pools_closed", len(pools))
}

// ActiveTenants lists the tenants the worker should serve.
func (m *Manager) ActiveTenants(ctx context.Context) ([]*Tenant, error) {
	return m.registry.ListActive(ctx)
}
