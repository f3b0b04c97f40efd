package posting

//go:generate mockgen -source observer.go -destination observer_mock.go -package posting

import (
	"context"
	"sync"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
)

// Touched lists the balances a committed operation changed.
type Touched struct {
	Registers []id.ID
	Clients   []id.ID
	Stock     []stock.Key
}

// Empty reports whether nothing was touched.
func (t Touched) Empty() bool {
	return len(t.Registers) == 0 && len(t.Clients) == 0 && len(t.Stock) == 0
}

// Observer is notified after commit. It is the hook for cache invalidation
// and must not fail the operation.
type Observer interface {
	BalancesChanged(ctx context.Context, touched Touched)
}

// NopObserver ignores notifications.
type NopObserver struct{}

func (NopObserver) BalancesChanged(context.Context, Touched) {}

type collectorKey struct{}

type collector struct {
	mu        sync.Mutex
	registers map[id.ID]struct{}
	clients   map[id.ID]struct{}
	stock     map[stock.Key]struct{}
}

func newCollector() *collector {
	return &collector{
		registers: make(map[id.ID]struct{}),
		clients:   make(map[id.ID]struct{}),
		stock:     make(map[stock.Key]struct{}),
	}
}

func collectorFrom(ctx context.Context) *collector {
	c, _ := ctx.Value(collectorKey{}).(*collector)
	return c
}

// TouchRegisters marks registers as changed by the running operation.
// It is a no-op outside Engine.Run.
func TouchRegisters(ctx context.Context, ids ...id.ID) {
	if c := collectorFrom(ctx); c != nil {
		c.mu.Lock()
		for _, v := range ids {
			c.registers[v] = struct{}{}
		}
		c.mu.Unlock()
	}
}

// TouchClients marks client balances as changed.
func TouchClients(ctx context.Context, ids ...id.ID) {
	if c := collectorFrom(ctx); c != nil {
		c.mu.Lock()
		for _, v := range ids {
			c.clients[v] = struct{}{}
		}
		c.mu.Unlock()
	}
}

// TouchStock marks stock keys as changed.
func TouchStock(ctx context.Context, keys ...stock.Key) {
	if c := collectorFrom(ctx); c != nil {
		c.mu.Lock()
		for _, k := range keys {
			c.stock[k] = struct{}{}
		}
		c.mu.Unlock()
	}
}

func (c *collector) touched() Touched {
	c.mu.Lock()
	defer c.mu.Unlock()

	var t Touched
	for v := range c.registers {
		t.Registers = append(t.Registers, v)
	}
	for v := range c.clients {
		t.Clients = append(t.Clients, v)
	}
	for k := range c.stock {
		t.Stock = append(t.Stock, k)
	}
	t.Registers = id.SortUnique(t.Registers)
	t.Clients = id.SortUnique(t.Clients)
	sortKeys(t.Stock)
	return t
}
