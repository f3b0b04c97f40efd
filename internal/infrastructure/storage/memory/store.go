// Package memory is an in-process storage backend. Every repository of the
// ledger lives in one Store whose transactions are serialized and roll back
// by restoring a snapshot. It backs the domain tests.
package memory

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/core/tx"
	"github.com/hasapchy/back-sub001/internal/domain/audit"
	"github.com/hasapchy/back-sub001/internal/domain/cashregister"
	"github.com/hasapchy/back-sub001/internal/domain/clientbalance"
	"github.com/hasapchy/back-sub001/internal/domain/currency"
	"github.com/hasapchy/back-sub001/internal/domain/events"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/rounding"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
	"github.com/hasapchy/back-sub001/internal/domain/transfer"
)

var _ tx.Manager = (*Store)(nil)

// state holds immutable values: repositories store copies and replace map
// entries instead of mutating them, so a snapshot is a shallow copy.
type state struct {
	currencies map[id.ID]*currency.Currency
	rates      []*currency.ExchangeRate
	policy     *rounding.Policy

	registers map[id.ID]*cashregister.Register
	entries   map[id.ID]*ledger.Entry
	clients   map[id.ID]*clientbalance.Balance

	products   map[id.ID]*stock.Product
	warehouses map[id.ID]*stock.Warehouse
	balances   map[stock.Key]*stock.Balance
	movements  []*stock.Movement

	transfers map[id.ID]*transfer.Transfer
	documents map[string]map[id.ID]any

	events []events.Event
	audit  []audit.Record
}

func newState() *state {
	return &state{
		currencies: make(map[id.ID]*currency.Currency),
		registers:  make(map[id.ID]*cashregister.Register),
		entries:    make(map[id.ID]*ledger.Entry),
		clients:    make(map[id.ID]*clientbalance.Balance),
		products:   make(map[id.ID]*stock.Product),
		warehouses: make(map[id.ID]*stock.Warehouse),
		balances:   make(map[stock.Key]*stock.Balance),
		transfers:  make(map[id.ID]*transfer.Transfer),
		documents:  make(map[string]map[id.ID]any),
	}
}

func (s *state) snapshot() *state {
	docs := make(map[string]map[id.ID]any, len(s.documents))
	for kind, m := range s.documents {
		docs[kind] = copyMap(m)
	}
	return &state{
		currencies: copyMap(s.currencies),
		rates:      append([]*currency.ExchangeRate(nil), s.rates...),
		policy:     s.policy,
		registers:  copyMap(s.registers),
		entries:    copyMap(s.entries),
		clients:    copyMap(s.clients),
		products:   copyMap(s.products),
		warehouses: copyMap(s.warehouses),
		balances:   copyMap(s.balances),
		movements:  append([]*stock.Movement(nil), s.movements...),
		transfers:  copyMap(s.transfers),
		documents:  docs,
		events:     append([]events.Event(nil), s.events...),
		audit:      append([]audit.Record(nil), s.audit...),
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store is the in-memory database of one tenant.
type Store struct {
	txMu sync.Mutex

	mu   sync.RWMutex
	data *state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

type txKey struct{}

// RunInTransaction implements tx.Manager. Transactions run one at a time;
// a failed one leaves the store as it found it. Nested calls join the
// outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snap := s.data.snapshot()
	s.mu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			s.restore(snap)
			panic(r)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}

func (s *Store) restore(snap *state) {
	s.mu.Lock()
	s.data = snap
	s.mu.Unlock()
}

func (s *Store) read(fn func(d *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(d *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

// Events returns the committed and in-flight events in publish order.
func (s *Store) Events() []events.Event {
	var out []events.Event
	s.read(func(d *state) { out = append(out, d.events...) })
	return out
}

// AuditRecords returns the recorded audit trail.
func (s *Store) AuditRecords() []audit.Record {
	var out []audit.Record
	s.read(func(d *state) { out = append(out, d.audit...) })
	return out
}

// Publisher writes events into the store, inside the caller's transaction.
type Publisher struct{ s *Store }

func NewPublisher(s *Store) *Publisher { return &Publisher{s: s} }

func (p *Publisher) Publish(_ context.Context, e events.Event) error {
	p.s.write(func(d *state) { d.events = append(d.events, e) })
	return nil
}

// AuditRecorder keeps audit records in the store.
type AuditRecorder struct{ s *Store }

func NewAuditRecorder(s *Store) *AuditRecorder { return &AuditRecorder{s: s} }

func (a *AuditRecorder) Record(_ context.Context, rec audit.Record) error {
	a.s.write(func(d *state) { d.audit = append(d.audit, rec) })
	return nil
}

// Sequences emulates the sys_sequences upsert for numerator.New. Numbers
// are drawn outside business transactions, so counters never roll back.
type Sequences struct {
	mu   sync.Mutex
	vals map[string]int64
}

func NewSequences() *Sequences { return &Sequences{vals: make(map[string]int64)} }

// QueryRow adds args[1] to the counter named args[0] and returns the result.
func (q *Sequences) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	key, _ := args[0].(string)
	n, _ := args[1].(int64)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.vals[key] += n
	return row{val: q.vals[key]}
}

type row struct{ val int64 }

func (r row) Scan(dest ...any) error {
	if p, ok := dest[0].(*int64); ok {
		*p = r.val
	}
	return nil
}

var (
	_ events.Publisher = (*Publisher)(nil)
	_ audit.Recorder   = (*AuditRecorder)(nil)
)
