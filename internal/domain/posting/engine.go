// Package posting applies and reverts the balance effects of source
// documents: stock movements, the derived ledger entry with its register
// effect, and the client balance delta.
//
// Updates are always revert-then-apply inside one unit of work, so an
// aggregate's effects on every balance equal exactly what its current
// content implies.
package posting

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/core/tenant"
	"github.com/hasapchy/back-sub001/internal/core/tx"
	"github.com/hasapchy/back-sub001/internal/domain/audit"
	"github.com/hasapchy/back-sub001/internal/domain/cashregister"
	"github.com/hasapchy/back-sub001/internal/domain/clientbalance"
	"github.com/hasapchy/back-sub001/internal/domain/events"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/pricing"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
)

var tracer = otel.Tracer("ledger/posting")

// Deps wires the engine.
type Deps struct {
	Ledger    *ledger.Service
	Registers *cashregister.Service
	Clients   *clientbalance.Service
	Stock     *stock.Service
	Pricing   *pricing.Service
	Events    events.Publisher
	Audit     audit.Recorder
	Observer  Observer
	TxManager tx.Manager
}

// Engine is shared by every aggregate service.
type Engine struct {
	ledger    *ledger.Service
	registers *cashregister.Service
	clients   *clientbalance.Service
	stock     *stock.Service
	pricing   *pricing.Service
	events    events.Publisher
	audit     audit.Recorder
	observer  Observer
	txManager tx.Manager
}

func NewEngine(d Deps) *Engine {
	e := &Engine{
		ledger:    d.Ledger,
		registers: d.Registers,
		clients:   d.Clients,
		stock:     d.Stock,
		pricing:   d.Pricing,
		events:    d.Events,
		audit:     d.Audit,
		observer:  d.Observer,
		txManager: d.TxManager,
	}
	if e.events == nil {
		e.events = events.Nop{}
	}
	if e.audit == nil {
		e.audit = audit.Nop{}
	}
	if e.observer == nil {
		e.observer = NopObserver{}
	}
	return e
}

// Operation describes the aggregate change being run. fn may fill Payload
// and Changes once ids are known.
type Operation struct {
	AggregateType string
	AggregateID   id.ID
	Event         string
	Action        audit.Action
	Payload       any
	Changes       map[string]any
}

// Run executes fn in one unit of work with a pricer bound to the tenant
// rounding policy. The event and the audit record are written in the same
// transaction. The observer hears about touched balances after commit.
func (e *Engine) Run(ctx context.Context, op *Operation, fn func(ctx context.Context, pr *pricing.Pricer) error) error {
	ctx, span := tracer.Start(ctx, "posting."+op.AggregateType,
		trace.WithAttributes(
			attribute.String("aggregate.type", op.AggregateType),
			attribute.String("event", op.Event),
		))
	defer span.End()

	outer := collectorFrom(ctx) == nil
	col := collectorFrom(ctx)
	if outer {
		col = newCollector()
		ctx = context.WithValue(ctx, collectorKey{}, col)
	}

	err := tenant.RunInTx(ctx, e.txManager, func(ctx context.Context) error {
		pr, err := e.pricing.Begin(ctx)
		if err != nil {
			return err
		}
		if err := fn(ctx, pr); err != nil {
			return err
		}

		if op.Event != "" {
			if err := e.events.Publish(ctx, events.Event{
				AggregateType: op.AggregateType,
				AggregateID:   op.AggregateID,
				Type:          op.Event,
				Payload:       op.Payload,
			}); err != nil {
				return fmt.Errorf("publish %s: %w", op.Event, err)
			}
		}
		if op.Action != "" {
			if err := e.audit.Record(ctx, audit.Record{
				EntityType: op.AggregateType,
				EntityID:   op.AggregateID,
				Action:     op.Action,
				Changes:    op.Changes,
			}); err != nil {
				return fmt.Errorf("record audit: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("aggregate.id", op.AggregateID.String()))
	if outer {
		if t := col.touched(); !t.Empty() {
			e.observer.BalancesChanged(ctx, t)
		}
	}
	return nil
}

// ClientEffect moves a client balance by the entry amount times Sign.
type ClientEffect struct {
	ClientID id.ID
	Sign     int64
}

// Plan is everything an aggregate's current content implies.
type Plan struct {
	Recorder stock.Recorder
	Stock    []stock.Adjustment
	Entry    *ledger.Draft
	Client   *ClientEffect
}

// Posted is what Apply did; aggregates persist it to revert later.
type Posted struct {
	EntryID     *id.ID
	Amount      decimal.Decimal
	ClientID    *id.ID
	ClientDelta decimal.Decimal
}

// Prior is the effect an aggregate currently has.
type Prior struct {
	Recorder    stock.Recorder
	EntryID     *id.ID
	Owner       ledger.Source
	ClientID    *id.ID
	ClientDelta decimal.Decimal
}

// PriorOf builds the Prior matching a Posted result.
func PriorOf(rec stock.Recorder, owner ledger.Source, p Posted) Prior {
	return Prior{
		Recorder:    rec,
		EntryID:     p.EntryID,
		Owner:       owner,
		ClientID:    p.ClientID,
		ClientDelta: p.ClientDelta,
	}
}

// Apply performs a plan: stock, then ledger with register, then client.
func (e *Engine) Apply(ctx context.Context, pr *pricing.Pricer, plan Plan) (Posted, error) {
	return e.apply(ctx, pr, plan, nil)
}

func (e *Engine) apply(ctx context.Context, pr *pricing.Pricer, plan Plan, reuse *id.ID) (Posted, error) {
	var out Posted

	if len(plan.Stock) > 0 {
		applied, err := e.stock.Apply(ctx, plan.Recorder, plan.Stock)
		if err != nil {
			return Posted{}, err
		}
		for _, a := range applied {
			TouchStock(ctx, a.Key())
		}
	}

	if plan.Entry == nil {
		if plan.Client != nil {
			return Posted{}, apperror.NewInternal(fmt.Errorf("client effect without ledger entry"))
		}
		return out, nil
	}

	var (
		entry *ledger.Entry
		err   error
	)
	if reuse != nil {
		entry, err = e.ledger.Repost(ctx, pr, *reuse, *plan.Entry, plan.Entry.Source)
	} else {
		entry, err = e.ledger.Post(ctx, pr, *plan.Entry)
	}
	if err != nil {
		return Posted{}, err
	}
	out.EntryID = id.Ptr(entry.ID)
	out.Amount = entry.Amount

	if entry.AffectsRegister() {
		if _, err := e.registers.Apply(ctx, *entry.CashRegisterID, entry.Signed()); err != nil {
			return Posted{}, err
		}
		TouchRegisters(ctx, *entry.CashRegisterID)
	}

	if plan.Client != nil {
		delta := entry.Amount.Mul(decimal.NewFromInt(plan.Client.Sign))
		if _, err := e.clients.ApplyDelta(ctx, plan.Client.ClientID, delta); err != nil {
			return Posted{}, err
		}
		TouchClients(ctx, plan.Client.ClientID)
		out.ClientID = id.Ptr(plan.Client.ClientID)
		out.ClientDelta = delta
	}
	return out, nil
}

// Revert undoes a prior effect. With dropEntry the ledger entry is removed,
// otherwise it stays (with its effect undone) for a following Repost.
func (e *Engine) Revert(ctx context.Context, prior Prior, dropEntry bool) error {
	_, err := e.revert(ctx, prior, dropEntry, false)
	return err
}

// revert undoes prior. For a repost the stock side is not checked here; the
// returned snapshot is verified once the new plan is applied.
func (e *Engine) revert(ctx context.Context, prior Prior, dropEntry, repost bool) (stock.Snapshot, error) {
	keys, err := e.stock.RecordedKeys(ctx, prior.Recorder)
	if err != nil {
		return nil, err
	}
	var before stock.Snapshot
	if repost {
		before, err = e.stock.RevertForRepost(ctx, prior.Recorder)
	} else {
		err = e.stock.Revert(ctx, prior.Recorder)
	}
	if err != nil {
		return nil, err
	}
	TouchStock(ctx, keys...)

	if prior.EntryID != nil {
		entry, err := e.ledger.Lock(ctx, *prior.EntryID, prior.Owner)
		if err != nil {
			return nil, err
		}
		if entry.AffectsRegister() {
			if _, err := e.registers.Apply(ctx, *entry.CashRegisterID, e.ledger.Reverse(entry)); err != nil {
				return nil, err
			}
			TouchRegisters(ctx, *entry.CashRegisterID)
		}
		if dropEntry {
			if _, err := e.ledger.Delete(ctx, entry.ID, prior.Owner); err != nil {
				return nil, err
			}
		}
	}

	if prior.ClientID != nil && !prior.ClientDelta.IsZero() {
		if _, err := e.clients.ReverseDelta(ctx, *prior.ClientID, prior.ClientDelta); err != nil {
			return nil, err
		}
		TouchClients(ctx, *prior.ClientID)
	}
	return before, nil
}

// Replace reverts prior and applies plan. The ledger entry keeps its id
// when both sides carry one. Stock is judged on the end state only, so
// goods consumed since the first posting do not block an update that leaves
// every quantity valid.
func (e *Engine) Replace(ctx context.Context, pr *pricing.Pricer, prior Prior, plan Plan) (Posted, error) {
	if err := e.lockAll(ctx, prior, plan); err != nil {
		return Posted{}, err
	}

	keepEntry := prior.EntryID != nil && plan.Entry != nil
	before, err := e.revert(ctx, prior, !keepEntry, true)
	if err != nil {
		return Posted{}, err
	}
	var entryID *id.ID
	if keepEntry {
		entryID = prior.EntryID
	}
	posted, err := e.apply(ctx, pr, plan, entryID)
	if err != nil {
		return Posted{}, err
	}
	if err := e.stock.VerifyRepost(ctx, before); err != nil {
		return Posted{}, err
	}
	return posted, nil
}

// lockAll takes every row lock Replace needs in the global order:
// stock keys, then registers, then clients, each ascending.
func (e *Engine) lockAll(ctx context.Context, prior Prior, plan Plan) error {
	oldKeys, err := e.stock.RecordedKeys(ctx, prior.Recorder)
	if err != nil {
		return err
	}
	newKeys, err := e.stock.Keys(ctx, plan.Stock)
	if err != nil {
		return err
	}
	if err := e.stock.Lock(ctx, append(oldKeys, newKeys...)); err != nil {
		return err
	}

	var registers []id.ID
	if prior.EntryID != nil {
		old, err := e.ledger.Get(ctx, *prior.EntryID)
		if err != nil {
			return err
		}
		if old.CashRegisterID != nil {
			registers = append(registers, *old.CashRegisterID)
		}
	}
	if plan.Entry != nil && plan.Entry.CashRegisterID != nil {
		registers = append(registers, *plan.Entry.CashRegisterID)
	}
	if _, err := e.registers.LockAll(ctx, registers...); err != nil {
		return err
	}

	var clients []id.ID
	if prior.ClientID != nil {
		clients = append(clients, *prior.ClientID)
	}
	if plan.Client != nil {
		clients = append(clients, plan.Client.ClientID)
	}
	return e.clients.LockAll(ctx, clients...)
}

func sortKeys(keys []stock.Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
