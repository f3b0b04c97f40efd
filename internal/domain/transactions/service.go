// Package transactions handles user-entered (manual) ledger entries.
// Each call is one unit of work: the entry and its register balance change
// together.
package transactions

import (
	"context"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/audit"
	"github.com/hasapchy/back-sub001/internal/domain/cashregister"
	"github.com/hasapchy/back-sub001/internal/domain/events"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/posting"
	"github.com/hasapchy/back-sub001/internal/domain/pricing"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

const aggregateType = "ledger_entry"

type Service struct {
	engine    *posting.Engine
	ledger    *ledger.Service
	registers *cashregister.Service
}

func NewService(engine *posting.Engine, ledgerSvc *ledger.Service, registers *cashregister.Service) *Service {
	return &Service{engine: engine, ledger: ledgerSvc, registers: registers}
}

// Create posts a manual entry and applies it to its register.
func (s *Service) Create(ctx context.Context, d ledger.Draft) (*ledger.Entry, error) {
	if d.Source.IsDerived() {
		return nil, apperror.NewValidation("manual transactions cannot carry a source")
	}

	var out *ledger.Entry
	op := &posting.Operation{AggregateType: aggregateType, Event: events.LedgerEntryPosted, Action: audit.ActionCreate}
	err := s.engine.Run(ctx, op, func(ctx context.Context, pr *pricing.Pricer) error {
		if err := s.authorize(ctx, d.CashRegisterID); err != nil {
			return err
		}
		e, err := s.ledger.Post(ctx, pr, d)
		if err != nil {
			return err
		}
		if err := s.applyEffect(ctx, e); err != nil {
			return err
		}
		op.AggregateID = e.ID
		op.Payload = e
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transaction created", "id", out.ID, "amount", out.Amount.String(), "type", out.Type)
	return out, nil
}

// Update rewrites a manual entry: the old register effect is reversed and
// the new one applied.
func (s *Service) Update(ctx context.Context, entryID id.ID, d ledger.Draft) (*ledger.Entry, error) {
	if d.Source.IsDerived() {
		return nil, apperror.NewValidation("manual transactions cannot carry a source")
	}

	var out *ledger.Entry
	op := &posting.Operation{AggregateType: aggregateType, AggregateID: entryID, Event: events.LedgerEntryUpdated, Action: audit.ActionUpdate}
	err := s.engine.Run(ctx, op, func(ctx context.Context, pr *pricing.Pricer) error {
		old, err := s.ledger.Get(ctx, entryID)
		if err != nil {
			return err
		}
		if err := s.ledger.GuardEditable(old, ledger.Manual()); err != nil {
			return err
		}
		if old.Voided {
			return apperror.NewPreconditionFailed("reversed transactions cannot be edited").
				WithDetail("entry_id", entryID.String())
		}
		if err := s.authorize(ctx, d.CashRegisterID); err != nil {
			return err
		}

		var regs []id.ID
		if old.CashRegisterID != nil {
			regs = append(regs, *old.CashRegisterID)
		}
		if d.CashRegisterID != nil {
			regs = append(regs, *d.CashRegisterID)
		}
		if _, err := s.registers.LockAll(ctx, regs...); err != nil {
			return err
		}

		locked, err := s.ledger.Lock(ctx, entryID, ledger.Manual())
		if err != nil {
			return err
		}
		if err := s.undoEffect(ctx, locked); err != nil {
			return err
		}

		e, err := s.ledger.Repost(ctx, pr, entryID, d, ledger.Manual())
		if err != nil {
			return err
		}
		if err := s.applyEffect(ctx, e); err != nil {
			return err
		}
		op.Payload = e
		op.Changes = audit.Diff(snapshot(old), snapshot(e))
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transaction updated", "id", entryID, "amount", out.Amount.String())
	return out, nil
}

// Reverse voids a manual entry and undoes its register effect. The row stays.
func (s *Service) Reverse(ctx context.Context, entryID id.ID) (*ledger.Entry, error) {
	var out *ledger.Entry
	op := &posting.Operation{AggregateType: aggregateType, AggregateID: entryID, Event: events.LedgerEntryReversed, Action: audit.ActionReverse}
	err := s.engine.Run(ctx, op, func(ctx context.Context, _ *pricing.Pricer) error {
		before, err := s.ledger.Lock(ctx, entryID, ledger.Manual())
		if err != nil {
			return err
		}
		if err := s.undoEffect(ctx, before); err != nil {
			return err
		}
		e, err := s.ledger.Void(ctx, entryID, ledger.Manual())
		if err != nil {
			return err
		}
		op.Payload = e
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transaction reversed", "id", entryID)
	return out, nil
}

// Delete removes a manual entry, undoing its effect when still active.
func (s *Service) Delete(ctx context.Context, entryID id.ID) error {
	op := &posting.Operation{AggregateType: aggregateType, AggregateID: entryID, Event: events.LedgerEntryDeleted, Action: audit.ActionDelete}
	err := s.engine.Run(ctx, op, func(ctx context.Context, _ *pricing.Pricer) error {
		e, err := s.ledger.Lock(ctx, entryID, ledger.Manual())
		if err != nil {
			return err
		}
		if err := s.undoEffect(ctx, e); err != nil {
			return err
		}
		if _, err := s.ledger.Delete(ctx, entryID, ledger.Manual()); err != nil {
			return err
		}
		op.Payload = e
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "transaction deleted", "id", entryID)
	return nil
}

func (s *Service) Get(ctx context.Context, entryID id.ID) (*ledger.Entry, error) {
	return s.ledger.Get(ctx, entryID)
}

func (s *Service) List(ctx context.Context, f ledger.Filter) ([]*ledger.Entry, error) {
	return s.ledger.List(ctx, f)
}

func (s *Service) applyEffect(ctx context.Context, e *ledger.Entry) error {
	if !e.AffectsRegister() {
		return nil
	}
	if _, err := s.registers.Apply(ctx, *e.CashRegisterID, e.Signed()); err != nil {
		return err
	}
	posting.TouchRegisters(ctx, *e.CashRegisterID)
	return nil
}

func (s *Service) undoEffect(ctx context.Context, e *ledger.Entry) error {
	if !e.AffectsRegister() {
		return nil
	}
	if _, err := s.registers.Apply(ctx, *e.CashRegisterID, s.ledger.Reverse(e)); err != nil {
		return err
	}
	posting.TouchRegisters(ctx, *e.CashRegisterID)
	return nil
}

func (s *Service) authorize(ctx context.Context, registerID *id.ID) error {
	if registerID == nil {
		return nil
	}
	return s.registers.Authorize(ctx, *registerID)
}

func snapshot(e *ledger.Entry) map[string]any {
	m := map[string]any{
		"type":     string(e.Type),
		"amount":   e.Amount.String(),
		"currency": e.CurrencyID.String(),
		"orig":     e.OrigAmount.String(),
		"date":     e.Date,
		"note":     e.Note,
	}
	if e.CashRegisterID != nil {
		m["cash_register_id"] = e.CashRegisterID.String()
	}
	if e.ClientID != nil {
		m["client_id"] = e.ClientID.String()
	}
	return m
}
