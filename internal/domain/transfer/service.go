package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/audit"
	"github.com/hasapchy/back-sub001/internal/domain/cashregister"
	"github.com/hasapchy/back-sub001/internal/domain/events"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/posting"
	"github.com/hasapchy/back-sub001/internal/domain/pricing"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

const aggregateType = "cash_transfer"

// Service is the transfer coordinator.
type Service struct {
	repo      Repository
	engine    *posting.Engine
	ledger    *ledger.Service
	registers *cashregister.Service
}

func NewService(repo Repository, engine *posting.Engine, ledgerSvc *ledger.Service, registers *cashregister.Service) *Service {
	return &Service{repo: repo, engine: engine, ledger: ledgerSvc, registers: registers}
}

// Create debits the source register, credits the destination with the
// converted amount and links both legs, all in one unit of work.
func (s *Service) Create(ctx context.Context, in Input) (*Transfer, error) {
	if err := in.Validate(ctx); err != nil {
		return nil, err
	}

	t := &Transfer{
		ID:        id.New(),
		CreatedBy: appctx.GetUserID(ctx),
		Version:   1,
	}
	op := &posting.Operation{AggregateType: aggregateType, AggregateID: t.ID, Event: events.TransferCreated, Action: audit.ActionCreate}
	err := s.engine.Run(ctx, op, func(ctx context.Context, pr *pricing.Pricer) error {
		if err := s.registers.Authorize(ctx, in.FromRegisterID); err != nil {
			return err
		}
		if _, err := s.registers.LockAll(ctx, in.FromRegisterID, in.ToRegisterID); err != nil {
			return err
		}
		if err := s.post(ctx, pr, t, in, false); err != nil {
			return err
		}

		now := time.Now().UTC()
		t.CreatedAt = now
		t.UpdatedAt = now
		if err := s.repo.Create(ctx, t); err != nil {
			return fmt.Errorf("create transfer: %w", err)
		}
		op.Payload = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transfer created",
		"id", t.ID,
		"from", t.FromRegisterID,
		"to", t.ToRegisterID,
		"amount", t.Amount.String(),
		"converted", t.Converted.String(),
	)
	return t, nil
}

// post writes both legs and applies them. With reuse the existing leg rows
// are rewritten in place.
func (s *Service) post(ctx context.Context, pr *pricing.Pricer, t *Transfer, in Input, reuse bool) error {
	// rounded before any check, so the outgoing leg equals the stored amount
	amount := pr.RoundAmount(in.Amount)
	if !amount.IsPositive() {
		return apperror.NewValidation("amount rounds to zero").WithDetail("field", "amount")
	}

	from, err := s.registers.Get(ctx, in.FromRegisterID)
	if err != nil {
		return err
	}
	to, err := s.registers.Get(ctx, in.ToRegisterID)
	if err != nil {
		return err
	}

	owner := ledger.From(ledger.SourceTransfer, t.ID)
	outDraft := ledger.Draft{
		Type:           ledger.Expense,
		OrigAmount:     amount,
		OrigCurrencyID: from.CurrencyID,
		CashRegisterID: id.Ptr(from.ID),
		Date:           in.Date,
		Note:           in.Note,
		Source:         owner,
	}
	inDraft := ledger.Draft{
		Type:           ledger.Income,
		OrigAmount:     amount,
		OrigCurrencyID: from.CurrencyID,
		CashRegisterID: id.Ptr(to.ID),
		Date:           in.Date,
		Note:           in.Note,
		Source:         owner,
	}

	var outLeg, inLeg *ledger.Entry
	if reuse {
		if outLeg, err = s.ledger.Repost(ctx, pr, t.OutEntryID, outDraft, owner); err != nil {
			return err
		}
		if inLeg, err = s.ledger.Repost(ctx, pr, t.InEntryID, inDraft, owner); err != nil {
			return err
		}
	} else {
		if outLeg, err = s.ledger.Post(ctx, pr, outDraft); err != nil {
			return err
		}
		if inLeg, err = s.ledger.Post(ctx, pr, inDraft); err != nil {
			return err
		}
	}

	if _, err := s.registers.Withdraw(ctx, from.ID, outLeg.Amount); err != nil {
		return err
	}
	if _, err := s.registers.Apply(ctx, to.ID, inLeg.Signed()); err != nil {
		return err
	}
	posting.TouchRegisters(ctx, from.ID, to.ID)

	t.FromRegisterID = from.ID
	t.ToRegisterID = to.ID
	t.OutEntryID = outLeg.ID
	t.InEntryID = inLeg.ID
	t.Amount = outLeg.Amount
	t.Converted = inLeg.Amount
	t.Date = in.Date
	t.Note = in.Note
	return nil
}

// Update replaces the transfer as if deleted and re-created, keeping its id
// and leg rows. expectedVersion 0 skips the optimistic check.
func (s *Service) Update(ctx context.Context, transferID id.ID, in Input, expectedVersion int) (*Transfer, error) {
	if err := in.Validate(ctx); err != nil {
		return nil, err
	}

	var out *Transfer
	op := &posting.Operation{AggregateType: aggregateType, AggregateID: transferID, Event: events.TransferUpdated, Action: audit.ActionUpdate}
	err := s.engine.Run(ctx, op, func(ctx context.Context, pr *pricing.Pricer) error {
		t, err := s.repo.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if expectedVersion != 0 && t.Version != expectedVersion {
			return apperror.NewConcurrentModification(aggregateType, transferID.String())
		}
		// the caller must hold the source it takes over and the one it gives up
		if err := s.authorize(ctx, t.FromRegisterID, in.FromRegisterID); err != nil {
			return err
		}
		before := snapshot(t)

		if _, err := s.registers.LockAll(ctx, t.FromRegisterID, t.ToRegisterID, in.FromRegisterID, in.ToRegisterID); err != nil {
			return err
		}
		if err := s.undoLegs(ctx, t); err != nil {
			return err
		}
		if err := s.post(ctx, pr, t, in, true); err != nil {
			return err
		}

		t.Version++
		t.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update transfer: %w", err)
		}
		op.Payload = t
		op.Changes = audit.Diff(before, snapshot(t))
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transfer updated", "id", transferID, "amount", out.Amount.String(), "converted", out.Converted.String())
	return out, nil
}

// Delete reverses both legs, removes the record and then the legs.
func (s *Service) authorize(ctx context.Context, registerIDs ...id.ID) error {
	for _, rid := range id.SortUnique(registerIDs) {
		if err := s.registers.Authorize(ctx, rid); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, transferID id.ID) error {
	op := &posting.Operation{AggregateType: aggregateType, AggregateID: transferID, Event: events.TransferDeleted, Action: audit.ActionDelete}
	err := s.engine.Run(ctx, op, func(ctx context.Context, _ *pricing.Pricer) error {
		t, err := s.repo.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, t.FromRegisterID); err != nil {
			return err
		}
		if _, err := s.registers.LockAll(ctx, t.FromRegisterID, t.ToRegisterID); err != nil {
			return err
		}
		if err := s.undoLegs(ctx, t); err != nil {
			return err
		}

		// legs are referenced by the record, so it goes first
		if err := s.repo.Delete(ctx, transferID); err != nil {
			return fmt.Errorf("delete transfer: %w", err)
		}
		owner := ledger.From(ledger.SourceTransfer, t.ID)
		for _, entryID := range []id.ID{t.OutEntryID, t.InEntryID} {
			if _, err := s.ledger.Delete(ctx, entryID, owner); err != nil {
				return err
			}
		}
		op.Payload = t
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "transfer deleted", "id", transferID)
	return nil
}

func (s *Service) undoLegs(ctx context.Context, t *Transfer) error {
	owner := ledger.From(ledger.SourceTransfer, t.ID)
	for _, entryID := range []id.ID{t.OutEntryID, t.InEntryID} {
		e, err := s.ledger.Lock(ctx, entryID, owner)
		if err != nil {
			return err
		}
		if !e.AffectsRegister() {
			continue
		}
		if _, err := s.registers.Apply(ctx, *e.CashRegisterID, s.ledger.Reverse(e)); err != nil {
			return err
		}
		posting.TouchRegisters(ctx, *e.CashRegisterID)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, transferID id.ID) (*Transfer, error) {
	return s.repo.GetByID(ctx, transferID)
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Transfer, error) {
	return s.repo.List(ctx, f)
}

func snapshot(t *Transfer) map[string]any {
	return map[string]any{
		"from":      t.FromRegisterID.String(),
		"to":        t.ToRegisterID.String(),
		"amount":    t.Amount.String(),
		"converted": t.Converted.String(),
		"date":      t.Date,
		"note":      t.Note,
	}
}
