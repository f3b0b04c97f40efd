package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/cashregister"
	"github.com/hasapchy/back-sub001/internal/domain/currency"
	"github.com/hasapchy/back-sub001/internal/domain/pricing"
	"github.com/hasapchy/back-sub001/internal/domain/rounding"
)

// RegisterLookup resolves registers for currency targeting.
type RegisterLookup interface {
	Get(ctx context.Context, registerID id.ID) (*cashregister.Register, error)
}

// DefaultCurrency resolves the tenant anchor currency.
type DefaultCurrency interface {
	Default(ctx context.Context) (*currency.Currency, error)
}

// Service writes ledger entries. It never touches register, client or stock
// balances; callers apply those in the same transaction.
type Service struct {
	repo       Repository
	registers  RegisterLookup
	currencies DefaultCurrency
	now        func() time.Time
}

func NewService(repo Repository, registers RegisterLookup, currencies DefaultCurrency) *Service {
	return &Service{
		repo:       repo,
		registers:  registers,
		currencies: currencies,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Post validates the draft, converts and rounds its amount into the target
// currency and persists the entry.
func (s *Service) Post(ctx context.Context, pr *pricing.Pricer, d Draft) (*Entry, error) {
	if err := d.Validate(ctx); err != nil {
		return nil, err
	}

	now := s.now()
	e := &Entry{
		ID:        id.New(),
		CreatedBy: appctx.GetUserID(ctx),
		CreatedAt: now,
	}
	if err := s.fill(ctx, pr, e, d); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}
	return e, nil
}

// fill copies the draft into e and computes the converted amount.
func (s *Service) fill(ctx context.Context, pr *pricing.Pricer, e *Entry, d Draft) error {
	target, err := s.targetCurrency(ctx, d.CashRegisterID)
	if err != nil {
		return err
	}

	amount, err := pr.ConvertAndRound(ctx, d.OrigAmount, d.OrigCurrencyID, target, rounding.KindAmount)
	if err != nil {
		return err
	}

	e.Type = d.Type
	e.Amount = amount
	e.CurrencyID = target
	e.OrigAmount = d.OrigAmount
	e.OrigCurrencyID = d.OrigCurrencyID
	e.CashRegisterID = d.CashRegisterID
	e.CategoryID = d.CategoryID
	e.ClientID = d.ClientID
	e.ProjectID = d.ProjectID
	e.IsDebt = d.IsDebt
	e.Date = d.Date
	e.Note = d.Note
	e.Source = d.Source
	e.UpdatedAt = s.now()
	return nil
}

func (s *Service) targetCurrency(ctx context.Context, registerID *id.ID) (id.ID, error) {
	if registerID != nil {
		r, err := s.registers.Get(ctx, *registerID)
		if err != nil {
			return id.Nil(), err
		}
		return r.CurrencyID, nil
	}
	def, err := s.currencies.Default(ctx)
	if err != nil {
		return id.Nil(), err
	}
	return def.ID, nil
}

// GuardEditable rejects changes to an entry by anyone but its owner.
func (s *Service) GuardEditable(e *Entry, caller Source) error {
	if e.Source == caller {
		return nil
	}
	if e.Source.IsDerived() {
		return apperror.NewDerivedEntryImmutable(e.ID.String(), string(e.Source.Kind))
	}
	return apperror.NewPreconditionFailed("ledger entry is not owned by " + caller.String()).
		WithDetail("entry_id", e.ID.String())
}

// Reverse returns the balance delta that undoes the entry's effect.
// Voided entries have no effect left to undo.
func (s *Service) Reverse(e *Entry) decimal.Decimal {
	if !e.Active() {
		return decimal.Zero
	}
	return e.Signed().Neg()
}

func (s *Service) Get(ctx context.Context, entryID id.ID) (*Entry, error) {
	return s.repo.GetByID(ctx, entryID)
}

// Lock loads an entry for update and checks ownership.
func (s *Service) Lock(ctx context.Context, entryID id.ID, caller Source) (*Entry, error) {
	e, err := s.repo.GetForUpdate(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := s.GuardEditable(e, caller); err != nil {
		return nil, err
	}
	return e, nil
}

// Repost rewrites an entry in place with new values. The entry keeps its id.
func (s *Service) Repost(ctx context.Context, pr *pricing.Pricer, entryID id.ID, d Draft, owner Source) (*Entry, error) {
	if d.Source != owner {
		return nil, apperror.NewPreconditionFailed("repost cannot change the entry source")
	}
	if err := d.Validate(ctx); err != nil {
		return nil, err
	}

	e, err := s.Lock(ctx, entryID, owner)
	if err != nil {
		return nil, err
	}
	if err := s.fill(ctx, pr, e, d); err != nil {
		return nil, err
	}
	e.Voided = false
	e.VoidedAt = nil

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update ledger entry: %w", err)
	}
	return e, nil
}

// Void marks an entry inactive. The caller undoes its balance effect.
func (s *Service) Void(ctx context.Context, entryID id.ID, owner Source) (*Entry, error) {
	e, err := s.Lock(ctx, entryID, owner)
	if err != nil {
		return nil, err
	}
	if e.Voided {
		return nil, apperror.NewPreconditionFailed("ledger entry is already reversed").
			WithDetail("entry_id", entryID.String())
	}

	now := s.now()
	e.Voided = true
	e.VoidedAt = &now
	e.UpdatedAt = now
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("void ledger entry: %w", err)
	}
	return e, nil
}

// Delete removes an entry owned by owner and returns the removed row.
func (s *Service) Delete(ctx context.Context, entryID id.ID, owner Source) (*Entry, error) {
	e, err := s.Lock(ctx, entryID, owner)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, entryID); err != nil {
		return nil, fmt.Errorf("delete ledger entry: %w", err)
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Entry, error) {
	return s.repo.List(ctx, f)
}

// RegisterTotal is the signed sum of a register's active entries.
func (s *Service) RegisterTotal(ctx context.Context, registerID id.ID) (decimal.Decimal, error) {
	return s.repo.SumByRegister(ctx, registerID)
}
