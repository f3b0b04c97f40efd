package cashregister

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/core/tenant"
	"github.com/hasapchy/back-sub001/internal/core/tx"
	"github.com/hasapchy/back-sub001/internal/domain/currency"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

// CurrencyLookup validates currency references.
type CurrencyLookup interface {
	Get(ctx context.Context, currencyID id.ID) (*currency.Currency, error)
}

// Service is the register balance manager. Apply, Reverse, Withdraw and
// LockAll expect to run inside a transaction opened by the caller.
type Service struct {
	repo       Repository
	ledger     LedgerTotals
	currencies CurrencyLookup
	txManager  tx.Manager
}

func NewService(repo Repository, ledger LedgerTotals, currencies CurrencyLookup, txManager tx.Manager) *Service {
	return &Service{repo: repo, ledger: ledger, currencies: currencies, txManager: txManager}
}

// Create opens a register with a zero balance.
func (s *Service) Create(ctx context.Context, name string, currencyID id.ID, userIDs []string) (*Register, error) {
	now := time.Now().UTC()
	r := &Register{
		ID:         id.New(),
		Name:       name,
		CurrencyID: currencyID,
		Balance:    decimal.Zero,
		UserIDs:    userIDs,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.Validate(ctx); err != nil {
		return nil, err
	}

	err := tenant.RunInTx(ctx, s.txManager, func(ctx context.Context) error {
		if _, err := s.currencies.Get(ctx, currencyID); err != nil {
			return err
		}
		return s.repo.Create(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "cash register created", "id", r.ID, "currency_id", currencyID)
	return r, nil
}

func (s *Service) Get(ctx context.Context, registerID id.ID) (*Register, error) {
	return s.repo.GetByID(ctx, registerID)
}

func (s *Service) List(ctx context.Context, userID string) ([]*Register, error) {
	return s.repo.List(ctx, userID)
}

// Update renames the register and replaces its users. The currency and the
// balance are not editable.
func (s *Service) Update(ctx context.Context, registerID id.ID, name string, userIDs []string, expectedVersion int) (*Register, error) {
	var out *Register
	err := tenant.RunInTx(ctx, s.txManager, func(ctx context.Context) error {
		r, err := s.repo.GetForUpdate(ctx, registerID)
		if err != nil {
			return err
		}
		if expectedVersion != 0 && r.Version != expectedVersion {
			return apperror.NewConcurrentModification("cash_register", registerID.String())
		}

		r.Name = name
		r.UserIDs = userIDs
		if err := r.Validate(ctx); err != nil {
			return err
		}
		r.Version++
		r.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, r); err != nil {
			return fmt.Errorf("update register: %w", err)
		}
		out = r
		return nil
	})
	return out, err
}

// Delete removes a register that never carried a ledger entry.
func (s *Service) Delete(ctx context.Context, registerID id.ID) error {
	err := tenant.RunInTx(ctx, s.txManager, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, registerID); err != nil {
			return err
		}
		n, err := s.ledger.CountByRegister(ctx, registerID)
		if err != nil {
			return fmt.Errorf("count entries: %w", err)
		}
		if n > 0 {
			return apperror.NewPreconditionFailed("cash register has ledger entries").
				WithDetail("cash_register_id", registerID.String()).
				WithDetail("entries", n)
		}
		return s.repo.Delete(ctx, registerID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "cash register deleted", "id", registerID)
	return nil
}

// Authorize checks the caller against the register's user list. Admins and
// calls without a user (internal jobs) pass.
func (s *Service) Authorize(ctx context.Context, registerID id.ID) error {
	user := appctx.GetUser(ctx)
	if user == nil || user.IsAdmin {
		return nil
	}
	r, err := s.repo.GetByID(ctx, registerID)
	if err != nil {
		return err
	}
	if !r.Authorized(user.UserID) {
		return apperror.NewForbidden("no access to cash register").
			WithDetail("cash_register_id", registerID.String())
	}
	return nil
}

// LockAll locks registers in ascending id order and returns them by id.
func (s *Service) LockAll(ctx context.Context, ids ...id.ID) (map[id.ID]*Register, error) {
	out := make(map[id.ID]*Register, len(ids))
	for _, rid := range id.SortUnique(ids) {
		r, err := s.repo.GetForUpdate(ctx, rid)
		if err != nil {
			return nil, err
		}
		out[rid] = r
	}
	return out, nil
}

// Apply adds a signed amount (income > 0, expense < 0) to the balance.
func (s *Service) Apply(ctx context.Context, registerID id.ID, signed decimal.Decimal) (*Register, error) {
	r, err := s.repo.GetForUpdate(ctx, registerID)
	if err != nil {
		return nil, err
	}
	if signed.IsZero() {
		return r, nil
	}

	r.Balance = r.Balance.Add(signed)
	if err := s.repo.UpdateBalance(ctx, registerID, r.Balance); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	return r, nil
}

// Reverse undoes a previous Apply of the same signed amount.
func (s *Service) Reverse(ctx context.Context, registerID id.ID, signed decimal.Decimal) (*Register, error) {
	return s.Apply(ctx, registerID, signed.Neg())
}

// Withdraw debits amount and refuses to overdraw the register.
func (s *Service) Withdraw(ctx context.Context, registerID id.ID, amount decimal.Decimal) (*Register, error) {
	r, err := s.repo.GetForUpdate(ctx, registerID)
	if err != nil {
		return nil, err
	}
	if r.Balance.LessThan(amount) {
		return nil, apperror.NewInsufficientBalance(registerID.String(), amount.String(), r.Balance.String())
	}
	return s.Apply(ctx, registerID, amount.Neg())
}

// Reconcile reports drift between the cached balance and the ledger.
func (s *Service) Reconcile(ctx context.Context, registerID id.ID) (Reconciliation, error) {
	var (
		r   *Register
		sum decimal.Decimal
	)
	// both reads see the same snapshot
	err := tenant.RunReadOnly(ctx, s.txManager, func(ctx context.Context) error {
		var err error
		if r, err = s.repo.GetByID(ctx, registerID); err != nil {
			return err
		}
		if sum, err = s.ledger.SumByRegister(ctx, registerID); err != nil {
			return fmt.Errorf("sum ledger: %w", err)
		}
		return nil
	})
	if err != nil {
		return Reconciliation{}, err
	}

	rec := Reconciliation{
		RegisterID: registerID,
		Cached:     r.Balance,
		Ledger:     sum,
		Drift:      r.Balance.Sub(sum),
	}
	if !rec.Consistent() {
		logger.Warn(ctx, "cash register drift detected", "id", registerID, "drift", rec.Drift.String())
	}
	return rec, nil
}
