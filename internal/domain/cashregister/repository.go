package cashregister

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/id"
)

// Repository persists registers.
type Repository interface {
	Create(ctx context.Context, r *Register) error
	// GetByID returns apperror NotFound when missing.
	GetByID(ctx context.Context, registerID id.ID) (*Register, error)
	// GetForUpdate locks the register row until the transaction ends.
	GetForUpdate(ctx context.Context, registerID id.ID) (*Register, error)
	// List returns registers visible to userID ("" = all).
	List(ctx context.Context, userID string) ([]*Register, error)
	// Update saves name and users and bumps the version.
	Update(ctx context.Context, r *Register) error
	UpdateBalance(ctx context.Context, registerID id.ID, balance decimal.Decimal) error
	Delete(ctx context.Context, registerID id.ID) error
}

// LedgerTotals reads ledger aggregates for a register.
type LedgerTotals interface {
	// SumByRegister returns the signed sum of active entries.
	SumByRegister(ctx context.Context, registerID id.ID) (decimal.Decimal, error)
	// CountByRegister counts all entries (active or voided).
	CountByRegister(ctx context.Context, registerID id.ID) (int, error)
}
