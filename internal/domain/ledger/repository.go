package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/id"
)

// Repository persists ledger entries.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	// GetByID returns apperror NotFound when missing.
	GetByID(ctx context.Context, entryID id.ID) (*Entry, error)
	GetForUpdate(ctx context.Context, entryID id.ID) (*Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, entryID id.ID) error
	List(ctx context.Context, f Filter) ([]*Entry, error)
	ListBySource(ctx context.Context, src Source) ([]*Entry, error)

	SumByRegister(ctx context.Context, registerID id.ID) (decimal.Decimal, error)
	CountByRegister(ctx context.Context, registerID id.ID) (int, error)
}
