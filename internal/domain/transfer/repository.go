package transfer

import (
	"context"

	"github.com/hasapchy/back-sub001/internal/core/id"
)

// Repository persists transfer records. Legs are stored by the ledger.
type Repository interface {
	Create(ctx context.Context, t *Transfer) error
	// GetByID returns apperror NotFound when missing.
	GetByID(ctx context.Context, transferID id.ID) (*Transfer, error)
	GetForUpdate(ctx context.Context, transferID id.ID) (*Transfer, error)
	Update(ctx context.Context, t *Transfer) error
	Delete(ctx context.Context, transferID id.ID) error
	List(ctx context.Context, f Filter) ([]*Transfer, error)
}
