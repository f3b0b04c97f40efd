// Package transfer moves money between two cash registers as a pair of
// derived ledger entries (the legs) plus the transfer record linking them.
package transfer

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
)

// Transfer links an outgoing and an incoming leg.
type Transfer struct {
	ID             id.ID `db:"id" json:"id"`
	FromRegisterID id.ID `db:"from_register_id" json:"fromRegisterId"`
	ToRegisterID   id.ID `db:"to_register_id" json:"toRegisterId"`
	OutEntryID     id.ID `db:"out_entry_id" json:"outEntryId"`
	InEntryID      id.ID `db:"in_entry_id" json:"inEntryId"`

	// Amount is in the source register currency.
	Amount decimal.Decimal `db:"amount" json:"amount"`
	// Converted is what the destination register received.
	Converted decimal.Decimal `db:"converted" json:"converted"`

	Date      time.Time `db:"date" json:"date"`
	Note      string    `db:"note" json:"note,omitempty"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Input carries the user-supplied fields of create and update.
type Input struct {
	FromRegisterID id.ID
	ToRegisterID   id.ID
	Amount         decimal.Decimal
	Date           time.Time
	Note           string
}

// Validate implements entity.Validatable.
func (in *Input) Validate(ctx context.Context) error {
	if id.IsNil(in.FromRegisterID) {
		return apperror.NewValidation("source register is required").WithDetail("field", "fromRegisterId")
	}
	if id.IsNil(in.ToRegisterID) {
		return apperror.NewValidation("destination register is required").WithDetail("field", "toRegisterId")
	}
	if !in.Amount.IsPositive() {
		return apperror.NewValidation("amount must be greater than zero").WithDetail("field", "amount")
	}
	if in.FromRegisterID == in.ToRegisterID {
		return apperror.NewSameRegister(in.FromRegisterID.String())
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}
	return nil
}

// Filter narrows List.
type Filter struct {
	// RegisterID matches either side.
	RegisterID *id.ID
	Limit      int
	Offset     int
}
