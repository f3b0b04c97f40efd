// Package ledger stores ledger entries: the record of every money movement
// of a tenant.
//
// Entries produced by a source document (sale, order, receipt, write-off,
// transfer leg) are derived. Only the cascade of their owning document may
// change or remove them.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
)

// EntryType is the direction of money.
type EntryType string

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

// Sign is +1 for income and -1 for expense.
func (t EntryType) Sign() decimal.Decimal {
	if t == Expense {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

// SourceKind names the aggregate that owns a derived entry.
type SourceKind string

const (
	SourceManual   SourceKind = ""
	SourceSale     SourceKind = "sale"
	SourceOrder    SourceKind = "order"
	SourceTransfer SourceKind = "transfer"
	SourceReceipt  SourceKind = "receipt"
	SourceWriteOff SourceKind = "write_off"
)

// Source links an entry to its owner. The zero value is a manual entry.
type Source struct {
	Kind SourceKind `json:"type,omitempty"`
	ID   id.ID      `json:"id,omitempty"`
}

// Manual is the source of user-entered rows.
func Manual() Source { return Source{} }

// From returns a derived source.
func From(kind SourceKind, ownerID id.ID) Source {
	return Source{Kind: kind, ID: ownerID}
}

// IsDerived reports whether an aggregate owns the entry.
func (s Source) IsDerived() bool {
	return s.Kind != SourceManual
}

// Validate rejects unknown kinds and half-filled links.
func (s Source) Validate() error {
	switch s.Kind {
	case SourceManual:
		if !id.IsNil(s.ID) {
			return apperror.NewValidation("manual entries cannot carry a source id")
		}
		return nil
	case SourceSale, SourceOrder, SourceTransfer, SourceReceipt, SourceWriteOff:
		if id.IsNil(s.ID) {
			return apperror.NewValidation("source id is required").WithDetail("source_type", string(s.Kind))
		}
		return nil
	default:
		return apperror.NewValidation(fmt.Sprintf("unknown source type %q", s.Kind))
	}
}

func (s Source) String() string {
	if !s.IsDerived() {
		return "manual"
	}
	return string(s.Kind) + ":" + s.ID.String()
}

// Entry is a persisted ledger row.
type Entry struct {
	ID   id.ID     `json:"id"`
	Type EntryType `json:"type"`

	// Amount is converted into CurrencyID (the register currency, or the
	// default currency for entries without register) and rounded.
	Amount     decimal.Decimal `json:"amount"`
	CurrencyID id.ID           `json:"currencyId"`

	OrigAmount     decimal.Decimal `json:"origAmount"`
	OrigCurrencyID id.ID           `json:"origCurrencyId"`

	CashRegisterID *id.ID `json:"cashRegisterId,omitempty"`
	CategoryID     *id.ID `json:"categoryId,omitempty"`
	ClientID       *id.ID `json:"clientId,omitempty"`
	ProjectID      *id.ID `json:"projectId,omitempty"`
	IsDebt         bool   `json:"isDebt"`

	Date      time.Time `json:"date"`
	Note      string    `json:"note,omitempty"`
	CreatedBy string    `json:"createdBy,omitempty"`
	Source    Source    `json:"source"`

	// Voided entries stay for history but no longer count in balances.
	Voided   bool       `json:"voided"`
	VoidedAt *time.Time `json:"voidedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Signed is the amount with the direction applied.
func (e *Entry) Signed() decimal.Decimal {
	return e.Amount.Mul(e.Type.Sign())
}

// Active reports whether the entry counts in balances.
func (e *Entry) Active() bool {
	return !e.Voided
}

// AffectsRegister reports whether the entry moves a register balance.
func (e *Entry) AffectsRegister() bool {
	return e.CashRegisterID != nil && e.Active()
}

// Draft is the input of Post and Repost.
type Draft struct {
	Type           EntryType
	OrigAmount     decimal.Decimal
	OrigCurrencyID id.ID
	CashRegisterID *id.ID
	CategoryID     *id.ID
	ClientID       *id.ID
	ProjectID      *id.ID
	IsDebt         bool
	Date           time.Time
	Note           string
	Source         Source
}

// Validate implements entity.Validatable.
func (d *Draft) Validate(ctx context.Context) error {
	if !d.Type.Valid() {
		return apperror.NewValidation("type must be income or expense").WithDetail("field", "type")
	}
	if d.OrigAmount.IsNegative() {
		return apperror.NewValidation("amount must not be negative").WithDetail("field", "amount")
	}
	if id.IsNil(d.OrigCurrencyID) {
		return apperror.NewValidation("currency is required").WithDetail("field", "currencyId")
	}
	if d.Date.IsZero() {
		d.Date = time.Now().UTC()
	}
	return d.Source.Validate()
}

// Filter narrows List.
type Filter struct {
	CashRegisterID *id.ID
	ClientID       *id.ID
	SourceKind     *SourceKind
	SourceID       *id.ID
	DateFrom       *time.Time
	DateTo         *time.Time
	IncludeVoided  bool
	Limit          int
	Offset         int
}
