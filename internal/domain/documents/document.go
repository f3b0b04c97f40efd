// Package documents holds what sales, orders, receipts, write-offs and
// movements share: item lines, discounts, payment types, the persisted
// posting effects and the create/update/delete lifecycle.
package documents

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/entity"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/posting"
	"github.com/hasapchy/back-sub001/internal/domain/pricing"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
)

// PaymentType selects where the money side of a document goes.
type PaymentType string

const (
	// PaymentCash posts into a cash register.
	PaymentCash PaymentType = "cash"
	// PaymentBalance posts against the client balance.
	PaymentBalance PaymentType = "balance"
)

func (p PaymentType) Valid() bool {
	return p == PaymentCash || p == PaymentBalance
}

// DiscountKind is how Discount.Value is read.
type DiscountKind string

const (
	DiscountNone    DiscountKind = ""
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

// Discount reduces the line total. Fixed values are in the document currency.
type Discount struct {
	Kind  DiscountKind    `db:"discount_kind" json:"kind,omitempty"`
	Value decimal.Decimal `db:"discount_value" json:"value"`
}

var hundred = decimal.NewFromInt(100)

// Validate implements entity.Validatable.
func (d Discount) Validate(ctx context.Context) error {
	switch d.Kind {
	case DiscountNone:
		return nil
	case DiscountPercent:
		if d.Value.IsNegative() || d.Value.GreaterThan(hundred) {
			return apperror.NewValidation("discount percent must be between 0 and 100").WithDetail("field", "discount")
		}
	case DiscountFixed:
		if d.Value.IsNegative() {
			return apperror.NewValidation("discount must not be negative").WithDetail("field", "discount")
		}
	default:
		return apperror.NewValidation("discount kind must be percent or fixed").WithDetail("field", "discount")
	}
	return nil
}

// Apply returns total after the discount, never below zero.
func (d Discount) Apply(total decimal.Decimal) decimal.Decimal {
	var out decimal.Decimal
	switch d.Kind {
	case DiscountPercent:
		out = total.Mul(hundred.Sub(d.Value)).Div(hundred)
	case DiscountFixed:
		out = total.Sub(d.Value)
	default:
		out = total
	}
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Line is one item row. Price is per unit in the document currency and is
// zero for write-offs and movements.
type Line struct {
	LineID    id.ID           `db:"line_id" json:"lineId"`
	LineNo    int             `db:"line_no" json:"lineNo"`
	ProductID id.ID           `db:"product_id" json:"productId"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`
}

// Amount is quantity times price.
func (l Line) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.Price)
}

// Lines is the table part of a document.
type Lines []Line

// Number assigns line numbers and ids to new rows.
func (ls Lines) Number() {
	for i := range ls {
		ls[i].LineNo = i + 1
		if id.IsNil(ls[i].LineID) {
			ls[i].LineID = id.New()
		}
	}
}

// Validate checks products and quantities. Prices are checked only when
// priced is set.
func (ls Lines) Validate(priced bool) error {
	if len(ls) == 0 {
		return apperror.NewValidation("at least one line is required").WithDetail("field", "lines")
	}
	for i, l := range ls {
		if id.IsNil(l.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !l.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if priced && l.Price.IsNegative() {
			return apperror.NewValidation("price must not be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}

// Total is the sum of line amounts.
func (ls Lines) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range ls {
		total = total.Add(l.Amount())
	}
	return total
}

// Rounded returns a copy with quantities rounded by the tenant policy.
func (ls Lines) Rounded(pr *pricing.Pricer) Lines {
	out := make(Lines, len(ls))
	for i, l := range ls {
		l.Quantity = pr.RoundQuantity(l.Quantity)
		out[i] = l
	}
	return out
}

// Adjustments turns lines into stock changes of sign in warehouseID.
func (ls Lines) Adjustments(warehouseID id.ID, op stock.Operation, sign int64) []stock.Adjustment {
	out := make([]stock.Adjustment, 0, len(ls))
	s := decimal.NewFromInt(sign)
	for _, l := range ls {
		out = append(out, stock.Adjustment{
			WarehouseID: warehouseID,
			ProductID:   l.ProductID,
			Delta:       l.Quantity.Mul(s),
			Operation:   op,
		})
	}
	return out
}

// Effects is what a posted document did to balances. It is persisted on the
// document row so revert undoes exactly that.
type Effects struct {
	EntryID     *id.ID          `db:"entry_id" json:"entryId,omitempty"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	ClientDelta decimal.Decimal `db:"client_delta" json:"clientDelta"`
	DeltaClient *id.ID          `db:"delta_client_id" json:"-"`
}

// Set stores the result of a posting.
func (e *Effects) Set(p posting.Posted) {
	e.EntryID = p.EntryID
	e.Amount = p.Amount
	e.ClientDelta = p.ClientDelta
	e.DeltaClient = p.ClientID
}

// Prior describes the current effect for the posting engine.
func (e Effects) Prior(rec stock.Recorder, owner ledger.Source) posting.Prior {
	return posting.Prior{
		Recorder:    rec,
		EntryID:     e.EntryID,
		Owner:       owner,
		ClientID:    e.DeltaClient,
		ClientDelta: e.ClientDelta,
	}
}

// Postable is implemented by every document kind.
type Postable interface {
	entity.Validatable

	// Doc exposes the embedded document header.
	Doc() *entity.Document
	// Kind names the document in stock recorders, events and errors.
	Kind() string
	// Owner is the ledger source of the document's entry.
	Owner() ledger.Source
	// Posted is the persisted posting result.
	Posted() *Effects
	// References lists the records the document points to.
	References() Refs
	// Plan computes everything the current content implies.
	Plan(ctx context.Context, pr *pricing.Pricer) (posting.Plan, error)
}

// Recorder is the stock recorder of a document.
func Recorder(d Postable) stock.Recorder {
	return stock.Recorder{Type: d.Kind(), ID: d.Doc().ID}
}

// Refs are checked before a document posts.
type Refs struct {
	Warehouses []id.ID
	Registers  []id.ID
	Clients    []id.ID
	Currencies []id.ID
}

// ListFilter narrows document lists.
type ListFilter struct {
	WarehouseID    *id.ID
	ClientID       *id.ID
	CashRegisterID *id.ID
	DateFrom       *time.Time
	DateTo         *time.Time
	Limit          int
	Offset         int
}

// ListResult is a page of documents.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
