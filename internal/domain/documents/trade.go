package documents

import (
	"context"
	"time"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/entity"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/posting"
	"github.com/hasapchy/back-sub001/internal/domain/pricing"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
)

// Trade is the shape shared by sales, orders and receipts: goods moving
// through one warehouse against money in a register or a client balance.
type Trade struct {
	entity.Document

	ClientID       *id.ID      `db:"client_id" json:"clientId,omitempty"`
	WarehouseID    id.ID       `db:"warehouse_id" json:"warehouseId"`
	CashRegisterID *id.ID      `db:"cash_register_id" json:"cashRegisterId,omitempty"`
	CurrencyID     id.ID       `db:"currency_id" json:"currencyId"`
	PaymentType    PaymentType `db:"payment_type" json:"paymentType"`
	ProjectID      *id.ID      `db:"project_id" json:"projectId,omitempty"`

	Discount
	Effects

	Lines Lines `db:"-" json:"lines"`
}

func (t *Trade) Doc() *entity.Document { return &t.Document }

func (t *Trade) Posted() *Effects { return &t.Effects }

// Check validates the trade header and lines. Balance payments drop the
// register: they never touch one.
func (t *Trade) Check(ctx context.Context, requireClient bool) error {
	if err := t.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(t.WarehouseID) {
		return apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}
	if id.IsNil(t.CurrencyID) {
		return apperror.NewValidation("currency is required").WithDetail("field", "currencyId")
	}
	if requireClient && t.ClientID == nil {
		return apperror.NewValidation("client is required").WithDetail("field", "clientId")
	}

	switch t.PaymentType {
	case PaymentCash:
		if t.CashRegisterID == nil {
			return apperror.NewValidation("cash register is required for cash payment").
				WithDetail("field", "cashRegisterId")
		}
	case PaymentBalance:
		if t.ClientID == nil {
			return apperror.NewValidation("client is required for balance payment").
				WithDetail("field", "clientId")
		}
		t.CashRegisterID = nil
	default:
		return apperror.NewValidation("payment type must be cash or balance").WithDetail("field", "paymentType")
	}

	if err := t.Discount.Validate(ctx); err != nil {
		return err
	}
	t.Lines.Number()
	return t.Lines.Validate(true)
}

func (t *Trade) References() Refs {
	r := Refs{
		Warehouses: []id.ID{t.WarehouseID},
		Currencies: []id.ID{t.CurrencyID},
	}
	if t.CashRegisterID != nil {
		r.Registers = append(r.Registers, *t.CashRegisterID)
	}
	if t.ClientID != nil {
		r.Clients = append(r.Clients, *t.ClientID)
	}
	return r
}

// Flow fixes the directions a document kind posts with.
type Flow struct {
	EntryType  ledger.EntryType
	StockOp    stock.Operation
	StockSign  int64
	ClientSign int64
}

// Build makes the posting plan. The entry amount is the discounted total in
// the document currency; the ledger converts and rounds it once.
func (t *Trade) Build(pr *pricing.Pricer, rec stock.Recorder, owner ledger.Source, flow Flow) posting.Plan {
	lines := t.Lines.Rounded(pr)

	p := posting.Plan{
		Recorder: rec,
		Stock:    lines.Adjustments(t.WarehouseID, flow.StockOp, flow.StockSign),
	}
	d := &ledger.Draft{
		Type:           flow.EntryType,
		OrigAmount:     t.Discount.Apply(lines.Total()),
		OrigCurrencyID: t.CurrencyID,
		ClientID:       t.ClientID,
		ProjectID:      t.ProjectID,
		Date:           t.Date,
		Note:           t.Note,
		Source:         owner,
	}
	switch t.PaymentType {
	case PaymentCash:
		d.CashRegisterID = t.CashRegisterID
	case PaymentBalance:
		d.IsDebt = true
		p.Client = &posting.ClientEffect{ClientID: *t.ClientID, Sign: flow.ClientSign}
	}
	p.Entry = d
	return p
}

// TradeInput is the user-supplied content of a trade document.
type TradeInput struct {
	ClientID       *id.ID
	WarehouseID    id.ID
	CashRegisterID *id.ID
	CurrencyID     id.ID
	PaymentType    PaymentType
	ProjectID      *id.ID
	Discount       Discount
	Lines          Lines
	Date           time.Time
	Note           string
}

// Fill copies in into t.
func (in TradeInput) Fill(t *Trade) {
	t.ClientID = in.ClientID
	t.WarehouseID = in.WarehouseID
	t.CashRegisterID = in.CashRegisterID
	t.CurrencyID = in.CurrencyID
	t.PaymentType = in.PaymentType
	t.ProjectID = in.ProjectID
	t.Discount = in.Discount
	t.Lines = append(Lines(nil), in.Lines...)
	if !in.Date.IsZero() {
		t.Date = in.Date
	}
	t.Note = in.Note
}
