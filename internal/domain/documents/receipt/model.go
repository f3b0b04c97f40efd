// Package receipt provides the goods Receipt document: stock arrives from a
// supplier who is paid in cash or credited on their balance.
package receipt

import (
	"context"

	"github.com/hasapchy/back-sub001/internal/core/entity"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/posting"
	"github.com/hasapchy/back-sub001/internal/domain/pricing"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
)

const Kind = "receipt"

// Receipt is a goods receipt. ClientID is the supplier.
type Receipt struct {
	documents.Trade
}

func NewReceipt(actor string) *Receipt {
	return &Receipt{Trade: documents.Trade{
		Document:    entity.NewDocument(actor),
		PaymentType: documents.PaymentCash,
	}}
}

// Validate implements entity.Validatable.
func (r *Receipt) Validate(ctx context.Context) error {
	return r.Check(ctx, false)
}

func (r *Receipt) Kind() string { return Kind }

func (r *Receipt) Owner() ledger.Source {
	return ledger.From(ledger.SourceReceipt, r.ID)
}

// Plan increases stock and posts an expense. A balance receipt lowers the
// supplier balance: the business owes them.
func (r *Receipt) Plan(ctx context.Context, pr *pricing.Pricer) (posting.Plan, error) {
	return r.Build(pr, documents.Recorder(r), r.Owner(), documents.Flow{
		EntryType:  ledger.Expense,
		StockOp:    stock.OpReceipt,
		StockSign:  1,
		ClientSign: -1,
	}), nil
}

var _ documents.Postable = (*Receipt)(nil)
