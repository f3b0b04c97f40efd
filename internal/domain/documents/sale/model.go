// Package sale provides the Sale document: goods leave a warehouse and the
// customer pays into a register or owes the amount on their balance.
package sale

import (
	"context"

	"github.com/hasapchy/back-sub001/internal/core/entity"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/posting"
	"github.com/hasapchy/back-sub001/internal/domain/pricing"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
)

// Kind is the document kind used in recorders and events.
const Kind = "sale"

// Sale is a sale document.
type Sale struct {
	documents.Trade
}

// NewSale creates an empty cash sale.
func NewSale(actor string) *Sale {
	return &Sale{Trade: documents.Trade{
		Document:    entity.NewDocument(actor),
		PaymentType: documents.PaymentCash,
	}}
}

// Validate implements entity.Validatable. The client is optional for cash
// sales.
func (s *Sale) Validate(ctx context.Context) error {
	return s.Check(ctx, false)
}

func (s *Sale) Kind() string { return Kind }

func (s *Sale) Owner() ledger.Source {
	return ledger.From(ledger.SourceSale, s.ID)
}

// Plan decreases stock and posts income: cash into the register, balance
// sales add the amount to what the client owes.
func (s *Sale) Plan(ctx context.Context, pr *pricing.Pricer) (posting.Plan, error) {
	return s.Build(pr, documents.Recorder(s), s.Owner(), documents.Flow{
		EntryType:  ledger.Income,
		StockOp:    stock.OpSale,
		StockSign:  -1,
		ClientSign: 1,
	}), nil
}

var _ documents.Postable = (*Sale)(nil)
