// Package order provides the client Order document. An order always belongs
// to a client and by default is settled against the client balance.
package order

import (
	"context"

	"github.com/hasapchy/back-sub001/internal/core/entity"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/posting"
	"github.com/hasapchy/back-sub001/internal/domain/pricing"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
)

const Kind = "order"

// Order is a client order.
type Order struct {
	documents.Trade
}

// NewOrder creates an empty balance-paid order.
func NewOrder(actor string) *Order {
	return &Order{Trade: documents.Trade{
		Document:    entity.NewDocument(actor),
		PaymentType: documents.PaymentBalance,
	}}
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if o.PaymentType == "" {
		o.PaymentType = documents.PaymentBalance
	}
	return o.Check(ctx, true)
}

func (o *Order) Kind() string { return Kind }

func (o *Order) Owner() ledger.Source {
	return ledger.From(ledger.SourceOrder, o.ID)
}

func (o *Order) Plan(ctx context.Context, pr *pricing.Pricer) (posting.Plan, error) {
	return o.Build(pr, documents.Recorder(o), o.Owner(), documents.Flow{
		EntryType:  ledger.Income,
		StockOp:    stock.OpOrder,
		StockSign:  -1,
		ClientSign: 1,
	}), nil
}

var _ documents.Postable = (*Order)(nil)
