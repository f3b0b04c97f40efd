package memory

import (
	"github.com/hasapchy/back-sub001/internal/app"
	"github.com/hasapchy/back-sub001/pkg/numerator"
)

// Repositories returns every repository backed by s.
func Repositories(s *Store) app.Repositories {
	st := NewStockRepo(s)
	return app.Repositories{
		Currencies:     NewCurrencyRepo(s),
		Rates:          NewRateRepo(s),
		Rounding:       NewPolicyRepo(s),
		Registers:      NewRegisterRepo(s),
		Ledger:         NewLedgerRepo(s),
		ClientBalances: NewClientBalanceRepo(s),
		Stock:          st,
		Catalog:        st,
		Transfers:      NewTransferRepo(s),
		Sales:          NewSaleRepo(s),
		Orders:         NewOrderRepo(s),
		Receipts:       NewReceiptRepo(s),
		WriteOffs:      NewWriteOffRepo(s),
		Movements:      NewMovementRepo(s),
	}
}

// Wire builds a complete service graph on s with in-memory events, audit
// and numbering. opts may override the observer and the negative stock
// policy.
func Wire(s *Store, opts app.Options) *app.Services {
	opts.TxManager = s
	if opts.Events == nil {
		opts.Events = NewPublisher(s)
	}
	if opts.Audit == nil {
		opts.Audit = NewAuditRecorder(s)
	}
	if opts.Numerator == nil {
		opts.Numerator = numerator.New(NewSequences())
	}
	return app.Wire(Repositories(s), opts)
}
