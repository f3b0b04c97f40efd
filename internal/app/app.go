// Package app wires repositories into the ledger services. The HTTP router,
// the seed tool and the domain tests build their service graph here.
package app

import (
	"github.com/hasapchy/back-sub001/internal/core/tx"
	"github.com/hasapchy/back-sub001/internal/domain/audit"
	"github.com/hasapchy/back-sub001/internal/domain/cashregister"
	"github.com/hasapchy/back-sub001/internal/domain/clientbalance"
	"github.com/hasapchy/back-sub001/internal/domain/currency"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/documents/movement"
	"github.com/hasapchy/back-sub001/internal/domain/documents/order"
	"github.com/hasapchy/back-sub001/internal/domain/documents/receipt"
	"github.com/hasapchy/back-sub001/internal/domain/documents/sale"
	"github.com/hasapchy/back-sub001/internal/domain/documents/writeoff"
	"github.com/hasapchy/back-sub001/internal/domain/events"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/posting"
	"github.com/hasapchy/back-sub001/internal/domain/pricing"
	"github.com/hasapchy/back-sub001/internal/domain/rounding"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
	"github.com/hasapchy/back-sub001/internal/domain/transactions"
	"github.com/hasapchy/back-sub001/internal/domain/transfer"
	"github.com/hasapchy/back-sub001/pkg/numerator"
)

// Repositories is the storage a service graph runs on.
type Repositories struct {
	Currencies     currency.Repository
	Rates          currency.RateRepository
	Rounding       rounding.Repository
	Registers      cashregister.Repository
	Ledger         ledger.Repository
	ClientBalances clientbalance.Repository
	Stock          stock.Repository
	Catalog        stock.Catalog
	Transfers      transfer.Repository

	Sales     sale.Repository
	Orders    order.Repository
	Receipts  receipt.Repository
	WriteOffs writeoff.Repository
	Movements movement.Repository
}

// Options carries the cross-cutting collaborators. Nil fields fall back to
// no-op implementations; a nil TxManager resolves the tenant manager from
// context on every call.
type Options struct {
	TxManager      tx.Manager
	Events         events.Publisher
	Audit          audit.Recorder
	Observer       posting.Observer
	NegativePolicy stock.NegativePolicy
	Numerator      numerator.Generator
}

// Services is the wired service graph.
type Services struct {
	Currencies     *currency.Service
	Rounding       *rounding.Service
	Pricing        *pricing.Service
	Registers      *cashregister.Service
	Ledger         *ledger.Service
	ClientBalances *clientbalance.Service
	Stock          *stock.Service
	Engine         *posting.Engine
	Transactions   *transactions.Service
	Transfers      *transfer.Service
	Resolver       *documents.Resolver

	Sales     *sale.Service
	Orders    *order.Service
	Receipts  *receipt.Service
	WriteOffs *writeoff.Service
	Movements *movement.Service
}

// Wire builds every service over repos.
func Wire(repos Repositories, opts Options) *Services {
	s := &Services{}

	s.Currencies = currency.NewService(repos.Currencies, repos.Rates, opts.Events, opts.TxManager)
	s.Rounding = rounding.NewService(repos.Rounding, opts.TxManager)
	s.Pricing = pricing.NewService(currency.NewConverter(s.Currencies), s.Rounding)

	s.Registers = cashregister.NewService(repos.Registers, repos.Ledger, s.Currencies, opts.TxManager)
	s.Ledger = ledger.NewService(repos.Ledger, s.Registers, s.Currencies)
	s.ClientBalances = clientbalance.NewService(repos.ClientBalances, opts.TxManager)
	s.Stock = stock.NewService(repos.Stock, repos.Catalog, opts.NegativePolicy, opts.TxManager)

	s.Engine = posting.NewEngine(posting.Deps{
		Ledger:    s.Ledger,
		Registers: s.Registers,
		Clients:   s.ClientBalances,
		Stock:     s.Stock,
		Pricing:   s.Pricing,
		Events:    opts.Events,
		Audit:     opts.Audit,
		Observer:  opts.Observer,
		TxManager: opts.TxManager,
	})
	s.Transactions = transactions.NewService(s.Engine, s.Ledger, s.Registers)
	s.Transfers = transfer.NewService(repos.Transfers, s.Engine, s.Ledger, s.Registers)

	s.Resolver = documents.NewResolver(s.Stock, s.Registers, s.ClientBalances, s.Currencies)
	gen := opts.Numerator
	if gen == nil {
		gen = numerator.NewFromContext()
	}
	s.Sales = sale.NewService(repos.Sales, s.Engine, s.Resolver, gen)
	s.Orders = order.NewService(repos.Orders, s.Engine, s.Resolver, gen)
	s.Receipts = receipt.NewService(repos.Receipts, s.Engine, s.Resolver, gen)
	s.WriteOffs = writeoff.NewService(repos.WriteOffs, s.Engine, s.Resolver, gen)
	s.Movements = movement.NewService(repos.Movements, s.Engine, s.Resolver, gen)

	return s
}
