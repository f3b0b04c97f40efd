// Package repos assembles the PostgreSQL repositories into a service graph.
package repos

import (
	"github.com/hasapchy/back-sub001/internal/app"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres/catalog_repo"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres/document_repo"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres/register_repo"
)

// New returns every repository. They resolve the tenant connection from
// context on each call, so one set serves all tenants.
func New() app.Repositories {
	return app.Repositories{
		Currencies:     catalog_repo.NewCurrencyRepo(),
		Rates:          catalog_repo.NewRateRepo(),
		Rounding:       catalog_repo.NewPolicyRepo(),
		Catalog:        catalog_repo.NewStockCatalogRepo(),
		Registers:      register_repo.NewCashRegisterRepo(),
		Ledger:         register_repo.NewLedgerRepo(),
		ClientBalances: register_repo.NewClientBalanceRepo(),
		Stock:          register_repo.NewStockRepo(),
		Transfers:      register_repo.NewTransferRepo(),
		Sales:          document_repo.NewSaleRepo(),
		Orders:         document_repo.NewOrderRepo(),
		Receipts:       document_repo.NewReceiptRepo(),
		WriteOffs:      document_repo.NewWriteOffRepo(),
		Movements:      document_repo.NewMovementRepo(),
	}
}

// Wire builds the service graph used by the server. The transaction manager
// stays nil and is taken from the request context.
func Wire(auditLog *postgres.AuditLog, opts app.Options) *app.Services {
	opts.TxManager = nil
	if opts.Events == nil {
		opts.Events = postgres.NewOutboxPublisher()
	}
	if opts.Audit == nil && auditLog != nil {
		opts.Audit = auditLog
	}
	return app.Wire(New(), opts)
}
