package documents

import (
	"context"
	"fmt"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/cashregister"
	"github.com/hasapchy/back-sub001/internal/domain/clientbalance"
	"github.com/hasapchy/back-sub001/internal/domain/currency"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
)

// WarehouseLookup resolves warehouses.
type WarehouseLookup interface {
	Warehouse(ctx context.Context, warehouseID id.ID) (*stock.Warehouse, error)
}

// RegisterLookup resolves registers and checks access to them.
type RegisterLookup interface {
	Get(ctx context.Context, registerID id.ID) (*cashregister.Register, error)
	Authorize(ctx context.Context, registerID id.ID) error
}

// ClientLookup resolves client balance rows.
type ClientLookup interface {
	Get(ctx context.Context, clientID id.ID) (*clientbalance.Balance, error)
}

// CurrencyLookup resolves currencies and the default one.
type CurrencyLookup interface {
	Get(ctx context.Context, currencyID id.ID) (*currency.Currency, error)
	Default(ctx context.Context) (*currency.Currency, error)
}

// Resolver checks document references and picks document currencies.
type Resolver struct {
	warehouses WarehouseLookup
	registers  RegisterLookup
	clients    ClientLookup
	currencies CurrencyLookup
}

func NewResolver(warehouses WarehouseLookup, registers RegisterLookup, clients ClientLookup, currencies CurrencyLookup) *Resolver {
	return &Resolver{
		warehouses: warehouses,
		registers:  registers,
		clients:    clients,
		currencies: currencies,
	}
}

// Check fails with NotFound (or UnknownCurrency) for a dangling reference
// and with Forbidden for a register the caller may not use.
func (r *Resolver) Check(ctx context.Context, refs Refs) error {
	for _, w := range id.SortUnique(refs.Warehouses) {
		if _, err := r.warehouses.Warehouse(ctx, w); err != nil {
			return notFound(err, "warehouse", w)
		}
	}
	for _, reg := range id.SortUnique(refs.Registers) {
		if _, err := r.registers.Get(ctx, reg); err != nil {
			return err
		}
		if err := r.registers.Authorize(ctx, reg); err != nil {
			return err
		}
	}
	for _, c := range id.SortUnique(refs.Clients) {
		if _, err := r.clients.Get(ctx, c); err != nil {
			return notFound(err, "client", c)
		}
	}
	for _, c := range id.SortUnique(refs.Currencies) {
		if _, err := r.currencies.Get(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// ResolveCurrency determines the currency of a document:
//  1. explicit currency in the document
//  2. currency of its cash register
//  3. the tenant default currency
func (r *Resolver) ResolveCurrency(ctx context.Context, explicit id.ID, registerID *id.ID) (id.ID, error) {
	if !id.IsNil(explicit) {
		return explicit, nil
	}

	if registerID != nil {
		reg, err := r.registers.Get(ctx, *registerID)
		if err != nil {
			return id.Nil(), err
		}
		return reg.CurrencyID, nil
	}

	def, err := r.currencies.Default(ctx)
	if err != nil {
		return id.Nil(), fmt.Errorf("determine currency: %w", err)
	}
	return def.ID, nil
}

func notFound(err error, entity string, ref id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(entity, ref.String())
	}
	return err
}
