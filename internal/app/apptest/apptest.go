// Package apptest builds an in-memory service graph for tests and offers
// short helpers to seed currencies, registers, clients and stock.
package apptest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/app"
	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/currency"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/memory"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

// Env is a seeded tenant with USD as its default currency.
type Env struct {
	t     *testing.T
	Ctx   context.Context
	Store *memory.Store
	Svc   *app.Services
	USD   *currency.Currency
}

// New wires a fresh store. opts may set an observer or a negative stock
// policy.
func New(t *testing.T, opts ...func(*app.Options)) *Env {
	t.Helper()

	var o app.Options
	for _, fn := range opts {
		fn(&o)
	}
	store := memory.NewStore()
	ctx := logger.WithLogger(context.Background(), logger.Nop())
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "tester", TenantID: "test", IsAdmin: true})

	e := &Env{t: t, Ctx: ctx, Store: store, Svc: memory.Wire(store, o)}
	usd, err := e.Svc.Currencies.Create(ctx, currency.CreateInput{Code: "USD", Name: "US Dollar", Symbol: "$", IsDefault: true})
	require.NoError(t, err)
	e.USD = usd
	return e
}

// D parses a decimal literal.
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Currency adds a currency trading at rate against USD.
func (e *Env) Currency(code, rate string) *currency.Currency {
	e.t.Helper()
	c, err := e.Svc.Currencies.Create(e.Ctx, currency.CreateInput{Code: code, Name: code, Rate: D(rate)})
	require.NoError(e.t, err)
	return c
}

// Register opens a register in currencyID.
func (e *Env) Register(name string, currencyID id.ID) id.ID {
	e.t.Helper()
	r, err := e.Svc.Registers.Create(e.Ctx, name, currencyID, nil)
	require.NoError(e.t, err)
	return r.ID
}

// Fund posts a manual income of amount in the register currency.
func (e *Env) Fund(registerID id.ID, amount string) {
	e.t.Helper()
	r, err := e.Svc.Registers.Get(e.Ctx, registerID)
	require.NoError(e.t, err)
	_, err = e.Svc.Transactions.Create(e.Ctx, ledger.Draft{
		Type:           ledger.Income,
		OrigAmount:     D(amount),
		OrigCurrencyID: r.CurrencyID,
		CashRegisterID: id.Ptr(registerID),
	})
	require.NoError(e.t, err)
}

// Client opens a zero balance for a new client.
func (e *Env) Client() id.ID {
	e.t.Helper()
	b, err := e.Svc.ClientBalances.Open(e.Ctx, id.New())
	require.NoError(e.t, err)
	return b.ClientID
}

func (e *Env) Warehouse(name string) id.ID {
	e.t.Helper()
	w, err := e.Svc.Stock.CreateWarehouse(e.Ctx, name)
	require.NoError(e.t, err)
	return w.ID
}

func (e *Env) Product(name string, tracked bool) id.ID {
	e.t.Helper()
	p, err := e.Svc.Stock.CreateProduct(e.Ctx, name, tracked)
	require.NoError(e.t, err)
	return p.ID
}

// Stock sets up qty of a product by a manual adjustment.
func (e *Env) Stock(warehouseID, productID id.ID, qty string) {
	e.t.Helper()
	_, err := e.Svc.Stock.AdjustStock(e.Ctx, warehouseID, productID, D(qty), "opening")
	require.NoError(e.t, err)
}

func (e *Env) RegisterBalance(registerID id.ID) decimal.Decimal {
	e.t.Helper()
	r, err := e.Svc.Registers.Get(e.Ctx, registerID)
	require.NoError(e.t, err)
	return r.Balance
}

func (e *Env) StockOf(warehouseID, productID id.ID) decimal.Decimal {
	e.t.Helper()
	b, err := e.Svc.Stock.Balance(e.Ctx, warehouseID, productID)
	require.NoError(e.t, err)
	return b.Quantity
}

func (e *Env) ClientBalance(clientID id.ID) decimal.Decimal {
	e.t.Helper()
	b, err := e.Svc.ClientBalances.Get(e.Ctx, clientID)
	require.NoError(e.t, err)
	return b.Balance
}

// Consistent asserts that every register balance equals its ledger sum.
func (e *Env) Consistent(registerIDs ...id.ID) {
	e.t.Helper()
	for _, rid := range registerIDs {
		rec, err := e.Svc.Registers.Reconcile(e.Ctx, rid)
		require.NoError(e.t, err)
		require.True(e.t, rec.Consistent(), "register %s drifted by %s", rid, rec.Drift)
	}
}

// Equal asserts decimal equality by value.
func Equal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, D(want).Equal(got), "want %s, got %s", want, got.String())
}
