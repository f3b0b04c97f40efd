package sale_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/app/apptest"
	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/entity"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
)

type fixture struct {
	env       *apptest.Env
	x         id.ID
	register  id.ID
	warehouse id.ID
	product   id.ID
}

// setup seeds a register in the default currency, currency X at rate 2 and
// 10 units of a tracked product.
func setup(t *testing.T) *fixture {
	env := apptest.New(t)
	f := &fixture{
		env:       env,
		x:         env.Currency("XXX", "2").ID,
		register:  env.Register("default", env.USD.ID),
		warehouse: env.Warehouse("main"),
		product:   env.Product("widget", true),
	}
	env.Stock(f.warehouse, f.product, "10")
	return f
}

func (f *fixture) input(qty, price string) documents.TradeInput {
	return documents.TradeInput{
		WarehouseID:    f.warehouse,
		CashRegisterID: id.Ptr(f.register),
		CurrencyID:     f.x,
		PaymentType:    documents.PaymentCash,
		Discount:       documents.Discount{Kind: documents.DiscountPercent, Value: apptest.D("10")},
		Lines:          documents.Lines{{ProductID: f.product, Quantity: apptest.D(qty), Price: apptest.D(price)}},
	}
}

func TestCreate_DiscountedForeignCurrencySale(t *testing.T) {
	f := setup(t)

	s, err := f.env.Svc.Sales.Create(f.env.Ctx, f.input("2", "10"))
	require.NoError(t, err)

	apptest.Equal(t, "9", s.Amount)
	apptest.Equal(t, "9.00", f.env.RegisterBalance(f.register))
	apptest.Equal(t, "8", f.env.StockOf(f.warehouse, f.product))
	assert.Equal(t, entity.StatePosted, s.State())
	assert.Regexp(t, `^SL-\d{4}-\d{5}$`, s.Number)
	f.env.Consistent(f.register)

	require.NotNil(t, s.EntryID)
	e, err := f.env.Svc.Ledger.Get(f.env.Ctx, *s.EntryID)
	require.NoError(t, err)
	assert.Equal(t, ledger.From(ledger.SourceSale, s.ID), e.Source)
	apptest.Equal(t, "18", e.OrigAmount)
	assert.Equal(t, f.x, e.OrigCurrencyID)
}

func TestDelete_RestoresBalanceAndStock(t *testing.T) {
	f := setup(t)
	s, err := f.env.Svc.Sales.Create(f.env.Ctx, f.input("2", "10"))
	require.NoError(t, err)

	require.NoError(t, f.env.Svc.Sales.Delete(f.env.Ctx, s.ID))

	apptest.Equal(t, "0", f.env.RegisterBalance(f.register))
	apptest.Equal(t, "10", f.env.StockOf(f.warehouse, f.product))
	f.env.Consistent(f.register)

	_, err = f.env.Svc.Ledger.Get(f.env.Ctx, *s.EntryID)
	assert.True(t, apperror.IsNotFound(err))
	_, err = f.env.Svc.Sales.Get(f.env.Ctx, s.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdate_SameContentIsNoOp(t *testing.T) {
	f := setup(t)
	s, err := f.env.Svc.Sales.Create(f.env.Ctx, f.input("2", "10"))
	require.NoError(t, err)

	updated, err := f.env.Svc.Sales.Update(f.env.Ctx, s.ID, f.input("2", "10"), 0)
	require.NoError(t, err)

	assert.Equal(t, *s.EntryID, *updated.EntryID)
	assert.Equal(t, s.Number, updated.Number)
	assert.Equal(t, 2, updated.Revision)
	assert.Equal(t, entity.StateRevised, updated.State())
	apptest.Equal(t, "9", f.env.RegisterBalance(f.register))
	apptest.Equal(t, "8", f.env.StockOf(f.warehouse, f.product))
	f.env.Consistent(f.register)
}

func TestUpdate_SwitchToBalancePayment(t *testing.T) {
	f := setup(t)
	client := f.env.Client()
	s, err := f.env.Svc.Sales.Create(f.env.Ctx, f.input("2", "10"))
	require.NoError(t, err)

	in := f.input("2", "10")
	in.PaymentType = documents.PaymentBalance
	in.ClientID = id.Ptr(client)
	updated, err := f.env.Svc.Sales.Update(f.env.Ctx, s.ID, in, 0)
	require.NoError(t, err)

	assert.Nil(t, updated.CashRegisterID)
	apptest.Equal(t, "0", f.env.RegisterBalance(f.register))
	apptest.Equal(t, "9", f.env.ClientBalance(client))

	e, err := f.env.Svc.Ledger.Get(f.env.Ctx, *updated.EntryID)
	require.NoError(t, err)
	assert.True(t, e.IsDebt)
	assert.Nil(t, e.CashRegisterID)

	require.NoError(t, f.env.Svc.Sales.Delete(f.env.Ctx, s.ID))
	apptest.Equal(t, "0", f.env.ClientBalance(client))
	apptest.Equal(t, "10", f.env.StockOf(f.warehouse, f.product))
}

func TestCreate_InsufficientStockChangesNothing(t *testing.T) {
	f := setup(t)

	_, err := f.env.Svc.Sales.Create(f.env.Ctx, f.input("11", "10"))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))

	apptest.Equal(t, "10", f.env.StockOf(f.warehouse, f.product))
	apptest.Equal(t, "0", f.env.RegisterBalance(f.register))
	list, err := f.env.Svc.Sales.List(f.env.Ctx, documents.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
}

func TestCreate_UntrackedProductSkipsStock(t *testing.T) {
	f := setup(t)
	service := f.env.Product("delivery", false)

	in := f.input("1", "5")
	in.Lines = append(in.Lines, documents.Line{ProductID: service, Quantity: apptest.D("1"), Price: apptest.D("10")})
	s, err := f.env.Svc.Sales.Create(f.env.Ctx, in)
	require.NoError(t, err)

	// (5 + 10) * 0.9 / 2
	apptest.Equal(t, "6.75", s.Amount)
	moves, err := f.env.Svc.Stock.Movements(f.env.Ctx, stock.MovementFilter{Recorder: &stock.Recorder{Type: "sale", ID: s.ID}})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, f.product, moves[0].ProductID)
}

func TestCreate_CurrencyDefaultsToRegister(t *testing.T) {
	f := setup(t)
	in := f.input("1", "10")
	in.CurrencyID = id.Nil()
	in.Discount = documents.Discount{}

	s, err := f.env.Svc.Sales.Create(f.env.Ctx, in)
	require.NoError(t, err)
	assert.Equal(t, f.env.USD.ID, s.CurrencyID)
	apptest.Equal(t, "10", s.Amount)
}

func TestDerivedEntryCannotBeEditedDirectly(t *testing.T) {
	f := setup(t)
	s, err := f.env.Svc.Sales.Create(f.env.Ctx, f.input("2", "10"))
	require.NoError(t, err)

	err = f.env.Svc.Transactions.Delete(f.env.Ctx, *s.EntryID)
	assert.True(t, apperror.Is(err, apperror.CodeDerivedEntryImmutable))
	_, err = f.env.Svc.Transactions.Reverse(f.env.Ctx, *s.EntryID)
	assert.True(t, apperror.Is(err, apperror.CodeDerivedEntryImmutable))
	apptest.Equal(t, "9", f.env.RegisterBalance(f.register))
}

func TestValidation(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name   string
		mutate func(in *documents.TradeInput)
	}{
		{"no lines", func(in *documents.TradeInput) { in.Lines = nil }},
		{"zero quantity", func(in *documents.TradeInput) { in.Lines[0].Quantity = apptest.D("0") }},
		{"negative price", func(in *documents.TradeInput) { in.Lines[0].Price = apptest.D("-1") }},
		{"cash without register", func(in *documents.TradeInput) { in.CashRegisterID = nil }},
		{"balance without client", func(in *documents.TradeInput) { in.PaymentType = documents.PaymentBalance }},
		{"discount over 100", func(in *documents.TradeInput) { in.Discount.Value = apptest.D("101") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input("1", "10")
			tt.mutate(&in)
			_, err := f.env.Svc.Sales.Create(f.env.Ctx, in)
			assert.True(t, apperror.Is(err, apperror.CodeValidation), "got %v", err)
		})
	}
}

func TestCreate_UnknownClient(t *testing.T) {
	f := setup(t)
	in := f.input("1", "10")
	in.PaymentType = documents.PaymentBalance
	in.ClientID = id.Ptr(id.New())

	_, err := f.env.Svc.Sales.Create(f.env.Ctx, in)
	assert.True(t, apperror.IsNotFound(err))
	apptest.Equal(t, "10", f.env.StockOf(f.warehouse, f.product))
}
