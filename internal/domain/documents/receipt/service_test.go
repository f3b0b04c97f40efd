package receipt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/app/apptest"
	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
)

type fixture struct {
	env       *apptest.Env
	register  id.ID
	supplier  id.ID
	warehouse id.ID
	product   id.ID
}

func setup(t *testing.T) *fixture {
	env := apptest.New(t)
	f := &fixture{
		env:       env,
		register:  env.Register("main", env.USD.ID),
		supplier:  env.Client(),
		warehouse: env.Warehouse("main"),
		product:   env.Product("widget", true),
	}
	env.Fund(f.register, "100")
	return f
}

func (f *fixture) cash(qty string) documents.TradeInput {
	return documents.TradeInput{
		ClientID:       id.Ptr(f.supplier),
		WarehouseID:    f.warehouse,
		CashRegisterID: id.Ptr(f.register),
		PaymentType:    documents.PaymentCash,
		Lines:          documents.Lines{{ProductID: f.product, Quantity: apptest.D(qty), Price: apptest.D("2")}},
	}
}

func TestCreate_CashPaysFromRegister(t *testing.T) {
	f := setup(t)

	r, err := f.env.Svc.Receipts.Create(f.env.Ctx, f.cash("5"))
	require.NoError(t, err)

	assert.Regexp(t, `^RC-\d{4}-\d{5}$`, r.Number)
	apptest.Equal(t, "10", r.Amount)
	apptest.Equal(t, "90", f.env.RegisterBalance(f.register))
	apptest.Equal(t, "5", f.env.StockOf(f.warehouse, f.product))
	apptest.Equal(t, "0", f.env.ClientBalance(f.supplier))

	e, err := f.env.Svc.Ledger.Get(f.env.Ctx, *r.EntryID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Expense, e.Type)
	f.env.Consistent(f.register)
}

func TestCreate_BalanceCreditsSupplier(t *testing.T) {
	f := setup(t)
	in := f.cash("5")
	in.PaymentType = documents.PaymentBalance

	r, err := f.env.Svc.Receipts.Create(f.env.Ctx, in)
	require.NoError(t, err)

	assert.Nil(t, r.CashRegisterID)
	apptest.Equal(t, "-10", f.env.ClientBalance(f.supplier))
	apptest.Equal(t, "100", f.env.RegisterBalance(f.register))

	require.NoError(t, f.env.Svc.Receipts.Delete(f.env.Ctx, r.ID))
	apptest.Equal(t, "0", f.env.ClientBalance(f.supplier))
	apptest.Equal(t, "0", f.env.StockOf(f.warehouse, f.product))
}

func TestDelete_FailsWhenGoodsWereSold(t *testing.T) {
	f := setup(t)
	r, err := f.env.Svc.Receipts.Create(f.env.Ctx, f.cash("5"))
	require.NoError(t, err)

	_, err = f.env.Svc.Sales.Create(f.env.Ctx, documents.TradeInput{
		WarehouseID:    f.warehouse,
		CashRegisterID: id.Ptr(f.register),
		PaymentType:    documents.PaymentCash,
		Lines:          documents.Lines{{ProductID: f.product, Quantity: apptest.D("3"), Price: apptest.D("4")}},
	})
	require.NoError(t, err)

	err = f.env.Svc.Receipts.Delete(f.env.Ctx, r.ID)
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))

	apptest.Equal(t, "2", f.env.StockOf(f.warehouse, f.product))
	apptest.Equal(t, "102", f.env.RegisterBalance(f.register))
	_, err = f.env.Svc.Receipts.Get(f.env.Ctx, r.ID)
	assert.NoError(t, err)
	f.env.Consistent(f.register)
}

func TestUpdate_LowerQuantityTakesBackDifference(t *testing.T) {
	f := setup(t)
	r, err := f.env.Svc.Receipts.Create(f.env.Ctx, f.cash("5"))
	require.NoError(t, err)

	updated, err := f.env.Svc.Receipts.Update(f.env.Ctx, r.ID, f.cash("2"), r.Version)
	require.NoError(t, err)

	apptest.Equal(t, "4", updated.Amount)
	apptest.Equal(t, "2", f.env.StockOf(f.warehouse, f.product))
	apptest.Equal(t, "96", f.env.RegisterBalance(f.register))
	f.env.Consistent(f.register)
}

func TestUpdate_SucceedsAfterGoodsWereSold(t *testing.T) {
	f := setup(t)
	r, err := f.env.Svc.Receipts.Create(f.env.Ctx, f.cash("10"))
	require.NoError(t, err)

	_, err = f.env.Svc.Sales.Create(f.env.Ctx, documents.TradeInput{
		WarehouseID:    f.warehouse,
		CashRegisterID: id.Ptr(f.register),
		PaymentType:    documents.PaymentCash,
		Lines:          documents.Lines{{ProductID: f.product, Quantity: apptest.D("8"), Price: apptest.D("4")}},
	})
	require.NoError(t, err)
	apptest.Equal(t, "2", f.env.StockOf(f.warehouse, f.product))

	updated, err := f.env.Svc.Receipts.Update(f.env.Ctx, r.ID, f.cash("12"), r.Version)
	require.NoError(t, err)
	apptest.Equal(t, "4", f.env.StockOf(f.warehouse, f.product))
	apptest.Equal(t, "108", f.env.RegisterBalance(f.register))

	// 5 received against 8 sold would leave -3
	_, err = f.env.Svc.Receipts.Update(f.env.Ctx, r.ID, f.cash("5"), updated.Version)
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))
	apptest.Equal(t, "4", f.env.StockOf(f.warehouse, f.product))
	apptest.Equal(t, "108", f.env.RegisterBalance(f.register))
	f.env.Consistent(f.register)
}

func TestCreate_SupplierIsOptional(t *testing.T) {
	f := setup(t)
	in := f.cash("1")
	in.ClientID = nil

	_, err := f.env.Svc.Receipts.Create(f.env.Ctx, in)
	require.NoError(t, err)
	apptest.Equal(t, "1", f.env.StockOf(f.warehouse, f.product))
}
