package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/app/apptest"
	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
)

type fixture struct {
	env       *apptest.Env
	client    id.ID
	warehouse id.ID
	product   id.ID
}

func setup(t *testing.T) *fixture {
	env := apptest.New(t)
	f := &fixture{
		env:       env,
		client:    env.Client(),
		warehouse: env.Warehouse("main"),
		product:   env.Product("widget", true),
	}
	env.Stock(f.warehouse, f.product, "10")
	return f
}

func (f *fixture) input(qty string) documents.TradeInput {
	return documents.TradeInput{
		ClientID:    id.Ptr(f.client),
		WarehouseID: f.warehouse,
		Lines:       documents.Lines{{ProductID: f.product, Quantity: apptest.D(qty), Price: apptest.D("4")}},
	}
}

func TestUpdate_QuantityChangeMovesDifference(t *testing.T) {
	f := setup(t)

	o, err := f.env.Svc.Orders.Create(f.env.Ctx, f.input("3"))
	require.NoError(t, err)
	assert.Equal(t, documents.PaymentBalance, o.PaymentType)
	apptest.Equal(t, "7", f.env.StockOf(f.warehouse, f.product))
	apptest.Equal(t, "12", f.env.ClientBalance(f.client))

	updated, err := f.env.Svc.Orders.Update(f.env.Ctx, o.ID, f.input("5"), o.Version)
	require.NoError(t, err)

	apptest.Equal(t, "5", f.env.StockOf(f.warehouse, f.product))
	apptest.Equal(t, "20", f.env.ClientBalance(f.client))
	assert.Equal(t, *o.EntryID, *updated.EntryID)
	assert.Equal(t, o.Version+1, updated.Version)
}

func TestUpdate_StaleVersion(t *testing.T) {
	f := setup(t)
	o, err := f.env.Svc.Orders.Create(f.env.Ctx, f.input("3"))
	require.NoError(t, err)
	_, err = f.env.Svc.Orders.Update(f.env.Ctx, o.ID, f.input("4"), o.Version)
	require.NoError(t, err)

	_, err = f.env.Svc.Orders.Update(f.env.Ctx, o.ID, f.input("5"), o.Version)
	assert.True(t, apperror.IsConcurrentModification(err))
	apptest.Equal(t, "6", f.env.StockOf(f.warehouse, f.product))
}

func TestUpdate_FailureRollsBackRevert(t *testing.T) {
	f := setup(t)
	o, err := f.env.Svc.Orders.Create(f.env.Ctx, f.input("3"))
	require.NoError(t, err)

	// 3 come back, 11 are asked: still short by one
	_, err = f.env.Svc.Orders.Update(f.env.Ctx, o.ID, f.input("11"), 0)
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))

	apptest.Equal(t, "7", f.env.StockOf(f.warehouse, f.product))
	apptest.Equal(t, "12", f.env.ClientBalance(f.client))
	cur, err := f.env.Svc.Orders.Get(f.env.Ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cur.Revision)
}

func TestUpdate_UpToReleasedStock(t *testing.T) {
	f := setup(t)
	o, err := f.env.Svc.Orders.Create(f.env.Ctx, f.input("3"))
	require.NoError(t, err)

	_, err = f.env.Svc.Orders.Update(f.env.Ctx, o.ID, f.input("10"), 0)
	require.NoError(t, err)
	apptest.Equal(t, "0", f.env.StockOf(f.warehouse, f.product))
}

func TestCreate_RequiresClient(t *testing.T) {
	f := setup(t)
	in := f.input("1")
	in.ClientID = nil
	in.PaymentType = documents.PaymentCash
	in.CashRegisterID = id.Ptr(f.env.Register("main", f.env.USD.ID))

	_, err := f.env.Svc.Orders.Create(f.env.Ctx, in)
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestDelete_RestoresClientAndStock(t *testing.T) {
	f := setup(t)
	o, err := f.env.Svc.Orders.Create(f.env.Ctx, f.input("3"))
	require.NoError(t, err)

	require.NoError(t, f.env.Svc.Orders.Delete(f.env.Ctx, o.ID))
	apptest.Equal(t, "10", f.env.StockOf(f.warehouse, f.product))
	apptest.Equal(t, "0", f.env.ClientBalance(f.client))
}

func TestList_FiltersByClient(t *testing.T) {
	f := setup(t)
	other := f.env.Client()
	_, err := f.env.Svc.Orders.Create(f.env.Ctx, f.input("1"))
	require.NoError(t, err)
	in := f.input("1")
	in.ClientID = id.Ptr(other)
	_, err = f.env.Svc.Orders.Create(f.env.Ctx, in)
	require.NoError(t, err)

	res, err := f.env.Svc.Orders.List(f.env.Ctx, documents.ListFilter{ClientID: id.Ptr(other)})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, other, *res.Items[0].ClientID)
	assert.EqualValues(t, 1, res.TotalCount)
}
