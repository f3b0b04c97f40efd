package movement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/app/apptest"
	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/documents/movement"
	"github.com/hasapchy/back-sub001/internal/domain/documents/writeoff"
)

type fixture struct {
	env     *apptest.Env
	from    id.ID
	to      id.ID
	product id.ID
}

func setup(t *testing.T) *fixture {
	env := apptest.New(t)
	f := &fixture{
		env:     env,
		from:    env.Warehouse("main"),
		to:      env.Warehouse("shop"),
		product: env.Product("widget", true),
	}
	env.Stock(f.from, f.product, "10")
	return f
}

func (f *fixture) input(qty string) movement.Input {
	return movement.Input{
		FromWarehouseID: f.from,
		ToWarehouseID:   f.to,
		Lines:           documents.Lines{{ProductID: f.product, Quantity: apptest.D(qty)}},
	}
}

func (f *fixture) total() string {
	return f.env.StockOf(f.from, f.product).Add(f.env.StockOf(f.to, f.product)).String()
}

func TestCreate_KeepsTotal(t *testing.T) {
	f := setup(t)

	m, err := f.env.Svc.Movements.Create(f.env.Ctx, f.input("4"))
	require.NoError(t, err)

	assert.Nil(t, m.EntryID)
	apptest.Equal(t, "6", f.env.StockOf(f.from, f.product))
	apptest.Equal(t, "4", f.env.StockOf(f.to, f.product))
	assert.Equal(t, "10", f.total())
}

func TestUpdate_AndDelete(t *testing.T) {
	f := setup(t)
	m, err := f.env.Svc.Movements.Create(f.env.Ctx, f.input("4"))
	require.NoError(t, err)

	_, err = f.env.Svc.Movements.Update(f.env.Ctx, m.ID, f.input("7"), 0)
	require.NoError(t, err)
	apptest.Equal(t, "3", f.env.StockOf(f.from, f.product))
	apptest.Equal(t, "7", f.env.StockOf(f.to, f.product))

	require.NoError(t, f.env.Svc.Movements.Delete(f.env.Ctx, m.ID))
	apptest.Equal(t, "10", f.env.StockOf(f.from, f.product))
	apptest.Equal(t, "0", f.env.StockOf(f.to, f.product))
}

func TestDelete_FailsWhenMovedGoodsAreGone(t *testing.T) {
	f := setup(t)
	m, err := f.env.Svc.Movements.Create(f.env.Ctx, f.input("4"))
	require.NoError(t, err)
	f.env.Stock(f.to, f.product, "-3")

	err = f.env.Svc.Movements.Delete(f.env.Ctx, m.ID)
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))
	apptest.Equal(t, "1", f.env.StockOf(f.to, f.product))
	assert.Equal(t, "7", f.total())
}

func TestUpdate_SucceedsAfterMovedGoodsWereWrittenOff(t *testing.T) {
	f := setup(t)
	m, err := f.env.Svc.Movements.Create(f.env.Ctx, f.input("5"))
	require.NoError(t, err)

	_, err = f.env.Svc.WriteOffs.Create(f.env.Ctx, writeoff.Input{
		WarehouseID: f.to,
		Reason:      "damaged",
		Lines:       documents.Lines{{ProductID: f.product, Quantity: apptest.D("5")}},
	})
	require.NoError(t, err)
	apptest.Equal(t, "0", f.env.StockOf(f.to, f.product))

	_, err = f.env.Svc.Movements.Update(f.env.Ctx, m.ID, f.input("6"), 0)
	require.NoError(t, err)
	apptest.Equal(t, "4", f.env.StockOf(f.from, f.product))
	apptest.Equal(t, "1", f.env.StockOf(f.to, f.product))

	// moving 3 against 5 written off would leave the shop at -2
	_, err = f.env.Svc.Movements.Update(f.env.Ctx, m.ID, f.input("3"), 0)
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))
	apptest.Equal(t, "4", f.env.StockOf(f.from, f.product))
	apptest.Equal(t, "1", f.env.StockOf(f.to, f.product))
}

func TestCreate_SameWarehouse(t *testing.T) {
	f := setup(t)
	in := f.input("1")
	in.ToWarehouseID = f.from

	_, err := f.env.Svc.Movements.Create(f.env.Ctx, in)
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestCreate_InsufficientStock(t *testing.T) {
	f := setup(t)

	_, err := f.env.Svc.Movements.Create(f.env.Ctx, f.input("11"))
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))
	assert.Equal(t, "10", f.total())
}

func TestList_ByEitherWarehouse(t *testing.T) {
	f := setup(t)
	_, err := f.env.Svc.Movements.Create(f.env.Ctx, f.input("1"))
	require.NoError(t, err)

	for _, wh := range []id.ID{f.from, f.to} {
		res, err := f.env.Svc.Movements.List(f.env.Ctx, documents.ListFilter{WarehouseID: id.Ptr(wh)})
		require.NoError(t, err)
		assert.Len(t, res.Items, 1)
	}
	res, err := f.env.Svc.Movements.List(f.env.Ctx, documents.ListFilter{WarehouseID: id.Ptr(id.New())})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}
