package writeoff_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/app"
	"github.com/hasapchy/back-sub001/internal/app/apptest"
	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/documents/writeoff"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
)

func lines(product id.ID, qty string) documents.Lines {
	return documents.Lines{{ProductID: product, Quantity: apptest.D(qty)}}
}

func TestCreate_RemovesStockWithoutEntry(t *testing.T) {
	env := apptest.New(t)
	wh := env.Warehouse("main")
	p := env.Product("widget", true)
	env.Stock(wh, p, "10")

	w, err := env.Svc.WriteOffs.Create(env.Ctx, writeoff.Input{WarehouseID: wh, Reason: "damaged", Lines: lines(p, "4")})
	require.NoError(t, err)

	assert.Nil(t, w.EntryID)
	assert.Regexp(t, `^WO-\d{4}-\d{5}$`, w.Number)
	apptest.Equal(t, "6", env.StockOf(wh, p))

	moves, err := env.Svc.Stock.Movements(env.Ctx, stock.MovementFilter{Recorder: &stock.Recorder{Type: writeoff.Kind, ID: w.ID}})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, stock.OpWriteOff, moves[0].Operation)

	require.NoError(t, env.Svc.WriteOffs.Delete(env.Ctx, w.ID))
	apptest.Equal(t, "10", env.StockOf(wh, p))
}

func TestCreate_InsufficientStock(t *testing.T) {
	env := apptest.New(t)
	wh := env.Warehouse("main")
	p := env.Product("widget", true)
	env.Stock(wh, p, "2")

	_, err := env.Svc.WriteOffs.Create(env.Ctx, writeoff.Input{WarehouseID: wh, Lines: lines(p, "3")})
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))
	apptest.Equal(t, "2", env.StockOf(wh, p))

	res, err := env.Svc.WriteOffs.List(env.Ctx, documents.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestCreate_NegativeRuleTolerates(t *testing.T) {
	env := apptest.New(t, func(o *app.Options) {
		o.NegativePolicy = toleratesWriteOffs{}
	})
	wh := env.Warehouse("main")
	p := env.Product("widget", true)

	_, err := env.Svc.WriteOffs.Create(env.Ctx, writeoff.Input{WarehouseID: wh, Lines: lines(p, "3")})
	require.NoError(t, err)
	apptest.Equal(t, "-3", env.StockOf(wh, p))
}

type toleratesWriteOffs struct{}

func (toleratesWriteOffs) Tolerates(_ context.Context, c stock.Candidate) (bool, error) {
	return c.Operation == stock.OpWriteOff, nil
}

func TestUpdate_ChangesWarehouse(t *testing.T) {
	env := apptest.New(t)
	a := env.Warehouse("a")
	b := env.Warehouse("b")
	p := env.Product("widget", true)
	env.Stock(a, p, "5")
	env.Stock(b, p, "5")

	w, err := env.Svc.WriteOffs.Create(env.Ctx, writeoff.Input{WarehouseID: a, Lines: lines(p, "2")})
	require.NoError(t, err)

	updated, err := env.Svc.WriteOffs.Update(env.Ctx, w.ID, writeoff.Input{WarehouseID: b, Lines: lines(p, "1")}, w.Version)
	require.NoError(t, err)

	assert.Equal(t, w.Number, updated.Number)
	apptest.Equal(t, "5", env.StockOf(a, p))
	apptest.Equal(t, "4", env.StockOf(b, p))
}

func TestValidate(t *testing.T) {
	env := apptest.New(t)
	wh := env.Warehouse("main")

	tests := []struct {
		name string
		in   writeoff.Input
	}{
		{"no warehouse", writeoff.Input{Lines: lines(id.New(), "1")}},
		{"no lines", writeoff.Input{WarehouseID: wh}},
		{"zero quantity", writeoff.Input{WarehouseID: wh, Lines: lines(id.New(), "0")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Svc.WriteOffs.Create(env.Ctx, tt.in)
			assert.True(t, apperror.Is(err, apperror.CodeValidation), "got %v", err)
		})
	}
}
