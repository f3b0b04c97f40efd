package register_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

const (
	stockTable     = "warehouse_stocks"
	movementsTable = "stock_movements"
)

// StockRepo implements stock.Repository.
type StockRepo struct {
	balanceCols  []string
	movementCols []string
}

func NewStockRepo() *StockRepo {
	return &StockRepo{
		balanceCols:  postgres.ExtractDBColumns[stock.Balance](),
		movementCols: postgres.ExtractDBColumns[stock.Movement](),
	}
}

func (r *StockRepo) sel(warehouseID, productID id.ID) squirrel.SelectBuilder {
	return postgres.Builder().Select(r.balanceCols...).From(stockTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID, "product_id": productID})
}

// GetForUpdate inserts a zero row if needed so there is always a row to lock.
func (r *StockRepo) GetForUpdate(ctx context.Context, warehouseID, productID id.ID) (*stock.Balance, error) {
	ins := postgres.Builder().Insert(stockTable).
		Columns("warehouse_id", "product_id", "quantity", "updated_at").
		Values(warehouseID, productID, decimal.Zero, time.Now().UTC()).
		Suffix("ON CONFLICT (warehouse_id, product_id) DO NOTHING")
	if err := exec(ctx, ins, "stock", warehouseID, "ensure row", false); err != nil {
		return nil, err
	}
	return get[stock.Balance](ctx, r.sel(warehouseID, productID).Suffix("FOR UPDATE"), "stock", productID)
}

func (r *StockRepo) Get(ctx context.Context, warehouseID, productID id.ID) (*stock.Balance, error) {
	rows, err := list[stock.Balance](ctx, r.sel(warehouseID, productID), "stock")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &stock.Balance{WarehouseID: warehouseID, ProductID: productID, Quantity: decimal.Zero}, nil
	}
	return rows[0], nil
}

func (r *StockRepo) Save(ctx context.Context, b *stock.Balance) error {
	q := postgres.Builder().Insert(stockTable).SetMap(postgres.StructToMap(b)).
		Suffix("ON CONFLICT (warehouse_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at")
	return exec(ctx, q, "stock", b.ProductID, "save", false)
}

func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]*stock.Balance, error) {
	q := postgres.Builder().Select(r.balanceCols...).From(stockTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		OrderBy("product_id")
	return list[stock.Balance](ctx, q, "stock")
}

func (r *StockRepo) AddMovement(ctx context.Context, m *stock.Movement) error {
	data := postgres.StructToMap(m)
	row := make([]any, len(r.movementCols))
	for i, c := range r.movementCols {
		row[i] = data[c]
	}
	return postgres.CopyRows(ctx, movementsTable, r.movementCols, [][]any{row})
}

// Movements returns journal rows in insertion order.
func (r *StockRepo) Movements(ctx context.Context, f stock.MovementFilter) ([]*stock.Movement, error) {
	q := postgres.Builder().Select(r.movementCols...).From(movementsTable)
	if f.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *f.WarehouseID})
	}
	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	if f.Recorder != nil {
		q = q.Where(squirrel.Eq{"recorder_type": f.Recorder.Type, "recorder_id": f.Recorder.ID})
	}
	// ids are UUIDv7, ordered by creation
	q = page(q.OrderBy("id"), f.Limit, f.Offset)
	return list[stock.Movement](ctx, q, "stock_movements")
}

var _ stock.Repository = (*StockRepo)(nil)
