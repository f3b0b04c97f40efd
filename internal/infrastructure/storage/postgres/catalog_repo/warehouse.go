package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

const (
	productTable   = "products"
	warehouseTable = "warehouses"
)

// StockCatalogRepo implements stock.Catalog.
type StockCatalogRepo struct {
	productCols   []string
	warehouseCols []string
}

func NewStockCatalogRepo() *StockCatalogRepo {
	return &StockCatalogRepo{
		productCols:   postgres.ExtractDBColumns[stock.Product](),
		warehouseCols: postgres.ExtractDBColumns[stock.Warehouse](),
	}
}

func (r *StockCatalogRepo) GetProduct(ctx context.Context, productID id.ID) (*stock.Product, error) {
	q := postgres.Builder().Select(r.productCols...).From(productTable).Where(squirrel.Eq{"id": productID})
	return getOne[stock.Product](ctx, q, "product", productID, false)
}

func (r *StockCatalogRepo) GetWarehouse(ctx context.Context, warehouseID id.ID) (*stock.Warehouse, error) {
	q := postgres.Builder().Select(r.warehouseCols...).From(warehouseTable).Where(squirrel.Eq{"id": warehouseID})
	return getOne[stock.Warehouse](ctx, q, "warehouse", warehouseID, false)
}

func (r *StockCatalogRepo) CreateProduct(ctx context.Context, p *stock.Product) error {
	return insert(ctx, productTable, "product", p)
}

func (r *StockCatalogRepo) CreateWarehouse(ctx context.Context, w *stock.Warehouse) error {
	return insert(ctx, warehouseTable, "warehouse", w)
}

func (r *StockCatalogRepo) ListProducts(ctx context.Context) ([]*stock.Product, error) {
	return selectAll[stock.Product](ctx, postgres.Builder().Select(r.productCols...).From(productTable).OrderBy("name"), "products")
}

func (r *StockCatalogRepo) ListWarehouses(ctx context.Context) ([]*stock.Warehouse, error) {
	return selectAll[stock.Warehouse](ctx, postgres.Builder().Select(r.warehouseCols...).From(warehouseTable).OrderBy("name"), "warehouses")
}

var _ stock.Catalog = (*StockCatalogRepo)(nil)
