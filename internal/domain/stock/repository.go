package stock

import (
	"context"

	"github.com/hasapchy/back-sub001/internal/core/id"
)

// Repository persists balances and the movement journal.
type Repository interface {
	// GetForUpdate locks the row, creating a zero row when it does not exist.
	GetForUpdate(ctx context.Context, warehouseID, productID id.ID) (*Balance, error)
	// Get returns a zero balance when the row does not exist.
	Get(ctx context.Context, warehouseID, productID id.ID) (*Balance, error)
	Save(ctx context.Context, b *Balance) error
	ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]*Balance, error)

	AddMovement(ctx context.Context, m *Movement) error
	Movements(ctx context.Context, f MovementFilter) ([]*Movement, error)
}

// Catalog resolves products and warehouses.
type Catalog interface {
	// GetProduct returns apperror NotFound when missing.
	GetProduct(ctx context.Context, productID id.ID) (*Product, error)
	GetWarehouse(ctx context.Context, warehouseID id.ID) (*Warehouse, error)
	CreateProduct(ctx context.Context, p *Product) error
	CreateWarehouse(ctx context.Context, w *Warehouse) error
	ListProducts(ctx context.Context) ([]*Product, error)
	ListWarehouses(ctx context.Context) ([]*Warehouse, error)
}
