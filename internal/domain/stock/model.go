// Package stock keeps warehouse stock per (warehouse, product) together with
// the movement journal that explains every change.
package stock

import (
	"bytes"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/id"
)

// Operation classifies a stock change.
type Operation string

const (
	OpSale            Operation = "sale"
	OpOrder           Operation = "order"
	OpWriteOff        Operation = "write_off"
	OpMovementOut     Operation = "movement_out"
	OpReceiptReversal Operation = "receipt_reversal"

	OpReceipt    Operation = "receipt"
	OpMovementIn Operation = "movement_in"
	OpReversal   Operation = "reversal"

	// OpAdjustment is a manual correction; only its decreases are checked.
	OpAdjustment Operation = "adjustment"
)

// Decreasing reports whether a negative result must be refused.
func (o Operation) Decreasing(delta decimal.Decimal) bool {
	switch o {
	case OpSale, OpOrder, OpWriteOff, OpMovementOut, OpReceiptReversal:
		return true
	case OpAdjustment:
		return delta.IsNegative()
	default:
		return false
	}
}

// Recorder identifies the document that caused movements.
type Recorder struct {
	Type string
	ID   id.ID
}

// Product is a stock item. Services are untracked and never touch stock.
type Product struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Tracked   bool      `db:"tracked" json:"tracked"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Warehouse is a stock location.
type Warehouse struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Balance is the stock of one product in one warehouse.
type Balance struct {
	WarehouseID id.ID           `db:"warehouse_id" json:"warehouseId"`
	ProductID   id.ID           `db:"product_id" json:"productId"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// Movement is one journal row. For every key, quantity equals the sum of
// movement deltas.
type Movement struct {
	ID           id.ID           `db:"id" json:"id"`
	WarehouseID  id.ID           `db:"warehouse_id" json:"warehouseId"`
	ProductID    id.ID           `db:"product_id" json:"productId"`
	Operation    Operation       `db:"operation" json:"operation"`
	Delta        decimal.Decimal `db:"delta" json:"delta"`
	Resulting    decimal.Decimal `db:"resulting" json:"resulting"`
	RecorderType string          `db:"recorder_type" json:"recorderType"`
	RecorderID   id.ID           `db:"recorder_id" json:"recorderId"`
	CreatedBy    string          `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}

// Adjustment is a requested change of one key.
type Adjustment struct {
	WarehouseID id.ID
	ProductID   id.ID
	Delta       decimal.Decimal
	Operation   Operation
}

// Key identifies a stock row.
type Key struct {
	WarehouseID id.ID
	ProductID   id.ID
}

func (a Adjustment) Key() Key {
	return Key{WarehouseID: a.WarehouseID, ProductID: a.ProductID}
}

// Less orders keys for lock acquisition.
func (k Key) Less(o Key) bool {
	if c := bytes.Compare(k.WarehouseID[:], o.WarehouseID[:]); c != 0 {
		return c < 0
	}
	return bytes.Compare(k.ProductID[:], o.ProductID[:]) < 0
}

// MovementFilter narrows journal queries.
type MovementFilter struct {
	WarehouseID *id.ID
	ProductID   *id.ID
	Recorder    *Recorder
	Limit       int
	Offset      int
}
