package dto

import (
	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/id"
)

type CreateProductRequest struct {
	Name    string `json:"name" binding:"required"`
	Tracked *bool  `json:"tracked"`
}

// IsTracked defaults to true.
func (r CreateProductRequest) IsTracked() bool {
	return r.Tracked == nil || *r.Tracked
}

type CreateWarehouseRequest struct {
	Name string `json:"name" binding:"required"`
}

// StockAdjustmentRequest is a manual correction of one stock balance.
type StockAdjustmentRequest struct {
	WarehouseID id.ID           `json:"warehouseId" binding:"required"`
	ProductID   id.ID           `json:"productId" binding:"required"`
	Delta       decimal.Decimal `json:"delta" binding:"decimal_nonzero"`
	Note        string          `json:"note"`
}

// StockBalanceQuery selects the balances of one warehouse, or one product
// in it.
type StockBalanceQuery struct {
	WarehouseID string `form:"warehouseId" binding:"required,uuid"`
	ProductID   string `form:"productId" binding:"omitempty,uuid"`
}

// StockMovementQuery filters the movement journal.
type StockMovementQuery struct {
	PageQuery
	WarehouseID  string `form:"warehouseId" binding:"omitempty,uuid"`
	ProductID    string `form:"productId" binding:"omitempty,uuid"`
	RecorderType string `form:"recorderType"`
	RecorderID   string `form:"recorderId" binding:"required_with=RecorderType,omitempty,uuid"`
}
