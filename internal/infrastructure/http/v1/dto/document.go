package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/documents/movement"
	"github.com/hasapchy/back-sub001/internal/domain/documents/writeoff"
)

// LineRequest is one item row of a document.
type LineRequest struct {
	ProductID id.ID           `json:"productId" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"decimal_positive"`
	Price     decimal.Decimal `json:"price" binding:"decimal_non_negative"`
}

func toLines(in []LineRequest) documents.Lines {
	out := make(documents.Lines, 0, len(in))
	for _, l := range in {
		out = append(out, documents.Line{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price})
	}
	return out
}

func dateOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

type DiscountRequest struct {
	Kind  documents.DiscountKind `json:"kind" binding:"omitempty,oneof=percent fixed"`
	Value decimal.Decimal        `json:"value" binding:"decimal_non_negative"`
}

// TradeRequest is the body of sales, orders and receipts.
type TradeRequest struct {
	ClientID       *id.ID                `json:"clientId"`
	WarehouseID    id.ID                 `json:"warehouseId" binding:"required"`
	CashRegisterID *id.ID                `json:"cashRegisterId"`
	CurrencyID     *id.ID                `json:"currencyId"`
	PaymentType    documents.PaymentType `json:"paymentType" binding:"required,oneof=cash balance"`
	ProjectID      *id.ID                `json:"projectId"`
	Discount       *DiscountRequest      `json:"discount"`
	Lines          []LineRequest         `json:"lines" binding:"required,min=1,dive"`
	Date           *time.Time            `json:"date"`
	Note           string                `json:"note"`
	Version        int                   `json:"version" binding:"omitempty,min=1"`
}

func (r TradeRequest) Input() documents.TradeInput {
	in := documents.TradeInput{
		ClientID:       r.ClientID,
		WarehouseID:    r.WarehouseID,
		CashRegisterID: r.CashRegisterID,
		PaymentType:    r.PaymentType,
		ProjectID:      r.ProjectID,
		Lines:          toLines(r.Lines),
		Date:           dateOf(r.Date),
		Note:           r.Note,
	}
	if r.CurrencyID != nil {
		in.CurrencyID = *r.CurrencyID
	}
	if r.Discount != nil {
		in.Discount = documents.Discount{Kind: r.Discount.Kind, Value: r.Discount.Value}
	}
	return in
}

func (r TradeRequest) ExpectedVersion() int { return r.Version }

// WriteOffRequest is the body of write-offs.
type WriteOffRequest struct {
	WarehouseID id.ID         `json:"warehouseId" binding:"required"`
	Reason      string        `json:"reason"`
	Lines       []LineRequest `json:"lines" binding:"required,min=1,dive"`
	Date        *time.Time    `json:"date"`
	Note        string        `json:"note"`
	Version     int           `json:"version" binding:"omitempty,min=1"`
}

func (r WriteOffRequest) Input() writeoff.Input {
	return writeoff.Input{
		WarehouseID: r.WarehouseID,
		Reason:      r.Reason,
		Lines:       toLines(r.Lines),
		Date:        dateOf(r.Date),
		Note:        r.Note,
	}
}

func (r WriteOffRequest) ExpectedVersion() int { return r.Version }

// MovementRequest is the body of movements.
type MovementRequest struct {
	FromWarehouseID id.ID         `json:"fromWarehouseId" binding:"required"`
	ToWarehouseID   id.ID         `json:"toWarehouseId" binding:"required"`
	Lines           []LineRequest `json:"lines" binding:"required,min=1,dive"`
	Date            *time.Time    `json:"date"`
	Note            string        `json:"note"`
	Version         int           `json:"version" binding:"omitempty,min=1"`
}

func (r MovementRequest) Input() movement.Input {
	return movement.Input{
		FromWarehouseID: r.FromWarehouseID,
		ToWarehouseID:   r.ToWarehouseID,
		Lines:           toLines(r.Lines),
		Date:            dateOf(r.Date),
		Note:            r.Note,
	}
}

func (r MovementRequest) ExpectedVersion() int { return r.Version }

// DocumentQuery filters document lists.
type DocumentQuery struct {
	PageQuery
	WarehouseID    string `form:"warehouseId" binding:"omitempty,uuid"`
	ClientID       string `form:"clientId" binding:"omitempty,uuid"`
	CashRegisterID string `form:"cashRegisterId" binding:"omitempty,uuid"`
	DateFrom       string `form:"dateFrom"`
	DateTo         string `form:"dateTo"`
}
