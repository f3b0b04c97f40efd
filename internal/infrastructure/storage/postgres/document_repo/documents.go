package document_repo

import (
	"github.com/Masterminds/squirrel"

	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/documents/movement"
	"github.com/hasapchy/back-sub001/internal/domain/documents/order"
	"github.com/hasapchy/back-sub001/internal/domain/documents/receipt"
	"github.com/hasapchy/back-sub001/internal/domain/documents/sale"
	"github.com/hasapchy/back-sub001/internal/domain/documents/writeoff"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

func NewSaleRepo() *BaseDocumentRepo[*sale.Sale] {
	return NewBaseDocumentRepo("sales", "sale_items", sale.Kind,
		postgres.ExtractDBColumns[sale.Sale](),
		func() *sale.Sale { return &sale.Sale{} },
		func(d *sale.Sale) *documents.Lines { return &d.Lines },
		tradeFilter,
	)
}

func NewOrderRepo() *BaseDocumentRepo[*order.Order] {
	return NewBaseDocumentRepo("orders", "order_items", order.Kind,
		postgres.ExtractDBColumns[order.Order](),
		func() *order.Order { return &order.Order{} },
		func(d *order.Order) *documents.Lines { return &d.Lines },
		tradeFilter,
	)
}

func NewReceiptRepo() *BaseDocumentRepo[*receipt.Receipt] {
	return NewBaseDocumentRepo("receipts", "receipt_items", receipt.Kind,
		postgres.ExtractDBColumns[receipt.Receipt](),
		func() *receipt.Receipt { return &receipt.Receipt{} },
		func(d *receipt.Receipt) *documents.Lines { return &d.Lines },
		tradeFilter,
	)
}

func NewWriteOffRepo() *BaseDocumentRepo[*writeoff.WriteOff] {
	return NewBaseDocumentRepo("write_offs", "write_off_items", writeoff.Kind,
		postgres.ExtractDBColumns[writeoff.WriteOff](),
		func() *writeoff.WriteOff { return &writeoff.WriteOff{} },
		func(d *writeoff.WriteOff) *documents.Lines { return &d.Lines },
		func(q squirrel.SelectBuilder, f documents.ListFilter) (squirrel.SelectBuilder, bool) {
			if f.ClientID != nil || f.CashRegisterID != nil {
				return q, false
			}
			if f.WarehouseID != nil {
				q = q.Where(squirrel.Eq{"warehouse_id": *f.WarehouseID})
			}
			return q, true
		},
	)
}

func NewMovementRepo() *BaseDocumentRepo[*movement.Movement] {
	return NewBaseDocumentRepo("movements", "movement_items", movement.Kind,
		postgres.ExtractDBColumns[movement.Movement](),
		func() *movement.Movement { return &movement.Movement{} },
		func(d *movement.Movement) *documents.Lines { return &d.Lines },
		func(q squirrel.SelectBuilder, f documents.ListFilter) (squirrel.SelectBuilder, bool) {
			if f.ClientID != nil || f.CashRegisterID != nil {
				return q, false
			}
			if f.WarehouseID != nil {
				q = q.Where(squirrel.Or{
					squirrel.Eq{"from_warehouse_id": *f.WarehouseID},
					squirrel.Eq{"to_warehouse_id": *f.WarehouseID},
				})
			}
			return q, true
		},
	)
}

func tradeFilter(q squirrel.SelectBuilder, f documents.ListFilter) (squirrel.SelectBuilder, bool) {
	if f.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *f.WarehouseID})
	}
	if f.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *f.ClientID})
	}
	if f.CashRegisterID != nil {
		q = q.Where(squirrel.Eq{"cash_register_id": *f.CashRegisterID})
	}
	return q, true
}

var (
	_ sale.Repository     = (*BaseDocumentRepo[*sale.Sale])(nil)
	_ order.Repository    = (*BaseDocumentRepo[*order.Order])(nil)
	_ receipt.Repository  = (*BaseDocumentRepo[*receipt.Receipt])(nil)
	_ writeoff.Repository = (*BaseDocumentRepo[*writeoff.WriteOff])(nil)
	_ movement.Repository = (*BaseDocumentRepo[*movement.Movement])(nil)
)
