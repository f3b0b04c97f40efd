package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
)

// StockRepo implements stock.Repository and stock.Catalog.
type StockRepo struct{ s *Store }

func NewStockRepo(s *Store) *StockRepo { return &StockRepo{s: s} }

func (r *StockRepo) GetForUpdate(_ context.Context, warehouseID, productID id.ID) (*stock.Balance, error) {
	k := stock.Key{WarehouseID: warehouseID, ProductID: productID}
	var out stock.Balance
	r.s.write(func(d *state) {
		b, ok := d.balances[k]
		if !ok {
			b = &stock.Balance{WarehouseID: warehouseID, ProductID: productID, Quantity: decimal.Zero, UpdatedAt: time.Now().UTC()}
			d.balances[k] = b
		}
		out = *b
	})
	return &out, nil
}

func (r *StockRepo) Get(_ context.Context, warehouseID, productID id.ID) (*stock.Balance, error) {
	k := stock.Key{WarehouseID: warehouseID, ProductID: productID}
	out := stock.Balance{WarehouseID: warehouseID, ProductID: productID, Quantity: decimal.Zero}
	r.s.read(func(d *state) {
		if b, ok := d.balances[k]; ok {
			out = *b
		}
	})
	return &out, nil
}

func (r *StockRepo) Save(_ context.Context, b *stock.Balance) error {
	cp := *b
	r.s.write(func(d *state) {
		d.balances[stock.Key{WarehouseID: b.WarehouseID, ProductID: b.ProductID}] = &cp
	})
	return nil
}

func (r *StockRepo) ListByWarehouse(_ context.Context, warehouseID id.ID) ([]*stock.Balance, error) {
	var out []*stock.Balance
	r.s.read(func(d *state) {
		for k, b := range d.balances {
			if k.WarehouseID == warehouseID {
				cp := *b
				out = append(out, &cp)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return id.Less(out[i].ProductID, out[j].ProductID) })
	return out, nil
}

func (r *StockRepo) AddMovement(_ context.Context, m *stock.Movement) error {
	cp := *m
	r.s.write(func(d *state) { d.movements = append(d.movements, &cp) })
	return nil
}

// Movements returns journal rows in insertion order.
func (r *StockRepo) Movements(_ context.Context, f stock.MovementFilter) ([]*stock.Movement, error) {
	var out []*stock.Movement
	r.s.read(func(d *state) {
		for _, m := range d.movements {
			switch {
			case f.WarehouseID != nil && m.WarehouseID != *f.WarehouseID:
				continue
			case f.ProductID != nil && m.ProductID != *f.ProductID:
				continue
			case f.Recorder != nil && (m.RecorderType != f.Recorder.Type || m.RecorderID != f.Recorder.ID):
				continue
			}
			cp := *m
			out = append(out, &cp)
		}
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *StockRepo) GetProduct(_ context.Context, productID id.ID) (*stock.Product, error) {
	var out *stock.Product
	r.s.read(func(d *state) {
		if p, ok := d.products[productID]; ok {
			cp := *p
			out = &cp
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return out, nil
}

func (r *StockRepo) GetWarehouse(_ context.Context, warehouseID id.ID) (*stock.Warehouse, error) {
	var out *stock.Warehouse
	r.s.read(func(d *state) {
		if w, ok := d.warehouses[warehouseID]; ok {
			cp := *w
			out = &cp
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("warehouse", warehouseID.String())
	}
	return out, nil
}

func (r *StockRepo) CreateProduct(_ context.Context, p *stock.Product) error {
	cp := *p
	r.s.write(func(d *state) { d.products[p.ID] = &cp })
	return nil
}

func (r *StockRepo) CreateWarehouse(_ context.Context, w *stock.Warehouse) error {
	cp := *w
	r.s.write(func(d *state) { d.warehouses[w.ID] = &cp })
	return nil
}

func (r *StockRepo) ListProducts(_ context.Context) ([]*stock.Product, error) {
	var out []*stock.Product
	r.s.read(func(d *state) {
		for _, p := range d.products {
			cp := *p
			out = append(out, &cp)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *StockRepo) ListWarehouses(_ context.Context) ([]*stock.Warehouse, error) {
	var out []*stock.Warehouse
	r.s.read(func(d *state) {
		for _, w := range d.warehouses {
			cp := *w
			out = append(out, &cp)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

var (
	_ stock.Repository = (*StockRepo)(nil)
	_ stock.Catalog    = (*StockRepo)(nil)
)
