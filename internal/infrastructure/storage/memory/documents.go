package memory

import (
	"context"
	"sort"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/entity"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/documents/movement"
	"github.com/hasapchy/back-sub001/internal/domain/documents/order"
	"github.com/hasapchy/back-sub001/internal/domain/documents/receipt"
	"github.com/hasapchy/back-sub001/internal/domain/documents/sale"
	"github.com/hasapchy/back-sub001/internal/domain/documents/writeoff"
)

// DocStore implements documents.Store for one document kind.
type DocStore[T documents.Postable] struct {
	s     *Store
	kind  string
	clone func(T) T
	match func(T, documents.ListFilter) bool
}

func newDocStore[T documents.Postable](s *Store, kind string, clone func(T) T, match func(T, documents.ListFilter) bool) *DocStore[T] {
	return &DocStore[T]{s: s, kind: kind, clone: clone, match: match}
}

func NewSaleRepo(s *Store) *DocStore[*sale.Sale] {
	return newDocStore(s, sale.Kind, func(v *sale.Sale) *sale.Sale {
		cp := *v
		cp.Lines = cloneLines(v.Lines)
		return &cp
	}, func(v *sale.Sale, f documents.ListFilter) bool { return matchTrade(&v.Trade, f) })
}

func NewOrderRepo(s *Store) *DocStore[*order.Order] {
	return newDocStore(s, order.Kind, func(v *order.Order) *order.Order {
		cp := *v
		cp.Lines = cloneLines(v.Lines)
		return &cp
	}, func(v *order.Order, f documents.ListFilter) bool { return matchTrade(&v.Trade, f) })
}

func NewReceiptRepo(s *Store) *DocStore[*receipt.Receipt] {
	return newDocStore(s, receipt.Kind, func(v *receipt.Receipt) *receipt.Receipt {
		cp := *v
		cp.Lines = cloneLines(v.Lines)
		return &cp
	}, func(v *receipt.Receipt, f documents.ListFilter) bool { return matchTrade(&v.Trade, f) })
}

func NewWriteOffRepo(s *Store) *DocStore[*writeoff.WriteOff] {
	return newDocStore(s, writeoff.Kind, func(v *writeoff.WriteOff) *writeoff.WriteOff {
		cp := *v
		cp.Lines = cloneLines(v.Lines)
		return &cp
	}, func(v *writeoff.WriteOff, f documents.ListFilter) bool {
		if f.ClientID != nil || f.CashRegisterID != nil {
			return false
		}
		if f.WarehouseID != nil && v.WarehouseID != *f.WarehouseID {
			return false
		}
		return matchDates(v, f)
	})
}

func NewMovementRepo(s *Store) *DocStore[*movement.Movement] {
	return newDocStore(s, movement.Kind, func(v *movement.Movement) *movement.Movement {
		cp := *v
		cp.Lines = cloneLines(v.Lines)
		return &cp
	}, func(v *movement.Movement, f documents.ListFilter) bool {
		if f.ClientID != nil || f.CashRegisterID != nil {
			return false
		}
		if f.WarehouseID != nil && v.FromWarehouseID != *f.WarehouseID && v.ToWarehouseID != *f.WarehouseID {
			return false
		}
		return matchDates(v, f)
	})
}

func cloneLines(ls documents.Lines) documents.Lines {
	return append(documents.Lines(nil), ls...)
}

func matchTrade(t *documents.Trade, f documents.ListFilter) bool {
	switch {
	case f.WarehouseID != nil && t.WarehouseID != *f.WarehouseID:
		return false
	case f.ClientID != nil && !id.Equal(t.ClientID, f.ClientID):
		return false
	case f.CashRegisterID != nil && !id.Equal(t.CashRegisterID, f.CashRegisterID):
		return false
	}
	return matchDates(t, f)
}

func matchDates(d interface{ Doc() *entity.Document }, f documents.ListFilter) bool {
	h := d.Doc()
	if f.DateFrom != nil && h.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && h.Date.After(*f.DateTo) {
		return false
	}
	return true
}

func (r *DocStore[T]) table(d *state) map[id.ID]any {
	m, ok := d.documents[r.kind]
	if !ok {
		m = make(map[id.ID]any)
		d.documents[r.kind] = m
	}
	return m
}

func (r *DocStore[T]) Create(_ context.Context, doc T) error {
	var err error
	r.s.write(func(d *state) {
		m := r.table(d)
		docID := doc.Doc().ID
		if _, ok := m[docID]; ok {
			err = apperror.NewDuplicate(r.kind, "id", docID.String())
			return
		}
		for _, v := range m {
			if v.(T).Doc().Number == doc.Doc().Number {
				err = apperror.NewDuplicate(r.kind, "number", doc.Doc().Number)
				return
			}
		}
		m[docID] = r.clone(doc)
	})
	return err
}

func (r *DocStore[T]) GetByID(_ context.Context, docID id.ID) (T, error) {
	var (
		out   T
		found bool
	)
	r.s.read(func(d *state) {
		if v, ok := d.documents[r.kind][docID]; ok {
			out, found = r.clone(v.(T)), true
		}
	})
	if !found {
		return out, apperror.NewNotFound(r.kind, docID.String())
	}
	return out, nil
}

func (r *DocStore[T]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	return r.GetByID(ctx, docID)
}

func (r *DocStore[T]) Update(_ context.Context, doc T) error {
	var err error
	r.s.write(func(d *state) {
		m := r.table(d)
		docID := doc.Doc().ID
		if _, ok := m[docID]; !ok {
			err = apperror.NewNotFound(r.kind, docID.String())
			return
		}
		m[docID] = r.clone(doc)
	})
	return err
}

func (r *DocStore[T]) Delete(_ context.Context, docID id.ID) error {
	var err error
	r.s.write(func(d *state) {
		m := r.table(d)
		if _, ok := m[docID]; !ok {
			err = apperror.NewNotFound(r.kind, docID.String())
			return
		}
		delete(m, docID)
	})
	return err
}

// List returns documents newest first.
func (r *DocStore[T]) List(_ context.Context, f documents.ListFilter) (documents.ListResult[T], error) {
	var items []T
	r.s.read(func(d *state) {
		for _, v := range d.documents[r.kind] {
			doc := v.(T)
			if r.match(doc, f) {
				items = append(items, r.clone(doc))
			}
		}
	})
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].Doc(), items[j].Doc()
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Number > b.Number
	})
	return documents.ListResult[T]{
		Items:      page(items, f.Limit, f.Offset),
		TotalCount: int64(len(items)),
		Limit:      f.Limit,
		Offset:     f.Offset,
	}, nil
}

var (
	_ sale.Repository     = (*DocStore[*sale.Sale])(nil)
	_ order.Repository    = (*DocStore[*order.Order])(nil)
	_ receipt.Repository  = (*DocStore[*receipt.Receipt])(nil)
	_ writeoff.Repository = (*DocStore[*writeoff.WriteOff])(nil)
	_ movement.Repository = (*DocStore[*movement.Movement])(nil)
)
