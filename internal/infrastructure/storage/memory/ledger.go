package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct{ s *Store }

func NewLedgerRepo(s *Store) *LedgerRepo { return &LedgerRepo{s: s} }

func (r *LedgerRepo) Create(_ context.Context, e *ledger.Entry) error {
	cp := *e
	r.s.write(func(d *state) { d.entries[e.ID] = &cp })
	return nil
}

func (r *LedgerRepo) GetByID(_ context.Context, entryID id.ID) (*ledger.Entry, error) {
	var out *ledger.Entry
	r.s.read(func(d *state) {
		if e, ok := d.entries[entryID]; ok {
			cp := *e
			out = &cp
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("ledger_entry", entryID.String())
	}
	return out, nil
}

func (r *LedgerRepo) GetForUpdate(ctx context.Context, entryID id.ID) (*ledger.Entry, error) {
	return r.GetByID(ctx, entryID)
}

func (r *LedgerRepo) Update(_ context.Context, e *ledger.Entry) error {
	var err error
	r.s.write(func(d *state) {
		if _, ok := d.entries[e.ID]; !ok {
			err = apperror.NewNotFound("ledger_entry", e.ID.String())
			return
		}
		cp := *e
		d.entries[e.ID] = &cp
	})
	return err
}

// Delete refuses to remove a transfer leg while its transfer exists.
func (r *LedgerRepo) Delete(_ context.Context, entryID id.ID) error {
	var err error
	r.s.write(func(d *state) {
		if _, ok := d.entries[entryID]; !ok {
			err = apperror.NewNotFound("ledger_entry", entryID.String())
			return
		}
		for _, t := range d.transfers {
			if t.OutEntryID == entryID || t.InEntryID == entryID {
				err = apperror.NewConflict("ledger entry is referenced by a transfer").
					WithDetail("transfer_id", t.ID.String())
				return
			}
		}
		delete(d.entries, entryID)
	})
	return err
}

func (r *LedgerRepo) List(_ context.Context, f ledger.Filter) ([]*ledger.Entry, error) {
	var out []*ledger.Entry
	r.s.read(func(d *state) {
		for _, e := range d.entries {
			if matchEntry(e, f) {
				cp := *e
				out = append(out, &cp)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return id.Less(out[j].ID, out[i].ID)
	})
	return page(out, f.Limit, f.Offset), nil
}

func matchEntry(e *ledger.Entry, f ledger.Filter) bool {
	switch {
	case !f.IncludeVoided && e.Voided:
		return false
	case f.CashRegisterID != nil && !id.Equal(e.CashRegisterID, f.CashRegisterID):
		return false
	case f.ClientID != nil && !id.Equal(e.ClientID, f.ClientID):
		return false
	case f.SourceKind != nil && e.Source.Kind != *f.SourceKind:
		return false
	case f.SourceID != nil && e.Source.ID != *f.SourceID:
		return false
	case f.DateFrom != nil && e.Date.Before(*f.DateFrom):
		return false
	case f.DateTo != nil && e.Date.After(*f.DateTo):
		return false
	}
	return true
}

func (r *LedgerRepo) ListBySource(_ context.Context, src ledger.Source) ([]*ledger.Entry, error) {
	var out []*ledger.Entry
	r.s.read(func(d *state) {
		for _, e := range d.entries {
			if e.Source == src {
				cp := *e
				out = append(out, &cp)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return id.Less(out[i].ID, out[j].ID) })
	return out, nil
}

func (r *LedgerRepo) SumByRegister(_ context.Context, registerID id.ID) (decimal.Decimal, error) {
	sum := decimal.Zero
	r.s.read(func(d *state) {
		for _, e := range d.entries {
			if e.AffectsRegister() && *e.CashRegisterID == registerID {
				sum = sum.Add(e.Signed())
			}
		}
	})
	return sum, nil
}

func (r *LedgerRepo) CountByRegister(_ context.Context, registerID id.ID) (int, error) {
	n := 0
	r.s.read(func(d *state) {
		for _, e := range d.entries {
			if e.CashRegisterID != nil && *e.CashRegisterID == registerID {
				n++
			}
		}
	})
	return n, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var _ ledger.Repository = (*LedgerRepo)(nil)
