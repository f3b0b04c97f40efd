package memory

import (
	"context"
	"sort"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/transfer"
)

// TransferRepo implements transfer.Repository.
type TransferRepo struct{ s *Store }

func NewTransferRepo(s *Store) *TransferRepo { return &TransferRepo{s: s} }

func (r *TransferRepo) Create(_ context.Context, t *transfer.Transfer) error {
	cp := *t
	r.s.write(func(d *state) { d.transfers[t.ID] = &cp })
	return nil
}

func (r *TransferRepo) GetByID(_ context.Context, transferID id.ID) (*transfer.Transfer, error) {
	var out *transfer.Transfer
	r.s.read(func(d *state) {
		if t, ok := d.transfers[transferID]; ok {
			cp := *t
			out = &cp
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("cash_transfer", transferID.String())
	}
	return out, nil
}

func (r *TransferRepo) GetForUpdate(ctx context.Context, transferID id.ID) (*transfer.Transfer, error) {
	return r.GetByID(ctx, transferID)
}

func (r *TransferRepo) Update(_ context.Context, t *transfer.Transfer) error {
	var err error
	r.s.write(func(d *state) {
		if _, ok := d.transfers[t.ID]; !ok {
			err = apperror.NewNotFound("cash_transfer", t.ID.String())
			return
		}
		cp := *t
		d.transfers[t.ID] = &cp
	})
	return err
}

func (r *TransferRepo) Delete(_ context.Context, transferID id.ID) error {
	var err error
	r.s.write(func(d *state) {
		if _, ok := d.transfers[transferID]; !ok {
			err = apperror.NewNotFound("cash_transfer", transferID.String())
			return
		}
		delete(d.transfers, transferID)
	})
	return err
}

func (r *TransferRepo) List(_ context.Context, f transfer.Filter) ([]*transfer.Transfer, error) {
	var out []*transfer.Transfer
	r.s.read(func(d *state) {
		for _, t := range d.transfers {
			if f.RegisterID != nil && t.FromRegisterID != *f.RegisterID && t.ToRegisterID != *f.RegisterID {
				continue
			}
			cp := *t
			out = append(out, &cp)
		}
	})
	sort.Slice(out, func(i, j int) bool { return id.Less(out[j].ID, out[i].ID) })
	return page(out, f.Limit, f.Offset), nil
}

var _ transfer.Repository = (*TransferRepo)(nil)
