package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/cashregister"
	"github.com/hasapchy/back-sub001/internal/domain/clientbalance"
)

// RegisterRepo implements cashregister.Repository.
type RegisterRepo struct{ s *Store }

func NewRegisterRepo(s *Store) *RegisterRepo { return &RegisterRepo{s: s} }

func cloneRegister(r *cashregister.Register) *cashregister.Register {
	cp := *r
	cp.UserIDs = append([]string(nil), r.UserIDs...)
	return &cp
}

func (r *RegisterRepo) Create(_ context.Context, reg *cashregister.Register) error {
	r.s.write(func(d *state) { d.registers[reg.ID] = cloneRegister(reg) })
	return nil
}

func (r *RegisterRepo) GetByID(_ context.Context, registerID id.ID) (*cashregister.Register, error) {
	var out *cashregister.Register
	r.s.read(func(d *state) {
		if reg, ok := d.registers[registerID]; ok {
			out = cloneRegister(reg)
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("cash_register", registerID.String())
	}
	return out, nil
}

func (r *RegisterRepo) GetForUpdate(ctx context.Context, registerID id.ID) (*cashregister.Register, error) {
	return r.GetByID(ctx, registerID)
}

func (r *RegisterRepo) List(_ context.Context, userID string) ([]*cashregister.Register, error) {
	var out []*cashregister.Register
	r.s.read(func(d *state) {
		for _, reg := range d.registers {
			if userID == "" || reg.Authorized(userID) {
				out = append(out, cloneRegister(reg))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *RegisterRepo) Update(_ context.Context, reg *cashregister.Register) error {
	return r.replace(reg.ID, func(cur *cashregister.Register) {
		cur.Name = reg.Name
		cur.UserIDs = append([]string(nil), reg.UserIDs...)
		cur.Version = reg.Version
		cur.UpdatedAt = reg.UpdatedAt
	})
}

func (r *RegisterRepo) UpdateBalance(_ context.Context, registerID id.ID, balance decimal.Decimal) error {
	return r.replace(registerID, func(cur *cashregister.Register) {
		cur.Balance = balance
		cur.UpdatedAt = time.Now().UTC()
	})
}

func (r *RegisterRepo) Delete(_ context.Context, registerID id.ID) error {
	var err error
	r.s.write(func(d *state) {
		if _, ok := d.registers[registerID]; !ok {
			err = apperror.NewNotFound("cash_register", registerID.String())
			return
		}
		delete(d.registers, registerID)
	})
	return err
}

func (r *RegisterRepo) replace(registerID id.ID, mutate func(cur *cashregister.Register)) error {
	var err error
	r.s.write(func(d *state) {
		cur, ok := d.registers[registerID]
		if !ok {
			err = apperror.NewNotFound("cash_register", registerID.String())
			return
		}
		next := cloneRegister(cur)
		mutate(next)
		d.registers[registerID] = next
	})
	return err
}

// ClientBalanceRepo implements clientbalance.Repository.
type ClientBalanceRepo struct{ s *Store }

func NewClientBalanceRepo(s *Store) *ClientBalanceRepo { return &ClientBalanceRepo{s: s} }

func (r *ClientBalanceRepo) Create(_ context.Context, b *clientbalance.Balance) error {
	var err error
	r.s.write(func(d *state) {
		if _, ok := d.clients[b.ClientID]; ok {
			err = apperror.NewDuplicate("client_balance", "client_id", b.ClientID.String())
			return
		}
		cp := *b
		d.clients[b.ClientID] = &cp
	})
	return err
}

func (r *ClientBalanceRepo) Get(_ context.Context, clientID id.ID) (*clientbalance.Balance, error) {
	var out *clientbalance.Balance
	r.s.read(func(d *state) {
		if b, ok := d.clients[clientID]; ok {
			cp := *b
			out = &cp
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("client", clientID.String())
	}
	return out, nil
}

func (r *ClientBalanceRepo) GetForUpdate(ctx context.Context, clientID id.ID) (*clientbalance.Balance, error) {
	return r.Get(ctx, clientID)
}

func (r *ClientBalanceRepo) Update(_ context.Context, b *clientbalance.Balance) error {
	var err error
	r.s.write(func(d *state) {
		if _, ok := d.clients[b.ClientID]; !ok {
			err = apperror.NewNotFound("client", b.ClientID.String())
			return
		}
		cp := *b
		d.clients[b.ClientID] = &cp
	})
	return err
}

var (
	_ cashregister.Repository  = (*RegisterRepo)(nil)
	_ clientbalance.Repository = (*ClientBalanceRepo)(nil)
)
