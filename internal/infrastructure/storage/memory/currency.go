package memory

import (
	"context"
	"sort"
	"time"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/currency"
	"github.com/hasapchy/back-sub001/internal/domain/rounding"
)

// CurrencyRepo implements currency.Repository.
type CurrencyRepo struct{ s *Store }

func NewCurrencyRepo(s *Store) *CurrencyRepo { return &CurrencyRepo{s: s} }

func (r *CurrencyRepo) Create(_ context.Context, c *currency.Currency) error {
	var err error
	r.s.write(func(d *state) {
		for _, ex := range d.currencies {
			if ex.Code == c.Code {
				err = apperror.NewDuplicate("currency", "code", c.Code)
				return
			}
		}
		cp := *c
		d.currencies[c.ID] = &cp
	})
	return err
}

func (r *CurrencyRepo) GetByID(_ context.Context, currencyID id.ID) (*currency.Currency, error) {
	var out *currency.Currency
	r.s.read(func(d *state) {
		if c, ok := d.currencies[currencyID]; ok {
			cp := *c
			out = &cp
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("currency", currencyID.String())
	}
	return out, nil
}

func (r *CurrencyRepo) GetByCode(_ context.Context, code string) (*currency.Currency, error) {
	var out *currency.Currency
	r.s.read(func(d *state) {
		for _, c := range d.currencies {
			if c.Code == code {
				cp := *c
				out = &cp
				return
			}
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("currency", code)
	}
	return out, nil
}

func (r *CurrencyRepo) GetDefault(_ context.Context) (*currency.Currency, error) {
	var out *currency.Currency
	r.s.read(func(d *state) {
		for _, c := range d.currencies {
			if c.IsDefault {
				cp := *c
				out = &cp
				return
			}
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("currency", "default")
	}
	return out, nil
}

func (r *CurrencyRepo) List(_ context.Context) ([]*currency.Currency, error) {
	var out []*currency.Currency
	r.s.read(func(d *state) {
		for _, c := range d.currencies {
			cp := *c
			out = append(out, &cp)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *CurrencyRepo) SetDefault(_ context.Context, currencyID id.ID) error {
	var err error
	r.s.write(func(d *state) {
		if _, ok := d.currencies[currencyID]; !ok {
			err = apperror.NewNotFound("currency", currencyID.String())
			return
		}
		now := time.Now().UTC()
		for cid, c := range d.currencies {
			want := cid == currencyID
			if c.IsDefault == want {
				continue
			}
			cp := *c
			cp.IsDefault = want
			cp.UpdatedAt = now
			d.currencies[cid] = &cp
		}
	})
	return err
}

// RateRepo implements currency.RateRepository.
type RateRepo struct{ s *Store }

func NewRateRepo(s *Store) *RateRepo { return &RateRepo{s: s} }

func (r *RateRepo) Current(_ context.Context, currencyID id.ID) (*currency.ExchangeRate, error) {
	var out *currency.ExchangeRate
	r.s.read(func(d *state) {
		for _, rate := range d.rates {
			if rate.CurrencyID == currencyID && rate.IsCurrent() {
				cp := *rate
				out = &cp
				return
			}
		}
	})
	return out, nil
}

func (r *RateRepo) CurrentForUpdate(ctx context.Context, currencyID id.ID) (*currency.ExchangeRate, error) {
	return r.Current(ctx, currencyID)
}

func (r *RateRepo) At(_ context.Context, currencyID id.ID, at time.Time) (*currency.ExchangeRate, error) {
	var out *currency.ExchangeRate
	r.s.read(func(d *state) {
		for _, rate := range d.rates {
			if rate.CurrencyID != currencyID || rate.StartDate.After(at) {
				continue
			}
			if out == nil || rate.StartDate.After(out.StartDate) {
				cp := *rate
				out = &cp
			}
		}
	})
	return out, nil
}

func (r *RateRepo) Create(_ context.Context, rate *currency.ExchangeRate) error {
	cp := *rate
	r.s.write(func(d *state) { d.rates = append(d.rates, &cp) })
	return nil
}

func (r *RateRepo) Close(_ context.Context, rateID id.ID, endDate time.Time) error {
	var err error
	r.s.write(func(d *state) {
		for i, rate := range d.rates {
			if rate.ID == rateID {
				cp := *rate
				end := endDate
				cp.EndDate = &end
				d.rates = append(append(d.rates[:i:i], &cp), d.rates[i+1:]...)
				return
			}
		}
		err = apperror.NewNotFound("exchange_rate", rateID.String())
	})
	return err
}

func (r *RateRepo) History(_ context.Context, currencyID id.ID) ([]*currency.ExchangeRate, error) {
	var out []*currency.ExchangeRate
	r.s.read(func(d *state) {
		for _, rate := range d.rates {
			if rate.CurrencyID == currencyID {
				cp := *rate
				out = append(out, &cp)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

// PolicyRepo implements rounding.Repository.
type PolicyRepo struct{ s *Store }

func NewPolicyRepo(s *Store) *PolicyRepo { return &PolicyRepo{s: s} }

func (r *PolicyRepo) Get(_ context.Context) (*rounding.Policy, error) {
	var out *rounding.Policy
	r.s.read(func(d *state) {
		if d.policy != nil {
			p := *d.policy
			out = &p
		}
	})
	return out, nil
}

func (r *PolicyRepo) Save(_ context.Context, p rounding.Policy) error {
	r.s.write(func(d *state) { d.policy = &p })
	return nil
}

var (
	_ currency.Repository     = (*CurrencyRepo)(nil)
	_ currency.RateRepository = (*RateRepo)(nil)
	_ rounding.Repository     = (*PolicyRepo)(nil)
)
