package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/core/tenant"
	"github.com/hasapchy/back-sub001/internal/core/tx"
	"github.com/hasapchy/back-sub001/internal/domain/events"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

// anchorRate is the fixed rate of the default currency.
var anchorRate = decimal.NewFromInt(1)

// Service is the exchange rate store.
type Service struct {
	repo      Repository
	rates     RateRepository
	events    events.Publisher
	txManager tx.Manager // optional, resolved from context when nil
	now       func() time.Time
}

// NewService creates the exchange rate store.
func NewService(repo Repository, rates RateRepository, publisher events.Publisher, txManager tx.Manager) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:      repo,
		rates:     rates,
		events:    publisher,
		txManager: txManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a currency and opens its first rate record.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Currency, error) {
	cur := &Currency{
		ID:        id.New(),
		Code:      in.Code,
		Name:      in.Name,
		Symbol:    in.Symbol,
		IsDefault: in.IsDefault,
	}
	if err := cur.Validate(ctx); err != nil {
		return nil, err
	}

	rate := in.Rate
	if cur.IsDefault {
		rate = anchorRate
	}
	if !rate.IsPositive() {
		return nil, apperror.NewInvalidRate(rate.String())
	}

	effective := in.EffectiveDate
	if effective.IsZero() {
		effective = s.now()
	}

	err := tenant.RunInTx(ctx, s.txManager, func(ctx context.Context) error {
		if existing, err := s.repo.GetByCode(ctx, cur.Code); err == nil && existing != nil {
			return apperror.NewDuplicate("currency", "code", cur.Code)
		} else if err != nil && !apperror.IsNotFound(err) {
			return err
		}

		def, err := s.repo.GetDefault(ctx)
		switch {
		case err != nil && !apperror.IsNotFound(err):
			return err
		case def == nil && !cur.IsDefault:
			return apperror.NewPreconditionFailed("the default currency must be created first")
		case def != nil && cur.IsDefault:
			return apperror.NewPreconditionFailed("a default currency already exists; create the currency and move the default flag")
		}

		now := s.now()
		cur.CreatedAt, cur.UpdatedAt = now, now
		if err := s.repo.Create(ctx, cur); err != nil {
			return fmt.Errorf("create currency: %w", err)
		}

		if err := s.rates.Create(ctx, &ExchangeRate{
			ID:         id.New(),
			CurrencyID: cur.ID,
			Rate:       rate,
			StartDate:  effective,
			CreatedBy:  appctx.GetUserID(ctx),
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("open rate: %w", err)
		}

		return s.events.Publish(ctx, events.Event{
			AggregateType: "currency",
			AggregateID:   cur.ID,
			Type:          events.CurrencyCreated,
			Payload:       map[string]any{"code": cur.Code, "rate": rate.String()},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "currency created", "id", cur.ID, "code", cur.Code, "default", cur.IsDefault)
	return cur, nil
}

// Get returns a currency or UnknownCurrency.
func (s *Service) Get(ctx context.Context, currencyID id.ID) (*Currency, error) {
	cur, err := s.repo.GetByID(ctx, currencyID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnknownCurrency(currencyID.String())
		}
		return nil, err
	}
	return cur, nil
}

// Default returns the tenant's anchor currency.
func (s *Service) Default(ctx context.Context) (*Currency, error) {
	cur, err := s.repo.GetDefault(ctx)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewPreconditionFailed("no default currency configured")
		}
		return nil, err
	}
	return cur, nil
}

func (s *Service) List(ctx context.Context) ([]*Currency, error) {
	return s.repo.List(ctx)
}

// CurrentRate returns the rate of the open record.
func (s *Service) CurrentRate(ctx context.Context, currencyID id.ID) (decimal.Decimal, error) {
	r, err := s.rates.Current(ctx, currencyID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("current rate: %w", err)
	}
	if r == nil {
		return decimal.Zero, s.missingRate(ctx, currencyID)
	}
	return r.Rate, nil
}

// RateAt returns the rate in force at the given time, falling back to the
// nearest prior record.
func (s *Service) RateAt(ctx context.Context, currencyID id.ID, at time.Time) (decimal.Decimal, error) {
	r, err := s.rates.At(ctx, currencyID, at)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate at: %w", err)
	}
	if r == nil {
		return decimal.Zero, s.missingRate(ctx, currencyID)
	}
	return r.Rate, nil
}

func (s *Service) missingRate(ctx context.Context, currencyID id.ID) error {
	if _, err := s.Get(ctx, currencyID); err != nil {
		return err
	}
	return apperror.NewNoRateAvailable(currencyID.String())
}

// SetRate closes the open record at effective and opens a new one.
// A zero effective time means now.
func (s *Service) SetRate(ctx context.Context, currencyID id.ID, rate decimal.Decimal, effective time.Time) (*ExchangeRate, error) {
	if !rate.IsPositive() {
		return nil, apperror.NewInvalidRate(rate.String())
	}
	if effective.IsZero() {
		effective = s.now()
	}

	next := &ExchangeRate{
		ID:         id.New(),
		CurrencyID: currencyID,
		Rate:       rate,
		StartDate:  effective,
		CreatedBy:  appctx.GetUserID(ctx),
	}

	err := tenant.RunInTx(ctx, s.txManager, func(ctx context.Context) error {
		cur, err := s.Get(ctx, currencyID)
		if err != nil {
			return err
		}
		if cur.IsDefault && !rate.Equal(anchorRate) {
			return apperror.NewInvalidRate(rate.String()).
				WithDetail("reason", "default currency rate is fixed at 1")
		}

		open, err := s.rates.CurrentForUpdate(ctx, currencyID)
		if err != nil {
			return fmt.Errorf("lock current rate: %w", err)
		}
		if open != nil {
			if !effective.After(open.StartDate) {
				return apperror.NewPreconditionFailed("effective date must be after the current rate start").
					WithDetail("current_start", open.StartDate).
					WithDetail("effective_date", effective)
			}
			if err := s.rates.Close(ctx, open.ID, effective); err != nil {
				return fmt.Errorf("close rate: %w", err)
			}
		}

		next.CreatedAt = s.now()
		if err := s.rates.Create(ctx, next); err != nil {
			return fmt.Errorf("open rate: %w", err)
		}

		return s.events.Publish(ctx, events.Event{
			AggregateType: "currency",
			AggregateID:   currencyID,
			Type:          events.ExchangeRateSet,
			Payload:       map[string]any{"rate": rate.String(), "start_date": effective},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "exchange rate set", "currency_id", currencyID, "rate", rate.String(), "effective", effective)
	return next, nil
}

// History lists the rate records of a currency, newest first.
func (s *Service) History(ctx context.Context, currencyID id.ID) ([]*ExchangeRate, error) {
	if _, err := s.Get(ctx, currencyID); err != nil {
		return nil, err
	}
	return s.rates.History(ctx, currencyID)
}

// SetDefault moves the anchor to another currency. The currency must already
// trade at exactly 1 against the current anchor.
func (s *Service) SetDefault(ctx context.Context, currencyID id.ID) error {
	err := tenant.RunInTx(ctx, s.txManager, func(ctx context.Context) error {
		cur, err := s.Get(ctx, currencyID)
		if err != nil {
			return err
		}
		if cur.IsDefault {
			return nil
		}

		rate, err := s.CurrentRate(ctx, currencyID)
		if err != nil {
			return err
		}
		if !rate.Equal(anchorRate) {
			return apperror.NewPreconditionFailed("default currency must have a current rate of 1").
				WithDetail("rate", rate.String())
		}

		if err := s.repo.SetDefault(ctx, currencyID); err != nil {
			return fmt.Errorf("set default currency: %w", err)
		}

		return s.events.Publish(ctx, events.Event{
			AggregateType: "currency",
			AggregateID:   currencyID,
			Type:          events.DefaultCurrencySet,
			Payload:       map[string]any{"code": cur.Code},
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "default currency changed", "currency_id", currencyID)
	return nil
}
