package currency

import (
	"context"
	"time"

	"github.com/hasapchy/back-sub001/internal/core/id"
)

// Repository persists currencies.
type Repository interface {
	Create(ctx context.Context, c *Currency) error
	// GetByID returns apperror NotFound when the currency does not exist.
	GetByID(ctx context.Context, currencyID id.ID) (*Currency, error)
	GetByCode(ctx context.Context, code string) (*Currency, error)
	// GetDefault returns the currency flagged as default.
	GetDefault(ctx context.Context) (*Currency, error)
	List(ctx context.Context) ([]*Currency, error)
	// SetDefault moves the default flag to currencyID.
	SetDefault(ctx context.Context, currencyID id.ID) error
}

// RateRepository persists exchange-rate history.
// Lookups return (nil, nil) when no record matches.
type RateRepository interface {
	Current(ctx context.Context, currencyID id.ID) (*ExchangeRate, error)
	// CurrentForUpdate locks the open record of the currency.
	CurrentForUpdate(ctx context.Context, currencyID id.ID) (*ExchangeRate, error)
	// At returns the latest record with start_date <= at.
	At(ctx context.Context, currencyID id.ID, at time.Time) (*ExchangeRate, error)
	Create(ctx context.Context, r *ExchangeRate) error
	Close(ctx context.Context, rateID id.ID, endDate time.Time) error
	// History lists records newest first.
	History(ctx context.Context, currencyID id.ID) ([]*ExchangeRate, error)
}
