package currency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
)

// RateSource answers rate lookups. *Service implements it.
type RateSource interface {
	CurrentRate(ctx context.Context, currencyID id.ID) (decimal.Decimal, error)
	RateAt(ctx context.Context, currencyID id.ID, at time.Time) (decimal.Decimal, error)
}

// Converter converts amounts with the single-anchor formula
//
//	amount * rate(to) / rate(from)
//
// It never rounds.
type Converter struct {
	rates RateSource
}

func NewConverter(rates RateSource) *Converter {
	return &Converter{rates: rates}
}

// Convert uses the current rates.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to id.ID) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	return c.convert(ctx, amount, from, to, func(cur id.ID) (decimal.Decimal, error) {
		return c.rates.CurrentRate(ctx, cur)
	})
}

// ConvertAt uses the rates in force at the given time.
func (c *Converter) ConvertAt(ctx context.Context, amount decimal.Decimal, from, to id.ID, at time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	return c.convert(ctx, amount, from, to, func(cur id.ID) (decimal.Decimal, error) {
		return c.rates.RateAt(ctx, cur, at)
	})
}

func (c *Converter) convert(
	_ context.Context,
	amount decimal.Decimal,
	from, to id.ID,
	rateOf func(id.ID) (decimal.Decimal, error),
) (decimal.Decimal, error) {
	fromRate, err := rateOf(from)
	if err != nil {
		return decimal.Zero, unavailable(from, to, err)
	}
	toRate, err := rateOf(to)
	if err != nil {
		return decimal.Zero, unavailable(from, to, err)
	}
	return amount.Mul(toRate).Div(fromRate), nil
}

func unavailable(from, to id.ID, cause error) error {
	return apperror.NewConversionUnavailable(from.String(), to.String()).WithCause(cause)
}
