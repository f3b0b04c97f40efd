package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/domain/currency"
	"github.com/hasapchy/back-sub001/internal/domain/rounding"
)

// CreateCurrencyRequest is the body of POST /currencies.
type CreateCurrencyRequest struct {
	Code      string `json:"code" binding:"required,currency_code"`
	Name      string `json:"name" binding:"required"`
	Symbol    string `json:"symbol"`
	IsDefault bool   `json:"isDefault"`
	// Rate is required unless IsDefault is set.
	Rate          *decimal.Decimal `json:"rate" binding:"omitempty,decimal_positive"`
	EffectiveDate *time.Time       `json:"effectiveDate"`
}

func (r CreateCurrencyRequest) ToInput() currency.CreateInput {
	in := currency.CreateInput{
		Code:      r.Code,
		Name:      r.Name,
		Symbol:    r.Symbol,
		IsDefault: r.IsDefault,
	}
	if r.Rate != nil {
		in.Rate = *r.Rate
	}
	if r.EffectiveDate != nil {
		in.EffectiveDate = *r.EffectiveDate
	}
	return in
}

// SetRateRequest is the body of POST /currencies/:id/rates.
type SetRateRequest struct {
	Rate          decimal.Decimal `json:"rate" binding:"decimal_positive"`
	EffectiveDate *time.Time      `json:"effectiveDate"`
}

func (r SetRateRequest) Effective() time.Time {
	if r.EffectiveDate == nil {
		return time.Time{}
	}
	return *r.EffectiveDate
}

// RateResponse is a rate of a currency at a moment.
type RateResponse struct {
	CurrencyID string          `json:"currencyId"`
	Rate       decimal.Decimal `json:"rate"`
	At         *time.Time      `json:"at,omitempty"`
}

// ConvertQuery is the query of GET /currencies/convert.
type ConvertQuery struct {
	From   string `form:"from" binding:"required,uuid"`
	To     string `form:"to" binding:"required,uuid"`
	Amount string `form:"amount" binding:"required,numeric"`
	Kind   string `form:"kind" binding:"omitempty,oneof=amount quantity"`
	At     string `form:"at"`
}

// RoundingKind defaults to amount.
func (q ConvertQuery) RoundingKind() rounding.Kind {
	if q.Kind == "" {
		return rounding.KindAmount
	}
	return rounding.Kind(q.Kind)
}

// ConvertResponse is the rounded converted amount.
type ConvertResponse struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Result decimal.Decimal `json:"result"`
	Kind   rounding.Kind   `json:"kind"`
}
