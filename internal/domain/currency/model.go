// Package currency holds currencies and their exchange-rate history, and
// converts amounts between currencies.
//
// Every rate is expressed against one anchor unit: the default currency,
// whose rate is always exactly 1.
package currency

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
)

var codePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Currency is a monetary unit of a tenant.
type Currency struct {
	ID        id.ID     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Symbol    string    `db:"symbol" json:"symbol"`
	IsDefault bool      `db:"is_default" json:"isDefault"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate implements entity.Validatable.
func (c *Currency) Validate(ctx context.Context) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if !codePattern.MatchString(c.Code) {
		return apperror.NewValidation("currency code must be 3 uppercase letters").
			WithDetail("field", "code").
			WithDetail("value", c.Code)
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return nil
}

// ExchangeRate is one record of a currency's rate history.
// The record with EndDate == nil is the current rate.
type ExchangeRate struct {
	ID         id.ID           `db:"id" json:"id"`
	CurrencyID id.ID           `db:"currency_id" json:"currencyId"`
	Rate       decimal.Decimal `db:"rate" json:"rate"`
	StartDate  time.Time       `db:"start_date" json:"startDate"`
	EndDate    *time.Time      `db:"end_date" json:"endDate,omitempty"`
	CreatedBy  string          `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// IsCurrent reports whether the record is the open one.
func (r *ExchangeRate) IsCurrent() bool {
	return r.EndDate == nil
}

// Covers reports whether the record was in force at t.
func (r *ExchangeRate) Covers(t time.Time) bool {
	if t.Before(r.StartDate) {
		return false
	}
	return r.EndDate == nil || t.Before(*r.EndDate)
}

// CreateInput describes a new currency and its opening rate.
type CreateInput struct {
	Code      string
	Name      string
	Symbol    string
	IsDefault bool
	// Rate is ignored for the default currency (always 1).
	Rate          decimal.Decimal
	EffectiveDate time.Time
}
