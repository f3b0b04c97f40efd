// Package rounding implements the per-tenant rounding policy for amounts
// and quantities.
package rounding

import (
	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
)

// Direction selects how values are rounded.
type Direction string

const (
	// DirectionStandard rounds half away from zero.
	DirectionStandard Direction = "standard"
	// DirectionUp rounds away from zero.
	DirectionUp Direction = "up"
	// DirectionDown rounds toward zero.
	DirectionDown Direction = "down"
	// DirectionCustom rounds away from zero once the remainder reaches a threshold.
	DirectionCustom Direction = "custom"
)

// Kind selects the rule of a policy.
type Kind string

const (
	KindAmount   Kind = "amount"
	KindQuantity Kind = "quantity"
)

// maxDecimals is also the scale of every NUMERIC amount and quantity column.
const maxDecimals = 8

// Rule rounds one kind of value.
type Rule struct {
	Enabled   bool      `json:"enabled"`
	Decimals  int32     `json:"decimals"`
	Direction Direction `json:"direction"`
	// CustomThreshold is a fraction of one unit at Decimals precision, in [0, 1].
	CustomThreshold decimal.Decimal `json:"customThreshold"`
}

// Policy is the rounding configuration of a tenant.
type Policy struct {
	Amount   Rule `json:"amount"`
	Quantity Rule `json:"quantity"`
}

// DefaultPolicy is used when a tenant has not configured rounding.
func DefaultPolicy() Policy {
	half := decimal.NewFromFloat(0.5)
	return Policy{
		Amount:   Rule{Enabled: true, Decimals: 2, Direction: DirectionStandard, CustomThreshold: half},
		Quantity: Rule{Enabled: true, Decimals: 3, Direction: DirectionStandard, CustomThreshold: half},
	}
}

// Rule returns the rule for kind. Unknown kinds use the amount rule.
func (p Policy) Rule(kind Kind) Rule {
	if kind == KindQuantity {
		return p.Quantity
	}
	return p.Amount
}

// Round applies the rule for kind to v.
func (p Policy) Round(v decimal.Decimal, kind Kind) decimal.Decimal {
	return p.Rule(kind).Apply(v)
}

// Apply rounds v. A disabled rule keeps the finest precision storage can
// hold, maxDecimals places, so every backend stores the same value.
func (r Rule) Apply(v decimal.Decimal) decimal.Decimal {
	if !r.Enabled {
		return v.Round(maxDecimals)
	}

	switch r.Direction {
	case DirectionUp:
		return v.RoundUp(r.Decimals)
	case DirectionDown:
		return v.RoundDown(r.Decimals)
	case DirectionCustom:
		return r.applyCustom(v)
	default:
		return v.Round(r.Decimals)
	}
}

// applyCustom splits |v| at the configured precision. The remainder is
// measured in units of the last kept digit, so it lies in [0, 1).
func (r Rule) applyCustom(v decimal.Decimal) decimal.Decimal {
	truncated := v.Truncate(r.Decimals)
	unit := decimal.New(1, -r.Decimals)
	remainder := v.Sub(truncated).Abs().Div(unit)

	if remainder.IsZero() {
		return truncated
	}
	if remainder.GreaterThanOrEqual(r.CustomThreshold) {
		return v.RoundUp(r.Decimals)
	}
	return truncated
}

// Validate checks decimals and threshold ranges.
func (r Rule) Validate(field string) error {
	if r.Decimals < 0 || r.Decimals > maxDecimals {
		return apperror.NewValidation("decimals must be between 0 and 8").
			WithDetail("field", field+".decimals")
	}
	switch r.Direction {
	case DirectionStandard, DirectionUp, DirectionDown, DirectionCustom:
	default:
		return apperror.NewValidation("unknown rounding direction").
			WithDetail("field", field+".direction").
			WithDetail("value", r.Direction)
	}
	if r.CustomThreshold.IsNegative() || r.CustomThreshold.GreaterThan(decimal.NewFromInt(1)) {
		return apperror.NewValidation("custom threshold must be between 0 and 1").
			WithDetail("field", field+".customThreshold")
	}
	return nil
}

// Validate checks both rules.
func (p Policy) Validate() error {
	if err := p.Amount.Validate("amount"); err != nil {
		return err
	}
	return p.Quantity.Validate("quantity")
}
