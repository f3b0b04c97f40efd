package dto

import (
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var currencyCode = regexp.MustCompile(`^[A-Za-z]{3}$`)

// ValidCurrencyCode accepts three-letter codes; case is normalized later.
var ValidCurrencyCode validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && currencyCode.MatchString(s)
}

// DecimalPositive accepts decimals greater than zero.
var DecimalPositive validator.Func = func(fl validator.FieldLevel) bool {
	d, ok := decimalOf(fl)
	return ok && d.IsPositive()
}

// DecimalNonZero accepts any decimal but zero.
var DecimalNonZero validator.Func = func(fl validator.FieldLevel) bool {
	d, ok := decimalOf(fl)
	return ok && !d.IsZero()
}

// DecimalNonNegative accepts zero and positive decimals.
var DecimalNonNegative validator.Func = func(fl validator.FieldLevel) bool {
	d, ok := decimalOf(fl)
	return ok && !d.IsNegative()
}

// RegisterValidators installs the custom tags on v. decimal.Decimal fields
// are validated through their string form.
func RegisterValidators(v *validator.Validate) error {
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	for tag, fn := range map[string]validator.Func{
		"currency_code":        ValidCurrencyCode,
		"decimal_positive":     DecimalPositive,
		"decimal_nonzero":      DecimalNonZero,
		"decimal_non_negative": DecimalNonNegative,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func decimalOf(fl validator.FieldLevel) (decimal.Decimal, bool) {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	return d, err == nil
}
