package rounding

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rule(dir Direction, decimals int32, threshold string) Rule {
	return Rule{Enabled: true, Decimals: decimals, Direction: dir, CustomThreshold: d(threshold)}
}

func TestRuleApply(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		in   string
		want string
	}{
		{"standard half up", rule(DirectionStandard, 2, "0.5"), "1.005", "1.01"},
		{"standard below half", rule(DirectionStandard, 2, "0.5"), "1.004", "1"},
		{"standard negative", rule(DirectionStandard, 2, "0.5"), "-1.005", "-1.01"},
		{"up away from zero", rule(DirectionUp, 2, "0.5"), "1.001", "1.01"},
		{"up negative", rule(DirectionUp, 2, "0.5"), "-1.001", "-1.01"},
		{"down toward zero", rule(DirectionDown, 2, "0.5"), "1.009", "1"},
		{"down negative", rule(DirectionDown, 2, "0.5"), "-1.009", "-1"},
		{"custom over threshold", rule(DirectionCustom, 0, "0.3"), "2.3", "3"},
		{"custom under threshold", rule(DirectionCustom, 0, "0.3"), "2.29", "2"},
		{"custom negative", rule(DirectionCustom, 1, "0.7"), "-1.38", "-1.4"},
		{"custom exact", rule(DirectionCustom, 2, "0"), "1.50", "1.5"},
		{"disabled keeps precision", Rule{Enabled: false, Decimals: 2}, "1.23456", "1.23456"},
		{"disabled caps at storage scale", Rule{Enabled: false, Decimals: 2}, "0.3333333333333333", "0.33333333"},
		{"disabled caps negative", Rule{Enabled: false}, "-1.123456785", "-1.12345679"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rule.Apply(d(tt.in))
			assert.True(t, d(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestCustomHalfMatchesStandard(t *testing.T) {
	custom := rule(DirectionCustom, 2, "0.5")
	standard := rule(DirectionStandard, 2, "0.5")

	for _, in := range []string{"0.005", "0.004", "10.125", "-3.335", "-3.334", "7", "99.9999", "0.0049999"} {
		assert.True(t, standard.Apply(d(in)).Equal(custom.Apply(d(in))), "input %s", in)
	}
}

func TestRoundIsDeterministic(t *testing.T) {
	p := DefaultPolicy()
	v := d("123.456789")

	first := p.Round(v, KindAmount)
	for i := 0; i < 10; i++ {
		assert.True(t, first.Equal(p.Round(v, KindAmount)))
	}
	assert.Equal(t, "123.46", first.String())
	assert.Equal(t, "123.457", p.Round(v, KindQuantity).String())
}

func TestPolicyValidate(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, p.Validate())

	p.Amount.Decimals = 9
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	p = DefaultPolicy()
	p.Quantity.CustomThreshold = d("1.5")
	assert.Error(t, p.Validate())

	p = DefaultPolicy()
	p.Amount.Direction = "sideways"
	assert.Error(t, p.Validate())
}
