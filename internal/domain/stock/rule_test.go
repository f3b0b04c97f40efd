package stock

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/core/tenant"
)

func withRule(expr string) context.Context {
	return tenant.WithTenant(context.Background(), &tenant.Tenant{
		ID:       "t1",
		Settings: map[string]any{tenant.SettingNegativeStockRule: expr},
	})
}

func TestCELPolicy(t *testing.T) {
	p, err := NewCELPolicy()
	require.NoError(t, err)

	wh := id.New()
	c := func(op Operation, resulting string) Candidate {
		return Candidate{Operation: op, WarehouseID: wh, ProductID: id.New(), Resulting: decimal.RequireFromString(resulting)}
	}

	tests := []struct {
		name string
		ctx  context.Context
		c    Candidate
		want bool
	}{
		{"no tenant", context.Background(), c(OpSale, "-1"), false},
		{"no rule", withRule(""), c(OpSale, "-1"), false},
		{"write-off within limit", withRule(`operation == "write_off" && resulting >= -5.0`), c(OpWriteOff, "-5"), true},
		{"write-off past limit", withRule(`operation == "write_off" && resulting >= -5.0`), c(OpWriteOff, "-5.5"), false},
		{"other operation", withRule(`operation == "write_off"`), c(OpSale, "-1"), false},
		{"by warehouse", withRule(`warehouse_id == "` + wh.String() + `"`), c(OpSale, "-100"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := p.Tolerates(tt.ctx, tt.c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestCELPolicy_RejectsBadRules(t *testing.T) {
	p, err := NewCELPolicy()
	require.NoError(t, err)

	_, err = p.Compile(`resulting + 1.0`)
	assert.ErrorContains(t, err, "must return bool")

	_, err = p.Compile(`unknown_var > 1`)
	assert.Error(t, err)

	_, err = p.Tolerates(withRule(`operation ==`), Candidate{Operation: OpSale})
	assert.Error(t, err)
}
