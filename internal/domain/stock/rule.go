package stock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/core/tenant"
)

// Candidate describes a decrease that would leave stock negative.
type Candidate struct {
	Operation   Operation
	WarehouseID id.ID
	ProductID   id.ID
	Resulting   decimal.Decimal
}

// NegativePolicy decides whether a negative result is tolerated.
type NegativePolicy interface {
	Tolerates(ctx context.Context, c Candidate) (bool, error)
}

// NeverNegative refuses every negative result.
type NeverNegative struct{}

func (NeverNegative) Tolerates(context.Context, Candidate) (bool, error) { return false, nil }

// CELPolicy evaluates the tenant setting negative_stock_rule, a CEL boolean
// expression over operation, warehouse_id, product_id and resulting.
// Tenants without the setting never tolerate negative stock.
//
//	operation == "write_off" && resulting >= -5.0
type CELPolicy struct {
	env      *cel.Env
	programs sync.Map // expression -> cel.Program
}

func NewCELPolicy() (*CELPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("operation", cel.StringType),
		cel.Variable("warehouse_id", cel.StringType),
		cel.Variable("product_id", cel.StringType),
		cel.Variable("resulting", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	return &CELPolicy{env: env}, nil
}

// Compile checks an expression without caching it.
func (p *CELPolicy) Compile(expr string) (cel.Program, error) {
	ast, iss := p.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile negative stock rule: %w", iss.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("negative stock rule must return bool, got %s", ast.OutputType())
	}
	prg, err := p.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build negative stock rule: %w", err)
	}
	return prg, nil
}

func (p *CELPolicy) program(expr string) (cel.Program, error) {
	if v, ok := p.programs.Load(expr); ok {
		return v.(cel.Program), nil
	}
	prg, err := p.Compile(expr)
	if err != nil {
		return nil, err
	}
	p.programs.Store(expr, prg)
	return prg, nil
}

func (p *CELPolicy) Tolerates(ctx context.Context, c Candidate) (bool, error) {
	expr := tenant.GetTenant(ctx).Setting(tenant.SettingNegativeStockRule)
	if expr == "" {
		return false, nil
	}

	prg, err := p.program(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]any{
		"operation":    string(c.Operation),
		"warehouse_id": c.WarehouseID.String(),
		"product_id":   c.ProductID.String(),
		"resulting":    c.Resulting.InexactFloat64(),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate negative stock rule: %w", err)
	}

	ok, _ := out.Value().(bool)
	return ok, nil
}
