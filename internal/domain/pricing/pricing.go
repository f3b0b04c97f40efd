// Package pricing combines currency conversion with the tenant rounding
// policy: convert first, round once.
package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/rounding"
)

// Converter converts amounts between currencies without rounding.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to id.ID) (decimal.Decimal, error)
	ConvertAt(ctx context.Context, amount decimal.Decimal, from, to id.ID, at time.Time) (decimal.Decimal, error)
}

// PolicySource loads the tenant rounding policy.
type PolicySource interface {
	Policy(ctx context.Context) (rounding.Policy, error)
}

// Service hands out Pricers.
type Service struct {
	converter Converter
	policies  PolicySource
}

func NewService(converter Converter, policies PolicySource) *Service {
	return &Service{converter: converter, policies: policies}
}

// Begin loads the rounding policy once for the operation that follows.
func (s *Service) Begin(ctx context.Context) (*Pricer, error) {
	p, err := s.policies.Policy(ctx)
	if err != nil {
		return nil, err
	}
	return &Pricer{converter: s.converter, policy: p}, nil
}

// ConvertAndRound is a one-shot Begin + ConvertAndRound.
func (s *Service) ConvertAndRound(ctx context.Context, amount decimal.Decimal, from, to id.ID, kind rounding.Kind) (decimal.Decimal, error) {
	pr, err := s.Begin(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return pr.ConvertAndRound(ctx, amount, from, to, kind)
}

// ConvertAndRoundAt converts with the rates in force at a point in time.
func (s *Service) ConvertAndRoundAt(ctx context.Context, amount decimal.Decimal, from, to id.ID, kind rounding.Kind, at time.Time) (decimal.Decimal, error) {
	pr, err := s.Begin(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	v, err := s.converter.ConvertAt(ctx, amount, from, to, at)
	if err != nil {
		return decimal.Zero, err
	}
	return pr.policy.Round(v, kind), nil
}

// Pricer converts and rounds with a fixed policy snapshot.
type Pricer struct {
	converter Converter
	policy    rounding.Policy
}

// NewPricer builds a Pricer from an explicit policy.
func NewPricer(converter Converter, policy rounding.Policy) *Pricer {
	return &Pricer{converter: converter, policy: policy}
}

func (p *Pricer) Policy() rounding.Policy {
	return p.policy
}

// ConvertAndRound converts amount and rounds the result with the rule for kind.
func (p *Pricer) ConvertAndRound(ctx context.Context, amount decimal.Decimal, from, to id.ID, kind rounding.Kind) (decimal.Decimal, error) {
	v, err := p.converter.Convert(ctx, amount, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return p.policy.Round(v, kind), nil
}

func (p *Pricer) RoundAmount(v decimal.Decimal) decimal.Decimal {
	return p.policy.Round(v, rounding.KindAmount)
}

func (p *Pricer) RoundQuantity(v decimal.Decimal) decimal.Decimal {
	return p.policy.Round(v, rounding.KindQuantity)
}
