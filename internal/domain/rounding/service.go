package rounding

import (
	"context"
	"fmt"

	"github.com/hasapchy/back-sub001/internal/core/tenant"
	"github.com/hasapchy/back-sub001/internal/core/tx"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

// Repository stores the single policy row of a tenant database.
type Repository interface {
	// Get returns (nil, nil) when the tenant has no stored policy.
	Get(ctx context.Context) (*Policy, error)
	Save(ctx context.Context, p Policy) error
}

// Service loads and updates the tenant rounding policy.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Policy returns the stored policy or DefaultPolicy.
func (s *Service) Policy(ctx context.Context) (Policy, error) {
	p, err := s.repo.Get(ctx)
	if err != nil {
		return Policy{}, fmt.Errorf("load rounding policy: %w", err)
	}
	if p == nil {
		return DefaultPolicy(), nil
	}
	return *p, nil
}

// Update validates and stores a new policy.
func (s *Service) Update(ctx context.Context, p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}

	err := tenant.RunInTx(ctx, s.txManager, func(ctx context.Context) error {
		return s.repo.Save(ctx, p)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "rounding policy updated",
		"amount_decimals", p.Amount.Decimals,
		"amount_direction", p.Amount.Direction,
		"quantity_decimals", p.Quantity.Decimals,
	)
	return nil
}
