package sale

import (
	"context"

	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/posting"
	"github.com/hasapchy/back-sub001/pkg/numerator"
)

// Service provides business operations for sales.
type Service struct {
	lifecycle *documents.Lifecycle[*Sale]
	resolver  *documents.Resolver
}

func NewService(repo Repository, engine *posting.Engine, resolver *documents.Resolver, gen numerator.Generator) *Service {
	return &Service{
		lifecycle: documents.NewLifecycle[*Sale](repo, engine, resolver, documents.Numbering{
			Generator: gen,
			Config:    numerator.DefaultConfig(NumberPrefix),
			Options:   &numerator.Options{Strategy: NumeratorStrategy},
		}),
		resolver: resolver,
	}
}

// Create posts a new sale.
func (s *Service) Create(ctx context.Context, in documents.TradeInput) (*Sale, error) {
	if err := s.resolveCurrency(ctx, &in); err != nil {
		return nil, err
	}
	doc := NewSale(appctx.GetUserID(ctx))
	in.Fill(&doc.Trade)
	if err := s.lifecycle.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update reverses the sale's effects and posts the new content.
func (s *Service) Update(ctx context.Context, docID id.ID, in documents.TradeInput, expectedVersion int) (*Sale, error) {
	if err := s.resolveCurrency(ctx, &in); err != nil {
		return nil, err
	}
	return s.lifecycle.Update(ctx, docID, expectedVersion, func(cur *Sale) (*Sale, error) {
		next := &Sale{}
		documents.Carry(cur, next)
		in.Fill(&next.Trade)
		return next, nil
	})
}

// Delete restores stock and balances and removes the sale.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	return s.lifecycle.Delete(ctx, docID)
}

func (s *Service) Get(ctx context.Context, docID id.ID) (*Sale, error) {
	return s.lifecycle.Get(ctx, docID)
}

func (s *Service) List(ctx context.Context, f documents.ListFilter) (documents.ListResult[*Sale], error) {
	return s.lifecycle.List(ctx, f)
}

func (s *Service) resolveCurrency(ctx context.Context, in *documents.TradeInput) error {
	cur, err := s.resolver.ResolveCurrency(ctx, in.CurrencyID, in.CashRegisterID)
	if err != nil {
		return err
	}
	in.CurrencyID = cur
	return nil
}
