package order

import (
	"context"

	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/posting"
	"github.com/hasapchy/back-sub001/pkg/numerator"
)

// Service provides business operations for client orders.
type Service struct {
	lifecycle *documents.Lifecycle[*Order]
	resolver  *documents.Resolver
}

func NewService(repo Repository, engine *posting.Engine, resolver *documents.Resolver, gen numerator.Generator) *Service {
	return &Service{
		lifecycle: documents.NewLifecycle[*Order](repo, engine, resolver, documents.Numbering{
			Generator: gen,
			Config:    numerator.DefaultConfig(NumberPrefix),
			Options:   &numerator.Options{Strategy: NumeratorStrategy},
		}),
		resolver: resolver,
	}
}

func (s *Service) Create(ctx context.Context, in documents.TradeInput) (*Order, error) {
	if in.PaymentType == "" {
		in.PaymentType = documents.PaymentBalance
	}
	if err := s.resolveCurrency(ctx, &in); err != nil {
		return nil, err
	}
	doc := NewOrder(appctx.GetUserID(ctx))
	in.Fill(&doc.Trade)
	if err := s.lifecycle.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update re-posts the order. Editing quantities moves stock by the
// difference only, because the old quantities are restored first.
func (s *Service) Update(ctx context.Context, docID id.ID, in documents.TradeInput, expectedVersion int) (*Order, error) {
	if in.PaymentType == "" {
		in.PaymentType = documents.PaymentBalance
	}
	if err := s.resolveCurrency(ctx, &in); err != nil {
		return nil, err
	}
	return s.lifecycle.Update(ctx, docID, expectedVersion, func(cur *Order) (*Order, error) {
		next := &Order{}
		documents.Carry(cur, next)
		in.Fill(&next.Trade)
		return next, nil
	})
}

func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	return s.lifecycle.Delete(ctx, docID)
}

func (s *Service) Get(ctx context.Context, docID id.ID) (*Order, error) {
	return s.lifecycle.Get(ctx, docID)
}

func (s *Service) List(ctx context.Context, f documents.ListFilter) (documents.ListResult[*Order], error) {
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
