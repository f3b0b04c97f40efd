package writeoff

import (
	"context"

	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/posting"
	"github.com/hasapchy/back-sub001/pkg/numerator"
)

// Service provides business operations for write-offs.
type Service struct {
	lifecycle *documents.Lifecycle[*WriteOff]
}

func NewService(repo Repository, engine *posting.Engine, resolver *documents.Resolver, gen numerator.Generator) *Service {
	return &Service{
		lifecycle: documents.NewLifecycle[*WriteOff](repo, engine, resolver, documents.Numbering{
			Generator: gen,
			Config:    numerator.DefaultConfig(NumberPrefix),
			Options:   &numerator.Options{Strategy: NumeratorStrategy},
		}),
	}
}

func (s *Service) Create(ctx context.Context, in Input) (*WriteOff, error) {
	doc := NewWriteOff(appctx.GetUserID(ctx))
	in.fill(doc)
	if err := s.lifecycle.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) Update(ctx context.Context, docID id.ID, in Input, expectedVersion int) (*WriteOff, error) {
	return s.lifecycle.Update(ctx, docID, expectedVersion, func(cur *WriteOff) (*WriteOff, error) {
		next := &WriteOff{}
		documents.Carry(cur, next)
		in.fill(next)
		return next, nil
	})
}

// Delete puts the written-off goods back.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	return s.lifecycle.Delete(ctx, docID)
}

func (s *Service) Get(ctx context.Context, docID id.ID) (*WriteOff, error) {
	return s.lifecycle.Get(ctx, docID)
}

func (s *Service) List(ctx context.Context, f documents.ListFilter) (documents.ListResult[*WriteOff], error) {
	return s.lifecycle.List(ctx, f)
}
