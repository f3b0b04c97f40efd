package documents

import (
	"context"
	"fmt"
	"time"

	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/audit"
	"github.com/hasapchy/back-sub001/internal/domain/events"
	"github.com/hasapchy/back-sub001/internal/domain/posting"
	"github.com/hasapchy/back-sub001/internal/domain/pricing"
	"github.com/hasapchy/back-sub001/pkg/logger"
	"github.com/hasapchy/back-sub001/pkg/numerator"
)

// Store persists one document kind together with its lines.
type Store[T Postable] interface {
	Create(ctx context.Context, doc T) error
	// GetByID returns apperror NotFound when missing.
	GetByID(ctx context.Context, docID id.ID) (T, error)
	GetForUpdate(ctx context.Context, docID id.ID) (T, error)
	Update(ctx context.Context, doc T) error
	Delete(ctx context.Context, docID id.ID) error
	List(ctx context.Context, f ListFilter) (ListResult[T], error)
}

// Numbering configures document numbers of one kind.
type Numbering struct {
	Generator numerator.Generator
	Config    numerator.Config
	Options   *numerator.Options
}

// Lifecycle runs Create, Update and Delete of a document kind through the
// posting engine. Each call is one unit of work.
type Lifecycle[T Postable] struct {
	store     Store[T]
	engine    *posting.Engine
	resolver  *Resolver
	numbering Numbering
}

func NewLifecycle[T Postable](store Store[T], engine *posting.Engine, resolver *Resolver, numbering Numbering) *Lifecycle[T] {
	return &Lifecycle[T]{store: store, engine: engine, resolver: resolver, numbering: numbering}
}

// Create validates, numbers, posts and stores a new document.
func (l *Lifecycle[T]) Create(ctx context.Context, doc T) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	header := doc.Doc()
	if header.Number == "" {
		number, err := l.numbering.Generator.GetNextNumber(ctx, l.numbering.Config, l.numbering.Options, header.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		header.Number = number
	}

	op := &posting.Operation{
		AggregateType: doc.Kind(),
		AggregateID:   header.ID,
		Event:         events.DocumentPosted,
		Action:        audit.ActionCreate,
	}
	err := l.engine.Run(ctx, op, func(ctx context.Context, pr *pricing.Pricer) error {
		if err := l.resolver.Check(ctx, doc.References()); err != nil {
			return err
		}
		plan, err := doc.Plan(ctx, pr)
		if err != nil {
			return err
		}
		posted, err := l.engine.Apply(ctx, pr, plan)
		if err != nil {
			return err
		}
		doc.Posted().Set(posted)
		header.MarkPosted(appctx.GetUserID(ctx))

		if err := l.store.Create(ctx, doc); err != nil {
			return fmt.Errorf("create %s: %w", doc.Kind(), err)
		}
		op.Payload = payload(doc)
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, doc.Kind()+" created",
		"id", header.ID,
		"number", header.Number,
		"amount", doc.Posted().Amount.String(),
	)
	return nil
}

// Update reverts the stored document's effects and posts the version that
// mutate returns. mutate receives the locked current document.
func (l *Lifecycle[T]) Update(ctx context.Context, docID id.ID, expectedVersion int, mutate func(cur T) (T, error)) (T, error) {
	var out T
	op := &posting.Operation{
		AggregateID: docID,
		Event:       events.DocumentRevised,
		Action:      audit.ActionUpdate,
	}
	err := l.engine.Run(ctx, op, func(ctx context.Context, pr *pricing.Pricer) error {
		cur, err := l.store.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		op.AggregateType = cur.Kind()
		if err := cur.Doc().CheckVersion(cur.Kind(), expectedVersion); err != nil {
			return err
		}
		prior := cur.Posted().Prior(Recorder(cur), cur.Owner())
		before := payload(cur)

		next, err := mutate(cur)
		if err != nil {
			return err
		}
		if err := next.Validate(ctx); err != nil {
			return err
		}
		if err := l.resolver.Check(ctx, next.References()); err != nil {
			return err
		}

		plan, err := next.Plan(ctx, pr)
		if err != nil {
			return err
		}
		posted, err := l.engine.Replace(ctx, pr, prior, plan)
		if err != nil {
			return err
		}
		next.Posted().Set(posted)
		next.Doc().MarkPosted(appctx.GetUserID(ctx))

		if err := l.store.Update(ctx, next); err != nil {
			return fmt.Errorf("update %s: %w", next.Kind(), err)
		}
		op.Payload = payload(next)
		op.Changes = audit.Diff(before, payload(next))
		out = next
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	logger.Info(ctx, out.Kind()+" updated",
		"id", docID,
		"revision", out.Doc().Revision,
		"amount", out.Posted().Amount.String(),
	)
	return out, nil
}

// Delete reverts every effect of the document and removes it.
func (l *Lifecycle[T]) Delete(ctx context.Context, docID id.ID) error {
	var kind string
	op := &posting.Operation{
		AggregateID: docID,
		Event:       events.DocumentDeleted,
		Action:      audit.ActionDelete,
	}
	err := l.engine.Run(ctx, op, func(ctx context.Context, _ *pricing.Pricer) error {
		cur, err := l.store.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		kind = cur.Kind()
		op.AggregateType = kind
		op.Payload = payload(cur)

		if err := l.engine.Revert(ctx, cur.Posted().Prior(Recorder(cur), cur.Owner()), true); err != nil {
			return err
		}
		if err := l.store.Delete(ctx, docID); err != nil {
			return fmt.Errorf("delete %s: %w", kind, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, kind+" deleted", "id", docID)
	return nil
}

func (l *Lifecycle[T]) Get(ctx context.Context, docID id.ID) (T, error) {
	return l.store.GetByID(ctx, docID)
}

func (l *Lifecycle[T]) List(ctx context.Context, f ListFilter) (ListResult[T], error) {
	return l.store.List(ctx, f)
}

// Carry copies the identity, numbering and posting state of cur into next,
// so an update keeps them.
func Carry(cur, next Postable) {
	header := cur.Doc()
	nh := next.Doc()
	nh.BaseEntity = header.BaseEntity
	nh.Number = header.Number
	nh.Date = header.Date
	nh.Revision = header.Revision
	nh.CreatedAt = header.CreatedAt
	nh.CreatedBy = header.CreatedBy
	nh.UpdatedAt = time.Now().UTC()
	*next.Posted() = *cur.Posted()
}

func payload(doc Postable) map[string]any {
	h := doc.Doc()
	e := doc.Posted()
	m := map[string]any{
		"number":       h.Number,
		"date":         h.Date,
		"revision":     h.Revision,
		"amount":       e.Amount.String(),
		"client_delta": e.ClientDelta.String(),
	}
	if e.EntryID != nil {
		m["entry_id"] = e.EntryID.String()
	}
	return m
}
