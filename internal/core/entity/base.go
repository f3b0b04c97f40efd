// Package entity holds the fields every ledger aggregate embeds: identity,
// optimistic-lock version and the who/when stamps.
package entity

import (
	"context"
	"time"

	"github.com/hasapchy/back-sub001/internal/core/id"
)

// Validatable aggregates check their own invariants before they are posted.
// Validate must not touch storage and returns a VALIDATION AppError.
type Validatable interface {
	Validate(ctx context.Context) error
}

type BaseEntity struct {
	ID id.ID `db:"id" json:"id"`
	// Version starts at 1. Repositories update WHERE version = the value read
	// and report CONCURRENT_MODIFICATION when no row matched.
	Version int `db:"version" json:"version"`
}

func NewBaseEntity() BaseEntity {
	return BaseEntity{ID: id.New(), Version: 1}
}

// Touch bumps the version ahead of an update.
func (b *BaseEntity) Touch() { b.Version++ }

type Audit struct {
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

func NewAudit(actor string) Audit {
	now := time.Now().UTC()
	return Audit{CreatedAt: now, UpdatedAt: now, CreatedBy: actor, UpdatedBy: actor}
}

// Stamp records an update. An empty actor (system posting) keeps the last
// human editor.
func (a *Audit) Stamp(actor string) {
	a.UpdatedAt = time.Now().UTC()
	if actor != "" {
		a.UpdatedBy = actor
	}
}
