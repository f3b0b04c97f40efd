package entity

import (
	"context"
	"time"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
)

// DocumentState is the lifecycle state of a source document.
//
//	Draft -> Posted -> Posted(Revised) -> Deleted
//
// Drafts only exist in memory before the create transaction commits and
// deleted documents are physically removed, so persisted rows are either
// posted or revised.
type DocumentState string

const (
	StateDraft   DocumentState = "draft"
	StatePosted  DocumentState = "posted"
	StateRevised DocumentState = "revised"
	StateDeleted DocumentState = "deleted"
)

// Document is the base for aggregates that post financial and stock effects
// (sales, orders, receipts, write-offs, movements).
type Document struct {
	BaseEntity
	Audit

	// Number is the document number (generated, unique within type and year)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Note is an optional user comment
	Note string `db:"note" json:"note,omitempty"`

	// Revision counts postings: 0 draft, 1 posted, >1 posted after revision.
	Revision int `db:"revision" json:"revision"`
}

// NewDocument creates a draft document dated now.
func NewDocument(actor string) Document {
	return Document{
		BaseEntity: NewBaseEntity(),
		Audit:      NewAudit(actor),
		Date:       time.Now().UTC(),
	}
}

// State derives the lifecycle state from the revision counter.
func (d *Document) State() DocumentState {
	switch {
	case d.Revision <= 0:
		return StateDraft
	case d.Revision == 1:
		return StatePosted
	default:
		return StateRevised
	}
}

// MarkPosted advances the revision after the document effects were applied.
func (d *Document) MarkPosted(actor string) {
	d.Revision++
	if d.Revision > 1 {
		d.Touch()
	}
	d.Stamp(actor)
}

// CheckVersion enforces optimistic locking for updates coming from clients.
// A zero expected version skips the check.
func (d *Document) CheckVersion(entity string, expected int) error {
	if expected != 0 && expected != d.Version {
		return apperror.NewConcurrentModification(entity, d.ID.String()).
			WithDetail("expected_version", expected).
			WithDetail("actual_version", d.Version)
	}
	return nil
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}
