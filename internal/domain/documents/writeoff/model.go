// Package writeoff provides the Write-off document. It only removes stock;
// no money moves.
package writeoff

import (
	"context"
	"time"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/entity"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/posting"
	"github.com/hasapchy/back-sub001/internal/domain/pricing"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
)

const Kind = "write_off"

// WriteOff removes damaged or lost goods from a warehouse.
type WriteOff struct {
	entity.Document

	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Reason      string `db:"reason" json:"reason,omitempty"`

	documents.Effects

	Lines documents.Lines `db:"-" json:"lines"`
}

func NewWriteOff(actor string) *WriteOff {
	return &WriteOff{Document: entity.NewDocument(actor)}
}

func (w *WriteOff) Doc() *entity.Document { return &w.Document }

func (w *WriteOff) Posted() *documents.Effects { return &w.Effects }

// Validate implements entity.Validatable.
func (w *WriteOff) Validate(ctx context.Context) error {
	if err := w.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(w.WarehouseID) {
		return apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}
	w.Lines.Number()
	return w.Lines.Validate(false)
}

func (w *WriteOff) Kind() string { return Kind }

func (w *WriteOff) Owner() ledger.Source {
	return ledger.From(ledger.SourceWriteOff, w.ID)
}

func (w *WriteOff) References() documents.Refs {
	return documents.Refs{Warehouses: []id.ID{w.WarehouseID}}
}

func (w *WriteOff) Plan(ctx context.Context, pr *pricing.Pricer) (posting.Plan, error) {
	lines := w.Lines.Rounded(pr)
	return posting.Plan{
		Recorder: documents.Recorder(w),
		Stock:    lines.Adjustments(w.WarehouseID, stock.OpWriteOff, -1),
	}, nil
}

var _ documents.Postable = (*WriteOff)(nil)

// Input is the user-supplied content of a write-off.
type Input struct {
	WarehouseID id.ID
	Reason      string
	Lines       documents.Lines
	Date        time.Time
	Note        string
}

func (in Input) fill(w *WriteOff) {
	w.WarehouseID = in.WarehouseID
	w.Reason = in.Reason
	w.Lines = append(documents.Lines(nil), in.Lines...)
	if !in.Date.IsZero() {
		w.Date = in.Date
	}
	w.Note = in.Note
}
