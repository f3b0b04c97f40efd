// Package movement provides the stock Movement document between two
// warehouses.
package movement

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

const Kind = "movement"

// Movement relocates goods. The total quantity per product is unchanged.
type Movement struct {
	entity.Document

	FromWarehouseID id.ID `db:"from_warehouse_id" json:"fromWarehouseId"`
	ToWarehouseID   id.ID `db:"to_warehouse_id" json:"toWarehouseId"`

	documents.Effects

	Lines documents.Lines `db:"-" json:"lines"`
}

func NewMovement(actor string) *Movement {
	return &Movement{Document: entity.NewDocument(actor)}
}

func (m *Movement) Doc() *entity.Document { return &m.Document }

func (m *Movement) Posted() *documents.Effects { return &m.Effects }

// Validate implements entity.Validatable.
func (m *Movement) Validate(ctx context.Context) error {
	if err := m.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(m.FromWarehouseID) {
		return apperror.NewValidation("source warehouse is required").WithDetail("field", "fromWarehouseId")
	}
	if id.IsNil(m.ToWarehouseID) {
		return apperror.NewValidation("destination warehouse is required").WithDetail("field", "toWarehouseId")
	}
	if m.FromWarehouseID == m.ToWarehouseID {
		return apperror.NewValidation("source and destination warehouse must differ").
			WithDetail("field", "toWarehouseId")
	}
	m.Lines.Number()
	return m.Lines.Validate(false)
}

func (m *Movement) Kind() string { return Kind }

// Owner is manual: movements never post a ledger entry.
func (m *Movement) Owner() ledger.Source { return ledger.Manual() }

func (m *Movement) References() documents.Refs {
	return documents.Refs{Warehouses: []id.ID{m.FromWarehouseID, m.ToWarehouseID}}
}

func (m *Movement) Plan(ctx context.Context, pr *pricing.Pricer) (posting.Plan, error) {
	lines := m.Lines.Rounded(pr)
	adjs := lines.Adjustments(m.FromWarehouseID, stock.OpMovementOut, -1)
	adjs = append(adjs, lines.Adjustments(m.ToWarehouseID, stock.OpMovementIn, 1)...)
	return posting.Plan{Recorder: documents.Recorder(m), Stock: adjs}, nil
}

var _ documents.Postable = (*Movement)(nil)

// Input is the user-supplied content of a movement.
type Input struct {
	FromWarehouseID id.ID
	ToWarehouseID   id.ID
	Lines           documents.Lines
	Date            time.Time
	Note            string
}

func (in Input) fill(m *Movement) {
	m.FromWarehouseID = in.FromWarehouseID
	m.ToWarehouseID = in.ToWarehouseID
	m.Lines = append(documents.Lines(nil), in.Lines...)
	if !in.Date.IsZero() {
		m.Date = in.Date
	}
	m.Note = in.Note
}
