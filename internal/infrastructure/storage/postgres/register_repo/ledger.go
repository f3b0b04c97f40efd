package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

const ledgerTable = "ledger_entries"

// entryRow is the ledger_entries layout. Manual entries store NULL source
// columns.
type entryRow struct {
	ID             id.ID           `db:"id"`
	Type           string          `db:"type"`
	Amount         decimal.Decimal `db:"amount"`
	CurrencyID     id.ID           `db:"currency_id"`
	OrigAmount     decimal.Decimal `db:"orig_amount"`
	OrigCurrencyID id.ID           `db:"orig_currency_id"`
	CashRegisterID *id.ID          `db:"cash_register_id"`
	CategoryID     *id.ID          `db:"category_id"`
	ClientID       *id.ID          `db:"client_id"`
	ProjectID      *id.ID          `db:"project_id"`
	IsDebt         bool            `db:"is_debt"`
	Date           time.Time       `db:"date"`
	Note           string          `db:"note"`
	CreatedBy      string          `db:"created_by"`
	SourceType     *string         `db:"source_type"`
	SourceID       *id.ID          `db:"source_id"`
	Voided         bool            `db:"voided"`
	VoidedAt       *time.Time      `db:"voided_at"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func toEntryRow(e *ledger.Entry) entryRow {
	row := entryRow{
		ID:             e.ID,
		Type:           string(e.Type),
		Amount:         e.Amount,
		CurrencyID:     e.CurrencyID,
		OrigAmount:     e.OrigAmount,
		OrigCurrencyID: e.OrigCurrencyID,
		CashRegisterID: e.CashRegisterID,
		CategoryID:     e.CategoryID,
		ClientID:       e.ClientID,
		ProjectID:      e.ProjectID,
		IsDebt:         e.IsDebt,
		Date:           e.Date,
		Note:           e.Note,
		CreatedBy:      e.CreatedBy,
		Voided:         e.Voided,
		VoidedAt:       e.VoidedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
	if e.Source.IsDerived() {
		kind := string(e.Source.Kind)
		row.SourceType = &kind
		row.SourceID = id.Ptr(e.Source.ID)
	}
	return row
}

func (row *entryRow) entry() *ledger.Entry {
	e := &ledger.Entry{
		ID:             row.ID,
		Type:           ledger.EntryType(row.Type),
		Amount:         row.Amount,
		CurrencyID:     row.CurrencyID,
		OrigAmount:     row.OrigAmount,
		OrigCurrencyID: row.OrigCurrencyID,
		CashRegisterID: row.CashRegisterID,
		CategoryID:     row.CategoryID,
		ClientID:       row.ClientID,
		ProjectID:      row.ProjectID,
		IsDebt:         row.IsDebt,
		Date:           row.Date,
		Note:           row.Note,
		CreatedBy:      row.CreatedBy,
		Voided:         row.Voided,
		VoidedAt:       row.VoidedAt,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if row.SourceType != nil && row.SourceID != nil {
		e.Source = ledger.From(ledger.SourceKind(*row.SourceType), *row.SourceID)
	}
	return e
}

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	cols []string
}

func NewLedgerRepo() *LedgerRepo {
	return &LedgerRepo{cols: postgres.ExtractDBColumns[entryRow]()}
}

func (r *LedgerRepo) sel() squirrel.SelectBuilder {
	return postgres.Builder().Select(r.cols...).From(ledgerTable)
}

func (r *LedgerRepo) Create(ctx context.Context, e *ledger.Entry) error {
	q := postgres.Builder().Insert(ledgerTable).SetMap(postgres.StructToMap(toEntryRow(e)))
	return exec(ctx, q, "ledger_entry", e.ID, "insert", false)
}

func (r *LedgerRepo) GetByID(ctx context.Context, entryID id.ID) (*ledger.Entry, error) {
	row, err := get[entryRow](ctx, r.sel().Where(squirrel.Eq{"id": entryID}), "ledger_entry", entryID)
	if err != nil {
		return nil, err
	}
	return row.entry(), nil
}

func (r *LedgerRepo) GetForUpdate(ctx context.Context, entryID id.ID) (*ledger.Entry, error) {
	row, err := get[entryRow](ctx, r.sel().Where(squirrel.Eq{"id": entryID}).Suffix("FOR UPDATE"), "ledger_entry", entryID)
	if err != nil {
		return nil, err
	}
	return row.entry(), nil
}

func (r *LedgerRepo) Update(ctx context.Context, e *ledger.Entry) error {
	data := postgres.StructToMap(toEntryRow(e))
	delete(data, "id")
	delete(data, "created_at")
	delete(data, "created_by")
	q := postgres.Builder().Update(ledgerTable).SetMap(data).Where(squirrel.Eq{"id": e.ID})
	return exec(ctx, q, "ledger_entry", e.ID, "update", true)
}

func (r *LedgerRepo) Delete(ctx context.Context, entryID id.ID) error {
	q := postgres.Builder().Delete(ledgerTable).Where(squirrel.Eq{"id": entryID})
	return exec(ctx, q, "ledger_entry", entryID, "delete", true)
}

// List returns entries newest first.
func (r *LedgerRepo) List(ctx context.Context, f ledger.Filter) ([]*ledger.Entry, error) {
	q := r.sel()
	if !f.IncludeVoided {
		q = q.Where(squirrel.Eq{"voided": false})
	}
	if f.CashRegisterID != nil {
		q = q.Where(squirrel.Eq{"cash_register_id": *f.CashRegisterID})
	}
	if f.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *f.ClientID})
	}
	if f.SourceKind != nil {
		if *f.SourceKind == ledger.SourceManual {
			q = q.Where("source_type IS NULL")
		} else {
			q = q.Where(squirrel.Eq{"source_type": string(*f.SourceKind)})
		}
	}
	if f.SourceID != nil {
		q = q.Where(squirrel.Eq{"source_id": *f.SourceID})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *f.DateTo})
	}
	q = page(q.OrderBy("date DESC", "id DESC"), f.Limit, f.Offset)

	rows, err := list[entryRow](ctx, q, "ledger_entries")
	if err != nil {
		return nil, err
	}
	return entries(rows), nil
}

func (r *LedgerRepo) ListBySource(ctx context.Context, src ledger.Source) ([]*ledger.Entry, error) {
	q := r.sel().OrderBy("id")
	if src.IsDerived() {
		q = q.Where(squirrel.Eq{"source_type": string(src.Kind), "source_id": src.ID})
	} else {
		q = q.Where("source_type IS NULL")
	}
	rows, err := list[entryRow](ctx, q, "ledger_entries")
	if err != nil {
		return nil, err
	}
	return entries(rows), nil
}

func (r *LedgerRepo) SumByRegister(ctx context.Context, registerID id.ID) (decimal.Decimal, error) {
	sql, args, err := postgres.Builder().
		Select("COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE -amount END), 0)").
		From(ledgerTable).
		Where(squirrel.Eq{"cash_register_id": registerID, "voided": false}).
		ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build query: %w", err)
	}
	var sum decimal.Decimal
	if err := postgres.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum register entries: %w", err)
	}
	return sum, nil
}

func (r *LedgerRepo) CountByRegister(ctx context.Context, registerID id.ID) (int, error) {
	sql, args, err := postgres.Builder().Select("COUNT(*)").From(ledgerTable).
		Where(squirrel.Eq{"cash_register_id": registerID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var n int
	if err := postgres.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count register entries: %w", err)
	}
	return n, nil
}

func entries(rows []*entryRow) []*ledger.Entry {
	out := make([]*ledger.Entry, len(rows))
	for i, row := range rows {
		out[i] = row.entry()
	}
	return out
}

var _ ledger.Repository = (*LedgerRepo)(nil)
