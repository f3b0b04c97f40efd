// Package document_repo provides PostgreSQL implementations for document repositories.
// In Database-per-Tenant architecture, TxManager is obtained from context per-request.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

var lineColumns = []string{"document_id", "line_id", "line_no", "product_id", "quantity", "price"}

// Filter narrows a document query. It returns false when the filter can
// never match the document kind.
type Filter func(q squirrel.SelectBuilder, f documents.ListFilter) (squirrel.SelectBuilder, bool)

// BaseDocumentRepo stores one document kind in a header table and an items
// table keyed by document_id.
type BaseDocumentRepo[T documents.Postable] struct {
	tableName  string
	itemsTable string
	entity     string
	selectCols []string
	newFn      func() T
	linesFn    func(T) *documents.Lines
	filter     Filter
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T documents.Postable](
	tableName, itemsTable, entity string,
	selectCols []string,
	newFn func() T,
	linesFn func(T) *documents.Lines,
	filter Filter,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		tableName:  tableName,
		itemsTable: itemsTable,
		entity:     entity,
		selectCols: selectCols,
		newFn:      newFn,
		linesFn:    linesFn,
		filter:     filter,
	}
}

func (r *BaseDocumentRepo[T]) baseSelect() squirrel.SelectBuilder {
	return postgres.Builder().Select(r.selectCols...).From(r.tableName)
}

// Create inserts the header and its lines.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, doc T) error {
	sql, args, err := postgres.Builder().Insert(r.tableName).SetMap(r.columns(doc)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := postgres.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, r.entity, "insert")
	}
	return r.saveLines(ctx, doc)
}

// Update saves a re-posted document. The version was advanced by exactly one
// in memory, so the stored row must still hold the previous one.
func (r *BaseDocumentRepo[T]) Update(ctx context.Context, doc T) error {
	header := doc.Doc()
	data := r.columns(doc)
	for _, col := range []string{"id", "created_at", "created_by"} {
		delete(data, col)
	}

	sql, args, err := postgres.Builder().Update(r.tableName).
		SetMap(data).
		Where(squirrel.Eq{"id": header.ID, "version": header.Version - 1}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := postgres.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, r.entity, "update")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entity, header.ID.String())
	}

	if err := r.deleteLines(ctx, header.ID); err != nil {
		return err
	}
	return r.saveLines(ctx, doc)
}

// Delete removes the document and its lines.
func (r *BaseDocumentRepo[T]) Delete(ctx context.Context, docID id.ID) error {
	if err := r.deleteLines(ctx, docID); err != nil {
		return err
	}

	sql, args, err := postgres.Builder().Delete(r.tableName).Where(squirrel.Eq{"id": docID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := postgres.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, r.entity, "delete")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entity, docID.String())
	}
	return nil
}

// GetByID retrieves a document with its lines.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}), docID)
}

// GetForUpdate retrieves a document with row lock.
func (r *BaseDocumentRepo[T]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}).Suffix("FOR UPDATE"), docID)
}

func (r *BaseDocumentRepo[T]) get(ctx context.Context, q squirrel.SelectBuilder, docID id.ID) (T, error) {
	var zero T
	sql, args, err := q.ToSql()
	if err != nil {
		return zero, fmt.Errorf("build query: %w", err)
	}

	doc := r.newFn()
	if err := pgxscan.Get(ctx, postgres.Conn(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return zero, apperror.NewNotFound(r.entity, docID.String())
		}
		return zero, fmt.Errorf("get %s: %w", r.entity, err)
	}
	if err := r.loadLines(ctx, doc); err != nil {
		return zero, err
	}
	return doc, nil
}

// List returns documents newest first.
func (r *BaseDocumentRepo[T]) List(ctx context.Context, f documents.ListFilter) (documents.ListResult[T], error) {
	result := documents.ListResult[T]{Items: []T{}, Limit: f.Limit, Offset: f.Offset}

	q, ok := r.filter(r.baseSelect(), f)
	if !ok {
		return result, nil
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *f.DateTo})
	}

	countSQL, countArgs, err := postgres.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := postgres.Conn(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.entity, err)
	}

	q = q.OrderBy("date DESC", "number DESC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	rows, err := postgres.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return result, fmt.Errorf("list %s: %w", r.entity, err)
	}
	rs := pgxscan.NewRowScanner(rows)
	for rows.Next() {
		doc := r.newFn()
		if err := rs.Scan(doc); err != nil {
			rows.Close()
			return result, fmt.Errorf("scan %s: %w", r.entity, err)
		}
		result.Items = append(result.Items, doc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("list %s: %w", r.entity, err)
	}

	for _, doc := range result.Items {
		if err := r.loadLines(ctx, doc); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (r *BaseDocumentRepo[T]) columns(doc T) map[string]any {
	data := postgres.StructToMap(doc)
	out := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if v, ok := data[col]; ok {
			out[col] = v
		}
	}
	return out
}

func (r *BaseDocumentRepo[T]) loadLines(ctx context.Context, doc T) error {
	sql, args, err := postgres.Builder().
		Select("line_id", "line_no", "product_id", "quantity", "price").
		From(r.itemsTable).
		Where(squirrel.Eq{"document_id": doc.Doc().ID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	var lines documents.Lines
	if err := pgxscan.Select(ctx, postgres.Conn(ctx), &lines, sql, args...); err != nil {
		return fmt.Errorf("load %s lines: %w", r.entity, err)
	}
	*r.linesFn(doc) = lines
	return nil
}

func (r *BaseDocumentRepo[T]) saveLines(ctx context.Context, doc T) error {
	docID := doc.Doc().ID
	lines := *r.linesFn(doc)
	rows := make([][]any, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []any{docID, l.LineID, l.LineNo, l.ProductID, l.Quantity, l.Price})
	}
	return postgres.CopyRows(ctx, r.itemsTable, lineColumns, rows)
}

func (r *BaseDocumentRepo[T]) deleteLines(ctx context.Context, docID id.ID) error {
	sql, args, err := postgres.Builder().Delete(r.itemsTable).Where(squirrel.Eq{"document_id": docID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := postgres.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete %s lines: %w", r.entity, err)
	}
	return nil
}
