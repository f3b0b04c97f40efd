package register_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/transfer"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

const transferTable = "cash_transfers"

// TransferRepo implements transfer.Repository.
type TransferRepo struct {
	cols []string
}

func NewTransferRepo() *TransferRepo {
	return &TransferRepo{cols: postgres.ExtractDBColumns[transfer.Transfer]()}
}

func (r *TransferRepo) sel() squirrel.SelectBuilder {
	return postgres.Builder().Select(r.cols...).From(transferTable)
}

func (r *TransferRepo) Create(ctx context.Context, t *transfer.Transfer) error {
	q := postgres.Builder().Insert(transferTable).SetMap(postgres.StructToMap(t))
	return exec(ctx, q, "cash_transfer", t.ID, "insert", false)
}

func (r *TransferRepo) GetByID(ctx context.Context, transferID id.ID) (*transfer.Transfer, error) {
	return get[transfer.Transfer](ctx, r.sel().Where(squirrel.Eq{"id": transferID}), "cash_transfer", transferID)
}

func (r *TransferRepo) GetForUpdate(ctx context.Context, transferID id.ID) (*transfer.Transfer, error) {
	q := r.sel().Where(squirrel.Eq{"id": transferID}).Suffix("FOR UPDATE")
	return get[transfer.Transfer](ctx, q, "cash_transfer", transferID)
}

func (r *TransferRepo) Update(ctx context.Context, t *transfer.Transfer) error {
	data := postgres.StructToMap(t)
	delete(data, "id")
	delete(data, "created_at")
	delete(data, "created_by")
	q := postgres.Builder().Update(transferTable).SetMap(data).Where(squirrel.Eq{"id": t.ID})
	return exec(ctx, q, "cash_transfer", t.ID, "update", true)
}

func (r *TransferRepo) Delete(ctx context.Context, transferID id.ID) error {
	q := postgres.Builder().Delete(transferTable).Where(squirrel.Eq{"id": transferID})
	return exec(ctx, q, "cash_transfer", transferID, "delete", true)
}

// List returns transfers newest first.
func (r *TransferRepo) List(ctx context.Context, f transfer.Filter) ([]*transfer.Transfer, error) {
	q := r.sel()
	if f.RegisterID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"from_register_id": *f.RegisterID},
			squirrel.Eq{"to_register_id": *f.RegisterID},
		})
	}
	return list[transfer.Transfer](ctx, page(q.OrderBy("id DESC"), f.Limit, f.Offset), "cash_transfers")
}

var _ transfer.Repository = (*TransferRepo)(nil)
