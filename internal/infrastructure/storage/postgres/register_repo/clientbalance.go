package register_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/clientbalance"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

const clientBalanceTable = "client_balances"

// ClientBalanceRepo implements clientbalance.Repository.
type ClientBalanceRepo struct {
	cols []string
}

func NewClientBalanceRepo() *ClientBalanceRepo {
	return &ClientBalanceRepo{cols: postgres.ExtractDBColumns[clientbalance.Balance]()}
}

func (r *ClientBalanceRepo) sel(clientID id.ID) squirrel.SelectBuilder {
	return postgres.Builder().Select(r.cols...).From(clientBalanceTable).Where(squirrel.Eq{"client_id": clientID})
}

// Create relies on the primary key: a second row maps to Duplicate.
func (r *ClientBalanceRepo) Create(ctx context.Context, b *clientbalance.Balance) error {
	q := postgres.Builder().Insert(clientBalanceTable).SetMap(postgres.StructToMap(b))
	return exec(ctx, q, "client_balance", b.ClientID, "insert", false)
}

func (r *ClientBalanceRepo) Get(ctx context.Context, clientID id.ID) (*clientbalance.Balance, error) {
	return get[clientbalance.Balance](ctx, r.sel(clientID), "client", clientID)
}

func (r *ClientBalanceRepo) GetForUpdate(ctx context.Context, clientID id.ID) (*clientbalance.Balance, error) {
	return get[clientbalance.Balance](ctx, r.sel(clientID).Suffix("FOR UPDATE"), "client", clientID)
}

func (r *ClientBalanceRepo) Update(ctx context.Context, b *clientbalance.Balance) error {
	q := postgres.Builder().Update(clientBalanceTable).
		Set("balance", b.Balance).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"client_id": b.ClientID})
	return exec(ctx, q, "client", b.ClientID, "update", true)
}

var _ clientbalance.Repository = (*ClientBalanceRepo)(nil)
