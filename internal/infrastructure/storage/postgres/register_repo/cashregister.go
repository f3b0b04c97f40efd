package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/cashregister"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

const (
	registerTable      = "cash_registers"
	registerUsersTable = "cash_register_users"
)

// CashRegisterRepo implements cashregister.Repository. Assigned users live
// in cash_register_users; a register without rows there is open to everyone.
type CashRegisterRepo struct {
	cols []string
}

func NewCashRegisterRepo() *CashRegisterRepo {
	return &CashRegisterRepo{cols: postgres.ExtractDBColumns[cashregister.Register]()}
}

func (r *CashRegisterRepo) sel() squirrel.SelectBuilder {
	return postgres.Builder().Select(r.cols...).From(registerTable)
}

func (r *CashRegisterRepo) Create(ctx context.Context, reg *cashregister.Register) error {
	q := postgres.Builder().Insert(registerTable).SetMap(postgres.StructToMap(reg))
	if err := exec(ctx, q, "cash_register", reg.ID, "insert", false); err != nil {
		return err
	}
	return r.saveUsers(ctx, reg.ID, reg.UserIDs)
}

func (r *CashRegisterRepo) GetByID(ctx context.Context, registerID id.ID) (*cashregister.Register, error) {
	reg, err := get[cashregister.Register](ctx, r.sel().Where(squirrel.Eq{"id": registerID}), "cash_register", registerID)
	if err != nil {
		return nil, err
	}
	return reg, r.loadUsers(ctx, reg)
}

func (r *CashRegisterRepo) GetForUpdate(ctx context.Context, registerID id.ID) (*cashregister.Register, error) {
	q := r.sel().Where(squirrel.Eq{"id": registerID}).Suffix("FOR UPDATE")
	reg, err := get[cashregister.Register](ctx, q, "cash_register", registerID)
	if err != nil {
		return nil, err
	}
	return reg, r.loadUsers(ctx, reg)
}

func (r *CashRegisterRepo) List(ctx context.Context, userID string) ([]*cashregister.Register, error) {
	q := r.sel().OrderBy("name")
	if userID != "" {
		q = q.Where(squirrel.Or{
			squirrel.Expr("NOT EXISTS (SELECT 1 FROM "+registerUsersTable+" u WHERE u.register_id = "+registerTable+".id)"),
			squirrel.Expr("EXISTS (SELECT 1 FROM "+registerUsersTable+" u WHERE u.register_id = "+registerTable+".id AND u.user_id = ?)", userID),
		})
	}
	out, err := list[cashregister.Register](ctx, q, "cash_registers")
	if err != nil {
		return nil, err
	}
	for _, reg := range out {
		if err := r.loadUsers(ctx, reg); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *CashRegisterRepo) Update(ctx context.Context, reg *cashregister.Register) error {
	q := postgres.Builder().Update(registerTable).
		Set("name", reg.Name).
		Set("version", reg.Version).
		Set("updated_at", reg.UpdatedAt).
		Where(squirrel.Eq{"id": reg.ID})
	if err := exec(ctx, q, "cash_register", reg.ID, "update", true); err != nil {
		return err
	}
	return r.saveUsers(ctx, reg.ID, reg.UserIDs)
}

func (r *CashRegisterRepo) UpdateBalance(ctx context.Context, registerID id.ID, balance decimal.Decimal) error {
	q := postgres.Builder().Update(registerTable).
		Set("balance", balance).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": registerID})
	return exec(ctx, q, "cash_register", registerID, "update balance", true)
}

func (r *CashRegisterRepo) Delete(ctx context.Context, registerID id.ID) error {
	users := postgres.Builder().Delete(registerUsersTable).Where(squirrel.Eq{"register_id": registerID})
	if err := exec(ctx, users, "cash_register", registerID, "delete users", false); err != nil {
		return err
	}
	q := postgres.Builder().Delete(registerTable).Where(squirrel.Eq{"id": registerID})
	return exec(ctx, q, "cash_register", registerID, "delete", true)
}

func (r *CashRegisterRepo) loadUsers(ctx context.Context, reg *cashregister.Register) error {
	sql, args, err := postgres.Builder().Select("user_id").From(registerUsersTable).
		Where(squirrel.Eq{"register_id": reg.ID}).
		OrderBy("user_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	reg.UserIDs = nil
	if err := pgxscan.Select(ctx, postgres.Conn(ctx), &reg.UserIDs, sql, args...); err != nil {
		return fmt.Errorf("load register users: %w", err)
	}
	return nil
}

func (r *CashRegisterRepo) saveUsers(ctx context.Context, registerID id.ID, userIDs []string) error {
	del := postgres.Builder().Delete(registerUsersTable).Where(squirrel.Eq{"register_id": registerID})
	if err := exec(ctx, del, "cash_register", registerID, "clear users", false); err != nil {
		return err
	}
	rows := make([][]any, 0, len(userIDs))
	for _, u := range userIDs {
		rows = append(rows, []any{registerID, u})
	}
	return postgres.CopyRows(ctx, registerUsersTable, []string{"register_id", "user_id"}, rows)
}

var _ cashregister.Repository = (*CashRegisterRepo)(nil)
