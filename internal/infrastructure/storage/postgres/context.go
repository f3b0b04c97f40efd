package postgres

import (
	"context"
	"fmt"

	"github.com/hasapchy/back-sub001/internal/core/tenant"
)

// MustGetTxManager returns the tenant *TxManager stored in ctx by the tenant
// middleware or the worker. Domain code depends only on tx.Manager.
func MustGetTxManager(ctx context.Context) *TxManager {
	txm, err := tenant.GetTxManager(ctx)
	if err != nil {
		panic(err)
	}
	pg, ok := txm.(*TxManager)
	if !ok || pg == nil {
		panic(fmt.Sprintf("transaction manager in context has unexpected type %T", txm))
	}
	return pg
}

// Conn returns the querier for ctx: the open transaction, else the tenant pool.
func Conn(ctx context.Context) Querier {
	return MustGetTxManager(ctx).GetQuerier(ctx)
}
