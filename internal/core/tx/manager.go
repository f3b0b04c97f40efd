// Package tx defines the unit of work the ledger services post through.
// storage/postgres implements it over pgx, storage/memory for tests.
package tx

import "context"

// Manager commits fn's writes atomically or not at all. A ledger entry and
// the balance it moves, both legs of a transfer, a stock pair, a document and
// everything it posted: each is written inside one RunInTransaction.
//
// A call made while ctx already holds a transaction joins it, so services can
// call each other without nesting units of work.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager gives reports a consistent snapshot without taking write
// locks.
type ReadOnlyManager interface {
	Manager
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
