// Package events defines domain events emitted by ledger operations.
// Events are written to the transactional outbox in the same unit of work as
// the change they describe and relayed later by the worker.
package events

import (
	"context"

	"github.com/hasapchy/back-sub001/internal/core/id"
)

// Event types.
const (
	CurrencyCreated    = "CurrencyCreated"
	ExchangeRateSet    = "ExchangeRateSet"
	DefaultCurrencySet = "DefaultCurrencySet"

	LedgerEntryPosted   = "LedgerEntryPosted"
	LedgerEntryUpdated  = "LedgerEntryUpdated"
	LedgerEntryReversed = "LedgerEntryReversed"
	LedgerEntryDeleted  = "LedgerEntryDeleted"

	TransferCreated = "TransferCreated"
	TransferUpdated = "TransferUpdated"
	TransferDeleted = "TransferDeleted"

	DocumentPosted   = "DocumentPosted"
	DocumentRevised  = "DocumentRevised"
	DocumentDeleted  = "DocumentDeleted"
	StockAdjusted    = "StockAdjusted"
	ClientBalanceSet = "ClientBalanceAdjusted"
)

// Event is a fact about a committed change.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	Type          string
	Payload       any
}

// Publisher stores events. Implementations must write within the
// transaction found in ctx.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
