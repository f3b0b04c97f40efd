// Package clientbalance keeps the running debt/credit balance of clients.
//
// A positive balance means the client owes the business. Balance-type sales
// and orders add their amount, balance-type receipts from a supplier
// subtract theirs.
package clientbalance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/core/tenant"
	"github.com/hasapchy/back-sub001/internal/core/tx"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

// Balance is the single running balance row of a client.
type Balance struct {
	ClientID  id.ID           `db:"client_id" json:"clientId"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// Repository persists client balances.
type Repository interface {
	// Create inserts a zero row. Fails with Duplicate when it exists.
	Create(ctx context.Context, b *Balance) error
	// Get returns apperror NotFound when the client has no balance row.
	Get(ctx context.Context, clientID id.ID) (*Balance, error)
	GetForUpdate(ctx context.Context, clientID id.ID) (*Balance, error)
	Update(ctx context.Context, b *Balance) error
}

// Service is the client balance manager. ApplyDelta and ReverseDelta run in
// the caller's transaction.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Open creates the zero balance of a newly registered client.
func (s *Service) Open(ctx context.Context, clientID id.ID) (*Balance, error) {
	b := &Balance{ClientID: clientID, Balance: decimal.Zero, UpdatedAt: time.Now().UTC()}
	err := tenant.RunInTx(ctx, s.txManager, func(ctx context.Context) error {
		return s.repo.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "client balance opened", "client_id", clientID)
	return b, nil
}

func (s *Service) Get(ctx context.Context, clientID id.ID) (*Balance, error) {
	return s.repo.Get(ctx, clientID)
}

// LockAll locks client rows in ascending id order.
func (s *Service) LockAll(ctx context.Context, ids ...id.ID) error {
	for _, cid := range id.SortUnique(ids) {
		if _, err := s.repo.GetForUpdate(ctx, cid); err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("client", cid.String())
			}
			return err
		}
	}
	return nil
}

// ApplyDelta adds delta to the client balance.
func (s *Service) ApplyDelta(ctx context.Context, clientID id.ID, delta decimal.Decimal) (*Balance, error) {
	b, err := s.repo.GetForUpdate(ctx, clientID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("client", clientID.String())
		}
		return nil, err
	}
	if delta.IsZero() {
		return b, nil
	}

	b.Balance = b.Balance.Add(delta)
	b.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update client balance: %w", err)
	}
	return b, nil
}

// ReverseDelta cancels a previous ApplyDelta of the same delta.
func (s *Service) ReverseDelta(ctx context.Context, clientID id.ID, delta decimal.Decimal) (*Balance, error) {
	return s.ApplyDelta(ctx, clientID, delta.Neg())
}

// Adjust applies a standalone delta in its own unit of work.
func (s *Service) Adjust(ctx context.Context, clientID id.ID, delta decimal.Decimal) (*Balance, error) {
	var out *Balance
	err := tenant.RunInTx(ctx, s.txManager, func(ctx context.Context) error {
		var err error
		out, err = s.ApplyDelta(ctx, clientID, delta)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "client balance adjusted", "client_id", clientID, "delta", delta.String())
	return out, nil
}
