// Package cashregister manages cash registers and their cached balances.
//
// A register's balance always equals the signed sum of its active ledger
// entries, in the register's currency. The balance is changed only inside
// the unit of work that writes the matching ledger entry.
package cashregister

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
)

// Register is a cash box or bank account held in one currency.
type Register struct {
	ID         id.ID           `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	CurrencyID id.ID           `db:"currency_id" json:"currencyId"`
	Balance    decimal.Decimal `db:"balance" json:"balance"`
	UserIDs    []string        `db:"-" json:"userIds"`
	Version    int             `db:"version" json:"version"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updatedAt"`
}

// Validate implements entity.Validatable.
func (r *Register) Validate(ctx context.Context) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if id.IsNil(r.CurrencyID) {
		return apperror.NewValidation("currency is required").WithDetail("field", "currencyId")
	}
	return nil
}

// Authorized reports whether userID may operate the register.
// A register without users is open to everyone in the tenant.
func (r *Register) Authorized(userID string) bool {
	if len(r.UserIDs) == 0 {
		return true
	}
	for _, u := range r.UserIDs {
		if u == userID {
			return true
		}
	}
	return false
}

// Reconciliation compares the cached balance with the ledger.
type Reconciliation struct {
	RegisterID id.ID           `json:"registerId"`
	Cached     decimal.Decimal `json:"cached"`
	Ledger     decimal.Decimal `json:"ledger"`
	Drift      decimal.Decimal `json:"drift"`
}

// Consistent reports whether the balance invariant holds.
func (r Reconciliation) Consistent() bool {
	return r.Drift.IsZero()
}
