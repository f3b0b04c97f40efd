package transactions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/app/apptest"
	"github.com/hasapchy/back-sub001/internal/core/apperror"
	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/audit"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/rounding"
)

func draft(t ledger.EntryType, amount string, currencyID id.ID, registerID *id.ID) ledger.Draft {
	return ledger.Draft{Type: t, OrigAmount: apptest.D(amount), OrigCurrencyID: currencyID, CashRegisterID: registerID}
}

func TestCreate_ConvertsIntoRegisterCurrency(t *testing.T) {
	env := apptest.New(t)
	eur := env.Currency("EUR", "0.9")
	reg := env.Register("main", env.USD.ID)

	e, err := env.Svc.Transactions.Create(env.Ctx, draft(ledger.Income, "9", eur.ID, id.Ptr(reg)))
	require.NoError(t, err)

	assert.Equal(t, env.USD.ID, e.CurrencyID)
	apptest.Equal(t, "10", e.Amount)
	apptest.Equal(t, "9", e.OrigAmount)
	apptest.Equal(t, "10", env.RegisterBalance(reg))
	env.Consistent(reg)
}

func TestCreate_WithoutRegisterUsesDefaultCurrency(t *testing.T) {
	env := apptest.New(t)
	eur := env.Currency("EUR", "0.5")

	e, err := env.Svc.Transactions.Create(env.Ctx, draft(ledger.Expense, "3", eur.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, env.USD.ID, e.CurrencyID)
	apptest.Equal(t, "6", e.Amount)
}

func TestCreate_RejectsSource(t *testing.T) {
	env := apptest.New(t)
	d := draft(ledger.Income, "1", env.USD.ID, nil)
	d.Source = ledger.From(ledger.SourceSale, id.New())

	_, err := env.Svc.Transactions.Create(env.Ctx, d)
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestUpdate_MovesEffectBetweenRegisters(t *testing.T) {
	env := apptest.New(t)
	a := env.Register("a", env.USD.ID)
	b := env.Register("b", env.USD.ID)

	e, err := env.Svc.Transactions.Create(env.Ctx, draft(ledger.Income, "40", env.USD.ID, id.Ptr(a)))
	require.NoError(t, err)

	updated, err := env.Svc.Transactions.Update(env.Ctx, e.ID, draft(ledger.Expense, "15", env.USD.ID, id.Ptr(b)))
	require.NoError(t, err)

	assert.Equal(t, e.ID, updated.ID)
	apptest.Equal(t, "0", env.RegisterBalance(a))
	apptest.Equal(t, "-15", env.RegisterBalance(b))
	env.Consistent(a, b)

	var changes map[string]any
	for _, rec := range env.Store.AuditRecords() {
		if rec.Action == audit.ActionUpdate && rec.EntityID == e.ID {
			changes = rec.Changes
		}
	}
	require.NotNil(t, changes)
	assert.Contains(t, changes, "amount")
	assert.Contains(t, changes, "cash_register_id")
}

func TestReverse_VoidsAndKeepsRow(t *testing.T) {
	env := apptest.New(t)
	reg := env.Register("main", env.USD.ID)
	e, err := env.Svc.Transactions.Create(env.Ctx, draft(ledger.Income, "25", env.USD.ID, id.Ptr(reg)))
	require.NoError(t, err)

	reversed, err := env.Svc.Transactions.Reverse(env.Ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, reversed.Voided)
	apptest.Equal(t, "0", env.RegisterBalance(reg))
	env.Consistent(reg)

	_, err = env.Svc.Transactions.Reverse(env.Ctx, e.ID)
	assert.True(t, apperror.Is(err, apperror.CodePreconditionFailed))

	_, err = env.Svc.Transactions.Update(env.Ctx, e.ID, draft(ledger.Income, "1", env.USD.ID, id.Ptr(reg)))
	assert.True(t, apperror.Is(err, apperror.CodePreconditionFailed))

	// deleting a voided entry must not undo its effect a second time
	require.NoError(t, env.Svc.Transactions.Delete(env.Ctx, e.ID))
	apptest.Equal(t, "0", env.RegisterBalance(reg))
}

func TestDelete_UndoesEffect(t *testing.T) {
	env := apptest.New(t)
	reg := env.Register("main", env.USD.ID)
	env.Fund(reg, "100")
	e, err := env.Svc.Transactions.Create(env.Ctx, draft(ledger.Expense, "30", env.USD.ID, id.Ptr(reg)))
	require.NoError(t, err)
	apptest.Equal(t, "70", env.RegisterBalance(reg))

	require.NoError(t, env.Svc.Transactions.Delete(env.Ctx, e.ID))
	apptest.Equal(t, "100", env.RegisterBalance(reg))

	_, err = env.Svc.Transactions.Get(env.Ctx, e.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_ForbiddenRegister(t *testing.T) {
	env := apptest.New(t)
	r, err := env.Svc.Registers.Create(env.Ctx, "alice only", env.USD.ID, []string{"alice"})
	require.NoError(t, err)

	bob := appctx.WithUser(env.Ctx, &appctx.UserContext{UserID: "bob"})
	_, err = env.Svc.Transactions.Create(bob, draft(ledger.Income, "1", env.USD.ID, id.Ptr(r.ID)))
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))

	alice := appctx.WithUser(env.Ctx, &appctx.UserContext{UserID: "alice"})
	_, err = env.Svc.Transactions.Create(alice, draft(ledger.Income, "1", env.USD.ID, id.Ptr(r.ID)))
	assert.NoError(t, err)
}

func TestCreate_UnroundedAmountKeepsStorageScale(t *testing.T) {
	env := apptest.New(t)
	policy := rounding.DefaultPolicy()
	policy.Amount.Enabled = false
	require.NoError(t, env.Svc.Rounding.Update(env.Ctx, policy))
	eur := env.Currency("EUR", "3")
	reg := env.Register("main", env.USD.ID)

	e, err := env.Svc.Transactions.Create(env.Ctx, draft(ledger.Income, "1", eur.ID, id.Ptr(reg)))
	require.NoError(t, err)

	apptest.Equal(t, "0.33333333", e.Amount)
	apptest.Equal(t, "0.33333333", env.RegisterBalance(reg))
	env.Consistent(reg)
}
