package transfer_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/app/apptest"
	"github.com/hasapchy/back-sub001/internal/core/apperror"
	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/events"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/transfer"
)

type fixture struct {
	env *apptest.Env
	usd id.ID
	eur id.ID
	svc *transfer.Service
}

func setup(t *testing.T) *fixture {
	env := apptest.New(t)
	eur := env.Currency("EUR", "0.9")
	f := &fixture{
		env: env,
		usd: env.Register("USD cash", env.USD.ID),
		eur: env.Register("EUR cash", eur.ID),
		svc: env.Svc.Transfers,
	}
	env.Fund(f.usd, "100")
	return f
}

func TestCreate_ConvertsIntoDestinationCurrency(t *testing.T) {
	f := setup(t)

	tr, err := f.svc.Create(f.env.Ctx, transfer.Input{FromRegisterID: f.usd, ToRegisterID: f.eur, Amount: apptest.D("50")})
	require.NoError(t, err)

	apptest.Equal(t, "50", tr.Amount)
	apptest.Equal(t, "45.00", tr.Converted)
	apptest.Equal(t, "50", f.env.RegisterBalance(f.usd))
	apptest.Equal(t, "45", f.env.RegisterBalance(f.eur))
	f.env.Consistent(f.usd, f.eur)

	out, err := f.env.Svc.Ledger.Get(f.env.Ctx, tr.OutEntryID)
	require.NoError(t, err)
	in, err := f.env.Svc.Ledger.Get(f.env.Ctx, tr.InEntryID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Expense, out.Type)
	assert.Equal(t, ledger.Income, in.Type)
	assert.Equal(t, ledger.From(ledger.SourceTransfer, tr.ID), out.Source)
	assert.Equal(t, ledger.From(ledger.SourceTransfer, tr.ID), in.Source)
}

func TestGet_ReturnsStoredTransfer(t *testing.T) {
	f := setup(t)
	created, err := f.svc.Create(f.env.Ctx, transfer.Input{FromRegisterID: f.usd, ToRegisterID: f.eur, Amount: apptest.D("12.5"), Note: "float"})
	require.NoError(t, err)

	got, err := f.svc.Get(f.env.Ctx, created.ID)
	require.NoError(t, err)

	compareDecimal := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	ignoreTimes := cmpopts.IgnoreFields(transfer.Transfer{}, "Date", "CreatedAt", "UpdatedAt")
	if diff := cmp.Diff(created, got, compareDecimal, ignoreTimes); diff != "" {
		t.Errorf("stored transfer mismatch (-created +got):\n%s", diff)
	}
	assert.WithinDuration(t, created.Date, got.Date, 0)
}

func TestCreate_InsufficientBalanceLeavesNothing(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(f.env.Ctx, transfer.Input{FromRegisterID: f.usd, ToRegisterID: f.eur, Amount: apptest.D("100.01")})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientBalance))

	apptest.Equal(t, "100", f.env.RegisterBalance(f.usd))
	apptest.Equal(t, "0", f.env.RegisterBalance(f.eur))

	list, err := f.svc.List(f.env.Ctx, transfer.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	entries, err := f.env.Svc.Ledger.List(f.env.Ctx, ledger.Filter{IncludeVoided: true})
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the funding entry remains")
}

func TestCreate_SameRegister(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(f.env.Ctx, transfer.Input{FromRegisterID: f.usd, ToRegisterID: f.usd, Amount: apptest.D("1")})
	assert.True(t, apperror.Is(err, apperror.CodeSameRegister))
}

func TestUpdate_ReplacesLegs(t *testing.T) {
	f := setup(t)
	tr, err := f.svc.Create(f.env.Ctx, transfer.Input{FromRegisterID: f.usd, ToRegisterID: f.eur, Amount: apptest.D("50")})
	require.NoError(t, err)

	updated, err := f.svc.Update(f.env.Ctx, tr.ID, transfer.Input{FromRegisterID: f.usd, ToRegisterID: f.eur, Amount: apptest.D("20")}, tr.Version)
	require.NoError(t, err)

	assert.Equal(t, tr.OutEntryID, updated.OutEntryID)
	assert.Equal(t, tr.InEntryID, updated.InEntryID)
	assert.Equal(t, 2, updated.Version)
	apptest.Equal(t, "80", f.env.RegisterBalance(f.usd))
	apptest.Equal(t, "18", f.env.RegisterBalance(f.eur))
	f.env.Consistent(f.usd, f.eur)

	_, err = f.svc.Update(f.env.Ctx, tr.ID, transfer.Input{FromRegisterID: f.usd, ToRegisterID: f.eur, Amount: apptest.D("5")}, tr.Version)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestUpdate_CanReuseReleasedFunds(t *testing.T) {
	f := setup(t)
	tr, err := f.svc.Create(f.env.Ctx, transfer.Input{FromRegisterID: f.usd, ToRegisterID: f.eur, Amount: apptest.D("100")})
	require.NoError(t, err)

	// the old outgoing leg is undone first, so the full 100 is available again
	_, err = f.svc.Update(f.env.Ctx, tr.ID, transfer.Input{FromRegisterID: f.usd, ToRegisterID: f.eur, Amount: apptest.D("100")}, 0)
	require.NoError(t, err)
	apptest.Equal(t, "0", f.env.RegisterBalance(f.usd))
	apptest.Equal(t, "90", f.env.RegisterBalance(f.eur))
}

func TestDelete_RestoresBothRegisters(t *testing.T) {
	f := setup(t)
	tr, err := f.svc.Create(f.env.Ctx, transfer.Input{FromRegisterID: f.usd, ToRegisterID: f.eur, Amount: apptest.D("50")})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(f.env.Ctx, tr.ID))

	apptest.Equal(t, "100", f.env.RegisterBalance(f.usd))
	apptest.Equal(t, "0", f.env.RegisterBalance(f.eur))
	f.env.Consistent(f.usd, f.eur)

	_, err = f.env.Svc.Ledger.Get(f.env.Ctx, tr.OutEntryID)
	assert.True(t, apperror.IsNotFound(err))
	_, err = f.svc.Get(f.env.Ctx, tr.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestLegsAreProtectedFromManualEdits(t *testing.T) {
	f := setup(t)
	tr, err := f.svc.Create(f.env.Ctx, transfer.Input{FromRegisterID: f.usd, ToRegisterID: f.eur, Amount: apptest.D("10")})
	require.NoError(t, err)

	err = f.env.Svc.Transactions.Delete(f.env.Ctx, tr.InEntryID)
	assert.True(t, apperror.Is(err, apperror.CodeDerivedEntryImmutable))
	apptest.Equal(t, "9", f.env.RegisterBalance(f.eur))
}

func TestCreate_PublishesEvent(t *testing.T) {
	f := setup(t)
	tr, err := f.svc.Create(f.env.Ctx, transfer.Input{FromRegisterID: f.usd, ToRegisterID: f.eur, Amount: apptest.D("10")})
	require.NoError(t, err)

	var found bool
	for _, e := range f.env.Store.Events() {
		if e.Type == events.TransferCreated && e.AggregateID == tr.ID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestUpdateAndDelete_RequireAccessToCurrentSource(t *testing.T) {
	f := setup(t)
	locked, err := f.env.Svc.Registers.Create(f.env.Ctx, "safe", f.env.USD.ID, []string{"alice"})
	require.NoError(t, err)
	f.env.Fund(locked.ID, "30")

	tr, err := f.svc.Create(f.env.Ctx, transfer.Input{FromRegisterID: locked.ID, ToRegisterID: f.usd, Amount: apptest.D("10")})
	require.NoError(t, err)

	bob := appctx.WithUser(f.env.Ctx, &appctx.UserContext{UserID: "bob"})

	_, err = f.svc.Update(bob, tr.ID, transfer.Input{FromRegisterID: f.usd, ToRegisterID: f.eur, Amount: apptest.D("10")}, tr.Version)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))

	err = f.svc.Delete(bob, tr.ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))

	apptest.Equal(t, "20", f.env.RegisterBalance(locked.ID))
	apptest.Equal(t, "110", f.env.RegisterBalance(f.usd))
	apptest.Equal(t, "0", f.env.RegisterBalance(f.eur))

	alice := appctx.WithUser(f.env.Ctx, &appctx.UserContext{UserID: "alice"})
	require.NoError(t, f.svc.Delete(alice, tr.ID))
	apptest.Equal(t, "30", f.env.RegisterBalance(locked.ID))
	f.env.Consistent(locked.ID, f.usd)
}
