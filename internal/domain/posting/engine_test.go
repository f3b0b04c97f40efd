package posting_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/hasapchy/back-sub001/internal/app"
	"github.com/hasapchy/back-sub001/internal/app/apptest"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/events"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/posting"
	"github.com/hasapchy/back-sub001/internal/domain/pricing"
	"github.com/hasapchy/back-sub001/internal/domain/stock"
	"github.com/hasapchy/back-sub001/internal/domain/transfer"
)

func observed(t *testing.T) (*apptest.Env, *posting.MockObserver) {
	ctrl := gomock.NewController(t)
	obs := posting.NewMockObserver(ctrl)
	env := apptest.New(t, func(o *app.Options) { o.Observer = obs })
	return env, obs
}

func TestRun_NotifiesTouchedBalances(t *testing.T) {
	env, obs := observed(t)
	wh := env.Warehouse("main")
	p := env.Product("widget", true)
	env.Stock(wh, p, "5")
	reg := env.Register("main", env.USD.ID)

	obs.EXPECT().BalancesChanged(gomock.Any(), gomock.Any()).Times(1).
		Do(func(_ context.Context, touched posting.Touched) {
			assert.Equal(t, []id.ID{reg}, touched.Registers)
			assert.Equal(t, []stock.Key{{WarehouseID: wh, ProductID: p}}, touched.Stock)
			assert.Empty(t, touched.Clients)
		})

	_, err := env.Svc.Sales.Create(env.Ctx, documents.TradeInput{
		WarehouseID:    wh,
		CashRegisterID: id.Ptr(reg),
		PaymentType:    documents.PaymentCash,
		Lines:          documents.Lines{{ProductID: p, Quantity: apptest.D("1"), Price: apptest.D("3")}},
	})
	require.NoError(t, err)
}

func TestRun_NestedOperationsNotifyOnce(t *testing.T) {
	env, obs := observed(t)
	usd := env.Register("usd", env.USD.ID)
	eur := env.Register("eur", env.Currency("EUR", "0.9").ID)

	obs.EXPECT().BalancesChanged(gomock.Any(), gomock.Any()).Times(1).
		Do(func(_ context.Context, touched posting.Touched) {
			assert.ElementsMatch(t, []id.ID{usd, eur}, touched.Registers)
			assert.Empty(t, touched.Stock)
		})

	op := &posting.Operation{AggregateType: "batch", AggregateID: id.New()}
	err := env.Svc.Engine.Run(env.Ctx, op, func(ctx context.Context, _ *pricing.Pricer) error {
		if _, err := env.Svc.Transactions.Create(ctx, ledger.Draft{
			Type:           ledger.Income,
			OrigAmount:     apptest.D("100"),
			OrigCurrencyID: env.USD.ID,
			CashRegisterID: id.Ptr(usd),
		}); err != nil {
			return err
		}
		_, err := env.Svc.Transfers.Create(ctx, transfer.Input{
			FromRegisterID: usd,
			ToRegisterID:   eur,
			Amount:         apptest.D("10"),
		})
		return err
	})
	require.NoError(t, err)
	apptest.Equal(t, "9", env.RegisterBalance(eur))
}

func TestRun_FailureRollsBackAndStaysSilent(t *testing.T) {
	env, obs := observed(t)
	reg := env.Register("main", env.USD.ID)
	obs.EXPECT().BalancesChanged(gomock.Any(), gomock.Any()).Times(0)

	before := len(env.Store.Events())
	boom := errors.New("boom")
	op := &posting.Operation{AggregateType: "batch", AggregateID: id.New(), Event: events.TransferCreated}
	err := env.Svc.Engine.Run(env.Ctx, op, func(ctx context.Context, _ *pricing.Pricer) error {
		if _, err := env.Svc.Transactions.Create(ctx, ledger.Draft{
			Type:           ledger.Income,
			OrigAmount:     apptest.D("100"),
			OrigCurrencyID: env.USD.ID,
			CashRegisterID: id.Ptr(reg),
		}); err != nil {
			return err
		}
		return boom
	})

	require.ErrorIs(t, err, boom)
	apptest.Equal(t, "0", env.RegisterBalance(reg))
	assert.Len(t, env.Store.Events(), before)
	env.Consistent(reg)
}

func TestRun_NothingTouchedNothingHeard(t *testing.T) {
	env, obs := observed(t)
	obs.EXPECT().BalancesChanged(gomock.Any(), gomock.Any()).Times(0)

	op := &posting.Operation{AggregateType: "noop", AggregateID: id.New()}
	require.NoError(t, env.Svc.Engine.Run(env.Ctx, op, func(context.Context, *pricing.Pricer) error { return nil }))
}
