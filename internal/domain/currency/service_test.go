package currency_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/app/apptest"
	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/currency"
	"github.com/hasapchy/back-sub001/internal/domain/events"
)

func TestCreate_DefaultRateIsOne(t *testing.T) {
	env := apptest.New(t)

	rate, err := env.Svc.Currencies.CurrentRate(env.Ctx, env.USD.ID)
	require.NoError(t, err)
	apptest.Equal(t, "1", rate)

	_, err = env.Svc.Currencies.SetRate(env.Ctx, env.USD.ID, apptest.D("2"), time.Time{})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidRate))
}

func TestCreate_Rejects(t *testing.T) {
	env := apptest.New(t)

	tests := []struct {
		name string
		in   currency.CreateInput
		code string
	}{
		{"bad code", currency.CreateInput{Code: "EURO", Name: "Euro", Rate: apptest.D("1")}, apperror.CodeValidation},
		{"duplicate", currency.CreateInput{Code: "usd", Name: "Dollar", Rate: apptest.D("1")}, apperror.CodeDuplicate},
		{"zero rate", currency.CreateInput{Code: "EUR", Name: "Euro"}, apperror.CodeInvalidRate},
		{"second default", currency.CreateInput{Code: "EUR", Name: "Euro", IsDefault: true}, apperror.CodePreconditionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Svc.Currencies.Create(env.Ctx, tt.in)
			assert.True(t, apperror.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestSetRate_KeepsHistory(t *testing.T) {
	env := apptest.New(t)
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := jan.AddDate(0, 1, 0)

	eur, err := env.Svc.Currencies.Create(env.Ctx, currency.CreateInput{
		Code: "EUR", Name: "Euro", Rate: apptest.D("0.9"), EffectiveDate: jan,
	})
	require.NoError(t, err)
	_, err = env.Svc.Currencies.SetRate(env.Ctx, eur.ID, apptest.D("0.95"), feb)
	require.NoError(t, err)

	hist, err := env.Svc.Currencies.History(env.Ctx, eur.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.True(t, hist[0].IsCurrent())
	require.NotNil(t, hist[1].EndDate)
	assert.True(t, hist[1].EndDate.Equal(feb))

	at, err := env.Svc.Currencies.RateAt(env.Ctx, eur.ID, jan.AddDate(0, 0, 10))
	require.NoError(t, err)
	apptest.Equal(t, "0.9", at)

	cur, err := env.Svc.Currencies.CurrentRate(env.Ctx, eur.ID)
	require.NoError(t, err)
	apptest.Equal(t, "0.95", cur)

	_, err = env.Svc.Currencies.RateAt(env.Ctx, eur.ID, jan.AddDate(0, 0, -1))
	assert.True(t, apperror.Is(err, apperror.CodeNoRateAvailable))

	_, err = env.Svc.Currencies.SetRate(env.Ctx, eur.ID, apptest.D("1.1"), jan)
	assert.True(t, apperror.Is(err, apperror.CodePreconditionFailed))

	var set int
	for _, e := range env.Store.Events() {
		if e.Type == events.ExchangeRateSet {
			set++
		}
	}
	assert.Equal(t, 1, set)
}

func TestConverter(t *testing.T) {
	env := apptest.New(t)
	eur := env.Currency("EUR", "0.9")
	gbp := env.Currency("GBP", "0.8")
	conv := currency.NewConverter(env.Svc.Currencies)

	got, err := conv.Convert(env.Ctx, apptest.D("50"), env.USD.ID, eur.ID)
	require.NoError(t, err)
	apptest.Equal(t, "45", got)

	got, err = conv.Convert(env.Ctx, apptest.D("9"), eur.ID, gbp.ID)
	require.NoError(t, err)
	apptest.Equal(t, "8", got)

	got, err = conv.Convert(env.Ctx, apptest.D("1.23456"), eur.ID, eur.ID)
	require.NoError(t, err)
	apptest.Equal(t, "1.23456", got)

	_, err = conv.Convert(env.Ctx, apptest.D("1"), eur.ID, id.New())
	assert.True(t, apperror.Is(err, apperror.CodeConversionUnavailable))
}

func TestSetDefault_RequiresRateOne(t *testing.T) {
	env := apptest.New(t)
	eur := env.Currency("EUR", "0.9")

	err := env.Svc.Currencies.SetDefault(env.Ctx, eur.ID)
	assert.True(t, apperror.Is(err, apperror.CodePreconditionFailed))

	_, err = env.Svc.Currencies.SetRate(env.Ctx, eur.ID, apptest.D("1"), time.Time{})
	require.NoError(t, err)
	require.NoError(t, env.Svc.Currencies.SetDefault(env.Ctx, eur.ID))

	def, err := env.Svc.Currencies.Default(env.Ctx)
	require.NoError(t, err)
	assert.Equal(t, eur.ID, def.ID)
}
