package catalog_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/currency"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

const (
	currencyTable = "currencies"
	rateTable     = "exchange_rates"
)

// CurrencyRepo implements currency.Repository.
type CurrencyRepo struct {
	cols []string
}

func NewCurrencyRepo() *CurrencyRepo {
	return &CurrencyRepo{cols: postgres.ExtractDBColumns[currency.Currency]()}
}

func (r *CurrencyRepo) sel() squirrel.SelectBuilder {
	return postgres.Builder().Select(r.cols...).From(currencyTable)
}

func (r *CurrencyRepo) Create(ctx context.Context, c *currency.Currency) error {
	return insert(ctx, currencyTable, "currency", c)
}

func (r *CurrencyRepo) GetByID(ctx context.Context, currencyID id.ID) (*currency.Currency, error) {
	return getOne[currency.Currency](ctx, r.sel().Where(squirrel.Eq{"id": currencyID}), "currency", currencyID, false)
}

func (r *CurrencyRepo) GetByCode(ctx context.Context, code string) (*currency.Currency, error) {
	return getOne[currency.Currency](ctx, r.sel().Where(squirrel.Eq{"code": code}), "currency", code, false)
}

func (r *CurrencyRepo) GetDefault(ctx context.Context) (*currency.Currency, error) {
	return getOne[currency.Currency](ctx, r.sel().Where(squirrel.Eq{"is_default": true}), "currency", "default", false)
}

func (r *CurrencyRepo) List(ctx context.Context) ([]*currency.Currency, error) {
	return selectAll[currency.Currency](ctx, r.sel().OrderBy("code"), "currencies")
}

// SetDefault clears the old flag first: the partial unique index allows one
// default row at a time.
func (r *CurrencyRepo) SetDefault(ctx context.Context, currencyID id.ID) error {
	now := time.Now().UTC()
	unset := postgres.Builder().Update(currencyTable).
		Set("is_default", false).
		Set("updated_at", now).
		Where(squirrel.Eq{"is_default": true}).
		Where(squirrel.NotEq{"id": currencyID})
	if _, err := exec(ctx, unset, "currency", "clear default"); err != nil {
		return err
	}

	set := postgres.Builder().Update(currencyTable).
		Set("is_default", true).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": currencyID})
	n, err := exec(ctx, set, "currency", "set default")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("currency", currencyID.String())
	}
	return nil
}

// RateRepo implements currency.RateRepository.
type RateRepo struct {
	cols []string
}

func NewRateRepo() *RateRepo {
	return &RateRepo{cols: postgres.ExtractDBColumns[currency.ExchangeRate]()}
}

func (r *RateRepo) sel(currencyID id.ID) squirrel.SelectBuilder {
	return postgres.Builder().Select(r.cols...).From(rateTable).Where(squirrel.Eq{"currency_id": currencyID})
}

func (r *RateRepo) Current(ctx context.Context, currencyID id.ID) (*currency.ExchangeRate, error) {
	return getOne[currency.ExchangeRate](ctx, r.sel(currencyID).Where("end_date IS NULL"), "exchange_rate", currencyID, true)
}

func (r *RateRepo) CurrentForUpdate(ctx context.Context, currencyID id.ID) (*currency.ExchangeRate, error) {
	q := r.sel(currencyID).Where("end_date IS NULL").Suffix("FOR UPDATE")
	return getOne[currency.ExchangeRate](ctx, q, "exchange_rate", currencyID, true)
}

func (r *RateRepo) At(ctx context.Context, currencyID id.ID, at time.Time) (*currency.ExchangeRate, error) {
	q := r.sel(currencyID).
		Where(squirrel.LtOrEq{"start_date": at}).
		OrderBy("start_date DESC").
		Limit(1)
	return getOne[currency.ExchangeRate](ctx, q, "exchange_rate", currencyID, true)
}

func (r *RateRepo) Create(ctx context.Context, rate *currency.ExchangeRate) error {
	return insert(ctx, rateTable, "exchange_rate", rate)
}

func (r *RateRepo) Close(ctx context.Context, rateID id.ID, endDate time.Time) error {
	q := postgres.Builder().Update(rateTable).
		Set("end_date", endDate).
		Where(squirrel.Eq{"id": rateID})
	n, err := exec(ctx, q, "exchange_rate", "close")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("exchange_rate", rateID.String())
	}
	return nil
}

func (r *RateRepo) History(ctx context.Context, currencyID id.ID) ([]*currency.ExchangeRate, error) {
	return selectAll[currency.ExchangeRate](ctx, r.sel(currencyID).OrderBy("start_date DESC"), "exchange_rates")
}

var (
	_ currency.Repository     = (*CurrencyRepo)(nil)
	_ currency.RateRepository = (*RateRepo)(nil)
)
