package document_repo

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

func TestMovementFilter_MatchesEitherWarehouse(t *testing.T) {
	repo := NewMovementRepo()
	wh := id.New()

	q, ok := repo.filter(postgres.Builder().Select("id").From("movements"), documents.ListFilter{WarehouseID: &wh})
	require.True(t, ok)
	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "(from_warehouse_id = $1 OR to_warehouse_id = $2)")
	// squirrel hands uuid values to the driver through driver.Valuer
	assert.Equal(t, []any{wh.String(), wh.String()}, args)
}

func TestNonTradeFilters_RejectClientAndRegister(t *testing.T) {
	client := id.New()
	base := squirrel.Select("id")

	_, ok := NewWriteOffRepo().filter(base, documents.ListFilter{ClientID: &client})
	assert.False(t, ok)
	_, ok = NewMovementRepo().filter(base, documents.ListFilter{CashRegisterID: &client})
	assert.False(t, ok)
	_, ok = NewSaleRepo().filter(base, documents.ListFilter{ClientID: &client})
	assert.True(t, ok)
}

func TestSaleColumns_ExcludeLines(t *testing.T) {
	cols := NewSaleRepo().selectCols
	assert.Contains(t, cols, "discount_kind")
	assert.Contains(t, cols, "delta_client_id")
	assert.NotContains(t, cols, "lines")
}
