package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/cashregister"
)

func TestRunInTransaction_RollsBackOnError(t *testing.T) {
	s := NewStore()
	repo := NewRegisterRepo(s)
	ctx := context.Background()
	reg := &cashregister.Register{ID: id.New(), Name: "main", Balance: decimal.NewFromInt(10)}
	require.NoError(t, repo.Create(ctx, reg))

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.UpdateBalance(ctx, reg.ID, decimal.NewFromInt(99)))
		require.NoError(t, repo.Create(ctx, &cashregister.Register{ID: id.New(), Name: "other"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(10)))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRunInTransaction_RollsBackOnPanic(t *testing.T) {
	s := NewStore()
	repo := NewRegisterRepo(s)
	ctx := context.Background()
	reg := &cashregister.Register{ID: id.New(), Name: "main"}
	require.NoError(t, repo.Create(ctx, reg))

	assert.Panics(t, func() {
		_ = s.RunInTransaction(ctx, func(ctx context.Context) error {
			_ = repo.UpdateBalance(ctx, reg.ID, decimal.NewFromInt(5))
			panic("boom")
		})
	})

	got, err := repo.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
}

func TestRunInTransaction_NestedJoinsOuter(t *testing.T) {
	s := NewStore()
	repo := NewRegisterRepo(s)
	ctx := context.Background()
	reg := &cashregister.Register{ID: id.New(), Name: "main"}
	require.NoError(t, repo.Create(ctx, reg))

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		// the inner call succeeds but is undone with the outer one
		require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context) error {
			return repo.UpdateBalance(ctx, reg.ID, decimal.NewFromInt(7))
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
}

func TestSequences_SurviveRollback(t *testing.T) {
	s := NewStore()
	seq := NewSequences()
	ctx := context.Background()

	var first int64
	_ = s.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, seq.QueryRow(ctx, "", "SL-2026", int64(1)).Scan(&first))
		return errors.New("rollback")
	})

	var second int64
	require.NoError(t, seq.QueryRow(ctx, "", "SL-2026", int64(1)).Scan(&second))
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}
