package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRow struct {
	val int64
}

func (m *mockRow) Scan(dest ...any) error {
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = m.val
	}
	return nil
}

// mockQuerier simulates the sys_sequences upsert: it adds args[1] to the
// counter named args[0].
type mockQuerier struct {
	mu    sync.Mutex
	vals  map[string]int64
	calls int
}

func newMockQuerier() *mockQuerier { return &mockQuerier{vals: map[string]int64{}} }

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	key := args[0].(string)
	m.vals[key] += args[1].(int64)
	return &mockRow{val: m.vals[key]}
}

var period = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("SL")

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "SL-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "SL-2026-00002", num)
	assert.Equal(t, 2, q.calls)
}

func TestGetNextNumber_CachedReservesRanges(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("OR")
	opts := &Options{Strategy: StrategyCached, RangeSize: 10}

	for i := 1; i <= 10; i++ {
		_, err := svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, q.calls)
	assert.Equal(t, int64(10), q.vals["OR_2026"])

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "OR-2026-00011", num)
	assert.Equal(t, 2, q.calls)
	assert.Equal(t, int64(20), q.vals["OR_2026"])
}

func TestFormatNumber_WithoutYear(t *testing.T) {
	cfg := Config{Prefix: "MV", PadWidth: 3, ResetPeriod: ResetNever}
	assert.Equal(t, "MV-007", cfg.format(period, 7))
	assert.Equal(t, "MV", cfg.sequenceKey(period))
}

func TestSequenceKey_ResetPeriods(t *testing.T) {
	assert.Equal(t, "SL_2026", DefaultConfig("SL").sequenceKey(period))
	assert.Equal(t, "SL_2026_03", Config{Prefix: "SL", ResetPeriod: ResetMonthly}.sequenceKey(period))
}

func TestGetNextNumber_YearlyResetStartsOver(t *testing.T) {
	svc := New(newMockQuerier())
	ctx := context.Background()
	cfg := DefaultConfig("RC")

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "RC-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "RC-2027-00001", num)
}
