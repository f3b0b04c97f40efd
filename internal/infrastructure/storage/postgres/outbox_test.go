package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 30 * time.Second},
		{1, 30 * time.Second},
		{2, time.Minute},
		{3, 2 * time.Minute},
		{5, 8 * time.Minute},
		{20, time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestOutboxMessageColumns(t *testing.T) {
	cols := ExtractDBColumns[OutboxMessage]()
	assert.Contains(t, cols, "event_type")
	assert.Contains(t, cols, "next_retry_at")
	assert.Len(t, cols, 11)
}
