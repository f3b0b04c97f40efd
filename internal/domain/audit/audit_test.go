package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	oldState := map[string]any{"amount": "10.00", "note": "a", "gone": 1}
	newState := map[string]any{"amount": "12.00", "note": "a", "added": true}

	changes := Diff(oldState, newState)

	assert.Len(t, changes, 3)
	assert.Equal(t, map[string]any{"old": "10.00", "new": "12.00"}, changes["amount"])
	assert.Equal(t, map[string]any{"old": nil, "new": true}, changes["added"])
	assert.Equal(t, map[string]any{"old": 1, "new": nil}, changes["gone"])
	assert.NotContains(t, changes, "note")
}
