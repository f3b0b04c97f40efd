package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusByCode(t *testing.T) {
	testCases := []struct {
		name   string
		err    *AppError
		status int
	}{
		{"Validation", NewValidation("bad"), http.StatusBadRequest},
		{"NotFound", NewNotFound("cash_register", "r1"), http.StatusNotFound},
		{"InsufficientBalance", NewInsufficientBalance("r1", "10", "5"), http.StatusUnprocessableEntity},
		{"InsufficientStock", NewInsufficientStock("w1", "p1", "3", "1"), http.StatusUnprocessableEntity},
		{"NoRate", NewNoRateAvailable("c1"), http.StatusUnprocessableEntity},
		{"DerivedEntry", NewDerivedEntryImmutable("e1", "sale"), http.StatusConflict},
		{"Concurrent", NewConcurrentModification("sale", "s1"), http.StatusConflict},
		{"Precondition", NewPreconditionFailed("no"), http.StatusPreconditionFailed},
		{"Internal", NewInternal(errors.New("boom")), http.StatusInternalServerError},
		{"Unauthorized", NewUnauthorized("no token"), http.StatusUnauthorized},
		{"Forbidden", NewForbidden("no role"), http.StatusForbidden},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.HTTPStatus)
		})
	}
}

func TestDetails(t *testing.T) {
	err := NewInsufficientStock("w1", "p1", "3", "1")
	assert.Equal(t, map[string]any{
		"warehouse_id": "w1",
		"product_id":   "p1",
		"requested":    "3",
		"available":    "1",
	}, err.Details)
}

func TestIs_FollowsWrapping(t *testing.T) {
	wrapped := fmt.Errorf("post sale: %w", NewSameRegister("r1"))

	assert.True(t, Is(wrapped, CodeSameRegister))
	assert.False(t, Is(wrapped, CodeNotFound))
	assert.False(t, Is(errors.New("plain"), CodeSameRegister))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "r1", appErr.Details["cash_register_id"])
}

func TestInternal_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NotContains(t, err.Message, "connection reset")
}
