package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/hasapchy/back-sub001/internal/core/context"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret", "ledger"))
	user := appctx.UserContext{UserID: "u1", TenantID: "t1", Roles: []string{"cashier"}}

	token, expires, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "t1", got.TenantID)
	assert.Equal(t, []string{"cashier"}, got.Roles)
	assert.False(t, got.IsAdmin)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret", "ledger"))
	token, _, err := svc.GenerateAccessToken(appctx.UserContext{UserID: "u1"})
	require.NoError(t, err)

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewJWTService(DefaultJWTConfig("other", "ledger"))
		_, err := other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		other := NewJWTService(DefaultJWTConfig("secret", "someone-else"))
		_, err := other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		late := NewJWTService(DefaultJWTConfig("secret", "ledger"))
		late.now = func() time.Time { return time.Now().Add(time.Hour) }
		_, err := late.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
