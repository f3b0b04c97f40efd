// Package context carries the caller and the request trace through
// context.Context.
package context

import (
	"context"
	"slices"
)

// UserContext is the authenticated caller of a request. Services read it to
// stamp created_by and to check register access.
type UserContext struct {
	UserID    string
	TenantID  string
	Email     string
	Roles     []string
	IsAdmin   bool
	SessionID string
}

// HoldsAny reports whether the caller is an admin or has one of roles.
func (u *UserContext) HoldsAny(roles ...string) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin {
		return true
	}
	for _, r := range roles {
		if slices.Contains(u.Roles, r) {
			return true
		}
	}
	return false
}

type callerKey struct{}

func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, callerKey{}, user)
}

// GetUser returns the caller or nil for background work.
func GetUser(ctx context.Context) *UserContext {
	u, _ := ctx.Value(callerKey{}).(*UserContext)
	return u
}

// GetUserID is the actor written to created_by. Empty for system postings.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}
