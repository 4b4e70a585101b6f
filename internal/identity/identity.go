// Package identity carries the authenticated caller through request
// contexts. A nil *Identity means nobody is signed in.
package identity

import (
	"context"
	"strings"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a stored role string onto a Role. Anything unknown is a
// regular user.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Resolver fills in profile fields (role, display name) for a verified
// caller, creating the profile when it does not exist yet.
type Resolver interface {
	Resolve(ctx context.Context, id Identity) (Identity, error)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the current caller or nil.
func FromContext(ctx context.Context) *Identity {
	if ctx == nil {
		return nil
	}
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	if id == nil || strings.TrimSpace(id.ID) == "" {
		return nil
	}
	return id
}
