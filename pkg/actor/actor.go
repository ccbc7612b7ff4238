// Package actor carries the authenticated caller through a request. Identity
// is established upstream; this service only reads the forwarded headers.
package actor

import (
	"context"
	"strings"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleBarber   Role = "barber"
	RoleCustomer Role = "customer"
	// RoleSystem is used by background jobs and the booking event consumer.
	RoleSystem Role = "system"
)

const (
	HeaderID   = "X-Actor-ID"
	HeaderRole = "X-Actor-Role"
)

type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsZero() bool { return a.ID == "" }

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin || a.Role == RoleSystem }

// CanActFor reports whether the actor may touch data owned by barberID.
func (a Actor) CanActFor(barberID string) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == RoleBarber && a.ID == barberID
}

func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleBarber, RoleCustomer:
		return r, true
	default:
		return "", false
	}
}

// System returns the actor used for work not triggered by a person.
func System(name string) Actor {
	return Actor{ID: name, Role: RoleSystem}
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok && !a.IsZero()
}
