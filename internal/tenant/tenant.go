// Package tenant carries the caller's organization and staff identity
// through a request context.
package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Scope identifies who is acting and on behalf of which organization.
type Scope struct {
	OrganizationID uuid.UUID
	StaffID        uuid.UUID
	RequestID      string
}

type contextKey struct{}

func NewContext(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the scope stored in ctx, if any.
func FromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(contextKey{}).(Scope)
	return s, ok
}
