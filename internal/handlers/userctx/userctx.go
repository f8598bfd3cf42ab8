// Package userctx carries the authenticated user through the request context.
// The auth middleware stores it once per request, handlers read it back.
package userctx

import (
	"context"

	"github.com/osavchenko/ecoroute/internal/models"
)

type ctxKey struct{}

// New returns a child context with the user attached.
func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext reports the user set by the auth middleware,
// or false when the request never went through it.
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(models.User)
	return u, ok
}
