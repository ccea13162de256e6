// Package auth provides cookie JWT session handling for the API.
package auth

import (
	"context"

	"github.com/dexten32/accuscanner/app/models"
)

type ctxKey int

const claimsKey ctxKey = iota

// Claims contains the verified session token details we care about.
type Claims struct {
	UserID string
	Email  string
	Plan   models.Plan
}

// WithClaims stores auth claims in a context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns claims from a context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
