// Package grpc provides authentication interceptors and context utilities
// for exposing the same bearer-token sessions the HTTP layer issues to
// gRPC services.
package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"

	"github.com/velumani/cloudauth"
)

// DefaultMetadataKeyToken is the default gRPC metadata key carrying the
// bearer token. Clients send "authorization: Bearer <token>" just like
// HTTP callers do.
const DefaultMetadataKeyToken = "authorization"

// Config holds the metadata key configuration for auth context.
type Config struct {
	// MetadataKeyToken is the gRPC metadata key for the bearer token.
	// Defaults to "authorization".
	MetadataKeyToken string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MetadataKeyToken: DefaultMetadataKeyToken,
	}
}

// EnsureDefaults fills in default values for any unset fields.
func (c *Config) EnsureDefaults() {
	if c.MetadataKeyToken == "" {
		c.MetadataKeyToken = DefaultMetadataKeyToken
	}
}

type contextKey string

const claimsContextKey contextKey = "cloudauth.grpc.claims"

// WithClaims returns a context carrying the verified claims.
func WithClaims(ctx context.Context, claims *cloudauth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts the verified claims from the context.
// Returns nil if the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *cloudauth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*cloudauth.Claims)
	return claims
}

// UserIDFromContext extracts the authenticated user ID from the context.
// Returns zero if no user is authenticated.
func UserIDFromContext(ctx context.Context) int64 {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.UserID
	}
	return 0
}

// IsAuthenticated returns true if there is an authenticated user in the context.
func IsAuthenticated(ctx context.Context) bool {
	return ClaimsFromContext(ctx) != nil
}

// TokenToOutgoingContext adds a bearer token to outgoing gRPC context metadata.
func TokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return TokenToOutgoingContextWithKey(ctx, token, DefaultMetadataKeyToken)
}

// TokenToOutgoingContextWithKey adds a bearer token with a custom metadata key.
func TokenToOutgoingContextWithKey(ctx context.Context, token string, key string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, key, "Bearer "+token)
}

// tokenFromMetadata pulls the raw token out of incoming metadata.
// Returns empty string when the key is absent. A "Bearer " prefix is
// stripped case-insensitively; a bare token is accepted too.
func tokenFromMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	raw := values[0]
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return raw[7:]
	}
	return raw
}
