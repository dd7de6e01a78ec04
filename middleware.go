package cloudauth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const claimsContextKey contextKey = "authClaims"

// Middleware gates routes on a bearer session token.
type Middleware struct {
	Tokens *TokenIssuer
}

// RequireToken rejects requests without a valid Authorization bearer token
// and puts the verified claims on the request context. Missing tokens are
// 401, invalid or expired tokens are 403 per the original wire contract.
func (m *Middleware) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeAuthError(w, NewAuthError(ErrCodeTokenMissing, "Access token required", ""))
			return
		}

		claims, authErr := m.Tokens.Verify(token)
		if authErr != nil {
			slog.Warn("token verification failed", "code", authErr.Code)
			writeAuthError(w, authErr)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// WithClaims returns a context carrying verified session claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the verified claims placed by RequireToken.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
