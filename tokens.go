package cloudauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry is the fixed session token lifetime. There is no refresh
// mechanism; a token stays valid until natural expiry.
const TokenExpiry = 24 * time.Hour

// Claims is the session token payload.
type Claims struct {
	UserID      int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session tokens with a process-wide secret
// loaded once at startup.
type TokenIssuer struct {
	secretKey []byte
	issuer    string
	expiry    time.Duration

	// now is swappable for tests
	now func() time.Time
}

// NewTokenIssuer builds a TokenIssuer. An empty secret is a startup error:
// there is no compiled-in fallback key.
func NewTokenIssuer(secretKey, issuer string) (*TokenIssuer, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("jwt secret key is required")
	}
	if issuer == "" {
		issuer = "cloudauth"
	}
	return &TokenIssuer{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		expiry:    TokenExpiry,
		now:       time.Now,
	}, nil
}

// Issue signs a session token for the user with exp = iat + 24h.
func (t *TokenIssuer) Issue(user *User) (string, error) {
	now := t.now()
	claims := Claims{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secretKey)
}

// Verify parses and validates a session token. Expired tokens fail with
// ErrCodeTokenExpired, anything else malformed with ErrCodeTokenInvalid, so
// callers can tell "please log in again" from "invalid session".
func (t *TokenIssuer) Verify(tokenString string) (*Claims, *AuthError) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secretKey, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewAuthError(ErrCodeTokenExpired, "Session expired, please log in again", "")
		}
		return nil, NewAuthError(ErrCodeTokenInvalid, "Invalid or expired token", "")
	}
	if !token.Valid {
		return nil, NewAuthError(ErrCodeTokenInvalid, "Invalid or expired token", "")
	}
	return claims, nil
}
