package cloudauth

import "net/http"

// Error codes returned in API responses and used to pick HTTP statuses.
const (
	ErrCodeMissingField  = "missing_field"
	ErrCodeInvalidEmail  = "invalid_email"
	ErrCodeWeakPassword  = "weak_password"
	ErrCodeEmailExists   = "email_exists"
	ErrCodeInvalidCreds  = "invalid_credentials"
	ErrCodeNoPassword    = "no_password"
	ErrCodeTokenMissing  = "token_missing"
	ErrCodeTokenInvalid  = "token_invalid"
	ErrCodeTokenExpired  = "token_expired"
	ErrCodeNotConfigured = "not_configured"
	ErrCodeProviderDown  = "provider_unavailable"
	ErrCodeInvalidGrant  = "invalid_grant"
	ErrCodeStoreFailure  = "store_failure"
)

// AuthError is the error value used across the auth flows. Code selects the
// HTTP status, Message is safe to show to users, Field names the offending
// input field when there is one.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

func (e *AuthError) Error() string {
	return e.Message
}

// Status maps the error code to the HTTP status the API responds with.
// Invalid and expired tokens stay distinct as codes but share the 403 the
// original wire contract used.
func (e *AuthError) Status() int {
	switch e.Code {
	case ErrCodeMissingField, ErrCodeInvalidEmail, ErrCodeWeakPassword:
		return http.StatusBadRequest
	case ErrCodeEmailExists:
		return http.StatusConflict
	case ErrCodeInvalidCreds, ErrCodeNoPassword, ErrCodeTokenMissing, ErrCodeInvalidGrant:
		return http.StatusUnauthorized
	case ErrCodeTokenInvalid, ErrCodeTokenExpired:
		return http.StatusForbidden
	case ErrCodeProviderDown:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
