package cloudauth

import (
	"encoding/json"
	"log"
	"net/http"
	"regexp"
)

// MinPasswordLength is the signup password floor.
const MinPasswordLength = 8

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// LocalAuth serves email/password signup and login.
type LocalAuth struct {
	Store  UserStore
	Tokens *TokenIssuer

	// DevMode includes internal error detail in 5xx responses.
	DevMode bool
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// HandleSignup processes user registration: validate, hash, insert, issue.
func (a *LocalAuth) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, NewAuthError(ErrCodeMissingField, "Invalid request body", ""))
		return
	}
	log.Println("Signup request received:", req.Email)

	if authErr := validateSignup(&req); authErr != nil {
		writeAuthError(w, authErr)
		return
	}

	// Pre-check for a friendly 409. The store re-checks atomically, so a
	// concurrent duplicate still cannot slip through.
	existing, err := a.Store.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		a.serverError(w, "Internal server error during registration", err)
		return
	}
	if existing != nil {
		writeAuthError(w, NewAuthError(ErrCodeEmailExists, "User already exists with this email", "email"))
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		a.serverError(w, "Internal server error during registration", err)
		return
	}

	user, err := a.Store.SaveNewUser(r.Context(), NewUser{
		Email:        req.Email,
		PasswordHash: &hash,
		DisplayName:  req.DisplayName,
	})
	if err == ErrDuplicateEmail {
		writeAuthError(w, NewAuthError(ErrCodeEmailExists, "User already exists with this email", "email"))
		return
	}
	if err != nil {
		a.serverError(w, "Internal server error during registration", err)
		return
	}

	token, err := a.Tokens.Issue(user)
	if err != nil {
		a.serverError(w, "Internal server error during registration", err)
		return
	}

	log.Printf("User registered: %s", user.Email)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Registration successful! You can now sign in.",
		"user":    user.Public(),
		"token":   token,
	})
}

// HandleLogin authenticates email/password credentials. Unknown email and
// wrong password share one message so responses never leak user existence.
func (a *LocalAuth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	user, authErr := a.verifyLogin(r)
	if authErr != nil {
		writeAuthError(w, authErr)
		return
	}

	token, err := a.Tokens.Issue(user)
	if err != nil {
		a.serverError(w, "Internal server error during authentication", err)
		return
	}

	log.Printf("Login successful: %s", user.Email)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful!",
		"user":    user.Public(),
		"token":   token,
	})
}

// HandleAdminLogin is HandleLogin plus a role check on the verified record.
func (a *LocalAuth) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	user, authErr := a.verifyLogin(r)
	if authErr != nil {
		// Collapse every failure into one message for admin attempts.
		writeAuthError(w, NewAuthError(ErrCodeInvalidCreds, "Invalid admin credentials", ""))
		return
	}
	if user.Role == "" {
		writeAuthError(w, NewAuthError(ErrCodeInvalidCreds, "Invalid admin credentials", ""))
		return
	}

	token, err := a.Tokens.Issue(user)
	if err != nil {
		a.serverError(w, "Internal server error during authentication", err)
		return
	}

	log.Printf("Admin login successful: %s (%s)", user.Email, user.Role)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Login successful!",
		"user":        user.Public(),
		"role":        user.Role,
		"permissions": PermissionsForRole(user.Role),
		"token":       token,
	})
}

// HandleForgotPassword is a non-revealing stub: the response is identical
// whether or not the account exists.
func (a *LocalAuth) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeAuthError(w, NewAuthError(ErrCodeMissingField, "Email is required", "email"))
		return
	}

	if user, err := a.Store.FindUserByEmail(r.Context(), req.Email); err == nil && user != nil {
		log.Printf("Password reset requested for: %s", req.Email)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "If an account exists with this email, a reset link has been sent",
	})
}

// verifyLogin parses credentials and checks them against the store.
func (a *LocalAuth) verifyLogin(r *http.Request) (*User, *AuthError) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, NewAuthError(ErrCodeMissingField, "Invalid request body", "")
	}
	if req.Email == "" || req.Password == "" {
		return nil, NewAuthError(ErrCodeMissingField, "Email and password are required", "")
	}

	user, err := a.Store.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		return nil, NewAuthError(ErrCodeStoreFailure, "Internal server error during authentication", "")
	}
	if user == nil {
		log.Printf("Login failed: user not found - %s", req.Email)
		return nil, NewAuthError(ErrCodeInvalidCreds, "Invalid email or password", "")
	}
	if !user.HasPassword() {
		// Google-only (or malformed) record: password login unavailable.
		return nil, NewAuthError(ErrCodeNoPassword, "Please sign in with Google or reset your password", "")
	}
	if !VerifyPassword(req.Password, *user.PasswordHash) {
		log.Printf("Login failed: invalid password for - %s", req.Email)
		return nil, NewAuthError(ErrCodeInvalidCreds, "Invalid email or password", "")
	}
	return user, nil
}

func validateSignup(req *credentialsRequest) *AuthError {
	if req.Email == "" || req.Password == "" {
		return NewAuthError(ErrCodeMissingField, "Email and password are required", "")
	}
	if !emailRegex.MatchString(req.Email) {
		return NewAuthError(ErrCodeInvalidEmail, "Invalid email format", "email")
	}
	if len(req.Password) < MinPasswordLength {
		return NewAuthError(ErrCodeWeakPassword, "Password must be at least 8 characters long", "password")
	}
	return nil
}

func (a *LocalAuth) serverError(w http.ResponseWriter, message string, err error) {
	log.Println("error:", err)
	body := map[string]any{
		"success": false,
		"message": message,
	}
	if a.DevMode && err != nil {
		body["error"] = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeAuthError(w http.ResponseWriter, err *AuthError) {
	body := map[string]any{
		"success": false,
		"message": err.Message,
		"code":    err.Code,
	}
	if err.Field != "" {
		body["field"] = err.Field
	}
	writeJSON(w, err.Status(), body)
}
