package cloudauth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	gauth "github.com/velumani/cloudauth/oauth2"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// API orchestrates the credential store, password hasher, token issuer and
// OAuth bridge behind the HTTP routes.
type API struct {
	Config     *Config
	Store      UserStore
	Tokens     *TokenIssuer
	Local      *LocalAuth
	Middleware *Middleware

	// Google is nil when OAuth credentials are not configured. The routes
	// stay mounted and answer with a distinct "feature disabled" response.
	Google *gauth.Google
}

// NewAPI wires the components from validated configuration.
func NewAPI(cfg *Config, store UserStore) (*API, error) {
	tokens, err := NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return nil, err
	}

	google, err := gauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
	if err != nil {
		if !errors.Is(err, gauth.ErrNotConfigured) {
			return nil, err
		}
		log.Println("Google OAuth not configured; /api/auth/google routes disabled")
		google = nil
	}

	return &API{
		Config:     cfg,
		Store:      store,
		Tokens:     tokens,
		Local:      &LocalAuth{Store: store, Tokens: tokens, DevMode: cfg.DevMode},
		Middleware: &Middleware{Tokens: tokens},
		Google:     google,
	}, nil
}

// Handler assembles the route table.
func (a *API) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/signup", a.Local.HandleSignup).Methods(http.MethodPost)
	api.HandleFunc("/login", a.Local.HandleLogin).Methods(http.MethodPost)
	api.HandleFunc("/admin/login", a.Local.HandleAdminLogin).Methods(http.MethodPost)
	api.HandleFunc("/forgot-password", a.Local.HandleForgotPassword).Methods(http.MethodPost)

	api.HandleFunc("/auth/test", a.handleAuthTest).Methods(http.MethodGet)
	api.HandleFunc("/auth/google/url", a.handleGoogleURL).Methods(http.MethodGet)
	api.HandleFunc("/auth/google/callback", a.handleGoogleCallback).Methods(http.MethodGet)
	api.HandleFunc("/auth/google", a.handleGoogleToken).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(a.Middleware.RequireToken)
	protected.HandleFunc("/profile", a.handleProfile).Methods(http.MethodGet)
	protected.HandleFunc("/users", a.handleUsers).Methods(http.MethodGet)

	return cors.Handler(cors.Options{
		AllowedOrigins:   a.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Accept"},
		AllowCredentials: true,
		MaxAge:           300,
	})(r)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "Cloud Native Authentication API",
		"version":   Version,
		"endpoints": map[string]string{
			"signup":         "POST /api/signup",
			"login":          "POST /api/login",
			"adminLogin":     "POST /api/admin/login",
			"googleAuthUrl":  "GET /api/auth/google/url",
			"googleCallback": "GET /api/auth/google/callback",
			"googleToken":    "POST /api/auth/google",
			"profile":        "GET /api/profile",
			"users":          "GET /api/users",
			"health":         "GET /api/health",
		},
	})
}

func (a *API) handleAuthTest(w http.ResponseWriter, r *http.Request) {
	configured := a.Google != nil
	message := "Google OAuth is configured"
	if !configured {
		message = "Google OAuth not configured"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    configured,
		"message":    message,
		"configured": configured,
	})
}

func (a *API) handleGoogleURL(w http.ResponseWriter, r *http.Request) {
	if a.Google == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success":      false,
			"code":         ErrCodeNotConfigured,
			"message":      "Google OAuth not configured",
			"instructions": "Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET",
		})
		return
	}

	state := gauth.SetStateCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"url":     a.Google.AuthURL(state),
	})
}

// handleGoogleCallback terminates the authorization-code path. The popup
// renders an HTML page that posts the token to window.opener; the opener, not
// the popup, ends up holding the session.
func (a *API) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if providerErr := query.Get("error"); providerErr != "" {
		log.Println("Google returned error:", providerErr)
		renderCallbackError(w, providerErr)
		return
	}
	if a.Google == nil {
		renderCallbackError(w, "Google OAuth not configured")
		return
	}

	code := query.Get("code")
	if code == "" {
		renderCallbackError(w, "No authorization code received from Google")
		return
	}
	if !gauth.VerifyStateCookie(w, r, query.Get("state")) {
		renderCallbackError(w, "Invalid authentication state, please try again")
		return
	}

	info, err := a.Google.Exchange(r.Context(), code)
	if err != nil {
		log.Println("Google callback error:", err)
		renderCallbackError(w, a.googleErrorMessage(err))
		return
	}

	user, token, authErr := a.completeGoogleAuth(r, info)
	if authErr != nil {
		renderCallbackError(w, authErr.Message)
		return
	}

	log.Printf("Google auth successful for: %s", user.Email)
	msg := callbackMessage{Type: "google-auth-success", Token: token}
	msg.User.ID = user.ID
	msg.User.Email = user.Email
	msg.User.DisplayName = user.DisplayName
	msg.User.PhotoURL = info.Picture
	renderCallbackSuccess(w, a.postMessageOrigin(), msg)
}

// handleGoogleToken terminates the ID-token / access-token path.
func (a *API) handleGoogleToken(w http.ResponseWriter, r *http.Request) {
	if a.Google == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"code":    ErrCodeNotConfigured,
			"message": "Google OAuth not configured",
		})
		return
	}

	var req struct {
		AccessToken string `json:"accessToken"`
		IDToken     string `json:"idToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || (req.AccessToken == "" && req.IDToken == "") {
		writeAuthError(w, NewAuthError(ErrCodeMissingField, "Access token is required", "accessToken"))
		return
	}

	var info *gauth.UserInfo
	var err error
	if req.IDToken != "" {
		info, err = a.Google.VerifyIDToken(r.Context(), req.IDToken)
	} else {
		info, err = a.Google.UserInfoFromAccessToken(r.Context(), req.AccessToken)
	}
	if err != nil {
		log.Println("Google token auth error:", err)
		writeAuthError(w, a.googleAuthError(err))
		return
	}

	user, token, authErr := a.completeGoogleAuth(r, info)
	if authErr != nil {
		writeAuthError(w, authErr)
		return
	}

	log.Printf("Google token auth successful: %s", user.Email)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Google authentication successful!",
		"user": map[string]any{
			"id":          user.ID,
			"email":       user.Email,
			"displayName": user.DisplayName,
			"photoURL":    info.Picture,
		},
		"token": token,
	})
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeAuthError(w, NewAuthError(ErrCodeTokenMissing, "Access token required", ""))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Profile retrieved successfully",
		"user": map[string]any{
			"id":          claims.UserID,
			"email":       claims.Email,
			"displayName": claims.DisplayName,
			"role":        claims.Role,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.Store.GetAllUsers(r.Context())
	if err != nil {
		a.Local.serverError(w, "Failed to list users", err)
		return
	}

	projected := make([]PublicUser, len(users))
	for i, u := range users {
		projected[i] = u.Public()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Users retrieved successfully",
		"users":     projected,
		"count":     len(projected),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// completeGoogleAuth is the terminal state both OAuth paths converge on:
// link or create the store record, then issue a session token.
func (a *API) completeGoogleAuth(r *http.Request, info *gauth.UserInfo) (*User, string, *AuthError) {
	displayName := info.Name
	if displayName == "" {
		displayName = DisplayNameFromEmail(info.Email)
	}

	user, err := a.Store.FindOrCreateGoogleUser(r.Context(), info.Sub, info.Email, displayName)
	if err != nil {
		log.Println("error linking google user:", err)
		return nil, "", NewAuthError(ErrCodeStoreFailure, "Failed to complete authentication", "")
	}

	token, err := a.Tokens.Issue(user)
	if err != nil {
		return nil, "", NewAuthError(ErrCodeStoreFailure, "Failed to complete authentication", "")
	}
	return user, token, nil
}

func (a *API) googleAuthError(err error) *AuthError {
	switch {
	case errors.Is(err, gauth.ErrProviderUnavailable):
		return NewAuthError(ErrCodeProviderDown, "Could not reach Google, please try again", "")
	case errors.Is(err, gauth.ErrNotConfigured):
		return NewAuthError(ErrCodeNotConfigured, "Google OAuth not configured", "")
	default:
		return NewAuthError(ErrCodeInvalidGrant, "Google authentication failed", "")
	}
}

func (a *API) googleErrorMessage(err error) string {
	switch {
	case errors.Is(err, gauth.ErrProviderUnavailable):
		return "Could not reach Google, please try again"
	case errors.Is(err, gauth.ErrInvalidGrant):
		return "The authorization code was rejected, please restart sign-in"
	default:
		return "Something went wrong during authentication"
	}
}

// postMessageOrigin picks the target origin for the callback handoff. The
// first allowed origin is the app that opens the popup.
func (a *API) postMessageOrigin() string {
	if len(a.Config.AllowedOrigins) > 0 {
		return a.Config.AllowedOrigins[0]
	}
	return "*"
}
