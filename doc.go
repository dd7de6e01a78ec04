// Package cloudauth provides a self-contained authentication service for
// web applications: email/password accounts, Google sign-in, and stateless
// JWT sessions behind a JSON HTTP API.
//
// # Architecture
//
// User: a single account identified by a numeric ID and a unique email
// address. A user may hold a bcrypt password hash, a linked Google account
// ID, or both. Accounts created through Google sign-in have no password
// until one is set.
//
// UserStore: the persistence interface. Three implementations ship with the
// module: an in-memory store for tests and demos (stores), a GORM-backed
// store for SQL databases (stores/gorm), and a Google Cloud Datastore store
// (stores/gae). All three enforce email uniqueness under concurrent signup.
//
// TokenIssuer: signs and verifies HS256 session tokens carrying the user's
// ID, email, display name, and role. Tokens expire 24 hours after issue and
// there is no refresh flow.
//
// # Basic Usage
//
// Build the API from a config and a store, then serve its handler:
//
//	import (
//	    "github.com/velumani/cloudauth"
//	    "github.com/velumani/cloudauth/stores"
//	)
//
//	cfg, err := cloudauth.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	api, err := cloudauth.NewAPI(cfg, stores.NewMemoryUserStore())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":3000", api.Handler())
//
// The handler mounts signup, login, admin login, Google OAuth (both the
// redirect/popup flow and direct token submission), and bearer-protected
// profile routes under /api.
//
// # Google Sign-In
//
// The oauth2 subpackage wraps the code-exchange and ID-token verification
// paths. The redirect flow renders a small HTML page that posts the session
// token to the opening window via postMessage and closes itself; SPA clients
// can instead POST a Google ID token to /api/auth/google.
//
// # Security
//
// Passwords are hashed with bcrypt at default cost. Login failures return a
// single generic message regardless of whether the email exists. The JWT
// signing secret must be supplied through configuration; the process refuses
// to start without one. OAuth state is bound to a short-lived one-shot
// cookie.
//
// # Testing
//
// Handlers are exercised with httptest against the in-memory store; no
// database or network is needed. The oauth2 package accepts an injected
// ID-token validator and user-info endpoint so provider interactions can be
// faked in tests.
package cloudauth
