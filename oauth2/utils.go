package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"
)

const stateCookieName = "oauthstate"

// SetStateCookie generates a random state nonce, stores it in a short-lived
// cookie and returns it for embedding in the consent URL.
func SetStateCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}

// VerifyStateCookie checks the callback state parameter against the cookie
// and clears the cookie either way. One shot per attempt.
func VerifyStateCookie(w http.ResponseWriter, r *http.Request, state string) bool {
	cookie, err := r.Cookie(stateCookieName)
	http.SetCookie(w, &http.Cookie{
		Name:    stateCookieName,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Now(),
	})
	if err != nil || cookie.Value == "" {
		return false
	}
	return state != "" && state == cookie.Value
}
