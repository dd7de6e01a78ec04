package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// Sentinel errors for classifying provider failures. Callers map these to
// API responses; see the Status mapping in the root package.
var (
	// ErrNotConfigured means Google credentials were absent at startup.
	// The feature is disabled, not broken.
	ErrNotConfigured = errors.New("google oauth not configured")

	// ErrInvalidGrant means the code or token was rejected by the
	// provider. Terminal: the user must restart the flow.
	ErrInvalidGrant = errors.New("invalid or expired grant")

	// ErrProviderUnavailable means we could not reach the provider. The
	// user may retry; the server does not retry on its own.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// DefaultTimeout bounds every round trip to the provider.
const DefaultTimeout = 10 * time.Second

// UserInfo is the verified external identity both auth paths converge on.
type UserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Google exchanges authorization codes and verifies provider-issued tokens.
// Built once at startup with validated configuration; there is no lazy
// re-initialization.
type Google struct {
	config      oauth2.Config
	userInfoURL string
	timeout     time.Duration

	// validateIDToken is swappable for tests
	validateIDToken func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewGoogle builds the bridge. Returns ErrNotConfigured as an error value
// when credentials are missing so the caller can disable the routes.
func NewGoogle(clientID, clientSecret, redirectURL string) (*Google, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrNotConfigured
	}
	return &Google{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
				"openid",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL:     defaultUserInfoURL,
		timeout:         DefaultTimeout,
		validateIDToken: idtoken.Validate,
	}, nil
}

// AuthURL builds the provider consent URL for the given state nonce.
func (g *Google) AuthURL(state string) string {
	return g.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Exchange trades an authorization code for tokens and fetches the user's
// identity from the userinfo endpoint.
func (g *Google) Exchange(ctx context.Context, code string) (*UserInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidGrant, retrieveErr.ErrorCode)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	return g.UserInfoFromAccessToken(ctx, token.AccessToken)
}

// UserInfoFromAccessToken fetches the user's identity with a bearer access
// token, for clients that obtained one through a sign-in widget.
func (g *Google) UserInfoFromAccessToken(ctx context.Context, accessToken string) (*UserInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: userinfo returned %d: %s", ErrInvalidGrant, resp.StatusCode, body)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decoding userinfo: %v", ErrProviderUnavailable, err)
	}
	return &info, nil
}

// VerifyIDToken verifies a provider-issued identity token against Google's
// public keys and this client's audience. No userinfo round trip.
func (g *Google) VerifyIDToken(ctx context.Context, rawIDToken string) (*UserInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := g.validateIDToken(ctx, rawIDToken, g.config.ClientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGrant, err)
	}

	info := &UserInfo{Sub: payload.Subject}
	if v, ok := payload.Claims["email"].(string); ok {
		info.Email = v
	}
	if v, ok := payload.Claims["email_verified"].(bool); ok {
		info.EmailVerified = v
	}
	if v, ok := payload.Claims["name"].(string); ok {
		info.Name = v
	}
	if v, ok := payload.Claims["picture"].(string); ok {
		info.Picture = v
	}
	return info, nil
}
