// Package oauth2 implements the OAuth2 authorization-code strategies
// (Google, Facebook). Each strategy owns two handlers: HandleBegin redirects
// the browser to the provider's consent screen with a random state cookie,
// and HandleCallback completes the handshake and yields the provider-issued
// profile id to the configured HandleUser callback.
package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/rdnc12/authentication"
)

// Strategy is one OAuth2 handshake variant. Google and Facebook differ only
// in endpoints, scopes and userinfo URL.
type Strategy struct {
	Provider authentication.Provider

	// Config carries client id/secret, endpoints, scopes and redirect URL.
	// Exported so tests can point the endpoints at a fake provider.
	Config oauth2.Config

	// UserInfoURL is the provider's profile endpoint. The access token is
	// appended as a query parameter, the way the providers document it.
	UserInfoURL string

	// IDField names the profile id in the userinfo response.
	IDField string

	// FailureURL receives the browser on any handshake failure. Defaults to
	// "/login".
	FailureURL string

	// HandleUser is invoked on success with the external profile id.
	HandleUser authentication.HandleUserFunc
}

// HandleBegin starts the handshake: set the state cookie and redirect to the
// provider's consent screen.
func (s *Strategy) HandleBegin(w http.ResponseWriter, r *http.Request) {
	state := generateStateCookie(w)
	http.Redirect(w, r, s.Config.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback completes the handshake. Any failure -- missing or
// mismatched state, denied consent, a failed code exchange or an unusable
// profile -- redirects to FailureURL without establishing a session.
func (s *Strategy) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, _ := r.Cookie(stateCookieName)
	clearStateCookie(w)
	if stateCookie == nil || r.FormValue("state") != stateCookie.Value {
		slog.Warn("oauth state mismatch", "provider", s.Provider)
		s.fail(w, r)
		return
	}

	code := r.FormValue("code")
	if code == "" {
		// Consent denied or provider error.
		slog.Info("oauth callback without code", "provider", s.Provider, "error", r.FormValue("error"))
		s.fail(w, r)
		return
	}

	token, err := s.Config.Exchange(r.Context(), code)
	if err != nil {
		slog.Warn("oauth code exchange failed", "provider", s.Provider, "err", err)
		s.fail(w, r)
		return
	}

	externalID, err := s.fetchProfileID(r.Context(), token)
	if err != nil {
		slog.Warn("fetching provider profile failed", "provider", s.Provider, "err", err)
		s.fail(w, r)
		return
	}

	s.HandleUser(s.Provider, externalID, w, r)
}

func (s *Strategy) fetchProfileID(ctx context.Context, token *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.UserInfoURL, nil)
	if err != nil {
		return "", err
	}
	q := req.URL.Query()
	q.Set("access_token", token.AccessToken)
	req.URL.RawQuery = q.Encode()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed reading user info: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("user info status %d: %s", resp.StatusCode, body)
	}

	var userInfo map[string]any
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return "", fmt.Errorf("failed parsing user info: %w", err)
	}

	idField := s.IDField
	if idField == "" {
		idField = "id"
	}
	externalID, _ := userInfo[idField].(string)
	if externalID == "" {
		return "", fmt.Errorf("no %q in user info response", idField)
	}
	return externalID, nil
}

func (s *Strategy) fail(w http.ResponseWriter, r *http.Request) {
	failureURL := s.FailureURL
	if failureURL == "" {
		failureURL = "/login"
	}
	http.Redirect(w, r, failureURL, http.StatusFound)
}
