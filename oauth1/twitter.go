// Package oauth1 implements the OAuth1 strategy used by Twitter: a
// request-token exchange before the browser redirect, then an access-token
// exchange on callback.
package oauth1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dghubble/oauth1"
	"github.com/dghubble/oauth1/twitter"

	"github.com/rdnc12/authentication"
)

const twitterVerifyURL = "https://api.twitter.com/1.1/account/verify_credentials.json"

// TwitterStrategy performs the three-legged OAuth1 handshake against
// Twitter and yields the account id to HandleUser.
type TwitterStrategy struct {
	// Config carries consumer key/secret and the endpoint triple. Exported
	// so tests can point it at a fake provider.
	Config *oauth1.Config

	// VerifyURL is the credential-verification endpoint returning the
	// account profile.
	VerifyURL string

	// FailureURL receives the browser on any handshake failure. Defaults to
	// "/login".
	FailureURL string

	HandleUser authentication.HandleUserFunc
}

// NewTwitter builds the Twitter OAuth1 strategy.
func NewTwitter(consumerKey, consumerSecret, callbackURL string, handleUser authentication.HandleUserFunc) *TwitterStrategy {
	return &TwitterStrategy{
		Config: &oauth1.Config{
			ConsumerKey:    consumerKey,
			ConsumerSecret: consumerSecret,
			CallbackURL:    callbackURL,
			Endpoint:       twitter.AuthorizeEndpoint,
		},
		VerifyURL:  twitterVerifyURL,
		HandleUser: handleUser,
	}
}

// HandleBegin obtains a request token from the provider and redirects the
// browser to the authorization page.
func (s *TwitterStrategy) HandleBegin(w http.ResponseWriter, r *http.Request) {
	requestToken, _, err := s.Config.RequestToken()
	if err != nil {
		slog.Warn("obtaining oauth1 request token", "err", err)
		s.fail(w, r)
		return
	}
	authorizationURL, err := s.Config.AuthorizationURL(requestToken)
	if err != nil {
		slog.Warn("building oauth1 authorization url", "err", err)
		s.fail(w, r)
		return
	}
	http.Redirect(w, r, authorizationURL.String(), http.StatusFound)
}

// HandleCallback completes the handshake: exchange the verifier for an
// access token, fetch the account profile and yield its id.
func (s *TwitterStrategy) HandleCallback(w http.ResponseWriter, r *http.Request) {
	requestToken, verifier, err := oauth1.ParseAuthorizationCallback(r)
	if err != nil {
		slog.Info("oauth1 callback rejected", "err", err)
		s.fail(w, r)
		return
	}

	// Twitter does not require the request secret for the access exchange.
	accessToken, accessSecret, err := s.Config.AccessToken(requestToken, "", verifier)
	if err != nil {
		slog.Warn("oauth1 access token exchange failed", "err", err)
		s.fail(w, r)
		return
	}

	externalID, err := s.fetchProfileID(r.Context(), oauth1.NewToken(accessToken, accessSecret))
	if err != nil {
		slog.Warn("fetching twitter profile failed", "err", err)
		s.fail(w, r)
		return
	}

	s.HandleUser(authentication.ProviderTwitter, externalID, w, r)
}

func (s *TwitterStrategy) fetchProfileID(ctx context.Context, token *oauth1.Token) (string, error) {
	client := s.Config.Client(ctx, token)
	resp, err := client.Get(s.VerifyURL)
	if err != nil {
		return "", fmt.Errorf("verify credentials request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed reading profile: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("verify credentials status %d: %s", resp.StatusCode, body)
	}

	var profile struct {
		IDStr string `json:"id_str"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return "", fmt.Errorf("failed parsing profile: %w", err)
	}
	if profile.IDStr == "" {
		return "", fmt.Errorf("no id_str in profile response")
	}
	return profile.IDStr, nil
}

func (s *TwitterStrategy) fail(w http.ResponseWriter, r *http.Request) {
	failureURL := s.FailureURL
	if failureURL == "" {
		failureURL = "/login"
	}
	http.Redirect(w, r, failureURL, http.StatusFound)
}
