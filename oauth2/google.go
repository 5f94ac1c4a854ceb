package oauth2

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/rdnc12/authentication"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// NewGoogle builds the Google OAuth2 strategy. The profile scope is enough:
// only the provider-issued profile id is kept.
func NewGoogle(clientID, clientSecret, callbackURL string, handleUser authentication.HandleUserFunc) *Strategy {
	return &Strategy{
		Provider: authentication.ProviderGoogle,
		Config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		UserInfoURL: googleUserInfoURL,
		HandleUser:  handleUser,
	}
}
