package oauth2

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"github.com/rdnc12/authentication"
)

const facebookUserInfoURL = "https://graph.facebook.com/me"

// NewFacebook builds the Facebook OAuth2 strategy.
func NewFacebook(appID, appSecret, callbackURL string, handleUser authentication.HandleUserFunc) *Strategy {
	return &Strategy{
		Provider: authentication.ProviderFacebook,
		Config: oauth2.Config{
			ClientID:     appID,
			ClientSecret: appSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"public_profile"},
			Endpoint:     facebook.Endpoint,
		},
		UserInfoURL: facebookUserInfoURL,
		HandleUser:  handleUser,
	}
}
