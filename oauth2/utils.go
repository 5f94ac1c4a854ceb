package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"
)

const stateCookieName = "oauthstate"

// generateStateCookie sets a short-lived random state cookie and returns its
// value for inclusion in the authorization URL.
func generateStateCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		slog.Error("generating oauth state", "err", err)
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(10 * time.Minute),
		MaxAge:   600,
	})
	return state
}

func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:    stateCookieName,
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Now(),
	})
}
