package authentication

import (
	"log/slog"
	"net/http"
)

// HandleUserFunc is invoked by a federated strategy after a completed
// handshake with the provider-issued external identifier of the visitor.
type HandleUserFunc func(provider Provider, externalID string, w http.ResponseWriter, r *http.Request)

// NewFederatedLoginHandler returns the HandleUserFunc shared by every
// federated strategy: resolve the external identity to a single user record
// (creating one on first login), establish the session principal and
// redirect to successURL.
//
// Store failures answer with a generic 500 rather than silently creating a
// duplicate; a failed session write also surfaces as a 500. The caller never
// learns which provider was used after this point.
func NewFederatedLoginHandler(users UserStore, sessions *SessionAuth, metrics *Metrics, successURL string) HandleUserFunc {
	if successURL == "" {
		successURL = "/secrets"
	}
	return func(provider Provider, externalID string, w http.ResponseWriter, r *http.Request) {
		user, err := users.FindOrCreateByProvider(r.Context(), provider, externalID)
		if err != nil {
			slog.Error("find-or-create failed", "provider", provider, "err", err)
			metrics.RecordLogin(provider, false)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if err := sessions.Establish(w, r, user); err != nil {
			slog.Error("establishing session", "provider", provider, "err", err)
			metrics.RecordLogin(provider, false)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		metrics.RecordLogin(provider, true)
		http.Redirect(w, r, successURL, http.StatusFound)
	}
}
