// Package web maps HTTP verbs and paths to handlers and enforces the single
// access-control predicate: protected pages require a resolvable session
// principal, everything else is public.
package web

import (
	"log/slog"
	"net/http"

	"github.com/rdnc12/authentication"
)

// pageHandlers renders the site pages and performs the submit/logout
// actions.
type pageHandlers struct {
	users    authentication.UserStore
	sessions *authentication.SessionAuth
}

func (h *pageHandlers) home(w http.ResponseWriter, r *http.Request) {
	render(w, "home.html", nil)
}

func (h *pageHandlers) loginPage(w http.ResponseWriter, r *http.Request) {
	// Rendered even for authenticated visitors; logging in again simply
	// re-authenticates.
	render(w, "login.html", nil)
}

func (h *pageHandlers) registerPage(w http.ResponseWriter, r *http.Request) {
	render(w, "register.html", nil)
}

func (h *pageHandlers) secretsPage(w http.ResponseWriter, r *http.Request) {
	secrets, err := h.users.ListSecrets(r.Context())
	if err != nil {
		slog.Error("listing secrets", "err", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	render(w, "secrets.html", struct{ Secrets []string }{Secrets: secrets})
}

func (h *pageHandlers) submitPage(w http.ResponseWriter, r *http.Request) {
	render(w, "submit.html", nil)
}

func (h *pageHandlers) submitSecret(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/submit", http.StatusFound)
		return
	}
	secret := r.FormValue("secret")
	if secret == "" {
		http.Redirect(w, r, "/submit", http.StatusFound)
		return
	}

	user := authentication.CurrentUser(r)
	if err := h.users.AddSecret(r.Context(), user.ID, secret); err != nil {
		slog.Error("persisting secret", "userID", user.ID, "err", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/secrets", http.StatusFound)
}

func (h *pageHandlers) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w, r)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *pageHandlers) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Ping(r.Context()); err != nil {
		slog.Error("store health check failed", "err", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
