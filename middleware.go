package authentication

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

type contextKey string

const currentUserKey contextKey = "currentUser"

// Middleware derives the per-request authentication state. LoadUser
// rehydrates the session principal into a full user record; RequireUser
// additionally gates protected pages behind it.
type Middleware struct {
	Users    UserStore
	Sessions *SessionAuth

	// Where anonymous requests to protected pages are sent. Defaults to
	// "/login".
	LoginURL string
}

// LoadUser resolves the session principal to a user record and stores it in
// the request context. A principal whose record no longer exists is dropped
// and the request proceeds as anonymous; only genuine store failures are
// logged.
func (m *Middleware) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := m.Sessions.PrincipalID(r)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.Users.GetUserByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				m.Sessions.DropPrincipal(r)
			} else {
				slog.Error("resolving session principal", "userID", id, "err", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), currentUserKey, user)))
	})
}

// RequireUser redirects anonymous requests to the login page. It assumes
// LoadUser already ran.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	loginURL := m.LoginURL
	if loginURL == "" {
		loginURL = "/login"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r) == nil {
			http.Redirect(w, r, loginURL, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser returns the authenticated user for this request, or nil when
// the request is anonymous.
func CurrentUser(r *http.Request) *User {
	user, _ := r.Context().Value(currentUserKey).(*User)
	return user
}
