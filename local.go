package authentication

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// LocalAuth is the username/password strategy. HandleLogin and
// HandleRegister both establish a session and redirect to SuccessURL on
// success; on failure no session is ever created and the browser is sent
// back to the login or register page.
type LocalAuth struct {
	Users    UserStore
	Sessions *SessionAuth
	Metrics  *Metrics

	// Form field names. Default to "username" and "password".
	UsernameField string
	PasswordField string

	// Redirect targets. Default to /secrets, /login and /register.
	SuccessURL  string
	LoginURL    string
	RegisterURL string
}

// HandleLogin authenticates a submitted credential pair. The response never
// reveals whether the username existed.
func (a *LocalAuth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	username, password, err := a.parseCredentials(r)
	if err != nil {
		a.loginFailed(w, r)
		return
	}

	user, err := a.validateCredentials(r, username, password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) && !errors.Is(err, ErrUserNotFound) {
			slog.Error("validating credentials", "err", err)
		}
		a.loginFailed(w, r)
		return
	}

	if err := a.Sessions.Establish(w, r, user); err != nil {
		slog.Error("establishing session", "err", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.Metrics.RecordLogin(ProviderLocal, true)
	http.Redirect(w, r, a.successURL(), http.StatusFound)
}

// HandleRegister creates a local credential record and logs the new user in.
func (a *LocalAuth) HandleRegister(w http.ResponseWriter, r *http.Request) {
	username, password, err := a.parseCredentials(r)
	if err != nil {
		a.registerFailed(w, r)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("hashing password", "err", err)
		a.registerFailed(w, r)
		return
	}

	user, err := a.Users.CreateLocalUser(r.Context(), username, string(passwordHash))
	if err != nil {
		if !errors.Is(err, ErrUsernameTaken) {
			slog.Error("creating local user", "err", err)
		}
		a.registerFailed(w, r)
		return
	}

	if err := a.Sessions.Establish(w, r, user); err != nil {
		slog.Error("establishing session", "err", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.Metrics.RecordRegistration(true)
	http.Redirect(w, r, a.successURL(), http.StatusFound)
}

// validateCredentials looks up the user by username and compares the bcrypt
// hash. Unknown usernames and wrong passwords collapse into the same error.
func (a *LocalAuth) validateCredentials(r *http.Request, username, password string) (*User, error) {
	user, err := a.Users.GetUserByUsername(r.Context(), username)
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == "" {
		// A provider-only record has no local credential.
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (a *LocalAuth) parseCredentials(r *http.Request) (username, password string, err error) {
	if err := r.ParseForm(); err != nil {
		return "", "", fmt.Errorf("error parsing form")
	}
	username = r.FormValue(a.usernameField())
	password = r.FormValue(a.passwordField())
	if username == "" || password == "" {
		return "", "", fmt.Errorf("username and password required")
	}
	return username, password, nil
}

func (a *LocalAuth) loginFailed(w http.ResponseWriter, r *http.Request) {
	a.Metrics.RecordLogin(ProviderLocal, false)
	http.Redirect(w, r, a.loginURL(), http.StatusFound)
}

func (a *LocalAuth) registerFailed(w http.ResponseWriter, r *http.Request) {
	a.Metrics.RecordRegistration(false)
	http.Redirect(w, r, a.registerURL(), http.StatusFound)
}

func (a *LocalAuth) usernameField() string {
	if a.UsernameField != "" {
		return a.UsernameField
	}
	return "username"
}

func (a *LocalAuth) passwordField() string {
	if a.PasswordField != "" {
		return a.PasswordField
	}
	return "password"
}

func (a *LocalAuth) successURL() string {
	if a.SuccessURL != "" {
		return a.SuccessURL
	}
	return "/secrets"
}

func (a *LocalAuth) loginURL() string {
	if a.LoginURL != "" {
		return a.LoginURL
	}
	return "/login"
}

func (a *LocalAuth) registerURL() string {
	if a.RegisterURL != "" {
		return a.RegisterURL
	}
	return "/register"
}
