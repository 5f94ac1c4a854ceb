package authentication_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/rdnc12/authentication"
)

func newTestSessions() *authentication.SessionAuth {
	return authentication.NewSessionAuth("test-secret-key", 3600)
}

// postForm runs a form submission through the session middleware and the
// given handler.
func postForm(t *testing.T, sessions *authentication.SessionAuth, handler http.HandlerFunc, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	sessions.Manager.LoadAndSave(handler).ServeHTTP(rr, req)
	return rr
}

func createUser(t *testing.T, store *fakeStore, username, password string) *authentication.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user, err := store.CreateLocalUser(context.Background(), username, string(hash))
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return user
}

func TestLoginFlow(t *testing.T) {
	store := newFakeStore()
	sessions := newTestSessions()
	local := &authentication.LocalAuth{Users: store, Sessions: sessions}
	createUser(t, store, "alice", "p@ss")

	tests := []struct {
		name         string
		username     string
		password     string
		wantLocation string
	}{
		{"successful login", "alice", "p@ss", "/secrets"},
		{"wrong password", "alice", "wrong", "/login"},
		{"non-existent username", "nobody", "p@ss", "/login"},
		{"missing password", "alice", "", "/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			form.Set("username", tt.username)
			form.Set("password", tt.password)

			rr := postForm(t, sessions, local.HandleLogin, "/login", form)

			if rr.Code != http.StatusFound {
				t.Fatalf("expected 302, got %d. Body: %s", rr.Code, rr.Body.String())
			}
			if loc := rr.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("expected redirect to %q, got %q", tt.wantLocation, loc)
			}
		})
	}
}

func TestLoginFailureEstablishesNoSession(t *testing.T) {
	store := newFakeStore()
	sessions := newTestSessions()
	local := &authentication.LocalAuth{Users: store, Sessions: sessions}
	createUser(t, store, "alice", "p@ss")

	form := url.Values{}
	form.Set("username", "alice")
	form.Set("password", "wrong")
	rr := postForm(t, sessions, local.HandleLogin, "/login", form)

	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == authentication.AuthTokenCookieName && cookie.Value != "" {
			t.Errorf("failed login must not set an auth token cookie")
		}
	}
}

func TestRegisterFlow(t *testing.T) {
	store := newFakeStore()
	sessions := newTestSessions()
	local := &authentication.LocalAuth{Users: store, Sessions: sessions}
	createUser(t, store, "taken", "p@ss")

	tests := []struct {
		name         string
		username     string
		password     string
		wantLocation string
	}{
		{"successful registration", "bob", "password123", "/secrets"},
		{"duplicate username", "taken", "password123", "/register"},
		{"missing username", "", "password123", "/register"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			form.Set("username", tt.username)
			form.Set("password", tt.password)

			rr := postForm(t, sessions, local.HandleRegister, "/register", form)

			if rr.Code != http.StatusFound {
				t.Fatalf("expected 302, got %d. Body: %s", rr.Code, rr.Body.String())
			}
			if loc := rr.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("expected redirect to %q, got %q", tt.wantLocation, loc)
			}
		})
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	store := newFakeStore()
	sessions := newTestSessions()
	local := &authentication.LocalAuth{Users: store, Sessions: sessions}

	form := url.Values{}
	form.Set("username", "carol")
	form.Set("password", "cleartext-password")
	postForm(t, sessions, local.HandleRegister, "/register", form)

	user, err := store.GetUserByUsername(context.Background(), "carol")
	if err != nil {
		t.Fatalf("registered user not found: %v", err)
	}
	if user.PasswordHash == "" || user.PasswordHash == "cleartext-password" {
		t.Errorf("password must be stored hashed, got %q", user.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("cleartext-password")); err != nil {
		t.Errorf("stored hash does not match the password: %v", err)
	}
}

func TestProviderOnlyRecordRejectsLocalLogin(t *testing.T) {
	store := newFakeStore()
	sessions := newTestSessions()
	local := &authentication.LocalAuth{Users: store, Sessions: sessions}

	// A record created by a federated first login carries no credential; a
	// later username backfill must still not make it password-loggable.
	user, err := store.FindOrCreateByProvider(context.Background(), authentication.ProviderGoogle, "g-1")
	if err != nil {
		t.Fatalf("find-or-create: %v", err)
	}
	store.mu.Lock()
	store.users[user.ID].Username = "alice"
	store.mu.Unlock()

	form := url.Values{}
	form.Set("username", "alice")
	form.Set("password", "anything")
	rr := postForm(t, sessions, local.HandleLogin, "/login", form)

	if loc := rr.Header().Get("Location"); loc != "/login" {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}
