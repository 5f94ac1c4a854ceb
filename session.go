package authentication

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SessionUserKey is the session variable holding the principal: the opaque
// ID of the authenticated user and nothing else. The full record is
// rehydrated from the store on every request.
const SessionUserKey = "loggedInUserID"

// AuthTokenCookieName is the signed auth-token cookie set alongside the
// session so non-session clients can still be recognised.
const AuthTokenCookieName = "AuthToken"

// SessionAuth is the session principal codec. Establish serialises a user
// into the session (ID only) and Clear destroys it; PrincipalID reverses
// the operation for an inbound request.
type SessionAuth struct {
	Manager *scs.SessionManager

	// JWTSecretKey signs the auth-token cookie.
	JWTSecretKey string
	JwtIssuer    string

	// How long a session and auth cookie stay valid, in seconds.
	SessionTimeoutInSeconds int
}

// NewSessionAuth builds a SessionAuth with an in-memory scs session manager.
func NewSessionAuth(jwtSecretKey string, timeoutSeconds int) *SessionAuth {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 86400
	}
	manager := scs.New()
	manager.Lifetime = time.Duration(timeoutSeconds) * time.Second
	manager.Cookie.HttpOnly = true
	return &SessionAuth{
		Manager:                 manager,
		JWTSecretKey:            jwtSecretKey,
		JwtIssuer:               "SecretsApp-Issuer",
		SessionTimeoutInSeconds: timeoutSeconds,
	}
}

// Establish records the user as the session principal: the session token is
// renewed against fixation, only the user ID is stored, and a signed auth
// token cookie is set.
func (s *SessionAuth) Establish(w http.ResponseWriter, r *http.Request, user *User) error {
	if err := s.Manager.RenewToken(r.Context()); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	s.Manager.Put(r.Context(), SessionUserKey, user.ID)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"iss": s.JwtIssuer,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Second * time.Duration(s.SessionTimeoutInSeconds)).Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.JWTSecretKey))
	if err != nil {
		// The session principal is already set; the cookie is best effort.
		slog.Warn("signing auth token", "err", err)
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     AuthTokenCookieName,
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   s.SessionTimeoutInSeconds,
		Expires:  time.Now().Add(time.Second * time.Duration(s.SessionTimeoutInSeconds)),
	})
	return nil
}

// Clear destroys the session and expires the auth cookie.
func (s *SessionAuth) Clear(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Destroy(r.Context()); err != nil {
		slog.Warn("destroying session", "err", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     AuthTokenCookieName,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
		Expires:  time.Now(),
	})
}

// PrincipalID returns the user ID carried by the request, or "" when the
// request is anonymous. The session is consulted first, then the signed
// auth-token cookie.
func (s *SessionAuth) PrincipalID(r *http.Request) string {
	if id := s.Manager.GetString(r.Context(), SessionUserKey); id != "" {
		return id
	}

	for _, cookie := range r.Cookies() {
		if cookie.Name != AuthTokenCookieName || cookie.Value == "" {
			continue
		}
		id, err := s.verifyAuthToken(cookie.Value)
		if err != nil {
			slog.Debug("rejecting auth token cookie", "err", err)
			continue
		}
		return id
	}
	return ""
}

// DropPrincipal removes a stale principal whose user record no longer
// resolves, so the request degrades to anonymous instead of failing.
func (s *SessionAuth) DropPrincipal(r *http.Request) {
	s.Manager.Remove(r.Context(), SessionUserKey)
}

func (s *SessionAuth) verifyAuthToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(s.JWTSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims == nil {
		return "", fmt.Errorf("claims is not a map")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", fmt.Errorf("subject not found")
	}
	return sub, nil
}
