package authentication

import (
	"context"
	"errors"
	"time"
)

// Provider identifies an authentication method.
type Provider string

const (
	ProviderLocal    Provider = "local"
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
	ProviderTwitter  Provider = "twitter"
)

var (
	// ErrUserNotFound is returned by lookups when no record matches.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when registering a username that exists.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials is returned on a failed password check. Callers
	// must not distinguish it from an unknown username.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is the sole domain entity: one account record, addressable by an
// opaque store-assigned ID. The local credential and the three provider
// links are all optional and may coexist on one record.
type User struct {
	ID           string
	Username     string
	PasswordHash string

	GoogleID   string
	FacebookID string
	TwitterID  string

	// Secrets submitted by this user via POST /submit.
	Secrets []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProviderID returns the external identifier this record carries for the
// given provider, or "" if the provider is not linked.
func (u *User) ProviderID(p Provider) string {
	switch p {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderFacebook:
		return u.FacebookID
	case ProviderTwitter:
		return u.TwitterID
	}
	return ""
}

// UserStore is the persistence boundary for user records. Implementations
// must be safe for concurrent use; FindOrCreateByProvider must resolve
// create-if-absent atomically so that two concurrent first logins with the
// same external identifier yield one record.
type UserStore interface {
	// GetUserByID retrieves a user by its opaque ID. Returns ErrUserNotFound
	// if the ID no longer resolves.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByUsername retrieves a user by its local username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// CreateLocalUser creates a record carrying only a local credential.
	// Returns ErrUsernameTaken if the username exists.
	CreateLocalUser(ctx context.Context, username, passwordHash string) (*User, error)

	// FindOrCreateByProvider looks up the single record whose link for the
	// provider equals externalID, creating one with only that link populated
	// when absent. Calling it again with the same pair returns the same
	// record.
	FindOrCreateByProvider(ctx context.Context, provider Provider, externalID string) (*User, error)

	// AddSecret appends a submitted secret to the user's record.
	AddSecret(ctx context.Context, userID, secret string) error

	// ListSecrets returns every secret submitted by any user.
	ListSecrets(ctx context.Context) ([]string, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
