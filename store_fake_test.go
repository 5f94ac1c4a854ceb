package authentication_test

import (
	"context"
	"strconv"
	"sync"

	"github.com/rdnc12/authentication"
)

// fakeStore is an in-memory UserStore for handler tests.
type fakeStore struct {
	mu     sync.Mutex
	users  map[string]*authentication.User
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*authentication.User)}
}

func (s *fakeStore) GetUserByID(ctx context.Context, id string) (*authentication.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, authentication.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *fakeStore) GetUserByUsername(ctx context.Context, username string) (*authentication.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, authentication.ErrUserNotFound
}

func (s *fakeStore) CreateLocalUser(ctx context.Context, username, passwordHash string) (*authentication.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return nil, authentication.ErrUsernameTaken
		}
	}
	user := &authentication.User{ID: s.newID(), Username: username, PasswordHash: passwordHash}
	s.users[user.ID] = user
	clone := *user
	return &clone, nil
}

func (s *fakeStore) FindOrCreateByProvider(ctx context.Context, provider authentication.Provider, externalID string) (*authentication.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ProviderID(provider) == externalID {
			clone := *user
			return &clone, nil
		}
	}
	user := &authentication.User{ID: s.newID()}
	switch provider {
	case authentication.ProviderGoogle:
		user.GoogleID = externalID
	case authentication.ProviderFacebook:
		user.FacebookID = externalID
	case authentication.ProviderTwitter:
		user.TwitterID = externalID
	}
	s.users[user.ID] = user
	clone := *user
	return &clone, nil
}

func (s *fakeStore) AddSecret(ctx context.Context, userID, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return authentication.ErrUserNotFound
	}
	user.Secrets = append(user.Secrets, secret)
	return nil
}

func (s *fakeStore) ListSecrets(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var secrets []string
	for _, user := range s.users {
		secrets = append(secrets, user.Secrets...)
	}
	return secrets, nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return nil }

func (s *fakeStore) deleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func (s *fakeStore) newID() string {
	s.nextID++
	return "u" + strconv.Itoa(s.nextID)
}
