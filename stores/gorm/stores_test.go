package gorm_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormdb "gorm.io/gorm"

	"github.com/rdnc12/authentication"
	gormstore "github.com/rdnc12/authentication/stores/gorm"
)

func newTestStore(t *testing.T) *gormstore.UserStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "users.db") + "?_pragma=busy_timeout(5000)"
	db, err := gormdb.Open(sqlite.Open(dsn), &gormdb.Config{})
	require.NoError(t, err)
	require.NoError(t, gormstore.AutoMigrate(db))
	return gormstore.NewUserStore(db)
}

func TestCreateAndGetLocalUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateLocalUser(ctx, "alice", "hashed-password")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "hashed-password", created.PasswordHash)

	byID, err := store.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	byName, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
}

func TestGetUnknownUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetUserByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, authentication.ErrUserNotFound)

	_, err = store.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, authentication.ErrUserNotFound)
}

func TestDuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateLocalUser(ctx, "alice", "hash-1")
	require.NoError(t, err)

	_, err = store.CreateLocalUser(ctx, "alice", "hash-2")
	assert.ErrorIs(t, err, authentication.ErrUsernameTaken)
}

func TestFindOrCreateByProvider(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.FindOrCreateByProvider(ctx, authentication.ProviderGoogle, "g-1")
	require.NoError(t, err)
	assert.Equal(t, "g-1", first.GoogleID)
	assert.Empty(t, first.Username)
	assert.Empty(t, first.PasswordHash)

	// The same identity resolves to the same record.
	again, err := store.FindOrCreateByProvider(ctx, authentication.ProviderGoogle, "g-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	// A different identity, even on another provider, gets its own record.
	other, err := store.FindOrCreateByProvider(ctx, authentication.ProviderFacebook, "g-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Equal(t, "g-1", other.FacebookID)
	assert.Empty(t, other.GoogleID)
}

func TestFindOrCreateUnknownProvider(t *testing.T) {
	store := newTestStore(t)

	_, err := store.FindOrCreateByProvider(context.Background(), authentication.Provider("myspace"), "x-1")
	assert.Error(t, err)
}

func TestFindOrCreateConcurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := store.FindOrCreateByProvider(ctx, authentication.ProviderTwitter, "tw-7")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = user.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i], "all callers must resolve the same record")
	}
}

func TestAddAndListSecrets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice, err := store.CreateLocalUser(ctx, "alice", "hash")
	require.NoError(t, err)
	bob, err := store.CreateLocalUser(ctx, "bob", "hash")
	require.NoError(t, err)

	require.NoError(t, store.AddSecret(ctx, alice.ID, "alice's first"))
	require.NoError(t, store.AddSecret(ctx, alice.ID, "alice's second"))
	require.NoError(t, store.AddSecret(ctx, bob.ID, "bob's only"))

	secrets, err := store.ListSecrets(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice's first", "alice's second", "bob's only"}, secrets)
}

func TestAddSecretUnknownUser(t *testing.T) {
	store := newTestStore(t)

	err := store.AddSecret(context.Background(), "no-such-id", "whatever")
	assert.ErrorIs(t, err, authentication.ErrUserNotFound)
}

func TestListSecretsEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateLocalUser(ctx, "alice", "hash")
	require.NoError(t, err)

	secrets, err := store.ListSecrets(ctx)
	require.NoError(t, err)
	assert.Empty(t, secrets)
}

func TestPing(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
