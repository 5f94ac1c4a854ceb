package authentication_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdnc12/authentication"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := authentication.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.Equal(t, "s3cret", cfg.SessionSecret)
	assert.Equal(t, 86400, cfg.SessionTimeoutInSeconds)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURL)
	assert.Equal(t, "userDB", cfg.MongoDB)
	assert.Equal(t, "users.db", cfg.SQLitePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.GoogleClientID)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("PORT", "8080")
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("SESSION_TIMEOUT_SECONDS", "600")
	t.Setenv("GOOGLE_CLIENT_ID", "gid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "gsecret")

	cfg, err := authentication.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, 600, cfg.SessionTimeoutInSeconds)
	assert.Equal(t, "gid", cfg.GoogleClientID)
	assert.Equal(t, "gsecret", cfg.GoogleClientSecret)
}

func TestLoadConfigRequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "placeholder")
	os.Unsetenv("SESSION_SECRET")

	_, err := authentication.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}
