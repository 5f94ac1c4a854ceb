package authentication

import (
	"errors"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every knob the application reads from the environment. It is
// loaded once at startup and treated as immutable afterwards.
type Config struct {
	Port    string `env:"PORT" envDefault:"3000"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000"`

	// SessionSecret signs the auth-token cookie. The session store itself
	// keys entries by random token and needs no secret.
	SessionSecret           string `env:"SESSION_SECRET,required"`
	SessionTimeoutInSeconds int    `env:"SESSION_TIMEOUT_SECONDS" envDefault:"86400"`

	// Store selection: "mongo" or "sqlite".
	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	MongoURL    string `env:"MONGODB_URL" envDefault:"mongodb://localhost:27017"`
	MongoDB     string `env:"MONGODB_DATABASE" envDefault:"userDB"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"users.db"`

	// Federated provider credentials.
	GoogleClientID        string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret    string `env:"GOOGLE_CLIENT_SECRET"`
	FacebookAppID         string `env:"FACEBOOK_APP_ID"`
	FacebookAppSecret     string `env:"FACEBOOK_APP_SECRET"`
	TwitterConsumerKey    string `env:"TWITTER_CONSUMER_KEY"`
	TwitterConsumerSecret string `env:"TWITTER_CONSUMER_SECRET"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

var loadDotEnv sync.Once

// LoadConfig reads the .env file if one exists and parses the environment
// into a Config. Missing required variables are reported as one error.
func LoadConfig() (*Config, error) {
	loadDotEnv.Do(func() {
		// The .env file is optional; a missing file is not an error.
		_ = godotenv.Load()
	})

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Join(errors.New("loading config"), err)
	}
	return cfg, nil
}
