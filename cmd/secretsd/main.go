// Command secretsd serves the Secrets web application: a landing page,
// local and federated login, and a session-gated secrets page.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	gormdb "gorm.io/gorm"

	"github.com/rdnc12/authentication"
	"github.com/rdnc12/authentication/oauth1"
	"github.com/rdnc12/authentication/oauth2"
	"github.com/rdnc12/authentication/stores"
	gormstore "github.com/rdnc12/authentication/stores/gorm"
	"github.com/rdnc12/authentication/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := authentication.LoadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, err := buildUserStore(ctx, cfg)
	if err != nil {
		return err
	}

	sessions := authentication.NewSessionAuth(cfg.SessionSecret, cfg.SessionTimeoutInSeconds)
	registry := prometheus.NewRegistry()
	metrics := authentication.NewMetrics(registry)

	local := &authentication.LocalAuth{
		Users:    users,
		Sessions: sessions,
		Metrics:  metrics,
	}
	handleUser := authentication.NewFederatedLoginHandler(users, sessions, metrics, "/secrets")

	deps := web.RouterDeps{
		Users:    users,
		Sessions: sessions,
		Metrics:  metrics,
		Gatherer: registry,
		Local:    local,
	}
	if cfg.GoogleClientID != "" {
		deps.Google = oauth2.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret,
			cfg.BaseURL+"/auth/google/secrets", handleUser)
	}
	if cfg.FacebookAppID != "" {
		deps.Facebook = oauth2.NewFacebook(cfg.FacebookAppID, cfg.FacebookAppSecret,
			cfg.BaseURL+"/auth/facebook/secrets", handleUser)
	}
	if cfg.TwitterConsumerKey != "" {
		deps.Twitter = oauth1.NewTwitter(cfg.TwitterConsumerKey, cfg.TwitterConsumerSecret,
			cfg.BaseURL+"/auth/twitter/callback", handleUser)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           web.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "port", cfg.Port, "store", cfg.StoreDriver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
	}
	return nil
}

func buildUserStore(ctx context.Context, cfg *authentication.Config) (authentication.UserStore, error) {
	switch cfg.StoreDriver {
	case "mongo":
		client, err := stores.Connect(ctx, cfg.MongoURL)
		if err != nil {
			return nil, err
		}
		store := stores.NewMongoUserStore(client.Database(cfg.MongoDB))
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("creating indexes: %w", err)
		}
		return store, nil
	case "sqlite":
		db, err := gormdb.Open(sqlite.Open(cfg.SQLitePath), &gormdb.Config{})
		if err != nil {
			return nil, fmt.Errorf("opening sqlite database: %w", err)
		}
		if err := gormstore.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		return gormstore.NewUserStore(db), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func setupLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
