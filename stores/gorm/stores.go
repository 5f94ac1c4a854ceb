// Package gorm provides a GORM-backed implementation of the user store,
// usable with any dialector the host application chooses.
package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rdnc12/authentication"
)

// AutoMigrate runs the database migrations for the user table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{})
}

// UserStore implements authentication.UserStore using GORM.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserByID(ctx context.Context, id string) (*authentication.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authentication.ErrUserNotFound
		}
		return nil, fmt.Errorf("finding user by id: %w", err)
	}
	return model.toUser(), nil
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*authentication.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authentication.ErrUserNotFound
		}
		return nil, fmt.Errorf("finding user by username: %w", err)
	}
	return model.toUser(), nil
}

func (s *UserStore) CreateLocalUser(ctx context.Context, username, passwordHash string) (*authentication.User, error) {
	model := UserModel{
		ID:           uuid.NewString(),
		Username:     ptr(username),
		PasswordHash: ptr(passwordHash),
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		// The unique index makes a duplicate username fail here; report it
		// as taken whether it existed before or won a concurrent race.
		var existing UserModel
		if lookupErr := s.db.WithContext(ctx).First(&existing, "username = ?", username).Error; lookupErr == nil {
			return nil, authentication.ErrUsernameTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return model.toUser(), nil
}

// FindOrCreateByProvider looks up the record carrying the provider link and
// inserts one when absent. A concurrent first login loses the insert against
// the unique index and falls back to reading the winner's row.
func (s *UserStore) FindOrCreateByProvider(ctx context.Context, provider authentication.Provider, externalID string) (*authentication.User, error) {
	column, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}

	var model UserModel
	lookupErr := s.db.WithContext(ctx).First(&model, column+" = ?", externalID).Error
	if lookupErr == nil {
		return model.toUser(), nil
	}
	if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("finding user by %s: %w", column, lookupErr)
	}

	created := UserModel{ID: uuid.NewString()}
	switch provider {
	case authentication.ProviderGoogle:
		created.GoogleID = ptr(externalID)
	case authentication.ProviderFacebook:
		created.FacebookID = ptr(externalID)
	case authentication.ProviderTwitter:
		created.TwitterID = ptr(externalID)
	}

	if createErr := s.db.WithContext(ctx).Create(&created).Error; createErr != nil {
		if err := s.db.WithContext(ctx).First(&model, column+" = ?", externalID).Error; err == nil {
			return model.toUser(), nil
		}
		return nil, fmt.Errorf("creating user for %s: %w", column, createErr)
	}
	return created.toUser(), nil
}

func (s *UserStore) AddSecret(ctx context.Context, userID, secret string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model UserModel
		if err := tx.First(&model, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return authentication.ErrUserNotFound
			}
			return fmt.Errorf("finding user: %w", err)
		}
		model.Secrets = append(model.Secrets, secret)
		if err := tx.Model(&model).Update("secrets", model.Secrets).Error; err != nil {
			return fmt.Errorf("updating secrets: %w", err)
		}
		return nil
	})
}

func (s *UserStore) ListSecrets(ctx context.Context) ([]string, error) {
	var models []UserModel
	if err := s.db.WithContext(ctx).Where("secrets IS NOT NULL").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing secrets: %w", err)
	}
	var secrets []string
	for _, m := range models {
		secrets = append(secrets, m.Secrets...)
	}
	return secrets, nil
}

func (s *UserStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func providerColumn(provider authentication.Provider) (string, error) {
	switch provider {
	case authentication.ProviderGoogle:
		return "google_id", nil
	case authentication.ProviderFacebook:
		return "facebook_id", nil
	case authentication.ProviderTwitter:
		return "twitter_id", nil
	}
	return "", fmt.Errorf("unknown provider %q", provider)
}

var _ authentication.UserStore = (*UserStore)(nil)
