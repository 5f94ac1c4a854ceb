// Package stores provides the MongoDB implementation of the user store.
package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/rdnc12/authentication"
)

// mongoUser is the document shape of a user record. Optional fields are
// omitted entirely so the sparse unique indexes only cover documents that
// actually carry the field.
type mongoUser struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Username     string        `bson:"username,omitempty"`
	PasswordHash string        `bson:"password_hash,omitempty"`
	GoogleID     string        `bson:"google_id,omitempty"`
	FacebookID   string        `bson:"facebook_id,omitempty"`
	TwitterID    string        `bson:"twitter_id,omitempty"`
	Secrets      []string      `bson:"secrets,omitempty"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

func (m *mongoUser) toUser() *authentication.User {
	return &authentication.User{
		ID:           m.ID.Hex(),
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		GoogleID:     m.GoogleID,
		FacebookID:   m.FacebookID,
		TwitterID:    m.TwitterID,
		Secrets:      m.Secrets,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// MongoUserStore implements authentication.UserStore on a MongoDB
// collection.
type MongoUserStore struct {
	db    *mongo.Database
	users *mongo.Collection
}

// NewMongoUserStore wraps the "users" collection of db.
func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{db: db, users: db.Collection("users")}
}

// Connect dials the MongoDB server and verifies the connection.
func Connect(ctx context.Context, url string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(url).SetConnectTimeout(10 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the sparse unique indexes that make find-or-create
// race-free: at most one document may carry a given username or
// (provider, external id) pair.
func (s *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	fields := []string{"username", "google_id", "facebook_id", "twitter_id"}
	models := make([]mongo.IndexModel, 0, len(fields))
	for _, field := range fields {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		})
	}
	_, err := s.users.Indexes().CreateMany(ctx, models)
	return err
}

func (s *MongoUserStore) GetUserByID(ctx context.Context, id string) (*authentication.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, authentication.ErrUserNotFound
	}
	var doc mongoUser
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, authentication.ErrUserNotFound
		}
		return nil, fmt.Errorf("finding user by id: %w", err)
	}
	return doc.toUser(), nil
}

func (s *MongoUserStore) GetUserByUsername(ctx context.Context, username string) (*authentication.User, error) {
	var doc mongoUser
	if err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, authentication.ErrUserNotFound
		}
		return nil, fmt.Errorf("finding user by username: %w", err)
	}
	return doc.toUser(), nil
}

func (s *MongoUserStore) CreateLocalUser(ctx context.Context, username, passwordHash string) (*authentication.User, error) {
	now := time.Now().UTC()
	doc := mongoUser{
		ID:           bson.NewObjectID(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, authentication.ErrUsernameTaken
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return doc.toUser(), nil
}

// FindOrCreateByProvider is an atomic upsert keyed on the provider link
// field, so two concurrent first logins with the same external identifier
// resolve to a single document.
func (s *MongoUserStore) FindOrCreateByProvider(ctx context.Context, provider authentication.Provider, externalID string) (*authentication.User, error) {
	field, err := providerField(provider)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var doc mongoUser
	err = s.users.FindOneAndUpdate(ctx,
		bson.M{field: externalID},
		bson.M{
			"$setOnInsert": bson.M{field: externalID, "created_at": now},
			"$set":         bson.M{"updated_at": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("find-or-create by %s: %w", field, err)
	}
	return doc.toUser(), nil
}

func (s *MongoUserStore) AddSecret(ctx context.Context, userID, secret string) error {
	oid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return authentication.ErrUserNotFound
	}
	res, err := s.users.UpdateByID(ctx, oid, bson.M{
		"$push": bson.M{"secrets": secret},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("adding secret: %w", err)
	}
	if res.MatchedCount == 0 {
		return authentication.ErrUserNotFound
	}
	return nil
}

func (s *MongoUserStore) ListSecrets(ctx context.Context) ([]string, error) {
	cursor, err := s.users.Find(ctx, bson.M{"secrets": bson.M{"$exists": true}})
	if err != nil {
		return nil, fmt.Errorf("listing secrets: %w", err)
	}
	defer cursor.Close(ctx)

	var secrets []string
	for cursor.Next(ctx) {
		var doc mongoUser
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding user: %w", err)
		}
		secrets = append(secrets, doc.Secrets...)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return secrets, nil
}

func (s *MongoUserStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func providerField(provider authentication.Provider) (string, error) {
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

var _ authentication.UserStore = (*MongoUserStore)(nil)
