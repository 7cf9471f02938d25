package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EphemeralStore is a key-value store with per-key expiry. It holds pending
// registrations, password reset codes, sessions and authorization grants.
// Expired keys behave exactly like missing keys.
type EphemeralStore interface {
	// Set stores value under key for ttl, replacing any previous value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetIfAbsent stores value under key only when the key does not exist.
	// It reports whether the value was stored.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Take atomically returns and deletes the value stored under key, or ErrNotFound.
	Take(ctx context.Context, key string) ([]byte, error)

	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

const ephemeralCollection = "ephemeral_keys"

type ephemeralEntry struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	ExpiresAt time.Time `bson:"expires_at"`
}

type ephemeralMongoStore struct {
	db *mongo.Database
}

// NewEphemeralMongoStore creates an EphemeralStore on a mongo collection with a
// TTL index on expires_at. The TTL monitor only runs periodically, so reads
// also filter on expires_at.
func NewEphemeralMongoStore(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) EphemeralStore {
	collection := db.Collection(ephemeralCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create ephemeral key indexes")
	}

	return &ephemeralMongoStore{db: db}
}

func liveFilter(key string) bson.M {
	return bson.M{"_id": key, "expires_at": bson.M{"$gt": time.Now()}}
}

func (s *ephemeralMongoStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := ephemeralEntry{Key: key, Value: value, ExpiresAt: time.Now().Add(ttl)}

	_, err := s.db.Collection(ephemeralCollection).ReplaceOne(
		ctx,
		bson.M{"_id": key},
		entry,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *ephemeralMongoStore) SetIfAbsent(
	ctx context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) (bool, error) {
	collection := s.db.Collection(ephemeralCollection)

	// An expired entry the TTL monitor has not removed yet must not block the key.
	if _, err := collection.DeleteOne(ctx, bson.M{"_id": key, "expires_at": bson.M{"$lte": time.Now()}}); err != nil {
		return false, err
	}

	entry := ephemeralEntry{Key: key, Value: value, ExpiresAt: time.Now().Add(ttl)}
	if _, err := collection.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (s *ephemeralMongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry ephemeralEntry
	if err := s.db.Collection(ephemeralCollection).FindOne(ctx, liveFilter(key)).Decode(&entry); err != nil {
		return nil, translateError(err)
	}

	return entry.Value, nil
}

func (s *ephemeralMongoStore) Take(ctx context.Context, key string) ([]byte, error) {
	var entry ephemeralEntry
	if err := s.db.Collection(ephemeralCollection).FindOneAndDelete(ctx, liveFilter(key)).Decode(&entry); err != nil {
		return nil, translateError(err)
	}

	return entry.Value, nil
}

func (s *ephemeralMongoStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := s.db.Collection(ephemeralCollection).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return err
}
