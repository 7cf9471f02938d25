package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
)

// DocumentPtr constrains PT to a pointer to T that implements model.Document.
type DocumentPtr[T any] interface {
	*T
	model.Document
}

// OwnedRepository stores records that belong to a single user. Every lookup is
// scoped to the owner, so one user can never read another user's records.
type OwnedRepository[T any, PT DocumentPtr[T]] interface {
	Create(ctx context.Context, userID string, doc PT) (PT, error)
	List(ctx context.Context, userID string) ([]T, error)
	Get(ctx context.Context, userID, id string) (PT, error)
	Replace(ctx context.Context, userID, id string, doc PT) (PT, error)
	Delete(ctx context.Context, userID, id string) error
}

type ownedMongoRepository[T any, PT DocumentPtr[T]] struct {
	db         *mongo.Database
	collection string
}

// NewOwnedMongoRepository creates an OwnedRepository over collection.
func NewOwnedMongoRepository[T any, PT DocumentPtr[T]](
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
	collection string,
) OwnedRepository[T, PT] {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}

	if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Fatal().Err(err).Str("collection", collection).Msg("failed to create indexes")
	}

	return &ownedMongoRepository[T, PT]{db: db, collection: collection}
}

func ownedFilter(userID, id string) (bson.M, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	return bson.M{"_id": objectID, "user_id": userID}, nil
}

func (r *ownedMongoRepository[T, PT]) Create(ctx context.Context, userID string, doc PT) (PT, error) {
	now := time.Now()
	doc.SetDocumentID(bson.ObjectID{})
	doc.SetOwner(userID)
	doc.Touch(now, now)

	result, err := r.db.Collection(r.collection).InsertOne(ctx, doc)
	if err != nil {
		return nil, translateError(err)
	}

	objectID, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}
	doc.SetDocumentID(objectID)

	return doc, nil
}

func (r *ownedMongoRepository[T, PT]) List(ctx context.Context, userID string) ([]T, error) {
	cursor, err := r.db.Collection(r.collection).Find(
		ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	return docs, nil
}

func (r *ownedMongoRepository[T, PT]) Get(ctx context.Context, userID, id string) (PT, error) {
	filter, err := ownedFilter(userID, id)
	if err != nil {
		return nil, err
	}

	doc := PT(new(T))
	if err := r.db.Collection(r.collection).FindOne(ctx, filter).Decode(doc); err != nil {
		return nil, translateError(err)
	}

	return doc, nil
}

func (r *ownedMongoRepository[T, PT]) Replace(ctx context.Context, userID, id string, doc PT) (PT, error) {
	existing, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	doc.SetDocumentID(existing.DocumentID())
	doc.SetOwner(userID)
	doc.Touch(existing.Created(), time.Now())

	result, err := r.db.Collection(r.collection).ReplaceOne(
		ctx,
		bson.M{"_id": existing.DocumentID(), "user_id": userID},
		doc,
	)
	if err != nil {
		return nil, translateError(err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrNotFound
	}

	return doc, nil
}

func (r *ownedMongoRepository[T, PT]) Delete(ctx context.Context, userID, id string) error {
	filter, err := ownedFilter(userID, id)
	if err != nil {
		return err
	}

	result, err := r.db.Collection(r.collection).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}
