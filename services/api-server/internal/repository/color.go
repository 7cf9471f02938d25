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

// ColorRepository defines the operations on the shared color palette.
type ColorRepository interface {
	ListColors(ctx context.Context) ([]model.Color, error)
	CreateColor(ctx context.Context, color *model.Color) (*model.Color, error)
	UpdateColor(ctx context.Context, id string, params UpdateColorParams) (*model.Color, error)
	DeleteColor(ctx context.Context, id string) error
}

// UpdateColorParams defines the optional parameters for updating a color.
type UpdateColorParams struct {
	Name *string
	Hex  *string
}

const colorCollection = "colors"

type colorMongoRepository struct {
	db *mongo.Database
}

func NewColorMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) ColorRepository {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := db.Collection(colorCollection).Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Fatal().Err(err).Msg("failed to create color indexes")
	}

	return &colorMongoRepository{db: db}
}

func (r *colorMongoRepository) ListColors(ctx context.Context) ([]model.Color, error) {
	cursor, err := r.db.Collection(colorCollection).Find(
		ctx,
		bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}

	colors := []model.Color{}
	if err := cursor.All(ctx, &colors); err != nil {
		return nil, err
	}

	return colors, nil
}

func (r *colorMongoRepository) CreateColor(ctx context.Context, color *model.Color) (*model.Color, error) {
	now := time.Now()
	color.ID = bson.ObjectID{}
	color.CreatedAt = now
	color.UpdatedAt = now

	result, err := r.db.Collection(colorCollection).InsertOne(ctx, color)
	if err != nil {
		return nil, translateError(err)
	}

	objectID, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}
	color.ID = objectID

	return color, nil
}

func (r *colorMongoRepository) UpdateColor(ctx context.Context, id string, params UpdateColorParams) (*model.Color, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	updateMap := bson.M{"updated_at": time.Now()}
	if params.Name != nil {
		updateMap["name"] = *params.Name
	}
	if params.Hex != nil {
		updateMap["hex"] = *params.Hex
	}

	var color model.Color
	err = r.db.Collection(colorCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&color)
	if err != nil {
		return nil, translateError(err)
	}

	return &color, nil
}

func (r *colorMongoRepository) DeleteColor(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	result, err := r.db.Collection(colorCollection).DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// SeedColors inserts model.DefaultColors when the palette is empty.
func SeedColors(ctx context.Context, repo ColorRepository) error {
	existing, err := repo.ListColors(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, c := range model.DefaultColors {
		color := c
		if _, err := repo.CreateColor(ctx, &color); err != nil && !errors.Is(err, ErrDuplicateKey) {
			return err
		}
	}

	return nil
}
