package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
)

type colorMemoryRepository struct {
	mu     sync.RWMutex
	colors map[bson.ObjectID]model.Color
}

// NewColorMemoryRepository returns a ColorRepository kept in process memory.
func NewColorMemoryRepository() ColorRepository {
	return &colorMemoryRepository{colors: make(map[bson.ObjectID]model.Color)}
}

func (r *colorMemoryRepository) ListColors(context.Context) ([]model.Color, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	colors := make([]model.Color, 0, len(r.colors))
	for _, c := range r.colors {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].CreatedAt.Equal(colors[j].CreatedAt) {
			return colors[i].ID.Hex() < colors[j].ID.Hex()
		}
		return colors[i].CreatedAt.Before(colors[j].CreatedAt)
	})

	return colors, nil
}

func (r *colorMemoryRepository) CreateColor(_ context.Context, color *model.Color) (*model.Color, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.colors {
		if c.Name == color.Name {
			return nil, ErrDuplicateKey
		}
	}

	now := time.Now()
	color.ID = bson.NewObjectID()
	color.CreatedAt = now
	color.UpdatedAt = now
	r.colors[color.ID] = *color

	out := *color
	return &out, nil
}

func (r *colorMemoryRepository) UpdateColor(_ context.Context, id string, params UpdateColorParams) (*model.Color, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	color, ok := r.colors[objectID]
	if !ok {
		return nil, ErrNotFound
	}

	if params.Name != nil {
		for otherID, c := range r.colors {
			if otherID != objectID && c.Name == *params.Name {
				return nil, ErrDuplicateKey
			}
		}
		color.Name = *params.Name
	}
	if params.Hex != nil {
		color.Hex = *params.Hex
	}
	color.UpdatedAt = time.Now()
	r.colors[objectID] = color

	return &color, nil
}

func (r *colorMemoryRepository) DeleteColor(_ context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.colors[objectID]; !ok {
		return ErrNotFound
	}
	delete(r.colors, objectID)
	return nil
}
