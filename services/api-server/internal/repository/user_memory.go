package repository

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
)

type userMemoryRepository struct {
	mu    sync.RWMutex
	users map[bson.ObjectID]model.User
}

// NewUserMemoryRepository returns a UserRepository kept in process memory,
// with the same uniqueness rules as the mongo indexes.
func NewUserMemoryRepository() UserRepository {
	return &userMemoryRepository{users: make(map[bson.ObjectID]model.User)}
}

func (r *userMemoryRepository) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, ErrDuplicateKey
		}
		if user.ExternalID != nil && existing.ExternalID != nil && *existing.ExternalID == *user.ExternalID {
			return nil, ErrDuplicateKey
		}
	}

	now := time.Now()
	user.ID = bson.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user

	out := *user
	return &out, nil
}

func (r *userMemoryRepository) GetUser(_ context.Context, id string) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[objectID]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *userMemoryRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *userMemoryRepository) GetUserByExternalID(_ context.Context, externalID string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ExternalID != nil && *u.ExternalID == externalID })
}

func (r *userMemoryRepository) find(match func(*model.User) bool) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if match(&user) {
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (r *userMemoryRepository) UpdateUser(_ context.Context, id string, params UpdateUserParams) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	if params.empty() {
		return nil, errNoUserFields
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[objectID]
	if !ok {
		return nil, ErrNotFound
	}

	if params.ExternalID != nil {
		for otherID, other := range r.users {
			if otherID != objectID && other.ExternalID != nil && *other.ExternalID == *params.ExternalID {
				return nil, ErrDuplicateKey
			}
		}
		user.ExternalID = copyString(params.ExternalID)
	}
	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.PasswordHash != nil {
		user.PasswordHash = copyString(params.PasswordHash)
	}
	if params.Avatar != nil {
		user.Avatar = copyString(params.Avatar)
	}
	if params.Verified != nil {
		user.Verified = *params.Verified
	}
	user.UpdatedAt = time.Now()

	r.users[objectID] = user
	return &user, nil
}

func copyString(s *string) *string {
	v := *s
	return &v
}
