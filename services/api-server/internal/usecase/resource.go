package usecase

import (
	"context"
	"errors"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/validation"
)

// ResourceUsecase is the CRUD flow shared by every record a user owns.
type ResourceUsecase[T any, PT repository.DocumentPtr[T]] interface {
	Create(ctx context.Context, userID string, doc PT) (PT, error)
	List(ctx context.Context, userID string) ([]T, error)
	Get(ctx context.Context, userID, id string) (PT, error)
	Update(ctx context.Context, userID, id string, doc PT) (PT, error)
	Delete(ctx context.Context, userID, id string) error
}

type resourceUsecase[T any, PT repository.DocumentPtr[T]] struct {
	repo      repository.OwnedRepository[T, PT]
	validator *validation.Validator
}

func NewResourceUsecase[T any, PT repository.DocumentPtr[T]](
	repo repository.OwnedRepository[T, PT],
	validator *validation.Validator,
) ResourceUsecase[T, PT] {
	return &resourceUsecase[T, PT]{repo: repo, validator: validator}
}

func (u *resourceUsecase[T, PT]) Create(ctx context.Context, userID string, doc PT) (PT, error) {
	if err := u.validator.Struct(doc); err != nil {
		return nil, validationError(err)
	}

	created, err := u.repo.Create(ctx, userID, doc)
	return created, resourceError(err)
}

func (u *resourceUsecase[T, PT]) List(ctx context.Context, userID string) ([]T, error) {
	docs, err := u.repo.List(ctx, userID)
	return docs, resourceError(err)
}

func (u *resourceUsecase[T, PT]) Get(ctx context.Context, userID, id string) (PT, error) {
	doc, err := u.repo.Get(ctx, userID, id)
	return doc, resourceError(err)
}

func (u *resourceUsecase[T, PT]) Update(ctx context.Context, userID, id string, doc PT) (PT, error) {
	if err := u.validator.Struct(doc); err != nil {
		return nil, validationError(err)
	}

	updated, err := u.repo.Replace(ctx, userID, id, doc)
	return updated, resourceError(err)
}

func (u *resourceUsecase[T, PT]) Delete(ctx context.Context, userID, id string) error {
	return resourceError(u.repo.Delete(ctx, userID, id))
}

// resourceError hides records of other users and malformed ids behind ErrNotFound.
func resourceError(err error) error {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
		return ErrNotFound
	}
	return err
}
