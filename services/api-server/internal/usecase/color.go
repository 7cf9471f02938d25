package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/validation"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ColorUsecase manages the shared color palette.
type ColorUsecase interface {
	ListColors(ctx context.Context) ([]model.Color, error)
	GetColor(ctx context.Context, id string) (*model.Color, error)
	CreateColor(ctx context.Context, params ColorParams) (*model.Color, error)
	UpdateColor(ctx context.Context, id string, params ColorParams) (*model.Color, error)
	DeleteColor(ctx context.Context, id string) error
}

// ColorParams defines the writable fields of a color. Nil fields are left
// unchanged on update and required on create.
type ColorParams struct {
	Name *string
	Hex  *string
}

// ColorCache keeps the palette in memory for ttl. Writes through the
// ColorUsecase invalidate it.
type ColorCache struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	ttl      time.Duration
	colors   []model.Color
	loadedAt time.Time
	loaded   bool
}

func NewColorCache(clock clockwork.Clock, ttl time.Duration) *ColorCache {
	return &ColorCache{clock: clock, ttl: ttl}
}

// Get returns the cached palette, calling load when it is missing or stale.
func (c *ColorCache) Get(ctx context.Context, load func(context.Context) ([]model.Color, error)) ([]model.Color, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded && c.clock.Since(c.loadedAt) < c.ttl {
		return c.colors, nil
	}

	colors, err := load(ctx)
	if err != nil {
		return nil, err
	}

	c.colors = colors
	c.loadedAt = c.clock.Now()
	c.loaded = true
	return colors, nil
}

func (c *ColorCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.colors = nil
	c.loaded = false
}

type colorUsecase struct {
	repo  repository.ColorRepository
	cache *ColorCache
}

func NewColorUsecase(repo repository.ColorRepository, cache *ColorCache) ColorUsecase {
	return &colorUsecase{repo: repo, cache: cache}
}

func (u *colorUsecase) ListColors(ctx context.Context) ([]model.Color, error) {
	colors, err := u.cache.Get(ctx, u.repo.ListColors)
	if err != nil {
		return nil, err
	}

	// Callers must not mutate the cached slice.
	return append([]model.Color(nil), colors...), nil
}

func (u *colorUsecase) GetColor(ctx context.Context, id string) (*model.Color, error) {
	colors, err := u.cache.Get(ctx, u.repo.ListColors)
	if err != nil {
		return nil, err
	}

	for _, c := range colors {
		if c.ID.Hex() == id {
			color := c
			return &color, nil
		}
	}
	return nil, ErrNotFound
}

func (u *colorUsecase) CreateColor(ctx context.Context, params ColorParams) (*model.Color, error) {
	if params.Name == nil {
		return nil, validationError(validation.NewError("name", "name is a required field"))
	}
	if params.Hex == nil {
		return nil, validationError(validation.NewError("hex", "hex is a required field"))
	}
	if err := checkColorParams(params); err != nil {
		return nil, err
	}

	color, err := u.repo.CreateColor(ctx, &model.Color{
		Name: strings.TrimSpace(*params.Name),
		Hex:  strings.ToUpper(*params.Hex),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, validationError(validation.NewError("name", "name is already taken"))
		}
		return nil, err
	}

	u.cache.Invalidate()
	return color, nil
}

func (u *colorUsecase) UpdateColor(ctx context.Context, id string, params ColorParams) (*model.Color, error) {
	if params.Name == nil && params.Hex == nil {
		return nil, validationError(validation.NewError("color", "at least one of name or hex is required"))
	}
	if err := checkColorParams(params); err != nil {
		return nil, err
	}

	update := repository.UpdateColorParams{}
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		update.Name = &name
	}
	if params.Hex != nil {
		hex := strings.ToUpper(*params.Hex)
		update.Hex = &hex
	}

	color, err := u.repo.UpdateColor(ctx, id, update)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, validationError(validation.NewError("name", "name is already taken"))
		}
		return nil, resourceError(err)
	}

	u.cache.Invalidate()
	return color, nil
}

func (u *colorUsecase) DeleteColor(ctx context.Context, id string) error {
	if err := u.repo.DeleteColor(ctx, id); err != nil {
		return resourceError(err)
	}

	u.cache.Invalidate()
	return nil
}

func checkColorParams(params ColorParams) error {
	if params.Name != nil && strings.TrimSpace(*params.Name) == "" {
		return validationError(validation.NewError("name", "name is a required field"))
	}
	if params.Hex != nil && !hexColorPattern.MatchString(*params.Hex) {
		return validationError(validation.NewError("hex", "hex must be a color in #RRGGBB form"))
	}
	return nil
}
