package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/config"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
)

// storage holds every repository the server needs, backed by one driver.
type storage struct {
	users        repository.UserRepository
	ephemeral    repository.EphemeralStore
	colors       repository.ColorRepository
	tasks        repository.OwnedRepository[model.Task, *model.Task]
	events       repository.OwnedRepository[model.Event, *model.Event]
	schedules    repository.OwnedRepository[model.Schedule, *model.Schedule]
	activities   repository.OwnedRepository[model.Activity, *model.Activity]
	transactions repository.OwnedRepository[model.Transaction, *model.Transaction]

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func openStorage(ctx context.Context, cfg *config.Config, clock clockwork.Clock, logger *zerolog.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn().Msg("Using in-memory storage, data is lost on restart")
		return &storage{
			users:        repository.NewUserMemoryRepository(),
			ephemeral:    repository.NewEphemeralMemoryStore(clock),
			colors:       repository.NewColorMemoryRepository(),
			tasks:        repository.NewOwnedMemoryRepository[model.Task](),
			events:       repository.NewOwnedMemoryRepository[model.Event](),
			schedules:    repository.NewOwnedMemoryRepository[model.Schedule](),
			activities:   repository.NewOwnedMemoryRepository[model.Activity](),
			transactions: repository.NewOwnedMemoryRepository[model.Transaction](),
			ping:         func(context.Context) error { return nil },
			close:        func(context.Context) error { return nil },
		}, nil
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	logger.Info().Str("database", cfg.MongoDatabase).Msg("Connected to mongo")

	return &storage{
		users:        repository.NewUserMongoRepository(ctx, logger, db),
		ephemeral:    repository.NewEphemeralMongoStore(ctx, logger, db),
		colors:       repository.NewColorMongoRepository(ctx, logger, db),
		tasks:        repository.NewOwnedMongoRepository[model.Task](ctx, logger, db, "tasks"),
		events:       repository.NewOwnedMongoRepository[model.Event](ctx, logger, db, "events"),
		schedules:    repository.NewOwnedMongoRepository[model.Schedule](ctx, logger, db, "schedules"),
		activities:   repository.NewOwnedMongoRepository[model.Activity](ctx, logger, db, "activities"),
		transactions: repository.NewOwnedMongoRepository[model.Transaction](ctx, logger, db, "transactions"),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: client.Disconnect,
	}, nil
}
