package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/config"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/handler"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/notification"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/usecase"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/auth"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/logger"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/mailer"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/metrics"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/provider"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/utilities"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/validation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env file is fine, the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger := logger.New(cfg.IsDevelopment(), cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	m := metrics.New("dailycollege")
	v := validation.New()

	store, err := openStorage(ctx, cfg, clock, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	if err := repository.SeedColors(ctx, store.colors); err != nil {
		return fmt.Errorf("failed to seed colors: %w", err)
	}

	var notifier usecase.Notifier
	if cfg.Verification.MailerEnabled {
		smtp, err := mailer.NewMailer(cfg.Mailer)
		if err != nil {
			return fmt.Errorf("failed to create mailer: %w", err)
		}
		mailNotifier := notification.NewMailNotifier(smtp, notification.CodeLifetimes{
			Registration:  cfg.Verification.RegistrationCodeTTL,
			PasswordReset: cfg.Verification.ResetCodeTTL,
		}, m, logger)
		defer mailNotifier.Wait()
		notifier = mailNotifier
	} else {
		logger.Warn().Msg("Mailer disabled, verification codes are written to the log")
		notifier = notification.NewLogNotifier(logger)
	}

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer, clock)

	deps := handler.Dependencies{
		Config:        cfg,
		Logger:        logger,
		Metrics:       m,
		Validator:     v,
		Clock:         clock,
		Registration:  usecase.NewRegistrationUsecase(store.users, store.ephemeral, notifier, v, clock, cfg, logger),
		PasswordReset: usecase.NewPasswordResetUsecase(store.users, store.ephemeral, notifier, v, clock, cfg, logger),
		Sessions:      usecase.NewSessionUsecase(store.users, store.ephemeral, jwtAuth, v, clock, m, cfg, logger),
		Colors:        usecase.NewColorUsecase(store.colors, usecase.NewColorCache(clock, cfg.ColorCacheTTL)),
		Finance:       usecase.NewFinanceUsecase(store.transactions),
		Tasks:         usecase.NewResourceUsecase(store.tasks, v),
		Events:        usecase.NewResourceUsecase(store.events, v),
		Schedules:     usecase.NewResourceUsecase(store.schedules, v),
		Activities:    usecase.NewResourceUsecase(store.activities, v),
		Transactions:  usecase.NewResourceUsecase(store.transactions, v),
		HealthCheck:   store.ping,
	}
	if cfg.Google.Enabled() {
		deps.Google = provider.NewGoogleOAuthProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
	} else {
		logger.Warn().Msg("Google sign-in disabled, GOOGLE_CLIENT_ID is not set")
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.NewRouter(deps),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := utilities.RegisterHealthServer(grpcServer)

	healthListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCHealthPort))
	if err != nil {
		return fmt.Errorf("failed to listen on health port: %w", err)
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info().Int("port", cfg.GRPCHealthPort).Msg("Starting gRPC health server")
		if err := grpcServer.Serve(healthListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc health server: %w", err)
		}
	}()

	go func() {
		logger.Info().Int("port", cfg.HTTPPort).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if cfg.Consul.Addr != "" {
		deregister, err := utilities.RegisterService(cfg.Consul.Addr, utilities.ServiceRegistration{
			Name:       cfg.Consul.ServiceName,
			Address:    cfg.Consul.ServiceAddress,
			HTTPPort:   cfg.HTTPPort,
			HealthPort: cfg.GRPCHealthPort,
			Tags:       []string{"http", "api"},
		})
		if err != nil {
			logger.Error().Err(err).Msg("Failed to register with consul")
		} else {
			logger.Info().Str("consul", cfg.Consul.Addr).Msg("Registered with consul")
			defer func() {
				if err := deregister(); err != nil {
					logger.Error().Err(err).Msg("Failed to deregister from consul")
				}
			}()
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down")
	case runErr = <-errCh:
	}

	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to shut down HTTP server")
	}
	grpcServer.GracefulStop()

	logger.Info().Msg("Stopped")
	return runErr
}
