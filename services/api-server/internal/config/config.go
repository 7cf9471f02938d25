// Package config loads the api-server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/mailer"
)

const (
	StorageDriverMongo  = "mongo"
	StorageDriverMemory = "memory"

	minSecretLength = 32
)

// Config holds every setting of the api-server.
type Config struct {
	Environment string `env:"APP_ENV"   envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort       int `env:"HTTP_PORT"        envDefault:"8080"`
	GRPCHealthPort int `env:"GRPC_HEALTH_PORT" envDefault:"9090"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"mongo"`
	MongoURI      string `env:"MONGO_URI"      envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"dailycollege"`

	Token        TokenConfig
	Verification VerificationConfig
	Google       GoogleConfig
	Mailer       mailer.Config
	RateLimit    RateLimitConfig
	Consul       ConsulConfig

	ColorCacheTTL time.Duration `env:"COLOR_CACHE_TTL" envDefault:"10m"`
}

// TokenConfig controls bearer tokens and the session cookie.
type TokenConfig struct {
	Secret              string        `env:"JWT_SECRET"`
	Issuer              string        `env:"JWT_ISSUER"             envDefault:"dailycollege"`
	ExpiresIn           time.Duration `env:"TOKEN_EXPIRES_IN"       envDefault:"168h"`
	SessionCookieMaxAge time.Duration `env:"SESSION_COOKIE_MAX_AGE" envDefault:"24h"`
}

// VerificationConfig controls verification codes.
type VerificationConfig struct {
	AllowedEmailDomains []string      `env:"ALLOWED_EMAIL_DOMAINS" envDefault:"gmail.com" envSeparator:","`
	RegistrationCodeTTL time.Duration `env:"REGISTRATION_CODE_TTL" envDefault:"120s"`
	ResetCodeTTL        time.Duration `env:"RESET_CODE_TTL"        envDefault:"120s"`
	ResetTicketTTL      time.Duration `env:"RESET_TICKET_TTL"      envDefault:"1200s"`
	MailerEnabled       bool          `env:"MAILER_ENABLED"        envDefault:"true"`
}

// GoogleConfig holds the OAuth client used for Google sign-in.
type GoogleConfig struct {
	ClientID           string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret       string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL        string `env:"GOOGLE_REDIRECT_URL"         envDefault:"http://localhost:8080/auth/google/callback"`
	FailureRedirectURL string `env:"GOOGLE_FAILURE_REDIRECT_URL" envDefault:"/"`
}

// Enabled reports whether Google sign-in is configured.
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// RateLimitConfig controls the per-client limiter on /auth.
type RateLimitConfig struct {
	RequestsPerSecond float64 `env:"RATE_LIMIT_RPS"   envDefault:"5"`
	Burst             int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// ConsulConfig controls service registration. Registration is skipped when Addr is empty.
type ConsulConfig struct {
	Addr           string `env:"CONSUL_ADDR"`
	ServiceName    string `env:"SERVICE_NAME"    envDefault:"dailycollege-api"`
	ServiceAddress string `env:"SERVICE_ADDRESS" envDefault:"127.0.0.1"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the server cannot run without. A missing or
// short JWT_SECRET is always fatal, there is no fallback secret.
func (c *Config) Validate() error {
	var errs []error

	switch {
	case c.Token.Secret == "":
		errs = append(errs, errors.New("missing JWT_SECRET environment variable"))
	case len(c.Token.Secret) < minSecretLength:
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength))
	}

	if c.Token.ExpiresIn <= 0 {
		errs = append(errs, errors.New("TOKEN_EXPIRES_IN must be positive"))
	}

	switch c.StorageDriver {
	case StorageDriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("missing MONGO_URI environment variable"))
		}
	case StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	if len(c.Verification.AllowedEmailDomains) == 0 {
		errs = append(errs, errors.New("ALLOWED_EMAIL_DOMAINS must list at least one domain"))
	}
	for i, d := range c.Verification.AllowedEmailDomains {
		c.Verification.AllowedEmailDomains[i] = strings.ToLower(strings.TrimSpace(d))
	}

	if c.Verification.MailerEnabled {
		if err := c.Mailer.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if (c.Google.ClientID == "") != (c.Google.ClientSecret == "") {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together"))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
