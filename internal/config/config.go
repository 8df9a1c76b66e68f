package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName         = "CashCards"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultTokenTTL        = 15 * time.Minute
	defaultOwnerRole       = "CARD-OWNER"
	defaultPageSize        = 20
	defaultLoginFailures   = 5
	devJWTSecret           = "dev-only-secret"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// UserSeed describes a credential provisioned at startup.
type UserSeed struct {
	Username string
	Password string
	Roles    []string
}

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	LogFormat      string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	JWTSecret        string
	TokenTTL         time.Duration
	OwnerRole        string
	LoginMaxFailures int

	// DefaultPageSize applies when a listing request carries no size.
	DefaultPageSize int
	// MaxPageSize clamps requested page sizes. Zero disables the cap.
	MaxPageSize int
	// MaxAbsAmount bounds |amount| on writes. Empty disables the check.
	MaxAbsAmount string

	SeedUsers []UserSeed
}

// Load reads configuration values from the environment and populates a Config instance.
// A .env file in the working directory is applied first when present; real
// environment variables win over its values.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           getEnv("APP_ENV", defaultAppEnv),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		ShutdownPeriod:   defaultShutdownDelay,
		IdempotencyTTL:   defaultIdempotencyTTL,
		JWTSecret:        os.Getenv("JWT_SECRET"),
		TokenTTL:         defaultTokenTTL,
		OwnerRole:        getEnv("OWNER_ROLE", defaultOwnerRole),
		LoginMaxFailures: defaultLoginFailures,
		DefaultPageSize:  defaultPageSize,
		MaxAbsAmount:     os.Getenv("MAX_ABS_AMOUNT"),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = durationFromEnv("TOKEN_TTL_SECONDS", "TOKEN_TTL", cfg.TokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.DefaultPageSize, err = intFromEnv("DEFAULT_PAGE_SIZE", cfg.DefaultPageSize); err != nil {
		return Config{}, err
	}
	if cfg.MaxPageSize, err = intFromEnv("MAX_PAGE_SIZE", 0); err != nil {
		return Config{}, err
	}
	if cfg.LoginMaxFailures, err = intFromEnv("LOGIN_MAX_FAILURES", cfg.LoginMaxFailures); err != nil {
		return Config{}, err
	}

	if cfg.DefaultPageSize <= 0 {
		return Config{}, fmt.Errorf("DEFAULT_PAGE_SIZE must be positive")
	}
	if cfg.MaxPageSize < 0 {
		return Config{}, fmt.Errorf("MAX_PAGE_SIZE must not be negative")
	}

	if v := os.Getenv("SEED_USERS"); v != "" {
		seeds, err := ParseUserSeeds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SEED_USERS: %w", err)
		}
		cfg.SeedUsers = seeds
	} else if cfg.IsDev() {
		cfg.SeedUsers = DemoUsers(cfg.OwnerRole)
	}

	if cfg.IsDev() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = devJWTSecret
		}
		return cfg, nil
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}

	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a local/dev environment where
// Postgres and Redis are optional.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// ParseUserSeeds parses "user:password:ROLE|ROLE;user2:password2:ROLE".
func ParseUserSeeds(raw string) ([]UserSeed, error) {
	var seeds []UserSeed
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("entry %q: want user:password:roles", entry)
		}
		var roles []string
		for _, r := range strings.Split(parts[2], "|") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}
		seeds = append(seeds, UserSeed{Username: parts[0], Password: parts[1], Roles: roles})
	}
	return seeds, nil
}

// DemoUsers returns the users provisioned in dev when SEED_USERS is unset.
func DemoUsers(ownerRole string) []UserSeed {
	return []UserSeed{
		{Username: "sarah1", Password: "sarah123", Roles: []string{ownerRole}},
		{Username: "kumar2", Password: "xyz789", Roles: []string{ownerRole}},
		{Username: "stranger", Password: "abc123", Roles: []string{"NON-OWNER"}},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationFromEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
