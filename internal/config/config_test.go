package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDevDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SEED_USERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, defaultOwnerRole, cfg.OwnerRole)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Zero(t, cfg.MaxPageSize, "no page cap by default")
	assert.NotEmpty(t, cfg.JWTSecret, "dev jwt secret fallback")
	require.Len(t, cfg.SeedUsers, 3)
	assert.Equal(t, "sarah1", cfg.SeedUsers[0].Username)
}

func TestLoadRequiresBackingServicesOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "s3cret")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/cashcards")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadDurationsAndPaging(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("MAX_PAGE_SIZE", "100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 3*time.Second, cfg.ShutdownPeriod)
	assert.Equal(t, 100, cfg.MaxPageSize)

	t.Setenv("MAX_PAGE_SIZE", "lots")
	_, err = Load()
	assert.Error(t, err, "non-numeric MAX_PAGE_SIZE")
}

func TestParseUserSeeds(t *testing.T) {
	seeds, err := ParseUserSeeds("alice:pw1:CARD-OWNER|ADMIN; bob:pw2:")
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	assert.Equal(t, []string{"CARD-OWNER", "ADMIN"}, seeds[0].Roles)
	assert.Empty(t, seeds[1].Roles)

	_, err = ParseUserSeeds("broken")
	assert.Error(t, err)
}

func TestAddress(t *testing.T) {
	assert.Equal(t, ":8080", Config{Port: "8080"}.Address())
	assert.Equal(t, ":9090", Config{Port: ":9090"}.Address())
}
