package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "page", cfg.SearchMode)
	assert.Equal(t, 0.75, cfg.SearchThreshold)
	assert.Equal(t, "offset", cfg.PaginationMode)
	assert.Equal(t, 60, cfg.CacheTTLSeconds)
	assert.True(t, cfg.CacheEnabled)
}

func TestLoadMissingSecretFails(t *testing.T) {
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadSearchMode(t *testing.T) {
	setRequired(t)
	t.Setenv("SEARCH_MODE", "elastic")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	setRequired(t)
	t.Setenv("SEARCH_THRESHOLD", "1.5")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadPaginationMode(t *testing.T) {
	setRequired(t)
	t.Setenv("PAGINATION_MODE", "token")

	_, err := Load()
	assert.Error(t, err)
}

func TestPostgresDSNFromEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "5433")

	cfg, err := Load()
	require.NoError(t, err)

	dsn := cfg.PostgresConfig().DSN()
	assert.Contains(t, dsn, "db.internal:5433")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestKafkaBrokerList(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}
