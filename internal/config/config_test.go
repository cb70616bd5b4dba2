package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Replicate.PollInterval)
	assert.Equal(t, 20, cfg.Replicate.MaxPollAttempts)
	assert.Equal(t, DefaultModelVersion, cfg.Replicate.ModelVersion)
	assert.Equal(t, "temp/resize_upload_", cfg.Staging.KeyPrefix)
	assert.Equal(t, StagingSupabase, cfg.Staging.Backend)
	assert.Equal(t, CreditRedis, cfg.Credit.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, int64(8192*8192), cfg.Storage.MaxOutputPixels)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "secret")
	t.Setenv("PORT", "53768")
	t.Setenv("REPLICATE_POLL_INTERVAL", "500ms")
	t.Setenv("REPLICATE_MAX_POLL_ATTEMPTS", "5")
	t.Setenv("STAGING_BACKEND", "s3")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("MAX_OUTPUT_PIXELS", "1000000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "53768", cfg.Server.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Replicate.PollInterval)
	assert.Equal(t, 5, cfg.Replicate.MaxPollAttempts)
	assert.Equal(t, StagingS3, cfg.Staging.Backend)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, int64(1_000_000), cfg.Storage.MaxOutputPixels)
}

func TestValidate(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "secret")

	t.Run("unknown staging backend", func(t *testing.T) {
		t.Setenv("STAGING_BACKEND", "ftp")
		_, err := Load()
		assert.ErrorContains(t, err, "staging backend")
	})

	t.Run("postgres without url", func(t *testing.T) {
		t.Setenv("CREDIT_BACKEND", "postgres")
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("non-positive pixel cap", func(t *testing.T) {
		t.Setenv("MAX_OUTPUT_PIXELS", "0")
		_, err := Load()
		assert.ErrorContains(t, err, "MAX_OUTPUT_PIXELS")
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("TOKEN_SECRET", "")
		_, err := Load()
		assert.ErrorContains(t, err, "TOKEN_SECRET")
	})
}
