package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg := LoadEnv()

	assert.Equal(t, ":8080", cfg.Server.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 5, cfg.Login.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Login.Window)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Nil(t, cfg.Server.TrustedProxies)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", ":9090")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("LOGIN_WINDOW", "1m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SITE_URL", "https://example.com/")
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")

	cfg := LoadEnv()

	assert.Equal(t, ":9090", cfg.Server.HTTPPort)
	assert.Equal(t, 3, cfg.Login.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Login.Window)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "https://example.com", cfg.Site.BaseURL)
	assert.Equal(t, 10, cfg.Postgres.MaxOpenConns)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Server.TrustedProxies)
}

func TestValidate(t *testing.T) {
	t.Run("production rejects default secret", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")
		cfg := LoadEnv()
		require.Error(t, cfg.Validate())
	})

	t.Run("production rejects short secret", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "short")
		require.Error(t, LoadEnv().Validate())
	})

	t.Run("production accepts long secret", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
		require.NoError(t, LoadEnv().Validate())
	})
}
