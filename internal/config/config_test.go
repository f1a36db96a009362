package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "emi_lock_db", cfg.Database.Database)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenExpiry)
	assert.True(t, cfg.Jobs.Enabled)
}

func TestValidate(t *testing.T) {
	t.Run("rejects bad server port", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects missing database name", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Database.Database = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects pool min above max", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Database.MinConnections = 20
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects metrics port colliding with server port", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Metrics.Port = cfg.Server.Port
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive token expiry", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Auth.TokenExpiry = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("DB_NAME", "emi_test")
	t.Setenv("RESEND_API_KEY", "re_test_key")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:19006")

	cfg := DefaultConfig()
	applyEnvironmentOverrides(cfg)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "emi_test", cfg.Database.Database)
	assert.Equal(t, "re_test_key", cfg.Mail.APIKey)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:19006"}, cfg.CORS.AllowedOrigins)
}
