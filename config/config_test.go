package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("FRONTEND_BASE_URL", "https://photomap.example/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTTL)
	assert.Equal(t, 10*time.Minute, cfg.AWS.UploadURLTTL)
	assert.Equal(t, 60*time.Minute, cfg.AWS.DownloadURLTTL)
	assert.Equal(t, "https://photomap.example", cfg.Frontend.BaseURL)
	assert.Equal(t, 3, cfg.Worker.MaxRetries)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AWS_UPLOAD_URL_TTL", "5m")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.AWS.UploadURLTTL)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "photomap", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/photomap?sslmode=disable", c.DSN())

	c.URL = "postgres://override"
	assert.Equal(t, "postgres://override", c.DSN())
}
