package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/inkwell")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 6, cfg.CommentMaxDepth)
	assert.Equal(t, int64(10<<20), cfg.MediaMaxBytes)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/inkwell")
	t.Setenv("PORT", "9000")
	t.Setenv("NOTIFY_TIMEOUT", "2s")
	t.Setenv("COMMENT_MAX_DEPTH", "3")
	t.Setenv("PUBLIC_BASE_URL", "https://blog.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 3, cfg.CommentMaxDepth)
	assert.Equal(t, "https://blog.example.com", cfg.PublicBaseURL)
}

func TestLoadRequiresPostgres(t *testing.T) {
	t.Setenv("POSTGRES_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsDevSecretInProduction(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/inkwell")
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
