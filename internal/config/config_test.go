package config_test

import (
	"testing"

	"academic-assist/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, int64(16<<20), cfg.Server.MaxUploadBytes)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, "academic_assist.db", cfg.Database.SQLitePath)
	assert.Equal(t, "static/uploads", cfg.Uploads.Root)
	assert.Equal(t, []string{"pdf", "png", "jpg", "jpeg", "doc", "docx", "txt"}, cfg.Uploads.AllowedExtensions)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, "none", cfg.Events.Driver)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("DATABASE_URL", "postgres://user:pass@db:5432/academic")
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("MAX_CONTENT_LENGTH", "1048576")
	t.Setenv("PORT", "8081")
	t.Setenv("UPLOADS_DRIVER", "minio")
	t.Setenv("ADMIN_HASH_PASSWORDS", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgresql://user:pass@db:5432/academic", cfg.Database.URL)
	assert.Equal(t, "s3cret", cfg.Session.Secret)
	assert.Equal(t, int64(1048576), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "minio", cfg.Uploads.Driver)
	assert.True(t, cfg.Admin.HashPasswords)
}

func TestNormalizeDatabaseURL(t *testing.T) {
	assert.Equal(t, "postgresql://u@h/db", config.NormalizeDatabaseURL("postgres://u@h/db"))
	assert.Equal(t, "postgresql://u@h/db", config.NormalizeDatabaseURL("postgresql://u@h/db"))
	assert.Equal(t, "", config.NormalizeDatabaseURL(""))
}
