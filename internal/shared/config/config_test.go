package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("KV_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "memory", cfg.KVBackend)
	assert.Equal(t, "local", cfg.ObjectStoreType)
	assert.Equal(t, "content-hash", cfg.BlobNaming)
	assert.Equal(t, 120*time.Second, cfg.OpenAITimeout())
	assert.EqualValues(t, 20<<20, cfg.MaxUploadBytes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("KV_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("OBJECT_STORE", "MINIO")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_BUCKET", "docs")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.test , ,https://b.test")
	t.Setenv("OPENAI_TIMEOUT_SECONDS", "30")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "redis", cfg.KVBackend)
	assert.Equal(t, "minio", cfg.ObjectStoreType)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowOrigin)
	assert.Equal(t, 30*time.Second, cfg.OpenAITimeout())
}

func TestValidate(t *testing.T) {
	base := Config{Env: "dev", KVBackend: "memory", ObjectStoreType: "local", MaxUploadBytes: 1}
	require.NoError(t, base.Validate())

	prod := base
	prod.Env = "production"
	assert.ErrorContains(t, prod.Validate(), "not allowed in production")

	pg := base
	pg.KVBackend = "postgres"
	assert.ErrorContains(t, pg.Validate(), "DATABASE_URL")

	unknown := base
	unknown.KVBackend = "etcd"
	assert.ErrorContains(t, unknown.Validate(), "etcd")

	s3 := base
	s3.ObjectStoreType = "s3"
	assert.ErrorContains(t, s3.Validate(), "S3_BUCKET")
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	_, err := Load()
	assert.Error(t, err)
}
