package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string   `env:"PORT" envDefault:"8080"`
	Env             string   `env:"ENV" envDefault:"dev"`
	CORSAllowOrigin []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:9002"`
	LogLevel        string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string   `env:"LOG_FORMAT" envDefault:"json"`

	KVBackend      string `env:"KV_BACKEND" envDefault:"memory"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"readify:"`
	DatabaseURL    string `env:"DATABASE_URL"`

	ObjectStoreType   string `env:"OBJECT_STORE" envDefault:"local"`
	LocalStoreDir     string `env:"LOCAL_STORE_DIR" envDefault:"./data"`
	BlobPublicBaseURL string `env:"BLOB_PUBLIC_BASE_URL" envDefault:"http://localhost:8080/files"`
	BlobNaming        string `env:"BLOB_NAMING" envDefault:"content-hash"`
	AWSRegion         string `env:"AWS_REGION"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3Prefix          string `env:"S3_PREFIX"`
	SSEKMSKeyID       string `env:"SSE_KMS_KEY_ID"`
	MinioEndpoint     string `env:"MINIO_ENDPOINT"`
	MinioAccessKey    string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey    string `env:"MINIO_SECRET_KEY"`
	MinioBucket       string `env:"MINIO_BUCKET"`
	MinioUseSSL       bool   `env:"MINIO_USE_SSL" envDefault:"false"`

	OpenAIAPIKey         string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL        string `env:"OPENAI_BASE_URL"`
	OpenAIModel          string `env:"OPENAI_TTS_MODEL" envDefault:"tts-1"`
	OpenAITimeoutSeconds int    `env:"OPENAI_TIMEOUT_SECONDS" envDefault:"120"`
	PollyEnabled         bool   `env:"POLLY_ENABLED" envDefault:"false"`

	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"20971520"`
	BcryptCost     int   `env:"BCRYPT_COST" envDefault:"10"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// OpenAITimeout is the HTTP client timeout for speech requests.
func (c Config) OpenAITimeout() time.Duration {
	if c.OpenAITimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.OpenAITimeoutSeconds) * time.Second
}

func (c *Config) normalize() {
	c.Env = normalizeEnv(c.Env)
	c.KVBackend = strings.ToLower(strings.TrimSpace(c.KVBackend))
	if c.KVBackend == "" {
		c.KVBackend = "memory"
	}
	c.ObjectStoreType = normalizeStoreType(c.ObjectStoreType)
	c.CORSAllowOrigin = splitAndTrim(c.CORSAllowOrigin)
}

// Validate reports configuration combinations the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.KVBackend {
	case "memory":
		if c.Env == "production" {
			errs = append(errs, errors.New("KV_BACKEND=memory is not allowed in production"))
		}
	case "redis":
		if strings.TrimSpace(c.RedisAddr) == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for KV_BACKEND=redis"))
		}
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for KV_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported KV_BACKEND %q", c.KVBackend))
	}

	switch c.ObjectStoreType {
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for OBJECT_STORE=s3"))
		}
	case "minio":
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for OBJECT_STORE=minio"))
		}
	}

	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

func splitAndTrim(parts []string) []string {
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}
