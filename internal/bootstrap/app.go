package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"readify-backend/internal/blobs"
	"readify-backend/internal/documents"
	"readify-backend/internal/services/health"
	"readify-backend/internal/shared/config"
	"readify-backend/internal/shared/server"
	"readify-backend/internal/shared/storage/db"
	"readify-backend/internal/shared/storage/kv"
	"readify-backend/internal/shared/storage/object"
	localstore "readify-backend/internal/shared/storage/object/local"
	miniostore "readify-backend/internal/shared/storage/object/minio"
	s3store "readify-backend/internal/shared/storage/object/s3"
	"readify-backend/internal/speech"
	"readify-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config     config.Config
	Log        *zap.Logger
	Router     *gin.Engine
	KV         kv.Backend
	Store      object.ObjectStore
	Blobs      *blobs.Coordinator
	Speech     *speech.Dispatcher
	Documents  *documents.Service
	Ingestor   *documents.Ingestor
	Narrator   *documents.Narrator
	Reconciler *documents.Reconciler
	Users      *users.Service

	closers []func() error
}

// Option adjusts how Build assembles the App.
type Option func(*App)

// WithKV makes Build use backend instead of the one named by KV_BACKEND.
func WithKV(backend kv.Backend) Option {
	return func(a *App) { a.KV = backend }
}

// Build prepares every dependency and the router.
func Build(ctx context.Context, cfg config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	app := &App{Config: cfg, Log: log}
	for _, opt := range opts {
		opt(app)
	}

	if app.KV == nil {
		backend, err := app.buildKV(ctx)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.KV = backend
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	naming, err := blobs.ParseNamingPolicy(cfg.BlobNaming)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Blobs = blobs.NewCoordinator(store, cfg.BlobPublicBaseURL, naming, log.Named("blobs"))

	dispatcher, err := buildSpeech(ctx, cfg, log)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Speech = dispatcher

	app.buildServices()
	app.Router = server.NewRouter(cfg, log, server.Handlers{
		Documents: documents.NewHandler(app.Documents, app.Ingestor, app.Narrator, cfg.MaxUploadBytes),
		Users:     users.NewHandler(app.Users),
		Speech:    speech.NewHandler(app.Speech),
		Blobs:     blobs.NewHandler(app.Blobs),
		Health:    app.healthChecks(),
	})

	log.Info("bootstrap complete",
		zap.String("env", cfg.Env),
		zap.String("kv_backend", cfg.KVBackend),
		zap.String("object_store", cfg.ObjectStoreType),
		zap.String("blob_naming", string(naming)),
	)
	return app, nil
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) buildKV(ctx context.Context) (kv.Backend, error) {
	cfg := a.Config
	switch cfg.KVBackend {
	case "", "memory":
		a.Log.Warn("using in-memory KV backend; data is lost on restart")
		return kv.NewMemory(), nil
	case "redis":
		client, err := kv.NewRedisClient(ctx, kv.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return kv.NewRedis(client, cfg.RedisKeyPrefix), nil
	case "postgres":
		conn, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, conn.Close)
		if err := db.RunMigrations(ctx, conn); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return kv.NewPostgres(conn), nil
	default:
		return nil, fmt.Errorf("unsupported KV backend %q", cfg.KVBackend)
	}
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		store, err := miniostore.New(miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildSpeech(ctx context.Context, cfg config.Config, log *zap.Logger) (*speech.Dispatcher, error) {
	var providers []speech.Provider
	if cfg.OpenAIAPIKey != "" {
		p, err := speech.NewOpenAIProvider(speech.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.OpenAITimeout(),
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if cfg.PollyEnabled {
		p, err := speech.NewPollyProvider(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		log.Warn("no speech provider configured; narration requests will fail")
	}
	return speech.NewDispatcher(log.Named("speech"), providers...), nil
}

func (a *App) buildServices() {
	locker := kv.NewLocker()
	docs := kv.NewCollection[documents.Document](a.KV, documents.CollectionKey, locker)
	accounts := kv.NewCollection[users.User](a.KV, users.CollectionKey, locker)

	docLog := a.Log.Named("documents")
	a.Documents = documents.NewService(docs, a.Blobs, docLog)
	a.Ingestor = &documents.Ingestor{Docs: a.Documents, Blobs: a.Blobs, Log: docLog}
	a.Narrator = &documents.Narrator{Docs: a.Documents, Speech: a.Speech}
	a.Reconciler = &documents.Reconciler{Docs: a.Documents, Blobs: a.Blobs, Log: docLog}
	a.Users = users.NewService(accounts, validator.New(), a.Log.Named("users"), a.Config.BcryptCost)
}

const healthPingKey = "__health"

func (a *App) healthChecks() *health.Service {
	return health.NewService(
		health.Check{Name: "kv", Ping: func(ctx context.Context) error {
			_, err := a.KV.Get(ctx, healthPingKey)
			if errors.Is(err, kv.ErrKeyNotFound) {
				return nil
			}
			return err
		}},
		health.Check{Name: "object-store", Ping: func(ctx context.Context) error {
			_, err := a.Store.Exists(ctx, healthPingKey)
			return err
		}},
	)
}
