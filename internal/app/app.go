package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/vadimbarashkov/ttl-shortener/internal/adapter/repository/kv"
	"github.com/vadimbarashkov/ttl-shortener/internal/config"
	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
	"github.com/vadimbarashkov/ttl-shortener/internal/usecase"
	"github.com/vadimbarashkov/ttl-shortener/pkg/postgres"
	"golang.org/x/sync/errgroup"

	memstore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	delivery "github.com/vadimbarashkov/ttl-shortener/internal/adapter/delivery/http"
	pgrepo "github.com/vadimbarashkov/ttl-shortener/internal/adapter/repository/postgres"
)

type urlRepository interface {
	Save(ctx context.Context, url *entity.URL) error
	List(ctx context.Context) ([]entity.URL, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	RemoveExpired(ctx context.Context, now time.Time) (int64, error)
	SaveClick(ctx context.Context, shortCode string, click entity.Click) error
	ListClicks(ctx context.Context, shortCode string) ([]entity.Click, error)
	Analytics(ctx context.Context) (map[string][]entity.Click, error)
	Clear(ctx context.Context) error
}

// Storage is the record store selected by the configuration together with
// the connections it owns.
type Storage struct {
	repo  urlRepository
	db    *sqlx.DB
	redis *redis.Client
}

// OpenStorage connects to the configured storage driver. Postgres storage is
// migrated to the latest schema version before use.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	const op = "app.OpenStorage"

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(
			ctx,
			cfg.Postgres.DSN(),
			postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
			postgres.WithConnectRetries(cfg.Postgres.ConnectRetries),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
		}

		if err := postgres.RunMigrations(cfg.Postgres.MigrationsPath, cfg.Postgres.DSN()); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}

		return &Storage{repo: pgrepo.NewURLRepository(db), db: db}, nil

	case config.DriverRedis:
		client, err := kv.NewRedisClient(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}

		backend := kv.NewRedisBackend(client, kv.WithMaxRetries(cfg.Redis.MaxRetries))

		return &Storage{
			repo:  kv.NewURLRepository(backend, kv.WithPrefix(cfg.Storage.KeyPrefix)),
			redis: client,
		}, nil

	default:
		return &Storage{
			repo: kv.NewURLRepository(kv.NewMemoryBackend(), kv.WithPrefix(cfg.Storage.KeyPrefix)),
		}, nil
	}
}

func (s *Storage) Close() error {
	var errs []error

	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}

	return errors.Join(errs...)
}

// NewURLUseCase builds the shortening use case over the storage.
func NewURLUseCase(cfg *config.Config, storage *Storage, logger *httplog.Logger) *usecase.URLUseCase {
	return usecase.New(
		storage.repo,
		usecase.WithLogger(logger.Logger),
		usecase.WithBaseURL(cfg.BaseURL),
		usecase.WithShortCodeLength(cfg.ShortCodeLength),
		usecase.WithDefaultValidity(cfg.DefaultValidityMinutes),
		usecase.WithMaxBatchSize(cfg.MaxBatchSize),
		usecase.WithGeoTimeout(cfg.GeoTimeout),
	)
}

// newCreateLimiter returns nil when the create rate is not configured.
// The limiter shares redis with the record store when the redis driver is used.
func newCreateLimiter(cfg *config.Config, storage *Storage) (*limiter.Limiter, error) {
	if cfg.RateLimit.Create == "" {
		return nil, nil
	}

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit.Create)
	if err != nil {
		return nil, err
	}

	store := memstore.NewStore()

	if storage.redis != nil {
		store, err = redisstore.NewStoreWithOptions(storage.redis, limiter.StoreOptions{
			Prefix: cfg.Storage.KeyPrefix + "limiter",
		})
		if err != nil {
			return nil, err
		}
	}

	return limiter.New(store, rate), nil
}

func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	storage, err := OpenStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer storage.Close()

	createLimiter, err := newCreateLimiter(cfg, storage)
	if err != nil {
		return fmt.Errorf("%s: failed to create rate limiter: %w", op, err)
	}

	urlUseCase := NewURLUseCase(cfg, storage, logger)
	r := delivery.NewRouter(logger, urlUseCase, delivery.WithCreateLimiter(createLimiter))

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "addr", server.Addr, "env", cfg.Env, "storage", cfg.Storage.Driver)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.WriteTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
