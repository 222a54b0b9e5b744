// Package app wires the storefront's stores, engines, and HTTP surface
// together and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/database"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/health"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/tracing"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/migrations"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/assets"
	assetspg "github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/assets/postgres"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/blobstore/memory"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/bus"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/catalog"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/config"
	docredis "github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/docstore/redis"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/domain"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/event"
	handler "github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/handler/http"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/identity"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/imagepipe"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/legal"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/localcache"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/syncengine"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	pool     *pgxpool.Pool
	redis    *redis.Client
	cache    *localcache.Cache
	producer *event.Producer

	wishlist *syncengine.Engine
	cart     *syncengine.Engine
	session  *identity.SessionProvider

	unsubscribeAuth func()
	shutdownTracer  func(context.Context) error
	httpServer      *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Tracing.
	traceCfg := tracing.DefaultConfig("storefront")
	traceCfg.Environment = cfg.Environment
	traceCfg.OTLPEndpoint = cfg.OTLPEndpoint
	traceCfg.SampleRate = cfg.TraceSample
	traceCfg.Enabled = cfg.OTLPEndpoint != ""
	shutdownTracer, err := tracing.InitTracer(ctx, traceCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// PostgreSQL connection pool for site asset records.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Redis-backed remote document store.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))

	// Local persistent cache.
	cache, err := localcache.Open(cfg.CacheDir, logger)
	if err != nil {
		pool.Close()
		redisClient.Close()
		return nil, fmt.Errorf("open local cache: %w", err)
	}

	// Kafka producer.
	producer := event.NewProducer(event.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	eventBus := bus.New(logger)
	docStore := docredis.New(redisClient)
	catalogClient := catalog.NewHTTPClient(cfg.CatalogBaseURL, logger)

	blobBaseURL := cfg.BlobBaseURL
	if blobBaseURL == "" {
		blobBaseURL = fmt.Sprintf("http://localhost:%d/blobs", cfg.HTTPPort)
	}
	blobStore := memory.New(blobBaseURL)

	wishlist := syncengine.New(syncengine.Config{
		Collection: domain.CollectionWishlist,
		Remote:     syncengine.NewDocRemoteList(docStore, "wishlists"),
		Local:      syncengine.NewCacheLocalList(cache, domain.CollectionWishlist),
		Catalog:    catalogClient,
		Bus:        eventBus,
		Events:     producer,
		Analytics:  cache,
		Logger:     logger,
	})
	cart := syncengine.New(syncengine.Config{
		Collection: domain.CollectionCart,
		Remote:     syncengine.NewDocRemoteList(docStore, "carts"),
		Local:      syncengine.NewCacheLocalList(cache, domain.CollectionCart),
		Catalog:    catalogClient,
		Bus:        eventBus,
		Events:     producer,
		Analytics:  cache,
		Logger:     logger,
	})

	pipeline := imagepipe.New(blobStore, logger)
	assetRepo := assetspg.NewAssetRepository(pool)
	assetService := assets.NewService(pipeline, blobStore, assetRepo, eventBus, producer, logger)

	legalService := legal.NewService(cache, cfg.TermsVersion)
	verifier := identity.NewTokenVerifier(cfg.JWTSecret)
	session := identity.NewSessionProvider()

	// Sign-in and sign-out drive both engines through the session observer.
	unsubscribeAuth := session.OnChange(func(id *identity.Identity) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		userID := ""
		if id != nil {
			userID = id.UID
		}
		eventBus.Emit(bus.KindAuthChanged, bus.AuthPayload{UserID: userID, SignedIn: id != nil})

		if err := wishlist.HandleAuthChange(ctx, userID); err != nil {
			logger.Error("wishlist auth transition failed", slog.String("error", err.Error()))
		}
		if err := cart.HandleAuthChange(ctx, userID); err != nil {
			logger.Error("cart auth transition failed", slog.String("error", err.Error()))
		}
	})

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// HTTP router.
	router := handler.NewRouter(handler.RouterDeps{
		Lists:       handler.NewListsHandler(wishlist, cart),
		Uploads:     handler.NewUploadHandler(pipeline, assetService),
		Session:     handler.NewSessionHandler(session, legalService),
		Verifier:    verifier,
		Health:      healthHandler,
		Logger:      logger,
		UploadRPS:   cfg.UploadRPS,
		UploadBurst: cfg.UploadBurst,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		pool:            pool,
		redis:           redisClient,
		cache:           cache,
		producer:        producer,
		wishlist:        wishlist,
		cart:            cart,
		session:         session,
		unsubscribeAuth: unsubscribeAuth,
		shutdownTracer:  shutdownTracer,
		httpServer:      httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.unsubscribeAuth()

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.cache.Close(); err != nil {
		a.logger.Error("local cache close error", slog.String("error", err.Error()))
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}
