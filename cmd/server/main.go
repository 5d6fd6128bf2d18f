package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/lift-log/internal/api"
	"alcyxob/lift-log/internal/config"
	"alcyxob/lift-log/internal/logging"
	"alcyxob/lift-log/internal/metrics"
	"alcyxob/lift-log/internal/repository"
	"alcyxob/lift-log/internal/repository/memory"
	"alcyxob/lift-log/internal/repository/mongo"
	redisstore "alcyxob/lift-log/internal/repository/redis"
	"alcyxob/lift-log/internal/service"
	"alcyxob/lift-log/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// @title Lift Log API
// @version 1.0
// @description API for keeping a personal exercise catalog and per-exercise set history.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	// --- Configuration ---
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("could not load config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	log.Infof("starting lift log server, store backend: [%s]", cfg.Store.Backend)

	defaults, err := cfg.Catalog.Definitions()
	if err != nil {
		log.Fatalf("invalid catalog defaults: %s", err)
	}

	ctx := context.Background()

	// --- Persistence ---
	store, closeStore, err := setupStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to set up %s store: %s", cfg.Store.Backend, err)
	}
	defer closeStore()

	// --- Export Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("failed to initialize S3 storage: %s", err)
		}
	} else {
		log.Warnln("s3.bucket_name not set, history export disabled")
	}

	// --- Metrics ---
	promRegistry := metrics.NewRegistry()
	metricsManager := metrics.NewManager("liftlog", "server", promRegistry)

	// --- Initialize Services ---
	authService := service.NewAuthService(
		repository.NewUserRepository(store),
		repository.NewTokenRepository(store),
		cfg.JWT.Secret,
		cfg.JWT.Expiration,
		metricsManager,
	)
	userLocks := service.NewUserLocks()
	workoutService := service.NewWorkoutService(store, userLocks, metricsManager)
	catalogService := service.NewCatalogService(store, defaults, userLocks, workoutService, metricsManager)
	exportService := service.NewExportService(store, fileStorage, metricsManager)

	authService.OnIdentityChange(func(e service.IdentityEvent) {
		if e.SignedIn() {
			log.Infof("user [%s] signed in", e.UserID)
			return
		}
		workoutService.Deselect(e.UserID)
		log.Infof("user [%s] signed out", e.UserID)
	})

	// --- Initialize Gin Engine ---
	if cfg.Log.Level != "debug" && cfg.Log.Level != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.LogRequest(), api.RequestMetrics(metricsManager))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	api.SetupRoutes(router, authService, catalogService, workoutService, exportService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen and serve: %s", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSig := <-quit
	log.Infof("signal [%s] received, shutting down", receivedSig)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Errorf("server forced to shutdown: %s", err)
	}
	log.Infoln("server exiting")
}

// setupStore connects the configured backend. The returned func releases it.
func setupStore(ctx context.Context, cfg config.Config) (repository.DocumentStore, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		log.Warnln("using in-memory store, data is lost on restart")
		return memory.NewStore(cfg.Store.MemorySizeMB * 1024 * 1024), func() {}, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		log.Infof("redis connection established: [%s]", cfg.Redis.Address)
		return redisstore.NewStore(rdb), func() {
			if err := rdb.Close(); err != nil {
				log.Errorf("failed to close redis client: %s", err)
			}
		}, nil

	case config.BackendMongo:
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			return nil, nil, err
		}
		appDB := dbClient.Database(cfg.Database.Name)

		indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		err = mongo.EnsureIndexes(indexCtx, appDB,
			repository.CollectionExercises,
			repository.CollectionUsers,
			repository.CollectionRevokedTokens,
		)
		if err != nil {
			_ = mongo.DisconnectDB(dbClient)
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		log.Infof("mongo connection established, database: [%s]", cfg.Database.Name)
		return mongo.NewMongoDocumentStore(appDB), func() {
			log.Infoln("disconnecting MongoDB...")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				log.Errorf("failed to disconnect MongoDB: %s", err)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
