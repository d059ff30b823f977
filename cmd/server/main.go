package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"olimpiad/internal/api"
	"olimpiad/internal/config"
	"olimpiad/internal/metrics"
	"olimpiad/internal/model"
	"olimpiad/internal/repository"
	"olimpiad/internal/service"
	"olimpiad/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(cfg.Server.Environment)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("application startup failed", zap.Error(err))
		os.Exit(1)
	}
}

type stores struct {
	olimpiads repository.OlimpiadStore
	features  repository.FeatureStore
	audits    repository.AuditInterface
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Server.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	rdb, err := initRedis(cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	st, err := initStores(cfg)
	if err != nil {
		return err
	}

	observer := metrics.NewPrometheusObserver()
	hub := service.NewHub(observer, cfg.Stream.HeartbeatInterval, cfg.Stream.HubBufferSize)
	engine := service.NewPropagator(st.olimpiads, observer)
	registry := service.NewFeatureService(st.features, st.audits, engine, hub, cfg.Stream.ReplayBufferSize)
	olimpiads := service.NewOlimpiadService(st.olimpiads, st.features, engine)
	authSvc := service.NewAuthService(rdb, service.AuthOptions{
		SigningKey:      []byte(cfg.Auth.SigningKey),
		AdminUsername:   cfg.Auth.AdminUsername,
		AdminPassword:   cfg.Auth.AdminPassword,
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	})

	uploads, err := api.NewUploadHandler(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	if err != nil {
		return err
	}

	go func() {
		logger.Info("starting hub")
		hub.Run(ctx)
	}()

	r := api.RegisterRoutes(api.Handlers{
		Feature:  api.NewFeatureHandler(registry),
		Olimpiad: api.NewOlimpiadHandler(olimpiads),
		Stream:   api.NewStreamHandler(registry, hub),
		Auth:     api.NewAuthHandler(authSvc),
		Upload:   uploads,
	}, api.RouterOptions{
		TokenParser:       authSvc,
		AuthEnabled:       cfg.Auth.Enabled,
		Redis:             rdb,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("env", cfg.Server.Environment),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("auth", cfg.Auth.Enabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server listen failed: %w", err)
	}
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stopping the hub first closes the open SSE streams so Shutdown does not
	// wait on them.
	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited properly")
	return nil
}

// -- Infrastructure Initializers --

func initStores(cfg *config.Config) (*stores, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		return &stores{
			olimpiads: repository.NewMemoryOlimpiadStore(),
			features:  repository.NewMemoryFeatureStore(),
			audits:    repository.NewMemoryAuditStore(),
		}, nil
	}

	db, err := initDB(cfg.MySQL)
	if err != nil {
		return nil, err
	}
	return &stores{
		olimpiads: repository.NewOlimpiadRepository(db),
		features:  repository.NewFeatureRepository(db),
		audits:    repository.NewAuditRepository(db),
	}, nil
}

// initRedis returns nil when no address is configured; rate limiting then
// stays process-local and token refresh is unavailable.
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

func initDB(cfg config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	err = db.AutoMigrate(
		&model.Olimpiad{},
		&model.DynamicFeature{},
		&model.SchemaAudit{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
