package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/ldgsmhrd/selfstar/internal/config"
	"github.com/ldgsmhrd/selfstar/internal/events/kafka"
	httpHandler "github.com/ldgsmhrd/selfstar/internal/handler/http"
	"github.com/ldgsmhrd/selfstar/internal/handler/http/middleware"
	"github.com/ldgsmhrd/selfstar/internal/infrastructure/database"
	"github.com/ldgsmhrd/selfstar/internal/infrastructure/database/postgres"
	redisInfra "github.com/ldgsmhrd/selfstar/internal/infrastructure/database/redis"
	"github.com/ldgsmhrd/selfstar/internal/infrastructure/graph"
	"github.com/ldgsmhrd/selfstar/internal/infrastructure/security"
	"github.com/ldgsmhrd/selfstar/internal/infrastructure/session"
	"github.com/ldgsmhrd/selfstar/internal/service"
	"github.com/ldgsmhrd/selfstar/internal/utils/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if cfg.Database.AutoMigrate {
		log.Info("Running database migrations")
		migrationURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, cfg.Database.SSLMode)
		m, err := migrate.New("file://migrations", migrationURL)
		if err != nil {
			log.Fatal("Failed to create migration instance", zap.Error(err))
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
		log.Info("Migrations applied successfully")
	}

	dbPool, err := postgres.NewDBPool(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize PostgreSQL connection pool", zap.Error(err))
	}
	defer dbPool.Close()

	tokenRepo := database.NewPgxTokenRepository(dbPool)
	mappingRepo := database.NewPgxMappingRepository(dbPool)
	snapshotRepo := database.NewPgxSnapshotRepository(dbPool)
	seenEventRepo := database.NewPgxSeenEventRepository(dbPool)

	var tokenCache service.TokenCache
	var sessions middleware.SessionChecker = session.DenyAllChecker{}
	if cfg.Redis.Enabled {
		redisClient, err := redisInfra.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to initialize Redis client", zap.Error(err))
		}
		defer redisClient.Close()
		tokenCache = redisInfra.NewTokenCache(redisClient, log, cfg.Redis.TokenTTL)
		sessions = session.NewRedisChecker(redisClient)
	} else {
		log.Warn("Redis disabled: token cache off, all session-bound endpoints will reject")
	}

	var publisher service.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer producer.Close()
		publisher = producer
	}

	graphClient := graph.NewClient(cfg.Meta, log)
	stateCodec, err := security.NewStateCodec(cfg.Meta.StateSecret, cfg.Meta.StateTTL)
	if err != nil {
		log.Fatal("Failed to initialize state codec", zap.Error(err))
	}

	tokenService := service.NewTokenService(tokenRepo, tokenCache, cfg.Meta.StaticUserToken, log)
	oauthService := service.NewOAuthService(graphClient, stateCodec, tokenService, log)
	accountService := service.NewAccountService(mappingRepo, tokenService, graphClient, publisher, log)
	snapshotService := service.NewSnapshotService(mappingRepo, snapshotRepo, tokenService, graphClient, publisher, cfg.Snapshots, log)
	insightsService := service.NewInsightsService(snapshotRepo, accountService, tokenService, graphClient, log)

	var drafter service.ReplyDrafter
	if cfg.Replies.DraftTemplate != "" {
		drafter, err = service.NewTemplateDrafter(cfg.Replies.DraftTemplate)
		if err != nil {
			log.Fatal("Failed to parse reply draft template", zap.Error(err))
		}
	} else {
		log.Info("No reply draft template configured, auto replies require explicit text")
	}
	commentService := service.NewCommentService(seenEventRepo, accountService, tokenService, graphClient, drafter, log)
	publishService := service.NewPublishService(accountService, tokenService, graphClient, log)

	scheduler := service.NewSnapshotScheduler(snapshotService, seenEventRepo, cfg.Snapshots, log)
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		OAuth:    oauthService,
		Accounts: accountService,
		Insights: insightsService,
		Snapshot: snapshotService,
		Comments: commentService,
		Publish:  publishService,
		Sessions: sessions,
		Config:   cfg,
		Logger:   log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Starting HTTP server", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
