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

	"github.com/Ilay1214/Quiz-AI/internal/ai"
	"github.com/Ilay1214/Quiz-AI/internal/config"
	"github.com/Ilay1214/Quiz-AI/internal/extractor"
	"github.com/Ilay1214/Quiz-AI/internal/generator"
	"github.com/Ilay1214/Quiz-AI/internal/handler"
	"github.com/Ilay1214/Quiz-AI/internal/jobs"
	"github.com/Ilay1214/Quiz-AI/internal/messaging"
	"github.com/Ilay1214/Quiz-AI/internal/repository"
	"github.com/Ilay1214/Quiz-AI/internal/service"
	"github.com/Ilay1214/Quiz-AI/pkg/logger"
	"github.com/Ilay1214/Quiz-AI/pkg/taskqueue"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

const (
	dbConnectAttempts   = 10
	dbConnectRetryWait  = 3 * time.Second
	httpShutdownTimeout = 10 * time.Second
	poolDrainTimeout    = 30 * time.Second
	janitorInterval     = time.Minute
)

func main() {
	// Local development convenience; in containers the environment is set
	// by the orchestrator.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting quiz generation service",
		zap.String("port", cfg.Port),
		zap.String("aiClient", cfg.AIClientType),
		zap.String("aiModel", cfg.AIModel),
		zap.String("jobStore", cfg.JobStore))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := connectDatabase(rootCtx, cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	repo := repository.NewPostgresQuizRepository(dbPool, log)
	if err := repo.EnsureSchema(rootCtx); err != nil {
		log.Fatal("failed to prepare database schema", zap.Error(err))
	}

	store, redisClient, err := buildJobStore(rootCtx, cfg, log)
	if err != nil {
		log.Fatal("failed to set up job store", zap.Error(err))
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	tracker := jobs.NewTracker(store, cfg.JobRetention, log)
	tracker.StartJanitor(janitorCtx, janitorInterval)

	aiClient, err := ai.NewClient(cfg, log)
	if err != nil {
		log.Fatal("failed to create AI client", zap.Error(err))
	}

	gen := generator.New(aiClient, generator.Options{
		MaxAttempts:     cfg.GenMaxAttempts,
		BaseRetryWait:   cfg.GenBaseRetryWait,
		MaxSourceTokens: cfg.MaxSourceTokens,
	}, log)
	ext := extractor.New(cfg.MinTextLength, log)

	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()
	pool := taskqueue.New(cfg.WorkerCount, cfg.QueueSize, zlog)

	var notifier messaging.Notifier
	var amqpConn *amqp091.Connection
	if cfg.RabbitMQURL != "" {
		amqpConn, err = amqp091.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer func() { _ = amqpConn.Close() }()
		notifier, err = messaging.NewRabbitMQNotifier(amqpConn, cfg.NotificationQueue, log)
		if err != nil {
			log.Fatal("failed to create job event notifier", zap.Error(err))
		}
		defer func() { _ = notifier.Close() }()
	} else {
		log.Info("job event notifier disabled, RABBITMQ_URL is empty")
	}

	pipeline := service.NewPipeline(ext, gen, tracker, repo, notifier, pool, cfg.JobTimeout, log)

	engine := buildRouter(cfg, pipeline, log)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server stopped unexpectedly", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown signal received")

	// Stop taking requests first, then drain the queued jobs so in-flight
	// generations still reach a terminal state.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown failed", zap.Error(err))
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), poolDrainTimeout)
	defer cancelDrain()
	if err := pipeline.Shutdown(drainCtx); err != nil {
		log.Warn("worker pool drain incomplete", zap.Error(err))
	}

	stopJanitor()
	log.Info("shutdown complete")
}

// connectDatabase opens a pgx pool, retrying while the database starts up.
func connectDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	poolCfg.MaxConnIdleTime = cfg.DBIdleTimeout

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= dbConnectAttempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				log.Info("connected to database", zap.String("dsn", cfg.MaskedDSN()))
				return pool, nil
			}
			pool.Close()
		}
		log.Warn("database not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", dbConnectAttempts),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dbConnectRetryWait):
		}
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", dbConnectAttempts, err)
}

// buildJobStore returns the configured job store and, when Redis backs it,
// the client so main can close it on shutdown.
func buildJobStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (jobs.Store, *redis.Client, error) {
	if cfg.JobStore != "redis" {
		return jobs.NewMemoryStore(), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis unreachable at %s: %w", cfg.RedisAddr, err)
	}
	log.Info("using redis job store", zap.String("addr", cfg.RedisAddr))

	ttl := cfg.JobRetention + cfg.JobTimeout
	return jobs.NewRedisStore(client, ttl), client, nil
}

func buildRouter(cfg *config.Config, pipeline *service.Pipeline, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.MaxMultipartMemory = cfg.MaxUploadBytes

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	origins := cfg.AllowedOrigins()
	if len(origins) == 1 && origins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	engine.Use(cors.New(corsCfg))

	prom := ginprometheus.NewPrometheus("gin")
	prom.Use(engine)

	handler.NewHandler(pipeline, cfg.MaxUploadBytes, log).RegisterRoutes(engine)
	return engine
}
