package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"truthordare/config"
	"truthordare/handlers"
	"truthordare/logger"
	"truthordare/metrics"
	"truthordare/middleware"
	"truthordare/migrations"
	"truthordare/repository"
	"truthordare/routes"
	"truthordare/services"
	"truthordare/worker"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

func main() {
	// Load configuration
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logger.Init(cfg.Env, cfg.LogLevel)

	if cfg.IsProduction() && cfg.JWTSecret == defaultJWTSecret {
		log.Fatal().Msg("JWT_SECRET must be set in production")
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.AutoMigrate {
		if err := migrations.Up(cfg.MigrationURL()); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		log.Info().Msg("database migrations applied")
	}

	// Initialize Redis. Without it sessions are read from Postgres only and
	// every replica sweeps on its own.
	redisClient := config.InitRedis(cfg)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		if cfg.SweeperMode == config.SweeperModeAsynq {
			log.Fatal().Err(err).Msg("redis is required for SWEEPER_MODE=asynq")
		}
		log.Warn().Err(err).Str("addr", cfg.RedisAddr()).Msg("redis unavailable, continuing without cache")
		_ = redisClient.Close()
		redisClient = nil
	}
	cancelPing()

	// Repositories
	userRepo := repository.NewGormUserRepository(db)
	sessionRepo := repository.NewGormSessionRepository(db)
	categoryRepo := repository.NewGormCategoryRepository(db)
	questionRepo := repository.NewGormQuestionRepository(db)
	roomRepo := repository.NewGormRoomRepository(db)
	memberRepo := repository.NewGormMemberRepository(db)

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize services
	authService := services.NewAuthService(userRepo, sessionRepo, redisClient, cfg.JWTSecret, cfg.SessionTTL())
	categoryService := services.NewCategoryService(categoryRepo)
	questionService := services.NewQuestionService(questionRepo, categoryRepo)
	roomService := services.NewRoomService(roomRepo, memberRepo, categoryRepo, userRepo, hub, cfg.RoomLifetime())
	memberService := services.NewMemberService(roomRepo, memberRepo, userRepo, hub, cfg.RoomLifetime(), cfg.EnforceRoomLimit)
	sweeper := services.NewSweeper(roomRepo, sessionRepo, hub, cfg.RoomLifetime())

	// Expiry sweeper
	var stopSweeper func()
	switch cfg.SweeperMode {
	case config.SweeperModeAsynq:
		sweepWorker := worker.NewSweepWorker(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, sweeper, cfg.SweepInterval())
		if err := sweepWorker.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start sweep worker")
		}
		stopSweeper = sweepWorker.Shutdown
	default:
		var lock services.SweepLock
		if redisClient != nil {
			lock = services.NewRedisSweepLock(redisClient)
		}
		scheduler := services.NewSweepScheduler(sweeper, lock, cfg.SweepInterval())
		if err := scheduler.Start(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("failed to start sweep scheduler")
		}
		stopSweeper = scheduler.Stop
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 2*time.Minute)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		logger.RequestLogger(),
		metrics.GinMiddleware(),
		middleware.CORS(cfg.CORSOrigin, cfg.Env),
		limiter.Middleware(),
	)

	routes.SetupRoutes(router, routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService, cfg.IsProduction()),
		Category: handlers.NewCategoryHandler(categoryService),
		Question: handlers.NewQuestionHandler(questionService),
		Room:     handlers.NewRoomHandler(roomService),
		Member:   handlers.NewMemberHandler(memberService),
		WS:       handlers.NewWSHandler(memberService, hub, middleware.OriginMatcher(cfg.CORSOrigin, cfg.Env)),
	}, authService)

	// Start server
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	stopSweeper()
	hub.Stop()
	limiter.Stop()
	closeRedis(redisClient)
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}

func closeRedis(client *redis.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close redis")
	}
}
