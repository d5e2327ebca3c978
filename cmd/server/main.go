// Command server runs the LearnHub backend HTTP API.
//
// Startup order: env/config → logging → database → tracing → providers →
// services → background jobs → HTTP server. Shutdown is graceful: the HTTP
// server drains in-flight requests, the cron scheduler waits for a running
// job, and the tracer provider flushes before exit.
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
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-learnhub-backend/docs"
	"github.com/tbourn/go-learnhub-backend/internal/cache"
	"github.com/tbourn/go-learnhub-backend/internal/config"
	httpapi "github.com/tbourn/go-learnhub-backend/internal/http"
	"github.com/tbourn/go-learnhub-backend/internal/jobs"
	"github.com/tbourn/go-learnhub-backend/internal/normalize"
	"github.com/tbourn/go-learnhub-backend/internal/observability"
	"github.com/tbourn/go-learnhub-backend/internal/providers"
	"github.com/tbourn/go-learnhub-backend/internal/providers/gemini"
	"github.com/tbourn/go-learnhub-backend/internal/providers/youtube"
	"github.com/tbourn/go-learnhub-backend/internal/rank"
	"github.com/tbourn/go-learnhub-backend/internal/repo"
	"github.com/tbourn/go-learnhub-backend/internal/services"
	"github.com/tbourn/go-learnhub-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Fatal().Err(err).Msg("enable database tracing")
		}
	}

	// Providers
	yt, err := youtube.New(ctx, cfg.Providers.YouTubeAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("youtube client")
	}
	gm, err := gemini.New(ctx, cfg.Providers.GeminiAPIKey, cfg.Providers.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("gemini client")
	}
	defer gm.Close()

	// Optional Redis cache
	var redisClient *redis.Client
	if cfg.Cache.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Cache.Addr).Msg("redis unreachable")
		}
		defer redisClient.Close()
	}
	contentCache := cache.New(redisClient, cfg.Cache.TTL)

	// Services
	orch := services.NewOrchestrator(db, yt, yt, gm, gm)
	orch.Weights = rank.Weights{
		Views:        cfg.Rank.Views,
		LikeRatio:    cfg.Rank.LikeRatio,
		CommentRatio: cfg.Rank.CommentRatio,
		Recency:      cfg.Rank.Recency,
	}
	orch.SearchLimit = cfg.Providers.SearchLimit
	orch.TopK = cfg.Providers.TopK
	orch.QuizPerVideo = cfg.Providers.QuizPerVideo
	orch.Retry = providers.RetryConfig{
		MaxTries:        cfg.Providers.RetryMaxTries,
		InitialInterval: cfg.Providers.RetryInterval,
		MaxElapsed:      cfg.Providers.RetryMaxElapsed,
	}

	learnSvc := services.NewLearnService(db, contentCache, orch, cfg.LockTTL)
	fbSvc := services.NewFeedbackService(db)

	// Background pre-population
	prepop := jobs.NewPrepopulator(learnSvc, cfg.Jobs.Topics, cfg.Jobs.Schedule)
	if err := prepop.Start(); err != nil {
		log.Fatal().Err(err).Msg("start pre-population")
	}

	// HTTP
	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	contentStats := func(ctx context.Context, key normalize.TopicKey) (int64, *time.Time, error) {
		return repo.ContentStats(ctx, db, key)
	}
	httpapi.RegisterRoutes(engine, learnSvc, fbSvc, contentStats, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	prepop.Stop()
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown")
	}
	log.Info().Msg("bye")
}
