package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/huddle-chat/huddle/internal/ai"
	"github.com/huddle-chat/huddle/internal/audit"
	"github.com/huddle-chat/huddle/internal/channels"
	"github.com/huddle-chat/huddle/internal/common/config"
	"github.com/huddle-chat/huddle/internal/common/logging"
	"github.com/huddle-chat/huddle/internal/events"
	"github.com/huddle-chat/huddle/internal/identity"
	"github.com/huddle-chat/huddle/internal/infra"
	"github.com/huddle-chat/huddle/internal/infra/cache"
	"github.com/huddle-chat/huddle/internal/infra/db"
	"github.com/huddle-chat/huddle/internal/infra/migrations"
	"github.com/huddle-chat/huddle/internal/messages"
	"github.com/huddle-chat/huddle/internal/middleware"
	"github.com/huddle-chat/huddle/internal/observability"
	"github.com/huddle-chat/huddle/internal/ratelimit"
	"github.com/huddle-chat/huddle/internal/version"
	"github.com/huddle-chat/huddle/internal/workspaces"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.Init(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("starting huddle-api",
		zap.String("version", version.String()),
		zap.Int("port", cfg.Server.Port),
	)

	metrics := observability.NewMetrics()

	database, err := db.New(cfg.Database, metrics)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	logger.Info("connected to database")

	ctx := context.Background()

	if err := migrations.Run(ctx, database.Pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations applied successfully")

	poolMonitor := db.NewPoolMonitor(database.Pool, logger, 1*time.Minute)
	poolMonitor.Start(ctx)
	defer poolMonitor.Stop()

	var cacheClient *cache.Cache
	if cfg.Redis.Enabled {
		cacheClient, err = cache.New(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
		if err != nil {
			logger.Warn("failed to connect to Redis, continuing without cache", zap.Error(err))
		} else {
			defer func() {
				if err := cacheClient.Close(); err != nil {
					logger.Error("failed to close cache", zap.Error(err))
				}
			}()
			logger.Info("connected to Redis")
		}
	}

	healthChecker := observability.NewHealthChecker(logger, version.String())
	healthChecker.RegisterCheck("database", database.Health)
	if cacheClient != nil {
		healthChecker.RegisterCheck("redis", cacheClient.Ping)
	}

	rateLimiter := ratelimit.NewLimiter(
		cacheClient,
		cfg.RateLimit.RequestsPerMinute,
		cfg.RateLimit.Burst,
		cfg.RateLimit.Enabled,
	)
	defer rateLimiter.Close()
	if cfg.RateLimit.Enabled {
		logger.Info("rate limiting enabled")
	}

	tokenManager := identity.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	oauthManager := identity.NewOAuthManager(cfg.Auth.Provider)
	identityHandler := identity.NewHandler(oauthManager, tokenManager)

	snowflakeGen := infra.NewSnowflakeGenerator(1)
	auditLogger := audit.NewLogger(database.Pool, logger)
	eventsHub := events.NewHub(logger)
	defer eventsHub.Shutdown()

	cacheMetrics := cache.NewMetrics()
	cacheMetrics.SetReporter(func(hit bool) {
		metrics.RecordCacheHit("membership", hit)
	})
	var aside *cache.AsidePattern
	if cacheClient != nil {
		aside = cache.NewAsidePattern(cacheClient, cacheMetrics)
	}
	workspacesRepo := workspaces.NewRepository(database.Pool)
	workspacesService := workspaces.NewService(workspacesRepo, aside)

	if cacheClient != nil {
		warmer := cache.NewWarmer(cacheClient, logger)
		if keys, err := workspacesRepo.ListRecentMemberKeys(ctx, 1000); err != nil {
			logger.Warn("failed to list members for cache warmup", zap.Error(err))
		} else if err := warmer.WarmMemberships(ctx, keys, func(string) (interface{}, error) {
			return true, nil
		}); err != nil {
			logger.Warn("cache warmup failed", zap.Error(err))
		}
	}

	channelsRepo := channels.NewRepository(database.Pool)
	channelsService := channels.NewService(channelsRepo, workspacesService)
	channelsHandler := channels.NewHandler(channelsService)

	messagesRepo := messages.NewRepository(database.Pool, snowflakeGen)
	messagesService := messages.NewService(messagesRepo, channelsService, eventsHub, auditLogger)
	messagesHandler := messages.NewHandler(messagesService)

	eventsHandler := events.NewHandler(eventsHub, channelsService, metrics)

	aiService := ai.NewService(cfg.AI, messagesService)
	aiHandler := ai.NewHandler(aiService, metrics)

	router := mux.NewRouter()
	router.Use(
		middleware.Recovery(logger),
		middleware.RequestLogging(logger),
		middleware.Metrics(metrics),
	)

	router.HandleFunc("/healthz", healthChecker.HandleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", healthChecker.HandleReadiness).Methods(http.MethodGet)
	router.HandleFunc("/livez", healthChecker.HandleLiveness).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/auth/login", identityHandler.Login).Methods(http.MethodGet)
	router.HandleFunc("/auth/callback", identityHandler.Callback).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(
		middleware.Auth(tokenManager, workspacesService),
		middleware.RateLimit(rateLimiter),
	)

	api.HandleFunc("/channels", channelsHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/channels", channelsHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/channels/{channelId}/events", eventsHandler.Stream).Methods(http.MethodGet)

	api.HandleFunc("/messages", messagesHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/messages", messagesHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/messages/{messageId}", messagesHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/messages/{messageId}/thread", messagesHandler.Thread).Methods(http.MethodGet)
	api.HandleFunc("/messages/{messageId}/reactions", messagesHandler.ToggleReaction).Methods(http.MethodPost)

	api.HandleFunc("/ai/thread/summary", aiHandler.ThreadSummary).Methods(http.MethodGet)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// No write timeout: event streams and AI summaries stay open
		// past any fixed deadline.
		WriteTimeout: 0,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("serve http: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	logger.Info("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	hits, misses, hitRate := cacheMetrics.GetStats()
	logger.Info("shutdown complete",
		zap.Uint64("cache_hits", hits),
		zap.Uint64("cache_misses", misses),
		zap.Float64("cache_hit_rate", hitRate),
	)

	return nil
}
