// Package main is the entrypoint for the Carhunt API server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/carhunt/carhunt/internal/auth"
	"github.com/carhunt/carhunt/internal/cache"
	"github.com/carhunt/carhunt/internal/config"
	"github.com/carhunt/carhunt/internal/handler"
	"github.com/carhunt/carhunt/internal/metrics"
	"github.com/carhunt/carhunt/internal/middleware"
	"github.com/carhunt/carhunt/internal/repository"
	"github.com/carhunt/carhunt/internal/server"
	"github.com/carhunt/carhunt/internal/storage"
)

func main() {
	ctx := context.Background()

	// Load a local .env when present; real deployments set the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	files, err := storage.NewFileStore(cfg.UploadDir, logger)
	if err != nil {
		repo.Close()
		cacheClient.Close()
		logger.Error("failed to prepare upload directory",
			slog.String("dir", cfg.UploadDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	// With metrics disabled events are swallowed and /metrics reports 503.
	var recorder metrics.Recorder = metrics.NewNoop()
	var snapshotter metrics.Snapshotter
	if cfg.MetricsEnabled {
		inMemory := metrics.NewInMemory()
		recorder = inMemory
		snapshotter = inMemory
	}

	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(snapshotter)
	userHandler := handler.NewUserHandler(repo, tokens, recorder, logger)
	authHandler := handler.NewAuthHandler(repo, tokens, recorder, logger)
	huntHandler := handler.NewHuntHandler(repo, files, recorder, logger, cfg.MaxUploadSize)

	r := setupRouter(h, healthHandler, metricsHandler, userHandler, authHandler, huntHandler, tokens, cacheClient, cfg, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"upload_dir", cfg.UploadDir,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	metricsHandler *handler.MetricsHandler,
	userHandler *handler.UserHandler,
	authHandler *handler.AuthHandler,
	huntHandler *handler.HuntHandler,
	tokens *auth.TokenService,
	cacheClient *cache.Cache,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	corsCfg := middleware.DefaultCORSConfig()
	if origins := cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg.AllowedOrigins = origins
	}
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	// Root info endpoint
	r.Get("/", h.Hello)

	authCfg := middleware.AuthConfig{
		Logger: logger,
		Tokens: tokens,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  logger,
		Cache:   cacheClient,
		Enabled: cfg.RateLimitAuthEnabled,
		RPS:     cfg.RateLimitAuthRPS,
		Burst:   cfg.RateLimitAuthBurst,
	}

	// JSON endpoints get a hard body ceiling; the multipart hunt routes are
	// bounded separately by MaxUploadSize at parse time.
	jsonBody := middleware.MaxBodySize(cfg.MaxRequestBodySize)

	// Uploaded images are served straight from disk.
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
	r.Get("/uploads/*", fileServer.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Get("/{id}", userHandler.Get)
			r.With(jsonBody, middleware.RateLimitIP(rateLimitCfg)).Post("/", userHandler.Register)
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.Auth(authCfg)).Get("/", authHandler.Me)
			r.With(jsonBody, middleware.RateLimitIP(rateLimitCfg)).Post("/", authHandler.Login)
		})

		r.Route("/hunts", func(r chi.Router) {
			r.Get("/", huntHandler.List)
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(authCfg))
				r.Get("/user", huntHandler.ListOwn)
				r.Post("/", huntHandler.Create)
				r.Put("/{id}", huntHandler.Update)
				r.Delete("/{id}", huntHandler.Delete)
			})
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
