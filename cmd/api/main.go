// Package main is the entrypoint for the NightAPI gateway.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/nightapi/nightapi/internal/auth"
	"github.com/nightapi/nightapi/internal/cache"
	"github.com/nightapi/nightapi/internal/catalog"
	"github.com/nightapi/nightapi/internal/config"
	"github.com/nightapi/nightapi/internal/gateway"
	"github.com/nightapi/nightapi/internal/handler"
	"github.com/nightapi/nightapi/internal/media"
	"github.com/nightapi/nightapi/internal/metrics"
	"github.com/nightapi/nightapi/internal/provider"
	"github.com/nightapi/nightapi/internal/repository"
	"github.com/nightapi/nightapi/internal/server"
	"github.com/nightapi/nightapi/internal/store/memory"
	"github.com/nightapi/nightapi/internal/telemetry"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var (
		recorder       metrics.Recorder = metrics.NewNoop()
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		prom := metrics.NewPrometheus()
		recorder, metricsHandler = prom, prom.Handler()
	}

	tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	mem := memory.New()
	stores := gateway.Stores{
		Identity: mem,
		Links:    mem,
		Ledger:   mem,
		Content:  mem,
	}

	var shutdowns []namedShutdown

	if cfg.DatabaseURL != "" {
		if cfg.DatabaseMigrate {
			if err := repository.Migrate(cfg.DatabaseURL); err != nil {
				logger.Error("failed to migrate database", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
				return err
			}
		}
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", config.RedactURL(cfg.DatabaseURL)),
			)
			return err
		}
		shutdowns = append(shutdowns, namedShutdown{"database", func(context.Context) error {
			repo.Close()
			return nil
		}})
		stores.Identity, stores.Links, stores.Ledger, stores.DB = repo, repo, repo, repo
		logger.Info("connected to database")
	}

	if cfg.RedisURL != "" {
		cacheClient, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", config.RedactURL(cfg.RedisURL)),
			)
			return err
		}
		shutdowns = append(shutdowns, namedShutdown{"redis", func(context.Context) error {
			return cacheClient.Close()
		}})
		stores.Identity = cacheClient.WrapIdentity(stores.Identity, logger)
		stores.Ledger = cacheClient
		stores.Cache = cacheClient
		stores.RedirectCache = cacheClient
		logger.Info("connected to Redis")
	}

	if cfg.TracingEnabled {
		tracer, err := initTracing(logger)
		if err != nil {
			return err
		}
		shutdowns = append(shutdowns, tracer)
	}

	opts := []provider.Option{
		provider.WithTimeout(cfg.OutboundTimeout),
		provider.WithMetrics(recorder),
		provider.WithLogger(logger),
	}
	tenor := provider.NewTenor(cfg.TenorAPIKey, opts...)

	router := gateway.NewRouter(gateway.Deps{
		Settings: gateway.Settings{
			BaseURL:            cfg.BaseURL,
			IsDevelopment:      cfg.IsDevelopment(),
			RateLimitEnabled:   cfg.RateLimitEnabled,
			DefaultDailyLimit:  cfg.DefaultDailyLimit,
			RedirectRPS:        cfg.RedirectRPS,
			CORSAllowedOrigins: cfg.GetCORSAllowedOrigins(),
			MaxRequestBodySize: cfg.MaxRequestBodySize,
			TempDir:            cfg.MediaDir(),
			TracingEnabled:     cfg.TracingEnabled,
		},
		Stores: stores,
		Collaborators: gateway.Collaborators{
			Completer:  provider.NewGemini(cfg.GeminiAPIKey, opts...),
			ChatBot:    provider.NewSimi(cfg.SimiAPIKey, cfg.SimiUsername, opts...),
			GIFs:       tenor,
			Search:     provider.NewWebSearch(cfg.SerpAPIKey, recorder, logger, opts...),
			Stickers:   provider.NewStickerGenerator(recorder, logger, opts...),
			Downloader: media.NewDownloader(cfg.YTDLPPath, cfg.MediaDir(), cfg.MediaTimeout, logger),
			Speaker:    provider.NewTTS(opts...),
			Images:     provider.NewTextToImage(opts...),
			Tracks:     provider.NewSoundCloud(cfg.MediaTimeout, opts...),
			Demo:       catalog.New(),
			Tokens:     tokens,
		},
		Metrics:        recorder,
		MetricsHandler: metricsHandler,
		Logger:         logger,
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	for _, s := range shutdowns {
		srv.OnShutdown(s.name, s.fn)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"database", cfg.DatabaseURL != "",
		"redis", cfg.RedisURL != "",
		"rate_limit", cfg.RateLimitEnabled,
	)

	return srv.Run(ctx)
}

type namedShutdown struct {
	name string
	fn   server.ShutdownFunc
}

// initTracing installs the stdout span exporter and returns its shutdown hook.
func initTracing(logger *slog.Logger) (namedShutdown, error) {
	shutdown, err := telemetry.InitTracer("nightapi", handler.Version, os.Stdout, logger)
	if err != nil {
		return namedShutdown{}, err
	}
	return namedShutdown{"tracer", server.ShutdownFunc(shutdown)}, nil
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
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, secret, config.RedactURL(secret))
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
