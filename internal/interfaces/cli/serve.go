package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/molvista/molvista/internal/chat"
	"github.com/molvista/molvista/internal/config"
	"github.com/molvista/molvista/internal/infrastructure/cache/redis"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/logging"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/prometheus"
	httpiface "github.com/molvista/molvista/internal/interfaces/http"
	"github.com/molvista/molvista/internal/interfaces/http/handlers"
	"github.com/molvista/molvista/internal/interfaces/http/middleware"
	"github.com/molvista/molvista/internal/predict"
	"github.com/molvista/molvista/internal/structure"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MolVista API server",
		Long:  "Start the HTTP API server: structure retrieval, property prediction,\nthe chemistry assistant, and Prometheus metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd, cliCtx)
		},
	}
}

func runServe(cmd *cobra.Command, cliCtx *CLIContext) error {
	cfg := cliCtx.Config

	// The server logs with the configured format, not the CLI console logger.
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}

	// Hot-reload the log level when serving from a config file. Other
	// settings stay fixed until restart; an invalid file change never fires.
	if cliCtx.ConfigPath != "" {
		currentLevel := cfg.Log.Level
		config.Watch(cliCtx.ConfigPath, func(next *config.Config) {
			if next.Log.Level == currentLevel {
				return
			}
			ls, ok := logger.(logging.LevelSetter)
			if !ok {
				return
			}
			ls.SetLevel(next.Log.Level)
			logger.Info("Log level reloaded",
				logging.String("from", currentLevel),
				logging.String("to", next.Log.Level))
			currentLevel = next.Log.Level
		})
	}

	metrics := prometheus.NewMetrics()

	// Redis is optional; the service runs uncached without it.
	var cache *redis.Cache
	var cachePinger handlers.Pinger
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(&redis.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}, logger)
		if err != nil {
			return err
		}
		defer client.Close()

		opts := []redis.CacheOption{redis.WithDefaultTTL(cfg.Structure.CacheTTL)}
		if cfg.Redis.KeyPrefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.KeyPrefix))
		}
		cache = redis.NewCache(client, logger, opts...)
		cachePinger = client
	}

	fetcherOpts := []structure.FetcherOption{structure.WithMetrics(metrics)}
	if cache != nil {
		fetcherOpts = append(fetcherOpts, structure.WithCache(cache, cfg.Structure.CacheTTL))
	}
	fetcher, err := structure.NewFetcherFromConfig(cfg.Structure, logger, fetcherOpts...)
	if err != nil {
		return err
	}
	resolver := structure.NewResolver(cfg.Structure, nil, logger, metrics)

	predictSvc := predict.NewService(
		predict.NewHTTPInference(cfg.Prediction, nil),
		logger, metrics)

	var generator chat.Generator
	if cfg.Chat.APIKey != "" {
		generator = chat.NewGeminiClient(cfg.Chat, &http.Client{Timeout: cfg.Chat.Timeout})
	}
	chatSvc := chat.NewService(generator, cfg.Chat.MaxHistory, logger, metrics)

	router := httpiface.NewRouter(httpiface.RouterDeps{
		Mode:       cfg.Server.Mode,
		Logger:     logger,
		Metrics:    metrics,
		Health:     handlers.NewHealthHandler(config.Version, chatSvc.Enabled(), cachePinger),
		Structures: handlers.NewStructureHandler(fetcher, resolver),
		Predict:    handlers.NewPredictHandler(predictSvc),
		Chat:       handlers.NewChatHandler(chatSvc),
		Logging:    middleware.DefaultLoggingConfig(),
		CORS:       middleware.DefaultCORSConfig(),
		RateLimit:  middleware.DefaultRateLimitConfig(),
	})
	server := httpiface.NewServer(cfg.Server, router, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	logger.Info("MolVista started",
		logging.String("version", config.Version),
		logging.Int("port", cfg.Server.Port),
		logging.Bool("cache", cache != nil),
		logging.Bool("chat", chatSvc.Enabled()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
