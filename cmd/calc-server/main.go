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

	"github.com/aescanero/dago-adapters/pkg/llm"
	"github.com/aescanero/dago-libs/pkg/ports"
	"github.com/aescanero/dago-node-calculator/internal/api"
	"github.com/aescanero/dago-node-calculator/internal/calc"
	"github.com/aescanero/dago-node-calculator/internal/config"
	"github.com/aescanero/dago-node-calculator/internal/eval/template"
	"github.com/aescanero/dago-node-calculator/internal/plot"
	"github.com/aescanero/dago-node-calculator/internal/router"
	"github.com/aescanero/dago-node-calculator/internal/session"
	"github.com/aescanero/dago-node-calculator/internal/units"
	"github.com/aescanero/dago-node-calculator/internal/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set at build time
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting calculator server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// Log configuration (without sensitive data)
	logger.Info("configuration loaded", zap.String("config", cfg.String()))

	// Open session store
	store, err := session.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open session store", zap.Error(err))
	}
	logger.Info("session store opened", zap.String("path", cfg.DatabasePath))

	recorder := session.NewRecorder(store, cfg.HistoryBuffer, logger.Named("recorder"))

	// Initialize LLM client (optional, natural language input is disabled without it)
	var complete router.CompletionFunc
	if cfg.LLMEnabled() {
		llmClient, err := initLLMClient(cfg, logger)
		if err != nil {
			logger.Warn("failed to initialize llm client (natural language input will not be available)",
				zap.Error(err),
			)
		} else {
			complete = router.LLMCompletion(llmClient, cfg.LLMModel, cfg.LLMTimeout)
			logger.Info("llm client initialized",
				zap.String("provider", cfg.LLMProvider),
				zap.String("model", cfg.LLMModel),
			)
		}
	} else {
		logger.Warn("llm api key not provided (natural language input will not be available)")
	}

	// Initialize router
	routerCfg, err := loadRouterConfig(cfg.RouterRulesFile)
	if err != nil {
		logger.Fatal("failed to load routing rules", zap.Error(err))
	}
	routerInstance, err := router.NewRouter(routerCfg, complete, logger.Named("router"))
	if err != nil {
		logger.Fatal("failed to initialize router", zap.Error(err))
	}

	// Auto mode falls back to built-in inference when CEL routing is off
	var resolver calc.ModeResolver
	if cfg.CELEnabled {
		resolver = routerInstance
	}
	evaluator := calc.NewEvaluator(cfg.EvaluatorOptions(), resolver, logger.Named("calc"))

	table, err := units.DefaultTable()
	if err != nil {
		logger.Fatal("failed to load unit table", zap.Error(err))
	}

	deps := api.Deps{
		Evaluator: evaluator,
		Router:    routerInstance,
		Converter: units.NewConverter(table, template.NewEngine()),
		Sampler:   plot.NewSampler(cfg.PlotMaxPoints, logger.Named("plot")),
		Store:     store,
		Recorder:  recorder,
	}
	checks := map[string]worker.Pinger{"sqlite": store}

	// Async jobs over Redis Streams
	var (
		redisClient *redis.Client
		w           *worker.Worker
	)
	if cfg.JobsEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

		queue := worker.NewQueue(redisClient, cfg.StreamKey, cfg.JobResultTTL)
		deps.Jobs = queue
		checks["redis"] = queue

		w = worker.NewWorker(cfg, redisClient, evaluator, recorder, logger.Named("worker"))
		if err := w.Start(); err != nil {
			logger.Fatal("failed to start worker", zap.Error(err))
		}
	}

	// Start health server
	healthServer := worker.NewHealthServer(cfg.HealthPort, checks, logger)
	if err := healthServer.Start(); err != nil {
		logger.Fatal("failed to start health server", zap.Error(err))
	}

	// Start API server
	server := api.NewServer(deps, api.Options{
		CORSOrigins:     cfg.CORSOrigins,
		PrincipalHeader: cfg.PrincipalHeader,
		Version:         Version,
	}, logger.Named("api"))
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api server listening", zap.String("addr", cfg.HTTPAddr()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received, stopping server")
	case err := <-serveErr:
		logger.Error("api server failed", zap.Error(err))
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to stop api server", zap.Error(err))
	}

	// Stop health server
	if err := healthServer.Stop(); err != nil {
		logger.Error("failed to stop health server", zap.Error(err))
	}

	// Stop worker
	if w != nil {
		if err := w.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop worker", zap.Error(err))
		}
	}

	// Drain pending history before closing the store
	if err := recorder.Close(shutdownCtx); err != nil {
		logger.Error("failed to drain recorder", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		logger.Error("failed to close session store", zap.Error(err))
	}

	// Close Redis connection
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis connection", zap.Error(err))
		}
	}

	select {
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, forcing exit")
	default:
		logger.Info("server stopped gracefully")
	}
}

// initLogger initializes the logger
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

// initLLMClient initializes the LLM client using dago-adapters
func initLLMClient(cfg *config.Config, logger *zap.Logger) (ports.LLMClient, error) {
	return llm.NewClient(&llm.Config{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		Logger:   logger.Named("llm"),
	})
}

// loadRouterConfig reads the routing rules file, or returns the built-in
// rules when path is empty.
func loadRouterConfig(path string) (router.Config, error) {
	if path == "" {
		return router.DefaultConfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return router.Config{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return router.LoadConfig(f)
}
