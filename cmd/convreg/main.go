package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/convreg/convreg/internal/application/converters"
	"github.com/convreg/convreg/internal/application/registry"
	"github.com/convreg/convreg/internal/application/workers"
	"github.com/convreg/convreg/internal/config"
	"github.com/convreg/convreg/internal/ports"
	"github.com/convreg/convreg/pkg/adapters/convert"
	"github.com/convreg/convreg/pkg/adapters/convert/llm"
	memoryevents "github.com/convreg/convreg/pkg/adapters/events/memory"
	redisevents "github.com/convreg/convreg/pkg/adapters/events/redis"
	"github.com/convreg/convreg/pkg/adapters/metrics/prometheus"
	"github.com/convreg/convreg/pkg/adapters/resolver"
	memorystorage "github.com/convreg/convreg/pkg/adapters/storage/memory"
	redisstorage "github.com/convreg/convreg/pkg/adapters/storage/redis"
	"github.com/convreg/convreg/pkg/api/grpc"
	"github.com/convreg/convreg/pkg/api/http"
	"github.com/convreg/convreg/pkg/api/websocket"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
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
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting conversion registry",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("store_backend", cfg.Store.Backend))

	// Initialize store and event bus adapters
	var (
		store       ports.DatasetStore
		eventBus    ports.EventBus
		redisClient *goredis.Client
	)

	switch cfg.Store.Backend {
	case "redis":
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		// Test Redis connection
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		store = redisstorage.NewStore(redisClient, cfg.Store.TTL, logger)

		bus, err := redisevents.NewStreamsBus(
			redisClient,
			"convreg-workers",
			fmt.Sprintf("convreg-%d", os.Getpid()),
			logger,
		)
		if err != nil {
			logger.Fatal("failed to create event bus", zap.Error(err))
		}
		eventBus = bus
	default:
		store = memorystorage.NewStore()
		eventBus = memoryevents.NewBus()
	}

	metricsCollector := prometheus.NewCollector()
	urlResolver := resolver.New(logger)

	// Initialize converter graph with builtin converters
	graph := converters.NewRegistry(logger)
	builtin := []converters.Converter{
		convert.CSVToJSON(),
		convert.JSONToYAML(),
		convert.YAMLToJSON(),
	}
	for _, c := range builtin {
		if err := graph.Register(c); err != nil {
			logger.Fatal("failed to register converter", zap.Error(err))
		}
	}

	// Optional LLM-backed summarizer
	if cfg.Summarizer.APIKey != "" {
		summarizer, err := llm.New(&llm.Config{
			APIKey:    cfg.Summarizer.APIKey,
			Model:     cfg.Summarizer.Model,
			MaxTokens: cfg.Summarizer.MaxTokens,
			Logger:    logger,
		})
		if err != nil {
			logger.Fatal("failed to create summarizer", zap.Error(err))
		}
		if err := graph.Register(summarizer.Converter()); err != nil {
			logger.Fatal("failed to register summarizer", zap.Error(err))
		}
	}

	// Initialize application components
	registryMgr := registry.NewManager(
		store,
		graph,
		urlResolver,
		eventBus,
		metricsCollector,
		logger,
	)

	workerPool := workers.NewPool(
		cfg.Workers.PoolSize,
		eventBus,
		registryMgr,
		metricsCollector,
		logger,
		cfg.Workers.HealthCheckInterval,
		cfg.Timeouts.ConversionTimeout,
	)

	// Start worker pool
	if err := workerPool.Start(); err != nil {
		logger.Fatal("failed to start worker pool", zap.Error(err))
	}

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:     cfg.HTTPPort,
		Registry: registryMgr,
		EventBus: eventBus,
		Logger:   logger,
	})

	// Add WebSocket handler to HTTP server
	wsHandler := websocket.NewHandler(eventBus, logger)
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:   cfg.GRPCPort,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("conversion registry started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("worker_pool_size", cfg.Workers.PoolSize),
		zap.Int("converters", len(graph.Converters())))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if err := workerPool.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker pool shutdown error", zap.Error(err))
	}

	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("conversion registry shut down complete")
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
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

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
