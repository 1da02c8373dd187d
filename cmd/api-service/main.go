package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hirelens/interview-analysis-be/internal/analysis/inference"
	"github.com/hirelens/interview-analysis-be/internal/analysis/jobstore"
	"github.com/hirelens/interview-analysis-be/internal/analysis/media"
	"github.com/hirelens/interview-analysis-be/internal/analysis/pipeline"
	"github.com/hirelens/interview-analysis-be/internal/analysis/scheduler"
	"github.com/hirelens/interview-analysis-be/internal/analysis/speech"
	"github.com/hirelens/interview-analysis-be/internal/api/handler"
	"github.com/hirelens/interview-analysis-be/internal/api/router"
	"github.com/hirelens/interview-analysis-be/internal/config"
	"github.com/hirelens/interview-analysis-be/shared/logger"
	"github.com/hirelens/interview-analysis-be/shared/postgresql"
	"github.com/hirelens/interview-analysis-be/shared/rabbitmq"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize the job store backend
	var dbClient *postgresql.Client
	var store jobstore.Store
	switch cfg.Jobs.StoreBackend {
	case config.StorePostgres:
		dbClient, err = initPostgreSQL(&cfg.Database, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		store = jobstore.NewPostgresStore(dbClient)
		appLogger.Info("Database connection established")
	default:
		store = jobstore.NewMemoryStore()
	}

	// Initialize the dispatch backend
	var dispatcher scheduler.Dispatcher
	var pool *scheduler.Pool
	var rabbitClient *rabbitmq.Client
	switch cfg.Jobs.Dispatcher {
	case config.DispatcherQueue:
		rabbitClient, err = initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		dispatcher = scheduler.NewQueueDispatcher(rabbitClient, appLogger.Logger)
		appLogger.Info("RabbitMQ connection established")
	default:
		orchestrator := buildOrchestrator(cfg, store, appLogger.Logger)
		pool = scheduler.NewPool(
			cfg.Worker.Concurrency,
			cfg.Worker.QueueCapacity,
			store,
			orchestrator,
			appLogger.Logger,
		)
		dispatcher = pool
	}

	// Initialize router
	r := initRouter(cfg, appLogger.Logger, store, dispatcher)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	// Drain in-flight analysis jobs before closing shared clients.
	if pool != nil {
		pool.Stop()
	}
	if rabbitClient != nil {
		rabbitClient.Close()
	}
	if dbClient != nil {
		dbClient.Close()
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// buildOrchestrator wires the pipeline stages for in-process dispatch.
func buildOrchestrator(cfg *config.Config, store jobstore.Store, logger *slog.Logger) *pipeline.Orchestrator {
	extractor := media.NewExtractor(media.Config{
		AudioDir:       cfg.Storage.AudioDir,
		MaxOutputBytes: cfg.Storage.MaxAudioBytes,
		FFmpegPath:     cfg.Storage.FFmpegPath,
		FFprobePath:    cfg.Storage.FFprobePath,
	}, logger)

	transcriber := speech.NewClient(speech.Config{
		Region:          cfg.Speech.Region,
		SubscriptionKey: cfg.Speech.SubscriptionKey,
		Locales:         cfg.Speech.Locales,
		MaxSpeakers:     cfg.Speech.MaxSpeakers,
		APIVersion:      cfg.Speech.APIVersion,
	}, nil, logger)

	engine := inference.NewClient(inference.Config{
		APIKey:                cfg.Inference.APIKey,
		ModelID:               cfg.Inference.ModelID,
		FileActivationTimeout: cfg.Inference.FileActivationTimeout,
	}, nil, logger)

	return pipeline.NewOrchestrator(
		pipeline.Config{ResultsDir: cfg.Storage.ResultsDir},
		store, extractor, transcriber, engine, logger,
	)
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, logger *slog.Logger, store jobstore.Store, dispatcher scheduler.Dispatcher) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	handlerDeps := &handler.Dependencies{
		Logger:     logger,
		Store:      store,
		Dispatcher: dispatcher,
		VideoDir:   cfg.Storage.VideoDir,
	}

	return router.SetupRouter(
		router.Config{MaxUploadBytes: cfg.Storage.MaxUploadBytes},
		handlerDeps,
	)
}
