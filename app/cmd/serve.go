package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Matrix-Ledger/smart-contract-generator-api/app/config"
	"github.com/Matrix-Ledger/smart-contract-generator-api/app/usecase"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/repository"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/llm"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/metrics"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/store/filesystem"
	mongorepo "github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/store/mongodb"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/transport"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/validator"
)

const (
	mongoConnectTimeout = 10 * time.Second
	shutdownTimeout     = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		logger.Error("config invalid", "err", err)
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Optional generation history
	var (
		mongoClient *mongo.Client
		history     repository.GenerationRepository
		generations usecase.GenerationsUseCase
	)
	if cfg.Mongo.Enabled() {
		mongoClient, err = connectMongo(ctx, cfg.Mongo)
		if err != nil {
			logger.Error("mongo connect failed", "err", err)
			return err
		}
		db := mongoClient.Database(cfg.Mongo.Database)

		repo := mongorepo.NewMongoGenerationRepo(db)
		idxCtx, idxCancel := context.WithTimeout(ctx, mongoConnectTimeout)
		err = repo.EnsureIndexes(idxCtx)
		idxCancel()
		if err != nil {
			logger.Error("mongo ensure indexes failed", "err", err)
			return err
		}
		history = repo
		generations = usecase.NewGenerationService(repo)
		logger.Info("generation history enabled", "database", cfg.Mongo.Database)
	} else {
		logger.Info("generation history disabled: MONGO_URI not set")
	}

	generator, err := newGenerator(cfg, history)
	if err != nil {
		logger.Error("init generator failed", "err", err)
		return err
	}

	schemas, err := validator.NewSchemaValidator()
	if err != nil {
		logger.Error("compile schemas failed", "err", err)
		return err
	}

	// Transport (HTTP handlers)
	handler := transport.NewContractHandler(
		generator,
		generations,
		schemas,
		logger,
		prometheus.DefaultRegisterer,
	)

	// Router and server
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      corsHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			logger.Info("starting metrics server", "addr", cfg.Metrics.Addr)
			if err := metrics.StartMetricsServer(cfg.Metrics.Addr); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	// Start HTTP server
	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "err", err)
			cancel()
		}
	}()

	// OS signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	// Shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}

	if mongoClient != nil {
		logger.Info("disconnecting mongo")
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			logger.Error("mongo disconnect error", "err", err)
		}
	}

	logger.Info("service stopped")
	return nil
}

func connectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	mongoCtx, mongoCancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer mongoCancel()

	client, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(mongoCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to mongo", "database", cfg.Database)
	return client, nil
}

// newGenerator builds the contract generator. history may be nil.
func newGenerator(cfg *config.Config, history repository.GenerationRepository) (*usecase.ContractGeneratorService, error) {
	templates, err := filesystem.NewTemplateRepository(cfg.Template.Dir, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("using contract template", "dir", templates.GetBasePath(), "name", cfg.Template.Name)

	llmClient := llm.NewOpenAIGenerator(
		cfg.LLM.APIKey,
		cfg.LLM.BaseURL,
		cfg.LLM.Model,
		cfg.LLM.Timeout,
		logger,
	)

	return usecase.NewContractGeneratorService(
		templates,
		llmClient,
		history,
		cfg.Template.Name,
		logger,
	), nil
}
