package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/imgres/internal/auth"
	"github.com/phambaophuc/imgres/internal/config"
	"github.com/phambaophuc/imgres/internal/http/handlers"
	"github.com/phambaophuc/imgres/internal/http/routes"
	"github.com/phambaophuc/imgres/internal/services/credit"
	"github.com/phambaophuc/imgres/internal/services/pipeline"
	"github.com/phambaophuc/imgres/internal/services/processor"
	"github.com/phambaophuc/imgres/internal/services/queue"
	"github.com/phambaophuc/imgres/internal/services/storage"
	"github.com/phambaophuc/imgres/internal/services/upscale"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	imageProcessor := processor.NewImageProcessor(
		processor.WithMaxOutputPixels(uint64(cfg.Storage.MaxOutputPixels)),
	)
	upscaler := upscale.NewClient(cfg.Replicate, logger)

	uploader, err := storage.NewUploader(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize staging storage", zap.Error(err))
	}

	ledger, closeLedger, err := credit.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize credit ledger", zap.Error(err))
	}
	defer closeLedger()

	var usageStore credit.UsageStore = credit.NewLogUsageStore(logger)
	if pg, ok := ledger.(*credit.PostgresLedger); ok {
		usageStore = pg
	}

	var opts []pipeline.Option
	var queueReporter handlers.QueueReporter

	usageQueue, err := queue.NewQueueService(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, usageStore, logger)
	if err != nil {
		logger.Warn("Failed to initialize queue service, usage events disabled", zap.Error(err))
		// Continue without usage events
	} else {
		defer usageQueue.Close()
		for i := 1; i <= cfg.RabbitMQ.Workers; i++ {
			if err := usageQueue.StartWorker(ctx, i); err != nil {
				logger.Error("Failed to start usage worker", zap.Int("worker_id", i), zap.Error(err))
			}
		}
		opts = append(opts, pipeline.WithUsageNotifier(usageQueue))
		queueReporter = usageQueue
	}

	orchestrator := pipeline.NewOrchestrator(
		imageProcessor,
		upscaler,
		uploader,
		ledger,
		cfg.Storage.TempDir,
		logger,
		opts...,
	)

	tokens := auth.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)

	// Initialize handlers
	resizeHandler := handlers.NewResizeHandler(imageProcessor, orchestrator, logger, cfg)
	healthHandler := handlers.NewHealthHandler(queueReporter, uploader, ledger)

	router := routes.NewRouter(resizeHandler, healthHandler, tokens, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.String("staging", cfg.Staging.Backend),
			zap.String("credit", cfg.Credit.Backend),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// stop usage workers before the queue and ledger are closed
	cancel()

	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
