package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-validator/internal/config"
	"github.com/phambaophuc/image-validator/internal/http/handlers"
	"github.com/phambaophuc/image-validator/internal/http/routes"
	"github.com/phambaophuc/image-validator/internal/logging"
	"github.com/phambaophuc/image-validator/internal/repository"
	"github.com/phambaophuc/image-validator/internal/services/checker"
	"github.com/phambaophuc/image-validator/internal/services/processor"
	"github.com/phambaophuc/image-validator/internal/services/queue"
	"github.com/phambaophuc/image-validator/internal/services/storage"
	"github.com/phambaophuc/image-validator/internal/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const cacheCleanupInterval = time.Hour

func main() {
	logger, err := logging.NewLogger()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server exited")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	gin.SetMode(gin.ReleaseMode)

	// Initialize services
	imageProcessor := processor.NewImageProcessor(cfg.Storage.MaxFileSize, cfg.Storage.MaxDimension, cfg.Storage.AllowedTypes)

	storageService, err := storage.NewStorageService(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage service: %w", err)
	}
	defer storageService.Close()

	db, err := repository.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	repo := repository.NewValidationRepository(db)
	defer repo.Close()
	if err := repo.AutoMigrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	analyzer := validation.NewClient(
		cfg.Analyzer.URL,
		validation.WithHTTPClient(&http.Client{Timeout: cfg.Analyzer.Timeout}),
	)
	validationChecker := checker.New(imageProcessor, analyzer, storageService, repo, logger)

	// The queue is optional; without it the async endpoint answers 503.
	var jobQueue handlers.JobQueue
	queueService, err := queue.NewQueueService(cfg.RabbitMQ.URL, storageService, validationChecker, logger)
	if err != nil {
		logger.Warn("Failed to initialize queue service", zap.Error(err))
	} else {
		defer queueService.Close()
		jobQueue = queueService
	}

	imageHandler := handlers.NewImageHandler(imageProcessor, validationChecker, storageService, jobQueue, repo, logger)
	router := routes.NewRouter(imageHandler, logger, cfg.CORS.AllowedOrigins)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		return serveHTTPServer(groupCtx, server, cfg.Server.ShutdownTimeout, logger, nil)
	})

	if queueService != nil {
		for i := 1; i <= cfg.RabbitMQ.WorkerCount; i++ {
			i := i
			group.Go(func() error {
				return queueService.StartWorker(groupCtx, i)
			})
		}
	}

	group.Go(func() error {
		runCacheCleanup(groupCtx, storageService, cacheCleanupInterval, logger)
		return nil
	})

	return group.Wait()
}

type cacheCleaner interface {
	CleanupCache(ctx context.Context) (int, error)
}

func runCacheCleanup(ctx context.Context, cleaner cacheCleaner, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := cleaner.CleanupCache(ctx)
			if err != nil {
				logger.Warn("Cache cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("Cache cleanup removed stale entries", zap.Int("removed", removed))
			}
		}
	}
}

// serveHTTPServer serves until ctx is done, then drains in-flight requests
// within shutdownTimeout. A nil listener means ListenAndServe on server.Addr.
func serveHTTPServer(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return <-errCh
	}
}
