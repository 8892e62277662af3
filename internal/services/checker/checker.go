package checker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/image-validator/internal/logging"
	"github.com/phambaophuc/image-validator/internal/models"
	"github.com/phambaophuc/image-validator/internal/repository"
	"github.com/phambaophuc/image-validator/internal/services/processor"
	"github.com/phambaophuc/image-validator/pkg/utils"
	"go.uber.org/zap"
)

// ErrAnalyzer marks failures of the upstream blur-detection backend.
var ErrAnalyzer = errors.New("analyzer request failed")

// Analyzer is the opaque blur-detection backend. validation.Client satisfies it.
type Analyzer interface {
	Validate(ctx context.Context, filename string, image []byte) (*models.ValidationResult, error)
}

type ResultCache interface {
	GetResult(ctx context.Context, contentHash string) (*models.ValidationResult, error)
	SetResult(ctx context.Context, contentHash string, result *models.ValidationResult) error
}

type LogRepository interface {
	SaveLog(ctx context.Context, log *repository.ValidationLog) error
}

type Upload struct {
	Filename string
	Data     []byte
}

type Outcome struct {
	RequestID   string
	ContentHash string
	Result      *models.ValidationResult
	Cached      bool
	Latency     time.Duration
}

// Checker runs an upload through validation, the result cache and the
// analyzer. Cache and repository are optional and their failures never fail
// a check.
type Checker struct {
	processor *processor.ImageProcessor
	analyzer  Analyzer
	cache     ResultCache
	repo      LogRepository
	logger    *zap.Logger
}

func New(processor *processor.ImageProcessor, analyzer Analyzer, cache ResultCache, repo LogRepository, logger *zap.Logger) *Checker {
	return &Checker{
		processor: processor,
		analyzer:  analyzer,
		cache:     cache,
		repo:      repo,
		logger:    logger.Named("checker"),
	}
}

func (c *Checker) Check(ctx context.Context, requestID string, upload Upload) (*Outcome, error) {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	opLogger := logging.WithOperation(c.logger, "checker.check", requestID)
	start := time.Now()

	info, err := c.processor.ValidateImage(upload.Data)
	if err != nil {
		opLogger.Info("Rejected upload", zap.String("filename", upload.Filename), zap.Error(err))
		return nil, logging.NewOperationError("checker.validate", requestID, err)
	}

	outcome := &Outcome{
		RequestID:   requestID,
		ContentHash: utils.ContentHash(upload.Data),
	}

	if cached := c.lookup(ctx, outcome.ContentHash, opLogger); cached != nil {
		outcome.Result = cached
		outcome.Cached = true
		outcome.Latency = time.Since(start)
		c.record(ctx, upload.Filename, outcome, nil, opLogger)
		return outcome, nil
	}

	normalized, err := c.processor.Normalize(upload.Data, info)
	if err != nil {
		return nil, logging.NewOperationError("checker.normalize", requestID, err)
	}

	filename := upload.Filename
	if normalized.Transformed {
		filename = renameForFormat(filename, normalized.Format)
	}

	result, err := c.analyzer.Validate(ctx, filename, normalized.Data)
	outcome.Latency = time.Since(start)
	if err != nil {
		wrapped := logging.NewOperationError("checker.analyze", requestID, fmt.Errorf("%w: %w", ErrAnalyzer, err))
		opLogger.Error("Analyzer call failed", zap.Error(err))
		c.record(ctx, upload.Filename, outcome, err, opLogger)
		return nil, wrapped
	}

	outcome.Result = result
	c.store(ctx, outcome.ContentHash, result, opLogger)
	c.record(ctx, upload.Filename, outcome, nil, opLogger)

	opLogger.Info("Image validated",
		zap.String("result", result.Result),
		zap.Float64("blur_percentage", result.BlurPercentage),
		zap.Bool("transformed", normalized.Transformed),
		zap.Int("width", normalized.Width),
		zap.Int("height", normalized.Height),
		zap.Duration("latency", outcome.Latency))

	return outcome, nil
}

func (c *Checker) lookup(ctx context.Context, hash string, logger *zap.Logger) *models.ValidationResult {
	if c.cache == nil {
		return nil
	}
	result, err := c.cache.GetResult(ctx, hash)
	if err != nil {
		logger.Warn("Failed to read cached result", zap.Error(err))
		return nil
	}
	if result != nil {
		logger.Info("Cache hit", zap.String("content_hash", hash))
	}
	return result
}

func (c *Checker) store(ctx context.Context, hash string, result *models.ValidationResult, logger *zap.Logger) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SetResult(ctx, hash, result); err != nil {
		logger.Warn("Failed to cache result", zap.Error(err))
	}
}

func (c *Checker) record(ctx context.Context, filename string, outcome *Outcome, checkErr error, logger *zap.Logger) {
	if c.repo == nil {
		return
	}

	entry := &repository.ValidationLog{
		RequestID:   outcome.RequestID,
		Filename:    filename,
		ContentHash: outcome.ContentHash,
		Success:     checkErr == nil,
		Cached:      outcome.Cached,
		LatencyMs:   outcome.Latency.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}
	if outcome.Result != nil {
		entry.Result = outcome.Result.Result
		entry.BlurPercentage = outcome.Result.BlurPercentage
	}
	if checkErr != nil {
		entry.Error = checkErr.Error()
	}

	if err := c.repo.SaveLog(ctx, entry); err != nil {
		logger.Warn("Failed to persist validation log", zap.Error(err))
	}
}

func renameForFormat(filename, format string) string {
	if filename == "" {
		return "upload." + format
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + "." + format
}
