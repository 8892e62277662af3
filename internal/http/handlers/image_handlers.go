package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phambaophuc/image-validator/internal/models"
	"github.com/phambaophuc/image-validator/internal/repository"
	"github.com/phambaophuc/image-validator/internal/services/checker"
	"github.com/phambaophuc/image-validator/internal/services/processor"
	"github.com/phambaophuc/image-validator/internal/services/storage"
	"go.uber.org/zap"
)

const (
	imageParamKey = "image"
	cacheHeader   = "X-Cache"
)

type ValidationChecker interface {
	Check(ctx context.Context, requestID string, upload checker.Upload) (*checker.Outcome, error)
}

// UploadStore keeps async uploads and job state.
type UploadStore interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
	Delete(ctx context.Context, path string) error
	SaveJob(ctx context.Context, job *models.ValidationJob) error
	GetJob(ctx context.Context, id string) (*models.ValidationJob, error)
	ObjectStorageEnabled() bool
	HealthCheck(ctx context.Context) map[string]string
	GetCacheStats(ctx context.Context) (map[string]interface{}, error)
}

type JobQueue interface {
	PublishJob(ctx context.Context, job *models.ValidationJob) error
	HealthCheck() string
	GetQueueStats() (map[string]interface{}, error)
}

type LogStore interface {
	FindByRequestID(ctx context.Context, requestID string) (*repository.ValidationLog, error)
	Ping(ctx context.Context) error
}

type ImageHandler struct {
	processor *processor.ImageProcessor
	checker   ValidationChecker
	storage   UploadStore
	queue     JobQueue
	logs      LogStore
	logger    *zap.Logger
}

// NewImageHandler wires the HTTP surface. storage, queue and logs may be nil;
// the endpoints that need them then answer 503.
func NewImageHandler(
	processor *processor.ImageProcessor,
	checker ValidationChecker,
	storage UploadStore,
	queue JobQueue,
	logs LogStore,
	logger *zap.Logger,
) *ImageHandler {
	return &ImageHandler{
		processor: processor,
		checker:   checker,
		storage:   storage,
		queue:     queue,
		logs:      logs,
		logger:    logger.Named("image_handler"),
	}
}

// === MAIN API ENDPOINTS ===

// ValidateImage implements POST /api/image/validate. Success is answered with
// the bare {"result","blurPercentage"} object; every failure is non-2xx.
func (h *ImageHandler) ValidateImage(c *gin.Context) {
	upload, status, message := h.readUpload(c)
	if upload == nil {
		h.respondError(c, status, message)
		return
	}

	outcome, err := h.checker.Check(c.Request.Context(), h.requestID(c), *upload)
	if err != nil {
		status, message := h.statusFor(err)
		h.respondError(c, status, message)
		return
	}

	if outcome.Cached {
		c.Header(cacheHeader, "HIT")
	} else {
		c.Header(cacheHeader, "MISS")
	}
	c.JSON(http.StatusOK, outcome.Result)
}

// ValidateImageAsync stores the upload and queues it for a worker.
func (h *ImageHandler) ValidateImageAsync(c *gin.Context) {
	if h.queue == nil || h.storage == nil || !h.storage.ObjectStorageEnabled() {
		h.respondError(c, http.StatusServiceUnavailable, "Asynchronous validation is not available")
		return
	}

	upload, status, message := h.readUpload(c)
	if upload == nil {
		h.respondError(c, status, message)
		return
	}

	info, err := h.processor.ValidateImage(upload.Data)
	if err != nil {
		status, message := h.statusFor(err)
		h.respondError(c, status, message)
		return
	}

	ctx := c.Request.Context()
	key, err := h.storage.Upload(ctx, upload.Data, upload.Filename)
	if err != nil {
		h.logger.Error("Failed to store upload", zap.Error(err))
		h.respondError(c, http.StatusBadGateway, "Failed to store image")
		return
	}

	now := time.Now().UTC()
	job := &models.ValidationJob{
		ID:          uuid.NewString(),
		StorageKey:  key,
		Filename:    upload.Filename,
		ContentType: info.ContentType,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.storage.SaveJob(ctx, job); err != nil {
		h.logger.Error("Failed to save job", zap.String("job_id", job.ID), zap.Error(err))
		h.discardUpload(ctx, key)
		h.respondError(c, http.StatusInternalServerError, "Failed to queue image")
		return
	}

	if err := h.queue.PublishJob(ctx, job); err != nil {
		h.logger.Error("Failed to publish job", zap.String("job_id", job.ID), zap.Error(err))
		h.discardUpload(ctx, key)
		h.respondError(c, http.StatusServiceUnavailable, "Failed to queue image")
		return
	}

	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Data:    job,
	})
}

func (h *ImageHandler) GetJob(c *gin.Context) {
	if h.storage == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Job storage is not available")
		return
	}

	job, err := h.storage.GetJob(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrJobNotFound) {
		h.respondError(c, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to load job", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to load job")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    job,
	})
}

func (h *ImageHandler) GetValidation(c *gin.Context) {
	if h.logs == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Validation history is not available")
		return
	}

	log, err := h.logs.FindByRequestID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		h.respondError(c, http.StatusNotFound, "Validation not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to load validation log", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to load validation")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    toRecord(log),
	})
}

// GetStats reports cache and queue statistics for the configured backends.
func (h *ImageHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	if h.storage != nil {
		cacheStats, err := h.storage.GetCacheStats(c.Request.Context())
		if err != nil {
			h.logger.Warn("Failed to get cache stats", zap.Error(err))
			stats["cache"] = gin.H{"error": err.Error()}
		} else {
			stats["cache"] = cacheStats
		}
	}

	if h.queue != nil {
		queueStats, err := h.queue.GetQueueStats()
		if err != nil {
			h.logger.Warn("Failed to get queue stats", zap.Error(err))
			stats["queue"] = gin.H{"error": err.Error()}
		} else {
			stats["queue"] = queueStats
		}
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}

// HealthCheck
func (h *ImageHandler) HealthCheck(c *gin.Context) {
	services := h.collectHealth(c.Request.Context())
	overall := h.calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}
