package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-validator/internal/http/middleware"
	"github.com/phambaophuc/image-validator/internal/models"
	"github.com/phambaophuc/image-validator/internal/repository"
	"github.com/phambaophuc/image-validator/internal/services/checker"
	"github.com/phambaophuc/image-validator/internal/services/processor"
	"go.uber.org/zap"
)

// Room for multipart boundaries and part headers on top of the file itself.
const multipartOverhead = 64 << 10

const msgFileTooLarge = "Image exceeds maximum file size"

// === REQUEST PARSING ===

func (h *ImageHandler) readUpload(c *gin.Context) (*checker.Upload, int, string) {
	maxSize := h.processor.MaxFileSize()
	if maxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartOverhead)
	}

	file, header, err := c.Request.FormFile(imageParamKey)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, http.StatusRequestEntityTooLarge, msgFileTooLarge
		}
		return nil, http.StatusBadRequest, "No image file provided"
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusBadRequest, "Failed to read image"
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, http.StatusRequestEntityTooLarge, msgFileTooLarge
	}

	return &checker.Upload{Filename: header.Filename, Data: data}, http.StatusOK, ""
}

func (h *ImageHandler) requestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDKey)
}

// === RESPONSE HANDLING ===

func (h *ImageHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

func (h *ImageHandler) statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, processor.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, msgFileTooLarge
	case errors.Is(err, processor.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "Unsupported image format"
	case errors.Is(err, processor.ErrInvalidImage):
		return http.StatusBadRequest, "Invalid image"
	case errors.Is(err, checker.ErrAnalyzer):
		return http.StatusBadGateway, "Image analysis failed"
	default:
		h.logger.Error("Unexpected validation error", zap.Error(err))
		return http.StatusInternalServerError, "Failed to validate image"
	}
}

func toRecord(log *repository.ValidationLog) models.ValidationRecord {
	return models.ValidationRecord{
		RequestID:      log.RequestID,
		Filename:       log.Filename,
		ContentHash:    log.ContentHash,
		Result:         log.Result,
		BlurPercentage: log.BlurPercentage,
		Success:        log.Success,
		Cached:         log.Cached,
		LatencyMs:      log.LatencyMs,
		CreatedAt:      log.CreatedAt,
	}
}

// === STORAGE OPERATIONS ===

func (h *ImageHandler) discardUpload(ctx context.Context, key string) {
	if err := h.storage.Delete(ctx, key); err != nil {
		h.logger.Warn("Failed to delete orphaned upload", zap.String("storage_key", key), zap.Error(err))
	}
}

// === UTILITY METHODS ===

func (h *ImageHandler) collectHealth(ctx context.Context) map[string]string {
	services := map[string]string{
		"redis":    "not configured",
		"supabase": "not configured",
		"rabbitmq": "not configured",
		"database": "not configured",
	}

	if h.storage != nil {
		for name, status := range h.storage.HealthCheck(ctx) {
			services[name] = status
		}
	}

	if h.queue != nil {
		services["rabbitmq"] = h.queue.HealthCheck()
	}

	if h.logs != nil {
		if err := h.logs.Ping(ctx); err != nil {
			services["database"] = "unhealthy: " + err.Error()
		} else {
			services["database"] = "healthy"
		}
	}

	return services
}

func (h *ImageHandler) calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}
