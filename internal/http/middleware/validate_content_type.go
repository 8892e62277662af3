package middleware

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-validator/internal/models"
)

// RequireMultipart rejects upload requests that are not multipart/form-data.
func RequireMultipart() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		mediaType, _, err := mime.ParseMediaType(ctx.GetHeader("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, models.APIResponse{
				Success: false,
				Error:   "Expected multipart/form-data upload",
			})
			return
		}

		ctx.Next()
	}
}
