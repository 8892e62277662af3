package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"

	ClientRequestIDKey = "client_request_id"
)

// RequestID assigns every request a fresh id, which also keys the persisted
// validation log. A well-formed incoming X-Request-ID is kept only as the
// client's correlation id.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if clientID := ctx.GetHeader(RequestIDHeader); clientID != "" {
			if _, err := uuid.Parse(clientID); err == nil {
				ctx.Set(ClientRequestIDKey, clientID)
			}
		}

		requestID := uuid.NewString()
		ctx.Set(RequestIDKey, requestID)
		ctx.Header(RequestIDHeader, requestID)
		ctx.Next()
	}
}
