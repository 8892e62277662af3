package models

import "time"

// APIResponse is the envelope for every gateway endpoint except the bare
// validation result.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthCheck aggregates per-backend status strings: "healthy",
// "not configured" or "unhealthy: <reason>".
type HealthCheck struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
