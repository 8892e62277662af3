package models

import "time"

// ValidationResult is the body of a successful POST /api/image/validate.
type ValidationResult struct {
	Result         string  `json:"result"`
	BlurPercentage float64 `json:"blurPercentage"`
}

// IsClear reports whether no blur was detected.
func (r ValidationResult) IsClear() bool {
	return r.BlurPercentage == 0
}

// ValidationRecord is the public view of a persisted validation.
type ValidationRecord struct {
	RequestID      string    `json:"request_id"`
	Filename       string    `json:"filename"`
	ContentHash    string    `json:"content_hash"`
	Result         string    `json:"result,omitempty"`
	BlurPercentage float64   `json:"blur_percentage"`
	Success        bool      `json:"success"`
	Cached         bool      `json:"cached"`
	LatencyMs      int64     `json:"latency_ms"`
	CreatedAt      time.Time `json:"created_at"`
}
