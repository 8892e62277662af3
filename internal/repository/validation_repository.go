package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("validation log not found")

// ValidationLog is one persisted call to the validation endpoint.
type ValidationLog struct {
	ID             uint      `gorm:"primaryKey"`
	RequestID      string    `gorm:"column:request_id;uniqueIndex;size:64"`
	Filename       string    `gorm:"column:filename;size:255"`
	ContentHash    string    `gorm:"column:content_hash;index;size:64"`
	Result         string    `gorm:"column:result;size:255"`
	BlurPercentage float64   `gorm:"column:blur_percentage"`
	Success        bool      `gorm:"column:success"`
	Cached         bool      `gorm:"column:cached"`
	Error          string    `gorm:"column:error;type:text"`
	LatencyMs      int64     `gorm:"column:latency_ms"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (ValidationLog) TableName() string {
	return "validation_logs"
}

type ValidationRepository struct {
	db *gorm.DB
}

// Open connects to the sqlite database at path.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func NewValidationRepository(db *gorm.DB) *ValidationRepository {
	return &ValidationRepository{db: db}
}

func (r *ValidationRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&ValidationLog{})
}

// SaveLog stores log, replacing the outcome of an earlier attempt with the same
// request id (a redelivered async job reuses its job id).
func (r *ValidationRepository) SaveLog(ctx context.Context, log *ValidationLog) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "request_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"filename", "content_hash", "result", "blur_percentage",
			"success", "cached", "error", "latency_ms",
		}),
	}).Create(log).Error
	if err != nil {
		return fmt.Errorf("failed to save validation log: %w", err)
	}
	return nil
}

func (r *ValidationRepository) FindByRequestID(ctx context.Context, requestID string) (*ValidationLog, error) {
	var log ValidationLog
	err := r.db.WithContext(ctx).First(&log, "request_id = ?", requestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load validation log: %w", err)
	}
	return &log, nil
}

// Ping is used by the health endpoint.
func (r *ValidationRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *ValidationRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
