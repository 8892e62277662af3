package storage

import (
	"errors"
	"time"

	"github.com/phambaophuc/image-validator/internal/config"
	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
)

var ErrNotConfigured = errors.New("object storage not configured")

// StorageService keeps uploads in Supabase Storage and validation state in Redis.
type StorageService struct {
	sbClient      *storage_go.Client
	redisClient   *redis.Client
	bucket        string
	cacheDuration time.Duration
	jobTTL        time.Duration
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	var sbClient *storage_go.Client
	if cfg.SupabaseEnabled() {
		sbClient = storage_go.NewClient(cfg.Supabase.URL+"/storage/v1", cfg.Supabase.KEY, nil)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	return New(sbClient, redisClient, cfg.Supabase.BUCKET, cfg.Storage.CacheDuration, cfg.Storage.JobTTL), nil
}

// New wires a service from existing clients. sbClient may be nil, in which
// case uploads fail with ErrNotConfigured.
func New(sbClient *storage_go.Client, redisClient *redis.Client, bucket string, cacheDuration, jobTTL time.Duration) *StorageService {
	return &StorageService{
		sbClient:      sbClient,
		redisClient:   redisClient,
		bucket:        bucket,
		cacheDuration: cacheDuration,
		jobTTL:        jobTTL,
	}
}

func (s *StorageService) ObjectStorageEnabled() bool {
	return s.sbClient != nil
}

func (s *StorageService) Close() error {
	return s.redisClient.Close()
}
