package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phambaophuc/image-validator/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	resultKeyPrefix = "validation_cache:"
	jobKeyPrefix    = "validation_job:"
)

var ErrJobNotFound = errors.New("job not found")

func ResultCacheKey(contentHash string) string {
	return resultKeyPrefix + contentHash
}

func JobKey(id string) string {
	return jobKeyPrefix + id
}

// GetResult returns the cached verdict for an image hash, or nil on a miss.
func (s *StorageService) GetResult(ctx context.Context, contentHash string) (*models.ValidationResult, error) {
	data, err := s.redisClient.Get(ctx, ResultCacheKey(contentHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	var result models.ValidationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("cache decode error: %w", err)
	}
	return &result, nil
}

func (s *StorageService) SetResult(ctx context.Context, contentHash string, result *models.ValidationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache encode error: %w", err)
	}
	return s.redisClient.Set(ctx, ResultCacheKey(contentHash), data, s.cacheDuration).Err()
}

func (s *StorageService) SaveJob(ctx context.Context, job *models.ValidationJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("job encode error: %w", err)
	}
	return s.redisClient.Set(ctx, JobKey(job.ID), data, s.jobTTL).Err()
}

func (s *StorageService) GetJob(ctx context.Context, id string) (*models.ValidationJob, error) {
	data, err := s.redisClient.Get(ctx, JobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("job get error: %w", err)
	}

	var job models.ValidationJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("job decode error: %w", err)
	}
	return &job, nil
}

// CleanupCache drops cached results that lost their expiry.
func (s *StorageService) CleanupCache(ctx context.Context) (int, error) {
	var removed int
	iter := s.redisClient.Scan(ctx, 0, resultKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		ttl, err := s.redisClient.TTL(ctx, key).Result()
		if err != nil {
			return removed, err
		}
		// -1 means the key exists without an expiry.
		if ttl == -1 {
			if err := s.redisClient.Del(ctx, key).Err(); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, iter.Err()
}

func (s *StorageService) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	dbSize, err := s.redisClient.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}

	var cached int64
	iter := s.redisClient.Scan(ctx, 0, resultKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		cached++
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"db_keys":        dbSize,
		"cached_results": cached,
	}

	return stats, nil
}
