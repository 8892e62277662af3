package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/image-validator/internal/models"
	"github.com/phambaophuc/image-validator/internal/services/checker"
)

func (q *QueueService) processJob(ctx context.Context, job *models.ValidationJob) (*models.ValidationResult, error) {
	data, err := q.store.Download(ctx, job.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download upload: %w", err)
	}

	outcome, err := q.checker.Check(ctx, job.ID, checker.Upload{
		Filename: job.Filename,
		Data:     data,
	})
	if err != nil {
		return nil, err
	}

	return outcome.Result, nil
}
