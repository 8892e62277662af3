package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phambaophuc/image-validator/pkg/utils"
)

// Upload stores an original upload and returns its storage key.
func (s *StorageService) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	if s.sbClient == nil {
		return "", ErrNotConfigured
	}

	key := utils.GenerateStorageKey(filename)

	_, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	return key, nil
}

// Delete removes file from Supabase Storage
func (s *StorageService) Delete(ctx context.Context, path string) error {
	if s.sbClient == nil {
		return ErrNotConfigured
	}
	_, err := s.sbClient.RemoveFile(s.bucket, []string{path})
	return err
}
