package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/phambaophuc/imgres/internal/config"
	"github.com/phambaophuc/imgres/internal/models"
	"github.com/phambaophuc/imgres/pkg/utils"
	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"
)

type SupabaseUploader struct {
	sbClient  *storage_go.Client
	baseURL   string
	bucket    string
	keyPrefix string
	logger    *zap.Logger
}

func NewSupabaseUploader(cfg config.SupabaseConfig, keyPrefix string, logger *zap.Logger) *SupabaseUploader {
	baseURL := strings.TrimRight(cfg.URL, "/")

	return &SupabaseUploader{
		sbClient:  storage_go.NewClient(baseURL+"/storage/v1", cfg.KEY, nil),
		baseURL:   baseURL,
		bucket:    cfg.BUCKET,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

// Upload uploads file to Supabase Storage and returns its public URL.
func (s *SupabaseUploader) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	key := utils.StagingKey(s.keyPrefix, filename)
	upsert := true

	_, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		s.logger.Error("Failed to stage image",
			zap.String("bucket", s.bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: failed to upload to supabase: %v", models.ErrStorage, err)
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, key)
	s.logger.Debug("Image staged", zap.String("key", key), zap.Int("bytes", len(data)))

	return publicURL, nil
}
