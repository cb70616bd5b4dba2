package storage

import (
	"context"
	"fmt"

	"github.com/phambaophuc/imgres/internal/config"
	"go.uber.org/zap"
)

// Uploader stages bytes under a temporary key and returns a URL the upscale
// provider can fetch. Implementations are safe for concurrent use.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (string, error)
	HealthCheck(ctx context.Context) map[string]string
}

// NewUploader builds the staging backend selected by cfg.Staging.Backend.
func NewUploader(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Uploader, error) {
	switch cfg.Staging.Backend {
	case config.StagingSupabase:
		return NewSupabaseUploader(cfg.Supabase, cfg.Staging.KeyPrefix, logger), nil
	case config.StagingS3:
		return NewS3Uploader(ctx, cfg.S3, cfg.Staging.KeyPrefix, logger)
	default:
		return nil, fmt.Errorf("unknown staging backend %q", cfg.Staging.Backend)
	}
}
