package storage

import (
	"context"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"
)

func (s *SupabaseUploader) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	_, err := s.sbClient.ListFiles(s.bucket, "", storage_go.FileSearchOptions{Limit: 1})
	if err != nil {
		status["supabase"] = fmt.Sprintf("unhealthy: %v", err)
	} else {
		status["supabase"] = "healthy"
	}

	return status
}

func (s *S3Uploader) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if err := s.headBucket(ctx); err != nil {
		status["s3"] = fmt.Sprintf("unhealthy: %v", err)
	} else {
		status["s3"] = "healthy"
	}

	return status
}
