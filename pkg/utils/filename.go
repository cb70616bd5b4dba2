package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateFilename returns "<uuid>.<ext>".
func GenerateFilename(ext string) string {
	return fmt.Sprintf("%s.%s", uuid.New().String(), strings.TrimPrefix(ext, "."))
}

// StagingKey places filename under the temporary staging prefix.
func StagingKey(prefix, filename string) string {
	return prefix + strings.TrimPrefix(filename, "/")
}
