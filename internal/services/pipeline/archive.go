package pipeline

import (
	"archive/zip"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/phambaophuc/imgres/internal/models"
	"go.uber.org/zap"
)

// Archive writes variants as stored (uncompressed) zip entries into a
// uniquely named temporary file. Close removes the file and must be
// deferred by the owner right after NewArchive succeeds.
type Archive struct {
	path       string
	file       *os.File
	writer     *zip.Writer
	finished   bool
	fileClosed bool
	closed     bool
	logger     *zap.Logger
}

func NewArchive(dir string, logger *zap.Logger) (*Archive, error) {
	path := filepath.Join(dir, uuid.New().String()+".zip")

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create archive file: %v", models.ErrStorage, err)
	}

	return &Archive{
		path:   path,
		file:   file,
		writer: zip.NewWriter(file),
		logger: logger,
	}, nil
}

func (a *Archive) Path() string {
	return a.path
}

// Add appends one entry. Entries keep the order in which they are added.
func (a *Archive) Add(out models.VariantOutput) error {
	if a.finished {
		return fmt.Errorf("%w: archive already finalized", models.ErrStorage)
	}

	w, err := a.writer.CreateHeader(&zip.FileHeader{
		Name:   out.Filename,
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create entry %s: %v", models.ErrStorage, out.Filename, err)
	}

	if _, err := w.Write(out.Data); err != nil {
		return fmt.Errorf("%w: failed to write entry %s: %v", models.ErrStorage, out.Filename, err)
	}

	return nil
}

// Bytes finalizes the archive and reads the finished file back.
func (a *Archive) Bytes() ([]byte, error) {
	if !a.finished {
		a.finished = true
		if err := a.writer.Close(); err != nil {
			return nil, fmt.Errorf("%w: failed to finalize archive: %v", models.ErrStorage, err)
		}
		if err := a.closeFile(); err != nil {
			return nil, fmt.Errorf("%w: failed to close archive file: %v", models.ErrStorage, err)
		}
	}

	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read archive: %v", models.ErrStorage, err)
	}

	return data, nil
}

// Close removes the temporary file. It never fails; a removal error is
// only logged. Calling it more than once is harmless.
func (a *Archive) Close() {
	if a.closed {
		return
	}
	a.closed = true

	a.finished = true
	if err := a.closeFile(); err != nil {
		a.logger.Warn("Failed to close temporary archive", zap.String("path", a.path), zap.Error(err))
	}

	if err := os.Remove(a.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		a.logger.Warn("Failed to remove temporary archive",
			zap.String("path", a.path),
			zap.Error(err),
		)
	}
}

// closeFile closes the descriptor at most once, whatever happened to the
// zip writer before.
func (a *Archive) closeFile() error {
	if a.fileClosed {
		return nil
	}
	a.fileClosed = true
	return a.file.Close()
}
