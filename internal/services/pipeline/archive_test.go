package pipeline

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phambaophuc/imgres/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func readEntries(t *testing.T, data []byte) ([]string, map[string][]byte) {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	contents := make(map[string][]byte)
	for _, f := range zr.File {
		assert.Equal(t, zip.Store, f.Method, f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		names = append(names, f.Name)
		contents[f.Name] = b
	}
	return names, contents
}

func TestArchiveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	archive, err := NewArchive(dir, zap.NewNop())
	require.NoError(t, err)
	defer archive.Close()

	assert.Equal(t, dir, filepath.Dir(archive.Path()))
	assert.True(t, strings.HasSuffix(archive.Path(), ".zip"))

	require.NoError(t, archive.Add(models.VariantOutput{Filename: "@20x10.png", Data: []byte("first")}))
	require.NoError(t, archive.Add(models.VariantOutput{Filename: "@40x20.png", Data: []byte("second")}))

	data, err := archive.Bytes()
	require.NoError(t, err)

	names, contents := readEntries(t, data)
	assert.Equal(t, []string{"@20x10.png", "@40x20.png"}, names)
	assert.Equal(t, []byte("second"), contents["@40x20.png"])

	assert.Error(t, archive.Add(models.VariantOutput{Filename: "late.png"}))
}

func TestArchiveCloseRemovesFile(t *testing.T) {
	t.Run("after bytes", func(t *testing.T) {
		archive, err := NewArchive(t.TempDir(), zap.NewNop())
		require.NoError(t, err)

		_, err = archive.Bytes()
		require.NoError(t, err)

		archive.Close()
		_, err = os.Stat(archive.Path())
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("mid write", func(t *testing.T) {
		archive, err := NewArchive(t.TempDir(), zap.NewNop())
		require.NoError(t, err)
		require.NoError(t, archive.Add(models.VariantOutput{Filename: "a.png", Data: []byte("a")}))

		archive.Close()
		archive.Close()

		_, err = os.Stat(archive.Path())
		assert.True(t, os.IsNotExist(err))
	})
}

func TestArchiveUniqueNames(t *testing.T) {
	dir := t.TempDir()

	a, err := NewArchive(dir, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	b, err := NewArchive(dir, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.Path(), b.Path())
}

func TestNewArchiveMissingDir(t *testing.T) {
	_, err := NewArchive(filepath.Join(t.TempDir(), "missing"), zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStorage)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestArchiveCloseReleasesFileAfterFinalizeError(t *testing.T) {
	archive, err := NewArchive(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	archive.writer = zip.NewWriter(failingWriter{})
	require.NoError(t, archive.Add(models.VariantOutput{Filename: "@2x1.png", Data: []byte("x")}))

	_, err = archive.Bytes()
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStorage)

	archive.Close()

	assert.ErrorIs(t, archive.file.Close(), os.ErrClosed)
	_, err = os.Stat(archive.Path())
	assert.True(t, os.IsNotExist(err))
}
