package processor

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/imgres/internal/models"
)

const defaultJPEGQuality = 90

// ImageProcessor decodes uploads and produces locally resampled variants.
// It holds no per-request state and is safe for concurrent use.
type ImageProcessor struct {
	jpegQuality     int
	filter          imaging.ResampleFilter
	maxOutputPixels uint64
}

type Option func(*ImageProcessor)

// WithMaxOutputPixels caps width*height of a resampled variant.
func WithMaxOutputPixels(n uint64) Option {
	return func(p *ImageProcessor) {
		if n > 0 {
			p.maxOutputPixels = n
		}
	}
}

func NewImageProcessor(opts ...Option) *ImageProcessor {
	p := &ImageProcessor{
		jpegQuality:     defaultJPEGQuality,
		filter:          imaging.Lanczos,
		maxOutputPixels: models.DefaultMaxOutputPixels,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Resize scales img by scale and encodes the result as format.
func (p *ImageProcessor) Resize(img image.Image, format models.ImageFormat, scale float32) ([]byte, error) {
	if !format.Supported() {
		return nil, fmt.Errorf("%w: image format %s is not supported", models.ErrUnsupportedFormat, format)
	}

	if pixels := models.OutputPixels(img.Bounds(), scale); pixels > p.maxOutputPixels {
		return nil, fmt.Errorf("%w: scale %v produces %d pixels, limit is %d",
			models.ErrInvalidInput, scale, pixels, p.maxOutputPixels)
	}

	resized := p.resizeImage(img, scale)

	buffer := &bytes.Buffer{}
	if err := p.encodeImage(buffer, resized, format); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return buffer.Bytes(), nil
}

// Encode writes img unchanged in the given format.
func (p *ImageProcessor) Encode(img image.Image, format models.ImageFormat) ([]byte, error) {
	buffer := &bytes.Buffer{}
	if err := p.encodeImage(buffer, img, format); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
