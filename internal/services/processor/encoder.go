package processor

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/phambaophuc/imgres/internal/models"
)

func (p *ImageProcessor) encodeImage(w io.Writer, img image.Image, format models.ImageFormat) error {
	switch format {
	case models.FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: p.jpegQuality})
	case models.FormatPNG:
		return png.Encode(w, img)
	case models.FormatWEBP:
		return webp.Encode(w, img, &webp.Options{Lossless: true})
	default:
		return fmt.Errorf("%w: image format %s is not supported", models.ErrUnsupportedFormat, format)
	}
}
