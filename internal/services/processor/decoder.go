package processor

import (
	"bytes"
	"fmt"
	"image"

	// decoders registered for format sniffing
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/phambaophuc/imgres/internal/models"
)

// Decode sniffs the encoding of data and decodes it. The declared content
// type of the upload is not consulted.
func (p *ImageProcessor) Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: upload image is empty", models.ErrInvalidInput)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: upload image format is unknown: %v", models.ErrInvalidInput, err)
	}

	return img, format, nil
}
