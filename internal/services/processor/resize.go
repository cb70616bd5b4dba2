package processor

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/imgres/internal/models"
)

// targetSize truncates like the archive entry names do, but never goes
// below one pixel.
func targetSize(bounds image.Rectangle, scale float32) (int, int) {
	w := int(models.ScaleDimension(uint32(bounds.Dx()), scale))
	h := int(models.ScaleDimension(uint32(bounds.Dy()), scale))
	return max(w, 1), max(h, 1)
}

func (p *ImageProcessor) resizeImage(img image.Image, scale float32) image.Image {
	w, h := targetSize(img.Bounds(), scale)
	return imaging.Resize(img, w, h, p.filter)
}
