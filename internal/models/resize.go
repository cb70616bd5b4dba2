package models

import (
	"fmt"
	"image"
	"math"
)

// VariantSpec is one requested output.
type VariantSpec struct {
	Scale float32 `json:"scale"`
	UseAI bool    `json:"use_ai"`
}

// DefaultMaxOutputPixels bounds a single variant to 8192x8192.
const DefaultMaxOutputPixels = 8192 * 8192

// ResizeRequest is built once per call by the multipart extractor and is
// read-only afterwards.
type ResizeRequest struct {
	Image        image.Image
	Width        uint32
	Height       uint32
	TargetFormat ImageFormat
	Variants     []VariantSpec

	// MaxOutputPixels caps width*height of every variant of Image.
	// Zero means DefaultMaxOutputPixels.
	MaxOutputPixels uint64
}

// Validate rejects a request with no variants or with a variant whose
// scale is zero, negative or not a number, or whose output would exceed
// the pixel cap.
func (r *ResizeRequest) Validate() error {
	if r.Image == nil {
		return fmt.Errorf("%w: upload image is empty", ErrInvalidInput)
	}
	if len(r.Variants) == 0 {
		return fmt.Errorf("%w: sizes must not be empty", ErrInvalidInput)
	}
	for i, v := range r.Variants {
		s := float64(v.Scale)
		if s == 0 || s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: sizes[%d] has invalid scale %v", ErrInvalidInput, i, v.Scale)
		}
	}

	limit := r.MaxOutputPixels
	if limit == 0 {
		limit = DefaultMaxOutputPixels
	}
	bounds := r.Image.Bounds()
	for i, v := range r.Variants {
		if pixels := OutputPixels(bounds, v.Scale); pixels > limit {
			return fmt.Errorf("%w: sizes[%d] scale %v produces %d pixels, limit is %d",
				ErrInvalidInput, i, v.Scale, pixels, limit)
		}
	}
	return nil
}

// OutputPixels is the pixel count of bounds resampled by scale, with each
// side at least one pixel.
func OutputPixels(bounds image.Rectangle, scale float32) uint64 {
	w := max(ScaleDimension(uint32(bounds.Dx()), scale), 1)
	h := max(ScaleDimension(uint32(bounds.Dy()), scale), 1)
	return uint64(w) * uint64(h)
}

// AICount is the number of variants that go through the upscale provider.
func (r *ResizeRequest) AICount() int {
	n := 0
	for _, v := range r.Variants {
		if v.UseAI {
			n++
		}
	}
	return n
}

// HasAI reports whether any variant asks for the upscale provider.
func (r *ResizeRequest) HasAI() bool {
	return r.AICount() > 0
}

// ScaleDimension multiplies in float32 and truncates, matching the archive
// entry names.
func ScaleDimension(dim uint32, scale float32) uint32 {
	v := float32(dim) * scale
	if v <= 0 || v != v {
		return 0
	}
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// VariantFilename names the archive entry for a variant,
// e.g. "@200x100.png" for 100x50 at scale 2.
func VariantFilename(width, height uint32, v VariantSpec, format ImageFormat) string {
	return fmt.Sprintf("@%dx%d.%s",
		ScaleDimension(width, v.Scale),
		ScaleDimension(height, v.Scale),
		format.Extension(),
	)
}

// VariantOutput is the encoded bytes of one variant.
type VariantOutput struct {
	Filename string
	Data     []byte
}

// CreditAccount identifies the caller whose credits pay for AI variants.
// A nil account means the call is unauthenticated.
type CreditAccount struct {
	Identity string
}
