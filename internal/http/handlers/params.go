package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/imgres/internal/models"
	"go.uber.org/zap"
)

const (
	blobField   = "blob"
	sizesField  = "sizes"
	widthField  = "width"
	heightField = "height"

	// non-blob fields are tiny; anything larger is treated as malformed
	maxFieldSize = 64 << 10
)

type ImageDecoder interface {
	Decode(data []byte) (image.Image, string, error)
}

// parseResizeRequest reads the multipart body part by part. Malformed
// sizes, width or height fall back to their zero values; a missing or
// undecodable blob is the only parse error. The result is not validated.
func (h *ResizeHandler) parseResizeRequest(c *gin.Context) (*models.ResizeRequest, error) {
	req := &models.ResizeRequest{
		TargetFormat:    models.FormatPNG,
		MaxOutputPixels: uint64(max(h.config.Storage.MaxOutputPixels, 0)),
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.Storage.MaxFileSize)

	reader, err := c.Request.MultipartReader()
	if err != nil {
		h.logger.Debug("Request body is not multipart", zap.Error(err))
		return req, nil
	}

	var blob []byte
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if tooLarge := bodyTooLarge(err); tooLarge != nil {
				return nil, tooLarge
			}
			return nil, fmt.Errorf("%w: failed to read form data: %v", models.ErrInvalidInput, err)
		}

		switch part.FormName() {
		case blobField:
			if f, ok := models.FormatFromContentType(part.Header.Get("Content-Type")); ok {
				req.TargetFormat = f
			}
			blob, err = io.ReadAll(part)
			if err != nil {
				part.Close()
				if tooLarge := bodyTooLarge(err); tooLarge != nil {
					return nil, tooLarge
				}
				return nil, fmt.Errorf("%w: failed to read upload image: %v", models.ErrInvalidInput, err)
			}
		case sizesField:
			req.Variants = parseSizes(readField(part))
		case widthField:
			req.Width = parseDimension(readField(part))
		case heightField:
			req.Height = parseDimension(readField(part))
		default:
			_, _ = io.Copy(io.Discard, part)
		}
		part.Close()
	}

	if blob == nil {
		return req, nil
	}

	img, sniffed, err := h.decoder.Decode(blob)
	if err != nil {
		return nil, err
	}
	req.Image = img

	h.logger.Debug("Parsed resize request",
		zap.String("decoded_as", sniffed),
		zap.Stringer("target_format", req.TargetFormat),
		zap.Uint32("width", req.Width),
		zap.Uint32("height", req.Height),
		zap.Int("variants", len(req.Variants)),
	)

	return req, nil
}

func readField(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxFieldSize))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// sizeField mirrors models.VariantSpec with both fields required.
type sizeField struct {
	Scale *float32 `json:"scale"`
	UseAI *bool    `json:"use_ai"`
}

// parseSizes returns nil unless every entry carries a non-null scale and
// use_ai.
func parseSizes(value string) []models.VariantSpec {
	var fields []sizeField
	if err := json.Unmarshal([]byte(value), &fields); err != nil {
		return nil
	}

	sizes := make([]models.VariantSpec, 0, len(fields))
	for _, f := range fields {
		if f.Scale == nil || f.UseAI == nil {
			return nil
		}
		sizes = append(sizes, models.VariantSpec{Scale: *f.Scale, UseAI: *f.UseAI})
	}
	return sizes
}

func bodyTooLarge(err error) error {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		return nil
	}
	return fmt.Errorf("%w: request body exceeds %d bytes", models.ErrPayloadTooLarge, maxErr.Limit)
}

func parseDimension(value string) uint32 {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}
