package models

import "strings"

// ImageFormat is the encoding of the uploaded image and of every variant
// written into the archive.
type ImageFormat int

const (
	FormatPNG ImageFormat = iota
	FormatJPEG
	FormatWEBP
	FormatGIF
	FormatBMP
	FormatTIFF
)

var formatExtensions = map[ImageFormat][]string{
	FormatPNG:  {"png"},
	FormatJPEG: {"jpg", "jpeg"},
	FormatWEBP: {"webp"},
	FormatGIF:  {"gif"},
	FormatBMP:  {"bmp"},
	FormatTIFF: {"tif", "tiff"},
}

var formatMimeTypes = map[ImageFormat]string{
	FormatPNG:  "image/png",
	FormatJPEG: "image/jpeg",
	FormatWEBP: "image/webp",
	FormatGIF:  "image/gif",
	FormatBMP:  "image/bmp",
	FormatTIFF: "image/tiff",
}

// SupportedFormats are the formats the resampler can encode.
var SupportedFormats = []ImageFormat{FormatPNG, FormatJPEG, FormatWEBP}

func (f ImageFormat) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatWEBP:
		return "webp"
	case FormatGIF:
		return "gif"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	default:
		return "unknown"
	}
}

// Extension returns the first registered file extension, without the dot.
func (f ImageFormat) Extension() string {
	if exts, ok := formatExtensions[f]; ok {
		return exts[0]
	}
	return "bin"
}

func (f ImageFormat) MimeType() string {
	if mt, ok := formatMimeTypes[f]; ok {
		return mt
	}
	return "application/octet-stream"
}

// Supported reports whether the format can be produced by the resampler.
func (f ImageFormat) Supported() bool {
	for _, s := range SupportedFormats {
		if s == f {
			return true
		}
	}
	return false
}

// FormatFromExtension maps a file extension (with or without the dot) to a format.
func FormatFromExtension(ext string) (ImageFormat, bool) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	for f, exts := range formatExtensions {
		for _, e := range exts {
			if e == ext {
				return f, true
			}
		}
	}
	return 0, false
}

// FormatFromContentType looks at the subtype of a content type such as
// "image/webp" and maps it like a file extension. Parameters are ignored.
func FormatFromContentType(contentType string) (ImageFormat, bool) {
	i := strings.Index(contentType, "/")
	if i < 0 {
		return 0, false
	}
	subtype := contentType[i+1:]
	if j := strings.Index(subtype, ";"); j >= 0 {
		subtype = subtype[:j]
	}
	return FormatFromExtension(subtype)
}
