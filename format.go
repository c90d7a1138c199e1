// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imageorient

import (
	"bytes"
	"path/filepath"
	"strings"
)

const (
	// ImageFormatAuto signals that the image format should be detected from the image bytes.
	ImageFormatAuto ImageFormat = iota
	// JPEG is the JPEG image format.
	JPEG
	// PNG is the PNG image format.
	PNG
	// GIF is the GIF image format.
	GIF
	// BMP is the BMP image format.
	BMP
	// TIFF is the TIFF image format.
	TIFF
	// WebP is the WebP image format.
	WebP
	// AVIF is the AVIF image format (ISO Base Media File Format with AV1 codec).
	AVIF
)

// ImageFormat is the image container format.
//
//go:generate stringer -type=ImageFormat
type ImageFormat int

// SupportsEXIF reports whether the container format is known to carry EXIF metadata.
func (f ImageFormat) SupportsEXIF() bool {
	switch f {
	case JPEG, PNG, TIFF, WebP, AVIF:
		return true
	default:
		return false
	}
}

var extensionFormats = map[string]ImageFormat{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".jpe":  JPEG,
	".jfif": JPEG,
	".jif":  JPEG,
	".png":  PNG,
	".gif":  GIF,
	".bmp":  BMP,
	".dib":  BMP,
	".tif":  TIFF,
	".tiff": TIFF,
	".webp": WebP,
	".avif": AVIF,
}

// FormatFromPath returns the image format inferred from the extension of filename.
func FormatFromPath(filename string) (ImageFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if f, ok := extensionFormats[ext]; ok {
		return f, nil
	}
	return ImageFormatAuto, ErrFormatUnrecognized
}

var (
	magicPNG   = []byte("\x89PNG\r\n\x1a\n")
	magicGIF87 = []byte("GIF87a")
	magicGIF89 = []byte("GIF89a")
	magicTIFFI = []byte("II*\x00")
	magicTIFFM = []byte("MM\x00*")
)

// sniffLen is the number of leading bytes FormatFromBytes looks at.
const sniffLen = 16

// FormatFromBytes detects the image format from the magic numbers at the start of b.
func FormatFromBytes(b []byte) (ImageFormat, error) {
	switch {
	case len(b) >= 3 && b[0] == 0xff && b[1] == 0xd8 && b[2] == 0xff:
		return JPEG, nil
	case bytes.HasPrefix(b, magicPNG):
		return PNG, nil
	case bytes.HasPrefix(b, magicGIF87), bytes.HasPrefix(b, magicGIF89):
		return GIF, nil
	case bytes.HasPrefix(b, magicTIFFI), bytes.HasPrefix(b, magicTIFFM):
		return TIFF, nil
	case len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WEBP":
		return WebP, nil
	case len(b) >= 12 && string(b[4:8]) == "ftyp" && (string(b[8:12]) == "avif" || string(b[8:12]) == "avis"):
		return AVIF, nil
	case len(b) >= 2 && b[0] == 'B' && b[1] == 'M':
		return BMP, nil
	}
	return ImageFormatAuto, ErrFormatUnrecognized
}
