// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package imageorient decodes images and applies the EXIF orientation of the
// primary image, so the returned pixels are in their intended viewing orientation.
package imageorient

import (
	"bytes"
	"errors"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"sync"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// DecodeFunc decodes the pixels of a single image from r.
type DecodeFunc func(r io.Reader) (image.Image, error)

var (
	decodersMu sync.RWMutex
	decoders   = map[ImageFormat]DecodeFunc{
		JPEG: jpeg.Decode,
		PNG:  png.Decode,
		GIF:  gif.Decode,
		BMP:  bmp.Decode,
		TIFF: tiff.Decode,
		WebP: webp.Decode,
	}
)

// RegisterDecoder registers the pixel decoder for format f, replacing any
// existing one. There is no built-in AVIF decoder.
// RegisterDecoder is typically called from an init function.
func RegisterDecoder(f ImageFormat, fn DecodeFunc) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders[f] = fn
}

func registeredDecoder(f ImageFormat) DecodeFunc {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	return decoders[f]
}

// Options contains the options for the Decode function.
type Options struct {
	// The Reader (typically a *os.File) to read the image from.
	// It is read from the start twice: once to decode the pixels,
	// once to read the EXIF orientation.
	R io.ReadSeeker

	// The image format in R.
	// If set to ImageFormatAuto, the format is detected from the first bytes of R.
	ImageFormat ImageFormat

	// Decoders overrides the registered pixel decoders for this call.
	Decoders map[ImageFormat]DecodeFunc

	// Warnf will be called for each warning, e.g. an orientation tag of an unexpected type.
	Warnf func(string, ...any)
}

func (o Options) decoder(f ImageFormat) DecodeFunc {
	if fn, ok := o.Decoders[f]; ok && fn != nil {
		return fn
	}
	return registeredDecoder(f)
}

// Result contains the result of a Decode operation.
type Result struct {
	// Image is the decoded image in its display orientation.
	Image image.Image

	// ImageFormat is the format the image was decoded as.
	ImageFormat ImageFormat

	// Orientation is the EXIF orientation value found, 0 if none.
	Orientation uint32

	// Transform is the transform applied to the decoded pixels.
	Transform Transform
}

// source is the byte source shared by the two phases of a Decode:
// the pixel decoder reads it forward from the start, and it must be
// rewound explicitly before the EXIF metadata is read.
type source struct {
	r io.ReadSeeker
}

func (s *source) decodePhase() io.Reader {
	return s.r
}

func (s *source) rewind() error {
	if _, err := s.r.Seek(0, io.SeekStart); err != nil {
		return &IOError{Op: "seek", Err: err}
	}
	return nil
}

// Decode decodes the image in opts.R and applies its EXIF orientation.
// No image is returned on error.
func Decode(opts Options) (Result, error) {
	if opts.R == nil {
		return Result{}, errors.New("imageorient: no reader provided")
	}
	if opts.Warnf == nil {
		opts.Warnf = func(string, ...any) {}
	}

	src := &source{r: opts.R}

	format := opts.ImageFormat
	if format == ImageFormatAuto {
		var err error
		if format, err = sniff(src); err != nil {
			return Result{}, err
		}
	}

	decode := opts.decoder(format)
	if decode == nil {
		return Result{}, &DecodeError{Format: format, Err: ErrNoDecoder}
	}

	img, err := decode(src.decodePhase())
	if err != nil {
		return Result{}, &DecodeError{Format: format, Err: err}
	}

	result := Result{Image: img, ImageFormat: format}

	if !format.SupportsEXIF() {
		return result, nil
	}

	if err := src.rewind(); err != nil {
		return Result{}, err
	}

	v, found, err := readOrientation(src.r, format, opts.Warnf)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return result, nil
	}

	t, err := ResolveOrientation(v)
	if err != nil {
		return Result{}, err
	}

	result.Orientation = v
	result.Transform = t
	result.Image = Apply(img, t)

	return result, nil
}

// sniff detects the image format from the first bytes of s and rewinds it.
func sniff(s *source) (ImageFormat, error) {
	header := make([]byte, sniffLen)
	n, err := io.ReadFull(s.r, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return ImageFormatAuto, &IOError{Op: "read", Err: err}
	}
	f, err := FormatFromBytes(header[:n])
	if err != nil {
		return ImageFormatAuto, err
	}
	if err := s.rewind(); err != nil {
		return ImageFormatAuto, err
	}
	return f, nil
}

// Load decodes the image in r, stored in format f, and applies its EXIF orientation.
func Load(r io.ReadSeeker, f ImageFormat) (image.Image, error) {
	res, err := Decode(Options{R: r, ImageFormat: f})
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// LoadFromMemory is like Load, but detects the format from the image bytes.
func LoadFromMemory(b []byte) (image.Image, error) {
	f, err := FormatFromBytes(b)
	if err != nil {
		return nil, err
	}
	return LoadFromMemoryWithFormat(b, f)
}

// LoadFromMemoryWithFormat is like Load, reading the image from b.
func LoadFromMemoryWithFormat(b []byte, f ImageFormat) (image.Image, error) {
	return Load(bytes.NewReader(b), f)
}

// Open opens the named file and loads it, inferring the image format from
// the file extension.
func Open(filename string) (image.Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}
	defer file.Close()

	f, err := FormatFromPath(filename)
	if err != nil {
		return nil, err
	}

	return Load(file, f)
}
