// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imageorient

import (
	"errors"
	"fmt"
)

var (
	// ErrFormatUnrecognized is returned when the image format could not be
	// detected from the image bytes or the file extension.
	ErrFormatUnrecognized = errors.New("imageorient: unrecognized image format")

	// ErrNoDecoder is wrapped in a DecodeError when no pixel decoder is
	// registered for the image format.
	ErrNoDecoder = errors.New("imageorient: no decoder registered")

	// Internal error used when the container structure around the EXIF
	// payload is broken.
	errInvalidFormat = errors.New("imageorient: invalid format")
)

// DecodeError is returned when the pixel decoder rejected the image data.
type DecodeError struct {
	Format ImageFormat
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("imageorient: decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ExifError is returned when an EXIF block is present but malformed.
// Images without any EXIF block never produce this error.
type ExifError struct {
	Format ImageFormat
	Err    error
}

func (e *ExifError) Error() string {
	return fmt.Sprintf("imageorient: read EXIF from %s: %v", e.Format, e.Err)
}

func (e *ExifError) Unwrap() error {
	return e.Err
}

// UnknownOrientationError is returned when the EXIF orientation tag holds a
// value outside 1..8.
type UnknownOrientationError struct {
	Value uint32
}

func (e *UnknownOrientationError) Error() string {
	return fmt.Sprintf("imageorient: unknown EXIF orientation tag `%d`", e.Value)
}

// IOError is returned when the underlying byte source failed to open, read or seek.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("imageorient: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err was caused by the pixel decoder.
func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

// IsExifError reports whether err was caused by a malformed EXIF block.
func IsExifError(err error) bool {
	var e *ExifError
	return errors.As(err, &e)
}

// IsUnknownOrientation reports whether err was caused by an orientation
// value outside 1..8.
func IsUnknownOrientation(err error) bool {
	var e *UnknownOrientationError
	return errors.As(err, &e)
}

func newInvalidFormatError(err error) error {
	return fmt.Errorf("%w: %w", errInvalidFormat, err)
}

func newInvalidFormatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidFormat, fmt.Sprintf(format, args...))
}

func isInvalidFormat(err error) bool {
	return errors.Is(err, errInvalidFormat)
}
