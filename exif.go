// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imageorient

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

const tagOrientation = 0x0112

var exifIdentifier = []byte("Exif\x00\x00")

// ReadOrientation reads the EXIF orientation value of the primary image in r.
// r must be positioned at the start of the image.
//
// It returns found=false without error if the image has no EXIF block, if
// the block has no orientation tag, or if the tag value is not an unsigned integer.
// A malformed EXIF block returns an *ExifError.
func ReadOrientation(r io.ReadSeeker, f ImageFormat) (value uint32, found bool, err error) {
	return readOrientation(r, f, func(string, ...any) {})
}

func readOrientation(r io.ReadSeeker, f ImageFormat, warnf func(string, ...any)) (value uint32, found bool, err error) {
	limit := maxIFDs
	if f == TIFF {
		limit = maxTIFFIFDs
	}
	handleEXIF := func(payload io.ReadSeeker) error {
		var err error
		value, found, err = parseOrientation(payload, limit, warnf)
		return err
	}

	if err := walkContainer(r, f, handleEXIF); err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			return 0, false, err
		}
		return 0, false, &ExifError{Format: f, Err: err}
	}

	return value, found, nil
}

// parseOrientation parses the TIFF structured EXIF payload in r and looks up
// the orientation tag in IFD0.
func parseOrientation(r io.ReadSeeker, ifdLimit int, warnf func(string, ...any)) (uint32, bool, error) {
	c, err := newIFDChecker(r, ifdLimit)
	if err != nil {
		return 0, false, err
	}
	if err := c.check(); err != nil {
		return 0, false, err
	}
	if err := c.rewind(); err != nil {
		return 0, false, err
	}

	// goexif reads all of its input; limit it to the IFDs and their values.
	x, err := exif.Decode(io.LimitReader(r, c.extent))
	if err != nil {
		if x == nil || exif.IsCriticalError(err) {
			return 0, false, err
		}
		// A broken EXIF, GPS or Interop sub-IFD; IFD0 is intact.
		warnf("imageorient: ignoring EXIF error: %v", err)
	}
	if x.Tiff == nil || len(x.Tiff.Dirs) == 0 {
		return 0, false, nil
	}

	// IFD0 is the primary image. IFD1 holds the thumbnail and may have
	// an orientation of its own.
	for _, tag := range x.Tiff.Dirs[0].Tags {
		if tag.Id != tagOrientation {
			continue
		}
		switch tag.Type {
		case tiff.DTByte, tiff.DTShort, tiff.DTLong:
		default:
			warnf("imageorient: orientation tag has unsupported type %d", tag.Type)
			return 0, false, nil
		}
		v, err := tag.Int64(0)
		if err != nil {
			warnf("imageorient: orientation tag: %v", err)
			return 0, false, nil
		}
		return uint32(v), true, nil
	}

	return 0, false, nil
}

// container walks an image container looking for the EXIF payload.
type container interface {
	walk() error
}

type baseContainer struct {
	*streamReader
	handleEXIF func(payload io.ReadSeeker) error
}

// handlePayload reads length bytes at the current position and passes
// them to the EXIF handler.
func (b *baseContainer) handlePayload(length int64) error {
	return b.handlePayloadFrom(b.r, length)
}

func (b *baseContainer) handlePayloadFrom(r io.Reader, length int64) error {
	payload, err := bufferedReader(r, length)
	if err != nil {
		if isInvalidFormat(err) {
			return fmt.Errorf("EXIF payload: %w", err)
		}
		return &IOError{Op: "read", Err: err}
	}
	defer payload.Close()

	// Some writers keep the JPEG "Exif\0\0" identifier in front of the TIFF header.
	prefix := make([]byte, len(exifIdentifier))
	if n, _ := io.ReadFull(payload, prefix); n != len(prefix) || !bytes.Equal(prefix, exifIdentifier) {
		if _, err := payload.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}

	return b.handleEXIF(payload)
}

// walkContainer finds the EXIF payload of the container format f in r and
// calls handleEXIF with it. Reaching the end of the stream without finding
// EXIF is not an error.
func walkContainer(r io.ReadSeeker, f ImageFormat, handleEXIF func(payload io.ReadSeeker) error) (err error) {
	base := &baseContainer{
		streamReader: newStreamReader(r, binary.BigEndian),
		handleEXIF:   handleEXIF,
	}

	defer func() {
		if rec := recover(); rec != nil {
			if rec == errStop {
				err = base.readErr
			} else if errp, ok := rec.(error); ok {
				err = errp
			} else {
				err = fmt.Errorf("unknown panic: %v", rec)
			}
			if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
				// Ran off the end of the container outside of any EXIF payload.
				err = nil
			} else if err == base.readErr {
				err = &IOError{Op: "read", Err: err}
			}
		}
	}()

	var c container
	switch f {
	case JPEG:
		c = &containerJPEG{baseContainer: base}
	case PNG:
		c = &containerPNG{baseContainer: base}
	case TIFF:
		c = &containerTIFF{baseContainer: base}
	case WebP:
		c = &containerWebP{baseContainer: base}
	case AVIF:
		c = &containerAVIF{baseContainer: base}
	default:
		return nil
	}

	return c.walk()
}
