// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imageorient

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/rwcarlsen/goexif/tiff"
)

const (
	// EXIF payloads carry IFD0 and the thumbnail IFD1.
	maxIFDs = 8

	// A multi-page TIFF file has one IFD per page.
	maxTIFFIFDs = 4096

	ifdEntrySize = 12
)

var tiffTypeSize = map[tiff.DataType]uint64{
	tiff.DTByte:      1,
	tiff.DTAscii:     1,
	tiff.DTShort:     2,
	tiff.DTLong:      4,
	tiff.DTRational:  8,
	tiff.DTSByte:     1,
	tiff.DTUndefined: 1,
	tiff.DTSShort:    2,
	tiff.DTSLong:     4,
	tiff.DTSRational: 8,
	tiff.DTFloat:     4,
	tiff.DTDouble:    8,
}

// Exif, GPS and Interop sub-IFD pointers.
var exifIFDPointers = map[uint16]bool{
	0x8769: true,
	0x8825: true,
	0xa005: true,
}

// ifdChecker walks the IFD structure of a TIFF structured payload and
// bounds every IFD and tag value by the payload size.
// goexif trusts counts and next-IFD offsets, so this runs before it.
type ifdChecker struct {
	r         io.ReadSeeker
	base      int64 // Position of the TIFF header in r.
	size      int64 // Number of bytes from base to the end of r.
	byteOrder binary.ByteOrder
	maxIFDs   int

	// extent is the end of the furthest IFD or tag value goexif will read.
	extent int64
}

func newIFDChecker(r io.ReadSeeker, ifdLimit int) (*ifdChecker, error) {
	base, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, &IOError{Op: "seek", Err: err}
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, &IOError{Op: "seek", Err: err}
	}
	return &ifdChecker{r: r, base: base, size: end - base, maxIFDs: ifdLimit}, nil
}

func (c *ifdChecker) readAt(off int64, b []byte) error {
	if off < 0 || off+int64(len(b)) > c.size {
		return newInvalidFormatErrorf("EXIF: %d bytes at offset %d outside of payload", len(b), off)
	}
	if _, err := c.r.Seek(c.base+off, io.SeekStart); err != nil {
		return &IOError{Op: "seek", Err: err}
	}
	if _, err := io.ReadFull(c.r, b); err != nil {
		return &IOError{Op: "read", Err: err}
	}
	return nil
}

func (c *ifdChecker) grow(end int64) {
	if end > c.extent {
		c.extent = end
	}
}

// rewind positions r at the TIFF header again.
func (c *ifdChecker) rewind() error {
	if _, err := c.r.Seek(c.base, io.SeekStart); err != nil {
		return &IOError{Op: "seek", Err: err}
	}
	return nil
}

func (c *ifdChecker) check() error {
	if c.size < 8 {
		return newInvalidFormatErrorf("EXIF payload too short")
	}
	var header [8]byte
	if err := c.readAt(0, header[:]); err != nil {
		return err
	}
	switch {
	case bytes.Equal(header[:4], magicTIFFI):
		c.byteOrder = binary.LittleEndian
	case bytes.Equal(header[:4], magicTIFFM):
		c.byteOrder = binary.BigEndian
	default:
		return newInvalidFormatErrorf("invalid TIFF header % x", header[:4])
	}
	c.grow(int64(len(header)))

	var subIFDs []int64

	seen := make(map[int64]bool)
	for offset := int64(c.byteOrder.Uint32(header[4:])); offset != 0; {
		if seen[offset] {
			return newInvalidFormatErrorf("EXIF: IFD loop at offset %d", offset)
		}
		if len(seen) == c.maxIFDs {
			return newInvalidFormatErrorf("EXIF: more than %d IFDs", c.maxIFDs)
		}
		seen[offset] = true

		next, pointers, err := c.checkDir(offset, true)
		if err != nil {
			return err
		}
		subIFDs = append(subIFDs, pointers...)
		offset = next
	}

	// Sub-IFDs are decoded once each and their next offsets are not followed.
	// goexif reports errors in them as warnings, so only what would make it
	// allocate past the payload is rejected.
	seen = make(map[int64]bool)
	for len(subIFDs) > 0 {
		offset := subIFDs[0]
		subIFDs = subIFDs[1:]
		if seen[offset] {
			continue
		}
		if len(seen) == c.maxIFDs {
			return newInvalidFormatErrorf("EXIF: more than %d sub-IFDs", c.maxIFDs)
		}
		seen[offset] = true

		_, pointers, err := c.checkDir(offset, false)
		if err != nil {
			return err
		}
		subIFDs = append(subIFDs, pointers...)
	}

	return nil
}

// checkDir checks the IFD at offset and returns the offset of the next IFD
// and any sub-IFD pointers found in it.
// If strict is false, entries and values outside of the payload are skipped.
func (c *ifdChecker) checkDir(offset int64, strict bool) (int64, []int64, error) {
	var b [ifdEntrySize]byte
	if err := c.readAt(offset, b[:2]); err != nil {
		if !strict && isInvalidFormat(err) {
			return 0, nil, nil
		}
		return 0, nil, err
	}

	// goexif reads the count as int16.
	numEntries := max(int64(int16(c.byteOrder.Uint16(b[:2]))), 0)
	start := offset + 2
	end := start + numEntries*ifdEntrySize + 4
	if end > c.size {
		if strict {
			return 0, nil, newInvalidFormatErrorf("EXIF: IFD at offset %d with %d entries exceeds payload", offset, numEntries)
		}
		numEntries = max(c.size-start, 0) / ifdEntrySize
	}
	c.grow(min(end, c.size))

	var pointers []int64
	for i := int64(0); i < numEntries; i++ {
		if err := c.readAt(start+i*ifdEntrySize, b[:]); err != nil {
			return 0, nil, err
		}
		tag := c.byteOrder.Uint16(b[0:2])
		typ := tiff.DataType(c.byteOrder.Uint16(b[2:4]))
		count := c.byteOrder.Uint32(b[4:8])

		typeSize, ok := tiffTypeSize[typ]
		if !ok {
			continue
		}
		valLen := typeSize * uint64(count)
		if valLen > uint64(c.size) {
			return 0, nil, newInvalidFormatErrorf("EXIF: tag %#04x has %d values of type %d, more than the payload holds", tag, count, typ)
		}

		value := b[8:12]
		if valLen > 4 {
			valOffset := int64(c.byteOrder.Uint32(value))
			if valOffset+int64(valLen) > c.size {
				if strict {
					return 0, nil, newInvalidFormatErrorf("EXIF: tag %#04x value at offset %d outside of payload", tag, valOffset)
				}
				continue
			}
			c.grow(valOffset + int64(valLen))
			if !exifIFDPointers[tag] {
				continue
			}
			var first [4]byte
			value = first[:typeSize]
			if err := c.readAt(valOffset, value); err != nil {
				return 0, nil, err
			}
		}

		if exifIFDPointers[tag] && count > 0 {
			if p, ok := c.pointer(typ, value); ok {
				pointers = append(pointers, p)
			}
		}
	}

	if numEntries*ifdEntrySize+4 > c.size-start {
		return 0, pointers, nil
	}
	if err := c.readAt(start+numEntries*ifdEntrySize, b[:4]); err != nil {
		return 0, nil, err
	}

	return int64(c.byteOrder.Uint32(b[:4])), pointers, nil
}

// pointer decodes the first value of an integer tag as an offset.
func (c *ifdChecker) pointer(typ tiff.DataType, b []byte) (int64, bool) {
	var v int64
	switch typ {
	case tiff.DTByte:
		v = int64(b[0])
	case tiff.DTSByte:
		v = int64(int8(b[0]))
	case tiff.DTShort:
		v = int64(c.byteOrder.Uint16(b))
	case tiff.DTSShort:
		v = int64(int16(c.byteOrder.Uint16(b)))
	case tiff.DTLong:
		v = int64(c.byteOrder.Uint32(b))
	case tiff.DTSLong:
		v = int64(int32(c.byteOrder.Uint32(b)))
	default:
		return 0, false
	}
	return v, v > 0
}
