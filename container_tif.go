// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imageorient

import "encoding/binary"

const (
	byteOrderBigEndian    = 0x4d4d
	byteOrderLittleEndian = 0x4949
	meaningOfLife         = 42
)

type containerTIFF struct {
	*baseContainer
}

// A TIFF file is itself the EXIF structure; IFD0 describes the primary image.
// The IFDs may follow the pixel data, so the file is not buffered; the EXIF
// reader limits what it reads to the IFDs and their values.
func (e *containerTIFF) walk() error {
	byteOrderTag := e.read2()
	if e.isEOF {
		return nil
	}
	switch byteOrderTag {
	case byteOrderBigEndian:
		e.byteOrder = binary.BigEndian
	case byteOrderLittleEndian:
		e.byteOrder = binary.LittleEndian
	default:
		return newInvalidFormatErrorf("tiff: byte order %#x", byteOrderTag)
	}

	if id := e.read2(); id != meaningOfLife {
		return newInvalidFormatErrorf("tiff: version %d", id)
	}

	e.seek(0)

	return e.handleEXIF(e.r)
}
