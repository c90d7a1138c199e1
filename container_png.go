// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imageorient

const (
	pngEXIFMarker = 0x65584966 // eXIf
	pngIENDMarker = 0x49454e44 // IEND
)

type containerPNG struct {
	*baseContainer
}

func (e *containerPNG) walk() error {
	// http://ftp-osl.osuosl.org/pub/libpng/documents/pngext-1.5.0.html#C.eXIf
	// The data segment of the eXIf chunk contains an Exif profile in the format specified in "4.7.2 Interoperability Structure of APP1 in Compressed Data"
	// of [CIPA DC-008-2016] except that the JPEG APP1 marker, length, and the "Exif ID code" described in 4.7.2(C), i.e., "Exif", NULL, and padding byte, are not included.
	// Only one eXIf chunk is allowed in a PNG datastream.

	// Skip header.
	e.skip(8)
	for {
		chunkLength, typ := e.read4(), e.read4()
		if e.isEOF {
			return nil
		}

		switch typ {
		case pngEXIFMarker:
			return e.handlePayload(int64(chunkLength))
		case pngIENDMarker:
			return nil
		}

		e.skip(int64(chunkLength))
		e.skip(4) // skip CRC
	}
}
