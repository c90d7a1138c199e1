// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imageorient

import "bytes"

const (
	markerSOI  = 0xffd8
	markerEOI  = 0xffd9
	markerSOS  = 0xffda
	markerApp1 = 0xffe1
	markerTEM  = 0xff01
	markerRST0 = 0xffd0
	markerRST7 = 0xffd7
	markerFill = 0xffff
)

type containerJPEG struct {
	*baseContainer
}

func (e *containerJPEG) walk() error {
	// JPEG SOI marker.
	soi, err := e.read2E()
	if err != nil {
		return nil
	}

	if soi != markerSOI {
		return nil
	}

	for {
		marker := e.read2()
		if e.isEOF {
			return nil
		}

		if marker>>8 != 0xff {
			// Lost sync with the segment structure.
			return nil
		}

		if marker == markerFill {
			// Fill byte, the marker starts at the next byte.
			e.skip(-1)
			continue
		}

		if marker == markerSOS || marker == markerEOI {
			// Start of scan. The EXIF segment must come before it.
			return nil
		}

		if marker == markerTEM || (marker >= markerRST0 && marker <= markerRST7) {
			// Standalone markers without a length.
			continue
		}

		// Read the 16-bit length of the segment. The value includes the 2 bytes for the
		// length itself, so we subtract 2 to get the number of remaining bytes.
		length := e.read2()
		if e.isEOF {
			return nil
		}
		if length < 2 {
			return newInvalidFormatErrorf("jpeg: segment length %d", length)
		}
		length -= 2

		if marker == markerApp1 && length >= uint16(len(exifIdentifier)) {
			// APP1 is shared by EXIF and XMP.
			if bytes.Equal(e.readBytesVolatile(len(exifIdentifier)), exifIdentifier) {
				return e.handlePayload(int64(length) - int64(len(exifIdentifier)))
			}
			length -= uint16(len(exifIdentifier))
		}

		e.skip(int64(length))
	}
}
