// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imageorient

import (
	"io"

	"golang.org/x/image/riff"
)

var (
	fccVP8  = riff.FourCC{'V', 'P', '8', ' '}
	fccVP8L = riff.FourCC{'V', 'P', '8', 'L'}
	fccVP8X = riff.FourCC{'V', 'P', '8', 'X'}
	fccWEBP = riff.FourCC{'W', 'E', 'B', 'P'}
	fccEXIF = riff.FourCC{'E', 'X', 'I', 'F'}
)

type containerWebP struct {
	*baseContainer
}

func (e *containerWebP) walk() error {
	formType, riffReader, err := riff.NewReader(e.r)
	if err != nil {
		return newInvalidFormatError(err)
	}
	if formType != fccWEBP {
		return newInvalidFormatErrorf("webp: form type %q", formType[:])
	}

	var (
		buf      [10]byte
		extended bool
	)

	for {
		chunkID, chunkLen, chunkData, err := riffReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return newInvalidFormatError(err)
		}

		switch chunkID {
		case fccVP8X:
			if chunkLen != 10 {
				return newInvalidFormatErrorf("webp: VP8X chunk length %d", chunkLen)
			}
			const exifMetadataBit = 1 << 3

			if _, err := io.ReadFull(chunkData, buf[:10]); err != nil {
				return newInvalidFormatError(err)
			}

			if buf[0]&exifMetadataBit == 0 {
				return nil
			}
			extended = true

		case fccVP8, fccVP8L:
			if !extended {
				// The simple file format has no room for metadata.
				return nil
			}

		case fccEXIF:
			return e.handlePayloadFrom(chunkData, int64(chunkLen))
		}
	}
}
