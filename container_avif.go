// Copyright 2026 Toni Melisma
// SPDX-License-Identifier: MIT

package imageorient

import "math"

// ISOBMFF box and item types used in AVIF containers.
var (
	fccFtyp = fourCC{'f', 't', 'y', 'p'}
	fccMeta = fourCC{'m', 'e', 't', 'a'}
	fccIinf = fourCC{'i', 'i', 'n', 'f'}
	fccInfe = fourCC{'i', 'n', 'f', 'e'}
	fccIloc = fourCC{'i', 'l', 'o', 'c'}
	fccExif = fourCC{'E', 'x', 'i', 'f'}
)

type containerAVIF struct {
	*baseContainer
}

func (e *containerAVIF) walk() error {
	// readVarUint reads n bytes from the stream as a big-endian uint64.
	// n must be 0, 2, 4, or 8. Returns 0 for n == 0.
	readVarUint := func(n int) uint64 {
		switch n {
		case 0:
			return 0
		case 2:
			return uint64(e.read2())
		case 4:
			return uint64(e.read4())
		case 8:
			return e.read8()
		default:
			panic(newInvalidFormatErrorf("avif: unsupported iloc field size: %d", n))
		}
	}

	// readBox reads an ISOBMFF box header from the current stream position.
	// Returns (startPos, totalBoxSize, boxType).
	// totalBoxSize includes the header bytes, 0 means the box extends to EOF.
	// After this call, the stream is positioned at the start of the box payload.
	readBox := func() (startPos int64, totalSize uint64, boxType fourCC) {
		startPos = e.pos()
		size := e.read4()
		e.readBytes(boxType[:])
		totalSize = uint64(size)
		if size == 1 {
			// Extended size: next 8 bytes hold the actual size.
			totalSize = e.read8()
		}
		return
	}

	ftypStart, ftypSize, ftypType := readBox()
	if e.isEOF || ftypType != fccFtyp || (ftypSize != 0 && ftypSize < 8) {
		return newInvalidFormatErrorf("avif: missing ftyp box")
	}
	if ftypSize == 0 {
		return nil
	}
	e.seek(ftypStart + int64(ftypSize))

	// Scan top-level boxes for the meta box.
	var (
		metaStart int64
		metaSize  uint64
	)
	for {
		s, size, boxType := readBox()
		if e.isEOF {
			return nil
		}
		if boxType == fccMeta {
			metaStart = s
			metaSize = size
			break
		}
		if size == 0 {
			return nil
		}
		if size < 8 {
			return newInvalidFormatErrorf("avif: box size %d", size)
		}
		e.seek(s + int64(size))
	}

	// meta is a FullBox: skip version+flags.
	e.skip(4)

	metaEnd := int64(math.MaxInt64)
	if metaSize != 0 {
		metaEnd = metaStart + int64(metaSize)
	}

	type ilocEntry struct {
		offset, length uint64
	}

	var exifItemID uint32
	// Resolved after the full meta scan so that box order does not matter.
	ilocEntries := make(map[uint32]ilocEntry)

	for e.pos()+8 <= metaEnd {
		innerStart, innerSize, innerType := readBox()
		if e.isEOF || innerSize == 0 {
			break
		}
		if innerSize < 8 {
			return newInvalidFormatErrorf("avif: box size %d", innerSize)
		}
		innerEnd := innerStart + int64(innerSize)

		switch innerType {
		case fccIinf:
			vf := e.read4()
			var count uint32
			if vf>>24 == 0 {
				count = uint32(e.read2())
			} else {
				count = e.read4()
			}

			for i := uint32(0); i < count; i++ {
				infeStart, infeSize, infeType := readBox()
				if e.isEOF || infeSize == 0 {
					break
				}
				if infeSize < 8 {
					return newInvalidFormatErrorf("avif: box size %d", infeSize)
				}
				if infeType == fccInfe {
					infeVersion := e.read4() >> 24
					if infeVersion >= 2 {
						var itemID uint32
						if infeVersion == 2 {
							itemID = uint32(e.read2())
						} else {
							itemID = e.read4()
						}
						e.skip(2) // protectionIndex
						var itemType fourCC
						e.readBytes(itemType[:])
						if itemType == fccExif && exifItemID == 0 {
							exifItemID = itemID
						}
					}
				}
				e.seek(infeStart + int64(infeSize))
			}

		case fccIloc:
			ilocVersion := uint8(e.read4() >> 24)

			b1 := e.read1()
			offsetSize := int(b1 >> 4)
			lengthSize := int(b1 & 0x0f)

			b2 := e.read1()
			baseOffsetSize := int(b2 >> 4)
			indexSize := int(b2 & 0x0f)

			var count uint32
			if ilocVersion < 2 {
				count = uint32(e.read2())
			} else {
				count = e.read4()
			}

			for i := uint32(0); i < count; i++ {
				var itemID uint32
				if ilocVersion < 2 {
					itemID = uint32(e.read2())
				} else {
					itemID = e.read4()
				}

				var constructionMethod uint16
				if ilocVersion >= 1 {
					constructionMethod = e.read2()
				}
				e.skip(2) // dataReferenceIndex

				baseOffset := readVarUint(baseOffsetSize)
				extentCount := e.read2()

				var firstOffset, firstLength uint64
				for j := uint16(0); j < extentCount; j++ {
					if ilocVersion >= 1 && indexSize > 0 {
						readVarUint(indexSize)
					}
					off := readVarUint(offsetSize)
					length := readVarUint(lengthSize)
					if j == 0 {
						firstOffset = baseOffset + off
						firstLength = length
					}
				}

				// Only file-offset construction (method 0) is supported.
				if constructionMethod == 0 {
					ilocEntries[itemID] = ilocEntry{offset: firstOffset, length: firstLength}
				}
			}
		}

		// Always advance to the end of this inner box.
		e.seek(innerEnd)
	}

	if exifItemID == 0 {
		return nil
	}
	loc, ok := ilocEntries[exifItemID]
	if !ok {
		return newInvalidFormatErrorf("avif: no location for Exif item %d", exifItemID)
	}

	return e.handleExifItem(loc.offset, loc.length)
}

func (e *containerAVIF) handleExifItem(offset, length uint64) error {
	if length < 4 || offset > math.MaxInt64 {
		return newInvalidFormatErrorf("avif: Exif item of length %d", length)
	}
	e.seek(int64(offset))
	e.isEOF = false
	// Exif items are prefixed with a 4-byte big-endian offset to the TIFF header.
	hdrOffset := e.read4()
	if e.isEOF {
		return newInvalidFormatErrorf("avif: Exif item beyond end of file")
	}
	if uint64(hdrOffset) > length-4 {
		return newInvalidFormatErrorf("avif: invalid exif header offset %d", hdrOffset)
	}
	e.skip(int64(hdrOffset))
	return e.handlePayload(int64(length - 4 - uint64(hdrOffset)))
}
