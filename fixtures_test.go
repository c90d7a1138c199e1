// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imageorient_test

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/bep/imageorient"
)

const (
	typeByte   = 1
	typeASCII  = 2
	typeShort  = 3
	typeLong   = 4
	typeSShort = 8

	tagOrientation = 0x0112
)

// ifdEntry is a TIFF directory entry with its value stored inline.
type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value [4]byte
}

func shortEntry(tag, v uint16) ifdEntry {
	e := ifdEntry{tag: tag, typ: typeShort, count: 1}
	binary.BigEndian.PutUint16(e.value[:], v)
	return e
}

func longEntry(tag uint16, v uint32) ifdEntry {
	e := ifdEntry{tag: tag, typ: typeLong, count: 1}
	binary.BigEndian.PutUint32(e.value[:], v)
	return e
}

func orientationEntry(v uint16) ifdEntry {
	return shortEntry(tagOrientation, v)
}

// exifBlock returns a big endian TIFF structure with one IFD per entries slice;
// the first is IFD0 (primary image), the second IFD1 (thumbnail).
func exifBlock(ifds ...[]ifdEntry) []byte {
	var buf bytes.Buffer
	buf.WriteString("MM\x00*")
	writeBE(&buf, uint32(8))

	offset := 8
	for i, entries := range ifds {
		writeEntries(&buf, entries)
		offset += 2 + 12*len(entries) + 4
		var next uint32
		if i < len(ifds)-1 {
			next = uint32(offset)
		}
		writeBE(&buf, next)
	}

	return buf.Bytes()
}

func exifWithOrientation(v uint16) []byte {
	return exifBlock([]ifdEntry{orientationEntry(v)})
}

// truncatedEXIF claims five IFD0 entries but holds none.
func truncatedEXIF() []byte {
	return []byte("MM\x00*\x00\x00\x00\x08\x00\x05\x01\x12")
}

func writeEntries(buf *bytes.Buffer, entries []ifdEntry) {
	writeBE(buf, uint16(len(entries)))
	for _, e := range entries {
		writeBE(buf, e.tag)
		writeBE(buf, e.typ)
		writeBE(buf, e.count)
		buf.Write(e.value[:])
	}
}

// cyclicEXIF chains IFD1 back to IFD0.
func cyclicEXIF() []byte {
	b := exifBlock([]ifdEntry{orientationEntry(6)}, []ifdEntry{shortEntry(0x0100, 4)})
	binary.BigEndian.PutUint32(b[len(b)-4:], 8)
	return b
}

func chainedEXIF(numIFDs int) []byte {
	ifds := make([][]ifdEntry, numIFDs)
	for i := range ifds {
		ifds[i] = []ifdEntry{orientationEntry(6)}
	}
	return exifBlock(ifds...)
}

// hugeCountEntry has a byte length of 4*0x40000001, which wraps to 4 in 32 bits.
func hugeCountEntry() ifdEntry {
	return ifdEntry{tag: 0x0111, typ: typeLong, count: 0x40000001}
}

func hugeCountEXIF() []byte {
	return exifBlock([]ifdEntry{orientationEntry(6), hugeCountEntry()})
}

// outOfRangeEntry is an ASCII value stored at an offset past any test payload.
func outOfRangeEntry() ifdEntry {
	e := ifdEntry{tag: 0x010f, typ: typeASCII, count: 16}
	binary.BigEndian.PutUint32(e.value[:], 0xffff)
	return e
}

func outOfRangeValueEXIF() []byte {
	return exifBlock([]ifdEntry{orientationEntry(6), outOfRangeEntry()})
}

// exifWithSubIFD returns IFD0 with the given orientation and an Exif
// sub-IFD holding sub.
func exifWithSubIFD(v uint16, sub ...ifdEntry) []byte {
	const subOffset = 8 + 2 + 2*12 + 4
	var buf bytes.Buffer
	buf.Write(exifBlock([]ifdEntry{orientationEntry(v), longEntry(0x8769, subOffset)}))
	writeEntries(&buf, sub)
	writeBE(&buf, uint32(0))
	return buf.Bytes()
}

func writeBE(buf *bytes.Buffer, v any) {
	if err := binary.Write(buf, binary.BigEndian, v); err != nil {
		panic(err)
	}
}

func writeLE(buf *bytes.Buffer, v any) {
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
}

// newTestImage returns a w x h opaque image where every pixel has its own color.
func newTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 40), B: uint8(10 + x + y*w), A: 255})
		}
	}
	return img
}

func encodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func encodeJPEG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func encodeGIF(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// jpegSegment returns a JPEG marker segment.
func jpegSegment(marker uint16, payload []byte) []byte {
	var buf bytes.Buffer
	writeBE(&buf, marker)
	writeBE(&buf, uint16(len(payload)+2))
	buf.Write(payload)
	return buf.Bytes()
}

// withJPEGSegments inserts segments right after the SOI marker of jpg.
func withJPEGSegments(jpg []byte, segments ...[]byte) []byte {
	out := append([]byte{}, jpg[:2]...)
	for _, s := range segments {
		out = append(out, s...)
	}
	return append(out, jpg[2:]...)
}

func jpegEXIFSegment(tiff []byte) []byte {
	return jpegSegment(0xffe1, append([]byte("Exif\x00\x00"), tiff...))
}

func jpegWithEXIF(t testing.TB, img image.Image, tiff []byte) []byte {
	return withJPEGSegments(encodeJPEG(t, img), jpegEXIFSegment(tiff))
}

func pngChunk(typ string, data []byte) []byte {
	var buf bytes.Buffer
	writeBE(&buf, uint32(len(data)))
	buf.WriteString(typ)
	buf.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	writeBE(&buf, crc.Sum32())
	return buf.Bytes()
}

// pngWithEXIF inserts an eXIf chunk right after the IHDR chunk.
func pngWithEXIF(t testing.TB, img image.Image, tiff []byte) []byte {
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	p := encodePNG(t, img)
	out := append([]byte{}, p[:ihdrEnd]...)
	out = append(out, pngChunk("eXIf", tiff)...)
	return append(out, p[ihdrEnd:]...)
}

// grayTIFF returns an uncompressed 8-bit grayscale little endian TIFF.
// If orientation is 0, no orientation tag is written.
func grayTIFF(img *image.Gray, orientation uint16) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()

	type entry struct {
		tag, typ uint16
		value    uint32
	}
	entries := []entry{
		{256, typeShort, uint32(w)},
		{257, typeShort, uint32(h)},
		{258, typeShort, 8},
		{259, typeShort, 1},
		{262, typeShort, 1},
		{273, typeLong, 0}, // Patched below.
		{274, typeShort, uint32(orientation)},
		{277, typeShort, 1},
		{278, typeShort, uint32(h)},
		{279, typeLong, uint32(w * h)},
	}
	if orientation == 0 {
		entries = append(entries[:6], entries[7:]...)
	}
	dataOffset := uint32(8 + 2 + 12*len(entries) + 4)

	var buf bytes.Buffer
	buf.WriteString("II*\x00")
	writeLE(&buf, uint32(8))
	writeLE(&buf, uint16(len(entries)))
	for _, e := range entries {
		if e.tag == 273 {
			e.value = dataOffset
		}
		writeLE(&buf, e.tag)
		writeLE(&buf, e.typ)
		writeLE(&buf, uint32(1))
		if e.typ == typeShort {
			writeLE(&buf, uint16(e.value))
			writeLE(&buf, uint16(0))
		} else {
			writeLE(&buf, e.value)
		}
	}
	writeLE(&buf, uint32(0))
	for y := 0; y < h; y++ {
		buf.Write(img.Pix[y*img.Stride : y*img.Stride+w])
	}
	return buf.Bytes()
}

func newGrayTestImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i*7 + 1)
	}
	return img
}

func riffChunk(id string, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(id)
	writeLE(&buf, uint32(len(data)))
	buf.Write(data)
	if len(data)%2 == 1 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// webpContainer wraps chunks in a RIFF WEBP container.
// The pixel data is not a valid VP8L bitstream; tests that load these use a stub decoder.
func webpContainer(chunks ...[]byte) []byte {
	var body bytes.Buffer
	body.WriteString("WEBP")
	for _, c := range chunks {
		body.Write(c)
	}
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	writeLE(&buf, uint32(body.Len()))
	buf.Write(body.Bytes())
	return buf.Bytes()
}

func webpVP8X(flags byte) []byte {
	data := make([]byte, 10)
	data[0] = flags
	return riffChunk("VP8X", data)
}

func webpWithEXIF(tiff []byte) []byte {
	return webpContainer(
		webpVP8X(1<<3),
		riffChunk("VP8L", []byte{0x2f, 0, 0, 0}),
		riffChunk("EXIF", tiff),
	)
}

func webpSimple() []byte {
	return webpContainer(riffChunk("VP8L", []byte{0x2f, 0, 0, 0}))
}

func isoBox(typ string, payload ...[]byte) []byte {
	var body bytes.Buffer
	for _, p := range payload {
		body.Write(p)
	}
	var buf bytes.Buffer
	writeBE(&buf, uint32(8+body.Len()))
	buf.WriteString(typ)
	buf.Write(body.Bytes())
	return buf.Bytes()
}

func beBytes(v ...any) []byte {
	var buf bytes.Buffer
	for _, vv := range v {
		writeBE(&buf, vv)
	}
	return buf.Bytes()
}

// avifWithEXIF returns an AVIF container whose only item is an Exif item
// stored in the mdat box. hdrOffset is the Exif item's offset to the TIFF header.
// The image data itself is missing; tests that load these use a stub decoder.
func avifWithEXIF(tiff []byte, hdrOffset uint32) []byte {
	ftyp := isoBox("ftyp", []byte("avif"), beBytes(uint32(0)), []byte("avifmif1"))

	infe := isoBox("infe", beBytes(uint32(2<<24), uint16(1), uint16(0)), []byte("Exif"), []byte{0})
	iinf := isoBox("iinf", beBytes(uint32(0), uint16(1)), infe)

	item := append(beBytes(hdrOffset), tiff...)

	iloc := func(offset uint32) []byte {
		return isoBox("iloc",
			beBytes(uint32(0)),
			[]byte{4<<4 | 4, 0},
			beBytes(uint16(1), uint16(1), uint16(0), uint16(1), offset, uint32(len(item))),
		)
	}

	metaLen := len(isoBox("meta", beBytes(uint32(0)), iinf, iloc(0)))
	itemOffset := uint32(len(ftyp) + metaLen + 8)
	meta := isoBox("meta", beBytes(uint32(0)), iinf, iloc(itemOffset))
	mdat := isoBox("mdat", item)

	var buf bytes.Buffer
	buf.Write(ftyp)
	buf.Write(meta)
	buf.Write(mdat)
	return buf.Bytes()
}

func avifWithoutEXIF() []byte {
	ftyp := isoBox("ftyp", []byte("avif"), beBytes(uint32(0)), []byte("avifmif1"))
	meta := isoBox("meta", beBytes(uint32(0)), isoBox("hdlr", beBytes(uint32(0), uint32(0)), []byte("pict")))
	return append(ftyp, meta...)
}

// stubDecoder returns a decoder that ignores its input and returns a copy of img.
func stubDecoder(img *image.NRGBA) imageorient.DecodeFunc {
	return func(io.Reader) (image.Image, error) {
		c := *img
		c.Pix = append([]uint8(nil), img.Pix...)
		return &c, nil
	}
}

// sameImage reports whether a and b have the same size and the same
// color at each position, relative to their bounds.
func sameImage(a, b image.Image) bool {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return false
	}
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			ca := color.RGBA64Model.Convert(a.At(ab.Min.X+x, ab.Min.Y+y))
			cb := color.RGBA64Model.Convert(b.At(bb.Min.X+x, bb.Min.Y+y))
			if ca != cb {
				return false
			}
		}
	}
	return true
}

func colorAt(img image.Image, x, y int) color.RGBA64 {
	b := img.Bounds()
	return color.RGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA64)
}
