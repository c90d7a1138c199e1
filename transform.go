// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imageorient

import (
	"image"
	"image/color"
	"slices"
)

// Apply applies the operations of t to img in order and returns the result.
// The concrete image type and the pixel values are preserved; only the
// spatial arrangement changes. Identity returns img itself.
func Apply(img image.Image, t Transform) image.Image {
	for _, op := range t.Ops() {
		img = ApplyOp(img, op)
	}
	return img
}

// ApplyOp applies a single operation to img and returns a new image with
// its bounds starting at (0, 0).
func ApplyOp(img image.Image, op Op) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dr := image.Rect(0, 0, w, h)
	if op.swapsDimensions() {
		dr = image.Rect(0, 0, h, w)
	}

	switch src := img.(type) {
	case *image.RGBA:
		dst := image.NewRGBA(dr)
		transformPix(dst.Pix, dst.Stride, src.Pix, src.Stride, 4, w, h, op)
		return dst
	case *image.RGBA64:
		dst := image.NewRGBA64(dr)
		transformPix(dst.Pix, dst.Stride, src.Pix, src.Stride, 8, w, h, op)
		return dst
	case *image.NRGBA:
		dst := image.NewNRGBA(dr)
		transformPix(dst.Pix, dst.Stride, src.Pix, src.Stride, 4, w, h, op)
		return dst
	case *image.NRGBA64:
		dst := image.NewNRGBA64(dr)
		transformPix(dst.Pix, dst.Stride, src.Pix, src.Stride, 8, w, h, op)
		return dst
	case *image.Alpha:
		dst := image.NewAlpha(dr)
		transformPix(dst.Pix, dst.Stride, src.Pix, src.Stride, 1, w, h, op)
		return dst
	case *image.Alpha16:
		dst := image.NewAlpha16(dr)
		transformPix(dst.Pix, dst.Stride, src.Pix, src.Stride, 2, w, h, op)
		return dst
	case *image.Gray:
		dst := image.NewGray(dr)
		transformPix(dst.Pix, dst.Stride, src.Pix, src.Stride, 1, w, h, op)
		return dst
	case *image.Gray16:
		dst := image.NewGray16(dr)
		transformPix(dst.Pix, dst.Stride, src.Pix, src.Stride, 2, w, h, op)
		return dst
	case *image.CMYK:
		dst := image.NewCMYK(dr)
		transformPix(dst.Pix, dst.Stride, src.Pix, src.Stride, 4, w, h, op)
		return dst
	case *image.Paletted:
		dst := image.NewPaletted(dr, slices.Clone(src.Palette))
		transformPix(dst.Pix, dst.Stride, src.Pix, src.Stride, 1, w, h, op)
		return dst
	case *image.YCbCr:
		dst := image.NewYCbCr(dr, subsampleRatioFor(src, op))
		transformYCbCr(dst, src, op)
		return dst
	case *image.NYCbCrA:
		dst := image.NewNYCbCrA(dr, subsampleRatioFor(&src.YCbCr, op))
		transformYCbCr(&dst.YCbCr, &src.YCbCr, op)
		transformPix(dst.A, dst.AStride, src.A, src.AStride, 1, w, h, op)
		return dst
	default:
		dst := image.NewRGBA64(dr)
		for y := 0; y < dr.Dy(); y++ {
			for x := 0; x < dr.Dx(); x++ {
				sx, sy := op.source(x, y, w, h)
				c := color.RGBA64Model.Convert(img.At(b.Min.X+sx, b.Min.Y+sy)).(color.RGBA64)
				dst.SetRGBA64(x, y, c)
			}
		}
		return dst
	}
}

// transformPix copies the w x h pixels of src into dst, bpp bytes per
// pixel, moving each pixel according to op.
// Both slices start at their image's top left pixel.
func transformPix(dst []uint8, dstStride int, src []uint8, srcStride, bpp, w, h int, op Op) {
	dw, dh := w, h
	if op.swapsDimensions() {
		dw, dh = h, w
	}
	for y := 0; y < dh; y++ {
		di := y * dstStride
		for x := 0; x < dw; x++ {
			sx, sy := op.source(x, y, w, h)
			si := sy*srcStride + sx*bpp
			copy(dst[di:di+bpp], src[si:si+bpp])
			di += bpp
		}
	}
}

// chromaBlock returns the size in luma pixels of the area covered by one chroma sample.
func chromaBlock(r image.YCbCrSubsampleRatio) (int, int) {
	switch r {
	case image.YCbCrSubsampleRatio422:
		return 2, 1
	case image.YCbCrSubsampleRatio420:
		return 2, 2
	case image.YCbCrSubsampleRatio440:
		return 1, 2
	case image.YCbCrSubsampleRatio411:
		return 4, 1
	case image.YCbCrSubsampleRatio410:
		return 4, 2
	default:
		return 1, 1
	}
}

// subsampleRatioFor returns the subsample ratio of src after op.
// Chroma blocks can only be moved as a whole when the image is aligned to
// them and the transposed block has a ratio of its own; otherwise the
// chroma planes are expanded to 4:4:4.
func subsampleRatioFor(src *image.YCbCr, op Op) image.YCbCrSubsampleRatio {
	ratio := src.SubsampleRatio
	bw, bh := chromaBlock(ratio)
	if bw == 1 && bh == 1 {
		return image.YCbCrSubsampleRatio444
	}
	r := src.Rect
	if r.Min.X%bw != 0 || r.Min.Y%bh != 0 || r.Dx()%bw != 0 || r.Dy()%bh != 0 {
		return image.YCbCrSubsampleRatio444
	}
	if !op.swapsDimensions() {
		return ratio
	}
	switch ratio {
	case image.YCbCrSubsampleRatio420:
		return image.YCbCrSubsampleRatio420
	case image.YCbCrSubsampleRatio422:
		return image.YCbCrSubsampleRatio440
	case image.YCbCrSubsampleRatio440:
		return image.YCbCrSubsampleRatio422
	default:
		return image.YCbCrSubsampleRatio444
	}
}

// transformYCbCr fills dst, which must have the transformed bounds starting
// at (0, 0), from src.
func transformYCbCr(dst, src *image.YCbCr, op Op) {
	sr := src.Rect
	w, h := sr.Dx(), sr.Dy()
	dw, dh := dst.Rect.Dx(), dst.Rect.Dy()

	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			sx, sy := op.source(x, y, w, h)
			dst.Y[dst.YOffset(x, y)] = src.Y[src.YOffset(sr.Min.X+sx, sr.Min.Y+sy)]
		}
	}

	// One chroma sample per destination block; every luma pixel of that
	// block comes from the same source block.
	bw, bh := chromaBlock(dst.SubsampleRatio)
	for y := 0; y < dh; y += bh {
		for x := 0; x < dw; x += bw {
			sx, sy := op.source(x, y, w, h)
			di := dst.COffset(x, y)
			si := src.COffset(sr.Min.X+sx, sr.Min.Y+sy)
			dst.Cb[di] = src.Cb[si]
			dst.Cr[di] = src.Cr[si]
		}
	}
}
