// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imageorient

// Transform is the composition of geometric operations needed to display an
// image in its intended orientation.
// The constants are ordered by EXIF orientation value, Identity being 1.
//
//go:generate stringer -type=Transform,Op
type Transform uint8

const (
	// Identity leaves the image as is (EXIF orientation 1).
	Identity Transform = iota
	// FlipH mirrors the image horizontally (EXIF orientation 2).
	FlipH
	// Rotate180 rotates the image 180° (EXIF orientation 3).
	Rotate180
	// FlipV mirrors the image vertically (EXIF orientation 4).
	FlipV
	// Transpose flips horizontally, then rotates 270° clockwise (EXIF orientation 5).
	Transpose
	// Rotate90 rotates the image 90° clockwise (EXIF orientation 6).
	Rotate90
	// Transverse flips horizontally, then rotates 90° clockwise (EXIF orientation 7).
	Transverse
	// Rotate270 rotates the image 270° clockwise (EXIF orientation 8).
	Rotate270
)

// Op is a single geometric operation on a pixel buffer.
// Rotations are clockwise.
type Op uint8

const (
	OpFlipH     Op = iota // Mirror left to right.
	OpFlipV               // Mirror top to bottom.
	OpRotate90            // Rotate 90 degrees clockwise.
	OpRotate180           // Rotate 180 degrees.
	OpRotate270           // Rotate 270 degrees clockwise.
)

// See https://magnushoff.com/articles/jpeg-orientation/
// The order within each composition matters for Transpose and Transverse.
var transformOps = [...][]Op{
	Identity:   nil,
	FlipH:      {OpFlipH},
	Rotate180:  {OpRotate180},
	FlipV:      {OpFlipV},
	Transpose:  {OpFlipH, OpRotate270},
	Rotate90:   {OpRotate90},
	Transverse: {OpFlipH, OpRotate90},
	Rotate270:  {OpRotate270},
}

// ResolveOrientation maps an EXIF orientation value to its Transform.
// Values outside 1..8 return an *UnknownOrientationError.
func ResolveOrientation(v uint32) (Transform, error) {
	if v < 1 || v > 8 {
		return Identity, &UnknownOrientationError{Value: v}
	}
	return Transform(v - 1), nil
}

// Orientation returns the EXIF orientation value of t.
func (t Transform) Orientation() uint32 {
	return uint32(t) + 1
}

// Ops returns the operations of t in the order they must be applied.
func (t Transform) Ops() []Op {
	if int(t) >= len(transformOps) {
		return nil
	}
	return append([]Op(nil), transformOps[t]...)
}

// Inverse returns the Transform that undoes t.
func (t Transform) Inverse() Transform {
	switch t {
	case Rotate90:
		return Rotate270
	case Rotate270:
		return Rotate90
	default:
		// The flips, Rotate180, Transpose and Transverse are their own inverse.
		return t
	}
}

// SwapsDimensions reports whether applying t swaps width and height.
func (t Transform) SwapsDimensions() bool {
	switch t {
	case Transpose, Rotate90, Transverse, Rotate270:
		return true
	default:
		return false
	}
}

func (op Op) swapsDimensions() bool {
	return op == OpRotate90 || op == OpRotate270
}

// source returns the coordinates, relative to the source origin, of the
// source pixel that ends up at (x, y) in the destination.
// w and h are the source dimensions.
func (op Op) source(x, y, w, h int) (int, int) {
	switch op {
	case OpFlipH:
		return w - 1 - x, y
	case OpFlipV:
		return x, h - 1 - y
	case OpRotate90:
		return y, h - 1 - x
	case OpRotate180:
		return w - 1 - x, h - 1 - y
	case OpRotate270:
		return w - 1 - y, x
	default:
		return x, y
	}
}
