// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package cast

// Color is a Bitmap pixel's 8-bit-per-channel RGB value. Distinct from
// heap.Color so this package never needs to import heap (heap already
// imports cast for MemberRef).
type Color struct{ R, G, B uint8 }

// BitmapMask is a 1-bit-per-pixel mask the size of its owning Bitmap,
// ported from player/bitmap/mask.rs's BitmapMask.
type BitmapMask struct {
	Width, Height int
	bits          []bool
}

// NewBitmapMask returns a mask of the given dimensions, every bit set to
// fill.
func NewBitmapMask(width, height int, fill bool) *BitmapMask {
	bits := make([]bool, width*height)
	if fill {
		for i := range bits {
			bits[i] = true
		}
	}
	return &BitmapMask{Width: width, Height: height, bits: bits}
}

// Get reports the bit at (x, y); out-of-bounds reads as false.
func (m *BitmapMask) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.bits[y*m.Width+x]
}

// Set writes the bit at (x, y); out-of-bounds writes are no-ops.
func (m *BitmapMask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.bits[y*m.Width+x] = v
}

// FloodMatte ports BitmapMask::flood_matte: starting from points, it
// flips every reachable 4-connected bit equal to from over to to, and
// returns a mask of every cell the flood never reached (the cells
// flood_matte's caller actually keeps as the resulting matte).
func (m *BitmapMask) FloodMatte(points [][2]int, from, to bool) *BitmapMask {
	stack := append([][2]int(nil), points...)
	notVisited := NewBitmapMask(m.Width, m.Height, true)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := p[0], p[1]
		if !notVisited.Get(x, y) {
			continue
		}
		if x >= 0 && y >= 0 && x < m.Width && y < m.Height && m.Get(x, y) == from {
			m.Set(x, y, to)
			notVisited.Set(x, y, false)
			stack = append(stack,
				[2]int{x + 1, y}, [2]int{x - 1, y},
				[2]int{x, y + 1}, [2]int{x, y - 1})
		}
	}
	return notVisited
}

// Bitmap is an in-memory pixel canvas backing a Bitmap cast member's
// `image` property. It is not a renderer: a member's real BITD payload
// (packbits-style RLE, paletted or true-color) still needs a
// depth/compression-aware unpacker a rendering host supplies, so a fresh
// Bitmap starts out as a uniform canvas the size of the member's decoded
// header and is from then on just an addressable pixel buffer the
// handler table below reads and writes — enough to give scripts that
// probe or paint into an image something real to observe.
type Bitmap struct {
	Width, Height int
	BgColor       Color
	Pixels        []Color
	matte         *BitmapMask
}

// NewBitmap returns a width x height canvas filled with bg.
func NewBitmap(width, height int, bg Color) *Bitmap {
	px := make([]Color, width*height)
	for i := range px {
		px[i] = bg
	}
	return &Bitmap{Width: width, Height: height, BgColor: bg, Pixels: px}
}

func (b *Bitmap) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// At returns the pixel at (x, y); out-of-bounds reads as the zero Color.
func (b *Bitmap) At(x, y int) Color {
	if !b.inBounds(x, y) {
		return Color{}
	}
	return b.Pixels[y*b.Width+x]
}

// SetPixel writes a single pixel; out-of-bounds writes are no-ops.
func (b *Bitmap) SetPixel(x, y int, c Color) {
	if !b.inBounds(x, y) {
		return
	}
	b.Pixels[y*b.Width+x] = c
}

// Fill paints every pixel in [left, right) x [top, bottom) with c.
func (b *Bitmap) Fill(left, top, right, bottom int, c Color) {
	for y := top; y < bottom; y++ {
		for x := left; x < right; x++ {
			b.SetPixel(x, y, c)
		}
	}
}

// Draw paints the rect a shape's bounding box covers. Line/outline
// rendering belongs to a host's renderer; this is the semantic stand-in
// a script's draw call can still observe the effect of.
func (b *Bitmap) Draw(left, top, right, bottom int, c Color) {
	b.Fill(left, top, right, bottom, c)
}

// CopyPixels blits src's full canvas into b at (destX, destY), clipped
// to b's own bounds.
func (b *Bitmap) CopyPixels(src *Bitmap, destX, destY int) {
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			b.SetPixel(destX+x, destY+y, src.At(x, y))
		}
	}
}

// FloodFill repaints the 4-connected region matching the seed color at
// (x, y) with c, stack-based so a large canvas never recurses.
func (b *Bitmap) FloodFill(x, y int, c Color) {
	if !b.inBounds(x, y) {
		return
	}
	target := b.At(x, y)
	if target == c {
		return
	}
	stack := [][2]int{{x, y}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		px, py := p[0], p[1]
		if !b.inBounds(px, py) || b.At(px, py) != target {
			continue
		}
		b.SetPixel(px, py, c)
		stack = append(stack,
			[2]int{px + 1, py}, [2]int{px - 1, py},
			[2]int{px, py + 1}, [2]int{px, py - 1})
	}
}

// getMask reports, per pixel, whether it differs from bg — the raw
// content mask create_matte flood-fills inward from the border.
func (b *Bitmap) getMask(bg Color) *BitmapMask {
	mask := NewBitmapMask(b.Width, b.Height, false)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			mask.Set(x, y, b.At(x, y) != bg)
		}
	}
	return mask
}

// Matte ports bitmap/mask.rs's create_matte: every border pixel matching
// the background seeds a flood fill that walks the background-colored
// region connected to the edge; every pixel that flood never reaches —
// the shape's own content, and any background-colored hole fully
// enclosed by it — ends up opaque in the resulting mask.
func (b *Bitmap) Matte() *BitmapMask {
	bg := b.BgColor
	mask := b.getMask(bg)

	var seeds [][2]int
	for y := 0; y < b.Height; y++ {
		if b.At(0, y) == bg {
			seeds = append(seeds, [2]int{0, y})
		}
		if b.Width > 1 && b.At(b.Width-1, y) == bg {
			seeds = append(seeds, [2]int{b.Width - 1, y})
		}
	}
	for x := 0; x < b.Width; x++ {
		if b.At(x, 0) == bg {
			seeds = append(seeds, [2]int{x, 0})
		}
		if b.Height > 1 && b.At(x, b.Height-1) == bg {
			seeds = append(seeds, [2]int{x, b.Height - 1})
		}
	}

	matte := mask.FloodMatte(seeds, false, true)
	b.matte = matte
	return matte
}

// TrimWhiteSpace returns the smallest rect enclosing every pixel that
// differs from the background color. A canvas that is entirely
// background-colored returns its own full bounds unchanged.
func (b *Bitmap) TrimWhiteSpace() (left, top, right, bottom int) {
	left, top, right, bottom = b.Width, b.Height, 0, 0
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.At(x, y) != b.BgColor {
				if x < left {
					left = x
				}
				if y < top {
					top = y
				}
				if x+1 > right {
					right = x + 1
				}
				if y+1 > bottom {
					bottom = y + 1
				}
			}
		}
	}
	if left > right || top > bottom {
		return 0, 0, b.Width, b.Height
	}
	return left, top, right, bottom
}

// Duplicate returns an independent copy of b, including its pixel
// buffer but not its matte (createMatte recomputes lazily per caller).
func (b *Bitmap) Duplicate() *Bitmap {
	return &Bitmap{
		Width:   b.Width,
		Height:  b.Height,
		BgColor: b.BgColor,
		Pixels:  append([]Color(nil), b.Pixels...),
	}
}
