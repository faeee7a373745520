// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/stagevm/core/cast"
	"github.com/stagevm/core/heap"
)

// bitmapCanvasBG is the background color every canvas ForMember
// materializes starts filled with, whether it is sized from the member's
// BitmapHeader or falls back to a 1x1 placeholder.
var bitmapCanvasBG = cast.Color{R: 0xFF, G: 0xFF, B: 0xFF}

// BitmapRegistry owns every cast.Bitmap a running movie has
// materialized, keyed by the int32 id a heap.Value's BitmapRef carries.
// Grounded on XtraRegistry's id-table pattern: the heap only ever holds
// a small reference, the registry holds the actual pixel buffer.
type BitmapRegistry struct {
	bitmaps  map[int32]*cast.Bitmap
	byMember map[cast.MemberRef]int32
	nextID   int32
}

// NewBitmapRegistry returns an empty registry.
func NewBitmapRegistry() *BitmapRegistry {
	return &BitmapRegistry{
		bitmaps:  make(map[int32]*cast.Bitmap),
		byMember: make(map[cast.MemberRef]int32),
	}
}

// Get dereferences a BitmapRef id.
func (r *BitmapRegistry) Get(id int32) (*cast.Bitmap, bool) {
	b, ok := r.bitmaps[id]
	return b, ok
}

func (r *BitmapRegistry) add(b *cast.Bitmap) int32 {
	r.nextID++
	r.bitmaps[r.nextID] = b
	return r.nextID
}

// ForMember returns the id of the Bitmap backing member's `image`
// property, materializing and caching a fresh canvas sized from its
// BitmapHeader the first time it's requested — every later getProp
// "image" on the same member sees the same canvas, so a script that
// paints into it and reads it back observes its own edits.
func (r *BitmapRegistry) ForMember(ref cast.MemberRef, member *cast.Member) int32 {
	if id, ok := r.byMember[ref]; ok {
		return id
	}
	width, height := 1, 1
	if member.BitmapHeader != nil {
		if member.BitmapHeader.Width > 0 {
			width = member.BitmapHeader.Width
		}
		if member.BitmapHeader.Height > 0 {
			height = member.BitmapHeader.Height
		}
	}
	id := r.add(cast.NewBitmap(width, height, bitmapCanvasBG))
	r.byMember[ref] = id
	return id
}

func colorArg(it *Interpreter, args []heap.Handle, i int) cast.Color {
	v := it.arg(args, i)
	if v.Kind != heap.KindColorRef {
		return cast.Color{}
	}
	return cast.Color{R: v.Color.R, G: v.Color.G, B: v.Color.B}
}

func heapColorValue(c cast.Color) heap.Value {
	return heap.Value{Kind: heap.KindColorRef, Color: heap.Color{R: c.R, G: c.G, B: c.B}}
}

func rectArg(it *Interpreter, args []heap.Handle, i int) (left, top, right, bottom int) {
	v := it.arg(args, i)
	if v.Kind != heap.KindIntRect {
		return 0, 0, 0, 0
	}
	return int(v.Rect.Left), int(v.Rect.Top), int(v.Rect.Right), int(v.Rect.Bottom)
}

func pointArg(it *Interpreter, args []heap.Handle, i int) (x, y int) {
	v := it.arg(args, i)
	if v.Kind != heap.KindIntPoint {
		return 0, 0
	}
	return int(v.Point.X), int(v.Point.Y)
}

// bitmapBuiltin implements the Bitmap method table's semantic, pixel-
// buffer operations (fill/draw/setPixel/getPixel/copyPixels/floodFill/
// createMatte/trimWhiteSpace/duplicate). Direct-to-screen compositing
// stays a renderer's job; every handler here only reads and writes the
// in-memory canvas BitmapRegistry.ForMember materialized, which is
// enough for a script that paints into an image and reads it back.
func (it *Interpreter) bitmapBuiltin(receiver heap.Value, name string, args []heap.Handle) (heap.Handle, bool, error) {
	bmp, ok := it.Bitmaps.Get(receiver.BitmapRef)
	if !ok {
		return heap.Handle{}, true, ErrHandlerNotFound
	}

	switch name {
	case "getProp":
		switch propKeyText(it.arg(args, 0)) {
		case "ilk":
			return it.allocResult(heap.NewSymbol("image"))
		case "width":
			return it.allocResult(heap.NewInt(int64(bmp.Width)))
		case "height":
			return it.allocResult(heap.NewInt(int64(bmp.Height)))
		default:
			return heap.Handle{}, false, nil
		}

	case "fill":
		l, t, r, b := rectArg(it, args, 0)
		bmp.Fill(l, t, r, b, colorArg(it, args, 1))
		return heap.Handle{}, true, nil

	case "draw":
		l, t, r, b := rectArg(it, args, 0)
		bmp.Draw(l, t, r, b, colorArg(it, args, 1))
		return heap.Handle{}, true, nil

	case "setPixel":
		x, y := pointArg(it, args, 0)
		bmp.SetPixel(x, y, colorArg(it, args, 1))
		return heap.Handle{}, true, nil

	case "getPixel":
		x, y := pointArg(it, args, 0)
		return it.allocResult(heapColorValue(bmp.At(x, y)))

	case "copyPixels":
		src, ok := it.Bitmaps.Get(it.arg(args, 0).BitmapRef)
		if !ok {
			return heap.Handle{}, true, ErrTypeMismatch
		}
		destX, destY := pointArg(it, args, 1)
		bmp.CopyPixels(src, destX, destY)
		return heap.Handle{}, true, nil

	case "floodFill":
		x, y := pointArg(it, args, 0)
		bmp.FloodFill(x, y, colorArg(it, args, 1))
		return heap.Handle{}, true, nil

	case "createMatte":
		bmp.Matte()
		return heap.Handle{}, true, nil

	case "trimWhiteSpace":
		l, t, r, b := bmp.TrimWhiteSpace()
		rect := heap.Value{Kind: heap.KindIntRect, Rect: heap.IntRect{
			Left: int32(l), Top: int32(t), Right: int32(r), Bottom: int32(b),
		}}
		return it.allocResult(rect)

	case "duplicate":
		id := it.Bitmaps.add(bmp.Duplicate())
		return it.allocResult(heap.Value{Kind: heap.KindBitmapRef, BitmapRef: id})

	default:
		return heap.Handle{}, false, nil
	}
}
