// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

// Package heap implements L3: the shared, reference-counted value heap
// every running handler reads and writes through. Nothing above this
// layer holds a Value directly — only a Handle, so the allocator stays
// free to reclaim and reuse backing slots between opcodes.
package heap

import "github.com/stagevm/core/cast"

// Kind tags a Value's variant.
type Kind uint8

const (
	KindVoid Kind = iota
	KindNull
	KindInt
	KindFloat
	KindString
	KindSymbol
	KindList
	KindPropList
	KindStringChunk
	KindCastMemberRef
	KindScriptRef
	KindScriptInstanceRef
	KindSpriteRef
	KindBitmapRef
	KindPaletteRef
	KindColorRef
	KindIntRect
	KindIntPoint
	KindTimeoutRef
	KindXtraInstance
	KindMatte
	KindStage
	KindPlayerRef
	KindMovieRef
	KindDateRef
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindNull:
		return "null"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindList:
		return "list"
	case KindPropList:
		return "propList"
	case KindStringChunk:
		return "chunk"
	case KindCastMemberRef:
		return "member"
	case KindScriptRef:
		return "script"
	case KindScriptInstanceRef:
		return "instance"
	case KindSpriteRef:
		return "sprite"
	case KindBitmapRef:
		return "image"
	case KindPaletteRef:
		return "palette"
	case KindColorRef:
		return "color"
	case KindIntRect:
		return "rect"
	case KindIntPoint:
		return "point"
	case KindTimeoutRef:
		return "timeout"
	case KindXtraInstance:
		return "xtraInstance"
	case KindMatte:
		return "matte"
	case KindStage:
		return "stage"
	case KindPlayerRef:
		return "player"
	case KindMovieRef:
		return "movie"
	case KindDateRef:
		return "date"
	default:
		return "unknown"
	}
}

// ListKind distinguishes a plain Lingo list from the two ABI-signaling
// shapes the dispatcher builds for a handler call's argument list.
type ListKind uint8

const (
	ListPlain ListKind = iota
	ListArgList
	ListArgListNoRet
)

// IntPoint is a Lingo point value: a pair of integer coordinates.
type IntPoint struct{ X, Y int32 }

// IntRect is a Lingo rect value: left/top/right/bottom integer bounds.
type IntRect struct{ Left, Top, Right, Bottom int32 }

// Color is an 8-bit-per-channel RGB color value.
type Color struct{ R, G, B uint8 }

// PropListEntry is one key/value pair of a propList, in insertion order
// (propLists additionally track whether they're kept sorted; see
// Value.PropListSorted).
type PropListEntry struct {
	Key   Handle
	Value Handle
}

// StringChunkSpec names a derived substring view: a chunk expression
// (char/word/line/item range) evaluated against an external source,
// cached until the caller explicitly re-resolves it.
type StringChunkSpec struct {
	Source    Handle
	Expr      string
	CachedStr string
}

// Value is the tagged union every heap slot holds. Only the field(s)
// matching Kind are meaningful; the others are zero.
type Value struct {
	Kind Kind

	Int    int64
	Float  float64
	Str    string
	Symbol string

	ListKind   ListKind
	List       []Handle
	ListSorted bool

	PropList       []PropListEntry
	PropListSorted bool

	Chunk StringChunkSpec

	MemberRef         cast.MemberRef
	ScriptRef         cast.MemberRef
	ScriptInstanceRef InstanceHandle
	SpriteRef         int32
	BitmapRef         int32
	PaletteRef        int32
	Color             Color
	Rect              IntRect
	Point             IntPoint
	TimeoutRef        string
	XtraInstanceRef   int32
	MatteRef          int32
	DateRef           int32
}

// Void is the singleton void value every Kind-zero Value represents.
var Void = Value{Kind: KindVoid}

// Null is the Lingo `null`/empty-symbol value, distinct from Void.
var Null = Value{Kind: KindNull}

// IsVoid reports whether v is the Void variant.
func (v Value) IsVoid() bool { return v.Kind == KindVoid }

// NewInt builds an Int value.
func NewInt(n int64) Value { return Value{Kind: KindInt, Int: n} }

// NewFloat builds a Float value.
func NewFloat(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// NewString builds a String value.
func NewString(s string) Value { return Value{Kind: KindString, Str: s} }

// NewSymbol builds a Symbol value.
func NewSymbol(s string) Value { return Value{Kind: KindSymbol, Symbol: s} }

// NewList builds a List value of the given ABI kind.
func NewList(kind ListKind, items []Handle) Value {
	return Value{Kind: KindList, ListKind: kind, List: items}
}
