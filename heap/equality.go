// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package heap

import "strings"

// isNumeric reports whether a value participates in numeric promotion.
func isNumeric(v Value) bool { return v.Kind == KindInt || v.Kind == KindFloat }

func numericValue(v Value) float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// isTextlike reports whether a value compares as text (string or symbol
// compare case-insensitively against each other).
func isTextlike(v Value) bool { return v.Kind == KindString || v.Kind == KindSymbol }

func textValue(v Value) string {
	if v.Kind == KindString {
		return v.Str
	}
	return v.Symbol
}

// Equal reports whether the values behind a and b are equal under Lingo's
// rules: same-variant equality for everything except numeric cross-type
// (int/float promote to float) and string/symbol (compare
// case-insensitively against each other).
func (h *Heap) Equal(a, b Handle) bool {
	va, oka := h.Get(a)
	vb, okb := h.Get(b)
	if !oka || !okb {
		return oka == okb
	}
	return h.equalValues(va, vb)
}

func (h *Heap) equalValues(va, vb Value) bool {
	if isNumeric(va) && isNumeric(vb) {
		return numericValue(va) == numericValue(vb)
	}
	if isTextlike(va) && isTextlike(vb) {
		return strings.EqualFold(textValue(va), textValue(vb))
	}
	if va.Kind != vb.Kind {
		return false
	}

	switch va.Kind {
	case KindVoid, KindNull:
		return true
	case KindList:
		if va.ListKind != vb.ListKind || len(va.List) != len(vb.List) {
			return false
		}
		for i := range va.List {
			if !h.Equal(va.List[i], vb.List[i]) {
				return false
			}
		}
		return true
	case KindPropList:
		if len(va.PropList) != len(vb.PropList) {
			return false
		}
		for i := range va.PropList {
			if !h.Equal(va.PropList[i].Key, vb.PropList[i].Key) {
				return false
			}
			if !h.Equal(va.PropList[i].Value, vb.PropList[i].Value) {
				return false
			}
		}
		return true
	case KindCastMemberRef:
		return va.MemberRef == vb.MemberRef
	case KindScriptRef:
		return va.ScriptRef == vb.ScriptRef
	case KindScriptInstanceRef:
		return va.ScriptInstanceRef == vb.ScriptInstanceRef
	case KindSpriteRef:
		return va.SpriteRef == vb.SpriteRef
	case KindBitmapRef:
		return va.BitmapRef == vb.BitmapRef
	case KindPaletteRef:
		return va.PaletteRef == vb.PaletteRef
	case KindColorRef:
		return va.Color == vb.Color
	case KindIntRect:
		return va.Rect == vb.Rect
	case KindIntPoint:
		return va.Point == vb.Point
	case KindTimeoutRef:
		return va.TimeoutRef == vb.TimeoutRef
	case KindXtraInstance:
		return va.XtraInstanceRef == vb.XtraInstanceRef
	case KindMatte:
		return va.MatteRef == vb.MatteRef
	case KindDateRef:
		return va.DateRef == vb.DateRef
	case KindStage, KindPlayerRef, KindMovieRef:
		return true
	default:
		return false
	}
}

// Less reports whether a orders strictly before b. ok is false when the
// pair has no defined ordering (anything other than two numerics or two
// points); callers should read an unordered pair as false for both `<`
// and `>`, per Lingo's comparison semantics.
func (h *Heap) Less(a, b Handle) (less bool, ok bool) {
	va, oka := h.Get(a)
	vb, okb := h.Get(b)
	if !oka || !okb {
		return false, false
	}

	if isNumeric(va) && isNumeric(vb) {
		return numericValue(va) < numericValue(vb), true
	}
	if va.Kind == KindIntPoint && vb.Kind == KindIntPoint {
		if va.Point.X != vb.Point.X {
			return va.Point.X < vb.Point.X, true
		}
		return va.Point.Y < vb.Point.Y, true
	}
	return false, false
}
