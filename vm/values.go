// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"math"
	"strconv"

	"github.com/stagevm/core/heap"
)

// variableMultiplier returns the divisor a GetLocal/SetLocal/GetParam/…
// opcode's raw operand must be divided by to recover a variable-table
// index: legacy (pre-500) movies compile a 1:1 index, modern movies
// compile a 6x-scaled index.
func variableMultiplier(dirVersion uint16) int64 {
	if dirVersion >= 500 {
		return 6
	}
	return 1
}

// isFalsy reports whether v counts as false for JmpIfZ:
// zero int, zero float, Void, or Null.
func isFalsy(v heap.Value) bool {
	switch v.Kind {
	case heap.KindVoid, heap.KindNull:
		return true
	case heap.KindInt:
		return v.Int == 0
	case heap.KindFloat:
		return v.Float == 0
	default:
		return false
	}
}

// toBool coerces a value to a Lingo boolean: nonzero int / nonempty
// string / nonvoid, per spec's logical-opcode coercion rule.
func toBool(v heap.Value) bool {
	switch v.Kind {
	case heap.KindVoid, heap.KindNull:
		return false
	case heap.KindInt:
		return v.Int != 0
	case heap.KindFloat:
		return v.Float != 0
	case heap.KindString:
		return v.Str != ""
	case heap.KindSymbol:
		return v.Symbol != ""
	default:
		return true
	}
}

func boolValue(b bool) heap.Value {
	if b {
		return heap.NewInt(1)
	}
	return heap.NewInt(0)
}

func isNumericValue(v heap.Value) bool {
	return v.Kind == heap.KindInt || v.Kind == heap.KindFloat
}

func asFloat(v heap.Value) float64 {
	if v.Kind == heap.KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// numericBinOp applies op to two numeric values, staying Int when both
// operands are Int and promoting to Float otherwise, matching the
// original's per-combination (Int,Int)/(Int,Float)/(Float,Int)/(Float,Float)
// match arms.
func numericBinOp(a, b heap.Value, intOp func(int64, int64) (int64, error), floatOp func(float64, float64) float64) (heap.Value, error) {
	if a.Kind == heap.KindInt && b.Kind == heap.KindInt {
		r, err := intOp(a.Int, b.Int)
		if err != nil {
			return heap.Value{}, err
		}
		return heap.NewInt(r), nil
	}
	return heap.NewFloat(floatOp(asFloat(a), asFloat(b))), nil
}

func formatValue(v heap.Value) string {
	switch v.Kind {
	case heap.KindVoid:
		return ""
	case heap.KindNull:
		return "<Void>"
	case heap.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case heap.KindFloat:
		return formatFloat(v.Float)
	case heap.KindString:
		return v.Str
	case heap.KindSymbol:
		return "#" + v.Symbol
	default:
		return "<" + v.Kind.String() + ">"
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	// Lingo floats print without unnecessary trailing zeros; strconv's
	// 'g' formatting with -1 precision matches that closely enough for
	// the handler-visible `string(aFloat)` coercion.
	return strconv.FormatFloat(f, 'g', -1, 64)
}
