// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/stagevm/core/container"
	"github.com/stagevm/core/heap"
)

// arithOpcodes registers the numeric family: Add/Sub/Mul/Div/Mod/Inv.
// Grounded on player/bytecode/arithmetics.rs, including its list-broadcast
// rule (a list combined with a scalar applies the operator element-wise)
// and its Int/Float promotion table (stay Int only when both operands
// are Int).
func arithOpcodes() map[container.OpCode]opcodeFunc {
	return map[container.OpCode]opcodeFunc{
		container.OpAdd: binNumeric(addInt, func(a, b float64) float64 { return a + b }),
		container.OpSub: binNumeric(subInt, func(a, b float64) float64 { return a - b }),
		container.OpMul: binNumeric(mulInt, func(a, b float64) float64 { return a * b }),
		container.OpDiv: binNumeric(divInt, func(a, b float64) float64 { return a / b }),
		container.OpMod: binNumeric(modInt, func(a, b float64) float64 {
			// Mod has no Float identity in Lingo; the float arm, taken
			// whenever either operand is a Float, truncates both toward
			// zero and returns their integer remainder.
			ai, bi := int64(a), int64(b)
			if bi == 0 {
				return 0
			}
			return float64(ai % bi)
		}),
		container.OpInv: opInv,
	}
}

func addInt(a, b int64) (int64, error) { return a + b, nil }
func subInt(a, b int64) (int64, error) { return a - b, nil }
func mulInt(a, b int64) (int64, error) { return a * b, nil }

func divInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

func modInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a % b, nil
}

// binNumeric builds an opcodeFunc for a binary arithmetic opcode: pops two
// operands (b then a, stack order), applies the list-broadcast rule when
// either side is a list, and otherwise applies the scalar Int/Float rule.
func binNumeric(intOp func(int64, int64) (int64, error), floatOp func(float64, float64) float64) opcodeFunc {
	return func(it *Interpreter, sc *Scope, bc container.Bytecode) error {
		bh, err := sc.Pop()
		if err != nil {
			return err
		}
		ah, err := sc.Pop()
		if err != nil {
			return err
		}
		av, ok := it.Heap.Get(ah)
		if !ok {
			return ErrMalformedBytecode
		}
		bv, ok := it.Heap.Get(bh)
		if !ok {
			return ErrMalformedBytecode
		}

		result, err := applyNumeric(it, av, bv, intOp, floatOp)
		if err != nil {
			return err
		}
		h, err := it.Heap.Alloc(result)
		if err != nil {
			return err
		}
		sc.Push(h)
		return nil
	}
}

// applyNumeric handles the scalar case directly and broadcasts across a
// list operand element-wise, matching arithmetics.rs's datum_add/_sub/...
// list arms (list op scalar, scalar op list, and list op list pairwise).
func applyNumeric(it *Interpreter, a, b heap.Value, intOp func(int64, int64) (int64, error), floatOp func(float64, float64) float64) (heap.Value, error) {
	aList := a.Kind == heap.KindList
	bList := b.Kind == heap.KindList

	switch {
	case aList && bList:
		if len(a.List) != len(b.List) {
			return heap.Value{}, ErrTypeMismatch
		}
		out := make([]heap.Handle, len(a.List))
		for i := range a.List {
			av, _ := it.Heap.Get(a.List[i])
			bv, _ := it.Heap.Get(b.List[i])
			r, err := applyNumeric(it, av, bv, intOp, floatOp)
			if err != nil {
				return heap.Value{}, err
			}
			h, err := it.Heap.Alloc(r)
			if err != nil {
				return heap.Value{}, err
			}
			out[i] = h
		}
		return heap.NewList(a.ListKind, out), nil

	case aList:
		out := make([]heap.Handle, len(a.List))
		for i, eh := range a.List {
			ev, _ := it.Heap.Get(eh)
			r, err := applyNumeric(it, ev, b, intOp, floatOp)
			if err != nil {
				return heap.Value{}, err
			}
			h, err := it.Heap.Alloc(r)
			if err != nil {
				return heap.Value{}, err
			}
			out[i] = h
		}
		return heap.NewList(a.ListKind, out), nil

	case bList:
		out := make([]heap.Handle, len(b.List))
		for i, eh := range b.List {
			ev, _ := it.Heap.Get(eh)
			r, err := applyNumeric(it, a, ev, intOp, floatOp)
			if err != nil {
				return heap.Value{}, err
			}
			h, err := it.Heap.Alloc(r)
			if err != nil {
				return heap.Value{}, err
			}
			out[i] = h
		}
		return heap.NewList(b.ListKind, out), nil

	default:
		if !isNumericValue(a) || !isNumericValue(b) {
			return heap.Value{}, ErrTypeMismatch
		}
		return numericBinOp(a, b, intOp, floatOp)
	}
}

// opInv negates the top of stack (unary minus).
func opInv(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	h, err := sc.Pop()
	if err != nil {
		return err
	}
	v, ok := it.Heap.Get(h)
	if !ok {
		return ErrMalformedBytecode
	}
	var out heap.Value
	switch v.Kind {
	case heap.KindInt:
		out = heap.NewInt(-v.Int)
	case heap.KindFloat:
		out = heap.NewFloat(-v.Float)
	default:
		return ErrTypeMismatch
	}
	nh, err := it.Heap.Alloc(out)
	if err != nil {
		return err
	}
	sc.Push(nh)
	return nil
}
