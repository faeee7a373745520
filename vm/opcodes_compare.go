// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/stagevm/core/container"
	"github.com/stagevm/core/heap"
)

// compareOpcodes registers the comparison and logical family:
// Lt/LtEq/Gt/GtEq/Eq/NtEq/And/Or/Not. Grounded on
// player/bytecode/compare.rs, which delegates every comparison to the
// allocator's datum_equals/datum_greater_than/datum_less_than and every
// logical op to to_bool.
func compareOpcodes() map[container.OpCode]opcodeFunc {
	return map[container.OpCode]opcodeFunc{
		container.OpEq:   binCompare(func(h *heap.Heap, a, b heap.Handle) bool { return h.Equal(a, b) }),
		container.OpNtEq: binCompare(func(h *heap.Heap, a, b heap.Handle) bool { return !h.Equal(a, b) }),
		container.OpLt:   binCompare(func(h *heap.Heap, a, b heap.Handle) bool { less, _ := h.Less(a, b); return less }),
		container.OpGt:   binCompare(func(h *heap.Heap, a, b heap.Handle) bool { gt, _ := h.Less(b, a); return gt }),
		// LtEq/GtEq read as "not the other strict direction": correct for
		// a total order (two numerics, two points) and false for an
		// unordered pair, matching </> themselves rather than Lingo
		// defining <=/>= independently.
		container.OpLtEq: binCompare(func(h *heap.Heap, a, b heap.Handle) bool {
			gt, ok := h.Less(b, a)
			return ok && !gt
		}),
		container.OpGtEq: binCompare(func(h *heap.Heap, a, b heap.Handle) bool {
			lt, ok := h.Less(a, b)
			return ok && !lt
		}),
		container.OpAnd: binLogical(func(a, b bool) bool { return a && b }),
		container.OpOr:  binLogical(func(a, b bool) bool { return a || b }),
		container.OpNot: opNot,
	}
}

// binCompare pops b then a (stack order) and pushes the boolean result of
// cmp(heap, a, b).
func binCompare(cmp func(h *heap.Heap, a, b heap.Handle) bool) opcodeFunc {
	return func(it *Interpreter, sc *Scope, bc container.Bytecode) error {
		bh, err := sc.Pop()
		if err != nil {
			return err
		}
		ah, err := sc.Pop()
		if err != nil {
			return err
		}
		result := cmp(it.Heap, ah, bh)
		h, err := it.Heap.Alloc(boolValue(result))
		if err != nil {
			return err
		}
		sc.Push(h)
		return nil
	}
}

// binLogical pops b then a, coerces both to bool per Lingo's truthiness
// rule, and pushes the combined result.
func binLogical(combine func(a, b bool) bool) opcodeFunc {
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
		h, err := it.Heap.Alloc(boolValue(combine(toBool(av), toBool(bv))))
		if err != nil {
			return err
		}
		sc.Push(h)
		return nil
	}
}

func opNot(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	ah, err := sc.Pop()
	if err != nil {
		return err
	}
	av, ok := it.Heap.Get(ah)
	if !ok {
		return ErrMalformedBytecode
	}
	h, err := it.Heap.Alloc(boolValue(!toBool(av)))
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}
