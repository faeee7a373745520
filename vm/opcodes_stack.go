// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"math"

	"github.com/stagevm/core/container"
	"github.com/stagevm/core/heap"
)

// stackOpcodes registers every opcode that only pushes, pops, or
// rearranges the operand stack: literal pushes, Swap/Peek/Pop, PushVarRef,
// the PushList/PushPropList conversions of an argument list, and Ret.
// Grounded on player/bytecode/stack.rs.
func stackOpcodes() map[container.OpCode]opcodeFunc {
	return map[container.OpCode]opcodeFunc{
		container.OpRet:          opRet,
		container.OpRetFactory:   opRet,
		container.OpPushZero:     opPushZero,
		container.OpPushInt8:     opPushInt,
		container.OpPushInt16:    opPushInt,
		container.OpPushInt32:    opPushInt,
		container.OpPushFloat32:  opPushFloat32,
		container.OpPushCons:     opPushCons,
		container.OpPushSymb:     opPushSymb,
		container.OpPushList:     opPushList,
		container.OpPushPropList: opPushPropList,
		container.OpSwap:         opSwap,
		container.OpPeek:         opPeek,
		container.OpPop:          opPop,
		container.OpPushVarRef:   opPushVarRef,
	}
}

func opRet(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	if len(sc.Stack) > 0 {
		top, err := sc.Pop()
		if err != nil {
			return err
		}
		sc.ReturnValue = top
	}
	return errReturn
}

func opPushZero(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	h, err := it.Heap.Alloc(heap.NewInt(0))
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

func opPushInt(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	h, err := it.Heap.Alloc(heap.NewInt(bc.Arg))
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

func opPushFloat32(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	f := math.Float32frombits(uint32(bc.Arg))
	h, err := it.Heap.Alloc(heap.NewFloat(float64(f)))
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

// opPushCons pushes a literal from the running script's literal table,
// its wire-format Kind deciding whether it resolves to a String, an Int or
// a Float (any other kind pushes Void). The raw operand is
// a name-table-scaled index, divided out by the same legacy/modern
// multiplier as GetLocal/GetGlobal before it addresses the literal table.
func opPushCons(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	lit, err := literalAt(sc, int64(variableIndex(it, sc, bc.Arg)))
	if err != nil {
		return err
	}
	var v heap.Value
	switch lit.Kind {
	case container.LiteralString:
		v = heap.NewString(lit.Str)
	case container.LiteralInt:
		v = heap.NewInt(int64(lit.Int))
	case container.LiteralFloat:
		v = heap.NewFloat(lit.Float)
	default:
		v = heap.Void
	}
	h, err := it.Heap.Alloc(v)
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

// opPushSymb pushes a `#symbol` literal. Unlike PushCons, its operand
// addresses the script's shared name table directly (no literal-table
// lookup, no variable-multiplier scaling).
func opPushSymb(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	if sc.Script == nil {
		return ErrMalformedBytecode
	}
	name := sc.Script.Name(uint16(bc.Arg))
	h, err := it.Heap.Alloc(heap.NewSymbol(name))
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

func literalAt(sc *Scope, idx int64) (container.Literal, error) {
	if sc.Script == nil || sc.Script.Chunk == nil {
		return container.Literal{}, ErrMalformedBytecode
	}
	lits := sc.Script.Chunk.Literals
	if idx < 0 || int(idx) >= len(lits) {
		return container.Literal{}, ErrMalformedBytecode
	}
	return lits[idx], nil
}

// opPushList converts the ArgList a preceding PushArgList built into a
// plain list value. The list's element count travels on the ArgList
// itself, not in bc.Arg — PushList's operand is unused, matching the
// original's push_list/push_arglist pairing.
func opPushList(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	items, _, err := argListOnStack(it, sc)
	if err != nil {
		return err
	}
	h, err := it.Heap.Alloc(heap.NewList(heap.ListPlain, items))
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

// opPushPropList converts the ArgList a preceding PushArgList built —
// its elements alternating key/value — into a propList.
func opPushPropList(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	items, _, err := argListOnStack(it, sc)
	if err != nil {
		return err
	}
	if len(items)%2 != 0 {
		return ErrMalformedBytecode
	}
	entries := make([]heap.PropListEntry, 0, len(items)/2)
	for i := 0; i+1 < len(items); i += 2 {
		entries = append(entries, heap.PropListEntry{Key: items[i], Value: items[i+1]})
	}
	h, err := it.Heap.Alloc(heap.Value{Kind: heap.KindPropList, PropList: entries})
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

func opSwap(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	a, err := sc.Pop()
	if err != nil {
		return err
	}
	b, err := sc.Pop()
	if err != nil {
		return err
	}
	sc.Push(a)
	sc.Push(b)
	return nil
}

func opPeek(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	h, err := sc.Peek(int(bc.Arg))
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

func opPop(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	_, err := sc.Pop()
	return err
}

// opPushVarRef pushes a StringChunk-like reference value carrying a raw
// variable name rather than resolving it immediately; used by `put ...
// into word 1 of x`-style chunk assignment targets built ahead of the
// PutChunk opcode that consumes them. Resolved lazily since the original
// keeps it as an unevaluated reference too.
func opPushVarRef(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	lit, err := literalAt(sc, bc.Arg)
	if err != nil {
		return err
	}
	h, err := it.Heap.Alloc(heap.NewSymbol(lit.Str))
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}
