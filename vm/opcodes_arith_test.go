// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"math"
	"testing"

	"github.com/stagevm/core/container"
	"github.com/stagevm/core/heap"
)

func runArith(t *testing.T, op container.OpCode, a, b container.Bytecode) (heap.Value, error) {
	t.Helper()
	it, casts := newTestInterpreter(t)
	handler := handlerFromBytecode(
		a,
		b,
		bc(op, 0, 2),
		bc(container.OpRet, 0, 3),
	)
	script, ref := newTestScript(t, casts, 1, container.ScriptTypeMovie, []string{"go"}, []container.HandlerDef{*handler})
	sc, err := runHandler(t, it, script, ref, heap.InstanceHandle{}, nil)
	if err != nil {
		return heap.Value{}, err
	}
	return mustGet(t, it, sc.ReturnValue), nil
}

func TestArithIntStaysInt(t *testing.T) {
	got, err := runArith(t, container.OpAdd, bc(container.OpPushInt8, 3, 0), bc(container.OpPushInt8, 4, 1))
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if got.Kind != heap.KindInt || got.Int != 7 {
		t.Errorf("3 add 4 = %+v, want Int 7", got)
	}
}

func TestArithFloatPromotion(t *testing.T) {
	it, casts := newTestInterpreter(t)
	handler := handlerFromBytecode(
		bc(container.OpPushInt8, 3, 0),
		bc(container.OpPushFloat32, int64(math.Float32bits(0.5)), 1),
		bc(container.OpAdd, 0, 2),
		bc(container.OpRet, 0, 3),
	)
	script, ref := newTestScript(t, casts, 1, container.ScriptTypeMovie, []string{"go"}, []container.HandlerDef{*handler})
	sc, err := runHandler(t, it, script, ref, heap.InstanceHandle{}, nil)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	got := mustGet(t, it, sc.ReturnValue)
	if got.Kind != heap.KindFloat || got.Float != 3.5 {
		t.Errorf("3 add 0.5 = %+v, want Float 3.5", got)
	}
}

func TestDivideByZero(t *testing.T) {
	_, err := runArith(t, container.OpDiv, bc(container.OpPushInt8, 5, 0), bc(container.OpPushZero, 0, 1))
	if err == nil {
		t.Fatalf("expected ErrDivideByZero, got nil")
	}
}

func TestArithListBroadcast(t *testing.T) {
	it, casts := newTestInterpreter(t)
	handler := handlerFromBytecode(
		bc(container.OpPushInt8, 1, 0),
		bc(container.OpPushInt8, 2, 1),
		bc(container.OpPushArgList, 2, 2),
		bc(container.OpPushList, 0, 3),
		bc(container.OpPushInt8, 10, 4),
		bc(container.OpAdd, 0, 5),
		bc(container.OpRet, 0, 6),
	)
	script, ref := newTestScript(t, casts, 1, container.ScriptTypeMovie, []string{"go"}, []container.HandlerDef{*handler})
	sc, err := runHandler(t, it, script, ref, heap.InstanceHandle{}, nil)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	got := mustGet(t, it, sc.ReturnValue)
	if got.Kind != heap.KindList || len(got.List) != 2 {
		t.Fatalf("ReturnValue = %+v, want a 2-element list", got)
	}
	first := mustGet(t, it, got.List[0])
	second := mustGet(t, it, got.List[1])
	if first.Int != 11 || second.Int != 12 {
		t.Errorf("broadcast add 10 over [1,2] = [%v,%v], want [11,12]", first.Int, second.Int)
	}
}

func TestInv(t *testing.T) {
	it, casts := newTestInterpreter(t)
	handler := handlerFromBytecode(
		bc(container.OpPushInt8, 9, 0),
		bc(container.OpInv, 0, 1),
		bc(container.OpRet, 0, 2),
	)
	script, ref := newTestScript(t, casts, 1, container.ScriptTypeMovie, []string{"go"}, []container.HandlerDef{*handler})
	sc, err := runHandler(t, it, script, ref, heap.InstanceHandle{}, nil)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	got := mustGet(t, it, sc.ReturnValue)
	if got.Int != -9 {
		t.Errorf("Inv(9) = %v, want -9", got.Int)
	}
}
