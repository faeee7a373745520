// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"testing"

	"github.com/stagevm/core/cast"
	"github.com/stagevm/core/container"
	"github.com/stagevm/core/heap"
	"github.com/stagevm/core/internal/config"
)

// newTestInterpreter wires an Interpreter against a fresh heap and a
// Manager holding a single library (number 1, DirVersion 0 so variable
// indices use the legacy 1x multiplier unless a test overrides it).
func newTestInterpreter(t *testing.T) (*Interpreter, *cast.Manager) {
	t.Helper()
	h := heap.New(0)
	casts := cast.NewManager(config.Player{}, nil, nil)
	lib := cast.NewLibrary(1, container.CastListEntry{Name: "internal"}, config.PreloadOnDemand, nil)
	casts.Libraries = append(casts.Libraries, lib)
	it := NewInterpreter(h, casts, config.Player{AllocatorCycleEvery: 1}, nil)
	return it, casts
}

// handlerFromBytecode builds a HandlerDef from a flat instruction list,
// deriving the position->index map every jump opcode resolves through.
// Each bc's Pos is assigned its index (one "byte" per instruction) unless
// the caller already set one, matching how tests express jump deltas as
// instruction counts rather than real compiled byte offsets.
func handlerFromBytecode(bcs ...container.Bytecode) *container.HandlerDef {
	idx := make(map[int]int, len(bcs))
	for i := range bcs {
		if bcs[i].Pos == 0 {
			bcs[i].Pos = i
		}
		idx[bcs[i].Pos] = i
	}
	return &container.HandlerDef{Bytecode: bcs, BytecodeIndexByPos: idx}
}

// bc is a terse constructor for a single instruction at a given index
// position (tests pass the instruction's own index as pos so jump deltas
// read as "how many instructions to skip").
func bc(op container.OpCode, arg int64, pos int) container.Bytecode {
	return container.Bytecode{Op: op, Arg: arg, Pos: pos}
}

// newTestScript registers a one-library script named name with the given
// handlers (keyed by handler name) directly on the manager's library 1,
// and returns the script plus its MemberRef.
func newTestScript(t *testing.T, casts *cast.Manager, memberNumber int32, scriptType container.ScriptType, handlerNames []string, handlers []container.HandlerDef) (*cast.Script, cast.MemberRef) {
	t.Helper()
	lib, ok := casts.Library(1)
	if !ok {
		t.Fatalf("test library 1 missing")
	}

	names := append([]string{""}, handlerNames...)
	for i := range handlers {
		handlers[i].NameID = uint16(i + 1)
	}
	chunk := &container.ScriptChunk{Handlers: handlers}
	script := cast.NewScript(memberNumber, "TestScript", scriptType, chunk, names)
	lib.Scripts[memberNumber] = script

	lib.Members[memberNumber] = &cast.Member{
		Number:     memberNumber,
		Name:       "TestScript",
		Type:       container.MemberTypeScript,
		ScriptID:   uint32(memberNumber),
		ScriptType: scriptType,
	}

	return script, cast.MemberRef{CastLib: 1, CastMember: memberNumber}
}

// runHandler invokes handler 0 of script with args and returns the
// resulting scope (for stack/locals inspection) alongside any error.
func runHandler(t *testing.T, it *Interpreter, script *cast.Script, ref cast.MemberRef, receiver heap.InstanceHandle, args []heap.Handle) (*Scope, error) {
	t.Helper()
	handler := &script.Chunk.Handlers[0]
	sc := NewScope(ref, script, handler, script.HandlerNames()[0], receiver, args)
	err := it.Run(sc)
	return sc, err
}

func allocInt(t *testing.T, it *Interpreter, n int64) heap.Handle {
	t.Helper()
	h, err := it.Heap.Alloc(heap.NewInt(n))
	if err != nil {
		t.Fatalf("Alloc(Int) error = %v", err)
	}
	return h
}

func allocStr(t *testing.T, it *Interpreter, s string) heap.Handle {
	t.Helper()
	h, err := it.Heap.Alloc(heap.NewString(s))
	if err != nil {
		t.Fatalf("Alloc(String) error = %v", err)
	}
	return h
}

func mustGet(t *testing.T, it *Interpreter, h heap.Handle) heap.Value {
	t.Helper()
	v, ok := it.Heap.Get(h)
	if !ok {
		t.Fatalf("Get(%v) ok = false", h)
	}
	return v
}
