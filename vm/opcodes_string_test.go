// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"testing"

	"github.com/stagevm/core/cast"
	"github.com/stagevm/core/container"
	"github.com/stagevm/core/heap"
)

func TestJoinStrConcatenates(t *testing.T) {
	it, _ := newTestInterpreter(t)
	a := allocStr(t, it, "foo")
	b := allocStr(t, it, "bar")
	sc := NewScope(cast.MemberRef{}, nil, nil, "go", heap.InstanceHandle{}, nil)
	sc.Push(a)
	sc.Push(b)
	if err := opJoinStr(it, sc, container.Bytecode{}); err != nil {
		t.Fatalf("opJoinStr error = %v", err)
	}
	result, err := sc.Pop()
	if err != nil {
		t.Fatalf("Pop error = %v", err)
	}
	got := mustGet(t, it, result)
	if got.Str != "foobar" {
		t.Errorf("join(foo,bar) = %q, want foobar", got.Str)
	}
}

func TestJoinPadStrInsertsSpace(t *testing.T) {
	it, _ := newTestInterpreter(t)
	a := allocStr(t, it, "foo")
	b := allocStr(t, it, "bar")
	sc := NewScope(cast.MemberRef{}, nil, nil, "go", heap.InstanceHandle{}, nil)
	sc.Push(a)
	sc.Push(b)
	if err := opJoinPadStr(it, sc, container.Bytecode{}); err != nil {
		t.Fatalf("opJoinPadStr error = %v", err)
	}
	result, _ := sc.Pop()
	got := mustGet(t, it, result)
	if got.Str != "foo bar" {
		t.Errorf("joinPad(foo,bar) = %q, want \"foo bar\"", got.Str)
	}
}

func TestContainsStrFindsSubstring(t *testing.T) {
	it, _ := newTestInterpreter(t)
	subject := allocStr(t, it, "hello world")
	search := allocStr(t, it, "world")
	sc := NewScope(cast.MemberRef{}, nil, nil, "go", heap.InstanceHandle{}, nil)
	sc.Push(subject)
	sc.Push(search)
	if err := opContainsStr(it, sc, container.Bytecode{}); err != nil {
		t.Fatalf("opContainsStr error = %v", err)
	}
	result, _ := sc.Pop()
	got := mustGet(t, it, result)
	if !toBool(got) {
		t.Errorf("contains(\"hello world\", \"world\") = %+v, want true", got)
	}
}

func TestContains0StrChecksPrefix(t *testing.T) {
	it, _ := newTestInterpreter(t)
	subject := allocStr(t, it, "hello world")
	search := allocStr(t, it, "hello")
	sc := NewScope(cast.MemberRef{}, nil, nil, "go", heap.InstanceHandle{}, nil)
	sc.Push(subject)
	sc.Push(search)
	if err := opContains0Str(it, sc, container.Bytecode{}); err != nil {
		t.Fatalf("opContains0Str error = %v", err)
	}
	result, _ := sc.Pop()
	got := mustGet(t, it, result)
	if !toBool(got) {
		t.Errorf("startsWith(\"hello world\", \"hello\") = %+v, want true", got)
	}

	sc.Push(subject)
	sc.Push(allocStr(t, it, "world"))
	if err := opContains0Str(it, sc, container.Bytecode{}); err != nil {
		t.Fatalf("opContains0Str error = %v", err)
	}
	result2, _ := sc.Pop()
	got2 := mustGet(t, it, result2)
	if toBool(got2) {
		t.Errorf("startsWith(\"hello world\", \"world\") = %+v, want false", got2)
	}
}

// pushChunkBounds pushes the eight range-bound ints readChunkRange expects,
// bottom-to-top: firstChar, lastChar, firstWord, lastWord, firstItem,
// lastItem, firstLine, lastLine (so the first Pop call sees lastLine).
func pushChunkBounds(it *Interpreter, t *testing.T, sc *Scope, firstWord, lastWord int64) {
	t.Helper()
	bounds := []int64{0, 0, firstWord, lastWord, 0, 0, 0, 0}
	for _, n := range bounds {
		sc.Push(allocInt(t, it, n))
	}
}

func TestGetChunkExtractsWordRange(t *testing.T) {
	it, _ := newTestInterpreter(t)
	sc := NewScope(cast.MemberRef{}, nil, nil, "go", heap.InstanceHandle{}, nil)
	pushChunkBounds(it, t, sc, 2, 3)
	sc.Push(allocStr(t, it, "one two three four"))

	if err := opGetChunk(it, sc, container.Bytecode{}); err != nil {
		t.Fatalf("opGetChunk error = %v", err)
	}
	result, err := sc.Pop()
	if err != nil {
		t.Fatalf("Pop error = %v", err)
	}
	got := mustGet(t, it, result)
	if got.Str != "two three" {
		t.Errorf("GetChunk(word 2..3) = %q, want \"two three\"", got.Str)
	}
}

func TestPutIntoLocalSlot(t *testing.T) {
	it, casts := newTestInterpreter(t)
	handler := handlerFromBytecode(bc(container.OpRet, 0, 0))
	handler.LocalNameIDs = []uint16{2}
	script, ref := newTestScript(t, casts, 1, container.ScriptTypeMovie, []string{"go", "x"}, []container.HandlerDef{*handler})
	sc := NewScope(ref, script, &script.Chunk.Handlers[0], "go", heap.InstanceHandle{}, nil)

	sc.Push(allocStr(t, it, "hello"))
	// putStyle 0 (into), slot 1 (local), idx 0 (idx bits start at bit 8).
	arg := int64(slotLocal) // putStyle nibble 0, slot nibble 1
	if err := opPut(it, sc, container.Bytecode{Arg: arg}); err != nil {
		t.Fatalf("opPut error = %v", err)
	}
	h := sc.Locals["x"]
	got := mustGet(t, it, h)
	if got.Str != "hello" {
		t.Errorf("local x = %q, want \"hello\"", got.Str)
	}
}

func TestPutAfterLocalSlotAppends(t *testing.T) {
	it, casts := newTestInterpreter(t)
	handler := handlerFromBytecode(bc(container.OpRet, 0, 0))
	handler.LocalNameIDs = []uint16{2}
	script, ref := newTestScript(t, casts, 1, container.ScriptTypeMovie, []string{"go", "x"}, []container.HandlerDef{*handler})
	sc := NewScope(ref, script, &script.Chunk.Handlers[0], "go", heap.InstanceHandle{}, nil)
	sc.Locals["x"] = allocStr(t, it, "foo")

	sc.Push(allocStr(t, it, "bar"))
	arg := int64(1<<4) | int64(slotLocal) // putStyle 1 == after
	if err := opPut(it, sc, container.Bytecode{Arg: arg}); err != nil {
		t.Fatalf("opPut error = %v", err)
	}
	got := mustGet(t, it, sc.Locals["x"])
	if got.Str != "foobar" {
		t.Errorf("local x = %q, want foobar", got.Str)
	}
}

func TestDeleteChunkRemovesWordRange(t *testing.T) {
	it, casts := newTestInterpreter(t)
	handler := handlerFromBytecode(bc(container.OpRet, 0, 0))
	handler.LocalNameIDs = []uint16{2}
	script, ref := newTestScript(t, casts, 1, container.ScriptTypeMovie, []string{"go", "x"}, []container.HandlerDef{*handler})
	sc := NewScope(ref, script, &script.Chunk.Handlers[0], "go", heap.InstanceHandle{}, nil)
	sc.Locals["x"] = allocStr(t, it, "one two three four")

	pushChunkBounds(it, t, sc, 2, 2)
	arg := int64(slotLocal)
	if err := opDeleteChunk(it, sc, container.Bytecode{Arg: arg}); err != nil {
		t.Fatalf("opDeleteChunk error = %v", err)
	}
	got := mustGet(t, it, sc.Locals["x"])
	if got.Str != "one three four" {
		t.Errorf("local x = %q, want \"one three four\"", got.Str)
	}
}

func TestPushChunkVarRefResolvesCurrentValue(t *testing.T) {
	it, casts := newTestInterpreter(t)
	handler := handlerFromBytecode(bc(container.OpRet, 0, 0))
	handler.LocalNameIDs = []uint16{2}
	script, ref := newTestScript(t, casts, 1, container.ScriptTypeMovie, []string{"go", "x"}, []container.HandlerDef{*handler})
	sc := NewScope(ref, script, &script.Chunk.Handlers[0], "go", heap.InstanceHandle{}, nil)
	sc.Locals["x"] = allocStr(t, it, "hello")

	arg := int64(slotLocal)
	if err := opPushChunkVarRef(it, sc, container.Bytecode{Arg: arg}); err != nil {
		t.Fatalf("opPushChunkVarRef error = %v", err)
	}
	result, err := sc.Pop()
	if err != nil {
		t.Fatalf("Pop error = %v", err)
	}
	got := mustGet(t, it, result)
	if got.Str != "hello" {
		t.Errorf("ReturnValue = %q, want hello", got.Str)
	}
}

func TestItemDelimiterCustomizesSplit(t *testing.T) {
	it, _ := newTestInterpreter(t)
	it.movieProps = map[string]heap.Handle{"itemDelimiter": allocStr(t, it, ";")}
	sc := NewScope(cast.MemberRef{}, nil, nil, "go", heap.InstanceHandle{}, nil)

	bounds := []int64{0, 0, 0, 0, 2, 2, 0, 0} // item 2..2
	for _, n := range bounds {
		sc.Push(allocInt(t, it, n))
	}
	sc.Push(allocStr(t, it, "a;b;c"))
	if err := opGetChunk(it, sc, container.Bytecode{}); err != nil {
		t.Fatalf("opGetChunk error = %v", err)
	}
	result, err := sc.Pop()
	if err != nil {
		t.Fatalf("Pop error = %v", err)
	}
	got := mustGet(t, it, result)
	if got.Str != "b" {
		t.Errorf("GetChunk(item 2, custom delim) = %q, want \"b\"", got.Str)
	}
}
