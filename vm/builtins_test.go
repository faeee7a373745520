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

func allocList(t *testing.T, it *Interpreter, items ...int64) heap.Handle {
	t.Helper()
	handles := make([]heap.Handle, len(items))
	for i, n := range items {
		handles[i] = allocInt(t, it, n)
	}
	h, err := it.Heap.Alloc(heap.NewList(heap.ListPlain, handles))
	if err != nil {
		t.Fatalf("Alloc(List) error = %v", err)
	}
	return h
}

func intsOf(t *testing.T, it *Interpreter, list heap.Value) []int64 {
	t.Helper()
	out := make([]int64, len(list.List))
	for i, h := range list.List {
		out[i] = mustGet(t, it, h).Int
	}
	return out
}

func TestListBuiltinCountAndGetAt(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocList(t, it, 10, 20, 30)
	receiver := mustGet(t, it, h)

	result, handled, err := it.listBuiltin(h, receiver, "count", nil)
	if err != nil || !handled {
		t.Fatalf("count: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Int != 3 {
		t.Errorf("count = %v, want 3", mustGet(t, it, result).Int)
	}

	result, handled, err = it.listBuiltin(h, receiver, "getAt", []heap.Handle{allocInt(t, it, 2)})
	if err != nil || !handled {
		t.Fatalf("getAt: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Int != 20 {
		t.Errorf("getAt(2) = %v, want 20", mustGet(t, it, result).Int)
	}
}

func TestListBuiltinGetAtOutOfRange(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocList(t, it, 1)
	receiver := mustGet(t, it, h)
	_, handled, err := it.listBuiltin(h, receiver, "getAt", []heap.Handle{allocInt(t, it, 5)})
	if !handled || err != ErrIndexOutOfBounds {
		t.Errorf("getAt(5) on 1-elem list: handled=%v err=%v, want ErrIndexOutOfBounds", handled, err)
	}
}

func TestListBuiltinAddAppendsInOrder(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocList(t, it, 1, 2)
	receiver := mustGet(t, it, h)
	_, handled, err := it.listBuiltin(h, receiver, "add", []heap.Handle{allocInt(t, it, 3)})
	if err != nil || !handled {
		t.Fatalf("add: handled=%v err=%v", handled, err)
	}
	got := intsOf(t, it, mustGet(t, it, h))
	want := []int64{1, 2, 3}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("list after add = %v, want %v", got, want)
	}
}

func TestListBuiltinAddKeepsSortedOrder(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocList(t, it, 1, 5, 9)
	if v := it.Heap.GetMut(h); v != nil {
		v.ListSorted = true
	}
	receiver := mustGet(t, it, h)
	_, handled, err := it.listBuiltin(h, receiver, "add", []heap.Handle{allocInt(t, it, 6)})
	if err != nil || !handled {
		t.Fatalf("add: handled=%v err=%v", handled, err)
	}
	got := intsOf(t, it, mustGet(t, it, h))
	want := []int64{1, 5, 6, 9}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("sorted add(6) = %v, want %v", got, want)
			break
		}
	}
}

func TestListBuiltinAddAtInsertsAtIndex(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocList(t, it, 1, 2, 4)
	receiver := mustGet(t, it, h)
	_, handled, err := it.listBuiltin(h, receiver, "addAt", []heap.Handle{allocInt(t, it, 3), allocInt(t, it, 3)})
	if err != nil || !handled {
		t.Fatalf("addAt: handled=%v err=%v", handled, err)
	}
	got := intsOf(t, it, mustGet(t, it, h))
	want := []int64{1, 2, 3, 4}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("addAt(3, 3) = %v, want %v", got, want)
			break
		}
	}
}

func TestListBuiltinDeleteOneRemovesFirstMatch(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocList(t, it, 5, 6, 5)
	receiver := mustGet(t, it, h)
	result, handled, err := it.listBuiltin(h, receiver, "deleteOne", []heap.Handle{allocInt(t, it, 5)})
	if err != nil || !handled {
		t.Fatalf("deleteOne: handled=%v err=%v", handled, err)
	}
	if !toBool(mustGet(t, it, result)) {
		t.Errorf("deleteOne found-flag = false, want true")
	}
	got := intsOf(t, it, mustGet(t, it, h))
	want := []int64{6, 5}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("after deleteOne(5) = %v, want %v", got, want)
			break
		}
	}
}

func TestListBuiltinDeleteAtOutOfRange(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocList(t, it, 1, 2)
	receiver := mustGet(t, it, h)
	_, handled, err := it.listBuiltin(h, receiver, "deleteAt", []heap.Handle{allocInt(t, it, 9)})
	if !handled || err != ErrIndexOutOfBounds {
		t.Errorf("deleteAt(9): handled=%v err=%v, want ErrIndexOutOfBounds", handled, err)
	}
}

func TestListBuiltinSortOrdersAscending(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocList(t, it, 3, 1, 2)
	receiver := mustGet(t, it, h)
	_, handled, err := it.listBuiltin(h, receiver, "sort", nil)
	if err != nil || !handled {
		t.Fatalf("sort: handled=%v err=%v", handled, err)
	}
	got := intsOf(t, it, mustGet(t, it, h))
	want := []int64{1, 2, 3}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("sorted list = %v, want %v", got, want)
			break
		}
	}
	if !mustGet(t, it, h).ListSorted {
		t.Errorf("ListSorted flag not set after sort")
	}
}

func TestListBuiltinDuplicateCopiesIndependently(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocList(t, it, 1, 2)
	receiver := mustGet(t, it, h)
	result, handled, err := it.listBuiltin(h, receiver, "duplicate", nil)
	if err != nil || !handled {
		t.Fatalf("duplicate: handled=%v err=%v", handled, err)
	}
	if _, handled, err := it.listBuiltin(h, mustGet(t, it, h), "add", []heap.Handle{allocInt(t, it, 3)}); err != nil || !handled {
		t.Fatalf("add on original: handled=%v err=%v", handled, err)
	}
	dup := intsOf(t, it, mustGet(t, it, result))
	if len(dup) != 2 {
		t.Errorf("duplicate length = %d, want 2 (unaffected by later mutation of original)", len(dup))
	}
}

func TestListBuiltinGetOneFindsPosition(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocList(t, it, 7, 8, 9)
	receiver := mustGet(t, it, h)
	result, handled, err := it.listBuiltin(h, receiver, "getOne", []heap.Handle{allocInt(t, it, 8)})
	if err != nil || !handled {
		t.Fatalf("getOne: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Int != 2 {
		t.Errorf("getOne(8) = %v, want 2", mustGet(t, it, result).Int)
	}

	result, _, _ = it.listBuiltin(h, receiver, "getOne", []heap.Handle{allocInt(t, it, 100)})
	if mustGet(t, it, result).Int != 0 {
		t.Errorf("getOne(100) = %v, want 0 (not found)", mustGet(t, it, result).Int)
	}
}

func allocPropList(t *testing.T, it *Interpreter, keys []string, vals []int64) heap.Handle {
	t.Helper()
	entries := make([]heap.PropListEntry, len(keys))
	for i := range keys {
		k, err := it.Heap.Alloc(heap.NewSymbol(keys[i]))
		if err != nil {
			t.Fatalf("Alloc(Symbol) error = %v", err)
		}
		entries[i] = heap.PropListEntry{Key: k, Value: allocInt(t, it, vals[i])}
	}
	h, err := it.Heap.Alloc(heap.Value{Kind: heap.KindPropList, PropList: entries})
	if err != nil {
		t.Fatalf("Alloc(PropList) error = %v", err)
	}
	return h
}

func TestPropListGetaPropIsCaseInsensitive(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocPropList(t, it, []string{"Name", "age"}, []int64{1, 30})
	receiver := mustGet(t, it, h)

	key, err := it.Heap.Alloc(heap.NewString("NAME"))
	if err != nil {
		t.Fatalf("Alloc error = %v", err)
	}
	result, handled, err := it.propListBuiltin(h, receiver, "getaProp", []heap.Handle{key})
	if err != nil || !handled {
		t.Fatalf("getaProp: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Int != 1 {
		t.Errorf("getaProp(NAME) = %v, want 1 (case-insensitive key match)", mustGet(t, it, result).Int)
	}
}

func TestPropListSetaPropOverwritesExistingKey(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocPropList(t, it, []string{"age"}, []int64{30})
	receiver := mustGet(t, it, h)

	key, _ := it.Heap.Alloc(heap.NewSymbol("age"))
	_, handled, err := it.propListBuiltin(h, receiver, "setaProp", []heap.Handle{key, allocInt(t, it, 31)})
	if err != nil || !handled {
		t.Fatalf("setaProp: handled=%v err=%v", handled, err)
	}
	updated := mustGet(t, it, h)
	if len(updated.PropList) != 1 {
		t.Fatalf("PropList length = %d, want 1 (overwrote, didn't append)", len(updated.PropList))
	}
	if mustGet(t, it, updated.PropList[0].Value).Int != 31 {
		t.Errorf("age = %v, want 31", mustGet(t, it, updated.PropList[0].Value).Int)
	}
}

func TestPropListAddPropAppendsNewKey(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocPropList(t, it, []string{"age"}, []int64{30})
	receiver := mustGet(t, it, h)

	key, _ := it.Heap.Alloc(heap.NewSymbol("height"))
	_, handled, err := it.propListBuiltin(h, receiver, "addProp", []heap.Handle{key, allocInt(t, it, 180)})
	if err != nil || !handled {
		t.Fatalf("addProp: handled=%v err=%v", handled, err)
	}
	updated := mustGet(t, it, h)
	if len(updated.PropList) != 2 {
		t.Fatalf("PropList length = %d, want 2", len(updated.PropList))
	}
}

func TestPropListFindPosReturnsOneBasedIndex(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocPropList(t, it, []string{"a", "b", "c"}, []int64{1, 2, 3})
	receiver := mustGet(t, it, h)

	key, _ := it.Heap.Alloc(heap.NewSymbol("b"))
	result, handled, err := it.propListBuiltin(h, receiver, "findPos", []heap.Handle{key})
	if err != nil || !handled {
		t.Fatalf("findPos: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Int != 2 {
		t.Errorf("findPos(b) = %v, want 2", mustGet(t, it, result).Int)
	}
}

func TestPropListCountAndGetPropAt(t *testing.T) {
	it, _ := newTestInterpreter(t)
	h := allocPropList(t, it, []string{"a", "b"}, []int64{11, 22})
	receiver := mustGet(t, it, h)

	result, _, _ := it.propListBuiltin(h, receiver, "count", nil)
	if mustGet(t, it, result).Int != 2 {
		t.Errorf("count = %v, want 2", mustGet(t, it, result).Int)
	}

	result, handled, err := it.propListBuiltin(h, receiver, "getPropAt", []heap.Handle{allocInt(t, it, 2)})
	if err != nil || !handled {
		t.Fatalf("getPropAt: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Int != 22 {
		t.Errorf("getPropAt(2) = %v, want 22", mustGet(t, it, result).Int)
	}
}

func TestStringBuiltinLengthCountsRunes(t *testing.T) {
	it, _ := newTestInterpreter(t)
	result, handled, err := it.stringBuiltin(heap.NewString("hello"), "length", nil)
	if err != nil || !handled {
		t.Fatalf("length: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Int != 5 {
		t.Errorf("length(hello) = %v, want 5", mustGet(t, it, result).Int)
	}
}

func TestStringBuiltinCountWords(t *testing.T) {
	it, _ := newTestInterpreter(t)
	sym, _ := it.Heap.Alloc(heap.NewSymbol("word"))
	result, handled, err := it.stringBuiltin(heap.NewString("one two three"), "count", []heap.Handle{sym})
	if err != nil || !handled {
		t.Fatalf("count: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Int != 3 {
		t.Errorf("count(word) = %v, want 3", mustGet(t, it, result).Int)
	}
}

func TestStringBuiltinSplitByDelimiter(t *testing.T) {
	it, _ := newTestInterpreter(t)
	sep, _ := it.Heap.Alloc(heap.NewString(","))
	result, handled, err := it.stringBuiltin(heap.NewString("a,b,c"), "split", []heap.Handle{sep})
	if err != nil || !handled {
		t.Fatalf("split: handled=%v err=%v", handled, err)
	}
	list := mustGet(t, it, result)
	if list.Kind != heap.KindList || len(list.List) != 3 {
		t.Fatalf("split result = %+v, want a 3-element list", list)
	}
	if mustGet(t, it, list.List[1]).Str != "b" {
		t.Errorf("split(a,b,c)[1] = %q, want b", mustGet(t, it, list.List[1]).Str)
	}
}

func TestStringBuiltinOffsetIsCaseInsensitive(t *testing.T) {
	it, _ := newTestInterpreter(t)
	needle, _ := it.Heap.Alloc(heap.NewString("WORLD"))
	result, handled, err := it.stringBuiltin(heap.NewString("hello world"), "offset", []heap.Handle{needle})
	if err != nil || !handled {
		t.Fatalf("offset: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Int != 7 {
		t.Errorf("offset(WORLD) in \"hello world\" = %v, want 7", mustGet(t, it, result).Int)
	}
}

func TestStringBuiltinOffsetNotFoundReturnsZero(t *testing.T) {
	it, _ := newTestInterpreter(t)
	needle, _ := it.Heap.Alloc(heap.NewString("xyz"))
	result, _, _ := it.stringBuiltin(heap.NewString("hello"), "offset", []heap.Handle{needle})
	if mustGet(t, it, result).Int != 0 {
		t.Errorf("offset(xyz) = %v, want 0", mustGet(t, it, result).Int)
	}
}

func TestStringBuiltinCharsExtractsRange(t *testing.T) {
	it, _ := newTestInterpreter(t)
	result, handled, err := it.stringBuiltin(heap.NewString("hello"), "chars",
		[]heap.Handle{allocInt(t, it, 2), allocInt(t, it, 4)})
	if err != nil || !handled {
		t.Fatalf("chars: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Str != "ell" {
		t.Errorf("chars(2,4) of hello = %q, want ell", mustGet(t, it, result).Str)
	}
}

func TestStringBuiltinCharToNumAndNumToChar(t *testing.T) {
	it, _ := newTestInterpreter(t)
	result, handled, err := it.stringBuiltin(heap.NewString("A"), "charToNum", nil)
	if err != nil || !handled {
		t.Fatalf("charToNum: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Int != 65 {
		t.Errorf("charToNum(A) = %v, want 65", mustGet(t, it, result).Int)
	}

	result, handled, err = it.stringBuiltin(heap.Value{}, "numToChar", []heap.Handle{allocInt(t, it, 66)})
	if err != nil || !handled {
		t.Fatalf("numToChar: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Str != "B" {
		t.Errorf("numToChar(66) = %q, want B", mustGet(t, it, result).Str)
	}
}

func TestCallGlobalBuiltinMathFunctions(t *testing.T) {
	it, _ := newTestInterpreter(t)

	result, handled, err := it.callGlobalBuiltin("pi", nil)
	if err != nil || !handled {
		t.Fatalf("pi: handled=%v err=%v", handled, err)
	}
	if v := mustGet(t, it, result).Float; v < 3.14 || v > 3.15 {
		t.Errorf("pi = %v, want ~3.14159", v)
	}

	result, handled, err = it.callGlobalBuiltin("sqrt", []heap.Handle{allocInt(t, it, 16)})
	if err != nil || !handled {
		t.Fatalf("sqrt: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Float != 4 {
		t.Errorf("sqrt(16) = %v, want 4", mustGet(t, it, result).Float)
	}

	result, handled, err = it.callGlobalBuiltin("ABS", []heap.Handle{allocInt(t, it, -7)})
	if err != nil || !handled {
		t.Fatalf("abs: handled=%v err=%v", handled, err)
	}
	got := mustGet(t, it, result)
	if got.Kind != heap.KindInt || got.Int != 7 {
		t.Errorf("abs(-7) = %+v, want Int 7 (stays integral for integer input)", got)
	}
}

func TestCallGlobalBuiltinMinMax(t *testing.T) {
	it, _ := newTestInterpreter(t)
	args := []heap.Handle{allocInt(t, it, 5), allocInt(t, it, 2), allocInt(t, it, 9)}

	result, handled, err := it.callGlobalBuiltin("min", args)
	if err != nil || !handled {
		t.Fatalf("min: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Int != 2 {
		t.Errorf("min(5,2,9) = %v, want 2", mustGet(t, it, result).Int)
	}

	result, handled, err = it.callGlobalBuiltin("max", args)
	if err != nil || !handled {
		t.Fatalf("max: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Int != 9 {
		t.Errorf("max(5,2,9) = %v, want 9", mustGet(t, it, result).Int)
	}
}

func TestCallGlobalBuiltinConversions(t *testing.T) {
	it, _ := newTestInterpreter(t)

	result, handled, err := it.callGlobalBuiltin("integer", []heap.Handle{allocInt(t, it, 0)})
	if err != nil || !handled {
		t.Fatalf("integer: handled=%v err=%v", handled, err)
	}
	_ = result

	floatH, _ := it.Heap.Alloc(heap.NewFloat(3.7))
	result, handled, err = it.callGlobalBuiltin("integer", []heap.Handle{floatH})
	if err != nil || !handled {
		t.Fatalf("integer(3.7): handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Int != 3 {
		t.Errorf("integer(3.7) = %v, want 3 (truncated)", mustGet(t, it, result).Int)
	}

	result, handled, err = it.callGlobalBuiltin("string", []heap.Handle{allocInt(t, it, 42)})
	if err != nil || !handled {
		t.Fatalf("string: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Str != "42" {
		t.Errorf("string(42) = %q, want 42", mustGet(t, it, result).Str)
	}
}

func TestCallGlobalBuiltinUnknownNameNotHandled(t *testing.T) {
	it, _ := newTestInterpreter(t)
	_, handled, err := it.callGlobalBuiltin("notARealBuiltin", nil)
	if handled || err != nil {
		t.Errorf("unknown builtin: handled=%v err=%v, want handled=false err=nil", handled, err)
	}
}

func TestMemberBuiltinCountReadsFieldText(t *testing.T) {
	it, casts := newTestInterpreter(t)
	lib, _ := casts.Library(1)
	lib.Members[9] = &cast.Member{Number: 9, Name: "myField", Type: container.MemberTypeField, Text: "hello"}
	ref := cast.MemberRef{CastLib: 1, CastMember: 9}

	h, err := it.Heap.Alloc(heap.Value{Kind: heap.KindCastMemberRef, MemberRef: ref})
	if err != nil {
		t.Fatalf("Alloc error = %v", err)
	}
	receiver := mustGet(t, it, h)
	result, handled, err := it.memberBuiltin(h, receiver, "count", nil)
	if err != nil || !handled {
		t.Fatalf("count: handled=%v err=%v", handled, err)
	}
	if mustGet(t, it, result).Int != 5 {
		t.Errorf("count = %v, want 5 (len of \"hello\")", mustGet(t, it, result).Int)
	}
}

func TestMemberBuiltinEraseRemovesMember(t *testing.T) {
	it, casts := newTestInterpreter(t)
	lib, _ := casts.Library(1)
	lib.Members[9] = &cast.Member{Number: 9, Name: "myField", Type: container.MemberTypeField, Text: "x"}
	ref := cast.MemberRef{CastLib: 1, CastMember: 9}

	h, _ := it.Heap.Alloc(heap.Value{Kind: heap.KindCastMemberRef, MemberRef: ref})
	receiver := mustGet(t, it, h)
	_, handled, err := it.memberBuiltin(h, receiver, "erase", nil)
	if err != nil || !handled {
		t.Fatalf("erase: handled=%v err=%v", handled, err)
	}
	if _, ok := casts.GetMember(ref); ok {
		t.Errorf("member still resolvable after erase")
	}
}
