// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package heap

import (
	"testing"

	"github.com/stagevm/core/cast"
)

func memberRef(lib, member int32) cast.MemberRef {
	return cast.MemberRef{CastLib: lib, CastMember: member}
}

func allocAll(t *testing.T, h *Heap, vs ...Value) []Handle {
	t.Helper()
	handles := make([]Handle, len(vs))
	for i, v := range vs {
		handle, err := h.Alloc(v)
		if err != nil {
			t.Fatalf("Alloc(%+v) error = %v", v, err)
		}
		handles[i] = handle
	}
	return handles
}

func TestEqualNumericCrossType(t *testing.T) {
	h := New(0)
	handles := allocAll(t, h, NewInt(3), NewFloat(3.0), NewFloat(3.5))
	if !h.Equal(handles[0], handles[1]) {
		t.Errorf("Equal(3, 3.0) = false, want true")
	}
	if h.Equal(handles[0], handles[2]) {
		t.Errorf("Equal(3, 3.5) = true, want false")
	}
}

func TestEqualTextlikeCaseInsensitive(t *testing.T) {
	h := New(0)
	handles := allocAll(t, h, NewString("Hello"), NewSymbol("HELLO"), NewString("world"))
	if !h.Equal(handles[0], handles[1]) {
		t.Errorf("Equal(string %q, symbol %q) = false, want true", "Hello", "HELLO")
	}
	if h.Equal(handles[0], handles[2]) {
		t.Errorf("Equal(Hello, world) = true, want false")
	}
}

func TestEqualVoidAndNullSingletons(t *testing.T) {
	h := New(0)
	voidA, _ := h.Alloc(Void)
	voidB, _ := h.Alloc(Void)
	nullA, _ := h.Alloc(Null)

	if !h.Equal(voidA, voidB) {
		t.Errorf("Equal(Void, Void) = false, want true")
	}
	if h.Equal(voidA, nullA) {
		t.Errorf("Equal(Void, Null) = true, want false")
	}
}

func TestEqualListElementwise(t *testing.T) {
	h := New(0)
	items1 := allocAll(t, h, NewInt(1), NewInt(2))
	items2 := allocAll(t, h, NewInt(1), NewInt(2))
	items3 := allocAll(t, h, NewInt(1), NewInt(3))

	list1, _ := h.Alloc(NewList(ListPlain, items1))
	list2, _ := h.Alloc(NewList(ListPlain, items2))
	list3, _ := h.Alloc(NewList(ListPlain, items3))
	argList, _ := h.Alloc(NewList(ListArgList, items1))

	if !h.Equal(list1, list2) {
		t.Errorf("Equal(equal lists) = false, want true")
	}
	if h.Equal(list1, list3) {
		t.Errorf("Equal(differing lists) = true, want false")
	}
	if h.Equal(list1, argList) {
		t.Errorf("Equal(ListPlain, ListArgList) = true, want false (ABI kind must match)")
	}
}

func TestEqualPropListPairwise(t *testing.T) {
	h := New(0)
	key, _ := h.Alloc(NewSymbol("x"))
	val1, _ := h.Alloc(NewInt(1))
	val2, _ := h.Alloc(NewInt(2))

	p1, _ := h.Alloc(Value{Kind: KindPropList, PropList: []PropListEntry{{Key: key, Value: val1}}})
	p2, _ := h.Alloc(Value{Kind: KindPropList, PropList: []PropListEntry{{Key: key, Value: val1}}})
	p3, _ := h.Alloc(Value{Kind: KindPropList, PropList: []PropListEntry{{Key: key, Value: val2}}})

	if !h.Equal(p1, p2) {
		t.Errorf("Equal(equal propLists) = false, want true")
	}
	if h.Equal(p1, p3) {
		t.Errorf("Equal(differing propLists) = true, want false")
	}
}

func TestEqualMemberRefs(t *testing.T) {
	h := New(0)
	a, _ := h.Alloc(Value{Kind: KindCastMemberRef, MemberRef: memberRef(1, 5)})
	b, _ := h.Alloc(Value{Kind: KindCastMemberRef, MemberRef: memberRef(1, 5)})
	c, _ := h.Alloc(Value{Kind: KindCastMemberRef, MemberRef: memberRef(1, 6)})

	if !h.Equal(a, b) {
		t.Errorf("Equal(same member ref) = false, want true")
	}
	if h.Equal(a, c) {
		t.Errorf("Equal(different member ref) = true, want false")
	}
}

func TestLessNumeric(t *testing.T) {
	h := New(0)
	a, _ := h.Alloc(NewInt(1))
	b, _ := h.Alloc(NewFloat(2.5))

	less, ok := h.Less(a, b)
	if !ok || !less {
		t.Errorf("Less(1, 2.5) = %v, %v, want true, true", less, ok)
	}
	less, ok = h.Less(b, a)
	if !ok || less {
		t.Errorf("Less(2.5, 1) = %v, %v, want false, true", less, ok)
	}
}

func TestLessIntPointOrdersXThenY(t *testing.T) {
	h := New(0)
	p1, _ := h.Alloc(Value{Kind: KindIntPoint, Point: IntPoint{X: 1, Y: 9}})
	p2, _ := h.Alloc(Value{Kind: KindIntPoint, Point: IntPoint{X: 2, Y: 0}})
	p3, _ := h.Alloc(Value{Kind: KindIntPoint, Point: IntPoint{X: 1, Y: 10}})

	if less, ok := h.Less(p1, p2); !ok || !less {
		t.Errorf("Less({1,9},{2,0}) = %v, %v, want true, true (X differs)", less, ok)
	}
	if less, ok := h.Less(p1, p3); !ok || !less {
		t.Errorf("Less({1,9},{1,10}) = %v, %v, want true, true (Y tiebreak)", less, ok)
	}
}

func TestLessUnorderedPairsReportFalseBoth(t *testing.T) {
	h := New(0)
	s1, _ := h.Alloc(NewString("a"))
	s2, _ := h.Alloc(NewString("b"))

	lessAB, okAB := h.Less(s1, s2)
	lessBA, okBA := h.Less(s2, s1)
	if okAB || okBA {
		t.Fatalf("Less on strings reported ok=true, want unordered")
	}
	if lessAB || lessBA {
		t.Errorf("unordered pair reported a less-than result, want false/false")
	}
}
