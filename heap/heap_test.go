// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package heap

import (
	"testing"

	"github.com/stagevm/core/cast"
)

func TestAllocVoidDoesNotOccupySlot(t *testing.T) {
	h := New(0)
	handle, err := h.Alloc(Void)
	if err != nil {
		t.Fatalf("Alloc(Void) error = %v", err)
	}
	if !handle.IsVoid() {
		t.Errorf("Alloc(Void) handle.IsVoid() = false, want true")
	}
	if h.LiveValueCount() != 0 {
		t.Errorf("LiveValueCount() = %d, want 0", h.LiveValueCount())
	}
}

func TestAllocGetRoundTrip(t *testing.T) {
	h := New(0)
	handle, err := h.Alloc(NewInt(42))
	if err != nil {
		t.Fatalf("Alloc error = %v", err)
	}
	got, ok := h.Get(handle)
	if !ok {
		t.Fatalf("Get(handle) ok = false")
	}
	if got.Kind != KindInt || got.Int != 42 {
		t.Errorf("Get(handle) = %+v, want Int 42", got)
	}
	if h.LiveValueCount() != 1 {
		t.Errorf("LiveValueCount() = %d, want 1", h.LiveValueCount())
	}
}

func TestGetMutMutatesInPlace(t *testing.T) {
	h := New(0)
	handle, _ := h.Alloc(NewString("hi"))
	ptr := h.GetMut(handle)
	ptr.Str = "bye"

	got, _ := h.Get(handle)
	if got.Str != "bye" {
		t.Errorf("Get after GetMut mutation = %q, want %q", got.Str, "bye")
	}
}

func TestGetMutVoidWritesScratch(t *testing.T) {
	h := New(0)
	ptr := h.GetMut(Handle{})
	ptr.Str = "discarded"
	// Re-fetching Void must still read the Void singleton, unaffected.
	v, ok := h.Get(Handle{})
	if !ok || v.Kind != KindVoid {
		t.Errorf("Get(Void handle) = %+v, %v, want Void/true", v, ok)
	}
}

func TestCloneIncrementsRefcountReleaseDefersReclamation(t *testing.T) {
	h := New(0)
	handle, _ := h.Alloc(NewInt(1))
	clone := h.Clone(handle)

	h.Release(handle)
	if _, ok := h.Get(clone); !ok {
		t.Fatalf("value reclaimed while clone still held a reference")
	}
	if h.LiveValueCount() != 1 {
		t.Errorf("LiveValueCount() = %d, want 1 (not yet cycled)", h.LiveValueCount())
	}

	h.Release(clone)
	// Still alive: Release only schedules reclamation, Cycle performs it.
	if _, ok := h.Get(handle); !ok {
		t.Fatalf("value reclaimed before Cycle() ran")
	}

	h.Cycle()
	if _, ok := h.Get(handle); ok {
		t.Errorf("value survived Cycle() after refcount reached zero")
	}
	if h.LiveValueCount() != 0 {
		t.Errorf("LiveValueCount() = %d, want 0 after Cycle", h.LiveValueCount())
	}
}

func TestCloneAfterReleaseCancelsReclamation(t *testing.T) {
	h := New(0)
	handle, _ := h.Alloc(NewInt(7))
	h.Release(handle)
	// Refcount is now zero and pending free; a fresh Clone should undo that.
	revived := h.Clone(handle)
	h.Cycle()
	if _, ok := h.Get(revived); !ok {
		t.Errorf("value reclaimed despite a Clone canceling the pending release")
	}
}

func TestIDReuseAfterCycle(t *testing.T) {
	h := New(0)
	first, _ := h.Alloc(NewInt(1))
	h.Release(first)
	h.Cycle()

	second, err := h.Alloc(NewInt(2))
	if err != nil {
		t.Fatalf("Alloc error = %v", err)
	}
	if second.IsVoid() {
		t.Errorf("reused allocation came back Void")
	}
	got, _ := h.Get(second)
	if got.Int != 2 {
		t.Errorf("Get(second) = %+v, want Int 2", got)
	}
}

func TestAllocatorExhausted(t *testing.T) {
	h := New(2)
	if _, err := h.Alloc(NewInt(1)); err != nil {
		t.Fatalf("first Alloc error = %v", err)
	}
	if _, err := h.Alloc(NewInt(2)); err != nil {
		t.Fatalf("second Alloc error = %v", err)
	}
	if _, err := h.Alloc(NewInt(3)); err != ErrAllocatorExhausted {
		t.Errorf("third Alloc error = %v, want ErrAllocatorExhausted", err)
	}
}

func TestInstanceAllocLifecycle(t *testing.T) {
	h := New(0)
	inst := NewScriptInstance(cast.MemberRef{CastLib: 1, CastMember: 5})
	handle, err := h.AllocInstance(inst)
	if err != nil {
		t.Fatalf("AllocInstance error = %v", err)
	}
	if !handle.IsValid() {
		t.Fatalf("AllocInstance handle.IsValid() = false")
	}

	got, ok := h.GetInstance(handle)
	if !ok {
		t.Fatalf("GetInstance ok = false")
	}
	if got.Script != inst.Script {
		t.Errorf("GetInstance().Script = %+v, want %+v", got.Script, inst.Script)
	}

	h.ReleaseInstance(handle)
	h.Cycle()
	if _, ok := h.GetInstance(handle); ok {
		t.Errorf("instance survived Cycle() after refcount reached zero")
	}
}
