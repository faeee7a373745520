// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package heap

import "errors"

// ErrAllocatorExhausted is returned when a Heap has no more ids to hand
// out for a given handle class (2^24 live ids, matching the original
// player's MAX_DATUM_ID / MAX_SCRIPT_INSTANCE_ID ceiling).
var ErrAllocatorExhausted = errors.New("heap: allocator exhausted")

const defaultMaxLiveIDs = 1 << 24

type valueSlot struct {
	value Value
	refs  uint32
}

type instanceSlot struct {
	instance ScriptInstance
	refs     uint32
}

// Heap is the shared, reference-counted value store every running
// handler reads and writes through. Two independent id spaces live here:
// ordinary Values, and ScriptInstances (object-instance state), matching
// the original player keeping datums and script instances in separate
// maps off one allocator.
type Heap struct {
	maxLiveIDs int

	values       map[uint32]*valueSlot
	valueCursor  uint32
	valuePending map[uint32]struct{}
	voidScratch  Value

	instances       map[uint32]*instanceSlot
	instanceCursor  uint32
	instancePending map[uint32]struct{}
}

// New returns an empty Heap. maxLiveIDs <= 0 uses the default cap
// (2^24), matching internal/config.DefaultPlayer's MaxLiveIDs.
func New(maxLiveIDs int) *Heap {
	if maxLiveIDs <= 0 {
		maxLiveIDs = defaultMaxLiveIDs
	}
	return &Heap{
		maxLiveIDs:      maxLiveIDs,
		values:          make(map[uint32]*valueSlot),
		valueCursor:     1,
		valuePending:    make(map[uint32]struct{}),
		instances:       make(map[uint32]*instanceSlot),
		instanceCursor:  1,
		instancePending: make(map[uint32]struct{}),
	}
}

// Reset empties every value and instance slot and rewinds both id
// cursors, matching the original player's ValueHeap::reset used when a
// host driver stops and reloads a movie. maxLiveIDs is preserved.
func (h *Heap) Reset() {
	h.values = make(map[uint32]*valueSlot)
	h.valueCursor = 1
	h.valuePending = make(map[uint32]struct{})
	h.instances = make(map[uint32]*instanceSlot)
	h.instanceCursor = 1
	h.instancePending = make(map[uint32]struct{})
}

// Alloc returns a fresh handle with refcount 1. A Void value never
// occupies a slot; it returns the zero Handle instead.
func (h *Heap) Alloc(v Value) (Handle, error) {
	if v.Kind == KindVoid {
		return Handle{}, nil
	}
	if len(h.values) >= h.maxLiveIDs {
		return Handle{}, ErrAllocatorExhausted
	}
	id, err := nextFreeID(h.values, &h.valueCursor, h.maxLiveIDs)
	if err != nil {
		return Handle{}, err
	}
	s := &valueSlot{value: v, refs: 1}
	h.values[id] = s
	delete(h.valuePending, id)
	return Handle{id: id, refs: &s.refs}, nil
}

// Get returns the value behind handle. The Void handle always resolves
// to the Void value.
func (h *Heap) Get(handle Handle) (Value, bool) {
	if handle.id == 0 {
		return Void, true
	}
	s, ok := h.values[handle.id]
	if !ok {
		return Value{}, false
	}
	return s.value, true
}

// GetMut returns a mutable pointer to the value behind handle. Mutating
// through the Void handle writes to a throwaway scratch value, mirroring
// the original allocator's void_datum sink: callers that dereference a
// Void handle for a mutation are discarding the result by construction.
func (h *Heap) GetMut(handle Handle) *Value {
	if handle.id == 0 {
		h.voidScratch = Value{Kind: KindVoid}
		return &h.voidScratch
	}
	s, ok := h.values[handle.id]
	if !ok {
		return nil
	}
	return &s.value
}

// Clone increments handle's refcount and returns it, canceling any
// pending reclamation the handle had accumulated since its refcount last
// hit zero.
func (h *Heap) Clone(handle Handle) Handle {
	if handle.id != 0 {
		*handle.refs++
		delete(h.valuePending, handle.id)
	}
	return handle
}

// Release decrements handle's refcount. On reaching zero the slot is
// marked for reclamation at the next Cycle rather than freed immediately,
// so a handler mid-dispatch never sees a slot vanish out from under a
// still-in-flight opcode.
func (h *Heap) Release(handle Handle) {
	if handle.id == 0 {
		return
	}
	*handle.refs--
	if *handle.refs == 0 {
		h.valuePending[handle.id] = struct{}{}
	}
}

// AllocInstance returns a fresh InstanceHandle with refcount 1.
func (h *Heap) AllocInstance(inst ScriptInstance) (InstanceHandle, error) {
	if len(h.instances) >= h.maxLiveIDs {
		return InstanceHandle{}, ErrAllocatorExhausted
	}
	id, err := nextFreeID(h.instances, &h.instanceCursor, h.maxLiveIDs)
	if err != nil {
		return InstanceHandle{}, err
	}
	s := &instanceSlot{instance: inst, refs: 1}
	h.instances[id] = s
	delete(h.instancePending, id)
	return InstanceHandle{id: id, refs: &s.refs}, nil
}

// GetInstance returns the ScriptInstance behind handle.
func (h *Heap) GetInstance(handle InstanceHandle) (*ScriptInstance, bool) {
	s, ok := h.instances[handle.id]
	if !ok {
		return nil, false
	}
	return &s.instance, true
}

// CloneInstance increments handle's refcount.
func (h *Heap) CloneInstance(handle InstanceHandle) InstanceHandle {
	if handle.id != 0 {
		*handle.refs++
		delete(h.instancePending, handle.id)
	}
	return handle
}

// ReleaseInstance decrements handle's refcount, scheduling reclamation at
// the next Cycle on reaching zero.
func (h *Heap) ReleaseInstance(handle InstanceHandle) {
	if handle.id == 0 {
		return
	}
	*handle.refs--
	if *handle.refs == 0 {
		h.instancePending[handle.id] = struct{}{}
	}
}

// Cycle reclaims every value and instance slot whose refcount reached
// zero since the last cycle. The interpreter runs this every
// config.Player.AllocatorCycleEvery opcodes.
func (h *Heap) Cycle() {
	for id := range h.valuePending {
		if s, ok := h.values[id]; ok && s.refs == 0 {
			delete(h.values, id)
		}
	}
	h.valuePending = make(map[uint32]struct{})

	for id := range h.instancePending {
		if s, ok := h.instances[id]; ok && s.refs == 0 {
			delete(h.instances, id)
		}
	}
	h.instancePending = make(map[uint32]struct{})
}

// LiveValueCount and LiveInstanceCount report current occupancy, used by
// tests and the CLI's dump command.
func (h *Heap) LiveValueCount() int    { return len(h.values) }
func (h *Heap) LiveInstanceCount() int { return len(h.instances) }

// nextFreeID implements the allocator's id policy: try the cursor, then
// cursor+1, then fall back to a full linear scan (exactly the original
// allocator's get_free_id probing order).
func nextFreeID[T any](occupied map[uint32]T, cursor *uint32, maxLiveIDs int) (uint32, error) {
	if _, taken := occupied[*cursor]; !taken {
		id := *cursor
		*cursor = nextCursor(*cursor, maxLiveIDs)
		return id, nil
	}
	next := *cursor + 1
	if int(next) <= maxLiveIDs {
		if _, taken := occupied[next]; !taken {
			*cursor = nextCursor(next, maxLiveIDs)
			return next, nil
		}
	}
	for id := uint32(1); int(id) <= maxLiveIDs; id++ {
		if _, taken := occupied[id]; !taken {
			*cursor = nextCursor(id, maxLiveIDs)
			return id, nil
		}
	}
	return 0, ErrAllocatorExhausted
}

func nextCursor(id uint32, maxLiveIDs int) uint32 {
	next := id + 1
	if int(next) >= maxLiveIDs {
		return 1
	}
	return next
}
