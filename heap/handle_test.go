// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package heap

import "testing"

func TestZeroHandleIsVoid(t *testing.T) {
	var h Handle
	if !h.IsVoid() {
		t.Errorf("zero Handle.IsVoid() = false, want true")
	}
}

func TestAllocatedHandleIsNotVoid(t *testing.T) {
	heap := New(0)
	handle, _ := heap.Alloc(NewInt(1))
	if handle.IsVoid() {
		t.Errorf("allocated Handle.IsVoid() = true, want false")
	}
}

func TestZeroInstanceHandleIsInvalid(t *testing.T) {
	var h InstanceHandle
	if h.IsValid() {
		t.Errorf("zero InstanceHandle.IsValid() = true, want false")
	}
}
