// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package heap

// Handle is a reference-counted pointer into a Heap's value slots. The
// zero Handle is the Void handle: id 0 is reserved and carries no
// refcount, matching the allocator's treatment of Void as never occupying
// a real slot.
type Handle struct {
	id   uint32
	refs *uint32
}

// IsVoid reports whether h is the Void handle.
func (h Handle) IsVoid() bool { return h.id == 0 }

// InstanceHandle is the equivalent reference-counted handle for the
// separate ScriptInstance id space.
type InstanceHandle struct {
	id   uint32
	refs *uint32
}

// IsValid reports whether h names a real script instance.
func (h InstanceHandle) IsValid() bool { return h.id != 0 }
