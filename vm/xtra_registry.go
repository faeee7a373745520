// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"fmt"
	"strings"

	"github.com/stagevm/core/heap"
	"github.com/stagevm/core/vm/xtra"
)

// XtraRegistry tracks registered Xtra factories and the live instances
// created from them: when an ObjCall's receiver is an XtraInstance, the
// call routes here by name. Grounded on player/xtra/manager.rs's
// is_xtra_registered/get_registered_xtra_names/call_xtra_instance_handler
// trio, generalized from a hardcoded name switch into an open
// registration table.
type XtraRegistry struct {
	factories map[string]xtra.Factory
	instances map[int32]xtra.Instance
	nextID    int32
}

// NewXtraRegistry returns an empty registry.
func NewXtraRegistry() *XtraRegistry {
	return &XtraRegistry{
		factories: make(map[string]xtra.Factory),
		instances: make(map[int32]xtra.Instance),
	}
}

// Register adds name (matched case-insensitively against `new(xtra ...)`
// calls) to the set of constructible Xtras.
func (r *XtraRegistry) Register(name string, factory xtra.Factory) {
	r.factories[strings.ToLower(name)] = factory
}

// IsRegistered reports whether name names a constructible Xtra.
func (r *XtraRegistry) IsRegistered(name string) bool {
	_, ok := r.factories[strings.ToLower(name)]
	return ok
}

// Names lists every registered Xtra name.
func (r *XtraRegistry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	return out
}

// New constructs a fresh instance of the named Xtra, returning its
// instance id.
func (r *XtraRegistry) New(name string) (int32, error) {
	factory, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("vm: xtra %q is not registered", name)
	}
	r.nextID++
	r.instances[r.nextID] = factory()
	return r.nextID, nil
}

// CallInstanceHandler dispatches handlerName against a live Xtra
// instance, matching call_xtra_instance_handler.
func (r *XtraRegistry) CallInstanceHandler(h *heap.Heap, instanceID int32, handlerName string, args []heap.Handle) (heap.Handle, error) {
	inst, ok := r.instances[instanceID]
	if !ok {
		return heap.Handle{}, fmt.Errorf("vm: no xtra instance #%d", instanceID)
	}
	return inst.Call(h, handlerName, args)
}
