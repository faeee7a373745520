// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package heap

import "github.com/stagevm/core/cast"

// ScriptInstance is the live state behind an `instance` value: the script
// it was instantiated from, its own property bag, and an optional
// ancestor instance for the `ancestor` delegation chain. Grounded on
// player/handlers/datum_handlers/script_instance.rs's ScriptInstance,
// which stores exactly this triple and recurses through Ancestor when a
// handler or property isn't found on the instance's own script.
type ScriptInstance struct {
	Script     cast.MemberRef
	Properties map[string]Handle
	Ancestor   InstanceHandle
}

// NewScriptInstance returns a ScriptInstance bound to script, with an
// empty property bag and no ancestor.
func NewScriptInstance(script cast.MemberRef) ScriptInstance {
	return ScriptInstance{
		Script:     script,
		Properties: make(map[string]Handle),
	}
}

// Prop returns the instance's own property named name, without walking
// the ancestor chain — matching script_get_prop's direct-lookup half.
func (s *ScriptInstance) Prop(name string) (Handle, bool) {
	h, ok := s.Properties[name]
	return h, ok
}

// SetProp sets the instance's own property named name. Properties are
// always set directly on the instance, never on an ancestor, matching
// script_set_prop.
func (s *ScriptInstance) SetProp(name string, h Handle) {
	if s.Properties == nil {
		s.Properties = make(map[string]Handle)
	}
	s.Properties[name] = h
}

// ResolveProp looks up name on the instance, then walks the ancestor
// chain via heap's instance table until found or the chain is exhausted.
// Grounded on get_script_instance_handler's ancestor recursion, applied
// here to property lookup rather than handler lookup since both walk the
// same chain in the original.
func (h *Heap) ResolveProp(inst InstanceHandle, name string) (Handle, bool) {
	seen := make(map[uint32]struct{})
	for inst.id != 0 {
		if _, looped := seen[inst.id]; looped {
			return Handle{}, false
		}
		seen[inst.id] = struct{}{}

		si, ok := h.GetInstance(inst)
		if !ok {
			return Handle{}, false
		}
		if v, ok := si.Prop(name); ok {
			return v, true
		}
		inst = si.Ancestor
	}
	return Handle{}, false
}
