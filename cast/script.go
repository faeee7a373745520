// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package cast

import (
	"strings"

	"github.com/stagevm/core/container"
)

// Script is one compiled script with its identifiers resolved out of the
// library's shared name table, so the VM never has to carry a names chunk
// reference alongside a bare container.ScriptChunk.
type Script struct {
	ID         int32
	MemberName string
	Type       container.ScriptType
	Chunk      *container.ScriptChunk

	// handlerIndex maps a lowercased handler name to its index in
	// Chunk.Handlers. Lookups against Lingo handler calls are
	// case-insensitive, matching the source language itself.
	handlerIndex map[string]int

	// PropertyNames is index-aligned with Chunk.PropertyNameIDs: the
	// declared property identifiers, resolved to their source text.
	PropertyNames []string

	// names is the library's shared name table, kept so handler-local
	// argument/local/global identifiers can be resolved on demand without
	// the VM having to carry a separate names reference alongside a Script.
	names []string
}

// NewScript resolves a compiled ScriptChunk's name ids against the
// library's shared name table.
func NewScript(id int32, memberName string, scriptType container.ScriptType, chunk *container.ScriptChunk, names []string) *Script {
	nameAt := func(nameID uint16) string {
		if int(nameID) < len(names) {
			return names[nameID]
		}
		return ""
	}

	s := &Script{
		ID:           id,
		MemberName:   memberName,
		Type:         scriptType,
		Chunk:        chunk,
		handlerIndex: make(map[string]int, len(chunk.Handlers)),
		names:        names,
	}
	for i, h := range chunk.Handlers {
		name := nameAt(h.NameID)
		if name == "" {
			continue
		}
		s.handlerIndex[strings.ToLower(name)] = i
	}

	s.PropertyNames = make([]string, len(chunk.PropertyNameIDs))
	for i, nameID := range chunk.PropertyNameIDs {
		s.PropertyNames[i] = nameAt(nameID)
	}
	return s
}

// Handler looks up a handler by name, case-insensitively.
func (s *Script) Handler(name string) (*container.HandlerDef, bool) {
	idx, ok := s.handlerIndex[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return &s.Chunk.Handlers[idx], true
}

// HandlerNames lists every handler this script defines, in declaration
// order, lowercased.
func (s *Script) HandlerNames() []string {
	out := make([]string, len(s.Chunk.Handlers))
	for i := range s.Chunk.Handlers {
		out[i] = strings.ToLower(s.handlerNameAt(i))
	}
	return out
}

func (s *Script) handlerNameAt(i int) string {
	for name, idx := range s.handlerIndex {
		if idx == i {
			return name
		}
	}
	return ""
}

// Name resolves a raw name id against the library's shared name table,
// returning "" for an out-of-range id rather than panicking — scripts
// compiled against a slightly different name table (e.g. after an
// external cast edit) can legitimately carry stale ids.
func (s *Script) Name(nameID uint16) string {
	if int(nameID) < len(s.names) {
		return s.names[nameID]
	}
	return ""
}

// ArgumentName, LocalName, and GlobalName resolve a handler's i'th
// argument/local/global variable to its source identifier.
func (s *Script) ArgumentName(h *container.HandlerDef, i int) string {
	if i < 0 || i >= len(h.ArgumentNameIDs) {
		return ""
	}
	return s.Name(h.ArgumentNameIDs[i])
}

func (s *Script) LocalName(h *container.HandlerDef, i int) string {
	if i < 0 || i >= len(h.LocalNameIDs) {
		return ""
	}
	return s.Name(h.LocalNameIDs[i])
}

func (s *Script) GlobalName(h *container.HandlerDef, i int) string {
	if i < 0 || i >= len(h.GlobalNameIDs) {
		return ""
	}
	return s.Name(h.GlobalNameIDs[i])
}
