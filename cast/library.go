// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package cast

import (
	"fmt"
	"strings"

	"github.com/stagevm/core/container"
	"github.com/stagevm/core/internal/config"
	"github.com/stagevm/core/internal/elog"
)

// State tracks a Library's load lifecycle. Internal libraries (those
// bundled in the movie itself) go straight to Loaded; external libraries
// sit at None until the owning Manager fetches and applies them.
type State int

const (
	StateNone State = iota
	StateLoading
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "Loading"
	case StateLoaded:
		return "Loaded"
	default:
		return "None"
	}
}

// Library is one cast library's live, addressable member/script table.
type Library struct {
	Name       string
	FileName   string
	Number     int32
	IsExternal bool
	State      State

	PreloadMode config.PreloadMode
	CapitalX    bool
	DirVersion  uint16

	Members map[int32]*Member
	// Scripts is keyed by the 1-based script-context slot index a
	// member's CastMemberInfoChunk.ScriptID names.
	Scripts map[int32]*Script

	log *elog.Helper
}

// NewLibrary constructs an as-yet-unloaded Library from a movie's cast
// list entry.
func NewLibrary(number int32, entry container.CastListEntry, preload config.PreloadMode, logger elog.Logger) *Library {
	return &Library{
		Name:        entry.Name,
		FileName:    entry.FilePath,
		Number:      number,
		IsExternal:  entry.FilePath != "",
		State:       StateNone,
		PreloadMode: preload,
		Members:     make(map[int32]*Member),
		Scripts:     make(map[int32]*Script),
		log:         elog.From(logger),
	}
}

// MaxMemberID returns the highest member number currently occupied, or 0
// for an empty library.
func (l *Library) MaxMemberID() int32 {
	var max int32
	for n := range l.Members {
		if n > max {
			max = n
		}
	}
	return max
}

// FirstFreeMemberID scans upward from 1 for the first unoccupied member
// number, matching the original player's linear probe rather than
// maintaining a free list (cast libraries rarely hold more than a few
// thousand members, so the scan cost is negligible against a zlib inflate
// the preload already pays).
func (l *Library) FirstFreeMemberID() int32 {
	const scanLimit = 5000
	for n := int32(1); n < scanLimit; n++ {
		if _, ok := l.Members[n]; !ok {
			return n
		}
	}
	return scanLimit
}

// MemberByNumber looks up a member by its 1-based number.
func (l *Library) MemberByNumber(number int32) (*Member, bool) {
	m, ok := l.Members[number]
	return m, ok
}

// MemberByName looks up a member by name, case-insensitively, matching
// the first member found in number order on a tie (names need not be
// unique within a library).
func (l *Library) MemberByName(name string) (*Member, bool) {
	var best *Member
	for _, m := range l.Members {
		if !strings.EqualFold(m.Name, name) {
			continue
		}
		if best == nil || m.Number < best.Number {
			best = m
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// RemoveMember deletes a member from the library, matching clear_movie
// semantics: removal is the only mutation, so cache invalidation lives in
// Manager, not here.
func (l *Library) RemoveMember(number int32) {
	delete(l.Members, number)
}

// Clear empties every member and script from the library, leaving its
// identity (name, file name, number) intact.
func (l *Library) Clear() {
	l.Members = make(map[int32]*Member)
	l.Scripts = make(map[int32]*Script)
	l.State = StateNone
}

// These are the FourCC values a Library needs to navigate the key table;
// container keeps its own copies unexported, so cast builds its own.
var (
	fourCCLctX    = container.NewFourCC("LctX")
	fourCCLctx    = container.NewFourCC("Lctx")
	fourCCLnam    = container.NewFourCC("Lnam")
	fourCCSTXT    = container.NewFourCC("STXT")
	fourCCCLUT    = container.NewFourCC("CLUT")
	fourCCLscr    = container.NewFourCC("Lscr")
	fourCCCASt    = container.NewFourCC("CASt")
	fourCCCASStar = container.NewFourCC("CAS*")
)

// LoadFromCatalog decodes a cast library from its "CAS*" member-directory
// section: resolves the library's script context (if any) and shared name
// table, decodes every occupied member slot plus the sibling chunks the
// key table binds to it, and builds the library's Script records by
// resolving each compiled script's handler and property names against
// the shared name table (mirroring the original player's insert_member).
func (l *Library) LoadFromCatalog(r *container.ChunkReader, castSectionID int32, minMember uint16) error {
	castChunkAny, err := r.DecodeChunk(castSectionID, fourCCCASStar)
	if err != nil {
		return fmt.Errorf("cast: decoding cast directory section %d: %w", castSectionID, err)
	}
	castChunk, ok := castChunkAny.(*container.CastChunk)
	if !ok {
		return fmt.Errorf("cast: section %d did not decode as CastChunk", castSectionID)
	}

	names, scriptsByIndex, err := l.loadScripts(r, castSectionID)
	if err != nil {
		return err
	}

	for idx, sectionID := range castChunk.MemberSectionIDs {
		if sectionID == 0 {
			continue
		}
		memberNumber := int32(idx) + int32(minMember)

		memberChunkAny, err := r.DecodeChunk(sectionID, fourCCCASt)
		if err != nil {
			l.log.Warnf("cast: decoding member section %d (number %d): %v", sectionID, memberNumber, err)
			continue
		}
		memberChunk, ok := memberChunkAny.(*container.CastMemberChunk)
		if !ok {
			continue
		}

		var text *container.TextChunk
		var palette *container.PaletteChunk
		for _, child := range r.ChildrenOf(sectionID) {
			switch child.FourCC {
			case fourCCSTXT:
				if t, err := r.DecodeChunk(child.SectionID, fourCCSTXT); err == nil {
					text, _ = t.(*container.TextChunk)
				}
			case fourCCCLUT:
				if p, err := r.DecodeChunk(child.SectionID, fourCCCLUT); err == nil {
					palette, _ = p.(*container.PaletteChunk)
				}
			}
		}

		member := newMember(memberNumber, memberChunk, text, palette)
		l.Members[memberNumber] = member

		if member.Type == container.MemberTypeScript {
			if raw, ok := scriptsByIndex[int32(member.ScriptID)]; ok {
				l.Scripts[int32(member.ScriptID)] = NewScript(int32(member.ScriptID), member.Name, member.ScriptType, raw, names)
			}
		}
	}

	l.State = StateLoaded
	return nil
}

// loadScripts resolves the cast's script context and name table (if
// present) and decodes every script slot it names.
func (l *Library) loadScripts(r *container.ChunkReader, castSectionID int32) (names []string, scripts map[int32]*container.ScriptChunk, err error) {
	scripts = make(map[int32]*container.ScriptChunk)

	var lctxSectionID int32
	var lctxFourCC container.FourCC
	var found bool
	for _, child := range r.ChildrenOf(castSectionID) {
		if child.FourCC == fourCCLctX || child.FourCC == fourCCLctx {
			lctxSectionID = child.SectionID
			lctxFourCC = child.FourCC
			found = true
			break
		}
	}
	if !found {
		return nil, scripts, nil
	}

	lctxAny, err := r.DecodeChunk(lctxSectionID, lctxFourCC)
	if err != nil {
		return nil, scripts, fmt.Errorf("cast: decoding script context section %d: %w", lctxSectionID, err)
	}
	lctx, ok := lctxAny.(*container.ScriptContextChunk)
	if !ok {
		return nil, scripts, nil
	}
	l.CapitalX = lctx.CapitalX

	if namesAny, err := r.DecodeChunk(int32(lctx.LnamSectionID), fourCCLnam); err == nil {
		if namesChunk, ok := namesAny.(*container.ScriptNamesChunk); ok {
			names = namesChunk.Names
		}
	}

	for i, entry := range lctx.SectionMap {
		if entry.SectionID <= 0 {
			continue
		}
		scriptAny, err := r.DecodeChunk(entry.SectionID, fourCCLscr)
		if err != nil {
			l.log.Warnf("cast: decoding script section %d: %v", entry.SectionID, err)
			continue
		}
		scriptChunk, ok := scriptAny.(*container.ScriptChunk)
		if !ok {
			continue
		}
		scripts[int32(i)+1] = scriptChunk
	}

	return names, scripts, nil
}
