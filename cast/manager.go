// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package cast

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/stagevm/core/container"
	"github.com/stagevm/core/internal/config"
	"github.com/stagevm/core/internal/elog"
	"github.com/stagevm/core/internal/netfetch"
)

var fourCCMCsL = container.NewFourCC("MCsL")

// Manager owns every cast library a movie references and resolves member
// lookups across them, in library order. It caches the cross-library
// movie-script list and the slot-keyed palette table, invalidating both on
// any mutation that could change them.
type Manager struct {
	Libraries []*Library
	Score     *Score

	player config.Player
	fetch  netfetch.Fetcher
	logger elog.Logger
	log    *elog.Helper

	mu                 sync.Mutex
	movieScriptCache   []*Script
	movieScriptCacheOK bool
	paletteCache       map[uint32]*[256][3]uint8
	paletteCacheOK     bool

	// extLoads collapses concurrent LoadExternalCast calls that race on
	// the same library into a single fetch-and-apply, fanning the shared
	// result out to every caller instead of fetching and decoding the
	// same file twice.
	extLoads singleflight.Group
}

// NewManager returns an empty Manager ready to have libraries loaded into
// it.
func NewManager(player config.Player, fetch netfetch.Fetcher, logger elog.Logger) *Manager {
	return &Manager{
		player: player,
		fetch:  fetch,
		logger: logger,
		log:    elog.From(logger),
	}
}

// LoadFromCatalog reads the movie's "MCsL" cast list and decodes every
// internal library it names (section-less external entries are recorded
// but left unloaded, pending LoadExternalCast). Corresponds to the
// original player's load_from_dir plus its eager preload_casts pass for
// libraries whose preload setting isn't on-demand.
func (m *Manager) LoadFromCatalog(r *container.ChunkReader) error {
	var castListSection int32
	var found bool
	for id, info := range r.Catalog().Sections {
		if info.FourCC == fourCCMCsL {
			castListSection = id
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	chunkAny, err := r.DecodeChunk(castListSection, fourCCMCsL)
	if err != nil {
		return fmt.Errorf("cast: decoding cast list: %w", err)
	}
	castList, ok := chunkAny.(*container.CastListChunk)
	if !ok {
		return fmt.Errorf("cast: cast list section did not decode as CastListChunk")
	}

	m.Libraries = make([]*Library, 0, len(castList.Entries))
	for i, entry := range castList.Entries {
		number := int32(i) + 1
		lib := NewLibrary(number, entry, preloadModeFromSetting(entry.PreloadSettings, m.player.DefaultPreload), m.logger)
		lib.DirVersion = r.DirVersion()
		m.Libraries = append(m.Libraries, lib)

		if lib.IsExternal {
			continue
		}
		// Internal libraries bind their "CAS*" directory by entry.ID, not
		// through the cast list's own key-table slot.
		if entry.ID == 0 {
			continue
		}
		if _, ok := r.Catalog().Sections[int32(entry.ID)]; !ok {
			continue
		}
		lib.State = StateLoading
		if err := lib.LoadFromCatalog(r, int32(entry.ID), entry.MinMember); err != nil {
			m.log.Warnf("cast: loading internal library %q (section %d): %v", entry.Name, entry.ID, err)
			continue
		}
	}

	score, err := LoadScore(r)
	if err != nil {
		m.log.Warnf("cast: loading score: %v", err)
		score = NewScore(nil, nil, nil)
	}
	m.Score = score

	m.clearCaches()
	return nil
}

func preloadModeFromSetting(setting uint16, fallback config.PreloadMode) config.PreloadMode {
	switch setting {
	case 0:
		return config.PreloadOnDemand
	case 1:
		return config.PreloadAfterFrameOne
	case 2:
		return config.PreloadBeforeFrameOne
	default:
		return fallback
	}
}

// clearCaches invalidates the movie-script and palette caches; called
// after any load, member insert, or member removal.
func (m *Manager) clearCaches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movieScriptCacheOK = false
	m.paletteCacheOK = false
}

// Library returns the cast library at the given 1-based number.
func (m *Manager) Library(number int32) (*Library, bool) {
	for _, lib := range m.Libraries {
		if lib.Number == number {
			return lib, true
		}
	}
	return nil, false
}

// LibraryByName looks up a cast library by name, case-insensitively.
func (m *Manager) LibraryByName(name string) (*Library, bool) {
	for _, lib := range m.Libraries {
		if strings.EqualFold(lib.Name, name) {
			return lib, true
		}
	}
	return nil, false
}

// ResolveMember finds a member by a Lingo-style identifier: a string
// looks it up by name, a number looks it up by member/slot number. When
// scope is non-nil, the search is restricted to that one library;
// otherwise every library is searched in order and the first match wins.
func (m *Manager) ResolveMember(identifier interface{}, scope *Library) (MemberRef, *Member, bool) {
	switch v := identifier.(type) {
	case string:
		return m.resolveMemberByName(v, scope)
	case int:
		return m.resolveMemberByNumber(int32(v), scope)
	case int32:
		return m.resolveMemberByNumber(v, scope)
	case float64:
		return m.resolveMemberByNumber(int32(v), scope)
	default:
		return InvalidMemberRef, nil, false
	}
}

func (m *Manager) resolveMemberByName(name string, scope *Library) (MemberRef, *Member, bool) {
	if scope != nil {
		if mem, ok := scope.MemberByName(name); ok {
			return MemberRef{CastLib: scope.Number, CastMember: mem.Number}, mem, true
		}
		return InvalidMemberRef, nil, false
	}
	for _, lib := range m.Libraries {
		if mem, ok := lib.MemberByName(name); ok {
			return MemberRef{CastLib: lib.Number, CastMember: mem.Number}, mem, true
		}
	}
	return InvalidMemberRef, nil, false
}

// resolveMemberByNumber accepts either a raw member number (searched
// across every library in order) or a packed slot number (library and
// member encoded together), matching find_member_ref_by_number's
// double-duty lookup.
func (m *Manager) resolveMemberByNumber(number int32, scope *Library) (MemberRef, *Member, bool) {
	if scope != nil {
		if mem, ok := scope.MemberByNumber(number); ok {
			return MemberRef{CastLib: scope.Number, CastMember: mem.Number}, mem, true
		}
		return InvalidMemberRef, nil, false
	}

	if number > 0xFFFF {
		ref := MemberRefFromSlot(uint32(number))
		if lib, ok := m.Library(ref.CastLib); ok {
			if mem, ok := lib.MemberByNumber(ref.CastMember); ok {
				return ref, mem, true
			}
		}
	}

	for _, lib := range m.Libraries {
		if mem, ok := lib.MemberByNumber(number); ok {
			return MemberRef{CastLib: lib.Number, CastMember: mem.Number}, mem, true
		}
	}
	return InvalidMemberRef, nil, false
}

// GetMember dereferences a MemberRef directly.
func (m *Manager) GetMember(ref MemberRef) (*Member, bool) {
	lib, ok := m.Library(ref.CastLib)
	if !ok {
		return nil, false
	}
	return lib.MemberByNumber(ref.CastMember)
}

// GetScript returns the Script record for a member reference whose
// member is a script member.
func (m *Manager) GetScript(ref MemberRef) (*Script, bool) {
	lib, ok := m.Library(ref.CastLib)
	if !ok {
		return nil, false
	}
	mem, ok := lib.MemberByNumber(ref.CastMember)
	if !ok || mem.Type != container.MemberTypeScript {
		return nil, false
	}
	script, ok := lib.Scripts[int32(mem.ScriptID)]
	return script, ok
}

// RemoveMember deletes a member from its owning library and invalidates
// the derived caches.
func (m *Manager) RemoveMember(ref MemberRef) {
	lib, ok := m.Library(ref.CastLib)
	if !ok {
		return
	}
	lib.RemoveMember(ref.CastMember)
	m.clearCaches()
}

// MovieScripts returns every ScriptTypeMovie script across every library,
// computing and caching the list on first call.
func (m *Manager) MovieScripts() []*Script {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.movieScriptCacheOK {
		return m.movieScriptCache
	}

	var out []*Script
	for _, lib := range m.Libraries {
		for _, script := range lib.Scripts {
			if script.Type == container.ScriptTypeMovie {
				out = append(out, script)
			}
		}
	}
	m.movieScriptCache = out
	m.movieScriptCacheOK = true
	return out
}

// Palettes returns every Palette member across every library, keyed by
// its packed cast slot number, computing and caching the map on first
// call.
func (m *Manager) Palettes() map[uint32]*[256][3]uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paletteCacheOK {
		return m.paletteCache
	}

	out := make(map[uint32]*[256][3]uint8)
	for _, lib := range m.Libraries {
		for _, mem := range lib.Members {
			if mem.Palette == nil {
				continue
			}
			out[SlotNumber(lib.Number, mem.Number)] = mem.Palette
		}
	}
	m.paletteCache = out
	m.paletteCacheOK = true
	return out
}

// LoadExternalCast fetches an external library's backing file over the
// Manager's Fetcher and applies it in place. Manager never calls it on
// its own: ResolveMember does not fetch, so an external library of any
// preload mode, PreloadOnDemand included, holds no members until a caller
// loads it here (as callers driving PreloadBeforeFrameOne at movie load or
// PreloadAfterFrameOne once frame 1 has advanced do).
func (m *Manager) LoadExternalCast(ctx context.Context, lib *Library) error {
	if !lib.IsExternal {
		return nil
	}
	_, err, _ := m.extLoads.Do(strconv.Itoa(int(lib.Number)), func() (interface{}, error) {
		return nil, m.loadExternalCast(ctx, lib)
	})
	return err
}

func (m *Manager) loadExternalCast(ctx context.Context, lib *Library) error {
	if lib.State == StateLoaded {
		return nil
	}
	lib.State = StateLoading

	rawURL := normalizeCastLibPath(m.player.BaseURL, lib.FileName)
	data, err := m.fetch.Fetch(ctx, rawURL)
	if err != nil {
		lib.State = StateNone
		return fmt.Errorf("cast: fetching external library %q: %w", rawURL, err)
	}

	r, err := container.LoadBytes(data, m.logger)
	if err != nil {
		lib.State = StateNone
		return fmt.Errorf("cast: decoding external library %q: %w", rawURL, err)
	}
	defer r.Close()

	var castSectionID int32
	var found bool
	for id, info := range r.Catalog().Sections {
		if info.FourCC == fourCCCASStar {
			castSectionID = id
			found = true
			break
		}
	}
	if !found {
		lib.State = StateNone
		return fmt.Errorf("cast: external library %q has no cast directory", rawURL)
	}

	if err := lib.LoadFromCatalog(r, castSectionID, 1); err != nil {
		lib.State = StateNone
		return err
	}

	m.clearCaches()
	return nil
}

// normalizeCastLibPath strips any extension from name and appends the
// external-cast file extension, resolving it against base when base is
// non-empty.
func normalizeCastLibPath(base, name string) string {
	trimmed := name
	if idx := strings.LastIndexByte(trimmed, '.'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	trimmed += ".cct"
	if base == "" {
		return trimmed
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(trimmed, "/")
}
