// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package cast

import (
	"testing"

	"github.com/stagevm/core/container"
	"github.com/stagevm/core/internal/config"
)

func newTestManager() *Manager {
	m := NewManager(config.DefaultPlayer(), nil, nil)

	lib1 := NewLibrary(1, container.CastListEntry{Name: "Internal"}, config.PreloadOnDemand, nil)
	lib1.Members[1] = &Member{Number: 1, Name: "Logo"}
	lib1.Scripts[1] = &Script{ID: 1, Type: container.ScriptTypeMovie}

	lib2 := NewLibrary(2, container.CastListEntry{Name: "Shared"}, config.PreloadOnDemand, nil)
	lib2.Members[1] = &Member{Number: 1, Name: "Button", Palette: &[256][3]uint8{}}

	m.Libraries = []*Library{lib1, lib2}
	return m
}

func TestResolveMemberByName(t *testing.T) {
	m := newTestManager()
	ref, mem, ok := m.ResolveMember("logo", nil)
	if !ok || ref.CastLib != 1 || mem.Name != "Logo" {
		t.Fatalf("ResolveMember(logo) = %+v, %+v, %v", ref, mem, ok)
	}
}

func TestResolveMemberScopedToLibrary(t *testing.T) {
	m := newTestManager()
	lib2, _ := m.Library(2)
	ref, mem, ok := m.ResolveMember("button", lib2)
	if !ok || ref.CastLib != 2 || mem.Number != 1 {
		t.Fatalf("scoped ResolveMember = %+v, %+v, %v", ref, mem, ok)
	}
	if _, _, ok := m.ResolveMember("logo", lib2); ok {
		t.Error("ResolveMember scoped to lib2 should not find lib1's member")
	}
}

func TestResolveMemberBySlotNumber(t *testing.T) {
	m := newTestManager()
	slot := SlotNumber(2, 1)
	ref, mem, ok := m.ResolveMember(int(slot), nil)
	if !ok || ref.CastLib != 2 || mem.Number != 1 {
		t.Fatalf("ResolveMember(slot) = %+v, %+v, %v", ref, mem, ok)
	}
}

func TestResolveMemberMiss(t *testing.T) {
	m := newTestManager()
	if _, _, ok := m.ResolveMember("nonexistent", nil); ok {
		t.Error("ResolveMember should miss for an unknown name")
	}
}

func TestMovieScriptsCaching(t *testing.T) {
	m := newTestManager()
	scripts := m.MovieScripts()
	if len(scripts) != 1 {
		t.Fatalf("MovieScripts() = %d entries, want 1", len(scripts))
	}

	lib1, _ := m.Library(1)
	lib1.Scripts[2] = &Script{ID: 2, Type: container.ScriptTypeMovie}

	if got := m.MovieScripts(); len(got) != 1 {
		t.Fatalf("MovieScripts() should stay cached at 1 until invalidated, got %d", len(got))
	}

	m.clearCaches()
	if got := m.MovieScripts(); len(got) != 2 {
		t.Fatalf("MovieScripts() after invalidation = %d, want 2", len(got))
	}
}

func TestPalettes(t *testing.T) {
	m := newTestManager()
	palettes := m.Palettes()
	slot := SlotNumber(2, 1)
	if _, ok := palettes[slot]; !ok {
		t.Fatalf("Palettes() missing entry for slot %#x: %v", slot, palettes)
	}
}

func TestRemoveMemberInvalidatesCaches(t *testing.T) {
	m := newTestManager()
	_ = m.Palettes()

	m.RemoveMember(MemberRef{CastLib: 2, CastMember: 1})

	if _, ok := m.GetMember(MemberRef{CastLib: 2, CastMember: 1}); ok {
		t.Fatal("member should be gone after RemoveMember")
	}
	if _, ok := m.Palettes()[SlotNumber(2, 1)]; ok {
		t.Error("Palettes() should no longer list the removed member")
	}
}
