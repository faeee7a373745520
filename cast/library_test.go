// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package cast

import (
	"testing"

	"github.com/stagevm/core/container"
)

func newTestLibrary() *Library {
	lib := NewLibrary(1, container.CastListEntry{Name: "Internal"}, 0, nil)
	lib.Members[1] = &Member{Number: 1, Name: "Logo"}
	lib.Members[2] = &Member{Number: 2, Name: "Background"}
	return lib
}

func TestLibraryMemberByNumber(t *testing.T) {
	lib := newTestLibrary()
	m, ok := lib.MemberByNumber(2)
	if !ok || m.Name != "Background" {
		t.Fatalf("MemberByNumber(2) = %+v, %v", m, ok)
	}
	if _, ok := lib.MemberByNumber(99); ok {
		t.Error("MemberByNumber(99) should miss")
	}
}

func TestLibraryMemberByNameCaseInsensitiveAndLowestNumberWins(t *testing.T) {
	lib := newTestLibrary()
	lib.Members[3] = &Member{Number: 3, Name: "logo"}

	m, ok := lib.MemberByName("LOGO")
	if !ok {
		t.Fatal("MemberByName(LOGO) should hit")
	}
	if m.Number != 1 {
		t.Errorf("MemberByName should prefer the lowest member number on a tie, got %d", m.Number)
	}
}

func TestLibraryFirstFreeMemberID(t *testing.T) {
	lib := newTestLibrary()
	if got := lib.FirstFreeMemberID(); got != 3 {
		t.Errorf("FirstFreeMemberID() = %d, want 3", got)
	}
}

func TestLibraryMaxMemberID(t *testing.T) {
	lib := newTestLibrary()
	if got := lib.MaxMemberID(); got != 2 {
		t.Errorf("MaxMemberID() = %d, want 2", got)
	}
}

func TestLibraryRemoveMember(t *testing.T) {
	lib := newTestLibrary()
	lib.RemoveMember(1)
	if _, ok := lib.MemberByNumber(1); ok {
		t.Error("member 1 should be gone after RemoveMember")
	}
	if _, ok := lib.MemberByNumber(2); !ok {
		t.Error("member 2 should be untouched")
	}
}

func TestLibraryClear(t *testing.T) {
	lib := newTestLibrary()
	lib.Scripts[1] = &Script{ID: 1}
	lib.Clear()
	if len(lib.Members) != 0 || len(lib.Scripts) != 0 {
		t.Fatalf("Clear() left members=%d scripts=%d, want 0, 0", len(lib.Members), len(lib.Scripts))
	}
	if lib.State != StateNone {
		t.Errorf("Clear() left State = %v, want StateNone", lib.State)
	}
	if lib.Name != "Internal" {
		t.Error("Clear() should not reset the library's identity")
	}
}
