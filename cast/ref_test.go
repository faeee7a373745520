// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package cast

import "testing"

func TestSlotNumberRoundTrip(t *testing.T) {
	cases := []MemberRef{
		{CastLib: 1, CastMember: 1},
		{CastLib: 3, CastMember: 4200},
		{CastLib: 0, CastMember: 0},
		{CastLib: 0xFFFF, CastMember: 0xFFFF},
	}
	for _, ref := range cases {
		slot := SlotNumber(ref.CastLib, ref.CastMember)
		got := MemberRefFromSlot(slot)
		if got != ref {
			t.Errorf("SlotNumber(%d,%d) round trip = %+v, want %+v", ref.CastLib, ref.CastMember, got, ref)
		}
	}
}

func TestSlotNumberLayout(t *testing.T) {
	got := SlotNumber(2, 7)
	want := uint32(2)<<16 | 7
	if got != want {
		t.Errorf("SlotNumber(2,7) = %#x, want %#x", got, want)
	}
}

func TestIsValid(t *testing.T) {
	if InvalidMemberRef.IsValid() {
		t.Error("InvalidMemberRef.IsValid() = true, want false")
	}
	if !NullMemberRef.IsValid() {
		t.Error("NullMemberRef.IsValid() = false, want true")
	}
	if !(MemberRef{CastLib: 1, CastMember: 5}).IsValid() {
		t.Error("ordinary ref reported invalid")
	}
}
