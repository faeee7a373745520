// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

// Package cast presents L1's raw chunks as an addressable graph of cast
// libraries, members, and scripts (L2). Nothing in this package touches
// file bytes directly; it works entirely off the typed chunk structures
// container produces.
package cast

// MemberRef identifies a cast member by (library number, member number).
// A zero CastLib means "search every library in order" for operations
// that accept it; a negative CastLib/CastMember is the invalid sentinel.
type MemberRef struct {
	CastLib    int32
	CastMember int32
}

// InvalidMemberRef is returned where no member matched.
var InvalidMemberRef = MemberRef{CastLib: -1, CastMember: -1}

// NullMemberRef is the zero value a freshly-allocated property holds
// before anything is assigned to it.
var NullMemberRef = MemberRef{CastLib: 0, CastMember: 0}

// IsValid reports whether r names a real member rather than the invalid
// sentinel.
func (r MemberRef) IsValid() bool {
	return r != InvalidMemberRef
}

// SlotNumber packs a MemberRef into the single integer Lingo scripts see
// when they compare two cast member references, or store one in a list:
// the library number in the high 16 bits, the member number in the low
// 16 bits.
func SlotNumber(castLib, member int32) uint32 {
	return (uint32(castLib) << 16) | (uint32(member) & 0xFFFF)
}

// MemberRefFromSlot unpacks the encoding SlotNumber produces.
func MemberRefFromSlot(slot uint32) MemberRef {
	return MemberRef{
		CastLib:    int32(slot >> 16),
		CastMember: int32(slot & 0xFFFF),
	}
}
