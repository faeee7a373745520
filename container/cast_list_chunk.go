// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

import "encoding/binary"

// CastListEntry names one cast library attached to the movie: its
// display name, the external file it's loaded from (empty for internal
// casts), its preload mode, the range of member numbers it holds, and its
// id.
type CastListEntry struct {
	Name            string
	FilePath        string
	PreloadSettings uint16
	MinMember       uint16
	MaxMember       uint16
	ID              uint32
}

// CastListChunk ("MCsL") enumerates every cast library a movie references,
// internal or external.
type CastListChunk struct {
	Entries []CastListEntry
}

func decodeCastList(body []byte, itemEndian binary.ByteOrder) (*CastListChunk, error) {
	br := newByteReader(body, binary.BigEndian)

	dataOffset, err := br.u32()
	if err != nil {
		return nil, err
	}
	if _, err := br.u16(); err != nil { // unk0
		return nil, err
	}
	castCount, err := br.u16()
	if err != nil {
		return nil, err
	}
	itemsPerCast, err := br.u16()
	if err != nil {
		return nil, err
	}
	if _, err := br.u16(); err != nil { // unk1
		return nil, err
	}

	items, err := readBasicList(br, int(dataOffset))
	if err != nil {
		return nil, err
	}

	entries := make([]CastListEntry, castCount)
	for i := range entries {
		base := int(i) * int(itemsPerCast)
		var e CastListEntry
		if itemsPerCast >= 1 {
			e.Name = basicListItemPascalString(items, base+1)
		}
		if itemsPerCast >= 2 {
			e.FilePath = basicListItemPascalString(items, base+2)
		}
		if itemsPerCast >= 3 {
			if idx := base + 3; idx < len(items) && len(items[idx]) >= 2 {
				e.PreloadSettings = itemEndian.Uint16(items[idx])
			}
		}
		if itemsPerCast >= 4 {
			if idx := base + 4; idx < len(items) && len(items[idx]) >= 8 {
				b := items[idx]
				e.MinMember = binary.BigEndian.Uint16(b[0:2])
				e.MaxMember = binary.BigEndian.Uint16(b[2:4])
				e.ID = binary.BigEndian.Uint32(b[4:8])
			}
		}
		entries[i] = e
	}

	return &CastListChunk{Entries: entries}, nil
}
