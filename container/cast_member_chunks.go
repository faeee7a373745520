// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

import "encoding/binary"

// CastMemberInfoChunk is the common (name, script text, flags) header
// nearly every cast member type carries as a nested chunk, decoded via the
// shared offset-table list pattern (readBasicList).
type CastMemberInfoChunk struct {
	DataOffset    uint32
	Flags         uint32
	ScriptID      uint32
	ScriptSrcText string
	Name          string
}

func decodeCastMemberInfo(body []byte, endian binary.ByteOrder) (*CastMemberInfoChunk, error) {
	br := newByteReader(body, endian)
	dataOffset, err := br.u32()
	if err != nil {
		return nil, err
	}
	if _, err := br.u32(); err != nil { // unk1
		return nil, err
	}
	if _, err := br.u32(); err != nil { // unk2
		return nil, err
	}
	flags, err := br.u32()
	if err != nil {
		return nil, err
	}
	scriptID, err := br.u32()
	if err != nil {
		return nil, err
	}

	items, err := readBasicList(br, int(dataOffset))
	if err != nil {
		return nil, err
	}

	return &CastMemberInfoChunk{
		DataOffset:    dataOffset,
		Flags:         flags,
		ScriptID:      scriptID,
		ScriptSrcText: basicListItemString(items, 0),
		Name:          basicListItemPascalString(items, 1),
	}, nil
}

// CastMemberChunk ("CASt") is one cast member's type tag, type-specific
// payload, and optional nested info block. SpecificData is kept raw; L2
// interprets it per MemberType (the exact per-type binary layouts —
// BitmapInfo, ShapeInfo, FilmLoopInfo — are conjectural for formats this
// reader doesn't need to render; we keep the raw bytes plus a best-effort
// decode rather than invent a stricter parse).
type CastMemberChunk struct {
	MemberType   MemberType
	ScriptType   ScriptType // only meaningful when MemberType == MemberTypeScript
	SpecificData []byte
	Info         *CastMemberInfoChunk
}

func decodeCastMember(body []byte, dirVersion uint16) (*CastMemberChunk, error) {
	br := newByteReader(body, binary.BigEndian)

	var memberType MemberType
	var specificData []byte
	var info *CastMemberInfoChunk

	if dirVersion >= 500 {
		rawType, err := br.u32()
		if err != nil {
			return nil, err
		}
		memberType = MemberType(rawType)

		infoLen, err := br.u32()
		if err != nil {
			return nil, err
		}
		specificLen, err := br.u32()
		if err != nil {
			return nil, err
		}

		if infoLen != 0 {
			infoBytes, err := br.bytes(int(infoLen))
			if err != nil {
				return nil, err
			}
			info, err = decodeCastMemberInfo(infoBytes, binary.BigEndian)
			if err != nil {
				return nil, err
			}
		}

		specificData, err = br.bytes(int(specificLen))
		if err != nil {
			return nil, err
		}
	} else {
		specificLen, err := br.u16()
		if err != nil {
			return nil, err
		}
		infoLen, err := br.u32()
		if err != nil {
			return nil, err
		}

		remaining := int(specificLen)
		rawType, err := br.u8()
		if err != nil {
			return nil, err
		}
		memberType = MemberType(rawType)
		remaining--

		if remaining > 0 {
			if _, err := br.u8(); err != nil { // flags1, unused downstream
				return nil, err
			}
			remaining--
		}

		if remaining > 0 {
			specificData, err = br.bytes(remaining)
			if err != nil {
				return nil, err
			}
		}

		if infoLen != 0 {
			infoBytes, err := br.bytes(int(infoLen))
			if err != nil {
				return nil, err
			}
			info, err = decodeCastMemberInfo(infoBytes, binary.BigEndian)
			if err != nil {
				return nil, err
			}
		}
	}

	c := &CastMemberChunk{MemberType: memberType, SpecificData: specificData, Info: info}
	if memberType == MemberTypeScript && len(specificData) >= 2 {
		c.ScriptType = ScriptType(binary.BigEndian.Uint16(specificData[0:2]))
	}
	return c, nil
}
