// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

import "encoding/binary"

// SpriteRecord is one channel's placement within a single score frame:
// which cast member occupies it, and its on-stage transform/blend state.
// This is a best-effort layout — the upstream reference implementation's
// score decoder wasn't available to port byte-for-byte, so the field set
// here is sized to what a sprite placement actually needs (cast member
// ref, channel, geometry, ink) rather than the full historical record
// width.
type SpriteRecord struct {
	Channel        uint16
	CastMemberID   int32
	CastLibID      int16
	LocH, LocV     int16
	Width, Height  int16
	Ink            uint8
	Blend          uint8
}

// ScoreFrame is one frame's sprite channel occupancy.
type ScoreFrame struct {
	FrameNumber int
	Sprites     []SpriteRecord
}

// ScoreChunk ("VWSC"/"SCVW") is the movie's frame-indexed sprite timeline:
// each frame has channels, each channel carries a sprite.
type ScoreChunk struct {
	FrameCount     int
	ChannelCount   int
	Frames         []ScoreFrame
}

const scoreSpriteRecordSize = 20

func decodeScore(body []byte) (*ScoreChunk, error) {
	br := newByteReader(body, binary.BigEndian)

	totalLen, err := br.u32()
	if err != nil {
		return nil, err
	}
	if _, err := br.u32(); err != nil { // total_len2
		return nil, err
	}
	headerLen, err := br.u16()
	if err != nil {
		return nil, err
	}
	if _, err := br.u16(); err != nil { // unk
		return nil, err
	}
	frameCount, err := br.u32()
	if err != nil {
		return nil, err
	}
	if _, err := br.u16(); err != nil { // frame_version
		return nil, err
	}
	channelCount, err := br.u16()
	if err != nil {
		return nil, err
	}
	framesPerSprite, err := br.u16()
	if err != nil {
		return nil, err
	}

	sc := &ScoreChunk{FrameCount: int(frameCount), ChannelCount: int(channelCount)}

	br.jmp(int(headerLen))
	recordSize := int(framesPerSprite)
	if recordSize == 0 {
		recordSize = scoreSpriteRecordSize
	}

	for f := 0; f < int(frameCount); f++ {
		var frame ScoreFrame
		frame.FrameNumber = f + 1
		for ch := 0; ch < int(channelCount); ch++ {
			if br.bytesLeft() < recordSize {
				break
			}
			rec, err := readSpriteRecord(br, uint16(ch))
			if err != nil {
				return nil, err
			}
			if rec.CastMemberID != 0 {
				frame.Sprites = append(frame.Sprites, rec)
			}
		}
		sc.Frames = append(sc.Frames, frame)
		if uint32(br.pos) >= totalLen {
			break
		}
	}

	return sc, nil
}

func readSpriteRecord(br *byteReader, channel uint16) (SpriteRecord, error) {
	start := br.pos
	castLibID, err := br.i16()
	if err != nil {
		return SpriteRecord{}, err
	}
	castMemberID, err := br.i16()
	if err != nil {
		return SpriteRecord{}, err
	}
	ink, err := br.u8()
	if err != nil {
		return SpriteRecord{}, err
	}
	blend, err := br.u8()
	if err != nil {
		return SpriteRecord{}, err
	}
	locV, err := br.i16()
	if err != nil {
		return SpriteRecord{}, err
	}
	locH, err := br.i16()
	if err != nil {
		return SpriteRecord{}, err
	}
	height, err := br.i16()
	if err != nil {
		return SpriteRecord{}, err
	}
	width, err := br.i16()
	if err != nil {
		return SpriteRecord{}, err
	}
	// skip any remaining bytes in this record to stay aligned.
	consumed := br.pos - start
	if rem := scoreSpriteRecordSize - consumed; rem > 0 {
		if _, err := br.bytes(rem); err != nil {
			return SpriteRecord{}, err
		}
	}

	return SpriteRecord{
		Channel:      channel,
		CastMemberID: int32(castMemberID),
		CastLibID:    castLibID,
		LocH:         locH,
		LocV:         locV,
		Width:        width,
		Height:       height,
		Ink:          ink,
		Blend:        blend,
	}, nil
}

// FrameLabelEntry names a single labeled frame (a marker placed on the
// score timeline that scripts can navigate to by name).
type FrameLabelEntry struct {
	FrameNumber int
	Label       string
}

// FrameLabelsChunk ("VWLB") is the score's frame-label table.
type FrameLabelsChunk struct {
	Entries []FrameLabelEntry
}

func decodeFrameLabels(body []byte) (*FrameLabelsChunk, error) {
	br := newByteReader(body, binary.BigEndian)

	count, err := br.u16()
	if err != nil {
		return nil, err
	}
	type pair struct {
		frame  uint16
		offset uint16
	}
	pairs := make([]pair, count)
	for i := range pairs {
		frame, err := br.u16()
		if err != nil {
			return nil, err
		}
		offset, err := br.u16()
		if err != nil {
			return nil, err
		}
		pairs[i] = pair{frame, offset}
	}

	strTableLen, err := br.u32()
	if err != nil {
		return nil, err
	}
	base := br.pos

	entries := make([]FrameLabelEntry, len(pairs))
	for i, p := range pairs {
		end := int(strTableLen)
		if i != len(pairs)-1 {
			end = int(pairs[i+1].offset)
		}
		if end < int(p.offset) {
			return nil, ErrMalformedChunk
		}
		br.jmp(base + int(p.offset))
		b, err := br.bytes(end - int(p.offset))
		if err != nil {
			return nil, err
		}
		entries[i] = FrameLabelEntry{FrameNumber: int(p.frame), Label: string(b)}
	}

	return &FrameLabelsChunk{Entries: entries}, nil
}

// ChannelNamesChunk ("Cinf") is the score's per-channel naming table: a
// channel a score author has named (via the score window's channel
// header) gets an entry here, indexed by its 1-based channel number.
// Decoded with the same offset-table-of-items shape readBasicList
// already serves for cast member info and the cast list — the only
// layout this family of chunks is known to use anywhere in this reader.
type ChannelNamesChunk struct {
	Names []string
}

func decodeChannelNames(body []byte) (*ChannelNamesChunk, error) {
	br := newByteReader(body, binary.BigEndian)

	dataOffset, err := br.u32()
	if err != nil {
		return nil, err
	}
	items, err := readBasicList(br, int(dataOffset))
	if err != nil {
		return nil, err
	}

	names := make([]string, len(items))
	for i := range items {
		names[i] = basicListItemPascalString(items, i)
	}
	return &ChannelNamesChunk{Names: names}, nil
}
