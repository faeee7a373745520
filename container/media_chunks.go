// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

import "encoding/binary"

// TextChunk ("STXT") is a field/text member's backing store: its plain
// rendered string plus the raw formatting-run bytes that follow it.
type TextChunk struct {
	Text string
	Data []byte
}

func decodeText(body []byte) (*TextChunk, error) {
	br := newByteReader(body, binary.BigEndian)

	offset, err := br.u32()
	if err != nil {
		return nil, err
	}
	if offset != 12 {
		return nil, ErrMalformedChunk
	}
	textLen, err := br.u32()
	if err != nil {
		return nil, err
	}
	dataLen, err := br.u32()
	if err != nil {
		return nil, err
	}

	textBytes, err := br.bytes(int(textLen))
	if err != nil {
		return nil, err
	}
	data, err := br.bytes(int(dataLen))
	if err != nil {
		return nil, err
	}

	return &TextChunk{Text: string(textBytes), Data: append([]byte(nil), data...)}, nil
}

// BitmapChunk ("BITD") is a bitmap member's raw pixel payload. Pixel
// decoding (run-length variants, per-depth unpacking) is a rendering
// concern the core keeps out of scope; it keeps the compressed bytes
// addressable so a host renderer can decode them against the sibling
// CastMemberChunk's bitmap info.
type BitmapChunk struct {
	Data []byte
}

func decodeBitmap(body []byte) (*BitmapChunk, error) {
	return &BitmapChunk{Data: append([]byte(nil), body...)}, nil
}

// PaletteChunk ("CLUT") is a 256-entry RGB color lookup table. Each entry
// is stored as three 16-bit channel words (high byte significant); only
// the high byte of each is kept, matching 8-bit-per-channel consumers.
type PaletteChunk struct {
	Colors [256][3]uint8
}

// readByteOrDefault reads one byte, substituting fallback on EOF (a
// truncated palette trails off into default entries rather than failing
// the whole chunk).
func readByteOrDefault(br *byteReader, fallback uint8) uint8 {
	v, err := br.u8()
	if err != nil {
		return fallback
	}
	return v
}

func decodePalette(body []byte) (*PaletteChunk, error) {
	br := newByteReader(body, binary.BigEndian)
	var p PaletteChunk
	for i := range p.Colors {
		r := readByteOrDefault(br, 255)
		readByteOrDefault(br, 0)
		g := readByteOrDefault(br, 0)
		readByteOrDefault(br, 0)
		b := readByteOrDefault(br, 255)
		readByteOrDefault(br, 0)
		p.Colors[i] = [3]uint8{r, g, b}
	}
	return &p, nil
}
