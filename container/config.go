// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

import "encoding/binary"

// HumanVersion normalizes a raw director_version field into the
// cutoff-banded value every version-sensitive sub-decoder threads through
// its layout decisions. Corrects a Director 12 numbering quirk the raw
// field otherwise misrepresents.
func HumanVersion(raw uint16) uint16 {
	switch {
	case raw >= 1951:
		return 1200
	case raw >= 1922:
		return 1150
	case raw >= 1921:
		return 1100
	case raw >= 1851:
		return 1000
	case raw >= 1700:
		return 850
	case raw >= 1410:
		return 800
	case raw >= 1224:
		return 700
	case raw >= 1218:
		return 600
	case raw >= 1201:
		return 500
	case raw >= 1117:
		return 404
	case raw >= 1115:
		return 400
	case raw >= 1029:
		return 310
	case raw >= 1028:
		return 300
	default:
		return 200
	}
}

// ConfigChunk is the decoded "DRCF"/"VWCF" chunk: movie-wide settings plus
// the obfuscation checksum that must be reproduced exactly to validate it.
type ConfigChunk struct {
	Len              uint16
	FileVersion      uint16
	MovieTop         uint16
	MovieLeft        uint16
	MovieBottom      uint16
	MovieRight       uint16
	MinMember        uint16
	MaxMember        uint16
	Field9           uint8
	Field10          uint8
	PreD7Field11     uint16
	D7StageColorG    uint8
	D7StageColorB    uint8
	CommentFont      uint16
	CommentSize      uint16
	CommentStyle     uint16
	PreD7StageColor  uint16
	D7StageColorIsRGB uint8
	D7StageColorR    uint8
	BitDepth         uint16
	Field17          uint8
	Field18          uint8
	Field19          uint32
	RawDirectorVersion uint16
	Field21          uint16
	Field22          uint32
	Field23          uint32
	Field24          uint32
	Field25          uint8
	Field26          uint8
	FrameRate        uint16
	Platform         uint16
	Protection       uint16
	Field29          uint32
	Checksum         uint32
	Remnants         []byte

	// DirVersion is HumanVersion(RawDirectorVersion), cached for callers.
	DirVersion uint16
	// ChecksumValid is false when the stored checksum doesn't match the
	// recomputed one. Tampered or unsupported files are reported this way,
	// not treated as a fatal decode error.
	ChecksumValid bool
}

// decodeConfig parses a "DRCF"/"VWCF" chunk body. Config bytes are always
// big-endian regardless of the outer container's probed endianness (the
// field reads below mirror the original player's ConfigChunk::from_reader,
// which forces big-endian before reading).
func decodeConfig(body []byte, containerEndian binary.ByteOrder) (*ConfigChunk, error) {
	peek := newByteReader(body, binary.BigEndian)
	peek.jmp(36)
	rawVersion, err := peek.u16()
	if err != nil {
		return nil, err
	}
	dirVersion := HumanVersion(rawVersion)

	br := newByteReader(body, binary.BigEndian)
	c := &ConfigChunk{}

	read16 := func(dst *uint16) { if err == nil { *dst, err = br.u16() } }
	read8 := func(dst *uint8) { if err == nil { *dst, err = br.u8() } }
	read32 := func(dst *uint32) { if err == nil { *dst, err = br.u32() } }

	read16(&c.Len)
	read16(&c.FileVersion)
	read16(&c.MovieTop)
	read16(&c.MovieLeft)
	read16(&c.MovieBottom)
	read16(&c.MovieRight)
	read16(&c.MinMember)
	read16(&c.MaxMember)
	read8(&c.Field9)
	read8(&c.Field10)

	if dirVersion < 700 {
		read16(&c.PreD7Field11)
	} else {
		read8(&c.D7StageColorG)
		read8(&c.D7StageColorB)
	}

	read16(&c.CommentFont)
	read16(&c.CommentSize)
	read16(&c.CommentStyle)

	if dirVersion < 700 {
		read16(&c.PreD7StageColor)
	} else {
		read8(&c.D7StageColorIsRGB)
		read8(&c.D7StageColorR)
	}

	read16(&c.BitDepth)
	read8(&c.Field17)
	read8(&c.Field18)
	read32(&c.Field19)

	if err == nil {
		_, err = br.u16() // director_version field, re-read as RawDirectorVersion below
	}
	c.RawDirectorVersion = rawVersion

	read16(&c.Field21)
	read32(&c.Field22)
	read32(&c.Field23)
	read32(&c.Field24)
	read8(&c.Field25)
	read8(&c.Field26)
	read16(&c.FrameRate)
	read16(&c.Platform)
	read16(&c.Protection)
	read32(&c.Field29)
	read32(&c.Checksum)
	if err != nil {
		return nil, err
	}

	if int(c.Len) > br.pos {
		remnants, rerr := br.bytes(int(c.Len) - br.pos)
		if rerr == nil {
			c.Remnants = append([]byte(nil), remnants...)
		}
	}

	c.DirVersion = dirVersion
	c.ChecksumValid = c.Checksum == c.computeChecksum()
	return c, nil
}

// computeChecksum reproduces the container format's obfuscation checksum:
// a fixed sequence of add/sub/mul/div against small additive constants,
// finished with an XOR against the fourcc "ralf". Values are carried in a
// signed 64-bit accumulator and wrapped on overflow.
func (c *ConfigChunk) computeChecksum() uint32 {
	ver := HumanVersion(c.RawDirectorVersion)

	check := int64(c.Len) + 1
	check *= int64(c.FileVersion) + 2
	check /= int64(c.MovieTop) + 3
	check *= int64(c.MovieLeft) + 4
	check /= int64(c.MovieBottom) + 5
	check *= int64(c.MovieRight) + 6
	check -= int64(c.MinMember) + 7
	check *= int64(c.MaxMember) + 8
	check -= int64(c.Field9) + 9
	check -= int64(c.Field10) + 10

	var operand11 int64
	if ver < 700 {
		operand11 = int64(c.PreD7Field11)
	} else {
		operand11 = (int64(c.D7StageColorG)<<8 | int64(c.D7StageColorB)) & 0xFFFF
	}
	check += operand11 + 11
	check *= int64(c.CommentFont) + 12
	check += int64(c.CommentSize) + 13

	var operand14 int64
	if ver < 800 {
		operand14 = (int64(c.CommentSize) >> 8) & 0xFF
	} else {
		operand14 = int64(c.CommentStyle)
	}
	check *= operand14 + 14

	var operand15 int64
	if ver < 700 {
		operand15 = int64(c.PreD7StageColor)
	} else {
		operand15 = int64(c.D7StageColorR)
	}
	check += operand15 + 15
	check += int64(c.BitDepth) + 16
	check += int64(c.Field17) + 17
	check *= int64(c.Field18) + 18
	check += int64(c.Field19) + 19
	check *= int64(c.RawDirectorVersion) + 20
	check += int64(c.Field21) + 21
	check += int64(c.Field22) + 22
	check += int64(c.Field23) + 23
	check += int64(c.Field24) + 24
	check *= int64(c.Field25) + 25
	check += int64(c.FrameRate) + 26
	check *= int64(c.Platform) + 27
	check *= int64(c.Protection)*0xE06 + 0xFF450000
	check ^= int64(fourCCRalf)

	return uint32(check & 0xFFFFFFFF)
}
