// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/text/encoding/charmap"
)

// byteReader is a small sequential cursor over a chunk's raw bytes. The
// container's outer structures (imap, mmap, key table, config) follow the
// file's probed endianness; script bytecode is always big-endian, so
// handler/literal decoding builds its own big-endian reader regardless of
// what the caller passes in.
type byteReader struct {
	data   []byte
	pos    int
	endian binary.ByteOrder
}

func newByteReader(data []byte, endian binary.ByteOrder) *byteReader {
	return &byteReader{data: data, pos: 0, endian: endian}
}

func (r *byteReader) len() int { return len(r.data) }

func (r *byteReader) bytesLeft() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

func (r *byteReader) jmp(pos int) { r.pos = pos }

func (r *byteReader) need(n int) error {
	if r.pos < 0 || r.pos+n > len(r.data) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedChunk, n, r.pos, len(r.data))
	}
	return nil
}

func (r *byteReader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *byteReader) i8() (int8, error) {
	v, err := r.u8()
	return int8(v), err
}

func (r *byteReader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := r.endian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *byteReader) i16() (int16, error) {
	v, err := r.u16()
	return int16(v), err
}

func (r *byteReader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := r.endian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *byteReader) fourCC() (FourCC, error) {
	v, err := r.u32()
	return FourCC(v), err
}

func (r *byteReader) guid() (CompressionGUID, error) {
	var g CompressionGUID
	var err error
	if g.Data1, err = r.u32(); err != nil {
		return g, err
	}
	if g.Data2, err = r.u16(); err != nil {
		return g, err
	}
	if g.Data3, err = r.u16(); err != nil {
		return g, err
	}
	if g.Data4, err = r.u32(); err != nil {
		return g, err
	}
	if g.Data5, err = r.u32(); err != nil {
		return g, err
	}
	return g, nil
}

// pascalString reads a one-byte length prefix followed by that many raw
// bytes, as used by the "Lnam" script name table in every file version.
// Those bytes are Mac OS Roman, not ASCII or UTF-8 — handler and variable
// identifiers can carry the bullet, smart quotes, and accented letters Mac
// authoring tools let through — so the payload is transcoded through
// golang.org/x/text/encoding/charmap the same way helper.go reads UTF-16
// version-resource strings through the x/text family.
func (r *byteReader) pascalString() (string, error) {
	n, err := r.u8()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	s, err := charmap.Macintosh.NewDecoder().String(string(b))
	if err != nil {
		return string(b), nil
	}
	return s, nil
}

// varInt reads the 7-bit continuation-encoded integer format used by a
// handful of legacy fields (most-significant-bit-set means "more bytes
// follow"), matching the original reader's read_var_int.
func (r *byteReader) varInt() (int32, error) {
	var val int32
	for {
		b, err := r.u8()
		if err != nil {
			return 0, err
		}
		val = (val << 7) | int32(b&0x7f)
		if b>>7 == 0 {
			break
		}
	}
	return val, nil
}

// appleFloat80 decodes a 10-byte SANE extended float, the format legacy
// literal records use for floating point constants.
func (r *byteReader) appleFloat80() (float64, error) {
	b, err := r.bytes(10)
	if err != nil {
		return 0, err
	}
	exponent := binary.BigEndian.Uint16(b[0:2])
	sign := uint64(exponent&0x8000) << 48
	exponent &= 0x7fff

	fraction := binary.BigEndian.Uint64(b[2:10])
	fraction &= 0x7fffffffffffffff

	var f64exp uint64
	switch {
	case exponent == 0:
		f64exp = 0
	case exponent == 0x7fff:
		f64exp = 0x7ff
	default:
		normexp := int64(exponent) - 0x3fff
		if normexp < -0x3fe || normexp >= 0x3ff {
			return 0, fmt.Errorf("%w: float80 exponent out of range", ErrMalformedChunk)
		}
		f64exp = uint64(normexp + 0x3ff)
	}
	f64exp <<= 52
	f64fract := fraction >> 11
	bits := sign | f64exp | f64fract
	return math.Float64frombits(bits), nil
}
