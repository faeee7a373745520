// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

// FourCC is a four-byte type tag identifying a chunk kind, packed
// big-endian regardless of the container's own byte order (the container
// header and mmap entries carry fourccs pre-swapped for the host's
// endianness; everywhere else a fourcc is compared as the ASCII bytes).
type FourCC uint32

// NewFourCC packs a 4-character ASCII string into a FourCC the same way the
// original player's FOURCC() helper does: big-endian, first character in
// the high byte.
func NewFourCC(s string) FourCC {
	var b [4]byte
	copy(b[:], s)
	return FourCC(b[3]) | FourCC(b[2])<<8 | FourCC(b[1])<<16 | FourCC(b[0])<<24
}

// String renders a FourCC back to its 4-character form.
func (f FourCC) String() string {
	b := [4]byte{
		byte(f >> 24),
		byte(f >> 16),
		byte(f >> 8),
		byte(f),
	}
	return string(b[:])
}

// Well-known fourccs used throughout the container and model layers.
var (
	fourCCRIFX = NewFourCC("RIFX")
	fourCCXFIR = NewFourCC("XFIR") // little-endian RIFX, byte-swapped
	fourCCRIFF = NewFourCC("RIFF")
	fourCCFFIR = NewFourCC("FFIR")

	fourCCImap = NewFourCC("imap")
	fourCCMmap = NewFourCC("mmap")
	fourCCFree = NewFourCC("free")
	fourCCJunk = NewFourCC("junk")

	fourCCCASStar = NewFourCC("CAS*")
	fourCCCASt    = NewFourCC("CASt")
	fourCCKeyStar = NewFourCC("KEY*")
	fourCCLctX    = NewFourCC("LctX")
	fourCCLctx    = NewFourCC("Lctx")
	fourCCLnam    = NewFourCC("Lnam")
	fourCCLscr    = NewFourCC("Lscr")
	fourCCDRCF    = NewFourCC("DRCF")
	fourCCVWCF    = NewFourCC("VWCF")
	fourCCMCsL    = NewFourCC("MCsL")
	fourCCVWSC    = NewFourCC("VWSC")
	fourCCSCVW    = NewFourCC("SCVW")
	fourCCVWLB    = NewFourCC("VWLB")
	fourCCSTXT    = NewFourCC("STXT")
	fourCCBITD    = NewFourCC("BITD")
	fourCCCLUT    = NewFourCC("CLUT")
	fourCCCinf    = NewFourCC("Cinf")

	// fourCCRalf is the sentinel XORed into the Config checksum.
	fourCCRalf = NewFourCC("ralf")
)
