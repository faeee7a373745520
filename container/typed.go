// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

import (
	"encoding/binary"
	"fmt"
)

// TypedChunk is any of the chunk kinds DecodeChunk knows how to produce.
// It is a marker interface; callers type-switch on the concrete pointer
// type to get at fields.
type TypedChunk interface {
	isTypedChunk()
}

func (*CastChunk) isTypedChunk()           {}
func (*CastMemberChunk) isTypedChunk()     {}
func (*ScriptContextChunk) isTypedChunk()  {}
func (*ScriptNamesChunk) isTypedChunk()    {}
func (*ScriptChunk) isTypedChunk()         {}
func (*ConfigChunk) isTypedChunk()         {}
func (*CastListChunk) isTypedChunk()       {}
func (*ScoreChunk) isTypedChunk()          {}
func (*FrameLabelsChunk) isTypedChunk()    {}
func (*ChannelNamesChunk) isTypedChunk()   {}
func (*TextChunk) isTypedChunk()           {}
func (*BitmapChunk) isTypedChunk()         {}
func (*PaletteChunk) isTypedChunk()        {}

// DecodeChunk dispatches on fourcc to produce the matching TypedChunk. It
// fails with ErrUnknownFourcc for any fourcc this reader has no decoder
// for (InitialMap and MemoryMap are consumed internally by the scanner
// and are intentionally not dispatchable here).
func (r *ChunkReader) DecodeChunk(sectionID int32, expectedFourCC FourCC) (TypedChunk, error) {
	info, ok := r.catalog.Sections[sectionID]
	if !ok {
		return nil, fmt.Errorf("%w: section %d", ErrSectionNotFound, sectionID)
	}
	if info.FourCC != expectedFourCC {
		return nil, fmt.Errorf("%w: section %d is %s, expected %s", ErrMalformedChunk, sectionID, info.FourCC, expectedFourCC)
	}

	body, err := r.ReadChunk(sectionID)
	if err != nil {
		return nil, err
	}

	dirVersion := r.DirVersion()

	switch info.FourCC {
	case fourCCCASStar:
		return decodeCast(body, r.endian)
	case fourCCCASt:
		return decodeCastMember(body, dirVersion)
	case fourCCKeyStar:
		kt, err := decodeKeyTable(body, r.endian)
		if err != nil {
			return nil, err
		}
		return &kt, nil
	case fourCCLctX, fourCCLctx:
		return decodeScriptContext(body, info.FourCC == fourCCLctX)
	case fourCCLnam:
		return decodeScriptNames(body)
	case fourCCLscr:
		// The compiler bakes every internal table offset into this
		// chunk as a position relative to the chunk's own 8-byte
		// (fourcc, length) record header, not to the payload ReadChunk
		// hands back. Re-prepend a synthetic copy of that header so
		// decodeScript's absolute jmps land where the compiler meant.
		withHeader := make([]byte, 8+len(body))
		binary.BigEndian.PutUint32(withHeader[0:4], uint32(info.FourCC))
		binary.BigEndian.PutUint32(withHeader[4:8], uint32(len(body)))
		copy(withHeader[8:], body)
		return decodeScript(withHeader, dirVersion, r.lctxCapitalX)
	case fourCCDRCF, fourCCVWCF:
		return decodeConfig(body, r.endian)
	case fourCCMCsL:
		return decodeCastList(body, r.endian)
	case fourCCVWSC, fourCCSCVW:
		return decodeScore(body)
	case fourCCVWLB:
		return decodeFrameLabels(body)
	case fourCCCinf:
		return decodeChannelNames(body)
	case fourCCSTXT:
		return decodeText(body)
	case fourCCBITD:
		return decodeBitmap(body)
	case fourCCCLUT:
		return decodePalette(body)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFourcc, info.FourCC)
	}
}
