// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package cast

import (
	"bytes"
	"image"

	// Registered for its side effect: image.DecodeConfig recognizes a BMP
	// header once the bmp codec is imported, giving newMember a
	// dependency-free way to read width/height/color-depth without a
	// hand-rolled DIB header parser.
	_ "golang.org/x/image/bmp"

	"github.com/stagevm/core/container"
)

// Member is one cast member: the common (number, name) identity plus
// whatever per-type payload its MemberType carries. Rendering-specific
// payloads (bitmap pixels, shape outlines) are kept as the raw bytes
// container already decided not to interpret further; only the parts a
// running movie actually branches on (text content, script linkage,
// palette colors) are surfaced as typed fields.
type Member struct {
	Number int32
	Name   string
	Type   container.MemberType

	// ScriptID and ScriptType are only meaningful when Type is
	// MemberTypeScript; ScriptID indexes the owning library's Scripts map.
	ScriptID   uint32
	ScriptType container.ScriptType

	// Text and TextFormatting are populated for Field/Text members from
	// their sibling "STXT" chunk.
	Text           string
	TextFormatting []byte

	// Palette is populated for Palette members from their sibling "CLUT"
	// chunk.
	Palette *[256][3]uint8

	// SpecificData is the member's raw type-specific payload (bitmap
	// pixels still need depth/compression-aware unpacking a renderer
	// supplies, shape outlines, button flags). Kept verbatim so a host
	// that does care can decode it without the core having to guess at a
	// layout it never needs for script evaluation.
	SpecificData []byte

	// BitmapHeader carries the width/height/color-depth a Bitmap member's
	// embedded DIB header advertises, when SpecificData happens to parse
	// as one. Nil for every other member type, and for bitmap members
	// whose platform-native image data isn't a BMP-shaped header (Mac
	// PICT-sourced art, compressed JPEG/PNG imports) — a renderer still
	// owns real pixel decode, this is metadata only.
	BitmapHeader *image.Config
}

// newMember builds a Member from its decoded chunk plus whichever sibling
// chunks the key table bound to it.
func newMember(number int32, chunk *container.CastMemberChunk, text *container.TextChunk, palette *container.PaletteChunk) *Member {
	m := &Member{
		Number:       number,
		Type:         chunk.MemberType,
		ScriptType:   chunk.ScriptType,
		SpecificData: chunk.SpecificData,
	}
	if chunk.Info != nil {
		m.Name = chunk.Info.Name
		m.ScriptID = chunk.Info.ScriptID
	}
	if text != nil {
		m.Text = text.Text
		m.TextFormatting = text.Data
	}
	if palette != nil {
		colors := palette.Colors
		m.Palette = &colors
	}
	if chunk.MemberType == container.MemberTypeBitmap && len(chunk.SpecificData) > 0 {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(chunk.SpecificData)); err == nil {
			m.BitmapHeader = &cfg
		}
	}
	return m
}
