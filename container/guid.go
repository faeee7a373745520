// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

import "fmt"

// CompressionGUID identifies the codec a chunk's raw bytes are stored
// under, the MoaID-style 16-byte GUID the original container format keys
// compression by.
type CompressionGUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 uint32
	Data5 uint32
}

// String renders the GUID in the conventional grouped-hex form.
func (g CompressionGUID) String() string {
	return fmt.Sprintf("%#010x-%#06x-%#06x-%#010x-%#010x",
		g.Data1, g.Data2, g.Data3, g.Data4, g.Data5)
}

// Well-known compression GUIDs. Values match the sentinels the original
// player's director::guid module defines.
var (
	FontmapCompressionGUID = CompressionGUID{0x8A4679A1, 0x3720, 0x11D0, 0xA0002392, 0xB16808C9}
	NullCompressionGUID    = CompressionGUID{0xAC99982E, 0x005D, 0x0D50, 0x00080000, 0x347A3707}
	SoundCompressionGUID   = CompressionGUID{0x7204A889, 0xAFD0, 0x11CF, 0xA00022A2, 0x4C445323}
	ZlibCompressionGUID    = CompressionGUID{0xAC99E904, 0x0070, 0x0B36, 0x00080000, 0x347A3707}
	ZlibCompressionGUID2   = CompressionGUID{0xAC99E904, 0x0070, 0x0B36, 0x00000800, 0x07377A34}
)

// IsZlib reports whether g names the zlib codec (either observed byte
// ordering of the GUID's low dwords).
func (g CompressionGUID) IsZlib() bool {
	return g == ZlibCompressionGUID || g == ZlibCompressionGUID2
}
