// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

// ChunkInfo is a (fourcc, section_id, byte_range) triple plus the
// compression sentinel needed to decompress it. SectionID is the chunk's
// position in the memory-map table and doubles as its globally unique
// identifier.
type ChunkInfo struct {
	SectionID       int32
	FourCC          FourCC
	Offset          uint32
	CompressedLen   uint32
	UncompressedLen uint32
	Compression     CompressionGUID
}

// ChunkCatalog is the result of scanning a container's initial map and key
// table: every known section plus the parent/child bindings between them.
// Invariant: each section_id appears at most once.
type ChunkCatalog struct {
	Sections map[int32]ChunkInfo
	Keys     KeyTable
}

// keyTableKey is the (owner_section_id, fourcc) pair the KeyTable maps from.
type keyTableKey struct {
	owner  int32
	fourcc FourCC
}

// KeyTable binds parent sections (cast members, cast libraries) to their
// child data chunks (bitmap data, info blocks, script context, name
// tables).
type KeyTable struct {
	byParent map[keyTableKey]int32
}

func (*KeyTable) isTypedChunk() {}

func newKeyTable() KeyTable {
	return KeyTable{byParent: make(map[keyTableKey]int32)}
}

func (kt *KeyTable) bind(owner int32, fourcc FourCC, child int32) {
	kt.byParent[keyTableKey{owner, fourcc}] = child
}

// Child looks up the child section bound to (owner, fourcc).
func (kt KeyTable) Child(owner int32, fourcc FourCC) (int32, bool) {
	id, ok := kt.byParent[keyTableKey{owner, fourcc}]
	return id, ok
}

// ChildRef is one (fourcc, child_section_id) pair returned by ChildrenOf.
type ChildRef struct {
	FourCC    FourCC
	SectionID int32
}

// ChildrenOf returns every child bound to owner across all fourccs.
func (c *ChunkCatalog) ChildrenOf(owner int32) []ChildRef {
	var out []ChildRef
	for k, child := range c.Keys.byParent {
		if k.owner == owner {
			out = append(out, ChildRef{FourCC: k.fourcc, SectionID: child})
		}
	}
	return out
}
