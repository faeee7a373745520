// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

import "errors"

// Errors returned while decoding the RIFX container. All of these are
// non-fatal at the catalog level: the catalog keeps the raw bytes and
// upper layers get an error back, they do not panic.
var (
	// ErrMalformedContainer is returned when the outer header magic or
	// size fields are inconsistent.
	ErrMalformedContainer = errors.New("container: malformed RIFX header")

	// ErrTruncatedChunk is returned when a chunk's declared length runs
	// past the end of the available bytes.
	ErrTruncatedChunk = errors.New("container: truncated chunk")

	// ErrMalformedChunk is returned when a chunk's internal structure is
	// inconsistent (field values fail an internal sanity check).
	ErrMalformedChunk = errors.New("container: malformed chunk")

	// ErrUnknownFourcc is returned by decode_chunk for a fourcc with no
	// registered decoder.
	ErrUnknownFourcc = errors.New("container: unknown fourcc")

	// ErrSectionNotFound is returned when a section id is not present in
	// the catalog.
	ErrSectionNotFound = errors.New("container: section not found")

	// ErrDuplicateSection is returned if the same section_id appears
	// twice while scanning the memory map, violating the invariant that
	// each section_id appears at most once.
	ErrDuplicateSection = errors.New("container: duplicate section id")

	// ErrUnsupportedCompression is returned when a chunk's compression
	// GUID names a codec this reader doesn't implement (anything other
	// than "none" or zlib).
	ErrUnsupportedCompression = errors.New("container: unsupported compression codec")
)
