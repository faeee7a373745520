// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

// Package container implements L1: decoding the outer RIFX container into a
// chunk catalog and serving up the raw (optionally decompressed) byte view
// of any chunk on demand. It is the only layer that touches file bytes
// directly; everything above it (cast, heap, vm) works off the typed
// structures this package produces.
package container

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/stagevm/core/internal/elog"
)

const (
	outerHeaderSize  = 12 // fourcc + length + format tag
	chunkHeaderSize  = 8  // fourcc + length
	mmapEntrySize    = 20
	mmapHeaderSize   = 24
	minContainerSize = outerHeaderSize + chunkHeaderSize
)

// ChunkReader decodes a RIFX container and serves chunk bytes on demand.
// It holds the backing bytes (memory-mapped when loaded from a path, a
// plain slice when loaded from memory) plus a cache of already-decompressed
// chunk views.
type ChunkReader struct {
	data      []byte
	mapped    mmap.MMap // nil when loaded from LoadBytes
	file      *os.File
	endian    binary.ByteOrder
	formatTag FourCC

	catalog ChunkCatalog

	mu    sync.Mutex
	cache map[int32][]byte

	// dirVersion is the human-banded director_version pulled from the
	// movie's Config chunk during scan, used by version-gated decoders
	// (CastMember, Script literal records). Defaults to 0 (pre-500
	// layout) when no Config chunk is found.
	dirVersion uint16
	// lctxCapitalX records whether the movie's script context chunk was
	// tagged "LctX" (true) rather than "Lctx" (false); HandlerRecord
	// decoding reads one extra field under the capital-X variant.
	lctxCapitalX bool

	log *elog.Helper
}

// DirVersion returns the human-banded director_version discovered in the
// movie's Config chunk, or 0 if none was found.
func (r *ChunkReader) DirVersion() uint16 { return r.dirVersion }

// Load memory-maps path and scans its chunk catalog.
func Load(path string, logger elog.Logger) (*ChunkReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("container: open %q: %w", path, err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("container: mmap %q: %w", path, err)
	}
	r := &ChunkReader{
		data:   data,
		mapped: data,
		file:   f,
		cache:  make(map[int32][]byte),
		log:    elog.From(logger),
	}
	if err := r.scan(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// LoadBytes scans the chunk catalog of an in-memory movie buffer. Used by
// tests and by any host driver that already has the bytes (e.g. fetched
// over the Network collaborator rather than opened from local disk).
func LoadBytes(data []byte, logger elog.Logger) (*ChunkReader, error) {
	r := &ChunkReader{
		data:  data,
		cache: make(map[int32][]byte),
		log:   elog.From(logger),
	}
	if err := r.scan(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close releases the memory mapping, if any.
func (r *ChunkReader) Close() error {
	if r.mapped != nil {
		_ = r.mapped.Unmap()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Catalog returns the scanned chunk catalog (section_id -> ChunkInfo plus
// the key table bindings).
func (r *ChunkReader) Catalog() *ChunkCatalog { return &r.catalog }

// Endian reports the container's probed byte order.
func (r *ChunkReader) Endian() binary.ByteOrder { return r.endian }

// scan performs the load-time work: endianness probe, the initial memory
// map, the memory-map table, and the key table. Failing the header check
// is fatal (ErrMalformedContainer); everything after that degrades
// gracefully — unknown or malformed sections stay in the catalog as raw
// bytes rather than aborting the whole load.
func (r *ChunkReader) scan() error {
	if len(r.data) < minContainerSize {
		return fmt.Errorf("%w: file too small (%d bytes)", ErrMalformedContainer, len(r.data))
	}

	magic := binary.BigEndian.Uint32(r.data[0:4])
	switch FourCC(magic) {
	case fourCCRIFX, fourCCRIFF:
		r.endian = binary.BigEndian
	case fourCCXFIR, fourCCFFIR:
		r.endian = binary.LittleEndian
	default:
		return fmt.Errorf("%w: bad magic %08x", ErrMalformedContainer, magic)
	}

	br := newByteReader(r.data, r.endian)
	if _, err := br.fourCC(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	totalLen, err := br.u32()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	if uint64(totalLen)+8 > uint64(len(r.data))+1<<20 {
		// Generous slack: some packagers round totalLen or pad the file.
		// A wildly inconsistent value still indicates a bad header.
		if uint64(totalLen) > uint64(len(r.data))*2+1<<20 {
			return fmt.Errorf("%w: implausible length %d for %d-byte file", ErrMalformedContainer, totalLen, len(r.data))
		}
	}
	formatTag, err := br.fourCC()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	r.formatTag = formatTag

	imapOffset := outerHeaderSize
	imapFourCC, imapLen, imapBody, err := r.readRawChunkAt(imapOffset)
	if err != nil {
		return fmt.Errorf("%w: reading imap: %v", ErrMalformedContainer, err)
	}
	if imapFourCC != fourCCImap {
		return fmt.Errorf("%w: expected imap at offset %d, found %q", ErrMalformedContainer, imapOffset, imapFourCC)
	}
	_ = imapLen
	mmapOffset, err := decodeInitialMap(imapBody, r.endian)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}

	mmapFourCC, _, mmapBody, err := r.readRawChunkAt(int(mmapOffset))
	if err != nil {
		return fmt.Errorf("%w: reading mmap: %v", ErrMalformedContainer, err)
	}
	if mmapFourCC != fourCCMmap {
		return fmt.Errorf("%w: expected mmap at offset %d, found %q", ErrMalformedContainer, mmapOffset, mmapFourCC)
	}
	sections, err := decodeMemoryMap(mmapBody, r.endian)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}

	r.catalog = ChunkCatalog{Sections: sections, Keys: newKeyTable()}

	// The key table and config chunk are themselves just other cataloged
	// chunks; find them by fourcc and decode non-fatally (their absence
	// just means no parent/child bindings, or no version-gating info,
	// are known yet).
	for id, info := range sections {
		if info.FourCC == fourCCKeyStar {
			body, err := r.ReadChunk(id)
			if err != nil {
				r.log.Warnf("container: reading key table section %d: %v", id, err)
				continue
			}
			kt, err := decodeKeyTable(body, r.endian)
			if err != nil {
				r.log.Warnf("container: decoding key table section %d: %v", id, err)
				continue
			}
			r.catalog.Keys = kt
			break
		}
	}

	for id, info := range sections {
		if info.FourCC == fourCCDRCF || info.FourCC == fourCCVWCF {
			body, err := r.ReadChunk(id)
			if err != nil {
				r.log.Warnf("container: reading config section %d: %v", id, err)
				continue
			}
			cfg, err := decodeConfig(body, r.endian)
			if err != nil {
				r.log.Warnf("container: decoding config section %d: %v", id, err)
				continue
			}
			r.dirVersion = cfg.DirVersion
			break
		}
	}

	for id, info := range sections {
		if info.FourCC == fourCCLctX || info.FourCC == fourCCLctx {
			r.lctxCapitalX = info.FourCC == fourCCLctX
			break
		}
	}

	return nil
}

// readRawChunkAt reads a chunk header + payload directly at an absolute
// file offset, used only for the bootstrap chunks (imap, mmap) that
// precede the catalog existing.
func (r *ChunkReader) readRawChunkAt(offset int) (FourCC, uint32, []byte, error) {
	if offset < 0 || offset+chunkHeaderSize > len(r.data) {
		return 0, 0, nil, fmt.Errorf("%w: offset %d out of range", ErrTruncatedChunk, offset)
	}
	fourcc := FourCC(r.endian.Uint32(r.data[offset:]))
	length := r.endian.Uint32(r.data[offset+4:])
	start := offset + chunkHeaderSize
	end := start + int(length)
	if end > len(r.data) {
		return 0, 0, nil, fmt.Errorf("%w: chunk at %d declares length %d past EOF", ErrTruncatedChunk, offset, length)
	}
	return fourcc, length, r.data[start:end], nil
}

// ReadChunk returns the cached, decompressed byte view of section_id,
// decompressing on first access if its compression GUID names zlib. A
// cache hit is O(1); a miss is O(compressed_len).
func (r *ChunkReader) ReadChunk(sectionID int32) ([]byte, error) {
	r.mu.Lock()
	if cached, ok := r.cache[sectionID]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	info, ok := r.catalog.Sections[sectionID]
	if !ok {
		return nil, fmt.Errorf("%w: section %d", ErrSectionNotFound, sectionID)
	}

	start := int(info.Offset)
	end := start + int(info.CompressedLen)
	if start < 0 || end > len(r.data) || end < start {
		return nil, fmt.Errorf("%w: section %d range [%d,%d) exceeds file", ErrTruncatedChunk, sectionID, start, end)
	}
	raw := r.data[start:end]

	zlibCompressed := info.Compression.IsZlib() || (len(raw) >= 2 && raw[0] == 0x78 && info.Compression == (CompressionGUID{}))
	var out []byte
	if zlibCompressed {
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("container: zlib header for section %d: %w", sectionID, err)
		}
		defer zr.Close()
		decoded, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("container: zlib inflate section %d: %w", sectionID, err)
		}
		out = decoded
	} else {
		out = raw
	}

	r.mu.Lock()
	r.cache[sectionID] = out
	r.mu.Unlock()
	return out, nil
}

// ChildrenOf exposes the catalog's key-table lookup.
func (r *ChunkReader) ChildrenOf(sectionID int32) []ChildRef {
	return r.catalog.ChildrenOf(sectionID)
}

// decodeInitialMap parses the "imap" chunk: a thin pointer to the
// authoritative "mmap" chunk elsewhere in the file.
func decodeInitialMap(body []byte, endian binary.ByteOrder) (mmapOffset uint32, err error) {
	br := newByteReader(body, endian)
	if _, err = br.u32(); err != nil { // memory map count/version, ad-hoc
		return 0, err
	}
	mmapOffset, err = br.u32()
	if err != nil {
		return 0, err
	}
	return mmapOffset, nil
}

// decodeMemoryMap parses the "mmap" chunk's fixed 24-byte header followed
// by one 20-byte entry per section: fourcc, length, absolute offset, flags,
// and a reserved word. Entries tagged "free" or "junk" are reclaimed slots
// and are skipped, matching the original player's memory-map handling.
func decodeMemoryMap(body []byte, endian binary.ByteOrder) (map[int32]ChunkInfo, error) {
	br := newByteReader(body, endian)
	if _, err := br.u16(); err != nil { // header length
		return nil, err
	}
	if _, err := br.u16(); err != nil { // entry length
		return nil, err
	}
	maxEntries, err := br.u32()
	if err != nil {
		return nil, err
	}
	usedEntries, err := br.u32()
	if err != nil {
		return nil, err
	}
	if _, err := br.i32(); err != nil { // junk list head
		return nil, err
	}
	if _, err := br.i32(); err != nil { // old junk head
		return nil, err
	}
	if _, err := br.i32(); err != nil { // reserved
		return nil, err
	}

	sections := make(map[int32]ChunkInfo, usedEntries)
	for i := uint32(0); i < maxEntries; i++ {
		fourcc, err := br.fourCC()
		if err != nil {
			break // trailing entries may be absent if maxEntries overstates the table
		}
		length, err := br.u32()
		if err != nil {
			return nil, err
		}
		offset, err := br.u32()
		if err != nil {
			return nil, err
		}
		if _, err := br.u32(); err != nil { // flags
			return nil, err
		}
		if _, err := br.u32(); err != nil { // reserved
			return nil, err
		}

		if fourcc == fourCCFree || fourcc == fourCCJunk || fourcc == 0 {
			continue
		}
		id := int32(i)
		if _, exists := sections[id]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateSection, id)
		}
		sections[id] = ChunkInfo{
			SectionID:       id,
			FourCC:          fourcc,
			Offset:          offset,
			CompressedLen:   length,
			UncompressedLen: length,
		}
	}
	return sections, nil
}

// decodeKeyTable parses the "KEY*" chunk into a KeyTable binding owner
// section ids to their typed children.
func decodeKeyTable(body []byte, endian binary.ByteOrder) (KeyTable, error) {
	kt := newKeyTable()
	br := newByteReader(body, endian)
	if _, err := br.u16(); err != nil { // entry size (always 12)
		return kt, err
	}
	if _, err := br.u16(); err != nil { // entry size 2
		return kt, err
	}
	entryCount, err := br.u32()
	if err != nil {
		return kt, err
	}
	if _, err := br.u32(); err != nil { // used count
		return kt, err
	}

	for i := uint32(0); i < entryCount; i++ {
		childID, err := br.i32()
		if err != nil {
			return kt, err
		}
		ownerID, err := br.i32()
		if err != nil {
			return kt, err
		}
		fourcc, err := br.fourCC()
		if err != nil {
			return kt, err
		}
		if ownerID < 0 {
			continue
		}
		kt.bind(ownerID, fourcc, childID)
	}
	return kt, nil
}
