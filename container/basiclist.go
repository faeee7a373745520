// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

// basicList decodes the "offset table + item bytes" shape reused by
// several chunk types (cast member info, cast list, cast library). The
// chunk carries a data_offset pointing at a 16-bit item count followed by
// that many 32-bit relative offsets and a 32-bit total length of the item
// bytes; the item bytes follow, sliced at consecutive offset boundaries,
// with the last item ending at that total length, per the original
// player's BasicListChunk.
func readBasicList(br *byteReader, dataOffset int) ([][]byte, error) {
	br.jmp(dataOffset)
	count, err := br.u16()
	if err != nil {
		return nil, err
	}
	offsets := make([]int, count)
	for i := range offsets {
		v, err := br.u32()
		if err != nil {
			return nil, err
		}
		offsets[i] = int(v)
	}

	itemsLen, err := br.u32()
	if err != nil {
		return nil, err
	}
	listOffset := br.pos

	items := make([][]byte, len(offsets))
	for i, off := range offsets {
		next := int(itemsLen)
		if i != len(offsets)-1 {
			next = offsets[i+1]
		}
		if next < off {
			return nil, ErrMalformedChunk
		}
		br.jmp(listOffset + off)
		item, err := br.bytes(next - off)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return items, nil
}

func basicListItemString(items [][]byte, idx int) string {
	if idx < 0 || idx >= len(items) {
		return ""
	}
	return string(items[idx])
}

func basicListItemPascalString(items [][]byte, idx int) string {
	if idx < 0 || idx >= len(items) || len(items[idx]) == 0 {
		return ""
	}
	b := items[idx]
	n := int(b[0])
	if n+1 > len(b) {
		n = len(b) - 1
	}
	return string(b[1 : 1+n])
}
