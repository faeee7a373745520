// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

import "encoding/binary"

// CastChunk ("CAS*") is a cast library's member directory: one section id
// per member slot, in cast-member-number order. A zero entry marks an
// unoccupied slot.
type CastChunk struct {
	MemberSectionIDs []int32
}

func decodeCast(body []byte, endian binary.ByteOrder) (*CastChunk, error) {
	br := newByteReader(body, endian)
	n := br.len() / 4
	ids := make([]int32, 0, n)
	for i := 0; i < n; i++ {
		v, err := br.i32()
		if err != nil {
			return nil, err
		}
		ids = append(ids, v)
	}
	return &CastChunk{MemberSectionIDs: ids}, nil
}
