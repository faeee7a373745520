// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

import "testing"

func TestFourCCRoundTrip(t *testing.T) {
	cases := []string{"RIFX", "imap", "mmap", "CASt", "Lscr", "KEY*"}
	for _, s := range cases {
		f := NewFourCC(s)
		if got := f.String(); got != s {
			t.Errorf("NewFourCC(%q).String() = %q, want %q", s, got, s)
		}
	}
}

func TestFoldOpCode(t *testing.T) {
	cases := []struct {
		id   uint16
		want OpCode
	}{
		{0x01, OpRet},
		{0x41, OpPushInt8},
		{0xc1, OpCode(0x40 + 0xc1%0x40)},
		{0x3f, OpCode(0x3f)},
	}
	for _, c := range cases {
		if got := FoldOpCode(c.id); got != c.want {
			t.Errorf("FoldOpCode(0x%x) = 0x%x, want 0x%x", c.id, got, c.want)
		}
	}
}

func TestOperandWidth(t *testing.T) {
	cases := []struct {
		id   uint16
		want int
	}{
		{0x01, 0},
		{0x3f, 0},
		{0x40, 1},
		{0x7f, 1},
		{0x80, 2},
		{0xbf, 2},
		{0xc0, 4},
		{0xff, 4},
	}
	for _, c := range cases {
		if got := OperandWidth(c.id); got != c.want {
			t.Errorf("OperandWidth(0x%x) = %d, want %d", c.id, got, c.want)
		}
	}
}
