// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"testing"

	"github.com/stagevm/core/cast"
	"github.com/stagevm/core/container"
	"github.com/stagevm/core/heap"
	"github.com/stagevm/core/internal/config"
)

// newTestMovie wires a Movie over a fresh cast manager with a two-frame
// score: frame 1 places member 5 on channel 2, frame 2 places member 6
// on channel 2. A movie script tracks how many times enterFrame and
// exitFrame fired via a pair of globals.
func newTestMovie(t *testing.T) (*Movie, *cast.Manager) {
	t.Helper()
	casts := cast.NewManager(config.Player{}, nil, nil)
	lib := cast.NewLibrary(1, container.CastListEntry{Name: "internal"}, config.PreloadOnDemand, nil)
	casts.Libraries = append(casts.Libraries, lib)

	casts.Score = cast.NewScore(&container.ScoreChunk{
		FrameCount:   2,
		ChannelCount: 2,
		Frames: []container.ScoreFrame{
			{FrameNumber: 1, Sprites: []container.SpriteRecord{{Channel: 2, CastLibID: 1, CastMemberID: 5}}},
			{FrameNumber: 2, Sprites: []container.SpriteRecord{{Channel: 2, CastLibID: 1, CastMemberID: 6}}},
		},
	}, &container.FrameLabelsChunk{
		Entries: []container.FrameLabelEntry{{FrameNumber: 2, Label: "Second"}},
	}, nil)

	enter := handlerFromBytecode(
		bc(container.OpPushInt8, 1, 0),
		bc(container.OpSetGlobal, 0, 1),
		bc(container.OpRet, 0, 2),
	)
	exit := handlerFromBytecode(
		bc(container.OpPushInt8, 1, 0),
		bc(container.OpSetGlobal, 0, 1),
		bc(container.OpRet, 0, 2),
	)
	enter.NameID = 1
	enter.GlobalNameIDs = []uint16{3}
	exit.NameID = 2
	exit.GlobalNameIDs = []uint16{4}

	// names[0] is the reserved empty slot NewScript's nameAt treats as
	// "unresolved"; 1/2 are the handler names, 3/4 the global var names.
	names := []string{"", "enterFrame", "exitFrame", "enterCount", "exitCount"}
	chunk := &container.ScriptChunk{Handlers: []container.HandlerDef{*enter, *exit}}
	script := cast.NewScript(1, "Main", container.ScriptTypeMovie, chunk, names)
	lib.Scripts[1] = script
	lib.Members[1] = &cast.Member{Number: 1, Name: "Main", Type: container.MemberTypeScript, ScriptID: 1, ScriptType: container.ScriptTypeMovie}

	m := NewMovie(nil, casts, config.Player{AllocatorCycleEvery: 1}, nil)
	return m, casts
}

func TestNewMoviePrimesFrameOneSprites(t *testing.T) {
	m, _ := newTestMovie(t)
	sprite, ok := m.It.Sprite(2)
	if !ok {
		t.Fatal("Sprite(2) missing after priming frame 1")
	}
	if sprite.Member != (cast.MemberRef{CastLib: 1, CastMember: 5}) {
		t.Errorf("Sprite(2).Member = %+v, want {1 5}", sprite.Member)
	}
}

func TestPlayDispatchesEnterFrameToMovieScript(t *testing.T) {
	m, _ := newTestMovie(t)
	if err := m.Play(); err != nil {
		t.Fatalf("Play error = %v", err)
	}
	if !m.Playing {
		t.Error("Playing should be true after Play")
	}
	h, ok := m.It.Globals["enterCount"]
	if !ok {
		t.Fatal("global enterCount was never set: enterFrame handler did not run")
	}
	got := mustGet(t, m.It, h)
	if got.Int != 1 {
		t.Errorf("enterCount = %+v, want Int 1", got)
	}
}

func TestAdvanceFrameWrapsPastLastFrame(t *testing.T) {
	m, _ := newTestMovie(t)
	if err := m.AdvanceFrame(); err != nil {
		t.Fatalf("AdvanceFrame error = %v", err)
	}
	if m.CurrentFrame != 2 {
		t.Fatalf("CurrentFrame = %d, want 2", m.CurrentFrame)
	}
	sprite, ok := m.It.Sprite(2)
	if !ok || sprite.Member.CastMember != 6 {
		t.Errorf("Sprite(2) after advancing to frame 2 = %+v, want CastMember 6", sprite)
	}

	if err := m.AdvanceFrame(); err != nil {
		t.Fatalf("AdvanceFrame (wrap) error = %v", err)
	}
	if m.CurrentFrame != 1 {
		t.Errorf("CurrentFrame after wrap = %d, want 1", m.CurrentFrame)
	}
}

func TestGoToLabelJumpsToNamedFrame(t *testing.T) {
	m, _ := newTestMovie(t)
	if err := m.GoToLabel("second"); err != nil {
		t.Fatalf("GoToLabel error = %v", err)
	}
	if m.CurrentFrame != 2 {
		t.Errorf("CurrentFrame = %d, want 2 (GoToLabel is case-insensitive)", m.CurrentFrame)
	}
}

func TestGoToLabelMissingReturnsError(t *testing.T) {
	m, _ := newTestMovie(t)
	if err := m.GoToLabel("nosuchlabel"); err == nil {
		t.Error("GoToLabel(nosuchlabel) should error")
	}
}

func TestResetClearsHeapAndReprimesFrameOne(t *testing.T) {
	m, _ := newTestMovie(t)
	if _, err := m.Heap.Alloc(heap.NewString("leftover")); err != nil {
		t.Fatalf("Alloc error = %v", err)
	}
	if err := m.AdvanceFrame(); err != nil {
		t.Fatalf("AdvanceFrame error = %v", err)
	}

	m.Reset()

	if m.CurrentFrame != 1 {
		t.Errorf("CurrentFrame after Reset = %d, want 1", m.CurrentFrame)
	}
	if m.Heap.LiveValueCount() != 0 {
		t.Errorf("LiveValueCount after Reset = %d, want 0", m.Heap.LiveValueCount())
	}
	sprite, ok := m.It.Sprite(2)
	if !ok || sprite.Member.CastMember != 5 {
		t.Errorf("Sprite(2) after Reset = %+v, want CastMember 5 (frame 1)", sprite)
	}
}

func TestMouseDownDispatchesPointArgumentWithoutError(t *testing.T) {
	m, _ := newTestMovie(t)
	if err := m.MouseDown(10, 20); err != nil {
		t.Fatalf("MouseDown error = %v (should be silently absorbed: no handler anywhere)", err)
	}
}

func TestKeyDownDispatchesWithoutError(t *testing.T) {
	m, _ := newTestMovie(t)
	if err := m.KeyDown("a", 65); err != nil {
		t.Fatalf("KeyDown error = %v", err)
	}
}
