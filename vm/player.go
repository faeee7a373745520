// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"fmt"
	"sort"

	"github.com/stagevm/core/cast"
	"github.com/stagevm/core/container"
	"github.com/stagevm/core/heap"
	"github.com/stagevm/core/internal/config"
	"github.com/stagevm/core/internal/elog"
)

// frameScriptChannel is the score's reserved channel carrying the current
// frame's script member, matching the original format's channel-0
// convention (every other channel number is a one-based sprite channel).
const frameScriptChannel = 0

// Movie is the host-facing driver: it owns the loaded container, the
// cast manager, the heap, and the interpreter, and exposes the frame
// clock (play/stop/reset) plus the input-event entry points an external
// driver calls into. Grounded on player/mod.rs's
// Player struct, collapsed to what a headless Go host needs — there is
// no renderer and no async future/completer bridge here, since the
// interpreter's Net/Xtra/Breakpoint collaborators already model every
// suspension point directly.
type Movie struct {
	Reader *container.ChunkReader
	Casts  *cast.Manager
	Heap   *heap.Heap
	It     *Interpreter

	CurrentFrame int
	Playing      bool

	// OnChannelNameChanged, if non-nil, is invoked once per named channel
	// at load time — the host-facing `channel-name-changed` event a
	// driver surfaces when it learns what a score's channels are called.
	OnChannelNameChanged func(channel int32, name string)

	log *elog.Helper
}

// NewMovie wires a Movie around an already-loaded container and cast
// manager (the caller resolves those so it can choose the Network
// collaborator cast load uses), allocates a fresh heap, builds the
// interpreter, and primes frame one.
func NewMovie(r *container.ChunkReader, casts *cast.Manager, player config.Player, logger elog.Logger) *Movie {
	h := heap.New(player.MaxLiveIDs)
	it := NewInterpreter(h, casts, player, logger)
	m := &Movie{
		Reader: r,
		Casts:  casts,
		Heap:   h,
		It:     it,
		log:    elog.From(logger),
	}
	if !m.XtraBridgeEnabled() {
		m.log.Warnf("vm: director_version %d predates the xtra bridge floor %s; new(xtra ...) calls will fail to resolve", r.DirVersion(), xtraBridgeMinVersion)
	}
	m.primeFrame(1)
	return m
}

// spriteMemberRef resolves a score sprite record's cast reference. A
// zero CastLibID names the movie's first internal cast, matching the
// format's own "0 means default cast" convention.
func spriteMemberRef(sp container.SpriteRecord) cast.MemberRef {
	lib := int32(sp.CastLibID)
	if lib == 0 {
		lib = 1
	}
	return cast.MemberRef{CastLib: lib, CastMember: sp.CastMemberID}
}

// primeFrame places every channel's sprite for frameNumber directly,
// without running any handler.
func (m *Movie) primeFrame(frameNumber int) {
	m.CurrentFrame = frameNumber
	if m.Casts.Score == nil {
		return
	}
	frame, ok := m.Casts.Score.FrameAt(frameNumber)
	if !ok {
		return
	}
	for _, sp := range frame.Sprites {
		if sp.Channel == frameScriptChannel {
			continue
		}
		m.It.SetSprite(int32(sp.Channel), spriteMemberRef(sp))
	}
}

// Channels returns every sprite channel occupied in the current frame,
// excluding the reserved frame-script channel, in score order.
func (m *Movie) Channels() []int32 {
	if m.Casts.Score == nil {
		return nil
	}
	frame, ok := m.Casts.Score.FrameAt(m.CurrentFrame)
	if !ok {
		return nil
	}
	channels := make([]int32, 0, len(frame.Sprites))
	for _, sp := range frame.Sprites {
		if sp.Channel == frameScriptChannel {
			continue
		}
		channels = append(channels, int32(sp.Channel))
	}
	return channels
}

// frameScript resolves the current frame's score-assigned script, if
// channel 0 names a Script cast member.
func (m *Movie) frameScript() (*cast.Script, cast.MemberRef) {
	if m.Casts.Score == nil {
		return nil, cast.MemberRef{}
	}
	frame, ok := m.Casts.Score.FrameAt(m.CurrentFrame)
	if !ok {
		return nil, cast.MemberRef{}
	}
	for _, sp := range frame.Sprites {
		if sp.Channel != frameScriptChannel {
			continue
		}
		ref := spriteMemberRef(sp)
		script, ok := m.Casts.GetScript(ref)
		if !ok {
			return nil, cast.MemberRef{}
		}
		return script, ref
	}
	return nil, cast.MemberRef{}
}

func (m *Movie) dispatchFrameEvent(name string) error {
	frameScript, frameScriptRef := m.frameScript()
	_, err := m.It.DispatchEvent(name, m.Channels(), frameScript, frameScriptRef, nil)
	return err
}

// Play starts the movie clock: the frame already primed by NewMovie (or
// the last GoToFrame/Reset) fires its enterFrame. The caller's own loop
// — not Movie — owns the timer that calls AdvanceFrame repeatedly; Movie
// only exposes the single-step primitive.
func (m *Movie) Play() error {
	m.Playing = true
	return m.dispatchFrameEvent("enterFrame")
}

// Stop requests the interpreter unwind at the next opcode boundary and
// marks the clock stopped.
func (m *Movie) Stop() {
	m.Playing = false
	m.It.RequestStop()
}

// Reset stops the movie, clears the heap, and re-primes frame one — the
// same stop-then-ValueHeap::reset-then-rearm sequence a host-driven
// reset needs.
func (m *Movie) Reset() {
	m.Stop()
	m.It.ClearStop()
	m.Heap.Reset()
	m.primeFrame(1)
}

// AdvanceFrame fires exitFrame for the current frame, advances the frame
// counter (wrapping back to frame one past the score's last frame,
// matching a movie's default loop-back), re-primes the new frame's
// sprites, then fires its enterFrame.
func (m *Movie) AdvanceFrame() error {
	if err := m.dispatchFrameEvent("exitFrame"); err != nil {
		return err
	}
	next := m.CurrentFrame + 1
	if m.Casts.Score != nil && m.Casts.Score.FrameCount > 0 && next > m.Casts.Score.FrameCount {
		next = 1
	}
	m.primeFrame(next)
	return m.dispatchFrameEvent("enterFrame")
}

// GoToFrame jumps directly to frameNumber (a "go to frame" Lingo command
// target), firing exitFrame for the frame being left and enterFrame for
// the one entered, without running any frames in between.
func (m *Movie) GoToFrame(frameNumber int) error {
	if err := m.dispatchFrameEvent("exitFrame"); err != nil {
		return err
	}
	m.primeFrame(frameNumber)
	return m.dispatchFrameEvent("enterFrame")
}

// xtraBridgeMinVersion is the director_version floor the Xtra bridge
// assumes. NewMovie logs a warning for a movie below it and leaves the
// interpreter's XtraRegistry as it is for every movie.
const xtraBridgeMinVersion = "v11.5.0"

// XtraBridgeEnabled reports whether the loaded movie's director_version
// meets the format era the Xtra bridge assumes. A nil Reader (as in a
// Movie built directly over in-memory test fixtures) is treated as
// enabled, matching "no version information" defaulting to "don't gate".
func (m *Movie) XtraBridgeEnabled() bool {
	if m.Reader == nil {
		return true
	}
	return config.AtLeast(m.Reader.DirVersion(), xtraBridgeMinVersion)
}

// EmitChannelNames invokes OnChannelNameChanged once per explicitly
// named sprite channel, in channel-number order. A host driver calls
// this once after wiring its callback to learn the score's initial
// channel-name table the same way it would observe a later rename.
func (m *Movie) EmitChannelNames() {
	if m.OnChannelNameChanged == nil || m.Casts.Score == nil {
		return
	}
	channels := make([]int, 0, len(m.Casts.Score.ChannelNames))
	for ch := range m.Casts.Score.ChannelNames {
		channels = append(channels, ch)
	}
	sort.Ints(channels)
	for _, ch := range channels {
		m.OnChannelNameChanged(int32(ch), m.Casts.Score.ChannelNames[ch])
	}
}

// GoToLabel resolves a named marker on the score and jumps to it.
func (m *Movie) GoToLabel(label string) error {
	if m.Casts.Score == nil {
		return fmt.Errorf("vm: movie has no score")
	}
	frame, ok := m.Casts.Score.FrameForLabel(label)
	if !ok {
		return fmt.Errorf("vm: no frame labeled %q", label)
	}
	return m.GoToFrame(frame)
}

// allocPoint allocates an IntPoint value for an input event's screen
// coordinates, used as the sole argument to mouseDown/mouseUp handlers.
func (m *Movie) allocPoint(x, y int32) (heap.Handle, error) {
	return m.Heap.Alloc(heap.Value{Kind: heap.KindIntPoint, Point: heap.IntPoint{X: x, Y: y}})
}

// MouseDown and MouseUp dispatch the corresponding input event across
// the current frame's sprite channels, passing the click location as a
// point argument.
func (m *Movie) MouseDown(x, y int32) error {
	pt, err := m.allocPoint(x, y)
	if err != nil {
		return err
	}
	_, err = m.It.DispatchEvent("mouseDown", m.Channels(), nil, cast.MemberRef{}, []heap.Handle{pt})
	return err
}

func (m *Movie) MouseUp(x, y int32) error {
	pt, err := m.allocPoint(x, y)
	if err != nil {
		return err
	}
	_, err = m.It.DispatchEvent("mouseUp", m.Channels(), nil, cast.MemberRef{}, []heap.Handle{pt})
	return err
}

// KeyDown and KeyUp dispatch the corresponding keyboard event. code is
// the platform key code a host driver decoded; key is its printable
// form, allocated as a one-character string for handlers that read it
// via the `the key` top-level property rather than an explicit argument.
func (m *Movie) KeyDown(key string, code int32) error {
	return m.dispatchKeyEvent("keyDown", key, code)
}

func (m *Movie) KeyUp(key string, code int32) error {
	return m.dispatchKeyEvent("keyUp", key, code)
}

func (m *Movie) dispatchKeyEvent(name, key string, code int32) error {
	keyHandle, err := m.Heap.Alloc(heap.Value{Kind: heap.KindString, Str: key})
	if err != nil {
		return err
	}
	codeHandle, err := m.Heap.Alloc(heap.Value{Kind: heap.KindInt, Int: int64(code)})
	if err != nil {
		return err
	}
	_, err = m.It.DispatchEvent(name, m.Channels(), nil, cast.MemberRef{}, []heap.Handle{keyHandle, codeHandle})
	return err
}
