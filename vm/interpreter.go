// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"errors"
	"fmt"

	"github.com/stagevm/core/cast"
	"github.com/stagevm/core/container"
	"github.com/stagevm/core/heap"
	"github.com/stagevm/core/internal/config"
	"github.com/stagevm/core/internal/elog"
)

// errReturn unwinds Run's dispatch loop on an explicit Ret, without
// propagating as a handler failure. It never escapes the vm package.
var errReturn = errors.New("vm: handler returned")

// opcodeFunc executes one decoded instruction against the running scope.
// Implementations that change control flow (Jmp, JmpIfZ, EndRepeat) assign
// sc.BytecodeIndex directly; Run has already advanced it to the
// instruction following bc before calling the handler, so a handler that
// does nothing to it falls through in sequence.
type opcodeFunc func(it *Interpreter, sc *Scope, bc container.Bytecode) error

// SpriteRuntime is the live per-channel state the event dispatcher
// consults: which member currently occupies the channel and which
// behavior script instances are attached to it, in attach order.
// Grounded on player/score.rs's channel table, trimmed to the subset the
// interpreter itself needs (the rest — ink, geometry, blend) belongs to a
// renderer the core hands frames off to, not to bytecode dispatch).
type SpriteRuntime struct {
	Channel   int32
	Member    cast.MemberRef
	Behaviors []heap.InstanceHandle
}

// Interpreter is the single cooperative execution context a loaded movie
// runs in: one shared heap, one cast manager, a call stack used for
// debugger depth tracking, and the opcode dispatch table built from every
// opcode family this package implements. Grounded on
// player/bytecode/handler_manager.rs's StaticBytecodeHandlerManager and
// player/mod.rs's Player, collapsed into a single struct since nothing
// above the host driver needs the dispatch table and the player state
// split separately.
type Interpreter struct {
	Heap    *heap.Heap
	Casts   *cast.Manager
	Player  config.Player
	Globals map[string]heap.Handle

	// movieProps backs GetMovieProp/SetMovieProp: the handful of
	// movie-level settings a handler reads/writes by bare name (e.g.
	// itemDelimiter), lazily allocated on first write.
	movieProps map[string]heap.Handle

	Breakpoints *BreakpointSet
	Step        *StepMode
	Profiler    *Profiler
	Net         *NetManager
	Xtras       *XtraRegistry
	Bitmaps     *BitmapRegistry
	Dates       *DateRegistry

	// OnBreak is invoked synchronously whenever a breakpoint or step
	// target is reached, just before the matching opcode dispatches. A
	// nil OnBreak means breakpoints and stepping are inert.
	OnBreak func(it *Interpreter, sc *Scope)

	CallStack []*Scope

	dispatch map[container.OpCode]opcodeFunc

	sprites map[int32]*SpriteRuntime

	opcodeCounter int
	stopRequested bool

	log *elog.Helper
}

// NewInterpreter wires a fresh Interpreter against an already-populated
// heap and cast manager.
func NewInterpreter(h *heap.Heap, casts *cast.Manager, player config.Player, logger elog.Logger) *Interpreter {
	return &Interpreter{
		Heap:        h,
		Casts:       casts,
		Player:      player,
		Globals:     make(map[string]heap.Handle),
		Breakpoints: NewBreakpointSet(),
		Step:        &StepMode{Kind: StepNone},
		Profiler:    NewProfiler(),
		Net:         NewNetManager(nil),
		Xtras:       NewXtraRegistry(),
		Bitmaps:     NewBitmapRegistry(),
		Dates:       NewDateRegistry(),
		sprites:     make(map[int32]*SpriteRuntime),
		dispatch:    buildDispatchTable(),
		log:         elog.From(logger),
	}
}

// buildDispatchTable merges every opcode family's registration table into
// one map. Each opcodes_*.go file owns a disjoint slice of container.OpCode
// values; a key registered by two families takes the handler of the
// family merged last, with no error reported.
func buildDispatchTable() map[container.OpCode]opcodeFunc {
	table := make(map[container.OpCode]opcodeFunc)
	for _, family := range []map[container.OpCode]opcodeFunc{
		stackOpcodes(),
		arithOpcodes(),
		compareOpcodes(),
		flowOpcodes(),
		varPropOpcodes(),
		stringOpcodes(),
	} {
		for op, fn := range family {
			table[op] = fn
		}
	}
	return table
}

// RequestStop asks the run loop to unwind at the next opcode boundary,
// matching the host-driven "stop movie" control the original exposes
// through its Player::stop entry point.
func (it *Interpreter) RequestStop() { it.stopRequested = true }

// ClearStop resets a previously requested stop, allowing the interpreter
// to run again.
func (it *Interpreter) ClearStop() { it.stopRequested = false }

func scriptDisplayName(sc *Scope) string {
	if sc.Script != nil {
		return sc.Script.MemberName
	}
	return ""
}

func handlerKey(sc *Scope) string {
	return scriptDisplayName(sc) + "." + sc.HandlerName
}

// depth reports the current call stack depth, 1 for the outermost frame,
// used by StepMode.shouldBreak to judge "shallower scope".
func (it *Interpreter) depth() int { return len(it.CallStack) }

// maybeBreak consults the breakpoint set and the active step mode before
// dispatching the opcode at bytecodeIdx (Run calls it before advancing
// sc.BytecodeIndex past that opcode), invoking OnBreak at most once.
func (it *Interpreter) maybeBreak(sc *Scope, bytecodeIdx int) {
	if it.OnBreak == nil {
		return
	}
	bp := Breakpoint{ScriptName: scriptDisplayName(sc), HandlerName: sc.HandlerName, BytecodeIndex: bytecodeIdx}
	if it.Breakpoints.Has(bp) || it.Step.shouldBreak(it.depth()) {
		it.OnBreak(it, sc)
	}
}

// tickAllocatorCycle runs a heap reclamation cycle every
// Player.AllocatorCycleEvery opcodes, matching the original player's
// run_allocator_cycle call at the end of player_execute_bytecode.
func (it *Interpreter) tickAllocatorCycle() {
	every := it.Player.AllocatorCycleEvery
	if every <= 0 {
		every = 1
	}
	it.opcodeCounter++
	if it.opcodeCounter >= every {
		it.opcodeCounter = 0
		it.Heap.Cycle()
	}
}

// Run dispatches sc's bytecode until it returns (explicit Ret or falling
// off the end of the handler), a breakpoint/step/stop suspends it, or an
// opcode fails. Nested handler calls recurse straight into Run again, so
// the Go call stack mirrors the Lingo call stack one-to-one; CallStack is
// kept alongside purely for debugger depth bookkeeping.
func (it *Interpreter) Run(sc *Scope) error {
	it.CallStack = append(it.CallStack, sc)
	defer func() { it.CallStack = it.CallStack[:len(it.CallStack)-1] }()

	for {
		if it.stopRequested {
			return ErrStopRequested
		}

		idx := sc.BytecodeIndex
		bc, ok := sc.bytecodeAt(idx)
		if !ok {
			return nil
		}

		it.maybeBreak(sc, idx)

		if it.Profiler.Enabled() {
			it.Profiler.record(handlerKey(sc), bc.Op)
		}

		fn, ok := it.dispatch[bc.Op]
		if !ok {
			return &ScriptError{ScriptName: scriptDisplayName(sc), HandlerName: sc.HandlerName, BytecodeIdx: idx, Err: fmt.Errorf("%w: %s", ErrUnknownOpcode, bc.Op)}
		}

		sc.BytecodeIndex = idx + 1
		if err := fn(it, sc, bc); err != nil {
			if errors.Is(err, errReturn) {
				return nil
			}
			return &ScriptError{ScriptName: scriptDisplayName(sc), HandlerName: sc.HandlerName, BytecodeIdx: idx, Err: err}
		}

		it.tickAllocatorCycle()
	}
}

// InvokeHandler runs handler as a fresh call frame and returns its result
// plus whether it executed a `pass` statement.
func (it *Interpreter) InvokeHandler(scriptRef cast.MemberRef, script *cast.Script, handler *container.HandlerDef, handlerName string, receiver heap.InstanceHandle, args []heap.Handle) (heap.Handle, bool, error) {
	sc := NewScope(scriptRef, script, handler, handlerName, receiver, args)
	if err := it.Run(sc); err != nil {
		return heap.Handle{}, false, err
	}
	return sc.ReturnValue, sc.Passed, nil
}

// resolveInstanceHandler walks an instance's ancestor chain looking for
// handlerName, returning the owning script/ref and the instance the
// handler was actually found on (which may be an ancestor, not inst
// itself) — matching get_script_instance_handler's recursive lookup.
func (it *Interpreter) resolveInstanceHandler(inst heap.InstanceHandle, handlerName string) (cast.MemberRef, *cast.Script, *container.HandlerDef, error) {
	seen := make(map[heap.InstanceHandle]struct{})
	for {
		if _, looped := seen[inst]; looped {
			return cast.MemberRef{}, nil, nil, ErrHandlerNotFound
		}
		seen[inst] = struct{}{}

		si, ok := it.Heap.GetInstance(inst)
		if !ok {
			return cast.MemberRef{}, nil, nil, ErrHandlerNotFound
		}
		script, ok := it.Casts.GetScript(si.Script)
		if ok {
			if h, ok := script.Handler(handlerName); ok {
				return si.Script, script, h, nil
			}
		}
		if !si.Ancestor.IsValid() {
			return cast.MemberRef{}, nil, nil, ErrHandlerNotFound
		}
		inst = si.Ancestor
	}
}

// CallOnReceiver implements the ObjCall receiver-resolution table: a
// ScriptInstance dispatches to its own handlers then its ancestor chain;
// a Sprite dispatches to its attached behaviors in attach order, first
// match wins; any other typed value dispatches to that type's closed
// builtin-handler table; an XtraInstance dispatches to its registered
// extra. Returns ok=false only when every step above misses, signaling
// the caller to raise HandlerNotFound.
func (it *Interpreter) CallOnReceiver(receiverHandle heap.Handle, receiver heap.Value, handlerName string, args []heap.Handle) (heap.Handle, bool, bool, error) {
	switch receiver.Kind {
	case heap.KindScriptInstanceRef:
		ref, script, handler, err := it.resolveInstanceHandler(receiver.ScriptInstanceRef, handlerName)
		if err != nil {
			return heap.Handle{}, false, false, nil
		}
		result, passed, err := it.InvokeHandler(ref, script, handler, handlerName, receiver.ScriptInstanceRef, args)
		return result, true, passed, err

	case heap.KindSpriteRef:
		sprite, ok := it.sprites[receiver.SpriteRef]
		if !ok {
			return heap.Handle{}, false, false, nil
		}
		for _, behavior := range sprite.Behaviors {
			ref, script, handler, err := it.resolveInstanceHandler(behavior, handlerName)
			if err != nil {
				continue
			}
			result, passed, err := it.InvokeHandler(ref, script, handler, handlerName, behavior, args)
			return result, true, passed, err
		}
		return heap.Handle{}, false, false, nil

	case heap.KindXtraInstance:
		result, err := it.Xtras.CallInstanceHandler(it.Heap, receiver.XtraInstanceRef, handlerName, args)
		if err != nil {
			return heap.Handle{}, false, false, nil
		}
		return result, true, false, nil

	default:
		result, ok, err := it.callBuiltin(receiverHandle, receiver, handlerName, args)
		if !ok || err != nil {
			return heap.Handle{}, ok, false, err
		}
		return result, true, false, nil
	}
}

// SetSprite records (or replaces) the member occupying a score channel.
func (it *Interpreter) SetSprite(channel int32, member cast.MemberRef) {
	s, ok := it.sprites[channel]
	if !ok {
		s = &SpriteRuntime{Channel: channel}
		it.sprites[channel] = s
	}
	s.Member = member
}

// AttachBehavior appends a behavior script instance to a channel's
// behavior list, matching a sprite's `scriptInstanceList` growing as
// `new(script)` results are assigned to it.
func (it *Interpreter) AttachBehavior(channel int32, instance heap.InstanceHandle) {
	s, ok := it.sprites[channel]
	if !ok {
		s = &SpriteRuntime{Channel: channel}
		it.sprites[channel] = s
	}
	s.Behaviors = append(s.Behaviors, instance)
}

// Sprite returns the runtime state for a channel, if any sprite has been
// placed there.
func (it *Interpreter) Sprite(channel int32) (*SpriteRuntime, bool) {
	s, ok := it.sprites[channel]
	return s, ok
}

// DispatchEvent runs handlerName across the standard event search order:
// each sprite channel's attached behaviors (in the order given), then the
// frame script, then every movie script — the first handler found wins
// unless it executes `pass`, in which case the search continues.
// Grounded on the original player's event-dispatch loop
// (handle_event/run_event_hooks), which searches exactly these three
// tiers before concluding the event had no handler. An event with no
// handler anywhere is not an error: most events (enterFrame, idle, ...)
// fire every frame whether or not any script cares.
func (it *Interpreter) DispatchEvent(handlerName string, spriteChannels []int32, frameScript *cast.Script, frameScriptRef cast.MemberRef, args []heap.Handle) (heap.Handle, error) {
	for _, ch := range spriteChannels {
		sprite, ok := it.sprites[ch]
		if !ok {
			continue
		}
		for _, behavior := range sprite.Behaviors {
			ref, script, handler, err := it.resolveInstanceHandler(behavior, handlerName)
			if err != nil {
				continue
			}
			result, passed, err := it.InvokeHandler(ref, script, handler, handlerName, behavior, args)
			if err != nil {
				return heap.Handle{}, err
			}
			if !passed {
				return result, nil
			}
		}
	}

	if frameScript != nil {
		if handler, ok := frameScript.Handler(handlerName); ok {
			result, passed, err := it.InvokeHandler(frameScriptRef, frameScript, handler, handlerName, heap.InstanceHandle{}, args)
			if err != nil {
				return heap.Handle{}, err
			}
			if !passed {
				return result, nil
			}
		}
	}

	for _, script := range it.Casts.MovieScripts() {
		handler, ok := script.Handler(handlerName)
		if !ok {
			continue
		}
		result, passed, err := it.InvokeHandler(cast.MemberRef{}, script, handler, handlerName, heap.InstanceHandle{}, args)
		if err != nil {
			return heap.Handle{}, err
		}
		if !passed {
			return result, nil
		}
	}

	return heap.Handle{}, nil
}
