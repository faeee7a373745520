// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/stagevm/core/cast"
	"github.com/stagevm/core/container"
	"github.com/stagevm/core/heap"
)

// Scope is one call frame: a running handler's script/handler identity,
// its receiver (for method calls), its argument vector, its local
// variable bindings, and its operand stack. Grounded on
// player/scope.rs's Scope struct.
type Scope struct {
	ScriptRef   cast.MemberRef
	Script      *cast.Script
	Handler     *container.HandlerDef
	HandlerName string

	Receiver heap.InstanceHandle

	Args  []heap.Handle
	Stack []heap.Handle

	Locals map[string]heap.Handle

	BytecodeIndex     int
	LoopReturnIndices []int
	ReturnValue       heap.Handle

	// Passed, when set, makes the event dispatcher that invoked this
	// handler continue searching its remaining candidates. No opcode sets
	// it; only a caller that sets the field directly does.
	Passed bool
}

// NewScope returns a fresh call frame ready to execute handler from its
// first bytecode instruction.
func NewScope(scriptRef cast.MemberRef, script *cast.Script, handler *container.HandlerDef, handlerName string, receiver heap.InstanceHandle, args []heap.Handle) *Scope {
	return &Scope{
		ScriptRef:   scriptRef,
		Script:      script,
		Handler:     handler,
		HandlerName: handlerName,
		Receiver:    receiver,
		Args:        args,
		Locals:      make(map[string]heap.Handle),
	}
}

// Push appends a handle to the operand stack.
func (s *Scope) Push(h heap.Handle) {
	s.Stack = append(s.Stack, h)
}

// Pop removes and returns the top of the operand stack.
func (s *Scope) Pop() (heap.Handle, error) {
	if len(s.Stack) == 0 {
		return heap.Handle{}, ErrStackUnderflow
	}
	n := len(s.Stack) - 1
	h := s.Stack[n]
	s.Stack = s.Stack[:n]
	return h, nil
}

// PopN removes and returns the top n values, in original (bottom-to-top)
// order, matching Scope::pop_n.
func (s *Scope) PopN(n int) ([]heap.Handle, error) {
	if n < 0 || len(s.Stack) < n {
		return nil, ErrStackUnderflow
	}
	split := len(s.Stack) - n
	result := append([]heap.Handle(nil), s.Stack[split:]...)
	s.Stack = s.Stack[:split]
	return result, nil
}

// Peek returns the value offset positions below the top of stack without
// removing it (offset 0 is the top).
func (s *Scope) Peek(offset int) (heap.Handle, error) {
	idx := len(s.Stack) - 1 - offset
	if idx < 0 || idx >= len(s.Stack) {
		return heap.Handle{}, ErrStackUnderflow
	}
	return s.Stack[idx], nil
}

// bytecodeAt returns the instruction at the scope's current index, or
// false if execution has fallen off the end of the handler (implicit
// void return).
func (s *Scope) bytecodeAt(idx int) (container.Bytecode, bool) {
	if s.Handler == nil || idx < 0 || idx >= len(s.Handler.Bytecode) {
		return container.Bytecode{}, false
	}
	return s.Handler.Bytecode[idx], true
}
