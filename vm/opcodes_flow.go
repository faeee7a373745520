// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/stagevm/core/cast"
	"github.com/stagevm/core/container"
	"github.com/stagevm/core/heap"
)

// flowOpcodes registers jumps, calls, and object construction: the family
// that can redirect sc.BytecodeIndex or recurse into another handler.
// Grounded on player/bytecode/flow_control.rs and stack.rs's new_obj.
func flowOpcodes() map[container.OpCode]opcodeFunc {
	return map[container.OpCode]opcodeFunc{
		container.OpJmp:              opJmp,
		container.OpJmpIfZ:           opJmpIfZ,
		container.OpEndRepeat:        opEndRepeat,
		container.OpLocalCall:        opLocalCall,
		container.OpExtCall:          opExtCall,
		container.OpObjCall:          opObjCall,
		container.OpObjCallV4:        opObjCall,
		container.OpTellCall:         opObjCall,
		container.OpCallJavaScript:   opCallJavaScript,
		container.OpNewObj:           opNewObj,
		container.OpPushArgList:      pushArgList(heap.ListArgList),
		container.OpPushArgListNoRet: pushArgList(heap.ListArgListNoRet),
	}
}

// jumpTarget resolves a source-offset jump (bytecode.pos + delta) to a
// bytecode index via the handler's position→index map, matching every
// jump opcode's identical "dest_pos := pos+delta; index_map[dest_pos]"
// pattern.
func jumpTarget(sc *Scope, destPos int) (int, error) {
	if sc.Handler == nil {
		return 0, ErrMalformedBytecode
	}
	idx, ok := sc.Handler.BytecodeIndexByPos[destPos]
	if !ok {
		return 0, ErrMalformedBytecode
	}
	return idx, nil
}

func opJmp(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	idx, err := jumpTarget(sc, bc.Pos+int(bc.Arg))
	if err != nil {
		return err
	}
	sc.BytecodeIndex = idx
	return nil
}

// opJmpIfZ records the pre-jump index in LoopReturnIndices (repeat loops
// use it to find their way back to the loop head) before conditionally
// jumping.
func opJmpIfZ(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	sc.LoopReturnIndices = append(sc.LoopReturnIndices, bc.Pos)
	h, err := sc.Pop()
	if err != nil {
		return err
	}
	v, ok := it.Heap.Get(h)
	if !ok {
		return ErrMalformedBytecode
	}
	if !isFalsy(v) {
		return nil
	}
	idx, err := jumpTarget(sc, bc.Pos+int(bc.Arg))
	if err != nil {
		return err
	}
	sc.BytecodeIndex = idx
	return nil
}

// opEndRepeat closes a repeat loop body by jumping backward to the index
// recorded for its head, bc.Arg bytes before this instruction's position.
func opEndRepeat(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	idx, err := jumpTarget(sc, bc.Pos-int(bc.Arg))
	if err != nil {
		return err
	}
	sc.BytecodeIndex = idx
	return nil
}

func pushArgList(kind heap.ListKind) opcodeFunc {
	return func(it *Interpreter, sc *Scope, bc container.Bytecode) error {
		items, err := sc.PopN(int(bc.Arg))
		if err != nil {
			return err
		}
		h, err := it.Heap.Alloc(heap.NewList(kind, items))
		if err != nil {
			return err
		}
		sc.Push(h)
		return nil
	}
}

// argListOnStack pops the top-of-stack ArgList/ArgListNoRet value, reports
// whether it was tagged no-ret, and returns its elements.
func argListOnStack(it *Interpreter, sc *Scope) (items []heap.Handle, noRet bool, err error) {
	h, err := sc.Pop()
	if err != nil {
		return nil, false, err
	}
	v, ok := it.Heap.Get(h)
	if !ok || v.Kind != heap.KindList {
		return nil, false, ErrMalformedBytecode
	}
	return v.List, v.ListKind == heap.ListArgListNoRet, nil
}

// opLocalCall invokes a handler belonging to the currently running
// script by its direct index in the script's handler table (no name
// lookup), inheriting the calling scope's receiver.
func opLocalCall(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	items, noRet, err := argListOnStack(it, sc)
	if err != nil {
		return err
	}
	if sc.Script == nil || int(bc.Arg) < 0 || int(bc.Arg) >= len(sc.Script.Chunk.Handlers) {
		return ErrMalformedBytecode
	}
	handler := &sc.Script.Chunk.Handlers[bc.Arg]
	handlerName := sc.Script.Name(handler.NameID)

	result, _, err := it.InvokeHandler(sc.ScriptRef, sc.Script, handler, handlerName, sc.Receiver, items)
	if err != nil {
		return err
	}
	if !noRet {
		sc.Push(result)
	}
	return nil
}

func extCallName(sc *Scope, bc container.Bytecode) string {
	if sc.Script == nil {
		return ""
	}
	return sc.Script.Name(uint16(bc.Arg))
}

// opExtCall invokes a handler with no explicit receiver: first a matching
// movie-script handler (a Lingo global handler called by bare name), then
// a global builtin function. Grounded on player_ext_call's search order.
func opExtCall(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	items, noRet, err := argListOnStack(it, sc)
	if err != nil {
		return err
	}
	name := extCallName(sc, bc)

	for _, script := range it.Casts.MovieScripts() {
		handler, ok := script.Handler(name)
		if !ok {
			continue
		}
		result, _, err := it.InvokeHandler(cast.MemberRef{}, script, handler, name, heap.InstanceHandle{}, items)
		if err != nil {
			return err
		}
		if !noRet {
			sc.Push(result)
		}
		return nil
	}

	result, ok, err := it.callGlobalBuiltin(name, items)
	if err != nil {
		return err
	}
	if !ok {
		return ErrHandlerNotFound
	}
	if !noRet {
		sc.Push(result)
	}
	return nil
}

// opObjCall pops an ArgList whose first element is the receiver and
// whose remaining elements are the call's arguments, resolves the
// handler name from the running script's name table, and dispatches it
// through the receiver-resolution table. Serves ObjCall, ObjCallV4 (the
// legacy encoding of the same call shape), and TellCall (a message sent
// to a window/stage target, which resolves through the same table since
// this core has no multi-movie windowing to special-case).
func opObjCall(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	items, noRet, err := argListOnStack(it, sc)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return ErrMalformedBytecode
	}
	receiverHandle, args := items[0], items[1:]
	name := extCallName(sc, bc)

	receiverVal, ok := it.Heap.Get(receiverHandle)
	if !ok {
		return ErrMalformedBytecode
	}

	result, handled, _, err := it.CallOnReceiver(receiverHandle, receiverVal, name, args)
	if err != nil {
		return err
	}
	if !handled {
		return ErrHandlerNotFound
	}
	if !noRet {
		sc.Push(result)
	}
	return nil
}

// opCallJavaScript is a deliberate stub: the original bridges into a
// hosted JS engine for `callJS`-style interop, which has no portable
// equivalent here and sits outside bit-for-bit rendering/engine parity.
// The call site's stack discipline (an ArgList operand) is still honored
// so surrounding bytecode keeps balanced.
func opCallJavaScript(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	_, noRet, err := argListOnStack(it, sc)
	if err != nil {
		return err
	}
	if !noRet {
		h, err := it.Heap.Alloc(heap.Void)
		if err != nil {
			return err
		}
		sc.Push(h)
	}
	return nil
}

// opNewObj constructs a new script instance: bc.Arg names the object kind
// being constructed (always "script" in practice), the popped ArgList's
// first element is the script's name and the rest are forwarded to the
// script's own `new` handler if it defines one.
func opNewObj(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	items, _, err := argListOnStack(it, sc)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return ErrMalformedBytecode
	}
	nameVal, ok := it.Heap.Get(items[0])
	if !ok || nameVal.Kind != heap.KindString {
		return ErrTypeMismatch
	}
	extraArgs := items[1:]

	ref, _, ok := it.Casts.ResolveMember(nameVal.Str, nil)
	if !ok {
		return ErrHandlerNotFound
	}
	script, ok := it.Casts.GetScript(ref)
	if !ok {
		return ErrHandlerNotFound
	}

	instance, err := it.Heap.AllocInstance(heap.NewScriptInstance(ref))
	if err != nil {
		return err
	}

	result := heap.Value{Kind: heap.KindScriptInstanceRef, ScriptInstanceRef: instance}
	if handler, ok := script.Handler("new"); ok {
		ctorResult, _, err := it.InvokeHandler(ref, script, handler, "new", instance, extraArgs)
		if err != nil {
			return err
		}
		if v, ok := it.Heap.Get(ctorResult); ok && !v.IsVoid() {
			result = v
		}
	}

	h, err := it.Heap.Alloc(result)
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}
