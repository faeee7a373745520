// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/stagevm/core/container"
	"github.com/stagevm/core/heap"
)

// varPropOpcodes registers the variable-binding and property-access
// family: locals, globals, arguments, object properties, and the movie's
// own top-level properties.
func varPropOpcodes() map[container.OpCode]opcodeFunc {
	return map[container.OpCode]opcodeFunc{
		container.OpGetLocal:         opGetLocal,
		container.OpSetLocal:         opSetLocal,
		container.OpGetParam:         opGetParam,
		container.OpSetParam:         opSetParam,
		container.OpGetGlobal:        opGetGlobal,
		container.OpGetGlobal2:       opGetGlobal,
		container.OpSetGlobal:        opSetGlobal,
		container.OpSetGlobal2:       opSetGlobal,
		container.OpGetProp:          opGetProp,
		container.OpSetProp:          opSetProp,
		container.OpGetObjProp:       opGetObjProp,
		container.OpSetObjProp:       opSetObjProp,
		container.OpGetChainedProp:   opGetChainedProp,
		container.OpGetMovieProp:     opGetMovieProp,
		container.OpSetMovieProp:     opSetMovieProp,
		container.OpGetTopLevelProp:  opGetTopLevelProp,
		container.OpGetField:         opGetField,
		container.OpGet:              opGetObjProp,
		container.OpSet:              opSetObjProp,
		// TheBuiltin reads one of the legacy `the <property>` system
		// globals (floatPrecision, frameRate, ...). No dedicated opcode
		// exists for most of these, so it shares GetMovieProp's named
		// lookup rather than a closed enum of system properties.
		container.OpTheBuiltin: opGetMovieProp,
	}
}

// variableIndex recovers a variable-table index from a raw opcode
// operand, dividing out the version-dependent multiplier.
func variableIndex(it *Interpreter, sc *Scope, raw int64) int {
	mult := variableMultiplier(it.dirVersion(sc))
	if mult == 0 {
		mult = 1
	}
	return int(raw / mult)
}

// dirVersion resolves the Director version the currently running
// script's owning library was compiled under, used to pick the legacy
// (1x) or modern (6x) variable-index scaling.
func (it *Interpreter) dirVersion(sc *Scope) uint16 {
	lib, ok := it.Casts.Library(sc.ScriptRef.CastLib)
	if !ok {
		return 0
	}
	return lib.DirVersion
}

func opGetLocal(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	name := sc.Script.LocalName(sc.Handler, variableIndex(it, sc, bc.Arg))
	h, ok := sc.Locals[name]
	if !ok || h.IsVoid() {
		var err error
		if h, err = it.Heap.Alloc(heap.Void); err != nil {
			return err
		}
	}
	sc.Push(h)
	return nil
}

func opSetLocal(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	name := sc.Script.LocalName(sc.Handler, variableIndex(it, sc, bc.Arg))
	h, err := sc.Pop()
	if err != nil {
		return err
	}
	sc.Locals[name] = h
	return nil
}

func opGetParam(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	idx := variableIndex(it, sc, bc.Arg)
	var h heap.Handle
	if idx >= 0 && idx < len(sc.Args) {
		h = sc.Args[idx]
	}
	if h.IsVoid() {
		var err error
		if h, err = it.Heap.Alloc(heap.Void); err != nil {
			return err
		}
	}
	sc.Push(h)
	return nil
}

func opSetParam(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	idx := variableIndex(it, sc, bc.Arg)
	h, err := sc.Pop()
	if err != nil {
		return err
	}
	if idx >= 0 && idx < len(sc.Args) {
		sc.Args[idx] = h
	}
	return nil
}

func opGetGlobal(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	name := sc.Script.GlobalName(sc.Handler, variableIndex(it, sc, bc.Arg))
	h := it.Globals[name]
	if h.IsVoid() {
		var err error
		if h, err = it.Heap.Alloc(heap.Void); err != nil {
			return err
		}
	}
	sc.Push(h)
	return nil
}

func opSetGlobal(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	name := sc.Script.GlobalName(sc.Handler, variableIndex(it, sc, bc.Arg))
	h, err := sc.Pop()
	if err != nil {
		return err
	}
	it.Globals[name] = h
	return nil
}

// propertyNameAt resolves a declared-property operand to its source name,
// matching the ScriptChunk.PropertyNameIDs table the property belongs to.
func propertyNameAt(sc *Scope, idx int) string {
	if sc.Script == nil || idx < 0 || idx >= len(sc.Script.PropertyNames) {
		return ""
	}
	return sc.Script.PropertyNames[idx]
}

// opGetProp reads a property declared on the currently running script
// from its receiver instance (the implicit "me" a bare property name
// refers to inside a method body).
func opGetProp(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	name := propertyNameAt(sc, variableIndex(it, sc, bc.Arg))
	var h heap.Handle
	if sc.Receiver.IsValid() {
		if v, ok := it.Heap.ResolveProp(sc.Receiver, name); ok {
			h = v
		}
	}
	sc.Push(h)
	return nil
}

func opSetProp(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	name := propertyNameAt(sc, variableIndex(it, sc, bc.Arg))
	h, err := sc.Pop()
	if err != nil {
		return err
	}
	if sc.Receiver.IsValid() {
		if si, ok := it.Heap.GetInstance(sc.Receiver); ok {
			si.SetProp(name, h)
		}
	}
	return nil
}

func objPropName(it *Interpreter, sc *Scope, bc container.Bytecode) string {
	if sc.Script == nil {
		return ""
	}
	return sc.Script.Name(uint16(bc.Arg))
}

func opGetObjProp(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	rh, err := sc.Pop()
	if err != nil {
		return err
	}
	receiver, ok := it.Heap.Get(rh)
	if !ok {
		return ErrMalformedBytecode
	}
	name := objPropName(it, sc, bc)
	h, _, err := it.getObjectProperty(rh, receiver, name)
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

func opSetObjProp(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	vh, err := sc.Pop()
	if err != nil {
		return err
	}
	rh, err := sc.Pop()
	if err != nil {
		return err
	}
	receiver, ok := it.Heap.Get(rh)
	if !ok {
		return ErrMalformedBytecode
	}
	name := objPropName(it, sc, bc)
	_, err = it.setObjectProperty(rh, receiver, name, vh)
	return err
}

// opGetChainedProp reads a property one step further down a chain (e.g.
// `x.y.z`): the receiver on the stack is itself the result of a prior
// property read, so this is handled identically to GetObjProp.
func opGetChainedProp(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	return opGetObjProp(it, sc, bc)
}

func opGetMovieProp(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	name := objPropName(it, sc, bc)
	h, ok := it.movieProps[name]
	if !ok || h.IsVoid() {
		var err error
		if h, err = it.Heap.Alloc(heap.Void); err != nil {
			return err
		}
	}
	sc.Push(h)
	return nil
}

func opSetMovieProp(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	h, err := sc.Pop()
	if err != nil {
		return err
	}
	name := objPropName(it, sc, bc)
	if it.movieProps == nil {
		it.movieProps = make(map[string]heap.Handle)
	}
	it.movieProps[name] = h
	return nil
}

// opGetTopLevelProp resolves one of the handful of singleton top-level
// references a handler body can name directly: the stage, the player,
// and the running movie.
func opGetTopLevelProp(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	name := objPropName(it, sc, bc)
	var v heap.Value
	switch name {
	case "stage", "_stage":
		v = heap.Value{Kind: heap.KindStage}
	case "player", "_player":
		v = heap.Value{Kind: heap.KindPlayerRef}
	case "movie", "_movie":
		v = heap.Value{Kind: heap.KindMovieRef}
	default:
		v = heap.Void
	}
	h, err := it.Heap.Alloc(v)
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

// opGetField reads a Field cast member's text content, named either
// directly by a CastMemberRef on the stack or by member name.
func opGetField(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	rh, err := sc.Pop()
	if err != nil {
		return err
	}
	v, ok := it.Heap.Get(rh)
	if !ok {
		return ErrMalformedBytecode
	}

	var text string
	switch v.Kind {
	case heap.KindCastMemberRef:
		if member, ok := it.Casts.GetMember(v.MemberRef); ok {
			text = member.Text
		}
	case heap.KindString:
		if _, member, ok := it.Casts.ResolveMember(v.Str, nil); ok {
			text = member.Text
		}
	}
	h, err := it.Heap.Alloc(heap.NewString(text))
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

// getObjectProperty dispatches a property read by receiver kind: a
// script instance resolves through its ancestor chain, geometry/color
// values expose their components directly, a cast member exposes its
// common fields, and every other typed value falls through to that
// type's `getProp`/`getaProp` builtin.
func (it *Interpreter) getObjectProperty(receiverHandle heap.Handle, receiver heap.Value, name string) (heap.Handle, bool, error) {
	switch receiver.Kind {
	case heap.KindScriptInstanceRef:
		if v, ok := it.Heap.ResolveProp(receiver.ScriptInstanceRef, name); ok {
			return v, true, nil
		}
		return heap.Handle{}, false, nil

	case heap.KindIntRect:
		var n int32
		switch name {
		case "left":
			n = receiver.Rect.Left
		case "top":
			n = receiver.Rect.Top
		case "right":
			n = receiver.Rect.Right
		case "bottom":
			n = receiver.Rect.Bottom
		default:
			return heap.Handle{}, false, nil
		}
		h, err := it.Heap.Alloc(heap.NewInt(int64(n)))
		return h, true, err

	case heap.KindIntPoint:
		var n int32
		switch name {
		case "locH":
			n = receiver.Point.X
		case "locV":
			n = receiver.Point.Y
		default:
			return heap.Handle{}, false, nil
		}
		h, err := it.Heap.Alloc(heap.NewInt(int64(n)))
		return h, true, err

	case heap.KindColorRef:
		var n uint8
		switch name {
		case "red":
			n = receiver.Color.R
		case "green":
			n = receiver.Color.G
		case "blue":
			n = receiver.Color.B
		default:
			return heap.Handle{}, false, nil
		}
		h, err := it.Heap.Alloc(heap.NewInt(int64(n)))
		return h, true, err

	case heap.KindCastMemberRef:
		member, ok := it.Casts.GetMember(receiver.MemberRef)
		if !ok {
			return heap.Handle{}, false, nil
		}
		var v heap.Value
		switch name {
		case "name":
			v = heap.NewString(member.Name)
		case "number":
			v = heap.NewInt(int64(member.Number))
		case "text":
			v = heap.NewString(member.Text)
		case "image":
			if member.Type != container.MemberTypeBitmap {
				return heap.Handle{}, false, nil
			}
			id := it.Bitmaps.ForMember(receiver.MemberRef, member)
			v = heap.Value{Kind: heap.KindBitmapRef, BitmapRef: id}
		default:
			return heap.Handle{}, false, nil
		}
		h, err := it.Heap.Alloc(v)
		return h, true, err

	default:
		args := []heap.Handle{}
		if h, err := it.Heap.Alloc(heap.NewSymbol(name)); err == nil {
			args = []heap.Handle{h}
		}
		result, ok, err := it.callBuiltin(receiverHandle, receiver, "getProp", args)
		return result, ok, err
	}
}

func (it *Interpreter) setObjectProperty(receiverHandle heap.Handle, receiver heap.Value, name string, value heap.Handle) (bool, error) {
	switch receiver.Kind {
	case heap.KindScriptInstanceRef:
		si, ok := it.Heap.GetInstance(receiver.ScriptInstanceRef)
		if !ok {
			return false, nil
		}
		si.SetProp(name, value)
		return true, nil

	default:
		nameH, err := it.Heap.Alloc(heap.NewSymbol(name))
		if err != nil {
			return false, err
		}
		_, ok, err := it.callBuiltin(receiverHandle, receiver, "setProp", []heap.Handle{nameH, value})
		return ok, err
	}
}
