// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"strconv"
	"strings"

	"github.com/stagevm/core/container"
	"github.com/stagevm/core/heap"
)

// stringOpcodes registers string concatenation, containment, and chunk
// (char/word/item/line) access and mutation, plus the handful of
// tell-block and sprite-membership markers that ride the same family in
// the wire format. Grounded on player/bytecode/string.rs.
func stringOpcodes() map[container.OpCode]opcodeFunc {
	return map[container.OpCode]opcodeFunc{
		container.OpJoinStr:          opJoinStr,
		container.OpJoinPadStr:       opJoinPadStr,
		container.OpContainsStr:      opContainsStr,
		container.OpContains0Str:     opContains0Str,
		container.OpGetChunk:         opGetChunk,
		container.OpPut:              opPut,
		container.OpPutChunk:         opPutChunk,
		container.OpDeleteChunk:      opDeleteChunk,
		container.OpPushChunkVarRef:  opPushChunkVarRef,
		container.OpHiliteChunk:      opNoopStackNeutral,
		container.OpOntoSpr:          opNoopStackNeutral,
		container.OpIntoSpr:          opNoopStackNeutral,
		container.OpStartTell:        opNoopStackNeutral,
		container.OpEndTell:          opNoopStackNeutral,
	}
}

// concatValue renders a value the way join/joinPad do: strings and
// chunks pass through, numerics and symbols format themselves, void
// becomes empty, everything else falls back to display formatting.
func concatValue(v heap.Value) string {
	switch v.Kind {
	case heap.KindString:
		return v.Str
	case heap.KindSymbol:
		return v.Symbol
	case heap.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case heap.KindFloat:
		return formatFloat(v.Float)
	case heap.KindVoid:
		return ""
	default:
		return formatValue(v)
	}
}

func opJoinStr(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	return joinStrings(it, sc, "%s%s")
}

func opJoinPadStr(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	return joinStrings(it, sc, "%s %s")
}

func joinStrings(it *Interpreter, sc *Scope, format string) error {
	rh, err := sc.Pop()
	if err != nil {
		return err
	}
	lh, err := sc.Pop()
	if err != nil {
		return err
	}
	lv, ok := it.Heap.Get(lh)
	if !ok {
		return ErrMalformedBytecode
	}
	rv, ok := it.Heap.Get(rh)
	if !ok {
		return ErrMalformedBytecode
	}
	left, right := concatValue(lv), concatValue(rv)
	var joined string
	if format == "%s %s" {
		joined = left + " " + right
	} else {
		joined = left + right
	}
	h, err := it.Heap.Alloc(heap.NewString(joined))
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

func opContainsStr(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	searchH, err := sc.Pop()
	if err != nil {
		return err
	}
	subjectH, err := sc.Pop()
	if err != nil {
		return err
	}
	searchV, ok := it.Heap.Get(searchH)
	if !ok {
		return ErrMalformedBytecode
	}
	subjectV, ok := it.Heap.Get(subjectH)
	if !ok {
		return ErrMalformedBytecode
	}
	search := concatValue(searchV)

	var contains bool
	switch subjectV.Kind {
	case heap.KindList:
		for _, eh := range subjectV.List {
			ev, ok := it.Heap.Get(eh)
			if ok && ev.Kind == heap.KindString && strings.Contains(ev.Str, search) {
				contains = true
				break
			}
		}
	case heap.KindString:
		contains = strings.Contains(subjectV.Str, search)
	case heap.KindSymbol, heap.KindInt, heap.KindFloat:
		contains = false
	default:
		return ErrTypeMismatch
	}

	h, err := it.Heap.Alloc(boolValue(contains))
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

func opContains0Str(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	searchH, err := sc.Pop()
	if err != nil {
		return err
	}
	subjectH, err := sc.Pop()
	if err != nil {
		return err
	}
	subjectV, ok := it.Heap.Get(subjectH)
	if !ok {
		return ErrMalformedBytecode
	}
	var startsWith bool
	if subjectV.Kind != heap.KindVoid {
		searchV, ok := it.Heap.Get(searchH)
		if !ok {
			return ErrMalformedBytecode
		}
		startsWith = strings.HasPrefix(concatValue(subjectV), concatValue(searchV))
	}
	h, err := it.Heap.Alloc(boolValue(startsWith))
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

// chunkRange is a resolved char/word/item/line sub-range, 1-based and
// inclusive as Lingo addresses chunks.
type chunkRange struct {
	kind  chunkKind
	start int64
	end   int64
}

type chunkKind int

const (
	chunkChar chunkKind = iota
	chunkWord
	chunkItem
	chunkLine
)

// readChunkRange pops the eight range bounds a GetChunk/DeleteChunk site
// pushes (last line, first line, last item, first item, last word, first
// word, last char, first char) and picks the first non-zero pair in
// read_chunk_ref's line > item > word > char priority, so the coarsest
// chunk kind named wins.
func readChunkRange(it *Interpreter, sc *Scope) (chunkRange, error) {
	bounds := make([]int64, 8)
	for i := 0; i < 8; i++ {
		h, err := sc.Pop()
		if err != nil {
			return chunkRange{}, err
		}
		v, ok := it.Heap.Get(h)
		if !ok {
			return chunkRange{}, ErrMalformedBytecode
		}
		bounds[i] = intOf(v)
	}
	lastLine, firstLine := bounds[0], bounds[1]
	lastItem, firstItem := bounds[2], bounds[3]
	lastWord, firstWord := bounds[4], bounds[5]
	lastChar, firstChar := bounds[6], bounds[7]

	switch {
	case firstLine != 0 || lastLine != 0:
		return chunkRange{chunkLine, firstLine, lastLine}, nil
	case firstItem != 0 || lastItem != 0:
		return chunkRange{chunkItem, firstItem, lastItem}, nil
	case firstWord != 0 || lastWord != 0:
		return chunkRange{chunkWord, firstWord, lastWord}, nil
	case firstChar != 0 || lastChar != 0:
		return chunkRange{chunkChar, firstChar, lastChar}, nil
	default:
		return chunkRange{}, ErrMalformedBytecode
	}
}

func intOf(v heap.Value) int64 {
	switch v.Kind {
	case heap.KindInt:
		return v.Int
	case heap.KindFloat:
		return int64(v.Float)
	default:
		return 0
	}
}

// splitChunks breaks s into its char/word/item/line pieces. Items split
// on the movie's itemDelimiter (comma by default); everything else
// matches Lingo's built-in delimiters (whitespace for words, newline for
// lines).
func (it *Interpreter) splitChunks(s string, kind chunkKind) []string {
	switch kind {
	case chunkChar:
		return strings.Split(s, "")
	case chunkWord:
		return strings.Fields(s)
	case chunkLine:
		return strings.Split(s, "\n")
	case chunkItem:
		return strings.Split(s, it.itemDelimiter())
	default:
		return nil
	}
}

func (it *Interpreter) itemDelimiter() string {
	if h, ok := it.movieProps["itemDelimiter"]; ok {
		if v, ok := it.Heap.Get(h); ok && v.Kind == heap.KindString && v.Str != "" {
			return v.Str
		}
	}
	return ","
}

// extractChunk slices out the 1-based inclusive [start, end] pieces of s
// under kind and rejoins them with the same separator splitChunks used.
func (it *Interpreter) extractChunk(s string, r chunkRange) string {
	pieces := it.splitChunks(s, r.kind)
	start, end := int(r.start), int(r.end)
	if start < 1 {
		start = 1
	}
	if end < start || end > len(pieces) {
		end = len(pieces)
	}
	if start > len(pieces) {
		return ""
	}
	sep := chunkJoiner(r.kind, it.itemDelimiter())
	return strings.Join(pieces[start-1:end], sep)
}

// replaceChunk substitutes the [start, end] pieces of s with replacement
// and rejoins the result, used by PutChunk/DeleteChunk.
func (it *Interpreter) replaceChunk(s string, r chunkRange, replacement string) string {
	pieces := it.splitChunks(s, r.kind)
	start, end := int(r.start), int(r.end)
	if start < 1 {
		start = 1
	}
	if end < start || end > len(pieces) {
		end = len(pieces)
	}
	if start > len(pieces)+1 {
		return s
	}
	sep := chunkJoiner(r.kind, it.itemDelimiter())
	var out []string
	out = append(out, pieces[:start-1]...)
	if replacement != "" {
		out = append(out, replacement)
	}
	if end < len(pieces) {
		out = append(out, pieces[end:]...)
	}
	return strings.Join(out, sep)
}

func chunkJoiner(kind chunkKind, itemDelim string) string {
	switch kind {
	case chunkChar:
		return ""
	case chunkWord:
		return " "
	case chunkLine:
		return "\n"
	case chunkItem:
		return itemDelim
	default:
		return ""
	}
}

func opGetChunk(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	sh, err := sc.Pop()
	if err != nil {
		return err
	}
	sv, ok := it.Heap.Get(sh)
	if !ok {
		return ErrMalformedBytecode
	}
	r, err := readChunkRange(it, sc)
	if err != nil {
		return err
	}
	result := it.extractChunk(concatValue(sv), r)
	h, err := it.Heap.Alloc(heap.NewString(result))
	if err != nil {
		return err
	}
	sc.Push(h)
	return nil
}

// varTypeSlot names the handful of storage kinds Put/PutChunk/DeleteChunk
// can target, encoded in the opcode operand's low nibble.
type varTypeSlot uint8

const (
	slotLocal  varTypeSlot = 1
	slotGlobal varTypeSlot = 2
	slotProp   varTypeSlot = 3
	slotParam  varTypeSlot = 4
)

// namedSlotGet/namedSlotSet resolve a Put-family target. The operand's
// high nibble (unused here) carries the put-type (into/after/before),
// already peeled off by the caller; index addressing follows the same
// variable-multiplier rule as the dedicated Get*/Set* opcodes.
func (it *Interpreter) namedSlotGet(sc *Scope, slot varTypeSlot, idx int) heap.Handle {
	switch slot {
	case slotLocal:
		return sc.Locals[sc.Script.LocalName(sc.Handler, idx)]
	case slotGlobal:
		return it.Globals[sc.Script.GlobalName(sc.Handler, idx)]
	case slotProp:
		name := propertyNameAt(sc, idx)
		if sc.Receiver.IsValid() {
			if v, ok := it.Heap.ResolveProp(sc.Receiver, name); ok {
				return v
			}
		}
		return heap.Handle{}
	case slotParam:
		if idx >= 0 && idx < len(sc.Args) {
			return sc.Args[idx]
		}
		return heap.Handle{}
	default:
		return heap.Handle{}
	}
}

func (it *Interpreter) namedSlotSet(sc *Scope, slot varTypeSlot, idx int, h heap.Handle) {
	switch slot {
	case slotLocal:
		sc.Locals[sc.Script.LocalName(sc.Handler, idx)] = h
	case slotGlobal:
		it.Globals[sc.Script.GlobalName(sc.Handler, idx)] = h
	case slotProp:
		if sc.Receiver.IsValid() {
			if si, ok := it.Heap.GetInstance(sc.Receiver); ok {
				si.SetProp(propertyNameAt(sc, idx), h)
			}
		}
	case slotParam:
		if idx >= 0 && idx < len(sc.Args) {
			sc.Args[idx] = h
		}
	}
}

// opPut implements `put ... into/after/before <var>`. The high nibble of
// the operand selects the put style, the low nibble the target kind
// (local/global/prop/param); the remaining bits, scaled by the variable
// multiplier, select which slot.
func opPut(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	putStyle := (bc.Arg >> 4) & 0xF
	slot := varTypeSlot(bc.Arg & 0xF)
	idx := variableIndex(it, sc, bc.Arg>>8)

	valueH, err := sc.Pop()
	if err != nil {
		return err
	}
	valueV, ok := it.Heap.Get(valueH)
	if !ok {
		return ErrMalformedBytecode
	}

	if putStyle == 0 {
		it.namedSlotSet(sc, slot, idx, valueH)
		return nil
	}

	currentH := it.namedSlotGet(sc, slot, idx)
	currentV, _ := it.Heap.Get(currentH)
	var joined string
	if putStyle == 2 { // before
		joined = concatValue(valueV) + concatValue(currentV)
	} else { // after
		joined = concatValue(currentV) + concatValue(valueV)
	}
	newH, err := it.Heap.Alloc(heap.NewString(joined))
	if err != nil {
		return err
	}
	it.namedSlotSet(sc, slot, idx, newH)
	return nil
}

// opPutChunk replaces a chunk range within a named slot's current string
// value with the popped replacement value.
func opPutChunk(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	slot := varTypeSlot(bc.Arg & 0xF)
	idx := variableIndex(it, sc, bc.Arg>>8)

	r, err := readChunkRange(it, sc)
	if err != nil {
		return err
	}
	valueH, err := sc.Pop()
	if err != nil {
		return err
	}
	valueV, ok := it.Heap.Get(valueH)
	if !ok {
		return ErrMalformedBytecode
	}

	currentH := it.namedSlotGet(sc, slot, idx)
	currentV, _ := it.Heap.Get(currentH)
	replaced := it.replaceChunk(concatValue(currentV), r, concatValue(valueV))

	newH, err := it.Heap.Alloc(heap.NewString(replaced))
	if err != nil {
		return err
	}
	it.namedSlotSet(sc, slot, idx, newH)
	return nil
}

// opDeleteChunk removes a chunk range from a named slot's current string.
func opDeleteChunk(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	slot := varTypeSlot(bc.Arg & 0xF)
	idx := variableIndex(it, sc, bc.Arg>>8)

	r, err := readChunkRange(it, sc)
	if err != nil {
		return err
	}
	currentH := it.namedSlotGet(sc, slot, idx)
	currentV, _ := it.Heap.Get(currentH)
	replaced := it.replaceChunk(concatValue(currentV), r, "")

	newH, err := it.Heap.Alloc(heap.NewString(replaced))
	if err != nil {
		return err
	}
	it.namedSlotSet(sc, slot, idx, newH)
	return nil
}

// opPushChunkVarRef eagerly resolves a named slot's current value (the
// original keeps a lazy reference here; this core resolves immediately
// since nothing downstream observes the distinction without a live
// chunk-assignment target tracking it separately).
func opPushChunkVarRef(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	slot := varTypeSlot(bc.Arg & 0xF)
	idx := variableIndex(it, sc, bc.Arg>>8)
	h := it.namedSlotGet(sc, slot, idx)
	if h.IsVoid() {
		zero, err := it.Heap.Alloc(heap.Void)
		if err != nil {
			return err
		}
		h = zero
	}
	sc.Push(h)
	return nil
}

// opNoopStackNeutral serves the hilite/sprite-membership/tell-block
// markers: they carry no operand the interpreter needs to act on since
// this core has no rendering surface, but must still advance cleanly.
func opNoopStackNeutral(it *Interpreter, sc *Scope, bc container.Bytecode) error {
	return nil
}
