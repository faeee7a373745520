// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

import (
	"encoding/binary"
	"math"
)

// ScriptContextMapEntry binds a script-context slot to the section holding
// its compiled Script chunk (or -1/0 for an unused slot).
type ScriptContextMapEntry struct {
	SectionID int32
}

// ScriptContextChunk ("LctX"/"Lctx") is a cast library's table of compiled
// scripts: one entry per script slot, plus the section id of the shared
// name table ("Lnam") every script in the library indexes into.
type ScriptContextChunk struct {
	LnamSectionID uint32
	SectionMap    []ScriptContextMapEntry
	// CapitalX records whether the chunk was tagged "LctX" (true) versus
	// "Lctx" (false); HandlerRecord decoding reads one extra stack-height
	// field under the capital-X variant.
	CapitalX bool
}

func decodeScriptContext(body []byte, capitalX bool) (*ScriptContextChunk, error) {
	br := newByteReader(body, binary.BigEndian)

	if _, err := br.u32(); err != nil { // unknown0
		return nil, err
	}
	if _, err := br.u32(); err != nil { // unknown1
		return nil, err
	}
	entryCount, err := br.u32()
	if err != nil {
		return nil, err
	}
	if _, err := br.u32(); err != nil { // entry_count2
		return nil, err
	}
	entriesOffset, err := br.u16()
	if err != nil {
		return nil, err
	}
	if _, err := br.u16(); err != nil { // unknown2
		return nil, err
	}
	if _, err := br.u32(); err != nil { // unknown3
		return nil, err
	}
	if _, err := br.u32(); err != nil { // unknown4
		return nil, err
	}
	if _, err := br.u32(); err != nil { // unknown5
		return nil, err
	}
	lnamSectionID, err := br.u32()
	if err != nil {
		return nil, err
	}
	if _, err := br.u16(); err != nil { // valid_count
		return nil, err
	}
	if _, err := br.u16(); err != nil { // flags
		return nil, err
	}
	if _, err := br.u16(); err != nil { // free_pointer
		return nil, err
	}

	br.jmp(int(entriesOffset))
	entries := make([]ScriptContextMapEntry, entryCount)
	for i := range entries {
		if _, err := br.u32(); err != nil { // unknown0
			return nil, err
		}
		sectionID, err := br.i32()
		if err != nil {
			return nil, err
		}
		if _, err := br.u16(); err != nil { // unknown1
			return nil, err
		}
		if _, err := br.u16(); err != nil { // unknown2
			return nil, err
		}
		entries[i] = ScriptContextMapEntry{SectionID: sectionID}
	}

	return &ScriptContextChunk{
		LnamSectionID: lnamSectionID,
		SectionMap:    entries,
		CapitalX:      capitalX,
	}, nil
}

// ScriptNamesChunk ("Lnam") is the shared string table every Script record
// in a script context indexes into for identifiers, property names, and
// method names.
type ScriptNamesChunk struct {
	Names []string
}

func decodeScriptNames(body []byte) (*ScriptNamesChunk, error) {
	br := newByteReader(body, binary.BigEndian)

	if _, err := br.u32(); err != nil { // unknown0
		return nil, err
	}
	if _, err := br.u32(); err != nil { // unknown1
		return nil, err
	}
	if _, err := br.u32(); err != nil { // len1
		return nil, err
	}
	if _, err := br.u32(); err != nil { // len2
		return nil, err
	}
	namesOffset, err := br.u16()
	if err != nil {
		return nil, err
	}
	namesCount, err := br.u16()
	if err != nil {
		return nil, err
	}

	br.jmp(int(namesOffset))
	names := make([]string, namesCount)
	for i := range names {
		s, err := br.pascalString()
		if err != nil {
			return nil, err
		}
		names[i] = s
	}
	return &ScriptNamesChunk{Names: names}, nil
}

// LiteralKind tags a literal table entry's decoded shape. Numeric values
// match the wire tag the container stores.
type LiteralKind uint8

const (
	LiteralInvalid LiteralKind = 0
	LiteralString  LiteralKind = 1
	LiteralInt     LiteralKind = 4
	LiteralFloat   LiteralKind = 9
)

// Literal is one decoded entry from a Script's literal table. Exactly one
// of Str/Int/Float is meaningful, selected by Kind.
type Literal struct {
	Kind  LiteralKind
	Int   int32
	Float float64
	Str   string
}

type literalRecord struct {
	kind   LiteralKind
	offset uint32
}

func readLiteralRecord(br *byteReader, dirVersion uint16) (literalRecord, error) {
	var raw uint32
	var err error
	if dirVersion >= 500 {
		raw, err = br.u32()
	} else {
		var v16 uint16
		v16, err = br.u16()
		raw = uint32(v16)
	}
	if err != nil {
		return literalRecord{}, err
	}
	offset, err := br.u32()
	if err != nil {
		return literalRecord{}, err
	}
	return literalRecord{kind: LiteralKind(raw), offset: offset}, nil
}

func readLiteralData(br *byteReader, rec literalRecord, literalsDataOffset int) (Literal, error) {
	if rec.kind == LiteralInt {
		return Literal{Kind: LiteralInt, Int: int32(rec.offset)}, nil
	}

	br.jmp(literalsDataOffset + int(rec.offset))
	length, err := br.u32()
	if err != nil {
		return Literal{}, err
	}

	switch rec.kind {
	case LiteralString:
		if length == 0 {
			return Literal{Kind: LiteralString}, nil
		}
		b, err := br.bytes(int(length) - 1)
		if err != nil {
			return Literal{}, err
		}
		return Literal{Kind: LiteralString, Str: string(b)}, nil
	case LiteralFloat:
		var f float64
		switch length {
		case 8:
			bits, err := br.u32()
			if err != nil {
				return Literal{}, err
			}
			f = float64(math.Float32frombits(bits))
		case 10:
			f, err = br.appleFloat80()
			if err != nil {
				return Literal{}, err
			}
		}
		return Literal{Kind: LiteralFloat, Float: f}, nil
	default:
		return Literal{Kind: LiteralInvalid}, nil
	}
}

// Bytecode is one decoded instruction: opcode plus its (already
// width-resolved, already sign/zero-extended) operand and its byte offset
// within the handler's compiled region.
type Bytecode struct {
	Op  OpCode
	Arg int64
	Pos int
}

// HandlerDef is one compiled handler (event or user-defined method): its
// name id, bytecode stream, a position→index map for jump-target
// resolution, and its argument/local/global name-id tables.
type HandlerDef struct {
	NameID            uint16
	Bytecode          []Bytecode
	BytecodeIndexByPos map[int]int
	ArgumentNameIDs   []uint16
	LocalNameIDs      []uint16
	GlobalNameIDs     []uint16
}

type handlerRecord struct {
	nameID          uint16
	compiledLen     int
	compiledOffset  int
	argumentCount   int
	argumentOffset  int
	localsCount     int
	localsOffset    int
	globalsCount    int
	globalsOffset   int
}

func readHandlerRecord(br *byteReader, capitalX bool) (handlerRecord, error) {
	var rec handlerRecord
	var err error

	rec.nameID, err = br.u16()
	if err != nil {
		return rec, err
	}
	if _, err = br.u16(); err != nil { // vector_pos
		return rec, err
	}
	v, err := br.u32()
	if err != nil {
		return rec, err
	}
	rec.compiledLen = int(v)
	v, err = br.u32()
	if err != nil {
		return rec, err
	}
	rec.compiledOffset = int(v)

	argc, err := br.u16()
	if err != nil {
		return rec, err
	}
	rec.argumentCount = int(argc)
	v, err = br.u32()
	if err != nil {
		return rec, err
	}
	rec.argumentOffset = int(v)

	localc, err := br.u16()
	if err != nil {
		return rec, err
	}
	rec.localsCount = int(localc)
	v, err = br.u32()
	if err != nil {
		return rec, err
	}
	rec.localsOffset = int(v)

	globalc, err := br.u16()
	if err != nil {
		return rec, err
	}
	rec.globalsCount = int(globalc)
	v, err = br.u32()
	if err != nil {
		return rec, err
	}
	rec.globalsOffset = int(v)

	if _, err = br.u32(); err != nil { // unknown1
		return rec, err
	}
	if _, err = br.u16(); err != nil { // unknown2
		return rec, err
	}
	if _, err = br.u16(); err != nil { // line_count
		return rec, err
	}
	if _, err = br.u32(); err != nil { // line_offset
		return rec, err
	}
	if capitalX {
		if _, err = br.u32(); err != nil { // stack_height, unused downstream
			return rec, err
		}
	}
	return rec, nil
}

func readVarNameIDs(br *byteReader, count, offset int) ([]uint16, error) {
	br.jmp(offset)
	ids := make([]uint16, count)
	for i := range ids {
		v, err := br.u16()
		if err != nil {
			return nil, err
		}
		ids[i] = v
	}
	return ids, nil
}

// readHandlerData decodes a handler's bytecode stream and variable-name
// tables, applying the wire format's opcode-folding and
// operand-width/sign-extension rules exactly.
func readHandlerData(br *byteReader, rec handlerRecord) (HandlerDef, error) {
	var bytecode []Bytecode
	byPos := make(map[int]int)

	br.jmp(rec.compiledOffset)
	for br.pos < rec.compiledOffset+rec.compiledLen {
		pos := br.pos - rec.compiledOffset
		rawID, err := br.u8()
		if err != nil {
			return HandlerDef{}, err
		}
		op := FoldOpCode(uint16(rawID))

		var arg int64
		switch OperandWidth(uint16(rawID)) {
		case 4:
			v, err := br.i32()
			if err != nil {
				return HandlerDef{}, err
			}
			arg = int64(v)
		case 2:
			if signedOperand(op) {
				v, err := br.i16()
				if err != nil {
					return HandlerDef{}, err
				}
				arg = int64(v)
			} else {
				v, err := br.u16()
				if err != nil {
					return HandlerDef{}, err
				}
				arg = int64(v)
			}
		case 1:
			if op == OpPushInt8 {
				v, err := br.i8()
				if err != nil {
					return HandlerDef{}, err
				}
				arg = int64(v)
			} else {
				v, err := br.u8()
				if err != nil {
					return HandlerDef{}, err
				}
				arg = int64(v)
			}
		}

		byPos[pos] = len(bytecode)
		bytecode = append(bytecode, Bytecode{Op: op, Arg: arg, Pos: pos})
	}

	argIDs, err := readVarNameIDs(br, rec.argumentCount, rec.argumentOffset)
	if err != nil {
		return HandlerDef{}, err
	}
	localIDs, err := readVarNameIDs(br, rec.localsCount, rec.localsOffset)
	if err != nil {
		return HandlerDef{}, err
	}
	globalIDs, err := readVarNameIDs(br, rec.globalsCount, rec.globalsOffset)
	if err != nil {
		return HandlerDef{}, err
	}

	return HandlerDef{
		NameID:             rec.nameID,
		Bytecode:           bytecode,
		BytecodeIndexByPos: byPos,
		ArgumentNameIDs:    argIDs,
		LocalNameIDs:       localIDs,
		GlobalNameIDs:      globalIDs,
	}, nil
}

// ScriptChunk ("Lscr") is one compiled script: its literal table, its
// handler table, and the property ids it declares (with defaults sourced
// positionally from the literal table, mirroring the original compiler's
// layout convention).
type ScriptChunk struct {
	Literals           []Literal
	Handlers           []HandlerDef
	PropertyNameIDs    []uint16
	PropertyDefaults   map[uint16]Literal
}

func decodeScript(body []byte, dirVersion uint16, capitalX bool) (*ScriptChunk, error) {
	br := newByteReader(body, binary.BigEndian)
	br.jmp(8)

	if _, err := br.u32(); err != nil { // total_length
		return nil, err
	}
	if _, err := br.u32(); err != nil { // total_length2
		return nil, err
	}
	if _, err := br.u16(); err != nil { // header_length
		return nil, err
	}
	if _, err := br.u16(); err != nil { // script_number
		return nil, err
	}
	if _, err := br.u16(); err != nil { // unk20
		return nil, err
	}
	if _, err := br.u16(); err != nil { // parent_number
		return nil, err
	}

	br.jmp(38)
	if _, err := br.u32(); err != nil { // script_flags
		return nil, err
	}
	if _, err := br.u16(); err != nil { // unk42
		return nil, err
	}
	if _, err := br.u32(); err != nil { // cast_id
		return nil, err
	}
	if _, err := br.u16(); err != nil { // factory_name_id
		return nil, err
	}
	if _, err := br.u16(); err != nil { // handler_vectors_count
		return nil, err
	}
	if _, err := br.u32(); err != nil { // handler_vectors_offset
		return nil, err
	}
	if _, err := br.u32(); err != nil { // handler_vectors_size
		return nil, err
	}

	propsCount, err := br.u16()
	if err != nil {
		return nil, err
	}
	propsOffsetRaw, err := br.u32()
	if err != nil {
		return nil, err
	}
	globalsCount, err := br.u16()
	if err != nil {
		return nil, err
	}
	globalsOffsetRaw, err := br.u32()
	if err != nil {
		return nil, err
	}
	handlersCount, err := br.u16()
	if err != nil {
		return nil, err
	}
	handlersOffset, err := br.u32()
	if err != nil {
		return nil, err
	}
	literalsCount, err := br.u16()
	if err != nil {
		return nil, err
	}
	literalsOffset, err := br.u32()
	if err != nil {
		return nil, err
	}
	if _, err := br.u32(); err != nil { // literals_data_count
		return nil, err
	}
	literalsDataOffset, err := br.u32()
	if err != nil {
		return nil, err
	}

	propertyNameIDs, err := readVarNameIDs(br, int(propsCount), int(propsOffsetRaw))
	if err != nil {
		return nil, err
	}
	if _, err := readVarNameIDs(br, int(globalsCount), int(globalsOffsetRaw)); err != nil {
		return nil, err
	}

	br.jmp(int(handlersOffset))
	records := make([]handlerRecord, handlersCount)
	for i := range records {
		rec, err := readHandlerRecord(br, capitalX)
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}

	handlers := make([]HandlerDef, len(records))
	for i, rec := range records {
		h, err := readHandlerData(br, rec)
		if err != nil {
			return nil, err
		}
		handlers[i] = h
	}

	br.jmp(int(literalsOffset))
	litRecords := make([]literalRecord, literalsCount)
	for i := range litRecords {
		rec, err := readLiteralRecord(br, dirVersion)
		if err != nil {
			return nil, err
		}
		litRecords[i] = rec
	}

	literals := make([]Literal, len(litRecords))
	for i, rec := range litRecords {
		lit, err := readLiteralData(br, rec, int(literalsDataOffset))
		if err != nil {
			return nil, err
		}
		literals[i] = lit
	}

	propertyDefaults := make(map[uint16]Literal, len(propertyNameIDs))
	for i, propID := range propertyNameIDs {
		if i >= len(literals) {
			break
		}
		if _, ok := propertyDefaults[propID]; !ok {
			propertyDefaults[propID] = literals[i]
		}
	}

	return &ScriptChunk{
		Literals:         literals,
		Handlers:         handlers,
		PropertyNameIDs:  propertyNameIDs,
		PropertyDefaults: propertyDefaults,
	}, nil
}
