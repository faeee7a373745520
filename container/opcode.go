// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

// OpCode is a bytecode instruction tag, drawn from the fixed ~70-member
// enum the original Lingo compiler emits. Values match the wire encoding
// exactly — this is the one part of the format that must be bit-exact.
type OpCode uint16

const (
	OpInvalid OpCode = 0x00

	// one-byte (no operand)
	OpRet          OpCode = 0x01
	OpRetFactory   OpCode = 0x02
	OpPushZero     OpCode = 0x03
	OpMul          OpCode = 0x04
	OpAdd          OpCode = 0x05
	OpSub          OpCode = 0x06
	OpDiv          OpCode = 0x07
	OpMod          OpCode = 0x08
	OpInv          OpCode = 0x09
	OpJoinStr      OpCode = 0x0a
	OpJoinPadStr   OpCode = 0x0b
	OpLt           OpCode = 0x0c
	OpLtEq         OpCode = 0x0d
	OpNtEq         OpCode = 0x0e
	OpEq           OpCode = 0x0f
	OpGt           OpCode = 0x10
	OpGtEq         OpCode = 0x11
	OpAnd          OpCode = 0x12
	OpOr           OpCode = 0x13
	OpNot          OpCode = 0x14
	OpContainsStr  OpCode = 0x15
	OpContains0Str OpCode = 0x16
	OpGetChunk     OpCode = 0x17
	OpHiliteChunk  OpCode = 0x18
	OpOntoSpr      OpCode = 0x19
	OpIntoSpr      OpCode = 0x1a
	OpGetField     OpCode = 0x1b
	OpStartTell    OpCode = 0x1c
	OpEndTell      OpCode = 0x1d
	OpPushList     OpCode = 0x1e
	OpPushPropList OpCode = 0x1f
	OpSwap         OpCode = 0x21
	OpCallJavaScript OpCode = 0x26

	// multi-byte (1, 2, or 4 byte operand depending on the id's range)
	OpPushInt8          OpCode = 0x41
	OpPushArgListNoRet  OpCode = 0x42
	OpPushArgList       OpCode = 0x43
	OpPushCons          OpCode = 0x44
	OpPushSymb          OpCode = 0x45
	OpPushVarRef        OpCode = 0x46
	OpGetGlobal2        OpCode = 0x48
	OpGetGlobal         OpCode = 0x49
	OpGetProp           OpCode = 0x4a
	OpGetParam          OpCode = 0x4b
	OpGetLocal          OpCode = 0x4c
	OpSetGlobal2        OpCode = 0x4e
	OpSetGlobal         OpCode = 0x4f
	OpSetProp           OpCode = 0x50
	OpSetParam          OpCode = 0x51
	OpSetLocal          OpCode = 0x52
	OpJmp               OpCode = 0x53
	OpEndRepeat         OpCode = 0x54
	OpJmpIfZ            OpCode = 0x55
	OpLocalCall         OpCode = 0x56
	OpExtCall           OpCode = 0x57
	OpObjCallV4         OpCode = 0x58
	OpPut               OpCode = 0x59
	OpPutChunk          OpCode = 0x5a
	OpDeleteChunk       OpCode = 0x5b
	OpGet               OpCode = 0x5c
	OpSet               OpCode = 0x5d
	OpGetMovieProp      OpCode = 0x5f
	OpSetMovieProp      OpCode = 0x60
	OpGetObjProp        OpCode = 0x61
	OpSetObjProp        OpCode = 0x62
	OpTellCall          OpCode = 0x63
	OpPeek              OpCode = 0x64
	OpPop               OpCode = 0x65
	OpTheBuiltin        OpCode = 0x66
	OpObjCall           OpCode = 0x67
	OpPushChunkVarRef   OpCode = 0x6d
	OpPushInt16         OpCode = 0x6e
	OpPushInt32         OpCode = 0x6f
	OpGetChainedProp    OpCode = 0x70
	OpPushFloat32       OpCode = 0x71
	OpGetTopLevelProp   OpCode = 0x72
	OpNewObj            OpCode = 0x73
)

// FoldOpCode applies the wire format's extended-operand folding: any
// opcode id outside the defined one-byte range (>= 0x40) that doesn't name
// a known multi-byte op is re-interpreted as 0x40 + (id mod 0x40).
func FoldOpCode(id uint16) OpCode {
	if id >= 0x40 {
		return OpCode(0x40 + id%0x40)
	}
	return OpCode(id)
}

// OperandWidth returns how many operand bytes a raw (pre-fold) opcode byte
// carries: 0 for ids below 0x40, 1/2/4 for the 0x40/0x80/0xc0 bands.
func OperandWidth(rawID uint16) int {
	switch {
	case rawID >= 0xc0:
		return 4
	case rawID >= 0x80:
		return 2
	case rawID >= 0x40:
		return 1
	default:
		return 0
	}
}

var opcodeNames = map[OpCode]string{
	OpRet: "ret", OpRetFactory: "retFactory", OpPushZero: "pushZero",
	OpMul: "mul", OpAdd: "add", OpSub: "sub", OpDiv: "div", OpMod: "mod", OpInv: "inv",
	OpJoinStr: "joinStr", OpJoinPadStr: "joinPadStr",
	OpLt: "lt", OpLtEq: "ltEq", OpNtEq: "ntEq", OpEq: "eq", OpGt: "gt", OpGtEq: "gtEq",
	OpAnd: "and", OpOr: "or", OpNot: "not",
	OpContainsStr: "containsStr", OpContains0Str: "contains0Str", OpGetChunk: "getChunk",
	OpHiliteChunk: "hiliteChunk", OpOntoSpr: "ontoSpr", OpIntoSpr: "intoSpr",
	OpGetField: "getField", OpStartTell: "startTell", OpEndTell: "endTell",
	OpPushList: "pushList", OpPushPropList: "pushPropList", OpSwap: "swap",
	OpCallJavaScript: "callJavaScript",
	OpPushInt8: "pushInt8", OpPushArgListNoRet: "pushArgListNoRet", OpPushArgList: "pushArgList",
	OpPushCons: "pushCons", OpPushSymb: "pushSymb", OpPushVarRef: "pushVarRef",
	OpGetGlobal2: "getGlobal2", OpGetGlobal: "getGlobal", OpGetProp: "getProp",
	OpGetParam: "getParam", OpGetLocal: "getLocal", OpSetGlobal2: "setGlobal2",
	OpSetGlobal: "setGlobal", OpSetProp: "setProp", OpSetParam: "setParam",
	OpSetLocal: "setLocal", OpJmp: "jmp", OpEndRepeat: "endRepeat", OpJmpIfZ: "jmpIfZ",
	OpLocalCall: "localCall", OpExtCall: "extCall", OpObjCallV4: "objCallV4",
	OpPut: "put", OpPutChunk: "putChunk", OpDeleteChunk: "deleteChunk",
	OpGet: "get", OpSet: "set", OpGetMovieProp: "getMovieProp", OpSetMovieProp: "setMovieProp",
	OpGetObjProp: "getObjProp", OpSetObjProp: "setObjProp", OpTellCall: "tellCall",
	OpPeek: "peek", OpPop: "pop", OpTheBuiltin: "theBuiltin", OpObjCall: "objCall",
	OpPushChunkVarRef: "pushChunkVarRef", OpPushInt16: "pushInt16", OpPushInt32: "pushInt32",
	OpGetChainedProp: "getChainedProp", OpPushFloat32: "pushFloat32",
	OpGetTopLevelProp: "getTopLevelProp", OpNewObj: "newObj",
}

// String renders an opcode's mnemonic, or "unknownBytecode" for an id with
// no registered name (which FoldOpCode should make rare but not
// impossible, e.g. reserved ids within the one-byte range).
func (op OpCode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "unknownBytecode"
}

// signedOperand reports whether an opcode's operand is sign-extended
// (PushInt8/PushInt16) versus zero-extended then interpreted per opcode
// semantics (everything else).
func signedOperand(op OpCode) bool {
	return op == OpPushInt8 || op == OpPushInt16
}
