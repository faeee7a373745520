// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"math"
	"strings"

	"github.com/stagevm/core/heap"
)

// callBuiltin dispatches a method call to the closed per-type handler
// table a typed value exposes: List/PropList collection methods, String
// chunk/case operations, and Cast member accessors. Grounded on
// player/handlers/datum_handlers/list_handlers.rs's handler-name switch,
// generalized across every other receiver type that carries its own
// builtin methods.
func (it *Interpreter) callBuiltin(receiverHandle heap.Handle, receiver heap.Value, name string, args []heap.Handle) (heap.Handle, bool, error) {
	switch receiver.Kind {
	case heap.KindList:
		return it.listBuiltin(receiverHandle, receiver, name, args)
	case heap.KindPropList:
		return it.propListBuiltin(receiverHandle, receiver, name, args)
	case heap.KindString:
		return it.stringBuiltin(receiver, name, args)
	case heap.KindCastMemberRef:
		return it.memberBuiltin(receiverHandle, receiver, name, args)
	case heap.KindBitmapRef:
		return it.bitmapBuiltin(receiver, name, args)
	case heap.KindDateRef:
		return it.dateBuiltin(receiver, name, args)
	default:
		return heap.Handle{}, false, nil
	}
}

func (it *Interpreter) arg(args []heap.Handle, i int) heap.Value {
	if i < 0 || i >= len(args) {
		return heap.Void
	}
	v, _ := it.Heap.Get(args[i])
	return v
}

func (it *Interpreter) allocResult(v heap.Value) (heap.Handle, bool, error) {
	h, err := it.Heap.Alloc(v)
	return h, err == nil, err
}

// listBuiltin implements the List method table. Receiver mutation goes
// through Heap.GetMut so `add`/`sort`/`setAt` observe the same backing
// slot every caller's handle still refers to.
func (it *Interpreter) listBuiltin(receiverHandle heap.Handle, receiver heap.Value, name string, args []heap.Handle) (heap.Handle, bool, error) {
	switch name {
	case "count", "getProp":
		if name == "getProp" && it.arg(args, 0).Kind == heap.KindSymbol && it.arg(args, 0).Symbol == "ilk" {
			return it.allocResult(heap.NewSymbol("list"))
		}
		return it.allocResult(heap.NewInt(int64(len(receiver.List))))

	case "getAt":
		idx := int(intOf(it.arg(args, 0))) - 1
		if idx < 0 || idx >= len(receiver.List) {
			return heap.Handle{}, true, ErrIndexOutOfBounds
		}
		return receiver.List[idx], true, nil

	case "setAt":
		return it.mutateList(receiverHandle, func(v *heap.Value) (heap.Handle, error) {
			idx := int(intOf(it.arg(args, 0)))
			if idx-1 < len(v.List) {
				v.List[idx-1] = args[1]
			} else {
				for len(v.List) < idx-1 {
					v.List = append(v.List, heap.Handle{})
				}
				v.List = append(v.List, args[1])
			}
			return heap.Handle{}, nil
		})

	case "getOne", "findPos", "getPos":
		for i, eh := range receiver.List {
			if it.Heap.Equal(eh, args[0]) {
				return it.allocResult(heap.NewInt(int64(i + 1)))
			}
		}
		return it.allocResult(heap.NewInt(0))

	case "getLast":
		if len(receiver.List) == 0 {
			return heap.Handle{}, true, nil
		}
		return receiver.List[len(receiver.List)-1], true, nil

	case "add":
		return it.mutateList(receiverHandle, func(v *heap.Value) (heap.Handle, error) {
			item := args[0]
			if v.ListSorted {
				idx := it.sortedInsertIndex(v.List, item)
				v.List = append(v.List, heap.Handle{})
				copy(v.List[idx+1:], v.List[idx:])
				v.List[idx] = item
			} else {
				v.List = append(v.List, item)
			}
			return heap.Handle{}, nil
		})

	case "addAt":
		return it.mutateList(receiverHandle, func(v *heap.Value) (heap.Handle, error) {
			idx := int(intOf(it.arg(args, 0))) - 1
			if idx < 0 || idx > len(v.List) {
				return heap.Handle{}, ErrIndexOutOfBounds
			}
			v.List = append(v.List, heap.Handle{})
			copy(v.List[idx+1:], v.List[idx:])
			v.List[idx] = args[1]
			return heap.Handle{}, nil
		})

	case "append":
		return it.mutateList(receiverHandle, func(v *heap.Value) (heap.Handle, error) {
			v.List = append(v.List, args[0])
			return heap.Handle{}, nil
		})

	case "deleteOne":
		found := false
		return it.mutateList(receiverHandle, func(v *heap.Value) (heap.Handle, error) {
			for i, eh := range v.List {
				if it.Heap.Equal(eh, args[0]) {
					v.List = append(v.List[:i], v.List[i+1:]...)
					found = true
					break
				}
			}
			h, err := it.Heap.Alloc(boolValue(found))
			return h, err
		})

	case "deleteAt":
		return it.mutateList(receiverHandle, func(v *heap.Value) (heap.Handle, error) {
			idx := int(intOf(it.arg(args, 0))) - 1
			if idx < 0 || idx >= len(v.List) {
				return heap.Handle{}, ErrIndexOutOfBounds
			}
			v.List = append(v.List[:idx], v.List[idx+1:]...)
			return heap.Handle{}, nil
		})

	case "sort":
		return it.mutateList(receiverHandle, func(v *heap.Value) (heap.Handle, error) {
			it.sortList(v.List)
			v.ListSorted = true
			return heap.Handle{}, nil
		})

	case "duplicate":
		dup := make([]heap.Handle, len(receiver.List))
		copy(dup, receiver.List)
		return it.allocResult(heap.NewList(receiver.ListKind, dup))

	default:
		return heap.Handle{}, false, nil
	}
}

// mutateList resolves h to its live Value slot via GetMut and applies fn
// directly against it, so the mutation is visible through every other
// handle referencing the same list/propList slot.
func (it *Interpreter) mutateList(h heap.Handle, fn func(v *heap.Value) (heap.Handle, error)) (heap.Handle, bool, error) {
	if v := it.Heap.GetMut(h); v != nil && (v.Kind == heap.KindList || v.Kind == heap.KindPropList) {
		res, err := fn(v)
		return res, err == nil, err
	}
	return heap.Handle{}, false, ErrTypeMismatch
}

func (it *Interpreter) sortedInsertIndex(list []heap.Handle, item heap.Handle) int {
	lo, hi := 0, len(list)
	for lo < hi {
		mid := (lo + hi) / 2
		if less, ok := it.Heap.Less(list[mid], item); ok && less {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (it *Interpreter) sortList(list []heap.Handle) {
	for i := 1; i < len(list); i++ {
		for j := i; j > 0; j-- {
			if less, ok := it.Heap.Less(list[j], list[j-1]); ok && less {
				list[j], list[j-1] = list[j-1], list[j]
			} else {
				break
			}
		}
	}
}

// propListBuiltin implements the PropList method table: key lookup
// compares a string against a symbol of the same text.
func (it *Interpreter) propListBuiltin(receiverHandle heap.Handle, receiver heap.Value, name string, args []heap.Handle) (heap.Handle, bool, error) {
	keyMatches := func(entryKey heap.Handle, wanted heap.Value) bool {
		kv, ok := it.Heap.Get(entryKey)
		if !ok {
			return false
		}
		wantedText := propKeyText(wanted)
		return wantedText != "" && strings.EqualFold(propKeyText(kv), wantedText)
	}

	switch name {
	case "count":
		return it.allocResult(heap.NewInt(int64(len(receiver.PropList))))

	case "getProp", "getaProp":
		wanted := it.arg(args, 0)
		for _, e := range receiver.PropList {
			if keyMatches(e.Key, wanted) {
				return e.Value, true, nil
			}
		}
		return heap.Handle{}, true, nil

	case "setProp", "setaProp":
		return it.mutateList(receiverHandle, func(v *heap.Value) (heap.Handle, error) {
			wanted := it.arg(args, 0)
			for i, e := range v.PropList {
				if keyMatches(e.Key, wanted) {
					v.PropList[i].Value = args[1]
					return heap.Handle{}, nil
				}
			}
			v.PropList = append(v.PropList, heap.PropListEntry{Key: args[0], Value: args[1]})
			return heap.Handle{}, nil
		})

	case "addProp":
		return it.mutateList(receiverHandle, func(v *heap.Value) (heap.Handle, error) {
			v.PropList = append(v.PropList, heap.PropListEntry{Key: args[0], Value: args[1]})
			return heap.Handle{}, nil
		})

	case "getPropAt":
		idx := int(intOf(it.arg(args, 0))) - 1
		if idx < 0 || idx >= len(receiver.PropList) {
			return heap.Handle{}, true, ErrIndexOutOfBounds
		}
		return receiver.PropList[idx].Value, true, nil

	case "findPos", "getPos":
		wanted := it.arg(args, 0)
		for i, e := range receiver.PropList {
			if keyMatches(e.Key, wanted) {
				return it.allocResult(heap.NewInt(int64(i + 1)))
			}
		}
		return it.allocResult(heap.NewInt(0))

	case "duplicate":
		dup := make([]heap.PropListEntry, len(receiver.PropList))
		copy(dup, receiver.PropList)
		return it.allocResult(heap.Value{Kind: heap.KindPropList, PropList: dup})

	default:
		return heap.Handle{}, false, nil
	}
}

func propKeyText(v heap.Value) string {
	switch v.Kind {
	case heap.KindSymbol:
		return v.Symbol
	case heap.KindString:
		return v.Str
	default:
		return ""
	}
}

// stringBuiltin implements the String method table's chunk-counting,
// splitting, and character-level operations; comparisons elsewhere in
// the interpreter already apply case-insensitivity.
func (it *Interpreter) stringBuiltin(receiver heap.Value, name string, args []heap.Handle) (heap.Handle, bool, error) {
	s := receiver.Str
	switch name {
	case "length", "getProp":
		if name == "getProp" && it.arg(args, 0).Kind == heap.KindSymbol && it.arg(args, 0).Symbol == "ilk" {
			return it.allocResult(heap.NewSymbol("string"))
		}
		return it.allocResult(heap.NewInt(int64(len([]rune(s)))))

	case "count":
		kind := chunkKindFromSymbol(it.arg(args, 0))
		return it.allocResult(heap.NewInt(int64(len(it.splitChunks(s, kind)))))

	case "split":
		delim := it.arg(args, 0)
		sep := propKeyText(delim)
		if sep == "" {
			sep = delim.Str
		}
		parts := strings.Split(s, sep)
		items := make([]heap.Handle, len(parts))
		for i, p := range parts {
			h, err := it.Heap.Alloc(heap.NewString(p))
			if err != nil {
				return heap.Handle{}, false, err
			}
			items[i] = h
		}
		return it.allocResult(heap.NewList(heap.ListPlain, items))

	case "offset":
		needle := it.arg(args, 0).Str
		idx := strings.Index(strings.ToLower(s), strings.ToLower(needle))
		return it.allocResult(heap.NewInt(int64(idx + 1)))

	case "chars":
		runes := []rune(s)
		start := int(intOf(it.arg(args, 0)))
		end := int(intOf(it.arg(args, 1)))
		if end == 0 || end > len(runes) {
			end = len(runes)
		}
		if start < 1 {
			start = 1
		}
		if start > end {
			return it.allocResult(heap.NewString(""))
		}
		return it.allocResult(heap.NewString(string(runes[start-1 : end])))

	case "charToNum":
		runes := []rune(s)
		if len(runes) == 0 {
			return it.allocResult(heap.NewInt(0))
		}
		return it.allocResult(heap.NewInt(int64(runes[0])))

	case "numToChar":
		n := intOf(it.arg(args, 0))
		return it.allocResult(heap.NewString(string(rune(n))))

	default:
		return heap.Handle{}, false, nil
	}
}

func chunkKindFromSymbol(v heap.Value) chunkKind {
	switch propKeyText(v) {
	case "word":
		return chunkWord
	case "item":
		return chunkItem
	case "line":
		return chunkLine
	default:
		return chunkChar
	}
}

// memberBuiltin implements a reduced Cast member method table: the
// charPosToLoc/locToCharPos text-layout queries have no renderer behind
// them in this core, so they return a best-effort default of 0 rather
// than failing calls scripts commonly make defensively; erase removes the
// member from its library.
func (it *Interpreter) memberBuiltin(receiverHandle heap.Handle, receiver heap.Value, name string, args []heap.Handle) (heap.Handle, bool, error) {
	member, ok := it.Casts.GetMember(receiver.MemberRef)
	if !ok {
		return heap.Handle{}, true, ErrHandlerNotFound
	}
	switch name {
	case "count":
		return it.allocResult(heap.NewInt(int64(len(member.Text))))
	case "erase":
		it.Casts.RemoveMember(receiver.MemberRef)
		return heap.Handle{}, true, nil
	case "duplicate":
		return it.allocResult(receiver)
	case "getProp":
		propName := propKeyText(it.arg(args, 0))
		h, handled, err := it.getObjectProperty(receiverHandle, receiver, propName)
		return h, handled, err
	case "charPosToLoc", "locToCharPos":
		return it.allocResult(heap.NewInt(0))
	default:
		return heap.Handle{}, false, nil
	}
}

// callGlobalBuiltin serves bare-name calls with no receiver (ExtCall):
// the Math library (pi sin cos tan abs ceil floor round min max pow log
// exp sqrt) plus the handful of global conversion helpers.
func (it *Interpreter) callGlobalBuiltin(name string, args []heap.Handle) (heap.Handle, bool, error) {
	f := func(i int) float64 { return asFloat(it.arg(args, i)) }

	switch strings.ToLower(name) {
	case "pi":
		return it.allocResult(heap.NewFloat(math.Pi))
	case "sin":
		return it.allocResult(heap.NewFloat(math.Sin(f(0))))
	case "cos":
		return it.allocResult(heap.NewFloat(math.Cos(f(0))))
	case "tan":
		return it.allocResult(heap.NewFloat(math.Tan(f(0))))
	case "sqrt":
		return it.allocResult(heap.NewFloat(math.Sqrt(f(0))))
	case "abs":
		v := it.arg(args, 0)
		if v.Kind == heap.KindInt {
			n := v.Int
			if n < 0 {
				n = -n
			}
			return it.allocResult(heap.NewInt(n))
		}
		return it.allocResult(heap.NewFloat(math.Abs(f(0))))
	case "ceil":
		return it.allocResult(heap.NewFloat(math.Ceil(f(0))))
	case "floor":
		return it.allocResult(heap.NewFloat(math.Floor(f(0))))
	case "round":
		return it.allocResult(heap.NewInt(int64(math.Round(f(0)))))
	case "pow":
		return it.allocResult(heap.NewFloat(math.Pow(f(0), f(1))))
	case "log":
		return it.allocResult(heap.NewFloat(math.Log(f(0))))
	case "exp":
		return it.allocResult(heap.NewFloat(math.Exp(f(0))))
	case "min":
		if len(args) == 0 {
			return it.allocResult(heap.NewInt(0))
		}
		best := 0
		for i := 1; i < len(args); i++ {
			if less, ok := it.Heap.Less(args[i], args[best]); ok && less {
				best = i
			}
		}
		return it.allocResult(it.arg(args, best))
	case "max":
		if len(args) == 0 {
			return it.allocResult(heap.NewInt(0))
		}
		best := 0
		for i := 1; i < len(args); i++ {
			if less, ok := it.Heap.Less(args[best], args[i]); ok && less {
				best = i
			}
		}
		return it.allocResult(it.arg(args, best))
	case "integer":
		return it.allocResult(heap.NewInt(int64(f(0))))
	case "float":
		return it.allocResult(heap.NewFloat(f(0)))
	case "string":
		return it.allocResult(heap.NewString(concatValue(it.arg(args, 0))))
	case "date":
		return it.newDateBuiltin(args)
	default:
		return heap.Handle{}, false, nil
	}
}
