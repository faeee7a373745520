// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import (
	"time"

	"github.com/stagevm/core/heap"
)

// DateObject is a live Date datum: an id plus the instant it wraps.
// Grounded on player/handlers/datum_handlers/date.rs's DateObject.
type DateObject struct {
	ID   int32
	When time.Time
}

// DateRegistry owns every live DateObject, keyed by the int32 id a
// heap.Value's DateRef carries, mirroring XtraRegistry's id-table shape.
type DateRegistry struct {
	objects map[int32]*DateObject
	nextID  int32
}

// NewDateRegistry returns an empty registry.
func NewDateRegistry() *DateRegistry {
	return &DateRegistry{objects: make(map[int32]*DateObject)}
}

// New allocates a fresh DateObject wrapping when and returns its id.
func (r *DateRegistry) New(when time.Time) int32 {
	r.nextID++
	r.objects[r.nextID] = &DateObject{ID: r.nextID, When: when}
	return r.nextID
}

// Get dereferences a DateRef id.
func (r *DateRegistry) Get(id int32) (*DateObject, bool) {
	d, ok := r.objects[id]
	return d, ok
}

// newDateBuiltin backs the bare `date(...)` global constructor: called
// with no arguments it wraps the current instant (date.rs's
// DateObject::new); called with year/month/day integer arguments it
// wraps midnight of that calendar date (DateObject::from_timestamp over
// a caller-computed instant).
func (it *Interpreter) newDateBuiltin(args []heap.Handle) (heap.Handle, bool, error) {
	when := time.Now().UTC()
	if len(args) >= 3 {
		year := int(intOf(it.arg(args, 0)))
		month := int(intOf(it.arg(args, 1)))
		day := int(intOf(it.arg(args, 2)))
		when = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	}
	id := it.Dates.New(when)
	return it.allocResult(heap.Value{Kind: heap.KindDateRef, DateRef: id})
}

// dateBuiltin implements the Date method table: getTime/setTime read and
// write the underlying instant as Unix milliseconds; the get*/set*
// pairs read and write one calendar or clock component at a time,
// reconstructing the instant around it exactly as date.rs's handlers do
// through js_sys::Date's own get/set methods. getMonth/setMonth are
// zero-based, matching the original's direct pass-through of
// js_sys::Date's zero-based month.
func (it *Interpreter) dateBuiltin(receiver heap.Value, name string, args []heap.Handle) (heap.Handle, bool, error) {
	date, ok := it.Dates.Get(receiver.DateRef)
	if !ok {
		return heap.Handle{}, true, ErrHandlerNotFound
	}

	switch name {
	case "getProp":
		if propKeyText(it.arg(args, 0)) == "ilk" {
			return it.allocResult(heap.NewSymbol("date"))
		}
		return heap.Handle{}, false, nil

	case "getTime":
		return it.allocResult(heap.NewInt(date.When.UnixMilli()))
	case "setTime":
		date.When = time.UnixMilli(intOf(it.arg(args, 0))).UTC()
		return heap.Handle{}, true, nil

	case "getFullYear":
		return it.allocResult(heap.NewInt(int64(date.When.Year())))
	case "getMonth":
		return it.allocResult(heap.NewInt(int64(date.When.Month() - 1)))
	case "getDate":
		return it.allocResult(heap.NewInt(int64(date.When.Day())))
	case "getHours":
		return it.allocResult(heap.NewInt(int64(date.When.Hour())))
	case "getMinutes":
		return it.allocResult(heap.NewInt(int64(date.When.Minute())))
	case "getSeconds":
		return it.allocResult(heap.NewInt(int64(date.When.Second())))

	case "setFullYear":
		t := date.When
		date.When = time.Date(int(intOf(it.arg(args, 0))), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		return heap.Handle{}, true, nil
	case "setMonth":
		t := date.When
		date.When = time.Date(t.Year(), time.Month(intOf(it.arg(args, 0))+1), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		return heap.Handle{}, true, nil
	case "setDate":
		t := date.When
		date.When = time.Date(t.Year(), t.Month(), int(intOf(it.arg(args, 0))), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		return heap.Handle{}, true, nil
	case "setHours":
		t := date.When
		date.When = time.Date(t.Year(), t.Month(), t.Day(), int(intOf(it.arg(args, 0))), t.Minute(), t.Second(), 0, time.UTC)
		return heap.Handle{}, true, nil
	case "setMinutes":
		t := date.When
		date.When = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), int(intOf(it.arg(args, 0))), t.Second(), 0, time.UTC)
		return heap.Handle{}, true, nil
	case "setSeconds":
		t := date.When
		date.When = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), int(intOf(it.arg(args, 0))), 0, time.UTC)
		return heap.Handle{}, true, nil

	default:
		return heap.Handle{}, false, nil
	}
}
