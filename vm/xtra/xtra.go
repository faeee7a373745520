// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

// Package xtra defines the Instance contract a registered Xtra
// implements and carries the reference implementations supplementing
// the distilled spec (player/xtra/manager.rs names a closed set of
// first-party Xtras; this package provides the one the retrieval pack
// can ground end to end without a real network backend).
package xtra

import "github.com/stagevm/core/heap"

// Instance is a live Xtra object instance: a registered Xtra factory
// produces one of these per `new(xtra "Name")` call, and a call against
// an XtraInstance receiver routes into its Call method.
type Instance interface {
	// Call invokes handlerName with args already resolved to heap
	// handles, returning the handler's result (Void for handlers with no
	// meaningful return).
	Call(h *heap.Heap, handlerName string, args []heap.Handle) (heap.Handle, error)
}

// Factory constructs a fresh Instance for a `new` call against a
// registered Xtra name.
type Factory func() Instance
