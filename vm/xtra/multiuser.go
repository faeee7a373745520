// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package xtra

import (
	"github.com/stagevm/core/heap"
)

// multiuserMessage is one queued inbound message, mirroring
// MultiuserMessage from player/xtra/multiuser/mod.rs (error code,
// recipients, sender, subject, content, timestamp).
type multiuserMessage struct {
	errorCode int32
	senderID  string
	subject   string
	content   heap.Value
}

// Multiuser is a reference Xtra instance whose connect/send/receive
// handlers run against an in-memory message queue rather than a real
// socket, since the original's transport
// (wasm_bindgen WebSocket) has no Go-portable equivalent and a real
// network backend is out of scope here.
type Multiuser struct {
	connected bool
	groupID   string
	queue     []multiuserMessage
}

// NewMultiuserFactory returns a Factory producing fresh Multiuser
// instances, suitable for vm.XtraRegistry.Register("Multiuser", ...).
func NewMultiuserFactory() Factory {
	return func() Instance { return &Multiuser{} }
}

// Call dispatches a handler name against the instance, matching
// MultiuserXtraManager::call_instance_handler's handler switch in shape
// (a flat name match rather than a vtable), restricted to the subset a
// stub transport can honor meaningfully.
func (m *Multiuser) Call(h *heap.Heap, handlerName string, args []heap.Handle) (heap.Handle, error) {
	switch handlerName {
	case "connectToNetServer":
		m.connected = true
		return h.Alloc(heap.NewInt(1))
	case "joinGroup":
		if len(args) > 0 {
			if v, ok := h.Get(args[0]); ok && v.Kind == heap.KindString {
				m.groupID = v.Str
			}
		}
		return h.Alloc(heap.NewInt(1))
	case "send":
		// A stub transport loops a send straight back to its own queue,
		// exercising the dispatch path without a remote peer.
		content := heap.Void
		if len(args) > 0 {
			if v, ok := h.Get(args[len(args)-1]); ok {
				content = v
			}
		}
		m.queue = append(m.queue, multiuserMessage{senderID: "self", subject: "data", content: content})
		return h.Alloc(heap.NewInt(1))
	case "getNetMessageCount":
		return h.Alloc(heap.NewInt(int64(len(m.queue))))
	case "getNetMessage":
		if len(m.queue) == 0 {
			return heap.Handle{}, nil
		}
		msg := m.queue[0]
		m.queue = m.queue[1:]
		return h.Alloc(msg.content)
	case "disconnect":
		m.connected = false
		return h.Alloc(heap.NewInt(1))
	default:
		return h.Alloc(heap.Void)
	}
}
