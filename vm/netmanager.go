// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import "sync"

// NetTaskState tracks one outstanding fetch the core asked its host to
// perform. Grounded on player/net_manager.rs's NetManager/NetTask: the
// core never performs I/O itself, it hands the host a URL and a task id
// and waits for provide_net_task_data to fulfill it.
type NetTaskState int

const (
	NetTaskPending NetTaskState = iota
	NetTaskDone
	NetTaskFailed
)

// NetTask is one outstanding or completed fetch.
type NetTask struct {
	ID    uint32
	URL   string
	State NetTaskState
	Data  []byte
	Err   error
}

// NetManager owns a table of outstanding fetches keyed by task id. It
// performs no I/O itself — CreateTask only records intent; the host
// driver is the one that actually calls out and reports back via
// ProvideTaskData, matching the original's split between the core (task
// bookkeeping) and the host (net-request event + fetch). No builtin in
// this package calls CreateTask, and external cast fetches go through
// cast.Manager's Fetcher rather than this table.
type NetManager struct {
	mu      sync.Mutex
	nextID  uint32
	tasks   map[uint32]*NetTask
	onStart func(taskID uint32, url string)
}

// NewNetManager returns an empty NetManager. onStart, if non-nil, is
// invoked synchronously from CreateTask so the driver can emit the
// outbound `net-request(task_id, url)` event at the moment a task is
// created.
func NewNetManager(onStart func(taskID uint32, url string)) *NetManager {
	return &NetManager{
		tasks:   make(map[uint32]*NetTask),
		onStart: onStart,
	}
}

// CreateTask registers a new pending fetch and returns its id.
func (n *NetManager) CreateTask(url string) uint32 {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.tasks[id] = &NetTask{ID: id, URL: url, State: NetTaskPending}
	n.mu.Unlock()

	if n.onStart != nil {
		n.onStart(id, url)
	}
	return id
}

// ProvideTaskData fulfills a pending task with fetched bytes, matching
// the host-inbound `provide_net_task_data(task_id, bytes)` call.
func (n *NetManager) ProvideTaskData(taskID uint32, data []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	t, ok := n.tasks[taskID]
	if !ok {
		return
	}
	t.Data = data
	t.State = NetTaskDone
}

// FailTask marks a pending task as failed.
func (n *NetManager) FailTask(taskID uint32, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	t, ok := n.tasks[taskID]
	if !ok {
		return
	}
	t.Err = err
	t.State = NetTaskFailed
}

// Task returns the task state for taskID.
func (n *NetManager) Task(taskID uint32) (*NetTask, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	t, ok := n.tasks[taskID]
	return t, ok
}

// IsDone reports whether taskID has reached a terminal state.
func (n *NetManager) IsDone(taskID uint32) bool {
	t, ok := n.Task(taskID)
	return ok && t.State != NetTaskPending
}

// Forget removes a task, matching the original's "timeouts can be
// forgotten individually" cleanup path applied to net tasks.
func (n *NetManager) Forget(taskID uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.tasks, taskID)
}
