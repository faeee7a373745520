// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package vm

import "github.com/stagevm/core/container"

// Profiler accumulates per-handler opcode counts. Grounded on
// player/profiling.rs: the original keeps the same kind of lightweight
// counter table rather than a sampling profiler, and exposes it
// read-only to the host's Inspector surface.
type Profiler struct {
	enabled bool
	counts  map[string]map[container.OpCode]int64
}

// NewProfiler returns a disabled Profiler; call Enable to start counting.
func NewProfiler() *Profiler {
	return &Profiler{counts: make(map[string]map[container.OpCode]int64)}
}

// Enable turns counting on or off.
func (p *Profiler) Enable(on bool) { p.enabled = on }

// Enabled reports whether the profiler is currently counting.
func (p *Profiler) Enabled() bool { return p.enabled }

// record increments the opcode count for handlerKey ("Script.handler").
func (p *Profiler) record(handlerKey string, op container.OpCode) {
	if !p.enabled {
		return
	}
	m, ok := p.counts[handlerKey]
	if !ok {
		m = make(map[container.OpCode]int64)
		p.counts[handlerKey] = m
	}
	m[op]++
}

// Snapshot returns a copy of the accumulated counts, safe for a caller to
// retain or mutate.
func (p *Profiler) Snapshot() map[string]map[container.OpCode]int64 {
	out := make(map[string]map[container.OpCode]int64, len(p.counts))
	for handler, m := range p.counts {
		cp := make(map[container.OpCode]int64, len(m))
		for op, n := range m {
			cp[op] = n
		}
		out[handler] = cp
	}
	return out
}

// Reset clears every accumulated count.
func (p *Profiler) Reset() {
	p.counts = make(map[string]map[container.OpCode]int64)
}
