/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps bounded undo/redo stacks of opaque layout snapshots, one
// pair per scene generation.
package undo

import (
	"sync"
	"time"
)

// Snapshot is a layout blob captured before a change. Blob content is opaque
// to the manager; size is estimated as len(Blob).
type Snapshot struct {
	Generation uint64
	Blob       []byte
	TS         time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap over both stacks; the oldest undo entries go first.
	MaxBytes int
	// MaxDepth limits undo entries per generation (0 means unlimited).
	MaxDepth int
	// MinInterval coalesces pushes for the same generation: a push within the
	// interval keeps the earlier blob, so one drag gesture undoes in one step.
	MinInterval time.Duration
}

// Manager is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo map[uint64][]Snapshot
	redo map[uint64][]Snapshot
	// accounting
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 4 * 1024 * 1024
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, undo: make(map[uint64][]Snapshot), redo: make(map[uint64][]Snapshot)}
}

// Push records the state before a change and clears that generation's redo stack.
func (m *Manager) Push(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropRedoLocked(s.Generation)
	stack := m.undo[s.Generation]
	if n := len(stack); n > 0 && s.TS.Sub(stack[n-1].TS) < m.cfg.MinInterval {
		stack[n-1].TS = s.TS
		return
	}
	m.undo[s.Generation] = append(stack, s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(s.Generation)
}

// Undo pops the newest snapshot of current.Generation and parks current on the
// redo stack. The caller restores the returned blob.
func (m *Manager) Undo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gen := current.Generation
	stack := m.undo[gen]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[gen] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Blob)
	m.redo[gen] = append(m.redo[gen], current)
	m.totalBytes += len(current.Blob)
	return s, true
}

// Redo reverses the last Undo, parking current back on the undo stack.
func (m *Manager) Redo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gen := current.Generation
	r := m.redo[gen]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[gen] = r[:len(r)-1]
	m.totalBytes -= len(s.Blob)
	m.undo[gen] = append(m.undo[gen], current)
	m.totalBytes += len(current.Blob)
	m.enforceCapsLocked(gen)
	return s, true
}

// CanUndo reports whether gen has undo entries.
func (m *Manager) CanUndo(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[gen]) > 0
}

// CanRedo reports whether gen has redo entries.
func (m *Manager) CanRedo(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[gen]) > 0
}

// Drop forgets every generation other than keep. A cleared or reset scene
// cannot return to an older layout.
func (m *Manager) Drop(keep uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for gen, stack := range m.undo {
		if gen == keep {
			continue
		}
		for _, s := range stack {
			m.totalBytes -= len(s.Blob)
		}
		delete(m.undo, gen)
	}
	for gen := range m.redo {
		if gen != keep {
			m.dropRedoLocked(gen)
		}
	}
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, generations int, undoDepth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	generations = len(m.undo)
	for _, v := range m.undo {
		undoDepth += len(v)
	}
	return m.totalBytes, generations, undoDepth
}

func (m *Manager) dropRedoLocked(gen uint64) {
	for _, s := range m.redo[gen] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.redo, gen)
}

func (m *Manager) enforceCapsLocked(gen uint64) {
	if m.cfg.MaxDepth > 0 {
		stack := m.undo[gen]
		if len(stack) > m.cfg.MaxDepth {
			toDrop := len(stack) - m.cfg.MaxDepth
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[gen] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune the oldest undo entry across generations
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		var oldestGen uint64
		found := false
		var oldestTS time.Time
		for g, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldestGen, oldestTS, found = g, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldestGen]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldestGen] = stack[1:]
		if len(m.undo[oldestGen]) == 0 {
			delete(m.undo, oldestGen)
		}
	}
}
