// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package symstate manages the symbolic states of an analysis run. States live in an arena owned by a Manager and
// are addressed by ID. Each state keeps its parent, the children it owns, a snapshot of the heap (a forest automaton
// and the values of the registers) and the instruction that produced it.
package symstate

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-forest/analysis/config"
	"github.com/awslabs/ar-go-forest/analysis/data"
	"github.com/awslabs/ar-go-forest/analysis/forest"
	"github.com/awslabs/ar-go-forest/analysis/integrity"
)

// ID identifies a state of a Manager
type ID int

// NoState is the ID of the parent of a root state
const NoState ID = -1

// Instruction is a step of the analysed program, as seen by the backward run
type Instruction interface {
	fmt.Stringer

	// ReverseAndIsect computes the backward state that precedes bwdSucc, given the forward state fwdPred that
	// executed the instruction. The returned state is owned by m. A state created by the call belongs to the caller,
	// which recycles it; an existing state may also be returned and is left alone.
	ReverseAndIsect(m *Manager, fwdPred ID, bwdSucc ID) (ID, error)
}

// Snapshot is the heap of a state: a forest automaton and the values of the registers. Snapshots share their
// automaton, which is never mutated once published.
type Snapshot struct {
	FAE  *forest.FAE
	Regs []data.Data
}

// Clone returns a snapshot that shares the automaton of s and owns a copy of its registers
func (s Snapshot) Clone() Snapshot {
	return Snapshot{FAE: s.FAE, Regs: append([]data.Data(nil), s.Regs...)}
}

// Trace is a path in the state tree, from an error state to the initial state
type Trace []ID

type entry struct {
	live     bool
	birth    uint64
	parent   ID
	children []ID
	snap     Snapshot
	instr    Instruction
}

// Manager is the execution manager: it owns every state, the queue of states to process, and the counters of the
// run.
type Manager struct {
	states         []entry
	free           []ID
	queue          []ID
	logger         *config.LogGroup
	checkIntegrity bool

	statesExecuted  int
	tracesEvaluated int
	allocations     uint64
}

// NewManager returns an empty manager
func NewManager(cfg *config.Config, logger *config.LogGroup) *Manager {
	return &Manager{
		logger:         logger,
		checkIntegrity: cfg.Options.CheckIntegrity,
	}
}

// Logger returns the logger of the manager
func (m *Manager) Logger() *config.LogGroup {
	return m.logger
}

// Clear recycles every state and resets the counters
func (m *Manager) Clear() {
	m.states = nil
	m.free = nil
	m.queue = nil
	m.statesExecuted = 0
	m.tracesEvaluated = 0
}

func (m *Manager) alloc(parent ID, snap Snapshot, instr Instruction) ID {
	if m.checkIntegrity && snap.FAE != nil {
		if err := integrity.New(snap.FAE, m.logger).Check(); err != nil {
			panic(fmt.Errorf("%w: new state: %v", forest.ErrInvariant, err))
		}
	}
	e := entry{live: true, birth: m.allocations, parent: parent, snap: snap, instr: instr}
	m.allocations++
	var id ID
	if n := len(m.free); n > 0 {
		id = m.free[n-1]
		m.free = m.free[:n-1]
		m.states[id] = e
	} else {
		id = ID(len(m.states))
		m.states = append(m.states, e)
	}
	if parent != NoState {
		p := m.get(parent)
		p.children = append(p.children, id)
	}
	return id
}

func (m *Manager) get(id ID) *entry {
	if id < 0 || int(id) >= len(m.states) || !m.states[id].live {
		panic(fmt.Errorf("%w: state %d is not live", forest.ErrInvariant, id))
	}
	return &m.states[id]
}

// CreateRoot creates a state without parent
func (m *Manager) CreateRoot(snap Snapshot, instr Instruction) ID {
	return m.alloc(NoState, snap, instr)
}

// CreateChild creates a state owned by parent
func (m *Manager) CreateChild(parent ID, snap Snapshot, instr Instruction) ID {
	m.get(parent)
	return m.alloc(parent, snap, instr)
}

// Copy creates a state without parent with the heap and the instruction of id. The copy has its own lifetime.
func (m *Manager) Copy(id ID) ID {
	e := m.get(id)
	return m.alloc(NoState, e.snap.Clone(), e.instr)
}

// CopyWithInstr is Copy with a different instruction
func (m *Manager) CopyWithInstr(id ID, instr Instruction) ID {
	e := m.get(id)
	return m.alloc(NoState, e.snap.Clone(), instr)
}

// Recycle frees id and every state it owns, transitively. The state is first detached from its parent.
func (m *Manager) Recycle(id ID) {
	e := m.get(id)
	if e.parent != NoState {
		p := m.get(e.parent)
		for i, c := range p.children {
			if c == id {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	freed := map[ID]bool{}
	stack := []ID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = append(stack, m.states[cur].children...)
		m.states[cur] = entry{}
		m.free = append(m.free, cur)
		freed[cur] = true
	}
	if len(m.queue) > 0 {
		queue := m.queue[:0]
		for _, q := range m.queue {
			if !freed[q] {
				queue = append(queue, q)
			}
		}
		m.queue = queue
	}
}

// Allocations returns the number of states created by the manager so far
func (m *Manager) Allocations() uint64 { return m.allocations }

// CreatedSince returns true if id was created after the first n allocations of the manager
func (m *Manager) CreatedSince(id ID, n uint64) bool {
	return m.get(id).birth >= n
}

// IsLive returns true if id names a state that has not been recycled
func (m *Manager) IsLive(id ID) bool {
	return id >= 0 && int(id) < len(m.states) && m.states[id].live
}

// Len returns the number of live states
func (m *Manager) Len() int {
	return len(m.states) - len(m.free)
}

// Enqueue adds id to the states to process
func (m *Manager) Enqueue(id ID) {
	m.get(id)
	m.queue = append(m.queue, id)
}

// Dequeue returns the next state to process, in FIFO order. The state counts as executed.
func (m *Manager) Dequeue() (ID, bool) {
	if len(m.queue) == 0 {
		return NoState, false
	}
	id := m.queue[0]
	m.queue = m.queue[1:]
	m.statesExecuted++
	return id, true
}

// QueueLen returns the number of states waiting to be processed
func (m *Manager) QueueLen() int { return len(m.queue) }

// StatesExecuted returns the number of dequeued states
func (m *Manager) StatesExecuted() int { return m.statesExecuted }

// TracesEvaluated returns the number of counterexample traces analysed
func (m *Manager) TracesEvaluated() int { return m.tracesEvaluated }

// TraceEvaluated increments the counter of analysed traces
func (m *Manager) TraceEvaluated() { m.tracesEvaluated++ }

// Trace returns the path from id to the initial state of its tree. The first element is id.
func (m *Manager) Trace(id ID) Trace {
	var tr Trace
	for cur := id; cur != NoState; cur = m.get(cur).parent {
		tr = append(tr, cur)
	}
	return tr
}

// ********** Accessors **********

// Snapshot returns the heap of id
func (m *Manager) Snapshot(id ID) Snapshot { return m.get(id).snap }

// FAE returns the forest automaton of id
func (m *Manager) FAE(id ID) *forest.FAE { return m.get(id).snap.FAE }

// SetFAE replaces the forest automaton of id
func (m *Manager) SetFAE(id ID, f *forest.FAE) { m.get(id).snap.FAE = f }

// Regs returns the registers of id. The slice must not be modified.
func (m *Manager) Regs(id ID) []data.Data { return m.get(id).snap.Regs }

// Reg returns register i of id
func (m *Manager) Reg(id ID, i int) data.Data {
	regs := m.get(id).snap.Regs
	if i < 0 || i >= len(regs) {
		panic(fmt.Errorf("%w: register %d out of range (%d registers)", forest.ErrInvariant, i, len(regs)))
	}
	return regs[i]
}

// SetRegs replaces the registers of id
func (m *Manager) SetRegs(id ID, regs []data.Data) { m.get(id).snap.Regs = regs }

// SetReg sets register i of id
func (m *Manager) SetReg(id ID, i int, d data.Data) {
	e := m.get(id)
	if i < 0 || i >= len(e.snap.Regs) {
		panic(fmt.Errorf("%w: register %d out of range (%d registers)", forest.ErrInvariant, i, len(e.snap.Regs)))
	}
	e.snap.Regs[i] = d
}

// Instr returns the instruction of id
func (m *Manager) Instr(id ID) Instruction { return m.get(id).instr }

// Parent returns the parent of id, NoState for a root
func (m *Manager) Parent(id ID) ID { return m.get(id).parent }

// Children returns the states owned by id
func (m *Manager) Children(id ID) []ID {
	return append([]ID(nil), m.get(id).children...)
}

// Dump returns a listing of the state id
func (m *Manager) Dump(id ID) string {
	e := m.get(id)
	var b strings.Builder
	fmt.Fprintf(&b, "state %d", id)
	if e.instr != nil {
		fmt.Fprintf(&b, " [%s]", e.instr)
	}
	b.WriteString("\nregs:")
	for _, r := range e.snap.Regs {
		b.WriteString(" " + r.String())
	}
	b.WriteString("\n")
	if e.snap.FAE != nil {
		b.WriteString(e.snap.FAE.String())
	}
	return b.String()
}
