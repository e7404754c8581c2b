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

// Package forest implements forest automata: ordered tuples of tree automata (roots) that refer to each other through
// reference leaves, together with the values of the program variables.
//
// Data leaves are shared by all the automata of a box manager: the leaf of the data value with identifier id is the
// negative state -(id+1), and it has a single transition of arity zero labelled by the data label. Internal states
// are allocated by each forest automaton and are positive.
package forest

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-forest/analysis/box"
	"github.com/awslabs/ar-go-forest/analysis/data"
	"github.com/awslabs/ar-go-forest/analysis/treeaut"
	"github.com/awslabs/ar-go-forest/internal/funcutil"
)

// ErrInvariant is wrapped by the values of all panics raised on a corrupted forest automaton
var ErrInvariant = box.ErrInvariant

// FAE is a forest automaton. Forest automata are used as values: once published, a forest automaton is never
// mutated, and operations build new automata that share the unchanged roots. The mutating methods are meant for the
// construction of a fresh automaton only.
type FAE struct {
	man       *box.Manager
	vars      []data.Data
	roots     []*box.TA
	nextState int
	empty     bool
}

// New returns a forest automaton without roots nor variables
func New(man *box.Manager) *FAE {
	return &FAE{man: man, nextState: 1}
}

// Empty returns the canonical forest automaton with an empty language
func Empty(man *box.Manager) *FAE {
	return &FAE{man: man, nextState: 1, empty: true}
}

// IsEmpty returns true if f is the canonical empty forest automaton
func (f *FAE) IsEmpty() bool {
	return f.empty
}

// Manager returns the box manager of f
func (f *FAE) Manager() *box.Manager {
	return f.man
}

// Clone returns a copy of f that shares the automata of its roots
func (f *FAE) Clone() *FAE {
	return &FAE{
		man:       f.man,
		vars:      append([]data.Data(nil), f.vars...),
		roots:     append([]*box.TA(nil), f.roots...),
		nextState: f.nextState,
		empty:     f.empty,
	}
}

// AllocTA returns a new tree automaton labelled by the labels of the manager of f
func (f *FAE) AllocTA() *box.TA {
	return treeaut.New[*box.Label]()
}

// ********** Variables **********

// VarCount returns the number of variables
func (f *FAE) VarCount() int { return len(f.vars) }

// Var returns the value of variable i
func (f *FAE) Var(i int) data.Data {
	if i < 0 || i >= len(f.vars) {
		invariantf("variable %d out of range (%d variables)", i, len(f.vars))
	}
	return f.vars[i]
}

// Vars returns a copy of the values of the variables
func (f *FAE) Vars() []data.Data {
	return append([]data.Data(nil), f.vars...)
}

// PushVar appends a variable and returns its index
func (f *FAE) PushVar(d data.Data) int {
	f.vars = append(f.vars, d)
	return len(f.vars) - 1
}

// SetVar sets the value of variable i
func (f *FAE) SetVar(i int, d data.Data) {
	if i < 0 || i >= len(f.vars) {
		invariantf("variable %d out of range (%d variables)", i, len(f.vars))
	}
	f.vars[i] = d
}

// ********** Roots **********

// RootCount returns the number of root slots, including the empty ones
func (f *FAE) RootCount() int { return len(f.roots) }

// ValidRootCount returns the number of non-empty root slots
func (f *FAE) ValidRootCount() int {
	n := 0
	for _, r := range f.roots {
		if r != nil {
			n++
		}
	}
	return n
}

// Root returns the automaton of root i, nil for an empty slot
func (f *FAE) Root(i int) *box.TA {
	if i < 0 || i >= len(f.roots) {
		invariantf("root %d out of range (%d roots)", i, len(f.roots))
	}
	return f.roots[i]
}

// HasRoot returns true if i is a non-empty root slot
func (f *FAE) HasRoot(i int) bool {
	return i >= 0 && i < len(f.roots) && f.roots[i] != nil
}

// AppendRoot adds ta as the last root and returns its index
func (f *FAE) AppendRoot(ta *box.TA) int {
	f.roots = append(f.roots, ta)
	return len(f.roots) - 1
}

// SetRoot replaces the automaton of root i, nil empties the slot
func (f *FAE) SetRoot(i int, ta *box.TA) {
	if i < 0 || i >= len(f.roots) {
		invariantf("root %d out of range (%d roots)", i, len(f.roots))
	}
	f.roots[i] = ta
}

// ResizeRoots sets the number of root slots to n. New slots are empty.
func (f *FAE) ResizeRoots(n int) {
	for len(f.roots) < n {
		f.roots = append(f.roots, nil)
	}
	f.roots = f.roots[:n]
}

// FinalState returns the unique final state of root i
func (f *FAE) FinalState(i int) int {
	ta := f.Root(i)
	if ta == nil {
		invariantf("root %d is empty", i)
	}
	s, ok := ta.FinalState()
	if !ok {
		invariantf("root %d has %d final states, expected one", i, len(ta.FinalStates()))
	}
	return s
}

// ********** States **********

// NewState allocates a fresh internal state
func (f *FAE) NewState() int {
	s := f.nextState
	f.nextState++
	return s
}

// NextState returns the state that NewState will allocate next
func (f *FAE) NextState() int { return f.nextState }

// SetStateOffset makes the allocation of internal states start at offset, if it is above the current counter
func (f *FAE) SetStateOffset(offset int) {
	if offset > f.nextState {
		f.nextState = offset
	}
}

// UpdateStateOffset moves the state counter above every state used by the roots of f
func (f *FAE) UpdateStateOffset() {
	for _, ta := range f.roots {
		if ta == nil {
			continue
		}
		for _, s := range ta.States() {
			f.SetStateOffset(s + 1)
		}
	}
}

// DataState returns the leaf state of d
func (f *FAE) DataState(d data.Data) int {
	return -(f.man.DataID(d) + 1)
}

// AddData adds to ta the leaf of d and returns its state
func (f *FAE) AddData(ta *box.TA, d data.Data) int {
	s := f.DataState(d)
	ta.AddTransition(nil, f.man.LookupDataLabel(d), s)
	return s
}

// IsData returns the data of a leaf state
func (f *FAE) IsData(state int) (data.Data, bool) {
	if state >= 0 {
		return data.Data{}, false
	}
	return f.man.DataByID(-state - 1), true
}

// GetRef returns the root referenced by a leaf state
func (f *FAE) GetRef(state int) (int, bool) {
	d, ok := f.IsData(state)
	if !ok || !d.IsRef() {
		return 0, false
	}
	return d.Root, true
}

// RelabelReferences returns a copy of ta where every reference to root r is replaced by a reference to root
// index[r]. The leaves of relabelled references change state accordingly.
func (f *FAE) RelabelReferences(ta *box.TA, index []int) *box.TA {
	relabel := func(s int) int {
		d, ok := f.IsData(s)
		if !ok || !d.IsRef() {
			return s
		}
		if d.Root < 0 || d.Root >= len(index) || index[d.Root] < 0 {
			invariantf("reference to root %d is not relabelled", d.Root)
		}
		return f.DataState(d.WithRoot(index[d.Root]))
	}
	return ta.Map(func(t box.Trans) (box.Trans, bool) {
		for i, c := range t.Children {
			t.Children[i] = relabel(c)
		}
		if t.Label.IsData() && t.Label.Data().IsRef() {
			d := t.Label.Data()
			t.Label = f.man.LookupDataLabel(d.WithRoot(index[d.Root]))
		}
		t.Parent = relabel(t.Parent)
		return t, true
	})
}

// RelabelVars replaces every reference to root r in the variables by a reference to index[r]
func (f *FAE) RelabelVars(index []int) {
	for i, v := range f.vars {
		if v.IsRef() {
			if v.Root < 0 || v.Root >= len(index) || index[v.Root] < 0 {
				invariantf("variable %d refers to root %d, which is not relabelled", i, v.Root)
			}
			f.vars[i] = v.WithRoot(index[v.Root])
		}
	}
}

// References returns the roots referenced by the leaves of ta, in increasing order and without duplicates
func (f *FAE) References(ta *box.TA) []int {
	seen := map[int]bool{}
	for _, t := range ta.Transitions() {
		if r, ok := f.GetRef(t.Parent); ok {
			seen[r] = true
		}
	}
	return funcutil.SetToOrderedSlice(seen)
}

// Validate returns an error if a reference of a variable or of a root does not name a present root
func (f *FAE) Validate() error {
	if f.empty {
		return nil
	}
	for i, v := range f.vars {
		if v.IsRef() && !f.HasRoot(v.Root) {
			return fmt.Errorf("variable %d refers to missing root %d", i, v.Root)
		}
	}
	for i, ta := range f.roots {
		if ta == nil {
			continue
		}
		for _, r := range f.References(ta) {
			if !f.HasRoot(r) {
				return fmt.Errorf("root %d refers to missing root %d", i, r)
			}
		}
		if _, ok := ta.FinalState(); !ok {
			return fmt.Errorf("root %d has %d final states", i, len(ta.FinalStates()))
		}
	}
	return nil
}

func (f *FAE) String() string {
	if f.empty {
		return "<empty>\n"
	}
	var b strings.Builder
	b.WriteString("vars:")
	for _, v := range f.vars {
		b.WriteString(" " + v.String())
	}
	b.WriteString("\n")
	for i, ta := range f.roots {
		if ta == nil {
			fmt.Fprintf(&b, "root %d: -\n", i)
			continue
		}
		fmt.Fprintf(&b, "root %d: %s", i, ta)
	}
	return b.String()
}

func invariantf(format string, args ...any) {
	box.Invariantf(format, args...)
}
