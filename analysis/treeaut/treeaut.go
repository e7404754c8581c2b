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

// Package treeaut implements bottom-up finite tree automata over comparable labels.
//
// States are plain integers. A transition label(c1,...,cn) -> p reads the states c1..cn of the children and moves
// to the parent state p. Leaves are transitions with no children. Automata are used as values: operations that
// change the language (pruning, relabelling) return a new automaton and leave the receiver untouched.
package treeaut

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Transition is a transition Label(Children...) -> Parent
type Transition[L comparable] struct {
	Label    L
	Children []int
	Parent   int
}

func (t Transition[L]) String() string {
	children := make([]string, len(t.Children))
	for i, c := range t.Children {
		children[i] = strconv.Itoa(c)
	}
	return fmt.Sprintf("%v(%s) -> %d", t.Label, strings.Join(children, ","), t.Parent)
}

type transKey[L comparable] struct {
	label    L
	children string
	parent   int
}

func keyOf[L comparable](children []int, label L, parent int) transKey[L] {
	var b strings.Builder
	for i, c := range children {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(c))
	}
	return transKey[L]{label: label, children: b.String(), parent: parent}
}

// TreeAut is a bottom-up tree automaton. The zero value is not usable, use New.
type TreeAut[L comparable] struct {
	transitions []Transition[L]
	known       map[transKey[L]]bool
	byParent    map[int][]int
	finals      map[int]bool
}

// New returns an empty automaton
func New[L comparable]() *TreeAut[L] {
	return &TreeAut[L]{
		transitions: nil,
		known:       map[transKey[L]]bool{},
		byParent:    map[int][]int{},
		finals:      map[int]bool{},
	}
}

// AddTransition adds label(children) -> parent. Returns false if the transition was already present.
func (ta *TreeAut[L]) AddTransition(children []int, label L, parent int) bool {
	k := keyOf(children, label, parent)
	if ta.known[k] {
		return false
	}
	ta.known[k] = true
	ta.byParent[parent] = append(ta.byParent[parent], len(ta.transitions))
	ta.transitions = append(ta.transitions, Transition[L]{
		Label:    label,
		Children: append([]int(nil), children...),
		Parent:   parent,
	})
	return true
}

// AddFinalState marks state as accepting
func (ta *TreeAut[L]) AddFinalState(state int) {
	ta.finals[state] = true
}

// AddFinalStates marks all states as accepting
func (ta *TreeAut[L]) AddFinalStates(states []int) {
	for _, s := range states {
		ta.finals[s] = true
	}
}

// IsFinal returns true if state is accepting
func (ta *TreeAut[L]) IsFinal(state int) bool {
	return ta.finals[state]
}

// FinalStates returns the accepting states in increasing order
func (ta *TreeAut[L]) FinalStates() []int {
	res := make([]int, 0, len(ta.finals))
	for s := range ta.finals {
		res = append(res, s)
	}
	sort.Ints(res)
	return res
}

// FinalState returns the unique accepting state. The second result is false if there is not exactly one.
func (ta *TreeAut[L]) FinalState() (int, bool) {
	if len(ta.finals) != 1 {
		return 0, false
	}
	for s := range ta.finals {
		return s, true
	}
	return 0, false
}

// Transitions returns all transitions in insertion order. The slice must not be modified.
func (ta *TreeAut[L]) Transitions() []Transition[L] {
	return ta.transitions
}

// TransitionsTo returns the transitions whose parent is state, in insertion order
func (ta *TreeAut[L]) TransitionsTo(state int) []Transition[L] {
	idx := ta.byParent[state]
	res := make([]Transition[L], len(idx))
	for i, j := range idx {
		res[i] = ta.transitions[j]
	}
	return res
}

// AcceptingTransitions returns the transitions leading to an accepting state
func (ta *TreeAut[L]) AcceptingTransitions() []Transition[L] {
	var res []Transition[L]
	for _, s := range ta.FinalStates() {
		res = append(res, ta.TransitionsTo(s)...)
	}
	return res
}

// States returns every state occurring in a transition or as a final state, in increasing order
func (ta *TreeAut[L]) States() []int {
	seen := map[int]bool{}
	for _, t := range ta.transitions {
		seen[t.Parent] = true
		for _, c := range t.Children {
			seen[c] = true
		}
	}
	for s := range ta.finals {
		seen[s] = true
	}
	res := make([]int, 0, len(seen))
	for s := range seen {
		res = append(res, s)
	}
	sort.Ints(res)
	return res
}

// Size returns the number of transitions
func (ta *TreeAut[L]) Size() int {
	return len(ta.transitions)
}

// Clone returns a copy of the automaton
func (ta *TreeAut[L]) Clone() *TreeAut[L] {
	res := New[L]()
	for _, t := range ta.transitions {
		res.AddTransition(t.Children, t.Label, t.Parent)
	}
	for s := range ta.finals {
		res.AddFinalState(s)
	}
	return res
}

// productive returns the set of states from which at least one tree is accepted bottom-up
func (ta *TreeAut[L]) productive() map[int]bool {
	prod := map[int]bool{}
	for changed := true; changed; {
		changed = false
		for _, t := range ta.transitions {
			if prod[t.Parent] {
				continue
			}
			if allIn(t.Children, prod) {
				prod[t.Parent] = true
				changed = true
			}
		}
	}
	return prod
}

func allIn(states []int, set map[int]bool) bool {
	for _, c := range states {
		if !set[c] {
			return false
		}
	}
	return true
}

// UselessAndUnreachableFree returns the automaton restricted to states that are both productive (some tree reaches
// them) and reachable top-down from a productive accepting state. The language is unchanged.
func (ta *TreeAut[L]) UselessAndUnreachableFree() *TreeAut[L] {
	prod := ta.productive()
	reach := map[int]bool{}
	var stack []int
	for s := range ta.finals {
		if prod[s] {
			reach[s] = true
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, j := range ta.byParent[s] {
			t := ta.transitions[j]
			if !allIn(t.Children, prod) {
				continue
			}
			for _, c := range t.Children {
				if !reach[c] {
					reach[c] = true
					stack = append(stack, c)
				}
			}
		}
	}
	res := New[L]()
	for _, t := range ta.transitions {
		if reach[t.Parent] && allIn(t.Children, prod) {
			res.AddTransition(t.Children, t.Label, t.Parent)
		}
	}
	for s := range ta.finals {
		if reach[s] {
			res.AddFinalState(s)
		}
	}
	return res
}

// IsEmpty returns true if the automaton accepts no tree
func (ta *TreeAut[L]) IsEmpty() bool {
	prod := ta.productive()
	for s := range ta.finals {
		if prod[s] {
			return false
		}
	}
	return true
}

// Map returns a new automaton whose transitions are the images of the receiver's transitions by f. Transitions for
// which f returns false are dropped. Final states are kept.
func (ta *TreeAut[L]) Map(f func(t Transition[L]) (Transition[L], bool)) *TreeAut[L] {
	res := New[L]()
	for _, t := range ta.transitions {
		t.Children = append([]int(nil), t.Children...)
		if nt, ok := f(t); ok {
			res.AddTransition(nt.Children, nt.Label, nt.Parent)
		}
	}
	for s := range ta.finals {
		res.AddFinalState(s)
	}
	return res
}

// String returns a human-readable listing of the automaton
func (ta *TreeAut[L]) String() string {
	var b strings.Builder
	b.WriteString("finals:")
	for _, s := range ta.FinalStates() {
		b.WriteString(" " + strconv.Itoa(s))
	}
	b.WriteString("\n")
	for _, t := range ta.transitions {
		b.WriteString("  " + t.String() + "\n")
	}
	return b.String()
}
