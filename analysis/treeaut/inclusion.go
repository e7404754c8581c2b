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

package treeaut

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// macroSet is a sorted set of states of the right-hand automaton
type macroSet []int

func (m macroSet) key() string {
	var b strings.Builder
	for i, s := range m {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(s))
	}
	return b.String()
}

// Subseteq returns true if the language of a is included in the language of b.
//
// The check runs a bottom-up subset construction of b alongside a: every state q of a is paired with the sets of
// states b can be in after reading a tree a accepts in q. The inclusion fails if an accepting state of a is paired
// with a set containing no accepting state of b.
func Subseteq[L comparable](a, b *TreeAut[L]) bool {
	// index the transitions of b by label and arity
	type labelArity struct {
		label L
		arity int
	}
	bIndex := map[labelArity][]Transition[L]{}
	for _, t := range b.transitions {
		k := labelArity{t.Label, len(t.Children)}
		bIndex[k] = append(bIndex[k], t)
	}

	reached := map[int][]macroSet{}
	known := map[int]map[string]bool{}
	add := func(q int, m macroSet) bool {
		if known[q] == nil {
			known[q] = map[string]bool{}
		}
		k := m.key()
		if known[q][k] {
			return false
		}
		known[q][k] = true
		reached[q] = append(reached[q], m)
		return true
	}

	for changed := true; changed; {
		changed = false
		for _, t := range a.transitions {
			candidates := bIndex[labelArity{t.Label, len(t.Children)}]
			forEachCombination(t.Children, reached, func(combo []macroSet) {
				var targets []int
				for _, u := range candidates {
					if matchesCombination(u.Children, combo) && !slices.Contains(targets, u.Parent) {
						targets = append(targets, u.Parent)
					}
				}
				sort.Ints(targets)
				if add(t.Parent, targets) {
					changed = true
				}
			})
		}
	}

	for q := range a.finals {
		for _, m := range reached[q] {
			accepted := false
			for _, s := range m {
				if b.finals[s] {
					accepted = true
					break
				}
			}
			if !accepted {
				return false
			}
		}
	}
	return true
}

// Equal returns true if a and b accept the same language
func Equal[L comparable](a, b *TreeAut[L]) bool {
	return Subseteq(a, b) && Subseteq(b, a)
}

func matchesCombination(children []int, combo []macroSet) bool {
	for i, c := range children {
		if !slices.Contains(combo[i], c) {
			return false
		}
	}
	return true
}

// forEachCombination calls f on every tuple of macro-sets reached so far by the given children states
func forEachCombination(children []int, reached map[int][]macroSet, f func([]macroSet)) {
	for _, c := range children {
		if len(reached[c]) == 0 {
			return
		}
	}
	// snapshot the lists so that f may extend reached while iterating
	lists := make([][]macroSet, len(children))
	for i, c := range children {
		lists[i] = append([]macroSet(nil), reached[c]...)
	}
	combo := make([]macroSet, len(children))
	var rec func(i int)
	rec = func(i int) {
		if i == len(children) {
			f(combo)
			return
		}
		for _, m := range lists[i] {
			combo[i] = m
			rec(i + 1)
		}
	}
	rec(0)
}
