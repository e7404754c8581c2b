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

// Package integrity checks that the selectors of the memory cells of a forest automaton are consistently defined:
// every selector of a cell must be covered exactly once, either by the transition of the cell or by a box of
// another cell whose input is plugged into it.
package integrity

import (
	"fmt"

	"github.com/awslabs/ar-go-forest/analysis/box"
	"github.com/awslabs/ar-go-forest/analysis/config"
	"github.com/awslabs/ar-go-forest/analysis/forest"
	"golang.org/x/tools/container/intsets"
)

// Reason is the kind of inconsistency found by the checker
type Reason int

const (
	// ReasonMissingSelector means that a selector required at a cell is not available in its layout
	ReasonMissingSelector Reason = iota + 1
	// ReasonUnconsumedSelector means that a selector of a cell is covered by no box
	ReasonUnconsumedSelector
	// ReasonInconsistentDefined means that a state is reached with two different sets of selectors defined elsewhere
	ReasonInconsistentDefined
	// ReasonDataUnderBox means that the input of a box is a data value other than a reference or undef
	ReasonDataUnderBox
	// ReasonMissingTypeInfo means that a cell has no type information
	ReasonMissingTypeInfo
	// ReasonDanglingRoot means that a reference points to an empty or missing root
	ReasonDanglingRoot
)

func (r Reason) String() string {
	switch r {
	case ReasonMissingSelector:
		return "missing selector"
	case ReasonUnconsumedSelector:
		return "unconsumed selector"
	case ReasonInconsistentDefined:
		return "inconsistent defined selectors"
	case ReasonDataUnderBox:
		return "data under box"
	case ReasonMissingTypeInfo:
		return "missing type information"
	case ReasonDanglingRoot:
		return "dangling root"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// InconsistencyError describes where a forest automaton was found inconsistent
type InconsistencyError struct {
	Root     int
	State    int
	Selector int
	Reason   Reason
}

func (e *InconsistencyError) Error() string {
	if e.Selector != box.NoSelector {
		return fmt.Sprintf("inconsistent heap at root %d, state %d: %s %d", e.Root, e.State, e.Reason, e.Selector)
	}
	return fmt.Sprintf("inconsistent heap at root %d, state %d: %s", e.Root, e.State, e.Reason)
}

// A Checker checks the integrity of one forest automaton. Checking does not modify the automaton.
type Checker struct {
	fae    *forest.FAE
	logger *config.LogGroup
}

// New returns a checker for fae
func New(fae *forest.FAE, logger *config.LogGroup) *Checker {
	return &Checker{fae: fae, logger: logger}
}

type memoKey struct {
	ta    *box.TA
	state int
}

// run holds the state of one check
type run struct {
	*Checker
	visited []bool
	states  map[memoKey]*intsets.Sparse
}

// Check returns nil if the forest automaton is consistent, and an *InconsistencyError otherwise
func (c *Checker) Check() error {
	if c.fae.IsEmpty() {
		return nil
	}
	r := &run{
		Checker: c,
		visited: make([]bool, c.fae.RootCount()),
		states:  map[memoKey]*intsets.Sparse{},
	}
	for i := 0; i < c.fae.RootCount(); i++ {
		if !c.fae.HasRoot(i) {
			continue
		}
		if err := r.checkRoot(i, i, 0); err != nil {
			c.logger.Debugf("%v in heap:\n%s", err, c.fae)
			return err
		}
	}
	return nil
}

// IsConsistent returns true if Check succeeds
func (c *Checker) IsConsistent() bool {
	return c.Check() == nil
}

// EnumerateSelectorsAtLeaf returns the sorted selectors that boxes plugged into the root target define at its cell
func (c *Checker) EnumerateSelectorsAtLeaf(target int) []int {
	var s intsets.Sparse
	c.selectorsAtLeaf(&s, target)
	return s.AppendTo(nil)
}

func (c *Checker) selectorsAtLeaf(s *intsets.Sparse, target int) {
	for i := 0; i < c.fae.RootCount(); i++ {
		ta := c.fae.Root(i)
		if ta == nil {
			continue
		}
		for _, t := range ta.Transitions() {
			if !t.Label.IsNode() {
				continue
			}
			t := t
			t.Label.Iterate(func(b box.AbstractBox, _ int, offset int) bool {
				learned, ok := b.(*box.Box)
				if !ok {
					return true
				}
				for k := 0; k < learned.Arity(); k++ {
					if ref, isRef := c.fae.GetRef(t.Children[offset+k]); isRef && ref == target {
						for _, sel := range learned.InputCoverage(k) {
							s.Insert(sel)
						}
					}
				}
				return true
			})
		}
	}
}

// checkRoot checks the final states of root against the selectors defined by the boxes plugged into it. from and
// state locate the reference being followed, for error reporting.
func (r *run) checkRoot(root int, from int, state int) error {
	if !r.fae.HasRoot(root) {
		return &InconsistencyError{Root: from, State: state, Selector: box.NoSelector, Reason: ReasonDanglingRoot}
	}
	if r.visited[root] {
		return nil
	}
	r.visited[root] = true

	var required intsets.Sparse
	r.selectorsAtLeaf(&required, root)
	ta := r.fae.Root(root)
	for _, s := range ta.FinalStates() {
		if err := r.checkState(root, ta, s, &required); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) checkState(root int, ta *box.TA, state int, defined *intsets.Sparse) error {
	if d, ok := r.fae.IsData(state); ok {
		if !d.IsRef() {
			return nil
		}
		return r.checkRoot(d.Root, root, state)
	}

	key := memoKey{ta: ta, state: state}
	if seen, ok := r.states[key]; ok {
		if !seen.Equals(defined) {
			return &InconsistencyError{Root: root, State: state, Selector: box.NoSelector,
				Reason: ReasonInconsistentDefined}
		}
		return nil
	}
	memo := &intsets.Sparse{}
	memo.Copy(defined)
	r.states[key] = memo

	for _, t := range ta.TransitionsTo(state) {
		if err := r.checkTransition(root, ta, t, defined); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) checkTransition(root int, ta *box.TA, t box.Trans, defined *intsets.Sparse) error {
	fail := func(reason Reason, sel int) error {
		return &InconsistencyError{Root: root, State: t.Parent, Selector: sel, Reason: reason}
	}
	if !t.Label.IsNode() {
		return nil
	}
	typ := t.Label.TypeInfo()
	if typ == nil {
		return fail(ReasonMissingTypeInfo, box.NoSelector)
	}

	var remaining intsets.Sparse
	for _, s := range typ.Selectors() {
		remaining.Insert(s)
	}
	for _, s := range defined.AppendTo(nil) {
		if !remaining.Remove(s) {
			return fail(ReasonMissingSelector, s)
		}
	}

	var err error
	t.Label.Iterate(func(b box.AbstractBox, _ int, offset int) bool {
		switch b := b.(type) {
		case *box.Box:
			for i := 0; i < b.Arity(); i++ {
				child := t.Children[offset+i]
				if d, ok := r.fae.IsData(child); ok && !d.IsRef() && !d.IsUndef() {
					err = fail(ReasonDataUnderBox, b.SelectorToInput(i))
					return false
				}
				var coverage intsets.Sparse
				for _, s := range b.InputCoverage(i) {
					coverage.Insert(s)
				}
				if err = r.checkState(root, ta, child, &coverage); err != nil {
					return false
				}
			}
		case *box.SelBox:
			if err = r.checkState(root, ta, t.Children[offset], &intsets.Sparse{}); err != nil {
				return false
			}
		}
		if sb, ok := b.(box.StructuralBox); ok {
			for _, s := range sb.OutputCoverage() {
				if !remaining.Remove(s) {
					err = fail(ReasonMissingSelector, s)
					return false
				}
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	if !remaining.IsEmpty() {
		return fail(ReasonUnconsumedSelector, remaining.Min())
	}
	return nil
}
