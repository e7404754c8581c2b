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

// Package cegar decides whether a counterexample found by the forward analysis is spurious. The backward run walks
// the trace from the error state toward the initial state, reversing each instruction and intersecting the result
// with the forward state that executed it. A backward heap with an empty language proves the trace infeasible.
package cegar

import (
	"fmt"

	"github.com/awslabs/ar-go-forest/analysis/config"
	"github.com/awslabs/ar-go-forest/analysis/forest"
	"github.com/awslabs/ar-go-forest/analysis/symstate"
)

// Verdict is the outcome of the analysis of a counterexample
type Verdict int

const (
	// NotSpurious means the backward run reached the initial state: the counterexample is a real error
	NotSpurious Verdict = iota
	// Spurious means the backward run hit an empty heap
	Spurious
)

func (v Verdict) String() string {
	switch v {
	case NotSpurious:
		return "not spurious"
	case Spurious:
		return "spurious"
	default:
		return "unknown"
	}
}

// Result is the outcome of IsSpuriousCE. For a spurious counterexample, FailPoint is the forward state at which the
// backward heap became empty and Predicate is the last non-empty backward heap.
type Result struct {
	Verdict   Verdict
	FailPoint symstate.ID
	Predicate *forest.FAE
}

func (r Result) String() string {
	if r.Verdict != Spurious {
		return r.Verdict.String()
	}
	return fmt.Sprintf("spurious at state %d", r.FailPoint)
}

// BackwardRun checks counterexamples against the states of an execution manager
type BackwardRun struct {
	states *symstate.Manager
	logger *config.LogGroup
}

// NewBackwardRun returns a backward run over the states of m
func NewBackwardRun(m *symstate.Manager, logger *config.LogGroup) *BackwardRun {
	return &BackwardRun{states: m, logger: logger}
}

// IsSpuriousCE analyses the forward trace, error state first. The backward states created during the analysis are
// recycled before returning; states that a reverse step returns without creating them are not. A failure of a
// reverse step is fatal.
func (b *BackwardRun) IsSpuriousCE(trace symstate.Trace) Result {
	if len(trace) == 0 {
		panic(fmt.Errorf("%w: empty counterexample trace", forest.ErrInvariant))
	}
	m := b.states
	m.TraceEvaluated()

	bwd := m.Copy(trace[0])
	bwdTrace := []symstate.ID{bwd}
	defer func() {
		for _, id := range bwdTrace {
			if m.IsLive(id) {
				m.Recycle(id)
			}
		}
	}()

	for _, fwd := range trace[1:] {
		instr := m.Instr(fwd)
		if instr == nil {
			panic(fmt.Errorf("%w: state %d of the trace has no instruction", forest.ErrInvariant, fwd))
		}
		before := m.Allocations()
		next, err := instr.ReverseAndIsect(m, fwd, bwd)
		if err != nil {
			panic(fmt.Errorf("%w: reversing %s at state %d: %v", forest.ErrInvariant, instr, fwd, err))
		}
		// only the states created by the step belong to the backward run
		if m.CreatedSince(next, before) {
			bwdTrace = append(bwdTrace, next)
		}
		b.logger.Tracef("backward run: reversed %s at state %d", instr, fwd)

		if m.FAE(next).IsEmpty() {
			b.logger.Debugf("backward run: empty heap when reversing %s at state %d, the counterexample is spurious",
				instr, fwd)
			return Result{Verdict: Spurious, FailPoint: fwd, Predicate: m.FAE(bwd)}
		}
		bwd = next
	}
	b.logger.Debugf("backward run: reached the initial state, the counterexample is real")
	return Result{Verdict: NotSpurious, FailPoint: symstate.NoState}
}
