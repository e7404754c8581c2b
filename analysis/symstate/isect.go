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

package symstate

import (
	"fmt"

	"github.com/awslabs/ar-go-forest/analysis/box"
	"github.com/awslabs/ar-go-forest/analysis/config"
	"github.com/awslabs/ar-go-forest/analysis/control"
	"github.com/awslabs/ar-go-forest/analysis/data"
	"github.com/awslabs/ar-go-forest/analysis/forest"
)

// rootState is a state of a given root
type rootState struct {
	root  int
	state int
}

// prodState is a pair of states of the two operands of a product
type prodState struct {
	lhs rootState
	rhs rootState
}

func (p prodState) String() string {
	return fmt.Sprintf("(%d:%d, %d:%d)", p.lhs.root, p.lhs.state, p.rhs.root, p.rhs.state)
}

func invariantf(format string, args ...any) {
	panic(fmt.Errorf("%w: "+format, append([]any{forest.ErrInvariant}, args...)...))
}

func sameManager(a, b *forest.FAE) *box.Manager {
	if a.Manager() != b.Manager() {
		invariantf("forest automata built by different box managers")
	}
	return a.Manager()
}

// agree returns true if the values of two slots are compatible in a product: both references with the same
// displacement, or equal non-reference values.
func agree(l, r data.Data) bool {
	if l.IsRef() || r.IsRef() {
		return l.IsRef() && r.IsRef() && l.Displ == r.Displ
	}
	return l == r
}

// ********** Intersection **********

type isectEngine struct {
	lhs, rhs   *forest.FAE
	out        *forest.FAE
	processed  map[prodState]rootState
	rootMap    map[[2]int]int
	rhsRootMap map[int]int
	work       []prodState
	logger     *config.LogGroup
	skipped    bool
}

// product returns the output state of the pair (lhsRoot:lhsState, rhsRoot:rhsState), creating it if needed. The
// first state of a new output root is its final state.
func (e *isectEngine) product(lhsRoot, lhsState, rhsRoot, rhsState int) rootState {
	key := prodState{lhs: rootState{lhsRoot, lhsState}, rhs: rootState{rhsRoot, rhsState}}
	if rs, ok := e.processed[key]; ok {
		return rs
	}
	root, ok := e.rootMap[[2]int{lhsRoot, rhsRoot}]
	isNew := !ok
	if isNew {
		root = e.out.AppendRoot(e.out.AllocTA())
		e.rootMap[[2]int{lhsRoot, rhsRoot}] = root
	}
	if _, ok := e.rhsRootMap[rhsRoot]; !ok {
		e.rhsRootMap[rhsRoot] = root
	}
	rs := rootState{root: root, state: e.out.NewState()}
	if isNew {
		e.out.Root(root).AddFinalState(rs.state)
	}
	e.processed[key] = rs
	e.work = append(e.work, key)
	return rs
}

func (e *isectEngine) productOfRoots(lhsRoot, rhsRoot int) rootState {
	return e.product(lhsRoot, e.lhs.FinalState(lhsRoot), rhsRoot, e.rhs.FinalState(rhsRoot))
}

// entry pairs the values of a variable or a register
func (e *isectEngine) entry(l, r data.Data) data.Data {
	if !l.IsRef() {
		return l
	}
	return l.WithRoot(e.productOfRoots(l.Root, r.Root).root)
}

func (e *isectEngine) run() {
	for len(e.work) > 0 {
		ps := e.work[len(e.work)-1]
		e.work = e.work[:len(e.work)-1]
		rs := e.processed[ps]
		outTA := e.out.Root(rs.root)
		lhsTA := e.lhs.Root(ps.lhs.root)
		rhsTA := e.rhs.Root(ps.rhs.root)

		for _, lt := range lhsTA.TransitionsTo(ps.lhs.state) {
			for _, rt := range rhsTA.TransitionsTo(ps.rhs.state) {
				if lt.Label != rt.Label {
					e.skipped = true
					continue
				}
				children := make([]int, len(lt.Children))
				keep := true
				for i := range lt.Children {
					children[i], keep = e.child(ps, outTA, lt.Children[i], rt.Children[i])
					if !keep {
						break
					}
				}
				if keep {
					outTA.AddTransition(children, lt.Label, rs.state)
				}
			}
		}
	}
}

// child returns the output state of a pair of children, and false if the pair has an empty language
func (e *isectEngine) child(ps prodState, outTA *box.TA, lc, rc int) (int, bool) {
	ld, lIsData := e.lhs.IsData(lc)
	rd, rIsData := e.rhs.IsData(rc)
	switch {
	case !lIsData && !rIsData:
		return e.product(ps.lhs.root, lc, ps.rhs.root, rc).state, true

	case lIsData && rIsData && !ld.IsRef() && !rd.IsRef():
		if ld != rd {
			return 0, false
		}
		return e.out.AddData(outTA, ld), true

	case lIsData && rIsData && ld.IsRef() && rd.IsRef():
		if ld.Displ != rd.Displ {
			return 0, false
		}
		ref := e.productOfRoots(ld.Root, rd.Root)
		return e.out.AddData(outTA, ld.WithRoot(ref.root)), true

	case (lIsData && ld.IsNull()) || (rIsData && rd.IsNull()):
		return 0, false

	case lIsData && ld.IsRef() && !rIsData:
		// the rhs continues in the current root where the lhs jumps to another one
		ref := e.product(ld.Root, e.lhs.FinalState(ld.Root), ps.rhs.root, rc)
		return e.out.AddData(outTA, ld.WithRoot(ref.root)), true

	case rIsData && rd.IsRef() && !lIsData:
		ref := e.product(ps.lhs.root, lc, rd.Root, e.rhs.FinalState(rd.Root))
		return e.out.AddData(outTA, rd.WithRoot(ref.root)), true
	}
	e.logger.Warnf("intersection: unexpected pair of children %d and %d at %s, cutting", lc, rc, ps)
	return 0, false
}

// rootOrder returns the position in the result of each output root: an output root created for rhs root r goes to
// position r, the other ones take the unused positions in increasing order.
func (e *isectEngine) rootOrder() ([]int, int) {
	n := e.out.RootCount()
	size := n
	if e.rhs.RootCount() > size {
		size = e.rhs.RootCount()
	}
	index := make([]int, n)
	for i := range index {
		index[i] = -1
	}
	used := make([]bool, size)
	for rhsRoot, outRoot := range e.rhsRootMap {
		if index[outRoot] >= 0 {
			invariantf("output root %d is the image of rhs roots %d and %d", outRoot, index[outRoot], rhsRoot)
		}
		index[outRoot] = rhsRoot
		used[rhsRoot] = true
	}
	next := 0
	for i := range index {
		if index[i] >= 0 {
			continue
		}
		for used[next] {
			next++
		}
		index[i] = next
		used[next] = true
	}
	return index, size
}

func relabel(d data.Data, index []int) data.Data {
	if !d.IsRef() {
		return d
	}
	return d.WithRoot(index[d.Root])
}

// Intersect computes the forest automaton whose language is included in the languages of both lhs and rhs. The
// result keeps the root order of rhs. If the variables or registers of the operands disagree, or if some root of the
// product has an empty language, the result is the canonical empty forest automaton.
//
// Only transitions with identical labels are paired: boxes are never unfolded, so the product under-approximates the
// intersection when the operands fold the same structures differently.
func Intersect(lhs, rhs Snapshot, logger *config.LogGroup) Snapshot {
	man := sameManager(lhs.FAE, rhs.FAE)
	empty := Snapshot{FAE: forest.Empty(man), Regs: append([]data.Data(nil), lhs.Regs...)}
	if lhs.FAE.IsEmpty() || rhs.FAE.IsEmpty() {
		return empty
	}
	if len(lhs.Regs) != len(rhs.Regs) || lhs.FAE.VarCount() != rhs.FAE.VarCount() {
		logger.Debugf("intersection: operands have different numbers of registers or variables")
		return empty
	}
	for i := range lhs.Regs {
		if !agree(lhs.Regs[i], rhs.Regs[i]) {
			logger.Debugf("intersection: register %d differs (%s, %s)", i, lhs.Regs[i], rhs.Regs[i])
			return empty
		}
	}
	for i := 0; i < lhs.FAE.VarCount(); i++ {
		if !agree(lhs.FAE.Var(i), rhs.FAE.Var(i)) {
			logger.Debugf("intersection: variable %d differs (%s, %s)", i, lhs.FAE.Var(i), rhs.FAE.Var(i))
			return empty
		}
	}

	e := &isectEngine{
		lhs:        lhs.FAE,
		rhs:        rhs.FAE,
		out:        forest.New(man),
		processed:  map[prodState]rootState{},
		rootMap:    map[[2]int]int{},
		rhsRootMap: map[int]int{},
		logger:     logger,
	}
	vars := make([]data.Data, lhs.FAE.VarCount())
	for i := range vars {
		vars[i] = e.entry(lhs.FAE.Var(i), rhs.FAE.Var(i))
	}
	regs := make([]data.Data, len(lhs.Regs))
	for i := range regs {
		regs[i] = e.entry(lhs.Regs[i], rhs.Regs[i])
	}
	e.run()
	if e.skipped {
		logger.Warnf("underapproximating intersection")
	}

	for i := 0; i < e.out.RootCount(); i++ {
		ta := e.out.Root(i).UselessAndUnreachableFree()
		if len(ta.FinalStates()) == 0 {
			logger.Debugf("intersection: root %d of the product is empty", i)
			return empty
		}
		e.out.SetRoot(i, ta)
	}

	index, size := e.rootOrder()
	res := forest.New(man)
	res.ResizeRoots(size)
	for i := 0; i < e.out.RootCount(); i++ {
		res.SetRoot(index[i], e.out.RelabelReferences(e.out.Root(i), index))
	}
	for i := range vars {
		res.PushVar(relabel(vars[i], index))
	}
	for i := range regs {
		regs[i] = relabel(regs[i], index)
	}
	res.SetStateOffset(e.out.NextState())
	return Snapshot{FAE: res, Regs: regs}
}

// Intersect replaces the heap of the backward state bwd by its intersection with the heap of the forward state fwd.
// Returns the Empty signal if the intersection is empty.
func (m *Manager) Intersect(bwd, fwd ID) control.Signal {
	res := Intersect(m.Snapshot(bwd), m.Snapshot(fwd), m.logger)
	e := m.get(bwd)
	e.snap = res
	if res.FAE.IsEmpty() {
		return control.EmptyResult()
	}
	return control.Proceed()
}

// ********** Substitution **********

type substEngine struct {
	this, src *forest.FAE
	out       *forest.FAE
	oldValue  data.Data
	newValue  data.Data
	processed map[prodState]bool
	work      []prodState
}

// product registers the pair (thisRoot:thisState, srcRoot:srcState). The output state is thisRoot:thisState.
func (e *substEngine) product(thisRoot, thisState, srcRoot, srcState int) {
	key := prodState{lhs: rootState{thisRoot, thisState}, rhs: rootState{srcRoot, srcState}}
	if e.processed[key] {
		return
	}
	e.processed[key] = true
	e.work = append(e.work, key)
}

func (e *substEngine) productOfRoots(thisRoot, srcRoot int) {
	e.product(thisRoot, e.this.FinalState(thisRoot), srcRoot, e.src.FinalState(srcRoot))
}

// entry computes the value of a variable or register of the result
func (e *substEngine) entry(what string, i int, tv, sv data.Data) data.Data {
	if sv.IsRef() && tv.IsUndef() {
		if sv != e.oldValue {
			invariantf("%s %d: undefined value against %s, expected %s", what, i, sv, e.oldValue)
		}
		tv = e.newValue
	}
	if !tv.IsRef() || !sv.IsRef() {
		if tv != sv {
			invariantf("%s %d: %s differs from %s", what, i, tv, sv)
		}
		return tv
	}
	if tv.Displ != sv.Displ {
		invariantf("%s %d: displacements of %s and %s differ", what, i, tv, sv)
	}
	e.productOfRoots(tv.Root, sv.Root)
	return tv
}

func (e *substEngine) run() {
	for len(e.work) > 0 {
		ps := e.work[len(e.work)-1]
		e.work = e.work[:len(e.work)-1]
		outTA := e.out.Root(ps.lhs.root)
		if outTA == nil {
			invariantf("substitution reached the empty root %d", ps.lhs.root)
		}
		thisTA := e.this.Root(ps.lhs.root)
		srcTA := e.src.Root(ps.rhs.root)

		for _, tt := range thisTA.TransitionsTo(ps.lhs.state) {
			for _, st := range srcTA.TransitionsTo(ps.rhs.state) {
				if tt.Label != st.Label {
					continue
				}
				children := make([]int, len(tt.Children))
				keep := true
				for i := range tt.Children {
					children[i], keep = e.child(ps, outTA, tt.Children[i], st.Children[i])
					if !keep {
						break
					}
				}
				if keep {
					outTA.AddTransition(children, tt.Label, tt.Parent)
				}
			}
		}
	}
}

func (e *substEngine) child(ps prodState, outTA *box.TA, tc, sc int) (int, bool) {
	td, tIsData := e.this.IsData(tc)
	sd, sIsData := e.src.IsData(sc)
	switch {
	case !tIsData && !sIsData:
		e.product(ps.lhs.root, tc, ps.rhs.root, sc)
		return tc, true

	case sIsData && sd == e.oldValue:
		if !tIsData || !td.IsUndef() {
			invariantf("substituted reference %s at %s faces %d, expected an undefined value", sd, ps, tc)
		}
		if e.this.HasRoot(e.newValue.Root) {
			e.productOfRoots(e.newValue.Root, sd.Root)
		}
		return e.out.AddData(outTA, e.newValue), true

	case tIsData && sIsData && !td.IsRef() && !sd.IsRef():
		return e.out.AddData(outTA, td), true

	case tIsData && sIsData && td.IsRef() && sd.IsRef():
		e.productOfRoots(td.Root, sd.Root)
		return e.out.AddData(outTA, td), true

	case (tIsData && td.IsNull()) || (sIsData && sd.IsNull()):
		return 0, false

	case sIsData && sd.IsRef() && !tIsData:
		e.product(ps.lhs.root, tc, sd.Root, e.src.FinalState(sd.Root))
		return tc, true

	case tIsData && td.IsRef() && !sIsData:
		e.product(td.Root, e.this.FinalState(td.Root), ps.rhs.root, sc)
		return e.out.AddData(outTA, td), true
	}
	invariantf("unexpected pair of children %d and %d at %s", tc, sc, ps)
	return 0, false
}

// SubstituteRefs returns this where the undefined values that face the reference oldValue in src are replaced by the
// reference newValue. The roots of this keep their indices and states; the result only keeps the parts of this that
// match src. Values of this and src that must agree and do not are fatal.
func SubstituteRefs(this, src Snapshot, oldValue, newValue data.Data, logger *config.LogGroup) Snapshot {
	if !oldValue.IsRef() || !newValue.IsRef() {
		invariantf("substitution of %s by %s: both values must be references", oldValue, newValue)
	}
	man := sameManager(this.FAE, src.FAE)
	if logger.Enabled(config.TraceLevel) {
		logger.Tracef("before substitution:\n%s", this.FAE)
	}

	e := &substEngine{
		this:      this.FAE,
		src:       src.FAE,
		out:       forest.New(man),
		oldValue:  oldValue,
		newValue:  newValue,
		processed: map[prodState]bool{},
	}
	e.out.SetStateOffset(this.FAE.NextState())
	for i := 0; i < this.FAE.RootCount(); i++ {
		root := this.FAE.Root(i)
		if root == nil {
			e.out.AppendRoot(nil)
			continue
		}
		ta := e.out.AllocTA()
		ta.AddFinalStates(root.FinalStates())
		e.out.AppendRoot(ta)
	}

	if this.FAE.VarCount() != src.FAE.VarCount() {
		invariantf("substitution between %d and %d variables", this.FAE.VarCount(), src.FAE.VarCount())
	}
	for i := 0; i < this.FAE.VarCount(); i++ {
		e.out.PushVar(e.entry("variable", i, this.FAE.Var(i), src.FAE.Var(i)))
	}
	if len(this.Regs) != len(src.Regs) {
		invariantf("substitution between %d and %d registers", len(this.Regs), len(src.Regs))
	}
	regs := make([]data.Data, len(this.Regs))
	for i := range regs {
		regs[i] = e.entry("register", i, this.Regs[i], src.Regs[i])
	}
	e.run()

	if logger.Enabled(config.TraceLevel) {
		logger.Tracef("after substitution:\n%s", e.out)
	}
	return Snapshot{FAE: e.out, Regs: regs}
}

// SubstituteRefs applies SubstituteRefs to the heap of state id, against the heap of state src
func (m *Manager) SubstituteRefs(id, src ID, oldValue, newValue data.Data) {
	res := SubstituteRefs(m.Snapshot(id), m.Snapshot(src), oldValue, newValue, m.logger)
	m.get(id).snap = res
}
