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

package box

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/awslabs/ar-go-forest/analysis/treeaut"
	"golang.org/x/exp/slices"
	"golang.org/x/tools/container/intsets"
)

// TA is the type of the tree automata labelled by interned labels
type TA = treeaut.TreeAut[*Label]

// Trans is the type of the transitions of a TA
type Trans = treeaut.Transition[*Label]

// SelectorPair holds the first selector reaching an input port of a box and the lowest selector through which the
// output can be reached back from that port
type SelectorPair struct {
	Fwd int
	Bwd int
}

// Box is a learned hierarchical box. A box of type 1 has only an output component, a box of type 2 also has an input
// component plugged at port InputIndex. Boxes are built by Manager.CreateType1Box and CreateType2Box and become
// immutable once returned by Manager.GetBox.
type Box struct {
	uid  int
	name string

	output          *TA
	outputSignature CutpointSignature
	outputLabels    []*Label

	inputMap []int

	input          *TA
	inputIndex     int
	inputSignature CutpointSignature
	inputLabels    []*Label

	selectors []SelectorPair

	// selCoverage[0] is the output coverage, selCoverage[i+1] the coverage of input i
	selCoverage   []intsets.Sparse
	selfReference bool
	order         int
	initialized   bool
}

func newBox(output *TA, outputSignature CutpointSignature, inputMap []int, input *TA, inputIndex int,
	inputSignature CutpointSignature, selectors []SelectorPair) *Box {
	b := &Box{
		uid:             -1,
		output:          output,
		outputSignature: outputSignature,
		outputLabels:    acceptingLabels(output),
		inputMap:        inputMap,
		input:           input,
		inputIndex:      inputIndex,
		inputSignature:  inputSignature,
		selectors:       selectors,
	}
	if input != nil {
		b.inputLabels = acceptingLabels(input)
	}
	return b
}

// acceptingLabels returns the labels of the transitions reaching a final state, sorted by identifier
func acceptingLabels(ta *TA) []*Label {
	var labels []*Label
	for _, t := range ta.AcceptingTransitions() {
		if !slices.Contains(labels, t.Label) {
			labels = append(labels, t.Label)
		}
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].id < labels[j].id })
	return labels
}

func (b *Box) Kind() Kind { return KindBox }

// Arity returns the number of input ports of the box
func (b *Box) Arity() int { return len(b.selectors) }

// Order returns the lowest selector covered by the box
func (b *Box) Order() int { return b.order }

func (b *Box) UID() int { return b.uid }

// Name returns the display name of a learned box
func (b *Box) Name() string { return b.name }

// Output returns the output component
func (b *Box) Output() *TA { return b.output }

// OutputSignature returns the cutpoint signature of the output component
func (b *Box) OutputSignature() CutpointSignature { return b.outputSignature }

// Input returns the input component, nil for a box of type 1
func (b *Box) Input() *TA { return b.input }

// InputIndex returns the port where the input component is plugged
func (b *Box) InputIndex() int { return b.inputIndex }

// InputSignature returns the cutpoint signature of the input component
func (b *Box) InputSignature() CutpointSignature { return b.inputSignature }

// Selectors returns the selector pairs of the ports. The slice must not be modified.
func (b *Box) Selectors() []SelectorPair { return b.selectors }

// Selector returns the selector of the original heap mapped to port i
func (b *Box) Selector(i int) int {
	if i < 0 || i >= len(b.inputMap) {
		Invariantf("box %s has no input map entry %d", b.name, i)
	}
	return b.inputMap[i]
}

// HasSelfReference returns true if the output component refers back to the cell the box is attached to
func (b *Box) HasSelfReference() bool { return b.selfReference }

func (b *Box) coverage(i int) []int {
	if !b.initialized {
		Invariantf("coverage of box %q requested before initialization", b.name)
	}
	if i < 0 || i >= len(b.selCoverage) {
		Invariantf("box %s has no port %d", b.name, i-1)
	}
	return b.selCoverage[i].AppendTo(nil)
}

func (b *Box) OutputCoverage() []int { return b.coverage(0) }

func (b *Box) InputCoverage(i int) []int { return b.coverage(i + 1) }

// InputCovers returns true if the box defines the selector offset at the cell plugged in input i
func (b *Box) InputCovers(i int, offset int) bool {
	if i+1 >= len(b.selCoverage) {
		return false
	}
	return b.selCoverage[i+1].Has(offset)
}

func (b *Box) SelectorToInput(i int) int {
	if i < 0 || i >= len(b.selectors) {
		Invariantf("box %s has no port %d", b.name, i)
	}
	return b.selectors[i].Fwd
}

func (b *Box) OutputReachable(i int) int {
	if i < 0 || i >= len(b.selectors) {
		Invariantf("box %s has no port %d", b.name, i)
	}
	return b.selectors[i].Bwd
}

// Signature returns the key under which the box is stored in an antichain
func (b *Box) Signature() string {
	var s strings.Builder
	s.WriteString(b.outputSignature.String())
	if b.input != nil {
		fmt.Fprintf(&s, "#%d#%s", b.inputIndex, b.inputSignature.String())
	}
	s.WriteString("#")
	for _, p := range b.selectors {
		fmt.Fprintf(&s, "(%d,%d)", p.Fwd, p.Bwd)
	}
	return s.String()
}

// Equal returns true if both boxes have the same interface and denote the same languages
func (b *Box) Equal(other *Box) bool {
	if (b.input == nil) != (other.input == nil) {
		return false
	}
	if b.input != nil {
		if b.inputIndex != other.inputIndex || !b.inputSignature.Equal(other.inputSignature) ||
			!slices.Equal(b.inputLabels, other.inputLabels) {
			return false
		}
	}
	if !b.outputSignature.Equal(other.outputSignature) || !slices.Equal(b.outputLabels, other.outputLabels) ||
		!slices.Equal(b.selectors, other.selectors) {
		return false
	}
	if !treeaut.Equal(b.output, other.output) {
		return false
	}
	return b.input == nil || treeaut.Equal(b.input, other.input)
}

// LessOrEqual returns true if both boxes have the same interface and the languages of b are included in the
// languages of other
func (b *Box) LessOrEqual(other *Box) bool {
	if (b.input == nil) != (other.input == nil) {
		return false
	}
	if b.input != nil && (b.inputIndex != other.inputIndex || !b.inputSignature.Equal(other.inputSignature)) {
		return false
	}
	if !b.outputSignature.Equal(other.outputSignature) || !slices.Equal(b.selectors, other.selectors) {
		return false
	}
	return b.languagesIncluded(other)
}

// SimplifiedLessThan is the subsumption order of antichains. Boxes of an antichain bucket share their signature, so
// only the shape of the box and the language inclusion are checked.
func (b *Box) SimplifiedLessThan(other *Box) bool {
	if (b.input == nil) != (other.input == nil) {
		return false
	}
	if b.input != nil && b.inputIndex != other.inputIndex {
		return false
	}
	return b.languagesIncluded(other)
}

func (b *Box) languagesIncluded(other *Box) bool {
	if !treeaut.Subseteq(b.output, other.output) {
		return false
	}
	return b.input == nil || treeaut.Subseteq(b.input, other.input)
}

// initialize computes the coverage of the box. It is called once, when the box is learned.
func (b *Box) initialize() {
	b.selCoverage = make([]intsets.Sparse, b.Arity()+1)
	b.initialized = true

	downwardCoverage(&b.selCoverage[0], b.output)
	if b.selCoverage[0].IsEmpty() {
		Invariantf("box %s covers no selector", b.name)
	}
	b.order = b.selCoverage[0].Min()
	b.enumerateSelectorsAtLeaves(b.output)
	b.selfReference = b.outputSignature.Contains(0)

	if b.input == nil {
		return
	}
	if b.inputIndex+1 >= len(b.selCoverage) {
		Invariantf("input index %d of box %s is out of range", b.inputIndex, b.name)
	}
	downwardCoverage(&b.selCoverage[b.inputIndex+1], b.input)
	b.enumerateSelectorsAtLeaves(b.input)
}

// labelCoverage returns the selectors covered by the boxes of a node label, in label order
func labelCoverage(l *Label) []int {
	var v []int
	for _, x := range l.Node() {
		switch x := x.(type) {
		case *SelBox:
			v = append(v, x.data.Offset)
		case *Box:
			v = append(v, x.OutputCoverage()...)
		}
	}
	return v
}

// downwardCoverage stores in s the selectors covered by the accepting transitions of ta. All accepting transitions
// must cover the same selectors.
func downwardCoverage(s *intsets.Sparse, ta *TA) {
	acc := ta.AcceptingTransitions()
	if len(acc) == 0 {
		Invariantf("component without accepting transitions")
	}
	v := labelCoverage(acc[0].Label)
	for _, t := range acc[1:] {
		if !slices.Equal(v, labelCoverage(t.Label)) {
			Invariantf("accepting transitions %s and %s cover different selectors", acc[0], t)
		}
	}
	for _, x := range v {
		if !s.Insert(x) {
			Invariantf("selector %d is covered twice", x)
		}
	}
}

// enumerateSelectorsAtLeaves adds to the coverage of each port the selectors defined by the nested boxes whose
// inputs are references to that port
func (b *Box) enumerateSelectorsAtLeaves(ta *TA) {
	for _, t := range ta.Transitions() {
		if !t.Label.IsNode() {
			continue
		}
		t := t
		t.Label.Iterate(func(x AbstractBox, _ int, offset int) bool {
			nested, ok := x.(*Box)
			if !ok {
				return true
			}
			for k := 0; k < nested.Arity(); k++ {
				ref, isRef := LeafRef(ta, t.Children[offset+k])
				if !isRef {
					continue
				}
				if ref < 0 || ref >= len(b.selCoverage) {
					Invariantf("reference to port %d in box %s of arity %d", ref, b.name, b.Arity())
				}
				for _, sel := range nested.InputCoverage(k) {
					b.selCoverage[ref].Insert(sel)
				}
			}
			return true
		})
	}
}

// LeafRef returns the root referenced by state if state is a reference leaf of ta
func LeafRef(ta *TA, state int) (int, bool) {
	ts := ta.TransitionsTo(state)
	if len(ts) == 0 || !ts[0].Label.IsData() {
		return 0, false
	}
	d := ts[0].Label.Data()
	if !d.IsRef() {
		return 0, false
	}
	return d.Root, true
}

func (b *Box) String() string {
	var s strings.Builder
	s.WriteString(b.name)
	s.WriteString("(" + strconv.Itoa(b.Arity()) + ")[in=")
	if b.initialized {
		s.WriteString(joinInts(b.OutputCoverage()))
		for i := 0; i < b.Arity(); i++ {
			s.WriteString("; out" + strconv.Itoa(i) + "=" + joinInts(b.InputCoverage(i)))
		}
	}
	s.WriteString("]")
	return s.String()
}

// Dump returns a multi-line description of the box with its components
func (b *Box) Dump() string {
	var s strings.Builder
	fmt.Fprintf(&s, "=== %s output [%s]\n%s", b, b.outputSignature, b.output)
	if b.input != nil {
		fmt.Fprintf(&s, "=== input %d [%s]\n%s", b.inputIndex, b.inputSignature, b.input)
	}
	return s.String()
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}
