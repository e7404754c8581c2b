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
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// CutpointInfo describes how a cutpoint is reached from a component
type CutpointInfo struct {
	// Root is the index of the cutpoint
	Root int
	// FwdSelectors are the sorted selector offsets through which the cutpoint is reached
	FwdSelectors []int
	// BwdSelector is the lowest selector of the cutpoint through which the component is reached back, or NoSelector
	BwdSelector int
}

// FirstFwdSelector returns the lowest forward selector
func (c CutpointInfo) FirstFwdSelector() int {
	if len(c.FwdSelectors) == 0 {
		Invariantf("cutpoint %d is reached through no selector", c.Root)
	}
	return c.FwdSelectors[0]
}

// Equal returns true if both infos describe the same cutpoint in the same way
func (c CutpointInfo) Equal(other CutpointInfo) bool {
	return c.Root == other.Root && c.BwdSelector == other.BwdSelector && slices.Equal(c.FwdSelectors, other.FwdSelectors)
}

func (c CutpointInfo) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(c.Root))
	b.WriteByte('(')
	for i, s := range c.FwdSelectors {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(s))
	}
	b.WriteByte('|')
	if c.BwdSelector == NoSelector {
		b.WriteByte('-')
	} else {
		b.WriteString(strconv.Itoa(c.BwdSelector))
	}
	b.WriteByte(')')
	return b.String()
}

// CutpointSignature is the ordered list of cutpoints reachable from a component
type CutpointSignature []CutpointInfo

// Equal returns true if both signatures list equal cutpoints in the same order
func (s CutpointSignature) Equal(other CutpointSignature) bool {
	return slices.EqualFunc(s, other, CutpointInfo.Equal)
}

// Contains returns true if root is one of the cutpoints of the signature
func (s CutpointSignature) Contains(root int) bool {
	return s.Find(root) >= 0
}

// Find returns the position of the cutpoint root in the signature, or -1
func (s CutpointSignature) Find(root int) int {
	return slices.IndexFunc(s, func(c CutpointInfo) bool { return c.Root == root })
}

// Clone returns a deep copy of the signature
func (s CutpointSignature) Clone() CutpointSignature {
	if s == nil {
		return nil
	}
	res := make(CutpointSignature, len(s))
	for i, c := range s {
		res[i] = CutpointInfo{
			Root:         c.Root,
			FwdSelectors: append([]int(nil), c.FwdSelectors...),
			BwdSelector:  c.BwdSelector,
		}
	}
	return res
}

func (s CutpointSignature) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// TranslateSignature renumbers the cutpoints of signature according to index, where index maps the roots of a forest
// automaton to the ports of a box. It returns the translated signature, the selector pairs of every cutpoint other
// than root (first forward selector and backward selector) and the first selector reaching the cutpoint aux, or
// NoSelector if aux is not in the signature. When aux appears more than once, its last occurrence wins.
func TranslateSignature(signature CutpointSignature, root int, aux int,
	index []int) (CutpointSignature, []SelectorPair, int) {
	result := make(CutpointSignature, 0, len(signature))
	var selectors []SelectorPair
	auxSelector := NoSelector

	for _, cutpoint := range signature {
		if cutpoint.Root < 0 || cutpoint.Root >= len(index) {
			Invariantf("cutpoint %d is outside of the index of size %d", cutpoint.Root, len(index))
		}
		translated := CutpointInfo{
			Root:         index[cutpoint.Root],
			FwdSelectors: append([]int(nil), cutpoint.FwdSelectors...),
			BwdSelector:  cutpoint.BwdSelector,
		}
		result = append(result, translated)

		if cutpoint.Root == aux {
			auxSelector = cutpoint.FirstFwdSelector()
		}
		if cutpoint.Root != root {
			selectors = append(selectors, SelectorPair{Fwd: cutpoint.FirstFwdSelector(), Bwd: cutpoint.BwdSelector})
		}
	}
	return result, selectors, auxSelector
}
