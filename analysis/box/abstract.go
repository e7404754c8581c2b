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

// Package box implements the vocabulary of forest automata: the boxes that appear in transition labels (type
// information, selectors and learned hierarchical boxes), the interned labels, and the Manager that learns boxes and
// keeps them in an antichain.
package box

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvariant is wrapped by the values of all panics raised when the representation of a heap is found corrupted
var ErrInvariant = errors.New("invariant violation")

// Invariantf panics with an error wrapping ErrInvariant. Arguments are handled in the manner of Printf
func Invariantf(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...)))
}

// NoSelector marks the absence of a selector offset, e.g. a cutpoint that cannot be reached backward
const NoSelector = -1

// Kind is the kind of an abstract box
type Kind int

const (
	// KindTypeInfo is the kind of type information boxes
	KindTypeInfo Kind = iota
	// KindSel is the kind of selector boxes
	KindSel
	// KindBox is the kind of learned hierarchical boxes
	KindBox
)

func (k Kind) String() string {
	switch k {
	case KindTypeInfo:
		return "type"
	case KindSel:
		return "sel"
	case KindBox:
		return "box"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// AbstractBox is an element of a node label. The arity of a box is the number of children it consumes in a
// transition. Boxes are interned by a Manager and compared by identity.
type AbstractBox interface {
	Kind() Kind
	Arity() int
	Order() int
	UID() int
	String() string
}

// A StructuralBox is a box that covers selectors of a memory cell
type StructuralBox interface {
	AbstractBox

	// OutputCoverage returns the sorted selector offsets defined by the box at the cell it is attached to
	OutputCoverage() []int

	// InputCoverage returns the sorted selector offsets that the box defines at the cell plugged in its i-th input
	InputCoverage(i int) []int

	// SelectorToInput returns the offset of the first selector reaching the i-th input
	SelectorToInput(i int) int

	// OutputReachable returns the lowest selector of the i-th input from which the output is reachable backward,
	// or NoSelector
	OutputReachable(i int) int
}

// TypeBox records the memory layout of a named type
type TypeBox struct {
	uid       int
	name      string
	selectors []int
}

func (t *TypeBox) Kind() Kind { return KindTypeInfo }
func (t *TypeBox) Arity() int { return 0 }
func (t *TypeBox) Order() int { return 0 }
func (t *TypeBox) UID() int   { return t.uid }

// Name returns the name of the type
func (t *TypeBox) Name() string { return t.name }

// Selectors returns the selector offsets of the type. The slice must not be modified.
func (t *TypeBox) Selectors() []int { return t.selectors }

func (t *TypeBox) String() string {
	if len(t.selectors) == 0 {
		return t.name
	}
	var b strings.Builder
	b.WriteString(t.name)
	b.WriteByte('{')
	for _, s := range t.selectors {
		b.WriteString(strconv.Itoa(s))
		b.WriteByte(';')
	}
	b.WriteByte('}')
	return b.String()
}

// SelData describes a selector: its offset in the cell, the size of the field and the displacement of the pointer
// stored in it
type SelData struct {
	Offset int
	Size   int
	Displ  int
}

func (s SelData) String() string {
	if s.Size == 0 && s.Displ == 0 {
		return "+" + strconv.Itoa(s.Offset)
	}
	return fmt.Sprintf("+%d:%d:%d", s.Offset, s.Size, s.Displ)
}

// SelBox is the box of a single selector. It has exactly one child: the value of the selector.
type SelBox struct {
	uid  int
	data SelData
}

func (s *SelBox) Kind() Kind     { return KindSel }
func (s *SelBox) Arity() int     { return 1 }
func (s *SelBox) Order() int     { return s.data.Offset }
func (s *SelBox) UID() int       { return s.uid }
func (s *SelBox) String() string { return s.data.String() }

// Data returns the selector described by the box
func (s *SelBox) Data() SelData { return s.data }

func (s *SelBox) OutputCoverage() []int { return []int{s.data.Offset} }

func (s *SelBox) InputCoverage(i int) []int {
	if i != 0 {
		Invariantf("selector %s has a single input, got %d", s, i)
	}
	return nil
}

func (s *SelBox) SelectorToInput(i int) int {
	if i != 0 {
		Invariantf("selector %s has a single input, got %d", s, i)
	}
	return s.data.Offset
}

func (s *SelBox) OutputReachable(int) int { return NoSelector }
