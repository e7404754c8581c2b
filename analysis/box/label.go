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
	"strings"

	"github.com/awslabs/ar-go-forest/analysis/data"
)

type labelKind int

const (
	labelData labelKind = iota
	labelNode
	labelDataArray
)

// TypeOffset is the key under which the type information of a node label is stored
const TypeOffset = -1

// NodeItem locates a box in a node label: its position in the label and the position of its first child in the
// transition
type NodeItem struct {
	Box    AbstractBox
	Index  int
	Offset int
}

// A Label is the label of a transition: either a data value (leaves), a memory cell described by a sequence of boxes,
// or an array of data values. Labels are interned by a Manager, two labels are equal iff they are the same pointer.
type Label struct {
	id   int
	kind labelKind

	// data labels
	data   data.Data
	dataID int

	// node labels
	node  []AbstractBox
	items map[int]NodeItem
	tag   []int
	arity int

	// data array labels
	vdata []data.Data
}

// ID returns the identifier of the label in its manager
func (l *Label) ID() int { return l.id }

// IsData returns true if the label is a data leaf
func (l *Label) IsData() bool { return l.kind == labelData }

// Data returns the data of a data label
func (l *Label) Data() data.Data {
	if l.kind != labelData {
		Invariantf("label %s is not a data label", l)
	}
	return l.data
}

// DataID returns the identifier of the data of a data label
func (l *Label) DataID() int {
	if l.kind != labelData {
		Invariantf("label %s is not a data label", l)
	}
	return l.dataID
}

// IsNode returns true if the label describes a memory cell
func (l *Label) IsNode() bool { return l.kind == labelNode }

// IsDataArray returns true if the label is an array of data
func (l *Label) IsDataArray() bool { return l.kind == labelDataArray }

// DataArray returns the values of a data array label. The slice must not be modified.
func (l *Label) DataArray() []data.Data { return l.vdata }

// Node returns the boxes of a node label. The slice must not be modified.
func (l *Label) Node() []AbstractBox {
	if l.kind != labelNode {
		Invariantf("label %s is not a node label", l)
	}
	return l.node
}

// Arity returns the number of children of the transitions carrying this label
func (l *Label) Arity() int { return l.arity }

// Tag returns the sorted selector offsets covered by a node label
func (l *Label) Tag() []int { return l.tag }

// BoxLookup returns the box covering the selector at offset. Use TypeOffset to get the type information.
func (l *Label) BoxLookup(offset int) (NodeItem, bool) {
	if l.kind != labelNode {
		return NodeItem{}, false
	}
	item, ok := l.items[offset]
	return item, ok
}

// TypeInfo returns the type box of a node label, or nil
func (l *Label) TypeInfo() *TypeBox {
	item, ok := l.BoxLookup(TypeOffset)
	if !ok {
		return nil
	}
	return item.Box.(*TypeBox)
}

// Iterate calls f on every box of a node label with its index in the label and the offset of its first child in
// the transition. Iteration stops when f returns false, in which case Iterate returns false.
func (l *Label) Iterate(f func(b AbstractBox, index int, offset int) bool) bool {
	offset := 0
	for i, b := range l.Node() {
		if !f(b, i, offset) {
			return false
		}
		offset += b.Arity()
	}
	return true
}

func (l *Label) String() string {
	var b strings.Builder
	b.WriteByte('<')
	switch l.kind {
	case labelData:
		b.WriteString(l.data.String())
	case labelDataArray:
		for i, d := range l.vdata {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(d.String())
		}
	case labelNode:
		for i, x := range l.node {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(x.String())
		}
	}
	b.WriteByte('>')
	return b.String()
}
