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

// Package heapfile reads forest automata and type declarations from yaml descriptions.
//
// A heap file looks like:
//
//	types:
//	  - name: list
//	    selectors: [0]
//	vars: [ref:0]
//	regs: [int:1]
//	roots:
//	  - final: q0
//	    transitions:
//	      - {parent: q0, type: list, selectors: [0], children: [q1]}
//	      - {parent: q1, type: list, selectors: [0], children: [null]}
//
// Children are state names, local to their root, or data literals (see data.Parse). A yaml null, quoted or not, is
// the null value. A transition may list learned
// boxes by name after its selectors with the boxes key. A root without final state is an empty slot.
package heapfile

import (
	"fmt"

	"github.com/awslabs/ar-go-forest/analysis/box"
	"github.com/awslabs/ar-go-forest/analysis/data"
	"github.com/awslabs/ar-go-forest/analysis/forest"
	"gopkg.in/yaml.v3"
)

// TypeDecl declares a memory-cell type
type TypeDecl struct {
	Name      string `yaml:"name"`
	Selectors []int  `yaml:"selectors"`
}

// TransitionDecl is a transition of a root
type TransitionDecl struct {
	Parent    string      `yaml:"parent"`
	Type      string      `yaml:"type"`
	Selectors []int       `yaml:"selectors"`
	Boxes     []string    `yaml:"boxes"`
	Children  []yaml.Node `yaml:"children"`
}

// RootDecl is a root of the heap
type RootDecl struct {
	Final       string           `yaml:"final"`
	Transitions []TransitionDecl `yaml:"transitions"`
}

// File is the content of a heap file
type File struct {
	Types []TypeDecl  `yaml:"types"`
	Vars  []yaml.Node `yaml:"vars"`
	Regs  []yaml.Node `yaml:"regs"`
	Roots []RootDecl  `yaml:"roots"`
}

// Heap is a forest automaton with the values of the registers
type Heap struct {
	FAE  *forest.FAE
	Regs []data.Data
}

// Parse reads a heap file without building it
func Parse(b []byte) (*File, error) {
	f := &File{}
	if err := yaml.Unmarshal(b, f); err != nil {
		return nil, fmt.Errorf("could not unmarshal heap file: %w", err)
	}
	return f, nil
}

// Load reads a heap file and builds its forest automaton with the box manager m. The types of the file are declared
// in m.
func Load(m *box.Manager, b []byte) (*Heap, error) {
	f, err := Parse(b)
	if err != nil {
		return nil, err
	}
	return f.Build(m)
}

// LoadTypes declares in m the types of a type database
func LoadTypes(m *box.Manager, b []byte) error {
	f, err := Parse(b)
	if err != nil {
		return err
	}
	return f.declareTypes(m)
}

func (f *File) declareTypes(m *box.Manager) error {
	for _, t := range f.Types {
		if t.Name == "" {
			return fmt.Errorf("type without name")
		}
		if _, err := m.CreateTypeInfo(t.Name, t.Selectors); err != nil {
			return err
		}
	}
	return nil
}

// Build builds the heap described by f
func (f *File) Build(m *box.Manager) (*Heap, error) {
	if err := f.declareTypes(m); err != nil {
		return nil, err
	}
	fae := forest.New(m)
	for i := range f.Vars {
		d, err := parseValue(&f.Vars[i])
		if err != nil {
			return nil, fmt.Errorf("variable %d: %w", i, err)
		}
		fae.PushVar(d)
	}
	regs := make([]data.Data, len(f.Regs))
	for i := range f.Regs {
		d, err := parseValue(&f.Regs[i])
		if err != nil {
			return nil, fmt.Errorf("register %d: %w", i, err)
		}
		regs[i] = d
	}

	for i, r := range f.Roots {
		if r.Final == "" {
			if len(r.Transitions) > 0 {
				return nil, fmt.Errorf("root %d has transitions but no final state", i)
			}
			fae.AppendRoot(nil)
			continue
		}
		ta, err := buildRoot(m, fae, r)
		if err != nil {
			return nil, fmt.Errorf("root %d: %w", i, err)
		}
		fae.AppendRoot(ta)
	}
	if err := fae.Validate(); err != nil {
		return nil, err
	}
	return &Heap{FAE: fae, Regs: regs}, nil
}

func buildRoot(m *box.Manager, fae *forest.FAE, r RootDecl) (*box.TA, error) {
	ta := fae.AllocTA()
	states := map[string]int{}
	state := func(name string) int {
		if s, ok := states[name]; ok {
			return s
		}
		s := fae.NewState()
		states[name] = s
		return s
	}

	for _, t := range r.Transitions {
		label, err := nodeLabel(m, t)
		if err != nil {
			return nil, err
		}
		if label.Arity() != len(t.Children) {
			return nil, fmt.Errorf("transition to %s has %d children, its label %s expects %d",
				t.Parent, len(t.Children), label, label.Arity())
		}
		children := make([]int, len(t.Children))
		for i := range t.Children {
			c := &t.Children[i]
			if c.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: child %d of %s is not a value nor a state", c.Line, i, t.Parent)
			}
			if d, err := parseValue(c); err == nil {
				children[i] = fae.AddData(ta, d)
			} else {
				children[i] = state(c.Value)
			}
		}
		ta.AddTransition(children, label, state(t.Parent))
	}
	if _, ok := states[r.Final]; !ok {
		return nil, fmt.Errorf("final state %s has no transition", r.Final)
	}
	ta.AddFinalState(states[r.Final])
	return ta, nil
}

// parseValue reads a data literal. Null nodes are not passed to custom unmarshalers by yaml.v3, so the null tag is
// resolved here.
func parseValue(n *yaml.Node) (data.Data, error) {
	if n.Kind != yaml.ScalarNode {
		return data.Data{}, fmt.Errorf("line %d: expected a value", n.Line)
	}
	if n.ShortTag() == "!!null" {
		return data.NewNull(), nil
	}
	return data.Parse(n.Value)
}

func nodeLabel(m *box.Manager, t TransitionDecl) (*box.Label, error) {
	var boxes []box.AbstractBox
	if t.Type != "" {
		typ, err := m.GetTypeInfo(t.Type)
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, typ)
	}
	for _, s := range t.Selectors {
		boxes = append(boxes, m.GetSelector(box.SelData{Offset: s}))
	}
	for _, name := range t.Boxes {
		b := findBox(m, name)
		if b == nil {
			return nil, fmt.Errorf("unknown box %q", name)
		}
		boxes = append(boxes, b)
	}
	if len(boxes) == 0 {
		return nil, fmt.Errorf("transition to %s has an empty label", t.Parent)
	}
	return m.LookupNodeLabel(boxes), nil
}

func findBox(m *box.Manager, name string) *box.Box {
	for _, b := range m.Boxes() {
		if b.Name() == name {
			return b
		}
	}
	return nil
}
