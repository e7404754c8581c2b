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
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/awslabs/ar-go-forest/analysis/config"
	"github.com/awslabs/ar-go-forest/analysis/control"
	"github.com/awslabs/ar-go-forest/analysis/data"
	"github.com/awslabs/ar-go-forest/internal/funcutil"
	"golang.org/x/exp/slices"
)

var (
	// ErrUnknownType is returned when looking up a type that has not been declared
	ErrUnknownType = errors.New("unknown type")

	// ErrIncompatibleType is returned when a type is declared twice with different layouts
	ErrIncompatibleType = errors.New("type already exists with an incompatible declaration")
)

// A Manager interns labels and boxes, and stores the learned boxes. All the forest automata of an analysis must
// share the same manager. Stores are append-only until Clear is called.
type Manager struct {
	dataStore  map[data.Data]*Label
	dataIndex  []*Label
	nodeStore  map[string]*Label
	vDataStore map[string]*Label
	selIndex   map[SelData]*SelBox
	typeIndex  map[string]*TypeBox
	boxes      *Antichain

	nextUID   int
	nextLabel int

	restartOnLearn bool
	logger         *config.LogGroup
}

// NewManager returns an empty box manager configured by cfg
func NewManager(cfg *config.Config, logger *config.LogGroup) *Manager {
	m := &Manager{
		restartOnLearn: cfg.RestartAfterBoxDiscovery,
		logger:         logger,
	}
	m.Clear()
	return m
}

// Clear drops every label, type, selector and box of the manager. Previously returned labels and boxes must not be
// used with the manager afterwards.
func (m *Manager) Clear() {
	m.dataStore = map[data.Data]*Label{}
	m.dataIndex = nil
	m.nodeStore = map[string]*Label{}
	m.vDataStore = map[string]*Label{}
	m.selIndex = map[SelData]*SelBox{}
	m.typeIndex = map[string]*TypeBox{}
	m.boxes = NewAntichain()
	m.nextUID = 0
	m.nextLabel = 0
}

// Logger returns the log group of the manager
func (m *Manager) Logger() *config.LogGroup {
	return m.logger
}

func (m *Manager) newUID() int {
	m.nextUID++
	return m.nextUID
}

func (m *Manager) newLabel(kind labelKind) *Label {
	m.nextLabel++
	return &Label{id: m.nextLabel, kind: kind}
}

func (m *Manager) insertData(d data.Data) *Label {
	if l, ok := m.dataStore[d]; ok {
		return l
	}
	l := m.newLabel(labelData)
	l.data = d
	l.dataID = len(m.dataIndex)
	m.dataStore[d] = l
	m.dataIndex = append(m.dataIndex, l)
	return l
}

// LookupDataLabel returns the label of the data leaf d
func (m *Manager) LookupDataLabel(d data.Data) *Label {
	return m.insertData(d)
}

// DataID returns the identifier of d. Identifiers are allocated in order of first use.
func (m *Manager) DataID(d data.Data) int {
	return m.insertData(d).dataID
}

// DataByID returns the data of identifier id
func (m *Manager) DataByID(id int) data.Data {
	if id < 0 || id >= len(m.dataIndex) {
		Invariantf("no data with identifier %d", id)
	}
	return m.dataIndex[id].data
}

// DataCount returns the number of data values interned
func (m *Manager) DataCount() int {
	return len(m.dataIndex)
}

// LookupDataArrayLabel returns the label of the array of data values ds
func (m *Manager) LookupDataArrayLabel(ds []data.Data) *Label {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}
	key := strings.Join(parts, ",")
	if l, ok := m.vDataStore[key]; ok {
		return l
	}
	l := m.newLabel(labelDataArray)
	l.vdata = append([]data.Data(nil), ds...)
	m.vDataStore[key] = l
	return l
}

// LookupNodeLabel returns the label of the memory cell described by boxes. Every box must have been created by the
// manager, and each selector must be covered at most once.
func (m *Manager) LookupNodeLabel(boxes []AbstractBox) *Label {
	var key strings.Builder
	for _, b := range boxes {
		if b.UID() <= 0 {
			Invariantf("box %s is not known by the manager", b)
		}
		key.WriteString(strconv.Itoa(b.UID()))
		key.WriteByte(';')
	}
	if l, ok := m.nodeStore[key.String()]; ok {
		return l
	}

	l := m.newLabel(labelNode)
	l.node = append([]AbstractBox(nil), boxes...)
	l.items = map[int]NodeItem{}
	addItem := func(key int, item NodeItem) {
		if _, dup := l.items[key]; dup {
			Invariantf("selector %d is covered twice in label %s", key, l)
		}
		l.items[key] = item
	}
	l.Iterate(func(b AbstractBox, index int, offset int) bool {
		switch b := b.(type) {
		case *SelBox:
			addItem(b.data.Offset, NodeItem{Box: b, Index: index, Offset: offset})
			l.tag = append(l.tag, b.data.Offset)
		case *Box:
			for _, sel := range b.OutputCoverage() {
				addItem(sel, NodeItem{Box: b, Index: index, Offset: offset})
				l.tag = append(l.tag, sel)
			}
		case *TypeBox:
			addItem(TypeOffset, NodeItem{Box: b, Index: index, Offset: NoSelector})
		}
		l.arity += b.Arity()
		return true
	})
	sort.Ints(l.tag)
	m.nodeStore[key.String()] = l
	return l
}

// GetSelector returns the selector box of sel
func (m *Manager) GetSelector(sel SelData) *SelBox {
	if s, ok := m.selIndex[sel]; ok {
		return s
	}
	s := &SelBox{uid: m.newUID(), data: sel}
	m.selIndex[sel] = s
	return s
}

// GetTypeInfo returns the type declared under name
func (m *Manager) GetTypeInfo(name string) (*TypeBox, error) {
	t, ok := m.typeIndex[name]
	if !ok {
		return nil, fmt.Errorf("type %q: %w", name, ErrUnknownType)
	}
	return t, nil
}

// CreateTypeInfo declares the type name with the given selector offsets. Declaring the same layout twice returns the
// existing type.
func (m *Manager) CreateTypeInfo(name string, selectors []int) (*TypeBox, error) {
	if t, ok := m.typeIndex[name]; ok {
		if !slices.Equal(t.selectors, selectors) {
			return nil, fmt.Errorf("type %q declared with selectors %v and %v: %w",
				name, t.selectors, selectors, ErrIncompatibleType)
		}
		return t, nil
	}
	t := &TypeBox{uid: m.newUID(), name: name, selectors: append([]int(nil), selectors...)}
	m.typeIndex[name] = t
	return t, nil
}

// TypeInfos returns the declared types sorted by name
func (m *Manager) TypeInfos() []*TypeBox {
	names := funcutil.SortedKeys(m.typeIndex)
	res := make([]*TypeBox, len(names))
	for i, name := range names {
		res[i] = m.typeIndex[name]
	}
	return res
}

// CreateType1Box builds a box with a single component. The box is not learned until it is passed to GetBox.
//
// root is the index of the component in the forest automaton, signature its cutpoint signature, inputMap maps the
// ports of the box to selectors of the original heap and index maps the roots of the forest automaton to ports.
func (m *Manager) CreateType1Box(root int, output *TA, signature CutpointSignature, inputMap []int,
	index []int) *Box {
	outputSignature, selectors, _ := TranslateSignature(signature, root, NoSelector, index)
	return newBox(output, outputSignature, append([]int(nil), inputMap...), nil, 0, nil, selectors)
}

// CreateType2Box builds a box with an output component (root) and an input component (aux). Cutpoints of the input
// component that are not yet mapped in index (entries equal to NoSelector) are allocated fresh ports; index is
// updated in place. The backward bound of the port of the input component is lowered to inputSelector.
func (m *Manager) CreateType2Box(root int, output *TA, signature CutpointSignature, inputMap []int, aux int,
	input *TA, signature2 CutpointSignature, inputSelector int, index []int) *Box {
	if aux < 0 || aux >= len(index) || index[aux] < 1 {
		Invariantf("input component %d is not mapped to a port", aux)
	}
	outputSignature, selectors, auxSelector := TranslateSignature(signature, root, aux, index)

	inputSignature := make(CutpointSignature, 0, len(signature2))
	for _, cutpoint := range signature2 {
		if cutpoint.Root < 0 || cutpoint.Root >= len(index) {
			Invariantf("cutpoint %d is outside of the index of size %d", cutpoint.Root, len(index))
		}
		if index[cutpoint.Root] == NoSelector {
			selectors = append(selectors, SelectorPair{Fwd: auxSelector, Bwd: NoSelector})
			index[cutpoint.Root] = len(selectors)
		}
		inputSignature = append(inputSignature, CutpointInfo{
			Root:         index[cutpoint.Root],
			FwdSelectors: append([]int(nil), cutpoint.FwdSelectors...),
			BwdSelector:  cutpoint.BwdSelector,
		})
	}

	inputIndex := index[aux] - 1
	if inputIndex >= len(selectors) {
		Invariantf("input port %d out of range for %d selectors", inputIndex, len(selectors))
	}
	if bwd := selectors[inputIndex].Bwd; bwd == NoSelector || bwd > inputSelector {
		selectors[inputIndex].Bwd = inputSelector
	}

	return newBox(output, outputSignature, append([]int(nil), inputMap...), input, inputIndex, inputSignature,
		selectors)
}

// GetBox learns b. If a learned box already subsumes b, that box is returned. Otherwise b is named, initialized and
// stored, and the returned signal requests a restart if the manager is configured to do so.
func (m *Manager) GetBox(b *Box) (*Box, control.Signal) {
	res, _ := m.boxes.Get(b)
	if !m.boxes.Modified() {
		return res, control.Proceed()
	}
	res.uid = m.newUID()
	res.name = "box" + strconv.Itoa(m.boxes.Size()-1)
	res.initialize()
	m.logger.Debugf("learning %s:\n%s", res, res.Dump())
	if m.restartOnLearn {
		return res, control.Restart("a new box encountered")
	}
	return res, control.Proceed()
}

// LookupBox returns a learned box subsuming b, or nil
func (m *Manager) LookupBox(b *Box) *Box {
	return m.boxes.Lookup(b)
}

// Boxes returns the learned boxes that have not become obsolete
func (m *Manager) Boxes() []*Box {
	return m.boxes.Boxes()
}

// Antichain returns the store of learned boxes
func (m *Manager) Antichain() *Antichain {
	return m.boxes
}
