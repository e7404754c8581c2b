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
	"io"
	"testing"

	"github.com/awslabs/ar-go-forest/analysis/config"
	"github.com/awslabs/ar-go-forest/analysis/data"
	"github.com/awslabs/ar-go-forest/analysis/treeaut"
	"github.com/google/go-cmp/cmp"
)

func newTestManager(restart bool) *Manager {
	cfg := config.NewDefault()
	cfg.RestartAfterBoxDiscovery = restart
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(io.Discard)
	return NewManager(cfg, logger)
}

// cellLabel returns the label of a list cell with a single next selector at offset 0
func cellLabel(t *testing.T, m *Manager) *Label {
	typ, err := m.CreateTypeInfo("list", []int{0})
	if err != nil {
		t.Fatalf("could not create type: %v", err)
	}
	return m.LookupNodeLabel([]AbstractBox{typ, m.GetSelector(SelData{Offset: 0})})
}

// listAut accepts null-terminated lists whose length is between 1 and n
func listAut(t *testing.T, m *Manager, n int) *TA {
	ta := treeaut.New[*Label]()
	cell := cellLabel(t, m)
	ta.AddTransition(nil, m.LookupDataLabel(data.NewNull()), -1)
	for i := 1; i <= n; i++ {
		ta.AddTransition([]int{-1}, cell, i)
		if i < n {
			ta.AddTransition([]int{i + 1}, cell, i)
		}
	}
	ta.AddFinalState(1)
	return ta
}

// segmentAut accepts list segments of length 1 to n ending in a reference to port 1
func segmentAut(t *testing.T, m *Manager, n int) *TA {
	ta := treeaut.New[*Label]()
	cell := cellLabel(t, m)
	ta.AddTransition(nil, m.LookupDataLabel(data.NewRef(1)), -2)
	for i := 1; i <= n; i++ {
		ta.AddTransition([]int{-2}, cell, i)
		if i < n {
			ta.AddTransition([]int{i + 1}, cell, i)
		}
	}
	ta.AddFinalState(1)
	return ta
}

var segmentSignature = CutpointSignature{{Root: 1, FwdSelectors: []int{0}, BwdSelector: NoSelector}}

func TestTranslateSignature(t *testing.T) {
	signature := CutpointSignature{
		{Root: 0, FwdSelectors: []int{8}, BwdSelector: 8},
		{Root: 2, FwdSelectors: []int{0, 16}, BwdSelector: NoSelector},
		{Root: 3, FwdSelectors: []int{24}, BwdSelector: 0},
	}
	result, selectors, auxSelector := TranslateSignature(signature, 0, 3, []int{0, NoSelector, 1, 2})

	wantSig := CutpointSignature{
		{Root: 0, FwdSelectors: []int{8}, BwdSelector: 8},
		{Root: 1, FwdSelectors: []int{0, 16}, BwdSelector: NoSelector},
		{Root: 2, FwdSelectors: []int{24}, BwdSelector: 0},
	}
	if !result.Equal(wantSig) {
		t.Errorf("signature: got %s, want %s", result, wantSig)
	}
	wantSelectors := []SelectorPair{{Fwd: 0, Bwd: NoSelector}, {Fwd: 24, Bwd: 0}}
	if diff := cmp.Diff(wantSelectors, selectors); diff != "" {
		t.Errorf("selectors (-want +got):\n%s", diff)
	}
	if auxSelector != 24 {
		t.Errorf("aux selector: got %d, want 24", auxSelector)
	}
	// the input signature is left untouched
	if signature[1].Root != 2 {
		t.Errorf("input signature was modified: %s", signature)
	}

	_, _, noAux := TranslateSignature(signature, 0, NoSelector, []int{0, NoSelector, 1, 2})
	if noAux != NoSelector {
		t.Errorf("aux selector without aux: got %d", noAux)
	}
}

func TestTranslateSignatureRepeatedAux(t *testing.T) {
	signature := CutpointSignature{
		{Root: 0, FwdSelectors: []int{0}, BwdSelector: NoSelector},
		{Root: 1, FwdSelectors: []int{8}, BwdSelector: NoSelector},
		{Root: 1, FwdSelectors: []int{16, 24}, BwdSelector: 0},
	}
	result, selectors, auxSelector := TranslateSignature(signature, 0, 1, []int{0, 1})
	if len(result) != 3 {
		t.Errorf("every cutpoint is kept, got %s", result)
	}
	wantSelectors := []SelectorPair{{Fwd: 8, Bwd: NoSelector}, {Fwd: 16, Bwd: 0}}
	if diff := cmp.Diff(wantSelectors, selectors); diff != "" {
		t.Errorf("selectors (-want +got):\n%s", diff)
	}
	if auxSelector != 16 {
		t.Errorf("aux selector: got %d, want 16 from the last occurrence", auxSelector)
	}
}

func TestCreateType1Box(t *testing.T) {
	m := newTestManager(false)
	b := m.CreateType1Box(0, segmentAut(t, m, 1), segmentSignature, []int{0}, []int{0, 1})
	if b.Arity() != 1 {
		t.Fatalf("arity: got %d, want 1", b.Arity())
	}
	if b.Input() != nil {
		t.Errorf("type 1 box has an input component")
	}
	learned, sig := m.GetBox(b)
	if sig.IsRestart() {
		t.Errorf("unexpected restart without configuration")
	}
	if learned.Name() != "box0" {
		t.Errorf("name: got %q, want box0", learned.Name())
	}
	if diff := cmp.Diff([]int{0}, learned.OutputCoverage()); diff != "" {
		t.Errorf("output coverage (-want +got):\n%s", diff)
	}
	if len(learned.InputCoverage(0)) != 0 {
		t.Errorf("input coverage should be empty, got %v", learned.InputCoverage(0))
	}
	if learned.Order() != 0 || learned.SelectorToInput(0) != 0 || learned.OutputReachable(0) != NoSelector {
		t.Errorf("unexpected order or selectors: %s", learned)
	}
	if learned.HasSelfReference() {
		t.Errorf("segment box should not refer to itself")
	}
}

func TestCreateType2Box(t *testing.T) {
	m := newTestManager(false)
	index := []int{0, 1, NoSelector}
	signature2 := CutpointSignature{{Root: 2, FwdSelectors: []int{0}, BwdSelector: NoSelector}}
	b := m.CreateType2Box(0, segmentAut(t, m, 1), segmentSignature, []int{0}, 1, segmentAut(t, m, 1),
		signature2, 8, index)

	if diff := cmp.Diff([]int{0, 1, 2}, index); diff != "" {
		t.Errorf("index (-want +got):\n%s", diff)
	}
	wantSelectors := []SelectorPair{{Fwd: 0, Bwd: 8}, {Fwd: 0, Bwd: NoSelector}}
	if diff := cmp.Diff(wantSelectors, b.Selectors()); diff != "" {
		t.Errorf("selectors (-want +got):\n%s", diff)
	}
	if b.InputIndex() != 0 {
		t.Errorf("input index: got %d, want 0", b.InputIndex())
	}
	if b.InputSignature()[0].Root != 2 {
		t.Errorf("input signature not translated: %s", b.InputSignature())
	}

	learned, _ := m.GetBox(b)
	if diff := cmp.Diff([]int{0}, learned.InputCoverage(0)); diff != "" {
		t.Errorf("input coverage (-want +got):\n%s", diff)
	}
	if !learned.InputCovers(0, 0) || learned.InputCovers(1, 0) {
		t.Errorf("InputCovers does not follow the coverage of %s", learned)
	}
}

func TestAntichainSubsumedInsert(t *testing.T) {
	m := newTestManager(false)
	general, _ := m.GetBox(m.CreateType1Box(0, segmentAut(t, m, 2), segmentSignature, []int{0}, []int{0, 1}))
	size := m.Antichain().Len()

	specific := m.CreateType1Box(0, segmentAut(t, m, 1), segmentSignature, []int{0}, []int{0, 1})
	got, sig := m.GetBox(specific)
	if got != general {
		t.Errorf("subsumed box was not resolved to the existing box")
	}
	if sig.IsRestart() || m.Antichain().Modified() {
		t.Errorf("subsumed insert modified the antichain")
	}
	if m.Antichain().Len() != size {
		t.Errorf("size changed from %d to %d", size, m.Antichain().Len())
	}
	if m.LookupBox(specific) != general {
		t.Errorf("lookup did not find the subsuming box")
	}
}

func TestAntichainShrinks(t *testing.T) {
	m := newTestManager(false)
	a := m.Antichain()
	// two incomparable boxes in the same bucket: lists of length exactly 1 and exactly 2
	exact2 := treeaut.New[*Label]()
	cell := cellLabel(t, m)
	exact2.AddTransition(nil, m.LookupDataLabel(data.NewRef(1)), -2)
	exact2.AddTransition([]int{-2}, cell, 2)
	exact2.AddTransition([]int{2}, cell, 1)
	exact2.AddFinalState(1)

	b1, _ := m.GetBox(m.CreateType1Box(0, segmentAut(t, m, 1), segmentSignature, []int{0}, []int{0, 1}))
	b2, _ := m.GetBox(m.CreateType1Box(0, exact2, segmentSignature, []int{0}, []int{0, 1}))
	if a.Len() != 2 {
		t.Fatalf("incomparable boxes: got %d members, want 2", a.Len())
	}
	ref1 := BoxRef{ID: 0, Generation: a.Generation()}

	b3, _ := m.GetBox(m.CreateType1Box(0, segmentAut(t, m, 3), segmentSignature, []int{0}, []int{0, 1}))
	if a.Len() != 1 {
		t.Errorf("bucket should shrink by 2 and grow by 1, got %d members", a.Len())
	}
	if obsolete := a.Obsolete(); len(obsolete) != 2 || obsolete[0] != b1 || obsolete[1] != b2 {
		t.Errorf("obsolete boxes: got %v, want [%s %s]", obsolete, b1, b2)
	}
	if _, live := a.Resolve(ref1); live {
		t.Errorf("obsolete box still resolves as live")
	}
	if got := a.Boxes(); len(got) != 1 || got[0] != b3 {
		t.Errorf("remaining boxes: %v", got)
	}
	if b3.Name() != "box2" {
		t.Errorf("name: got %q, want box2", b3.Name())
	}
	assertAntichain(t, a, b3.Signature())
}

// TestAntichainGrowth learns a 1-cell box and then a 2-cell box accepting one or two cells
func TestAntichainGrowth(t *testing.T) {
	m := newTestManager(false)
	one, _ := m.GetBox(m.CreateType1Box(0, listAut(t, m, 1), nil, nil, []int{0}))
	two, _ := m.GetBox(m.CreateType1Box(0, listAut(t, m, 2), nil, nil, []int{0}))
	if one == two {
		t.Fatalf("the 2-cell box should not be subsumed")
	}
	bucket := m.Antichain().Bucket(two.Signature())
	if len(bucket) != 1 || bucket[0] != two {
		t.Errorf("bucket should only contain the 2-cell box, got %v", bucket)
	}
	assertAntichain(t, m.Antichain(), two.Signature())
}

func assertAntichain(t *testing.T, a *Antichain, key string) {
	t.Helper()
	bucket := a.Bucket(key)
	for i, x := range bucket {
		for j, y := range bucket {
			if i != j && x.SimplifiedLessThan(y) {
				t.Errorf("%s is subsumed by %s in the same bucket", x, y)
			}
		}
	}
}

func TestGetBoxRestart(t *testing.T) {
	m := newTestManager(true)
	b, sig := m.GetBox(m.CreateType1Box(0, listAut(t, m, 1), nil, nil, []int{0}))
	if !sig.IsRestart() {
		t.Errorf("learning a box should request a restart, got %s", sig)
	}
	again, sig := m.GetBox(m.CreateType1Box(0, listAut(t, m, 1), nil, nil, []int{0}))
	if sig.IsRestart() {
		t.Errorf("relearning a known box requested a restart")
	}
	if again != b {
		t.Errorf("known box was not returned")
	}
}

func TestBoxComparisons(t *testing.T) {
	m := newTestManager(false)
	small := m.CreateType1Box(0, segmentAut(t, m, 1), segmentSignature, []int{0}, []int{0, 1})
	same := m.CreateType1Box(0, segmentAut(t, m, 1), segmentSignature, []int{0}, []int{0, 1})
	large := m.CreateType1Box(0, segmentAut(t, m, 2), segmentSignature, []int{0}, []int{0, 1})

	if !small.Equal(same) || small.Equal(large) {
		t.Errorf("Equal does not follow the languages")
	}
	if !small.LessOrEqual(large) || large.LessOrEqual(small) {
		t.Errorf("LessOrEqual does not follow language inclusion")
	}
	other := CutpointSignature{{Root: 1, FwdSelectors: []int{0}, BwdSelector: 0}}
	otherSig := m.CreateType1Box(0, segmentAut(t, m, 2), other, []int{0}, []int{0, 1})
	if small.LessOrEqual(otherSig) {
		t.Errorf("LessOrEqual must compare signatures")
	}
	if !small.SimplifiedLessThan(otherSig) {
		t.Errorf("SimplifiedLessThan ignores signatures")
	}
}

func TestDataCaches(t *testing.T) {
	m := newTestManager(false)
	l1 := m.LookupDataLabel(data.NewInt(3))
	l2 := m.LookupDataLabel(data.NewInt(3))
	if l1 != l2 {
		t.Errorf("data labels are not interned")
	}
	if id := m.DataID(data.NewNull()); id != 1 {
		t.Errorf("DataID: got %d, want 1", id)
	}
	if m.DataByID(0) != data.NewInt(3) {
		t.Errorf("DataByID(0): got %s", m.DataByID(0))
	}
	arr := m.LookupDataArrayLabel([]data.Data{data.NewInt(1), data.NewNull()})
	if arr != m.LookupDataArrayLabel([]data.Data{data.NewInt(1), data.NewNull()}) || !arr.IsDataArray() {
		t.Errorf("data array labels are not interned")
	}
	if m.GetSelector(SelData{Offset: 8}) != m.GetSelector(SelData{Offset: 8}) {
		t.Errorf("selectors are not interned")
	}
}

func TestNodeLabel(t *testing.T) {
	m := newTestManager(false)
	typ, _ := m.CreateTypeInfo("tree", []int{0, 8})
	left, right := m.GetSelector(SelData{Offset: 0}), m.GetSelector(SelData{Offset: 8})
	l := m.LookupNodeLabel([]AbstractBox{typ, left, right})
	if l != m.LookupNodeLabel([]AbstractBox{typ, left, right}) {
		t.Errorf("node labels are not interned")
	}
	if l.Arity() != 2 || l.TypeInfo() != typ {
		t.Errorf("unexpected arity %d or type %v", l.Arity(), l.TypeInfo())
	}
	item, ok := l.BoxLookup(8)
	if !ok || item.Box != right || item.Index != 2 || item.Offset != 1 {
		t.Errorf("BoxLookup(8) = %+v, %v", item, ok)
	}
	if diff := cmp.Diff([]int{0, 8}, l.Tag()); diff != "" {
		t.Errorf("tag (-want +got):\n%s", diff)
	}
}

func TestTypeInfo(t *testing.T) {
	m := newTestManager(false)
	if _, err := m.GetTypeInfo("list"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
	first, err := m.CreateTypeInfo("list", []int{0, 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := m.CreateTypeInfo("list", []int{0, 8})
	if err != nil || second != first {
		t.Errorf("redeclaring the same layout should return the existing type")
	}
	if _, err := m.CreateTypeInfo("list", []int{0}); !errors.Is(err, ErrIncompatibleType) {
		t.Errorf("expected ErrIncompatibleType, got %v", err)
	}
	if got, _ := m.GetTypeInfo("list"); got != first {
		t.Errorf("GetTypeInfo did not return the declared type")
	}
	m.Clear()
	if len(m.TypeInfos()) != 0 || m.DataCount() != 0 || m.Antichain().Size() != 0 {
		t.Errorf("Clear left entries in the manager")
	}
}
