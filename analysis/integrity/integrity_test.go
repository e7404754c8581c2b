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

package integrity

import (
	"embed"
	"errors"
	"io"
	"path"
	"testing"

	"github.com/awslabs/ar-go-forest/analysis/box"
	"github.com/awslabs/ar-go-forest/analysis/config"
	"github.com/awslabs/ar-go-forest/analysis/data"
	"github.com/awslabs/ar-go-forest/analysis/forest"
	"github.com/awslabs/ar-go-forest/analysis/heapfile"
	"github.com/awslabs/ar-go-forest/analysis/treeaut"
	"github.com/google/go-cmp/cmp"
)

//go:embed testdata
var testFS embed.FS

func testLogger() *config.LogGroup {
	logger := config.NewLogGroup(config.NewDefault())
	logger.SetAllOutput(io.Discard)
	return logger
}

func newManager() *box.Manager {
	return box.NewManager(config.NewDefault(), testLogger())
}

// learnDLLBox learns box0: a cell whose next selector (0) leads to port 1, and whose input component defines the
// prev selector (8) of the cell at port 1
func learnDLLBox(t *testing.T, m *box.Manager) *box.Box {
	sel0 := m.GetSelector(box.SelData{Offset: 0})
	sel8 := m.GetSelector(box.SelData{Offset: 8})

	output := treeaut.New[*box.Label]()
	output.AddTransition(nil, m.LookupDataLabel(data.NewRef(1)), -1)
	output.AddTransition([]int{-1}, m.LookupNodeLabel([]box.AbstractBox{sel0}), 1)
	output.AddFinalState(1)

	input := treeaut.New[*box.Label]()
	input.AddTransition(nil, m.LookupDataLabel(data.NewRef(0)), -2)
	input.AddTransition([]int{-2}, m.LookupNodeLabel([]box.AbstractBox{sel8}), 1)
	input.AddFinalState(1)

	signature := box.CutpointSignature{{Root: 1, FwdSelectors: []int{0}, BwdSelector: box.NoSelector}}
	signature2 := box.CutpointSignature{{Root: 0, FwdSelectors: []int{8}, BwdSelector: box.NoSelector}}
	b, _ := m.GetBox(m.CreateType2Box(0, output, signature, []int{0}, 1, input, signature2, 8, []int{0, 1}))
	if b.Name() != "box0" {
		t.Fatalf("unexpected box name %s", b.Name())
	}
	return b
}

func load(t *testing.T, m *box.Manager, name string) *forest.FAE {
	b, err := testFS.ReadFile(path.Join("testdata", name))
	if err != nil {
		t.Fatalf("could not read %s: %v", name, err)
	}
	h, err := heapfile.Load(m, b)
	if err != nil {
		t.Fatalf("could not load %s: %v", name, err)
	}
	return h.FAE
}

func TestCheck(t *testing.T) {
	tests := []struct {
		file    string
		withBox bool
		reason  Reason
	}{
		{file: "list.yaml"},
		{file: "dll-box.yaml", withBox: true},
		{file: "missing-type.yaml", reason: ReasonMissingTypeInfo},
		{file: "unconsumed.yaml", reason: ReasonUnconsumedSelector},
		{file: "dll-box-overlap.yaml", withBox: true, reason: ReasonMissingSelector},
		{file: "dll-box-shared.yaml", withBox: true, reason: ReasonInconsistentDefined},
		{file: "dll-box-data.yaml", withBox: true, reason: ReasonDataUnderBox},
	}
	for _, test := range tests {
		t.Run(test.file, func(t *testing.T) {
			m := newManager()
			if test.withBox {
				learnDLLBox(t, m)
			}
			err := New(load(t, m, test.file), testLogger()).Check()
			if test.reason == 0 {
				if err != nil {
					t.Fatalf("unexpected inconsistency: %v", err)
				}
				return
			}
			var inconsistency *InconsistencyError
			if !errors.As(err, &inconsistency) {
				t.Fatalf("expected an inconsistency error, got %v", err)
			}
			if inconsistency.Reason != test.reason {
				t.Errorf("reason: got %s, want %s", inconsistency.Reason, test.reason)
			}
		})
	}
}

func TestCheckIsDeterministic(t *testing.T) {
	m := newManager()
	learnDLLBox(t, m)
	fae := load(t, m, "dll-box-overlap.yaml")
	before := fae.String()
	c := New(fae, testLogger())
	first := c.Check()
	for i := 0; i < 3; i++ {
		if err := c.Check(); err == nil || err.Error() != first.Error() {
			t.Errorf("check %d returned %v, first check returned %v", i, err, first)
		}
	}
	if fae.String() != before {
		t.Errorf("check modified the forest automaton")
	}
	if c.IsConsistent() {
		t.Errorf("IsConsistent disagrees with Check")
	}
}

func TestEnumerateSelectorsAtLeaf(t *testing.T) {
	m := newManager()
	learnDLLBox(t, m)
	c := New(load(t, m, "dll-box.yaml"), testLogger())
	if diff := cmp.Diff([]int{8}, c.EnumerateSelectorsAtLeaf(1)); diff != "" {
		t.Errorf("selectors at root 1 (-want +got):\n%s", diff)
	}
	if got := c.EnumerateSelectorsAtLeaf(0); len(got) != 0 {
		t.Errorf("no box is plugged into root 0, got %v", got)
	}
}

func TestDanglingRoot(t *testing.T) {
	m := newManager()
	fae := load(t, m, "list.yaml").Clone()
	fae.SetRoot(1, nil)
	err := New(fae, testLogger()).Check()
	var inconsistency *InconsistencyError
	if !errors.As(err, &inconsistency) || inconsistency.Reason != ReasonDanglingRoot {
		t.Errorf("expected a dangling root, got %v", err)
	}
}

func TestEmptyIsConsistent(t *testing.T) {
	if !New(forest.Empty(newManager()), testLogger()).IsConsistent() {
		t.Errorf("the empty forest automaton should be consistent")
	}
}
