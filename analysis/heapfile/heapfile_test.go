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

package heapfile

import (
	"embed"
	"errors"
	"io"
	"path"
	"testing"

	"github.com/awslabs/ar-go-forest/analysis/box"
	"github.com/awslabs/ar-go-forest/analysis/config"
	"github.com/awslabs/ar-go-forest/analysis/data"
	"github.com/google/go-cmp/cmp"
)

//go:embed testdata
var testFS embed.FS

func newManager() *box.Manager {
	cfg := config.NewDefault()
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(io.Discard)
	return box.NewManager(cfg, logger)
}

func readTestFile(t *testing.T, name string) []byte {
	b, err := testFS.ReadFile(path.Join("testdata", name))
	if err != nil {
		t.Fatalf("could not read %s: %v", name, err)
	}
	return b
}

func TestLoadList(t *testing.T) {
	m := newManager()
	h, err := Load(m, readTestFile(t, "list.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := h.FAE
	if f.RootCount() != 2 || f.VarCount() != 2 {
		t.Fatalf("got %d roots and %d variables", f.RootCount(), f.VarCount())
	}
	if diff := cmp.Diff([]data.Data{data.NewInt(7)}, h.Regs); diff != "" {
		t.Errorf("registers (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, f.References(f.Root(0))); diff != "" {
		t.Errorf("references of root 0 (-want +got):\n%s", diff)
	}
	final := f.FinalState(0)
	ts := f.Root(0).TransitionsTo(final)
	if len(ts) != 1 || ts[0].Label.TypeInfo().Name() != "list" {
		t.Errorf("unexpected transitions to the final state: %v", ts)
	}
	if r, ok := f.GetRef(ts[0].Children[0]); !ok || r != 1 {
		t.Errorf("child of root 0 should be a reference to root 1")
	}
	if err := f.Validate(); err != nil {
		t.Errorf("loaded heap is invalid: %v", err)
	}
}

func TestLoadNulls(t *testing.T) {
	b := readTestFile(t, "nulls.yaml")
	f, err := Parse(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(f.Roots[0].Transitions[0].Children); n != 3 {
		t.Fatalf("null children must be kept, got %d children", n)
	}
	h, err := Load(newManager(), b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]data.Data{data.NewRef(0), data.NewNull()}, h.FAE.Vars()); diff != "" {
		t.Errorf("variables (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]data.Data{data.NewNull()}, h.Regs); diff != "" {
		t.Errorf("registers (-want +got):\n%s", diff)
	}
	ts := h.FAE.Root(0).TransitionsTo(h.FAE.FinalState(0))
	if len(ts) != 1 {
		t.Fatalf("expected one transition to the final state, got %v", ts)
	}
	for i, c := range ts[0].Children {
		if d, ok := h.FAE.IsData(c); !ok || !d.IsNull() {
			t.Errorf("child %d should be a null leaf, got state %d", i, c)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		file   string
		target error
	}{
		{file: "dangling.yaml"},
		{file: "arity.yaml"},
		{file: "unknown-type.yaml", target: box.ErrUnknownType},
		{file: "bad-var.yaml"},
	}
	for _, test := range tests {
		t.Run(test.file, func(t *testing.T) {
			_, err := Load(newManager(), readTestFile(t, test.file))
			if err == nil {
				t.Fatalf("expected an error")
			}
			if test.target != nil && !errors.Is(err, test.target) {
				t.Errorf("expected %v, got %v", test.target, err)
			}
		})
	}
}

func TestLoadTypes(t *testing.T) {
	m := newManager()
	if err := LoadTypes(m, readTestFile(t, "types.yaml")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tree, err := m.GetTypeInfo("tree")
	if err != nil {
		t.Fatalf("tree was not declared: %v", err)
	}
	if diff := cmp.Diff([]int{0, 8}, tree.Selectors()); diff != "" {
		t.Errorf("selectors (-want +got):\n%s", diff)
	}
	// the heap redeclares list with the same layout
	if _, err := Load(m, readTestFile(t, "list.yaml")); err != nil {
		t.Errorf("compatible redeclaration failed: %v", err)
	}
	if _, err := m.CreateTypeInfo("tree", []int{0}); !errors.Is(err, box.ErrIncompatibleType) {
		t.Errorf("expected an incompatible type error, got %v", err)
	}
}
