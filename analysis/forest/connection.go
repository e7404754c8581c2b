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

package forest

import (
	"sort"

	"github.com/awslabs/ar-go-forest/analysis/box"
	"github.com/awslabs/ar-go-forest/internal/graphutil"
	ybgraph "github.com/yourbasic/graph"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"
	"golang.org/x/exp/slices"
)

// ConnectionGraph records, for every root of a forest automaton, the cutpoints reachable from it
type ConnectionGraph struct {
	signatures []box.CutpointSignature
	present    []bool
}

// ConnectionGraph computes the connection graph of f
func (f *FAE) ConnectionGraph() *ConnectionGraph {
	g := &ConnectionGraph{
		signatures: make([]box.CutpointSignature, len(f.roots)),
		present:    make([]bool, len(f.roots)),
	}
	for i, ta := range f.roots {
		if ta == nil {
			continue
		}
		g.present[i] = true
		sigs := f.StateSignatures(ta)
		for _, s := range ta.FinalStates() {
			g.signatures[i] = mergeSignature(g.signatures[i], sigs[s])
		}
	}
	return g
}

// Signature returns the cutpoint signature of root
func (g *ConnectionGraph) Signature(root int) box.CutpointSignature {
	return g.signatures[root]
}

// Successors returns the roots reachable from root through one reference, in signature order
func (g *ConnectionGraph) Successors(root int) []int {
	var res []int
	for _, c := range g.signatures[root] {
		res = append(res, c.Root)
	}
	return res
}

// Graph returns the reachability graph between the roots
func (g *ConnectionGraph) Graph() graphutil.RootGraph {
	return graphutil.NewRootGraph(len(g.signatures),
		func(i int) bool { return g.present[i] },
		g.Successors)
}

// CyclicRoots returns the roots that can reach themselves, in increasing order
func (g *ConnectionGraph) CyclicRoots() []int {
	rg := g.Graph()
	var res []int
	for _, component := range ybgraph.StrongComponents(rg) {
		if len(component) > 1 {
			res = append(res, component...)
			continue
		}
		v := component[0]
		if g.present[v] && rg.Edges[int64(v)][int64(v)] {
			res = append(res, v)
		}
	}
	sort.Ints(res)
	return res
}

// StateSignatures computes the cutpoint signature of every state of ta whose signature is defined: the data leaves,
// and the states reached by transitions whose children all have signatures.
func (f *FAE) StateSignatures(ta *box.TA) map[int]box.CutpointSignature {
	sigs := map[int]box.CutpointSignature{}
	var nodes []box.Trans
	for _, t := range ta.Transitions() {
		if t.Label.IsNode() {
			nodes = append(nodes, t)
			continue
		}
		if !t.Label.IsData() {
			continue
		}
		if d := t.Label.Data(); d.IsRef() {
			sigs[t.Parent] = box.CutpointSignature{{Root: d.Root, BwdSelector: box.NoSelector}}
		} else {
			sigs[t.Parent] = box.CutpointSignature{}
		}
	}

	for changed := true; changed; {
		changed = false
		for _, t := range nodes {
			v, ok := f.transitionSignature(t, sigs)
			if !ok {
				continue
			}
			old, known := sigs[t.Parent]
			merged := mergeSignature(old, v)
			if !known || !merged.Equal(old) {
				sigs[t.Parent] = merged
				changed = true
			}
		}
	}
	return sigs
}

func (f *FAE) transitionSignature(t box.Trans, sigs map[int]box.CutpointSignature) (box.CutpointSignature, bool) {
	var v box.CutpointSignature
	ok := t.Label.Iterate(func(b box.AbstractBox, _ int, offset int) bool {
		sb, structural := b.(box.StructuralBox)
		if !structural {
			return true
		}
		for j := 0; j < sb.Arity(); j++ {
			child := t.Children[offset+j]
			sig, known := sigs[child]
			if !known {
				return false
			}
			bwd := sb.OutputReachable(j)
			for _, c := range sig {
				info := box.CutpointInfo{
					Root:         c.Root,
					FwdSelectors: []int{sb.SelectorToInput(j)},
					BwdSelector:  c.BwdSelector,
				}
				if _, isData := f.IsData(child); isData {
					if bwd != box.NoSelector {
						info.BwdSelector = bwd
					}
				} else if bwd == box.NoSelector {
					info.BwdSelector = box.NoSelector
				}
				v = append(v, info)
			}
		}
		return true
	})
	if !ok {
		return nil, false
	}
	return mergeSignature(nil, v), true
}

// mergeSignature appends the cutpoints of v to sig. A cutpoint already in sig is merged: forward selectors are
// united and the lowest backward selector is kept.
func mergeSignature(sig box.CutpointSignature, v box.CutpointSignature) box.CutpointSignature {
	res := sig.Clone()
	if res == nil {
		res = box.CutpointSignature{}
	}
	for _, c := range v {
		i := res.Find(c.Root)
		if i < 0 {
			res = append(res, box.CutpointInfo{
				Root:         c.Root,
				FwdSelectors: append([]int(nil), c.FwdSelectors...),
				BwdSelector:  c.BwdSelector,
			})
			continue
		}
		for _, s := range c.FwdSelectors {
			if !slices.Contains(res[i].FwdSelectors, s) {
				res[i].FwdSelectors = append(res[i].FwdSelectors, s)
			}
		}
		sort.Ints(res[i].FwdSelectors)
		if c.BwdSelector != box.NoSelector &&
			(res[i].BwdSelector == box.NoSelector || c.BwdSelector < res[i].BwdSelector) {
			res[i].BwdSelector = c.BwdSelector
		}
	}
	return res
}

// GarbageRoots returns the roots that cannot be reached from any variable, in increasing order
func (f *FAE) GarbageRoots() []int {
	if f.empty {
		return nil
	}
	g := f.ConnectionGraph().Graph()
	var bfs traverse.BreadthFirst
	for _, v := range f.vars {
		if !v.IsRef() || !f.HasRoot(v.Root) || bfs.Visited(g.Node(int64(v.Root))) {
			continue
		}
		bfs.Walk(g, g.Node(int64(v.Root)), func(graph.Node, int) bool { return false })
	}
	var garbage []int
	for i, ta := range f.roots {
		if ta != nil && !bfs.Visited(g.Node(int64(i))) {
			garbage = append(garbage, i)
		}
	}
	return garbage
}
