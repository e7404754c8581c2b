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

package graphutil

import (
	"testing"

	ybgraph "github.com/yourbasic/graph"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"
)

// diamond: 0 -> 1, 0 -> 2, 1 -> 3, 2 -> 3, 3 -> 1; node 4 is absent
func diamond() RootGraph {
	succ := map[int][]int{0: {1, 2}, 1: {3}, 2: {3, 4}, 3: {1}}
	return NewRootGraph(5, func(i int) bool { return i != 4 }, func(i int) []int { return succ[i] })
}

func TestRootGraphEdges(t *testing.T) {
	g := diamond()
	if g.Order() != 5 {
		t.Errorf("order: got %d", g.Order())
	}
	if g.Edge(2, 4) != nil {
		t.Errorf("edge to an absent node was kept")
	}
	if g.Edge(0, 1) == nil || g.Edge(1, 0) != nil {
		t.Errorf("Edge does not follow the direction of edges")
	}
	if !g.HasEdgeBetween(1, 0) {
		t.Errorf("HasEdgeBetween should ignore directions")
	}
	if g.Node(4) != nil || g.Node(3) == nil {
		t.Errorf("Node does not follow the present nodes")
	}
	if n := graph.NodesOf(g.Nodes()); len(n) != 4 {
		t.Errorf("expected 4 nodes, got %d", len(n))
	}
	var visited []int
	g.Visit(0, func(w int, _ int64) bool {
		visited = append(visited, w)
		return false
	})
	if len(visited) != 2 || visited[0] != 1 || visited[1] != 2 {
		t.Errorf("Visit(0) = %v", visited)
	}
}

func TestRootGraphComponents(t *testing.T) {
	g := diamond()
	cyclic := 0
	for _, c := range ybgraph.StrongComponents(g) {
		if len(c) == 2 {
			cyclic++
		}
	}
	if cyclic != 1 {
		t.Errorf("expected exactly one component {1,3}")
	}
}

func TestRootGraphTraversal(t *testing.T) {
	g := diamond()
	var bfs traverse.BreadthFirst
	reached := map[int64]bool{}
	bfs.Walk(g, g.Node(2), func(n graph.Node, _ int) bool {
		reached[n.ID()] = true
		return false
	})
	if !reached[2] || !reached[3] || !reached[1] || reached[0] {
		t.Errorf("reached from 2: %v", reached)
	}
}
