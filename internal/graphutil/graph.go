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

// Package graphutil adapts the reachability graph between the roots of a forest automaton to existing graph
// libraries.
package graphutil

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"
)

// RootGraph is a directed graph over root indices. It implements the methods to satisfy graph.Iterator and Gonum's
// graph.Graph
type RootGraph struct {
	// The order of the graph: node ids are in [0, order)
	order int

	// Keys are the ids of the present nodes, in increasing order
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge from root x to root y
	Edges map[int64]map[int64]bool
}

// NewRootGraph returns the graph of order nodes where present tells which node ids exist and successors lists the
// targets of the edges of a present node. Edges to absent nodes are dropped.
func NewRootGraph(order int, present func(int) bool, successors func(int) []int) RootGraph {
	g := RootGraph{
		order: order,
		Edges: make(map[int64]map[int64]bool, order),
	}
	for i := 0; i < order; i++ {
		if present(i) {
			g.Keys = append(g.Keys, int64(i))
			g.Edges[int64(i)] = map[int64]bool{}
		}
	}
	for _, k := range g.Keys {
		for _, w := range successors(int(k)) {
			if _, ok := g.Edges[int64(w)]; ok {
				g.Edges[k][int64(w)] = true
			}
		}
	}
	return g
}

// Order implements the order of the graph.Iterator interface for the RootGraph
func (g RootGraph) Order() int {
	return g.order
}

// Visit implements the graph.Iterator interface for the RootGraph. Successors are visited in increasing order.
func (g RootGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	for _, w := range g.successors(int64(v)) {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

func (g RootGraph) successors(id int64) []int64 {
	out := make([]int64, 0, len(g.Edges[id]))
	for w := range g.Edges[id] {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface
func (g RootGraph) Node(id int64) graph.Node {
	if _, ok := g.Edges[id]; !ok {
		return nil
	}
	return simple.Node(id)
}

// Nodes returns the set of nodes in the graph
func (g RootGraph) Nodes() graph.Nodes {
	return toNodes(g.Keys)
}

// From returns the set of nodes reachable from the id by one edge
func (g RootGraph) From(id int64) graph.Nodes {
	return toNodes(g.successors(id))
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (g RootGraph) HasEdgeBetween(xid, yid int64) bool {
	return g.Edges[xid][yid] || g.Edges[yid][xid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (g RootGraph) Edge(uid, vid int64) graph.Edge {
	if g.Edges[uid][vid] {
		return simple.Edge{F: simple.Node(uid), T: simple.Node(vid)}
	}
	return nil
}

func toNodes(ids []int64) graph.Nodes {
	if len(ids) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = simple.Node(id)
	}
	return iterator.NewOrderedNodes(nodes)
}
