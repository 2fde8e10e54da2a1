package graph

import (
	"fmt"
	"slices"
)

// Edge is a pair of node labels. In a directed graph it runs From -> To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// labelIndex pairs the index->label list with the label->index map.
// Both halves are built together by newLabelIndex and never mutated afterwards.
type labelIndex struct {
	labels  []string
	indices map[string]int
}

// newLabelIndex collects every label in edges, deduplicates them and assigns
// indices in ascending lexicographic order.
func newLabelIndex(edges []Edge) labelIndex {
	seen := make(map[string]struct{}, len(edges))
	labels := make([]string, 0, len(edges))
	for _, e := range edges {
		for _, label := range [2]string{e.From, e.To} {
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			labels = append(labels, label)
		}
	}
	slices.Sort(labels)

	indices := make(map[string]int, len(labels))
	for i, label := range labels {
		indices[label] = i
	}
	return labelIndex{labels: labels, indices: indices}
}

// mustIndex resolves a label that construction guarantees to be present.
// A miss means the index and the edge list disagree, which is a bug.
func (li labelIndex) mustIndex(label string) int {
	i, ok := li.indices[label]
	if !ok {
		panic(fmt.Sprintf("graph: label %q missing from node index", label))
	}
	return i
}

// Graph is an indexed adjacency-list graph over string labels.
//
// Node indices are dense in [0, NodeCount()) and follow the sorted label order.
// A Graph is immutable once built apart from NormalizeAdjacency, which is
// idempotent, so it can be shared by concurrent readers.
type Graph struct {
	index     labelIndex
	adjacency [][]int
	directed  bool
	edgeCount int
	selfLoops int
	dupEdges  int
}

// BuildDirected builds a directed graph with one out-edge u -> v per input pair.
// Repeated pairs are kept, so they appear more than once in the neighbor list.
func BuildDirected(edges []Edge) *Graph {
	g := build(edges)
	g.directed = true
	g.edgeCount = len(edges)
	g.selfLoops, g.dupEdges = countEdgeShapes(edges, true)
	return g
}

// BuildUndirected builds the undirected closure of edges by inserting both
// u -> v and v -> u for every pair.
func BuildUndirected(edges []Edge) *Graph {
	doubled := make([]Edge, 0, len(edges)*2)
	for _, e := range edges {
		doubled = append(doubled, e, Edge{From: e.To, To: e.From})
	}
	g := build(doubled)
	g.edgeCount = len(edges)
	g.selfLoops, g.dupEdges = countEdgeShapes(edges, false)
	return g
}

func build(edges []Edge) *Graph {
	index := newLabelIndex(edges)
	adjacency := make([][]int, len(index.labels))
	for i := range adjacency {
		adjacency[i] = []int{}
	}

	for _, e := range edges {
		u := index.mustIndex(e.From)
		v := index.mustIndex(e.To)
		adjacency[u] = append(adjacency[u], v)
	}

	g := &Graph{index: index, adjacency: adjacency}
	g.NormalizeAdjacency()
	return g
}

// countEdgeShapes reports how many input pairs are self loops and how many
// repeat an earlier pair. Undirected pairs compare without orientation.
func countEdgeShapes(edges []Edge, directed bool) (selfLoops, duplicates int) {
	seen := make(map[Edge]struct{}, len(edges))
	for _, e := range edges {
		if e.From == e.To {
			selfLoops++
		}
		key := e
		if !directed && key.To < key.From {
			key = Edge{From: e.To, To: e.From}
		}
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
	}
	return selfLoops, duplicates
}

// NormalizeAdjacency sorts every neighbor list ascending by index.
func (g *Graph) NormalizeAdjacency() {
	for _, neighbors := range g.adjacency {
		slices.Sort(neighbors)
	}
}

// NodeCount returns the number of distinct labels.
func (g *Graph) NodeCount() int {
	return len(g.index.labels)
}

// EdgeCount returns the number of input pairs the graph was built from.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// Directed reports whether the graph was built with BuildDirected.
func (g *Graph) Directed() bool {
	return g.directed
}

// Label returns the label of node i.
func (g *Graph) Label(i int) string {
	return g.index.labels[i]
}

// Labels returns a copy of all labels in index order.
func (g *Graph) Labels() []string {
	return slices.Clone(g.index.labels)
}

// Index returns the index of label.
func (g *Graph) Index(label string) (int, bool) {
	i, ok := g.index.indices[label]
	return i, ok
}

// Neighbors returns the sorted out-neighbors of node i.
// The returned slice is shared with the graph and must not be modified.
func (g *Graph) Neighbors(i int) []int {
	return g.adjacency[i]
}

// Degree returns the length of node i's neighbor list, duplicates included.
func (g *Graph) Degree(i int) int {
	return len(g.adjacency[i])
}

// Symmetric reports whether j is a neighbor of i exactly when i is a
// neighbor of j, counting multiplicity.
func (g *Graph) Symmetric() bool {
	arcs := make(map[[2]int]int)
	for i, neighbors := range g.adjacency {
		for _, j := range neighbors {
			arcs[[2]int{i, j}]++
		}
	}
	for arc, n := range arcs {
		if arcs[[2]int{arc[1], arc[0]}] != n {
			return false
		}
	}
	return true
}
