package graph

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Summary describes the shape of a Graph
type Summary struct {
	Nodes          int  `json:"nodes"`
	Edges          int  `json:"edges"`
	Directed       bool `json:"directed"`
	SelfLoops      int  `json:"self_loops"`
	DuplicateEdges int  `json:"duplicate_edges"`
	MaxDegree      int  `json:"max_degree"`
	// Components counts connected components, ignoring direction for directed graphs.
	Components int `json:"components"`
	// StronglyConnected is only set for directed graphs.
	StronglyConnected int `json:"strongly_connected,omitempty"`
}

// Summarize computes a Summary of g.
func Summarize(g *Graph) Summary {
	s := Summary{
		Nodes:          g.NodeCount(),
		Edges:          g.EdgeCount(),
		Directed:       g.Directed(),
		SelfLoops:      g.selfLoops,
		DuplicateEdges: g.dupEdges,
	}
	for i := range g.adjacency {
		s.MaxDegree = max(s.MaxDegree, g.Degree(i))
	}

	s.Components = len(topo.ConnectedComponents(g.UndirectedView()))
	if g.Directed() {
		s.StronglyConnected = len(topo.TarjanSCC(g.DirectedView()))
	}
	return s
}

// UndirectedView returns a gonum copy of g with direction, self loops and
// parallel edges dropped. Node IDs are the graph's node indices.
func (g *Graph) UndirectedView() *simple.UndirectedGraph {
	ug := simple.NewUndirectedGraph()
	for i := range g.adjacency {
		ug.AddNode(simple.Node(int64(i)))
	}
	for i, neighbors := range g.adjacency {
		for _, j := range neighbors {
			if i == j || ug.HasEdgeBetween(int64(i), int64(j)) {
				continue
			}
			ug.SetEdge(ug.NewEdge(ug.Node(int64(i)), ug.Node(int64(j))))
		}
	}
	return ug
}

// DirectedView returns a gonum copy of g with self loops and parallel edges
// dropped. For undirected graphs every edge appears in both directions.
func (g *Graph) DirectedView() *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	for i := range g.adjacency {
		dg.AddNode(simple.Node(int64(i)))
	}
	for i, neighbors := range g.adjacency {
		for _, j := range neighbors {
			if i == j || dg.HasEdgeFromTo(int64(i), int64(j)) {
				continue
			}
			dg.SetEdge(dg.NewEdge(dg.Node(int64(i)), dg.Node(int64(j))))
		}
	}
	return dg
}
