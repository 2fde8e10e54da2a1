package centrality

import "github.com/ritzau/centrality-analyzer/pkg/graph"

const unvisited = -1

// traversal holds the BFS state for a single source node.
// It is allocated per source and dropped once the contribution is taken.
type traversal struct {
	source    int
	distance  []int
	pathCount []uint64
	queue     []int
}

func newTraversal(n, source int) *traversal {
	t := &traversal{
		source:    source,
		distance:  make([]int, n),
		pathCount: make([]uint64, n),
		queue:     make([]int, 0, n),
	}
	for i := range t.distance {
		t.distance[i] = unvisited
	}
	t.distance[source] = 0
	t.pathCount[source] = 1
	t.queue = append(t.queue, source)
	return t
}

// run performs an unweighted BFS from the source, counting shortest paths.
// A node reached again at the depth it was first discovered at accumulates
// the path count of the new predecessor; it is never queued twice.
func (t *traversal) run(g *graph.Graph) {
	for head := 0; head < len(t.queue); head++ {
		v := t.queue[head]
		next := t.distance[v] + 1
		for _, u := range g.Neighbors(v) {
			switch t.distance[u] {
			case unvisited:
				t.distance[u] = next
				t.pathCount[u] = t.pathCount[v]
				t.queue = append(t.queue, u)
			case next:
				t.pathCount[u] += t.pathCount[v]
			}
		}
	}
}

// contribution sums pathCount[t]/pathCount[s] over every node one hop
// further from the source than the source itself, i.e. its direct neighbors.
func (t *traversal) contribution() float64 {
	s := t.source
	depth := t.distance[s] + 1
	var c float64
	for n, d := range t.distance {
		if n != s && d == depth {
			c += float64(t.pathCount[n]) / float64(t.pathCount[s])
		}
	}
	return c
}

// sourceScore computes the centrality contribution of source s.
func sourceScore(g *graph.Graph, s int) float64 {
	t := newTraversal(g.NodeCount(), s)
	t.run(g)
	return t.contribution()
}
