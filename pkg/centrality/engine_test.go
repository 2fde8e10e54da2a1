package centrality

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/ritzau/centrality-analyzer/pkg/graph"
)

func pairs(p ...string) []graph.Edge {
	edges := make([]graph.Edge, 0, len(p)/2)
	for i := 0; i+1 < len(p); i += 2 {
		edges = append(edges, graph.Edge{From: p[i], To: p[i+1]})
	}
	return edges
}

func quietEngine(opts ...Option) *Engine {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewEngine(opts...)
}

func scoresByLabel(t *testing.T, r *Result) map[string]float64 {
	t.Helper()
	m := make(map[string]float64, r.Len())
	for _, s := range r.Scores() {
		m[s.Label] = s.Value
	}
	return m
}

func TestComputeExamples(t *testing.T) {
	tests := []struct {
		name  string
		edges []graph.Edge
		want  map[string]float64
	}{
		{
			name:  "single edge",
			edges: pairs("A", "B"),
			want:  map[string]float64{"A": 1, "B": 1},
		},
		{
			name:  "path",
			edges: pairs("A", "B", "B", "C"),
			want:  map[string]float64{"A": 1, "B": 2, "C": 1},
		},
		{
			name:  "triangle",
			edges: pairs("A", "B", "B", "C", "C", "A"),
			want:  map[string]float64{"A": 2, "B": 2, "C": 2},
		},
		{
			name:  "star",
			edges: pairs("hub", "a", "hub", "b", "hub", "c", "hub", "d"),
			want:  map[string]float64{"hub": 4, "a": 1, "b": 1, "c": 1, "d": 1},
		},
		{
			// Only direct neighbors count, however long the path is
			name:  "long path",
			edges: pairs("1", "2", "2", "3", "3", "4", "4", "5"),
			want:  map[string]float64{"1": 1, "2": 2, "3": 2, "4": 2, "5": 1},
		},
		{
			// Each repeated pair is one more shortest path to the neighbor
			name:  "duplicate edges multiply",
			edges: pairs("A", "B", "A", "B", "B", "C"),
			want:  map[string]float64{"A": 2, "B": 3, "C": 1},
		},
		{
			name:  "self loop ignored",
			edges: pairs("A", "A", "A", "B"),
			want:  map[string]float64{"A": 1, "B": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := quietEngine().Compute(context.Background(), graph.BuildUndirected(tt.edges), nil)
			if err != nil {
				t.Fatalf("Compute() unexpected error: %v", err)
			}
			got := scoresByLabel(t, result)
			for label, want := range tt.want {
				if got[label] != want {
					t.Errorf("centrality[%s] = %v, want %v", label, got[label], want)
				}
			}
			if len(got) != len(tt.want) {
				t.Errorf("Expected %d scores, got %d", len(tt.want), len(got))
			}
		})
	}
}

func TestComputeDirected(t *testing.T) {
	// A -> B -> C: only out-neighbors count
	g := graph.BuildDirected(pairs("A", "B", "B", "C"))

	result, err := quietEngine().Compute(context.Background(), g, nil)
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}
	got := scoresByLabel(t, result)
	want := map[string]float64{"A": 1, "B": 1, "C": 0}
	for label, w := range want {
		if got[label] != w {
			t.Errorf("centrality[%s] = %v, want %v", label, got[label], w)
		}
	}
}

func TestTraversalPathCounts(t *testing.T) {
	// Diamond: two shortest paths from A to D
	g := graph.BuildUndirected(pairs("A", "B", "A", "C", "B", "D", "C", "D"))
	a, _ := g.Index("A")
	d, _ := g.Index("D")

	tr := newTraversal(g.NodeCount(), a)
	tr.run(g)

	if tr.pathCount[a] != 1 {
		t.Errorf("Source path count = %d, want 1", tr.pathCount[a])
	}
	if tr.distance[d] != 2 {
		t.Errorf("distance[D] = %d, want 2", tr.distance[d])
	}
	if tr.pathCount[d] != 2 {
		t.Errorf("pathCount[D] = %d, want 2", tr.pathCount[d])
	}
	if c := tr.contribution(); c != 2 {
		t.Errorf("contribution = %v, want 2", c)
	}
}

func TestTraversalUnreachable(t *testing.T) {
	g := graph.BuildUndirected(pairs("A", "B", "X", "Y"))
	a, _ := g.Index("A")
	x, _ := g.Index("X")

	tr := newTraversal(g.NodeCount(), a)
	tr.run(g)

	if tr.distance[x] != unvisited || tr.pathCount[x] != 0 {
		t.Errorf("Unreachable node visited: distance=%d paths=%d", tr.distance[x], tr.pathCount[x])
	}
}

func TestSourcePathCountStaysOne(t *testing.T) {
	g := graph.BuildUndirected(pairs("A", "B", "B", "C", "C", "A", "A", "B", "C", "D"))
	for s := 0; s < g.NodeCount(); s++ {
		tr := newTraversal(g.NodeCount(), s)
		tr.run(g)
		if tr.pathCount[s] != 1 || tr.distance[s] != 0 {
			t.Errorf("source %s: pathCount=%d distance=%d", g.Label(s), tr.pathCount[s], tr.distance[s])
		}
	}
}

func TestEmitInIndexOrder(t *testing.T) {
	g := graph.BuildUndirected(pairs("d", "a", "c", "b", "a", "c"))

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			var labels []string
			_, err := quietEngine(WithWorkers(workers)).Compute(context.Background(), g, func(s Score) {
				labels = append(labels, s.Label)
			})
			if err != nil {
				t.Fatalf("Compute() unexpected error: %v", err)
			}
			if want := []string{"a", "b", "c", "d"}; !slices.Equal(labels, want) {
				t.Errorf("Emitted %v, want %v", labels, want)
			}
		})
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	var edges []graph.Edge
	for i := 0; i < 40; i++ {
		edges = append(edges,
			graph.Edge{From: fmt.Sprintf("n%02d", i), To: fmt.Sprintf("n%02d", (i*7+3)%40)},
			graph.Edge{From: fmt.Sprintf("n%02d", i), To: fmt.Sprintf("n%02d", (i+1)%40)},
		)
	}
	g := graph.BuildUndirected(edges)

	seq, err := quietEngine().Compute(context.Background(), g, nil)
	if err != nil {
		t.Fatal(err)
	}
	par, err := quietEngine(WithWorkers(8)).Compute(context.Background(), g, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(seq.Scores(), par.Scores()) {
		t.Errorf("Parallel scores differ from sequential:\n%v\n%v", seq.Scores(), par.Scores())
	}
	for _, s := range par.Scores() {
		if s.Value < 0 {
			t.Errorf("Negative score for %s: %v", s.Label, s.Value)
		}
	}
}

func TestComputeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := graph.BuildUndirected(pairs("A", "B", "B", "C"))

	for _, workers := range []int{1, 3} {
		_, err := quietEngine(WithWorkers(workers)).Compute(ctx, g, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: expected context.Canceled, got %v", workers, err)
		}
	}
}

func TestComputeEmptyGraph(t *testing.T) {
	result, err := quietEngine().Compute(context.Background(), graph.BuildUndirected(nil), nil)
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}
	if result.Len() != 0 {
		t.Errorf("Expected no scores, got %d", result.Len())
	}
}
