package centrality

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/ritzau/centrality-analyzer/pkg/graph"
)

func TestTopBreaksTiesByLabelOrder(t *testing.T) {
	// B and D have degree 2, every other node degree 1
	g := graph.BuildUndirected(pairs("A", "B", "B", "C", "D", "E", "D", "F"))
	result, err := quietEngine().Compute(context.Background(), g, nil)
	if err != nil {
		t.Fatal(err)
	}

	top, err := result.Top(3)
	if err != nil {
		t.Fatalf("Top() unexpected error: %v", err)
	}

	var labels []string
	for _, s := range top {
		labels = append(labels, s.Label)
	}
	if want := []string{"B", "D", "A"}; !slices.Equal(labels, want) {
		t.Errorf("Top(3) = %v, want %v", labels, want)
	}
}

func TestTopInsufficientNodes(t *testing.T) {
	g := graph.BuildUndirected(pairs("A", "B"))
	result, err := quietEngine().Compute(context.Background(), g, nil)
	if err != nil {
		t.Fatal(err)
	}

	top, err := result.Top(DefaultTopK)
	if !errors.Is(err, ErrInsufficientNodes) {
		t.Fatalf("Expected ErrInsufficientNodes, got %v", err)
	}
	if top != nil {
		t.Errorf("Expected no partial ranking, got %v", top)
	}

	if _, err := result.Top(2); err != nil {
		t.Errorf("Top(2) on a 2-node graph failed: %v", err)
	}
}

func TestTopInvalidK(t *testing.T) {
	result := &Result{labels: []string{"A"}, scores: []float64{1}}
	if _, err := result.Top(0); !errors.Is(err, ErrInvalidTopK) {
		t.Errorf("Expected ErrInvalidTopK, got %v", err)
	}
}

func TestRankIsStable(t *testing.T) {
	scores := []Score{
		{Index: 0, Label: "a", Value: 1},
		{Index: 1, Label: "b", Value: 3},
		{Index: 2, Label: "c", Value: 1},
		{Index: 3, Label: "d", Value: 3},
	}

	ranked := Rank(scores)

	var order []int
	for _, s := range ranked {
		order = append(order, s.Index)
	}
	if want := []int{1, 3, 0, 2}; !slices.Equal(order, want) {
		t.Errorf("Rank order = %v, want %v", order, want)
	}
	if scores[0].Label != "a" {
		t.Error("Rank modified its input")
	}
}

func TestLookup(t *testing.T) {
	g := graph.BuildUndirected(pairs("A", "B", "B", "C"))
	result, err := quietEngine().Compute(context.Background(), g, nil)
	if err != nil {
		t.Fatal(err)
	}

	s, ok := result.Lookup("B")
	if !ok || s.Value != 2 || s.Index != 1 {
		t.Errorf("Lookup(B) = %+v, %v", s, ok)
	}
	if _, ok := result.Lookup("Z"); ok {
		t.Error("Lookup found an unknown label")
	}
}

func TestDeterministicRanking(t *testing.T) {
	edges := pairs("x", "y", "y", "z", "z", "x", "w", "x", "v", "w")
	var runs [][]Score
	for i := 0; i < 3; i++ {
		result, err := quietEngine(WithWorkers(i + 1)).Compute(context.Background(), graph.BuildUndirected(edges), nil)
		if err != nil {
			t.Fatal(err)
		}
		top, err := result.Top(3)
		if err != nil {
			t.Fatal(err)
		}
		runs = append(runs, top)
	}
	for i := 1; i < len(runs); i++ {
		if !slices.Equal(runs[0], runs[i]) {
			t.Errorf("Run %d ranking %v differs from %v", i, runs[i], runs[0])
		}
	}
}
