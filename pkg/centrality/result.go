package centrality

import (
	"fmt"
	"slices"
	"sort"
)

// DefaultTopK is the size of the ranking reported after a run.
const DefaultTopK = 3

// Score is the centrality of a single node.
type Score struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Value float64 `json:"score"`
}

// Result holds one score per node, indexed like the graph it came from.
type Result struct {
	labels []string
	scores []float64
}

func (r *Result) score(i int) Score {
	return Score{Index: i, Label: r.labels[i], Value: r.scores[i]}
}

// Len returns the number of scored nodes.
func (r *Result) Len() int {
	return len(r.scores)
}

// Scores returns every node's score in index order.
func (r *Result) Scores() []Score {
	out := make([]Score, len(r.scores))
	for i := range r.scores {
		out[i] = r.score(i)
	}
	return out
}

// Lookup returns the score of the node with the given label.
func (r *Result) Lookup(label string) (Score, bool) {
	i, ok := slices.BinarySearch(r.labels, label)
	if !ok {
		return Score{}, false
	}
	return r.score(i), true
}

// Ranked returns all scores in descending order. Equal scores keep their
// index order, which is the sorted label order.
func (r *Result) Ranked() []Score {
	return Rank(r.Scores())
}

// Top returns the k highest scores. It fails with ErrInsufficientNodes when
// the graph has fewer than k nodes rather than returning a shorter list.
func (r *Result) Top(k int) ([]Score, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, k)
	}
	if k > r.Len() {
		return nil, fmt.Errorf("%w: top %d requested, graph has %d", ErrInsufficientNodes, k, r.Len())
	}
	return r.Ranked()[:k], nil
}

// Rank sorts a copy of scores by descending value using a stable sort.
func Rank(scores []Score) []Score {
	ranked := slices.Clone(scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})
	return ranked
}
