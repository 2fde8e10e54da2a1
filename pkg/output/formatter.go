package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	"github.com/ritzau/centrality-analyzer/pkg/centrality"
)

// Reporter writes the centrality report.
// Score lines are plain text; only the ranking header is coloured, and colour
// is disabled automatically when the writer is not a terminal.
type Reporter struct {
	w      io.Writer
	header *color.Color
}

// NewReporter creates a reporter writing to w
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{
		w:      w,
		header: color.New(color.Bold),
	}
}

// FormatScore renders a score with the shortest representation that
// round-trips, so whole numbers print without a fraction.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Score writes one "<label>: <score>" line
func (r *Reporter) Score(s centrality.Score) {
	fmt.Fprintf(r.w, "%s: %s\n", s.Label, FormatScore(s.Value))
}

// Top writes the ranking header followed by one line per ranked node
func (r *Reporter) Top(top []centrality.Score) {
	r.header.Fprintf(r.w, "Top %d centralities:\n", len(top))
	for _, s := range top {
		r.Score(s)
	}
}
