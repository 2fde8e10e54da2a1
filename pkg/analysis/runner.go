package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ritzau/centrality-analyzer/pkg/centrality"
	"github.com/ritzau/centrality-analyzer/pkg/edges"
	"github.com/ritzau/centrality-analyzer/pkg/graph"
	"github.com/ritzau/centrality-analyzer/pkg/logging"
	"github.com/ritzau/centrality-analyzer/pkg/output"
	"github.com/ritzau/centrality-analyzer/pkg/pubsub"
	"github.com/ritzau/centrality-analyzer/pkg/watcher"
)

const totalSteps = 4

// Snapshot is the outcome of one successful analysis run
type Snapshot struct {
	Source    string             `json:"source"`
	Reason    string             `json:"reason"`
	Stats     edges.Stats        `json:"stats"`
	Summary   graph.Summary      `json:"summary"`
	Top       []centrality.Score `json:"top"`
	Completed time.Time          `json:"completed"`
	Graph     *graph.Graph       `json:"-"`
	Result    *centrality.Result `json:"-"`
}

// Observer is notified of run progress, typically the web server
type Observer interface {
	Status(status pubsub.AnalysisStatus)
	Completed(snap *Snapshot)
}

// Options configures how edges are interpreted and ranked
type Options struct {
	Directed bool
	TopK     int
}

// Runner orchestrates load -> build -> compute -> report
type Runner struct {
	source   edges.Source
	engine   *centrality.Engine
	reporter *output.Reporter
	opts     Options
	observer Observer
	logger   *slog.Logger
	mu       sync.Mutex // Prevent concurrent analysis runs
}

// NewRunner creates a runner. reporter may be nil to skip the text report.
func NewRunner(source edges.Source, engine *centrality.Engine, reporter *output.Reporter, opts Options) *Runner {
	if opts.TopK == 0 {
		opts.TopK = centrality.DefaultTopK
	}
	return &Runner{
		source:   source,
		engine:   engine,
		reporter: reporter,
		opts:     opts,
		logger:   logging.New("analysis"),
	}
}

// SetObserver registers an observer for status and results
func (r *Runner) SetObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = o
}

func (r *Runner) status(state, message string, step int, reason string) {
	if r.observer == nil {
		return
	}
	r.observer.Status(pubsub.AnalysisStatus{
		State:   state,
		Message: message,
		Step:    step,
		Total:   totalSteps,
		Reason:  reason,
	})
}

// Run executes one full analysis. Scores are reported as each source node
// finishes; the ranking follows once every node is done.
func (r *Runner) Run(ctx context.Context, reason string) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	r.logger.Info("starting analysis", "source", r.source.Name(), "reason", reason)

	snap, err := r.run(ctx, reason)
	if err != nil {
		r.status("error", err.Error(), 0, reason)
		return nil, err
	}

	r.logger.Info("analysis complete", "nodes", snap.Summary.Nodes, "duration", time.Since(start))
	if r.observer != nil {
		r.observer.Completed(snap)
	}
	r.status("ready", "Analysis complete", totalSteps, reason)
	return snap, nil
}

func (r *Runner) run(ctx context.Context, reason string) (*Snapshot, error) {
	r.status("loading", "Reading edges...", 1, reason)
	list, stats, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading edges: %w", err)
	}
	if stats.Skipped > 0 {
		r.logger.Warn("skipped malformed records", "count", stats.Skipped)
	}

	r.status("building", "Building graph...", 2, reason)
	var g *graph.Graph
	if r.opts.Directed {
		g = graph.BuildDirected(list)
	} else {
		g = graph.BuildUndirected(list)
	}
	summary := graph.Summarize(g)
	r.logger.Info("built graph",
		"nodes", summary.Nodes,
		"edges", summary.Edges,
		"directed", summary.Directed,
		"components", summary.Components)
	if summary.DuplicateEdges > 0 {
		r.logger.Debug("duplicate edges are counted as extra shortest paths", "count", summary.DuplicateEdges)
	}

	r.status("computing", "Computing centrality...", 3, reason)
	var emit func(centrality.Score)
	if r.reporter != nil {
		emit = r.reporter.Score
	}
	result, err := r.engine.Compute(ctx, g, emit)
	if err != nil {
		return nil, fmt.Errorf("computing centrality: %w", err)
	}

	r.status("ranking", "Ranking nodes...", 4, reason)
	top, err := result.Top(r.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("ranking: %w", err)
	}
	if r.reporter != nil {
		r.reporter.Top(top)
	}

	return &Snapshot{
		Source:    r.source.Name(),
		Reason:    reason,
		Stats:     stats,
		Summary:   summary,
		Top:       top,
		Completed: time.Now(),
		Graph:     g,
		Result:    result,
	}, nil
}

// Watch re-runs the analysis for every change event until ctx is done or
// events closes. A removed input is logged and skipped; failures of a
// re-run are reported but do not stop watching.
func (r *Runner) Watch(ctx context.Context, events <-chan watcher.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Type == watcher.ChangeTypeRemove {
				r.logger.Warn("input removed, waiting for it to return", "path", event.Path)
				continue
			}
			reason := fmt.Sprintf("%s changed", event.Path)
			if _, err := r.Run(ctx, reason); err != nil && ctx.Err() == nil {
				r.logger.Error("re-analysis failed", "error", err)
			}
		}
	}
}
