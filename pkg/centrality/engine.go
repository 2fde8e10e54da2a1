package centrality

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ritzau/centrality-analyzer/pkg/graph"
	"github.com/ritzau/centrality-analyzer/pkg/logging"
)

// Engine computes per-node centrality scores over a Graph.
type Engine struct {
	workers int
	logger  *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithWorkers sets how many sources are traversed concurrently.
// Values below 2 keep the computation on the calling goroutine.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithLogger overrides the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an Engine. By default it is single-threaded.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		workers: 1,
		logger:  logging.New("centrality"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute runs one traversal per source node and returns the scores.
//
// emit, if non-nil, is called once per node in index order as soon as that
// node and every node before it are done, so output is identical whatever
// the worker count. The context is checked between sources.
func (e *Engine) Compute(ctx context.Context, g *graph.Graph, emit func(Score)) (*Result, error) {
	start := time.Now()
	n := g.NodeCount()
	result := &Result{
		labels: g.Labels(),
		scores: make([]float64, n),
	}

	notify := func(s int) {
		if emit != nil {
			emit(result.score(s))
		}
	}

	var err error
	if e.workers > 1 && n > 1 {
		err = e.computeParallel(ctx, g, result.scores, notify)
	} else {
		err = e.computeSequential(ctx, g, result.scores, notify)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("computed centrality",
		"nodes", n,
		"workers", max(e.workers, 1),
		"duration", time.Since(start))
	return result, nil
}

func (e *Engine) computeSequential(ctx context.Context, g *graph.Graph, scores []float64, notify func(int)) error {
	for s := range scores {
		if err := ctx.Err(); err != nil {
			return err
		}
		scores[s] = sourceScore(g, s)
		notify(s)
	}
	return nil
}

// computeParallel fans sources out over a bounded pool. Each goroutine owns
// exactly one slot of scores, so no further synchronisation is needed for the
// reduction itself.
func (e *Engine) computeParallel(ctx context.Context, g *graph.Graph, scores []float64, notify func(int)) error {
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(e.workers)
	order := newOrderedEmitter(len(scores), notify)

	for s := range scores {
		if gctx.Err() != nil {
			break
		}
		s := s
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[s] = sourceScore(g, s)
			order.complete(s)
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return err
	}
	// The loop may have stopped early without any goroutine seeing the cancel.
	return ctx.Err()
}

// orderedEmitter releases completed sources strictly in index order.
type orderedEmitter struct {
	mu   sync.Mutex
	done []bool
	next int
	emit func(int)
}

func newOrderedEmitter(n int, emit func(int)) *orderedEmitter {
	return &orderedEmitter{done: make([]bool, n), emit: emit}
}

func (o *orderedEmitter) complete(s int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.done[s] = true
	for o.next < len(o.done) && o.done[o.next] {
		o.emit(o.next)
		o.next++
	}
}
