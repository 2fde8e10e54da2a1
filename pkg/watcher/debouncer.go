package watcher

import (
	"context"
	"time"

	"github.com/ritzau/centrality-analyzer/pkg/logging"
)

// Debouncer collapses bursts of change events into one, so a save that
// produces several fsnotify events triggers a single re-analysis
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer. An event is released after
// quietPeriod without further events, or after maxWait at the latest.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 1),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		pending  *ChangeEvent
		count    int
		quiet    <-chan time.Time
		deadline <-chan time.Time
	)

	flush := func() {
		if pending == nil {
			return
		}
		logging.Debug("flushing accumulated events", "count", count, "type", pending.Type.String())
		select {
		case d.output <- *pending:
		case <-ctx.Done():
		}
		pending, count, quiet, deadline = nil, 0, nil, nil
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}
			// The latest event wins: a write after a remove means the file is back
			pending = &event
			count++
			quiet = time.After(d.quietPeriod)
			if deadline == nil {
				deadline = time.After(d.maxWait)
			}

		case <-quiet:
			flush()

		case <-deadline:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
