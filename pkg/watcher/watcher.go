package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/centrality-analyzer/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	// ChangeTypeWrite covers writes, creation and atomic replace-by-rename
	ChangeTypeWrite ChangeType = iota
	// ChangeTypeRemove means the file is gone; re-running would fail
	ChangeTypeRemove
)

func (c ChangeType) String() string {
	switch c {
	case ChangeTypeWrite:
		return "write"
	case ChangeTypeRemove:
		return "remove"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(c))
	}
}

// ChangeEvent represents a change to the watched file
type ChangeEvent struct {
	Type      ChangeType
	Path      string
	Timestamp time.Time
}

// FileWatcher watches a single input file. It watches the parent directory
// so editors that save by writing a temp file and renaming it are seen too.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan ChangeEvent
}

// NewFileWatcher creates a watcher for the file at path
func NewFileWatcher(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: w,
		path:    filepath.Clean(abs),
		events:  make(chan ChangeEvent, 16),
	}, nil
}

// Start begins watching. Events stop and the channel closes when ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		fw.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	logging.Info("watching input for changes", "path", fw.path)
	go fw.processEvents(ctx)
	return nil
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}

			change, relevant := classify(event.Op)
			if !relevant {
				continue
			}
			logging.Debug("input changed", "path", event.Name, "op", event.Op.String())

			select {
			case fw.events <- ChangeEvent{Type: change, Path: fw.path, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// classify maps an fsnotify op to a change. Chmod alone is ignored.
func classify(op fsnotify.Op) (ChangeType, bool) {
	switch {
	case op.Has(fsnotify.Write), op.Has(fsnotify.Create):
		return ChangeTypeWrite, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return ChangeTypeRemove, true
	default:
		return 0, false
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Path returns the absolute path being watched
func (fw *FileWatcher) Path() string {
	return fw.path
}
