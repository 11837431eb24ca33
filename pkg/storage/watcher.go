package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/platinummonkey/petstore/pkg/observability"
)

// Watcher notifies when the document file changes on disk.
// The parent directory is watched rather than the file itself because the
// file is replaced by rename on every save.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(ctx context.Context)
	logger   *observability.Logger
	done     chan struct{}
}

// NewWatcher creates a watcher for path; onChange runs for every write,
// create, rename or remove of that path.
func NewWatcher(path string, onChange func(ctx context.Context), logger *observability.Logger) (*Watcher, error) {
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		watcher:  fw,
		onChange: onChange,
		logger:   logger.WithField("path", abs),
		done:     make(chan struct{}),
	}, nil
}

// Run processes events until ctx is cancelled or the watcher is closed
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.done)

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || event.Op&relevant == 0 {
				continue
			}
			w.logger.WithField("op", event.Op.String()).Debug("Pet store document changed")
			if w.onChange != nil {
				w.onChange(ctx)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("Watcher error")
		}
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Done is closed once Run has returned
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}
