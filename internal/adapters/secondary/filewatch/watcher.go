// Package filewatch reports changes to dataset files so that dashboards can
// be refreshed without restarting the service.
package filewatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
)

// DatasetResolver maps a file name to the dataset stored in it.
type DatasetResolver interface {
	ByFile(file string) (domain.Dataset, bool)
}

// ChangeFunc is called once per settled change of a dataset file.
type ChangeFunc func(ctx context.Context, ds domain.Dataset)

// Watcher watches a data directory. Editors often save a file as several
// events in quick succession; changes are reported once the file has been
// quiet for the debounce window.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	dir         string
	resolver    DatasetResolver
	onChange    ChangeFunc
	debounceMap map[string]time.Time
	debounceDur time.Duration
	tick        time.Duration
	logger      *slog.Logger
	started     bool
	doneCh      chan struct{}
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must stay unchanged before it is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceDur = d
		if d/5 < w.tick {
			w.tick = max(d/5, time.Millisecond)
		}
	}
}

// New creates a watcher for dir. Call Start to begin watching.
func New(dir string, resolver DatasetResolver, onChange ChangeFunc, logger *slog.Logger, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{
		watcher:     fw,
		dir:         dir,
		resolver:    resolver,
		onChange:    onChange,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		tick:        100 * time.Millisecond,
		logger:      logger.With("component", "file_watcher"),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start adds the data directory to the watch list and processes events in a
// goroutine until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching data directory", "dir", w.dir)

	w.mu.Lock()
	w.started = true
	w.mu.Unlock()

	go w.run(ctx)
	return nil
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()

	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.doneCh
	}
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)

		case <-ticker.C:
			w.processSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	file := filepath.Base(event.Name)
	if _, ok := w.resolver.ByFile(file); !ok {
		return
	}

	w.logger.Debug("dataset file event", "file", file, "op", event.Op.String())

	w.mu.Lock()
	w.debounceMap[file] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processSettled(ctx context.Context) {
	now := time.Now()
	settled := make([]string, 0)

	w.mu.Lock()
	for file, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, file)
			delete(w.debounceMap, file)
		}
	}
	w.mu.Unlock()

	for _, file := range settled {
		ds, ok := w.resolver.ByFile(file)
		if !ok {
			continue
		}
		w.logger.Info("dataset file changed", "file", file, "dataset", ds.Name)
		w.onChange(ctx, ds)
	}
}
