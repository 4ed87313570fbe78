package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the runtime flags file when it changes
type Watcher struct {
	path     string
	flags    *RuntimeFlags
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatcher loads the runtime file once, applies it and prepares a watch on it
func NewWatcher(path string, flags *RuntimeFlags, logger *zap.Logger) (*Watcher, error) {
	rf, err := LoadRuntimeFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial runtime file: %w", err)
	}
	flags.Apply(rf)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so editors that save by rename are seen too
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch runtime file directory: %w", err)
	}

	return &Watcher{
		path:     path,
		flags:    flags,
		watcher:  watcher,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching for changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Runtime flags watcher started", zap.String("path", w.path))
}

// Stop stops watching and waits for the loop to exit
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	<-w.doneCh
	w.logger.Info("Runtime flags watcher stopped")
}

func (w *Watcher) watchLoop() {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(w.debounce, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	rf, err := LoadRuntimeFile(w.path)
	if err != nil {
		w.logger.Error("Failed to reload runtime flags, keeping current", zap.Error(err))
		return
	}

	before := w.flags.UseRITree()
	w.flags.Apply(rf)
	w.logger.Info("Runtime flags reloaded",
		zap.Bool("useRITreeBefore", before),
		zap.Bool("useRITree", w.flags.UseRITree()))
}
