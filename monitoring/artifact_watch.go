package monitoring

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ArtifactWatcher notices when startup artifacts change on disk. It never
// reloads them: loaded artifacts stay in force until the process restarts.
type ArtifactWatcher struct {
	watcher *fsnotify.Watcher
	paths   map[string]struct{}
	logger  *zap.Logger
	changed atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewArtifactWatcher starts watching the given files. Their parent
// directories are watched so that editors replacing files by rename are
// still seen.
func NewArtifactWatcher(logger *zap.Logger, paths ...string) (*ArtifactWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	aw := &ArtifactWatcher{
		watcher: w,
		paths:   make(map[string]struct{}, len(paths)),
		logger:  logger,
		done:    make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		aw.paths[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	aw.wg.Add(1)
	go aw.run()
	return aw, nil
}

func (aw *ArtifactWatcher) run() {
	defer aw.wg.Done()
	for {
		select {
		case <-aw.done:
			return
		case event, ok := <-aw.watcher.Events:
			if !ok {
				return
			}
			aw.handle(event)
		case err, ok := <-aw.watcher.Errors:
			if !ok {
				return
			}
			aw.logger.Warn("artifact watcher error", zap.Error(err))
		}
	}
}

func (aw *ArtifactWatcher) handle(event fsnotify.Event) {
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, watched := aw.paths[abs]; !watched {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if aw.changed.CompareAndSwap(false, true) {
		aw.logger.Warn("artifact changed on disk; restart the service to load it",
			zap.String("path", abs), zap.String("op", event.Op.String()))
	}
}

// Changed reports whether any watched artifact was modified since start.
func (aw *ArtifactWatcher) Changed() bool {
	if aw == nil {
		return false
	}
	return aw.changed.Load()
}

func (aw *ArtifactWatcher) Close() error {
	if aw == nil {
		return nil
	}
	close(aw.done)
	err := aw.watcher.Close()
	aw.wg.Wait()
	return err
}
