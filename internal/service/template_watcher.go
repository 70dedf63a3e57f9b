package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// TemplateWatcher reloads the page templates when files in the override
// directory change. Bursts of events are collapsed into one reload.
type TemplateWatcher struct {
	dir      string
	reload   func() error
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewTemplateWatcher(dir string, reload func() error, logger *zap.Logger) *TemplateWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateWatcher{dir: dir, reload: reload, debounce: 300 * time.Millisecond, logger: logger}
}

// TemplateExt is the extension of page template overrides. Other files in
// the override directory are neither parsed nor watched.
const TemplateExt = ".html"

func isTemplateFile(name string) bool {
	return filepath.Ext(name) == TemplateExt
}

// Start watches the directory until ctx is done or Close is called.
func (w *TemplateWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create template watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	watchCtx, cancel := context.WithCancel(ctx)
	w.watcher = watcher
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.loop(watchCtx, watcher, w.done)
	w.logger.Info("watching templates", zap.String("dir", w.dir))
	return nil
}

func (w *TemplateWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isTemplateFile(event.Name) || event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			name := event.Name
			timer = time.AfterFunc(w.debounce, func() {
				if err := w.reload(); err != nil {
					w.logger.Error("template reload failed", zap.String("file", name), zap.Error(err))
					return
				}
				w.logger.Info("templates reloaded", zap.String("file", name))
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("template watcher error", zap.Error(err))
		}
	}
}

// Close stops watching.
func (w *TemplateWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	w.cancel()
	err := w.watcher.Close()
	<-w.done
	w.watcher = nil
	return err
}
