// Package intake watches a drop folder for source material. Files placed in
// the folder are debounced, run through text extraction, and handed to the
// drafting callback. Partially-written files settle during the debounce
// window before extraction runs.
package intake

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Jamesybdp/VetaCV-AI/internal/extract"
)

const defaultDebounce = 400 * time.Millisecond

// Handler receives the path and extracted text of a dropped file.
type Handler func(path, sourceText string)

// Watcher watches one drop folder and extracts dropped files.
type Watcher struct {
	dir       string
	handler   Handler
	extractor *extract.Extractor
	debounce  time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	timers   map[string]*time.Timer
	started  bool
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the settle window for dropped files.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a drop-folder watcher. handler is called once per
// settled, successfully extracted file.
func NewWatcher(dir string, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		dir:       dir,
		handler:   handler,
		extractor: extract.NewExtractor(),
		debounce:  defaultDebounce,
		logger:    zap.NewNop(),
		timers:    make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The drop folder is created if missing. Runs until
// ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		w.mu.Unlock()
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		w.mu.Unlock()
		return err
	}
	w.fsw = fsw
	w.started = true
	w.mu.Unlock()

	w.logger.Info("intake watching drop folder", zap.String("dir", w.dir))
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("intake watch error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	switch ev.Op {
	case fsnotify.Create, fsnotify.Write:
		info, err := os.Stat(ev.Name)
		if err != nil || info.IsDir() {
			return
		}
		if !extract.Supported(ev.Name) {
			w.logger.Debug("intake ignoring unsupported file", zap.String("path", ev.Name))
			return
		}
		w.schedule(ev.Name)
	case fsnotify.Remove:
		w.cancel(ev.Name)
	}
}

// schedule (re)arms the per-file settle timer.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.process(path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) process(path string) {
	text, err := w.extractor.Extract(path)
	if err != nil {
		w.logger.Warn("intake extraction failed",
			zap.String("path", path),
			zap.Error(err))
		return
	}
	w.logger.Info("intake extracted source material",
		zap.String("path", path),
		zap.Int("chars", len(text)))
	if w.handler != nil {
		w.handler(path, text)
	}
}

// SyncExisting processes files already sitting in the drop folder. Call
// after Start to pick up files dropped while the service was down.
func (w *Watcher) SyncExisting() {
	_ = filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if extract.Supported(path) {
			w.process(path)
		}
		return nil
	})
}

// Stop stops watching and cancels pending timers.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.fsw == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
