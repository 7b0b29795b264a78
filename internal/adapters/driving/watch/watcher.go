// Package watch uploads files that appear in a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/logger"
)

// DefaultDebounce is how long a path must be quiet before it is uploaded.
const DefaultDebounce = 500 * time.Millisecond

// Uploader registers a document for ingestion.
type Uploader interface {
	Upload(ctx context.Context, filename string, raw []byte) (*domain.Document, error)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period per path.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithSupports restricts uploads to formats the parser can read.
func WithSupports(supports func(format string) bool) Option {
	return func(w *Watcher) {
		w.supports = supports
	}
}

// WithOnUpload is called after every upload attempt.
func WithOnUpload(fn func(path string, doc *domain.Document, err error)) Option {
	return func(w *Watcher) {
		w.onUpload = fn
	}
}

// Watcher uploads files created or written in a single directory.
// Hidden files, directories and unsupported formats are ignored.
type Watcher struct {
	dir      string
	uploader Uploader
	debounce time.Duration
	supports func(format string) bool
	onUpload func(path string, doc *domain.Document, err error)

	mu     sync.Mutex
	timers map[string]*time.Timer
	ready  chan string
}

// New creates a watcher for dir.
func New(dir string, uploader Uploader, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		uploader: uploader,
		debounce: DefaultDebounce,
		supports: func(string) bool { return true },
		timers:   make(map[string]*time.Timer),
		ready:    make(chan string, 16),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. Returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch dir error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch dir error: %s is not a directory", w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("watch: watching %s", w.dir)

	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.accept(event) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		case path := <-w.ready:
			w.upload(ctx, path)
		}
	}
}

// accept reports whether an event should lead to an upload.
func (w *Watcher) accept(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return false
	}
	format := domain.FormatFromFilename(event.Name)
	return format != "" && w.supports(format)
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) upload(ctx context.Context, path string) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("watch: %s disappeared before upload", path)
		return
	}

	var doc *domain.Document
	if err == nil {
		doc, err = w.uploader.Upload(ctx, filepath.Base(path), raw)
	}
	if err != nil {
		logger.Warn("watch: upload %s: %v", path, err)
	} else {
		logger.Info("watch: uploaded %s as %s", path, doc.ID)
	}

	if w.onUpload != nil {
		w.onUpload(path, doc, err)
	}
}
