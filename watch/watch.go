// Package watch ingests documents dropped into a directory.
//
// A Watcher listens for file system events with fsnotify, waits for writes
// to settle, extracts the text of supported files and hands it to an
// ingestion pipeline on a bounded worker pool. A modified file replaces the
// chunks its previous version stored, and a deleted file takes them along.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/extract"
	"github.com/poiesic/docent/ingestion"
)

const (
	DefaultDebounce = 500 * time.Millisecond
	DefaultPoolSize = 2
)

var (
	// ErrIngesterRequired is returned when no ingester is provided.
	ErrIngesterRequired = errors.New("ingester required")

	// ErrNotDirectory is returned when the watched path is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// Ingester stores document text in a namespace, replacing whatever an
// earlier version of the same source stored. Blank text removes the source.
// *ingestion.Pipeline satisfies it.
type Ingester interface {
	Replace(ctx context.Context, ns core.Namespace, text, source string) (*ingestion.Result, error)
}

// Event reports the outcome of ingesting one file.
type Event struct {
	Path string
	// Removed is set when the file was gone and its chunks were dropped.
	Removed bool
	Result  *ingestion.Result
	Err     error
}

// Watcher keeps a namespace in step with one directory: new and changed
// files are (re)ingested and removed files are dropped.
type Watcher struct {
	dir         string
	namespace   core.Namespace
	ingester    Ingester
	poolSize    int
	debounce    time.Duration
	initialScan bool
	handler     func(Event)
	logger      *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	files   map[string]*sync.Mutex
	closed  bool
	jobs    sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher) error

// WithPoolSize sets how many files are ingested concurrently.
// Default is 2.
func WithPoolSize(size int) Option {
	return func(w *Watcher) error {
		if size < 1 {
			return fmt.Errorf("pool size must be positive, got %d", size)
		}
		w.poolSize = size
		return nil
	}
}

// WithDebounce sets how long a file must be quiet before it is ingested.
// Default is 500ms.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) error {
		if d < 0 {
			return fmt.Errorf("debounce must not be negative, got %v", d)
		}
		w.debounce = d
		return nil
	}
}

// WithInitialScan ingests the files already present when Run starts.
func WithInitialScan(scan bool) Option {
	return func(w *Watcher) error {
		w.initialScan = scan
		return nil
	}
}

// WithHandler registers a callback invoked after every ingestion attempt.
// It runs on a pool worker and must be safe for concurrent use.
func WithHandler(fn func(Event)) Option {
	return func(w *Watcher) error {
		w.handler = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// New creates a watcher for dir that ingests into ns.
func New(dir string, ns core.Namespace, ingester Ingester, opts ...Option) (*Watcher, error) {
	if ingester == nil {
		return nil, ErrIngesterRequired
	}
	if err := core.ValidateNamespace(ns); err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}

	w := &Watcher{
		dir:       dir,
		namespace: ns,
		ingester:  ingester,
		poolSize:  DefaultPoolSize,
		debounce:  DefaultDebounce,
		handler:   func(Event) {},
		logger:    slog.Default(),
		pending:   make(map[string]*time.Timer),
		files:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	w.logger = w.logger.With("component", "watch", "dir", dir, "namespace", ns)
	return w, nil
}

// Run watches the directory until ctx is done. In-flight ingestions are
// awaited before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return err
	}

	pool, err := ants.NewPool(w.poolSize)
	if err != nil {
		return err
	}
	defer pool.Release()

	w.mu.Lock()
	w.closed = false
	w.mu.Unlock()
	defer w.jobs.Wait()
	defer w.cancelPending()

	// submit expects the caller to have registered the job with w.jobs.
	submit := func(path string) {
		if err := pool.Submit(func() {
			defer w.jobs.Done()
			w.ingestFile(ctx, path)
		}); err != nil {
			w.jobs.Done()
			w.logger.Error("error submitting file", "path", path, "err", err)
		}
	}

	if w.initialScan {
		if err := w.scan(submit); err != nil {
			return err
		}
	}

	w.logger.Info("watching directory")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped")
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !extract.Supported(event.Name) {
				w.logger.Debug("ignoring unsupported file", "path", event.Name)
				continue
			}
			w.schedule(ctx, event.Name, submit)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) scan(submit func(string)) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !extract.Supported(entry.Name()) {
			continue
		}
		w.jobs.Add(1)
		submit(filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

// schedule (re)starts the quiet period of path.
func (w *Watcher) schedule(ctx context.Context, path string, submit func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.closed || ctx.Err() != nil {
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		w.jobs.Add(1)
		w.mu.Unlock()
		submit(path)
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// fileLock serializes jobs for one path so a slow job never overwrites the
// result of a later one.
func (w *Watcher) fileLock(path string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	lock, ok := w.files[path]
	if !ok {
		lock = &sync.Mutex{}
		w.files[path] = lock
	}
	return lock
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	lock := w.fileLock(path)
	lock.Lock()
	defer lock.Unlock()

	event := Event{Path: path}
	defer func() { w.handler(event) }()

	doc, err := extract.File(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		event.Removed = true
		doc, err = &extract.Document{Source: filepath.Base(path)}, nil
	}
	if err != nil {
		w.logger.Warn("error extracting file", "path", path, "err", err)
		event.Err = err
		return
	}
	event.Result, event.Err = w.ingester.Replace(ctx, w.namespace, doc.Text, doc.Source)
	if event.Err != nil {
		w.logger.Error("error ingesting file", "path", path, "err", event.Err)
		return
	}
	if event.Removed {
		w.logger.Info("file removed", "path", path, "chunks", event.Result.Removed)
		return
	}
	w.logger.Info("file ingested", "path", path, "chunks", event.Result.Chunks, "replaced", event.Result.Removed)
}
