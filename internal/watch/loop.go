// Package watch regenerates documents as they change on disk.
//
// A single producer goroutine reads fsnotify events and queues source paths;
// a fixed pool of workers regenerates them and broadcasts the resulting route.
// There is no debouncing: a path queued twice may be generated by two workers
// at the same time, which is safe because generation is idempotent.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	foundationerrors "git.home.luguber.info/inful/mdgraph/internal/foundation/errors"
	"git.home.luguber.info/inful/mdgraph/internal/logfields"
)

const queueSize = 64

// Generator regenerates a single source document.
type Generator interface {
	Generate(ctx context.Context, sourcePath string, onRoute func(route string)) error
}

// Notifier receives the route of every successfully regenerated document.
type Notifier interface {
	Broadcast(route string)
}

// Options configures a Loop.
type Options struct {
	// Root is the source directory to watch recursively.
	Root string
	// Extension selects the files that are documents, e.g. ".md".
	Extension string
	// Workers is the number of concurrent generations; values below one mean one.
	Workers int
}

// Loop watches the source tree and regenerates changed documents.
type Loop struct {
	gen      Generator
	notifier Notifier
	opts     Options
	ready    chan struct{}
}

// New creates a Loop. notifier may be nil.
func New(gen Generator, notifier Notifier, opts Options) *Loop {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Loop{gen: gen, notifier: notifier, opts: opts, ready: make(chan struct{})}
}

// Ready is closed once every existing directory is being watched.
func (l *Loop) Ready() <-chan struct{} { return l.ready }

// Run watches until ctx is cancelled. Generation errors are logged and never
// stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "create file watcher").Build()
	}
	defer func() { _ = watcher.Close() }()

	if _, err := os.Stat(l.opts.Root); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "stat source root").
			WithContext("path", l.opts.Root).
			Build()
	}
	addDirsRecursive(watcher, l.opts.Root)

	queue := make(chan string, queueSize)
	var wg sync.WaitGroup
	for range l.opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.worker(ctx, queue)
		}()
	}
	defer func() {
		close(queue)
		wg.Wait()
	}()

	enqueue := func(path string) {
		select {
		case queue <- path:
		case <-ctx.Done():
		}
	}

	slog.Info("Watching source tree", logfields.Path(l.opts.Root), slog.Int("workers", l.opts.Workers))
	close(l.ready)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			l.handleEvent(watcher, ev, enqueue)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (l *Loop) worker(ctx context.Context, queue <-chan string) {
	var onRoute func(string)
	if l.notifier != nil {
		onRoute = l.notifier.Broadcast
	}
	for path := range queue {
		if ctx.Err() != nil {
			continue
		}
		if err := l.gen.Generate(ctx, path, onRoute); err != nil {
			slog.Warn("Failed to regenerate document",
				logfields.Path(path),
				logfields.Category(string(foundationerrors.GetCategory(err))),
				logfields.Error(err))
			continue
		}
		slog.Info("Regenerated document", logfields.Path(path))
	}
}

// action is what the loop does in response to one event.
type action int

const (
	actionIgnore action = iota
	actionAdd
	actionChange
)

// classify maps an event to an action. Removals, renames and permission
// changes are ignored; their output stays on disk.
func classify(ev fsnotify.Event) action {
	if shouldIgnoreEvent(ev.Name) {
		return actionIgnore
	}
	switch {
	case ev.Has(fsnotify.Create):
		return actionAdd
	case ev.Has(fsnotify.Write):
		return actionChange
	default:
		return actionIgnore
	}
}

func (l *Loop) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, enqueue func(string)) {
	act := classify(ev)
	if act == actionIgnore {
		return
	}

	if act == actionAdd {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			// Files may land in a new directory before its watch exists.
			addDirsRecursive(watcher, ev.Name)
			for _, doc := range l.documentsUnder(ev.Name) {
				enqueue(doc)
			}
			return
		}
	}

	if !l.isDocument(ev.Name) {
		return
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	enqueue(ev.Name)
}

func (l *Loop) isDocument(path string) bool {
	return filepath.Ext(path) == l.opts.Extension
}

func (l *Loop) documentsUnder(dir string) []string {
	var docs []string
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if p != dir && shouldIgnoreEvent(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && l.isDocument(p) {
			docs = append(docs, p)
		}
		return nil
	})
	return docs
}

func addDirsRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for hidden, editor swap and lock files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
