package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdgraph/internal/config"
	"git.home.luguber.info/inful/mdgraph/internal/generator"
	"git.home.luguber.info/inful/mdgraph/internal/pipeline"
)

type fakeGenerator struct {
	mu    sync.Mutex
	seen  []string
	fail  map[string]bool
	route func(path string) string
}

func (g *fakeGenerator) Generate(_ context.Context, path string, onRoute func(string)) error {
	g.mu.Lock()
	g.seen = append(g.seen, path)
	fail := g.fail[path]
	g.mu.Unlock()

	if fail {
		return errors.New("generation failed")
	}
	if onRoute != nil {
		onRoute(g.route(path))
	}
	return nil
}

func (g *fakeGenerator) saw(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Contains(g.seen, path)
}

type fakeNotifier struct {
	mu     sync.Mutex
	routes []string
}

func (n *fakeNotifier) Broadcast(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *fakeNotifier) got(route string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Contains(n.routes, route)
}

// start runs l until the test ends and waits for the initial watches.
func start(t *testing.T, l *Loop) {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case <-l.Ready():
	case err := <-done:
		t.Fatalf("loop exited before ready: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop never became ready")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("loop did not stop after cancellation")
		}
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want action
	}{
		{"create", fsnotify.Event{Name: "src/en/a.md", Op: fsnotify.Create}, actionAdd},
		{"write", fsnotify.Event{Name: "src/en/a.md", Op: fsnotify.Write}, actionChange},
		{"remove", fsnotify.Event{Name: "src/en/a.md", Op: fsnotify.Remove}, actionIgnore},
		{"rename", fsnotify.Event{Name: "src/en/a.md", Op: fsnotify.Rename}, actionIgnore},
		{"chmod", fsnotify.Event{Name: "src/en/a.md", Op: fsnotify.Chmod}, actionIgnore},
		{"hidden", fsnotify.Event{Name: "src/en/.a.md", Op: fsnotify.Write}, actionIgnore},
		{"swap", fsnotify.Event{Name: "src/en/a.md.swp", Op: fsnotify.Create}, actionIgnore},
		{"backup", fsnotify.Event{Name: "src/en/a.md~", Op: fsnotify.Write}, actionIgnore},
		{"emacs autosave", fsnotify.Event{Name: "src/en/#a.md#", Op: fsnotify.Write}, actionIgnore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.ev))
		})
	}
}

func TestLoop_RegeneratesChangedDocuments(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "en"), 0o755))

	gen := &fakeGenerator{route: func(string) string { return "/en/a" }}
	notifier := &fakeNotifier{}
	start(t, New(gen, notifier, Options{Root: root, Extension: ".md", Workers: 2}))

	doc := filepath.Join(root, "en", "a.md")
	writeFile(t, doc, "# A\n")

	require.Eventually(t, func() bool { return gen.saw(doc) }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return notifier.got("/en/a") }, 5*time.Second, 10*time.Millisecond)
}

func TestLoop_IgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "en"), 0o755))

	gen := &fakeGenerator{route: func(string) string { return "" }}
	start(t, New(gen, nil, Options{Root: root, Extension: ".md"}))

	notes := filepath.Join(root, "en", "notes.txt")
	hidden := filepath.Join(root, "en", ".draft.md")
	doc := filepath.Join(root, "en", "b.md")
	writeFile(t, notes, "x")
	writeFile(t, hidden, "x")
	writeFile(t, doc, "x")

	// Events are processed in order, so once the document is seen the
	// earlier files have been considered too.
	require.Eventually(t, func() bool { return gen.saw(doc) }, 5*time.Second, 10*time.Millisecond)
	assert.False(t, gen.saw(notes))
	assert.False(t, gen.saw(hidden))
}

func TestLoop_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "en"), 0o755))

	gen := &fakeGenerator{route: func(string) string { return "" }}
	start(t, New(gen, nil, Options{Root: root, Extension: ".md"}))

	first := filepath.Join(root, "en", "guide", "setup.md")
	writeFile(t, first, "# Setup\n")
	require.Eventually(t, func() bool { return gen.saw(first) }, 5*time.Second, 10*time.Millisecond)

	// The new directory is watched now.
	second := filepath.Join(root, "en", "guide", "usage.md")
	writeFile(t, second, "# Usage\n")
	require.Eventually(t, func() bool { return gen.saw(second) }, 5*time.Second, 10*time.Millisecond)
}

func TestLoop_ErrorsDoNotStopTheLoop(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "en"), 0o755))

	bad := filepath.Join(root, "en", "bad.md")
	good := filepath.Join(root, "en", "good.md")
	gen := &fakeGenerator{
		fail:  map[string]bool{bad: true},
		route: func(string) string { return "/en/good" },
	}
	notifier := &fakeNotifier{}
	start(t, New(gen, notifier, Options{Root: root, Extension: ".md"}))

	writeFile(t, bad, "x")
	require.Eventually(t, func() bool { return gen.saw(bad) }, 5*time.Second, 10*time.Millisecond)

	writeFile(t, good, "x")
	require.Eventually(t, func() bool { return notifier.got("/en/good") }, 5*time.Second, 10*time.Millisecond)
}

func TestLoop_MissingRoot(t *testing.T) {
	l := New(&fakeGenerator{}, nil, Options{Root: filepath.Join(t.TempDir(), "missing"), Extension: ".md"})
	require.Error(t, l.Run(t.Context()))
}

func TestLoop_WithGenerator(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Src = filepath.Join(dir, "src")
	cfg.Out = filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Src, "en"), 0o755))

	gen := generator.New(cfg, pipeline.NewSet(cfg, pipeline.Development), generator.WithMode(pipeline.Development))
	notifier := &fakeNotifier{}
	start(t, New(gen, notifier, Options{Root: cfg.SourceRoot(), Extension: cfg.Extension, Workers: 2}))

	writeFile(t, filepath.Join(cfg.Src, "en", "guide", "index.md"), "# Guide\n")

	require.Eventually(t, func() bool { return notifier.got("/en/guide/") }, 5*time.Second, 10*time.Millisecond)
	assert.FileExists(t, filepath.Join(cfg.Out, "en", "guide", "index.html"))
	assert.FileExists(t, filepath.Join(cfg.Out, "guide", "index.html"))
}
