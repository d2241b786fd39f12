package generator

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	foundationerrors "git.home.luguber.info/inful/mdgraph/internal/foundation/errors"
	"git.home.luguber.info/inful/mdgraph/internal/logfields"
)

// Failure records a document that could not be generated.
type Failure struct {
	Path string
	Err  error
}

// Report summarizes a batch build.
type Report struct {
	Documents int
	Generated int
	Failures  []Failure
	Duration  time.Duration
}

// Failed reports whether any document failed.
func (r *Report) Failed() bool { return len(r.Failures) > 0 }

// Build generates every source document concurrently and waits for all of them.
//
// Per-document failures are logged and collected in the report. The first
// filesystem failure is also returned, after every document has been attempted.
func (g *Generator) Build(ctx context.Context) (*Report, error) {
	start := time.Now()

	docs, err := g.Discover()
	if err != nil {
		return nil, err
	}

	report := &Report{Documents: len(docs)}
	var (
		mu      sync.Mutex
		firstIO error
	)

	var eg errgroup.Group
	for _, doc := range docs {
		eg.Go(func() error {
			err := g.Generate(ctx, doc, nil)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				report.Generated++
				return nil
			}

			slog.Error("Failed to generate document",
				logfields.Path(doc),
				logfields.Category(string(foundationerrors.GetCategory(err))),
				logfields.Error(err))
			report.Failures = append(report.Failures, Failure{Path: doc, Err: err})
			if firstIO == nil && foundationerrors.HasCategory(err, foundationerrors.CategoryFileSystem) {
				firstIO = err
			}
			return nil
		})
	}
	_ = eg.Wait()

	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Path < report.Failures[j].Path
	})
	report.Duration = time.Since(start)

	slog.Info("Build finished",
		slog.Int("documents", report.Documents),
		slog.Int("generated", report.Generated),
		slog.Int("failed", len(report.Failures)),
		logfields.DurationMS(float64(report.Duration.Microseconds())/1000))

	return report, firstIO
}

// Discover lists every source document below the source root in lexical order.
// Hidden files and directories are skipped.
func (g *Generator) Discover() ([]string, error) {
	root := g.layout.SourceRoot

	var docs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) == g.layout.SourceExt {
			docs = append(docs, p)
		}
		return nil
	})
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "walk source root").
			WithContext("path", root).
			Build()
	}
	return docs, nil
}
