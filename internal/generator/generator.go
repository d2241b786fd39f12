// Package generator turns source documents into output artifacts.
//
// Generate handles a single document and is shared by the batch build and the
// watch loop. Every artifact of a document is rendered in memory first, so a
// document whose pipeline fails leaves nothing behind on disk.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/mdgraph/internal/assets"
	"git.home.luguber.info/inful/mdgraph/internal/config"
	foundationerrors "git.home.luguber.info/inful/mdgraph/internal/foundation/errors"
	"git.home.luguber.info/inful/mdgraph/internal/logfields"
	"git.home.luguber.info/inful/mdgraph/internal/metrics"
	"git.home.luguber.info/inful/mdgraph/internal/paths"
	"git.home.luguber.info/inful/mdgraph/internal/pipeline"
)

// ArtifactKind distinguishes the files written for one document.
type ArtifactKind string

const (
	KindRenderedPage ArtifactKind = "rendered-page"
	KindRawCopy      ArtifactKind = "raw-copy"
	KindRedirectStub ArtifactKind = "redirect-stub"
)

// Artifact is one output file.
type Artifact struct {
	Path string
	Data []byte
	Kind ArtifactKind
}

const notFoundSource = "# Page not found\n\nThe page you are looking for does not exist.\n"

// Generator owns the mapping from source documents to output artifacts.
type Generator struct {
	cfg       *config.Config
	layout    paths.Layout
	pipelines map[string]pipeline.Pipeline
	recorder  metrics.Recorder
	base      string
}

// Option configures a Generator.
type Option func(*Generator)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithMode selects the public base used in redirect stubs: "/" in development,
// the configured base in production.
func WithMode(mode pipeline.Mode) Option {
	return func(g *Generator) {
		if mode == pipeline.Development {
			g.base = "/"
		} else {
			g.base = g.cfg.Base
		}
	}
}

// New creates a Generator over cfg using one pipeline per language.
func New(cfg *config.Config, pipelines map[string]pipeline.Pipeline, opts ...Option) *Generator {
	g := &Generator{
		cfg: cfg,
		layout: paths.Layout{
			SourceRoot:      cfg.SourceRoot(),
			OutputRoot:      cfg.OutputRoot(),
			DefaultLanguage: cfg.DefaultLanguage,
			SourceExt:       cfg.Extension,
		},
		pipelines: pipelines,
		recorder:  metrics.NoopRecorder{},
		base:      cfg.Base,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Layout returns the source/output layout the generator maps with.
func (g *Generator) Layout() paths.Layout { return g.layout }

// Generate renders sourcePath and writes its artifacts. On success onRoute, if
// non-nil, is called exactly once with the document's route.
func (g *Generator) Generate(ctx context.Context, sourcePath string, onRoute func(route string)) error {
	start := time.Now()

	m, err := paths.Map(g.layout, sourcePath)
	if err != nil {
		g.recorder.ObserveGeneration("", time.Since(start), metrics.OutcomeConfig)
		return err
	}

	artifacts, err := g.Render(ctx, m)
	if err == nil {
		err = writeArtifacts(artifacts)
	}
	g.recorder.ObserveGeneration(m.Language, time.Since(start), outcomeOf(err))
	if err != nil {
		return err
	}

	slog.Debug("Generated document",
		logfields.Path(m.Source),
		logfields.Route(m.Route),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))

	if onRoute != nil {
		onRoute(m.Route)
	}
	return nil
}

// Render reads the source of m and produces its artifacts without writing them.
func (g *Generator) Render(ctx context.Context, m paths.Mapping) ([]Artifact, error) {
	source, err := os.ReadFile(m.Source)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "read source document").
			WithContext("path", m.Source).
			Build()
	}

	p, ok := g.pipelines[m.Language]
	if !ok {
		return nil, foundationerrors.ConfigError("no pipeline for language").
			WithContext("path", m.Source).
			WithContext("language", m.Language).
			Build()
	}

	page, err := p.Transform(ctx, pipeline.Page{Language: m.Language, Route: m.Route, Source: source})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryRender, "transform document").
			WithContext("path", m.Source).
			WithContext("language", m.Language).
			Build()
	}

	artifacts := []Artifact{
		{Path: m.RenderedPath, Data: page, Kind: KindRenderedPage},
		{Path: m.RawCopyPath, Data: source, Kind: KindRawCopy},
	}
	// The stub would replace the not-found page served for unknown URLs.
	if m.HasRedirect() && m.RedirectPath == g.notFoundPath() {
		slog.Debug("Skipping redirect stub over not-found page", logfields.Path(m.Source))
		return artifacts, nil
	}
	if m.HasRedirect() {
		stub, err := RedirectStub(paths.WithBase(g.base, m.Route))
		if err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "render redirect stub").
				WithContext("path", m.Source).
				Build()
		}
		artifacts = append(artifacts, Artifact{Path: m.RedirectPath, Data: stub, Kind: KindRedirectStub})
	}
	return artifacts, nil
}

func (g *Generator) notFoundPath() string {
	return filepath.Join(g.layout.OutputRoot, filepath.FromSlash(g.cfg.NotFound))
}

func writeArtifacts(artifacts []Artifact) error {
	for _, a := range artifacts {
		if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "create output directory").
				WithContext("path", a.Path).
				Build()
		}
		if err := os.WriteFile(a.Path, a.Data, 0o644); err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "write artifact").
				WithContext("path", a.Path).
				WithContext("kind", string(a.Kind)).
				Build()
		}
	}
	return nil
}

func outcomeOf(err error) metrics.Outcome {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	case foundationerrors.HasCategory(err, foundationerrors.CategoryConfig):
		return metrics.OutcomeConfig
	case foundationerrors.HasCategory(err, foundationerrors.CategoryRender):
		return metrics.OutcomeRender
	default:
		return metrics.OutcomeIO
	}
}

// WriteAssets writes the client bundle and the not-found page into the output root.
func (g *Generator) WriteAssets(ctx context.Context) error {
	var notFound []byte
	if p, ok := g.pipelines[g.cfg.DefaultLanguage]; ok {
		page, err := p.Transform(ctx, pipeline.Page{
			Language: g.cfg.DefaultLanguage,
			Route:    paths.Route(g.cfg.DefaultLanguage, ""),
			Source:   []byte(notFoundSource),
		})
		if err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryRender, "render not-found page").Build()
		}
		notFound = page
	} else {
		notFound = []byte("<!DOCTYPE html>\n<title>Page not found</title>\n<h1>Page not found</h1>\n")
	}

	if err := assets.Write(g.layout.OutputRoot, g.cfg.NotFound, notFound); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "write assets").
			WithContext("path", g.layout.OutputRoot).
			Build()
	}
	return nil
}

// Clean removes the output root and everything below it.
func (g *Generator) Clean() error {
	out := g.layout.OutputRoot
	if out == "" || out == "." || out == string(filepath.Separator) {
		return foundationerrors.ValidationError(fmt.Sprintf("refusing to clean output root %q", out)).Build()
	}
	if src := g.layout.SourceRoot; config.Within(out, src) || config.Within(src, out) {
		return foundationerrors.ValidationError("refusing to clean output root that overlaps the source root").
			WithContext("path", out).
			WithContext("source_root", src).
			Build()
	}
	if err := os.RemoveAll(out); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "remove output root").
			WithContext("path", out).
			Build()
	}
	slog.Info("Removed output directory", logfields.Path(out))
	return nil
}
