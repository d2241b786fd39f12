package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/mdgraph/internal/config"
	"git.home.luguber.info/inful/mdgraph/internal/generator"
	"git.home.luguber.info/inful/mdgraph/internal/livereload"
	"git.home.luguber.info/inful/mdgraph/internal/metrics"
	"git.home.luguber.info/inful/mdgraph/internal/pipeline"
	"git.home.luguber.info/inful/mdgraph/internal/server"
	"git.home.luguber.info/inful/mdgraph/internal/watch"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct{}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Serving %s on http://localhost:%d/\n", cfg.OutputRoot(), cfg.Port)
	return RunServe(ctx, cfg)
}

// RunServe builds the site in development mode, then watches the sources and
// serves the output until ctx is cancelled. Document failures are logged and
// never stop the server.
func RunServe(ctx context.Context, cfg *config.Config) error {
	var (
		recorder metrics.Recorder = metrics.NoopRecorder{}
		registry *prom.Registry
	)
	if cfg.Metrics {
		registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	hub := livereload.NewHub(livereload.WithRecorder(recorder))
	gen := generator.New(cfg, pipeline.NewSet(cfg, pipeline.Development),
		generator.WithMode(pipeline.Development),
		generator.WithRecorder(recorder))

	if err := gen.Clean(); err != nil {
		return err
	}
	if err := gen.WriteAssets(ctx); err != nil {
		return err
	}
	if _, err := gen.Build(ctx); err != nil {
		return err
	}

	loop := watch.New(gen, hub, watch.Options{
		Root:      cfg.SourceRoot(),
		Extension: cfg.Extension,
		Workers:   cfg.Workers,
	})
	srv := server.New(cfg, hub, server.Options{Registry: registry})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })

	// Only accept connections once edits can be observed.
	select {
	case <-loop.Ready():
	case <-gctx.Done():
		return g.Wait()
	}
	g.Go(func() error { return srv.Run(gctx, nil) })
	return g.Wait()
}
