package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	foundationerrors "git.home.luguber.info/inful/mdgraph/internal/foundation/errors"
	"git.home.luguber.info/inful/mdgraph/internal/generator"
	"git.home.luguber.info/inful/mdgraph/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct{}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gen := generator.New(cfg, pipeline.NewSet(cfg, pipeline.Production), generator.WithMode(pipeline.Production))
	report, err := RunBuild(ctx, gen)
	if err != nil {
		return err
	}
	fmt.Printf("Built %d of %d documents into %s\n", report.Generated, report.Documents, cfg.OutputRoot())
	return nil
}

// RunBuild cleans the output root, writes the client assets and generates
// every document. Any failed document makes the build fail after the rest
// have been written.
func RunBuild(ctx context.Context, gen *generator.Generator) (*generator.Report, error) {
	if err := gen.Clean(); err != nil {
		return nil, err
	}
	if err := gen.WriteAssets(ctx); err != nil {
		return nil, err
	}

	report, err := gen.Build(ctx)
	if err != nil {
		return report, err
	}
	if report.Failed() {
		return report, foundationerrors.BuildError(fmt.Sprintf("%d of %d documents failed", len(report.Failures), report.Documents)).
			WithContext("failed", len(report.Failures)).
			WithContext("first_failure", report.Failures[0].Path).
			Build()
	}
	return report, nil
}
