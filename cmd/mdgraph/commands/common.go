package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdgraph/internal/config"
	foundationerrors "git.home.luguber.info/inful/mdgraph/internal/foundation/errors"
)

// LogLevelEnv overrides the log level when --verbose is not given.
const LogLevelEnv = "MDGRAPH_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"mdgraph.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init  InitCmd  `cmd:"" help:"Create a configuration file and the source and output directories"`
	Build BuildCmd `cmd:"" help:"Render every source document for publishing"`
	Serve ServeCmd `cmd:"" help:"Build, watch the sources and serve the output with live reload"`
	Clean CleanCmd `cmd:"" help:"Remove the output directory"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	} else if env, ok := os.LookupEnv(LogLevelEnv); ok {
		level = parseLevel(env, level)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func parseLevel(s string, fallback slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return fallback
	}
	return level
}

// loadConfig loads and validates the configuration at path.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if foundationerrors.IsClassified(err) {
			return nil, err
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to load configuration").
			WithContext("path", path).
			Build()
	}
	return cfg, nil
}
