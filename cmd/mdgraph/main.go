package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdgraph/cmd/mdgraph/commands"
	foundationerrors "git.home.luguber.info/inful/mdgraph/internal/foundation/errors"
	"git.home.luguber.info/inful/mdgraph/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("mdgraph"),
		kong.Description("Multi-language static documentation builder"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	globals := &commands.Global{Logger: slog.Default()}
	if err := parser.Run(globals, &cli); err != nil {
		foundationerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
