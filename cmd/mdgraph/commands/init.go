package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/mdgraph/internal/config"
	foundationerrors "git.home.luguber.info/inful/mdgraph/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool   `help:"Overwrite existing configuration file"`
	Dir   string `arg:"" optional:"" default:"." help:"Project directory" type:"path"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(i.Dir, filepath.Base(root.Config), i.Force)
}

// RunInit scaffolds a project in dir.
func RunInit(dir, configName string, force bool) error {
	fmt.Println("Initializing mdgraph project")
	fmt.Printf("Writing configuration to %s\n", filepath.Join(dir, configName))
	if err := config.Init(dir, configName, force); err != nil {
		fmt.Println("Initialization failed")
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "initialization failed").
			WithContext("dir", dir).
			Build()
	}
	fmt.Println("initialized successfully")
	return nil
}
