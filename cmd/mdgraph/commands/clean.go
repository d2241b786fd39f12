package commands

import (
	"git.home.luguber.info/inful/mdgraph/internal/generator"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (c *CleanCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	return generator.New(cfg, nil).Clean()
}
