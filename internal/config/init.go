package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// gitignoreContent keeps generated output out of version control.
const gitignoreContent = "/out/\n"

// Init scaffolds a project in dir: configuration file, ignore rules, the default
// language source directory and the output directory.
func Init(dir, configName string, force bool) error {
	configPath := filepath.Join(dir, configName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	cfg := Default()
	// Workers is derived from the machine; keep it out of the checked-in file.
	cfg.Workers = 0

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignoreContent), 0o644); err != nil {
		return fmt.Errorf("failed to write .gitignore: %w", err)
	}

	for _, d := range []string{filepath.Join(dir, cfg.Src, cfg.DefaultLanguage), filepath.Join(dir, cfg.Out)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", d, err)
		}
	}
	return nil
}
