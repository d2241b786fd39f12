package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "mdgraph.yaml"

// Config is the validated, immutable configuration of one mdgraph process.
type Config struct {
	// Src is the source root; its first-level directories are language codes.
	Src string `yaml:"src"`
	// Out is the output root.
	Out string `yaml:"out"`
	// Base is the public base path used for asset and canonical URLs in production builds.
	Base string `yaml:"base"`
	// Port is the dev server listen port.
	Port int `yaml:"port"`
	// Languages is the ordered set of supported language codes.
	Languages []string `yaml:"languages"`
	// DefaultLanguage receives redirect stubs at the language-neutral path.
	DefaultLanguage string `yaml:"default_language"`

	Extension string `yaml:"extension"`
	Title     string `yaml:"title,omitempty"`
	NotFound  string `yaml:"not_found"`
	Sanitize  bool   `yaml:"sanitize,omitempty"`
	Workers   int    `yaml:"workers,omitempty"`
	Metrics   bool   `yaml:"metrics,omitempty"`
}

// Load reads the configuration file, applies defaults and validates the result.
// A missing file yields the default configuration.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		slog.Info("Configuration file not found, using defaults", "path", configPath)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	_ = applyDefaults(cfg)
	return cfg
}

// SourceRoot returns the cleaned source root.
func (c *Config) SourceRoot() string { return filepath.Clean(c.Src) }

// OutputRoot returns the cleaned output root.
func (c *Config) OutputRoot() string { return filepath.Clean(c.Out) }

// HasLanguage reports whether lang is one of the configured languages.
func (c *Config) HasLanguage(lang string) bool {
	for _, l := range c.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Addr returns the dev server listen address.
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// Within reports whether p is root itself or lies below it. Relative paths are
// resolved against the working directory.
func Within(root, p string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
