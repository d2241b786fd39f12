package config

import (
	"runtime"
	"strings"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// PathsDefaultApplier handles source/output/base defaults.
type PathsDefaultApplier struct{}

func (PathsDefaultApplier) Domain() string { return "paths" }

func (PathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Src == "" {
		cfg.Src = "src"
	}
	if cfg.Out == "" {
		cfg.Out = "out"
	}
	if cfg.Base == "" {
		cfg.Base = "/"
	}
	if cfg.Extension == "" {
		cfg.Extension = ".md"
	} else if !strings.HasPrefix(cfg.Extension, ".") {
		cfg.Extension = "." + cfg.Extension
	}
	if cfg.NotFound == "" {
		cfg.NotFound = "404.html"
	}
	return nil
}

// LanguageDefaultApplier handles language defaults.
type LanguageDefaultApplier struct{}

func (LanguageDefaultApplier) Domain() string { return "languages" }

func (LanguageDefaultApplier) ApplyDefaults(cfg *Config) error {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"en"}
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
		if !cfg.HasLanguage("en") {
			cfg.DefaultLanguage = cfg.Languages[0]
		}
	}
	return nil
}

// ServeDefaultApplier handles dev server defaults.
type ServeDefaultApplier struct{}

func (ServeDefaultApplier) Domain() string { return "serve" }

func (ServeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Port == 0 {
		cfg.Port = 3000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Title == "" {
		cfg.Title = "Documentation"
	}
	return nil
}

var defaultAppliers = []DefaultApplier{
	PathsDefaultApplier{},
	LanguageDefaultApplier{},
	ServeDefaultApplier{},
}

func applyDefaults(cfg *Config) error {
	for _, applier := range defaultAppliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
