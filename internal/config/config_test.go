package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/mdgraph/internal/foundation/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "src", cfg.Src)
	assert.Equal(t, "out", cfg.Out)
	assert.Equal(t, "/", cfg.Base)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, []string{"en"}, cfg.Languages)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Equal(t, ".md", cfg.Extension)
	assert.Equal(t, "404.html", cfg.NotFound)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
}

func TestLoad_ParsesFile(t *testing.T) {
	path := writeConfig(t, `
src: docs
out: public
base: /handbook/
port: 4000
languages: [en, fr]
default_language: fr
extension: markdown
sanitize: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "docs", cfg.Src)
	assert.Equal(t, "public", cfg.Out)
	assert.Equal(t, "/handbook/", cfg.Base)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, []string{"en", "fr"}, cfg.Languages)
	assert.Equal(t, "fr", cfg.DefaultLanguage)
	assert.Equal(t, ".markdown", cfg.Extension)
	assert.True(t, cfg.Sanitize)
	assert.Equal(t, ":4000", cfg.Addr())
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("MDGRAPH_TEST_OUT", "dist")
	cfg, err := Load(writeConfig(t, "out: ${MDGRAPH_TEST_OUT}\n"))
	require.NoError(t, err)
	assert.Equal(t, "dist", cfg.Out)
}

func TestLoad_DefaultLanguageFallsBackToFirst(t *testing.T) {
	cfg, err := Load(writeConfig(t, "languages: [de, fr]\n"))
	require.NoError(t, err)
	assert.Equal(t, "de", cfg.DefaultLanguage)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "languages: [en\n"))
	require.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown default language", func(c *Config) { c.DefaultLanguage = "de" }, "default_language"},
		{"duplicate language", func(c *Config) { c.Languages = []string{"en", "en"} }, "languages"},
		{"invalid language tag", func(c *Config) { c.Languages = []string{"en", "not a tag"} }, "languages"},
		{"no languages", func(c *Config) { c.Languages = nil }, "languages"},
		{"same src and out", func(c *Config) { c.Out = "./src" }, "out"},
		{"src inside out", func(c *Config) { c.Src, c.Out = "site/src", "site" }, "src"},
		{"out inside src", func(c *Config) { c.Out = "src/out" }, "out"},
		{"base without slashes", func(c *Config) { c.Base = "docs" }, "base"},
		{"port out of range", func(c *Config) { c.Port = 70000 }, "port"},
		{"html extension", func(c *Config) { c.Extension = ".html" }, "extension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))

			classified, ok := foundationerrors.AsClassified(err)
			require.True(t, ok)
			field, _ := classified.Context().GetString("field")
			assert.Equal(t, tt.field, field)
		})
	}

	require.NoError(t, ValidateConfig(Default()))

	// A shared name prefix is not nesting.
	sibling := Default()
	sibling.Out = "src-out"
	require.NoError(t, ValidateConfig(sibling))
}

func TestWithin(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		name string
		root string
		p    string
		want bool
	}{
		{"same", root, root, true},
		{"child", root, filepath.Join(root, "src"), true},
		{"deep child", root, filepath.Join(root, "a", "b"), true},
		{"parent", filepath.Join(root, "src"), root, false},
		{"sibling with shared prefix", filepath.Join(root, "src"), filepath.Join(root, "src-out"), false},
		{"relative child", "site", "site/src", true},
		{"relative unclean", "site", "./site/../site/src", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Within(tt.root, tt.p))
		})
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir, DefaultPath, false))

	assert.FileExists(t, filepath.Join(dir, DefaultPath))
	assert.DirExists(t, filepath.Join(dir, "src", "en"))
	assert.DirExists(t, filepath.Join(dir, "out"))

	ignore, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "/out/\n", string(ignore))

	cfg, err := Load(filepath.Join(dir, DefaultPath))
	require.NoError(t, err)
	assert.Equal(t, Default().Languages, cfg.Languages)

	err = Init(dir, DefaultPath, false)
	require.Error(t, err)
	require.NoError(t, Init(dir, DefaultPath, true))
}
