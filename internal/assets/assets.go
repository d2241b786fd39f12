// Package assets holds the client bundle copied into every output tree.
package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Bundle file names, relative to the output root.
const (
	ScriptFile = "index.js"
	StyleFile  = "index.css"
)

//go:embed dist
var dist embed.FS

// Write copies the client bundle into outRoot and writes the not-found page.
func Write(outRoot, notFound string, notFoundPage []byte) error {
	if err := os.MkdirAll(outRoot, 0o755); err != nil {
		return fmt.Errorf("create output root: %w", err)
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		return err
	}
	for _, name := range []string{ScriptFile, StyleFile} {
		data, err := fs.ReadFile(sub, name)
		if err != nil {
			return fmt.Errorf("read embedded %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(outRoot, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	if err := os.WriteFile(filepath.Join(outRoot, notFound), notFoundPage, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", notFound, err)
	}
	return nil
}
