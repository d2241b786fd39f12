// Package paths maps source documents to their output locations and routes.
//
// Everything here is pure: no I/O, no clock, no environment. The same Layout and
// source path always produce the same Mapping.
package paths

import (
	"path"
	"path/filepath"
	"strings"

	foundationerrors "git.home.luguber.info/inful/mdgraph/internal/foundation/errors"
)

// RenderedExt is the extension of rendered pages.
const RenderedExt = ".html"

const indexName = "index"

// Layout describes the source and output trees.
type Layout struct {
	SourceRoot      string
	OutputRoot      string
	DefaultLanguage string
	// SourceExt is the document extension including the dot, e.g. ".md".
	SourceExt string
}

// Mapping is the set of output locations derived from one source document.
type Mapping struct {
	// Source is the cleaned source path.
	Source string
	// Language is the first path segment below the source root.
	Language string
	// RelPath is the path below the language directory, slash separated, extension kept.
	RelPath string
	// RenderedPath is out/<lang>/<rel>.html.
	RenderedPath string
	// RawCopyPath is out/<lang>/<rel>.<ext>.
	RawCopyPath string
	// RedirectPath is out/<rel>.html for default-language documents, empty otherwise.
	RedirectPath string
	// Route is the public URL path of the rendered page.
	Route string
}

// HasRedirect reports whether the document gets a redirect stub.
func (m Mapping) HasRedirect() bool { return m.RedirectPath != "" }

// Map computes the output locations for sourcePath.
func Map(layout Layout, sourcePath string) (Mapping, error) {
	srcRoot := filepath.Clean(layout.SourceRoot)
	source := filepath.Clean(sourcePath)

	rel, err := filepath.Rel(srcRoot, source)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Mapping{}, foundationerrors.ConfigError("document is outside the source root").
			WithContext("path", sourcePath).
			WithContext("source_root", layout.SourceRoot).
			Build()
	}

	segments := strings.Split(filepath.ToSlash(rel), "/")
	if len(segments) < 2 {
		return Mapping{}, foundationerrors.ConfigError("document has no language directory").
			WithContext("path", sourcePath).
			Build()
	}
	if layout.SourceExt != "" && filepath.Ext(source) != layout.SourceExt {
		return Mapping{}, foundationerrors.ConfigError("document does not have the source extension").
			WithContext("path", sourcePath).
			WithContext("extension", layout.SourceExt).
			Build()
	}

	lang := segments[0]
	relPath := strings.Join(segments[1:], "/")
	stem := strings.TrimSuffix(relPath, filepath.Ext(relPath))

	outRoot := filepath.Clean(layout.OutputRoot)
	m := Mapping{
		Source:       source,
		Language:     lang,
		RelPath:      relPath,
		RenderedPath: filepath.Join(outRoot, lang, filepath.FromSlash(stem)+RenderedExt),
		RawCopyPath:  filepath.Join(outRoot, lang, filepath.FromSlash(relPath)),
		Route:        Route(lang, relPath),
	}
	if lang == layout.DefaultLanguage {
		m.RedirectPath = filepath.Join(outRoot, filepath.FromSlash(stem)+RenderedExt)
	}
	return m, nil
}

// Route returns the public route of the document rel (slash separated, extension
// optional) in language lang. A trailing "index" segment collapses to a directory route.
func Route(lang, rel string) string {
	stem := strings.TrimSuffix(rel, path.Ext(rel))
	segments := strings.Split(stem, "/")
	if segments[len(segments)-1] == indexName {
		segments[len(segments)-1] = ""
	}
	return "/" + lang + "/" + strings.Join(segments, "/")
}

// WithBase prefixes a root-relative route with the public base path.
func WithBase(base, route string) string {
	if base == "" || base == "/" {
		return route
	}
	return strings.TrimSuffix(base, "/") + route
}
