// Package pipeline turns one Markdown source document into a complete HTML page.
//
// A pipeline is bound to a single language. The generator looks up the pipeline
// for a document's language and only ever sees the Pipeline contract, so tests
// can substitute a Func.
package pipeline

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/mdgraph/internal/config"
)

// Mode selects how pages link to assets and whether the live-reload bootstrap
// is injected.
type Mode int

const (
	// Production pages use the configured public base and carry no reload script.
	Production Mode = iota
	// Development pages are served from "/" and reload on notification.
	Development
)

func (m Mode) String() string {
	if m == Development {
		return "development"
	}
	return "production"
}

// Page is the input of a single transform.
type Page struct {
	Language string
	Route    string
	Source   []byte
}

// Pipeline renders a page's source bytes to the final HTML document.
type Pipeline interface {
	Transform(ctx context.Context, page Page) ([]byte, error)
}

// Func adapts an ordinary function to the Pipeline interface.
type Func func(ctx context.Context, page Page) ([]byte, error)

// Transform calls f(ctx, page).
func (f Func) Transform(ctx context.Context, page Page) ([]byte, error) {
	return f(ctx, page)
}

// NewSet builds one Markdown pipeline per configured language.
func NewSet(cfg *config.Config, mode Mode) map[string]Pipeline {
	base := cfg.Base
	if mode == Development {
		base = "/"
	}

	set := make(map[string]Pipeline, len(cfg.Languages))
	for _, lang := range cfg.Languages {
		set[lang] = NewMarkdown(Options{
			Language:   lang,
			Languages:  cfg.Languages,
			SiteTitle:  cfg.Title,
			Base:       base,
			LiveReload: mode == Development,
			Sanitize:   cfg.Sanitize,
			Minify:     mode == Production,
		})
	}
	return set
}

// alternateRoute rewrites a route under /<from>/ to the same page under /<to>/.
func alternateRoute(route, from, to string) string {
	rest, ok := strings.CutPrefix(route, "/"+from)
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
		return route
	}
	return "/" + to + rest
}
