package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/inful/mdfp"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tdewolff/minify/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/mdgraph/internal/frontmatter"
	"git.home.luguber.info/inful/mdgraph/internal/paths"
)

// FingerprintMeta is the name of the <meta> element carrying the content fingerprint.
const FingerprintMeta = "mdgraph:fingerprint"

// Options configures a Markdown pipeline.
type Options struct {
	// Language is the language this pipeline renders; it becomes <html lang>.
	Language string
	// Languages lists every configured language, in display order.
	Languages []string
	// SiteTitle is used when a page has neither a frontmatter title nor an h1.
	SiteTitle string
	// Base is the public path prefix for assets and cross-language links.
	Base string
	// LiveReload injects the event stream bootstrap.
	LiveReload bool
	// Sanitize passes the rendered body through a bluemonday UGC policy.
	Sanitize bool
	// Minify collapses the finished page.
	Minify bool
}

// Markdown is the goldmark based Pipeline.
type Markdown struct {
	opts     Options
	policy   *bluemonday.Policy
	minifier *minify.M
}

// NewMarkdown returns a Markdown pipeline for one language.
func NewMarkdown(opts Options) *Markdown {
	if opts.Base == "" {
		opts.Base = "/"
	}
	m := &Markdown{opts: opts}
	if opts.Sanitize {
		m.policy = bluemonday.UGCPolicy()
		m.policy.AllowAttrs("id", "class").Globally()
	}
	if opts.Minify {
		m.minifier = newMinifier()
	}
	return m
}

// newConverter builds a goldmark instance for a single conversion.
func newConverter() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(headingTransformer{}, 100),
			),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithUnsafe(),
		),
	)
}

// Transform renders page.Source into a full HTML document.
func (m *Markdown) Transform(ctx context.Context, page Page) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fm, body, _, err := frontmatter.Split(page.Source)
	if err != nil {
		return nil, err
	}
	meta, _, err := frontmatter.Parse(page.Source)
	if err != nil {
		return nil, err
	}

	var rendered bytes.Buffer
	pc := parser.NewContext()
	if err := newConverter().Convert(body, &rendered, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	content := rendered.Bytes()
	if m.policy != nil {
		content = m.policy.SanitizeBytes(content)
	}

	title := meta.Title
	if title == "" {
		title = titleFrom(pc)
	}
	if title == "" {
		title = m.opts.SiteTitle
	}

	view := pageView{
		Lang:        page.Language,
		Title:       title,
		SiteTitle:   m.opts.SiteTitle,
		Description: meta.Description,
		Base:        m.opts.Base,
		Canonical:   paths.WithBase(m.opts.Base, page.Route),
		Fingerprint: mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(fm), "\n"), string(body)),
		TOC:         tocFrom(pc),
		LiveReload:  m.opts.LiveReload,
		Body:        trusted(content),
	}
	for _, lang := range m.opts.Languages {
		view.Languages = append(view.Languages, languageLink{
			Lang:    lang,
			Href:    paths.WithBase(m.opts.Base, alternateRoute(page.Route, page.Language, lang)),
			Current: lang == page.Language,
		})
	}

	var out bytes.Buffer
	if err := pageTemplate.Execute(&out, view); err != nil {
		return nil, fmt.Errorf("execute page template: %w", err)
	}
	if m.minifier == nil {
		return out.Bytes(), nil
	}

	minified, err := m.minifier.Bytes(htmlMediaType, out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify page: %w", err)
	}
	return minified, nil
}
