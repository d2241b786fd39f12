package pipeline

import (
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

const htmlMediaType = "text/html"

// newMinifier returns an HTML minifier that leaves document tags, end tags
// and attribute quotes in place.
func newMinifier() *minify.M {
	m := minify.New()
	m.Add(htmlMediaType, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return m
}
