// Package frontmatter separates YAML frontmatter from a Markdown body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Meta holds the frontmatter fields the page template understands.
type Meta struct {
	Title       string
	Description string
	Fields      map[string]any
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a delimiter, had is false and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the last line without a trailing newline.
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			return content[start : len(content)-len("---")], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

// Parse splits content and decodes the frontmatter into Meta.
func Parse(content []byte) (Meta, []byte, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return Meta{}, nil, err
	}
	meta := Meta{Fields: map[string]any{}}
	if !had || len(bytes.TrimSpace(fm)) == 0 {
		return meta, body, nil
	}

	if err := yaml.Unmarshal(fm, &meta.Fields); err != nil {
		return Meta{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if meta.Fields == nil {
		meta.Fields = map[string]any{}
	}
	meta.Title = stringField(meta.Fields, "title")
	meta.Description = stringField(meta.Fields, "description")
	return meta, body, nil
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
