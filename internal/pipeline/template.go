package pipeline

import (
	"html/template"
)

type languageLink struct {
	Lang    string
	Href    string
	Current bool
}

type pageView struct {
	Lang        string
	Title       string
	SiteTitle   string
	Description string
	Base        string
	Canonical   string
	Fingerprint string
	Languages   []languageLink
	TOC         []TOCEntry
	LiveReload  bool
	Body        template.HTML
}

// trusted marks goldmark output as safe for the page template.
func trusted(b []byte) template.HTML {
	return template.HTML(b) //nolint:gosec // rendered by goldmark, optionally sanitized
}

// liveReloadScript reloads the page when the dev server announces its route.
const liveReloadScript = `(() => {
  const current = () => {
    let p = decodeURI(location.pathname).replace(/\.html$/, "");
    if (p.endsWith("/index")) p = p.slice(0, -"index".length);
    return p;
  };
  const source = new EventSource("/event");
  source.onmessage = (e) => {
    if (e.data === current()) location.reload();
  };
})();`

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{ .Lang }}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }}</title>
{{- with .Description }}
<meta name="description" content="{{ . }}">
{{- end }}
<meta property="og:type" content="article">
<meta property="og:title" content="{{ .Title }}">
{{- with .Description }}
<meta property="og:description" content="{{ . }}">
{{- end }}
<meta property="og:url" content="{{ .Canonical }}">
<meta name="mdgraph:fingerprint" content="{{ .Fingerprint }}">
<link rel="canonical" href="{{ .Canonical }}">
{{- range .Languages }}{{ if not .Current }}
<link rel="alternate" hreflang="{{ .Lang }}" href="{{ .Href }}">
{{- end }}{{ end }}
<link rel="stylesheet" href="{{ .Base }}index.css">
<script src="{{ .Base }}index.js"></script>
{{- if .LiveReload }}
<script>` + liveReloadScript + `</script>
{{- end }}
</head>
<body>
<header class="site">
<a href="{{ .Base }}">{{ .SiteTitle }}</a>
<nav>
{{- range .Languages }}
<a href="{{ .Href }}" hreflang="{{ .Lang }}"{{ if .Current }} aria-current="true"{{ end }}>{{ .Lang }}</a>
{{- end }}
<button id="theme-toggle" type="button" aria-label="Toggle theme">&#9680;</button>
</nav>
</header>
{{- with .TOC }}
<nav class="toc hidden">
<ul>
{{- range . }}
<li class="toc-h{{ .Level }}"><a href="#{{ .ID }}">{{ .Text }}</a></li>
{{- end }}
</ul>
</nav>
{{- end }}
<main id="main">
{{ .Body }}
</main>
</body>
</html>
`))
