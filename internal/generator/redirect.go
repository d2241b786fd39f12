package generator

import (
	"bytes"
	"html/template"
)

var redirectTemplate = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Redirecting</title>
<link rel="canonical" href="{{ . }}">
<meta http-equiv="refresh" content="0;url={{ . }}">
</head>
<body>
<a href="{{ . }}">{{ . }}</a>
</body>
</html>
`))

// RedirectStub returns a page that forwards the browser to target.
func RedirectStub(target string) ([]byte, error) {
	var buf bytes.Buffer
	if err := redirectTemplate.Execute(&buf, target); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
