package server

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mdgraph/internal/logfields"
)

// staticHandler serves the output tree. A request path p resolves to the first
// existing file of p, p.html and p/index.html; anything else gets the
// not-found page with status 404.
type staticHandler struct {
	root     string
	notFound string
}

func (h staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name, ok := h.resolve(r.URL.Path)
	if !ok {
		h.serveNotFound(w, r)
		return
	}

	f, err := os.Open(name)
	if err != nil {
		h.serveNotFound(w, r)
		return
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

// resolve maps a URL path to a regular file below root.
func (h staticHandler) resolve(urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)

	var candidates []string
	if strings.HasSuffix(urlPath, "/") {
		candidates = []string{path.Join(clean, "index.html")}
	} else {
		candidates = []string{clean, clean + ".html", path.Join(clean, "index.html")}
	}

	for _, c := range candidates {
		name := filepath.Join(h.root, filepath.FromSlash(c))
		fi, err := os.Stat(name)
		if err == nil && fi.Mode().IsRegular() {
			return name, true
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Static lookup failed", logfields.Path(name), logfields.Error(err))
		}
	}
	return "", false
}

func (h staticHandler) serveNotFound(w http.ResponseWriter, r *http.Request) {
	page, err := os.ReadFile(filepath.Join(h.root, h.notFound))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusNotFound)
	if r.Method != http.MethodHead {
		_, _ = bytes.NewReader(page).WriteTo(w)
	}
}
