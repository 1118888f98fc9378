package spa

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNoIndex is returned when the directory has no index.html.
var ErrNoIndex = errors.New("spa: index.html not found")

const (
	cacheImmutable  = "public, max-age=31536000, immutable"
	cacheRevalidate = "no-cache, must-revalidate"
)

// Handler returns an http.Handler serving the frontend build in dir.
func Handler(dir string) (http.Handler, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("spa: static dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("spa: %s is not a directory", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		return nil, fmt.Errorf("%w in %s", ErrNoIndex, dir)
	}

	root := os.DirFS(dir)
	fileServer := http.FileServerFS(root)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upath := path.Clean("/" + r.URL.Path)

		if upath == "/" {
			w.Header().Set("Cache-Control", cacheRevalidate)
			fileServer.ServeHTTP(w, r)
			return
		}

		// Directories fall through to index.html so listings are never shown.
		if st, err := fs.Stat(root, upath[1:]); err == nil && !st.IsDir() {
			if strings.HasPrefix(upath, "/assets/") {
				w.Header().Set("Cache-Control", cacheImmutable)
			} else {
				w.Header().Set("Cache-Control", cacheRevalidate)
			}
			fileServer.ServeHTTP(w, r)
			return
		}

		if path.Ext(upath) != "" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Cache-Control", cacheRevalidate)
		http.ServeFileFS(w, r, root, "index.html")
	}), nil
}
