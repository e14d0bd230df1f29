// Package site serves the generated report directory.
package site

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// ErrNoReport is returned by Check when the directory has no index page.
var ErrNoReport = errors.New("report not generated")

// IndexFile is the page served at /.
const IndexFile = "index.html"

// servedExt lists the file types the site exposes. The report usually sits
// next to the history, the SQLite mirror and a .env file.
var servedExt = map[string]bool{
	".html": true,
	".css":  true,
	".js":   true,
	".xlsx": true,
	".png":  true,
	".svg":  true,
	".ico":  true,
}

// Register attaches the report directory to mux at /. Paths not claimed by
// other routes resolve against root; only report assets are served.
func Register(_ context.Context, mux *http.ServeMux, root fs.FS) {
	if mux == nil {
		panic("mux is nil")
	}
	if root == nil {
		panic("root is nil")
	}
	mux.Handle("/", http.FileServer(http.FS(publicFS{root})))
}

// publicFS hides dot files and anything that is not a report asset.
// Directories other than the root are hidden, so nothing is listed.
type publicFS struct {
	fs.FS
}

func (p publicFS) Open(name string) (fs.File, error) {
	if name == "." {
		return p.FS.Open(name)
	}
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
	}
	if !servedExt[strings.ToLower(path.Ext(name))] {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return p.FS.Open(name)
}

// Check reports whether root holds a generated report.
func Check(root fs.FS) error {
	if _, err := fs.Stat(root, IndexFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNoReport
		}
		return err
	}
	return nil
}
