package server

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/vearutop/statigz"
)

// Static returns middleware that serves the files in the root directory.
//
// GET and HEAD requests whose path names a regular file below root are answered with that file,
// every other request is passed on to the next handler untouched. Paths containing ".." segments
// are answered with 404 so they can never address anything outside of root.
//
// In debug mode files are read from disk on every request and caching is disabled, so changes are
// visible immediately. Otherwise files are compressed once when the middleware is created and
// served with the encoding the client prefers.
func Static(root string, debug bool) (func(http.Handler) http.Handler, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot use static root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static root %q is not a directory", root)
	}
	files := readDirFS{os.DirFS(root)}

	var fileServer http.Handler
	if debug {
		fileServer = middleware.NoCache(serveContent(files))
	} else {
		fileServer = statigz.FileServer(files, statigz.EncodeOnInit)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if containsDotDot(r.URL.Path) {
				http.NotFound(w, r)
				return
			}
			name, ok := staticName(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			info, err := fs.Stat(files, name)
			if err != nil || !info.Mode().IsRegular() {
				next.ServeHTTP(w, r)
				return
			}

			r2 := new(http.Request)
			*r2 = *r
			r2.URL = new(url.URL)
			*r2.URL = *r.URL
			r2.URL.Path = "/" + name
			r2.URL.RawPath = ""
			fileServer.ServeHTTP(w, r2)
		})
	}, nil
}

// staticName converts a request path into a name inside the static filesystem.
func staticName(urlPath string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if len(name) == 0 || !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

func containsDotDot(v string) bool {
	if !strings.Contains(v, "..") {
		return false
	}
	for _, ent := range strings.FieldsFunc(v, isSlashRune) {
		if ent == ".." {
			return true
		}
	}
	return false
}

func isSlashRune(r rune) bool { return r == '/' || r == '\\' }

// serveContent serves files without the directory listings and index.html redirects of
// http.FileServer, the middleware only hands it regular files.
func serveContent(files fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		file, err := files.Open(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer file.Close()
		info, err := file.Stat()
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		content, ok := file.(io.ReadSeeker)
		if !ok {
			data, err := io.ReadAll(file)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			content = bytes.NewReader(data)
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), content)
	})
}

// readDirFS adds fs.ReadDirFS to any filesystem, statigz needs it to walk the files on init.
type readDirFS struct {
	fs.FS
}

func (f readDirFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(f.FS, name)
}
