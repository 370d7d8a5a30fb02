package api

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/isdelr/portal-be/internal/api/respond"
)

// staticFS hides dotfiles and refuses to list directories that have no
// index.html; both look like missing files to the client.
type staticFS struct {
	fs http.FileSystem
}

func (s staticFS) Open(name string) (http.File, error) {
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return nil, fs.ErrNotExist
		}
	}

	f, err := s.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		index, err := s.fs.Open(path.Join(name, "index.html"))
		if err != nil {
			f.Close()
			return nil, fs.ErrNotExist
		}
		index.Close()
	}
	return f, nil
}

// staticHandler serves the files under dir verbatim.
func staticHandler(dir string) http.Handler {
	return http.FileServer(staticFS{fs: http.Dir(dir)})
}

// pageHandler always serves the single file at file. A missing or unreadable
// file is an uncaught error.
func pageHandler(file string) respond.Handler {
	return func(w http.ResponseWriter, r *http.Request) error {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("open page %s: %w", file, err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat page %s: %w", file, err)
		}
		if info.IsDir() {
			return errors.New("page " + file + " is a directory")
		}
		http.ServeContent(w, r, filepath.Base(file), info.ModTime(), f)
		return nil
	}
}
