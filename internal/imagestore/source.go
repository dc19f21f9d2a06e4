// Package imagestore reads artwork images from a configured source and
// renders the Open Graph preview for a piece.
package imagestore

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when the requested image does not exist.
var ErrNotFound = errors.New("image not found")

// Source opens artwork images by their site-relative path (e.g. "/art/x.png").
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// cleanName turns a site path into a relative, slash-separated name that
// cannot escape the source root.
func cleanName(name string) (string, error) {
	p := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return "", ErrNotFound
	}
	return p, nil
}

// Dir serves images from a directory on disk, usually STATIC_DIR.
type Dir struct {
	Root string
}

// Open implements Source.
func (d Dir) Open(_ context.Context, name string) (io.ReadCloser, error) {
	rel, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(d.Root, filepath.FromSlash(rel)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}
