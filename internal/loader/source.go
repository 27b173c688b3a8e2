package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// StatusError reports a non-200 response from a model host.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// source is an opened model document plus the directory its relative
// references resolve against.
type source struct {
	body io.ReadCloser
	dir  fs.FS
	name string
}

func (l *AsyncLoader) open(rawURL string) (*source, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// plain path, including Windows drive letters
		return openFile(rawURL)
	}

	switch u.Scheme {
	case "http", "https":
		body, err := l.get(u)
		if err != nil {
			return nil, err
		}
		return &source{
			body: body,
			dir:  &httpFS{loader: l, base: u},
			name: path.Base(u.Path),
		}, nil
	case "file":
		return openFile(filepath.FromSlash(u.Path))
	}
	return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
}

func openFile(name string) (*source, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return &source{
		body: f,
		dir:  os.DirFS(filepath.Dir(name)),
		name: filepath.Base(name),
	}, nil
}

func (l *AsyncLoader) get(u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{URL: u.String(), Code: resp.StatusCode}
	}
	return resp.Body, nil
}

// httpFS serves files relative to a remote document, so a .gltf can pull its
// .bin buffers from the same host.
type httpFS struct {
	loader *AsyncLoader
	base   *url.URL
}

func (h *httpFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	target := h.base.ResolveReference(&url.URL{Path: name})
	body, err := h.loader.get(target)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			err = fs.ErrNotExist
		}
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, h.loader.maxBytes))
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return &memFile{Reader: bytes.NewReader(data), name: path.Base(name), size: int64(len(data))}, nil
}

type memFile struct {
	*bytes.Reader
	name string
	size int64
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f, nil }
func (f *memFile) Close() error               { return nil }

func (f *memFile) Name() string       { return f.name }
func (f *memFile) Size() int64        { return f.size }
func (f *memFile) Mode() fs.FileMode  { return 0o444 }
func (f *memFile) ModTime() time.Time { return time.Time{} }
func (f *memFile) IsDir() bool        { return false }
func (f *memFile) Sys() interface{}   { return nil }

func extension(name string) string {
	return strings.ToLower(path.Ext(name))
}
