package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"Scroll3D/internal/logger"
	"Scroll3D/internal/renderer"

	"go.uber.org/zap"
)

var (
	ErrUnsupportedFormat = errors.New("loader: unsupported model format")
	ErrUnsupportedSource = errors.New("loader: unsupported source")
	ErrEmptyModel        = errors.New("loader: model has no drawable geometry")
)

// Loader fetches and parses a model without blocking the caller. Exactly one
// of the callbacks runs, at some later time, unless the load never ends.
type Loader interface {
	Load(url string, onSuccess func(*renderer.Model), onError func(error))
}

// Poster hands a closure to the event loop that must run it.
type Poster func(func())

type format int

const (
	formatUnknown format = iota
	formatGLTF
	formatOBJ
)

const defaultMaxBytes = 256 << 20

type Option func(*AsyncLoader)

func WithHTTPClient(client *http.Client) Option {
	return func(l *AsyncLoader) { l.client = client }
}

func WithTimeout(timeout time.Duration) Option {
	return func(l *AsyncLoader) { l.client = &http.Client{Timeout: timeout} }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *AsyncLoader) { l.log = log }
}

func WithUserAgent(userAgent string) Option {
	return func(l *AsyncLoader) { l.userAgent = userAgent }
}

// WithMaxBytes caps how much is read from any single model or buffer file.
func WithMaxBytes(n int64) Option {
	return func(l *AsyncLoader) { l.maxBytes = n }
}

// AsyncLoader runs every load on its own goroutine and posts the outcome back
// through the Poster. Loads cannot be cancelled once started.
type AsyncLoader struct {
	client    *http.Client
	post      Poster
	log       *zap.Logger
	userAgent string
	maxBytes  int64
	wg        sync.WaitGroup
}

func NewAsyncLoader(post Poster, opts ...Option) *AsyncLoader {
	l := &AsyncLoader{
		client:    &http.Client{Timeout: 60 * time.Second},
		post:      post,
		log:       logger.Log,
		userAgent: "Scroll3D",
		maxBytes:  defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.post == nil {
		l.post = func(fn func()) { fn() }
	}
	return l
}

func (l *AsyncLoader) Load(url string, onSuccess func(*renderer.Model), onError func(error)) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		model, err := l.LoadModel(url)
		if err != nil {
			l.post(func() {
				if onError != nil {
					onError(err)
				}
			})
			return
		}
		l.post(func() {
			if onSuccess != nil {
				onSuccess(model)
			}
		})
	}()
}

// Wait blocks until every started load has posted its outcome.
func (l *AsyncLoader) Wait() {
	l.wg.Wait()
}

// LoadModel fetches and decodes url on the calling goroutine.
func (l *AsyncLoader) LoadModel(url string) (*renderer.Model, error) {
	start := time.Now()
	src, err := l.open(url)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", url, err)
	}
	defer src.body.Close()

	br := bufio.NewReader(io.LimitReader(src.body, l.maxBytes))
	var model *renderer.Model
	switch detectFormat(src.name, br) {
	case formatGLTF:
		model, err = DecodeGLTF(br, src.dir, l.log)
	case formatOBJ:
		model, err = DecodeOBJ(br, l.log)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, src.name)
	}
	if err != nil {
		return nil, err
	}

	model.Name = src.name
	model.SourceURL = url
	for _, mat := range model.Materials() {
		if mat.TextureKey != "" {
			mat.TextureKey = url + "#" + mat.TextureKey
		}
	}
	l.log.Info("Model loaded",
		zap.String("url", url),
		zap.Int("vertices", model.VertexCount()),
		zap.Int("triangles", len(model.Faces)/3),
		zap.Duration("elapsed", time.Since(start)))
	return model, nil
}

// detectFormat trusts the extension first and falls back to sniffing the
// leading bytes.
func detectFormat(name string, br *bufio.Reader) format {
	switch extension(name) {
	case ".gltf", ".glb":
		return formatGLTF
	case ".obj":
		return formatOBJ
	}

	head, _ := br.Peek(64)
	if bytes.HasPrefix(head, []byte("glTF")) {
		return formatGLTF
	}
	trimmed := bytes.TrimLeft(head, " \t\r\n\xef\xbb\xbf")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return formatGLTF
	}
	for _, prefix := range []string{"v ", "# ", "o ", "mtllib ", "g "} {
		if bytes.HasPrefix(trimmed, []byte(prefix)) {
			return formatOBJ
		}
	}
	return formatUnknown
}
