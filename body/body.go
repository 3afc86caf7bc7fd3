// Package body implements the HTTP message body: one value built from any
// supported source that reports its content type and length up front and is
// materialized at most once, lazily, into text, JSON, bytes, a blob or a
// decoded form.
package body

import (
	"sync"

	"github.com/nojima/httpbody/formdata"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedBodyType    = errors.New("unsupported body type")
	ErrBodyUsed               = errors.New("body already used")
	ErrUnsupportedContentType = errors.New("content type cannot be decoded as form data")
	ErrMalformedJSON          = errors.New("malformed JSON")
)

type state int

const (
	unconsumed state = iota
	consumed
)

// Body is an HTTP message body. The zero value is not usable; call New.
//
// Bodies built from in-memory values (text, byte slices, views, array
// buffers, blobs, URL-encoded params) can be materialized any number of
// times. Every other body owns a single-use stream: the first terminal
// operation takes it and later ones fail with ErrBodyUsed.
type Body struct {
	src    source
	limits formdata.Limits
	log    *zap.Logger

	mu        sync.Mutex
	state     state
	used      bool
	stream    *Stream
	streamErr error
	made      bool
}

type Option func(*Body)

// WithContentType overrides the classified content type, as a
// caller-supplied Content-Type header does.
func WithContentType(contentType string) Option {
	return func(b *Body) {
		if contentType != "" {
			b.src.contentType = contentType
		}
	}
}

// WithLimits sets the default limits of FormData.
func WithLimits(limits formdata.Limits) Option {
	return func(b *Body) {
		b.limits = limits
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(b *Body) {
		if log != nil {
			b.log = log
		}
	}
}

// New classifies init and returns a body over it. Nothing is read from
// init. It fails with ErrUnsupportedBodyType when init is of no supported
// type.
func New(init any, options ...Option) (*Body, error) {
	src, err := classify(init)
	if err != nil {
		return nil, err
	}
	b := &Body{
		src: src,
		log: zap.NewNop(),
	}
	for _, option := range options {
		option(b)
	}
	b.log.Debug("classified body", zap.Stringer("source", b.src))
	return b, nil
}

// ContentType returns the content type, or "" when there is none.
func (b *Body) ContentType() string {
	return b.src.contentType
}

// ContentLength returns the length in bytes, or -1 when it cannot be known
// without reading the source.
func (b *Body) ContentLength() int64 {
	return b.src.contentLength
}

// Used reports whether a terminal operation has started.
func (b *Body) Used() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// InMemory reports whether the body holds its whole content, so that
// reading it leaves the stream untouched.
func (b *Body) InMemory() bool {
	return b.src.kind.inMemory()
}

// Form returns the form the body was built from, if any. Its stream is
// left untouched.
func (b *Body) Form() (*formdata.FormData, bool) {
	return b.src.form, b.src.kind == kindFormData
}

// Stream hands the body stream over to the caller. It returns nil for a
// body built from nil. The body counts as consumed afterwards.
func (b *Body) Stream() (*Stream, error) {
	return b.acquire()
}

// Close releases the body stream, whether or not it was materialized. A
// closed stream-backed body cannot be read anymore.
func (b *Body) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = consumed
	if !b.made {
		b.made = true
		if b.src.release != nil {
			return errors.Wrap(b.src.release(), "releasing body source")
		}
		return nil
	}
	if b.stream != nil {
		return b.stream.Close()
	}
	return nil
}

// acquire takes ownership of the stream. It fails when the stream was
// taken before.
func (b *Body) acquire() (*Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == consumed {
		return nil, errors.WithStack(ErrBodyUsed)
	}
	b.state = consumed
	b.used = true
	return b.materialize()
}

// materialize invokes the stream factory on first use and memoizes its
// result, failure included. b.mu must be held.
func (b *Body) materialize() (*Stream, error) {
	if b.made {
		return b.stream, b.streamErr
	}
	b.made = true
	if b.src.factory == nil {
		return nil, nil
	}
	b.stream, b.streamErr = b.src.factory()
	b.log.Debug("materialized body stream",
		zap.Stringer("kind", b.src.kind),
		zap.String("content_type", b.src.contentType),
		zap.Error(b.streamErr))
	return b.stream, b.streamErr
}

func (b *Body) markUsed() {
	b.mu.Lock()
	b.used = true
	b.mu.Unlock()
}
