package body

import (
	"bytes"
	"context"
	"io"
	"mime"

	json "github.com/goccy/go-json"
	"github.com/nojima/httpbody/blob"
	"github.com/nojima/httpbody/formdata"
	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"
)

// JSONError is returned by JSON when the body is not valid JSON. It matches
// ErrMalformedJSON with errors.Is.
type JSONError struct {
	Err error
}

func (e *JSONError) Error() string {
	return "malformed JSON: " + e.Err.Error()
}

func (e *JSONError) Unwrap() error {
	return e.Err
}

func (e *JSONError) Is(target error) bool {
	return target == ErrMalformedJSON
}

// Text returns the body decoded as UTF-8.
func (b *Body) Text(ctx context.Context) (string, error) {
	switch b.src.kind {
	case kindText, kindValues:
		b.markUsed()
		return b.src.text, nil
	}
	data, err := b.Bytes(ctx)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// JSON parses the body text into v.
func (b *Body) JSON(ctx context.Context, v any) error {
	text, err := b.Text(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		var typeErr *json.UnmarshalTypeError
		var invalidErr *json.InvalidUnmarshalError
		if errors.As(err, &typeErr) || errors.As(err, &invalidErr) {
			return errors.Wrap(err, "decoding JSON body")
		}
		return errors.WithStack(&JSONError{Err: err})
	}
	return nil
}

// Bytes returns the raw content. In-memory sources and single-chunk blobs
// are returned without copying and must not be modified.
func (b *Body) Bytes(ctx context.Context) ([]byte, error) {
	if data, ok := b.memoryBytes(); ok {
		b.markUsed()
		return data, nil
	}
	if b.src.kind == kindBlob || b.src.kind == kindBlobHandle {
		b.markUsed()
		return b.handleBytes()
	}

	s, err := b.acquire()
	if err != nil {
		return nil, err
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := b.drain(ctx, s, func(chunk []byte) { buf.Write(chunk) }); err != nil {
		return nil, err
	}
	return append([]byte{}, buf.B...), nil
}

// ArrayBuffer returns the content as an array buffer. Buffers, views and
// text are converted without a stream read; views and buffers share memory
// with the source.
func (b *Body) ArrayBuffer(ctx context.Context) (ArrayBuffer, error) {
	switch b.src.kind {
	case kindArrayBuffer, kindBuffer, kindView, kindWrapper:
		b.markUsed()
		return ArrayBuffer(b.src.data), nil
	case kindText:
		b.markUsed()
		return ArrayBuffer(b.src.text), nil
	}
	bl, err := b.Blob(ctx)
	if err != nil {
		return nil, err
	}
	data, err := bl.ArrayBuffer()
	if err != nil {
		return nil, err
	}
	return ArrayBuffer(data), nil
}

// Blob returns the content as a blob tagged with the body content type. A
// body built from a blob returns that blob.
func (b *Body) Blob(ctx context.Context) (*blob.Blob, error) {
	switch b.src.kind {
	case kindBlob:
		b.markUsed()
		return b.src.blob, nil
	case kindBlobHandle:
		b.markUsed()
		data, err := b.handleBytes()
		if err != nil {
			return nil, err
		}
		return blob.FromBytes(data, b.src.contentType), nil
	}
	if data, ok := b.memoryBytes(); ok {
		b.markUsed()
		return blob.FromBytes(data, b.src.contentType), nil
	}

	s, err := b.acquire()
	if err != nil {
		return nil, err
	}
	var chunks [][]byte
	if err := b.drain(ctx, s, func(chunk []byte) { chunks = append(chunks, chunk) }); err != nil {
		return nil, err
	}
	return blob.New(chunks, b.src.contentType), nil
}

// FormData decodes the body as multipart/form-data or
// application/x-www-form-urlencoded according to its content type. limits
// are merged, in order, over the limits given to New. A body built from a
// form returns that form.
func (b *Body) FormData(ctx context.Context, limits ...formdata.Limits) (*formdata.FormData, error) {
	if b.src.kind == kindFormData {
		b.markUsed()
		return b.src.form, nil
	}

	mediaType, _, err := mime.ParseMediaType(b.src.contentType)
	if err != nil {
		return nil, errors.Wrapf(ErrUnsupportedContentType, "'%s'", b.src.contentType)
	}
	switch mediaType {
	case "multipart/form-data":
		merged := b.limits
		for _, l := range limits {
			merged = merged.Merge(l)
		}
		r, err := b.open()
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return formdata.Decode(ctx, r, b.src.contentType, merged, b.log)

	case "application/x-www-form-urlencoded":
		text, err := b.Text(ctx)
		if err != nil {
			return nil, err
		}
		return formdata.FromValues(formdata.ParseValues(text)), nil

	default:
		return nil, errors.Wrapf(ErrUnsupportedContentType, "'%s'", mediaType)
	}
}

// memoryBytes returns the content of sources that hold it in memory as
// bytes or text.
func (b *Body) memoryBytes() ([]byte, bool) {
	switch b.src.kind {
	case kindNull:
		return []byte{}, true
	case kindText, kindValues:
		return []byte(b.src.text), true
	case kindBuffer, kindView, kindArrayBuffer, kindWrapper:
		return b.src.data, true
	}
	return nil, false
}

func (b *Body) handleBytes() ([]byte, error) {
	if b.src.blob != nil {
		return b.src.blob.Bytes()
	}
	r, err := b.src.handle.Stream()
	if err != nil {
		return nil, errors.Wrap(err, "opening blob stream")
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading blob stream")
	}
	return data, nil
}

// open returns a reader over the whole content. In-memory sources get a
// fresh reader; other bodies hand over their stream.
func (b *Body) open() (io.ReadCloser, error) {
	if data, ok := b.memoryBytes(); ok {
		b.markUsed()
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	if b.src.kind.inMemory() {
		b.markUsed()
		r, err := b.src.handle.Stream()
		if err != nil {
			return nil, errors.Wrap(err, "opening blob stream")
		}
		return r, nil
	}
	s, err := b.acquire()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// drain feeds every chunk of s to fn in order and closes s. Cancellation
// is checked between chunks.
func (b *Body) drain(ctx context.Context, s *Stream, fn func([]byte)) error {
	defer s.Close()
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "reading body stream")
		}
		total += int64(len(chunk))
		fn(chunk)
	}
	b.log.Debug("drained body stream", zap.Stringer("kind", b.src.kind), zap.Int64("bytes", total))
	return nil
}
