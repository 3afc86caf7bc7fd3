package body

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"net/url"
	"strings"

	"github.com/nojima/httpbody/blob"
	"github.com/nojima/httpbody/formdata"
	"github.com/pkg/errors"
)

const (
	textContentType      = "text/plain;charset=UTF-8"
	urlEncodedFormType   = "application/x-www-form-urlencoded;charset=UTF-8"
	unknownContentLength = -1
)

// ArrayBuffer is a raw byte buffer with no view on top of it.
type ArrayBuffer []byte

// View is a typed byte view: a window of Length bytes at Offset into a
// backing buffer that may be shared with other views.
type View struct {
	Buffer []byte
	Offset int
	Length int
}

// Bytes returns the window without copying.
func (v View) Bytes() []byte {
	return v.Buffer[v.Offset : v.Offset+v.Length]
}

func (v View) valid() bool {
	return v.Offset >= 0 && v.Length >= 0 && v.Offset+v.Length <= len(v.Buffer)
}

type kind int

const (
	kindNull kind = iota
	kindText
	kindBuffer
	kindView
	kindArrayBuffer
	kindWrapper
	kindBlob
	kindBlobHandle
	kindStream
	kindChunkReader
	kindReader
	kindValues
	kindFormData
	kindSequence
)

var kindNames = [...]string{
	kindNull:        "null",
	kindText:        "text",
	kindBuffer:      "buffer",
	kindView:        "view",
	kindArrayBuffer: "array-buffer",
	kindWrapper:     "wrapper",
	kindBlob:        "blob",
	kindBlobHandle:  "blob-handle",
	kindStream:      "stream",
	kindChunkReader: "chunk-reader",
	kindReader:      "reader",
	kindValues:      "url-search-params",
	kindFormData:    "form-data",
	kindSequence:    "sequence",
}

func (k kind) String() string {
	return kindNames[k]
}

// inMemory reports whether the initializer already holds the whole content
// and can be read again without touching the stream.
func (k kind) inMemory() bool {
	switch k {
	case kindNull, kindText, kindBuffer, kindView, kindArrayBuffer, kindWrapper,
		kindBlob, kindBlobHandle, kindValues:
		return true
	}
	return false
}

// source is the classified initializer.
type source struct {
	kind          kind
	contentType   string
	contentLength int64
	factory       func() (*Stream, error)
	// release frees an initializer that owns a resource when the body is
	// closed before its stream was made.
	release func() error

	text   string
	data   []byte
	blob   *blob.Blob
	handle blob.Handle
	form   *formdata.FormData
}

// classify inspects the initializer once. It never reads from stream-like
// initializers.
func classify(init any) (source, error) {
	switch v := init.(type) {
	case nil:
		return source{kind: kindNull}, nil

	case string:
		return source{
			kind:          kindText,
			contentType:   textContentType,
			contentLength: int64(len(v)),
			text:          v,
			factory:       readerFactory(func() io.Reader { return strings.NewReader(v) }),
		}, nil

	case ArrayBuffer:
		return bytesSource(kindArrayBuffer, v), nil

	case []byte:
		return bytesSource(kindBuffer, v), nil

	case View:
		if !v.valid() {
			return source{}, errors.Errorf("byte view out of range: offset=%d length=%d buffer=%d",
				v.Offset, v.Length, len(v.Buffer))
		}
		return bytesSource(kindView, v.Bytes()), nil

	case *bytes.Buffer:
		// read through Bytes so the buffer itself is left untouched
		return bytesSource(kindWrapper, v.Bytes()), nil

	case *blob.Blob:
		src := blobSource(kindBlob, v)
		src.blob = v
		return src, nil

	case blob.Handle:
		return blobSource(kindBlobHandle, v), nil

	case *Stream:
		return source{
			kind:          kindStream,
			contentLength: unknownContentLength,
			factory:       func() (*Stream, error) { return v, nil },
			release:       v.Close,
		}, nil

	case ChunkReader:
		src := streamSource(kindChunkReader, func() *Stream { return NewStream(v) })
		src.release = closerOf(v)
		return src, nil

	case io.Reader:
		src := streamSource(kindReader, func() *Stream { return NewReaderStream(v) })
		src.release = closerOf(v)
		return src, nil

	case *formdata.Values:
		return valuesSource(v), nil

	case url.Values:
		return valuesSource(formdata.ValuesOf(v)), nil

	case *formdata.FormData:
		boundary := formdata.NewBoundary()
		return source{
			kind:          kindFormData,
			contentType:   formdata.ContentType(boundary),
			contentLength: unknownContentLength,
			form:          v,
			factory:       formDataFactory(v, boundary),
		}, nil

	case iter.Seq2[[]byte, error]:
		return streamSource(kindSequence, func() *Stream { return NewStream(newSeqChunks(v)) }), nil

	case func(func([]byte, error) bool):
		return streamSource(kindSequence, func() *Stream { return NewStream(newSeqChunks(v)) }), nil

	case iter.Seq[[]byte]:
		return streamSource(kindSequence, func() *Stream { return NewStream(newSeqChunks(withNilErrors(v))) }), nil

	case func(func([]byte) bool):
		return streamSource(kindSequence, func() *Stream { return NewStream(newSeqChunks(withNilErrors(v))) }), nil

	case <-chan []byte:
		return streamSource(kindSequence, func() *Stream { return NewStream(&chanChunks{ch: v}) }), nil

	case chan []byte:
		return streamSource(kindSequence, func() *Stream { return NewStream(&chanChunks{ch: v}) }), nil

	default:
		return source{}, errors.Wrapf(ErrUnsupportedBodyType, "%T", init)
	}
}

func bytesSource(k kind, data []byte) source {
	return source{
		kind:          k,
		contentLength: int64(len(data)),
		data:          data,
		factory:       readerFactory(func() io.Reader { return bytes.NewReader(data) }),
	}
}

func blobSource(k kind, h blob.Handle) source {
	return source{
		kind:          k,
		contentType:   h.Type(),
		contentLength: h.Size(),
		handle:        h,
		factory: func() (*Stream, error) {
			r, err := h.Stream()
			if err != nil {
				return nil, errors.Wrap(err, "opening blob stream")
			}
			return NewReaderStream(r), nil
		},
	}
}

func valuesSource(v *formdata.Values) source {
	encoded := v.Encode()
	return source{
		kind:          kindValues,
		contentType:   urlEncodedFormType,
		contentLength: unknownContentLength,
		text:          encoded,
		factory:       readerFactory(func() io.Reader { return strings.NewReader(encoded) }),
	}
}

func streamSource(k kind, open func() *Stream) source {
	return source{
		kind:          k,
		contentLength: unknownContentLength,
		factory:       func() (*Stream, error) { return open(), nil },
	}
}

func closerOf(v any) func() error {
	if closer, ok := v.(io.Closer); ok {
		return closer.Close
	}
	return nil
}

func readerFactory(open func() io.Reader) func() (*Stream, error) {
	return func() (*Stream, error) {
		return NewReaderStream(open()), nil
	}
}

// formDataFactory serializes the form into a pipe from its own goroutine.
// Closing the stream closes the read side, which stops the writer.
func formDataFactory(form *formdata.FormData, boundary string) func() (*Stream, error) {
	return func() (*Stream, error) {
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(form.Encode(pw, boundary))
		}()
		return NewReaderStream(pr), nil
	}
}

func (s source) String() string {
	return fmt.Sprintf("%s(type=%q, length=%d)", s.kind, s.contentType, s.contentLength)
}
