package body

import (
	"io"
	"iter"

	"github.com/pkg/errors"
)

// ErrStreamClosed is returned by reads on a closed Stream.
var ErrStreamClosed = errors.New("body stream closed")

// Stream is the single-use byte stream of a body. It offers the reader API
// (Read, WriteTo, Close) on top of the chunk API of the ChunkReader it wraps
// (Next, Chunks, Each). Both share one cursor: a chunk partially consumed by
// Read is returned by Next with the consumed prefix removed.
type Stream struct {
	src     ChunkReader
	pending []byte
	err     error
	closed  bool
}

var (
	_ io.ReadCloser = (*Stream)(nil)
	_ io.WriterTo   = (*Stream)(nil)
	_ ChunkReader   = (*Stream)(nil)
)

// NewStream wraps a chunk source.
func NewStream(src ChunkReader) *Stream {
	return &Stream{src: src}
}

// NewReaderStream wraps an io.Reader. The reader is closed with the stream
// when it implements io.Closer.
func NewReaderStream(r io.Reader) *Stream {
	return NewStream(newReaderChunks(r))
}

// Next returns the next chunk. After the source is exhausted it returns
// io.EOF; source errors are sticky.
func (s *Stream) Next() ([]byte, error) {
	if len(s.pending) > 0 {
		chunk := s.pending
		s.pending = nil
		return chunk, nil
	}
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.err != nil {
		return nil, s.err
	}
	chunk, err := s.src.Next()
	if err != nil {
		s.err = err
		return nil, err
	}
	return chunk, nil
}

func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(s.pending) == 0 {
		chunk, err := s.Next()
		if err != nil {
			return 0, err
		}
		s.pending = chunk
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// WriteTo writes the remaining chunks to w.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	var total int64
	err := s.Each(func(chunk []byte) error {
		n, err := w.Write(chunk)
		total += int64(n)
		return err
	})
	return total, err
}

// Each calls fn with every remaining chunk in order and stops at the first
// error fn returns.
func (s *Stream) Each(fn func([]byte) error) error {
	for {
		chunk, err := s.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(chunk); err != nil {
			return err
		}
	}
}

// Chunks iterates over the remaining chunks. A failure is yielded once with
// a nil chunk and ends the iteration.
func (s *Stream) Chunks() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			chunk, err := s.Next()
			if err == io.EOF {
				return
			}
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the underlying source. Further reads fail with
// ErrStreamClosed.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.pending = nil
	if closer, ok := s.src.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
