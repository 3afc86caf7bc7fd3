package body

import (
	"bytes"
	"io"
	"iter"
)

const readChunkSize = 32 * 1024

// ChunkReader is a sequential source of byte chunks. Next returns io.EOF
// once the source is exhausted. A ChunkReader that also implements
// io.Closer is closed when the stream wrapping it is closed.
type ChunkReader interface {
	Next() ([]byte, error)
}

// readerChunks cuts an io.Reader into chunks.
type readerChunks struct {
	r   io.Reader
	buf []byte
	err error
}

func newReaderChunks(r io.Reader) *readerChunks {
	return &readerChunks{r: r, buf: make([]byte, readChunkSize)}
}

func (c *readerChunks) Next() ([]byte, error) {
	for c.err == nil {
		n, err := c.r.Read(c.buf)
		c.err = err
		if n > 0 {
			return bytes.Clone(c.buf[:n]), nil
		}
	}
	return nil, c.err
}

func (c *readerChunks) Close() error {
	if closer, ok := c.r.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// seqChunks pulls chunks from a range-over-func sequence.
type seqChunks struct {
	next func() ([]byte, error, bool)
	stop func()
}

func newSeqChunks(seq iter.Seq2[[]byte, error]) *seqChunks {
	next, stop := iter.Pull2(seq)
	return &seqChunks{next: next, stop: stop}
}

func (c *seqChunks) Next() ([]byte, error) {
	for {
		chunk, err, ok := c.next()
		if !ok {
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		if len(chunk) > 0 {
			return chunk, nil
		}
	}
}

func (c *seqChunks) Close() error {
	c.stop()
	return nil
}

func withNilErrors(seq iter.Seq[[]byte]) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for chunk := range seq {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// chanChunks receives chunks until the channel is closed.
type chanChunks struct {
	ch     <-chan []byte
	closed bool
}

func (c *chanChunks) Next() ([]byte, error) {
	for !c.closed {
		chunk, ok := <-c.ch
		if !ok {
			c.closed = true
			break
		}
		if len(chunk) > 0 {
			return chunk, nil
		}
	}
	return nil, io.EOF
}

func (c *chanChunks) Close() error {
	c.closed = true
	return nil
}
