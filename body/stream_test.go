package body

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceChunks struct {
	chunks []string
	closed bool
}

func (s *sliceChunks) Next() ([]byte, error) {
	if len(s.chunks) == 0 {
		return nil, io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return []byte(c), nil
}

func (s *sliceChunks) Close() error {
	s.closed = true
	return nil
}

func TestStreamReadAndNextShareCursor(t *testing.T) {
	s := NewStream(&sliceChunks{chunks: []string{"hello", "world"}})

	p := make([]byte, 2)
	n, err := s.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "he", string(p[:n]))

	// the rest of the partially read chunk comes first
	chunk, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "llo", string(chunk))

	rest, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "world", string(rest))

	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
}

func TestStreamEachAndChunks(t *testing.T) {
	var got []string
	s := NewStream(&sliceChunks{chunks: []string{"a", "b", "c"}})
	require.NoError(t, s.Each(func(chunk []byte) error {
		got = append(got, string(chunk))
		return nil
	}))
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got = nil
	s = NewStream(&sliceChunks{chunks: []string{"x", "y"}})
	for chunk, err := range s.Chunks() {
		require.NoError(t, err)
		got = append(got, string(chunk))
	}
	assert.Equal(t, []string{"x", "y"}, got)
}

func TestStreamEachStopsOnCallbackError(t *testing.T) {
	errStop := errors.New("stop")
	calls := 0
	s := NewStream(&sliceChunks{chunks: []string{"a", "b"}})
	err := s.Each(func([]byte) error {
		calls++
		return errStop
	})
	assert.Equal(t, errStop, err)
	assert.Equal(t, 1, calls)
}

func TestStreamChunksYieldsFailureOnce(t *testing.T) {
	errBroken := errors.New("broken")
	s := NewStream(newSeqChunks(func(yield func([]byte, error) bool) {
		if !yield([]byte("ok"), nil) {
			return
		}
		yield(nil, errBroken)
	}))

	var errs []error
	var chunks []string
	for chunk, err := range s.Chunks() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		chunks = append(chunks, string(chunk))
	}
	assert.Equal(t, []string{"ok"}, chunks)
	assert.Equal(t, []error{errBroken}, errs)

	// errors are sticky
	_, err := s.Next()
	assert.Equal(t, errBroken, err)
}

func TestStreamWriteTo(t *testing.T) {
	s := NewReaderStream(strings.NewReader("copy me"))
	var buf bytes.Buffer
	n, err := io.Copy(&buf, s)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "copy me", buf.String())
}

func TestStreamClose(t *testing.T) {
	src := &sliceChunks{chunks: []string{"a"}}
	s := NewStream(src)
	require.NoError(t, s.Close())
	assert.True(t, src.closed)

	_, err := s.Next()
	assert.ErrorIs(t, err, ErrStreamClosed)
	_, err = s.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrStreamClosed)

	// idempotent
	assert.NoError(t, s.Close())
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestReaderStreamClosesReader(t *testing.T) {
	r := &closeRecorder{Reader: strings.NewReader("x")}
	s := NewReaderStream(r)
	require.NoError(t, s.Close())
	assert.True(t, r.closed)
}

func TestReaderChunksKeepsDataReturnedWithError(t *testing.T) {
	c := newReaderChunks(&dataWithEOFReader{data: "tail"})
	chunk, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, "tail", string(chunk))
	_, err = c.Next()
	assert.Equal(t, io.EOF, err)
}

type dataWithEOFReader struct {
	data string
}

func (r *dataWithEOFReader) Read(p []byte) (int, error) {
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, io.EOF
}

func TestChanChunks(t *testing.T) {
	ch := make(chan []byte, 3)
	ch <- []byte("a")
	ch <- nil
	ch <- []byte("b")
	close(ch)

	s := NewStream(&chanChunks{ch: ch})
	data, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(data))
}
