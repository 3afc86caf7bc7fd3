// Package blob provides sized, typed binary objects that can be streamed
// any number of times.
package blob

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Handle is the capability set a blob-like object has to expose so that a
// body can be built from it.
type Handle interface {
	Type() string
	Size() int64
	Stream() (io.ReadCloser, error)
}

// Blob is an immutable sequence of bytes with a MIME type. Its content is
// either held in memory as an ordered list of chunks or backed by a file
// region that is opened each time the blob is streamed.
type Blob struct {
	parts [][]byte
	typ   string
	size  int64

	// file-backed blobs only
	path   string
	offset int64
}

var _ Handle = (*Blob)(nil)

// New returns a blob made of parts in order. The parts are not copied.
func New(parts [][]byte, contentType string) *Blob {
	var size int64
	for _, p := range parts {
		size += int64(len(p))
	}
	return &Blob{parts: parts, typ: contentType, size: size}
}

// FromBytes returns a blob holding b.
func FromBytes(b []byte, contentType string) *Blob {
	if len(b) == 0 {
		return New(nil, contentType)
	}
	return New([][]byte{b}, contentType)
}

// Open returns a blob backed by the file at path. The file is stat-ed now
// and opened lazily by Stream.
func Open(path, contentType string) (*Blob, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening blob file '%s'", path)
	}
	if info.IsDir() {
		return nil, errors.Errorf("blob file '%s' is a directory", path)
	}
	return &Blob{path: path, typ: contentType, size: info.Size()}, nil
}

func (b *Blob) Type() string {
	return b.typ
}

func (b *Blob) Size() int64 {
	return b.size
}

// Stream returns a fresh reader over the blob content.
func (b *Blob) Stream() (io.ReadCloser, error) {
	if b.path != "" {
		f, err := os.Open(b.path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening blob file '%s'", b.path)
		}
		return &fileSection{
			SectionReader: io.NewSectionReader(f, b.offset, b.size),
			file:          f,
		}, nil
	}
	readers := make([]io.Reader, 0, len(b.parts))
	for _, p := range b.parts {
		readers = append(readers, bytes.NewReader(p))
	}
	return io.NopCloser(io.MultiReader(readers...)), nil
}

// Bytes returns the blob content. A blob made of a single in-memory chunk is
// returned without copying, so the result must not be modified; use
// ArrayBuffer for a private copy.
func (b *Blob) Bytes() ([]byte, error) {
	if b.path == "" && len(b.parts) == 1 {
		return b.parts[0], nil
	}
	return b.ArrayBuffer()
}

// ArrayBuffer returns a newly allocated copy of the blob content.
func (b *Blob) ArrayBuffer() ([]byte, error) {
	out := make([]byte, 0, b.size)
	if b.path == "" {
		for _, p := range b.parts {
			out = append(out, p...)
		}
		return out, nil
	}
	r, err := b.Stream()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	buf := bytes.NewBuffer(out)
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, errors.Wrapf(err, "reading blob file '%s'", b.path)
	}
	return buf.Bytes(), nil
}

func (b *Blob) Text() (string, error) {
	data, err := b.Bytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Slice returns the blob covering [start, end) of b. Out of range bounds are
// clamped and negative bounds count from the end, as in the web platform.
func (b *Blob) Slice(start, end int64, contentType string) *Blob {
	start = clamp(start, b.size)
	end = clamp(end, b.size)
	if end < start {
		end = start
	}
	if b.path != "" {
		return &Blob{path: b.path, offset: b.offset + start, size: end - start, typ: contentType}
	}

	var parts [][]byte
	var pos int64
	for _, p := range b.parts {
		pStart, pEnd := pos, pos+int64(len(p))
		pos = pEnd
		if pEnd <= start || pStart >= end {
			continue
		}
		lo := max(start, pStart) - pStart
		hi := min(end, pEnd) - pStart
		parts = append(parts, p[lo:hi])
	}
	return New(parts, contentType)
}

func clamp(i, size int64) int64 {
	if i < 0 {
		i += size
		if i < 0 {
			return 0
		}
	}
	if i > size {
		return size
	}
	return i
}

type fileSection struct {
	*io.SectionReader
	file *os.File
}

func (f *fileSection) Close() error {
	return f.file.Close()
}
