// Package formdata implements the form-data collection used both as a body
// source and as the result of decoding multipart/form-data and
// application/x-www-form-urlencoded bodies.
package formdata

import (
	"iter"

	"github.com/nojima/httpbody/blob"
)

// File is an uploaded file: a blob with a file name.
type File struct {
	*blob.Blob
	Name string
}

func NewFile(b *blob.Blob, filename string) *File {
	return &File{Blob: b, Name: filename}
}

// Entry is a single name/value pair. File is non-nil for file entries, in
// which case Value is empty.
type Entry struct {
	Name  string
	Value string
	File  *File
}

func (e Entry) IsFile() bool {
	return e.File != nil
}

// FormData is an ordered multi-map of entries. Names may repeat.
type FormData struct {
	entries []Entry
}

func New() *FormData {
	return &FormData{}
}

func (f *FormData) Append(name, value string) {
	f.entries = append(f.entries, Entry{Name: name, Value: value})
}

func (f *FormData) AppendFile(name string, file *File) {
	f.entries = append(f.entries, Entry{Name: name, File: file})
}

// Set replaces the first entry named name and removes the others. The entry
// is appended when there is none.
func (f *FormData) Set(name, value string) {
	f.set(Entry{Name: name, Value: value})
}

func (f *FormData) SetFile(name string, file *File) {
	f.set(Entry{Name: name, File: file})
}

func (f *FormData) set(e Entry) {
	replaced := false
	out := f.entries[:0]
	for _, old := range f.entries {
		if old.Name != e.Name {
			out = append(out, old)
			continue
		}
		if !replaced {
			out = append(out, e)
			replaced = true
		}
	}
	if !replaced {
		out = append(out, e)
	}
	f.entries = out
}

// Get returns the first entry named name.
func (f *FormData) Get(name string) (Entry, bool) {
	for _, e := range f.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Value returns the value of the first entry named name, or "" if there is
// none or it is a file.
func (f *FormData) Value(name string) string {
	e, _ := f.Get(name)
	return e.Value
}

func (f *FormData) GetAll(name string) []Entry {
	var out []Entry
	for _, e := range f.entries {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (f *FormData) Has(name string) bool {
	_, ok := f.Get(name)
	return ok
}

func (f *FormData) Delete(name string) {
	out := f.entries[:0]
	for _, e := range f.entries {
		if e.Name != name {
			out = append(out, e)
		}
	}
	f.entries = out
}

func (f *FormData) Len() int {
	return len(f.entries)
}

func (f *FormData) ForEach(fn func(Entry)) {
	for _, e := range f.entries {
		fn(e)
	}
}

// Entries iterates over the entries in insertion order.
func (f *FormData) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range f.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// HasFiles reports whether any entry is a file. The size of a form with
// files cannot be known before it is serialized.
func (f *FormData) HasFiles() bool {
	for _, e := range f.entries {
		if e.IsFile() {
			return true
		}
	}
	return false
}

// FromValues converts URL-encoded pairs into a form of plain fields.
func FromValues(v *Values) *FormData {
	f := New()
	for name, value := range v.All() {
		f.Append(name, value)
	}
	return f
}
