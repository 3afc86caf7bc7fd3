package formdata

import "math"

const (
	DefaultFieldNameSize = 100
	DefaultFieldSize     = 1 << 20
	DefaultHeaderPairs   = 2000

	// Unlimited is the resolved value of a count or size without a bound.
	Unlimited = math.MaxInt64
)

// Limits bounds the structure of a decoded multipart body. A zero (or
// negative) field is unset and falls back to its default.
type Limits struct {
	FieldNameSize int64 // bytes of a field name
	FieldSize     int64 // bytes of a field value
	Fields        int64 // number of non-file fields
	FileSize      int64 // bytes of a single file
	Files         int64 // number of files
	Parts         int64 // number of parts
	HeaderPairs   int64 // number of header pairs of a single part
}

// DefaultLimits returns the limits applied when nothing is configured.
func DefaultLimits() Limits {
	return Limits{}.resolve()
}

// Merge returns l with every set field of override taking precedence.
func (l Limits) Merge(override Limits) Limits {
	pick := func(base, o int64) int64 {
		if o > 0 {
			return o
		}
		return base
	}
	return Limits{
		FieldNameSize: pick(l.FieldNameSize, override.FieldNameSize),
		FieldSize:     pick(l.FieldSize, override.FieldSize),
		Fields:        pick(l.Fields, override.Fields),
		FileSize:      pick(l.FileSize, override.FileSize),
		Files:         pick(l.Files, override.Files),
		Parts:         pick(l.Parts, override.Parts),
		HeaderPairs:   pick(l.HeaderPairs, override.HeaderPairs),
	}
}

func (l Limits) resolve() Limits {
	or := func(v, def int64) int64 {
		if v > 0 {
			return v
		}
		return def
	}
	return Limits{
		FieldNameSize: or(l.FieldNameSize, DefaultFieldNameSize),
		FieldSize:     or(l.FieldSize, DefaultFieldSize),
		Fields:        or(l.Fields, Unlimited),
		FileSize:      or(l.FileSize, Unlimited),
		Files:         or(l.Files, Unlimited),
		Parts:         or(l.Parts, Unlimited),
		HeaderPairs:   or(l.HeaderPairs, DefaultHeaderPairs),
	}
}
