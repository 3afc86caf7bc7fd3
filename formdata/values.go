package formdata

import (
	"iter"
	"net/url"
	"sort"
	"strings"
)

type pair struct {
	name  string
	value string
}

// Values is an ordered list of URL-encoded name/value pairs. Unlike
// url.Values it keeps insertion order when encoded.
type Values struct {
	pairs []pair
}

func NewValues() *Values {
	return &Values{}
}

// ValuesOf converts url.Values. Keys are sorted, as url.Values.Encode does.
func ValuesOf(uv url.Values) *Values {
	keys := make([]string, 0, len(uv))
	for k := range uv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	v := NewValues()
	for _, k := range keys {
		for _, value := range uv[k] {
			v.Add(k, value)
		}
	}
	return v
}

// ParseValues parses an application/x-www-form-urlencoded string. It never
// fails: malformed percent escapes are kept verbatim.
func ParseValues(s string) *Values {
	v := NewValues()
	for _, segment := range strings.Split(s, "&") {
		if segment == "" {
			continue
		}
		name, value, _ := strings.Cut(segment, "=")
		v.Add(unescape(name), unescape(value))
	}
	return v
}

func unescape(s string) string {
	u, err := url.QueryUnescape(s)
	if err != nil {
		return strings.ReplaceAll(s, "+", " ")
	}
	return u
}

func (v *Values) Add(name, value string) {
	v.pairs = append(v.pairs, pair{name: name, value: value})
}

func (v *Values) Set(name, value string) {
	replaced := false
	out := v.pairs[:0]
	for _, p := range v.pairs {
		if p.name != name {
			out = append(out, p)
			continue
		}
		if !replaced {
			out = append(out, pair{name: name, value: value})
			replaced = true
		}
	}
	if !replaced {
		out = append(out, pair{name: name, value: value})
	}
	v.pairs = out
}

func (v *Values) Get(name string) string {
	for _, p := range v.pairs {
		if p.name == name {
			return p.value
		}
	}
	return ""
}

func (v *Values) Len() int {
	return len(v.pairs)
}

// All iterates over the pairs in insertion order.
func (v *Values) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, p := range v.pairs {
			if !yield(p.name, p.value) {
				return
			}
		}
	}
}

// Encode serializes the pairs in insertion order.
func (v *Values) Encode() string {
	var sb strings.Builder
	for i, p := range v.pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.value))
	}
	return sb.String()
}

func (v *Values) String() string {
	return v.Encode()
}
