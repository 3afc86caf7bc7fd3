package input

import (
	"io"
	"net/url"
)

type Input struct {
	Method     Method
	URL        *url.URL
	Parameters []Field
	Header     Header
	Body       Body
}

type Method string

type Header struct {
	Fields []Field
}

type BodyType int

const (
	EmptyBody BodyType = iota
	JSONBody
	FormBody
	RawBody
)

type Body struct {
	BodyType      BodyType
	Fields        []Field
	RawJSONFields []Field   // used only when BodyType == JSONBody
	Files         []Field   // used only when BodyType == FormBody
	Raw           io.Reader // used only when BodyType == RawBody; read lazily
}

type Field struct {
	Name   string
	Value  string
	IsFile bool

	// ContentType is the explicit type of a form file ("f@a.bin;type=...").
	ContentType string
}
