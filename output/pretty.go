package output

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	json "github.com/goccy/go-json"
	"github.com/logrusorgru/aurora"
	"github.com/nojima/httpbody/body"
	"github.com/nojima/httpbody/formdata"
	"github.com/pkg/errors"
)

type PrettyPrinter struct {
	writer        io.Writer
	plain         Printer
	aurora        aurora.Aurora
	headerPalette *HeaderPalette
	jsonPalette   *JSONPalette
	formPalette   *FormPalette
}

type PrettyPrinterConfig struct {
	Writer      io.Writer
	EnableColor bool
}

type HeaderPalette struct {
	Method         aurora.Color
	URL            aurora.Color
	Proto          aurora.Color
	SuccessStatus  aurora.Color
	NonStatus      aurora.Color
	ErrorStatus    aurora.Color
	FieldName      aurora.Color
	FieldValue     aurora.Color
	FieldSeparator aurora.Color
}

var defaultHeaderPalette = HeaderPalette{
	Method:         aurora.WhiteFg | aurora.BoldFm,
	URL:            aurora.GreenFg | aurora.BoldFm,
	Proto:          aurora.BlueFg,
	SuccessStatus:  aurora.GreenFg | aurora.BoldFm,
	NonStatus:      aurora.BrownFg | aurora.BoldFm,
	ErrorStatus:    aurora.RedFg | aurora.BoldFm,
	FieldName:      aurora.WhiteFg,
	FieldValue:     aurora.CyanFg,
	FieldSeparator: aurora.WhiteFg,
}

type JSONPalette struct {
	Name    aurora.Color
	String  aurora.Color
	Number  aurora.Color
	Boolean aurora.Color
	Null    aurora.Color
	Symbol  aurora.Color
}

var defaultJSONPalette = JSONPalette{
	Name:    aurora.BlueFg,
	String:  aurora.BrownFg,
	Number:  aurora.CyanFg,
	Boolean: aurora.MagentaFg,
	Null:    aurora.MagentaFg,
	Symbol:  aurora.WhiteFg,
}

type FormPalette struct {
	Name  aurora.Color
	Value aurora.Color
	File  aurora.Color
}

var defaultFormPalette = FormPalette{
	Name:  aurora.BlueFg,
	Value: aurora.BrownFg,
	File:  aurora.WhiteFg,
}

func NewPrettyPrinter(config PrettyPrinterConfig) Printer {
	return &PrettyPrinter{
		writer:        config.Writer,
		plain:         NewPlainPrinter(config.Writer),
		aurora:        aurora.NewAurora(config.EnableColor),
		headerPalette: &defaultHeaderPalette,
		jsonPalette:   &defaultJSONPalette,
		formPalette:   &defaultFormPalette,
	}
}

func (p *PrettyPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.aurora.Colorize(proto, p.headerPalette.Proto),
		p.aurora.Colorize(status, p.statusColor(statusCode)))
	return nil
}

func (p *PrettyPrinter) statusColor(statusCode int) aurora.Color {
	switch {
	case statusCode < 300:
		return p.headerPalette.SuccessStatus
	case statusCode < 400:
		return p.headerPalette.NonStatus
	default:
		return p.headerPalette.ErrorStatus
	}
}

func (p *PrettyPrinter) PrintRequestLine(req *http.Request) error {
	fmt.Fprintf(p.writer, "%s %s %s\n",
		p.aurora.Colorize(req.Method, p.headerPalette.Method),
		p.aurora.Colorize(req.URL, p.headerPalette.URL),
		p.aurora.Colorize(req.Proto, p.headerPalette.Proto))
	return nil
}

func (p *PrettyPrinter) PrintHeader(header http.Header) error {
	for _, name := range sortedNames(header) {
		for _, value := range header[name] {
			fmt.Fprintf(p.writer, "%s%s %s\n",
				p.aurora.Colorize(name, p.headerPalette.FieldName),
				p.aurora.Colorize(":", p.headerPalette.FieldSeparator),
				p.aurora.Colorize(value, p.headerPalette.FieldValue))
		}
	}
	fmt.Fprintln(p.writer)
	return nil
}

func sortedNames(header http.Header) []string {
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		// fall back to the part before the first parameter
		mt, _, _ = strings.Cut(contentType, ";")
		mt = strings.ToLower(strings.TrimSpace(mt))
	}
	return mt
}

func isJSON(contentType string) bool {
	mt := mediaType(contentType)
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func isForm(contentType string) bool {
	mt := mediaType(contentType)
	return mt == "multipart/form-data" || mt == "application/x-www-form-urlencoded"
}

// PrintBody indents JSON bodies and lists the entries of form bodies.
// Anything else, including invalid JSON, is printed as is.
func (p *PrettyPrinter) PrintBody(ctx context.Context, b *body.Body) error {
	switch contentType := b.ContentType(); {
	case isJSON(contentType):
		data, err := b.Bytes(ctx)
		if err != nil {
			return err
		}
		if !json.Valid(data) {
			_, err := p.writer.Write(data)
			return errors.Wrap(err, "printing body")
		}
		return p.printJSON(data)
	case isForm(contentType):
		form, err := b.FormData(ctx)
		if err != nil {
			return err
		}
		return p.printForm(form)
	default:
		return p.plain.PrintBody(ctx, b)
	}
}

func (p *PrettyPrinter) printForm(form *formdata.FormData) error {
	for e := range form.Entries() {
		name := p.aurora.Colorize(e.Name, p.formPalette.Name)
		if !e.IsFile() {
			fmt.Fprintf(p.writer, "%s: %s\n", name, p.aurora.Colorize(e.Value, p.formPalette.Value))
			continue
		}
		fmt.Fprintf(p.writer, "%s: %s\n", name, p.aurora.Colorize(fileSummary(e.File), p.formPalette.File))
	}
	return nil
}

func fileSummary(f *formdata.File) string {
	contentType := f.Type()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return fmt.Sprintf("[file %q, %s, %s]", f.Name, contentType, bytefmt.ByteSize(uint64(f.Size())))
}

func (p *PrettyPrinter) printJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	f := &jsonFormatter{
		writer:  p.writer,
		aurora:  p.aurora,
		palette: p.jsonPalette,
		decoder: decoder,
	}
	if err := f.value(0); err != nil {
		return err
	}
	fmt.Fprintln(p.writer)
	return nil
}

// jsonFormatter rewrites a valid JSON document token by token with a
// 4-space indent, keeping the key order of the source.
type jsonFormatter struct {
	writer  io.Writer
	aurora  aurora.Aurora
	palette *JSONPalette
	decoder *json.Decoder
}

func (f *jsonFormatter) value(depth int) error {
	token, err := f.decoder.Token()
	if err != nil {
		return errors.Wrap(err, "parsing JSON")
	}
	switch v := token.(type) {
	case json.Delim:
		switch v {
		case '{':
			return f.object(depth)
		case '[':
			return f.array(depth)
		}
		return errors.Errorf("unexpected delimiter in JSON: %v", v)
	case string:
		return f.str(v, f.palette.String)
	case json.Number:
		f.print(v.String(), f.palette.Number)
	case bool:
		if v {
			f.print("true", f.palette.Boolean)
		} else {
			f.print("false", f.palette.Boolean)
		}
	case nil:
		f.print("null", f.palette.Null)
	default:
		return errors.Errorf("unexpected JSON token: %v", token)
	}
	return nil
}

func (f *jsonFormatter) object(depth int) error {
	if !f.decoder.More() {
		f.print("{}", f.palette.Symbol)
		return f.closing()
	}
	f.print("{", f.palette.Symbol)
	for first := true; f.decoder.More(); first = false {
		if !first {
			f.print(",", f.palette.Symbol)
		}
		f.newline(depth + 1)
		token, err := f.decoder.Token()
		if err != nil {
			return errors.Wrap(err, "parsing JSON")
		}
		name, ok := token.(string)
		if !ok {
			return errors.Errorf("unexpected object key in JSON: %v", token)
		}
		if err := f.str(name, f.palette.Name); err != nil {
			return err
		}
		f.print(":", f.palette.Symbol)
		fmt.Fprint(f.writer, " ")
		if err := f.value(depth + 1); err != nil {
			return err
		}
	}
	f.newline(depth)
	f.print("}", f.palette.Symbol)
	return f.closing()
}

func (f *jsonFormatter) array(depth int) error {
	if !f.decoder.More() {
		f.print("[]", f.palette.Symbol)
		return f.closing()
	}
	f.print("[", f.palette.Symbol)
	for first := true; f.decoder.More(); first = false {
		if !first {
			f.print(",", f.palette.Symbol)
		}
		f.newline(depth + 1)
		if err := f.value(depth + 1); err != nil {
			return err
		}
	}
	f.newline(depth)
	f.print("]", f.palette.Symbol)
	return f.closing()
}

// closing consumes the delimiter that ends the current container.
func (f *jsonFormatter) closing() error {
	if _, err := f.decoder.Token(); err != nil {
		return errors.Wrap(err, "parsing JSON")
	}
	return nil
}

func (f *jsonFormatter) str(s string, color aurora.Color) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(s); err != nil {
		return errors.Wrap(err, "encoding JSON string")
	}
	f.print(strings.TrimSuffix(buf.String(), "\n"), color)
	return nil
}

func (f *jsonFormatter) print(s string, color aurora.Color) {
	fmt.Fprintf(f.writer, "%s", f.aurora.Colorize(s, color))
}

func (f *jsonFormatter) newline(depth int) {
	fmt.Fprint(f.writer, "\n", strings.Repeat("    ", depth))
}
