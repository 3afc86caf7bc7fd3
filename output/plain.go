package output

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/nojima/httpbody/body"
	"github.com/pkg/errors"
)

type PlainPrinter struct {
	writer io.Writer
}

func NewPlainPrinter(writer io.Writer) Printer {
	return &PlainPrinter{
		writer: writer,
	}
}

func (p *PlainPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	fmt.Fprintf(p.writer, "%s %s\n", proto, status)
	return nil
}

func (p *PlainPrinter) PrintRequestLine(req *http.Request) error {
	fmt.Fprintf(p.writer, "%s %s %s\n", req.Method, req.URL, req.Proto)
	return nil
}

func (p *PlainPrinter) PrintHeader(header http.Header) error {
	for _, name := range sortedNames(header) {
		for _, value := range header[name] {
			fmt.Fprintf(p.writer, "%s: %s\n", name, value)
		}
	}
	fmt.Fprintln(p.writer)
	return nil
}

// PrintBody copies the body stream as is. Bodies built from a form list its
// entries, and in-memory bodies are printed without taking their stream, so
// a request body can be printed before it is sent.
func (p *PlainPrinter) PrintBody(ctx context.Context, b *body.Body) error {
	if form, ok := b.Form(); ok {
		for e := range form.Entries() {
			value := e.Value
			if e.IsFile() {
				value = fileSummary(e.File)
			}
			fmt.Fprintf(p.writer, "%s: %s\n", e.Name, value)
		}
		return nil
	}
	if b.InMemory() {
		data, err := b.Bytes(ctx)
		if err != nil {
			return err
		}
		_, err = p.writer.Write(data)
		return errors.Wrap(err, "printing body")
	}

	s, err := b.Stream()
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	defer s.Close()
	err = s.Each(func(chunk []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := p.writer.Write(chunk)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "printing body")
	}
	return nil
}
