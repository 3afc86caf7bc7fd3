package exchange

import (
	"context"
	"io"
	"net/http"

	"github.com/nojima/httpbody/blob"
	"github.com/nojima/httpbody/body"
	"github.com/nojima/httpbody/formdata"
)

// Response is a received HTTP response whose payload is a single-use
// body.Body read from the connection.
type Response struct {
	Proto         string
	Status        string
	StatusCode    int
	Header        http.Header
	ContentLength int64
	Body          *body.Body

	conn io.Closer
}

// NewResponse wraps resp. The body is tagged with the response
// Content-Type and decodes forms within options.FormLimits.
func NewResponse(resp *http.Response, options *Options) (*Response, error) {
	var init any
	if resp.Body != nil && resp.Body != http.NoBody {
		init = resp.Body
	}
	b, err := body.New(init,
		body.WithContentType(resp.Header.Get("Content-Type")),
		body.WithLimits(options.FormLimits),
		body.WithLogger(options.logger()))
	if err != nil {
		return nil, err
	}
	return &Response{
		Proto:         resp.Proto,
		Status:        resp.Status,
		StatusCode:    resp.StatusCode,
		Header:        resp.Header,
		ContentLength: resp.ContentLength,
		Body:          b,
		conn:          resp.Body,
	}, nil
}

// BodyUsed reports whether the body has been read.
func (r *Response) BodyUsed() bool {
	return r.Body.Used()
}

func (r *Response) Text(ctx context.Context) (string, error) {
	return r.Body.Text(ctx)
}

func (r *Response) JSON(ctx context.Context, v any) error {
	return r.Body.JSON(ctx, v)
}

func (r *Response) Bytes(ctx context.Context) ([]byte, error) {
	return r.Body.Bytes(ctx)
}

func (r *Response) Blob(ctx context.Context) (*blob.Blob, error) {
	return r.Body.Blob(ctx)
}

func (r *Response) FormData(ctx context.Context, limits ...formdata.Limits) (*formdata.FormData, error) {
	return r.Body.FormData(ctx, limits...)
}

// Close releases the body and the connection behind it.
func (r *Response) Close() error {
	err := r.Body.Close()
	if r.conn != nil {
		if cerr := r.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
