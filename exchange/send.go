package exchange

import (
	"context"
	"net/http"

	"github.com/nojima/httpbody/body"
	"github.com/nojima/httpbody/input"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Send builds the request described by in, sends it, and returns the
// response. The caller must close the response.
func Send(ctx context.Context, in *input.Input, options *Options) (*http.Request, *Response, error) {
	b, err := BuildHTTPBody(in, options)
	if err != nil {
		return nil, nil, err
	}
	return SendWithBody(ctx, in, b, options)
}

// SendWithBody is Send with a request body built beforehand by
// BuildHTTPBody.
func SendWithBody(ctx context.Context, in *input.Input, b *body.Body, options *Options) (*http.Request, *Response, error) {
	client, err := BuildHTTPClient(options)
	if err != nil {
		return nil, nil, err
	}
	r, err := BuildHTTPRequestWithBody(in, b, options)
	if err != nil {
		return nil, nil, err
	}
	r = r.WithContext(ctx)

	options.logger().Debug("sending request",
		zap.String("method", r.Method),
		zap.Stringer("url", r.URL),
		zap.Int64("content_length", r.ContentLength))
	resp, err := client.Do(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, "sending HTTP request")
	}

	response, err := NewResponse(resp, options)
	if err != nil {
		resp.Body.Close()
		return nil, nil, err
	}
	return r, response, nil
}
