package output

import (
	"context"
	"net/http"

	"github.com/nojima/httpbody/body"
)

type Printer interface {
	PrintStatusLine(proto string, status string, statusCode int) error
	PrintRequestLine(req *http.Request) error
	PrintHeader(header http.Header) error
	PrintBody(ctx context.Context, b *body.Body) error
}
