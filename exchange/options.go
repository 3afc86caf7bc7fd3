package exchange

import (
	"net/http"
	"time"

	"github.com/nojima/httpbody/formdata"
	"go.uber.org/zap"
)

type Options struct {
	Timeout         time.Duration
	FollowRedirects bool
	Auth            AuthOptions
	SkipVerify      bool
	ForceHTTP1      bool
	Transport       http.RoundTripper

	// FormLimits bounds the decoding of multipart response bodies.
	FormLimits formdata.Limits
	Logger     *zap.Logger
}

type AuthOptions struct {
	Enabled  bool
	UserName string
	Password string
}

func (o *Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
