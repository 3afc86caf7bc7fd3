package exchange

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/nojima/httpbody/blob"
	"github.com/nojima/httpbody/body"
	"github.com/nojima/httpbody/formdata"
	"github.com/nojima/httpbody/input"
	"github.com/nojima/httpbody/version"
	"github.com/pkg/errors"
)

// BuildHTTPRequest builds the request described by in. Its Body streams
// from a body.Body, which also supplies ContentLength and the default
// Content-Type.
func BuildHTTPRequest(in *input.Input, options *Options) (*http.Request, error) {
	b, err := BuildHTTPBody(in, options)
	if err != nil {
		return nil, err
	}
	return BuildHTTPRequestWithBody(in, b, options)
}

// BuildHTTPRequestWithBody is BuildHTTPRequest with a body built beforehand
// by BuildHTTPBody. It takes the stream of b.
func BuildHTTPRequestWithBody(in *input.Input, b *body.Body, options *Options) (*http.Request, error) {
	u, err := buildURL(in)
	if err != nil {
		return nil, err
	}

	header, err := buildHTTPHeader(in)
	if err != nil {
		return nil, err
	}

	if header.Get("Content-Type") == "" && b.ContentType() != "" {
		header.Set("Content-Type", b.ContentType())
	}
	if header.Get("User-Agent") == "" {
		header.Set("User-Agent", fmt.Sprintf("ht/%s", version.Current()))
	}

	r := http.Request{
		Method:        string(in.Method),
		URL:           u,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Host:          header.Get("Host"),
		ContentLength: b.ContentLength(),
	}
	s, err := b.Stream()
	if err != nil {
		return nil, err
	}
	if s != nil {
		r.Body = s
	}
	if options.Auth.Enabled {
		r.SetBasicAuth(options.Auth.UserName, options.Auth.Password)
	}
	return &r, nil
}

func buildURL(in *input.Input) (*url.URL, error) {
	q, err := url.ParseQuery(in.URL.RawQuery)
	if err != nil {
		return nil, errors.Wrap(err, "parsing query string")
	}
	for _, field := range in.Parameters {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		q.Add(field.Name, value)
	}

	u := *in.URL
	u.RawQuery = q.Encode()
	return &u, nil
}

func buildHTTPHeader(in *input.Input) (http.Header, error) {
	header := make(http.Header)
	for _, field := range in.Header.Fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		header.Add(field.Name, value)
	}
	return header, nil
}

// BuildHTTPBody returns the request body of in. Files are not read here:
// form uploads and raw stdin stream while the request is written.
func BuildHTTPBody(in *input.Input, options *Options) (*body.Body, error) {
	logOption := body.WithLogger(options.logger())
	switch in.Body.BodyType {
	case input.EmptyBody:
		return body.New(nil, logOption)
	case input.JSONBody:
		return buildJSONBody(in, logOption)
	case input.FormBody:
		return buildFormBody(in, logOption)
	case input.RawBody:
		return body.New(in.Body.Raw, body.WithContentType("application/json"), logOption)
	default:
		return nil, errors.Errorf("unknown body type: %v", in.Body.BodyType)
	}
}

func buildJSONBody(in *input.Input, logOption body.Option) (*body.Body, error) {
	obj := map[string]interface{}{}
	for _, field := range in.Body.Fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		obj[field.Name] = value
	}
	for _, field := range in.Body.RawJSONFields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		var v interface{}
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			return nil, errors.Wrapf(err, "parsing JSON value of '%s'", field.Name)
		}
		obj[field.Name] = v
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling JSON of HTTP body")
	}
	return body.New(data, body.WithContentType("application/json"), logOption)
}

func buildFormBody(in *input.Input, logOption body.Option) (*body.Body, error) {
	if len(in.Body.Files) == 0 {
		values := formdata.NewValues()
		for _, field := range in.Body.Fields {
			value, err := resolveFieldValue(field)
			if err != nil {
				return nil, err
			}
			values.Add(field.Name, value)
		}
		return body.New(values, logOption)
	}

	form := formdata.New()
	for _, field := range in.Body.Fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		form.Append(field.Name, value)
	}
	for _, field := range in.Body.Files {
		if !field.IsFile {
			// read from stdin already
			form.Append(field.Name, field.Value)
			continue
		}
		contentType := field.ContentType
		if contentType == "" {
			contentType = mime.TypeByExtension(filepath.Ext(field.Value))
		}
		b, err := blob.Open(field.Value, contentType)
		if err != nil {
			return nil, errors.Wrapf(err, "opening file of '%s'", field.Name)
		}
		form.AppendFile(field.Name, formdata.NewFile(b, filepath.Base(field.Value)))
	}
	return body.New(form, logOption)
}

func resolveFieldValue(field input.Field) (string, error) {
	if !field.IsFile {
		return field.Value, nil
	}
	if strings.HasPrefix(field.Value, "-") {
		return "", errors.New("reading field value from STDIN is not supported here")
	}
	data, err := os.ReadFile(field.Value)
	if err != nil {
		return "", errors.Wrapf(err, "reading field value of '%s'", field.Name)
	}
	return string(data), nil
}
