package input

import (
	"io"
	"net/url"
	"reflect"
	"strings"
	"testing"
)

func mustURL(rawurl string) *url.URL {
	u, err := url.Parse(rawurl)
	if err != nil {
		panic("Failed to parse URL: " + rawurl)
	}
	return u
}

func TestParseArgs(t *testing.T) {
	testCases := []struct {
		title         string
		args          []string
		expectedInput *Input
		shouldBeError bool
	}{
		{
			title: "Happy case",
			args:  []string{"GET", "http://example.com/hello"},
			expectedInput: &Input{
				Method: Method("GET"),
				URL:    mustURL("http://example.com/hello"),
			},
			shouldBeError: false,
		},
		{
			title: "Method is guessed from items",
			args:  []string{"example.com/hello", "foo=bar"},
			expectedInput: &Input{
				Method: Method("POST"),
				URL:    mustURL("http://example.com/hello"),
				Body: Body{
					BodyType: JSONBody,
					Fields:   []Field{{Name: "foo", Value: "bar"}},
				},
			},
		},
		{
			title: "Lowercase method",
			args:  []string{"put", "example.com"},
			expectedInput: &Input{
				Method: Method("PUT"),
				URL:    mustURL("http://example.com/"),
			},
		},
		{
			title:         "Invalid method",
			args:          []string{"GET/POST", "http://example.com/hello"},
			expectedInput: nil,
			shouldBeError: true,
		},
		{
			title:         "Method with digits",
			args:          []string{"G3T", "https://example.com"},
			expectedInput: nil,
			shouldBeError: true,
		},
		{
			title: "Header item after URL",
			args:  []string{"example.com", "X-Foo:bar"},
			expectedInput: &Input{
				Method: Method("GET"),
				URL:    mustURL("http://example.com/"),
				Header: Header{Fields: []Field{{Name: "X-Foo", Value: "bar"}}},
			},
		},
		{
			title:         "URL missing",
			args:          []string{},
			expectedInput: nil,
			shouldBeError: true,
		},
		{
			title:         "Unknown item",
			args:          []string{"example.com", "hello"},
			expectedInput: nil,
			shouldBeError: true,
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			in, err := ParseArgs(tt.args, strings.NewReader(""), &Options{})
			if (err != nil) != tt.shouldBeError {
				t.Errorf("unexpected error: shouldBeError=%v, err=%v", tt.shouldBeError, err)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(in, tt.expectedInput) {
				t.Errorf("unexpected input: expected=%+v, actual=%+v", tt.expectedInput, in)
			}
		})
	}
}

func TestParseArgs_RawBodyFromStdin(t *testing.T) {
	// Setup
	stdin := &countingReader{r: strings.NewReader(`{"from": "stdin"}`)}
	options := &Options{ReadStdin: true}

	// Exercise
	in, err := ParseArgs([]string{"example.com"}, stdin, options)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	if in.Body.BodyType != RawBody {
		t.Errorf("unexpected body type: expected=%v, actual=%v", RawBody, in.Body.BodyType)
	}
	if stdin.reads != 0 {
		t.Errorf("stdin must not be read while parsing: reads=%d", stdin.reads)
	}
	if in.Method != Method("POST") {
		t.Errorf("unexpected method: expected=POST, actual=%v", in.Method)
	}
	b, err := io.ReadAll(in.Body.Raw)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}
	if string(b) != `{"from": "stdin"}` {
		t.Errorf("unexpected raw body: %s", b)
	}
}

func TestParseArgs_StdinAndItemsCannotBeMixed(t *testing.T) {
	_, err := ParseArgs([]string{"example.com", "foo=bar"}, strings.NewReader("x"), &Options{ReadStdin: true})
	if err == nil {
		t.Errorf("error is expected")
	}
}

func TestParseArgs_JSONAndFormAreExclusive(t *testing.T) {
	_, err := ParseArgs([]string{"example.com"}, strings.NewReader(""), &Options{JSON: true, Form: true})
	if err == nil {
		t.Errorf("error is expected")
	}
}

type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

func TestParseItem(t *testing.T) {
	testCases := []struct {
		title                     string
		input                     string
		preferredBodyType         BodyType
		expectedBodyFields        []Field
		expectedBodyRawJSONFields []Field
		expectedBodyFiles         []Field
		expectedHeaderFields      []Field
		expectedParameters        []Field
		shouldBeError             bool
	}{
		{
			title:              "Data field",
			input:              "hello=world",
			expectedBodyFields: []Field{{Name: "hello", Value: "world"}},
		},
		{
			title:              "Data field with empty value",
			input:              "hello=",
			expectedBodyFields: []Field{{Name: "hello", Value: ""}},
		},
		{
			title:              "Data field from file",
			input:              "hello=@world.txt",
			expectedBodyFields: []Field{{Name: "hello", Value: "world.txt", IsFile: true}},
		},
		{
			title:              "Data field from stdin",
			input:              "hello=@-",
			expectedBodyFields: []Field{{Name: "hello", Value: "from stdin"}},
		},
		{
			title:                     "Raw JSON field",
			input:                     `hello:=[1, true, "world"]`,
			expectedBodyRawJSONFields: []Field{{Name: "hello", Value: `[1, true, "world"]`}},
		},
		{
			title:         "Raw JSON field with invalid JSON",
			input:         `hello:={invalid: JSON}`,
			shouldBeError: true,
		},
		{
			title:             "Raw JSON field in form body",
			input:             `hello:=1`,
			preferredBodyType: FormBody,
			shouldBeError:     true,
		},
		{
			title:             "Form file",
			input:             "upload@/tmp/photo.jpg",
			preferredBodyType: FormBody,
			expectedBodyFiles: []Field{{Name: "upload", Value: "/tmp/photo.jpg", IsFile: true}},
		},
		{
			title:             "Form file with explicit type",
			input:             "upload@/tmp/data.bin;type=image/png",
			preferredBodyType: FormBody,
			expectedBodyFiles: []Field{{Name: "upload", Value: "/tmp/data.bin", IsFile: true, ContentType: "image/png"}},
		},
		{
			title:         "Form file in JSON body",
			input:         "upload@/tmp/photo.jpg",
			shouldBeError: true,
		},
		{
			title:                "Header field",
			input:                "X-Example:Sample Value",
			expectedHeaderFields: []Field{{Name: "X-Example", Value: "Sample Value"}},
		},
		{
			title:                "Header field with empty value",
			input:                "X-Example:",
			expectedHeaderFields: []Field{{Name: "X-Example", Value: ""}},
		},
		{
			title:         "Invalid header field name",
			input:         `Bad"header":test`,
			shouldBeError: true,
		},
		{
			title:              "URL parameter",
			input:              "hello==world",
			expectedParameters: []Field{{Name: "hello", Value: "world"}},
		},
		{
			title:              "URL parameter with empty value",
			input:              "hello==",
			expectedParameters: []Field{{Name: "hello", Value: ""}},
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			in := Input{}
			preferred := tt.preferredBodyType
			if preferred == EmptyBody {
				preferred = JSONBody
			}
			state := state{preferredBodyType: preferred}
			err := parseItem(tt.input, strings.NewReader("from stdin"), &state, &in)
			if (err != nil) != tt.shouldBeError {
				t.Errorf("unexpected error: shouldBeError=%v, err=%v", tt.shouldBeError, err)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(in.Body.Fields, tt.expectedBodyFields) {
				t.Errorf("unexpected body field: expected=%+v, actual=%+v", tt.expectedBodyFields, in.Body.Fields)
			}
			if !reflect.DeepEqual(in.Body.RawJSONFields, tt.expectedBodyRawJSONFields) {
				t.Errorf("unexpected raw JSON body field: expected=%+v, actual=%+v", tt.expectedBodyRawJSONFields, in.Body.RawJSONFields)
			}
			if !reflect.DeepEqual(in.Body.Files, tt.expectedBodyFiles) {
				t.Errorf("unexpected body files: expected=%+v, actual=%+v", tt.expectedBodyFiles, in.Body.Files)
			}
			if !reflect.DeepEqual(in.Header.Fields, tt.expectedHeaderFields) {
				t.Errorf("unexpected header field: expected=%+v, actual=%+v", tt.expectedHeaderFields, in.Header.Fields)
			}
			if !reflect.DeepEqual(in.Parameters, tt.expectedParameters) {
				t.Errorf("unexpected parameters: expected=%+v, actual=%+v", tt.expectedParameters, in.Parameters)
			}
		})
	}
}

func TestParseURL(t *testing.T) {
	testCases := []struct {
		title    string
		input    string
		expected url.URL
	}{
		{
			title: "Typical case",
			input: "http://example.com/hello/world",
			expected: url.URL{
				Scheme: "http",
				Host:   "example.com",
				Path:   "/hello/world",
			},
		},
		{
			title: "No scheme",
			input: "example.com/hello/world",
			expected: url.URL{
				Scheme: "http",
				Host:   "example.com",
				Path:   "/hello/world",
			},
		},
		{
			title: "No host and port",
			input: "/hello/world",
			expected: url.URL{
				Scheme: "http",
				Host:   "localhost",
				Path:   "/hello/world",
			},
		},
		{
			title: "Only colon",
			input: ":",
			expected: url.URL{
				Scheme: "http",
				Host:   "localhost",
				Path:   "/",
			},
		},
		{
			title: "No host but has port",
			input: ":8080/hello/world",
			expected: url.URL{
				Scheme: "http",
				Host:   "localhost:8080",
				Path:   "/hello/world",
			},
		},
		{
			title: "Has query parameters",
			input: "http://example.com/?q=hello&lang=ja",
			expected: url.URL{
				Scheme:   "http",
				Host:     "example.com",
				Path:     "/",
				RawQuery: "q=hello&lang=ja",
			},
		},
		{
			title: "No path",
			input: "https://example.com",
			expected: url.URL{
				Scheme: "https",
				Host:   "example.com",
				Path:   "/",
			},
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			u, err := parseURL(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: err=%v", err)
			}
			if !reflect.DeepEqual(*u, tt.expected) {
				t.Errorf("unexpected result: expected=%+v, actual=%+v", tt.expected, *u)
			}
		})
	}
}
