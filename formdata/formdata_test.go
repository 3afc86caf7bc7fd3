package formdata

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/nojima/httpbody/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormDataMultiMap(t *testing.T) {
	f := New()
	f.Append("a", "1")
	f.Append("b", "2")
	f.Append("a", "3")

	assert.Equal(t, 3, f.Len())
	assert.Equal(t, "1", f.Value("a"))
	assert.Len(t, f.GetAll("a"), 2)
	assert.False(t, f.HasFiles())

	f.Set("a", "4")
	var got []string
	for e := range f.Entries() {
		got = append(got, e.Name+"="+e.Value)
	}
	assert.Equal(t, []string{"a=4", "b=2"}, got)

	f.Set("c", "5")
	assert.Equal(t, "5", f.Value("c"))

	f.Delete("b")
	assert.False(t, f.Has("b"))
	assert.Equal(t, 2, f.Len())

	_, ok := f.Get("missing")
	assert.False(t, ok)
}

func TestFormDataFiles(t *testing.T) {
	f := New()
	f.Append("name", "value")
	f.AppendFile("upload", NewFile(blob.FromBytes([]byte("data"), "text/plain"), "a.txt"))
	assert.True(t, f.HasFiles())

	f.SetFile("upload", NewFile(blob.FromBytes([]byte("other"), ""), "b.txt"))
	e, ok := f.Get("upload")
	require.True(t, ok)
	require.True(t, e.IsFile())
	assert.Equal(t, "b.txt", e.File.Name)
	assert.Equal(t, "", f.Value("upload"))
}

func TestValues(t *testing.T) {
	v := NewValues()
	v.Add("b", "2")
	v.Add("a", "1")
	v.Add("b", "3")
	assert.Equal(t, "b=2&a=1&b=3", v.Encode())

	v.Set("b", "x y")
	assert.Equal(t, "b=x+y&a=1", v.String())
	assert.Equal(t, "x y", v.Get("b"))
	assert.Equal(t, "", v.Get("missing"))
	assert.Equal(t, 2, v.Len())
}

func TestParseValues(t *testing.T) {
	testCases := []struct {
		title    string
		input    string
		expected [][2]string
	}{
		{title: "Simple", input: "a=1&b=2", expected: [][2]string{{"a", "1"}, {"b", "2"}}},
		{title: "Escapes", input: "q=hello+world&x=%26%3D", expected: [][2]string{{"q", "hello world"}, {"x", "&="}}},
		{title: "Duplicates and empty", input: "a=1&&a=&b", expected: [][2]string{{"a", "1"}, {"a", ""}, {"b", ""}}},
		{title: "Malformed escape", input: "a=%zz+1", expected: [][2]string{{"a", "%zz 1"}}},
		{title: "Empty", input: "", expected: nil},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			var actual [][2]string
			for name, value := range ParseValues(tt.input).All() {
				actual = append(actual, [2]string{name, value})
			}
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestValuesOf(t *testing.T) {
	v := ValuesOf(url.Values{"b": {"2"}, "a": {"1", "3"}})
	assert.Equal(t, "a=1&a=3&b=2", v.Encode())

	f := FromValues(v)
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, "1", f.Value("a"))
}

func TestLimitsMerge(t *testing.T) {
	base := Limits{FieldNameSize: 10, FileSize: 100}
	merged := base.Merge(Limits{FileSize: 5, Files: 2})
	assert.Equal(t, Limits{FieldNameSize: 10, FileSize: 5, Files: 2}, merged)

	resolved := merged.resolve()
	assert.Equal(t, int64(10), resolved.FieldNameSize)
	assert.Equal(t, int64(DefaultFieldSize), resolved.FieldSize)
	assert.Equal(t, int64(Unlimited), resolved.Fields)
	assert.Equal(t, int64(DefaultHeaderPairs), resolved.HeaderPairs)

	assert.Equal(t, Limits{
		FieldNameSize: 100,
		FieldSize:     1 << 20,
		Fields:        Unlimited,
		FileSize:      Unlimited,
		Files:         Unlimited,
		Parts:         Unlimited,
		HeaderPairs:   2000,
	}, DefaultLimits())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	f := New()
	f.Append("greeting", "héllo wörld")
	f.AppendFile("upload", NewFile(blob.New([][]byte{[]byte("part1-"), []byte("part2")}, "text/csv"), "data.csv"))
	f.AppendFile("raw", NewFile(blob.FromBytes([]byte{0, 1, 2}, ""), "raw.bin"))
	f.Append("greeting", "again")

	boundary := NewBoundary()
	var buf bytes.Buffer
	require.NoError(t, f.Encode(&buf, boundary))
	assert.True(t, strings.HasSuffix(buf.String(), "--"+boundary+"--\r\n"))

	decoded, err := Decode(context.Background(), &buf, ContentType(boundary), Limits{}, nil)
	require.NoError(t, err)
	require.Equal(t, 4, decoded.Len())

	greetings := decoded.GetAll("greeting")
	require.Len(t, greetings, 2)
	assert.Equal(t, "héllo wörld", greetings[0].Value)
	assert.Equal(t, "again", greetings[1].Value)

	upload, _ := decoded.Get("upload")
	require.True(t, upload.IsFile())
	assert.Equal(t, "data.csv", upload.File.Name)
	assert.Equal(t, "text/csv", upload.File.Type())
	content, err := upload.File.Text()
	require.NoError(t, err)
	assert.Equal(t, "part1-part2", content)

	raw, _ := decoded.Get("raw")
	assert.Equal(t, "application/octet-stream", raw.File.Type())
	data, err := raw.File.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, data)
}

func TestEncodeEscapesDispositionParameters(t *testing.T) {
	f := New()
	f.Append(`"quoted"`, "v")

	var buf bytes.Buffer
	require.NoError(t, f.Encode(&buf, "b"))
	assert.Contains(t, buf.String(), `Content-Disposition: form-data; name="%22quoted%22"`)
}

func TestEncodeRejectsInvalidBoundary(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, New().Encode(&buf, ""))
}
