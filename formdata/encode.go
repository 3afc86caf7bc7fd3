package formdata

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/pkg/errors"
)

// NewBoundary returns a random boundary token suitable for Encode.
func NewBoundary() string {
	return multipart.NewWriter(io.Discard).Boundary()
}

// ContentType returns the multipart/form-data content type for boundary.
func ContentType(boundary string) string {
	return "multipart/form-data; boundary=" + boundary
}

var dispositionEscaper = strings.NewReplacer("\"", "%22", "\r", "%0D", "\n", "%0A")

// Encode writes f to w in multipart/form-data format. File content is
// streamed from each file's blob.
func (f *FormData) Encode(w io.Writer, boundary string) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(boundary); err != nil {
		return errors.Wrap(err, "setting multipart boundary")
	}
	for _, e := range f.entries {
		if err := encodeEntry(mw, e); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return errors.Wrap(err, "closing multipart body")
	}
	return nil
}

func encodeEntry(mw *multipart.Writer, e Entry) error {
	header := make(textproto.MIMEHeader)
	if !e.IsFile() {
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"`, dispositionEscaper.Replace(e.Name)))
		w, err := mw.CreatePart(header)
		if err != nil {
			return errors.Wrapf(err, "creating part '%s'", e.Name)
		}
		if _, err := io.WriteString(w, e.Value); err != nil {
			return errors.Wrapf(err, "writing part '%s'", e.Name)
		}
		return nil
	}

	contentType := e.File.Type()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			dispositionEscaper.Replace(e.Name), dispositionEscaper.Replace(e.File.Name)))
	header.Set("Content-Type", contentType)
	w, err := mw.CreatePart(header)
	if err != nil {
		return errors.Wrapf(err, "creating part '%s'", e.Name)
	}
	r, err := e.File.Stream()
	if err != nil {
		return err
	}
	defer r.Close()
	if _, err := io.Copy(w, r); err != nil {
		return errors.Wrapf(err, "writing file '%s' of part '%s'", e.File.Name, e.Name)
	}
	return nil
}
