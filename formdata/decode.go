package formdata

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"

	"github.com/nojima/httpbody/blob"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const fileChunkSize = 32 * 1024

// Decode parses a multipart/form-data stream incrementally. Parts are
// checked against limits as they arrive; the first part that violates a
// limit aborts the decode and every violation of that part is returned,
// combined with multierr (errors.As yields the first one). On any error
// the entries decoded so far are discarded.
func Decode(ctx context.Context, r io.Reader, contentType string, limits Limits, log *zap.Logger) (*FormData, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing content type '%s'", contentType)
	}
	if mediaType != "multipart/form-data" {
		return nil, errors.Wrapf(ErrNotMultipart, "content type '%s'", mediaType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, errors.WithStack(ErrMissingBoundary)
	}
	if log == nil {
		log = zap.NewNop()
	}

	d := &decoder{
		limits: limits.resolve(),
		form:   New(),
		log:    log,
	}
	if err := d.decode(ctx, multipart.NewReader(r, boundary)); err != nil {
		return nil, err
	}
	log.Debug("decoded multipart form",
		zap.Int64("parts", d.parts),
		zap.Int64("fields", d.fields),
		zap.Int64("files", d.files))
	return d.form, nil
}

type decoder struct {
	limits Limits
	form   *FormData
	log    *zap.Logger

	parts  int64
	fields int64
	files  int64
}

func (d *decoder) decode(ctx context.Context, mr *multipart.Reader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading multipart body")
		}
		err = d.decodePart(ctx, part)
		part.Close()
		if err != nil {
			return err
		}
	}
}

func (d *decoder) decodePart(ctx context.Context, part *multipart.Part) error {
	disposition, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	name := params["name"]

	// every part counts, including the ones skipped below
	var violations error
	d.parts++
	if d.parts > d.limits.Parts {
		violations = multierr.Append(violations, d.violation(LimitParts, name))
	}
	if countHeaderPairs(part.Header) > d.limits.HeaderPairs {
		violations = multierr.Append(violations, d.violation(LimitHeaderPairs, name))
	}

	if err != nil || disposition != "form-data" {
		d.log.Debug("skipping part without form-data disposition",
			zap.String("disposition", part.Header.Get("Content-Disposition")))
		return violations
	}
	filename, isFile := params["filename"]

	if int64(len(name)) > d.limits.FieldNameSize {
		violations = multierr.Append(violations, d.violation(LimitFieldName, name))
	}

	if isFile {
		d.files++
		if d.files > d.limits.Files {
			violations = multierr.Append(violations, d.violation(LimitFiles, name))
		}
		if violations != nil {
			return violations
		}
		return d.decodeFile(ctx, part, name, filename)
	}

	d.fields++
	if d.fields > d.limits.Fields {
		violations = multierr.Append(violations, d.violation(LimitFields, name))
	}
	value, err := readAtMost(part, d.limits.FieldSize)
	if err != nil {
		return multierr.Append(violations, errors.Wrapf(err, "reading field '%s'", name))
	}
	if int64(len(value)) > d.limits.FieldSize {
		violations = multierr.Append(violations, d.violation(LimitFieldValue, name))
	}
	if violations != nil {
		return violations
	}
	d.form.Append(name, string(value))
	return nil
}

func (d *decoder) decodeFile(ctx context.Context, part *multipart.Part, name, filename string) error {
	var chunks [][]byte
	var size int64
	buf := make([]byte, fileChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := part.Read(buf)
		if n > 0 {
			size += int64(n)
			if size > d.limits.FileSize {
				return d.violation(LimitFileSize, name)
			}
			chunks = append(chunks, bytes.Clone(buf[:n]))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "reading file '%s' of part '%s'", filename, name)
		}
	}

	contentType := part.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	d.form.AppendFile(name, NewFile(blob.New(chunks, contentType), filename))
	return nil
}

func (d *decoder) violation(kind LimitKind, name string) error {
	var limit int64
	switch kind {
	case LimitFieldName:
		limit = d.limits.FieldNameSize
	case LimitFieldValue:
		limit = d.limits.FieldSize
	case LimitFields:
		limit = d.limits.Fields
	case LimitFileSize:
		limit = d.limits.FileSize
	case LimitFiles:
		limit = d.limits.Files
	case LimitParts:
		limit = d.limits.Parts
	case LimitHeaderPairs:
		limit = d.limits.HeaderPairs
	}
	d.log.Debug("form limit exceeded", zap.Stringer("kind", kind), zap.String("part", name))
	return &LimitError{Kind: kind, Name: name, Limit: limit}
}

// readAtMost reads r until EOF or until one byte past limit, so that the
// caller can tell an over-long value from one exactly at the limit.
func readAtMost(r io.Reader, limit int64) ([]byte, error) {
	if limit < Unlimited {
		r = io.LimitReader(r, limit+1)
	}
	return io.ReadAll(r)
}

func countHeaderPairs(h textproto.MIMEHeader) int64 {
	var n int64
	for _, values := range h {
		n += int64(len(values))
	}
	return n
}
