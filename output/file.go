package output

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/nojima/httpbody/body"
	"github.com/pkg/errors"
)

type FileWriter struct {
	fullPath string
}

// NewFileWriter picks the download path: --output if given, otherwise the
// filename of the response Content-Disposition, otherwise the last segment
// of the URL path.
func NewFileWriter(u *url.URL, contentDisposition string, options *Options) *FileWriter {
	fullPath := options.OutputFile
	if fullPath == "" {
		fullPath = "./" + downloadFilename(u, contentDisposition)
	}

	if !options.Overwrite {
		fullPath = makeNonOverlappingFilename(fullPath)
	}

	return &FileWriter{
		fullPath: fullPath,
	}
}

func downloadFilename(u *url.URL, contentDisposition string) string {
	if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
		if name := filepath.Base(params["filename"]); name != "." && name != "/" && name != "" {
			return name
		}
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return "index"
	}
	return name
}

var reIndexSuffix = regexp.MustCompile(`\.(\d+)$`)

func makeNonOverlappingFilename(path string) string {
	_, err := os.Stat(path)
	if err == nil {
		newPath := reIndexSuffix.ReplaceAllStringFunc(path, func(index string) string {
			i, err := strconv.Atoi(strings.TrimPrefix(index, "."))
			if err != nil {
				panic(err)
			}
			i++
			return fmt.Sprintf(".%d", i)
		})
		if path == newPath {
			path = fmt.Sprintf("%s.%d", path, 1)
		} else {
			path = newPath
		}
		path = makeNonOverlappingFilename(path)
	}
	return path
}

// Download writes the body stream to the file chunk by chunk. Progress is
// reported to progress when the content length is known.
func (f *FileWriter) Download(ctx context.Context, b *body.Body, contentLength int64, progress io.Writer) error {
	file, err := os.Create(f.fullPath)
	if err != nil {
		return errors.Wrap(err, "creating download file")
	}
	defer file.Close()

	s, err := b.Stream()
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	defer s.Close()

	var totalRead int64
	err = s.Each(func(chunk []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := file.Write(chunk); err != nil {
			return errors.Wrap(err, "writing download file")
		}
		totalRead += int64(len(chunk))
		if contentLength > 0 {
			fmt.Fprintf(progress, "\rDownloading: %s / %s (%d%%)",
				bytefmt.ByteSize(uint64(totalRead)), bytefmt.ByteSize(uint64(contentLength)),
				totalRead*100/contentLength)
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(progress, "\nDownloaded %s to %s\n", bytefmt.ByteSize(uint64(totalRead)), f.fullPath)
	return nil
}

func (f *FileWriter) Filename() string {
	return filepath.Base(f.fullPath)
}
