package csvimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// ErrTooLarge is returned when a file exceeds the importer's size limit.
var ErrTooLarge = errors.New("file exceeds the maximum import size")

// Source is a named file whose contents can be opened for reading.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// StringSource serves in-memory content under a file name.
type StringSource struct {
	FileName string
	Content  string
}

// Name returns the file name.
func (s StringSource) Name() string { return s.FileName }

// Open returns a reader over the content.
func (s StringSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.Content)), nil
}

// PathSource reads a file from the local filesystem.
type PathSource string

// Name returns the base name of the path.
func (p PathSource) Name() string { return filepath.Base(string(p)) }

// Open opens the file.
func (p PathSource) Open() (io.ReadCloser, error) {
	return os.Open(string(p))
}

// MultipartSource reads an uploaded form file.
type MultipartSource struct {
	Header *multipart.FileHeader
}

// Name returns the client-supplied file name.
func (m MultipartSource) Name() string { return m.Header.Filename }

// Open opens the uploaded file.
func (m MultipartSource) Open() (io.ReadCloser, error) {
	return m.Header.Open()
}

// utf8BOM is written by spreadsheet "CSV UTF-8" exports.
const utf8BOM = "\ufeff"

// ReadAll returns the full text of src without a leading byte-order mark.
// A limit <= 0 means unlimited. Cancellation of ctx is observed between reads.
func ReadAll(ctx context.Context, src Source, limit int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rc, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", src.Name(), err)
	}
	defer rc.Close()

	var r io.Reader = &ctxReader{ctx: ctx, r: rc}
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", src.Name(), err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", ErrTooLarge
	}
	return strings.TrimPrefix(string(data), utf8BOM), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
