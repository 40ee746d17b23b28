package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/starford/chartboard/internal/apperr"
	"github.com/starford/chartboard/internal/dataset"
	"github.com/starford/chartboard/internal/models"
)

// FileOptions controls how a delimited file is decoded.
type FileOptions struct {
	// Encoding is a WHATWG encoding label such as "utf-8" or "latin1".
	// Empty means UTF-8.
	Encoding  string
	Delimiter rune
	Comment   rune
}

// File implements Provider for a CSV file on the local file system.
type File struct {
	path string // absolute
	enc  encoding.Encoding
	opts dataset.Options
}

// NewFile creates a File provider for path. The file does not need to exist
// yet; a missing file is reported by Load.
func NewFile(path string, opts FileOptions) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	enc := encoding.Encoding(unicode.UTF8)
	if opts.Encoding != "" {
		enc, err = htmlindex.Get(opts.Encoding)
		if err != nil {
			return nil, fmt.Errorf("storage: unknown encoding %q: %w", opts.Encoding, err)
		}
	}
	return &File{
		path: abs,
		enc:  enc,
		opts: dataset.Options{Delimiter: opts.Delimiter, Comment: opts.Comment},
	}, nil
}

// Path returns the absolute path of the file.
func (f *File) Path() string {
	return f.path
}

// Describe implements Provider.
func (f *File) Describe() string {
	return "file:" + f.path
}

// Load implements Provider.
func (f *File) Load(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("storage: %w: %w", apperr.ErrNotFound, err)
		}
		return nil, fmt.Errorf("storage: open %s: %w", f.path, err)
	}
	defer fh.Close()

	// A byte-order mark, if present, overrides the configured encoding.
	r := transform.NewReader(fh, unicode.BOMOverride(f.enc.NewDecoder()))
	ds, err := dataset.Parse(r, f.opts)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", f.path, err)
	}
	return ds, nil
}
