// Package source turns user-supplied references into collection candidates.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/pdfmerge/internal/models"
	"golang.org/x/sync/errgroup"
)

// Bytes is an in-memory candidate, e.g. one part of a multipart upload.
type Bytes struct {
	FileName string
	Type     string
	Data     []byte
}

func (b *Bytes) Name() string      { return b.FileName }
func (b *Bytes) Size() int64       { return int64(len(b.Data)) }
func (b *Bytes) MediaType() string { return b.Type }

func (b *Bytes) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

// File is a candidate backed by a local path. Its declared type comes from
// the file extension, the same way a browser labels a picked file.
type File struct {
	Path string
	size int64
	typ  string
}

// NewFile stats path and derives the declared media type.
func NewFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &File{
		Path: path,
		size: info.Size(),
		typ:  mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
	}, nil
}

func (f *File) Name() string      { return filepath.Base(f.Path) }
func (f *File) Size() int64       { return f.size }
func (f *File) MediaType() string { return f.typ }

func (f *File) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(f.Path)
}

// RemoteFunc resolves a gs://bucket/object reference.
type RemoteFunc func(ctx context.Context, bucket, object string) (models.Candidate, error)

// Resolver describes references concurrently while keeping their order.
type Resolver struct {
	// Remote handles gs:// references. Nil rejects them.
	Remote RemoteFunc
	// Limit caps concurrent lookups; 0 means 8.
	Limit int
}

// Resolve builds one candidate per reference. The result has the same order
// as refs regardless of which lookup finishes first.
func (r Resolver) Resolve(ctx context.Context, refs []string) ([]models.Candidate, error) {
	limit := r.Limit
	if limit <= 0 {
		limit = 8
	}
	out := make([]models.Candidate, len(refs))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for i, ref := range refs {
		eg.Go(func() error {
			c, err := r.resolveOne(gctx, ref)
			if err != nil {
				return fmt.Errorf("input %d (%s): %w", i+1, ref, err)
			}
			out[i] = c
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r Resolver) resolveOne(ctx context.Context, ref string) (models.Candidate, error) {
	if bucket, object, ok := SplitGCSURI(ref); ok {
		if r.Remote == nil {
			return nil, fmt.Errorf("remote inputs are not enabled")
		}
		return r.Remote(ctx, bucket, object)
	}
	return NewFile(ref)
}

// SplitGCSURI splits gs://bucket/object. ok is false for anything else.
func SplitGCSURI(uri string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(uri, "gs://")
	if !found {
		return "", "", false
	}
	bucket, object, found = strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}
