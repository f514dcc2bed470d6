package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

var readerPool = sync.Pool{
	New: func() any { return new(bytes.Reader) },
}

// WriterSink streams the document to W, e.g. stdout.
type WriterSink struct {
	W io.Writer
}

func (s *WriterSink) Deliver(ctx context.Context, data []byte, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := readerPool.Get().(*bytes.Reader)
	r.Reset(data)
	defer func() {
		r.Reset(nil)
		readerPool.Put(r)
	}()

	if _, err := io.Copy(s.W, r); err != nil {
		return fmt.Errorf("failed to stream %s: %w", filename, err)
	}
	return nil
}
