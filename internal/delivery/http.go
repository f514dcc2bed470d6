package delivery

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"strconv"
)

// HTTPSink answers an HTTP request with the document as a download.
type HTTPSink struct {
	W http.ResponseWriter

	committed bool
}

// Committed reports whether the status line and headers have been sent. After
// that the response can no longer carry an error status.
func (s *HTTPSink) Committed() bool { return s.committed }

func (s *HTTPSink) Deliver(ctx context.Context, data []byte, filename string) error {
	name, err := BaseName(filename)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r := readerPool.Get().(*bytes.Reader)
	r.Reset(data)
	defer func() {
		r.Reset(nil)
		readerPool.Put(r)
	}()

	h := s.W.Header()
	h.Set("Content-Type", ContentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	s.W.WriteHeader(http.StatusOK)
	s.committed = true
	if _, err := r.WriteTo(s.W); err != nil {
		return fmt.Errorf("failed to stream %s to client: %w", name, err)
	}
	return nil
}
