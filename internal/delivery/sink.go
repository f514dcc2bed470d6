// Package delivery hands a finished PDF to the user as a named file.
//
// Each Sink wraps the bytes in some short-lived resource (a temp file, a
// pooled reader, an in-flight upload) and releases it on every return path.
package delivery

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// ContentType is set on every delivered file.
const ContentType = "application/pdf"

// Sink delivers bytes under a file name.
type Sink interface {
	Deliver(ctx context.Context, data []byte, filename string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, data []byte, filename string) error

func (f SinkFunc) Deliver(ctx context.Context, data []byte, filename string) error {
	return f(ctx, data, filename)
}

// ErrInvalidName is returned for names that reduce to nothing usable.
var ErrInvalidName = errors.New("invalid file name")

// BaseName strips any directory part so a user-chosen name cannot escape
// the destination.
func BaseName(filename string) (string, error) {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." || strings.TrimSpace(name) == "" {
		return "", ErrInvalidName
	}
	return name, nil
}
