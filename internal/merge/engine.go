// Package merge concatenates the pages of ordered source documents.
package merge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Lllllllleong/pdfmerge/internal/codec"
	"github.com/Lllllllleong/pdfmerge/internal/models"
)

// ProgressFunc is called after each source has been copied into the output.
type ProgressFunc func(models.MergeProgress)

// Engine drives a codec over an ordered list of sources.
type Engine struct {
	codec  codec.Codec
	logger *slog.Logger
}

// NewEngine returns an engine using c. A nil logger means slog.Default().
func NewEngine(c codec.Codec, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{codec: c, logger: logger}
}

// MergeAll produces one document holding every page of every source: sources
// in the given order, each source's pages in its own order. Sources are
// processed one at a time. Any failure discards the partial output.
//
// ctx is checked before each source and before encoding; a cancelled merge
// returns ctx.Err() and no bytes.
func (e *Engine) MergeAll(ctx context.Context, sources []models.UploadedFile, onProgress ProgressFunc) ([]byte, error) {
	if len(sources) == 0 {
		return nil, ErrEmptyInput
	}
	if onProgress == nil {
		onProgress = func(models.MergeProgress) {}
	}
	logCtx := e.logger.With("fileCount", len(sources))
	logCtx.Info("Starting merge.")

	out := e.codec.NewOutput()
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("merge cancelled before file %d: %w", i+1, err)
		}

		data, err := readSource(ctx, src)
		if err != nil {
			logCtx.Error("Failed to read source file.", "index", i, "file", src.DisplayName, "error", err)
			return nil, &LoadError{Index: i, Name: src.DisplayName, Err: err}
		}
		doc, err := e.codec.Load(data)
		if err != nil {
			logCtx.Error("Failed to parse source file.", "index", i, "file", src.DisplayName, "error", err)
			return nil, &LoadError{Index: i, Name: src.DisplayName, Err: err}
		}
		if err := out.AppendPages(doc); err != nil {
			logCtx.Error("Failed to copy pages.", "index", i, "file", src.DisplayName, "error", err)
			return nil, &LoadError{Index: i, Name: src.DisplayName, Err: err}
		}
		logCtx.Debug("Appended source file.", "index", i, "file", src.DisplayName, "pages", doc.PageCount())

		onProgress(models.MergeProgress{Completed: i + 1, Total: len(sources)})
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("merge cancelled before encoding: %w", err)
	}
	var buf bytes.Buffer
	if err := out.Encode(&buf); err != nil {
		logCtx.Error("Failed to encode merged document.", "error", err)
		return nil, &EncodeError{Err: err}
	}
	logCtx.Info("Merge complete.", "pageCount", out.PageCount(), "bytes", buf.Len())
	return buf.Bytes(), nil
}

func readSource(ctx context.Context, f models.UploadedFile) ([]byte, error) {
	if f.Source == nil {
		return nil, fmt.Errorf("file has no source")
	}
	rc, err := f.Source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read: %w", err)
	}
	return data, nil
}
