package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/pdfmerge/internal/codec"
	"github.com/Lllllllleong/pdfmerge/internal/config"
	"github.com/Lllllllleong/pdfmerge/internal/delivery"
	"github.com/Lllllllleong/pdfmerge/internal/merge"
	"github.com/Lllllllleong/pdfmerge/internal/models"
	"github.com/Lllllllleong/pdfmerge/internal/session"
	"github.com/Lllllllleong/pdfmerge/internal/source"
)

const (
	filesField = "files"
	nameField  = "name"
)

// MergerConfig holds configuration for the merge function.
type MergerConfig struct {
	ValidationMode string
	Optimize       bool
	MaxUploadBytes int64
}

// MergerFunction holds dependencies for the merge logic.
type MergerFunction struct {
	engine *merge.Engine
	config MergerConfig
}

// NewMerger creates a MergerFunction from the environment.
func NewMerger(ctx context.Context) (*MergerFunction, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	f := NewMergerWithConfig(MergerConfig{
		ValidationMode: cfg.ValidationMode,
		Optimize:       cfg.Optimize,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	slog.InfoContext(ctx, "Merger logic initialized.", "validationMode", cfg.ValidationMode, "optimize", cfg.Optimize)
	return f, nil
}

// NewMergerWithConfig builds a MergerFunction backed by pdfcpu.
func NewMergerWithConfig(cfg MergerConfig) *MergerFunction {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = config.Default().MaxUploadBytes
	}
	return &MergerFunction{
		engine: merge.NewEngine(codec.NewPDFCPU(cfg.ValidationMode, cfg.Optimize), nil),
		config: cfg,
	}
}

// ParseRequest decodes a multipart upload. Files keep the order in which
// their parts arrived; each part's Content-Type is its declared type.
func (f *MergerFunction) ParseRequest(w http.ResponseWriter, r *http.Request) (*models.MergeRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, f.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(f.config.MaxUploadBytes); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	req := &models.MergeRequest{OutputName: r.FormValue(nameField)}
	for i, fh := range r.MultipartForm.File[filesField] {
		part, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %d: %w", i+1, err)
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %d: %w", i+1, err)
		}
		req.Files = append(req.Files, &source.Bytes{
			FileName: fh.Filename,
			Type:     fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	return req, nil
}

// Process runs one merge session for req and delivers the result to sink.
// The returned summary is non-nil whenever the files were collected, even if
// the merge itself failed.
func (f *MergerFunction) Process(ctx context.Context, req *models.MergeRequest, sink delivery.Sink) (*models.MergeSummary, error) {
	logCtx := slog.With("fileCount", len(req.Files), "requestedName", req.OutputName)
	logCtx.Info("Starting merge request.")

	sess := session.New(f.engine, sink, session.WithCooldown(0), session.WithLogger(logCtx))
	defer sess.Close()

	added := sess.Add(req.Files...)
	summary := &models.MergeSummary{FileCount: added.Accepted, Rejected: added.Rejected}

	out, err := sess.Merge(ctx, req.OutputName)
	if err != nil {
		return summary, err
	}
	summary.Filename = out.Filename
	summary.Bytes = len(out.Data)
	logCtx.Info("Merge request complete.", "outputName", summary.Filename, "bytes", summary.Bytes, "rejected", summary.Rejected)
	return summary, nil
}

// ServeHTTP handles POST multipart uploads and answers with the merged PDF.
func (f *MergerFunction) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, &models.MergeErrorResponse{Error: "only POST is supported"})
		return
	}

	req, err := f.ParseRequest(w, r)
	if err != nil {
		slog.Warn("Could not decode merge upload", "error", err)
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, &models.MergeErrorResponse{Error: "could not read upload"})
		return
	}

	sink := &delivery.HTTPSink{W: w}
	summary, err := f.Process(r.Context(), req, sink)
	if err == nil {
		return
	}
	if sink.Committed() {
		slog.Error("Merged PDF was only partially sent.", "error", err)
		return
	}
	f.handleError(w, summary, err)
}

func (f *MergerFunction) handleError(w http.ResponseWriter, summary *models.MergeSummary, err error) {
	body := &models.MergeErrorResponse{Error: err.Error()}
	if summary != nil {
		body.Rejected = summary.Rejected
	}

	var loadErr *merge.LoadError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, merge.ErrEmptyInput):
		status = http.StatusBadRequest
		if body.Rejected > 0 {
			body.Error = fmt.Sprintf("no PDF files to merge (%d rejected, only PDF files are allowed)", body.Rejected)
		}
	case errors.As(err, &loadErr):
		status = http.StatusUnprocessableEntity
		idx := loadErr.Index
		body.FileIndex = &idx
		body.FileName = loadErr.Name
	case errors.Is(err, session.ErrMergeInProgress):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		// Keep internal detail out of the response.
		body.Error = "processing failed"
	}
	slog.Error("Merge request failed.", "status", status, "error", err)
	writeError(w, status, body)
}

func writeError(w http.ResponseWriter, status int, body *models.MergeErrorResponse) {
	body.Status = "error"
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
