package models

import (
	"context"
	"io"
)

// Source opens the raw bytes behind an input file.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Candidate describes a file offered to the collection before validation.
// How the descriptor was obtained (local path, upload part, bucket object) is
// irrelevant to the collection; only the declared media type is inspected.
type Candidate interface {
	Source
	Name() string
	Size() int64
	MediaType() string
}

// UploadedFile is an accepted input. Its position in the collection is its
// merge position.
type UploadedFile struct {
	ID          string
	Source      Source
	DisplayName string
	SizeBytes   int64
}

// SizeKB returns the size rounded to whole kilobytes, as shown in listings.
func (f UploadedFile) SizeKB() int64 {
	return (f.SizeBytes + 512) / 1024
}

// MergeProgress is recomputed after each source file finishes.
type MergeProgress struct {
	Completed int
	Total     int
}

// Fraction returns Completed/Total, or 0 when there is nothing to merge.
func (p MergeProgress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// Percent is Fraction scaled to 0..100.
func (p MergeProgress) Percent() float64 {
	return p.Fraction() * 100
}

// MergedOutput lives only between a successful merge and its delivery.
type MergedOutput struct {
	Data     []byte
	Filename string
}
