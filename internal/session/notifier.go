package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/pdfmerge/internal/merge"
)

// EventKind identifies a user-facing notification.
type EventKind string

const (
	EventFilesAdded     EventKind = "files_added"
	EventFilesRejected  EventKind = "files_rejected"
	EventFileRemoved    EventKind = "file_removed"
	EventMergeSucceeded EventKind = "merge_succeeded"
	EventMergeFailed    EventKind = "merge_failed"
)

// Event is something the user should be told about.
type Event struct {
	Kind     EventKind
	Message  string
	Count    int
	Filename string
	Err      error
}

// Notifier shows events to the user.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// LogNotifier writes events through slog.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(e Event) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"event", string(e.Kind)}
	if e.Count != 0 {
		attrs = append(attrs, "count", e.Count)
	}
	if e.Filename != "" {
		attrs = append(attrs, "file", e.Filename)
	}
	switch e.Kind {
	case EventMergeFailed:
		logger.Error(e.Message, append(attrs, "error", e.Err)...)
	case EventFilesRejected:
		logger.Warn(e.Message, attrs...)
	default:
		logger.Info(e.Message, attrs...)
	}
}

// describeFailure names the cause of a failed merge where it is known.
func describeFailure(err error) string {
	var loadErr *merge.LoadError
	var encErr *merge.EncodeError
	switch {
	case errors.Is(err, merge.ErrEmptyInput):
		return "Please add at least one PDF file to merge."
	case errors.As(err, &loadErr):
		return fmt.Sprintf("Could not read file %d (%s). Remove it or replace it and try again.", loadErr.Index+1, loadErr.Name)
	case errors.As(err, &encErr):
		return "Failed to build the merged PDF. Please try again."
	default:
		return "Failed to merge PDFs. Please try again."
	}
}
