// Package session holds the state of one merge session: the file
// collection, the current progress and the busy guard that serialises merge
// triggers. Nothing here is global; a session is created when the user
// starts and dropped when they leave.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Lllllllleong/pdfmerge/internal/collection"
	"github.com/Lllllllleong/pdfmerge/internal/delivery"
	"github.com/Lllllllleong/pdfmerge/internal/merge"
	"github.com/Lllllllleong/pdfmerge/internal/models"
	"github.com/Lllllllleong/pdfmerge/internal/naming"
)

// ErrMergeInProgress is returned for a trigger that arrives while a merge is
// running or cooling down. The trigger is dropped.
var ErrMergeInProgress = errors.New("a merge is already in progress")

// State of the controller.
type State string

const (
	StateIdle    State = "idle"
	StateMerging State = "merging"
)

// Merger is the engine dependency.
type Merger interface {
	MergeAll(ctx context.Context, sources []models.UploadedFile, onProgress merge.ProgressFunc) ([]byte, error)
}

// Status is a point-in-time view for display.
type Status struct {
	State     State
	Progress  models.MergeProgress
	FileCount int
	Busy      bool
}

// Session orchestrates collection, engine, naming and delivery.
type Session struct {
	files    *collection.Collection
	engine   Merger
	sink     delivery.Sink
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	cooldown time.Duration
	observer merge.ProgressFunc

	busy atomic.Bool

	mu       sync.Mutex
	state    State
	progress models.MergeProgress
	timer    *time.Timer
}

// Option configures a Session.
type Option func(*Session)

// WithCooldown sets how long the busy guard stays up after a merge ends.
func WithCooldown(d time.Duration) Option { return func(s *Session) { s.cooldown = d } }

// WithClock replaces time.Now for default file names.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// WithNotifier replaces the slog notifier.
func WithNotifier(n Notifier) Option { return func(s *Session) { s.notifier = n } }

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

// WithCollection uses an existing collection instead of a fresh one.
func WithCollection(c *collection.Collection) Option { return func(s *Session) { s.files = c } }

// WithProgressObserver is called with every progress update.
func WithProgressObserver(f merge.ProgressFunc) Option { return func(s *Session) { s.observer = f } }

// New starts a session with an empty collection.
func New(engine Merger, sink delivery.Sink, opts ...Option) *Session {
	s := &Session{
		engine:   engine,
		sink:     sink,
		now:      time.Now,
		cooldown: time.Second,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.files == nil {
		s.files = collection.New()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Logger: s.logger}
	}
	return s
}

// Add offers candidates to the collection.
func (s *Session) Add(candidates ...models.Candidate) collection.AddResult {
	res := s.files.Add(candidates...)
	if res.Rejected > 0 {
		s.notifier.Notify(Event{
			Kind:    EventFilesRejected,
			Message: "Some files were rejected. Only PDF files are allowed.",
			Count:   res.Rejected,
		})
	}
	if res.Accepted > 0 {
		s.notifier.Notify(Event{
			Kind:    EventFilesAdded,
			Message: fmt.Sprintf("Added %d PDF files.", res.Accepted),
			Count:   res.Accepted,
		})
	}
	return res
}

// Remove drops a file by id.
func (s *Session) Remove(id string) bool {
	removed := s.files.Remove(id)
	if removed {
		s.notifier.Notify(Event{Kind: EventFileRemoved, Message: "File removed."})
	}
	return removed
}

// Files returns the current merge order.
func (s *Session) Files() []models.UploadedFile {
	return s.files.Snapshot()
}

// Status reports state, progress and file count.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:     s.state,
		Progress:  s.progress,
		FileCount: s.files.Len(),
		Busy:      s.busy.Load(),
	}
}

// Merge merges the current collection and delivers it under the normalised
// form of rawName. Only one merge runs per session; overlapping calls get
// ErrMergeInProgress without touching the engine. On failure nothing is
// delivered, progress drops back to zero and the collection is unchanged.
func (s *Session) Merge(ctx context.Context, rawName string) (*models.MergedOutput, error) {
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Debug("Ignoring merge trigger while busy.")
		return nil, ErrMergeInProgress
	}

	files := s.files.Snapshot()
	if len(files) == 0 {
		s.busy.Store(false)
		s.fail(merge.ErrEmptyInput)
		return nil, merge.ErrEmptyInput
	}

	name := naming.Normalize(rawName, naming.TodayStamp(s.now()))
	logCtx := s.logger.With("outputName", name, "fileCount", len(files))

	s.mu.Lock()
	s.state = StateMerging
	s.progress = models.MergeProgress{Total: len(files)}
	s.mu.Unlock()
	defer s.finish()

	data, err := s.engine.MergeAll(ctx, files, s.reportProgress)
	if err != nil {
		s.resetProgress()
		s.fail(err)
		return nil, err
	}

	if err := s.sink.Deliver(ctx, data, name); err != nil {
		s.resetProgress()
		err = fmt.Errorf("failed to deliver %s: %w", name, err)
		s.fail(err)
		return nil, err
	}

	logCtx.Info("Merged PDF delivered.", "bytes", len(data))
	s.notifier.Notify(Event{Kind: EventMergeSucceeded, Message: "PDFs merged successfully!", Filename: name, Count: len(files)})
	return &models.MergedOutput{Data: data, Filename: name}, nil
}

func (s *Session) reportProgress(p models.MergeProgress) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
	if s.observer != nil {
		s.observer(p)
	}
}

func (s *Session) resetProgress() {
	s.mu.Lock()
	s.progress = models.MergeProgress{}
	s.mu.Unlock()
}

func (s *Session) fail(err error) {
	s.notifier.Notify(Event{Kind: EventMergeFailed, Message: describeFailure(err), Err: err})
}

// finish returns to Idle immediately and lowers the busy guard once the
// cooldown has passed.
func (s *Session) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	if s.cooldown <= 0 {
		s.progress = models.MergeProgress{}
		s.busy.Store(false)
		return
	}
	s.timer = time.AfterFunc(s.cooldown, s.clearBusy)
}

func (s *Session) clearBusy() {
	s.mu.Lock()
	s.progress = models.MergeProgress{}
	s.timer = nil
	s.mu.Unlock()
	s.busy.Store(false)
}

// Close ends the session, cancelling any pending cooldown.
func (s *Session) Close() {
	s.mu.Lock()
	t := s.timer
	s.timer = nil
	s.mu.Unlock()
	if t != nil && t.Stop() {
		s.clearBusy()
	}
}
