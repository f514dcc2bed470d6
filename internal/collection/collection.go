// Package collection keeps the ordered set of files a user wants merged.
package collection

import (
	"fmt"
	"mime"
	"strings"
	"sync"

	"github.com/Lllllllleong/pdfmerge/internal/models"
	"github.com/google/uuid"
)

// PDFMediaType is the only declared type the default predicate accepts.
const PDFMediaType = "application/pdf"

// Predicate decides whether a candidate may enter the collection.
type Predicate func(models.Candidate) bool

// IsPDF accepts candidates whose declared media type is application/pdf.
// Parameters such as charset and letter case are ignored.
func IsPDF(c models.Candidate) bool {
	mt, _, err := mime.ParseMediaType(c.MediaType())
	if err != nil {
		return false
	}
	return mt == PDFMediaType
}

// ValidationError describes a rejected candidate. It is informational: a
// rejection never aborts the rest of an Add call.
type ValidationError struct {
	Name      string
	MediaType string
}

func (e *ValidationError) Error() string {
	mt := e.MediaType
	if mt == "" {
		mt = "unknown type"
	}
	return fmt.Sprintf("%s: %s is not a PDF", e.Name, mt)
}

// AddResult reports the outcome of a single Add call.
type AddResult struct {
	Accepted   int
	Rejected   int
	Rejections []*ValidationError
	// Added holds the entries appended by this call, in order.
	Added []models.UploadedFile
}

// Collection is the ordered list of validated input files. Insertion order
// is merge order.
type Collection struct {
	mu     sync.RWMutex
	files  []models.UploadedFile
	accept Predicate
	newID  func() string
}

// Option configures a Collection.
type Option func(*Collection)

// WithPredicate replaces the IsPDF validation gate.
func WithPredicate(p Predicate) Option {
	return func(c *Collection) { c.accept = p }
}

// WithIDGenerator replaces uuid-based id generation.
func WithIDGenerator(gen func() string) Option {
	return func(c *Collection) { c.newID = gen }
}

// New creates an empty collection.
func New(opts ...Option) *Collection {
	c := &Collection{
		accept: IsPDF,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add validates each candidate and appends the accepted ones in arrival order.
func (c *Collection) Add(candidates ...models.Candidate) AddResult {
	var res AddResult
	accepted := make([]models.UploadedFile, 0, len(candidates))
	for _, cand := range candidates {
		if cand == nil {
			continue
		}
		if !c.accept(cand) {
			res.Rejected++
			res.Rejections = append(res.Rejections, &ValidationError{
				Name:      cand.Name(),
				MediaType: strings.TrimSpace(cand.MediaType()),
			})
			continue
		}
		size := cand.Size()
		if size < 0 {
			size = 0
		}
		accepted = append(accepted, models.UploadedFile{
			Source:      cand,
			DisplayName: cand.Name(),
			SizeBytes:   size,
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range accepted {
		accepted[i].ID = c.uniqueID()
		c.files = append(c.files, accepted[i])
	}
	res.Accepted = len(accepted)
	res.Added = accepted
	return res
}

// uniqueID draws ids until one is unused. Callers hold mu.
func (c *Collection) uniqueID() string {
	for {
		id := c.newID()
		if c.indexOf(id) < 0 {
			return id
		}
	}
}

func (c *Collection) indexOf(id string) int {
	for i, f := range c.files {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// Remove drops the entry with the given id. It reports whether anything was
// removed; an unknown id is not an error.
func (c *Collection) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.files = append(c.files[:i:i], c.files[i+1:]...)
	return true
}

// Snapshot returns a copy of the current order. Mutating the collection
// afterwards never changes a snapshot already handed out.
func (c *Collection) Snapshot() []models.UploadedFile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.UploadedFile, len(c.files))
	copy(out, c.files)
	return out
}

// Len returns the number of files currently collected.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}
