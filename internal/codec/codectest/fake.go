// Package codectest provides an in-memory codec whose documents are lists of
// page labels. Source bytes look like "a1,a2"; an encoded output is the
// comma-joined labels of every appended page.
package codectest

import (
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Lllllllleong/pdfmerge/internal/codec"
	"github.com/Lllllllleong/pdfmerge/internal/source"
)

var (
	// ErrParse is returned by Load for sources containing "BROKEN".
	ErrParse = errors.New("fake: cannot parse")
	// ErrEncode is returned by Encode when Codec.FailEncode is set.
	ErrEncode = errors.New("fake: cannot encode")
	// ErrCopy is returned by AppendPages for a document with an
	// UNCOPYABLE page.
	ErrCopy = errors.New("fake: cannot copy pages")
)

// Codec is a codec.Codec for tests.
type Codec struct {
	FailEncode bool
	// Gate, when non-nil, makes every Load wait for a value or close.
	Gate chan struct{}

	loads   atomic.Int32
	outputs atomic.Int32
	mu      sync.Mutex
	entered chan struct{}
}

// Loads returns how many times Load was called.
func (c *Codec) Loads() int { return int(c.loads.Load()) }

// Outputs returns how many merges were started.
func (c *Codec) Outputs() int { return int(c.outputs.Load()) }

// Entered is signalled each time Load starts, before waiting on Gate.
func (c *Codec) Entered() <-chan struct{} {
	return c.enteredCh()
}

func (c *Codec) enteredCh() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entered == nil {
		c.entered = make(chan struct{}, 64)
	}
	return c.entered
}

type document struct{ pages []string }

func (d *document) PageCount() int { return len(d.pages) }

func (c *Codec) Load(data []byte) (codec.Document, error) {
	c.loads.Add(1)
	select {
	case c.enteredCh() <- struct{}{}:
	default:
	}
	if c.Gate != nil {
		<-c.Gate
	}
	s := string(data)
	if strings.Contains(s, "BROKEN") {
		return nil, ErrParse
	}
	if s == "" {
		return &document{}, nil
	}
	return &document{pages: strings.Split(s, ",")}, nil
}

func (c *Codec) NewOutput() codec.Output {
	c.outputs.Add(1)
	return &output{fail: c.FailEncode}
}

type output struct {
	pages []string
	fail  bool
}

func (o *output) AppendPages(doc codec.Document) error {
	d, ok := doc.(*document)
	if !ok {
		return codec.ErrForeignDocument
	}
	for _, p := range d.pages {
		if p == "UNCOPYABLE" {
			return ErrCopy
		}
	}
	o.pages = append(o.pages, d.pages...)
	return nil
}

func (o *output) PageCount() int { return len(o.pages) }

func (o *output) Encode(w io.Writer) error {
	if o.fail {
		return ErrEncode
	}
	_, err := io.WriteString(w, strings.Join(o.pages, ","))
	return err
}

// Doc returns a PDF-typed candidate whose pages carry the given labels.
func Doc(name string, pages ...string) *source.Bytes {
	return &source.Bytes{FileName: name, Type: "application/pdf", Data: []byte(strings.Join(pages, ","))}
}

// Broken returns a PDF-typed candidate that fails to parse.
func Broken(name string) *source.Bytes {
	return &source.Bytes{FileName: name, Type: "application/pdf", Data: []byte("BROKEN")}
}
