package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	// ErrForeignDocument is returned when an Output receives a Document that
	// was loaded by a different codec.
	ErrForeignDocument = errors.New("document was not loaded by this codec")

	// ErrDocumentReused is returned when a Document is appended a second time.
	// Appending consumes the document; load the bytes again instead.
	ErrDocumentReused = errors.New("document was already appended")
)

// PDFCPU implements Codec on top of pdfcpu. pdfcpu writes to the
// configuration it is handed, so every Load gets a fresh one and the codec
// itself is safe for concurrent use.
type PDFCPU struct {
	mode     int // model.ValidationStrict or model.ValidationRelaxed
	optimize bool
}

// NewPDFCPU builds a codec. mode is "strict" or "relaxed" (the default);
// optimize runs pdfcpu's optimizer over single-source output as well.
func NewPDFCPU(mode string, optimize bool) *PDFCPU {
	c := &PDFCPU{mode: model.ValidationRelaxed, optimize: optimize}
	if strings.EqualFold(mode, "strict") {
		c.mode = model.ValidationStrict
	}
	return c
}

func (c *PDFCPU) newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = c.mode
	return conf
}

type pdfcpuDocument struct {
	ctx      *model.Context
	appended bool
}

func (d *pdfcpuDocument) PageCount() int { return d.ctx.PageCount }

// Load parses and validates data.
func (c *PDFCPU) Load(data []byte) (Document, error) {
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	ctx, err := api.ReadContext(bytes.NewReader(data), c.newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to validate PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	return &pdfcpuDocument{ctx: ctx}, nil
}

// NewOutput returns an empty output document.
func (c *PDFCPU) NewOutput() Output {
	return &pdfcpuOutput{codec: c}
}

// pdfcpuOutput adopts the first appended document as its destination and
// merges the cross-reference table of every later one into it.
type pdfcpuOutput struct {
	codec   *PDFCPU
	dest    *model.Context
	sources int
	pages   int
}

func (o *pdfcpuOutput) AppendPages(doc Document) error {
	d, ok := doc.(*pdfcpuDocument)
	if !ok {
		return ErrForeignDocument
	}
	if d.appended {
		return ErrDocumentReused
	}
	d.appended = true

	if o.dest == nil {
		o.dest = d.ctx
		o.sources = 1
		o.pages = d.PageCount()
		return nil
	}
	if err := pdfcpu.MergeXRefTables(strconv.Itoa(o.sources), d.ctx, o.dest, false, false); err != nil {
		return fmt.Errorf("failed to copy pages: %w", err)
	}
	o.sources++
	o.pages += d.PageCount()
	return nil
}

func (o *pdfcpuOutput) PageCount() int { return o.pages }

func (o *pdfcpuOutput) Encode(w io.Writer) error {
	if o.dest == nil {
		return errors.New("no pages to encode")
	}
	if o.sources > 1 || o.codec.optimize {
		if err := api.OptimizeContext(o.dest); err != nil {
			return fmt.Errorf("failed to optimize merged PDF: %w", err)
		}
	}
	if err := api.WriteContext(o.dest, w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
