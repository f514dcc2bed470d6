// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Lllllllleong/pdfmerge/internal/source"
)

// BuildPDF returns a minimal, valid PDF with one page per width. Each page is
// 792pt tall and as wide as its entry, so page order can be checked after a
// merge by reading the page dimensions back.
func BuildPDF(widths ...int) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 0, len(widths)+2)

	buf.WriteString("%PDF-1.4\n")
	write := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	write("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, len(widths))
	for i := range widths {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	write(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(widths)))
	for _, w := range widths {
		write(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d 792] /Resources << >> >>", w))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// PDFCandidate wraps BuildPDF output as an uploaded application/pdf file.
func PDFCandidate(name string, widths ...int) *source.Bytes {
	return &source.Bytes{FileName: name, Type: "application/pdf", Data: BuildPDF(widths...)}
}

// ErrUnreadable is returned by FailingSource.
var ErrUnreadable = errors.New("source unreadable")

// FailingSource declares itself a PDF but cannot be opened.
type FailingSource struct {
	FileName string
}

func (f *FailingSource) Name() string      { return f.FileName }
func (f *FailingSource) Size() int64       { return 0 }
func (f *FailingSource) MediaType() string { return "application/pdf" }

func (f *FailingSource) Open(context.Context) (io.ReadCloser, error) {
	return nil, ErrUnreadable
}
