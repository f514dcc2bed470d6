// Package codec adapts a PDF library to the three capabilities the merge
// engine needs: parse bytes into a page-addressable document, append all
// pages of a document to an output, and serialise the output.
package codec

import "io"

// Document is a parsed source PDF.
type Document interface {
	PageCount() int
}

// Output accumulates pages from loaded documents.
type Output interface {
	// AppendPages copies every page of doc, in doc's own order, to the end.
	AppendPages(doc Document) error
	PageCount() int
	Encode(w io.Writer) error
}

// Codec is the black-box PDF capability.
type Codec interface {
	Load(data []byte) (Document, error)
	NewOutput() Output
}
