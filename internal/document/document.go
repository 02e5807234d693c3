// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document exposes PDF documents as ordered sequences of pages that
// can be read as text or rasterized to images. Backends wrap third-party PDF
// libraries behind the Document and Page capability interfaces so callers
// can be tested against fakes.
package document

import (
	"errors"
	"fmt"
	"image"

	"github.com/pdiddy/doc-distill/pkg/types"
)

// NativeDPI is the resolution of a PDF page at zoom factor 1.
const NativeDPI = 72.0

var (
	// ErrDocumentOpen is returned when a source cannot be opened or parsed
	// as a PDF.
	ErrDocumentOpen = errors.New("cannot open document")

	// ErrPageRender is returned when a page cannot be rasterized.
	ErrPageRender = errors.New("cannot render page")
)

// Document is an opened PDF. Pages are views into the document and must not
// be used after Close.
type Document interface {
	// NumPages returns the number of pages in the document.
	NumPages() int

	// Page returns the page at the 0-based index.
	Page(index int) Page

	// Close releases the resources held by the document.
	Close() error
}

// Page is a single page of a Document.
type Page interface {
	// Text returns the text embedded in the page's content stream.
	Text() (string, error)

	// Render rasterizes the page at zoom times its native resolution in
	// both axes.
	Render(zoom float64) (image.Image, error)
}

// Opener opens documents from the filesystem.
type Opener interface {
	Open(path string) (Document, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Document, error)

func (f OpenerFunc) Open(path string) (Document, error) { return f(path) }

// NewOpener returns the Opener for the named backend.
func NewOpener(backend types.PDFBackend) (Opener, error) {
	switch backend {
	case types.BackendMuPDF, "":
		return OpenerFunc(OpenMuPDF), nil
	case types.BackendNative:
		return OpenerFunc(OpenNative), nil
	default:
		return nil, fmt.Errorf("unknown PDF backend %q (want %s or %s)",
			backend, types.BackendMuPDF, types.BackendNative)
	}
}
