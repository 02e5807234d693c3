// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// muDocument is a Document backed by MuPDF through go-fitz. It supports both
// text extraction and rasterization.
type muDocument struct {
	doc *fitz.Document
}

// OpenMuPDF opens the PDF at path with MuPDF.
func OpenMuPDF(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDocumentOpen, path, err)
	}
	return &muDocument{doc: doc}, nil
}

func (d *muDocument) NumPages() int { return d.doc.NumPage() }

func (d *muDocument) Page(index int) Page {
	return &muPage{doc: d.doc, index: index}
}

func (d *muDocument) Close() error { return d.doc.Close() }

type muPage struct {
	doc   *fitz.Document
	index int
}

func (p *muPage) Text() (string, error) {
	text, err := p.doc.Text(p.index)
	if err != nil {
		return "", fmt.Errorf("extracting text of page %d: %w", p.index+1, err)
	}
	return text, nil
}

func (p *muPage) Render(zoom float64) (image.Image, error) {
	img, err := p.doc.ImageDPI(p.index, NativeDPI*zoom)
	if err != nil {
		return nil, fmt.Errorf("%w %d at zoom %.1f: %v", ErrPageRender, p.index+1, zoom, err)
	}
	return img, nil
}
