// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"fmt"
	"image"
	"os"

	"github.com/ledongthuc/pdf"
)

// nativeDocument is a pure Go Document backed by ledongthuc/pdf. It needs no
// C libraries but cannot rasterize pages, so OCR is unavailable with it.
type nativeDocument struct {
	f *os.File
	r *pdf.Reader
}

// OpenNative opens the PDF at path with the pure Go reader.
func OpenNative(path string) (doc Document, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w %s: %v", ErrDocumentOpen, path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDocumentOpen, path, err)
	}
	return &nativeDocument{f: f, r: r}, nil
}

func (d *nativeDocument) NumPages() int { return d.r.NumPage() }

func (d *nativeDocument) Page(index int) Page {
	return &nativePage{page: d.r.Page(index + 1), number: index + 1}
}

func (d *nativeDocument) Close() error { return d.f.Close() }

type nativePage struct {
	page   pdf.Page
	number int
}

func (p *nativePage) Text() (text string, err error) {
	if p.page.V.IsNull() {
		return "", nil
	}
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("extracting text of page %d: %v", p.number, r)
		}
	}()

	text, err = p.page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extracting text of page %d: %w", p.number, err)
	}
	return text, nil
}

func (p *nativePage) Render(zoom float64) (image.Image, error) {
	return nil, fmt.Errorf("%w %d: the native backend cannot rasterize pages", ErrPageRender, p.number)
}
