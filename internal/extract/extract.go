// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns PDF documents into Markdown, one "## Page N" section
// per page. Pages whose embedded text is too short to be real content are
// rasterized and passed through OCR when OCR is enabled.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/doc-distill/internal/document"
	"github.com/pdiddy/doc-distill/internal/ocr"
	"github.com/pdiddy/doc-distill/pkg/types"
)

// Options controls the OCR fallback.
type Options struct {
	// OCR enables the fallback for pages with little embedded text.
	OCR bool

	// Threshold is the rune count of the trimmed direct text below which a
	// page is sent to OCR. It is a length check only: junk glyphs or interior
	// whitespace long enough to reach it keep a page out of OCR.
	Threshold int

	// Zoom scales the rasterized page relative to its native resolution.
	Zoom float64

	// StrictOCR fails extraction when OCR of any page fails. Otherwise the
	// directly extracted text is kept for that page.
	StrictOCR bool
}

// DefaultOptions returns options with OCR disabled and the default threshold
// and zoom.
func DefaultOptions() Options {
	return Options{
		Threshold: types.DefaultOCRThreshold,
		Zoom:      types.DefaultZoom,
	}
}

// Extractor reads the text of every page of a document.
type Extractor struct {
	opener document.Opener
	engine ocr.Engine
	opts   Options
}

// New returns an Extractor that opens documents with opener. engine may be
// nil when opts.OCR is false.
func New(opener document.Opener, engine ocr.Engine, opts Options) (*Extractor, error) {
	if opts.OCR && engine == nil {
		return nil, errors.New("OCR enabled without an OCR engine")
	}
	if opts.Threshold <= 0 {
		opts.Threshold = types.DefaultOCRThreshold
	}
	if opts.Zoom <= 0 {
		opts.Zoom = types.DefaultZoom
	}
	return &Extractor{opener: opener, engine: engine, opts: opts}, nil
}

// ToMarkdown opens the PDF at path and returns its Markdown rendering.
func (e *Extractor) ToMarkdown(ctx context.Context, path string) (string, error) {
	pages, err := e.ExtractFile(ctx, path)
	if err != nil {
		return "", err
	}
	return Render(pages), nil
}

// ExtractFile opens the PDF at path and extracts every page.
func (e *Extractor) ExtractFile(ctx context.Context, path string) ([]types.PageText, error) {
	doc, err := e.opener.Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	return e.Extract(ctx, doc)
}

// Extract returns the text of every page of doc in page order.
func (e *Extractor) Extract(ctx context.Context, doc document.Document) ([]types.PageText, error) {
	n := doc.NumPages()
	pages := make([]types.PageText, 0, n)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pt, err := e.extractPage(ctx, doc.Page(i), i+1)
		if err != nil {
			return nil, err
		}
		pages = append(pages, pt)
	}
	return pages, nil
}

func (e *Extractor) extractPage(ctx context.Context, page document.Page, number int) (types.PageText, error) {
	text, err := page.Text()
	if err != nil {
		log.Warn().Err(err).Int("page", number).Msg("direct text extraction failed")
		text = ""
	}
	pt := types.PageText{Number: number, Text: text, Source: types.SourceDirect}

	if !e.opts.OCR || utf8.RuneCountInString(strings.TrimSpace(text)) >= e.opts.Threshold {
		return pt, nil
	}

	log.Debug().Int("page", number).Msg("little embedded text, running OCR")
	recognized, err := e.recognize(ctx, page)
	if err != nil {
		if e.opts.StrictOCR {
			return types.PageText{}, fmt.Errorf("page %d: %w", number, err)
		}
		log.Warn().Err(err).Int("page", number).Msg("OCR failed, keeping extracted text")
		pt.Source = types.SourceOCRFailed
		return pt, nil
	}

	pt.Text = recognized
	pt.Source = types.SourceOCR
	return pt, nil
}

func (e *Extractor) recognize(ctx context.Context, page document.Page) (string, error) {
	img, err := page.Render(e.opts.Zoom)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("%w: encoding PNG: %v", document.ErrPageRender, err)
	}

	return e.engine.Recognize(ctx, buf.Bytes())
}

// Render formats pages as a Markdown document. Every page gets a header, even
// when its text is empty, so the page count survives in the output.
func Render(pages []types.PageText) string {
	blocks := make([]string, len(pages))
	for i, p := range pages {
		blocks[i] = fmt.Sprintf("\n## Page %d\n\n%s", p.Number, p.Text)
	}
	return strings.Join(blocks, "\n")
}

// CountOCR returns how many pages were produced by OCR.
func CountOCR(pages []types.PageText) int {
	n := 0
	for _, p := range pages {
		if p.Source == types.SourceOCR {
			n++
		}
	}
	return n
}
