// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doc-distill/internal/document"
	"github.com/pdiddy/doc-distill/internal/ocr"
	"github.com/pdiddy/doc-distill/pkg/types"
)

// fakePage implements document.Page with canned text and render results.
type fakePage struct {
	text      string
	textErr   error
	renderErr error
	zooms     []float64
}

func (p *fakePage) Text() (string, error) { return p.text, p.textErr }

func (p *fakePage) Render(zoom float64) (image.Image, error) {
	p.zooms = append(p.zooms, zoom)
	if p.renderErr != nil {
		return nil, p.renderErr
	}
	return image.NewGray(image.Rect(0, 0, 4, 4)), nil
}

type fakeDocument struct {
	pages  []*fakePage
	closed bool
}

func (d *fakeDocument) NumPages() int { return len(d.pages) }
func (d *fakeDocument) Page(index int) document.Page { return d.pages[index] }
func (d *fakeDocument) Close() error { d.closed = true; return nil }

func newDoc(texts ...string) *fakeDocument {
	d := &fakeDocument{}
	for _, t := range texts {
		d.pages = append(d.pages, &fakePage{text: t})
	}
	return d
}

// fakeEngine records calls and returns canned OCR output.
type fakeEngine struct {
	calls   int
	inputs  [][]byte
	outputs []string
	err     error
}

func (f *fakeEngine) Recognize(_ context.Context, img []byte) (string, error) {
	f.calls++
	f.inputs = append(f.inputs, img)
	if f.err != nil {
		return "", f.err
	}
	if len(f.outputs) == 0 {
		return "OCR text", nil
	}
	out := f.outputs[0]
	f.outputs = f.outputs[1:]
	return out, nil
}

func openerFor(doc document.Document) document.Opener {
	return document.OpenerFunc(func(string) (document.Document, error) { return doc, nil })
}

func newExtractor(t *testing.T, doc document.Document, eng ocr.Engine, ocrOn bool) *Extractor {
	t.Helper()
	opts := DefaultOptions()
	opts.OCR = ocrOn
	e, err := New(openerFor(doc), eng, opts)
	require.NoError(t, err)
	return e
}

var longText = strings.Repeat("Lorem ipsum dolor sit amet. ", 3)

func TestExtractOCRDecision(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		ocr        bool
		wantCalls  int
		wantText   string
		wantSource types.PageSource
	}{
		{
			name:       "long text never uses OCR when enabled",
			text:       longText,
			ocr:        true,
			wantCalls:  0,
			wantText:   longText,
			wantSource: types.SourceDirect,
		},
		{
			name:       "long text never uses OCR when disabled",
			text:       longText,
			wantCalls:  0,
			wantText:   longText,
			wantSource: types.SourceDirect,
		},
		{
			name:       "short text with OCR enabled is replaced",
			text:       "   ",
			ocr:        true,
			wantCalls:  1,
			wantText:   "OCR text",
			wantSource: types.SourceOCR,
		},
		{
			name:       "short text with OCR disabled is kept",
			text:       "   ",
			wantCalls:  0,
			wantText:   "   ",
			wantSource: types.SourceDirect,
		},
		{
			name:       "49 characters after trimming triggers OCR",
			text:       "\n  " + strings.Repeat("x", 49) + "  \n",
			ocr:        true,
			wantCalls:  1,
			wantText:   "OCR text",
			wantSource: types.SourceOCR,
		},
		{
			name:       "exactly 50 characters after trimming does not",
			text:       "\n  " + strings.Repeat("x", 50) + "  \n",
			ocr:        true,
			wantCalls:  0,
			wantText:   "\n  " + strings.Repeat("x", 50) + "  \n",
			wantSource: types.SourceDirect,
		},
		{
			name:       "threshold counts characters not bytes",
			text:       strings.Repeat("é", 30),
			ocr:        true,
			wantCalls:  1,
			wantText:   "OCR text",
			wantSource: types.SourceOCR,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &fakeEngine{}
			doc := newDoc(tt.text)
			e := newExtractor(t, doc, eng, tt.ocr)

			pages, err := e.Extract(context.Background(), doc)
			require.NoError(t, err)
			require.Len(t, pages, 1)

			assert.Equal(t, tt.wantCalls, eng.calls)
			assert.Equal(t, 1, pages[0].Number)
			assert.Equal(t, tt.wantText, pages[0].Text)
			assert.Equal(t, tt.wantSource, pages[0].Source)
		})
	}
}

func TestExtractRendersAtZoomAndSendsPNG(t *testing.T) {
	eng := &fakeEngine{}
	doc := newDoc("")
	e := newExtractor(t, doc, eng, true)

	_, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, []float64{2}, doc.pages[0].zooms)
	require.Len(t, eng.inputs, 1)
	assert.True(t, strings.HasPrefix(string(eng.inputs[0]), "\x89PNG"), "OCR input should be PNG encoded")
}

func TestExtractOCRFailureKeepsDirectText(t *testing.T) {
	eng := &fakeEngine{err: ocr.ErrOCREngine}
	doc := newDoc("short", longText)
	e := newExtractor(t, doc, eng, true)

	pages, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, "short", pages[0].Text)
	assert.Equal(t, types.SourceOCRFailed, pages[0].Source)
	assert.Equal(t, longText, pages[1].Text)
}

func TestExtractRenderFailureContinues(t *testing.T) {
	eng := &fakeEngine{outputs: []string{"page two via OCR"}}
	doc := newDoc("", "")
	doc.pages[0].renderErr = document.ErrPageRender
	e := newExtractor(t, doc, eng, true)

	pages, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, types.SourceOCRFailed, pages[0].Source)
	assert.Equal(t, "page two via OCR", pages[1].Text)
	assert.Equal(t, 1, eng.calls)
}

func TestExtractStrictOCR(t *testing.T) {
	eng := &fakeEngine{err: ocr.ErrOCREngine}
	doc := newDoc(longText, "")
	opts := DefaultOptions()
	opts.OCR = true
	opts.StrictOCR = true
	e, err := New(openerFor(doc), eng, opts)
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ocr.ErrOCREngine)
	assert.Contains(t, err.Error(), "page 2")
}

func TestExtractTextErrorTreatedAsEmpty(t *testing.T) {
	eng := &fakeEngine{}
	doc := newDoc("ignored")
	doc.pages[0].textErr = errors.New("bad content stream")
	e := newExtractor(t, doc, eng, true)

	pages, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "OCR text", pages[0].Text)
	assert.Equal(t, 1, eng.calls)
}

func TestNewRequiresEngineForOCR(t *testing.T) {
	opts := DefaultOptions()
	opts.OCR = true
	_, err := New(openerFor(newDoc()), nil, opts)
	require.Error(t, err)
}

func TestNewAppliesDefaults(t *testing.T) {
	e, err := New(openerFor(newDoc()), nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, types.DefaultOCRThreshold, e.opts.Threshold)
	assert.Equal(t, types.DefaultZoom, e.opts.Zoom)
}

func TestToMarkdown(t *testing.T) {
	doc := newDoc("First page text.", "", "Third page text.")
	e := newExtractor(t, doc, nil, false)

	md, err := e.ToMarkdown(context.Background(), "report.pdf")
	require.NoError(t, err)

	want := "\n## Page 1\n\nFirst page text.\n" +
		"\n## Page 2\n\n\n" +
		"\n## Page 3\n\nThird page text."
	assert.Equal(t, want, md)
	assert.True(t, doc.closed, "document should be closed after extraction")
}

func TestToMarkdownOpenError(t *testing.T) {
	opener := document.OpenerFunc(func(path string) (document.Document, error) {
		return nil, document.ErrDocumentOpen
	})
	e, err := New(opener, nil, DefaultOptions())
	require.NoError(t, err)

	_, err = e.ToMarkdown(context.Background(), "broken.pdf")
	assert.ErrorIs(t, err, document.ErrDocumentOpen)
}

func TestRenderHeadersForEveryPage(t *testing.T) {
	pages := []types.PageText{
		{Number: 1, Text: ""},
		{Number: 2, Text: "   "},
		{Number: 3, Text: "body"},
	}

	md := Render(pages)

	last := -1
	for _, h := range []string{"## Page 1", "## Page 2", "## Page 3"} {
		idx := strings.Index(md, h)
		require.GreaterOrEqual(t, idx, 0, "missing header %q", h)
		assert.Greater(t, idx, last, "header %q out of order", h)
		last = idx
	}
	assert.Equal(t, "", Render(nil))
}

func TestCountOCR(t *testing.T) {
	pages := []types.PageText{
		{Source: types.SourceOCR},
		{Source: types.SourceDirect},
		{Source: types.SourceOCRFailed},
		{Source: types.SourceOCR},
	}
	assert.Equal(t, 2, CountOCR(pages))
}
