// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionStatus indicates the outcome of converting one source file.
type ConversionStatus string

const (
	ConversionDone    ConversionStatus = "converted"
	ConversionSkipped ConversionStatus = "skipped"
	ConversionFailed  ConversionStatus = "failed"
)

// PageSource records where the text of a page came from.
type PageSource string

const (
	SourceDirect PageSource = "direct"
	SourceOCR    PageSource = "ocr"
	// SourceOCRFailed marks a page where OCR was attempted but failed and
	// the directly extracted text was kept.
	SourceOCRFailed PageSource = "ocr-failed"
)

// PageText is the extracted text of a single page.
type PageText struct {
	// Number is the 1-indexed page number.
	Number int        `json:"number" yaml:"number"`
	Text   string     `json:"text" yaml:"text"`
	Source PageSource `json:"source" yaml:"source"`
}

// FileResult holds the outcome of converting a single PDF.
type FileResult struct {
	SourcePath     string           `json:"source_path" yaml:"source_path"`
	MarkdownPath   string           `json:"markdown_path,omitempty" yaml:"markdown_path,omitempty"`
	CompressedPath string           `json:"compressed_path,omitempty" yaml:"compressed_path,omitempty"`
	Fingerprint    string           `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Pages          int              `json:"pages" yaml:"pages"`
	OCRPages       int              `json:"ocr_pages" yaml:"ocr_pages"`
	Status         ConversionStatus `json:"status" yaml:"status"`
	Err            error            `json:"-" yaml:"-"`
}

// Run is one row of the conversion history.
type Run struct {
	ID             int64            `json:"id" yaml:"id"`
	SourcePath     string           `json:"source_path" yaml:"source_path"`
	Fingerprint    string           `json:"fingerprint" yaml:"fingerprint"`
	OCR            bool             `json:"ocr" yaml:"ocr"`
	Compressed     bool             `json:"compressed" yaml:"compressed"`
	Pages          int              `json:"pages" yaml:"pages"`
	OCRPages       int              `json:"ocr_pages" yaml:"ocr_pages"`
	MarkdownPath   string           `json:"markdown_path,omitempty" yaml:"markdown_path,omitempty"`
	CompressedPath string           `json:"compressed_path,omitempty" yaml:"compressed_path,omitempty"`
	// Settings is a digest of every setting that shapes the output besides
	// OCR and compression: backend, OCR tuning, casing and stop words.
	Settings       string           `json:"settings,omitempty" yaml:"settings,omitempty"`
	Status         ConversionStatus `json:"status" yaml:"status"`
	Error          string           `json:"error,omitempty" yaml:"error,omitempty"`
	ConvertedAt    time.Time        `json:"converted_at" yaml:"converted_at"`
}
