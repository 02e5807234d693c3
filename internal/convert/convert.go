// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert drives PDF-to-Markdown conversion of single files and
// batches: it extracts pages, writes <name>.md, optionally writes
// <name>_compressed.md, and reports per-file outcomes without letting one
// failing file stop the rest.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/doc-distill/internal/compress"
	"github.com/pdiddy/doc-distill/internal/extract"
	"github.com/pdiddy/doc-distill/internal/history"
	"github.com/pdiddy/doc-distill/pkg/types"
)

const (
	markdownExt      = ".md"
	compressedSuffix = "_compressed"
)

// ErrFileWrite is returned when an output file or directory cannot be written.
var ErrFileWrite = errors.New("cannot write output")

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold, color.FgCyan).SprintFunc()
)

// Converter extracts the pages of a PDF file. extract.Extractor implements it.
type Converter interface {
	ExtractFile(ctx context.Context, pdfPath string) ([]types.PageText, error)
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(status types.ConversionStatus) {
	switch status {
	case types.ConversionDone:
		r.Converted++
	case types.ConversionSkipped:
		r.Skipped++
	case types.ConversionFailed:
		r.Failed++
	}
}

// Pipeline converts PDF files to Markdown.
type Pipeline struct {
	Converter Converter

	// Compressor writes a compressed copy of each Markdown file when set.
	Compressor *compress.Compressor
	LowerCase  bool

	// History records every run when set.
	History       *history.Store
	SkipUnchanged bool

	// OCR is recorded in history so a change of setting forces reconversion.
	OCR bool

	// Extraction describes the converter's output-affecting settings, such
	// as backend and OCR tuning. A change forces reconversion.
	Extraction string

	// OutputDir receives the Markdown files. Empty writes next to each source.
	OutputDir string

	// Jobs is the number of files converted concurrently. Values below 2
	// convert one file at a time.
	Jobs int
}

// OutputPaths returns the Markdown and compressed Markdown paths for src.
// outputDir overrides the source directory when non-empty.
func OutputPaths(src, outputDir string) (markdown, compressed string) {
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(src)
	}
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+markdownExt), filepath.Join(dir, stem+compressedSuffix+markdownExt)
}

// ConvertFile converts a single PDF, printing progress to w. Failures are
// reported on w and in the returned result; they are never returned as
// errors so that batches continue. Files written before a failure are kept.
func (p *Pipeline) ConvertFile(ctx context.Context, src string, w io.Writer) types.FileResult {
	name := filepath.Base(src)
	fmt.Fprintf(w, "Processing %s...\n", bold(name))

	res := types.FileResult{SourcePath: src}
	run, skip := p.startRun(ctx, &res)
	if skip {
		fmt.Fprintf(w, "  %s %s (unchanged since last run)\n", yellow("Skipped:"), name)
		return res
	}

	if err := p.convert(ctx, src, &res, w); err != nil {
		res.Status = types.ConversionFailed
		res.Err = err
		fmt.Fprintf(w, "  %s\n", red(fmt.Sprintf("Failed to process %s: %v", name, err)))
	} else {
		res.Status = types.ConversionDone
	}

	p.finishRun(ctx, run, res)
	return res
}

func (p *Pipeline) convert(ctx context.Context, src string, res *types.FileResult, w io.Writer) error {
	pages, err := p.Converter.ExtractFile(ctx, src)
	if err != nil {
		return err
	}
	res.Pages = len(pages)
	res.OCRPages = extract.CountOCR(pages)
	content := extract.Render(pages)

	mdPath, compPath := OutputPaths(src, p.OutputDir)
	if err := os.MkdirAll(filepath.Dir(mdPath), 0o755); err != nil {
		return fmt.Errorf("%w: creating output directory: %v", ErrFileWrite, err)
	}

	if err := writeFile(mdPath, content); err != nil {
		return err
	}
	res.MarkdownPath = mdPath
	fmt.Fprintf(w, "  %s %s\n", green("Saved:"), mdPath)

	if p.Compressor == nil {
		return nil
	}

	compressed := p.Compressor.Compress(content, p.LowerCase)
	if err := writeFile(compPath, compressed); err != nil {
		return err
	}
	res.CompressedPath = compPath
	stats := compress.Measure(content, compressed)
	fmt.Fprintf(w, "  %s %s (%d -> %d words, -%.0f%%)\n", green("Compressed:"), compPath,
		stats.WordsBefore, stats.WordsAfter, stats.Reduction()*100)
	return nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("%w %s: %v", ErrFileWrite, path, err)
	}
	return nil
}

// startRun fingerprints the source for history. The run is nil when history
// is disabled or unavailable for this file. skip reports that a previous run
// of the same source can be reused; res is then filled from that run.
func (p *Pipeline) startRun(ctx context.Context, res *types.FileResult) (run *types.Run, skip bool) {
	if p.History == nil {
		return nil, false
	}

	abs, err := filepath.Abs(res.SourcePath)
	if err != nil {
		abs = res.SourcePath
	}
	fp, err := history.Fingerprint(abs)
	if err != nil {
		log.Debug().Err(err).Str("source", abs).Msg("not recording history")
		return nil, false
	}
	res.Fingerprint = fp

	want := p.plannedRun(abs, fp)
	if p.SkipUnchanged {
		prev, err := p.History.LatestSuccess(ctx, abs)
		if err != nil {
			log.Warn().Err(err).Str("source", abs).Msg("history lookup failed")
		} else if history.Unchanged(prev, want) {
			res.Status = types.ConversionSkipped
			res.MarkdownPath = prev.MarkdownPath
			res.CompressedPath = prev.CompressedPath
			res.Pages = prev.Pages
			res.OCRPages = prev.OCRPages
			return nil, true
		}
	}

	return &types.Run{
		SourcePath:  abs,
		Fingerprint: fp,
		OCR:         p.OCR,
		Compressed:  p.Compressor != nil,
		Settings:    want.Settings,
	}, false
}

// plannedRun describes the run this pipeline would record for the source at
// abs, including the output paths it would write.
func (p *Pipeline) plannedRun(abs, fingerprint string) types.Run {
	md, comp := OutputPaths(abs, p.OutputDir)
	run := types.Run{
		SourcePath:   abs,
		Fingerprint:  fingerprint,
		OCR:          p.OCR,
		Compressed:   p.Compressor != nil,
		MarkdownPath: absOrEmpty(md),
	}

	parts := []string{p.Extraction}
	if p.Compressor != nil {
		run.CompressedPath = absOrEmpty(comp)
		parts = append(parts, fmt.Sprintf("lower=%t", p.LowerCase), p.Compressor.Digest())
	}
	run.Settings = history.SettingsDigest(parts...)
	return run
}

func (p *Pipeline) finishRun(ctx context.Context, run *types.Run, res types.FileResult) {
	if run == nil {
		return
	}
	run.Pages = res.Pages
	run.OCRPages = res.OCRPages
	run.MarkdownPath = absOrEmpty(res.MarkdownPath)
	run.CompressedPath = absOrEmpty(res.CompressedPath)
	run.Status = res.Status
	if res.Err != nil {
		run.Error = res.Err.Error()
	}
	if _, err := p.History.Record(ctx, *run); err != nil {
		log.Warn().Err(err).Str("source", run.SourcePath).Msg("recording history failed")
	}
}

func absOrEmpty(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// ConvertBatch converts sources in order, printing per-file status and a
// summary to w. With Jobs above 1 files are converted concurrently; the
// output of each file is still printed as one contiguous block.
func (p *Pipeline) ConvertBatch(ctx context.Context, sources []string, w io.Writer) BatchResult {
	var result BatchResult

	if p.Jobs < 2 || len(sources) < 2 {
		for _, src := range sources {
			result.add(p.ConvertFile(ctx, src, w).Status)
		}
	} else {
		var (
			mu sync.Mutex
			g  errgroup.Group
		)
		g.SetLimit(p.Jobs)
		for _, src := range sources {
			g.Go(func() error {
				var buf bytes.Buffer
				res := p.ConvertFile(ctx, src, &buf)

				mu.Lock()
				defer mu.Unlock()
				result.add(res.Status)
				if _, err := w.Write(buf.Bytes()); err != nil {
					log.Warn().Err(err).Str("source", src).Msg("writing batch output")
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	if len(sources) > 1 {
		fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
			result.Converted, result.Skipped, result.Failed, result.Total())
	}
	return result
}
