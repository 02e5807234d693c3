package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doc-distill/internal/compress"
	"github.com/pdiddy/doc-distill/internal/convert"
	"github.com/pdiddy/doc-distill/internal/document"
	"github.com/pdiddy/doc-distill/internal/extract"
	"github.com/pdiddy/doc-distill/internal/history"
	"github.com/pdiddy/doc-distill/internal/ocr"
	"github.com/pdiddy/doc-distill/pkg/types"
)

// newConverter builds the page extractor for cfg. Tests replace it with a fake.
var newConverter = func(ctx context.Context, cfg types.ConversionConfig) (convert.Converter, error) {
	opener, err := document.NewOpener(cfg.Backend)
	if err != nil {
		return nil, err
	}

	var engine ocr.Engine
	if cfg.OCR.Enabled {
		if cfg.Backend == types.BackendNative {
			log.Warn().Msg("the native backend cannot rasterize pages; OCR will fall back to extracted text")
		}
		engine, err = ocr.New(ctx, cfg.OCR)
		if err != nil {
			return nil, err
		}
	}

	return extract.New(opener, engine, extract.Options{
		OCR:       cfg.OCR.Enabled,
		Threshold: cfg.OCR.Threshold,
		Zoom:      cfg.OCR.Zoom,
		StrictOCR: cfg.OCR.Strict,
	})
}

// convertFlagKeys maps config keys to the convert flags that override them.
var convertFlagKeys = map[string]string{
	"ocr.enabled":                 "ocr",
	"compression.enabled":         "compress",
	"compression.lower_case":      "lower",
	"compression.stop_words_file": "stop-words",
	"output_dir":                  "output",
	"backend":                     "backend",
	"ocr.engine":                  "ocr-engine",
	"ocr.threshold":               "ocr-threshold",
	"ocr.zoom":                    "zoom",
	"ocr.strict":                  "strict-ocr",
	"jobs":                        "jobs",
	"history.path":                "history",
	"history.skip_unchanged":      "skip-unchanged",
}

func newConvertCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert PATH",
		Short: "Convert a PDF file or a directory of PDFs to Markdown",
		Long: `Convert processes a single PDF file or every PDF directly inside a
directory. For name.pdf it writes name.md and, with --compress, also
name_compressed.md with stop words and punctuation removed.

With --ocr, pages with fewer than --ocr-threshold characters of embedded text
are rendered at --zoom times their native resolution and read with Tesseract.
A file that fails to convert is reported and the remaining files continue.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd, convertFlagKeys)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, conversionConfig(v), args[0])
		},
	}

	f := cmd.Flags()
	f.Bool("ocr", false, "enable OCR for scanned pages (requires Tesseract)")
	f.BoolP("compress", "c", false, "also write a compressed version for LLMs")
	f.Bool("lower", false, "lowercase the compressed version")
	f.String("stop-words", "", "file of extra stop words, one per line")
	f.StringP("output", "o", "", "output directory (default: next to each PDF)")
	f.String("backend", string(types.BackendMuPDF), "PDF backend: mupdf or native")
	f.String("ocr-engine", string(types.EngineTesseract), "OCR engine: tesseract or container")
	f.Int("ocr-threshold", types.DefaultOCRThreshold, "pages with fewer trimmed characters are sent to OCR")
	f.Float64("zoom", types.DefaultZoom, "rasterization zoom factor for OCR")
	f.Bool("strict-ocr", false, "fail the file when OCR of a page fails")
	f.IntP("jobs", "j", 1, "number of files converted concurrently")
	f.String("history", "", "record runs in this SQLite database")
	f.Bool("skip-unchanged", false, "skip PDFs unchanged since their last successful run")

	return cmd
}

func runConvert(cmd *cobra.Command, cfg types.ConversionConfig, path string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	files, err := convert.CollectPDFs(path)
	switch {
	case errors.Is(err, convert.ErrPathNotFound):
		return fmt.Errorf("path '%s' does not exist", path)
	case errors.Is(err, convert.ErrNotPDF):
		return fmt.Errorf("file is not a PDF: %s", path)
	case err != nil:
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, color.YellowString("No PDFs found in directory '%s'.", path))
		return nil
	}

	conv, err := newConverter(ctx, cfg)
	if err != nil {
		return err
	}

	p := &convert.Pipeline{
		Converter:     conv,
		LowerCase:     cfg.Compression.LowerCase,
		OCR:           cfg.OCR.Enabled,
		Extraction:    extractionSettings(cfg),
		OutputDir:     cfg.OutputDir,
		Jobs:          cfg.Jobs,
		SkipUnchanged: cfg.History.SkipUnchanged,
	}

	if cfg.Compression.Enabled {
		comp, err := newCompressor(cfg.Compression.StopWordsFile)
		if err != nil {
			return err
		}
		p.Compressor = comp
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		p.History = store
	}

	result := p.ConvertBatch(ctx, files, out)
	log.Debug().
		Int("converted", result.Converted).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("conversion finished")
	return nil
}

// extractionSettings describes the settings that change the extracted text,
// so history can tell when a previous run no longer matches.
func extractionSettings(cfg types.ConversionConfig) string {
	s := "backend=" + string(cfg.Backend)
	if cfg.OCR.Enabled {
		s += fmt.Sprintf(" threshold=%d zoom=%g strict=%t", cfg.OCR.Threshold, cfg.OCR.Zoom, cfg.OCR.Strict)
	}
	return s
}

// newCompressor returns a compressor for the default English stop words plus
// any words listed in extraFile.
func newCompressor(extraFile string) (*compress.Compressor, error) {
	if extraFile == "" {
		return compress.New(nil), nil
	}
	extra, err := compress.LoadStopWordsFile(extraFile)
	if err != nil {
		return nil, err
	}
	return compress.New(compress.DefaultStopWords().Merge(extra)), nil
}
