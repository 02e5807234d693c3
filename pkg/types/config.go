package types

// PDFBackend identifies the library used to open and render PDF documents.
type PDFBackend string

const (
	BackendMuPDF  PDFBackend = "mupdf"
	BackendNative PDFBackend = "native"
)

// OCREngineKind identifies how Tesseract is invoked.
type OCREngineKind string

const (
	EngineTesseract OCREngineKind = "tesseract"
	EngineContainer OCREngineKind = "container"
)

// OCRConfig holds settings for the OCR fallback of the page extractor.
type OCRConfig struct {
	// Enabled turns on OCR for pages with little or no embedded text.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Threshold is the trimmed character count below which a page is
	// considered image-only (default 50).
	Threshold int `json:"threshold" yaml:"threshold"`

	// Zoom is the rasterization scale relative to the page's native
	// resolution (default 2).
	Zoom float64 `json:"zoom" yaml:"zoom"`

	// Strict fails the whole file when OCR of a page fails instead of
	// keeping the directly extracted text.
	Strict bool `json:"strict" yaml:"strict"`

	// Engine selects a local tesseract binary or a container image.
	Engine OCREngineKind `json:"engine" yaml:"engine"`

	// Binary is the tesseract executable used by the local engine.
	Binary string `json:"binary" yaml:"binary"`

	// Image is the container image used by the container engine.
	Image string `json:"image" yaml:"image"`
}

// CompressionConfig holds settings for the token compressor.
type CompressionConfig struct {
	// Enabled writes a <name>_compressed.md next to each Markdown file.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// LowerCase lowercases the text before compression.
	LowerCase bool `json:"lower_case" yaml:"lower_case"`

	// StopWordsFile names an optional file of extra stop words, one per line.
	StopWordsFile string `json:"stop_words_file" yaml:"stop_words_file"`
}

// HistoryConfig holds settings for the conversion history database.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables history unless
	// SkipUnchanged is set, which falls back to DefaultHistoryPath.
	Path string `json:"path" yaml:"path"`

	// SkipUnchanged skips sources whose fingerprint matches a previous
	// successful run whose outputs still exist.
	SkipUnchanged bool `json:"skip_unchanged" yaml:"skip_unchanged"`
}

// ConversionConfig groups all settings for a convert run.
type ConversionConfig struct {
	// Backend selects the PDF library: mupdf or native.
	Backend PDFBackend `json:"backend" yaml:"backend"`

	// OutputDir is where Markdown files are written. Empty means next to
	// each source file.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Jobs is the number of files converted concurrently (default 1).
	Jobs int `json:"jobs" yaml:"jobs"`

	OCR         OCRConfig         `json:"ocr" yaml:"ocr"`
	Compression CompressionConfig `json:"compression" yaml:"compression"`
	History     HistoryConfig     `json:"history" yaml:"history"`
}

const (
	DefaultOCRThreshold = 50
	DefaultZoom         = 2.0
	DefaultOCRImage     = "jitesoft/tesseract-ocr:latest"
	DefaultHistoryPath  = ".doc-distill/history.db"
)

// DefaultConversionConfig returns the configuration used when no config file,
// environment variable or flag overrides a setting.
func DefaultConversionConfig() ConversionConfig {
	return ConversionConfig{
		Backend: BackendMuPDF,
		Jobs:    1,
		OCR: OCRConfig{
			Threshold: DefaultOCRThreshold,
			Zoom:      DefaultZoom,
			Engine:    EngineTesseract,
			Binary:    "tesseract",
			Image:     DefaultOCRImage,
		},
	}
}
