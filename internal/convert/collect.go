// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrPathNotFound is returned when the input path does not exist.
	ErrPathNotFound = errors.New("path does not exist")

	// ErrNotPDF is returned when the input file is not a PDF.
	ErrNotPDF = errors.New("file is not a PDF")
)

// IsPDF reports whether path has a .pdf extension, ignoring case.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// CollectPDFs resolves path to the PDFs to convert. A file must be a PDF; a
// directory yields the PDFs directly inside it, sorted by name. An empty
// result for a directory is not an error.
func CollectPDFs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return nil, fmt.Errorf("inspecting %s: %w", path, err)
	}

	if !info.IsDir() {
		if !IsPDF(path) {
			return nil, fmt.Errorf("%w: %s", ErrNotPDF, path)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", path, err)
	}

	var pdfs []string
	for _, e := range entries {
		if e.IsDir() || !IsPDF(e.Name()) {
			continue
		}
		pdfs = append(pdfs, filepath.Join(path, e.Name()))
	}
	sort.Strings(pdfs)
	return pdfs, nil
}
