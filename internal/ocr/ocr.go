// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr recognizes text in page images with Tesseract, either from a
// local installation or from a container image.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/pdiddy/doc-distill/internal/container"
	"github.com/pdiddy/doc-distill/pkg/types"
)

// ErrOCREngine is returned when the OCR engine fails on an image.
var ErrOCREngine = errors.New("ocr engine failed")

// tesseractArgs makes tesseract read an image from stdin and print the
// recognized text to stdout using its default language model.
var tesseractArgs = []string{"stdin", "stdout"}

// Engine recognizes text in an encoded image.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// runner abstracts process execution for testing.
type runner interface {
	Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

type osRunner struct{}

func (osRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Tesseract runs a locally installed tesseract binary.
type Tesseract struct {
	binary string
	run    runner
}

// NewTesseract returns an engine that invokes binary, which must be on PATH
// or an absolute path.
func NewTesseract(binary string) (*Tesseract, error) {
	if binary == "" {
		binary = "tesseract"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("tesseract not available (install it or use the container engine): %w", err)
	}
	return &Tesseract{binary: binary, run: osRunner{}}, nil
}

// Recognize pipes image through tesseract and returns its output.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	var out, stderr bytes.Buffer
	if err := t.run.Run(ctx, t.binary, tesseractArgs, bytes.NewReader(image), &out, &stderr); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s: %v: %s", ErrOCREngine, t.binary, err, msg)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrOCREngine, t.binary, err)
	}
	return out.String(), nil
}

// Container runs tesseract inside a container image whose entrypoint is the
// tesseract binary.
type Container struct {
	runtime container.Runtime
	image   string
}

// NewContainer returns an engine that runs image with rt. It verifies that
// the image exists locally before returning.
func NewContainer(ctx context.Context, rt container.Runtime, image string) (*Container, error) {
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("tesseract image not available in %s (pull %s first): %w", rt.Name(), image, err)
	}
	return &Container{runtime: rt, image: image}, nil
}

// Recognize pipes image through the tesseract container.
func (c *Container) Recognize(ctx context.Context, image []byte) (string, error) {
	var out bytes.Buffer
	if err := c.runtime.Run(ctx, c.image, tesseractArgs, bytes.NewReader(image), &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrOCREngine, err)
	}
	return out.String(), nil
}

// New builds the engine selected by cfg.
func New(ctx context.Context, cfg types.OCRConfig) (Engine, error) {
	switch cfg.Engine {
	case types.EngineTesseract, "":
		return NewTesseract(cfg.Binary)
	case types.EngineContainer:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		image := cfg.Image
		if image == "" {
			image = types.DefaultOCRImage
		}
		return NewContainer(ctx, rt, image)
	default:
		return nil, fmt.Errorf("unknown OCR engine %q (want %s or %s)",
			cfg.Engine, types.EngineTesseract, types.EngineContainer)
	}
}
