// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doc-distill/pkg/types"
)

type fakeRunner struct {
	gotName  string
	gotArgs  []string
	gotInput []byte
	out      string
	stderr   string
	err      error
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	f.gotName = name
	f.gotArgs = args
	f.gotInput, _ = io.ReadAll(stdin)
	_, _ = io.WriteString(stdout, f.out)
	_, _ = io.WriteString(stderr, f.stderr)
	return f.err
}

func TestTesseractRecognize(t *testing.T) {
	run := &fakeRunner{out: "Scanned invoice\n"}
	eng := &Tesseract{binary: "tesseract", run: run}

	text, err := eng.Recognize(context.Background(), []byte("\x89PNG"))
	require.NoError(t, err)
	assert.Equal(t, "Scanned invoice\n", text)
	assert.Equal(t, "tesseract", run.gotName)
	assert.Equal(t, []string{"stdin", "stdout"}, run.gotArgs)
	assert.Equal(t, []byte("\x89PNG"), run.gotInput)
}

func TestTesseractRecognizeFailure(t *testing.T) {
	run := &fakeRunner{err: errors.New("exit status 1"), stderr: "Error, could not read image\n"}
	eng := &Tesseract{binary: "tesseract", run: run}

	_, err := eng.Recognize(context.Background(), []byte("junk"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOCREngine)
	assert.Contains(t, err.Error(), "could not read image")
}

// fakeRuntime implements container.Runtime.
type fakeRuntime struct {
	images  map[string]bool
	runFunc func(image string, args []string, stdin io.Reader, stdout io.Writer) error
}

func (f *fakeRuntime) Name() string { return "docker" }
func (f *fakeRuntime) Available(context.Context) bool { return true }
func (f *fakeRuntime) ImageExists(_ context.Context, image string) error {
	if f.images[image] {
		return nil
	}
	return errors.New("no such image")
}
func (f *fakeRuntime) Run(_ context.Context, image string, args []string, stdin io.Reader, stdout io.Writer) error {
	return f.runFunc(image, args, stdin, stdout)
}

func TestContainerEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("missing image", func(t *testing.T) {
		_, err := NewContainer(ctx, &fakeRuntime{}, "tess:1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tess:1")
	})

	t.Run("recognize", func(t *testing.T) {
		rt := &fakeRuntime{
			images: map[string]bool{"tess:1": true},
			runFunc: func(image string, args []string, stdin io.Reader, stdout io.Writer) error {
				assert.Equal(t, "tess:1", image)
				assert.Equal(t, []string{"stdin", "stdout"}, args)
				data, _ := io.ReadAll(stdin)
				_, _ = stdout.Write(bytes.ToUpper(data))
				return nil
			},
		}
		eng, err := NewContainer(ctx, rt, "tess:1")
		require.NoError(t, err)

		text, err := eng.Recognize(ctx, []byte("page"))
		require.NoError(t, err)
		assert.Equal(t, "PAGE", text)
	})

	t.Run("run failure", func(t *testing.T) {
		rt := &fakeRuntime{
			images: map[string]bool{"tess:1": true},
			runFunc: func(string, []string, io.Reader, io.Writer) error {
				return errors.New("container exited with code 1")
			},
		}
		eng, err := NewContainer(ctx, rt, "tess:1")
		require.NoError(t, err)

		_, err = eng.Recognize(ctx, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrOCREngine)
	})
}

func TestNewUnknownEngine(t *testing.T) {
	_, err := New(context.Background(), types.OCRConfig{Engine: "cloud"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown OCR engine"))
}
