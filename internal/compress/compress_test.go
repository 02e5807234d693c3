// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compress

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompress(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		lowerCase bool
		want      string
	}{
		{name: "basic sentence", text: "The quick brown fox jumps over the lazy dog.", want: "quick brown fox jumps lazy dog"},
		{name: "punctuation removal", text: "Hello, world! This is a test.", want: "Hello world test"},
		{name: "lowercase option", text: "The Quick Brown Fox", lowerCase: true, want: "quick brown fox"},
		{name: "empty input", text: "", want: ""},
		{name: "only stop words", text: "The a an in on at", want: ""},
		{name: "whitespace collapse", text: "Word1    Word2\nWord3", want: "Word1 Word2 Word3"},
		{name: "punctuation splits words", text: "hello.world", want: "hello world"},
		{name: "contractions split into stop words", text: "You don't need it", want: "need"},
		{name: "case kept without lowercase", text: "THE Markdown IS Great", want: "Markdown Great"},
		{name: "markdown page header", text: "\n## Page 1\n\nSome findings here.", want: "Page 1 findings"},
		{name: "non-ASCII punctuation is kept", text: "naïve café «quoted»", want: "naïve café «quoted»"},
		{name: "tabs and carriage returns", text: "alpha\t\tbeta\r\ngamma", want: "alpha beta gamma"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compress(tt.text, tt.lowerCase))
		})
	}
}

func TestCompressIdempotent(t *testing.T) {
	inputs := []string{
		"The quick brown fox jumps over the lazy dog.",
		"Hello, world! This is a test.",
		"\n## Page 1\n\nIt's a (very) long-winded; sentence -- isn't it?",
		"",
	}
	for _, in := range inputs {
		once := Compress(in, false)
		assert.Equal(t, once, Compress(once, false), "input %q", in)
	}
}

func TestCompressorCustomStopWords(t *testing.T) {
	c := New(StopWords{"lorem": {}, "ipsum": {}})
	assert.Equal(t, "the dolor", c.Compress("Lorem ipsum, the dolor.", false))
}

func TestDefaultStopWords(t *testing.T) {
	words := DefaultStopWords()
	assert.Len(t, words, 179)
	assert.True(t, words.Contains("The"))
	assert.True(t, words.Contains("shouldn't"))
	assert.False(t, words.Contains("fox"))

	// The shared set is loaded once.
	var wg sync.WaitGroup
	sets := make([]StopWords, 8)
	for i := range sets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sets[i] = DefaultStopWords()
		}(i)
	}
	wg.Wait()
	for _, s := range sets {
		assert.Equal(t, len(words), len(s))
	}
}

func TestLoadStopWords(t *testing.T) {
	words, err := LoadStopWords("English")
	require.NoError(t, err)
	assert.True(t, words.Contains("about"))

	_, err = LoadStopWords("klingon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "klingon")
}

func TestLoadStopWordsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.txt")
	require.NoError(t, os.WriteFile(path, []byte("# domain words\nFigure\n\n  table  \n"), 0o644))

	extra, err := LoadStopWordsFile(path)
	require.NoError(t, err)
	assert.Equal(t, StopWords{"figure": {}, "table": {}}, extra)

	merged := DefaultStopWords().Merge(extra)
	assert.Len(t, merged, 181)
	assert.Len(t, DefaultStopWords(), 179, "default set must not change")

	_, err = LoadStopWordsFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestMeasure(t *testing.T) {
	s := Measure("The quick brown fox", "quick brown fox")
	assert.Equal(t, 4, s.WordsBefore)
	assert.Equal(t, 3, s.WordsAfter)
	assert.InDelta(t, 0.25, s.Reduction(), 1e-9)
	assert.Equal(t, 0.0, Measure("", "").Reduction())
}

func TestStopWordsDigest(t *testing.T) {
	a := StopWords{"figure": {}, "table": {}}
	b := StopWords{"table": {}, "figure": {}}
	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), StopWords{"figure": {}}.Digest())

	assert.Equal(t, New(nil).Digest(), New(DefaultStopWords()).Digest())
	assert.NotEqual(t, New(nil).Digest(), New(DefaultStopWords().Merge(a)).Digest())
}
