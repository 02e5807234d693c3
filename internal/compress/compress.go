// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compress reduces the token count of text for language models by
// dropping punctuation and stop words.
package compress

import (
	"strings"
)

// punctuation is the ASCII punctuation set. Each character is replaced with a
// space so that "hello.world" splits into two words.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Compressor removes stop words from text.
type Compressor struct {
	stop   StopWords
	digest string
}

// New returns a Compressor that drops the words in stop. A nil set uses the
// default English stop words.
func New(stop StopWords) *Compressor {
	if stop == nil {
		stop = DefaultStopWords()
	}
	return &Compressor{stop: stop, digest: stop.Digest()}
}

// Digest identifies the compressor's stop-word set. Two compressors with the
// same digest produce the same output.
func (c *Compressor) Digest() string { return c.digest }

// Compress lowercases text when lowerCase is set, replaces punctuation with
// spaces, splits on whitespace, drops stop words and joins the remaining
// words with single spaces. Stop words match case-insensitively whatever
// lowerCase says; lowerCase only affects the casing of the output.
func (c *Compressor) Compress(text string, lowerCase bool) string {
	if lowerCase {
		text = strings.ToLower(text)
	}

	cleaned := strings.Map(func(r rune) rune {
		if r < 0x80 && strings.ContainsRune(punctuation, r) {
			return ' '
		}
		return r
	}, text)

	words := strings.Fields(cleaned)
	kept := words[:0]
	for _, w := range words {
		if !c.stop.Contains(w) {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// Compress compresses text with the default English stop words.
func Compress(text string, lowerCase bool) string {
	return New(nil).Compress(text, lowerCase)
}

// Stats compares word counts before and after compression.
type Stats struct {
	WordsBefore int
	WordsAfter  int
}

// Reduction returns the fraction of words removed, between 0 and 1.
func (s Stats) Reduction() float64 {
	if s.WordsBefore == 0 {
		return 0
	}
	return 1 - float64(s.WordsAfter)/float64(s.WordsBefore)
}

// Measure returns the word counts of original and compressed.
func Measure(original, compressed string) Stats {
	return Stats{
		WordsBefore: len(strings.Fields(original)),
		WordsAfter:  len(strings.Fields(compressed)),
	}
}
