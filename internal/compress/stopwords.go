// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compress

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// English is the language of the default stop-word set.
const English = "english"

//go:embed stopwords/*.txt
var stopWordFiles embed.FS

// StopWords is a set of lowercase stop words. It is never modified after
// construction.
type StopWords map[string]struct{}

// Contains reports whether the lowercase form of word is a stop word.
func (s StopWords) Contains(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// Merge returns a new set holding the words of s and other.
func (s StopWords) Merge(other StopWords) StopWords {
	merged := make(StopWords, len(s)+len(other))
	for w := range s {
		merged[w] = struct{}{}
	}
	for w := range other {
		merged[w] = struct{}{}
	}
	return merged
}

// Digest returns a hash of the set's words, independent of insertion order.
func (s StopWords) Digest() string {
	words := make([]string, 0, len(s))
	for w := range s {
		words = append(words, w)
	}
	slices.Sort(words)

	h := xxhash.New()
	for _, w := range words {
		_, _ = h.WriteString(w)
		_, _ = h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// LoadStopWords returns the built-in stop words for language.
func LoadStopWords(language string) (StopWords, error) {
	f, err := stopWordFiles.Open("stopwords/" + strings.ToLower(language) + ".txt")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no stop words for language %q", language)
		}
		return nil, fmt.Errorf("loading stop words for %s: %w", language, err)
	}
	defer f.Close()

	return parseStopWords(f)
}

// LoadStopWordsFile reads stop words from path, one per line. Blank lines
// and lines starting with # are ignored.
func LoadStopWordsFile(path string) (StopWords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stop words file: %w", err)
	}
	defer f.Close()

	words, err := parseStopWords(f)
	if err != nil {
		return nil, fmt.Errorf("reading stop words file %s: %w", path, err)
	}
	return words, nil
}

func parseStopWords(r io.Reader) (StopWords, error) {
	words := make(StopWords)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words[strings.ToLower(line)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

var defaultStopWords = sync.OnceValues(func() (StopWords, error) {
	return LoadStopWords(English)
})

// DefaultStopWords returns the English stop-word set. It is loaded on first
// use and shared by every caller afterwards.
func DefaultStopWords() StopWords {
	words, err := defaultStopWords()
	if err != nil {
		// The English list is embedded at build time.
		panic(err)
	}
	return words
}
