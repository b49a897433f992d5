package bm25

import (
	"strings"
	"unicode"
)

// Tokenizer turns raw text into index terms. The same tokenizer must be
// used for both corpus building and query scoring; a mismatch degrades
// recall silently instead of erroring.
type Tokenizer interface {
	Tokenize(text string) []string
}

// TokenizerFunc adapts a function to the Tokenizer interface.
type TokenizerFunc func(text string) []string

// Tokenize calls f.
func (f TokenizerFunc) Tokenize(text string) []string {
	return f(text)
}

// DefaultTokenizer lowercases and splits on runs of unicode letters and
// digits. It handles punctuation boundaries better than a plain
// whitespace split but remains best effort for scripts without word
// delimiters.
func DefaultTokenizer() Tokenizer {
	return TokenizerFunc(func(text string) []string {
		return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
	})
}
