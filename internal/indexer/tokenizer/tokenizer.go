// Package tokenizer provides text tokenisation for the index and the query
// resolver. It splits input on every rune that is not part of a word
// (punctuation, whitespace, symbols), and passes each word through the
// normalizer so that build-time and query-time keys agree.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/normalizer"
)

type Tokenizer struct {
	normalizer *normalizer.Normalizer
}

// New returns a Tokenizer folding tokens with n. A nil n uses a normalizer
// without a diagnostic collector.
func New(n *normalizer.Normalizer) *Tokenizer {
	if n == nil {
		n = normalizer.New(nil)
	}
	return &Tokenizer{normalizer: n}
}

var defaultTokenizer = New(nil)

// Tokenize splits text with the default Tokenizer.
func Tokenize(text string) []string {
	return defaultTokenizer.Tokenize(text)
}

// Tokenize returns the normalised terms of text in their original order.
// Words that normalise to the empty string are dropped.
func (t *Tokenizer) Tokenize(text string) []string {
	words := strings.FieldsFunc(text, isSeparator)
	terms := make([]string, 0, len(words))
	for _, word := range words {
		term := t.normalizer.Normalize(word)
		if term == "" {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

// isSeparator reports whether r ends a word. Letters, combining marks,
// digits and the zero-width joiners needed for Persian word shapes are word
// runes; every other rune separates.
func isSeparator(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r) {
		return false
	}
	return !normalizer.IsJoiner(r)
}
