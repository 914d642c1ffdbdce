// Package normalizer folds visually or phonetically equivalent Arabic and
// Persian characters onto one canonical form so that they index under the
// same key. Normalisation is total: input it does not understand is kept
// and reported, never rejected.
package normalizer

import (
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	zwnj    = '\u200c'
	zwj     = '\u200d'
	tatweel = '\u0640'
)

// folds maps Arabic letter variants onto their Persian counterparts.
var folds = map[rune]rune{
	'\u064a': '\u06cc', // ي arabic yeh -> ی
	'\u0649': '\u06cc', // ى alef maksura -> ی
	'\u0626': '\u06cc', // ئ yeh with hamza above -> ی
	'\u0643': '\u06a9', // ك arabic kaf -> ک
	'\u0629': '\u0647', // ة teh marbuta -> ه
	'\u06d5': '\u0647', // ە ae -> ه
	'\u06c1': '\u0647', // ہ heh goal -> ه
	'\u06c0': '\u0647', // ۀ heh with yeh above -> ه
	'\u0623': '\u0627', // أ alef with hamza above -> ا
	'\u0625': '\u0627', // إ alef with hamza below -> ا
	'\u0671': '\u0627', // ٱ alef wasla -> ا
	'\u0624': '\u0648', // ؤ waw with hamza above -> و
}

// Diagnostic records a rune the normalizer did not expect inside a token.
type Diagnostic struct {
	Token string
	Rune  rune
}

// Collector receives diagnostics produced during normalisation.
type Collector interface {
	Report(d Diagnostic)
}

// DiagnosticCollector keeps every reported diagnostic in memory. It is safe
// for concurrent use.
type DiagnosticCollector struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

func (c *DiagnosticCollector) Report(d Diagnostic) {
	c.mu.Lock()
	c.diagnostics = append(c.diagnostics, d)
	c.mu.Unlock()
}

func (c *DiagnosticCollector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)
	return out
}

func (c *DiagnosticCollector) Reset() {
	c.mu.Lock()
	c.diagnostics = c.diagnostics[:0]
	c.mu.Unlock()
}

type Normalizer struct {
	collector Collector
	logger    *slog.Logger
}

// New returns a Normalizer reporting to collector, which may be nil.
func New(collector Collector) *Normalizer {
	return &Normalizer{
		collector: collector,
		logger:    slog.Default().With("component", "normalizer"),
	}
}

var defaultNormalizer = New(nil)

// Normalize folds token with a Normalizer that has no collector.
func Normalize(token string) string {
	return defaultNormalizer.Normalize(token)
}

// Normalize returns the canonical index key for token. The result is NFC,
// lower-cased, free of Arabic diacritics and tatweel, and contains zero-width
// non-joiners only between two word characters.
// Runes outside the scripts the index expects are passed to the collector.
func (n *Normalizer) Normalize(token string) string {
	if token == "" {
		return ""
	}
	composed := norm.NFC.String(token)

	var b strings.Builder
	b.Grow(len(composed))
	pendingJoiner := false
	for _, r := range composed {
		if r == zwnj || r == zwj {
			if b.Len() > 0 {
				pendingJoiner = true
			}
			continue
		}
		if isDropped(r) {
			continue
		}
		if !isExpected(r) {
			n.report(token, r)
		}
		if pendingJoiner {
			b.WriteRune(zwnj)
			pendingJoiner = false
		}
		b.WriteRune(fold(r))
	}
	return norm.NFC.String(b.String())
}

func (n *Normalizer) report(token string, r rune) {
	n.logger.Debug("unexpected rune in token", "token", token, "rune", string(r), "codepoint", r)
	if n.collector != nil {
		n.collector.Report(Diagnostic{Token: token, Rune: r})
	}
}

func fold(r rune) rune {
	if f, ok := folds[r]; ok {
		return f
	}
	switch {
	case r >= '\u0660' && r <= '\u0669':
		return '0' + (r - '\u0660')
	case r >= '\u06f0' && r <= '\u06f9':
		return '0' + (r - '\u06f0')
	}
	return unicode.ToLower(r)
}

// isDropped reports runes removed outright: harakat, superscript alef,
// tatweel and format characters other than the joiners.
func isDropped(r rune) bool {
	switch {
	case r >= '\u064b' && r <= '\u065f':
		return true
	case r == '\u0670', r == tatweel:
		return true
	}
	return unicode.Is(unicode.Cf, r)
}

// isExpected reports whether r belongs in an index key: a letter or mark of
// the Arabic, Latin or inherited scripts, or a digit that folds to ASCII.
// Anything else, such as Cyrillic or CJK letters, Devanagari digits or
// symbols, is kept but reported.
func isExpected(r rune) bool {
	if f := fold(r); f >= '0' && f <= '9' {
		return true
	}
	if unicode.IsLetter(r) || unicode.IsMark(r) {
		return unicode.In(r, unicode.Arabic, unicode.Latin, unicode.Inherited)
	}
	return false
}

// IsJoiner reports whether r is a zero-width joiner or non-joiner.
func IsJoiner(r rune) bool {
	return r == zwnj || r == zwj
}
