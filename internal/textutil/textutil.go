// Package textutil provides text preparation helpers shared by the keyword
// filter and the external review adapters.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// truncationMarker is appended when review text had to be cut down.
const truncationMarker = "\n[... text truncated ...]"

// Processor prepares text for inclusion in external review prompts.
type Processor struct {
	logger *zap.Logger
}

// NewProcessor creates a new text processor.
func NewProcessor(logger *zap.Logger) *Processor {
	return &Processor{logger: logger}
}

// Prepare sanitizes text and truncates it to at most maxRunes characters,
// marking the cut.
func (p *Processor) Prepare(text string, maxRunes int) string {
	return p.Truncate(p.Sanitize(text), maxRunes)
}

// Truncate cuts text down to maxRunes characters and appends a marker when
// anything was removed. Runes are never split.
func (p *Processor) Truncate(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= maxRunes {
		return text
	}
	p.logger.Debug("Truncating text for review",
		zap.Int("original_length", len(r)),
		zap.Int("max_length", maxRunes))
	return string(r[:maxRunes]) + truncationMarker
}

// Sanitize replaces invalid UTF-8 sequences and strips control characters
// other than ordinary whitespace.
func (p *Processor) Sanitize(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}

// FoldForMatching strips diacritical marks so keyword matching also catches
// accented spellings. The transform chain is built per call because it is
// stateful and not safe to share.
func FoldForMatching(text string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(chain, text)
	if err != nil {
		return text
	}
	return folded
}
