// Package tokenizer implements WordPiece subword tokenization producing
// fixed-length classifier input.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

const (
	// maxInputChars is the character budget applied before tokenization.
	maxInputChars = 500
	// maxWordChars is the per-word cap; longer words collapse to a single
	// unknown token without subword matching.
	maxWordChars = 100
	// continuationPrefix marks non-initial subword pieces.
	continuationPrefix = "##"
)

// Tokenizer encodes text into fixed-length token ID sequences using greedy
// longest-prefix WordPiece matching. Encoding is total and, because the
// vocabulary is immutable, safe for concurrent use.
type Tokenizer struct {
	vocab     *Vocabulary
	maxLength int
}

// New creates a tokenizer producing sequences of exactly maxLength elements.
// maxLength must be at least 2 to fit the classification and separator
// tokens.
func New(vocab *Vocabulary, maxLength int) (*Tokenizer, error) {
	if vocab == nil {
		return nil, fmt.Errorf("vocabulary is required")
	}
	if maxLength < 2 {
		return nil, fmt.Errorf("max length must be at least 2, got %d", maxLength)
	}
	return &Tokenizer{vocab: vocab, maxLength: maxLength}, nil
}

// MaxLength returns the fixed output sequence length.
func (t *Tokenizer) MaxLength() int {
	return t.maxLength
}

// Encode converts text into token IDs and an attention mask, both exactly
// MaxLength long. Mask positions are 1 for real tokens and 0 for padding; a
// sequence that had to be truncated carries an all-ones mask.
func (t *Tokenizer) Encode(text string) core.EncodedInput {
	text = truncateRunes(strings.TrimSpace(text), maxInputChars)

	tokens := []string{t.vocab.specials.CLS}
	for _, word := range strings.Fields(text) {
		tokens = append(tokens, t.wordPieces(word)...)
	}
	tokens = append(tokens, t.vocab.specials.SEP)

	ids := make([]int, len(tokens))
	for i, token := range tokens {
		ids[i] = t.vocab.ID(token)
	}

	if len(ids) > t.maxLength {
		// Keep the frame valid: the last element is always the separator.
		ids = ids[:t.maxLength-1]
		ids = append(ids, t.vocab.clampID(t.vocab.sepID))
		mask := make([]int, t.maxLength)
		for i := range mask {
			mask[i] = 1
		}
		return core.EncodedInput{TokenIDs: ids, AttentionMask: mask}
	}

	mask := make([]int, len(ids), t.maxLength)
	for i := range mask {
		mask[i] = 1
	}
	padID := t.padID()
	for len(ids) < t.maxLength {
		ids = append(ids, padID)
		mask = append(mask, 0)
	}
	return core.EncodedInput{TokenIDs: ids, AttentionMask: mask}
}

// wordPieces splits one whitespace-delimited word into vocabulary pieces.
// Matching is greedy: at each position the longest vocabulary prefix wins,
// with non-initial pieces carrying the continuation prefix. A position with
// no match emits the unknown token for the remaining word.
func (t *Tokenizer) wordPieces(word string) []string {
	runes := []rune(word)
	if len(runes) > maxWordChars {
		return []string{t.vocab.specials.UNK}
	}

	var pieces []string
	start := 0
	for start < len(runes) {
		end := len(runes)
		matched := ""
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = continuationPrefix + piece
			}
			if t.vocab.Contains(piece) {
				matched = piece
				break
			}
			end--
		}
		if matched == "" {
			pieces = append(pieces, t.vocab.specials.UNK)
			break
		}
		pieces = append(pieces, matched)
		start = end
	}
	return pieces
}

// padID returns the padding ID, falling back to 0 when the resolved ID is
// unusable.
func (t *Tokenizer) padID() int {
	if t.vocab.padID < 0 || t.vocab.padID >= t.vocab.size {
		return 0
	}
	return t.vocab.padID
}

// truncateRunes cuts text to at most max characters, never splitting a rune.
func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
