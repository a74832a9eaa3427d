package tokenizer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// SpecialTokens names the distinguished vocabulary entries the tokenizer
// needs. All but Mask are required.
type SpecialTokens struct {
	CLS  string
	SEP  string
	PAD  string
	UNK  string
	Mask string
}

// defaultMaskToken is used when the special tokens file omits mask_token.
const defaultMaskToken = "[MASK]"

// Vocabulary maps token strings to dense IDs and resolves the special tokens
// used to frame and pad sequences. It is immutable after construction.
type Vocabulary struct {
	ids      map[string]int
	size     int
	specials SpecialTokens
	clsID    int
	sepID    int
	padID    int
	unkID    int
	maskID   int
}

// NewVocabulary builds a vocabulary from an ordered token list; the ID of a
// token is its position in the list. Every required special token must be
// present in the list.
func NewVocabulary(tokens []string, specials SpecialTokens) (*Vocabulary, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}
	if specials.Mask == "" {
		specials.Mask = defaultMaskToken
	}

	ids := make(map[string]int, len(tokens))
	for i, token := range tokens {
		if _, dup := ids[token]; dup {
			continue // first occurrence wins
		}
		ids[token] = i
	}

	// The ID space is the token list length, not the map size: duplicate
	// lines keep their positions reserved so IDs stay aligned with the
	// model the file was exported for.
	v := &Vocabulary{ids: ids, size: len(tokens), specials: specials}

	var err error
	if v.clsID, err = requireToken(ids, "cls_token", specials.CLS); err != nil {
		return nil, err
	}
	if v.sepID, err = requireToken(ids, "sep_token", specials.SEP); err != nil {
		return nil, err
	}
	if v.padID, err = requireToken(ids, "pad_token", specials.PAD); err != nil {
		return nil, err
	}
	if v.unkID, err = requireToken(ids, "unk_token", specials.UNK); err != nil {
		return nil, err
	}

	// The mask token is carried for completeness but plays no role in
	// encoding, so a missing one is not an error.
	if id, ok := ids[specials.Mask]; ok {
		v.maskID = id
	} else {
		v.maskID = v.unkID
	}

	return v, nil
}

func requireToken(ids map[string]int, name, token string) (int, error) {
	if token == "" {
		return 0, fmt.Errorf("special token %s is not defined", name)
	}
	id, ok := ids[token]
	if !ok {
		return 0, fmt.Errorf("special token %s (%q) is missing from the vocabulary", name, token)
	}
	return id, nil
}

// ReadVocabulary builds a vocabulary from a token stream (one token per line,
// line number = ID) and a special tokens stream of key=value lines.
func ReadVocabulary(vocab io.Reader, specialTokens io.Reader) (*Vocabulary, error) {
	tokens, err := readTokenList(vocab)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	specials, err := readSpecialTokens(specialTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to read special tokens: %w", err)
	}
	return NewVocabulary(tokens, specials)
}

// LoadVocabulary builds a vocabulary from a vocabulary file and a special
// tokens file on disk.
func LoadVocabulary(vocabPath, specialTokensPath string) (*Vocabulary, error) {
	vocabFile, err := os.Open(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary file: %w", err)
	}
	defer vocabFile.Close()

	specialsFile, err := os.Open(specialTokensPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open special tokens file: %w", err)
	}
	defer specialsFile.Close()

	return ReadVocabulary(vocabFile, specialsFile)
}

// readTokenList reads one token per line. Lines are taken verbatim apart
// from the trailing newline; blank lines still occupy an ID so the mapping
// stays aligned with the model the file was exported from.
func readTokenList(r io.Reader) ([]string, error) {
	var tokens []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		tokens = append(tokens, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// readSpecialTokens parses key=value lines. Unknown keys are ignored so the
// file can carry extra tokenizer metadata.
func readSpecialTokens(r io.Reader) (SpecialTokens, error) {
	var specials SpecialTokens
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return SpecialTokens{}, fmt.Errorf("malformed special tokens line %d: %q", lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "cls_token":
			specials.CLS = value
		case "sep_token":
			specials.SEP = value
		case "pad_token":
			specials.PAD = value
		case "unk_token":
			specials.UNK = value
		case "mask_token":
			specials.Mask = value
		}
	}
	if err := scanner.Err(); err != nil {
		return SpecialTokens{}, err
	}

	var missing []string
	if specials.CLS == "" {
		missing = append(missing, "cls_token")
	}
	if specials.SEP == "" {
		missing = append(missing, "sep_token")
	}
	if specials.PAD == "" {
		missing = append(missing, "pad_token")
	}
	if specials.UNK == "" {
		missing = append(missing, "unk_token")
	}
	if len(missing) > 0 {
		return SpecialTokens{}, fmt.Errorf("special tokens file is missing %s", strings.Join(missing, ", "))
	}
	if specials.Mask == "" {
		specials.Mask = defaultMaskToken
	}

	return specials, nil
}

// Size returns the size of the vocabulary ID space.
func (v *Vocabulary) Size() int {
	return v.size
}

// Contains reports whether the exact token string is in the vocabulary.
func (v *Vocabulary) Contains(token string) bool {
	_, ok := v.ids[token]
	return ok
}

// ID resolves a token to its vocabulary ID. Unknown tokens resolve to the
// unknown-token ID, as does any mapped ID outside [0, Size) from a corrupt
// vocabulary.
func (v *Vocabulary) ID(token string) int {
	id, ok := v.ids[token]
	if !ok {
		return v.unkID
	}
	return v.clampID(id)
}

// clampID guards against IDs outside the valid range.
func (v *Vocabulary) clampID(id int) int {
	if id < 0 || id >= v.size {
		return v.unkID
	}
	return id
}

// Specials returns the resolved special token strings.
func (v *Vocabulary) Specials() SpecialTokens {
	return v.specials
}
