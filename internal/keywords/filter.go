// Package keywords implements the lexical prefilter: a two-tier substring
// scan over curated keyword lists.
package keywords

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/textutil"
)

// Match scores are policy values, kept as named variables so they can be
// audited and tuned in one place.
var (
	// CriticalMatchScore is assigned to every critical tier match. It sits
	// at the keyword rejection cutoff, so a critical match always rejects.
	CriticalMatchScore = 0.70

	// ModerateMatchScore is assigned to the single moderate tier match.
	ModerateMatchScore = 0.50
)

// hateSection is the list section whose keywords are tagged as hate speech.
const hateSection = "hate"

// taggedKeyword is one critical tier entry with the category it reports.
type taggedKeyword struct {
	phrase    string
	issueType core.IssueType
}

// Filter screens text against two keyword tiers. The critical tier reports
// every match; the moderate tier is a fallback that reports at most one.
// Matching is a case-insensitive substring scan. The filter is immutable
// after construction and safe for concurrent use.
type Filter struct {
	critical []taggedKeyword
	moderate []string
	fold     bool
	logger   *zap.Logger
}

// NewFilter builds a filter from critical and moderate keyword list streams.
// With foldDiacritics set, accented spellings match their base forms.
func NewFilter(critical, moderate io.Reader, foldDiacritics bool, logger *zap.Logger) (*Filter, error) {
	f := &Filter{fold: foldDiacritics, logger: logger}

	criticalEntries, err := parseList(critical, foldDiacritics, true)
	if err != nil {
		return nil, fmt.Errorf("failed to parse critical keyword list: %w", err)
	}
	f.critical = criticalEntries

	moderateEntries, err := parseList(moderate, foldDiacritics, false)
	if err != nil {
		return nil, fmt.Errorf("failed to parse moderate keyword list: %w", err)
	}
	for _, entry := range moderateEntries {
		f.moderate = append(f.moderate, entry.phrase)
	}

	logger.Info("Keyword filter loaded",
		zap.Int("critical_keywords", len(f.critical)),
		zap.Int("moderate_keywords", len(f.moderate)),
		zap.Bool("fold_diacritics", foldDiacritics))

	return f, nil
}

// NewFilterFromFiles builds a filter from keyword list files. An empty path
// leaves that tier empty.
func NewFilterFromFiles(criticalPath, moderatePath string, foldDiacritics bool, logger *zap.Logger) (*Filter, error) {
	critical, err := openList(criticalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open critical keyword list: %w", err)
	}
	defer critical.Close()

	moderate, err := openList(moderatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open moderate keyword list: %w", err)
	}
	defer moderate.Close()

	return NewFilter(critical, moderate, foldDiacritics, logger)
}

func openList(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(strings.NewReader("")), nil
	}
	return os.Open(path)
}

// parseList reads one keyword per line. Blank lines and # comments are
// skipped. A [section] line switches the tag for subsequent entries: the
// hate section tags keywords as hate speech, any other section resets to the
// critical keyword category. Sections carry no meaning in the moderate tier.
func parseList(r io.Reader, fold bool, tagged bool) ([]taggedKeyword, error) {
	var entries []taggedKeyword
	current := core.IssueCriticalKeyword

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if !tagged {
				continue
			}
			section := strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			if section == hateSection {
				current = core.IssueHateSpeech
			} else {
				current = core.IssueCriticalKeyword
			}
			continue
		}

		phrase := strings.ToLower(line)
		if fold {
			phrase = textutil.FoldForMatching(phrase)
		}
		entries = append(entries, taggedKeyword{phrase: phrase, issueType: current})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Check scans text and returns the detected issues. Every critical keyword
// that matches produces an issue; the moderate tier only applies when no
// critical keyword matched, and reports the first match alone.
func (f *Filter) Check(text string) []core.Issue {
	haystack := strings.ToLower(text)
	if f.fold {
		haystack = textutil.FoldForMatching(haystack)
	}

	var issues []core.Issue
	for _, kw := range f.critical {
		if strings.Contains(haystack, kw.phrase) {
			issues = append(issues, core.Issue{
				Type:   kw.issueType,
				Score:  CriticalMatchScore,
				Source: core.LayerKeywordFilter,
			})
		}
	}
	if len(issues) > 0 {
		return issues
	}

	for _, phrase := range f.moderate {
		if strings.Contains(haystack, phrase) {
			return []core.Issue{{
				Type:   core.IssueCriticalKeyword,
				Score:  ModerateMatchScore,
				Source: core.LayerKeywordFilter,
			}}
		}
	}
	return nil
}

// Size returns the number of keywords loaded per tier.
func (f *Filter) Size() (critical, moderate int) {
	return len(f.critical), len(f.moderate)
}
