package core

import (
	"fmt"
	"strings"
)

// Decision policy values. Kept as named variables so the policy can be
// audited and tuned in one place.
var (
	// SeverityWeights scale raw issue scores per category before severity
	// aggregation. Categories not listed use DefaultSeverityWeight.
	SeverityWeights = map[IssueType]float64{
		IssueThreat:          2.0,
		IssueHateSpeech:      1.8,
		IssueCriticalKeyword: 2.5,
		IssueToxicity:        1.5,
	}

	// DefaultSeverityWeight applies to categories without an explicit weight.
	DefaultSeverityWeight = 1.0

	// KeywordRejectScore is the raw score at or above which any issue from
	// the keyword filter rejects the text, regardless of the configured
	// toxicity threshold.
	KeywordRejectScore = 0.70

	// Severity cutoffs for level derivation.
	CriticalSeverity       = 0.85
	WarningSeverity        = 0.60
	RecommendationSeverity = 0.30
)

// rejectableTypes are the categories whose raw score is compared against the
// configured toxicity threshold when deciding acceptability.
var rejectableTypes = map[IssueType]bool{
	IssueThreat:          true,
	IssueHateSpeech:      true,
	IssueCriticalKeyword: true,
	IssueToxicity:        true,
}

// severityWeight returns the aggregation weight for an issue category.
func severityWeight(t IssueType) float64 {
	if w, ok := SeverityWeights[t]; ok {
		return w
	}
	return DefaultSeverityWeight
}

// buildResult derives a complete moderation result from the accumulated
// issue list. It is a pure function of its inputs: severity, acceptability,
// level and user message all follow from the issues and the threshold.
func buildResult(threshold float64, analyzedText string, issues []Issue, layers []Layer) *ModerationResult {
	if issues == nil {
		issues = []Issue{}
	}
	if layers == nil {
		layers = []Layer{}
	}

	severity := 0.0
	hasCriticalKeyword := false
	acceptable := true
	for _, issue := range issues {
		if weighted := issue.Score * severityWeight(issue.Type); weighted > severity {
			severity = weighted
		}
		if issue.Type == IssueCriticalKeyword {
			hasCriticalKeyword = true
		}
		if rejectableTypes[issue.Type] && issue.Score >= threshold {
			acceptable = false
		}
		if issue.Source == LayerKeywordFilter && issue.Score >= KeywordRejectScore {
			acceptable = false
		}
	}
	if severity > 1.0 {
		severity = 1.0
	}

	level := deriveLevel(severity, hasCriticalKeyword)

	return &ModerationResult{
		IsAcceptable:  acceptable,
		Level:         level,
		SeverityScore: severity,
		Issues:        issues,
		UserMessage:   composeUserMessage(level, issues),
		AnalyzedText:  analyzedText,
		LayersUsed:    layers,
	}
}

// deriveLevel maps aggregated severity to a response level. A critical
// keyword match forces the critical level regardless of severity magnitude.
func deriveLevel(severity float64, hasCriticalKeyword bool) Level {
	switch {
	case hasCriticalKeyword || severity >= CriticalSeverity:
		return LevelCritical
	case severity >= WarningSeverity:
		return LevelWarning
	case severity >= RecommendationSeverity:
		return LevelRecommendation
	default:
		return LevelOK
	}
}

// reasonLabels map issue categories to the wording used in user messages.
var reasonLabels = map[IssueType]string{
	IssueToxicity:        "toxic language",
	IssueThreat:          "threatening language",
	IssueInsult:          "insulting language",
	IssueObscenity:       "obscene content",
	IssueHateSpeech:      "hate speech",
	IssueCriticalKeyword: "prohibited phrasing",
}

// reasonSummaries collapses the issue list into one human-readable reason per
// category, keeping first-appearance order and the highest confidence seen.
func reasonSummaries(issues []Issue) []string {
	var order []IssueType
	best := make(map[IssueType]float64)
	for _, issue := range issues {
		if _, seen := best[issue.Type]; !seen {
			order = append(order, issue.Type)
		}
		if issue.Score >= best[issue.Type] {
			best[issue.Type] = issue.Score
		}
	}
	out := make([]string, 0, len(order))
	for _, t := range order {
		label, ok := reasonLabels[t]
		if !ok {
			label = string(t)
		}
		out = append(out, fmt.Sprintf("%s (%.0f%%)", label, best[t]*100))
	}
	return out
}

// composeUserMessage renders the user-facing explanation for a level. Each
// level has a variant without reasons so an empty issue list still produces a
// sensible message.
func composeUserMessage(level Level, issues []Issue) string {
	reasons := strings.Join(reasonSummaries(issues), ", ")
	switch level {
	case LevelCritical:
		if reasons == "" {
			return "This message violates our content policy and cannot be sent."
		}
		return fmt.Sprintf("This message violates our content policy (%s) and cannot be sent.", reasons)
	case LevelWarning:
		if reasons == "" {
			return "This message may contain inappropriate content. Consider rephrasing it."
		}
		return fmt.Sprintf("This message may contain inappropriate content (%s). Consider rephrasing it.", reasons)
	case LevelRecommendation:
		if reasons == "" {
			return "Parts of this message could be perceived negatively."
		}
		return fmt.Sprintf("Parts of this message could be perceived negatively (%s).", reasons)
	default:
		if reasons == "" {
			return "Message accepted."
		}
		return fmt.Sprintf("Message accepted (minor signals: %s).", reasons)
	}
}
