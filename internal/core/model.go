package core

import (
	"time"
)

// IssueType identifies the category of a detected content issue.
type IssueType string

const (
	IssueToxicity        IssueType = "toxicity"
	IssueThreat          IssueType = "threat"
	IssueInsult          IssueType = "insult"
	IssueObscenity       IssueType = "obscenity"
	IssueHateSpeech      IssueType = "hate_speech"
	IssueCriticalKeyword IssueType = "critical_keyword"
)

// Layer identifies a pipeline stage that can contribute issues to a decision.
type Layer string

const (
	LayerCache         Layer = "cache"
	LayerKeywordFilter Layer = "keyword_filter"
	LayerClassifier    Layer = "classifier"
)

// Priority returns the fixed pipeline position of the layer. Lower values run
// earlier; the LayersUsed sequence of a result is non-decreasing in priority.
func (l Layer) Priority() int {
	switch l {
	case LayerCache:
		return 0
	case LayerKeywordFilter:
		return 1
	case LayerClassifier:
		return 2
	default:
		return 3
	}
}

// Label is a classifier output label.
type Label string

const (
	LabelToxic        Label = "toxic"
	LabelSevereToxic  Label = "severe_toxic"
	LabelObscene      Label = "obscene"
	LabelThreat       Label = "threat"
	LabelInsult       Label = "insult"
	LabelIdentityHate Label = "identity_hate"
)

// AllLabels lists every label the classifier is expected to score.
var AllLabels = []Label{
	LabelToxic,
	LabelSevereToxic,
	LabelObscene,
	LabelThreat,
	LabelInsult,
	LabelIdentityHate,
}

// IssueTypeForLabel maps a classifier label to the issue category it reports.
func IssueTypeForLabel(label Label) IssueType {
	switch label {
	case LabelToxic, LabelSevereToxic:
		return IssueToxicity
	case LabelObscene:
		return IssueObscenity
	case LabelThreat:
		return IssueThreat
	case LabelInsult:
		return IssueInsult
	case LabelIdentityHate:
		return IssueHateSpeech
	default:
		return IssueToxicity
	}
}

// Level grades how strongly a piece of text should be acted on.
type Level string

const (
	LevelOK             Level = "ok"
	LevelRecommendation Level = "recommendation"
	LevelWarning        Level = "warning"
	LevelCritical       Level = "critical"
)

// Rank returns the ordering position of the level, from LevelOK (0) up to
// LevelCritical (3).
func (l Level) Rank() int {
	switch l {
	case LevelRecommendation:
		return 1
	case LevelWarning:
		return 2
	case LevelCritical:
		return 3
	default:
		return 0
	}
}

// ParseLevel resolves a level name to its typed value.
func ParseLevel(name string) (Level, bool) {
	switch name {
	case string(LevelOK):
		return LevelOK, true
	case string(LevelRecommendation):
		return LevelRecommendation, true
	case string(LevelWarning):
		return LevelWarning, true
	case string(LevelCritical):
		return LevelCritical, true
	default:
		return "", false
	}
}

// Issue is a single detected problem with a piece of text.
type Issue struct {
	Type   IssueType `json:"type"`
	Score  float64   `json:"score"`
	Source Layer     `json:"source"`
}

// EncodedInput is the fixed-length numeric form of a text, ready for the
// classifier. TokenIDs and AttentionMask always have the same length; mask
// positions are 1 for real tokens and 0 for padding.
type EncodedInput struct {
	TokenIDs      []int
	AttentionMask []int
}

// ModerationResult is the outcome of analyzing one piece of text.
type ModerationResult struct {
	IsAcceptable     bool    `json:"is_acceptable"`
	Level            Level   `json:"level"`
	SeverityScore    float64 `json:"severity_score"`
	Issues           []Issue `json:"issues"`
	UserMessage      string  `json:"user_message"`
	AnalyzedText     string  `json:"analyzed_text"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
	LayersUsed       []Layer `json:"layers_used"`
	WasCached        bool    `json:"was_cached"`
}

// PrimaryIssue returns the highest-scoring issue, or nil when there are none.
// On equal scores the first detected issue wins.
func (r *ModerationResult) PrimaryIssue() *Issue {
	if len(r.Issues) == 0 {
		return nil
	}
	primary := &r.Issues[0]
	for i := 1; i < len(r.Issues); i++ {
		if r.Issues[i].Score > primary.Score {
			primary = &r.Issues[i]
		}
	}
	return primary
}

// Clone returns a deep copy of the result that can be stored or mutated
// independently of the original.
func (r *ModerationResult) Clone() *ModerationResult {
	out := *r
	out.Issues = append([]Issue(nil), r.Issues...)
	out.LayersUsed = append([]Layer(nil), r.LayersUsed...)
	return &out
}

// CachedCopy returns the result as served from the cache layer: processing
// time reset to zero, the cache layer prepended to the original sequence and
// the cached flag set. Level and severity are preserved verbatim, never
// re-derived.
func (r *ModerationResult) CachedCopy() *ModerationResult {
	out := r.Clone()
	out.LayersUsed = append([]Layer{LayerCache}, r.LayersUsed...)
	out.ProcessingTimeMs = 0
	out.WasCached = true
	return out
}

// PipelineMode selects which analysis layers run.
type PipelineMode string

const (
	ModeClassifierOnly         PipelineMode = "classifier_only"
	ModeClassifierWithKeywords PipelineMode = "classifier_with_keywords"
	ModeKeywordsOnly           PipelineMode = "keywords_only"
)

// ParseMode resolves a pipeline mode name to its typed value.
func ParseMode(name string) (PipelineMode, bool) {
	switch name {
	case string(ModeClassifierOnly):
		return ModeClassifierOnly, true
	case string(ModeClassifierWithKeywords):
		return ModeClassifierWithKeywords, true
	case string(ModeKeywordsOnly):
		return ModeKeywordsOnly, true
	default:
		return "", false
	}
}

// ModerationConfig fixes the decision policy for a service instance. It is
// immutable once the service is constructed.
type ModerationConfig struct {
	ToxicityThreshold float64
	CacheCapacity     int
	Mode              PipelineMode
}

// Named presets. These are fixed policy tuples, not distinct code paths.
var (
	PresetBalanced = ModerationConfig{ToxicityThreshold: 0.5, CacheCapacity: 1000, Mode: ModeClassifierWithKeywords}
	PresetStrict   = ModerationConfig{ToxicityThreshold: 0.3, CacheCapacity: 1000, Mode: ModeClassifierWithKeywords}
	PresetLenient  = ModerationConfig{ToxicityThreshold: 0.7, CacheCapacity: 1000, Mode: ModeClassifierOnly}
	PresetFast     = ModerationConfig{ToxicityThreshold: 0.5, CacheCapacity: 2000, Mode: ModeKeywordsOnly}
)

// PresetByName looks up a named preset configuration.
func PresetByName(name string) (ModerationConfig, bool) {
	switch name {
	case "balanced":
		return PresetBalanced, true
	case "strict":
		return PresetStrict, true
	case "lenient":
		return PresetLenient, true
	case "fast":
		return PresetFast, true
	default:
		return ModerationConfig{}, false
	}
}

// CacheStats reports occupancy of a bounded result cache.
type CacheStats struct {
	Capacity    int     `json:"capacity"`
	Count       int     `json:"count"`
	Utilization float64 `json:"utilization"`
}

// DecisionRecord is the persisted audit form of a moderation decision. The
// analyzed text itself is never stored, only its hash and length.
type DecisionRecord struct {
	ID               string    `json:"id"`
	TextHash         string    `json:"text_hash"`
	TextLength       int       `json:"text_length"`
	Level            Level     `json:"level"`
	SeverityScore    float64   `json:"severity_score"`
	IsAcceptable     bool      `json:"is_acceptable"`
	LayersUsed       []Layer   `json:"layers_used"`
	Issues           []Issue   `json:"issues"`
	ProcessingTimeMs float64   `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// Review is an independent second opinion on an escalated decision, produced
// by an external moderation provider for human reviewers. It never feeds back
// into the pipeline's own decision.
type Review struct {
	Provider   string            `json:"provider"`
	Scores     map[Label]float64 `json:"scores"`
	Summary    string            `json:"summary"`
	ReviewedAt time.Time         `json:"reviewed_at"`
}

// EscalationJob carries one decision into the background review flow. Text
// is the normalized input; Record and Result are snapshots and must not be
// mutated by the receiver.
type EscalationJob struct {
	Record *DecisionRecord
	Text   string
	Result *ModerationResult
}

// DecisionEvent is the stream form of a moderation decision. Like the audit
// record it carries the text hash, never the text.
type DecisionEvent struct {
	ID               string    `json:"id"`
	TextHash         string    `json:"text_hash"`
	Level            Level     `json:"level"`
	SeverityScore    float64   `json:"severity_score"`
	IsAcceptable     bool      `json:"is_acceptable"`
	LayersUsed       []Layer   `json:"layers_used"`
	ProcessingTimeMs float64   `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// Event converts an audit record into its stream form.
func (r *DecisionRecord) Event() *DecisionEvent {
	return &DecisionEvent{
		ID:               r.ID,
		TextHash:         r.TextHash,
		Level:            r.Level,
		SeverityScore:    r.SeverityScore,
		IsAcceptable:     r.IsAcceptable,
		LayersUsed:       append([]Layer(nil), r.LayersUsed...),
		ProcessingTimeMs: r.ProcessingTimeMs,
		CreatedAt:        r.CreatedAt,
	}
}
