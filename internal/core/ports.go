package core

import (
	"context"
	"errors"
)

var (
	// ErrModelUnavailable is returned by classifiers when no model is loaded
	// or the serving backend cannot be reached.
	ErrModelUnavailable = errors.New("classifier model unavailable")
	// ErrInvalidOutput is returned by classifiers when the score vector they
	// produced is malformed (missing labels, out-of-range or NaN scores).
	ErrInvalidOutput = errors.New("classifier returned invalid output")
)

// Tokenizer encodes text into the fixed-length numeric form the classifier
// consumes. Encoding is total: it succeeds for any input, including empty.
type Tokenizer interface {
	Encode(text string) EncodedInput
}

// KeywordChecker scans text for lexical policy violations.
type KeywordChecker interface {
	// Check returns zero or more issues found in the text.
	Check(text string) []Issue
}

// TextClassifier defines the interface for neural toxicity scoring backends.
type TextClassifier interface {
	// Predict scores an encoded text against the closed label set. Both
	// slices have equal length. Failures must be distinguishable via
	// ErrModelUnavailable and ErrInvalidOutput.
	Predict(ctx context.Context, tokenIDs []int, attentionMask []int) (map[Label]float64, error)
}

// ResultCache defines the interface for caching moderation results keyed by
// normalized text.
type ResultCache interface {
	// Get retrieves the cached result for a key and reports whether it was present.
	Get(ctx context.Context, key string) (*ModerationResult, bool)

	// Set stores a result under a key, replacing any previous value.
	Set(ctx context.Context, key string, result *ModerationResult) error

	// Remove deletes a single cache entry.
	Remove(ctx context.Context, key string) error

	// Clear deletes all cache entries.
	Clear(ctx context.Context) error
}

// CacheStatsProvider is implemented by cache backends that can report their
// occupancy, such as the in-process LRU cache.
type CacheStatsProvider interface {
	Stats() CacheStats
}

// DecisionLog defines the interface for persisting moderation decisions for
// later audit.
type DecisionLog interface {
	// Record stores a decision record.
	Record(ctx context.Context, record *DecisionRecord) error

	// AttachReview adds a second opinion to an already recorded decision.
	AttachReview(ctx context.Context, id string, review *Review) error

	// Cleanup removes records older than the retention window.
	Cleanup(ctx context.Context) error
}

// Reviewer obtains an independent second opinion on a decision from an
// external moderation provider.
type Reviewer interface {
	Review(ctx context.Context, text string, result *ModerationResult) (*Review, error)
}

// Notifier delivers alerts about escalated decisions to operators.
type Notifier interface {
	Notify(ctx context.Context, record *DecisionRecord, review *Review) error
}

// EventPublisher emits decision events to an external stream.
type EventPublisher interface {
	Publish(ctx context.Context, event *DecisionEvent) error
}

// Escalator hands decisions to a background review flow. Submissions must
// never block the caller.
type Escalator interface {
	Submit(job *EscalationJob)
}
