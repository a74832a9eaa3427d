package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/metrics"
)

// ModerationService is the core service implementing the layered moderation
// pipeline. Analysis never fails: when the classifier is unreachable the
// service degrades to the signals it has and still returns a decision.
type ModerationService struct {
	tokenizer  Tokenizer
	keywords   KeywordChecker
	classifier TextClassifier
	cache      ResultCache
	audit      DecisionLog
	escalator  Escalator
	events     EventPublisher
	logger     *zap.Logger
	cfg        ModerationConfig
}

// NewModerationService creates a new moderation service. Cache, audit log,
// escalator and event publisher may be nil, which disables them.
func NewModerationService(
	tokenizer Tokenizer,
	keywords KeywordChecker,
	classifier TextClassifier,
	cache ResultCache,
	audit DecisionLog,
	escalator Escalator,
	events EventPublisher,
	logger *zap.Logger,
	cfg ModerationConfig,
) *ModerationService {
	return &ModerationService{
		tokenizer:  tokenizer,
		keywords:   keywords,
		classifier: classifier,
		cache:      cache,
		audit:      audit,
		escalator:  escalator,
		events:     events,
		logger:     logger,
		cfg:        cfg,
	}
}

// Config returns the decision policy the service was built with.
func (s *ModerationService) Config() ModerationConfig {
	return s.cfg
}

// Analyze runs the moderation pipeline on a piece of text and returns a
// decision. The stages run in a fixed order: normalize, cache lookup, keyword
// filter, classifier, aggregation, cache store.
func (s *ModerationService) Analyze(ctx context.Context, text string) *ModerationResult {
	start := time.Now()

	// Normalization fixes the cache key and the form every layer sees.
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return &ModerationResult{
			IsAcceptable: true,
			Level:        LevelOK,
			Issues:       []Issue{},
			UserMessage:  composeUserMessage(LevelOK, nil),
			LayersUsed:   []Layer{},
		}
	}

	// Check cache if enabled
	if s.cache != nil {
		if stored, found := s.cache.Get(ctx, normalized); found {
			metrics.CacheEventsTotal.WithLabelValues("hit").Inc()
			s.logger.Debug("Cache hit for analyzed text",
				zap.String("text_hash", hashText(normalized)),
				zap.String("level", string(stored.Level)))
			return stored.CachedCopy()
		}
		metrics.CacheEventsTotal.WithLabelValues("miss").Inc()
	}

	var issues []Issue
	var layers []Layer

	// Keyword filter stage. The layer is recorded only when it found something.
	if s.cfg.Mode != ModeClassifierOnly && s.keywords != nil {
		if found := s.keywords.Check(normalized); len(found) > 0 {
			issues = append(issues, found...)
			layers = append(layers, LayerKeywordFilter)
		}
	}

	// Classifier stage. The layer is recorded whenever the stage runs, even
	// when the call fails and the pipeline continues without its signal.
	if s.cfg.Mode != ModeKeywordsOnly {
		layers = append(layers, LayerClassifier)
		issues = append(issues, s.classify(ctx, normalized)...)
	}

	result := buildResult(s.cfg.ToxicityThreshold, normalized, issues, layers)
	result.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000.0

	// Cache the result if enabled
	if s.cache != nil {
		if err := s.cache.Set(ctx, normalized, result.Clone()); err != nil {
			s.logger.Error("Failed to cache moderation result", zap.Error(err))
		}
	}

	s.finish(ctx, normalized, result)

	return result
}

// classify encodes the text, calls the classifier and converts scores above
// the threshold into issues. Classifier failures degrade to an empty signal.
func (s *ModerationService) classify(ctx context.Context, normalized string) []Issue {
	encoded := s.tokenizer.Encode(normalized)

	scores, err := s.predict(ctx, encoded)
	if err != nil {
		metrics.ClassifierFailuresTotal.Inc()
		s.logger.Warn("Classifier call failed, continuing without classifier signal",
			zap.Error(err),
			zap.String("text_hash", hashText(normalized)))
		return nil
	}

	var issues []Issue
	for _, label := range AllLabels {
		score, ok := scores[label]
		if !ok {
			continue
		}
		if score > s.cfg.ToxicityThreshold {
			issues = append(issues, Issue{
				Type:   IssueTypeForLabel(label),
				Score:  score,
				Source: LayerClassifier,
			})
		}
	}
	return issues
}

func (s *ModerationService) predict(ctx context.Context, encoded EncodedInput) (map[Label]float64, error) {
	if s.classifier == nil {
		return nil, ErrModelUnavailable
	}
	return s.classifier.Predict(ctx, encoded.TokenIDs, encoded.AttentionMask)
}

// finish handles everything that happens after a decision is made: metrics,
// the audit record, escalation and the decision event. None of it changes
// the result.
func (s *ModerationService) finish(ctx context.Context, normalized string, result *ModerationResult) {
	metrics.DecisionsTotal.WithLabelValues(string(result.Level)).Inc()
	metrics.DecisionDuration.Observe(result.ProcessingTimeMs / 1000.0)
	if !result.IsAcceptable {
		metrics.RejectionsTotal.Inc()
	}

	record := &DecisionRecord{
		ID:               uuid.New().String(),
		TextHash:         hashText(normalized),
		TextLength:       utf8.RuneCountInString(normalized),
		Level:            result.Level,
		SeverityScore:    result.SeverityScore,
		IsAcceptable:     result.IsAcceptable,
		LayersUsed:       append([]Layer(nil), result.LayersUsed...),
		Issues:           append([]Issue(nil), result.Issues...),
		ProcessingTimeMs: result.ProcessingTimeMs,
		CreatedAt:        time.Now().UTC(),
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, record); err != nil {
			s.logger.Error("Failed to record decision",
				zap.Error(err),
				zap.String("decision_id", record.ID))
		}
	}

	if s.escalator != nil {
		s.escalator.Submit(&EscalationJob{
			Record: record,
			Text:   normalized,
			Result: result.Clone(),
		})
	}

	if s.events != nil {
		event := record.Event()
		go func() {
			if err := s.events.Publish(context.Background(), event); err != nil {
				s.logger.Warn("Failed to publish decision event",
					zap.Error(err),
					zap.String("decision_id", event.ID))
			}
		}()
	}
}

// CacheStats reports result cache occupancy. The second return value is
// false when caching is disabled or the backend cannot report stats.
func (s *ModerationService) CacheStats() (CacheStats, bool) {
	provider, ok := s.cache.(CacheStatsProvider)
	if !ok {
		return CacheStats{}, false
	}
	return provider.Stats(), true
}

// ClearCache drops every cached result.
func (s *ModerationService) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear(ctx)
}

// ClassifierHealth reports reachability of the classifier backend. It returns
// nil when no classifier is configured or the adapter has no health check.
func (s *ModerationService) ClassifierHealth(ctx context.Context) error {
	if s.classifier == nil {
		return nil
	}
	checker, ok := s.classifier.(interface{ Health(ctx context.Context) error })
	if !ok {
		return nil
	}
	return checker.Health(ctx)
}

// hashText returns the hex SHA-256 of the normalized text. Stored and logged
// in place of the text itself.
func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
