package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockClassifier is a mock implementation of TextClassifier.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Predict(ctx context.Context, tokenIDs []int, attentionMask []int) (map[Label]float64, error) {
	args := m.Called(ctx, tokenIDs, attentionMask)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[Label]float64), args.Error(1)
}

type stubTokenizer struct {
	lastText string
}

func (s *stubTokenizer) Encode(text string) EncodedInput {
	s.lastText = text
	return EncodedInput{TokenIDs: []int{0, 5, 1}, AttentionMask: []int{1, 1, 1}}
}

type stubKeywords struct {
	issues []Issue
	calls  int
}

func (s *stubKeywords) Check(text string) []Issue {
	s.calls++
	return s.issues
}

type stubCache struct {
	mu      sync.Mutex
	entries map[string]*ModerationResult
	setErr  error
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]*ModerationResult)}
}

func (s *stubCache) Get(_ context.Context, key string) (*ModerationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.entries[key]
	return r, ok
}

func (s *stubCache) Set(_ context.Context, key string, result *ModerationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[key] = result
	return nil
}

func (s *stubCache) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *stubCache) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*ModerationResult)
	return nil
}

type statsCache struct {
	stubCache
	stats CacheStats
}

func (s *statsCache) Stats() CacheStats { return s.stats }

type stubAudit struct {
	mu      sync.Mutex
	records []*DecisionRecord
}

func (s *stubAudit) Record(_ context.Context, record *DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *stubAudit) AttachReview(context.Context, string, *Review) error { return nil }
func (s *stubAudit) Cleanup(context.Context) error                       { return nil }

type stubEscalator struct {
	mu   sync.Mutex
	jobs []*EscalationJob
}

func (s *stubEscalator) Submit(job *EscalationJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

type stubEvents struct {
	published chan *DecisionEvent
}

func (s *stubEvents) Publish(_ context.Context, event *DecisionEvent) error {
	s.published <- event
	return nil
}

func toxicScores(toxic float64) map[Label]float64 {
	scores := map[Label]float64{}
	for _, label := range AllLabels {
		scores[label] = 0.01
	}
	scores[LabelToxic] = toxic
	return scores
}

func newTestService(classifier TextClassifier, keywords KeywordChecker, cache ResultCache, cfg ModerationConfig) *ModerationService {
	return NewModerationService(&stubTokenizer{}, keywords, classifier, cache, nil, nil, nil, zap.NewNop(), cfg)
}

func TestAnalyzeEmptyText(t *testing.T) {
	classifier := new(MockClassifier)
	svc := newTestService(classifier, &stubKeywords{}, newStubCache(), PresetBalanced)

	for _, text := range []string{"", "   ", "\t\n"} {
		result := svc.Analyze(context.Background(), text)

		assert.True(t, result.IsAcceptable, "input %q", text)
		assert.Equal(t, LevelOK, result.Level)
		assert.Equal(t, 0.0, result.SeverityScore)
		assert.Empty(t, result.Issues)
		assert.Empty(t, result.LayersUsed)
		assert.False(t, result.WasCached)
	}
	classifier.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeNormalizesText(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(toxicScores(0.1), nil)
	tok := &stubTokenizer{}
	svc := NewModerationService(tok, &stubKeywords{}, classifier, nil, nil, nil, nil, zap.NewNop(), PresetBalanced)

	result := svc.Analyze(context.Background(), "  HeLLo World  ")

	assert.Equal(t, "hello world", result.AnalyzedText)
	assert.Equal(t, "hello world", tok.lastText)
}

func TestAnalyzeClassifierIssues(t *testing.T) {
	classifier := new(MockClassifier)
	scores := toxicScores(0.93)
	scores[LabelThreat] = 0.72
	classifier.On("Predict", mock.Anything, []int{0, 5, 1}, []int{1, 1, 1}).Return(scores, nil)
	svc := newTestService(classifier, &stubKeywords{}, nil, PresetBalanced)

	result := svc.Analyze(context.Background(), "some text")

	assert.False(t, result.IsAcceptable)
	require.Len(t, result.Issues, 2)
	assert.Equal(t, IssueToxicity, result.Issues[0].Type)
	assert.Equal(t, 0.93, result.Issues[0].Score)
	assert.Equal(t, LayerClassifier, result.Issues[0].Source)
	assert.Equal(t, IssueThreat, result.Issues[1].Type)
	assert.Equal(t, []Layer{LayerClassifier}, result.LayersUsed)

	primary := result.PrimaryIssue()
	require.NotNil(t, primary)
	assert.Equal(t, IssueToxicity, primary.Type)
	classifier.AssertExpectations(t)
}

func TestAnalyzeThresholdIsStrict(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(toxicScores(0.5), nil)
	svc := newTestService(classifier, &stubKeywords{}, nil, PresetBalanced)

	result := svc.Analyze(context.Background(), "borderline")

	// A score exactly at the threshold does not become an issue.
	assert.Empty(t, result.Issues)
	assert.True(t, result.IsAcceptable)
}

func TestAnalyzeClassifierFailureDegrades(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(nil, ErrModelUnavailable)
	svc := newTestService(classifier, &stubKeywords{}, nil, PresetBalanced)

	result := svc.Analyze(context.Background(), "anything at all")

	assert.True(t, result.IsAcceptable)
	assert.Equal(t, LevelOK, result.Level)
	assert.Empty(t, result.Issues)
	assert.Equal(t, []Layer{LayerClassifier}, result.LayersUsed, "failed classifier stage is still recorded")
}

func TestAnalyzeClassifierFailureKeepsKeywordSignal(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	kw := &stubKeywords{issues: []Issue{{Type: IssueCriticalKeyword, Score: 0.70, Source: LayerKeywordFilter}}}
	svc := newTestService(classifier, kw, nil, PresetBalanced)

	result := svc.Analyze(context.Background(), "bad phrase")

	assert.False(t, result.IsAcceptable)
	assert.Equal(t, LevelCritical, result.Level)
	assert.Equal(t, []Layer{LayerKeywordFilter, LayerClassifier}, result.LayersUsed)
}

func TestAnalyzeNilClassifierBehavesAsUnavailable(t *testing.T) {
	svc := newTestService(nil, &stubKeywords{}, nil, PresetBalanced)

	result := svc.Analyze(context.Background(), "anything")

	assert.True(t, result.IsAcceptable)
	assert.Equal(t, []Layer{LayerClassifier}, result.LayersUsed)
}

func TestAnalyzeKeywordsOnlyMode(t *testing.T) {
	classifier := new(MockClassifier)
	kw := &stubKeywords{issues: []Issue{{Type: IssueHateSpeech, Score: 0.70, Source: LayerKeywordFilter}}}
	svc := newTestService(classifier, kw, nil, PresetFast)

	result := svc.Analyze(context.Background(), "slur in here")

	assert.False(t, result.IsAcceptable)
	assert.Equal(t, []Layer{LayerKeywordFilter}, result.LayersUsed)
	assert.NotContains(t, result.LayersUsed, LayerClassifier)
	classifier.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeClassifierOnlyMode(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(toxicScores(0.1), nil)
	kw := &stubKeywords{issues: []Issue{{Type: IssueCriticalKeyword, Score: 0.70, Source: LayerKeywordFilter}}}
	svc := newTestService(classifier, kw, nil, PresetLenient)

	result := svc.Analyze(context.Background(), "phrase that would match keywords")

	assert.True(t, result.IsAcceptable)
	assert.NotContains(t, result.LayersUsed, LayerKeywordFilter)
	assert.Equal(t, 0, kw.calls, "keyword filter is not consulted in classifier-only mode")
}

func TestAnalyzeKeywordLayerOnlyRecordedOnMatch(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(toxicScores(0.1), nil)
	kw := &stubKeywords{} // no issues
	svc := newTestService(classifier, kw, nil, PresetBalanced)

	result := svc.Analyze(context.Background(), "clean text")

	assert.Equal(t, []Layer{LayerClassifier}, result.LayersUsed)
	assert.Equal(t, 1, kw.calls)
}

func TestAnalyzeCachesAndServesCopies(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(toxicScores(0.93), nil)
	cache := newStubCache()
	svc := newTestService(classifier, &stubKeywords{}, cache, PresetBalanced)

	first := svc.Analyze(context.Background(), "Some Text")
	require.False(t, first.WasCached)
	require.NotEmpty(t, first.Issues)

	second := svc.Analyze(context.Background(), "  some text ")

	assert.True(t, second.WasCached)
	assert.Equal(t, 0.0, second.ProcessingTimeMs)
	assert.Equal(t, []Layer{LayerCache, LayerClassifier}, second.LayersUsed)
	assert.Equal(t, first.Level, second.Level)
	assert.Equal(t, first.SeverityScore, second.SeverityScore)
	assert.Equal(t, first.Issues, second.Issues)
	classifier.AssertNumberOfCalls(t, "Predict", 1)

	// The served copy is detached from the stored entry.
	second.Issues[0].Score = 0.0
	third := svc.Analyze(context.Background(), "some text")
	assert.Equal(t, 0.93, third.Issues[0].Score)
}

func TestAnalyzeCacheHitPreservesLevelVerbatim(t *testing.T) {
	cache := newStubCache()
	svc := newTestService(new(MockClassifier), &stubKeywords{}, cache, PresetBalanced)

	// A doctored entry proves the level is served as stored, not re-derived.
	doctored := &ModerationResult{
		IsAcceptable:  false,
		Level:         LevelCritical,
		SeverityScore: 0.1,
		Issues:        []Issue{},
		AnalyzedText:  "odd entry",
		LayersUsed:    []Layer{LayerClassifier},
	}
	require.NoError(t, cache.Set(context.Background(), "odd entry", doctored))

	result := svc.Analyze(context.Background(), "odd entry")

	assert.True(t, result.WasCached)
	assert.Equal(t, LevelCritical, result.Level)
	assert.Equal(t, 0.1, result.SeverityScore)
}

func TestAnalyzeCacheSetFailureIsNonFatal(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(toxicScores(0.1), nil)
	cache := newStubCache()
	cache.setErr = errors.New("backend down")
	svc := newTestService(classifier, &stubKeywords{}, cache, PresetBalanced)

	result := svc.Analyze(context.Background(), "text")
	assert.NotNil(t, result)
	assert.True(t, result.IsAcceptable)
}

func TestAnalyzeRecordsAudit(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(toxicScores(0.93), nil)
	audit := &stubAudit{}
	svc := NewModerationService(&stubTokenizer{}, &stubKeywords{}, classifier, nil, audit, nil, nil, zap.NewNop(), PresetBalanced)

	svc.Analyze(context.Background(), "Audit me")

	require.Len(t, audit.records, 1)
	record := audit.records[0]
	assert.NotEmpty(t, record.ID)
	assert.Len(t, record.TextHash, 64)
	assert.Equal(t, len("audit me"), record.TextLength)
	assert.False(t, record.IsAcceptable)
	assert.Equal(t, []Layer{LayerClassifier}, record.LayersUsed)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestAnalyzeSubmitsEscalation(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(toxicScores(0.93), nil)
	escalator := &stubEscalator{}
	svc := NewModerationService(&stubTokenizer{}, &stubKeywords{}, classifier, nil, nil, escalator, nil, zap.NewNop(), PresetBalanced)

	svc.Analyze(context.Background(), "Hostile text")

	require.Len(t, escalator.jobs, 1)
	job := escalator.jobs[0]
	require.NotNil(t, job.Record)
	assert.NotEmpty(t, job.Record.ID)
	assert.Equal(t, "hostile text", job.Text)
	assert.False(t, job.Result.IsAcceptable)
}

func TestAnalyzePublishesDecisionEvent(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(toxicScores(0.93), nil)
	events := &stubEvents{published: make(chan *DecisionEvent, 1)}
	svc := NewModerationService(&stubTokenizer{}, &stubKeywords{}, classifier, nil, nil, nil, events, zap.NewNop(), PresetBalanced)

	svc.Analyze(context.Background(), "publish me")

	select {
	case event := <-events.published:
		assert.NotEmpty(t, event.ID)
		assert.Len(t, event.TextHash, 64)
		assert.False(t, event.IsAcceptable)
	case <-time.After(2 * time.Second):
		t.Fatal("no decision event published")
	}
}

func TestCacheStats(t *testing.T) {
	svc := newTestService(new(MockClassifier), &stubKeywords{}, nil, PresetBalanced)
	_, ok := svc.CacheStats()
	assert.False(t, ok, "no cache, no stats")

	plain := newStubCache()
	svc = newTestService(new(MockClassifier), &stubKeywords{}, plain, PresetBalanced)
	_, ok = svc.CacheStats()
	assert.False(t, ok, "backend without stats support")

	withStats := &statsCache{stats: CacheStats{Capacity: 10, Count: 5, Utilization: 0.5}}
	withStats.entries = make(map[string]*ModerationResult)
	svc = newTestService(new(MockClassifier), &stubKeywords{}, withStats, PresetBalanced)
	stats, ok := svc.CacheStats()
	require.True(t, ok)
	assert.Equal(t, 10, stats.Capacity)
	assert.Equal(t, 5, stats.Count)
}

func TestClearCache(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(toxicScores(0.93), nil)
	cache := newStubCache()
	svc := newTestService(classifier, &stubKeywords{}, cache, PresetBalanced)

	svc.Analyze(context.Background(), "first")
	require.NoError(t, svc.ClearCache(context.Background()))

	svc.Analyze(context.Background(), "first")
	classifier.AssertNumberOfCalls(t, "Predict", 2)
}
