package escalation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/metrics"
)

type recordingReviewer struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (r *recordingReviewer) Review(_ context.Context, text string, _ *core.ModerationResult) (*core.Review, error) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return &core.Review{Provider: "stub", Summary: "looks bad", ReviewedAt: time.Now().UTC()}, nil
}

func (r *recordingReviewer) reviewed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

type gatedReviewer struct {
	entered chan struct{}
	gate    chan struct{}
	mu      sync.Mutex
	count   int
}

func (r *gatedReviewer) Review(context.Context, string, *core.ModerationResult) (*core.Review, error) {
	r.entered <- struct{}{}
	<-r.gate
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
	return &core.Review{Provider: "stub", ReviewedAt: time.Now().UTC()}, nil
}

type notification struct {
	record *core.DecisionRecord
	review *core.Review
}

type channelNotifier struct {
	notified chan notification
}

func (n *channelNotifier) Notify(_ context.Context, record *core.DecisionRecord, review *core.Review) error {
	n.notified <- notification{record: record, review: review}
	return nil
}

type recordingLog struct {
	mu       sync.Mutex
	attached []string
}

func (l *recordingLog) Record(context.Context, *core.DecisionRecord) error { return nil }

func (l *recordingLog) AttachReview(_ context.Context, id string, _ *core.Review) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attached = append(l.attached, id)
	return nil
}

func (l *recordingLog) Cleanup(context.Context) error { return nil }

func escalationJob(level core.Level, acceptable bool) *core.EscalationJob {
	return &core.EscalationJob{
		Record: &core.DecisionRecord{
			ID:            "dec-1",
			TextHash:      "deadbeef",
			Level:         level,
			SeverityScore: 0.9,
			IsAcceptable:  acceptable,
			CreatedAt:     time.Now().UTC(),
		},
		Text: "hostile text",
		Result: &core.ModerationResult{
			IsAcceptable:  acceptable,
			Level:         level,
			SeverityScore: 0.9,
			Issues:        []core.Issue{{Type: core.IssueToxicity, Score: 0.9, Source: core.LayerClassifier}},
			LayersUsed:    []core.Layer{core.LayerClassifier},
		},
	}
}

func TestWorkerProcessesQualifyingJob(t *testing.T) {
	reviewer := &recordingReviewer{}
	decisionLog := &recordingLog{}
	notifier := &channelNotifier{notified: make(chan notification, 1)}

	w := NewWorker(reviewer, decisionLog, notifier, Config{TriggerLevel: core.LevelWarning}, zap.NewNop())
	defer w.Stop()

	w.Submit(escalationJob(core.LevelCritical, false))

	select {
	case got := <-notifier.notified:
		assert.Equal(t, "dec-1", got.record.ID)
		assert.Equal(t, "stub", got.review.Provider)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for escalation notification")
	}

	w.Stop()
	assert.Equal(t, []string{"hostile text"}, reviewer.reviewed())
	assert.Equal(t, []string{"dec-1"}, decisionLog.attached)
}

func TestWorkerSkipsAcceptableBelowTrigger(t *testing.T) {
	reviewer := &recordingReviewer{}

	w := NewWorker(reviewer, nil, nil, Config{TriggerLevel: core.LevelCritical}, zap.NewNop())

	w.Submit(escalationJob(core.LevelOK, true))
	w.Submit(escalationJob(core.LevelWarning, true))
	w.Stop()

	assert.Empty(t, reviewer.reviewed())
}

func TestWorkerEscalatesUnacceptableRegardlessOfLevel(t *testing.T) {
	reviewer := &recordingReviewer{}

	w := NewWorker(reviewer, nil, nil, Config{TriggerLevel: core.LevelCritical}, zap.NewNop())

	w.Submit(escalationJob(core.LevelWarning, false))
	w.Stop()

	assert.Len(t, reviewer.reviewed(), 1)
}

func TestWorkerReviewFailureSkipsNotification(t *testing.T) {
	reviewer := &recordingReviewer{err: errors.New("provider down")}
	notifier := &channelNotifier{notified: make(chan notification, 1)}

	w := NewWorker(reviewer, nil, notifier, Config{TriggerLevel: core.LevelWarning}, zap.NewNop())

	w.Submit(escalationJob(core.LevelCritical, false))
	w.Stop()

	assert.Len(t, reviewer.reviewed(), 1)
	assert.Empty(t, notifier.notified)
}

func TestWorkerDropsOnFullQueue(t *testing.T) {
	reviewer := &gatedReviewer{entered: make(chan struct{}, 8), gate: make(chan struct{})}

	w := NewWorker(reviewer, nil, nil, Config{TriggerLevel: core.LevelWarning, QueueSize: 1}, zap.NewNop())

	dropsBefore := testutil.ToFloat64(metrics.EscalationDropsTotal)

	// First job is picked up and parks inside the reviewer.
	w.Submit(escalationJob(core.LevelCritical, false))
	select {
	case <-reviewer.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never started processing")
	}

	// Second fills the queue, third has nowhere to go.
	w.Submit(escalationJob(core.LevelCritical, false))
	w.Submit(escalationJob(core.LevelCritical, false))

	close(reviewer.gate)
	w.Stop()

	reviewer.mu.Lock()
	processed := reviewer.count
	reviewer.mu.Unlock()

	assert.Equal(t, 2, processed)
	assert.Equal(t, dropsBefore+1, testutil.ToFloat64(metrics.EscalationDropsTotal))
}

func TestWorkerStopDrainsQueue(t *testing.T) {
	reviewer := &recordingReviewer{}

	w := NewWorker(reviewer, nil, nil, Config{TriggerLevel: core.LevelWarning, QueueSize: 16}, zap.NewNop())

	for i := 0; i < 5; i++ {
		w.Submit(escalationJob(core.LevelCritical, false))
	}
	w.Stop()

	assert.Len(t, reviewer.reviewed(), 5)
}

func TestWorkerIgnoresNilJob(t *testing.T) {
	reviewer := &recordingReviewer{}

	w := NewWorker(reviewer, nil, nil, Config{}, zap.NewNop())

	require.NotPanics(t, func() {
		w.Submit(nil)
		w.Submit(&core.EscalationJob{})
	})
	w.Stop()

	assert.Empty(t, reviewer.reviewed())
}
