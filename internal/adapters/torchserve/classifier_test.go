package torchserve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:             baseURL,
		ModelName:           "toxic-bert",
		Timeout:             2 * time.Second,
		BreakerMaxFailures:  5,
		BreakerResetTimeout: time.Minute,
	}
}

func fullScores(toxic float64) map[string]float64 {
	return map[string]float64{
		"toxic":         toxic,
		"severe_toxic":  0.02,
		"obscene":       0.03,
		"threat":        0.01,
		"insult":        0.04,
		"identity_hate": 0.01,
	}
}

func TestPredictSuccess(t *testing.T) {
	var gotBody predictRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predictions/toxic-bert", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(fullScores(0.91))
	}))
	defer server.Close()

	classifier := NewClassifier(testConfig(server.URL), zap.NewNop())
	scores, err := classifier.Predict(context.Background(), []int{101, 2023, 102}, []int{1, 1, 1})

	require.NoError(t, err)
	assert.Equal(t, []int{101, 2023, 102}, gotBody.TokenIDs)
	assert.Equal(t, []int{1, 1, 1}, gotBody.AttentionMask)
	assert.Equal(t, 0.91, scores[core.LabelToxic])
	assert.Len(t, scores, 6)
}

func TestPredictServerErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"model not found", http.StatusNotFound},
		{"service unavailable", http.StatusServiceUnavailable},
		{"internal error", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			classifier := NewClassifier(testConfig(server.URL), zap.NewNop())
			_, err := classifier.Predict(context.Background(), []int{101}, []int{1})

			assert.ErrorIs(t, err, core.ErrModelUnavailable)
		})
	}
}

func TestPredictConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	classifier := NewClassifier(testConfig(server.URL), zap.NewNop())
	_, err := classifier.Predict(context.Background(), []int{101}, []int{1})

	assert.ErrorIs(t, err, core.ErrModelUnavailable)
}

func TestPredictInvalidOutput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "model exploded"},
		{"missing labels", `{"toxic": 0.5}`},
		{"score above one", `{"toxic": 1.5, "severe_toxic": 0, "obscene": 0, "threat": 0, "insult": 0, "identity_hate": 0}`},
		{"negative score", `{"toxic": -0.1, "severe_toxic": 0, "obscene": 0, "threat": 0, "insult": 0, "identity_hate": 0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			classifier := NewClassifier(testConfig(server.URL), zap.NewNop())
			_, err := classifier.Predict(context.Background(), []int{101}, []int{1})

			assert.ErrorIs(t, err, core.ErrInvalidOutput)
		})
	}
}

func TestPredictCircuitBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.BreakerMaxFailures = 2
	classifier := NewClassifier(cfg, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := classifier.Predict(context.Background(), []int{101}, []int{1})
		assert.ErrorIs(t, err, core.ErrModelUnavailable)
	}
	require.Equal(t, int32(2), hits.Load())

	// Breaker is open now: the endpoint is not called anymore.
	_, err := classifier.Predict(context.Background(), []int{101}, []int{1})
	assert.ErrorIs(t, err, core.ErrModelUnavailable)
	assert.Equal(t, int32(2), hits.Load())
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	classifier := NewClassifier(testConfig(server.URL), zap.NewNop())
	assert.NoError(t, classifier.Health(context.Background()))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	downClassifier := NewClassifier(testConfig(down.URL), zap.NewNop())
	assert.Error(t, downClassifier.Health(context.Background()))
}
