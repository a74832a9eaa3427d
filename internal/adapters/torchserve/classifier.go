// Package torchserve implements the TextClassifier port against a TorchServe
// inference endpoint.
package torchserve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// Classifier calls a TorchServe model over HTTP. A circuit breaker guards the
// endpoint so a dead model server fails fast instead of eating the request
// timeout on every call.
type Classifier struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// Config holds the TorchServe connection settings.
type Config struct {
	BaseURL             string
	ModelName           string
	Timeout             time.Duration
	BreakerMaxFailures  uint32
	BreakerResetTimeout time.Duration
}

type predictRequest struct {
	TokenIDs      []int `json:"token_ids"`
	AttentionMask []int `json:"attention_mask"`
}

// NewClassifier creates a new TorchServe classifier client.
func NewClassifier(cfg Config, logger *zap.Logger) *Classifier {
	settings := gobreaker.Settings{
		Name:    "torchserve",
		Timeout: cfg.BreakerResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Classifier circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Classifier{
		baseURL:    cfg.BaseURL,
		modelName:  cfg.ModelName,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
	}
}

// Predict scores the encoded text. Connection problems and non-success
// statuses map to core.ErrModelUnavailable, undecodable or incomplete score
// vectors to core.ErrInvalidOutput.
func (c *Classifier) Predict(ctx context.Context, tokenIDs []int, attentionMask []int) (map[core.Label]float64, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doPredict(ctx, tokenIDs, attentionMask)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit breaker open", core.ErrModelUnavailable)
		}
		return nil, err
	}
	return out.(map[core.Label]float64), nil
}

func (c *Classifier) doPredict(ctx context.Context, tokenIDs []int, attentionMask []int) (map[core.Label]float64, error) {
	payload, err := json.Marshal(predictRequest{TokenIDs: tokenIDs, AttentionMask: attentionMask})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	url := fmt.Sprintf("%s/predictions/%s", c.baseURL, c.modelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: service returned status %d", core.ErrModelUnavailable, resp.StatusCode)
	}

	var raw map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidOutput, err)
	}

	scores := make(map[core.Label]float64, len(core.AllLabels))
	for _, label := range core.AllLabels {
		score, ok := raw[string(label)]
		if !ok {
			return nil, fmt.Errorf("%w: missing label %q", core.ErrInvalidOutput, label)
		}
		if math.IsNaN(score) || score < 0 || score > 1 {
			return nil, fmt.Errorf("%w: label %q score %v out of range", core.ErrInvalidOutput, label, score)
		}
		scores[label] = score
	}
	return scores, nil
}

// Health checks whether the model server answers its ping endpoint.
func (c *Classifier) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ping returned status %d", core.ErrModelUnavailable, resp.StatusCode)
	}
	return nil
}
