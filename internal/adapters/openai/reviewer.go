// Package openai implements the Reviewer port against the OpenAI moderation
// API.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	gopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/textutil"
)

// Config holds the OpenAI reviewer settings. BaseURL is optional and mainly
// serves proxies and tests.
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	MaxBodyRunes int
}

// Reviewer obtains a second opinion from the OpenAI moderation endpoint and
// maps its categories onto the pipeline's label set.
type Reviewer struct {
	client    *gopenai.Client
	model     string
	maxBody   int
	processor *textutil.Processor
	logger    *zap.Logger
}

// NewReviewer creates a new OpenAI reviewer.
func NewReviewer(cfg Config, logger *zap.Logger) *Reviewer {
	clientCfg := gopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Reviewer{
		client:    gopenai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxBody:   cfg.MaxBodyRunes,
		processor: textutil.NewProcessor(logger),
		logger:    logger,
	}
}

// Review asks the moderation endpoint for category scores on the text.
func (r *Reviewer) Review(ctx context.Context, text string, result *core.ModerationResult) (*core.Review, error) {
	request := gopenai.ModerationRequest{
		Input: r.processor.Prepare(text, r.maxBody),
	}
	if r.model != "" {
		request.Model = r.model
	}

	response, err := r.client.Moderations(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to call moderation endpoint: %w", err)
	}
	if len(response.Results) == 0 {
		return nil, fmt.Errorf("moderation endpoint returned no results")
	}

	verdict := response.Results[0]
	scores := mapCategoryScores(verdict.CategoryScores)

	r.logger.Debug("OpenAI review completed",
		zap.Bool("flagged", verdict.Flagged),
		zap.String("pipeline_level", string(result.Level)))

	return &core.Review{
		Provider:   "openai",
		Scores:     scores,
		Summary:    summarize(verdict.Flagged, scores),
		ReviewedAt: time.Now().UTC(),
	}, nil
}

// mapCategoryScores projects the provider's taxonomy onto the pipeline label
// set. Harassment stands in for both the toxic and insult labels, which the
// provider does not separate.
func mapCategoryScores(cs gopenai.ResultCategoryScores) map[core.Label]float64 {
	return map[core.Label]float64{
		core.LabelToxic:        float64(cs.Harassment),
		core.LabelSevereToxic:  float64(cs.HarassmentThreatening),
		core.LabelObscene:      float64(cs.Sexual),
		core.LabelThreat:       float64(cs.Violence),
		core.LabelInsult:       float64(cs.Harassment),
		core.LabelIdentityHate: float64(cs.Hate),
	}
}

func summarize(flagged bool, scores map[core.Label]float64) string {
	top := core.LabelToxic
	for _, label := range core.AllLabels {
		if scores[label] > scores[top] {
			top = label
		}
	}
	verdict := "did not flag"
	if flagged {
		verdict = "flagged"
	}
	return fmt.Sprintf("provider %s the text; strongest signal: %s (%.2f)",
		verdict, strings.ReplaceAll(string(top), "_", " "), scores[top])
}
