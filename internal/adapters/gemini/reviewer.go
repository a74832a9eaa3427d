// Package gemini implements the Reviewer port against Google Gemini models.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/textutil"
)

// Config holds the Gemini reviewer settings.
type Config struct {
	APIKey       string
	ModelName    string
	MaxTokens    int
	Temperature  float64
	TopP         float64
	MaxBodyRunes int
}

// Reviewer asks a Gemini model to score the text per category.
type Reviewer struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	maxBody   int
	processor *textutil.Processor
	logger    *zap.Logger
}

// NewReviewer creates a new Gemini reviewer.
func NewReviewer(ctx context.Context, cfg Config, logger *zap.Logger) (*Reviewer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)
	model.SetTemperature(float32(cfg.Temperature))
	model.SetTopP(float32(cfg.TopP))
	model.SetMaxOutputTokens(int32(cfg.MaxTokens))

	return &Reviewer{
		client:    client,
		model:     model,
		maxBody:   cfg.MaxBodyRunes,
		processor: textutil.NewProcessor(logger),
		logger:    logger,
	}, nil
}

const reviewPrompt = `You are auditing an automated content moderation decision. The pipeline rated the message below as %s with severity %.2f.

Rate the message yourself for each category with a number between 0.0 and 1.0:
- toxic
- severe_toxic
- obscene
- threat
- insult
- identity_hate

Message:
%s

Respond with only a JSON object holding the six numeric category fields and a short "summary" string.`

type reviewScores struct {
	Toxic        float64 `json:"toxic"`
	SevereToxic  float64 `json:"severe_toxic"`
	Obscene      float64 `json:"obscene"`
	Threat       float64 `json:"threat"`
	Insult       float64 `json:"insult"`
	IdentityHate float64 `json:"identity_hate"`
	Summary      string  `json:"summary"`
}

// Review generates the model's verdict and parses its category scores.
func (r *Reviewer) Review(ctx context.Context, text string, result *core.ModerationResult) (*core.Review, error) {
	prompt := fmt.Sprintf(reviewPrompt, result.Level, result.SeverityScore,
		r.processor.Prepare(text, r.maxBody))

	response, err := r.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate review: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil ||
		len(response.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("model returned no candidates")
	}
	responseText := fmt.Sprintf("%v", response.Candidates[0].Content.Parts[0])

	scores, err := parseReviewScores(responseText)
	if err != nil {
		return nil, err
	}

	return &core.Review{
		Provider:   "gemini",
		Scores:     scores.toLabelMap(),
		Summary:    scores.Summary,
		ReviewedAt: time.Now().UTC(),
	}, nil
}

// Close releases the underlying API client.
func (r *Reviewer) Close() error {
	return r.client.Close()
}

// parseReviewScores decodes the model's JSON verdict, falling back to the
// outermost brace pair when the object is wrapped in prose.
func parseReviewScores(responseText string) (*reviewScores, error) {
	var scores reviewScores
	if err := json.Unmarshal([]byte(responseText), &scores); err == nil {
		return &scores, nil
	}

	start := strings.Index(responseText, "{")
	end := strings.LastIndex(responseText, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(responseText[start:end+1]), &scores); err == nil {
			return &scores, nil
		}
	}
	return nil, fmt.Errorf("failed to locate review scores in model response")
}

func (s *reviewScores) toLabelMap() map[core.Label]float64 {
	return map[core.Label]float64{
		core.LabelToxic:        s.Toxic,
		core.LabelSevereToxic:  s.SevereToxic,
		core.LabelObscene:      s.Obscene,
		core.LabelThreat:       s.Threat,
		core.LabelInsult:       s.Insult,
		core.LabelIdentityHate: s.IdentityHate,
	}
}
