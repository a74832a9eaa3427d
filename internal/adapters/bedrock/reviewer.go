// Package bedrock implements the Reviewer port against AWS Bedrock text
// models.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/textutil"
)

// Config holds the Bedrock reviewer settings.
type Config struct {
	ModelID      string
	MaxTokens    int
	Temperature  float64
	TopP         float64
	MaxBodyRunes int
}

// Reviewer asks a Bedrock-hosted model to score the text per category. The
// request payload and response shape depend on the model family.
type Reviewer struct {
	client    *bedrockruntime.Client
	cfg       Config
	processor *textutil.Processor
	logger    *zap.Logger
}

// NewReviewer creates a new Bedrock reviewer on an existing runtime client.
func NewReviewer(client *bedrockruntime.Client, cfg Config, logger *zap.Logger) *Reviewer {
	return &Reviewer{
		client:    client,
		cfg:       cfg,
		processor: textutil.NewProcessor(logger),
		logger:    logger,
	}
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

// reviewScores is the JSON shape the prompt asks the model for.
type reviewScores struct {
	Toxic        float64 `json:"toxic"`
	SevereToxic  float64 `json:"severe_toxic"`
	Obscene      float64 `json:"obscene"`
	Threat       float64 `json:"threat"`
	Insult       float64 `json:"insult"`
	IdentityHate float64 `json:"identity_hate"`
	Summary      string  `json:"summary"`
}

// Review invokes the configured model and parses its category scores.
func (r *Reviewer) Review(ctx context.Context, text string, result *core.ModerationResult) (*core.Review, error) {
	prompt := fmt.Sprintf(reviewPrompt, result.Level, result.SeverityScore,
		r.processor.Prepare(text, r.cfg.MaxBodyRunes))

	payload, err := r.buildRequestPayload(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to build request payload: %w", err)
	}

	output, err := r.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(r.cfg.ModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke model: %w", err)
	}

	responseText, err := r.extractResponseText(output.Body)
	if err != nil {
		return nil, err
	}

	scores, err := parseReviewScores(responseText)
	if err != nil {
		return nil, err
	}

	return &core.Review{
		Provider:   "bedrock",
		Scores:     scores.toLabelMap(),
		Summary:    scores.Summary,
		ReviewedAt: time.Now().UTC(),
	}, nil
}

// buildRequestPayload formats the prompt for the model family.
func (r *Reviewer) buildRequestPayload(prompt string) ([]byte, error) {
	switch {
	case r.isAnthropicModel():
		return json.Marshal(map[string]interface{}{
			"prompt":               fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", prompt),
			"max_tokens_to_sample": r.cfg.MaxTokens,
			"temperature":          r.cfg.Temperature,
			"top_p":                r.cfg.TopP,
		})
	case r.isTitanModel():
		return json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": r.cfg.MaxTokens,
				"temperature":   r.cfg.Temperature,
				"topP":          r.cfg.TopP,
			},
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  r.cfg.MaxTokens,
			"temperature": r.cfg.Temperature,
		})
	}
}

// extractResponseText pulls the generated text out of the family-specific
// response envelope.
func (r *Reviewer) extractResponseText(body []byte) (string, error) {
	switch {
	case r.isAnthropicModel():
		var response struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &response); err != nil {
			return "", fmt.Errorf("failed to parse model response: %w", err)
		}
		return response.Completion, nil
	case r.isTitanModel():
		var response struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &response); err != nil {
			return "", fmt.Errorf("failed to parse model response: %w", err)
		}
		if len(response.Results) == 0 {
			return "", fmt.Errorf("model returned no results")
		}
		return response.Results[0].OutputText, nil
	default:
		var response struct {
			Completion string `json:"completion"`
			OutputText string `json:"output_text"`
			Text       string `json:"text"`
		}
		if err := json.Unmarshal(body, &response); err != nil {
			return "", fmt.Errorf("failed to parse model response: %w", err)
		}
		for _, candidate := range []string{response.Completion, response.OutputText, response.Text} {
			if candidate != "" {
				return candidate, nil
			}
		}
		return "", fmt.Errorf("model response carried no recognizable text field")
	}
}

func (r *Reviewer) isAnthropicModel() bool {
	return strings.Contains(r.cfg.ModelID, "anthropic.")
}

func (r *Reviewer) isTitanModel() bool {
	return strings.Contains(r.cfg.ModelID, "amazon.titan")
}

// parseReviewScores decodes the model's JSON verdict. Models often wrap the
// object in prose, so the parser falls back to the outermost brace pair.
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
