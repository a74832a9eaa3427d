package bedrock

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

func newTestReviewer(modelID string) *Reviewer {
	return NewReviewer(nil, Config{
		ModelID:      modelID,
		MaxTokens:    500,
		Temperature:  0.1,
		TopP:         0.9,
		MaxBodyRunes: 2048,
	}, zap.NewNop())
}

func TestBuildRequestPayloadAnthropic(t *testing.T) {
	r := newTestReviewer("anthropic.claude-v2")

	payload, err := r.buildRequestPayload("rate this")
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &body))
	assert.Contains(t, body["prompt"], "Human: rate this")
	assert.Equal(t, float64(500), body["max_tokens_to_sample"])
}

func TestBuildRequestPayloadTitan(t *testing.T) {
	r := newTestReviewer("amazon.titan-text-express-v1")

	payload, err := r.buildRequestPayload("rate this")
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &body))
	assert.Equal(t, "rate this", body["inputText"])
	require.Contains(t, body, "textGenerationConfig")
}

func TestExtractResponseText(t *testing.T) {
	anthropic := newTestReviewer("anthropic.claude-v2")
	text, err := anthropic.extractResponseText([]byte(`{"completion": "the verdict"}`))
	require.NoError(t, err)
	assert.Equal(t, "the verdict", text)

	titan := newTestReviewer("amazon.titan-text-express-v1")
	text, err = titan.extractResponseText([]byte(`{"results": [{"outputText": "titan verdict"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "titan verdict", text)

	_, err = titan.extractResponseText([]byte(`{"results": []}`))
	assert.Error(t, err)
}

func TestParseReviewScores(t *testing.T) {
	clean := `{"toxic": 0.9, "severe_toxic": 0.2, "obscene": 0.1, "threat": 0.8, "insult": 0.3, "identity_hate": 0.05, "summary": "hostile"}`
	scores, err := parseReviewScores(clean)
	require.NoError(t, err)
	assert.Equal(t, 0.9, scores.Toxic)
	assert.Equal(t, "hostile", scores.Summary)

	wrapped := "Here is my assessment:\n" + clean + "\nLet me know if you need more."
	scores, err = parseReviewScores(wrapped)
	require.NoError(t, err)
	assert.Equal(t, 0.8, scores.Threat)

	_, err = parseReviewScores("no json here at all")
	assert.Error(t, err)
}

func TestToLabelMap(t *testing.T) {
	scores := &reviewScores{Toxic: 0.9, Threat: 0.8, IdentityHate: 0.1}
	m := scores.toLabelMap()

	assert.Equal(t, 0.9, m[core.LabelToxic])
	assert.Equal(t, 0.8, m[core.LabelThreat])
	assert.Equal(t, 0.1, m[core.LabelIdentityHate])
	assert.Len(t, m, 6)
}
