package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/adapters/bedrock"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/adapters/gemini"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/adapters/openai"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/config"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// ReviewerFactory creates second-opinion review clients
type ReviewerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewReviewerFactory creates a new reviewer factory
func NewReviewerFactory(cfg *config.Config, logger *zap.Logger) *ReviewerFactory {
	return &ReviewerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateReviewer creates a reviewer for the configured provider.
func (f *ReviewerFactory) CreateReviewer() (core.Reviewer, error) {
	provider := f.cfg.GetEscalation().Provider

	switch provider {
	case "openai":
		openaiCfg := f.cfg.GetOpenAI()
		if openaiCfg.APIKey == "" {
			return nil, fmt.Errorf("openai reviewer requires an API key")
		}
		return openai.NewReviewer(openai.Config{
			APIKey:       openaiCfg.APIKey,
			Model:        openaiCfg.Model,
			BaseURL:      openaiCfg.BaseURL,
			MaxBodyRunes: openaiCfg.MaxBodySize,
		}, f.logger), nil
	case "bedrock":
		bedrockCfg := f.cfg.GetBedrock()

		// Initialize AWS client
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(bedrockCfg.Region),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}

		client := bedrockruntime.NewFromConfig(awsCfg)
		return bedrock.NewReviewer(client, bedrock.Config{
			ModelID:      bedrockCfg.ModelID,
			MaxTokens:    bedrockCfg.MaxTokens,
			Temperature:  float64(bedrockCfg.Temperature),
			TopP:         float64(bedrockCfg.TopP),
			MaxBodyRunes: bedrockCfg.MaxBodySize,
		}, f.logger), nil
	case "gemini":
		geminiCfg := f.cfg.GetGemini()
		if geminiCfg.APIKey == "" {
			return nil, fmt.Errorf("gemini reviewer requires an API key")
		}
		return gemini.NewReviewer(context.Background(), gemini.Config{
			APIKey:       geminiCfg.APIKey,
			ModelName:    geminiCfg.ModelName,
			MaxTokens:    geminiCfg.MaxTokens,
			Temperature:  float64(geminiCfg.Temperature),
			TopP:         float64(geminiCfg.TopP),
			MaxBodyRunes: geminiCfg.MaxBodySize,
		}, f.logger)
	default:
		return nil, fmt.Errorf("unsupported review provider: %s", provider)
	}
}
