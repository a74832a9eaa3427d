package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/config"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/keywords"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/tokenizer"
)

// PipelineFactory creates the moderation pipeline building blocks
type PipelineFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewPipelineFactory creates a new pipeline factory
func NewPipelineFactory(cfg *config.Config, logger *zap.Logger) *PipelineFactory {
	return &PipelineFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateModerationConfig resolves the pipeline configuration, either from a
// named preset or from the explicit keys.
func (f *PipelineFactory) CreateModerationConfig() (core.ModerationConfig, error) {
	pipelineCfg := f.cfg.GetPipeline()

	if pipelineCfg.Preset != "" {
		preset, ok := core.PresetByName(pipelineCfg.Preset)
		if !ok {
			return core.ModerationConfig{}, fmt.Errorf("unknown pipeline preset: %s", pipelineCfg.Preset)
		}
		f.logger.Info("Using pipeline preset", zap.String("preset", pipelineCfg.Preset))
		return preset, nil
	}

	mode, ok := core.ParseMode(pipelineCfg.Mode)
	if !ok {
		return core.ModerationConfig{}, fmt.Errorf("unknown pipeline mode: %s", pipelineCfg.Mode)
	}
	if pipelineCfg.ToxicityThreshold < 0 || pipelineCfg.ToxicityThreshold > 1 {
		return core.ModerationConfig{}, fmt.Errorf("toxicity threshold must be within [0, 1], got %g", pipelineCfg.ToxicityThreshold)
	}

	return core.ModerationConfig{
		ToxicityThreshold: pipelineCfg.ToxicityThreshold,
		CacheCapacity:     pipelineCfg.CacheCapacity,
		Mode:              mode,
	}, nil
}

// CreateTokenizer loads the vocabulary files and builds the WordPiece
// tokenizer.
func (f *PipelineFactory) CreateTokenizer() (*tokenizer.Tokenizer, error) {
	tokCfg := f.cfg.GetTokenizer()

	vocab, err := tokenizer.LoadVocabulary(tokCfg.VocabPath, tokCfg.SpecialTokensPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}

	tok, err := tokenizer.New(vocab, tokCfg.MaxLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}

	f.logger.Info("Tokenizer loaded",
		zap.Int("vocab_size", vocab.Size()),
		zap.Int("max_length", tokCfg.MaxLength))

	return tok, nil
}

// CreateKeywordFilter loads the keyword lists and builds the filter.
func (f *PipelineFactory) CreateKeywordFilter() (*keywords.Filter, error) {
	kwCfg := f.cfg.GetKeywords()
	return keywords.NewFilterFromFiles(kwCfg.CriticalPath, kwCfg.ModeratePath, kwCfg.FoldDiacritics, f.logger)
}
