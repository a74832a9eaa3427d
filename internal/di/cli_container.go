package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/config"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/factory"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Pipeline flags
	Preset    string
	Threshold float64
	Mode      string

	// Tokenizer flags
	VocabPath         string
	SpecialTokensPath string
	MaxLength         int

	// Keyword flags
	CriticalPath   string
	ModeratePath   string
	FoldDiacritics bool

	// Classifier flags
	Endpoint string
	Model    string

	// Input flags
	Text       string
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Pipeline flags
	flag.StringVar(&flags.Preset, "preset", "", "Pipeline preset (balanced, strict, lenient, fast)")
	flag.Float64Var(&flags.Threshold, "threshold", 0.5, "Toxicity threshold for rejection")
	flag.StringVar(&flags.Mode, "mode", "classifier_with_keywords", "Pipeline mode (classifier_only, classifier_with_keywords, keywords_only)")

	// Tokenizer flags
	flag.StringVar(&flags.VocabPath, "vocab", "/data/model/vocab.txt", "Path to the WordPiece vocabulary file")
	flag.StringVar(&flags.SpecialTokensPath, "special-tokens", "/data/model/special_tokens.txt", "Path to the special tokens file")
	flag.IntVar(&flags.MaxLength, "max-length", 128, "Token sequence length the classifier expects")

	// Keyword flags
	flag.StringVar(&flags.CriticalPath, "critical-keywords", "./configs/keywords/critical.txt", "Path to the critical keyword list")
	flag.StringVar(&flags.ModeratePath, "moderate-keywords", "./configs/keywords/moderate.txt", "Path to the moderate keyword list")
	flag.BoolVar(&flags.FoldDiacritics, "fold-diacritics", true, "Strip diacritics before keyword matching")

	// Classifier flags
	flag.StringVar(&flags.Endpoint, "endpoint", "http://localhost:8085", "TorchServe base URL (empty disables the classifier)")
	flag.StringVar(&flags.Model, "model", "toxic_bert", "TorchServe model name")

	// Input flags
	flag.StringVar(&flags.Text, "text", "", "Text to moderate (use -file or stdin if not specified)")
	flag.StringVar(&flags.InputFile, "file", "", "Input text file (use stdin if neither -text nor -file is specified)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewPipelineFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return nil, err
	}

	// Register pipeline configuration
	if err := container.Provide(func(f *factory.PipelineFactory) (core.ModerationConfig, error) {
		return f.CreateModerationConfig()
	}); err != nil {
		return nil, err
	}

	// Register tokenizer
	if err := container.Provide(func(f *factory.PipelineFactory) (core.Tokenizer, error) {
		return f.CreateTokenizer()
	}); err != nil {
		return nil, err
	}

	// Register keyword filter
	if err := container.Provide(func(f *factory.PipelineFactory) (core.KeywordChecker, error) {
		return f.CreateKeywordFilter()
	}); err != nil {
		return nil, err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.TextClassifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register moderation service with no cache
	if err := container.Provide(func(
		tokenizer core.Tokenizer,
		keywords core.KeywordChecker,
		classifier core.TextClassifier,
		logger *zap.Logger,
		cfg core.ModerationConfig,
	) *core.ModerationService {
		return core.NewModerationService(
			tokenizer,
			keywords,
			classifier,
			nil, // No cache for CLI
			nil, // No audit for CLI
			nil, // No escalation for CLI
			nil, // No event stream for CLI
			logger,
			cfg,
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set pipeline configuration
	v.Set("pipeline.preset", flags.Preset)
	v.Set("pipeline.toxicity_threshold", flags.Threshold)
	v.Set("pipeline.mode", flags.Mode)

	// Set tokenizer configuration
	v.Set("tokenizer.vocab_path", flags.VocabPath)
	v.Set("tokenizer.special_tokens_path", flags.SpecialTokensPath)
	v.Set("tokenizer.max_length", flags.MaxLength)

	// Set keyword configuration
	v.Set("keywords.critical_path", flags.CriticalPath)
	v.Set("keywords.moderate_path", flags.ModeratePath)
	v.Set("keywords.fold_diacritics", flags.FoldDiacritics)

	// Set classifier configuration
	v.Set("classifier.endpoint", flags.Endpoint)
	v.Set("classifier.model", flags.Model)

	return config.NewFromViper(v)
}
