package config

// PipelineConfig represents the configuration for the moderation pipeline
type PipelineConfig struct {
	Preset            string
	ToxicityThreshold float64
	Mode              string
	CacheCapacity     int
}

// TokenizerConfig represents the configuration for the WordPiece tokenizer
type TokenizerConfig struct {
	VocabPath         string
	SpecialTokensPath string
	MaxLength         int
}

// KeywordsConfig represents the configuration for the keyword filter
type KeywordsConfig struct {
	CriticalPath   string
	ModeratePath   string
	FoldDiacritics bool
}

// ClassifierConfig represents the configuration for the TorchServe classifier
type ClassifierConfig struct {
	Endpoint           string
	Model              string
	BreakerMaxFailures int
}

// CacheConfig represents the configuration for the result cache
type CacheConfig struct {
	Type          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// AuditConfig represents the configuration for the decision audit log
type AuditConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// EscalationConfig represents the configuration for background review
type EscalationConfig struct {
	Enabled      bool
	Provider     string
	TriggerLevel string
	QueueSize    int
}

// OpenAIConfig represents the configuration for the OpenAI reviewer
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxBodySize int
}

// BedrockConfig represents the configuration for the Amazon Bedrock reviewer
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for the Google Gemini reviewer
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// NotifyConfig represents the configuration for escalation alerts
type NotifyConfig struct {
	Type         string
	SMTPAddr     string
	SMTPFrom     string
	SMTPTo       []string
	SMTPUsername string
	SMTPPassword string
	WebhookURL   string
}

// EventsConfig represents the configuration for the decision event stream
type EventsConfig struct {
	Enabled               bool
	KafkaBootstrapServers string
	KafkaTopic            string
}

// ServerConfig represents the configuration for the HTTP server
type ServerConfig struct {
	ListenAddress string
}

// LoggingConfig represents the configuration for logging
type LoggingConfig struct {
	Level  string
	Format string
}

// GetPipeline returns the pipeline configuration
func (c *Config) GetPipeline() PipelineConfig {
	return PipelineConfig{
		Preset:            c.GetString("pipeline.preset"),
		ToxicityThreshold: c.GetFloat64("pipeline.toxicity_threshold"),
		Mode:              c.GetString("pipeline.mode"),
		CacheCapacity:     c.GetInt("pipeline.cache_capacity"),
	}
}

// GetTokenizer returns the tokenizer configuration
func (c *Config) GetTokenizer() TokenizerConfig {
	return TokenizerConfig{
		VocabPath:         c.GetString("tokenizer.vocab_path"),
		SpecialTokensPath: c.GetString("tokenizer.special_tokens_path"),
		MaxLength:         c.GetInt("tokenizer.max_length"),
	}
}

// GetKeywords returns the keyword filter configuration
func (c *Config) GetKeywords() KeywordsConfig {
	return KeywordsConfig{
		CriticalPath:   c.GetString("keywords.critical_path"),
		ModeratePath:   c.GetString("keywords.moderate_path"),
		FoldDiacritics: c.GetBool("keywords.fold_diacritics"),
	}
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Endpoint:           c.GetString("classifier.endpoint"),
		Model:              c.GetString("classifier.model"),
		BreakerMaxFailures: c.GetInt("classifier.breaker_max_failures"),
	}
}

// GetCache returns the cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Type:          c.GetString("cache.type"),
		RedisAddr:     c.GetString("cache.redis_addr"),
		RedisPassword: c.GetString("cache.redis_password"),
		RedisDB:       c.GetInt("cache.redis_db"),
	}
}

// GetAudit returns the audit log configuration
func (c *Config) GetAudit() AuditConfig {
	return AuditConfig{
		Type:       c.GetString("audit.type"),
		SQLitePath: c.GetString("audit.sqlite_path"),
		MySQLDSN:   c.GetString("audit.mysql_dsn"),
	}
}

// GetEscalation returns the escalation configuration
func (c *Config) GetEscalation() EscalationConfig {
	return EscalationConfig{
		Enabled:      c.GetBool("escalation.enabled"),
		Provider:     c.GetString("escalation.provider"),
		TriggerLevel: c.GetString("escalation.trigger_level"),
		QueueSize:    c.GetInt("escalation.queue_size"),
	}
}

// GetOpenAI returns the OpenAI reviewer configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		Model:       c.GetString("openai.model"),
		BaseURL:     c.GetString("openai.base_url"),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetBedrock returns the Bedrock reviewer configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini reviewer configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetNotify returns the notification configuration
func (c *Config) GetNotify() NotifyConfig {
	return NotifyConfig{
		Type:         c.GetString("notify.type"),
		SMTPAddr:     c.GetString("notify.smtp_addr"),
		SMTPFrom:     c.GetString("notify.smtp_from"),
		SMTPTo:       c.GetStringSlice("notify.smtp_to"),
		SMTPUsername: c.GetString("notify.smtp_username"),
		SMTPPassword: c.GetString("notify.smtp_password"),
		WebhookURL:   c.GetString("notify.webhook_url"),
	}
}

// GetEvents returns the event stream configuration
func (c *Config) GetEvents() EventsConfig {
	return EventsConfig{
		Enabled:               c.GetBool("events.enabled"),
		KafkaBootstrapServers: c.GetString("events.kafka_bootstrap_servers"),
		KafkaTopic:            c.GetString("events.kafka_topic"),
	}
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress: c.GetString("server.listen_address"),
	}
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}
