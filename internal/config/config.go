package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/toxity-filter/")
	v.AddConfigPath("$HOME/.toxity-filter")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("TOXITY_FILTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Pipeline defaults
	v.SetDefault("pipeline.preset", "")
	v.SetDefault("pipeline.toxicity_threshold", 0.5)
	v.SetDefault("pipeline.mode", "classifier_with_keywords")
	v.SetDefault("pipeline.cache_capacity", 1000)

	// Tokenizer defaults
	v.SetDefault("tokenizer.vocab_path", "/data/model/vocab.txt")
	v.SetDefault("tokenizer.special_tokens_path", "/data/model/special_tokens.txt")
	v.SetDefault("tokenizer.max_length", 128)

	// Keyword filter defaults
	v.SetDefault("keywords.critical_path", "./configs/keywords/critical.txt")
	v.SetDefault("keywords.moderate_path", "./configs/keywords/moderate.txt")
	v.SetDefault("keywords.fold_diacritics", true)

	// Classifier defaults
	v.SetDefault("classifier.endpoint", "http://localhost:8085")
	v.SetDefault("classifier.model", "toxic_bert")
	v.SetDefault("classifier.timeout", "10s")
	v.SetDefault("classifier.breaker_max_failures", 5)
	v.SetDefault("classifier.breaker_reset_timeout", "30s")

	// Cache defaults
	v.SetDefault("cache.type", "lru")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", "30m")

	// Audit defaults
	v.SetDefault("audit.type", "disabled")
	v.SetDefault("audit.sqlite_path", "/data/moderation_audit.db")
	v.SetDefault("audit.mysql_dsn", "user:password@tcp(localhost:3306)/moderation")
	v.SetDefault("audit.retention", "720h")
	v.SetDefault("audit.cleanup_frequency", "1h")

	// Escalation defaults
	v.SetDefault("escalation.enabled", false)
	v.SetDefault("escalation.provider", "openai")
	v.SetDefault("escalation.trigger_level", "critical")
	v.SetDefault("escalation.queue_size", 64)
	v.SetDefault("escalation.review_timeout", "30s")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.max_body_size", 4096)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)
	v.SetDefault("bedrock.max_body_size", 4096)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)
	v.SetDefault("gemini.max_body_size", 4096)

	// Notification defaults
	v.SetDefault("notify.type", "disabled")
	v.SetDefault("notify.smtp_addr", "localhost:25")
	v.SetDefault("notify.smtp_from", "toxity-filter@localhost")
	v.SetDefault("notify.smtp_to", []string{})
	v.SetDefault("notify.smtp_username", "")
	v.SetDefault("notify.smtp_password", "")
	v.SetDefault("notify.smtp_timeout", "10s")
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.webhook_timeout", "10s")

	// Event stream defaults
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.kafka_bootstrap_servers", "localhost:9092")
	v.SetDefault("events.kafka_topic", "moderation.decisions")

	// Server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
