package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Notify    NotifyConfig    `yaml:"notify" mapstructure:"notify"`
	Run       RunConfig       `yaml:"run" mapstructure:"run"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FetchConfig configures page acquisition.
type FetchConfig struct {
	TimeoutSecs      int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxPages         int `yaml:"max_pages" mapstructure:"max_pages"`
	MaxScrolls       int `yaml:"max_scrolls" mapstructure:"max_scrolls"`
	ScrollWaitMillis int `yaml:"scroll_wait_millis" mapstructure:"scroll_wait_millis"`
	PageDelayMillis  int `yaml:"page_delay_millis" mapstructure:"page_delay_millis"`
}

// ExtractConfig configures the strategy pool and tier escalation.
type ExtractConfig struct {
	// MinRecords is the completeness threshold: a tier that merges fewer
	// records than this escalates to the next tier.
	MinRecords int `yaml:"min_records" mapstructure:"min_records"`
}

// EnrichConfig configures profile-page backfill.
type EnrichConfig struct {
	MaxProfileFetches  int `yaml:"max_profile_fetches" mapstructure:"max_profile_fetches"`
	ProfileDelayMillis int `yaml:"profile_delay_millis" mapstructure:"profile_delay_millis"`
	ProfileTimeoutSecs int `yaml:"profile_timeout_secs" mapstructure:"profile_timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings for the fallback extractor.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// NotifyConfig configures outbound notification channels.
type NotifyConfig struct {
	SMTPHost   string `yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort   int    `yaml:"smtp_port" mapstructure:"smtp_port"`
	SMTPUser   string `yaml:"smtp_user" mapstructure:"smtp_user"`
	SMTPPass   string `yaml:"smtp_pass" mapstructure:"smtp_pass"`
	From       string `yaml:"from" mapstructure:"from"`
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// RunConfig configures the orchestrator.
type RunConfig struct {
	// Workers overrides the target-count-based worker policy when > 0.
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FACWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "facwatch.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_pages", 10)
	v.SetDefault("fetch.max_scrolls", 15)
	v.SetDefault("fetch.scroll_wait_millis", 2000)
	v.SetDefault("fetch.page_delay_millis", 2000)
	v.SetDefault("extract.min_records", 3)
	v.SetDefault("enrich.max_profile_fetches", 25)
	v.SetDefault("enrich.profile_delay_millis", 500)
	v.SetDefault("enrich.profile_timeout_secs", 30)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("notify.smtp_port", 587)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
