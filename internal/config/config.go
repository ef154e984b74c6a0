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
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Validate  ValidateConfig  `yaml:"validate" mapstructure:"validate"`
	Hierarchy HierarchyConfig `yaml:"hierarchy" mapstructure:"hierarchy"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SearchConfig holds search provider API settings.
type SearchConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxPages     int     `yaml:"max_pages" mapstructure:"max_pages"`
	JobsLocation string  `yaml:"jobs_location" mapstructure:"jobs_location"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ValidateConfig holds the posting validation and title normalization
// keyword lists. All lists are tunable data, not compiled constants.
type ValidateConfig struct {
	RegionSuffixes   []string `yaml:"region_suffixes" mapstructure:"region_suffixes"`
	StaffingAgencies []string `yaml:"staffing_agencies" mapstructure:"staffing_agencies"`
	TitleKeywords    []string `yaml:"title_keywords" mapstructure:"title_keywords"`
	DefaultTitle     string   `yaml:"default_title" mapstructure:"default_title"`
}

// HierarchyConfig holds extraction and sanitization keyword lists.
type HierarchyConfig struct {
	RelevanceTokens  []string `yaml:"relevance_tokens" mapstructure:"relevance_tokens"`
	SearchKeywords   []string `yaml:"search_keywords" mapstructure:"search_keywords"`
	PlaceholderNames []string `yaml:"placeholder_names" mapstructure:"placeholder_names"`
	Pronouns         []string `yaml:"pronouns" mapstructure:"pronouns"`
	Conjunctions     []string `yaml:"conjunctions" mapstructure:"conjunctions"`
	BannedNameWords  []string `yaml:"banned_name_words" mapstructure:"banned_name_words"`
	SnippetCharLimit int      `yaml:"snippet_char_limit" mapstructure:"snippet_char_limit"`
	MaxItems         int      `yaml:"max_items" mapstructure:"max_items"`
}

// EnrichConfig configures the refresh orchestrator.
type EnrichConfig struct {
	FreshnessHours int `yaml:"freshness_hours" mapstructure:"freshness_hours"`
	LookbackDays   int `yaml:"lookback_days" mapstructure:"lookback_days"`
	MaxConcurrent  int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// CacheConfig configures the enrichment cache gateway.
type CacheConfig struct {
	TTLHours int `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("TALENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "talent.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("search.base_url", "https://serpapi.com")
	v.SetDefault("search.rate_limit", 2)
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("search.max_pages", 3)
	v.SetDefault("search.jobs_location", "Charlotte, North Carolina")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("validate.region_suffixes", []string{", nc", ", sc"})
	v.SetDefault("validate.staffing_agencies", []string{
		"teksystems", "robert half", "insight global", "randstad",
		"kforce", "apex systems", "cybercoders", "jobot", "hays",
	})
	v.SetDefault("validate.title_keywords", []string{
		"engineer", "developer", "architect", "analyst", "scientist",
		"administrator", "manager", "lead", "consultant", "specialist",
	})
	v.SetDefault("validate.default_title", "Data Engineer")
	v.SetDefault("hierarchy.relevance_tokens", []string{
		"lead", "manager", "director", "data", "analytics", "engineering",
		"technology", "team",
	})
	v.SetDefault("hierarchy.search_keywords", []string{
		"leadership", "team", "manager", "director",
	})
	v.SetDefault("hierarchy.placeholder_names", []string{
		"john doe", "jane doe", "john smith", "jane smith",
	})
	v.SetDefault("hierarchy.pronouns", []string{
		"he", "she", "they", "him", "her", "them", "his", "hers", "their",
	})
	v.SetDefault("hierarchy.conjunctions", []string{"and", "or", "&"})
	v.SetDefault("hierarchy.banned_name_words", []string{
		"unknown", "n/a", "none", "manager", "director", "lead", "team",
		"company", "various",
	})
	v.SetDefault("hierarchy.snippet_char_limit", 1500)
	v.SetDefault("hierarchy.max_items", 3)
	v.SetDefault("enrich.freshness_hours", 24)
	v.SetDefault("enrich.lookback_days", 14)
	v.SetDefault("enrich.max_concurrent", 1)
	v.SetDefault("cache.ttl_hours", 0)

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
