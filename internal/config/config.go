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
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Voyage    VoyageConfig    `yaml:"voyage" mapstructure:"voyage"`
	Cluster   ClusterConfig   `yaml:"cluster" mapstructure:"cluster"`
	Classify  ClassifyConfig  `yaml:"classify" mapstructure:"classify"`
	Codebook  CodebookConfig  `yaml:"codebook" mapstructure:"codebook"`
	Columns   ColumnsConfig   `yaml:"columns" mapstructure:"columns"`
	Cost      CostConfig      `yaml:"cost" mapstructure:"cost"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	ClassifyModel string `yaml:"classify_model" mapstructure:"classify_model"`
	GenerateModel string `yaml:"generate_model" mapstructure:"generate_model"`
	MaxTokens     int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// VoyageConfig holds Voyage AI embeddings settings.
type VoyageConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// ClusterConfig configures the similarity clusterer.
type ClusterConfig struct {
	Eps       float64 `yaml:"eps" mapstructure:"eps"`
	MinPoints int     `yaml:"min_points" mapstructure:"min_points"`
}

// ClassifyConfig configures the classification run.
type ClassifyConfig struct {
	Workers    int     `yaml:"workers" mapstructure:"workers"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// CodebookConfig configures codebook generation and refinement.
type CodebookConfig struct {
	SampleSize int `yaml:"sample_size" mapstructure:"sample_size"`
}

// ColumnsConfig configures codable-column detection.
type ColumnsConfig struct {
	MinUnique int `yaml:"min_unique" mapstructure:"min_unique"`
}

// CostConfig configures cost estimation.
type CostConfig struct {
	// RatesPath optionally points at a YAML pricing override file.
	RatesPath string `yaml:"rates_path" mapstructure:"rates_path"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
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
	v.SetEnvPrefix("SURVEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys default empty so the env binding is registered.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("voyage.key", "")
	v.SetDefault("anthropic.classify_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.generate_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4000)
	v.SetDefault("voyage.base_url", "https://api.voyageai.com/v1")
	v.SetDefault("voyage.model", "voyage-3.5-lite")
	v.SetDefault("cluster.eps", 0.3)
	v.SetDefault("cluster.min_points", 2)
	v.SetDefault("classify.workers", 1)
	v.SetDefault("classify.rate_per_sec", 2.0)
	v.SetDefault("codebook.sample_size", 150)
	v.SetDefault("columns.min_unique", 50)
	v.SetDefault("cost.rates_path", "")
	v.SetDefault("store.path", "survey-coder.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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
