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
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	SerpAPI   SerpAPIConfig   `yaml:"serpapi" mapstructure:"serpapi"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Select    SelectConfig    `yaml:"select" mapstructure:"select"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Classify  ClassifyConfig  `yaml:"classify" mapstructure:"classify"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PathsConfig locates the on-disk artifacts shared across stages.
type PathsConfig struct {
	DataDir      string `yaml:"data_dir" mapstructure:"data_dir"`
	PageStoreDir string `yaml:"page_store_dir" mapstructure:"page_store_dir"`
	ProgressLog  string `yaml:"progress_log" mapstructure:"progress_log"`
}

// SerpAPIConfig holds SerpAPI search settings.
type SerpAPIConfig struct {
	Key             string  `yaml:"key" mapstructure:"key"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	ResultsPerQuery int     `yaml:"results_per_query" mapstructure:"results_per_query"`
	QueriesPerSec   float64 `yaml:"queries_per_sec" mapstructure:"queries_per_sec"`
}

// FetchConfig configures the page fetch/extract stage.
type FetchConfig struct {
	MaxURLsPerFoundation int     `yaml:"max_urls_per_foundation" mapstructure:"max_urls_per_foundation"`
	TimeoutSecs          int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec       float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	UserAgent            string  `yaml:"user_agent" mapstructure:"user_agent"`
	PdfToTextPath        string  `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MaxTextChars         int     `yaml:"max_text_chars" mapstructure:"max_text_chars"`
}

// SelectConfig caps the per-foundation LLM input set.
type SelectConfig struct {
	MaxPDFsPerFoundation int `yaml:"max_pdfs_per_foundation" mapstructure:"max_pdfs_per_foundation"`
	MaxHTMLPerFoundation int `yaml:"max_html_per_foundation" mapstructure:"max_html_per_foundation"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	ExtractModel   string `yaml:"extract_model" mapstructure:"extract_model"`
	ClassifyModel  string `yaml:"classify_model" mapstructure:"classify_model"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	RetryAttempts  int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryMinWaitMS int    `yaml:"retry_min_wait_ms" mapstructure:"retry_min_wait_ms"`
	RetryMaxWaitMS int    `yaml:"retry_max_wait_ms" mapstructure:"retry_max_wait_ms"`
}

// ExtractConfig configures the structured extraction stage.
type ExtractConfig struct {
	MaxChars  int `yaml:"max_chars" mapstructure:"max_chars"`
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
}

// ClassifyConfig configures the row classification stage.
type ClassifyConfig struct {
	SaveEvery int `yaml:"save_every" mapstructure:"save_every"`
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
	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "data/foundation_scout.db")
	v.SetDefault("paths.data_dir", "data")
	v.SetDefault("paths.page_store_dir", "page_store")
	v.SetDefault("paths.progress_log", "data/intermediate/extraction_progress.txt")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("serpapi.key", "")
	v.SetDefault("serpapi.base_url", "https://serpapi.com")
	v.SetDefault("serpapi.results_per_query", 10)
	v.SetDefault("serpapi.queries_per_sec", 1.25)
	v.SetDefault("fetch.max_urls_per_foundation", 25)
	v.SetDefault("fetch.timeout_secs", 45)
	v.SetDefault("fetch.requests_per_sec", 1.0)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; FoundationScout/1.0; +https://example.org)")
	v.SetDefault("fetch.pdftotext_path", "pdftotext")
	v.SetDefault("fetch.max_text_chars", 200000)
	v.SetDefault("select.max_pdfs_per_foundation", 4)
	v.SetDefault("select.max_html_per_foundation", 4)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.extract_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.classify_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.retry_attempts", 5)
	v.SetDefault("anthropic.retry_min_wait_ms", 1000)
	v.SetDefault("anthropic.retry_max_wait_ms", 20000)
	v.SetDefault("extract.max_chars", 18000)
	v.SetDefault("extract.batch_size", 25)
	v.SetDefault("classify.save_every", 25)

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
