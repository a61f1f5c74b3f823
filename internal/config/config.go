package config

import (
	"errors"
	"fmt"
	"os"

	"reputation-service/internal/llm"
	"reputation-service/internal/models"
	"reputation-service/internal/retry"
	"reputation-service/internal/translate"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "console" or "json"
	} `yaml:"log"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	// Input files analysed at startup
	Data struct {
		Files []string `yaml:"files"`
		// Restore loads previously stored results before the files
		Restore bool `yaml:"restore"`
	} `yaml:"data"`

	// Model providers; an empty list runs on the keyword lexicon alone
	Providers []llm.ProviderConfig `yaml:"providers"`

	Translation translate.Config `yaml:"translation"`

	Pipeline struct {
		Workers     int          `yaml:"workers"`
		TopKeywords int          `yaml:"top_keywords"`
		JobChunk    int          `yaml:"job_chunk"`
		Mode        string       `yaml:"mode"`
		Retry       retry.Config `yaml:"retry"`
	} `yaml:"pipeline"`

	Thresholds models.Thresholds `yaml:"thresholds"`

	Lexicon struct {
		// Optional YAML file merged over the built-in dictionary
		Path       string   `yaml:"path"`
		KeyFigures []string `yaml:"key_figures"`
	} `yaml:"lexicon"`

	MaxFailuresBeforeSwitch int `yaml:"max_failures_before_switch"`
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{
		Translation: translate.DefaultConfig(),
		Thresholds:  models.DefaultThresholds(),
	}
	config.Pipeline.Retry = retry.DefaultConfig()

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Set defaults
	if config.Server.Port == "" {
		config.Server.Port = "8003"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}

	if config.Log.Format == "" {
		config.Log.Format = "console"
	}

	if config.Database.Path == "" {
		config.Database.Path = "./data/reputation.db"
	}

	if config.Pipeline.Workers == 0 {
		config.Pipeline.Workers = 4
	}

	if config.Pipeline.TopKeywords == 0 {
		config.Pipeline.TopKeywords = 10
	}

	if config.Pipeline.Mode == "" {
		config.Pipeline.Mode = models.ModeOriginal.String()
	}

	if config.MaxFailuresBeforeSwitch == 0 {
		config.MaxFailuresBeforeSwitch = 3
	}

	// Expand environment variables in provider API keys
	for i := range config.Providers {
		config.Providers[i].APIKey = os.ExpandEnv(config.Providers[i].APIKey)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return config, nil
}

// Validate rejects values that would otherwise fail at first use.
func (c *Config) Validate() error {
	var errs []error

	if _, err := models.ParseMode(c.Pipeline.Mode); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.mode: %w", err))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	for i, p := range c.Providers {
		switch p.Type {
		case llm.ProviderGemini, llm.ProviderGroq, llm.ProviderOpenRouter, llm.ProviderMLService:
		default:
			errs = append(errs, fmt.Errorf("providers[%d]: unknown provider type %q", i, p.Type))
		}
		if p.Type == llm.ProviderMLService && p.BaseURL == "" {
			errs = append(errs, fmt.Errorf("providers[%d]: ml_service needs base_url", i))
		}
	}
	if c.Translation.MinTeluguShare < 0 || c.Translation.MinTeluguShare >= 1 {
		errs = append(errs, fmt.Errorf("translation.min_telugu_share must be in [0, 1)"))
	}
	if c.Pipeline.Workers < 0 {
		errs = append(errs, errors.New("pipeline.workers must not be negative"))
	}

	return errors.Join(errs...)
}

// Mode is the default language mode for API views.
func (c *Config) Mode() models.Mode {
	m, _ := models.ParseMode(c.Pipeline.Mode)
	return m
}

// MultiProvider is the provider list in the form llm.Build takes.
func (c *Config) MultiProvider() llm.MultiProviderConfig {
	return llm.MultiProviderConfig{
		Providers:   c.Providers,
		MaxFailures: c.MaxFailuresBeforeSwitch,
	}
}
