// Package llm fronts the model backends with per-provider rate limiting
// and failover between providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"reputation-service/internal/chatapi"
	"reputation-service/internal/gemini"
	"reputation-service/internal/metrics"
	"reputation-service/internal/mlclient"
	"reputation-service/internal/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ProviderType represents the type of model provider
type ProviderType string

const (
	ProviderGemini     ProviderType = "gemini"
	ProviderGroq       ProviderType = "groq"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderMLService  ProviderType = "ml_service"
)

// ProviderConfig holds configuration for a single provider instance
type ProviderConfig struct {
	Type      ProviderType  `yaml:"type"`
	APIKey    string        `yaml:"api_key"`
	ModelName string        `yaml:"model_name"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	// Tracks the provider scores sentiment for. Empty means every track.
	Tracks []models.Track `yaml:"tracks"`
	// Translate enables the provider for machine translation.
	Translate bool `yaml:"translate"`
	// Rate limiting per provider
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// Provider is any sentiment or translation backend.
type Provider interface {
	Sentiment(ctx context.Context, text string, track models.Track) (models.ModelScore, error)
	Translate(ctx context.Context, text string, from, to models.Track) (string, error)
	Close() error
	GetModelInfo() map[string]interface{}
}

// Open builds the backend a config describes.
func Open(ctx context.Context, cfg ProviderConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Type {
	case ProviderGemini:
		return gemini.NewClient(ctx, gemini.Config{
			APIKey:    cfg.APIKey,
			ModelName: cfg.ModelName,
		}, logger)
	case ProviderGroq, ProviderOpenRouter:
		return chatapi.NewClient(chatapi.Config{
			Flavor:    chatapi.Flavor(cfg.Type),
			APIKey:    cfg.APIKey,
			ModelName: cfg.ModelName,
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.Timeout,
		}, logger)
	case ProviderMLService:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("ml_service base_url is required")
		}
		return mlclient.NewClient(cfg.BaseURL, cfg.ModelName, cfg.Timeout), nil
	}
	return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
}

// RateLimitedProvider wraps a provider with rate limiting
type RateLimitedProvider struct {
	Provider
	name    string
	limiter *rate.Limiter
}

// NewRateLimitedProvider wraps a provider with rate limiting. A burst of a
// full minute's allowance is available up front.
func NewRateLimitedProvider(name string, provider Provider, requestsPerMinute int) *RateLimitedProvider {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 8 // Conservative default for free tier
	}
	return &RateLimitedProvider{
		Provider: provider,
		name:     name,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute),
	}
}

func (p *RateLimitedProvider) Sentiment(ctx context.Context, text string, track models.Track) (models.ModelScore, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return models.ModelScore{}, fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	return p.Provider.Sentiment(ctx, text, track)
}

func (p *RateLimitedProvider) Translate(ctx context.Context, text string, from, to models.Track) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	return p.Provider.Translate(ctx, text, from, to)
}

// MultiProviderClient manages several providers with fallback. It
// satisfies sentiment.Model and translate.Backend.
type MultiProviderClient struct {
	name         string
	providers    []*RateLimitedProvider
	currentIndex int
	mu           sync.RWMutex
	logger       *zap.Logger
	metrics      *metrics.Metrics
	failureCount map[int]int
	maxFailures  int
}

// NewMultiProviderClient creates a client over already opened providers.
func NewMultiProviderClient(name string, providers []*RateLimitedProvider, maxFailures int, logger *zap.Logger, m *metrics.Metrics) (*MultiProviderClient, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &MultiProviderClient{
		name:         name,
		providers:    providers,
		logger:       logger,
		metrics:      m,
		failureCount: make(map[int]int),
		maxFailures:  maxFailures,
	}, nil
}

// getCurrentProvider returns the current provider and its index
func (c *MultiProviderClient) getCurrentProvider() (*RateLimitedProvider, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.providers[c.currentIndex], c.currentIndex
}

// switchToNextProvider moves off from, unless another caller already did.
func (c *MultiProviderClient) switchToNextProvider(from int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentIndex != from {
		return
	}
	c.currentIndex = (c.currentIndex + 1) % len(c.providers)

	c.logger.Info("Switching provider",
		zap.String("client", c.name),
		zap.Int("from_index", from),
		zap.Int("to_index", c.currentIndex),
		zap.Int("total_providers", len(c.providers)))
}

// recordFailure records a failure and reports whether the provider should
// be abandoned.
func (c *MultiProviderClient) recordFailure(providerIndex int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failureCount[providerIndex]++

	if c.failureCount[providerIndex] >= c.maxFailures {
		c.logger.Warn("Provider reached max failures",
			zap.String("client", c.name),
			zap.Int("provider_index", providerIndex),
			zap.Int("failures", c.failureCount[providerIndex]))
		c.failureCount[providerIndex] = 0
		return true
	}

	return false
}

func (c *MultiProviderClient) resetFailureCount(providerIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCount[providerIndex] = 0
}

// do tries op on each provider once, starting with the current one. A
// provider is abandoned for later calls after maxFailures consecutive
// failures or a rate limit error. Providers that do not support op are
// skipped without counting as a failure.
func (c *MultiProviderClient) do(ctx context.Context, op string, fn func(*RateLimitedProvider) error) error {
	_, first := c.getCurrentProvider()
	var errs []error
	for i := 0; i < len(c.providers); i++ {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		providerIndex := (first + i) % len(c.providers)
		provider := c.providers[providerIndex]

		started := time.Now()
		err := fn(provider)
		if errors.Is(err, models.ErrUnsupported) {
			errs = append(errs, fmt.Errorf("%s: %w", provider.name, err))
			continue
		}
		c.metrics.ModelCall(provider.name, started, err)

		if err == nil {
			c.resetFailureCount(providerIndex)
			return nil
		}

		c.logger.Error("Provider failed",
			zap.String("client", c.name),
			zap.String("op", op),
			zap.String("provider", provider.name),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", provider.name, err))

		shouldSwitch := c.recordFailure(providerIndex)
		if shouldSwitch || isRateLimitError(err) {
			c.switchToNextProvider(providerIndex)
		}
	}

	return fmt.Errorf("all providers failed for %s: %w", op, errors.Join(errs...))
}

// Sentiment scores text with the first provider that answers.
func (c *MultiProviderClient) Sentiment(ctx context.Context, text string, track models.Track) (models.ModelScore, error) {
	score, _, err := c.Score(ctx, text, track)
	return score, err
}

// Score is Sentiment under the classifier's model interface. It also names
// the provider that answered.
func (c *MultiProviderClient) Score(ctx context.Context, text string, track models.Track) (models.ModelScore, string, error) {
	var score models.ModelScore
	var servedBy string
	err := c.do(ctx, "sentiment", func(p *RateLimitedProvider) error {
		s, err := p.Sentiment(ctx, text, track)
		if err != nil {
			return err
		}
		score, servedBy = s, c.name+"/"+p.name
		return nil
	})
	return score, servedBy, err
}

// Version names the provider currently in front.
func (c *MultiProviderClient) Version() string {
	p, _ := c.getCurrentProvider()
	return c.name + "/" + p.name
}

// Translate renders text in the target language with the first provider
// that answers.
func (c *MultiProviderClient) Translate(ctx context.Context, text string, from, to models.Track) (string, error) {
	var out string
	err := c.do(ctx, "translate", func(p *RateLimitedProvider) error {
		s, err := p.Translate(ctx, text, from, to)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

// isRateLimitError checks if error is a rate limit error
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "rate limit")
}

// Close closes all providers
func (c *MultiProviderClient) Close() error {
	var errs []error
	for i, provider := range c.providers {
		if err := provider.Close(); err != nil {
			c.logger.Error("Failed to close provider",
				zap.Int("index", i),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetModelInfo returns information about the current provider
func (c *MultiProviderClient) GetModelInfo() map[string]interface{} {
	provider, index := c.getCurrentProvider()
	info := provider.GetModelInfo()
	c.mu.RLock()
	defer c.mu.RUnlock()
	info["client"] = c.name
	info["provider_index"] = index
	info["total_providers"] = len(c.providers)
	info["failure_count"] = c.failureCount[index]
	return info
}

// GetProvidersInfo returns information about all providers
func (c *MultiProviderClient) GetProvidersInfo() []map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info := make([]map[string]interface{}, len(c.providers))
	for i, provider := range c.providers {
		providerInfo := provider.GetModelInfo()
		providerInfo["is_current"] = (i == c.currentIndex)
		providerInfo["failure_count"] = c.failureCount[i]
		info[i] = providerInfo
	}
	return info
}
