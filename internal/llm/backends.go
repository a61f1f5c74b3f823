package llm

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"reputation-service/internal/metrics"
	"reputation-service/internal/models"
	"reputation-service/internal/sentiment"

	"go.uber.org/zap"
)

// MultiProviderConfig holds configuration for multiple providers
type MultiProviderConfig struct {
	Providers []ProviderConfig `yaml:"providers"`
	// Max consecutive failures before switching provider
	MaxFailures int `yaml:"max_failures"`
}

// Backends are the per-track sentiment clients and the translation client
// built from one provider list. Missing entries mean the lexicon fallback
// (sentiment) or pass-through (translation) is used.
type Backends struct {
	Sentiment  map[models.Track]*MultiProviderClient
	Translator *MultiProviderClient

	opened []Provider
}

type opener func(ctx context.Context, cfg ProviderConfig, logger *zap.Logger) (Provider, error)

// Build opens every configured provider and groups them by role. A
// provider that fails to open is logged and skipped.
func Build(ctx context.Context, cfg MultiProviderConfig, logger *zap.Logger, m *metrics.Metrics) (*Backends, error) {
	return build(ctx, cfg, Open, logger, m)
}

func build(ctx context.Context, cfg MultiProviderConfig, open opener, logger *zap.Logger, m *metrics.Metrics) (*Backends, error) {
	b := &Backends{Sentiment: make(map[models.Track]*MultiProviderClient)}

	byTrack := make(map[models.Track][]*RateLimitedProvider)
	var translators []*RateLimitedProvider

	for i, pc := range cfg.Providers {
		provider, err := open(ctx, pc, logger)
		if err != nil {
			logger.Error("Failed to create provider",
				zap.String("type", string(pc.Type)),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		b.opened = append(b.opened, provider)

		name := fmt.Sprintf("%s#%d", pc.Type, i)
		limited := NewRateLimitedProvider(name, provider, pc.RequestsPerMinute)

		tracks := pc.Tracks
		if len(tracks) == 0 {
			tracks = models.Tracks
		}
		for _, t := range tracks {
			byTrack[t] = append(byTrack[t], limited)
		}
		if pc.Translate {
			translators = append(translators, limited)
		}

		logger.Info("Provider initialized",
			zap.String("type", string(pc.Type)),
			zap.String("model", pc.ModelName),
			zap.Int("rate_limit", pc.RequestsPerMinute),
			zap.Bool("translate", pc.Translate),
			zap.Int("index", i))
	}

	for _, t := range models.Tracks {
		providers := byTrack[t]
		if len(providers) == 0 {
			logger.Warn("No sentiment model for track, using keyword lexicon", zap.String("track", t.String()))
			continue
		}
		client, err := NewMultiProviderClient("sentiment-"+t.String(), providers, cfg.MaxFailures, logger, m)
		if err != nil {
			return nil, errors.Join(err, b.Close())
		}
		b.Sentiment[t] = client
	}

	if len(translators) > 0 {
		client, err := NewMultiProviderClient("translate", translators, cfg.MaxFailures, logger, m)
		if err != nil {
			return nil, errors.Join(err, b.Close())
		}
		b.Translator = client
	}

	return b, nil
}

// Models returns the sentiment clients in the classifier's terms.
func (b *Backends) Models() map[models.Track]sentiment.Model {
	out := make(map[models.Track]sentiment.Model, len(b.Sentiment))
	for t, c := range b.Sentiment {
		out[t] = c
	}
	return out
}

// Info describes every sentiment and translation client.
func (b *Backends) Info() map[string]interface{} {
	info := make(map[string]interface{})
	for _, t := range models.Tracks {
		if c, ok := b.Sentiment[t]; ok {
			info["sentiment_"+t.String()] = c.GetProvidersInfo()
		}
	}
	if b.Translator != nil {
		info["translate"] = b.Translator.GetProvidersInfo()
	}
	return info
}

// Close closes every opened provider once.
func (b *Backends) Close() error {
	var errs []error
	for _, p := range slices.Backward(b.opened) {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.opened = nil
	return errors.Join(errs...)
}
