// Package translate fills in English translations for Telugu items that
// arrived without one.
package translate

import (
	"context"
	"errors"
	"strings"

	"reputation-service/internal/metrics"
	"reputation-service/internal/models"
	"reputation-service/internal/retry"
	"reputation-service/internal/textutil"

	"go.uber.org/zap"
)

// Backend renders text in another language.
type Backend interface {
	Translate(ctx context.Context, text string, from, to models.Track) (string, error)
}

// Config controls when and how items are translated.
type Config struct {
	Enabled bool `yaml:"enabled"`
	// MinTeluguShare is the share of letters in Telugu script above which
	// an untranslated original is sent for translation.
	MinTeluguShare float64      `yaml:"min_telugu_share"`
	Retry          retry.Config `yaml:"retry"`
}

// DefaultConfig translates Telugu-dominant text.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		MinTeluguShare: 0.3,
		Retry:          retry.DefaultConfig(),
	}
}

// Translator is safe for concurrent use. A nil backend disables it.
type Translator struct {
	backend Backend
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func New(backend Backend, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Translator {
	return &Translator{backend: backend, cfg: cfg, logger: logger, metrics: m}
}

// Needs reports whether item lacks a translation and reads as Telugu.
func (t *Translator) Needs(item *models.ContentItem) bool {
	if !textutil.IsBlank(item.TranslatedText) || !textutil.IsBlank(item.Annotations.MachineTranslation) {
		return false
	}
	if textutil.IsBlank(item.OriginalText) {
		return false
	}
	return textutil.TeluguShare(item.OriginalText) > t.cfg.MinTeluguShare
}

// Apply stores a machine translation on item when one is needed. Core
// fields are left untouched and failures leave the item untranslated.
// It reports whether a translation was stored.
func (t *Translator) Apply(ctx context.Context, item *models.ContentItem) bool {
	if !t.Needs(item) {
		return false
	}
	if t.backend == nil || !t.cfg.Enabled {
		t.metrics.Translation("disabled")
		return false
	}

	var out string
	err := retry.Do(ctx, t.cfg.Retry, func(ctx context.Context) error {
		s, err := t.backend.Translate(ctx, item.OriginalText, models.TrackTelugu, models.TrackEnglish)
		if errors.Is(err, models.ErrUnsupported) {
			return retry.Permanent(err)
		}
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	if err == nil && textutil.IsBlank(out) {
		err = errors.New("empty translation")
	}
	if err != nil {
		outcome := "failed"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		t.metrics.Translation(outcome)
		t.logger.Warn("Translation failed, keeping original only",
			zap.String("item_id", item.ID),
			zap.Error(err))
		return false
	}

	item.Annotations.MachineTranslation = strings.TrimSpace(textutil.Clean(out))
	t.metrics.Translation("ok")
	return true
}
