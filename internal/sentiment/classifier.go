// Package sentiment scores text polarity with a language-appropriate model
// and falls back to a bilingual keyword lexicon when the text is not
// model-safe or the model fails.
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"reputation-service/internal/lexicon"
	"reputation-service/internal/metrics"
	"reputation-service/internal/models"
	"reputation-service/internal/patterns"
	"reputation-service/internal/retry"
	"reputation-service/internal/textutil"

	"go.uber.org/zap"
)

// Model is a sentiment backend for one language track.
type Model interface {
	// Score also returns the version of the model that produced the score,
	// which can differ from Version when the backend fails over mid-call.
	Score(ctx context.Context, text string, track models.Track) (models.ModelScore, string, error)
	// Version identifies the model that would serve the next call; cached
	// results are keyed by it.
	Version() string
}

const (
	classPositive = iota
	classNegative
)

// Config holds the classifier's tunables.
type Config struct {
	Thresholds models.SentimentThresholds
	Retry      retry.Config
}

// Classifier is safe for concurrent use.
type Classifier struct {
	backends map[models.Track]Model
	lexicon  *patterns.Matcher
	th       models.SentimentThresholds
	retry    retry.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics

	// version, track and exact text -> model result
	cache sync.Map
}

// NewClassifier builds a classifier. backends may be nil or miss a track;
// such tracks always use the lexicon.
func NewClassifier(
	lex *lexicon.Lexicon,
	backends map[models.Track]Model,
	cfg Config,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Classifier {
	var entries []patterns.Entry
	for _, track := range models.Tracks {
		terms := lex.Sentiment(track)
		for _, p := range terms.Positive {
			entries = append(entries, patterns.Entry{Phrase: p, Track: track, Class: classPositive})
		}
		for _, n := range terms.Negative {
			entries = append(entries, patterns.Entry{Phrase: n, Track: track, Class: classNegative})
		}
	}

	if cfg.Thresholds.MaxModelInputRunes <= 0 {
		cfg.Thresholds = models.DefaultThresholds().Sentiment
	}

	return &Classifier{
		backends: backends,
		lexicon:  patterns.New(entries),
		th:       cfg.Thresholds,
		retry:    cfg.Retry,
		logger:   logger,
		metrics:  m,
	}
}

// Classify never fails: every problem on the model path ends in the
// keyword fallback, tagged with source KeywordFallback.
func (c *Classifier) Classify(ctx context.Context, text string, track models.Track) models.SentimentResult {
	res := c.classify(ctx, text, track)
	c.metrics.Sentiment(track.String(), res.Source.String())
	return res
}

func (c *Classifier) classify(ctx context.Context, text string, track models.Track) models.SentimentResult {
	model := c.backends[track]
	switch {
	case model == nil:
		return c.Fallback(text)
	case textutil.IsBlank(text):
		return c.Fallback(text)
	case textutil.RuneLen(text) > c.th.MaxModelInputRunes:
		return c.Fallback(text)
	}

	if v, ok := c.cache.Load(cacheKey(model.Version(), track, text)); ok {
		return v.(models.SentimentResult)
	}

	score, servedBy, err := c.callModel(ctx, model, text, track)
	if err != nil {
		c.logger.Warn("Sentiment model failed, using keyword fallback",
			zap.String("model", model.Version()),
			zap.String("track", track.String()),
			zap.Error(err))
		return c.Fallback(text)
	}

	polarity := score.Polarity()
	res := models.SentimentResult{
		Score:      polarity,
		Label:      Label(polarity, c.th),
		Confidence: score.Confidence(),
		Source:     models.SourceModel,
	}
	c.cache.Store(cacheKey(servedBy, track, text), res)
	return res
}

func (c *Classifier) callModel(ctx context.Context, model Model, text string, track models.Track) (models.ModelScore, string, error) {
	var score models.ModelScore
	var version string
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		s, v, err := model.Score(ctx, text, track)
		if err != nil {
			return err
		}
		if !s.Valid() {
			return retry.Permanent(fmt.Errorf("invalid distribution %+v from %s", s, v))
		}
		score, version = s, v
		return nil
	})
	if err == nil {
		return score, version, nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return score, "", &models.TimeoutError{Op: "sentiment " + model.Version(), After: c.retry.Timeout}
	}
	return score, "", &models.ModelUnavailableError{Model: model.Version(), Err: err}
}

// Fallback scores text with the bilingual lexicon:
// (positive - negative) / (positive + negative + 1).
func (c *Classifier) Fallback(text string) models.SentimentResult {
	counts := patterns.CountByClass(c.lexicon.Find(textutil.Normalize(text)))
	pos, neg := float64(counts[classPositive]), float64(counts[classNegative])
	score := (pos - neg) / (pos + neg + 1)
	return models.SentimentResult{
		Score:      score,
		Label:      Label(score, c.th),
		Confidence: c.th.FallbackConfidence,
		Source:     models.SourceKeywordFallback,
	}
}

// Label thresholds a score: above Positive is Positive, below Negative is
// Negative, otherwise Neutral.
func Label(score float64, th models.SentimentThresholds) models.SentimentLabel {
	switch {
	case score > th.Positive:
		return models.LabelPositive
	case score < th.Negative:
		return models.LabelNegative
	}
	return models.LabelNeutral
}

func cacheKey(version string, track models.Track, text string) string {
	var b strings.Builder
	b.Grow(len(version) + len(text) + 4)
	b.WriteString(version)
	b.WriteByte(0)
	b.WriteString(track.String())
	b.WriteByte(0)
	b.WriteString(text)
	return b.String()
}
