// Package threat scores content against the crisis pattern dictionary.
package threat

import (
	"math"
	"strings"

	"reputation-service/internal/lexicon"
	"reputation-service/internal/models"
	"reputation-service/internal/patterns"
	"reputation-service/internal/router"
	"reputation-service/internal/textutil"

	"go.uber.org/zap"
)

// Signals are the corroborating inputs used for amplification.
type Signals struct {
	Sentiment              models.SentimentResult
	Engagement             models.Engagement
	CorpusMedianEngagement float64
}

// Detector is safe for concurrent use.
type Detector struct {
	vocab      *patterns.Matcher
	weights    map[models.ThreatCategory]float64
	keyFigures []string
	th         models.ThreatThresholds
	logger     *zap.Logger
}

func NewDetector(lex *lexicon.Lexicon, th models.ThreatThresholds, logger *zap.Logger) *Detector {
	weights := make(map[models.ThreatCategory]float64, len(models.ThreatCategories))
	for _, c := range models.ThreatCategories {
		weights[c] = lex.Weight(c)
	}
	if th.MaxScore <= 0 {
		th = models.DefaultThresholds().Threat
	}
	return &Detector{
		vocab:      lex.ThreatMatcher(),
		weights:    weights,
		keyFigures: lex.KeyFigures(),
		th:         th,
		logger:     logger,
	}
}

// DetectItem scans every text the item has, whatever the display mode.
func (d *Detector) DetectItem(item *models.ContentItem, sig Signals) models.ThreatAssessment {
	texts := make([]string, 0, 3)
	for _, t := range []string{item.OriginalText, item.TranslatedText, item.Annotations.MachineTranslation} {
		if !textutil.IsBlank(t) {
			texts = append(texts, t)
		}
	}
	text := strings.Join(texts, "\n")
	return d.Detect(text, router.DetectTrack(text), sig)
}

// Detect matches both scripts' patterns regardless of track; the track is
// only used for diagnostics. It never panics: a failure while scanning
// yields an undetected assessment.
func (d *Detector) Detect(text string, track models.Track, sig Signals) (a models.ThreatAssessment) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Threat scan failed",
				zap.String("track", track.String()),
				zap.Any("panic", r))
			a = models.ThreatAssessment{Level: models.ThreatNone}
		}
	}()

	norm := textutil.Normalize(text)
	a.KeyFigureMentioned = d.mentionsKeyFigure(norm)

	hits := d.vocab.Find(norm)
	if len(hits) == 0 {
		a.Level = models.ThreatNone
		return a
	}

	counts := patterns.CountByClass(hits)
	for _, c := range models.ThreatCategories {
		n := counts[int(c)]
		if n == 0 {
			continue
		}
		if d.th.CategoryHitCap > 0 && n > d.th.CategoryHitCap {
			n = d.th.CategoryHitCap
		}
		a.Categories = append(a.Categories, c)
		a.RawScore += d.weights[c] * float64(n)
	}

	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		if !seen[h.Entry.Phrase] {
			seen[h.Entry.Phrase] = true
			a.MatchedPatterns = append(a.MatchedPatterns, h.Entry.Phrase)
		}
	}

	a.Detected = a.RawScore > 0
	a.AmplifiedScore = models.Clamp(a.RawScore*d.factor(sig, a.KeyFigureMentioned), 0, d.th.MaxScore)
	a.Level = d.Level(a.AmplifiedScore, a.Detected)
	return a
}

// factor is the product of every corroborating signal; it is never below 1.
func (d *Detector) factor(sig Signals, keyFigure bool) float64 {
	f := 1.0
	if sig.Sentiment.HasData() && sig.Sentiment.Score < d.th.NegativeSentiment {
		f *= math.Max(1, d.th.SentimentFactor)
	}
	if d.highEngagement(sig) {
		f *= math.Max(1, d.th.EngagementFactor)
	}
	if keyFigure {
		f *= math.Max(1, d.th.KeyFigureFactor)
	}
	return f
}

func (d *Detector) highEngagement(sig Signals) bool {
	limit := math.Max(float64(d.th.MinHighEngagement), d.th.EngagementMedianMultiple*sig.CorpusMedianEngagement)
	return float64(sig.Engagement.Interactions()) > limit
}

func (d *Detector) mentionsKeyFigure(norm string) bool {
	for _, name := range d.keyFigures {
		if patterns.ContainsPhrase(norm, name) {
			return true
		}
	}
	return false
}

// Level maps an amplified score to its severity band.
func (d *Detector) Level(score float64, detected bool) models.ThreatLevel {
	if !detected {
		return models.ThreatNone
	}
	switch {
	case score >= d.th.Critical:
		return models.ThreatCritical
	case score >= d.th.High:
		return models.ThreatHigh
	case score >= d.th.Medium:
		return models.ThreatMedium
	}
	return models.ThreatLow
}
