package reputation

import (
	"fmt"
	"testing"
	"time"

	"reputation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func newAggregator() *Aggregator {
	th := models.DefaultThresholds()
	a := NewAggregator(th.Reputation, th.Crisis)
	a.now = func() time.Time { return t0 }
	return a
}

func neutral() models.SentimentResult {
	return models.SentimentResult{Label: models.LabelNeutral, Confidence: 0.9, Source: models.SourceModel}
}

func scored(s float64) models.SentimentResult {
	l := models.LabelNeutral
	switch {
	case s > 0.05:
		l = models.LabelPositive
	case s < -0.05:
		l = models.LabelNegative
	}
	return models.SentimentResult{Score: s, Label: l, Confidence: 0.8, Source: models.SourceModel}
}

func critical() models.ThreatAssessment {
	return models.ThreatAssessment{
		Detected: true, Categories: []models.ThreatCategory{models.DeathThreat},
		RawScore: 9, AmplifiedScore: 9, Level: models.ThreatCritical, MatchedPatterns: []string{"kill"},
	}
}

func corpus(n int) []*models.ContentItem {
	items := make([]*models.ContentItem, n)
	for i := range items {
		items[i] = &models.ContentItem{ID: fmt.Sprintf("i%d", i), Timestamp: t0.Add(time.Duration(i) * time.Hour)}
	}
	return items
}

func TestNeutralCorpusBaseline(t *testing.T) {
	items := corpus(100)
	sentiments := make([]models.SentimentResult, 100)
	for i := range sentiments {
		sentiments[i] = neutral()
	}

	snap := newAggregator().Summarize(items, make([]models.ThreatAssessment, 100), sentiments, nil)
	assert.InDelta(t, 70.0, snap.OverallScore, 1e-9)
	assert.Equal(t, models.RiskStable, snap.RiskLevel)
	assert.Zero(t, snap.EscalationRate)
	assert.Equal(t, models.TrendStable, snap.Trend)
	for _, l := range models.ThreatLevels {
		assert.Equal(t, 0, snap.ThreatCounts[l])
	}
}

func TestEmptyCorpus(t *testing.T) {
	snap := newAggregator().Summarize(nil, nil, nil, nil)
	assert.Equal(t, 50.0, snap.OverallScore)
	assert.Equal(t, models.RiskStable, snap.RiskLevel)
	assert.Len(t, snap.ThreatCounts, len(models.ThreatLevels))
	assert.Zero(t, snap.EvaluatedCount)
}

func TestAddingCriticalNeverRaisesScore(t *testing.T) {
	a := newAggregator()
	cases := [][]float64{
		{},
		{-0.9, -0.8},
		{0.9, 0.9, 0.9},
		{-1, 0, 1, 0.2},
	}
	for _, scores := range cases {
		items := corpus(len(scores) + 1)
		sentiments := make([]models.SentimentResult, len(scores)+1)
		threats := make([]models.ThreatAssessment, len(scores)+1)
		for i, s := range scores {
			sentiments[i] = scored(s)
		}
		before := a.Summarize(items[:len(scores)], threats[:len(scores)], sentiments[:len(scores)], nil)

		for _, newSentiment := range []float64{1, 0, -1} {
			sentiments[len(scores)] = scored(newSentiment)
			threats[len(scores)] = critical()
			after := a.Summarize(items, threats, sentiments, nil)
			assert.LessOrEqual(t, after.OverallScore, before.OverallScore, "%v + %v", scores, newSentiment)
			assert.Equal(t, models.RiskCritical, after.RiskLevel)
		}
	}
}

func TestMoreNegativeSentimentNeverRaisesScore(t *testing.T) {
	a := newAggregator()
	items := corpus(3)
	threats := make([]models.ThreatAssessment, 3)
	hi := a.Summarize(items, threats, []models.SentimentResult{scored(0.5), scored(0.1), scored(0)}, nil)
	lo := a.Summarize(items, threats, []models.SentimentResult{scored(0.5), scored(-0.4), scored(0)}, nil)
	assert.Less(t, lo.OverallScore, hi.OverallScore)
}

func TestRiskLevels(t *testing.T) {
	a := newAggregator()
	items := corpus(4)
	threats := make([]models.ThreatAssessment, 4)

	s := a.Summarize(items, threats, []models.SentimentResult{scored(-0.4), scored(-0.4), scored(-0.4), scored(-0.4)}, nil)
	// 0.6*30 + 0.4*100 = 58
	assert.InDelta(t, 58.0, s.OverallScore, 1e-9)
	assert.Equal(t, models.RiskElevated, s.RiskLevel)

	s = a.Summarize(items, threats, []models.SentimentResult{scored(-1), scored(-1), scored(-1), scored(-1)}, nil)
	assert.InDelta(t, 40.0, s.OverallScore, 1e-9)
	assert.Equal(t, models.RiskElevated, s.RiskLevel)

	high := models.ThreatAssessment{Detected: true, Level: models.ThreatHigh, AmplifiedScore: 6, RawScore: 6}
	s = a.Summarize(items, []models.ThreatAssessment{high, high, high, {}}, []models.SentimentResult{scored(-1), scored(-1), scored(-1), scored(-1)}, nil)
	// 0.6*0 + 0.4*25
	assert.InDelta(t, 10.0, s.OverallScore, 1e-9)
	assert.Equal(t, models.RiskCritical, s.RiskLevel)
	assert.Equal(t, 3, s.ThreatCounts[models.ThreatHigh])
}

func TestEscalationRate(t *testing.T) {
	items := corpus(6)
	sentiments := []models.SentimentResult{
		scored(0.5), scored(0.5), scored(-0.5),
		scored(-0.5), scored(-0.5), scored(-0.5),
	}
	snap := newAggregator().Summarize(items, make([]models.ThreatAssessment, 6), sentiments, nil)
	// recent 3 all negative, earlier 3 one negative
	assert.InDelta(t, 1-1.0/3.0, snap.EscalationRate, 1e-9)
	assert.Equal(t, models.TrendAtRisk, snap.Trend)
	assert.Greater(t, snap.EscalationRate, 0.0)
}

func TestEscalationUsesTimestampOrder(t *testing.T) {
	items := corpus(4)
	// input order is the reverse of time order; the last two by time are negative
	items[0].Timestamp, items[3].Timestamp = items[3].Timestamp, items[0].Timestamp
	items[1].Timestamp, items[2].Timestamp = items[2].Timestamp, items[1].Timestamp
	sentiments := []models.SentimentResult{scored(-0.5), scored(-0.5), scored(0.5), scored(0.5)}
	snap := newAggregator().Summarize(items, make([]models.ThreatAssessment, 4), sentiments, nil)
	assert.InDelta(t, 1.0, snap.EscalationRate, 1e-9)
}

func TestWindowFilters(t *testing.T) {
	items := corpus(10)
	threats := make([]models.ThreatAssessment, 10)
	threats[0] = critical()
	w := &models.TimeWindow{From: t0.Add(time.Hour)}

	snap := newAggregator().Summarize(items, threats, make([]models.SentimentResult, 10), w)
	assert.Equal(t, 9, snap.EvaluatedCount)
	assert.Equal(t, 0, snap.ThreatCounts[models.ThreatCritical])
	require.NotNil(t, snap.From)
	assert.Nil(t, snap.To)
}

func TestSummarizeItemsUsesMode(t *testing.T) {
	items := corpus(2)
	for _, it := range items {
		it.Annotations.Original.Sentiment = scored(-0.9)
		it.Annotations.Translated.Sentiment = scored(0.9)
	}
	a := newAggregator()
	orig := a.SummarizeItems(items, models.ModeOriginal, nil)
	tr := a.SummarizeItems(items, models.ModeTranslated, nil)
	assert.Less(t, orig.OverallScore, tr.OverallScore)
}

func TestMeanSentimentIgnoresNoData(t *testing.T) {
	a := newAggregator()
	items := corpus(3)
	sentiments := []models.SentimentResult{scored(0.6), models.NoDataSentiment(), scored(-0.2)}
	threats := []models.ThreatAssessment{{}, {}, critical()}

	snap := a.Summarize(items, threats, sentiments, nil)
	assert.InDelta(t, 0.2, snap.MeanSentiment, 1e-12)

	// the severe item counts as -1 in the score but not in the raw mean
	sw, tw := a.th.SentimentWeight, a.th.ThreatWeight
	want := (sw*40 + tw*(200.0/3)) / (sw + tw)
	assert.InDelta(t, want, snap.OverallScore, 1e-9)

	assert.Zero(t, mean(nil))
}
