// Package reputation summarises a corpus of annotated items into a
// reputation snapshot and an operator crisis report.
package reputation

import (
	"slices"
	"time"

	"reputation-service/internal/models"

	"gonum.org/v1/gonum/stat"
)

// Aggregator is stateless between calls.
type Aggregator struct {
	th     models.ReputationThresholds
	crisis models.CrisisThresholds
	now    func() time.Time
}

func NewAggregator(th models.ReputationThresholds, crisis models.CrisisThresholds) *Aggregator {
	d := models.DefaultThresholds()
	if th.SentimentWeight+th.ThreatWeight <= 0 {
		th = d.Reputation
	}
	if crisis.TopCrises <= 0 {
		crisis = d.Crisis
	}
	return &Aggregator{th: th, crisis: crisis, now: time.Now}
}

type evaluated struct {
	ts        time.Time
	threat    models.ThreatAssessment
	sentiment models.SentimentResult
}

// Summarize blends sentiment and threat density into a 0-100 score.
// threats and sentiments are aligned with items; missing entries count as
// no threat and no data. window, when non-nil, restricts the evaluated set.
//
// Items with a High or Critical threat contribute the floor sentiment (-1),
// so adding negative content or severe threats never raises the score.
func (a *Aggregator) Summarize(
	items []*models.ContentItem,
	threats []models.ThreatAssessment,
	sentiments []models.SentimentResult,
	window *models.TimeWindow,
) models.ReputationSnapshot {
	snap := models.ReputationSnapshot{
		OverallScore: a.th.NeutralScore,
		RiskLevel:    models.RiskStable,
		ThreatCounts: make(map[models.ThreatLevel]int, len(models.ThreatLevels)),
		Trend:        models.TrendStable,
		ItemCount:    len(items),
	}
	for _, l := range models.ThreatLevels {
		snap.ThreatCounts[l] = 0
	}
	if window != nil {
		if !window.From.IsZero() {
			from := window.From
			snap.From = &from
		}
		if !window.To.IsZero() {
			to := window.To
			snap.To = &to
		}
	}

	var evals []evaluated
	for i, it := range items {
		if it == nil || !window.Contains(it.Timestamp) {
			continue
		}
		e := evaluated{ts: it.Timestamp, sentiment: models.NoDataSentiment()}
		if i < len(threats) {
			e.threat = threats[i]
		}
		if i < len(sentiments) {
			e.sentiment = sentiments[i]
		}
		evals = append(evals, e)
	}
	snap.EvaluatedCount = len(evals)
	if len(evals) == 0 {
		return snap
	}

	var severe, critical int
	var adjusted, raw []float64
	for _, e := range evals {
		if e.threat.Detected {
			snap.ThreatCounts[e.threat.Level]++
		}
		isSevere := e.threat.Detected && e.threat.Level >= models.ThreatHigh
		if isSevere {
			severe++
		}
		if e.threat.Detected && e.threat.Level == models.ThreatCritical {
			critical++
		}

		if e.sentiment.HasData() {
			raw = append(raw, e.sentiment.Score)
		}
		switch {
		case isSevere:
			adjusted = append(adjusted, -1)
		case e.sentiment.HasData():
			adjusted = append(adjusted, e.sentiment.Score)
		}
	}

	adjMean := mean(adjusted)
	snap.MeanSentiment = mean(raw)

	sentimentComponent := (models.Clamp(adjMean, -1, 1) + 1) / 2 * 100
	threatComponent := (1 - float64(severe)/float64(len(evals))) * 100
	snap.OverallScore = (a.th.SentimentWeight*sentimentComponent + a.th.ThreatWeight*threatComponent) /
		(a.th.SentimentWeight + a.th.ThreatWeight)

	switch {
	case critical > 0 || snap.OverallScore < a.th.CriticalBelow:
		snap.RiskLevel = models.RiskCritical
	case snap.OverallScore >= a.th.StableAbove:
		snap.RiskLevel = models.RiskStable
	default:
		snap.RiskLevel = models.RiskElevated
	}

	slices.SortStableFunc(evals, func(x, y evaluated) int { return x.ts.Compare(y.ts) })
	snap.EscalationRate, snap.Trend = a.escalation(evals)
	return snap
}

// escalation compares the negative share of the most recent k items with
// the k items before them, k = min(n/2, EscalationWindow).
func (a *Aggregator) escalation(evals []evaluated) (float64, models.Trend) {
	n := len(evals)
	k := n / 2
	if a.th.EscalationWindow > 0 && k > a.th.EscalationWindow {
		k = a.th.EscalationWindow
	}
	if k == 0 {
		return 0, a.trend(evals)
	}
	recent := evals[n-k:]
	earlier := evals[n-2*k : n-k]
	return negativeShare(recent) - negativeShare(earlier), a.trend(recent)
}

func negativeShare(evals []evaluated) float64 {
	if len(evals) == 0 {
		return 0
	}
	neg := 0
	for _, e := range evals {
		if e.sentiment.HasData() && e.sentiment.Label == models.LabelNegative {
			neg++
		}
	}
	return float64(neg) / float64(len(evals))
}

func (a *Aggregator) trend(evals []evaluated) models.Trend {
	var scores []float64
	for _, e := range evals {
		if e.sentiment.HasData() {
			scores = append(scores, e.sentiment.Score)
		}
	}
	if len(scores) == 0 {
		return models.TrendStable
	}
	m := stat.Mean(scores, nil)
	switch {
	case m > a.th.TrendImproving:
		return models.TrendImproving
	case m > a.th.TrendDeclining:
		return models.TrendStable
	case m > a.th.TrendAtRisk:
		return models.TrendDeclining
	}
	return models.TrendAtRisk
}

// mean of xs, 0 for none.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// SummarizeItems reads threats and the mode's sentiment from the items'
// own annotations.
func (a *Aggregator) SummarizeItems(items []*models.ContentItem, mode models.Mode, window *models.TimeWindow) models.ReputationSnapshot {
	threats := make([]models.ThreatAssessment, len(items))
	sentiments := make([]models.SentimentResult, len(items))
	for i, it := range items {
		if it == nil {
			continue
		}
		threats[i] = it.Annotations.Threat
		sentiments[i] = it.Sentiment(mode)
	}
	return a.Summarize(items, threats, sentiments, window)
}
