// Package features derives rolling engagement and sentiment statistics for
// each item against the earlier items of the same kind.
package features

import (
	"fmt"
	"slices"

	"reputation-service/internal/models"

	"gonum.org/v1/gonum/stat"
)

// Engineer computes temporal feature sets. It holds no state between calls.
type Engineer struct {
	th models.FeatureThresholds
}

func NewEngineer(th models.FeatureThresholds) *Engineer {
	d := models.DefaultThresholds().Features
	if th.WindowSize <= 0 {
		th.WindowSize = d.WindowSize
	}
	if th.Epsilon <= 0 {
		th.Epsilon = d.Epsilon
	}
	return &Engineer{th: th}
}

// ComputeFeatures returns one feature set per item, aligned with items.
//
// Items are stable-sorted by timestamp internally; the caller's order only
// decides ties. Each item is compared with the window of the most recent
// windowSize items of its kind, itself included. Shorter histories use
// whatever is available, so the first item's rolling mean is its own value.
// windowSize <= 0 uses the configured default.
//
// An item without a timestamp cannot be placed in a series and fails the
// whole call with models.ErrUnsortable.
func (e *Engineer) ComputeFeatures(items []*models.ContentItem, windowSize int) ([]models.TemporalFeatureSet, error) {
	if windowSize <= 0 {
		windowSize = e.th.WindowSize
	}
	for i, it := range items {
		if it == nil {
			return nil, fmt.Errorf("item %d is nil: %w", i, models.ErrUnsortable)
		}
		if it.Timestamp.IsZero() {
			return nil, fmt.Errorf("item %q: %w", it.ID, models.ErrUnsortable)
		}
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return items[a].Timestamp.Compare(items[b].Timestamp)
	})

	series := make(map[models.Kind][]int)
	for _, i := range order {
		k := items[i].Kind
		series[k] = append(series[k], i)
	}

	out := make([]models.TemporalFeatureSet, len(items))
	for _, idx := range series {
		e.computeSeries(items, idx, windowSize, out)
	}
	return out, nil
}

func (e *Engineer) computeSeries(items []*models.ContentItem, idx []int, w int, out []models.TemporalFeatureSet) {
	n := len(idx)
	views := make([]float64, n)
	likes := make([]float64, n)
	comments := make([]float64, n)
	original := make([]float64, n)
	translated := make([]float64, n)
	for k, i := range idx {
		it := items[i]
		views[k] = float64(it.Engagement.Views)
		likes[k] = float64(it.Engagement.Likes)
		comments[k] = float64(it.Engagement.Replies)
		original[k] = it.Annotations.Original.Sentiment.Score
		translated[k] = it.Annotations.Translated.Sentiment.Score
	}

	start := items[idx[0]].Timestamp
	for k, i := range idx {
		it := items[i]
		lo := max(0, k-w+1)

		fs := models.TemporalFeatureSet{
			ItemID:    it.ID,
			Kind:      it.Kind,
			Timestamp: it.Timestamp,

			Views:    e.metric(views, lo, k, w),
			Likes:    e.metric(likes, lo, k, w),
			Comments: e.metric(comments, lo, k, w),

			Original:   sentimentFeatures(original, lo, k),
			Translated: sentimentFeatures(translated, lo, k),

			LikeToView:     likes[k] / (views[k] + 1),
			CommentToView:  comments[k] / (views[k] + 1),
			DayOfWeek:      int(it.Timestamp.Weekday()),
			Month:          int(it.Timestamp.Month()),
			DaysSinceStart: int(it.Timestamp.Sub(start).Hours() / 24),
		}
		fs.PRRisk = e.prRisk(fs.Original) || e.prRisk(fs.Translated)
		out[i] = fs
	}
}

func (e *Engineer) metric(values []float64, lo, k, w int) models.MetricFeatures {
	win := values[lo : k+1]
	v := values[k]
	mean, std := MeanStdDev(win)

	m := models.MetricFeatures{
		Value:       v,
		RollingMean: mean,
		RollingStd:  std,
		Delta:       v - mean,
		ZScore:      (v - mean) / (std + e.th.Epsilon),
	}
	if mean != 0 {
		m.PctVsMean = m.Delta / mean
	}
	// change against the value one full window earlier; 0 when there is
	// none or it was 0
	if k-w >= 0 && values[k-w] != 0 {
		m.PctChange = (v - values[k-w]) / values[k-w]
	}
	return m
}

func sentimentFeatures(scores []float64, lo, k int) models.SentimentFeatures {
	f := models.SentimentFeatures{
		Score:      scores[k],
		Volatility: StdDev(scores[lo : k+1]),
	}
	if k > 0 {
		f.Momentum = scores[k] - scores[k-1]
	}
	return f
}

func (e *Engineer) prRisk(s models.SentimentFeatures) bool {
	return s.Momentum < e.th.PRRiskMomentum || s.Score < e.th.PRRiskSentiment
}

// MeanStdDev returns the mean and sample standard deviation of xs. The
// mean of no values is 0, as is the deviation of fewer than two.
func MeanStdDev(xs []float64) (mean, std float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}

// StdDev is the sample standard deviation, 0 for fewer than two values.
func StdDev(xs []float64) float64 {
	_, std := MeanStdDev(xs)
	return std
}
