package models

import "time"

// MetricFeatures are rolling statistics of one engagement metric against
// the prior window of items of the same kind.
type MetricFeatures struct {
	Value       float64 `json:"value"`
	RollingMean float64 `json:"rolling_mean"`
	RollingStd  float64 `json:"rolling_std"`
	Delta       float64 `json:"delta"`
	PctVsMean   float64 `json:"pct_vs_mean"`
	PctChange   float64 `json:"pct_change"`
	ZScore      float64 `json:"z_score"`
}

// SentimentFeatures track how the sentiment of one annotation track moves
// along a series.
type SentimentFeatures struct {
	Score      float64 `json:"score"`
	Momentum   float64 `json:"momentum"`
	Volatility float64 `json:"volatility"`
}

// TemporalFeatureSet is the feature vector of one item.
type TemporalFeatureSet struct {
	ItemID    string    `json:"item_id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	Views    MetricFeatures `json:"views"`
	Likes    MetricFeatures `json:"likes"`
	Comments MetricFeatures `json:"comments"`

	Original   SentimentFeatures `json:"sentiment_original"`
	Translated SentimentFeatures `json:"sentiment_translated"`

	LikeToView     float64 `json:"like_to_view"`
	CommentToView  float64 `json:"comment_to_view"`
	DayOfWeek      int     `json:"day_of_week"`
	Month          int     `json:"month"`
	DaysSinceStart int     `json:"days_since_start"`
	PRRisk         bool    `json:"pr_risk"`
}
