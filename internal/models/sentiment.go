package models

import (
	"encoding/json"
	"math"
)

// SentimentLabel is the discrete polarity derived from a score.
type SentimentLabel int

const (
	LabelNeutral SentimentLabel = iota
	LabelPositive
	LabelNegative
)

var labelNames = []string{"Neutral", "Positive", "Negative"}

func (l SentimentLabel) String() string { return enumName(labelNames, l) }

func ParseSentimentLabel(s string) (SentimentLabel, error) {
	return parseEnum[SentimentLabel]("sentiment label", labelNames, s)
}

func (l SentimentLabel) MarshalJSON() ([]byte, error) { return json.Marshal(l.String()) }

func (l *SentimentLabel) UnmarshalJSON(data []byte) error {
	return unmarshalEnum("sentiment label", labelNames, data, l)
}

// SentimentSource tells whether a result came from a model or the lexicon.
type SentimentSource int

const (
	SourceNone SentimentSource = iota
	SourceModel
	SourceKeywordFallback
)

var sourceNames = []string{"None", "Model", "KeywordFallback"}

func (s SentimentSource) String() string { return enumName(sourceNames, s) }

func ParseSentimentSource(s string) (SentimentSource, error) {
	return parseEnum[SentimentSource]("sentiment source", sourceNames, s)
}

func (s SentimentSource) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *SentimentSource) UnmarshalJSON(data []byte) error {
	return unmarshalEnum("sentiment source", sourceNames, data, s)
}

// SentimentResult is the outcome of classifying one text.
// Score is in [-1, 1], Confidence in [0, 1].
type SentimentResult struct {
	Score      float64         `json:"score"`
	Label      SentimentLabel  `json:"label"`
	Confidence float64         `json:"confidence"`
	Source     SentimentSource `json:"source"`
}

// NoDataSentiment is recorded for items with no usable text.
func NoDataSentiment() SentimentResult {
	return SentimentResult{Label: LabelNeutral, Source: SourceNone}
}

// HasData reports whether the result was produced from actual text.
func (r SentimentResult) HasData() bool { return r.Source != SourceNone }

// ModelScore is a model's probability distribution over polarities.
type ModelScore struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// Polarity returns P(positive) - P(negative) clamped to [-1, 1].
func (m ModelScore) Polarity() float64 {
	return Clamp(m.Positive-m.Negative, -1, 1)
}

// Confidence returns the largest probability clamped to [0, 1].
func (m ModelScore) Confidence() float64 {
	return Clamp(math.Max(m.Positive, math.Max(m.Neutral, m.Negative)), 0, 1)
}

// Valid reports whether every probability is a finite non-negative number
// and at least one is positive.
func (m ModelScore) Valid() bool {
	sum := 0.0
	for _, p := range []float64{m.Positive, m.Neutral, m.Negative} {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return false
		}
		sum += p
	}
	return sum > 0
}

// Clamp limits v to [lo, hi]. NaN becomes lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
