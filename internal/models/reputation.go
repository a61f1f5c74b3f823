package models

import (
	"encoding/json"
	"time"
)

// RiskLevel is the corpus-level reputation state.
type RiskLevel int

const (
	RiskStable RiskLevel = iota
	RiskElevated
	RiskCritical
)

var riskNames = []string{"Stable", "Elevated", "Critical"}

func (r RiskLevel) String() string { return enumName(riskNames, r) }

func (r RiskLevel) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }

func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	return unmarshalEnum("risk level", riskNames, data, r)
}

// Trend is the direction of recent sentiment.
type Trend int

const (
	TrendStable Trend = iota
	TrendImproving
	TrendDeclining
	TrendAtRisk
)

var trendNames = []string{"Stable", "Improving", "Declining", "AtRisk"}

func (t Trend) String() string { return enumName(trendNames, t) }

func (t Trend) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *Trend) UnmarshalJSON(data []byte) error {
	return unmarshalEnum("trend", trendNames, data, t)
}

// ReputationSnapshot summarises a corpus.
type ReputationSnapshot struct {
	OverallScore   float64             `json:"overall_score"`
	RiskLevel      RiskLevel           `json:"risk_level"`
	ThreatCounts   map[ThreatLevel]int `json:"threat_counts"`
	EscalationRate float64             `json:"escalation_rate"`
	MeanSentiment  float64             `json:"mean_sentiment"`
	Trend          Trend               `json:"trend"`
	ItemCount      int                 `json:"item_count"`
	EvaluatedCount int                 `json:"evaluated_count"`
	From           *time.Time          `json:"from,omitempty"`
	To             *time.Time          `json:"to,omitempty"`
}

// TimeWindow bounds a snapshot. Zero bounds are open.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window, bounds inclusive.
func (w *TimeWindow) Contains(t time.Time) bool {
	if w == nil {
		return true
	}
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// CrisisStatus is the escalation state reported to operators.
type CrisisStatus int

const (
	CrisisNormal CrisisStatus = iota
	CrisisElevated
	CrisisHigh
	CrisisCritical
)

var crisisNames = []string{"NORMAL", "ELEVATED", "HIGH", "CRITICAL"}

func (c CrisisStatus) String() string { return enumName(crisisNames, c) }

func (c CrisisStatus) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (c *CrisisStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum("crisis status", crisisNames, data, c)
}

// Alert is an executive notification.
type Alert struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Count    int    `json:"count"`
}

// ActiveCrisis points at an item (or group of items) needing response.
type ActiveCrisis struct {
	ItemID     string           `json:"item_id,omitempty"`
	Kind       string           `json:"kind"`
	Level      ThreatLevel      `json:"level"`
	Score      float64          `json:"score"`
	Categories []ThreatCategory `json:"categories,omitempty"`
	Patterns   []string         `json:"patterns,omitempty"`
	Count      int              `json:"count,omitempty"`
}

// TermCount is a matched pattern and how many items contained it.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// CrisisReport is the operator-facing crisis summary.
type CrisisReport struct {
	Status         CrisisStatus           `json:"status"`
	TotalThreats   int                    `json:"total_threats"`
	ThreatCounts   map[ThreatLevel]int    `json:"threat_counts"`
	Distribution   map[ThreatCategory]int `json:"distribution"`
	Velocity       int                    `json:"velocity"`
	TrendingTerms  []TermCount            `json:"trending_terms"`
	Alerts         []Alert                `json:"alerts"`
	ActiveCrises   []ActiveCrisis         `json:"active_crises"`
	KeyFigureItems int                    `json:"key_figure_items"`
	GeneratedAt    time.Time              `json:"generated_at"`
}
