package models

// Thresholds gathers every tunable cut point of the pipeline in one place.
type Thresholds struct {
	Sentiment  SentimentThresholds  `yaml:"sentiment" json:"sentiment"`
	Threat     ThreatThresholds     `yaml:"threat" json:"threat"`
	Features   FeatureThresholds    `yaml:"features" json:"features"`
	Reputation ReputationThresholds `yaml:"reputation" json:"reputation"`
	Crisis     CrisisThresholds     `yaml:"crisis" json:"crisis"`
}

type SentimentThresholds struct {
	// Scores strictly above Positive are labelled Positive, strictly below
	// Negative are labelled Negative.
	Positive float64 `yaml:"positive" json:"positive"`
	Negative float64 `yaml:"negative" json:"negative"`
	// MaxModelInputRunes is the longest text sent to a model. Longer text
	// is classified with the lexicon instead.
	MaxModelInputRunes int     `yaml:"max_model_input_runes" json:"max_model_input_runes"`
	FallbackConfidence float64 `yaml:"fallback_confidence" json:"fallback_confidence"`
}

type ThreatThresholds struct {
	CategoryHitCap int `yaml:"category_hit_cap" json:"category_hit_cap"`

	NegativeSentiment float64 `yaml:"negative_sentiment" json:"negative_sentiment"`
	SentimentFactor   float64 `yaml:"sentiment_factor" json:"sentiment_factor"`

	// Engagement is high when likes+replies exceed
	// max(MinHighEngagement, EngagementMedianMultiple * corpus median).
	MinHighEngagement        int     `yaml:"min_high_engagement" json:"min_high_engagement"`
	EngagementMedianMultiple float64 `yaml:"engagement_median_multiple" json:"engagement_median_multiple"`
	EngagementFactor         float64 `yaml:"engagement_factor" json:"engagement_factor"`

	KeyFigureFactor float64 `yaml:"key_figure_factor" json:"key_figure_factor"`

	MaxScore float64 `yaml:"max_score" json:"max_score"`
	Critical float64 `yaml:"critical" json:"critical"`
	High     float64 `yaml:"high" json:"high"`
	Medium   float64 `yaml:"medium" json:"medium"`
}

type FeatureThresholds struct {
	WindowSize      int     `yaml:"window_size" json:"window_size"`
	Epsilon         float64 `yaml:"epsilon" json:"epsilon"`
	PRRiskMomentum  float64 `yaml:"pr_risk_momentum" json:"pr_risk_momentum"`
	PRRiskSentiment float64 `yaml:"pr_risk_sentiment" json:"pr_risk_sentiment"`
}

type ReputationThresholds struct {
	SentimentWeight  float64 `yaml:"sentiment_weight" json:"sentiment_weight"`
	ThreatWeight     float64 `yaml:"threat_weight" json:"threat_weight"`
	NeutralScore     float64 `yaml:"neutral_score" json:"neutral_score"`
	StableAbove      float64 `yaml:"stable_above" json:"stable_above"`
	CriticalBelow    float64 `yaml:"critical_below" json:"critical_below"`
	EscalationWindow int     `yaml:"escalation_window" json:"escalation_window"`
	// Trend labels on the mean sentiment of the most recent sub-window.
	TrendImproving float64 `yaml:"trend_improving" json:"trend_improving"`
	TrendDeclining float64 `yaml:"trend_declining" json:"trend_declining"`
	TrendAtRisk    float64 `yaml:"trend_at_risk" json:"trend_at_risk"`
}

type CrisisThresholds struct {
	HighVolumeThreats   int `yaml:"high_volume_threats" json:"high_volume_threats"`
	MultipleHighThreats int `yaml:"multiple_high_threats" json:"multiple_high_threats"`
	ElevatedThreats     int `yaml:"elevated_threats" json:"elevated_threats"`
	TopCrises           int `yaml:"top_crises" json:"top_crises"`
	TrendingTerms       int `yaml:"trending_terms" json:"trending_terms"`
	VelocityWindow      int `yaml:"velocity_window" json:"velocity_window"`
}

// DefaultThresholds returns the calibrated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Sentiment: SentimentThresholds{
			Positive:           0.05,
			Negative:           -0.05,
			MaxModelInputRunes: 512,
			FallbackConfidence: 0.5,
		},
		Threat: ThreatThresholds{
			CategoryHitCap:           3,
			NegativeSentiment:        -0.5,
			SentimentFactor:          1.3,
			MinHighEngagement:        5,
			EngagementMedianMultiple: 2,
			EngagementFactor:         1.2,
			KeyFigureFactor:          1.5,
			MaxScore:                 10,
			Critical:                 8,
			High:                     6,
			Medium:                   4,
		},
		Features: FeatureThresholds{
			WindowSize:      7,
			Epsilon:         1e-9,
			PRRiskMomentum:  -0.2,
			PRRiskSentiment: -0.3,
		},
		Reputation: ReputationThresholds{
			SentimentWeight:  0.6,
			ThreatWeight:     0.4,
			NeutralScore:     50,
			StableAbove:      60,
			CriticalBelow:    35,
			EscalationWindow: 50,
			TrendImproving:   0.3,
			TrendDeclining:   -0.05,
			TrendAtRisk:      -0.3,
		},
		Crisis: CrisisThresholds{
			HighVolumeThreats:   10,
			MultipleHighThreats: 3,
			ElevatedThreats:     5,
			TopCrises:           5,
			TrendingTerms:       10,
			VelocityWindow:      100,
		},
	}
}
