package models

import "encoding/json"

// ThreatCategory is one of the fixed crisis pattern families.
type ThreatCategory int

const (
	DeathThreat ThreatCategory = iota
	Occult
	Legal
	Violence
	ReputationAttack
	BusinessThreat
)

var categoryNames = []string{
	"DeathThreat",
	"Occult",
	"Legal",
	"Violence",
	"ReputationAttack",
	"BusinessThreat",
}

// ThreatCategories lists every category in declaration order.
var ThreatCategories = []ThreatCategory{DeathThreat, Occult, Legal, Violence, ReputationAttack, BusinessThreat}

func (c ThreatCategory) String() string { return enumName(categoryNames, c) }

func ParseThreatCategory(s string) (ThreatCategory, error) {
	return parseEnum[ThreatCategory]("threat category", categoryNames, s)
}

func (c ThreatCategory) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (c *ThreatCategory) UnmarshalJSON(data []byte) error {
	return unmarshalEnum("threat category", categoryNames, data, c)
}

func (c *ThreatCategory) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseThreatCategory(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ThreatLevel orders assessments by severity. ThreatNone means no pattern
// matched.
type ThreatLevel int

const (
	ThreatNone ThreatLevel = iota
	ThreatLow
	ThreatMedium
	ThreatHigh
	ThreatCritical
)

var levelNames = []string{"None", "Low", "Medium", "High", "Critical"}

// ThreatLevels lists the levels a detected threat can take.
var ThreatLevels = []ThreatLevel{ThreatLow, ThreatMedium, ThreatHigh, ThreatCritical}

func (l ThreatLevel) String() string { return enumName(levelNames, l) }

func ParseThreatLevel(s string) (ThreatLevel, error) {
	return parseEnum[ThreatLevel]("threat level", levelNames, s)
}

func (l ThreatLevel) MarshalJSON() ([]byte, error) { return json.Marshal(l.String()) }

func (l *ThreatLevel) UnmarshalJSON(data []byte) error {
	return unmarshalEnum("threat level", levelNames, data, l)
}

// ThreatAssessment is the per-item crisis pattern result.
type ThreatAssessment struct {
	Detected           bool             `json:"detected"`
	Categories         []ThreatCategory `json:"categories,omitempty"`
	RawScore           float64          `json:"raw_score"`
	AmplifiedScore     float64          `json:"amplified_score"`
	Level              ThreatLevel      `json:"level"`
	MatchedPatterns    []string         `json:"matched_patterns,omitempty"`
	KeyFigureMentioned bool             `json:"key_figure_mentioned,omitempty"`
}

// HasCategory reports whether c was matched.
func (a ThreatAssessment) HasCategory(c ThreatCategory) bool {
	for _, got := range a.Categories {
		if got == c {
			return true
		}
	}
	return false
}

// MarshalText lets levels key JSON maps by name.
func (l ThreatLevel) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *ThreatLevel) UnmarshalText(text []byte) error {
	v, err := ParseThreatLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

func (c ThreatCategory) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ThreatCategory) UnmarshalText(text []byte) error {
	v, err := ParseThreatCategory(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
