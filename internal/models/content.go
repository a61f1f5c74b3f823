package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Kind distinguishes top-level videos from replies to them.
type Kind int

const (
	KindVideo Kind = iota
	KindComment
)

var kindNames = []string{"video", "comment"}

func (k Kind) String() string { return enumName(kindNames, k) }

// ParseKind parses "video" or "comment".
func ParseKind(s string) (Kind, error) { return parseEnum[Kind]("kind", kindNames, s) }

func (k Kind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

func (k *Kind) UnmarshalJSON(data []byte) error {
	return unmarshalEnum("kind", kindNames, data, k)
}

// LanguageHint is the ingestion-time language tag of an item's original text.
type LanguageHint int

const (
	HintUnknown LanguageHint = iota
	HintTelugu
	HintEnglish
	HintMixed
)

var hintNames = []string{"unknown", "te", "en", "mixed"}

func (h LanguageHint) String() string { return enumName(hintNames, h) }

// ParseLanguageHint accepts "te", "en", "mixed" and their long forms.
// An empty string is HintUnknown.
func ParseLanguageHint(s string) (LanguageHint, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unknown":
		return HintUnknown, nil
	case "telugu":
		return HintTelugu, nil
	case "english":
		return HintEnglish, nil
	}
	return parseEnum[LanguageHint]("language hint", hintNames, s)
}

func (h LanguageHint) MarshalJSON() ([]byte, error) { return json.Marshal(h.String()) }

func (h *LanguageHint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseLanguageHint(s)
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// Engagement holds the raw interaction counts of an item.
type Engagement struct {
	Views     int `json:"views"`
	Likes     int `json:"likes"`
	Replies   int `json:"replies"`
	Favorites int `json:"favorites"`
}

// Interactions is likes plus replies.
func (e Engagement) Interactions() int { return e.Likes + e.Replies }

// ContentItem is one video or comment. Core fields are set at ingestion and
// never modified afterwards; the pipeline writes only to Annotations.
type ContentItem struct {
	ID             string       `json:"id"`
	Kind           Kind         `json:"kind"`
	ParentID       string       `json:"parent_id,omitempty"`
	OriginalText   string       `json:"original_text"`
	TranslatedText string       `json:"translated_text,omitempty"`
	LanguageHint   LanguageHint `json:"language_hint"`
	Timestamp      time.Time    `json:"timestamp"`
	Engagement     Engagement   `json:"engagement"`

	Annotations Annotations `json:"annotations"`
}

// Translation returns the supplied translation, or the machine translation
// produced by the pipeline when none was supplied.
func (c *ContentItem) Translation() string {
	if strings.TrimSpace(c.TranslatedText) != "" {
		return c.TranslatedText
	}
	return c.Annotations.MachineTranslation
}

// View returns the per-track annotation that the language toggle selects.
func (c *ContentItem) View(mode Mode) TrackAnnotation {
	if mode == ModeTranslated {
		return c.Annotations.Translated
	}
	return c.Annotations.Original
}

// Sentiment returns the sentiment the language toggle selects.
func (c *ContentItem) Sentiment(mode Mode) SentimentResult {
	return c.View(mode).Sentiment
}

// AnnotationStatus records how far an item got through the pipeline.
type AnnotationStatus int

const (
	StatusPending AnnotationStatus = iota
	StatusAnnotated
	StatusNoData
	StatusFailed
)

var statusNames = []string{"pending", "annotated", "no_data", "failed"}

func (s AnnotationStatus) String() string { return enumName(statusNames, s) }

func (s AnnotationStatus) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *AnnotationStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum("annotation status", statusNames, data, s)
}

// Field names the core text field a track annotation was computed from.
type Field int

const (
	FieldNone Field = iota
	FieldOriginal
	FieldTranslated
)

var fieldNames = []string{"none", "original", "translated"}

func (f Field) String() string { return enumName(fieldNames, f) }

func (f Field) MarshalJSON() ([]byte, error) { return json.Marshal(f.String()) }

func (f *Field) UnmarshalJSON(data []byte) error {
	return unmarshalEnum("field", fieldNames, data, f)
}

// TrackAnnotation is everything derived from one selected text.
type TrackAnnotation struct {
	Status           AnnotationStatus `json:"status"`
	Track            Track            `json:"track"`
	Field            Field            `json:"field"`
	Degraded         bool             `json:"degraded"`
	Sentiment        SentimentResult  `json:"sentiment"`
	Keywords         []Keyword        `json:"keywords,omitempty"`
	CriticalKeywords []string         `json:"critical_keywords,omitempty"`
}

// Annotations are written by the pipeline. Both tracks are always computed.
type Annotations struct {
	Original           TrackAnnotation  `json:"original"`
	Translated         TrackAnnotation  `json:"translated"`
	Threat             ThreatAssessment `json:"threat"`
	MachineTranslation string           `json:"machine_translation,omitempty"`
	ProcessedAt        time.Time        `json:"processed_at,omitempty"`
}

// Keyword is a ranked token.
type Keyword struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}
