// Package export flattens annotated items into one row per item for CSV
// and JSON downloads.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"reputation-service/internal/models"
)

const listSep = ", "

// Row is the flat export form of an annotated item. List fields are
// joined with ", ".
type Row struct {
	ID                  string  `json:"id"`
	Kind                string  `json:"kind"`
	ParentID            string  `json:"parent_id"`
	Timestamp           string  `json:"timestamp"`
	Language            string  `json:"language"`
	OriginalText        string  `json:"original_text"`
	TranslatedText      string  `json:"translated_text"`
	MachineTranslated   bool    `json:"machine_translated"`
	Views               int     `json:"views"`
	Likes               int     `json:"likes"`
	Comments            int     `json:"comments"`
	SentimentOriginal   float64 `json:"sentiment_original"`
	LabelOriginal       string  `json:"sentiment_label_original"`
	SourceOriginal      string  `json:"sentiment_source_original"`
	SentimentTranslated float64 `json:"sentiment_translated"`
	LabelTranslated     string  `json:"sentiment_label_translated"`
	SourceTranslated    string  `json:"sentiment_source_translated"`
	KeywordsOriginal    string  `json:"keywords_original"`
	KeywordsTranslated  string  `json:"keywords_translated"`
	CriticalKeywords    string  `json:"critical_keywords"`
	Degraded            bool    `json:"degraded"`
	ThreatDetected      bool    `json:"threat_detected"`
	ThreatLevel         string  `json:"threat_level"`
	ThreatScore         float64 `json:"threat_score"`
	ThreatCategories    string  `json:"threat_categories"`
	ThreatPatterns      string  `json:"threat_patterns"`
	KeyFigureMentioned  bool    `json:"key_figure_mentioned"`
}

var header = []string{
	"id", "kind", "parent_id", "timestamp", "language",
	"original_text", "translated_text", "machine_translated",
	"views", "likes", "comments",
	"sentiment_original", "sentiment_label_original", "sentiment_source_original",
	"sentiment_translated", "sentiment_label_translated", "sentiment_source_translated",
	"keywords_original", "keywords_translated", "critical_keywords", "degraded",
	"threat_detected", "threat_level", "threat_score", "threat_categories", "threat_patterns",
	"key_figure_mentioned",
}

// FromItem flattens one item.
func FromItem(it *models.ContentItem) Row {
	a := it.Annotations
	orig, tr := a.Original, a.Translated

	categories := make([]string, len(a.Threat.Categories))
	for i, c := range a.Threat.Categories {
		categories[i] = c.String()
	}

	return Row{
		ID:                  it.ID,
		Kind:                it.Kind.String(),
		ParentID:            it.ParentID,
		Timestamp:           it.Timestamp.UTC().Format(time.RFC3339),
		Language:            it.LanguageHint.String(),
		OriginalText:        it.OriginalText,
		TranslatedText:      it.Translation(),
		MachineTranslated:   strings.TrimSpace(it.TranslatedText) == "" && a.MachineTranslation != "",
		Views:               it.Engagement.Views,
		Likes:               it.Engagement.Likes,
		Comments:            it.Engagement.Replies,
		SentimentOriginal:   orig.Sentiment.Score,
		LabelOriginal:       orig.Sentiment.Label.String(),
		SourceOriginal:      orig.Sentiment.Source.String(),
		SentimentTranslated: tr.Sentiment.Score,
		LabelTranslated:     tr.Sentiment.Label.String(),
		SourceTranslated:    tr.Sentiment.Source.String(),
		KeywordsOriginal:    joinKeywords(orig.Keywords),
		KeywordsTranslated:  joinKeywords(tr.Keywords),
		CriticalKeywords:    strings.Join(union(orig.CriticalKeywords, tr.CriticalKeywords), listSep),
		Degraded:            orig.Degraded || tr.Degraded,
		ThreatDetected:      a.Threat.Detected,
		ThreatLevel:         a.Threat.Level.String(),
		ThreatScore:         a.Threat.AmplifiedScore,
		ThreatCategories:    strings.Join(categories, listSep),
		ThreatPatterns:      strings.Join(a.Threat.MatchedPatterns, listSep),
		KeyFigureMentioned:  a.Threat.KeyFigureMentioned,
	}
}

// Rows flattens items in order, skipping nil entries.
func Rows(items []*models.ContentItem) []Row {
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		if it != nil {
			rows = append(rows, FromItem(it))
		}
	}
	return rows
}

func joinKeywords(kws []models.Keyword) string {
	terms := make([]string, len(kws))
	for i, k := range kws {
		terms[i] = k.Term
	}
	return strings.Join(terms, listSep)
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func (r Row) record() []string {
	return []string{
		r.ID, r.Kind, r.ParentID, r.Timestamp, r.Language,
		r.OriginalText, r.TranslatedText, strconv.FormatBool(r.MachineTranslated),
		strconv.Itoa(r.Views), strconv.Itoa(r.Likes), strconv.Itoa(r.Comments),
		formatFloat(r.SentimentOriginal), r.LabelOriginal, r.SourceOriginal,
		formatFloat(r.SentimentTranslated), r.LabelTranslated, r.SourceTranslated,
		r.KeywordsOriginal, r.KeywordsTranslated, r.CriticalKeywords, strconv.FormatBool(r.Degraded),
		strconv.FormatBool(r.ThreatDetected), r.ThreatLevel, formatFloat(r.ThreatScore),
		r.ThreatCategories, r.ThreatPatterns, strconv.FormatBool(r.KeyFigureMentioned),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// WriteCSV writes a header and one row per item.
func WriteCSV(w io.Writer, items []*models.ContentItem) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range Rows(items) {
		if err := writer.Write(r.record()); err != nil {
			return fmt.Errorf("failed to write CSV row %s: %w", r.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes an indented JSON array of rows.
func WriteJSON(w io.Writer, items []*models.ContentItem) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(Rows(items)); err != nil {
		return fmt.Errorf("failed to encode JSON export: %w", err)
	}
	return nil
}
