// Package ingest reads content items from CSV or JSON and validates them at
// the boundary. Malformed rows are reported and excluded, never guessed at.
package ingest

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"reputation-service/internal/models"
	"reputation-service/internal/textutil"

	"github.com/go-playground/validator/v10"
)

// Record is one input row with every field still in textual form except
// the parsed engagement counts.
type Record struct {
	ID             string `json:"id" validate:"required,max=256"`
	Kind           string `json:"kind" validate:"required,oneof=video comment"`
	ParentID       string `json:"parent_id"`
	OriginalText   string `json:"original_text" validate:"required_without=TranslatedText"`
	TranslatedText string `json:"translated_text" validate:"required_without=OriginalText"`
	Language       string `json:"language"`
	Timestamp      string `json:"timestamp" validate:"required"`
	Views          int    `json:"views" validate:"gte=0"`
	Likes          int    `json:"likes" validate:"gte=0"`
	Comments       int    `json:"comments" validate:"gte=0"`
	Favorites      int    `json:"favorites" validate:"gte=0"`
}

// Report summarises one ingestion run.
type Report struct {
	Rows     int                            `json:"rows"`
	Accepted int                            `json:"accepted"`
	Rejected []*models.MalformedRecordError `json:"rejected"`
}

// Err joins every rejection, or returns nil.
func (r Report) Err() error {
	errs := make([]error, len(r.Rejected))
	for i, e := range r.Rejected {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// timestampLayouts are tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-01-2006",
}

// ParseTimestamp accepts RFC 3339 and the date layouts found in exported
// channel data. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// parseCount reads a non-negative engagement count. Blank is zero.
// Thousands separators and integral floats ("12.0") are accepted.
func parseCount(s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}

// Validator checks records and converts them to items.
type Validator struct {
	validate *validator.Validate
	seen     map[string]struct{}
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return &Validator{validate: v, seen: make(map[string]struct{})}
}

// Item validates rec and converts it. line numbers the row in its source.
// Text is cleaned to valid NFC UTF-8 and blank text counts as missing.
// An id seen earlier in the same run is rejected.
func (v *Validator) Item(line int, rec Record) (*models.ContentItem, *models.MalformedRecordError) {
	rec.ID = strings.TrimSpace(rec.ID)
	rec.Kind = strings.ToLower(strings.TrimSpace(rec.Kind))
	rec.ParentID = strings.TrimSpace(rec.ParentID)
	rec.OriginalText = strings.TrimSpace(textutil.Clean(rec.OriginalText))
	rec.TranslatedText = strings.TrimSpace(textutil.Clean(rec.TranslatedText))
	rec.Timestamp = strings.TrimSpace(rec.Timestamp)

	malformed := func(field, reason string) *models.MalformedRecordError {
		return &models.MalformedRecordError{Line: line, ID: rec.ID, Field: field, Reason: reason}
	}

	if err := v.validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, malformed(fe.Field(), describe(fe))
		}
		return nil, malformed("record", err.Error())
	}

	kind, err := models.ParseKind(rec.Kind)
	if err != nil {
		return nil, malformed("kind", err.Error())
	}
	hint, err := models.ParseLanguageHint(rec.Language)
	if err != nil {
		return nil, malformed("language", err.Error())
	}
	ts, err := ParseTimestamp(rec.Timestamp)
	if err != nil {
		return nil, malformed("timestamp", err.Error())
	}
	if _, dup := v.seen[rec.ID]; dup {
		return nil, malformed("id", "duplicate id")
	}
	v.seen[rec.ID] = struct{}{}

	return &models.ContentItem{
		ID:             rec.ID,
		Kind:           kind,
		ParentID:       rec.ParentID,
		OriginalText:   rec.OriginalText,
		TranslatedText: rec.TranslatedText,
		LanguageHint:   hint,
		Timestamp:      ts,
		Engagement: models.Engagement{
			Views:     rec.Views,
			Likes:     rec.Likes,
			Replies:   rec.Comments,
			Favorites: rec.Favorites,
		},
	}, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "missing"
	case "required_without":
		return "no text in original_text or translated_text"
	case "gte":
		return "must not be negative"
	case "oneof":
		return fmt.Sprintf("%q is not one of %s", fe.Value(), fe.Param())
	case "max":
		return "too long"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// Items validates already decoded items, as received over the API, and
// returns the accepted ones. Lines count from 1 in input order.
func Items(in []models.ContentItem) ([]*models.ContentItem, Report) {
	v := NewValidator()
	rep := Report{Rows: len(in), Rejected: []*models.MalformedRecordError{}}
	out := make([]*models.ContentItem, 0, len(in))
	for i, it := range in {
		rec := Record{
			ID:             it.ID,
			Kind:           it.Kind.String(),
			ParentID:       it.ParentID,
			OriginalText:   it.OriginalText,
			TranslatedText: it.TranslatedText,
			Language:       it.LanguageHint.String(),
			Views:          it.Engagement.Views,
			Likes:          it.Engagement.Likes,
			Comments:       it.Engagement.Replies,
			Favorites:      it.Engagement.Favorites,
		}
		if !it.Timestamp.IsZero() {
			rec.Timestamp = it.Timestamp.UTC().Format(time.RFC3339Nano)
		}
		item, bad := v.Item(i+1, rec)
		if bad != nil {
			rep.Rejected = append(rep.Rejected, bad)
			continue
		}
		out = append(out, item)
	}
	rep.Accepted = len(out)
	return out, rep
}
