// Package router chooses which language variant of an item to analyse.
package router

import (
	"reputation-service/internal/models"
	"reputation-service/internal/textutil"
)

// Selection is the text picked for one mode.
type Selection struct {
	Text     string
	Track    models.Track
	Field    models.Field
	Degraded bool
}

// SelectText returns the text for mode, falling back to the other field
// when the preferred one is blank. The fallback is flagged as degraded.
// It returns *models.EmptyContentError when neither field has text.
func SelectText(item *models.ContentItem, mode models.Mode) (Selection, error) {
	original := item.OriginalText
	translated := item.Translation()

	preferred, other := models.FieldOriginal, models.FieldTranslated
	if mode == models.ModeTranslated {
		preferred, other = other, preferred
	}

	text := func(f models.Field) string {
		if f == models.FieldOriginal {
			return original
		}
		return translated
	}

	sel := Selection{Field: preferred, Text: text(preferred)}
	if textutil.IsBlank(sel.Text) {
		sel = Selection{Field: other, Text: text(other), Degraded: true}
		if textutil.IsBlank(sel.Text) {
			return Selection{}, &models.EmptyContentError{ItemID: item.ID}
		}
	}
	sel.Track = trackFor(item.LanguageHint, sel)
	return sel, nil
}

// trackFor trusts a declared single-language hint for the original field.
// Mixed, unknown and translated text go through script detection.
func trackFor(hint models.LanguageHint, sel Selection) models.Track {
	if sel.Field == models.FieldOriginal {
		switch hint {
		case models.HintTelugu:
			return models.TrackTelugu
		case models.HintEnglish:
			return models.TrackEnglish
		}
	}
	return DetectTrack(sel.Text)
}

// DetectTrack is Telugu when any rune is in U+0C00..U+0C7F.
func DetectTrack(text string) models.Track {
	if textutil.ContainsTelugu(text) {
		return models.TrackTelugu
	}
	return models.TrackEnglish
}
