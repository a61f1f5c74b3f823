// Package keywords ranks the frequent terms of a text and pulls out the
// threat vocabulary it contains.
package keywords

import (
	"slices"

	"reputation-service/internal/lexicon"
	"reputation-service/internal/models"
	"reputation-service/internal/patterns"
	"reputation-service/internal/textutil"
)

// DefaultTopN is the number of keywords kept per text.
const DefaultTopN = 10

// minTokenRunes drops particles and fragments.
const minTokenRunes = 3

// Extractor is safe for concurrent use.
type Extractor struct {
	lex      *lexicon.Lexicon
	critical *patterns.Matcher
}

// NewExtractor builds an extractor whose critical vocabulary is the threat
// pattern dictionary of lex.
func NewExtractor(lex *lexicon.Lexicon) *Extractor {
	return &Extractor{lex: lex, critical: lex.ThreatMatcher()}
}

// Extract returns up to topN non-stop-word tokens by descending frequency.
// Ties keep first-occurrence order. topN <= 0 means DefaultTopN.
func (e *Extractor) Extract(text string, track models.Track, topN int) []models.Keyword {
	if topN <= 0 {
		topN = DefaultTopN
	}

	var ranked []models.Keyword
	index := make(map[string]int)
	for _, tok := range textutil.Tokens(text) {
		if textutil.RuneLen(tok) < minTokenRunes || e.lex.IsStopWord(track, tok) {
			continue
		}
		if i, ok := index[tok]; ok {
			ranked[i].Count++
			continue
		}
		index[tok] = len(ranked)
		ranked = append(ranked, models.Keyword{Term: tok, Count: 1})
	}

	slices.SortStableFunc(ranked, func(a, b models.Keyword) int {
		return b.Count - a.Count
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// ExtractCritical returns the threat patterns of track's script that occur
// in text, unique and in first-occurrence order.
func (e *Extractor) ExtractCritical(text string, track models.Track) []string {
	var out []string
	for _, h := range e.critical.Find(textutil.Normalize(text)) {
		if h.Entry.Track != track || slices.Contains(out, h.Entry.Phrase) {
			continue
		}
		out = append(out, h.Entry.Phrase)
	}
	return out
}
