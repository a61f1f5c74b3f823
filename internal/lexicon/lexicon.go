// Package lexicon holds the threat pattern dictionary, the fallback
// sentiment lexicons, stop words and key figures. A Lexicon is built once
// at startup and is read-only afterwards, so it is safe for concurrent use.
package lexicon

import (
	"fmt"
	"os"
	"slices"

	"reputation-service/internal/models"
	"reputation-service/internal/patterns"
	"reputation-service/internal/textutil"

	"gopkg.in/yaml.v3"
)

// CategorySet is one threat category with its weight and bilingual patterns.
type CategorySet struct {
	Category models.ThreatCategory `yaml:"category"`
	Weight   float64               `yaml:"weight"`
	Telugu   []string              `yaml:"telugu"`
	English  []string              `yaml:"english"`
}

// Patterns returns the patterns written in the given track's script.
func (c CategorySet) Patterns(track models.Track) []string {
	if track == models.TrackTelugu {
		return c.Telugu
	}
	return c.English
}

// SentimentTerms are the fallback polarity words of one track.
type SentimentTerms struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

// Lexicon is the immutable dictionary bundle.
type Lexicon struct {
	categories []CategorySet
	sentiment  map[models.Track]SentimentTerms
	stopWords  map[models.Track]map[string]struct{}
	keyFigures []string
	threats    *patterns.Matcher
}

// File is the YAML override format. Non-empty sections replace defaults.
type File struct {
	Categories []CategorySet                   `yaml:"categories"`
	Sentiment  map[models.Track]SentimentTerms `yaml:"sentiment"`
	StopWords  map[models.Track][]string       `yaml:"stop_words"`
	KeyFigures []string                        `yaml:"key_figures"`
}

// Default returns the built-in dictionaries.
func Default() *Lexicon {
	l, err := build(File{})
	if err != nil {
		panic(err)
	}
	return l
}

// Load reads an override file and merges it over the defaults. An empty
// path yields the defaults. keyFigures, when non-empty, replaces the key
// figure list of both the defaults and the file.
func Load(path string, keyFigures []string) (*Lexicon, error) {
	var f File
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read lexicon file: %w", err)
		}
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to decode lexicon file: %w", err)
		}
	}
	if len(keyFigures) > 0 {
		f.KeyFigures = keyFigures
	}
	return build(f)
}

func build(f File) (*Lexicon, error) {
	l := &Lexicon{
		sentiment: make(map[models.Track]SentimentTerms, len(models.Tracks)),
		stopWords: make(map[models.Track]map[string]struct{}, len(models.Tracks)),
	}

	l.categories = make([]CategorySet, len(defaultCategories))
	for i, c := range defaultCategories {
		l.categories[i] = CategorySet{
			Category: c.Category,
			Weight:   c.Weight,
			Telugu:   slices.Clone(c.Telugu),
			English:  slices.Clone(c.English),
		}
	}
	for _, o := range f.Categories {
		i := slices.IndexFunc(l.categories, func(c CategorySet) bool { return c.Category == o.Category })
		if i < 0 {
			return nil, fmt.Errorf("unknown threat category %s", o.Category)
		}
		if o.Weight < 0 {
			return nil, fmt.Errorf("category %s: weight must not be negative", o.Category)
		}
		if o.Weight > 0 {
			l.categories[i].Weight = o.Weight
		}
		if len(o.Telugu) > 0 {
			l.categories[i].Telugu = cleanList(o.Telugu)
		}
		if len(o.English) > 0 {
			l.categories[i].English = cleanList(o.English)
		}
	}

	for _, t := range models.Tracks {
		terms := defaultSentiment[t]
		if o, ok := f.Sentiment[t]; ok {
			if len(o.Positive) > 0 {
				terms.Positive = o.Positive
			}
			if len(o.Negative) > 0 {
				terms.Negative = o.Negative
			}
		}
		l.sentiment[t] = SentimentTerms{Positive: cleanList(terms.Positive), Negative: cleanList(terms.Negative)}

		words := defaultStopWords[t]
		if o := f.StopWords[t]; len(o) > 0 {
			words = o
		}
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[textutil.NormalizePhrase(w)] = struct{}{}
		}
		l.stopWords[t] = set
	}

	l.keyFigures = cleanList(defaultKeyFigures)
	if len(f.KeyFigures) > 0 {
		l.keyFigures = cleanList(f.KeyFigures)
	}

	var entries []patterns.Entry
	for _, set := range l.categories {
		for _, track := range models.Tracks {
			for _, p := range set.Patterns(track) {
				entries = append(entries, patterns.Entry{Phrase: p, Track: track, Class: int(set.Category)})
			}
		}
	}
	l.threats = patterns.New(entries)
	return l, nil
}

// cleanList drops blank entries and duplicates, keeping the first spelling.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		key := textutil.NormalizePhrase(s)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// Categories returns a copy of the threat categories in weight order.
func (l *Lexicon) Categories() []CategorySet {
	out := slices.Clone(l.categories)
	slices.SortStableFunc(out, func(a, b CategorySet) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		}
		return 0
	})
	return out
}

// Weight returns the weight of c, or 0 for an unknown category.
func (l *Lexicon) Weight(c models.ThreatCategory) float64 {
	for _, set := range l.categories {
		if set.Category == c {
			return set.Weight
		}
	}
	return 0
}

// Sentiment returns the fallback terms of a track.
func (l *Lexicon) Sentiment(track models.Track) SentimentTerms {
	return l.sentiment[track]
}

// IsStopWord reports whether the normalised token is a stop word of track.
func (l *Lexicon) IsStopWord(track models.Track, token string) bool {
	_, ok := l.stopWords[track][token]
	return ok
}

// KeyFigures returns the watched names.
func (l *Lexicon) KeyFigures() []string {
	return slices.Clone(l.keyFigures)
}

// ThreatMatcher is the compiled pattern dictionary. Entry classes are
// threat categories.
func (l *Lexicon) ThreatMatcher() *patterns.Matcher { return l.threats }
