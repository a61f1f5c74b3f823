// Package patterns finds dictionary phrases in normalised text in a single
// pass. Latin phrases match at a word start and may carry a short
// inflection ("kill" matches "killed" but not "skill"); Telugu phrases are
// stems and match anywhere inside a word.
package patterns

import (
	"slices"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"reputation-service/internal/models"
	"reputation-service/internal/textutil"
)

// Entry is one dictionary phrase. Class is a caller-defined group such as a
// threat category.
type Entry struct {
	Phrase string
	Track  models.Track
	Class  int
}

// Span is a byte range in the normalised text.
type Span struct {
	Start, End int
}

// Hit is an entry together with every place it matched.
type Hit struct {
	Entry Entry
	Spans []Span
}

// First is the start offset of the earliest match.
func (h Hit) First() int { return h.Spans[0].Start }

// Inflections accepted after a Latin phrase.
var latinSuffixes = []string{"", "s", "es", "d", "ed", "en", "ing", "ings", "er", "ers"}

// key is one distinct search string. Several entries may share it, e.g.
// the same word listed under two classes.
type key struct {
	text    string
	latin   bool
	entries []Entry
}

func compile(phrase string) (text string, latin bool) {
	norm := textutil.NormalizePhrase(phrase)
	if norm == "" {
		return "", false
	}
	if textutil.IsLatin(norm) {
		return " " + norm, true
	}
	return norm, false
}

// Matcher is safe for concurrent use.
type Matcher struct {
	keys []key
	size int

	// ahocorasick.Matcher mutates internal counters on Match.
	mu sync.Mutex
	ac *ahocorasick.Matcher
}

// New compiles entries. Entries that normalise to nothing are skipped.
func New(entries []Entry) *Matcher {
	m := &Matcher{}
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		text, latin := compile(e.Phrase)
		if text == "" {
			continue
		}
		i, ok := index[text]
		if !ok {
			i = len(m.keys)
			index[text] = i
			m.keys = append(m.keys, key{text: text, latin: latin})
		}
		m.keys[i].entries = append(m.keys[i].entries, e)
		m.size++
	}
	dict := make([]string, len(m.keys))
	for i, k := range m.keys {
		dict[i] = k.text
	}
	m.ac = ahocorasick.NewStringMatcher(dict)
	return m
}

// Len is the number of compiled entries.
func (m *Matcher) Len() int { return m.size }

// Find returns the entries present in norm, which must come from
// textutil.Normalize. Hits are ordered by first occurrence.
func (m *Matcher) Find(norm string) []Hit {
	if len(m.keys) == 0 || strings.TrimSpace(norm) == "" {
		return nil
	}

	m.mu.Lock()
	idx := m.ac.Match([]byte(norm))
	m.mu.Unlock()

	hits := make([]Hit, 0, len(idx))
	for _, i := range idx {
		k := m.keys[i]
		spans := k.spans(norm)
		if len(spans) == 0 {
			continue
		}
		for _, e := range k.entries {
			hits = append(hits, Hit{Entry: e, Spans: slices.Clone(spans)})
		}
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		if a.First() != b.First() {
			return a.First() - b.First()
		}
		return len(b.Entry.Phrase) - len(a.Entry.Phrase)
	})
	return hits
}

func (k key) spans(norm string) []Span {
	var out []Span
	for off := 0; off < len(norm); {
		i := strings.Index(norm[off:], k.text)
		if i < 0 {
			break
		}
		start := off + i
		end := start + len(k.text)
		if k.latin {
			start++ // past the word-start space
			suffix := norm[end:]
			if j := strings.IndexByte(suffix, ' '); j >= 0 {
				suffix = suffix[:j]
			}
			if !slices.Contains(latinSuffixes, suffix) {
				off = end
				continue
			}
			end += len(suffix)
		}
		out = append(out, Span{Start: start, End: end})
		off = end
	}
	return out
}

// CountByClass counts matches per class. Overlapping matches inside one
// class (a stem and a longer form of it at the same place) count once.
func CountByClass(hits []Hit) map[int]int {
	byClass := make(map[int][]Span)
	for _, h := range hits {
		byClass[h.Entry.Class] = append(byClass[h.Entry.Class], h.Spans...)
	}
	counts := make(map[int]int, len(byClass))
	for class, spans := range byClass {
		counts[class] = countDisjoint(spans)
	}
	return counts
}

// countDisjoint counts clusters of overlapping spans.
func countDisjoint(spans []Span) int {
	slices.SortFunc(spans, func(a, b Span) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return b.End - a.End
	})
	n, end := 0, -1
	for _, s := range spans {
		if s.Start >= end {
			n++
			end = s.End
		} else if s.End > end {
			end = s.End
		}
	}
	return n
}

// ContainsPhrase reports whether phrase occurs in norm with the same rules
// as Find.
func ContainsPhrase(norm, phrase string) bool {
	text, latin := compile(phrase)
	if text == "" {
		return false
	}
	return len(key{text: text, latin: latin}.spans(norm)) > 0
}
