package patterns

import (
	"sync"
	"testing"

	"reputation-service/internal/models"
	"reputation-service/internal/textutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phrases(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Entry.Phrase
	}
	return out
}

func TestFindLatinWordStart(t *testing.T) {
	m := New([]Entry{
		{Phrase: "kill", Track: models.TrackEnglish},
		{Phrase: "hit", Track: models.TrackEnglish},
		{Phrase: "case", Track: models.TrackEnglish},
	})

	hits := m.Find(textutil.Normalize("They killed it. History? Because!"))
	assert.Equal(t, []string{"kill"}, phrases(hits))

	hits = m.Find(textutil.Normalize("hits and cases"))
	assert.Equal(t, []string{"hit", "case"}, phrases(hits))
}

func TestFindMultiWordPhrase(t *testing.T) {
	m := New([]Entry{{Phrase: "Black Magic", Track: models.TrackEnglish}})
	hits := m.Find(textutil.Normalize("This is BLACK-magic, pure black magic."))
	require.Len(t, hits, 1)
	assert.Len(t, hits[0].Spans, 2)
}

func TestFindTeluguStemInsideWord(t *testing.T) {
	m := New([]Entry{
		{Phrase: "చంప", Track: models.TrackTelugu, Class: 1},
		{Phrase: "చేతబడి", Track: models.TrackTelugu, Class: 2},
	})
	hits := m.Find(textutil.Normalize("చేతబడి చేసి చంపేస్తాను"))
	assert.Equal(t, []string{"చేతబడి", "చంప"}, phrases(hits))
}

func TestCountByClassMergesOverlaps(t *testing.T) {
	m := New([]Entry{
		{Phrase: "చేతబడ", Track: models.TrackTelugu, Class: 1},
		{Phrase: "చేతబడి", Track: models.TrackTelugu, Class: 1},
		{Phrase: "kill", Track: models.TrackEnglish, Class: 2},
	})
	hits := m.Find(textutil.Normalize("చేతబడి kill kill"))
	counts := CountByClass(hits)
	assert.Equal(t, 1, counts[1])
	assert.Equal(t, 2, counts[2])
}

func TestDuplicatePhraseReportedPerEntry(t *testing.T) {
	m := New([]Entry{
		{Phrase: "fraud", Class: 1},
		{Phrase: "Fraud", Class: 2},
	})
	assert.Equal(t, 2, m.Len())
	hits := m.Find(textutil.Normalize("fraud"))
	assert.Len(t, hits, 2)
}

func TestFindEmpty(t *testing.T) {
	m := New([]Entry{{Phrase: "kill"}})
	assert.Empty(t, m.Find(textutil.Normalize("")))
	assert.Empty(t, New(nil).Find(" kill "))
}

func TestContainsPhrase(t *testing.T) {
	norm := textutil.Normalize("Speech by Sandhya Sridhar Rao today")
	assert.True(t, ContainsPhrase(norm, "sridhar rao"))
	assert.False(t, ContainsPhrase(norm, "gopinath"))
	assert.False(t, ContainsPhrase(norm, "  "))
}

func TestFindConcurrent(t *testing.T) {
	m := New([]Entry{{Phrase: "kill"}, {Phrase: "చంప", Track: models.TrackTelugu}})
	norm := textutil.Normalize("kill చంపేస్తా")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Len(t, m.Find(norm), 2)
			}
		}()
	}
	wg.Wait()
}
