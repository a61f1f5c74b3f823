package keywords

import (
	"testing"

	"reputation-service/internal/lexicon"
	"reputation-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestExtractRanksByFrequency(t *testing.T) {
	e := NewExtractor(lexicon.Default())

	got := e.Extract("The rally was great. Great crowd, great rally! Crowd cheered.", models.TrackEnglish, 3)
	assert.Equal(t, []models.Keyword{
		{Term: "great", Count: 3},
		{Term: "rally", Count: 2},
		{Term: "crowd", Count: 2},
	}, got)
}

func TestExtractTiesKeepFirstOccurrence(t *testing.T) {
	e := NewExtractor(lexicon.Default())

	got := e.Extract("zeta alpha beta", models.TrackEnglish, 0)
	assert.Equal(t, []models.Keyword{
		{Term: "zeta", Count: 1},
		{Term: "alpha", Count: 1},
		{Term: "beta", Count: 1},
	}, got)
}

func TestExtractTeluguStopWords(t *testing.T) {
	e := NewExtractor(lexicon.Default())

	got := e.Extract("ఇది సినిమా వరకు సినిమా బాగుంది", models.TrackTelugu, 10)
	assert.Equal(t, []models.Keyword{
		{Term: "సినిమా", Count: 2},
		{Term: "బాగుంది", Count: 1},
	}, got)
}

func TestExtractEmpty(t *testing.T) {
	e := NewExtractor(lexicon.Default())
	assert.Empty(t, e.Extract("", models.TrackEnglish, 10))
	assert.Empty(t, e.Extract("!! ?? ..", models.TrackTelugu, 10))
}

func TestExtractStable(t *testing.T) {
	e := NewExtractor(lexicon.Default())
	text := "one two three two three three four four four four"
	assert.Equal(t, e.Extract(text, models.TrackEnglish, 2), e.Extract(text, models.TrackEnglish, 2))
}

func TestExtractCritical(t *testing.T) {
	e := NewExtractor(lexicon.Default())

	te := e.ExtractCritical("చేతబడి చేసి చంపేస్తాను, kill", models.TrackTelugu)
	assert.Equal(t, []string{"చేతబడి", "చేతబడ", "చంప"}, te)

	en := e.ExtractCritical("He was arrested in a fraud case. Fraud!", models.TrackEnglish)
	assert.Equal(t, []string{"arrest", "fraud", "case"}, en)

	assert.Empty(t, e.ExtractCritical("a lovely speech", models.TrackEnglish))
}
