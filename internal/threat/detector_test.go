package threat

import (
	"strings"
	"testing"

	"reputation-service/internal/lexicon"
	"reputation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDetector() *Detector {
	return NewDetector(lexicon.Default(), models.DefaultThresholds().Threat, zap.NewNop())
}

func TestDetectTeluguDeathAndOccult(t *testing.T) {
	d := newDetector()

	a := d.Detect("చేతబడి చేసి చంపేస్తాను", models.TrackTelugu, Signals{})
	require.True(t, a.Detected)
	assert.True(t, a.HasCategory(models.DeathThreat))
	assert.True(t, a.HasCategory(models.Occult))
	assert.Contains(t, a.MatchedPatterns, "చేతబడి")
	assert.Contains(t, a.MatchedPatterns, "చంప")
	// one occult hit (stem and full form overlap) plus one death hit
	assert.InDelta(t, 8.5+9.0, a.RawScore, 1e-9)
	assert.Equal(t, 10.0, a.AmplifiedScore)
	assert.Equal(t, models.ThreatCritical, a.Level)
}

func TestDetectNothing(t *testing.T) {
	d := newDetector()

	long := strings.Repeat("plain words here ", 300)
	a := d.Detect(long, models.TrackEnglish, Signals{})
	assert.False(t, a.Detected)
	assert.Equal(t, models.ThreatNone, a.Level)
	assert.Zero(t, a.RawScore)
	assert.Zero(t, a.AmplifiedScore)
	assert.Empty(t, a.MatchedPatterns)
}

func TestDetectScansTextTail(t *testing.T) {
	d := newDetector()
	text := strings.Repeat("plain words here ", 1000) + " court"
	a := d.Detect(text, models.TrackEnglish, Signals{})
	assert.True(t, a.HasCategory(models.Legal))
}

func TestCategoryHitCap(t *testing.T) {
	d := newDetector()

	a := d.Detect("scam scam scam scam scam scam", models.TrackEnglish, Signals{})
	assert.InDelta(t, 6.0*3, a.RawScore, 1e-9)
}

func TestAmplification(t *testing.T) {
	d := newDetector()
	text := "this is a scam" // ReputationAttack, raw 6

	base := d.Detect(text, models.TrackEnglish, Signals{})
	assert.InDelta(t, 6.0, base.AmplifiedScore, 1e-9)
	assert.Equal(t, models.ThreatHigh, base.Level)

	neg := d.Detect(text, models.TrackEnglish, Signals{
		Sentiment: models.SentimentResult{Score: -0.8, Source: models.SourceModel},
	})
	assert.InDelta(t, 7.8, neg.AmplifiedScore, 1e-9)

	viral := d.Detect(text, models.TrackEnglish, Signals{
		Sentiment:              models.SentimentResult{Score: -0.8, Source: models.SourceModel},
		Engagement:             models.Engagement{Likes: 30, Replies: 5},
		CorpusMedianEngagement: 4,
	})
	assert.InDelta(t, 6*1.3*1.2, viral.AmplifiedScore, 1e-9)
	assert.Equal(t, models.ThreatCritical, viral.Level)

	// below both the floor and the median multiple
	quiet := d.Detect(text, models.TrackEnglish, Signals{
		Engagement:             models.Engagement{Likes: 5},
		CorpusMedianEngagement: 1,
	})
	assert.InDelta(t, 6.0, quiet.AmplifiedScore, 1e-9)
}

func TestNoDataSentimentDoesNotAmplify(t *testing.T) {
	d := newDetector()
	a := d.Detect("scam", models.TrackEnglish, Signals{Sentiment: models.NoDataSentiment()})
	assert.InDelta(t, 6.0, a.AmplifiedScore, 1e-9)
}

func TestKeyFigureAmplifies(t *testing.T) {
	d := newDetector()

	a := d.Detect("Maganti Gopinath is a fraud", models.TrackEnglish, Signals{})
	assert.True(t, a.KeyFigureMentioned)
	assert.InDelta(t, 9.0, a.AmplifiedScore, 1e-9)

	b := d.Detect("Sandhya Sridhar Rao gave a speech", models.TrackEnglish, Signals{})
	assert.True(t, b.KeyFigureMentioned)
	assert.False(t, b.Detected)
}

func TestAmplifiedBounds(t *testing.T) {
	d := newDetector()
	inputs := []string{
		"",
		"kill kill kill murder death black magic witchcraft bomb fraud court arrest beat",
		"hello",
		"\xff\xfe broken \xc3",
		"చంపేస్తా చేతబడి కేసు మోసం లూటీ దాడి gopinath",
	}
	for _, in := range inputs {
		a := d.Detect(in, models.TrackEnglish, Signals{
			Sentiment:  models.SentimentResult{Score: -1, Source: models.SourceModel},
			Engagement: models.Engagement{Likes: 1000},
		})
		assert.GreaterOrEqual(t, a.AmplifiedScore, 0.0, in)
		assert.LessOrEqual(t, a.AmplifiedScore, 10.0, in)
		assert.Equal(t, a.RawScore == 0, a.AmplifiedScore == 0, in)
		assert.GreaterOrEqual(t, a.AmplifiedScore, min(a.RawScore, 10), in)
	}
}

func TestDetectDeterministic(t *testing.T) {
	d := newDetector()
	text := "fraud case చేతబడి kill"
	assert.Equal(t, d.Detect(text, models.TrackTelugu, Signals{}), d.Detect(text, models.TrackTelugu, Signals{}))
}

func TestDetectItemScansAllText(t *testing.T) {
	d := newDetector()
	item := &models.ContentItem{
		OriginalText:   "చేతబడి",
		TranslatedText: "black magic and a lawsuit",
	}
	a := d.DetectItem(item, Signals{})
	assert.True(t, a.HasCategory(models.Occult))
	assert.True(t, a.HasCategory(models.Legal))
	assert.Equal(t, []string{"చేతబడి", "చేతబడ", "black magic", "lawsuit"}, a.MatchedPatterns)
}

func TestLevels(t *testing.T) {
	d := newDetector()
	assert.Equal(t, models.ThreatNone, d.Level(9, false))
	assert.Equal(t, models.ThreatCritical, d.Level(8, true))
	assert.Equal(t, models.ThreatHigh, d.Level(6, true))
	assert.Equal(t, models.ThreatMedium, d.Level(4, true))
	assert.Equal(t, models.ThreatLow, d.Level(3.9, true))
}

func TestEveryLevelReachable(t *testing.T) {
	d := newDetector()
	negative := Signals{Sentiment: models.SentimentResult{Score: -0.8, Source: models.SourceModel}}

	low := d.Detect("they will loot the shop", models.TrackEnglish, Signals{})
	assert.InDelta(t, 3.5, low.RawScore, 1e-9)
	assert.Equal(t, models.ThreatLow, low.Level)

	medium := d.Detect("they will loot the shop", models.TrackEnglish, negative)
	assert.InDelta(t, 3.5*1.3, medium.AmplifiedScore, 1e-9)
	assert.Equal(t, models.ThreatMedium, medium.Level)

	assert.Equal(t, models.ThreatHigh, d.Detect("this is a scam", models.TrackEnglish, Signals{}).Level)
	assert.Equal(t, models.ThreatCritical, d.Detect("we will kill him", models.TrackEnglish, Signals{}).Level)
}

func TestFilmSlangIsNotViolence(t *testing.T) {
	d := newDetector()
	a := d.Detect("Super hit movie, best of luck", models.TrackEnglish, Signals{
		Sentiment: models.SentimentResult{Score: 0.9, Source: models.SourceModel},
	})
	assert.False(t, a.Detected)
	assert.Equal(t, models.ThreatNone, a.Level)
}
