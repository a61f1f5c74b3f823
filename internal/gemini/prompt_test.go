package gemini

import (
	"testing"

	"reputation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScores(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    models.ModelScore
		wantErr bool
	}{
		{
			name: "plain json",
			raw:  `{"positive": 0.7, "neutral": 0.2, "negative": 0.1}`,
			want: models.ModelScore{Positive: 0.7, Neutral: 0.2, Negative: 0.1},
		},
		{
			name: "fenced and unnormalised",
			raw:  "```json\n{\"positive\": 2, \"neutral\": 1, \"negative\": 1}\n```",
			want: models.ModelScore{Positive: 0.5, Neutral: 0.25, Negative: 0.25},
		},
		{name: "all zero", raw: `{"positive": 0, "neutral": 0, "negative": 0}`, wantErr: true},
		{name: "negative probability", raw: `{"positive": -1, "neutral": 1, "negative": 1}`, wantErr: true},
		{name: "not json", raw: "positive", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScores(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Positive, got.Positive, 1e-9)
			assert.InDelta(t, tt.want.Neutral, got.Neutral, 1e-9)
			assert.InDelta(t, tt.want.Negative, got.Negative, 1e-9)
		})
	}
}

func TestPrompts(t *testing.T) {
	assert.Contains(t, BuildSentimentPrompt("బాగుంది", models.TrackTelugu), "Language: Telugu")
	assert.Contains(t, BuildTranslatePrompt("hi", models.TrackEnglish, models.TrackTelugu), "from English to Telugu")
}

func TestCleanTranslation(t *testing.T) {
	assert.Equal(t, "the film is great", CleanTranslation("  \"the film is great\"\n"))
	assert.Equal(t, "ok", CleanTranslation("```\nok\n```"))
}
