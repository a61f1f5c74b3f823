package repository

import (
	"path/filepath"
	"testing"
	"time"

	"reputation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func item(id string, ts time.Time, level models.ThreatLevel) *models.ContentItem {
	it := &models.ContentItem{
		ID:           id,
		Kind:         models.KindComment,
		ParentID:     "v1",
		OriginalText: "సినిమా బాగుంది",
		LanguageHint: models.HintTelugu,
		Timestamp:    ts,
		Engagement:   models.Engagement{Likes: 4, Replies: 1},
	}
	it.Annotations.Original.Sentiment = models.SentimentResult{Score: 0.6, Label: models.LabelPositive, Confidence: 0.8, Source: models.SourceModel}
	it.Annotations.Original.Keywords = []models.Keyword{{Term: "సినిమా", Count: 1}}
	if level != models.ThreatNone {
		it.Annotations.Threat = models.ThreatAssessment{
			Detected: true, Level: level, AmplifiedScore: 9, RawScore: 9,
			Categories: []models.ThreatCategory{models.DeathThreat}, MatchedPatterns: []string{"kill"},
		}
	}
	it.Annotations.ProcessedAt = ts.Add(time.Hour)
	return it
}

func TestSaveAndGetItems(t *testing.T) {
	repo := newRepo(t)
	t0 := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveItems([]*models.ContentItem{
		item("b", t0.Add(time.Hour), models.ThreatCritical),
		item("a", t0, models.ThreatNone),
		nil,
	}))

	items, err := repo.GetItems(models.ThreatNone)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID, "ordered by timestamp")
	assert.True(t, items[0].Timestamp.Equal(t0))
	assert.Equal(t, models.HintTelugu, items[0].LanguageHint)
	assert.Equal(t, 4, items[0].Engagement.Likes)
	assert.Equal(t, models.SourceModel, items[0].Annotations.Original.Sentiment.Source)
	assert.Equal(t, []models.Keyword{{Term: "సినిమా", Count: 1}}, items[0].Annotations.Original.Keywords)

	critical, err := repo.GetItems(models.ThreatHigh)
	require.NoError(t, err)
	require.Len(t, critical, 1)
	assert.Equal(t, "b", critical[0].ID)
	assert.Equal(t, []models.ThreatCategory{models.DeathThreat}, critical[0].Annotations.Threat.Categories)
}

func TestSaveItemsUpserts(t *testing.T) {
	repo := newRepo(t)
	t0 := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveItems([]*models.ContentItem{item("a", t0, models.ThreatNone)}))
	require.NoError(t, repo.SaveItems([]*models.ContentItem{item("a", t0, models.ThreatHigh)}))

	items, err := repo.GetItems(models.ThreatNone)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.ThreatHigh, items[0].Annotations.Threat.Level)

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats["total_items"])
	assert.Equal(t, map[string]int{"High": 1}, stats["threat_by_level"])
}

func TestJobs(t *testing.T) {
	repo := newRepo(t)
	created := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	job := &models.Job{ID: "job-1", Status: models.JobPending, TotalCount: 3, CreatedAt: created}
	require.NoError(t, repo.CreateJob(job))

	got, err := repo.GetJob("job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, got.Status)
	assert.Nil(t, got.CompletedAt)
	assert.True(t, got.CreatedAt.Equal(created))

	done := created.Add(time.Minute)
	job.Status = models.JobCompleted
	job.ProcessedCount = 2
	job.FailedCount = 1
	job.CompletedAt = &done
	require.NoError(t, repo.UpdateJob(job))

	got, err = repo.GetJob("job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, got.Status)
	assert.Equal(t, 2, got.ProcessedCount)
	assert.Equal(t, 1, got.FailedCount)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(done))

	_, err = repo.GetJob("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	repo, err := New(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repo.SaveItems([]*models.ContentItem{item("a", time.Now().UTC(), models.ThreatNone)}))
	require.NoError(t, repo.Close())

	repo, err = New(path, zap.NewNop())
	require.NoError(t, err)
	defer repo.Close()
	items, err := repo.GetItems(models.ThreatNone)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
