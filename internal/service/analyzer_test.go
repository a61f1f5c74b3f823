package service

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"reputation-service/internal/features"
	"reputation-service/internal/keywords"
	"reputation-service/internal/lexicon"
	"reputation-service/internal/models"
	"reputation-service/internal/repository"
	"reputation-service/internal/reputation"
	"reputation-service/internal/sentiment"
	"reputation-service/internal/threat"
	"reputation-service/internal/translate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTranslator struct {
	out   string
	calls atomic.Int32
}

func (f *fakeTranslator) Translate(_ context.Context, _ string, _, _ models.Track) (string, error) {
	f.calls.Add(1)
	return f.out, nil
}

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newAnalyzer(t *testing.T, tr translate.Backend) *Analyzer {
	t.Helper()
	logger := zap.NewNop()
	lex := lexicon.Default()
	th := models.DefaultThresholds()

	repo, err := repository.New(filepath.Join(t.TempDir(), "service.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	c := Components{
		Classifier: sentiment.NewClassifier(lex, nil, sentiment.Config{Thresholds: th.Sentiment}, logger, nil),
		Extractor:  keywords.NewExtractor(lex),
		Detector:   threat.NewDetector(lex, th.Threat, logger),
		Engineer:   features.NewEngineer(th.Features),
		Aggregator: reputation.NewAggregator(th.Reputation, th.Crisis),
	}
	if tr != nil {
		c.Translator = translate.New(tr, translate.DefaultConfig(), logger, nil)
	}

	a := NewAnalyzer(c, repo, Config{Workers: 2}, logger, nil)
	a.now = func() time.Time { return t0.Add(time.Hour) }
	t.Cleanup(func() { a.Shutdown(context.Background()) })
	return a
}

func comment(id, original, translated string, offset time.Duration) *models.ContentItem {
	return &models.ContentItem{
		ID:             id,
		Kind:           models.KindComment,
		ParentID:       "v1",
		OriginalText:   original,
		TranslatedText: translated,
		Timestamp:      t0.Add(offset),
	}
}

func TestAnnotateAllBothTracks(t *testing.T) {
	a := newAnalyzer(t, nil)
	it := comment("c1", "వాడిని చంపేస్తాం", "we will kill him", 0)

	require.NoError(t, a.AnnotateAll(context.Background(), []*models.ContentItem{it}))

	orig, tr := it.Annotations.Original, it.Annotations.Translated
	assert.Equal(t, models.StatusAnnotated, orig.Status)
	assert.Equal(t, models.TrackTelugu, orig.Track)
	assert.Equal(t, models.FieldOriginal, orig.Field)
	assert.Equal(t, models.TrackEnglish, tr.Track)
	assert.Equal(t, models.FieldTranslated, tr.Field)
	assert.False(t, tr.Degraded)
	assert.Equal(t, models.SourceKeywordFallback, orig.Sentiment.Source)
	assert.Contains(t, tr.CriticalKeywords, "kill")

	assert.True(t, it.Annotations.Threat.Detected)
	assert.True(t, it.Annotations.Threat.HasCategory(models.DeathThreat))
	assert.Equal(t, models.ThreatCritical, it.Annotations.Threat.Level)
	assert.Equal(t, t0.Add(time.Hour), it.Annotations.ProcessedAt)

	assert.Equal(t, "we will kill him", it.TranslatedText, "core fields untouched")
}

func TestAnnotateAllDegradedAndEmpty(t *testing.T) {
	a := newAnalyzer(t, nil)
	onlyTranslated := comment("c1", "", "great movie", 0)
	empty := comment("c2", "  ", "", time.Minute)

	require.NoError(t, a.AnnotateAll(context.Background(), []*models.ContentItem{onlyTranslated, nil, empty}))

	orig := onlyTranslated.Annotations.Original
	assert.Equal(t, models.StatusAnnotated, orig.Status)
	assert.True(t, orig.Degraded)
	assert.Equal(t, models.FieldTranslated, orig.Field)
	assert.Equal(t, models.LabelPositive, orig.Sentiment.Label)

	for _, ta := range []models.TrackAnnotation{empty.Annotations.Original, empty.Annotations.Translated} {
		assert.Equal(t, models.StatusNoData, ta.Status)
		assert.False(t, ta.Sentiment.HasData())
	}
	assert.False(t, empty.Annotations.Threat.Detected)
}

func TestAnnotateAllIdempotent(t *testing.T) {
	a := newAnalyzer(t, nil)
	items := []*models.ContentItem{
		comment("c1", "చాలా బాగుంది", "very good", 0),
		comment("c2", "fraud and scam", "", time.Minute),
	}
	require.NoError(t, a.AnnotateAll(context.Background(), items))
	first := []models.Annotations{items[0].Annotations, items[1].Annotations}

	require.NoError(t, a.AnnotateAll(context.Background(), items))
	assert.Equal(t, first, []models.Annotations{items[0].Annotations, items[1].Annotations})
}

func TestAnnotateAllMachineTranslation(t *testing.T) {
	backend := &fakeTranslator{out: "they will kill him"}
	a := newAnalyzer(t, backend)
	it := comment("c1", "వాడిని చంపేస్తారు", "", 0)

	require.NoError(t, a.AnnotateAll(context.Background(), []*models.ContentItem{it}))
	assert.Equal(t, "they will kill him", it.Annotations.MachineTranslation)
	assert.Empty(t, it.TranslatedText)
	assert.Equal(t, models.FieldTranslated, it.Annotations.Translated.Field)
	assert.False(t, it.Annotations.Translated.Degraded)

	// a stored machine translation is reused
	require.NoError(t, a.AnnotateAll(context.Background(), []*models.ContentItem{it}))
	assert.Equal(t, int32(1), backend.calls.Load())
}

func TestAnnotateAllCancelled(t *testing.T) {
	a := newAnalyzer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := a.AnnotateAll(ctx, []*models.ContentItem{comment("c1", "ok", "", 0)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMedianEngagement(t *testing.T) {
	mk := func(likes, replies int) *models.ContentItem {
		return &models.ContentItem{Engagement: models.Engagement{Likes: likes, Replies: replies}}
	}
	assert.Zero(t, MedianEngagement(nil))
	assert.Equal(t, 3.0, MedianEngagement([]*models.ContentItem{mk(1, 0), mk(3, 0), mk(9, 1)}))
	assert.Equal(t, 2.0, MedianEngagement([]*models.ContentItem{mk(4, 0), mk(1, 0), mk(2, 1), nil, mk(0, 0)}))
}

func TestMostNegative(t *testing.T) {
	pos := models.SentimentResult{Score: 0.4, Source: models.SourceModel}
	neg := models.SentimentResult{Score: -0.7, Source: models.SourceKeywordFallback}
	none := models.NoDataSentiment()

	assert.Equal(t, neg, mostNegative(pos, neg))
	assert.Equal(t, neg, mostNegative(neg, pos))
	assert.Equal(t, pos, mostNegative(none, pos))
	assert.Equal(t, pos, mostNegative(pos, none))
}

func TestAnalyzeSingle(t *testing.T) {
	a := newAnalyzer(t, nil)

	got, err := a.AnalyzeSingle(context.Background(), *comment("c1", "court case filed", "", 0))
	require.NoError(t, err)
	assert.True(t, got.Annotations.Threat.HasCategory(models.Legal))

	stored, ok := a.Corpus().Get("c1")
	require.True(t, ok)
	assert.Same(t, got, stored)

	stats, err := a.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats["total_items"])
	assert.Equal(t, 1, stats["corpus_items"])

	_, err = a.AnalyzeSingle(context.Background(), models.ContentItem{ID: "bad", OriginalText: "x"})
	assert.Error(t, err)
	assert.Equal(t, 1, a.Corpus().Len())
}

func TestBatchJob(t *testing.T) {
	a := newAnalyzer(t, nil)
	input := []models.ContentItem{
		*comment("c1", "great work", "", 0),
		*comment("c2", "black magic scam", "", time.Minute),
		{ID: "c3", Kind: models.KindComment, OriginalText: "no timestamp"},
	}

	id, err := a.StartJob(input)
	require.NoError(t, err)
	a.WaitJobs()

	job, err := a.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.Equal(t, 3, job.TotalCount)
	assert.Equal(t, 2, job.ProcessedCount)
	assert.Equal(t, 1, job.FailedCount)
	require.NotNil(t, job.CompletedAt)

	assert.Equal(t, 2, a.Corpus().Len())
	high := a.Items(models.ThreatHigh)
	require.Len(t, high, 1)
	assert.Equal(t, "c2", high[0].ID)

	_, err = a.GetJob("missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLoadCorpusAndRestore(t *testing.T) {
	a := newAnalyzer(t, nil)
	path := filepath.Join(t.TempDir(), "comments.csv")
	csv := "id,kind,parent_id,original_text,translated_text,language,timestamp,likes\n" +
		"c1,comment,v1,సినిమా బాగుంది,the movie is good,te,2024-06-01T09:00:00Z,3\n" +
		"c2,comment,v1,worst fraud ever,,en,2024-06-01T10:00:00Z,40\n" +
		"c3,comment,v1,,,en,2024-06-01T11:00:00Z,0\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	rep, err := a.LoadCorpus(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Rows)
	assert.Equal(t, 2, rep.Accepted)
	assert.Len(t, rep.Rejected, 1)

	items := a.Items(models.ThreatNone)
	require.Len(t, items, 2)
	snap := a.Snapshot(items, models.ModeOriginal, nil)
	assert.Equal(t, 2, snap.EvaluatedCount)

	feats, err := a.Features(items, 0)
	require.NoError(t, err)
	require.Len(t, feats, 2)
	assert.Equal(t, "c1", feats[0].ItemID)

	report := a.CrisisReport(items)
	assert.NotEqual(t, models.CrisisCritical, report.Status)

	_, err = a.LoadCorpus(context.Background(), []string{filepath.Join(t.TempDir(), "missing.csv")})
	assert.Error(t, err)

	fresh := NewAnalyzer(a.Components, a.repo, Config{}, zap.NewNop(), nil)
	n, err := fresh.Restore()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	restored, ok := fresh.Corpus().Get("c2")
	require.True(t, ok)
	assert.True(t, restored.Annotations.Threat.HasCategory(models.ReputationAttack))
}

func TestCorpusUpsert(t *testing.T) {
	c := NewCorpus()
	a1 := comment("a", "one", "", 0)
	b := comment("b", "two", "", 0)
	a2 := comment("a", "three", "", 0)

	c.Upsert(a1, b, nil)
	c.Upsert(a2)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Same(t, a2, items[0])
	assert.Same(t, b, items[1])

	_, ok := c.Get("zzz")
	assert.False(t, ok)
}
