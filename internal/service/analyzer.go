package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"reputation-service/internal/features"
	"reputation-service/internal/ingest"
	"reputation-service/internal/keywords"
	"reputation-service/internal/metrics"
	"reputation-service/internal/models"
	"reputation-service/internal/repository"
	"reputation-service/internal/reputation"
	"reputation-service/internal/router"
	"reputation-service/internal/sentiment"
	"reputation-service/internal/threat"
	"reputation-service/internal/translate"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config holds pipeline tunables.
type Config struct {
	Workers     int
	TopKeywords int
	// JobChunk is how many items a batch job annotates between progress
	// updates.
	JobChunk int
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.TopKeywords <= 0 {
		c.TopKeywords = 10
	}
	if c.JobChunk <= 0 {
		c.JobChunk = 25
	}
	return c
}

// Components are the analysis stages the Analyzer drives.
type Components struct {
	Classifier *sentiment.Classifier
	Extractor  *keywords.Extractor
	Detector   *threat.Detector
	Engineer   *features.Engineer
	Aggregator *reputation.Aggregator
	// Translator may be nil; items are then analysed without machine
	// translation.
	Translator *translate.Translator
}

// Analyzer handles the annotation pipeline and the in-memory corpus
type Analyzer struct {
	Components
	repo    *repository.Repository
	corpus  *Corpus
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	jobs   sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewAnalyzer creates a new analyzer service
func NewAnalyzer(
	c Components,
	repo *repository.Repository,
	cfg Config,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Analyzer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Analyzer{
		Components: c,
		repo:       repo,
		corpus:     NewCorpus(),
		cfg:        cfg.withDefaults(),
		logger:     logger,
		metrics:    m,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Corpus returns the analysed items held in memory.
func (a *Analyzer) Corpus() *Corpus { return a.corpus }

// AnnotateAll translates and annotates items in place. Per-item problems
// are recorded on the item and never fail the call; only cancellation of
// ctx does. Running it again over the same items yields the same
// annotations apart from ProcessedAt.
func (a *Analyzer) AnnotateAll(ctx context.Context, items []*models.ContentItem) error {
	return a.annotate(ctx, items, MedianEngagement(items))
}

// annotate runs the workers with median as the corpus engagement baseline.
func (a *Analyzer) annotate(ctx context.Context, items []*models.ContentItem, median float64) error {
	started := time.Now()

	var g errgroup.Group
	g.SetLimit(a.cfg.Workers)
	for _, it := range items {
		if it == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			a.annotateItem(ctx, it, median)
			return nil
		})
	}
	_ = g.Wait()
	a.metrics.Batch(started)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("annotation cancelled: %w", err)
	}

	a.logger.Info("Items annotated",
		zap.Int("count", len(items)),
		zap.Duration("took", time.Since(started)))
	return nil
}

func (a *Analyzer) annotateItem(ctx context.Context, it *models.ContentItem, median float64) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Item annotation panicked",
				zap.String("item_id", it.ID),
				zap.Any("panic", r))
			it.Annotations.Original = failedTrack()
			it.Annotations.Translated = failedTrack()
			it.Annotations.Threat = models.ThreatAssessment{}
			it.Annotations.ProcessedAt = a.now().UTC()
			a.metrics.ItemAnnotated(it.Kind.String(), models.StatusFailed.String())
		}
	}()

	if a.Translator != nil {
		a.Translator.Apply(ctx, it)
	}

	orig := a.annotateTrack(ctx, it, models.ModeOriginal)
	tr := a.annotateTrack(ctx, it, models.ModeTranslated)

	assessment := a.Detector.DetectItem(it, threat.Signals{
		Sentiment:              mostNegative(orig.Sentiment, tr.Sentiment),
		Engagement:             it.Engagement,
		CorpusMedianEngagement: median,
	})

	it.Annotations.Original = orig
	it.Annotations.Translated = tr
	it.Annotations.Threat = assessment
	it.Annotations.ProcessedAt = a.now().UTC()

	a.metrics.ItemAnnotated(it.Kind.String(), orig.Status.String())
	if assessment.Detected {
		a.metrics.Threat(assessment.Level.String())
	}
}

func (a *Analyzer) annotateTrack(ctx context.Context, it *models.ContentItem, mode models.Mode) models.TrackAnnotation {
	sel, err := router.SelectText(it, mode)
	if err != nil {
		status := models.StatusFailed
		var empty *models.EmptyContentError
		if errors.As(err, &empty) {
			status = models.StatusNoData
		} else {
			a.logger.Warn("Text selection failed",
				zap.String("item_id", it.ID),
				zap.String("mode", mode.String()),
				zap.Error(err))
		}
		return models.TrackAnnotation{Status: status, Sentiment: models.NoDataSentiment()}
	}

	return models.TrackAnnotation{
		Status:           models.StatusAnnotated,
		Track:            sel.Track,
		Field:            sel.Field,
		Degraded:         sel.Degraded,
		Sentiment:        a.Classifier.Classify(ctx, sel.Text, sel.Track),
		Keywords:         a.Extractor.Extract(sel.Text, sel.Track, a.cfg.TopKeywords),
		CriticalKeywords: a.Extractor.ExtractCritical(sel.Text, sel.Track),
	}
}

func failedTrack() models.TrackAnnotation {
	return models.TrackAnnotation{Status: models.StatusFailed, Sentiment: models.NoDataSentiment()}
}

// mostNegative picks the lower-scoring result that carries data.
func mostNegative(a, b models.SentimentResult) models.SentimentResult {
	switch {
	case !a.HasData():
		return b
	case !b.HasData():
		return a
	case b.Score < a.Score:
		return b
	}
	return a
}

// MedianEngagement is the median of likes+replies over items.
func MedianEngagement(items []*models.ContentItem) float64 {
	vals := make([]int, 0, len(items))
	for _, it := range items {
		if it != nil {
			vals = append(vals, it.Engagement.Interactions())
		}
	}
	if len(vals) == 0 {
		return 0
	}
	slices.Sort(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return float64(vals[mid])
	}
	return float64(vals[mid-1]+vals[mid]) / 2
}

// corpusMedian is the median engagement of the corpus together with extra.
func (a *Analyzer) corpusMedian(extra []*models.ContentItem) float64 {
	return MedianEngagement(append(a.corpus.Items(), extra...))
}

// AnalyzeSingle validates, annotates and stores one item.
func (a *Analyzer) AnalyzeSingle(ctx context.Context, in models.ContentItem) (*models.ContentItem, error) {
	items, rep := ingest.Items([]models.ContentItem{in})
	if err := rep.Err(); err != nil {
		return nil, err
	}
	// one item has no engagement baseline of its own
	if err := a.annotate(ctx, items, a.corpusMedian(items)); err != nil {
		return nil, err
	}
	if err := a.repo.SaveItems(items); err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}
	a.corpus.Upsert(items...)

	a.logger.Info("Item analysed",
		zap.String("item_id", items[0].ID),
		zap.String("threat_level", items[0].Annotations.Threat.Level.String()))
	return items[0], nil
}

// LoadCorpus ingests, annotates and stores every file in paths. A file
// that cannot be read fails the load; rejected rows are reported and
// skipped.
func (a *Analyzer) LoadCorpus(ctx context.Context, paths []string) (ingest.Report, error) {
	var (
		total ingest.Report
		all   []*models.ContentItem
	)
	for _, path := range paths {
		items, rep, err := ingest.LoadFile(path)
		if err != nil {
			return total, err
		}
		a.recordIngest(path, rep)
		total.Rows += rep.Rows
		total.Accepted += rep.Accepted
		total.Rejected = append(total.Rejected, rep.Rejected...)
		all = append(all, items...)
	}

	if err := a.AnnotateAll(ctx, all); err != nil {
		return total, err
	}
	if err := a.repo.SaveItems(all); err != nil {
		return total, fmt.Errorf("failed to save corpus: %w", err)
	}
	a.corpus.Upsert(all...)
	return total, nil
}

func (a *Analyzer) recordIngest(path string, rep ingest.Report) {
	for range rep.Accepted {
		a.metrics.IngestRow("accepted")
	}
	for _, r := range rep.Rejected {
		a.metrics.IngestRow("rejected")
		a.logger.Warn("Row rejected",
			zap.String("file", path),
			zap.Int("line", r.Line),
			zap.String("item_id", r.ID),
			zap.String("field", r.Field),
			zap.String("reason", r.Reason))
	}
	a.logger.Info("Input file loaded",
		zap.String("file", path),
		zap.Int("rows", rep.Rows),
		zap.Int("accepted", rep.Accepted),
		zap.Int("rejected", len(rep.Rejected)))
}

// Restore fills the corpus with previously stored items.
func (a *Analyzer) Restore() (int, error) {
	items, err := a.repo.GetItems(models.ThreatNone)
	if err != nil {
		return 0, err
	}
	a.corpus.Upsert(items...)
	a.logger.Info("Corpus restored from database", zap.Int("count", len(items)))
	return len(items), nil
}

// Items returns the corpus items at or above minLevel.
func (a *Analyzer) Items(minLevel models.ThreatLevel) []*models.ContentItem {
	items := a.corpus.Items()
	if minLevel == models.ThreatNone {
		return items
	}
	return slices.DeleteFunc(items, func(it *models.ContentItem) bool {
		return it.Annotations.Threat.Level < minLevel
	})
}

// Snapshot summarises items under the language mode.
func (a *Analyzer) Snapshot(items []*models.ContentItem, mode models.Mode, window *models.TimeWindow) models.ReputationSnapshot {
	return a.Aggregator.SummarizeItems(items, mode, window)
}

// Features returns one feature set per item, aligned with items.
func (a *Analyzer) Features(items []*models.ContentItem, windowSize int) ([]models.TemporalFeatureSet, error) {
	return a.Engineer.ComputeFeatures(items, windowSize)
}

// CrisisReport builds the operator report over items.
func (a *Analyzer) CrisisReport(items []*models.ContentItem) models.CrisisReport {
	return a.Aggregator.CrisisReport(items)
}

// GetStats returns stored statistics plus the in-memory corpus size.
func (a *Analyzer) GetStats() (map[string]interface{}, error) {
	stats, err := a.repo.GetStats()
	if err != nil {
		return nil, err
	}
	stats["corpus_items"] = a.corpus.Len()
	return stats, nil
}

// Shutdown cancels running batch jobs and waits for them to stop.
func (a *Analyzer) Shutdown(ctx context.Context) error {
	a.cancel()
	done := make(chan struct{})
	go func() {
		a.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
