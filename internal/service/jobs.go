package service

import (
	"fmt"

	"reputation-service/internal/ingest"
	"reputation-service/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StartJob starts async batch analysis and returns the job id
func (a *Analyzer) StartJob(items []models.ContentItem) (string, error) {
	jobID := uuid.New().String()

	job := &models.Job{
		ID:         jobID,
		Status:     models.JobPending,
		TotalCount: len(items),
		CreatedAt:  a.now().UTC(),
	}

	if err := a.repo.CreateJob(job); err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	a.jobs.Add(1)
	go func() {
		defer a.jobs.Done()
		a.processBatchJob(job, items)
	}()

	return jobID, nil
}

// processBatchJob validates and annotates a batch chunk by chunk,
// recording progress after each chunk.
func (a *Analyzer) processBatchJob(job *models.Job, input []models.ContentItem) {
	ctx := a.ctx
	log := a.logger.With(zap.String("job_id", job.ID))

	job.Status = models.JobProcessing
	a.updateJob(job)

	items, rep := ingest.Items(input)
	job.FailedCount = len(rep.Rejected)
	for _, r := range rep.Rejected {
		log.Warn("Batch item rejected", zap.Error(r))
	}
	median := a.corpusMedian(items)

	for start := 0; start < len(items); start += a.cfg.JobChunk {
		chunk := items[start:min(start+a.cfg.JobChunk, len(items))]

		if err := a.annotate(ctx, chunk, median); err != nil {
			a.finishJob(job, err)
			return
		}
		if err := a.repo.SaveItems(chunk); err != nil {
			a.finishJob(job, fmt.Errorf("failed to save items: %w", err))
			return
		}
		a.corpus.Upsert(chunk...)

		job.ProcessedCount += len(chunk)
		a.updateJob(job)
	}

	a.finishJob(job, nil)
	log.Info("Batch job completed",
		zap.Int("processed", job.ProcessedCount),
		zap.Int("failed", job.FailedCount))
}

func (a *Analyzer) finishJob(job *models.Job, err error) {
	job.Status = models.JobCompleted
	if err != nil {
		job.Status = models.JobFailed
		job.ErrorMessage = err.Error()
		a.logger.Error("Batch job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	completedAt := a.now().UTC()
	job.CompletedAt = &completedAt
	a.updateJob(job)
}

func (a *Analyzer) updateJob(job *models.Job) {
	if err := a.repo.UpdateJob(job); err != nil {
		a.logger.Error("Failed to update job", zap.String("job_id", job.ID), zap.Error(err))
	}
}

// GetJob returns job status
func (a *Analyzer) GetJob(jobID string) (*models.Job, error) {
	return a.repo.GetJob(jobID)
}

// WaitJobs blocks until every running batch job has finished.
func (a *Analyzer) WaitJobs() {
	a.jobs.Wait()
}
