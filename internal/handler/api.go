package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"reputation-service/internal/export"
	"reputation-service/internal/ingest"
	"reputation-service/internal/metrics"
	"reputation-service/internal/models"
	"reputation-service/internal/repository"
	"reputation-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ModelInfo describes the configured model backends.
type ModelInfo interface {
	Info() map[string]interface{}
}

// Config holds request defaults.
type Config struct {
	DefaultMode models.Mode
	WindowSize  int
	Version     string
}

// Handler handles HTTP requests
type Handler struct {
	analyzer *service.Analyzer
	models   ModelInfo
	metrics  *metrics.Metrics
	cfg      Config
	logger   *zap.Logger
}

// NewHandler creates a new API handler. info may be nil when no model
// backend is configured.
func NewHandler(analyzer *service.Analyzer, info ModelInfo, m *metrics.Metrics, cfg Config, logger *zap.Logger) *Handler {
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	return &Handler{
		analyzer: analyzer,
		models:   info,
		metrics:  m,
		cfg:      cfg,
		logger:   logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Analysis endpoints
		api.POST("/analyze/single", h.AnalyzeSingle)
		api.POST("/analyze/batch", h.AnalyzeBatch)
		api.GET("/analyze/jobs/:id", h.GetJobStatus)

		// Corpus views
		api.GET("/items", h.GetItems)
		api.GET("/items/:id", h.GetItem)
		api.GET("/snapshot", h.GetSnapshot)
		api.GET("/features", h.GetFeatures)
		api.GET("/crisis", h.GetCrisisReport)
		api.GET("/stats", h.GetStats)
		api.GET("/models/info", h.GetModelInfo)

		// Export
		api.GET("/export/csv", h.ExportCSV)
		api.GET("/export/json", h.ExportJSON)
	}

	// Health check
	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
}

// itemView is an item as seen under one language mode.
type itemView struct {
	ID         string                  `json:"id"`
	Kind       models.Kind             `json:"kind"`
	ParentID   string                  `json:"parent_id,omitempty"`
	Timestamp  time.Time               `json:"timestamp"`
	Text       string                  `json:"text"`
	Engagement models.Engagement       `json:"engagement"`
	Annotation models.TrackAnnotation  `json:"annotation"`
	Threat     models.ThreatAssessment `json:"threat"`
}

func view(it *models.ContentItem, mode models.Mode) itemView {
	ann := it.View(mode)
	text := it.OriginalText
	if ann.Field == models.FieldTranslated {
		text = it.Translation()
	}
	return itemView{
		ID:         it.ID,
		Kind:       it.Kind,
		ParentID:   it.ParentID,
		Timestamp:  it.Timestamp,
		Text:       text,
		Engagement: it.Engagement,
		Annotation: ann,
		Threat:     it.Annotations.Threat,
	}
}

// AnalyzeSingle handles single item analysis
func (h *Handler) AnalyzeSingle(c *gin.Context) {
	var req models.ContentItem
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.analyzer.AnalyzeSingle(c.Request.Context(), req)
	if err != nil {
		var malformed *models.MalformedRecordError
		if errors.As(err, &malformed) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to analyze item", zap.String("item_id", req.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, item)
}

// AnalyzeBatch handles batch analysis
func (h *Handler) AnalyzeBatch(c *gin.Context) {
	var req models.BatchAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := h.analyzer.StartJob(req.Items)
	if err != nil {
		h.logger.Error("Failed to start batch job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start batch job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":  jobID,
		"status":  models.JobPending,
		"message": "Batch analysis started. Check /api/v1/analyze/jobs/" + jobID + " for status",
	})
}

// GetJobStatus returns batch job status
func (h *Handler) GetJobStatus(c *gin.Context) {
	job, err := h.analyzer.GetJob(c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetItems returns corpus items, optionally filtered by minimum threat level
func (h *Handler) GetItems(c *gin.Context) {
	mode, ok := h.mode(c)
	if !ok {
		return
	}

	level := models.ThreatNone
	if s := c.Query("level"); s != "" {
		l, err := models.ParseThreatLevel(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		level = l
	}

	items := h.analyzer.Items(level)
	views := make([]itemView, len(items))
	for i, it := range items {
		views[i] = view(it, mode)
	}

	c.JSON(http.StatusOK, gin.H{
		"items": views,
		"mode":  mode,
		"total": len(views),
	})
}

// GetItem returns one item with both annotation tracks
func (h *Handler) GetItem(c *gin.Context) {
	item, ok := h.analyzer.Corpus().Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetSnapshot returns the reputation snapshot for an optional time window
func (h *Handler) GetSnapshot(c *gin.Context) {
	mode, ok := h.mode(c)
	if !ok {
		return
	}

	var window *models.TimeWindow
	from, to := c.Query("from"), c.Query("to")
	if from != "" || to != "" {
		window = &models.TimeWindow{}
		for _, b := range []struct {
			name string
			raw  string
			dst  *time.Time
		}{{"from", from, &window.From}, {"to", to, &window.To}} {
			if b.raw == "" {
				continue
			}
			ts, err := ingest.ParseTimestamp(b.raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s: %v", b.name, err)})
				return
			}
			*b.dst = ts
		}
	}

	snap := h.analyzer.Snapshot(h.analyzer.Corpus().Items(), mode, window)
	c.JSON(http.StatusOK, snap)
}

// GetFeatures returns temporal features for every corpus item
func (h *Handler) GetFeatures(c *gin.Context) {
	window := h.cfg.WindowSize
	if s := c.Query("window"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window (must be a positive integer)"})
			return
		}
		window = n
	}

	feats, err := h.analyzer.Features(h.analyzer.Corpus().Items(), window)
	if err != nil {
		if errors.Is(err, models.ErrUnsortable) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to compute features", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute features"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"features": feats,
		"total":    len(feats),
	})
}

// GetCrisisReport returns the operator crisis report
func (h *Handler) GetCrisisReport(c *gin.Context) {
	c.JSON(http.StatusOK, h.analyzer.CrisisReport(h.analyzer.Corpus().Items()))
}

// GetStats returns storage statistics
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.analyzer.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetModelInfo describes the model backends
func (h *Handler) GetModelInfo(c *gin.Context) {
	if h.models == nil {
		c.JSON(http.StatusOK, gin.H{"providers": []string{}, "fallback": "keyword"})
		return
	}
	c.JSON(http.StatusOK, h.models.Info())
}

// ExportCSV exports annotated items to CSV
func (h *Handler) ExportCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=annotated_items.csv")

	if err := export.WriteCSV(c.Writer, h.analyzer.Corpus().Items()); err != nil {
		h.logger.Error("Failed to export CSV", zap.Error(err))
	}
}

// ExportJSON exports annotated items to JSON
func (h *Handler) ExportJSON(c *gin.Context) {
	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", "attachment; filename=annotated_items.json")

	if err := export.WriteJSON(c.Writer, h.analyzer.Corpus().Items()); err != nil {
		h.logger.Error("Failed to export JSON", zap.Error(err))
	}
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "reputation-service",
		"version": h.cfg.Version,
		"items":   h.analyzer.Corpus().Len(),
	})
}

// mode reads ?mode=, writing a 400 response when it is invalid.
func (h *Handler) mode(c *gin.Context) (models.Mode, bool) {
	s := c.Query("mode")
	if s == "" {
		return h.cfg.DefaultMode, true
	}
	m, err := models.ParseMode(s)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return m, true
}
