package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ItemAnnotated("video", "annotated")
	m.ModelCall("gemini", time.Now(), errors.New("x"))
	m.Batch(time.Now())
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()
	m.Sentiment("te", "KeywordFallback")
	m.Sentiment("te", "KeywordFallback")
	m.Threat("Critical")
	m.ModelCall("groq", time.Now(), nil)
	m.ModelCall("groq", time.Now(), errors.New("429"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SentimentSource.WithLabelValues("te", "KeywordFallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ThreatLevels.WithLabelValues("Critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelRequests.WithLabelValues("groq", "error")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.IngestRow("ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "reputation_ingest_rows_total"))
}
