// Package mlclient calls a self-hosted transformer inference service for
// sentiment scores.
package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reputation-service/internal/models"
)

// Client is a client for the ML Service API
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// SentimentRequest is a single text classification request.
type SentimentRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Model    string `json:"model,omitempty"`
}

// LabelScore is one class of a classifier output.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SentimentResponse is the service's answer. Scores holds the full
// distribution; Label and Score the top class only.
type SentimentResponse struct {
	Label            string       `json:"label"`
	Score            float64      `json:"score"`
	Scores           []LabelScore `json:"scores,omitempty"`
	Model            string       `json:"model,omitempty"`
	ProcessingTimeMs float64      `json:"processing_time_ms,omitempty"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Device      string `json:"device"`
}

// NewClient creates a new ML Service client
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Sentiment classifies a single text and converts the label set into a
// polarity distribution.
func (c *Client) Sentiment(ctx context.Context, text string, track models.Track) (models.ModelScore, error) {
	reqBody := SentimentRequest{
		Text:     text,
		Language: track.String(),
		Model:    c.model,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return models.ModelScore{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/sentiment", bytes.NewBuffer(jsonData))
	if err != nil {
		return models.ModelScore{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.ModelScore{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return models.ModelScore{}, fmt.Errorf("ML service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result SentimentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.ModelScore{}, fmt.Errorf("failed to decode response: %w", err)
	}

	scores := result.Scores
	if len(scores) == 0 {
		scores = []LabelScore{{Label: result.Label, Score: result.Score}}
	}
	return Distribution(scores)
}

// Translate is not offered by the inference service.
func (c *Client) Translate(context.Context, string, models.Track, models.Track) (string, error) {
	return "", models.ErrUnsupported
}

// HealthCheck checks if the ML service is healthy
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ML service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// Close is a no-op.
func (c *Client) Close() error { return nil }

// GetModelInfo returns model information
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider": "ml_service",
		"model":    c.model,
		"base_url": c.baseURL,
	}
}

// Distribution folds classifier labels into positive/neutral/negative.
// It understands polarity names, the LABEL_0..2 convention of
// three-class sentiment heads (negative, neutral, positive) and
// "1 star".."5 stars" review ratings, where 3 stars is neutral.
func Distribution(scores []LabelScore) (models.ModelScore, error) {
	var out models.ModelScore
	for _, s := range scores {
		label := strings.ToLower(strings.TrimSpace(s.Label))
		switch label {
		case "positive", "pos", "label_2":
			out.Positive += s.Score
			continue
		case "neutral", "neu", "label_1":
			out.Neutral += s.Score
			continue
		case "negative", "neg", "label_0":
			out.Negative += s.Score
			continue
		}

		stars, ok := parseStars(label)
		if !ok {
			return models.ModelScore{}, fmt.Errorf("unknown sentiment label %q", s.Label)
		}
		switch {
		case stars > 3:
			w := float64(stars-3) / 2
			out.Positive += s.Score * w
			out.Neutral += s.Score * (1 - w)
		case stars < 3:
			w := float64(3-stars) / 2
			out.Negative += s.Score * w
			out.Neutral += s.Score * (1 - w)
		default:
			out.Neutral += s.Score
		}
	}
	if !out.Valid() {
		return models.ModelScore{}, fmt.Errorf("invalid sentiment distribution: %+v", out)
	}
	return out, nil
}

func parseStars(label string) (int, bool) {
	fields := strings.Fields(label)
	if len(fields) != 2 || !strings.HasPrefix(fields[1], "star") {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}
