// Package chatapi talks to OpenAI-compatible chat completion endpoints
// (Groq, OpenRouter) for sentiment scoring and translation.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"reputation-service/internal/gemini"
	"reputation-service/internal/models"

	"go.uber.org/zap"
)

// Flavor selects defaults and headers for a hosted endpoint.
type Flavor string

const (
	FlavorGroq       Flavor = "groq"
	FlavorOpenRouter Flavor = "openrouter"
)

var defaults = map[Flavor]struct {
	baseURL string
	model   string
}{
	FlavorGroq:       {"https://api.groq.com/openai/v1", "llama-3.3-70b-versatile"},
	FlavorOpenRouter: {"https://openrouter.ai/api/v1", "meta-llama/llama-3.3-70b-instruct:free"},
}

// Client is an OpenAI-compatible chat client.
type Client struct {
	flavor     Flavor
	apiKey     string
	baseURL    string
	modelName  string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds configuration for a chat client.
type Config struct {
	Flavor    Flavor
	APIKey    string
	ModelName string
	// BaseURL overrides the flavor's endpoint.
	BaseURL string
	Timeout time.Duration
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewClient creates a chat client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	d, ok := defaults[cfg.Flavor]
	if !ok {
		return nil, fmt.Errorf("unknown chat flavor %q", cfg.Flavor)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", cfg.Flavor)
	}
	if cfg.ModelName == "" {
		cfg.ModelName = d.model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = d.baseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger.Info("Chat client initialized",
		zap.String("flavor", string(cfg.Flavor)),
		zap.String("model", cfg.ModelName))

	return &Client{
		flavor:     cfg.Flavor,
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		modelName:  cfg.ModelName,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}

// Sentiment asks the model for a polarity distribution.
func (c *Client) Sentiment(ctx context.Context, text string, track models.Track) (models.ModelScore, error) {
	content, err := c.complete(ctx, gemini.SentimentInstruction, gemini.BuildSentimentPrompt(text, track), 100)
	if err != nil {
		return models.ModelScore{}, err
	}
	score, err := gemini.ParseScores(content)
	if err != nil {
		c.logger.Error("Failed to parse JSON response",
			zap.String("flavor", string(c.flavor)),
			zap.Error(err),
			zap.String("original_response", content))
		return models.ModelScore{}, err
	}
	return score, nil
}

// Translate returns text rendered in the target language.
func (c *Client) Translate(ctx context.Context, text string, from, to models.Track) (string, error) {
	content, err := c.complete(ctx, gemini.TranslateInstruction, gemini.BuildTranslatePrompt(text, from, to), 1024)
	if err != nil {
		return "", err
	}
	out := gemini.CleanTranslation(content)
	if out == "" {
		return "", fmt.Errorf("empty translation from %s", c.flavor)
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Model: c.modelName,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.1,
		MaxTokens:   maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.flavor == FlavorOpenRouter {
		req.Header.Set("X-Title", "Reputation Service")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s API request failed: %w", c.flavor, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Chat API error",
			zap.String("flavor", string(c.flavor)),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return "", fmt.Errorf("%s API returned status %d: %s", c.flavor, resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%s API error: %s", c.flavor, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.flavor)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// GetModelInfo returns model information
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider": string(c.flavor),
		"model":    c.modelName,
	}
}
