// Package gemini scores sentiment and translates text with the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"reputation-service/internal/models"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Client wraps the Gemini API client
type Client struct {
	client    *genai.Client
	scorer    *genai.GenerativeModel
	translate *genai.GenerativeModel
	logger    *zap.Logger
	modelName string
}

// Config for Gemini client
type Config struct {
	APIKey    string
	ModelName string // Default: "gemini-2.0-flash"
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	if cfg.ModelName == "" {
		cfg.ModelName = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	scorer := client.GenerativeModel(cfg.ModelName)
	scorer.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SentimentInstruction)},
	}
	scorer.ResponseMIMEType = "application/json"
	scorer.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.1),
		TopP:            genai.Ptr[float32](0.9),
		MaxOutputTokens: genai.Ptr[int32](100),
	}

	translate := client.GenerativeModel(cfg.ModelName)
	translate.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(TranslateInstruction)},
	}
	translate.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.2),
		MaxOutputTokens: genai.Ptr[int32](1024),
	}

	logger.Info("Gemini client initialized", zap.String("model", cfg.ModelName))

	return &Client{
		client:    client,
		scorer:    scorer,
		translate: translate,
		logger:    logger,
		modelName: cfg.ModelName,
	}, nil
}

// Close closes the Gemini client
func (c *Client) Close() error {
	return c.client.Close()
}

// Sentiment asks the model for a polarity distribution.
func (c *Client) Sentiment(ctx context.Context, text string, track models.Track) (models.ModelScore, error) {
	reply, err := c.generate(ctx, c.scorer, BuildSentimentPrompt(text, track))
	if err != nil {
		return models.ModelScore{}, err
	}
	score, err := ParseScores(reply)
	if err != nil {
		c.logger.Error("Failed to parse JSON response",
			zap.Error(err),
			zap.String("original_response", reply))
		return models.ModelScore{}, err
	}
	return score, nil
}

// Translate returns text rendered in the target language.
func (c *Client) Translate(ctx context.Context, text string, from, to models.Track) (string, error) {
	reply, err := c.generate(ctx, c.translate, BuildTranslatePrompt(text, from, to))
	if err != nil {
		return "", err
	}
	out := CleanTranslation(reply)
	if out == "" {
		return "", fmt.Errorf("empty translation from gemini")
	}
	return out, nil
}

func (c *Client) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("unexpected response type from gemini")
	}
	return b.String(), nil
}

// GetModelInfo returns model information
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider": "gemini",
		"model":    c.modelName,
	}
}
