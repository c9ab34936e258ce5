package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"StockMind/internal/domain/models"
	"StockMind/pkg/config"
	xhttp "StockMind/pkg/http"
)

// Client scores text sentiment with the Gemini generateContent REST API.
// The prompt demands a bare JSON object so the reply parses without any
// freeform cleanup beyond code fences.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	client     *xhttp.Client
}

func New(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.Sentiment.BaseURL,
		apiKey:     cfg.Sentiment.APIKey,
		model:      cfg.Sentiment.Model,
		maxRetries: cfg.Sentiment.MaxRetries,
		client:     xhttp.NewClient(xhttp.WithTimeout(cfg.Sentiment.Timeout)),
	}
}

const promptTemplate = `Analyze the sentiment of this financial headline toward the company it mentions.
Respond with ONLY a JSON object, no markdown, in this exact shape:
{"score": <number between -1 and 1>, "label": "<positive|negative|neutral>"}

Headline: %s`

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type verdict struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// Analyze scores one piece of text. Transient failures are retried with
// exponential backoff up to the configured attempt count.
func (c *Client) Analyze(ctx context.Context, text string) (*models.SentimentResult, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: fmt.Sprintf(promptTemplate, text)}}}},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimSuffix(c.baseURL, "/"), c.model)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var resp generateResponse
		err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    url,
			Headers: map[string]string{
				"Content-Type":   "application/json",
				"x-goog-api-key": c.apiKey,
			},
			Body: req,
		}, &resp)
		if err != nil {
			lastErr = err
			continue
		}

		v, err := parseVerdict(resp)
		if err != nil {
			lastErr = err
			continue
		}

		return &models.SentimentResult{
			Score:      clampScore(v.Score),
			Label:      normalizeLabel(v.Label, v.Score),
			Source:     "model",
			AnalyzedAt: time.Now().UTC(),
		}, nil
	}
	return nil, fmt.Errorf("gemini analyze: %w", lastErr)
}

func parseVerdict(resp generateResponse) (*verdict, error) {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty gemini response")
	}

	raw := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var v verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("parse gemini verdict: %w", err)
	}
	return &v, nil
}

func clampScore(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// normalizeLabel falls back to score-derived labels when the model
// returns something unexpected.
func normalizeLabel(label string, score float64) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive", "negative", "neutral":
		return strings.ToLower(strings.TrimSpace(label))
	}
	switch {
	case score > 0.1:
		return "positive"
	case score < -0.1:
		return "negative"
	default:
		return "neutral"
	}
}
