package models

import "time"

// Article is one news item tied to a symbol. URL is the dedup key.
type Article struct {
	Symbol      string    `json:"symbol"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"published_at"`
}

// SentimentSummary aggregates recent article scores for one symbol.
type SentimentSummary struct {
	Symbol    string    `json:"symbol"`
	Articles  int       `json:"articles"`
	AvgScore  float64   `json:"avg_score"`
	Label     string    `json:"label"` // "positive", "negative", "neutral"
	Since     time.Time `json:"since"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SentimentResult is the scored sentiment of one article.
type SentimentResult struct {
	Symbol     string    `json:"symbol"`
	URL        string    `json:"url"`
	Score      float64   `json:"score"`  // [-1, 1]
	Label      string    `json:"label"`  // "positive", "negative", "neutral"
	Source     string    `json:"source"` // "model" or "lexicon"
	AnalyzedAt time.Time `json:"analyzed_at"`
}
