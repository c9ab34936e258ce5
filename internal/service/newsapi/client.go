package newsapi

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"StockMind/internal/domain/models"
	"StockMind/pkg/config"
	xhttp "StockMind/pkg/http"
	"StockMind/pkg/util"
)

// Client fetches articles from the NewsAPI "everything" endpoint.
type Client struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
}

func New(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.News.BaseURL,
		apiKey:  cfg.News.APIKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(cfg.News.Timeout)),
	}
}

type apiResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Fetch returns recent articles mentioning a symbol, newest first.
// Articles without a URL are dropped since URL is the dedup key.
func (c *Client) Fetch(ctx context.Context, symbol string, since time.Time, pageSize int) ([]models.Article, error) {
	var resp apiResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL,
		Headers: map[string]string{
			"X-Api-Key": c.apiKey,
		},
		QueryParams: map[string][]string{
			"q":        {symbol},
			"from":     {since.UTC().Format("2006-01-02")},
			"pageSize": {strconv.Itoa(pageSize)},
			"sortBy":   {"publishedAt"},
			"language": {"en"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("newsapi fetch %s: %w", symbol, err)
	}

	if resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi fetch %s: status %s", symbol, resp.Status)
	}

	out := make([]models.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.URL == "" || a.Title == "" {
			continue
		}
		published := util.ParseTimeDefault(a.PublishedAt, time.Now().UTC())
		out = append(out, models.Article{
			Symbol:      symbol,
			Title:       a.Title,
			URL:         a.URL,
			Source:      a.Source.Name,
			Summary:     a.Description,
			PublishedAt: published.UTC(),
		})
	}
	return out, nil
}
