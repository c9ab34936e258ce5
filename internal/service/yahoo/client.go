package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"StockMind/internal/domain/models"
	drepo "StockMind/internal/domain/repository"
	"StockMind/pkg/config"
	xhttp "StockMind/pkg/http"
)

// Client fetches quotes, history, fundamentals and symbol search results
// from the Yahoo chart endpoints.
type Client struct {
	quoteURL   string
	chartURL   string
	searchURL  string
	summaryURL string
	client     *xhttp.Client
}

// New builds a provider client from config.
func New(cfg *config.Config) *Client {
	return &Client{
		quoteURL:   cfg.Provider.QuoteURL,
		chartURL:   cfg.Provider.ChartURL,
		searchURL:  cfg.Provider.SearchURL,
		summaryURL: cfg.Provider.SummaryURL,
		client:     xhttp.NewClient(xhttp.WithTimeout(cfg.Provider.Timeout)),
	}
}

var browserHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
	"Accept":     "application/json",
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  any           `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol             string  `json:"symbol"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	RegularMarketOpen  float64 `json:"regularMarketOpen"`
	RegularMarketHigh  float64 `json:"regularMarketDayHigh"`
	RegularMarketLow   float64 `json:"regularMarketDayLow"`
	PreviousClose      float64 `json:"regularMarketPreviousClose"`
	RegularMarketVol   int64   `json:"regularMarketVolume"`
	MarketCap          int64   `json:"marketCap"`
	MarketTime         int64   `json:"regularMarketTime"`
}

// Quote fetches the latest quote for one symbol. Change fields are
// derived from the previous close with fixed-point math.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	var resp quoteResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.quoteURL,
		Headers: browserHeaders,
		QueryParams: map[string][]string{
			"symbols": {symbol},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}

	if len(resp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, drepo.ErrNotFound)
	}

	r := resp.QuoteResponse.Result[0]
	price := decimal.NewFromFloat(r.RegularMarketPrice)
	prev := decimal.NewFromFloat(r.PreviousClose)
	change := price.Sub(prev)
	changePct := decimal.Zero
	if !prev.IsZero() {
		changePct = change.Div(prev).Mul(decimal.NewFromInt(100)).Round(4)
	}

	ts := time.Now().UTC()
	if r.MarketTime > 0 {
		ts = time.Unix(r.MarketTime, 0).UTC()
	}

	return &models.Quote{
		Symbol:        r.Symbol,
		Price:         price,
		Change:        change,
		ChangePercent: changePct,
		PreviousClose: prev,
		Open:          decimal.NewFromFloat(r.RegularMarketOpen),
		DayHigh:       decimal.NewFromFloat(r.RegularMarketHigh),
		DayLow:        decimal.NewFromFloat(r.RegularMarketLow),
		Volume:        r.RegularMarketVol,
		MarketCap:     r.MarketCap,
		Timestamp:     ts,
	}, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// History fetches daily bars for a range. Sessions with null fields are
// dropped rather than zero-filled.
func (c *Client) History(ctx context.Context, symbol string, rng drepo.Range) ([]models.Bar, error) {
	var resp chartResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     strings.TrimSuffix(c.chartURL, "/") + "/" + symbol,
		Headers: browserHeaders,
		QueryParams: map[string][]string{
			"range":    {string(rng)},
			"interval": {"1d"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("yahoo history %s: %w", symbol, err)
	}

	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo history %s: %w", symbol, drepo.ErrNotFound)
	}

	result := resp.Chart.Result[0]
	q := result.Indicators.Quote[0]
	now := time.Now().UTC()

	bars := make([]models.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == 0 {
			continue
		}
		var vol int64
		if i < len(q.Volume) {
			vol = q.Volume[i]
		}
		bars = append(bars, models.Bar{
			Symbol:    symbol,
			Ts:        time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:      decimal.NewFromFloat(at(q.Open, i)),
			High:      decimal.NewFromFloat(at(q.High, i)),
			Low:       decimal.NewFromFloat(at(q.Low, i)),
			Close:     decimal.NewFromFloat(q.Close[i]),
			Volume:    vol,
			UpdatedAt: now,
		})
	}
	return bars, nil
}

func at(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector      string `json:"sector"`
				Industry    string `json:"industry"`
				Description string `json:"longBusinessSummary"`
				Website     string `json:"website"`
			} `json:"assetProfile"`
			SummaryDetail struct {
				MarketCap     rawNumber `json:"marketCap"`
				PERatio       rawNumber `json:"trailingPE"`
				DividendYield rawNumber `json:"dividendYield"`
				Beta          rawNumber `json:"beta"`
				High52        rawNumber `json:"fiftyTwoWeekHigh"`
				Low52         rawNumber `json:"fiftyTwoWeekLow"`
			} `json:"summaryDetail"`
			KeyStatistics struct {
				EPS rawNumber `json:"trailingEps"`
			} `json:"defaultKeyStatistics"`
			Price struct {
				LongName string `json:"longName"`
			} `json:"price"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"quoteSummary"`
}

// rawNumber unwraps Yahoo's {"raw": 1.23, "fmt": "1.23"} envelopes.
type rawNumber struct {
	Raw float64 `json:"raw"`
}

// Overview fetches fundamentals and profile data.
func (c *Client) Overview(ctx context.Context, symbol string) (*models.Overview, error) {
	var resp summaryResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     strings.TrimSuffix(c.summaryURL, "/") + "/" + symbol,
		Headers: browserHeaders,
		QueryParams: map[string][]string{
			"modules": {"assetProfile,summaryDetail,defaultKeyStatistics,price"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("yahoo overview %s: %w", symbol, err)
	}

	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo overview %s: %w", symbol, drepo.ErrNotFound)
	}

	r := resp.QuoteSummary.Result[0]
	return &models.Overview{
		Symbol:        symbol,
		Name:          r.Price.LongName,
		Sector:        r.AssetProfile.Sector,
		Industry:      r.AssetProfile.Industry,
		MarketCap:     int64(r.SummaryDetail.MarketCap.Raw),
		PERatio:       r.SummaryDetail.PERatio.Raw,
		EPS:           r.KeyStatistics.EPS.Raw,
		DividendYield: r.SummaryDetail.DividendYield.Raw,
		Beta:          r.SummaryDetail.Beta.Raw,
		High52Week:    r.SummaryDetail.High52.Raw,
		Low52Week:     r.SummaryDetail.Low52.Raw,
		Description:   r.AssetProfile.Description,
		Website:       r.AssetProfile.Website,
		UpdatedAt:     time.Now().UTC(),
	}, nil
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string  `json:"symbol"`
		ShortName string  `json:"shortname"`
		LongName  string  `json:"longname"`
		Exchange  string  `json:"exchange"`
		QuoteType string  `json:"quoteType"`
		Score     float64 `json:"score"`
	} `json:"quotes"`
}

// Search returns raw provider candidates for a free-text query. Each
// candidate carries the provider's own relevance score and instrument
// kind; the resolver filters and reweights them.
func (c *Client) Search(ctx context.Context, query string) ([]models.SymbolCandidate, error) {
	var resp searchResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.searchURL,
		Headers: browserHeaders,
		QueryParams: map[string][]string{
			"q": {query},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("yahoo search %q: %w", query, err)
	}

	out := make([]models.SymbolCandidate, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		score := q.Score
		if score == 0 {
			score = 0.5
		}
		out = append(out, models.SymbolCandidate{
			Symbol:   q.Symbol,
			Name:     name,
			Exchange: q.Exchange,
			Kind:     strings.ToUpper(q.QuoteType),
			Score:    score,
			Source:   "provider",
		})
	}
	return out, nil
}
