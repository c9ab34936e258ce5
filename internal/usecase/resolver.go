package usecase

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
	domservice "StockMind/internal/domain/service"
	"StockMind/pkg/cache"
	applogger "StockMind/pkg/logger"
)

const resolveTTL = 24 * time.Hour

// resolvableKinds are the instrument kinds the resolver accepts from the
// provider. Everything else (crypto, futures, options) is dropped.
var resolvableKinds = map[string]struct{}{
	"EQUITY": {},
	"ETF":    {},
	"INDEX":  {},
}

// Resolver turns free-text queries into scored symbol candidates plus a
// canonical pick. Ambiguous queries go to the provider first because it
// knows the exchange-qualified forms; the local registry backs it up,
// and a synthetic candidate is the last resort.
type Resolver struct {
	store    domrepo.MarketStore
	provider domservice.QuoteProvider
	cache    cache.Service
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

func NewResolver(store domrepo.MarketStore, provider domservice.QuoteProvider, c cache.Service, metrics domrepo.Metrics, l *applogger.Logger) *Resolver {
	return &Resolver{store: store, provider: provider, cache: c, metrics: metrics, l: l}
}

// Resolve scores candidates for a query. An empty query returns an empty
// result without touching the provider.
func (r *Resolver) Resolve(ctx context.Context, query string, limit int) (*models.ResolveResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &models.ResolveResult{Query: query}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	cacheKey := cache.GenerateKeyWithParams("resolve", strings.ToLower(query), limit)
	if r.cache != nil {
		var cached models.ResolveResult
		if err := r.cache.Get(ctx, cacheKey, &cached); err == nil {
			r.metrics.RecordCacheLookup("resolve", "hit")
			return &cached, nil
		}
		r.metrics.RecordCacheLookup("resolve", "miss")
	}

	qUpper := strings.ToUpper(query)
	isAmbiguous := ambiguousQuery(qUpper)

	candidates := make([]models.SymbolCandidate, 0, limit)
	seen := make(map[string]struct{}, limit)

	// Ambiguous queries hit the provider first: it knows the qualified
	// forms. An outage degrades to the local registry, never an error.
	if isAmbiguous {
		remote, err := r.provider.Search(ctx, query)
		if err != nil {
			r.metrics.RecordError("resolver_provider")
			r.l.Warn("resolver provider search failed", applogger.String("query", query), applogger.Error(err))
		}
		for _, c := range remote {
			if c.Symbol == "" {
				continue
			}
			if _, ok := seen[c.Symbol]; ok {
				continue
			}
			if _, ok := resolvableKinds[c.Kind]; !ok {
				continue
			}
			base := c.Score
			if base == 0 {
				base = 0.5
			}
			if strings.Contains(c.Symbol, ".") || c.Exchange != "" {
				c.Score = math.Min(1.0, base+0.3)
			} else {
				c.Score = base * 0.7
			}
			candidates = append(candidates, c)
			seen[c.Symbol] = struct{}{}
			if len(candidates) >= limit {
				break
			}
		}
	}

	// Local exact match when the provider gave nothing or the query is
	// already qualified.
	if len(candidates) == 0 || !isAmbiguous {
		sym, err := r.store.GetSymbol(ctx, qUpper)
		switch {
		case err == nil:
			if _, ok := seen[sym.Ticker]; !ok {
				candidates = append(candidates, registryCandidate(sym, 1.0, 0.8))
				seen[sym.Ticker] = struct{}{}
			}
		case !errors.Is(err, domrepo.ErrNotFound):
			r.l.Warn("resolver registry lookup failed", applogger.String("query", query), applogger.Error(err))
		}
	}

	// Substring matches top up the list. Unqualified tickers are skipped
	// once better candidates exist.
	if len(candidates) < limit {
		local, err := r.store.SearchSymbols(ctx, query, limit)
		if err != nil {
			r.l.Warn("resolver registry search failed", applogger.String("query", query), applogger.Error(err))
		}
		for _, sym := range local {
			if _, ok := seen[sym.Ticker]; ok {
				continue
			}
			if len(candidates) > 0 && !strings.Contains(sym.Ticker, ".") {
				continue
			}
			candidates = append(candidates, registryCandidate(&sym, 0.6, 0.3))
			seen[sym.Ticker] = struct{}{}
			if len(candidates) >= limit {
				break
			}
		}
	}

	// Last resort for ambiguous queries: hand back the raw uppercased
	// query so downstream fetch can try it directly. Qualified queries
	// that match nothing stay unresolved.
	if len(candidates) == 0 && isAmbiguous {
		candidates = append(candidates, models.SymbolCandidate{
			Symbol: qUpper,
			Name:   qUpper,
			Kind:   "EQUITY",
			Score:  0.5,
			Source: "synthetic",
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Symbol < candidates[j].Symbol
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	canonical := canonicalOf(candidates)
	if canonical != "" {
		r.catalogue(ctx, candidates, canonical)
	}

	result := &models.ResolveResult{
		Query:      query,
		Canonical:  canonical,
		Candidates: candidates,
	}

	// Empty results are cached too, so unresolvable queries stop
	// re-hitting the provider for a day.
	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKey, result, resolveTTL); err != nil {
			r.l.Warn("resolver cache set failed", applogger.Error(err))
		}
	}
	return result, nil
}

// ambiguousQuery reports whether the query lacks an exchange qualifier
// and is not a futures or index marker.
func ambiguousQuery(qUpper string) bool {
	return !strings.Contains(qUpper, ".") &&
		!strings.HasSuffix(qUpper, "^") &&
		!strings.HasSuffix(qUpper, "=")
}

// registryCandidate scores a catalogue row: qualified tickers take the
// higher weight.
func registryCandidate(sym *models.Symbol, qualified, bare float64) models.SymbolCandidate {
	score := bare
	if strings.Contains(sym.Ticker, ".") {
		score = qualified
	}
	kind := sym.Kind
	if kind == "" {
		kind = "EQUITY"
	}
	return models.SymbolCandidate{
		Symbol:   sym.Ticker,
		Name:     sym.Name,
		Exchange: sym.Exchange,
		Kind:     kind,
		Score:    score,
		Source:   "db",
	}
}

// catalogue records the canonical pick as an active symbol so scheduled
// work, local search and cleanup operate on everything the system has
// resolved.
func (r *Resolver) catalogue(ctx context.Context, candidates []models.SymbolCandidate, canonical string) {
	for _, c := range candidates {
		if c.Symbol != canonical {
			continue
		}
		// Registry rows are already catalogued and synthetic guesses
		// wait for a successful fetch to confirm them.
		if c.Source == "db" || c.Source == "synthetic" {
			return
		}
		kind := c.Kind
		if kind == "" {
			kind = "EQUITY"
		}
		sym := &models.Symbol{
			Ticker:   c.Symbol,
			Name:     c.Name,
			Exchange: c.Exchange,
			Kind:     kind,
			Active:   true,
		}
		if err := r.store.UpsertSymbol(ctx, sym); err != nil {
			r.l.Warn("resolver symbol upsert failed", applogger.String("symbol", c.Symbol), applogger.Error(err))
		}
		return
	}
}

// canonicalOf prefers the first exchange-qualified symbol, falling back
// to the top scorer.
func canonicalOf(candidates []models.SymbolCandidate) string {
	if len(candidates) == 0 {
		return ""
	}
	for _, c := range candidates {
		if strings.Contains(c.Symbol, ".") {
			return c.Symbol
		}
	}
	return candidates[0].Symbol
}
