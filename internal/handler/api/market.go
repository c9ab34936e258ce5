package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
	"StockMind/internal/usecase"
	xhttp "StockMind/pkg/http"
	xlogger "StockMind/pkg/logger"
)

// MarketHandler exposes the read side of the pipeline over HTTP.
type MarketHandler struct {
	logger    *xlogger.Logger
	resolver  *usecase.Resolver
	fetcher   *usecase.Fetcher
	indicator *usecase.IndicatorService
	scanner   *usecase.Scanner
	forecast  *usecase.ForecastService
	news      *usecase.NewsSentimentService
}

func NewMarketHandler(logger *xlogger.Logger, resolver *usecase.Resolver, fetcher *usecase.Fetcher,
	indicator *usecase.IndicatorService, scanner *usecase.Scanner, forecast *usecase.ForecastService,
	news *usecase.NewsSentimentService) *MarketHandler {
	return &MarketHandler{
		logger:    logger,
		resolver:  resolver,
		fetcher:   fetcher,
		indicator: indicator,
		scanner:   scanner,
		forecast:  forecast,
		news:      news,
	}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/resolve", h.Resolve)
	g.GET("/quote", h.Quote)
	g.GET("/history", h.History)
	g.GET("/overview", h.Overview)
	g.GET("/indicators", h.Indicators)
	g.GET("/scan", h.Scan)
	g.GET("/forecast", h.Forecast)
	g.GET("/sentiment", h.Sentiment)
}

func (h *MarketHandler) Resolve(c echo.Context) error {
	req := &models.ResolveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.resolver.Resolve(c.Request().Context(), req.Query, req.Limit)
	if err != nil {
		return h.fail(c, "resolve", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketHandler) Quote(c echo.Context) error {
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	quote, err := h.fetcher.GetQuote(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, "quote", err)
	}
	return xhttp.SuccessResponse(c, quote)
}

func (h *MarketHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rng := domrepo.NormalizeRange(req.Range)

	bars, err := h.fetcher.GetHistory(c.Request().Context(), req.Symbol, rng)
	if err != nil {
		return h.fail(c, "history", err)
	}
	if req.N > 0 && len(bars) > req.N {
		bars = bars[len(bars)-req.N:]
	}
	return xhttp.ListResponse(c, bars, int64(len(bars)))
}

func (h *MarketHandler) Overview(c echo.Context) error {
	req := &models.OverviewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	overview, err := h.fetcher.GetOverview(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, "overview", err)
	}
	return xhttp.SuccessResponse(c, overview)
}

// Indicators serves the stored snapshot, computing one on demand when
// the symbol has never been through a scheduled run.
func (h *MarketHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	snap, err := h.indicator.Latest(ctx, req.Symbol)
	if errors.Is(err, domrepo.ErrNotFound) {
		snap, err = h.indicator.ComputeSymbol(ctx, req.Symbol)
	}
	if err != nil {
		return h.fail(c, "indicators", err)
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *MarketHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.scanner.Latest(c.Request().Context(), req.Limit)
	if err != nil {
		return h.fail(c, "scan", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *MarketHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	fc, err := h.forecast.Latest(ctx, req.Symbol)
	if errors.Is(err, domrepo.ErrNotFound) {
		fc, err = h.forecast.ForecastSymbol(ctx, req.Symbol)
	}
	if err != nil {
		return h.fail(c, "forecast", err)
	}
	return xhttp.SuccessResponse(c, fc)
}

// Sentiment serves the aggregated news sentiment over the ingest
// window. Symbols with no scored coverage come back 404.
func (h *MarketHandler) Sentiment(c echo.Context) error {
	req := &models.SentimentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sum, err := h.news.Summary(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, "sentiment", err)
	}
	return xhttp.SuccessResponse(c, sum)
}

func (h *MarketHandler) fail(c echo.Context, op string, err error) error {
	if errors.Is(err, domrepo.ErrNotFound) {
		return xhttp.NotFoundResponse(c, []*xhttp.AppError{
			xhttp.NewAppError("ERR_NOT_FOUND", "symbol", "symbol not found", http.StatusNotFound),
		})
	}
	h.logger.Error(op+" usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}
