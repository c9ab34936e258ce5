package models

// Requests for the market HTTP endpoints. Defined in domain for consistency and reuse.

type ResolveRequest struct {
	Query string `query:"q" json:"q" validate:"required,min=1,max=64"`
	Limit int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=25"`
}

type QuoteRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=1,max=16"`
}

type HistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=1,max=16"`
	Range  string `query:"range" json:"range" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y 5y"`
	N      int    `query:"n" json:"n" default:"250" validate:"gte=1,lte=2500"`
}

type OverviewRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=1,max=16"`
}

type IndicatorsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=1,max=16"`
}

type ScanRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type ForecastRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=1,max=16"`
}

type SentimentRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=1,max=16"`
}
