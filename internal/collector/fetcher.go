package collector

import (
	"context"

	"EngulfSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.OHLCV, error)
	FetchQuote(ctx context.Context, symbol string) (model.Quote, error)
	Name() string
}
