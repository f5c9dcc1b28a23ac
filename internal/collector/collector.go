package collector

import (
	"context"
	"fmt"
	"time"

	"EngulfSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars  map[model.Timeframe][]model.OHLCV
	Quote model.Quote
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _ string, tf model.Timeframe, count int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[tf]; ok {
		return tail(bars, count), nil
	}
	return generateMockBars(tf, count, time.Now()), nil
}

func (m *MockFetcher) FetchQuote(_ context.Context, symbol string) (model.Quote, error) {
	if m.Err != nil {
		return model.Quote{}, m.Err
	}
	q := m.Quote
	q.Symbol = symbol
	if q.Time.IsZero() {
		q.Time = time.Now()
	}
	return q, nil
}

// generateMockBars produces a zig-zag that forms engulfing patterns now and then.
func generateMockBars(tf model.Timeframe, count int, now time.Time) []model.OHLCV {
	step := tf.Duration()
	if step == 0 {
		step = 15 * time.Minute
	}
	end := now.Truncate(step)
	bars := make([]model.OHLCV, count)
	price := 1.1000
	for i := 0; i < count; i++ {
		drift := 0.0004
		if (i/3)%2 == 1 {
			drift = -0.0005
		}
		o := price
		c := o + drift
		bars[i] = model.OHLCV{
			Time:  end.Add(-time.Duration(count-1-i) * step),
			Open:  o,
			High:  max(o, c) + 0.0001,
			Low:   min(o, c) - 0.0001,
			Close: c,
		}
		price = c
	}
	return bars
}

func tail(bars []model.OHLCV, n int) []model.OHLCV {
	if n > 0 && len(bars) > n {
		return bars[len(bars)-n:]
	}
	return bars
}

// Snapshot is the pair of series a scan cycle runs on.
type Snapshot struct {
	Primary    *model.Series
	Confluence *model.Series
}

// Collector fetches bars for the primary and confluence timeframes and turns
// them into series of closed bars.
type Collector struct {
	Fetcher           Fetcher
	Symbol            string
	Primary           model.Timeframe
	Confluence        model.Timeframe
	History           int
	IncludeFormingBar bool
	Now               func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string, primary, confluence model.Timeframe, history int) *Collector {
	return &Collector{
		Fetcher:    fetcher,
		Symbol:     symbol,
		Primary:    primary,
		Confluence: confluence,
		History:    history,
		Now:        time.Now,
	}
}

// Collect fetches both timeframes. The confluence series is skipped when
// withConfluence is false.
func (c *Collector) Collect(ctx context.Context, withConfluence bool) (*Snapshot, error) {
	primary, err := c.series(ctx, c.Primary)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Primary: primary}
	if withConfluence {
		if snap.Confluence, err = c.series(ctx, c.Confluence); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// Quote fetches the live bid/ask.
func (c *Collector) Quote(ctx context.Context) (model.Quote, error) {
	q, err := c.Fetcher.FetchQuote(ctx, c.Symbol)
	if err != nil {
		return model.Quote{}, fmt.Errorf("fetch quote: %w", err)
	}
	return q, nil
}

func (c *Collector) series(ctx context.Context, tf model.Timeframe) (*model.Series, error) {
	// one extra bar in case the newest one is still forming
	bars, err := c.Fetcher.FetchBars(ctx, c.Symbol, tf, c.History+1)
	if err != nil {
		return nil, fmt.Errorf("fetch %s bars: %w", tf, err)
	}
	if !c.IncludeFormingBar {
		bars = ClosedBars(bars, tf, c.now())
	}
	bars = tail(bars, c.History)
	s, err := model.NewSeries(c.Symbol, tf, bars)
	if err != nil {
		return nil, fmt.Errorf("build %s series: %w", tf, err)
	}
	return s, nil
}

func (c *Collector) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// ClosedBars drops a trailing bar that has not closed yet at now.
func ClosedBars(bars []model.OHLCV, tf model.Timeframe, now time.Time) []model.OHLCV {
	n := len(bars)
	if n == 0 || tf.Duration() == 0 {
		return bars
	}
	if bars[n-1].Time.Add(tf.Duration()).After(now) {
		return bars[:n-1]
	}
	return bars
}
