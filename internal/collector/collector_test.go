package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EngulfSentinel/internal/model"
	"EngulfSentinel/internal/model/modeltest"
)

func TestClosedBars_DropsFormingBar(t *testing.T) {
	bars := modeltest.Bodies([2]float64{1, 2}, [2]float64{2, 3}, [2]float64{3, 4})
	// bar 2 opens at +30m and closes at +45m
	now := modeltest.Start.Add(40 * time.Minute)
	got := ClosedBars(bars, model.TF15m, now)
	assert.Len(t, got, 2)

	now = modeltest.Start.Add(45 * time.Minute)
	got = ClosedBars(bars, model.TF15m, now)
	assert.Len(t, got, 3)
}

func TestClosedBars_Empty(t *testing.T) {
	assert.Empty(t, ClosedBars(nil, model.TF15m, time.Now()))
}

func TestAggregate_FourHour(t *testing.T) {
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	var hourly []model.OHLCV
	for i := 0; i < 8; i++ {
		p := float64(10 + i)
		hourly = append(hourly, model.OHLCV{
			Time:   base.Add(time.Duration(i) * time.Hour),
			Open:   p,
			High:   p + 2,
			Low:    p - 1,
			Close:  p + 1,
			Volume: 1,
		})
	}
	got := Aggregate(hourly, model.TF4h)
	require.Len(t, got, 2)

	assert.Equal(t, base, got[0].Time)
	assert.Equal(t, 10.0, got[0].Open)
	assert.Equal(t, 15.0, got[0].High)
	assert.Equal(t, 9.0, got[0].Low)
	assert.Equal(t, 14.0, got[0].Close)
	assert.Equal(t, 4.0, got[0].Volume)

	assert.Equal(t, base.Add(4*time.Hour), got[1].Time)
	assert.Equal(t, 14.0, got[1].Open)
	assert.Equal(t, 18.0, got[1].Close)
}

func TestAggregate_PartialBucket(t *testing.T) {
	base := time.Date(2024, 3, 4, 2, 0, 0, 0, time.UTC)
	hourly := []model.OHLCV{
		{Time: base, Open: 1, High: 2, Low: 0.5, Close: 1.5},
		{Time: base.Add(time.Hour), Open: 1.5, High: 3, Low: 1, Close: 2.5},
		{Time: base.Add(2 * time.Hour), Open: 2.5, High: 2.6, Low: 2, Close: 2.2},
	}
	got := Aggregate(hourly, model.TF4h)
	require.Len(t, got, 2)
	assert.Equal(t, base.Truncate(4*time.Hour), got[0].Time)
	assert.Equal(t, 3.0, got[0].High)
	assert.Equal(t, 2.2, got[1].Close)
}

func TestCollect_TrimsFormingBarAndHistory(t *testing.T) {
	primary := modeltest.Random(1, 20)
	higher := Aggregate(primary, model.TF1h)
	fetcher := &MockFetcher{Bars: map[model.Timeframe][]model.OHLCV{
		model.TF15m: primary,
		model.TF1h:  higher,
	}}
	c := NewCollector(fetcher, "EURUSD=X", model.TF15m, model.TF1h, 10)
	// newest 15m bar is still forming
	c.Now = func() time.Time { return primary[19].Time.Add(5 * time.Minute) }

	snap, err := c.Collect(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 10, snap.Primary.Len())
	last, ok := snap.Primary.Last()
	require.True(t, ok)
	assert.Equal(t, primary[18].Time, last.Time)
	assert.Equal(t, "EURUSD=X", snap.Primary.Symbol)
	require.NotNil(t, snap.Confluence)
	assert.Equal(t, model.TF1h, snap.Confluence.Timeframe)
}

func TestCollect_IncludeFormingBar(t *testing.T) {
	primary := modeltest.Random(2, 12)
	fetcher := &MockFetcher{Bars: map[model.Timeframe][]model.OHLCV{model.TF15m: primary}}
	c := NewCollector(fetcher, "X", model.TF15m, model.TF4h, 50)
	c.IncludeFormingBar = true
	c.Now = func() time.Time { return primary[11].Time }

	snap, err := c.Collect(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 12, snap.Primary.Len())
	assert.Nil(t, snap.Confluence)
}

func TestCollect_FetchError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCollector(&MockFetcher{Err: boom}, "X", model.TF15m, model.TF4h, 50)
	_, err := c.Collect(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, err = c.Quote(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCollect_GeneratedBarsAreOrdered(t *testing.T) {
	c := NewCollector(&MockFetcher{}, "X", model.TF15m, model.TF4h, 60)
	snap, err := c.Collect(context.Background(), true)
	require.NoError(t, err)
	assert.Greater(t, snap.Primary.Len(), 0)
	assert.Greater(t, snap.Confluence.Len(), 0)
}

func TestMockFetcher_Quote(t *testing.T) {
	m := &MockFetcher{Quote: model.Quote{Bid: 1.1, Ask: 1.2}}
	q, err := m.FetchQuote(context.Background(), "EURUSD=X")
	require.NoError(t, err)
	assert.Equal(t, "EURUSD=X", q.Symbol)
	assert.Equal(t, 1.2, q.Ask)
	assert.False(t, q.Time.IsZero())
}

func TestVsTraderFetcher_Bars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bars", r.URL.Path)
		assert.Equal(t, "15m", r.URL.Query().Get("timeframe"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		// newest first on purpose
		fmt.Fprint(w, `[
			{"timestamp": 1709511300, "open": 2, "high": 3, "low": 1.5, "close": 2.5, "volume": 7},
			{"timestamp": 1709510400, "open": 1, "high": 2.2, "low": 0.8, "close": 2, "volume": 5}
		]`)
	}))
	defer srv.Close()

	f := NewVsTraderFetcher(srv.URL, "secret", "")
	bars, err := f.FetchBars(context.Background(), "EURUSD", model.TF15m, 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, 1.0, bars[0].Open)
	assert.Equal(t, 7.0, bars[1].Volume)
}

func TestVsTraderFetcher_FourHourFallback(t *testing.T) {
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("timeframe") == "4h" {
			http.Error(w, "unsupported", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, "[")
		for i := 0; i < 8; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"timestamp": %d, "open": 1, "high": 2, "low": 0.5, "close": 1.5}`, base+int64(i)*3600)
		}
		fmt.Fprint(w, "]")
	}))
	defer srv.Close()

	bars, err := NewVsTraderFetcher(srv.URL, "", "").FetchBars(context.Background(), "EURUSD", model.TF4h, 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 4*time.Hour, bars[1].Time.Sub(bars[0].Time))
}

func TestVsTraderFetcher_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/quote", r.URL.Path)
		fmt.Fprint(w, `{"bid": 1.0850, "ask": 1.0852, "timestamp": 1709510400}`)
	}))
	defer srv.Close()

	q, err := NewVsTraderFetcher(srv.URL, "", "").FetchQuote(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 1.0850, q.Bid)
	assert.Equal(t, 1.0852, q.Ask)
	assert.Equal(t, int64(1709510400), q.Time.Unix())
}

func TestVsTraderFetcher_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewVsTraderFetcher(srv.URL, "", "").FetchQuote(context.Background(), "EURUSD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

const yahooBody = `{"chart":{"result":[{
	"meta":{"regularMarketPrice":1.0851,"regularMarketTime":1709511300},
	"timestamp":[1709510400,1709511300,1709512200],
	"indicators":{"quote":[{
		"open":[1.08,null,1.09],
		"high":[1.085,null,1.095],
		"low":[1.079,null,1.088],
		"close":[1.084,null,1.091],
		"volume":[0,null,0]
	}]}
}],"error":null}}`

func TestYahooFetcher_BarsSkipsNulls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "15m", r.URL.Query().Get("interval"))
		fmt.Fprint(w, yahooBody)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchBars(context.Background(), "EURUSD=X", model.TF15m, 10)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 1.08, bars[0].Open)
	assert.Equal(t, 1.091, bars[1].Close)
}

func TestYahooFetcher_FourHourUsesHourly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "60m", r.URL.Query().Get("interval"))
		fmt.Fprint(w, yahooBody)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchBars(context.Background(), "EURUSD=X", model.TF4h, 10)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 1.095, bars[0].High)
}

func TestYahooFetcher_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, yahooBody)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	q, err := f.FetchQuote(context.Background(), "EURUSD=X")
	require.NoError(t, err)
	assert.Equal(t, q.Bid, q.Ask)
	assert.Equal(t, 1.0851, q.Ask)
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchBars(context.Background(), "BAD", model.TF15m, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}
