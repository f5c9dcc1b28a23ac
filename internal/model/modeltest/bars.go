// Package modeltest builds bars and series for tests.
package modeltest

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"EngulfSentinel/internal/model"
)

// Start is the open time of bar 0.
var Start = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// Bar returns the i-th 15m bar with explicit OHLC.
func Bar(i int, o, h, l, c float64) model.OHLCV {
	return model.OHLCV{
		Time:  Start.Add(time.Duration(i) * 15 * time.Minute),
		Open:  o,
		High:  h,
		Low:   l,
		Close: c,
	}
}

// Body returns the i-th bar with no wicks: High and Low are the body edges.
func Body(i int, o, c float64) model.OHLCV {
	return Bar(i, o, math.Max(o, c), math.Min(o, c), c)
}

// Bodies builds consecutive wickless bars from (open, close) pairs.
func Bodies(oc ...[2]float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(oc))
	for i, p := range oc {
		bars[i] = Body(i, p[0], p[1])
	}
	return bars
}

// Series wraps bars into a 15m series and fails the test on error.
func Series(t testing.TB, bars ...model.OHLCV) *model.Series {
	t.Helper()
	s, err := model.NewSeries("TEST", model.TF15m, bars)
	if err != nil {
		t.Fatalf("new series: %v", err)
	}
	return s
}

// Random builds n bars of a seeded random walk.
func Random(seed int64, n int) []model.OHLCV {
	r := rand.New(rand.NewSource(seed))
	bars := make([]model.OHLCV, n)
	price := 100.0
	for i := range bars {
		o := price
		c := o + (r.Float64()-0.5)*4
		h := math.Max(o, c) + r.Float64()
		l := math.Min(o, c) - r.Float64()
		bars[i] = Bar(i, o, h, l, c)
		price = c
	}
	return bars
}
