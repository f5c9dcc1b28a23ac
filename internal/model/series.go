package model

import (
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrBarNotFound is returned when a timestamp lookup misses. Callers only look up
	// timestamps taken from the same series, so this signals a broken invariant.
	ErrBarNotFound = errors.New("bar not found")
	// ErrUnorderedBars is returned when bar timestamps are not strictly increasing.
	ErrUnorderedBars = errors.New("bar timestamps must be strictly increasing")
)

// Series is an ordered, read-only view of bars for one symbol and timeframe.
// Index 0 is the oldest retained bar and Len()-1 the most recently closed one.
type Series struct {
	Symbol    string
	Timeframe Timeframe

	bars  []OHLCV
	index map[int64]int
}

// NewSeries copies bars into a Series. Bars must be oldest-first with strictly
// increasing open times.
func NewSeries(symbol string, tf Timeframe, bars []OHLCV) (*Series, error) {
	s := &Series{
		Symbol:    symbol,
		Timeframe: tf,
		bars:      make([]OHLCV, len(bars)),
		index:     make(map[int64]int, len(bars)),
	}
	copy(s.bars, bars)
	for i, b := range s.bars {
		if i > 0 && !b.Time.After(s.bars[i-1].Time) {
			return nil, fmt.Errorf("%s %s at index %d (%s): %w",
				symbol, tf, i, b.Time.Format(time.RFC3339), ErrUnorderedBars)
		}
		s.index[b.Time.UnixNano()] = i
	}
	return s, nil
}

// Len returns the number of bars. A nil Series has length 0.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.bars)
}

// At returns the bar at index i. It panics when i is out of range, like a slice.
func (s *Series) At(i int) OHLCV { return s.bars[i] }

// Last returns the newest bar.
func (s *Series) Last() (OHLCV, bool) {
	if s.Len() == 0 {
		return OHLCV{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// Bars returns a copy of the underlying bars.
func (s *Series) Bars() []OHLCV {
	out := make([]OHLCV, s.Len())
	if s != nil {
		copy(out, s.bars)
	}
	return out
}

// IndexOf returns the index of the bar that opened exactly at t.
func (s *Series) IndexOf(t time.Time) (int, error) {
	if s != nil {
		if i, ok := s.index[t.UnixNano()]; ok {
			return i, nil
		}
	}
	return -1, pkgerrors.Wrapf(ErrBarNotFound, "lookup %s", t.Format(time.RFC3339))
}
