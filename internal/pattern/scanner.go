package pattern

import "EngulfSentinel/internal/model"

// DefaultLookback caps how many bars back from the newest a scan examines.
const DefaultLookback = 50

// Result holds surviving engulfing candidates per direction, newest first.
type Result struct {
	Bullish []model.Candidate
	Bearish []model.Candidate
}

// Candidates returns the list for dir.
func (r Result) Candidates(dir model.Direction) []model.Candidate {
	if dir == model.Bullish {
		return r.Bullish
	}
	return r.Bearish
}

// Len returns the total number of candidates.
func (r Result) Len() int { return len(r.Bullish) + len(r.Bearish) }

// Scanner finds confirmed, non-failed engulfing bars in a series. The same
// scanner serves the primary timeframe and the confluence timeframe.
type Scanner struct {
	Lookback int
}

// NewScanner returns a scanner, falling back to DefaultLookback when lookback <= 0.
func NewScanner(lookback int) Scanner {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return Scanner{Lookback: lookback}
}

// Scan walks newest to oldest over at most Lookback bars.
func (sc Scanner) Scan(s *model.Series) Result {
	var res Result
	lookback := sc.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	stop := s.Len() - lookback
	if stop < 0 {
		stop = 0
	}
	for i := s.Len() - 1; i >= stop; i-- {
		if c, ok := Detect(s, i, model.Bullish); ok && !HasFailed(s, i, i+1, model.Bullish) {
			res.Bullish = append(res.Bullish, c)
		}
		if c, ok := Detect(s, i, model.Bearish); ok && !HasFailed(s, i, i+1, model.Bearish) {
			res.Bearish = append(res.Bearish, c)
		}
	}
	return res
}
