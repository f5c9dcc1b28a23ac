package strategy

import (
	"EngulfSentinel/internal/model"
	"EngulfSentinel/internal/pattern"
)

// Confluence gates combos on higher-timeframe engulfing zones.
type Confluence struct {
	Zones pattern.Result
}

// NewConfluence scans the higher timeframe with the same scanner used for the
// primary series.
func NewConfluence(sc pattern.Scanner, higher *model.Series) *Confluence {
	return &Confluence{Zones: sc.Scan(higher)}
}

// Allows reports whether any primary bar in [start, end] reaches a zone of the
// same direction: a bar's low at or under a bullish zone's high for buys, a
// bar's high at or over a bearish zone's low for sells.
func (c *Confluence) Allows(dir model.Direction, s *model.Series, start, end int) bool {
	zones := c.Zones.Candidates(dir)
	if len(zones) == 0 {
		return false
	}
	if start < 0 {
		start = 0
	}
	if end >= s.Len() {
		end = s.Len() - 1
	}
	for i := start; i <= end; i++ {
		bar := s.At(i)
		for _, z := range zones {
			if reaches(bar, z.Bar, dir) {
				return true
			}
		}
	}
	return false
}

func reaches(bar, zone model.OHLCV, dir model.Direction) bool {
	if dir == model.Bullish {
		return bar.Low <= zone.High
	}
	return bar.High >= zone.Low
}
