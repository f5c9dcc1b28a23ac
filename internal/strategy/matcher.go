package strategy

import (
	"fmt"

	"EngulfSentinel/internal/model"
	"EngulfSentinel/internal/pattern"
)

// Gate decides whether a combo whose backward-scan window is [start, end] on
// the primary series may be taken.
type Gate interface {
	Allows(dir model.Direction, s *model.Series, start, end int) bool
}

// Matcher pairs surviving engulfing bars with the nearest earlier opposite
// engulfing that failed. A nil Gate means ungated.
type Matcher struct {
	Gate Gate
}

// Match returns one combo at most per candidate, in candidate order.
func (m Matcher) Match(s *model.Series, candidates []model.Candidate, dir model.Direction) ([]model.Combo, error) {
	var combos []model.Combo
	for _, c := range candidates {
		idx, err := s.IndexOf(c.Bar.Time)
		if err != nil {
			return nil, fmt.Errorf("resolve %s trigger: %w", dir, err)
		}
		if partner, ok := m.partnerFor(s, idx, dir); ok {
			combos = append(combos, model.Combo{Direction: dir, Trigger: s.At(idx), Partner: partner})
		}
	}
	return combos, nil
}

// partnerFor scans backward from just before the trigger. A same-direction
// engulfing ends the scan; the first failed, dominated opposite engulfing is
// the partner, subject to the gate. A gate rejection also ends the scan.
func (m Matcher) partnerFor(s *model.Series, idx int, dir model.Direction) (model.OHLCV, bool) {
	trigger := s.At(idx)
	opp := dir.Opposite()
	for i := idx - 1; i >= 0; i-- {
		if pattern.IsEngulfing(s, i, dir) {
			return model.OHLCV{}, false
		}
		if !pattern.IsEngulfing(s, i, opp) || !pattern.HasFailed(s, i, i+1, opp) {
			continue
		}
		partner := s.At(i)
		if !dominates(trigger, partner, dir) {
			continue
		}
		if m.Gate != nil && !m.Gate.Allows(dir, s, i, idx) {
			return model.OHLCV{}, false
		}
		return partner, true
	}
	return model.OHLCV{}, false
}

// dominates: a bullish trigger must reach below the partner's low, a bearish
// trigger above the partner's high.
func dominates(trigger, partner model.OHLCV, dir model.Direction) bool {
	if dir == model.Bullish {
		return trigger.Low < partner.Low
	}
	return trigger.High > partner.High
}
