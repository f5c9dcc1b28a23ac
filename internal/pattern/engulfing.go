package pattern

import "EngulfSentinel/internal/model"

// IsSeed reports whether the bar at i can start an engulfing move in dir:
// for bullish, bar i is bearish and bar i+1 is bullish; bearish mirrors it.
func IsSeed(s *model.Series, i int, dir model.Direction) bool {
	if i < 0 || i+1 >= s.Len() {
		return false
	}
	seed, next := s.At(i), s.At(i+1)
	if dir == model.Bullish {
		return seed.IsBearish() && next.IsBullish()
	}
	return seed.IsBullish() && next.IsBearish()
}

// Confirm walks forward from two bars after the seed up to the newest bar.
// Each visited bar's close is compared with the seed's fixed extreme (High for
// bullish, Low for bearish). A bar against dir seen before the breach rejects
// the seed. It returns the index of the breaching bar.
func Confirm(s *model.Series, seed int, dir model.Direction) (int, bool) {
	if seed < 0 || seed >= s.Len() {
		return -1, false
	}
	threshold := s.At(seed).High
	if dir == model.Bearish {
		threshold = s.At(seed).Low
	}
	for k := seed + 2; k < s.Len(); k++ {
		bar := s.At(k)
		if dir == model.Bullish {
			if bar.IsBearish() {
				return -1, false
			}
			if bar.Close > threshold {
				return k, true
			}
			continue
		}
		if bar.IsBullish() {
			return -1, false
		}
		if bar.Close < threshold {
			return k, true
		}
	}
	return -1, false
}

// Detect checks the seed and its confirmation together.
func Detect(s *model.Series, i int, dir model.Direction) (model.Candidate, bool) {
	if !IsSeed(s, i, dir) {
		return model.Candidate{}, false
	}
	at, ok := Confirm(s, i, dir)
	if !ok {
		return model.Candidate{}, false
	}
	return model.Candidate{Bar: s.At(i), Index: i, ConfirmedAt: at, Direction: dir}, true
}

// IsEngulfing reports whether bar i is a confirmed engulfing seed in dir.
func IsEngulfing(s *model.Series, i int, dir model.Direction) bool {
	_, ok := Detect(s, i, dir)
	return ok
}

// HasFailed reports whether any close in [from, newest] went beyond the seed's
// opposite extreme: below Low for a bullish engulfing, above High for bearish.
func HasFailed(s *model.Series, seed, from int, dir model.Direction) bool {
	if seed < 0 || seed >= s.Len() {
		return false
	}
	if from < 0 {
		from = 0
	}
	bar := s.At(seed)
	for k := from; k < s.Len(); k++ {
		c := s.At(k).Close
		if dir == model.Bullish && c < bar.Low {
			return true
		}
		if dir == model.Bearish && c > bar.High {
			return true
		}
	}
	return false
}
