package entry

import (
	"sort"

	"EngulfSentinel/internal/model"
)

// Ledger is the append-only set of trigger bars that already produced an entry.
// It lives for the whole process and is never cleared.
type Ledger struct {
	bars map[int64]model.OHLCV
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{bars: make(map[int64]model.OHLCV)}
}

// Contains reports whether bar has been invalidated.
func (l *Ledger) Contains(bar model.OHLCV) bool {
	_, ok := l.bars[bar.Time.UnixNano()]
	return ok
}

// Add records bar. It returns false if bar was already present.
func (l *Ledger) Add(bar model.OHLCV) bool {
	key := bar.Time.UnixNano()
	if _, ok := l.bars[key]; ok {
		return false
	}
	l.bars[key] = bar
	return true
}

// Len returns the number of invalidated bars.
func (l *Ledger) Len() int { return len(l.bars) }

// Bars returns invalidated bars ordered by open time, oldest first.
func (l *Ledger) Bars() []model.OHLCV {
	out := make([]model.OHLCV, 0, len(l.bars))
	for _, b := range l.bars {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
