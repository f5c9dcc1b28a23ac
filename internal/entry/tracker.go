package entry

import (
	"math"
	"sync"
	"time"

	"EngulfSentinel/internal/model"
)

// Tracker holds the latest combo snapshot and decides when live price hits a
// combo's trigger level. Check-then-record on the ledger happens under one lock.
type Tracker struct {
	mu        sync.Mutex
	combos    *model.ComboSet
	ledger    *Ledger
	tolerance float64
}

// NewTracker creates a Tracker. tolerance is the allowed distance between price
// and trigger level; 0 means exact equality.
func NewTracker(tolerance float64) *Tracker {
	return &Tracker{
		combos:    model.EmptyComboSet(time.Time{}),
		ledger:    NewLedger(),
		tolerance: math.Abs(tolerance),
	}
}

// Update replaces the current snapshot.
func (t *Tracker) Update(cs *model.ComboSet) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cs == nil {
		cs = model.EmptyComboSet(time.Time{})
	}
	t.combos = cs
}

// Snapshot returns the current combo snapshot.
func (t *Tracker) Snapshot() *model.ComboSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.combos
}

// Invalidated returns the bars that already triggered, oldest first.
func (t *Tracker) Invalidated() []model.OHLCV {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.Bars()
}

// OnQuote checks the most recent bullish combo against ask and the most recent
// bearish combo against bid. Each trigger bar fires at most once.
func (t *Tracker) OnQuote(q model.Quote) []model.EntrySignal {
	t.mu.Lock()
	defer t.mu.Unlock()

	var signals []model.EntrySignal
	if sig, ok := t.check(model.Bullish, q.Ask, q); ok {
		signals = append(signals, sig)
	}
	if sig, ok := t.check(model.Bearish, q.Bid, q); ok {
		signals = append(signals, sig)
	}
	return signals
}

func (t *Tracker) check(dir model.Direction, price float64, q model.Quote) (model.EntrySignal, bool) {
	combo, ok := t.combos.MostRecent(dir)
	if !ok {
		return model.EntrySignal{}, false
	}
	if math.Abs(price-combo.TriggerLevel()) > t.tolerance {
		return model.EntrySignal{}, false
	}
	if !t.ledger.Add(combo.Trigger) {
		return model.EntrySignal{}, false
	}
	return model.EntrySignal{Combo: combo, Side: dir.TradeSide(), Price: price, At: q.Time}, true
}
