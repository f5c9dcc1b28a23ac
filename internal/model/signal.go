package model

import (
	"sort"
	"time"
)

// Direction is the side of an engulfing move.
type Direction int

const (
	Bullish Direction = iota
	Bearish
)

// Opposite returns the mirrored direction.
func (d Direction) Opposite() Direction {
	if d == Bullish {
		return Bearish
	}
	return Bullish
}

func (d Direction) String() string {
	if d == Bullish {
		return "bullish"
	}
	return "bearish"
}

// TradeSide maps a direction to the order side it produces.
func (d Direction) TradeSide() TradeSide {
	if d == Bullish {
		return Buy
	}
	return Sell
}

// MarshalText lets directions render as strings in JSON.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// TradeSide is the order side.
type TradeSide string

const (
	Buy  TradeSide = "BUY"
	Sell TradeSide = "SELL"
)

// Candidate is a confirmed engulfing seed bar.
type Candidate struct {
	Bar         OHLCV     `json:"bar"`
	Index       int       `json:"index"`
	ConfirmedAt int       `json:"confirmed_at"`
	Direction   Direction `json:"direction"`
}

// Combo pairs a surviving engulfing bar with the earlier opposite engulfing it overran.
type Combo struct {
	Direction Direction `json:"direction"`
	Trigger   OHLCV     `json:"trigger"`
	Partner   OHLCV     `json:"partner"`
}

// TriggerLevel is the price at which the combo enters: High for buys, Low for sells.
func (c Combo) TriggerLevel() float64 {
	if c.Direction == Bullish {
		return c.Trigger.High
	}
	return c.Trigger.Low
}

// ComboSet is an immutable snapshot of combos built in one scan cycle.
// Each direction is ordered by trigger open time, newest first.
type ComboSet struct {
	BuiltAt time.Time
	bullish []Combo
	bearish []Combo
}

// NewComboSet builds a snapshot. The input slices are copied and sorted.
func NewComboSet(builtAt time.Time, combos ...Combo) *ComboSet {
	cs := &ComboSet{BuiltAt: builtAt}
	for _, c := range combos {
		if c.Direction == Bullish {
			cs.bullish = append(cs.bullish, c)
		} else {
			cs.bearish = append(cs.bearish, c)
		}
	}
	byTriggerDesc := func(list []Combo) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Trigger.Time.After(list[j].Trigger.Time)
		})
	}
	byTriggerDesc(cs.bullish)
	byTriggerDesc(cs.bearish)
	return cs
}

// EmptyComboSet returns a snapshot with no combos.
func EmptyComboSet(builtAt time.Time) *ComboSet { return NewComboSet(builtAt) }

// Combos returns a copy of the combos for one direction, newest first.
func (cs *ComboSet) Combos(dir Direction) []Combo {
	if cs == nil {
		return nil
	}
	src := cs.bullish
	if dir == Bearish {
		src = cs.bearish
	}
	out := make([]Combo, len(src))
	copy(out, src)
	return out
}

// MostRecent returns the combo with the newest trigger bar for dir.
func (cs *ComboSet) MostRecent(dir Direction) (Combo, bool) {
	if cs == nil {
		return Combo{}, false
	}
	src := cs.bullish
	if dir == Bearish {
		src = cs.bearish
	}
	if len(src) == 0 {
		return Combo{}, false
	}
	return src[0], true
}

// Len returns the total number of combos.
func (cs *ComboSet) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.bullish) + len(cs.bearish)
}

// Equal reports whether two snapshots hold the same combos in the same order.
func (cs *ComboSet) Equal(other *ComboSet) bool {
	eq := func(a, b []Combo) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i].Direction != b[i].Direction ||
				!a[i].Trigger.Time.Equal(b[i].Trigger.Time) ||
				!a[i].Partner.Time.Equal(b[i].Partner.Time) {
				return false
			}
		}
		return true
	}
	return eq(cs.Combos(Bullish), other.Combos(Bullish)) && eq(cs.Combos(Bearish), other.Combos(Bearish))
}

// EntrySignal is emitted when live price reaches a combo's trigger level.
type EntrySignal struct {
	Combo Combo
	Side  TradeSide
	Price float64
	At    time.Time
}
