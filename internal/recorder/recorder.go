package recorder

import (
	"time"

	"EngulfSentinel/internal/model"
)

// ScanCycle holds the outcome of one bar-close scan.
type ScanCycle struct {
	At         time.Time
	Symbol     string
	Timeframe  model.Timeframe
	LastBar    time.Time
	Candidates int
	Zones      int
	Combos     *model.ComboSet
	Err        string // set when the cycle aborted
}

// EntryEvent records one entry signal and the order built from it.
type EntryEvent struct {
	Signal   model.EntrySignal
	Order    model.Order
	Executor string
	Err      string // execution error, if any
}

// Recorder journals scan cycles and entries for later analysis.
// Nothing in the bot reads the journal back.
type Recorder interface {
	RecordScan(cycle *ScanCycle) error
	RecordEntry(evt *EntryEvent) error
	Close() error
}
