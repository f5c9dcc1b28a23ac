package strategy

import (
	"fmt"

	"EngulfSentinel/internal/model"
	"EngulfSentinel/internal/pattern"
)

// Options configures the detect-and-match pipeline.
type Options struct {
	Lookback      int
	UseConfluence bool
}

// Engine runs one full scan cycle over a primary and a confluence series.
type Engine struct {
	scanner       pattern.Scanner
	useConfluence bool
}

// NewEngine creates an Engine.
func NewEngine(opts Options) *Engine {
	return &Engine{
		scanner:       pattern.NewScanner(opts.Lookback),
		useConfluence: opts.UseConfluence,
	}
}

// Report is the outcome of one scan cycle.
type Report struct {
	Combos     *model.ComboSet
	Candidates pattern.Result
	Zones      pattern.Result
}

// Evaluate detects engulfings on primary, builds confluence zones from higher
// when enabled, and pairs combos. Nothing carries over from earlier calls.
func (e *Engine) Evaluate(primary, higher *model.Series) (*Report, error) {
	rep := &Report{Candidates: e.scanner.Scan(primary)}

	var m Matcher
	if e.useConfluence {
		conf := NewConfluence(e.scanner, higher)
		rep.Zones = conf.Zones
		m.Gate = conf
	}

	bulls, err := m.Match(primary, rep.Candidates.Bullish, model.Bullish)
	if err != nil {
		return nil, fmt.Errorf("match bullish combos: %w", err)
	}
	bears, err := m.Match(primary, rep.Candidates.Bearish, model.Bearish)
	if err != nil {
		return nil, fmt.Errorf("match bearish combos: %w", err)
	}

	// Stamp the snapshot with the newest bar so identical input yields an identical set.
	last, _ := primary.Last()
	rep.Combos = model.NewComboSet(last.Time, append(bulls, bears...)...)
	return rep, nil
}
