// Package executor hands market orders to whatever places them.
package executor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"EngulfSentinel/internal/model"
	"EngulfSentinel/internal/risk"
)

// Executor places a market order. Implementations must be safe for concurrent use.
type Executor interface {
	ExecuteMarketOrder(ctx context.Context, order model.Order) error
	Name() string
	Close() error
}

// NewOrder builds a market order for sig sized by plan. The ID is a fresh UUID.
func NewOrder(symbol, label string, sig model.EntrySignal, plan risk.Plan, now time.Time) model.Order {
	return model.Order{
		ID:             uuid.NewString(),
		Symbol:         symbol,
		Side:           sig.Side,
		Volume:         plan.Volume,
		Label:          label,
		StopLossPips:   plan.StopLossPips,
		TakeProfitPips: plan.TakeProfitPips,
		TriggerTime:    sig.Combo.Trigger.Time,
		TriggerPrice:   sig.Combo.TriggerLevel(),
		CreatedAt:      now.UTC(),
	}
}
