package executor

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"EngulfSentinel/internal/model"
)

// DryRunExecutor logs orders instead of placing them. It keeps what it saw.
type DryRunExecutor struct {
	log *zap.Logger

	mu     sync.Mutex
	orders []model.Order
}

func NewDryRunExecutor(log *zap.Logger) *DryRunExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	return &DryRunExecutor{log: log}
}

func (d *DryRunExecutor) Name() string { return "dry-run" }

func (d *DryRunExecutor) ExecuteMarketOrder(_ context.Context, order model.Order) error {
	d.mu.Lock()
	d.orders = append(d.orders, order)
	d.mu.Unlock()
	d.log.Info("dry-run order",
		zap.String("order_id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Float64("volume", order.Volume),
		zap.Float64("sl_pips", order.StopLossPips),
		zap.Float64("tp_pips", order.TakeProfitPips),
	)
	return nil
}

// Orders returns a copy of the orders received so far.
func (d *DryRunExecutor) Orders() []model.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.Order, len(d.orders))
	copy(out, d.orders)
	return out
}

func (d *DryRunExecutor) Close() error { return nil }
