package model

import "time"

// Order is a market-order request handed to the execution collaborator.
type Order struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Side           TradeSide `json:"side"`
	Volume         float64   `json:"volume"`
	Label          string    `json:"label"`
	StopLossPips   float64   `json:"stop_loss_pips"`
	TakeProfitPips float64   `json:"take_profit_pips"`
	TriggerTime    time.Time `json:"trigger_time"`
	TriggerPrice   float64   `json:"trigger_price"`
	CreatedAt      time.Time `json:"created_at"`
}
