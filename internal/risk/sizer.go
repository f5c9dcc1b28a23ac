package risk

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"EngulfSentinel/internal/model"
)

// StopLossMode selects how the stop distance is derived.
type StopLossMode string

const (
	StopLossEntryCandle StopLossMode = "entry_candle"
	StopLossFixedPips   StopLossMode = "pips"
)

// TakeProfitMode selects how the target distance is derived.
type TakeProfitMode string

const (
	TakeProfitRiskReward TakeProfitMode = "risk_reward"
	TakeProfitFixedPips  TakeProfitMode = "pips"
)

// SizingMode selects how order volume is derived.
type SizingMode string

const (
	SizingFixedLot    SizingMode = "fixed_lot"
	SizingPercentRisk SizingMode = "percent_risk"
)

// ErrZeroStopLoss is returned when the stop distance works out to zero pips.
var ErrZeroStopLoss = errors.New("stop loss distance is zero")

// Config holds sizing parameters.
type Config struct {
	StopLoss       StopLossMode   `yaml:"stop_loss" env:"RISK_STOP_LOSS"`
	StopLossPips   float64        `yaml:"stop_loss_pips" env:"RISK_STOP_LOSS_PIPS"`
	TakeProfit     TakeProfitMode `yaml:"take_profit" env:"RISK_TAKE_PROFIT"`
	TakeProfitPips float64        `yaml:"take_profit_pips" env:"RISK_TAKE_PROFIT_PIPS"`
	RiskReward     float64        `yaml:"risk_reward" env:"RISK_REWARD"`
	Sizing         SizingMode     `yaml:"sizing" env:"RISK_SIZING"`
	Lots           float64        `yaml:"lots" env:"RISK_LOTS"`
	PercentRisk    float64        `yaml:"percent_risk" env:"RISK_PERCENT"`
	PipSize        float64        `yaml:"pip_size" env:"RISK_PIP_SIZE"`
	PipValue       float64        `yaml:"pip_value" env:"RISK_PIP_VALUE"` // account currency per pip per unit
	LotSize        float64        `yaml:"lot_size" env:"RISK_LOT_SIZE"`
	VolumeStep     float64        `yaml:"volume_step" env:"RISK_VOLUME_STEP"`
	AccountBalance float64        `yaml:"account_balance" env:"ACCOUNT_BALANCE"`
}

// Validate checks modes and the values each mode needs.
func (c Config) Validate() error {
	switch c.StopLoss {
	case StopLossEntryCandle:
	case StopLossFixedPips:
		if c.StopLossPips <= 0 {
			return fmt.Errorf("risk.stop_loss_pips must be positive")
		}
	default:
		return fmt.Errorf("unknown risk.stop_loss %q", c.StopLoss)
	}
	switch c.TakeProfit {
	case TakeProfitRiskReward:
		if c.RiskReward <= 0 {
			return fmt.Errorf("risk.risk_reward must be positive")
		}
	case TakeProfitFixedPips:
		if c.TakeProfitPips <= 0 {
			return fmt.Errorf("risk.take_profit_pips must be positive")
		}
	default:
		return fmt.Errorf("unknown risk.take_profit %q", c.TakeProfit)
	}
	switch c.Sizing {
	case SizingFixedLot:
		if c.Lots <= 0 || c.LotSize <= 0 {
			return fmt.Errorf("risk.lots and risk.lot_size must be positive")
		}
	case SizingPercentRisk:
		if c.PercentRisk <= 0 || c.PipValue <= 0 {
			return fmt.Errorf("risk.percent_risk and risk.pip_value must be positive")
		}
	default:
		return fmt.Errorf("unknown risk.sizing %q", c.Sizing)
	}
	if c.PipSize <= 0 {
		return fmt.Errorf("risk.pip_size must be positive")
	}
	return nil
}

// Plan is the stop, target and volume for one entry.
type Plan struct {
	StopLossPips   float64
	TakeProfitPips float64
	Volume         float64
}

// Sizer turns a trigger bar into an order plan. The account balance can be
// refreshed at runtime.
type Sizer struct {
	mu      sync.Mutex
	cfg     Config
	balance float64
}

// NewSizer validates cfg and creates a Sizer.
func NewSizer(cfg Config) (*Sizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sizer{cfg: cfg, balance: cfg.AccountBalance}, nil
}

// SetBalance updates the balance used for percent-risk sizing.
func (s *Sizer) SetBalance(balance float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = balance
}

// Balance returns the current balance.
func (s *Sizer) Balance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// Plan sizes an entry on trigger.
func (s *Sizer) Plan(trigger model.OHLCV) (Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.cfg.StopLossPips
	if s.cfg.StopLoss == StopLossEntryCandle {
		sl = math.Abs(trigger.High-trigger.Low) / s.cfg.PipSize
	}
	if sl <= 0 {
		return Plan{}, ErrZeroStopLoss
	}

	tp := s.cfg.TakeProfitPips
	if s.cfg.TakeProfit == TakeProfitRiskReward {
		tp = sl * s.cfg.RiskReward
	}

	var volume float64
	switch s.cfg.Sizing {
	case SizingPercentRisk:
		riskAmount := s.balance * s.cfg.PercentRisk / 100
		volume = riskAmount / (sl * s.cfg.PipValue)
	default:
		volume = s.cfg.Lots * s.cfg.LotSize
	}
	if s.cfg.VolumeStep > 0 {
		volume = math.Floor(volume/s.cfg.VolumeStep) * s.cfg.VolumeStep
	}
	if volume <= 0 {
		return Plan{}, fmt.Errorf("volume rounds to zero (balance %.2f, stop %.1f pips)", s.balance, sl)
	}

	return Plan{StopLossPips: sl, TakeProfitPips: tp, Volume: volume}, nil
}
