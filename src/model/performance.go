package model

import "time"

type PerformanceMetrics struct {
	TotalTrades       int           `json:"total_trades" yaml:"total_trades"`
	WinningTrades     int           `json:"winning_trades" yaml:"winning_trades"`
	LosingTrades      int           `json:"losing_trades" yaml:"losing_trades"`
	TotalReturn       float64       `json:"total_return" yaml:"total_return"`
	WinRate           float64       `json:"win_rate" yaml:"win_rate"`
	ProfitFactor      float64       `json:"profit_factor" yaml:"profit_factor"`
	MaxDrawdown       float64       `json:"max_drawdown" yaml:"max_drawdown"`
	SharpeRatio       float64       `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	SortinoRatio      float64       `json:"sortino_ratio" yaml:"sortino_ratio"`
	ConsecutiveWins   int           `json:"consecutive_wins" yaml:"consecutive_wins"`
	ConsecutiveLosses int           `json:"consecutive_losses" yaml:"consecutive_losses"`
	AverageTrade      float64       `json:"average_trade" yaml:"average_trade"`
	LargestWin        float64       `json:"largest_win" yaml:"largest_win"`
	LargestLoss       float64       `json:"largest_loss" yaml:"largest_loss"`
	AverageHoldTime   time.Duration `json:"average_hold_time" yaml:"average_hold_time"`
	TotalCommission   float64       `json:"total_commission" yaml:"total_commission"`
}

// DailyReturn is one bucket of the charting series, keyed by exit date.
type DailyReturn struct {
	Date       string  `json:"date" yaml:"date"`
	PnL        float64 `json:"pnl" yaml:"pnl"`
	Cumulative float64 `json:"cumulative" yaml:"cumulative"`
	Drawdown   float64 `json:"drawdown" yaml:"drawdown"`
}

type StrategyReport struct {
	StrategyID uint               `json:"strategy_id" yaml:"strategy_id"`
	Metrics    PerformanceMetrics `json:"metrics" yaml:"metrics"`
	Daily      []DailyReturn      `json:"daily" yaml:"daily"`
}
