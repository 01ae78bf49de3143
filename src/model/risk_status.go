package model

import "time"

// RiskStatus is a point-in-time utilisation snapshot of one account.
type RiskStatus struct {
	AccountID        uint      `json:"account_id"`
	DailyLossUsed    float64   `json:"daily_loss_used"`
	DailyLossLimit   float64   `json:"daily_loss_limit"`
	MaxDrawdown      float64   `json:"max_drawdown"`
	MaxDrawdownLimit float64   `json:"max_drawdown_limit"`
	TotalExposure    float64   `json:"total_exposure"`
	MaxExposure      float64   `json:"max_exposure"`
	PositionCount    int       `json:"position_count"`
	MaxPositions     int       `json:"max_positions"`
	EmergencyStopped bool      `json:"emergency_stopped"`
	Session          string    `json:"session"`
	NoTradeWindow    bool      `json:"no_trade_window"`
	SizeMultiplier   float64   `json:"size_multiplier"`
	AsOf             time.Time `json:"as_of"`
}
