package model

import "time"

// Trade is a realized round trip. It is created once when a position's net
// quantity returns to zero and never updated afterwards.
type Trade struct {
	ID           string        `gorm:"primaryKey;size:120" json:"id"`
	AccountID    uint          `gorm:"index" json:"account_id"`
	StrategyID   uint          `gorm:"index" json:"strategy_id"`
	Symbol       string        `gorm:"size:50;not null" json:"symbol"`
	Side         string        `gorm:"size:10;not null" json:"side"`
	Quantity     float64       `json:"quantity"`
	EntryPrice   float64       `json:"entry_price"`
	ExitPrice    float64       `json:"exit_price"`
	EntryTime    time.Time     `json:"entry_time"`
	ExitTime     time.Time     `gorm:"index" json:"exit_time"`
	PnL          float64       `json:"pnl"`
	Commission   float64       `json:"commission"`
	HoldDuration time.Duration `json:"hold_duration"`
}

func (Trade) TableName() string {
	return "trades"
}
