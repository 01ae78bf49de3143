package model

import (
	"math"
	"time"
)

type Position struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AccountID    uint       `gorm:"not null;index" json:"account_id"`
	StrategyID   uint       `gorm:"index" json:"strategy_id"`
	Symbol       string     `gorm:"size:50;not null" json:"symbol"`
	Side         string     `gorm:"size:10;not null" json:"side"`
	Quantity     float64    `json:"quantity"`
	EntryPrice   float64    `json:"entry_price"`
	CurrentPrice float64    `json:"current_price"`
	IsOpen       bool       `gorm:"not null;index" json:"is_open"`
	OpenedAt     time.Time  `json:"opened_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	CloseReason  string     `gorm:"size:100" json:"close_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Position) TableName() string {
	return "positions"
}

// Notional is the absolute market value of the position at its current price.
func (p Position) Notional() float64 {
	return math.Abs(p.Quantity * p.CurrentPrice)
}

const (
	CloseReasonEmergencyStop = "emergency_stop"
)
