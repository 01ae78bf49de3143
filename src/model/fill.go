package model

import "time"

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

const (
	FillStatusPending  = "pending"
	FillStatusFilled   = "filled"
	FillStatusCanceled = "canceled"
	FillStatusRejected = "rejected"
)

// Fill is one executed order as reported by the order-execution collaborator.
// Rows are immutable once Status reaches FillStatusFilled.
type Fill struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrderID      string    `gorm:"size:100;index" json:"order_id"`
	AccountID    uint      `gorm:"not null;index:idx_fill_account_time" json:"account_id"`
	StrategyID   uint      `gorm:"index" json:"strategy_id"`
	Symbol       string    `gorm:"size:50;not null" json:"symbol"`
	Side         string    `gorm:"size:10;not null" json:"side"`
	Quantity     float64   `gorm:"not null" json:"quantity"`
	AvgFillPrice float64   `gorm:"not null" json:"avg_fill_price"`
	Commission   float64   `gorm:"not null;default:0" json:"commission"`
	Status       string    `gorm:"size:50;not null;default:pending" json:"status"`
	FilledAt     time.Time `gorm:"index:idx_fill_account_time" json:"filled_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName allows you to control the exact table name for fills.
func (Fill) TableName() string {
	return "fills"
}

// IsFilled reports whether the fill should take part in trade reconstruction.
func (f Fill) IsFilled() bool {
	return f.Status == FillStatusFilled
}

// OppositeSide returns SELL for BUY and BUY for SELL.
func OppositeSide(side string) string {
	if side == SideBuy {
		return SideSell
	}
	return SideBuy
}
