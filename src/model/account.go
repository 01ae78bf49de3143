package model

import "time"

// RiskProfile carries optional per-account or per-strategy limit overrides.
// A nil field means "use the next level down" (strategy -> account -> default).
type RiskProfile struct {
	DailyLossLimit   *float64 `gorm:"column:daily_loss_limit" json:"daily_loss_limit,omitempty" yaml:"daily_loss_limit,omitempty"`
	MaxDrawdownLimit *float64 `gorm:"column:max_drawdown_limit" json:"max_drawdown_limit,omitempty" yaml:"max_drawdown_limit,omitempty"`
	MaxPositions     *int     `gorm:"column:max_positions" json:"max_positions,omitempty" yaml:"max_positions,omitempty"`
	MaxExposure      *float64 `gorm:"column:max_exposure" json:"max_exposure,omitempty" yaml:"max_exposure,omitempty"`
}

type Account struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"size:255;not null" json:"name"`
	Balance     float64     `gorm:"not null;default:0" json:"balance"`
	Equity      float64     `gorm:"not null;default:0" json:"equity"`
	Currency    string      `gorm:"size:10;not null;default:USD" json:"currency"`
	Active      bool        `gorm:"not null" json:"active"`
	RiskProfile RiskProfile `gorm:"embedded;embeddedPrefix:risk_" json:"risk_profile"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}
